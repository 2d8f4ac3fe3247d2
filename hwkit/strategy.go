// Copyright 2026 The Accelize DRM Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hwkit

import (
	"fmt"
	"time"

	"github.com/Accelize/drm-sub002/conv"
	"github.com/Accelize/drm-sub002/hwkit/internal/regs"
)

type statusField struct {
	name string
	bit  uint32
}

var (
	stDNAReady          = statusField{"DNA ready", regs.StatusDNAReady}
	stVLNVReady         = statusField{"VLNV ready", regs.StatusVLNVReady}
	stActivationDone    = statusField{"activation done", regs.StatusActivationDone}
	stAutoEnabled       = statusField{"auto-controller enabled", regs.StatusAutoControllerEnabled}
	stAutoBusy          = statusField{"auto-controller busy", regs.StatusAutoControllerBusy}
	stMeteringReady     = statusField{"metering ready", regs.StatusMeteringReady}
	stSaasReady         = statusField{"SaaS challenge ready", regs.StatusSaasChallengeReady}
	stTimerEnabled      = statusField{"license timer enabled", regs.StatusLicenseTimerEnabled}
	stTimerInitLoaded   = statusField{"license timer init loaded", regs.StatusLicenseTimerInitLoaded}
	stEndSessionReady   = statusField{"end-session metering ready", regs.StatusEndSessionMeteringReady}
	stHeartbeatEnabled  = statusField{"heartbeat mode enabled", regs.StatusHeartbeatEnabled}
	stAsyncReady        = statusField{"asynchronous metering ready", regs.StatusAsyncMeteringReady}
	stTimerSampleReady  = statusField{"license timer sample ready", regs.StatusLicenseTimerSampleReady}
	stMeteringEnabled   = statusField{"metering enabled", regs.StatusMeteringEnabled}
	statusFieldsOrdered = []statusField{
		stDNAReady, stVLNVReady, stActivationDone,
		stAutoEnabled, stAutoBusy,
		stMeteringReady, stSaasReady,
		stTimerEnabled, stTimerInitLoaded,
		stEndSessionReady, stHeartbeatEnabled, stAsyncReady,
		stTimerSampleReady, stMeteringEnabled,
	}
)

type errorLane struct {
	name string
	lane uint32
}

var (
	lnDNA        = errorLane{"DNA extract", regs.ErrorDNAExtract}
	lnVLNV       = errorLane{"VLNV extract", regs.ErrorVLNVExtract}
	lnActivation = errorLane{"activation", regs.ErrorActivation}
	lnTimerLoad  = errorLane{"license timer load", regs.ErrorLicenseTimerLoad}
	lanesOrdered = []errorLane{lnDNA, lnVLNV, lnActivation, lnTimerLoad}
)

// strategy is the polling layer: typed register reads and writes, waits
// on status bits and error lanes, feature gates and the hardware report.
type strategy struct {
	acc   *access
	clock Clock
	sleep time.Duration
	met   *Metrics
}

// waitStatusBit polls the status register until the field at bit equals
// expected. It returns the last value read and CodeHardwareTimeout when
// the timeout elapsed. A zero timeout polls forever.
func (s *strategy) waitStatusBit(timeout time.Duration, bit, mask, expected uint32) (uint32, error) {
	return s.wait(timeout, regs.LineStatus, bit, mask, expected)
}

// waitErrorByte polls the error register until the lane equals expected.
// It returns the last value read and CodeHardwareTimeout when the timeout
// elapsed. A zero timeout polls forever.
func (s *strategy) waitErrorByte(timeout time.Duration, lane, mask, expected uint32) (uint32, error) {
	return s.wait(timeout, regs.LineError, 8*lane, mask, expected)
}

func (s *strategy) wait(timeout time.Duration, line, lsb, mask, expected uint32) (uint32, error) {
	err := s.acc.selectPage(regs.PageRegisters)
	if err != nil {
		return 0, err
	}

	start := s.clock.Now()
	defer func() {
		s.met.observeWait(s.clock.Now().Sub(start))
	}()

	for {
		v, err := s.acc.readLine(line)
		if err != nil {
			return 0, err
		}
		s.met.poll()
		got := bits(lsb, mask, v)
		if got == expected {
			return got, nil
		}
		if timeout > 0 && s.clock.Now().Sub(start) > timeout {
			s.met.timeout()
			return got, CodeHardwareTimeout
		}
		s.clock.Sleep(s.sleep)
	}
}

// expectStatus waits for a status field. On timeout, the optional error
// lane is read once more and both are embedded in a *TimeoutError.
func (s *strategy) expectStatus(op string, timeout time.Duration, f statusField, want uint32, ln *errorLane) error {
	got, err := s.waitStatusBit(timeout, f.bit, regs.MaskBit, want)
	switch {
	case err == nil:
		return nil
	case err != CodeHardwareTimeout:
		return err
	}

	st := &StatusCheck{
		Name: f.name, Bit: f.bit, Mask: regs.MaskBit,
		Expected: want, Actual: got,
	}
	var ec *ErrorCheck
	if ln != nil {
		v, err := s.readErrorLane(*ln)
		if err != nil {
			return err
		}
		ec = &ErrorCheck{Name: ln.name, Lane: ln.lane, Expected: regs.ErrNone, Actual: v}
	}
	return newTimeoutError(op, timeout, st, ec)
}

// expectError waits for an error lane. On timeout, the optional status
// field is read once more and both are embedded in a *TimeoutError.
func (s *strategy) expectError(op string, timeout time.Duration, ln errorLane, want uint8, f *statusField, fwant uint32) error {
	got, err := s.waitErrorByte(timeout, ln.lane, regs.MaskErrorByte, uint32(want))
	switch {
	case err == nil:
		return nil
	case err != CodeHardwareTimeout:
		return err
	}

	ec := &ErrorCheck{Name: ln.name, Lane: ln.lane, Expected: want, Actual: uint8(got)}
	var st *StatusCheck
	if f != nil {
		v, err := s.readStatusField(*f)
		if err != nil {
			return err
		}
		st = &StatusCheck{
			Name: f.name, Bit: f.bit, Mask: regs.MaskBit,
			Expected: fwant, Actual: v,
		}
	}
	return newTimeoutError(op, timeout, st, ec)
}

func (s *strategy) readStatus() (uint32, error) {
	err := s.acc.selectPage(regs.PageRegisters)
	if err != nil {
		return 0, err
	}
	return s.acc.readLine(regs.LineStatus)
}

func (s *strategy) readStatusField(f statusField) (uint32, error) {
	v, err := s.readStatus()
	if err != nil {
		return 0, err
	}
	return bits(f.bit, regs.MaskBit, v), nil
}

func (s *strategy) readStatusBit(f statusField) (bool, error) {
	v, err := s.readStatusField(f)
	return v == 1, err
}

func (s *strategy) readError() (uint32, error) {
	err := s.acc.selectPage(regs.PageRegisters)
	if err != nil {
		return 0, err
	}
	return s.acc.readLine(regs.LineError)
}

func (s *strategy) readErrorLane(ln errorLane) (uint8, error) {
	v, err := s.readError()
	if err != nil {
		return 0, err
	}
	return uint8(bits(8*ln.lane, regs.MaskErrorByte, v)), nil
}

func (s *strategy) readNumberOfIPs() (uint32, error) {
	v, err := s.readStatus()
	if err != nil {
		return 0, err
	}
	return bits(regs.StatusNumberOfIPs, regs.MaskNumberOfIPs, v), nil
}

func (s *strategy) readVersion() (uint32, error) {
	err := s.acc.selectPage(regs.PageRegisters)
	if err != nil {
		return 0, err
	}
	return s.acc.readLine(regs.LineVersion)
}

// requireVersion returns an *UnsupportedFeatureError when the hardware
// version is older than min.
func (s *strategy) requireVersion(feature string, min uint32) error {
	v, err := s.readVersion()
	if err != nil {
		return err
	}
	if v&0xffffff < min {
		return &UnsupportedFeatureError{
			Feature:         feature,
			HardwareVersion: conv.WordsToVersion(v),
			MinimumVersion:  conv.WordsToVersion(min),
		}
	}
	return nil
}

func (s *strategy) readHeartbeatEnabled() (bool, error) {
	err := s.requireVersion("heartbeat mode", regs.VersionHeartbeat)
	if err != nil {
		return false, err
	}
	return s.readStatusBit(stHeartbeatEnabled)
}

func (s *strategy) checkEnabled(functionality string, f statusField) error {
	v, err := s.readStatusField(f)
	if err != nil {
		return err
	}
	if v != 1 {
		return newDisabledError(functionality, StatusCheck{
			Name: f.name, Bit: f.bit, Mask: regs.MaskBit,
			Expected: 1, Actual: v,
		})
	}
	return nil
}

func (s *strategy) checkMeteringEnabled() error {
	return s.checkEnabled("metering", stMeteringEnabled)
}

func (s *strategy) checkLicenseTimerEnabled() error {
	return s.checkEnabled("license timer", stTimerEnabled)
}

func (s *strategy) readCommand() (uint32, error) {
	err := s.acc.selectPage(regs.PageRegisters)
	if err != nil {
		return 0, err
	}
	return s.acc.readLine(regs.LineCommand)
}

func (s *strategy) writeCommand(cmd uint32) error {
	return s.acc.writePageLines(regs.PageRegisters, regs.LineCommand, []uint32{cmd})
}

func (s *strategy) readRegister(line, size uint32) ([]uint32, error) {
	return s.acc.readPageLines(regs.PageRegisters, line, NumberOfWords(size))
}

func (s *strategy) readDNA() ([]uint32, error) {
	return s.readRegister(regs.LineDNA, regs.SizeDNA)
}

func (s *strategy) readSaasChallenge() ([]uint32, error) {
	return s.readRegister(regs.LineSaasChallenge, regs.SizeSaasChallenge)
}

func (s *strategy) readLicenseTimerCounter() (msb, lsb uint32, err error) {
	ws, err := s.readRegister(regs.LineLicenseTimerCounter, regs.SizeLicenseTimerCounter)
	if err != nil {
		return 0, 0, err
	}
	return ws[0], ws[1], nil
}

func (s *strategy) readLicenseStartAddress() ([]uint32, error) {
	return s.readRegister(regs.LineLicenseStartAddress, regs.SizeLicenseStartAddress)
}

func (s *strategy) writeLicenseStartAddress(msb, lsb uint32) error {
	return s.acc.writePageLines(regs.PageRegisters, regs.LineLicenseStartAddress, []uint32{msb, lsb})
}

func (s *strategy) readLicenseTimer() ([]uint32, error) {
	return s.readRegister(regs.LineLicenseTimer, regs.SizeLicenseTimer)
}

func (s *strategy) writeLicenseTimer(ws []uint32) error {
	if n := NumberOfWords(regs.SizeLicenseTimer); uint32(len(ws)) != n {
		return fmt.Errorf(
			"hwkit: invalid license timer size (got=%d words, want=%d): %w",
			len(ws), n, CodeInvalidArgument,
		)
	}
	return s.acc.writePageLines(regs.PageRegisters, regs.LineLicenseTimer, ws)
}

// minLicenseWords is the smallest license file accepted by the controller,
// one header block and one IP block, in 32-bit words.
const minLicenseWords = (regs.LicenseHeaderBlock + regs.LicenseIPBlock) * regs.WordsPer128

// writeLicenseFile writes a license file to the license page.
// Files shorter than minLicenseWords are rejected before any access.
func (s *strategy) writeLicenseFile(ws []uint32) error {
	if len(ws) < minLicenseWords {
		return &LicenseFileSizeError{Required: minLicenseWords, Actual: len(ws)}
	}
	return s.acc.writePageLines(regs.PageLicense, 0, ws)
}

func (s *strategy) readLicenseFile(nips uint32) ([]uint32, error) {
	n := (regs.LicenseHeaderBlock + regs.LicenseIPBlock*nips) * regs.WordsPer128
	return s.acc.readPageLines(regs.PageLicense, 0, n)
}

func (s *strategy) readVLNVFile(nips uint32) ([]uint32, error) {
	return s.acc.readPageLines(regs.PageVLNV, 0, (nips+1)*regs.WordsPerVLNV)
}

func (s *strategy) readTraceFile(nips uint32) ([]uint32, error) {
	return s.acc.readPageLines(regs.PageTrace, 0, nips*regs.WordsPer128)
}

func (s *strategy) readMeteringFile(nips uint32) ([]uint32, error) {
	return s.acc.readPageLines(regs.PageMetering, 0, nips*regs.WordsPer128)
}

func (s *strategy) readLogsFile(nips uint32) ([]uint32, error) {
	return s.acc.readPageLines(regs.PageLogs, 0, nips*regs.WordsPer128)
}

func (s *strategy) readMailboxSizes() (ro, rw uint32, err error) {
	ws, err := s.acc.readPageLines(regs.PageMailbox, 0, 1)
	if err != nil {
		return 0, 0, err
	}
	return ws[0] & regs.MailboxSizeROMask, ws[0] >> regs.MailboxSizeRWShift, nil
}

func (s *strategy) readMailbox() (ro, rw []uint32, err error) {
	nro, nrw, err := s.readMailboxSizes()
	if err != nil {
		return nil, nil, err
	}
	ws, err := s.acc.readLines(1, nro+nrw)
	if err != nil {
		return nil, nil, err
	}
	return ws[:nro:nro], ws[nro:], nil
}

func (s *strategy) writeMailbox(rw []uint32) error {
	nro, nrw, err := s.readMailboxSizes()
	if err != nil {
		return err
	}
	if uint32(len(rw)) > nrw {
		return fmt.Errorf(
			"hwkit: mailbox read-write area too small (got=%d words, max=%d): %w",
			len(rw), nrw, CodeInvalidArgument,
		)
	}
	return s.acc.writeLines(1+nro, rw)
}

func (s *strategy) readSelfTestCounters() (ap, rc uint32, err error) {
	err = s.requireVersion("self-test failure counters", regs.VersionSelfTestCounters)
	if err != nil {
		return 0, 0, err
	}
	ws, err := s.acc.readPageLines(regs.PageRegisters, regs.LineAdaptiveProportionFail, 2)
	if err != nil {
		return 0, 0, err
	}
	return ws[0], ws[1], nil
}
