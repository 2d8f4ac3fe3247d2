// Copyright 2026 The Accelize DRM Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hwkit

import (
	"errors"
	"fmt"
	"io"

	"github.com/Accelize/drm-sub002/conv"
	"github.com/Accelize/drm-sub002/hwkit/internal/regs"
	"github.com/go-daq/tdaq/log"
)

// Mode is the operating mode of a DRM controller.
type Mode int

const (
	// ModeLegacy controllers need an explicit NOP then command for every
	// extraction and activation.
	ModeLegacy Mode = iota
	// ModeHeartbeat controllers extract and activate autonomously.
	ModeHeartbeat
)

func (m Mode) String() string {
	switch m {
	case ModeLegacy:
		return "legacy"
	case ModeHeartbeat:
		return "heartbeat"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Controller drives the register protocol of one DRM controller.
//
// A Controller is not safe for concurrent use: the register space is a
// single hardware resource and calls must be serialized by the caller.
type Controller struct {
	cfg config
	msg log.MsgStream
	reg *strategy

	mode        Mode
	timerLoaded bool // a license timer value was loaded by this Controller
}

// New creates a Controller accessing registers through r and w.
//
// The environment overrides (DRM_CONTROLLER_TIMEOUT_IN_MICRO_SECONDS,
// DRM_CONTROLLER_SLEEP_IN_MICRO_SECONDS) are read once, before opts are
// applied. The controller mode is probed once and cached.
func New(r ReadFunc, w WriteFunc, opts ...Option) (*Controller, error) {
	if r == nil || w == nil {
		return nil, fmt.Errorf("hwkit: nil register access function: %w", CodeInvalidArgument)
	}

	cfg, err := newConfig()
	if err != nil {
		return nil, err
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	ctl := &Controller{
		cfg: cfg,
		msg: cfg.msg,
		reg: &strategy{
			acc:   &access{r: r, w: w, met: cfg.metrics},
			clock: cfg.clock,
			sleep: cfg.sleep,
			met:   cfg.metrics,
		},
	}

	err = ctl.probeMode()
	if err != nil {
		return nil, err
	}
	return ctl, nil
}

func (ctl *Controller) probeMode() error {
	hb, err := ctl.reg.readHeartbeatEnabled()
	var unsupported *UnsupportedFeatureError
	switch {
	case errors.As(err, &unsupported):
		ctl.msg.Debugf(
			"heartbeat status not available (hardware %s)",
			unsupported.HardwareVersion,
		)
		hb = false
	case err != nil:
		return err
	}

	if hb {
		ctl.mode = ModeHeartbeat
		ctl.msg.Infof("controller mode: %v", ctl.mode)
		return ctl.reg.expectStatus(
			"heartbeat mode initialization", ctl.cfg.timeout,
			stActivationDone, 1, &lnActivation,
		)
	}

	ctl.mode = ModeLegacy
	ctl.msg.Infof("controller mode: %v", ctl.mode)

	auto, err := ctl.reg.readStatusBit(stAutoEnabled)
	if err != nil {
		return err
	}
	if !auto {
		return nil
	}
	ctl.msg.Debugf("waiting for auto-controller...")
	return ctl.reg.expectStatus(
		"auto-controller initialization", ctl.cfg.timeout,
		stAutoBusy, 0, nil,
	)
}

// Mode returns the controller mode detected at construction.
func (ctl *Controller) Mode() Mode { return ctl.mode }

// issue writes a NOP then cmd, in legacy mode only.
func (ctl *Controller) issue(cmd uint32) error {
	if ctl.mode == ModeHeartbeat {
		return nil
	}
	return ctl.command(cmd)
}

// command writes a NOP then cmd, whatever the mode.
func (ctl *Controller) command(cmd uint32) error {
	ctl.msg.Debugf("command 0x%x", cmd)
	err := ctl.reg.writeCommand(regs.CmdNOP)
	if err != nil {
		return err
	}
	return ctl.reg.writeCommand(cmd)
}

// DNA is the device identifier extracted from the controller.
type DNA struct {
	Value     string // upper-case hex, 128 bits
	Ready     bool   // DNA ready status bit
	ErrorCode uint8  // DNA extract error lane
}

// ExtractDNA extracts the device DNA.
func (ctl *Controller) ExtractDNA() (DNA, error) {
	var dna DNA
	err := ctl.issue(regs.CmdExtractDNA)
	if err != nil {
		return dna, err
	}

	err = ctl.reg.expectStatus(
		"extract DNA", ctl.cfg.extract,
		stDNAReady, 1, &lnDNA,
	)
	if err != nil {
		return dna, err
	}
	dna.Ready = true

	ws, err := ctl.reg.readDNA()
	if err != nil {
		return dna, err
	}
	dna.Value = conv.WordsToHex(ws)

	dna.ErrorCode, err = ctl.reg.readErrorLane(lnDNA)
	if err != nil {
		return dna, err
	}
	return dna, nil
}

// VLNVFile holds the VLNV identifiers of the detected IPs.
// Entry 0 is the controller itself.
type VLNVFile struct {
	VLNVs     []string // upper-case hex, 64 bits each
	Ready     bool     // VLNV ready status bit
	ErrorCode uint8    // VLNV extract error lane
}

// ExtractVLNVFile extracts the VLNV file.
func (ctl *Controller) ExtractVLNVFile() (VLNVFile, error) {
	var vlnv VLNVFile
	err := ctl.issue(regs.CmdExtractVLNV)
	if err != nil {
		return vlnv, err
	}

	err = ctl.reg.expectStatus(
		"extract VLNV file", ctl.cfg.extract,
		stVLNVReady, 1, &lnVLNV,
	)
	if err != nil {
		return vlnv, err
	}
	vlnv.Ready = true

	nips, err := ctl.reg.readNumberOfIPs()
	if err != nil {
		return vlnv, err
	}
	ws, err := ctl.reg.readVLNVFile(nips)
	if err != nil {
		return vlnv, err
	}
	vlnv.VLNVs = groupHex(ws, regs.WordsPerVLNV)

	vlnv.ErrorCode, err = ctl.reg.readErrorLane(lnVLNV)
	if err != nil {
		return vlnv, err
	}
	return vlnv, nil
}

// Activate writes the hex-encoded license file and activates it.
//
// License files shorter than one header block and one IP block are
// rejected with a *LicenseFileSizeError before any register is written.
func (ctl *Controller) Activate(license string) error {
	ws, err := conv.HexToWords(license)
	if err != nil {
		return fmt.Errorf("hwkit: could not decode license file: %w", err)
	}

	err = ctl.reg.writeLicenseFile(ws)
	if err != nil {
		return err
	}

	err = ctl.reg.writeLicenseStartAddress(0, 0)
	if err != nil {
		return err
	}

	err = ctl.issue(regs.CmdActivate)
	if err != nil {
		return err
	}

	err = ctl.reg.expectStatus(
		"activate", ctl.cfg.timeout,
		stActivationDone, 1, &lnActivation,
	)
	if err != nil {
		return err
	}

	return ctl.reg.expectError(
		"activate", ctl.cfg.timeout,
		lnActivation, regs.ErrNone, &stActivationDone, 1,
	)
}

// ExtractLicenseFile reads back the license file area.
func (ctl *Controller) ExtractLicenseFile() ([]string, error) {
	return ctl.extractFile(ctl.reg.readLicenseFile)
}

// ExtractTraceFile reads the trace file, one 128-bit word per IP.
func (ctl *Controller) ExtractTraceFile() ([]string, error) {
	return ctl.extractFile(ctl.reg.readTraceFile)
}

// ExtractLogsFile reads the logs file, one 128-bit word per IP.
func (ctl *Controller) ExtractLogsFile() ([]string, error) {
	return ctl.extractFile(ctl.reg.readLogsFile)
}

func (ctl *Controller) extractFile(read func(nips uint32) ([]uint32, error)) ([]string, error) {
	nips, err := ctl.reg.readNumberOfIPs()
	if err != nil {
		return nil, err
	}
	ws, err := read(nips)
	if err != nil {
		return nil, err
	}
	return groupHex(ws, regs.WordsPer128), nil
}

// LoadLicenseTimerInit loads the hex-encoded 384-bit license timer value.
//
// When a previous value was loaded by this Controller, the hardware is
// first checked for a reset (*LicenseTimerResetError), then the previous
// value must have been consumed before the new one is written.
func (ctl *Controller) LoadLicenseTimerInit(timer string) error {
	ws, err := conv.HexToWords(timer)
	if err != nil {
		return fmt.Errorf("hwkit: could not decode license timer: %w", err)
	}

	err = ctl.reg.checkLicenseTimerEnabled()
	if err != nil {
		return err
	}

	if ctl.timerLoaded {
		err = ctl.checkLicenseTimerInitLoaded()
		if err != nil {
			return err
		}
		err = ctl.reg.expectStatus(
			"wait previous license timer consumed", ctl.cfg.timeout,
			stTimerInitLoaded, 0, &lnTimerLoad,
		)
		if err != nil {
			return err
		}
	}

	err = ctl.reg.writeLicenseTimer(ws)
	if err != nil {
		return err
	}

	err = ctl.reg.expectStatus(
		"load license timer", ctl.cfg.timeout,
		stTimerInitLoaded, 1, &lnTimerLoad,
	)
	if err != nil {
		return err
	}
	err = ctl.reg.expectError(
		"load license timer", ctl.cfg.timeout,
		lnTimerLoad, regs.ErrNone, &stTimerInitLoaded, 1,
	)
	if err != nil {
		return err
	}

	ctl.timerLoaded = true
	return nil
}

// checkLicenseTimerInitLoaded detects a controller reset since the last
// load: no init value loaded and a "not ready" timer lane.
func (ctl *Controller) checkLicenseTimerInitLoaded() error {
	loaded, err := ctl.reg.readStatusField(stTimerInitLoaded)
	if err != nil {
		return err
	}
	lane, err := ctl.reg.readErrorLane(lnTimerLoad)
	if err != nil {
		return err
	}
	if loaded == 0 && lane == regs.ErrNotReady {
		ctl.timerLoaded = false
		return newTimerResetError(
			StatusCheck{
				Name: stTimerInitLoaded.name, Bit: stTimerInitLoaded.bit,
				Mask: regs.MaskBit, Expected: 1, Actual: loaded,
			},
			ErrorCheck{
				Name: lnTimerLoad.name, Lane: lnTimerLoad.lane,
				Expected: regs.ErrNone, Actual: lane,
			},
		)
	}
	return nil
}

// MeteringFile holds the metering data extracted from the controller.
type MeteringFile struct {
	Words         []string // one upper-case hex 128-bit word per IP
	SaasChallenge string   // upper-case hex, 128 bits
}

// SynchronousExtractMetering reads the metering file and SaaS challenge
// once the metering data is ready.
func (ctl *Controller) SynchronousExtractMetering() (MeteringFile, error) {
	err := ctl.reg.checkMeteringEnabled()
	if err != nil {
		return MeteringFile{}, err
	}
	return ctl.readMetering()
}

func (ctl *Controller) readMetering() (MeteringFile, error) {
	var mf MeteringFile
	err := ctl.reg.expectStatus(
		"extract metering", ctl.cfg.timeout,
		stMeteringReady, 1, nil,
	)
	if err != nil {
		return mf, err
	}

	nips, err := ctl.reg.readNumberOfIPs()
	if err != nil {
		return mf, err
	}
	ws, err := ctl.reg.readMeteringFile(nips)
	if err != nil {
		return mf, err
	}
	mf.Words = groupHex(ws, regs.WordsPer128)

	saas, err := ctl.reg.readSaasChallenge()
	if err != nil {
		return mf, err
	}
	mf.SaasChallenge = conv.WordsToHex(saas)
	return mf, nil
}

// AsynchronousExtractMetering requests a metering extraction and reads it.
func (ctl *Controller) AsynchronousExtractMetering() (MeteringFile, error) {
	return ctl.extractMetering(
		"asynchronous metering", regs.CmdExtractMetering, stAsyncReady,
	)
}

// EndSessionAndExtractMetering closes the metering session and reads the
// last metering data.
func (ctl *Controller) EndSessionAndExtractMetering() (MeteringFile, error) {
	return ctl.extractMetering(
		"end-session metering", regs.CmdEndSessionMetering, stEndSessionReady,
	)
}

func (ctl *Controller) extractMetering(op string, cmd uint32, ready statusField) (MeteringFile, error) {
	err := ctl.reg.checkMeteringEnabled()
	if err != nil {
		return MeteringFile{}, err
	}
	err = ctl.reg.requireVersion(op, regs.VersionAsyncMetering)
	if err != nil {
		return MeteringFile{}, err
	}

	err = ctl.command(cmd)
	if err != nil {
		return MeteringFile{}, err
	}
	err = ctl.reg.expectStatus(op, ctl.cfg.timeout, ready, 1, nil)
	if err != nil {
		return MeteringFile{}, err
	}

	mf, err := ctl.readMetering()
	if err != nil {
		return mf, err
	}

	err = ctl.reg.writeCommand(regs.CmdNOP)
	if err != nil {
		return mf, err
	}
	err = ctl.reg.expectStatus(op, ctl.cfg.timeout, ready, 0, nil)
	if err != nil {
		return mf, err
	}
	return mf, nil
}

// LicenseTimerCounter is a sample of the 64-bit license timer counter.
type LicenseTimerCounter struct {
	MSB uint32
	LSB uint32
}

// Value returns the counter as a 64-bit value.
func (c LicenseTimerCounter) Value() uint64 {
	return uint64(c.MSB)<<32 | uint64(c.LSB)
}

// Hex returns the counter as upper-case hex, MSB first.
func (c LicenseTimerCounter) Hex() string {
	return conv.WordsToHex([]uint32{c.MSB, c.LSB})
}

// SampleLicenseTimerCounter samples the license timer counter.
func (ctl *Controller) SampleLicenseTimerCounter() (LicenseTimerCounter, error) {
	var cnt LicenseTimerCounter
	err := ctl.reg.checkLicenseTimerEnabled()
	if err != nil {
		return cnt, err
	}
	err = ctl.reg.requireVersion("license timer sampling", regs.VersionLicenseTimerSample)
	if err != nil {
		return cnt, err
	}

	err = ctl.command(regs.CmdSampleLicenseTimerCounter)
	if err != nil {
		return cnt, err
	}
	err = ctl.reg.expectStatus(
		"sample license timer counter", ctl.cfg.timeout,
		stTimerSampleReady, 1, nil,
	)
	if err != nil {
		return cnt, err
	}

	cnt.MSB, cnt.LSB, err = ctl.reg.readLicenseTimerCounter()
	if err != nil {
		return cnt, err
	}

	err = ctl.reg.writeCommand(regs.CmdNOP)
	if err != nil {
		return cnt, err
	}
	err = ctl.reg.expectStatus(
		"sample license timer counter", ctl.cfg.timeout,
		stTimerSampleReady, 0, nil,
	)
	if err != nil {
		return cnt, err
	}
	return cnt, nil
}

// Mailbox holds the content of the controller mailbox.
type Mailbox struct {
	ReadOnly  []uint32
	ReadWrite []uint32
}

// ReadMailbox reads both mailbox areas.
func (ctl *Controller) ReadMailbox() (Mailbox, error) {
	ro, rw, err := ctl.reg.readMailbox()
	if err != nil {
		return Mailbox{}, err
	}
	return Mailbox{ReadOnly: ro, ReadWrite: rw}, nil
}

// WriteMailbox writes data at the beginning of the read-write area.
func (ctl *Controller) WriteMailbox(data []uint32) error {
	return ctl.reg.writeMailbox(data)
}

// HardwareVersion returns the "major.minor.bug" controller version.
func (ctl *Controller) HardwareVersion() (string, error) {
	v, err := ctl.reg.readVersion()
	if err != nil {
		return "", err
	}
	return conv.WordsToVersion(v), nil
}

// CheckVersion returns a *VersionMismatchError when the hardware is not
// compatible with SoftwareVersion.
func (ctl *Controller) CheckVersion() error {
	hw, err := ctl.HardwareVersion()
	if err != nil {
		return err
	}
	return CheckCompatibility(hw, SoftwareVersion)
}

// NumberOfDetectedIPs returns the number of IPs detected by the controller.
func (ctl *Controller) NumberOfDetectedIPs() (int, error) {
	n, err := ctl.reg.readNumberOfIPs()
	return int(n), err
}

// PrintHwReport writes a textual dump of all the controller registers.
func (ctl *Controller) PrintHwReport(w io.Writer) error {
	return ctl.reg.writeHwReport(w)
}

func groupHex(ws []uint32, n int) []string {
	out := make([]string, 0, len(ws)/n)
	for i := 0; i+n <= len(ws); i += n {
		out = append(out, conv.WordsToHex(ws[i:i+n]))
	}
	return out
}
