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
)

// writeHwReport dumps every register and file area of the controller.
// It only reads registers (and the page register).
func (s *strategy) writeHwReport(w io.Writer) error {
	rw := &reportWriter{w: w}

	// page must be read before any access selects another one.
	page, err := s.acc.readPage()
	if err != nil {
		return err
	}

	version, err := s.readVersion()
	if err != nil {
		return err
	}
	rw.section("version")
	rw.register("version", version)
	rw.field("version string", conv.WordsToVersion(version))

	rw.section("page")
	rw.register("page", page)

	cmd, err := s.readCommand()
	if err != nil {
		return err
	}
	rw.section("command")
	rw.register("command", cmd)

	lsa, err := s.readLicenseStartAddress()
	if err != nil {
		return err
	}
	rw.section("license start address")
	rw.words("license start address", lsa)

	timer, err := s.readLicenseTimer()
	if err != nil {
		return err
	}
	rw.section("license timer")
	rw.words("license timer", timer)

	status, err := s.readStatus()
	if err != nil {
		return err
	}
	rw.section("status")
	rw.register("status", status)
	for _, f := range statusFieldsOrdered {
		rw.field(fmt.Sprintf("%s (bit %d)", f.name, f.bit), bits(f.bit, regs.MaskBit, status))
	}
	nips := bits(regs.StatusNumberOfIPs, regs.MaskNumberOfIPs, status)
	rw.field("number of detected IPs", nips)

	errw, err := s.readError()
	if err != nil {
		return err
	}
	rw.section("error")
	rw.register("error", errw)
	for _, ln := range lanesOrdered {
		v := uint8(bits(8*ln.lane, regs.MaskErrorByte, errw))
		rw.field(
			fmt.Sprintf("%s (byte %d)", ln.name, ln.lane),
			fmt.Sprintf("%s (%s)", hexByte(v), ErrorByteMessage(v)),
		)
	}

	dna, err := s.readDNA()
	if err != nil {
		return err
	}
	rw.section("DNA")
	rw.words("DNA", dna)
	rw.field("DNA hex", conv.WordsToHex(dna))

	saas, err := s.readSaasChallenge()
	if err != nil {
		return err
	}
	rw.section("SaaS challenge")
	rw.words("SaaS challenge", saas)

	msb, lsb, err := s.readLicenseTimerCounter()
	if err != nil {
		return err
	}
	rw.section("license timer counter")
	rw.words("license timer counter", []uint32{msb, lsb})

	files := []struct {
		name string
		read func(uint32) ([]uint32, error)
	}{
		{"logs file", s.readLogsFile},
		{"VLNV file", s.readVLNVFile},
		{"license file", s.readLicenseFile},
		{"trace file", s.readTraceFile},
		{"metering file", s.readMeteringFile},
	}
	for _, f := range files {
		ws, err := f.read(nips)
		if err != nil {
			return err
		}
		rw.section(f.name)
		rw.words(f.name, ws)
	}

	ro, mrw, err := s.readMailbox()
	if err != nil {
		return err
	}
	rw.section("mailbox")
	rw.field("read-only size", len(ro))
	rw.field("read-write size", len(mrw))
	rw.words("mailbox read-only", ro)
	rw.words("mailbox read-write", mrw)

	rw.section("self-test failure counters")
	ap, rc, err := s.readSelfTestCounters()
	var unsupported *UnsupportedFeatureError
	switch {
	case errors.As(err, &unsupported):
		rw.text(fmt.Sprintf("not supported (hardware %s)", unsupported.HardwareVersion))
	case err != nil:
		return err
	default:
		rw.register("adaptive proportion test failures", ap)
		rw.register("repetition count test failures", rc)
	}

	return rw.err
}
