// Copyright 2026 The Accelize DRM Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hwkit

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Accelize/drm-sub002/hwkit/internal/regs"
)

func TestWaitTimeout(t *testing.T) {
	hw := newFakeHW(0x040201, 1, false)
	s, clock := newTestStrategy(hw)
	start := clock.Now()

	got, err := s.waitStatusBit(time.Millisecond, regs.StatusDNAReady, regs.MaskBit, 1)
	if err != CodeHardwareTimeout {
		t.Fatalf("invalid error: got=%v, want=%v", err, CodeHardwareTimeout)
	}
	if got != 0 {
		t.Fatalf("invalid last value: got=%d, want=0", got)
	}

	elapsed := clock.Now().Sub(start)
	if elapsed < time.Millisecond || elapsed > time.Millisecond+s.sleep {
		t.Fatalf("invalid elapsed time: got=%v, want in [%v, %v]",
			elapsed, time.Millisecond, time.Millisecond+s.sleep,
		)
	}
}

func TestWaitImmediate(t *testing.T) {
	hw := newFakeHW(0x040201, 1, false)
	hw.setLane(regs.ErrorActivation, 0x05)
	s, clock := newTestStrategy(hw)
	start := clock.Now()

	got, err := s.waitErrorByte(time.Millisecond, regs.ErrorActivation, regs.MaskErrorByte, 0x05)
	if err != nil {
		t.Fatalf("could not wait: %+v", err)
	}
	if got != 0x05 {
		t.Fatalf("invalid lane value: got=0x%x, want=0x05", got)
	}
	if elapsed := clock.Now().Sub(start); elapsed != 0 {
		t.Fatalf("invalid elapsed time: got=%v, want=0", elapsed)
	}
}

func TestWaitReadError(t *testing.T) {
	errBus := errors.New("bus error")
	hw := newFakeHW(0x040201, 1, false)
	hw.fail = func(page, off uint32, write bool) error {
		if !write {
			return errBus
		}
		return nil
	}
	s, _ := newTestStrategy(hw)

	_, err := s.waitStatusBit(time.Millisecond, regs.StatusDNAReady, regs.MaskBit, 1)
	if err != errBus {
		t.Fatalf("invalid error: got=%v, want=%v", err, errBus)
	}
}

func TestExpectStatusTimeout(t *testing.T) {
	hw := newFakeHW(0x040201, 1, false)
	hw.setLane(regs.ErrorDNAExtract, 0x03)
	s, _ := newTestStrategy(hw)

	err := s.expectStatus("extract DNA", time.Millisecond, stDNAReady, 1, &lnDNA)
	var terr *TimeoutError
	if !errors.As(err, &terr) {
		t.Fatalf("invalid error type: got=%T, want=*TimeoutError", err)
	}
	if !errors.Is(err, CodeHardwareTimeout) {
		t.Fatalf("error does not match CodeHardwareTimeout: %v", err)
	}
	if terr.Status == nil || terr.Status.Actual != 0 || terr.Status.Expected != 1 {
		t.Fatalf("invalid status check: %+v", terr.Status)
	}
	if terr.Err == nil || terr.Err.Actual != 0x03 {
		t.Fatalf("invalid error check: %+v", terr.Err)
	}
	for _, want := range []string{"DNA ready", "bad license DNA", "extract DNA"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error message does not contain %q:\n%s", want, err)
		}
	}
}

func TestExpectErrorTimeout(t *testing.T) {
	hw := newFakeHW(0x040201, 1, false)
	hw.set(regs.StatusActivationDone, 1)
	hw.setLane(regs.ErrorActivation, 0x02)
	s, _ := newTestStrategy(hw)

	err := s.expectError("activate", time.Millisecond, lnActivation, regs.ErrNone, &stActivationDone, 1)
	var terr *TimeoutError
	if !errors.As(err, &terr) {
		t.Fatalf("invalid error type: got=%T, want=*TimeoutError", err)
	}
	if terr.Err.Actual != 0x02 || terr.Status.Actual != 1 {
		t.Fatalf("invalid checks: status=%+v, error=%+v", terr.Status, terr.Err)
	}
	if !strings.Contains(err.Error(), "bad license MAC") {
		t.Fatalf("error message does not decode lane:\n%s", err)
	}
}

func TestCheckEnabled(t *testing.T) {
	hw := newFakeHW(0x040201, 1, false)
	s, _ := newTestStrategy(hw)

	for _, tc := range []struct {
		name  string
		check func() error
		bit   uint32
	}{
		{"metering", s.checkMeteringEnabled, regs.StatusMeteringEnabled},
		{"license timer", s.checkLicenseTimerEnabled, regs.StatusLicenseTimerEnabled},
	} {
		t.Run(tc.name, func(t *testing.T) {
			hw.set(tc.bit, 0)
			err := tc.check()
			var derr *FunctionalityDisabledError
			if !errors.As(err, &derr) {
				t.Fatalf("invalid error: got=%v, want=*FunctionalityDisabledError", err)
			}
			if !errors.Is(err, CodeFunctionalityDisabled) {
				t.Fatalf("error does not match CodeFunctionalityDisabled: %v", err)
			}

			hw.set(tc.bit, 1)
			err = tc.check()
			if err != nil {
				t.Fatalf("could not check %s: %+v", tc.name, err)
			}
		})
	}
}

func TestRequireVersion(t *testing.T) {
	for _, tc := range []struct {
		version uint32
		min     uint32
		ok      bool
	}{
		{0x040000, regs.VersionAsyncMetering, true},
		{0x030705, regs.VersionAsyncMetering, false},
		{0x040100, regs.VersionLicenseTimerSample, true},
		{0x040002, regs.VersionLicenseTimerSample, false},
		{0x040201, regs.VersionHeartbeat, true},
		{0x040106, regs.VersionHeartbeat, false},
		{0xff040201, regs.VersionHeartbeat, true},
	} {
		hw := newFakeHW(tc.version, 1, false)
		s, _ := newTestStrategy(hw)
		err := s.requireVersion("feature", tc.min)
		switch {
		case tc.ok && err != nil:
			t.Fatalf("version 0x%x: unexpected error: %+v", tc.version, err)
		case !tc.ok:
			var uerr *UnsupportedFeatureError
			if !errors.As(err, &uerr) {
				t.Fatalf("version 0x%x: invalid error: got=%v, want=*UnsupportedFeatureError", tc.version, err)
			}
		}
	}
}

func TestWriteLicenseTimerSize(t *testing.T) {
	hw := newFakeHW(0x040201, 1, false)
	s, _ := newTestStrategy(hw)

	err := s.writeLicenseTimer(make([]uint32, 11))
	if !errors.Is(err, CodeInvalidArgument) {
		t.Fatalf("invalid error: got=%v, want=%v", err, CodeInvalidArgument)
	}
	if hw.writes != 0 {
		t.Fatalf("invalid number of writes: got=%d, want=0", hw.writes)
	}
}

func TestFileSizes(t *testing.T) {
	const nips = 3
	hw := newFakeHW(0x040201, nips, false)
	s, _ := newTestStrategy(hw)

	for _, tc := range []struct {
		name string
		read func(uint32) ([]uint32, error)
		want int
	}{
		{"vlnv", s.readVLNVFile, (nips + 1) * 2},
		{"license", s.readLicenseFile, (2 + 2*nips) * 4},
		{"trace", s.readTraceFile, nips * 4},
		{"metering", s.readMeteringFile, nips * 4},
		{"logs", s.readLogsFile, nips * 4},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ws, err := tc.read(nips)
			if err != nil {
				t.Fatalf("could not read file: %+v", err)
			}
			if got := len(ws); got != tc.want {
				t.Fatalf("invalid file size: got=%d, want=%d", got, tc.want)
			}
		})
	}
}

func TestMailbox(t *testing.T) {
	hw := newFakeHW(0x040201, 1, false)
	hw.pages[regs.PageMailbox][0] = 2 | 3<<16
	hw.pages[regs.PageMailbox][1] = 0xaa
	hw.pages[regs.PageMailbox][2] = 0xbb
	s, _ := newTestStrategy(hw)

	err := s.writeMailbox([]uint32{1, 2})
	if err != nil {
		t.Fatalf("could not write mailbox: %+v", err)
	}

	ro, rw, err := s.readMailbox()
	if err != nil {
		t.Fatalf("could not read mailbox: %+v", err)
	}
	if got, want := ro, []uint32{0xaa, 0xbb}; !equalWords(got, want) {
		t.Fatalf("invalid read-only area: got=%v, want=%v", got, want)
	}
	if got, want := rw, []uint32{1, 2, 0}; !equalWords(got, want) {
		t.Fatalf("invalid read-write area: got=%v, want=%v", got, want)
	}

	err = s.writeMailbox([]uint32{1, 2, 3, 4})
	if !errors.Is(err, CodeInvalidArgument) {
		t.Fatalf("invalid error: got=%v, want=%v", err, CodeInvalidArgument)
	}
}
