// Copyright 2026 The Accelize DRM Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hwkit

import (
	"time"

	"github.com/Accelize/drm-sub002/hwkit/internal/regs"
)

const fakeLines = 64

// fakeHW simulates the register file of a DRM controller.
//
// Commands set the matching ready bits immediately and a NOP clears the
// one-shot ready bits. Writing the last word of the license timer
// register loads it.
type fakeHW struct {
	page    uint32
	pages   [regs.PageLogs + 1][fakeLines]uint32
	version uint32
	nips    uint32
	status  uint32
	errw    uint32

	cmds   []uint32 // commands written, NOPs included
	reads  int
	writes int

	// fail, when set, is called before each access.
	fail func(page, off uint32, write bool) error
}

func newFakeHW(version, nips uint32, heartbeat bool) *fakeHW {
	hw := &fakeHW{
		version: version,
		nips:    nips,
		errw:    0xffffffff,
	}
	if heartbeat {
		hw.set(regs.StatusHeartbeatEnabled, 1)
		hw.set(regs.StatusActivationDone, 1)
		hw.set(regs.StatusDNAReady, 1)
		hw.set(regs.StatusVLNVReady, 1)
		hw.setLane(regs.ErrorDNAExtract, 0)
		hw.setLane(regs.ErrorVLNVExtract, 0)
		hw.setLane(regs.ErrorActivation, 0)
	}
	for i := uint32(0); i < regs.SizeDNA/32; i++ {
		hw.pages[regs.PageRegisters][regs.LineDNA+i] = 0xd0a00000 + i
		hw.pages[regs.PageRegisters][regs.LineSaasChallenge+i] = 0x5aa50000 + i
	}
	for i := uint32(0); i < fakeLines; i++ {
		hw.pages[regs.PageVLNV][i] = 0x11110000 + i
		hw.pages[regs.PageTrace][i] = 0x33330000 + i
		hw.pages[regs.PageMetering][i] = 0x44440000 + i
		hw.pages[regs.PageLogs][i] = 0x66660000 + i
	}
	return hw
}

func (hw *fakeHW) set(bit, v uint32) {
	hw.status = hw.status&^(1<<bit) | (v&1)<<bit
}

func (hw *fakeHW) get(bit uint32) uint32 {
	return (hw.status >> bit) & 1
}

func (hw *fakeHW) setLane(lane uint32, v uint8) {
	hw.errw = hw.errw&^(0xff<<(8*lane)) | uint32(v)<<(8*lane)
}

func (hw *fakeHW) read(off uint32) (uint32, error) {
	if hw.fail != nil {
		if err := hw.fail(hw.page, off, false); err != nil {
			return 0, err
		}
	}
	hw.reads++
	if off == regs.PageOffset {
		return hw.page, nil
	}
	line := off/4 - 1
	if hw.page == regs.PageRegisters {
		switch line {
		case regs.LineStatus:
			return hw.status | (hw.nips&regs.MaskNumberOfIPs)<<regs.StatusNumberOfIPs, nil
		case regs.LineError:
			return hw.errw, nil
		case regs.LineVersion:
			return hw.version, nil
		}
	}
	return hw.pages[hw.page][line], nil
}

func (hw *fakeHW) write(off, v uint32) error {
	if hw.fail != nil {
		if err := hw.fail(hw.page, off, true); err != nil {
			return err
		}
	}
	hw.writes++
	if off == regs.PageOffset {
		hw.page = v & regs.PageMask
		return nil
	}
	line := off/4 - 1
	hw.pages[hw.page][line] = v
	if hw.page != regs.PageRegisters {
		return nil
	}

	switch line {
	case regs.LineCommand:
		hw.command(v)
	case regs.LineLicenseTimer + regs.SizeLicenseTimer/32 - 1:
		hw.set(regs.StatusLicenseTimerInitLoaded, 1)
		hw.setLane(regs.ErrorLicenseTimerLoad, 0)
	}
	return nil
}

func (hw *fakeHW) command(cmd uint32) {
	hw.cmds = append(hw.cmds, cmd)
	switch cmd {
	case regs.CmdNOP:
		hw.set(regs.StatusAsyncMeteringReady, 0)
		hw.set(regs.StatusEndSessionMeteringReady, 0)
		hw.set(regs.StatusLicenseTimerSampleReady, 0)
	case regs.CmdExtractDNA:
		hw.set(regs.StatusDNAReady, 1)
		hw.setLane(regs.ErrorDNAExtract, 0)
	case regs.CmdExtractVLNV:
		hw.set(regs.StatusVLNVReady, 1)
		hw.setLane(regs.ErrorVLNVExtract, 0)
	case regs.CmdActivate:
		hw.set(regs.StatusActivationDone, 1)
		hw.setLane(regs.ErrorActivation, 0)
	case regs.CmdExtractMetering:
		hw.set(regs.StatusAsyncMeteringReady, 1)
		hw.set(regs.StatusMeteringReady, 1)
	case regs.CmdEndSessionMetering:
		hw.set(regs.StatusEndSessionMeteringReady, 1)
		hw.set(regs.StatusMeteringReady, 1)
	case regs.CmdSampleLicenseTimerCounter:
		hw.set(regs.StatusLicenseTimerSampleReady, 1)
		hw.pages[regs.PageRegisters][regs.LineLicenseTimerCounter] = 0x00000001
		hw.pages[regs.PageRegisters][regs.LineLicenseTimerCounter+1] = 0x23456789
	}
}

// countCmd returns how many times cmd was written.
func (hw *fakeHW) countCmd(cmd uint32) int {
	n := 0
	for _, c := range hw.cmds {
		if c == cmd {
			n++
		}
	}
	return n
}

// fakeClock only advances when slept.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time        { return c.now }
func (c *fakeClock) Sleep(d time.Duration) { c.now = c.now.Add(d) }

func newTestController(hw *fakeHW, opts ...Option) (*Controller, *fakeClock, error) {
	clock := newFakeClock()
	opts = append([]Option{
		WithClock(clock),
		WithTimeout(time.Millisecond),
		WithExtractTimeout(time.Millisecond),
		WithSleep(100 * time.Microsecond),
	}, opts...)
	ctl, err := New(hw.read, hw.write, opts...)
	return ctl, clock, err
}

// newTestStrategy returns a strategy on top of hw, bypassing the mode probe.
func newTestStrategy(hw *fakeHW) (*strategy, *fakeClock) {
	clock := newFakeClock()
	return &strategy{
		acc:   &access{r: hw.read, w: hw.write},
		clock: clock,
		sleep: 100 * time.Microsecond,
	}, clock
}
