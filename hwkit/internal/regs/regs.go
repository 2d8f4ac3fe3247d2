// Copyright 2026 The Accelize DRM Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package regs describes the register map of the DRM controller.
package regs // import "github.com/Accelize/drm-sub002/hwkit/internal/regs"

// page register
const (
	PageOffset = 0x0000
	PageMask   = 0x7
)

// pages
const (
	PageRegisters = 0
	PageVLNV      = 1
	PageLicense   = 2
	PageTrace     = 3
	PageMetering  = 4
	PageMailbox   = 5
	PageLogs      = 6
)

// lines of the registers page.
const (
	LineCommand                = 0
	LineLicenseStartAddress    = 1
	LineLicenseTimer           = 3
	LineStatus                 = 15
	LineError                  = 16
	LineDNA                    = 17
	LineSaasChallenge          = 21
	LineLicenseTimerCounter    = 25
	LineVersion                = 27
	LineAdaptiveProportionFail = 28
	LineRepetitionCountFail    = 29
)

// register sizes, in bits.
const (
	SizeCommand             = 32
	SizeLicenseStartAddress = 64
	SizeLicenseTimer        = 384
	SizeStatus              = 32
	SizeError               = 32
	SizeDNA                 = 128
	SizeSaasChallenge       = 128
	SizeLicenseTimerCounter = 64
	SizeVersion             = 32
	SizeSelfTestCounter     = 32
)

// commands
const (
	CmdNOP                       = 0x0
	CmdExtractDNA                = 0x1
	CmdExtractVLNV               = 0x2
	CmdActivate                  = 0x3
	CmdExtractMetering           = 0x4
	CmdEndSessionMetering        = 0x5
	CmdSampleLicenseTimerCounter = 0x6
)

// status register bit positions.
const (
	StatusDNAReady                = 0
	StatusVLNVReady               = 1
	StatusActivationDone          = 2
	StatusAutoControllerEnabled   = 3
	StatusAutoControllerBusy      = 4
	StatusMeteringReady           = 5
	StatusSaasChallengeReady      = 6
	StatusLicenseTimerEnabled     = 7
	StatusLicenseTimerInitLoaded  = 8
	StatusEndSessionMeteringReady = 9
	StatusHeartbeatEnabled        = 10
	StatusAsyncMeteringReady      = 11
	StatusLicenseTimerSampleReady = 12
	StatusMeteringEnabled         = 13
	StatusNumberOfIPs             = 16

	MaskBit         = 0x1
	MaskNumberOfIPs = 0xff
)

// error register lanes (byte positions).
const (
	ErrorDNAExtract       = 0
	ErrorVLNVExtract      = 1
	ErrorActivation       = 2
	ErrorLicenseTimerLoad = 3

	MaskErrorByte = 0xff

	ErrNone     = 0x00
	ErrNotReady = 0xff
)

// file geometry, in 32-bit words unless stated otherwise.
const (
	WordsPer128  = 4
	WordsPerVLNV = 2

	LicenseHeaderBlock = 2 // in 128-bit words
	LicenseIPBlock     = 2 // in 128-bit words, per IP

	MailboxSizeROMask  = 0xffff
	MailboxSizeRWShift = 16
)

// minimal hardware versions of version-gated features.
const (
	VersionHeartbeat          = 0x00040200
	VersionAsyncMetering      = 0x00040000
	VersionLicenseTimerSample = 0x00040100
	VersionSelfTestCounters   = 0x00040200
)

// Offset returns the byte offset of the i-th line of the current page.
func Offset(line uint32) uint32 {
	return (line + 1) * 4
}
