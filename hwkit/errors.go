// Copyright 2026 The Accelize DRM Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hwkit

import (
	"fmt"
	"time"
)

// Code is a result code of the hardware-access kit.
// Code values are errors so that callers can test them with errors.Is.
type Code uint32

const (
	CodeNoError Code = iota
	CodeHardwareTimeout
	CodeLicenseFileSize
	CodeUnsupportedFeature
	CodeFunctionalityDisabled
	CodeLicenseTimerReset
	CodeVersionMismatch
	CodeInvalidArgument
)

func (c Code) Error() string {
	return fmt.Sprintf("hwkit: %s (code=%d)", APIErrorMessage(c), uint32(c))
}

var apiMessages = map[Code]string{
	CodeNoError:               "no error",
	CodeHardwareTimeout:       "hardware timeout",
	CodeLicenseFileSize:       "license file too short",
	CodeUnsupportedFeature:    "feature not supported by hardware",
	CodeFunctionalityDisabled: "functionality disabled in hardware",
	CodeLicenseTimerReset:     "license timer reset detected",
	CodeVersionMismatch:       "hardware/software version mismatch",
	CodeInvalidArgument:       "invalid argument",
}

// APIErrorMessage returns the message associated with a result code.
// Unknown codes yield "unknown error".
func APIErrorMessage(c Code) string {
	if msg, ok := apiMessages[c]; ok {
		return msg
	}
	return "unknown error"
}

var errByteMessages = map[uint8]string{
	0x00: "no error",
	0x01: "bad license header",
	0x02: "bad license MAC",
	0x03: "bad license DNA",
	0x04: "bad license VLNV",
	0x05: "bad license timer",
	0x06: "session ID mismatch",
	0x07: "license timer load error",
	0x08: "license timer already loaded",
	0x09: "unsupported license version",
	0xff: "not ready",
}

// ErrorByteMessage returns the description of an error register lane value.
// Unknown values yield "unknown error".
func ErrorByteMessage(b uint8) string {
	if msg, ok := errByteMessages[b]; ok {
		return msg
	}
	return "unknown error"
}

// StatusCheck describes an expected/actual status register field.
type StatusCheck struct {
	Name     string
	Bit      uint32
	Mask     uint32
	Expected uint32
	Actual   uint32
}

// ErrorCheck describes an expected/actual error register lane.
type ErrorCheck struct {
	Name     string
	Lane     uint32
	Expected uint8
	Actual   uint8
}

// TimeoutError reports a polled register field that did not reach its
// expected value in time.
type TimeoutError struct {
	Op      string
	Timeout time.Duration
	Status  *StatusCheck
	Err     *ErrorCheck

	msg string
}

func newTimeoutError(op string, timeout time.Duration, st *StatusCheck, ec *ErrorCheck) *TimeoutError {
	var what string
	switch {
	case st != nil && ec != nil && st.Actual == st.Expected:
		what = ec.Name
	case st != nil:
		what = st.Name
	case ec != nil:
		what = ec.Name
	}
	return &TimeoutError{
		Op:      op,
		Timeout: timeout,
		Status:  st,
		Err:     ec,
		msg: renderException(
			fmt.Sprintf("hwkit: timeout while waiting for %s (%s)", what, op),
			st, ec,
			fmt.Sprintf("timeout: %v", timeout),
		),
	}
}

func (e *TimeoutError) Error() string        { return e.msg }
func (e *TimeoutError) Is(target error) bool { return target == CodeHardwareTimeout }

// LicenseFileSizeError reports a license file with fewer words than the
// controller requires. Sizes are in 32-bit words.
type LicenseFileSizeError struct {
	Required int
	Actual   int
}

func (e *LicenseFileSizeError) Error() string {
	return renderException(
		"hwkit: license file too short",
		nil, nil,
		fmt.Sprintf(
			"required: %d words (%d x 128 bits)\nactual:   %d words",
			e.Required, e.Required/4, e.Actual,
		),
	)
}

func (e *LicenseFileSizeError) Is(target error) bool { return target == CodeLicenseFileSize }

// UnsupportedFeatureError reports a feature missing from the detected
// hardware version.
type UnsupportedFeatureError struct {
	Feature         string
	HardwareVersion string
	MinimumVersion  string
}

func (e *UnsupportedFeatureError) Error() string {
	return renderException(
		fmt.Sprintf("hwkit: %s is not supported", e.Feature),
		nil, nil,
		fmt.Sprintf(
			"hardware version: %s\nminimum version:  %s",
			e.HardwareVersion, e.MinimumVersion,
		),
	)
}

func (e *UnsupportedFeatureError) Is(target error) bool { return target == CodeUnsupportedFeature }

// FunctionalityDisabledError reports a metering or license timer operation
// invoked while the hardware enable bit is 0.
type FunctionalityDisabledError struct {
	Functionality string
	Status        StatusCheck

	msg string
}

func newDisabledError(functionality string, st StatusCheck) *FunctionalityDisabledError {
	return &FunctionalityDisabledError{
		Functionality: functionality,
		Status:        st,
		msg: renderException(
			fmt.Sprintf("hwkit: %s functionality is disabled", functionality),
			&st, nil, "",
		),
	}
}

func (e *FunctionalityDisabledError) Error() string        { return e.msg }
func (e *FunctionalityDisabledError) Is(target error) bool { return target == CodeFunctionalityDisabled }

// LicenseTimerResetError reports a controller that lost its license timer
// state since the last successful load.
//
// The condition is inferred: the hardware has no dedicated reset flag, the
// timer lane reading "not ready" while no init value is loaded is taken as
// the reset signature.
type LicenseTimerResetError struct {
	Status StatusCheck
	Err    ErrorCheck

	msg string
}

func newTimerResetError(st StatusCheck, ec ErrorCheck) *LicenseTimerResetError {
	return &LicenseTimerResetError{
		Status: st,
		Err:    ec,
		msg: renderException(
			"hwkit: license timer was reset since the last load",
			&st, &ec, "",
		),
	}
}

func (e *LicenseTimerResetError) Error() string        { return e.msg }
func (e *LicenseTimerResetError) Is(target error) bool { return target == CodeLicenseTimerReset }

// VersionMismatchError reports incompatible hardware and software versions.
type VersionMismatchError struct {
	Hardware string
	Software string
}

func (e *VersionMismatchError) Error() string {
	return renderException(
		"hwkit: hardware and software versions are not compatible",
		nil, nil,
		fmt.Sprintf("hardware version: %s\nsoftware version: %s", e.Hardware, e.Software),
	)
}

func (e *VersionMismatchError) Is(target error) bool { return target == CodeVersionMismatch }

var (
	_ error = (*TimeoutError)(nil)
	_ error = (*LicenseFileSizeError)(nil)
	_ error = (*UnsupportedFeatureError)(nil)
	_ error = (*FunctionalityDisabledError)(nil)
	_ error = (*LicenseTimerResetError)(nil)
	_ error = (*VersionMismatchError)(nil)
	_ error = CodeNoError
)
