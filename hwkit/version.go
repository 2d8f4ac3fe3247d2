// Copyright 2026 The Accelize DRM Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hwkit

import (
	"fmt"
	"strconv"
	"strings"
)

// SoftwareVersion is the controller version this kit implements.
const SoftwareVersion = "4.2.1"

// ParseVersion splits a "major.minor.bug" version string.
//
// The first dot is searched from the second character on, the second dot
// from the second character after the first one.
// Strings without exactly three numeric components are rejected.
func ParseVersion(s string) (major, minor, bug int, err error) {
	if len(s) < 5 {
		return 0, 0, 0, fmt.Errorf("hwkit: invalid version %q", s)
	}
	i := strings.IndexByte(s[1:], '.')
	if i < 0 {
		return 0, 0, 0, fmt.Errorf("hwkit: invalid version %q: missing minor", s)
	}
	i++
	if i+2 > len(s) {
		return 0, 0, 0, fmt.Errorf("hwkit: invalid version %q: missing minor", s)
	}
	j := strings.IndexByte(s[i+2:], '.')
	if j < 0 {
		return 0, 0, 0, fmt.Errorf("hwkit: invalid version %q: missing bug", s)
	}
	j += i + 2

	toks := [3]string{s[:i], s[i+1 : j], s[j+1:]}
	var vs [3]int
	for k, tok := range toks {
		v, err := strconv.ParseUint(tok, 10, 8)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("hwkit: invalid version %q: %w", s, err)
		}
		vs[k] = int(v)
	}
	return vs[0], vs[1], vs[2], nil
}

// IsCompatible reports whether the hardware and software versions have the
// same major and minor numbers.
func IsCompatible(hw, sw string) (bool, error) {
	hmaj, hmin, _, err := ParseVersion(hw)
	if err != nil {
		return false, err
	}
	smaj, smin, _, err := ParseVersion(sw)
	if err != nil {
		return false, err
	}
	return hmaj == smaj && hmin == smin, nil
}

// CheckCompatibility returns a *VersionMismatchError when hw and sw are not
// compatible.
func CheckCompatibility(hw, sw string) error {
	ok, err := IsCompatible(hw, sw)
	if err != nil {
		return err
	}
	if !ok {
		return &VersionMismatchError{Hardware: hw, Software: sw}
	}
	return nil
}
