// Copyright 2026 The Accelize DRM Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hwkit

import (
	"errors"
	"testing"
)

func TestParseVersion(t *testing.T) {
	for _, tc := range []struct {
		v      string
		maj    int
		min    int
		bug    int
		hasErr bool
	}{
		{v: "4.2.1", maj: 4, min: 2, bug: 1},
		{v: "10.20.30", maj: 10, min: 20, bug: 30},
		{v: "255.0.255", maj: 255, min: 0, bug: 255},
		{v: "4.2", hasErr: true},
		{v: "", hasErr: true},
		{v: "4..21", hasErr: true},
		{v: "a.b.c", hasErr: true},
		{v: "256.0.0", hasErr: true},
		{v: "4.2.1.0", hasErr: true},
	} {
		t.Run(tc.v, func(t *testing.T) {
			maj, min, bug, err := ParseVersion(tc.v)
			switch {
			case tc.hasErr:
				if err == nil {
					t.Fatalf("expected an error for %q", tc.v)
				}
				return
			case err != nil:
				t.Fatalf("could not parse %q: %+v", tc.v, err)
			}
			if maj != tc.maj || min != tc.min || bug != tc.bug {
				t.Fatalf("invalid version: got=%d.%d.%d, want=%d.%d.%d",
					maj, min, bug, tc.maj, tc.min, tc.bug,
				)
			}
		})
	}
}

func TestCheckCompatibility(t *testing.T) {
	for _, tc := range []struct {
		hw, sw string
		ok     bool
	}{
		{"4.2.0", "4.2.1", true},
		{"4.2.7", "4.2.1", true},
		{"4.1.1", "4.2.1", false},
		{"3.2.1", "4.2.1", false},
	} {
		err := CheckCompatibility(tc.hw, tc.sw)
		switch {
		case tc.ok && err != nil:
			t.Fatalf("%s/%s: unexpected error: %+v", tc.hw, tc.sw, err)
		case !tc.ok:
			var verr *VersionMismatchError
			if !errors.As(err, &verr) {
				t.Fatalf("%s/%s: invalid error: got=%v, want=*VersionMismatchError", tc.hw, tc.sw, err)
			}
			if verr.Hardware != tc.hw || verr.Software != tc.sw {
				t.Fatalf("invalid versions: got=%s/%s, want=%s/%s", verr.Hardware, verr.Software, tc.hw, tc.sw)
			}
		}
	}

	_, err := IsCompatible("x", SoftwareVersion)
	if err == nil {
		t.Fatalf("expected an error")
	}
}
