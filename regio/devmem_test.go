// Copyright 2026 The Accelize DRM Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package regio

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDevMem(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "regs.bin")
	err := os.WriteFile(fname, make([]byte, 4096), 0644)
	if err != nil {
		t.Fatalf("could not create register file: %+v", err)
	}

	dev, err := OpenDevMem(fname, 0, 4096)
	if err != nil {
		t.Fatalf("could not open register file: %+v", err)
	}

	err = dev.Write(0x10, 0x12345678)
	if err != nil {
		t.Fatalf("could not write register: %+v", err)
	}
	v, err := dev.Read(0x10)
	if err != nil {
		t.Fatalf("could not read register: %+v", err)
	}
	if v != 0x12345678 {
		t.Fatalf("invalid register: got=0x%x, want=0x12345678", v)
	}

	_, err = dev.Read(4096)
	if err == nil {
		t.Fatalf("expected an out-of-range error")
	}

	err = dev.Close()
	if err != nil {
		t.Fatalf("could not close device: %+v", err)
	}

	raw, err := os.ReadFile(fname)
	if err != nil {
		t.Fatalf("could not read back register file: %+v", err)
	}
	if got, want := raw[0x10:0x14], []byte{0x78, 0x56, 0x34, 0x12}; string(got) != string(want) {
		t.Fatalf("invalid register bytes: got=%x, want=%x", got, want)
	}
}

func TestOpenDevMemMissing(t *testing.T) {
	_, err := OpenDevMem(filepath.Join(t.TempDir(), "not-there"), 0, 4096)
	if err == nil {
		t.Fatalf("expected an error")
	}
}
