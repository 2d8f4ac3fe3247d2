// Copyright 2026 The Accelize DRM Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package regio

import (
	"fmt"
	"os"

	"github.com/Accelize/drm-sub002/internal/mmap"
)

// DevMem accesses a DRM controller mapped in physical memory, through a
// device file such as /dev/mem or a UIO device.
type DevMem struct {
	f *os.File
	h *mmap.Handle
}

// OpenDevMem maps span bytes of the device file at base.
func OpenDevMem(fname string, base int64, span int) (*DevMem, error) {
	f, err := os.OpenFile(fname, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("regio: could not open %q: %w", fname, err)
	}

	h, err := mmap.Map(f.Fd(), base, span)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("regio: could not map %q: %w", fname, err)
	}

	return &DevMem{f: f, h: h}, nil
}

// Read reads the register at byte offset off.
func (dev *DevMem) Read(off uint32) (uint32, error) {
	return dev.h.Uint32(off)
}

// Write writes v to the register at byte offset off.
func (dev *DevMem) Write(off, v uint32) error {
	return dev.h.PutUint32(off, v)
}

// Close unmaps the registers and closes the device file.
func (dev *DevMem) Close() error {
	err := dev.h.Close()
	if err != nil {
		_ = dev.f.Close()
		return fmt.Errorf("regio: could not unmap registers: %w", err)
	}

	err = dev.f.Close()
	if err != nil {
		return fmt.Errorf("regio: could not close device file: %w", err)
	}
	return nil
}
