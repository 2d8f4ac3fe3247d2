// Copyright 2026 The Accelize DRM Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mmap provides word access to a memory-mapped register window.
package mmap // import "github.com/Accelize/drm-sub002/internal/mmap"

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"runtime"

	"golang.org/x/sys/unix"
)

var (
	errClosed = errors.New("mmap: closed")
)

// Handle is a memory-mapped register window.
type Handle struct {
	data  []byte
	unmap func([]byte) error
}

// Map maps span bytes of fd, starting at base, for reading and writing.
func Map(fd uintptr, base int64, span int) (*Handle, error) {
	data, err := unix.Mmap(
		int(fd), base, span,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_SHARED,
	)
	if err != nil {
		return nil, fmt.Errorf("mmap: could not mmap 0x%x+0x%x: %w", base, span, err)
	}
	if data == nil || len(data) != span {
		return nil, fmt.Errorf("mmap: invalid mmap'd data: %d", len(data))
	}
	h := HandleFrom(data)
	h.unmap = unix.Munmap
	return h, nil
}

// HandleFrom wraps an already mapped (or plain) byte slice.
// Closing the handle does not unmap data.
func HandleFrom(data []byte) *Handle {
	h := &Handle{data: data}
	runtime.SetFinalizer(h, (*Handle).Close)
	return h
}

// Close unmaps the register window.
func (h *Handle) Close() error {
	if h == nil {
		return os.ErrInvalid
	}

	if h.data == nil {
		return nil
	}
	data := h.data
	h.data = nil
	runtime.SetFinalizer(h, nil)

	if h.unmap == nil {
		return nil
	}
	return h.unmap(data)
}

// Len returns the size of the register window, in bytes.
func (h *Handle) Len() int {
	return len(h.data)
}

func (h *Handle) check(off uint32) error {
	if h == nil {
		return os.ErrInvalid
	}
	if h.data == nil {
		return errClosed
	}
	if off%4 != 0 {
		return fmt.Errorf("mmap: unaligned offset 0x%x", off)
	}
	if int64(off)+4 > int64(len(h.data)) {
		return fmt.Errorf("mmap: offset 0x%x out of range [0, 0x%x)", off, len(h.data))
	}
	return nil
}

// Uint32 reads the little-endian 32-bit word at byte offset off.
func (h *Handle) Uint32(off uint32) (uint32, error) {
	err := h.check(off)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(h.data[off : off+4]), nil
}

// PutUint32 writes v as a little-endian 32-bit word at byte offset off.
func (h *Handle) PutUint32(off, v uint32) error {
	err := h.check(off)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(h.data[off:off+4], v)
	return nil
}
