// Copyright 2026 The Accelize DRM Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hwkit

import (
	"github.com/Accelize/drm-sub002/hwkit/internal/regs"
)

// ReadFunc reads the 32-bit register at the given byte offset.
type ReadFunc func(offset uint32) (uint32, error)

// WriteFunc writes a 32-bit value to the register at the given byte offset.
type WriteFunc func(offset, value uint32) error

// NumberOfWords returns the number of 32-bit words spanned by a register
// of the given size in bits. A register spans at least one word.
func NumberOfWords(bits uint32) uint32 {
	if bits <= 32 {
		return 1
	}
	return (bits + 31) / 32
}

func bits(lsb, mask, v uint32) uint32 {
	return (v >> lsb) & mask
}

// access is the lowest layer: it forwards register accesses to the
// injected functions and resolves page/line addressing.
//
// Errors returned by the injected functions are returned unchanged.
type access struct {
	r    ReadFunc
	w    WriteFunc
	page uint32 // last selected page
	met  *Metrics
}

func (acc *access) readRegister(off uint32) (uint32, error) {
	v, err := acc.r(off)
	acc.met.read(err)
	if err != nil {
		return 0, err
	}
	return v, nil
}

func (acc *access) writeRegister(off, v uint32) error {
	err := acc.w(off, v)
	acc.met.write(err)
	return err
}

func (acc *access) selectPage(page uint32) error {
	err := acc.writeRegister(regs.PageOffset, page&regs.PageMask)
	if err != nil {
		return err
	}
	acc.page = page & regs.PageMask
	return nil
}

func (acc *access) readPage() (uint32, error) {
	v, err := acc.readRegister(regs.PageOffset)
	if err != nil {
		return 0, err
	}
	return v & regs.PageMask, nil
}

func (acc *access) readLine(line uint32) (uint32, error) {
	return acc.readRegister(regs.Offset(line))
}

func (acc *access) writeLine(line, v uint32) error {
	return acc.writeRegister(regs.Offset(line), v)
}

// readLines reads n consecutive lines of the current page.
// The first failing access aborts the read.
func (acc *access) readLines(from, n uint32) ([]uint32, error) {
	vs := make([]uint32, n)
	for i := range vs {
		v, err := acc.readLine(from + uint32(i))
		if err != nil {
			return nil, err
		}
		vs[i] = v
	}
	return vs, nil
}

// writeLines writes consecutive lines of the current page.
// The first failing access aborts the write; lines already written are
// left as is.
func (acc *access) writeLines(from uint32, vs []uint32) error {
	for i, v := range vs {
		err := acc.writeLine(from+uint32(i), v)
		if err != nil {
			return err
		}
	}
	return nil
}

func (acc *access) readPageLines(page, from, n uint32) ([]uint32, error) {
	err := acc.selectPage(page)
	if err != nil {
		return nil, err
	}
	return acc.readLines(from, n)
}

func (acc *access) writePageLines(page, from uint32, vs []uint32) error {
	err := acc.selectPage(page)
	if err != nil {
		return err
	}
	return acc.writeLines(from, vs)
}
