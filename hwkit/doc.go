// Copyright 2026 The Accelize DRM Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hwkit implements the register protocol of the DRM controller.
//
// The controller is a paged 32-bit register file. A Controller is built
// on top of two injected functions reading and writing a register at a
// byte offset, so the same code drives a memory-mapped device, a remote
// register bank or a simulation:
//
//	ctl, err := hwkit.New(dev.Read, dev.Write)
//	if err != nil {
//		return err
//	}
//	dna, err := ctl.ExtractDNA()
//
// Errors returned by the injected functions are propagated unchanged.
// Errors raised by the kit itself match one of the Code values with
// errors.Is, and carry the register state in their message.
package hwkit // import "github.com/Accelize/drm-sub002/hwkit"
