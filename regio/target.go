// Copyright 2026 The Accelize DRM Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package regio

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Backend is a register access backend.
type Backend interface {
	Read(off uint32) (uint32, error)
	Write(off, v uint32) error
	Close() error
}

var (
	_ Backend = (*DevMem)(nil)
	_ Backend = (*Modbus)(nil)
)

// TargetConfig holds the backend parameters a target string does not carry.
type TargetConfig struct {
	Span    int           // size of the memory-mapped window (mem targets)
	SlaveID uint8         // modbus unit identifier (modbus targets)
	Timeout time.Duration // modbus request timeout (modbus targets)
}

// ParseTarget splits a "kind:addr@base" target.
// The "@base" part is optional and defaults to 0.
func ParseTarget(target string) (kind, addr string, base uint64, err error) {
	i := strings.Index(target, ":")
	if i <= 0 {
		return "", "", 0, fmt.Errorf("regio: invalid target %q: missing kind", target)
	}
	kind, addr = target[:i], target[i+1:]

	if j := strings.LastIndex(addr, "@"); j >= 0 {
		base, err = strconv.ParseUint(addr[j+1:], 0, 64)
		if err != nil {
			return "", "", 0, fmt.Errorf("regio: invalid target %q: invalid base: %w", target, err)
		}
		addr = addr[:j]
	}
	if addr == "" {
		return "", "", 0, fmt.Errorf("regio: invalid target %q: missing address", target)
	}
	return kind, addr, base, nil
}

// Open opens the backend described by target:
//
//	mem:FILE@BASE       controller mapped at physical address BASE of FILE
//	modbus:HOST:PORT@N  controller exposed from holding register N
func Open(target string, cfg TargetConfig) (Backend, error) {
	kind, addr, base, err := ParseTarget(target)
	if err != nil {
		return nil, err
	}

	switch kind {
	case "mem":
		dev, err := OpenDevMem(addr, int64(base), cfg.Span)
		if err != nil {
			return nil, err
		}
		return dev, nil
	case "modbus":
		if base > 0xffff {
			return nil, fmt.Errorf("regio: invalid modbus base register 0x%x", base)
		}
		mb, err := DialModbus(ModbusConfig{
			Endpoint: addr,
			SlaveID:  cfg.SlaveID,
			Timeout:  cfg.Timeout,
			Base:     uint16(base),
		})
		if err != nil {
			return nil, err
		}
		return mb, nil
	}
	return nil, fmt.Errorf("regio: unknown target kind %q", kind)
}
