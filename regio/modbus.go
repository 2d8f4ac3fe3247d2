// Copyright 2026 The Accelize DRM Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package regio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

// ModbusClient is the subset of modbus.Client used to access registers.
type ModbusClient interface {
	ReadHoldingRegisters(address, quantity uint16) ([]byte, error)
	WriteMultipleRegisters(address, quantity uint16, value []byte) ([]byte, error)
}

// ModbusConfig describes a DRM controller exposed as Modbus holding
// registers.
type ModbusConfig struct {
	Endpoint string        // host:port of the Modbus/TCP server
	SlaveID  uint8         // unit identifier
	Timeout  time.Duration // request timeout
	Base     uint16        // holding register of byte offset 0
}

// Modbus accesses a DRM controller through a Modbus/TCP bridge.
//
// A 32-bit register at byte offset off is stored in the two holding
// registers Base+off/2 (high half) and Base+off/2+1 (low half).
type Modbus struct {
	mu   sync.Mutex
	cli  ModbusClient
	base uint16
	conn io.Closer
}

// DialModbus connects to the Modbus/TCP server described by cfg.
func DialModbus(cfg ModbusConfig) (*Modbus, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("regio: modbus endpoint required")
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout
	h.SlaveId = cfg.SlaveID

	err := h.Connect()
	if err != nil {
		return nil, fmt.Errorf("regio: could not connect to %q: %w", cfg.Endpoint, err)
	}

	mb := NewModbus(modbus.NewClient(h), cfg.Base)
	mb.conn = h
	return mb, nil
}

// NewModbus creates a Modbus register backend on top of an existing client.
func NewModbus(cli ModbusClient, base uint16) *Modbus {
	return &Modbus{cli: cli, base: base}
}

func (mb *Modbus) address(off uint32) (uint16, error) {
	err := checkAligned("regio", off)
	if err != nil {
		return 0, err
	}
	addr := uint32(mb.base) + off/2
	if addr+1 > 0xffff {
		return 0, fmt.Errorf("regio: register offset 0x%x out of modbus address space", off)
	}
	return uint16(addr), nil
}

// Read reads the register at byte offset off.
func (mb *Modbus) Read(off uint32) (uint32, error) {
	addr, err := mb.address(off)
	if err != nil {
		return 0, err
	}

	mb.mu.Lock()
	defer mb.mu.Unlock()

	raw, err := mb.cli.ReadHoldingRegisters(addr, 2)
	if err != nil {
		return 0, fmt.Errorf("regio: could not read holding registers 0x%04x: %w", addr, err)
	}
	if len(raw) != 4 {
		return 0, fmt.Errorf("regio: invalid modbus response size (got=%d, want=4)", len(raw))
	}
	return binary.BigEndian.Uint32(raw), nil
}

// Write writes v to the register at byte offset off.
func (mb *Modbus) Write(off, v uint32) error {
	addr, err := mb.address(off)
	if err != nil {
		return err
	}

	var raw [4]byte
	binary.BigEndian.PutUint32(raw[:], v)

	mb.mu.Lock()
	defer mb.mu.Unlock()

	_, err = mb.cli.WriteMultipleRegisters(addr, 2, raw[:])
	if err != nil {
		return fmt.Errorf("regio: could not write holding registers 0x%04x: %w", addr, err)
	}
	return nil
}

// Close closes the connection opened by DialModbus.
func (mb *Modbus) Close() error {
	if mb.conn == nil {
		return nil
	}
	return mb.conn.Close()
}
