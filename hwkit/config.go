// Copyright 2026 The Accelize DRM Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hwkit

import (
	"fmt"
	"io"
	"time"

	"github.com/go-daq/tdaq/log"
	"github.com/kelseyhightower/envconfig"
)

const (
	defaultExtractTimeout = 30 * time.Second
)

// envConfig holds the process environment overrides.
// Values are expressed in microseconds.
type envConfig struct {
	Timeout uint64 `envconfig:"DRM_CONTROLLER_TIMEOUT_IN_MICRO_SECONDS" default:"10000000"`
	Sleep   uint64 `envconfig:"DRM_CONTROLLER_SLEEP_IN_MICRO_SECONDS" default:"100"`
}

type config struct {
	timeout time.Duration // operation timeout, 0 polls forever
	extract time.Duration // DNA/VLNV extraction timeout
	sleep   time.Duration // sleep between two polls

	clock   Clock
	msg     log.MsgStream
	metrics *Metrics
}

func newConfig() (config, error) {
	var env envConfig
	err := envconfig.Process("", &env)
	if err != nil {
		return config{}, fmt.Errorf("hwkit: could not load environment configuration: %w", err)
	}

	return config{
		timeout: time.Duration(env.Timeout) * time.Microsecond,
		extract: defaultExtractTimeout,
		sleep:   time.Duration(env.Sleep) * time.Microsecond,
		clock:   sysClock{},
		msg:     log.NewMsgStream("hwkit", log.LvlInfo, io.Discard),
	}, nil
}

// Option configures a Controller.
type Option func(*config)

// WithTimeout sets the timeout of activation, metering and license timer
// operations. A zero timeout polls forever.
func WithTimeout(timeout time.Duration) Option {
	return func(cfg *config) {
		cfg.timeout = timeout
	}
}

// WithExtractTimeout sets the timeout of DNA and VLNV extractions.
// A zero timeout polls forever.
func WithExtractTimeout(timeout time.Duration) Option {
	return func(cfg *config) {
		cfg.extract = timeout
	}
}

// WithSleep sets the interval between two register polls.
func WithSleep(d time.Duration) Option {
	return func(cfg *config) {
		cfg.sleep = d
	}
}

// WithClock sets the clock used to measure timeouts and to sleep between
// polls.
func WithClock(clock Clock) Option {
	return func(cfg *config) {
		cfg.clock = clock
	}
}

// WithMsgStream sets the stream debug traces are written to.
func WithMsgStream(msg log.MsgStream) Option {
	return func(cfg *config) {
		cfg.msg = msg
	}
}

// WithMetrics sets the metrics updated by register accesses and polls.
func WithMetrics(m *Metrics) Option {
	return func(cfg *config) {
		cfg.metrics = m
	}
}

// Clock measures elapsed time and suspends polling loops.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type sysClock struct{}

func (sysClock) Now() time.Time        { return time.Now() }
func (sysClock) Sleep(d time.Duration) { time.Sleep(d) }
