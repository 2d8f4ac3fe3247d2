// Copyright 2026 The Accelize DRM Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hwkit

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts register accesses and polls of a controller.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	reads    prometheus.Counter
	writes   prometheus.Counter
	errs     *prometheus.CounterVec
	polls    prometheus.Counter
	timeouts prometheus.Counter
	wait     prometheus.Histogram
}

// NewMetrics creates the controller metrics and registers them with reg.
// A nil reg leaves the metrics unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		reads: f.NewCounter(prometheus.CounterOpts{
			Name: "drm_register_reads_total",
			Help: "Number of DRM controller register reads.",
		}),
		writes: f.NewCounter(prometheus.CounterOpts{
			Name: "drm_register_writes_total",
			Help: "Number of DRM controller register writes.",
		}),
		errs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "drm_register_errors_total",
			Help: "Number of failed DRM controller register accesses.",
		}, []string{"op"}),
		polls: f.NewCounter(prometheus.CounterOpts{
			Name: "drm_polls_total",
			Help: "Number of status/error register polls.",
		}),
		timeouts: f.NewCounter(prometheus.CounterOpts{
			Name: "drm_poll_timeouts_total",
			Help: "Number of polling loops that timed out.",
		}),
		wait: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "drm_wait_duration_seconds",
			Help:    "Duration of status/error polling loops.",
			Buckets: prometheus.ExponentialBuckets(100e-6, 4, 10),
		}),
	}
}

func (m *Metrics) read(err error) {
	if m == nil {
		return
	}
	m.reads.Inc()
	if err != nil {
		m.errs.WithLabelValues("read").Inc()
	}
}

func (m *Metrics) write(err error) {
	if m == nil {
		return
	}
	m.writes.Inc()
	if err != nil {
		m.errs.WithLabelValues("write").Inc()
	}
}

func (m *Metrics) poll() {
	if m == nil {
		return
	}
	m.polls.Inc()
}

func (m *Metrics) timeout() {
	if m == nil {
		return
	}
	m.timeouts.Inc()
}

func (m *Metrics) observeWait(d time.Duration) {
	if m == nil {
		return
	}
	m.wait.Observe(d.Seconds())
}
