// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package apiclient

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects backend request statistics. A nil *Metrics records nothing.
type Metrics struct {
	Requests *prometheus.CounterVec
	Retries  *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg when it is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: "instituto", Subsystem: "backend", Name: "requests_total", Help: "Backend requests by method and outcome."},
			[]string{"method", "outcome"},
		),
		Retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: "instituto", Subsystem: "backend", Name: "retries_total", Help: "Backend request attempts that were retried."},
			[]string{"method"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Namespace: "instituto", Subsystem: "backend", Name: "request_duration_seconds", Help: "Backend attempt latency.", Buckets: prometheus.DefBuckets},
			[]string{"method"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Requests, m.Retries, m.Duration)
	}
	return m
}

func (m *Metrics) observe(method, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(method, outcome).Inc()
	m.Duration.WithLabelValues(method).Observe(d.Seconds())
}

func (m *Metrics) retried(method string) {
	if m == nil {
		return
	}
	m.Retries.WithLabelValues(method).Inc()
}
