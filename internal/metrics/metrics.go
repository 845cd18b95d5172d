// Veridect - Synthetic Video Plausibility Scoring
// Copyright 2026 Veridect Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/veridect/veridect

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for:
// - Resolver fetch outcomes, sizes and durations
// - Remote-fetch circuit breaker state
// - Per-signal adapter latency and availability
// - Fusion verdict distribution
// - API endpoint latency and throughput

var (
	// Resolver metrics
	ResolveDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "resolver_fetch_duration_seconds",
			Help:    "Duration of media resolution in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"source", "outcome"}, // source: upload|url, outcome: ok|error
	)

	ResolveBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "resolver_fetch_bytes",
			Help:    "Bytes held per resolved media",
			Buckets: prometheus.ExponentialBuckets(64<<10, 4, 8), // 64KiB .. 1GiB
		},
	)

	ResolveErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resolver_errors_total",
			Help: "Total resolver rejections by error kind",
		},
		[]string{"kind"},
	)

	ResolveSampled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "resolver_sampled_total",
			Help: "Total segmented assets acquired as a bounded sample window",
		},
	)

	// Circuit breaker metrics (remote fetches)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total requests through the circuit breaker by result",
		},
		[]string{"name", "result"}, // result: success|failure|rejected
	)

	// Signal adapter metrics
	SignalDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "signal_score_duration_seconds",
			Help:    "Duration of signal adapter scoring in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"signal"},
	)

	SignalUnavailable = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signal_unavailable_total",
			Help: "Total signals reported unavailable, by signal and reason",
		},
		[]string{"signal", "reason"}, // reason: timeout|error|panic
	)

	// Fusion metrics
	FusionVerdicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fusion_verdicts_total",
			Help: "Total verdicts by label",
		},
		[]string{"label"},
	)

	// API endpoint metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Spool janitor metrics
	JanitorSweeps = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "spool_janitor_sweeps_total",
			Help: "Total janitor sweeps of the spool directory",
		},
	)

	JanitorFilesRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "spool_janitor_files_removed_total",
			Help: "Total orphaned spool files removed by the janitor",
		},
	)
)

// ObserveAPIRequest records one completed API request.
func ObserveAPIRequest(method, endpoint string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// ObserveSignal records one signal adapter run.
func ObserveSignal(signal string, duration time.Duration, available bool, reason string) {
	SignalDuration.WithLabelValues(signal).Observe(duration.Seconds())
	if !available {
		SignalUnavailable.WithLabelValues(signal, reason).Inc()
	}
}
