// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vesper Contributors

package world

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MovementAttempts is the counter for movement attempts, labeled by outcome.
// Recorded unconditionally, including every early rejection.
// Use RegisterMetrics to register this with a Prometheus registry.
var MovementAttempts = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "vesper_movement_attempts_total",
		Help: "Total number of player movement attempts",
	},
	[]string{"success"},
)

// MovementDuration is the histogram for movement operation duration.
// Use RegisterMetrics to register this with a Prometheus registry.
var MovementDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "vesper_movement_duration_seconds",
		Help:    "Player movement operation duration in seconds",
		Buckets: prometheus.DefBuckets,
	},
)

// MovementRepairs counts self-heal firings where a room's occupant set was
// reconciled from the persisted player record. Nonzero values mean cache and
// reality diverged somewhere upstream.
// Use RegisterMetrics to register this with a Prometheus registry.
var MovementRepairs = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "vesper_movement_repairs_total",
		Help: "Total number of room presence repairs from persisted state",
	},
)

// RegisterMetrics registers world package metrics with the given Prometheus
// registry. Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(MovementAttempts)
	reg.MustRegister(MovementDuration)
	reg.MustRegister(MovementRepairs)
}

// RecordMovementAttempt records one movement attempt and its duration.
func RecordMovementAttempt(success bool, duration time.Duration) {
	MovementAttempts.WithLabelValues(strconv.FormatBool(success)).Inc()
	MovementDuration.Observe(duration.Seconds())
}

// RecordMovementRepair increments the presence repair counter.
func RecordMovementRepair() {
	MovementRepairs.Inc()
}
