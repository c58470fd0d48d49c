// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vesper Contributors

package realtime

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vespermud/vesper/internal/events"
)

// Broadcasts is the counter for wire messages handed to the delivery layer.
// Use RegisterMetrics to register this with a Prometheus registry.
var Broadcasts = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "vesper_realtime_broadcasts_total",
		Help: "Total number of wire messages broadcast to rooms",
	},
	[]string{"type"},
)

// TranslatorFailures is the counter for translator-side delivery and
// resolution failures, which are logged and swallowed.
// Use RegisterMetrics to register this with a Prometheus registry.
var TranslatorFailures = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "vesper_realtime_translator_failures_total",
		Help: "Total number of translator handler failures",
	},
	[]string{"event_type"},
)

// RegisterMetrics registers realtime metrics with the given Prometheus
// registry. Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(Broadcasts)
	reg.MustRegister(TranslatorFailures)
}

// RecordBroadcast increments the broadcast counter.
func RecordBroadcast(mt MessageType) {
	Broadcasts.WithLabelValues(string(mt)).Inc()
}

// RecordTranslatorFailure increments the translator failure counter.
func RecordTranslatorFailure(t events.Type) {
	TranslatorFailures.WithLabelValues(string(t)).Inc()
}
