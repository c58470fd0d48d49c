// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vesper Contributors

package events

import (
	"github.com/prometheus/client_golang/prometheus"
)

// EventsPublished is the counter for published events.
// Use RegisterMetrics to register this with a Prometheus registry.
var EventsPublished = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "vesper_events_published_total",
		Help: "Total number of domain events published",
	},
	[]string{"type"},
)

// HandlerFailures is the counter for handler errors and panics.
// Use RegisterMetrics to register this with a Prometheus registry.
var HandlerFailures = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "vesper_event_handler_failures_total",
		Help: "Total number of event handler failures",
	},
	[]string{"type", "mode"},
)

// AsyncDropped is the counter for asynchronous dispatches that were skipped
// because the dispatcher was not running or its queue was full.
// Use RegisterMetrics to register this with a Prometheus registry.
var AsyncDropped = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "vesper_events_async_dropped_total",
		Help: "Total number of asynchronous event dispatches dropped",
	},
	[]string{"type"},
)

// RegisterMetrics registers event bus metrics with the given Prometheus
// registry. Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(EventsPublished)
	reg.MustRegister(HandlerFailures)
	reg.MustRegister(AsyncDropped)
}

// RecordEventPublished increments the published event counter.
func RecordEventPublished(t Type) {
	EventsPublished.WithLabelValues(string(t)).Inc()
}

// RecordHandlerFailure increments the handler failure counter.
func RecordHandlerFailure(t Type, mode string) {
	HandlerFailures.WithLabelValues(string(t), mode).Inc()
}

// RecordAsyncDropped increments the dropped async dispatch counter.
func RecordAsyncDropped(t Type) {
	AsyncDropped.WithLabelValues(string(t)).Inc()
}
