// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "studio",
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "HTTP requests by method, route and status.",
}, []string{"method", "route", "status"})

var HTTPLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "studio",
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request latency by route.",
	Buckets:   prometheus.DefBuckets,
}, []string{"method", "route"})

var BookingsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "studio",
	Subsystem: "bookings",
	Name:      "created_total",
	Help:      "Bookings created by source.",
}, []string{"source"})

var ReportChanges = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "studio",
	Subsystem: "reports",
	Name:      "changes_total",
	Help:      "Report entries added or removed.",
}, []string{"action"})

var ReportLinksRepaired = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "studio",
	Subsystem: "reports",
	Name:      "links_repaired_total",
	Help:      "Bookings whose report link was repaired.",
})

var SettingsSource = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "studio",
	Subsystem: "settings",
	Name:      "loads_total",
	Help:      "Price table loads by the source that served them (db, cache, memory, defaults).",
}, []string{"source"})

var CalendarEventsSynced = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "studio",
	Subsystem: "calendar",
	Name:      "events_synced_total",
	Help:      "Calendar events stored by sync runs.",
})
