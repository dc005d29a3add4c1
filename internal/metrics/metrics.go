// Package metrics defines and registers the Prometheus metrics of the
// Sentinel Admin service. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics register with the default registry at package init through promauto
// and are exposed on /metrics by the web server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sentinel_admin"

// ── Import metrics ────────────────────────────────────────────────────────────

// ImportRowsTotal counts row outcomes of confirmed imports.
// Label:
//   - outcome: "inserted", "duplicate_in_store", "duplicate_in_batch",
//     "missing_username" or "persistence_error"
var ImportRowsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "import_rows_total",
		Help:      "Total number of imported CSV rows, by outcome.",
	},
	[]string{"outcome"},
)

// ImportsTotal counts pipeline runs.
// Labels:
//   - mode: "preview" or "import"
//   - result: "ok", "cancelled" (import stopped by its context) or "rejected"
var ImportsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "imports_total",
		Help:      "Total number of CSV previews and imports, by result.",
	},
	[]string{"mode", "result"},
)

// ImportDuration measures a whole preview or import call.
// Label:
//   - mode: "preview" or "import"
var ImportDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "import_duration_seconds",
		Help:      "Duration of CSV previews and imports.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"mode"},
)

// ImportsInFlight tracks previews and imports currently holding a limiter slot.
var ImportsInFlight = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "imports_in_flight",
		Help:      "Current number of CSV previews and imports being processed.",
	},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditWritesTotal counts audit recorder outcomes.
// Label:
//   - result: "ok", "skipped" (store not ready) or "failed"
var AuditWritesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_writes_total",
		Help:      "Total number of audit writes, by result.",
	},
	[]string{"result"},
)

// ── HTTP metrics ──────────────────────────────────────────────────────────────

// HTTPRequestsTotal counts served requests.
// Labels:
//   - method, route (chi route pattern), status
var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	},
	[]string{"method", "route", "status"},
)

// HTTPRequestDuration measures request latency.
// Labels:
//   - method, route
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)
