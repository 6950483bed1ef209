// Package metrics provides Prometheus metrics for the ingest pipeline and
// the edge publisher.
package metrics

import (
	"github.com/jssroberto/teraspot/internal/alerts"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BatchesTotal counts processed ingest batches.
	// Labels: result (ok, empty, rejected, error)
	BatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "teraspot",
			Subsystem: "ingest",
			Name:      "batches_total",
			Help:      "Total number of ingest batches by outcome",
		},
		[]string{"result"},
	)

	// EventsTotal counts events by validation outcome.
	// Labels: result (accepted, rejected)
	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "teraspot",
			Subsystem: "ingest",
			Name:      "events_total",
			Help:      "Total number of space events by validation outcome",
		},
		[]string{"result"},
	)

	// PersistErrors counts per-item write failures.
	// Labels: store (current, history)
	PersistErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "teraspot",
			Subsystem: "ingest",
			Name:      "persist_errors_total",
			Help:      "Total number of failed current-state or history writes",
		},
		[]string{"store"},
	)

	// AlertsTotal counts generated alerts.
	// Labels: type (LOW_CONFIDENCE, HIGH, CRITICAL)
	AlertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "teraspot",
			Subsystem: "alerts",
			Name:      "generated_total",
			Help:      "Total number of generated alerts by type",
		},
		[]string{"type"},
	)

	// DispatchTotal counts dispatch outcomes.
	// Labels: result (sent, failed, dead_lettered, dead_letter_failed)
	DispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "teraspot",
			Subsystem: "alerts",
			Name:      "dispatch_total",
			Help:      "Total number of alert deliveries by outcome",
		},
		[]string{"result"},
	)

	// OccupancyRatio last computed fleet occupancy.
	OccupancyRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "teraspot",
			Subsystem: "ingest",
			Name:      "occupancy_ratio",
			Help:      "Fleet occupancy ratio from the last processed batch",
		},
	)

	// EdgePublishTotal counts edge publish attempts.
	// Labels: result (published, skipped, error)
	EdgePublishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "teraspot",
			Subsystem: "edge",
			Name:      "publish_total",
			Help:      "Total number of edge publish iterations by outcome",
		},
		[]string{"result"},
	)
)

// RecordDispatch adds one DispatchReport to DispatchTotal.
func RecordDispatch(report alerts.DispatchReport) {
	DispatchTotal.WithLabelValues("sent").Add(float64(report.Sent))
	DispatchTotal.WithLabelValues("failed").Add(float64(report.Failed))
	DispatchTotal.WithLabelValues("dead_lettered").Add(float64(report.DeadLettered))
	DispatchTotal.WithLabelValues("dead_letter_failed").Add(float64(report.DeadLetterFailed))
}
