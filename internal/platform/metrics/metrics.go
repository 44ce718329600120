// Package metrics registers the Prometheus instruments shared by the record
// modules and the counter and audit subsystems.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for record writes, code reservations and the
// audit trail. Methods are nil-safe so tests can pass a nil receiver.
type Metrics struct {
	// Record writes by module and action
	RecordWrites *prometheus.CounterVec

	// Sequence code reservations by counter name
	CodeReservations *prometheus.CounterVec

	// Audit entries appended by module
	AuditEntries *prometheus.CounterVec

	// End-to-end write pipeline latency by module
	WriteLatency *prometheus.HistogramVec

	// HTTP request latency by route and status class
	RequestLatency *prometheus.HistogramVec
}

// New creates a Metrics instance with all instruments registered on the
// default registry.
func New() *Metrics {
	return &Metrics{
		RecordWrites: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fundvault_record_writes_total",
			Help: "Total record write operations by module and action",
		}, []string{"module", "action"}),

		CodeReservations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fundvault_code_reservations_total",
			Help: "Total sequence code reservations by counter",
		}, []string{"counter"}),

		AuditEntries: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fundvault_audit_entries_total",
			Help: "Total audit trail entries appended by module",
		}, []string{"module"}),

		WriteLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fundvault_record_write_duration_seconds",
			Help:    "Duration of the full write pipeline by module",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"module"}),

		RequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fundvault_http_request_duration_seconds",
			Help:    "HTTP request duration by route pattern and status class",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"route", "status"}),
	}
}

// IncrementRecordWrite records a completed write operation.
func (m *Metrics) IncrementRecordWrite(module, action string) {
	if m != nil {
		m.RecordWrites.WithLabelValues(module, action).Inc()
	}
}

// IncrementCodeReservation records a sequence code reservation.
func (m *Metrics) IncrementCodeReservation(counter string) {
	if m != nil {
		m.CodeReservations.WithLabelValues(counter).Inc()
	}
}

// IncrementAuditEntry records an appended audit entry.
func (m *Metrics) IncrementAuditEntry(module string) {
	if m != nil {
		m.AuditEntries.WithLabelValues(module).Inc()
	}
}

// ObserveWriteLatency records the duration of a write pipeline run.
func (m *Metrics) ObserveWriteLatency(module string, d time.Duration) {
	if m != nil {
		m.WriteLatency.WithLabelValues(module).Observe(d.Seconds())
	}
}

// ObserveRequestLatency records an HTTP request duration.
func (m *Metrics) ObserveRequestLatency(route, status string, d time.Duration) {
	if m != nil {
		m.RequestLatency.WithLabelValues(route, status).Observe(d.Seconds())
	}
}
