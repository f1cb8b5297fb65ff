// Package metrics counts the outcome of batch conversions. The registry
// is written once at the end of a run in the node exporter textfile
// format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Document outcomes
const (
	Succeeded = "succeeded"
	Warned    = "warned"
	Failed    = "failed"
)

// Batch holds the metrics of one batch run.
type Batch struct {
	registry  *prometheus.Registry
	documents *prometheus.CounterVec
	warnings  prometheus.Counter
	duration  *prometheus.HistogramVec
}

// NewBatch returns Batch metrics registered on a private registry.
func NewBatch() *Batch {
	m := &Batch{
		registry: prometheus.NewRegistry(),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mzml2isa",
			Name:      "documents_total",
			Help:      "Documents processed, by outcome.",
		}, []string{"datatype", "outcome"}),
		warnings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mzml2isa",
			Name:      "warnings_total",
			Help:      "Non-fatal findings recorded while extracting.",
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mzml2isa",
			Name:      "extract_duration_seconds",
			Help:      "Time spent extracting one document.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"datatype"}),
	}
	m.registry.MustRegister(m.documents, m.warnings, m.duration)
	return m
}

// Registry returns the registry holding the metrics.
func (m *Batch) Registry() *prometheus.Registry {
	return m.registry
}

// Observe records one processed document. A nil Batch discards it.
func (m *Batch) Observe(datatype, outcome string, warnings int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.documents.WithLabelValues(datatype, outcome).Inc()
	m.warnings.Add(float64(warnings))
	m.duration.WithLabelValues(datatype).Observe(elapsed.Seconds())
}

// WriteToTextfile writes the metrics to file, atomically.
func (m *Batch) WriteToTextfile(file string) error {
	return prometheus.WriteToTextfile(file, m.registry)
}
