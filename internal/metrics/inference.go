package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// InferenceMetrics contains the metrics of the detector worker.
type InferenceMetrics struct {
	RunsTotal    *prometheus.CounterVec
	RunDuration  prometheus.Histogram
	LabelsTotal  prometheus.Counter
	UploadErrors prometheus.Counter
}

// NewInferenceMetrics creates the detector worker metrics and registers them with registry.
func NewInferenceMetrics(registry prometheus.Registerer) (*InferenceMetrics, error) {
	m := &InferenceMetrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "objectdetect_inference_runs_total",
			Help: "Total number of detection runs by result.",
		}, []string{"result"}),

		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "objectdetect_inference_run_duration_seconds",
			Help:    "Duration of the external detection command in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),

		LabelsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "objectdetect_inference_labels_total",
			Help: "Total number of label lines produced.",
		}),

		UploadErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "objectdetect_inference_upload_errors_total",
			Help: "Total number of failed predicted image uploads.",
		}),
	}

	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("register inference metrics: %w", err)
	}
	return m, nil
}

// RecordRun counts one detection run and its duration.
func (m *InferenceMetrics) RecordRun(result string, d time.Duration, labels int) {
	m.RunsTotal.WithLabelValues(result).Inc()
	m.RunDuration.Observe(d.Seconds())
	m.LabelsTotal.Add(float64(labels))
}

// IncUploadErrors counts a failed predicted image upload.
func (m *InferenceMetrics) IncUploadErrors() { m.UploadErrors.Inc() }

// Collect implements the prometheus.Collector interface.
func (m *InferenceMetrics) Collect(ch chan<- prometheus.Metric) {
	m.RunsTotal.Collect(ch)
	ch <- m.RunDuration
	ch <- m.LabelsTotal
	ch <- m.UploadErrors
}

// Describe implements the prometheus.Collector interface.
func (m *InferenceMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.RunsTotal.Describe(ch)
	ch <- m.RunDuration.Desc()
	ch <- m.LabelsTotal.Desc()
	ch <- m.UploadErrors.Desc()
}
