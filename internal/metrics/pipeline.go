// Package metrics provides Prometheus metrics for the prediction pipeline,
// the detector worker and the HTTP transport.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Event kinds recorded by the dispatcher.
const (
	EventCommand   = "command"
	EventPhoto     = "photo"
	EventOther     = "other"
	EventDuplicate = "duplicate"
)

// PipelineMetrics contains the metrics of the bot's prediction pipeline.
type PipelineMetrics struct {
	EventsTotal        *prometheus.CounterVec
	PredictionsTotal   *prometheus.CounterVec
	StageDuration      *prometheus.HistogramVec
	PredictionDuration prometheus.Histogram
	InFlight           prometheus.Gauge
	ObjectsDetected    prometheus.Counter
}

// NewPipelineMetrics creates the pipeline metrics and registers them with registry.
func NewPipelineMetrics(registry prometheus.Registerer) (*PipelineMetrics, error) {
	m := &PipelineMetrics{
		EventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "objectdetect_events_total",
			Help: "Total number of inbound chat events by kind.",
		}, []string{"kind"}),

		PredictionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "objectdetect_predictions_total",
			Help: "Total number of prediction requests by terminal state and failure reason.",
		}, []string{"state", "reason"}),

		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "objectdetect_stage_duration_seconds",
			Help:    "Duration of individual pipeline stages in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		}, []string{"stage"}),

		PredictionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "objectdetect_prediction_duration_seconds",
			Help:    "End-to-end duration of a prediction request in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),

		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "objectdetect_predictions_in_flight",
			Help: "Number of prediction requests currently being processed.",
		}),

		ObjectsDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "objectdetect_objects_detected_total",
			Help: "Total number of objects reported to users.",
		}),
	}

	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("register pipeline metrics: %w", err)
	}
	return m, nil
}

// RecordEvent counts one inbound event of the given kind.
func (m *PipelineMetrics) RecordEvent(kind string) {
	m.EventsTotal.WithLabelValues(kind).Inc()
}

// ObserveStage records how long a pipeline stage took.
func (m *PipelineMetrics) ObserveStage(stage string, d time.Duration) {
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordOutcome counts a finished prediction. reason is empty on success.
func (m *PipelineMetrics) RecordOutcome(state, reason string, d time.Duration, objects int) {
	m.PredictionsTotal.WithLabelValues(state, reason).Inc()
	m.PredictionDuration.Observe(d.Seconds())
	if objects > 0 {
		m.ObjectsDetected.Add(float64(objects))
	}
}

// IncInFlight marks a prediction as started.
func (m *PipelineMetrics) IncInFlight() { m.InFlight.Inc() }

// DecInFlight marks a prediction as finished.
func (m *PipelineMetrics) DecInFlight() { m.InFlight.Dec() }

// Collect implements the prometheus.Collector interface.
func (m *PipelineMetrics) Collect(ch chan<- prometheus.Metric) {
	m.EventsTotal.Collect(ch)
	m.PredictionsTotal.Collect(ch)
	m.StageDuration.Collect(ch)
	ch <- m.PredictionDuration
	ch <- m.InFlight
	ch <- m.ObjectsDetected
}

// Describe implements the prometheus.Collector interface.
func (m *PipelineMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.EventsTotal.Describe(ch)
	m.PredictionsTotal.Describe(ch)
	m.StageDuration.Describe(ch)
	ch <- m.PredictionDuration.Desc()
	ch <- m.InFlight.Desc()
	ch <- m.ObjectsDetected.Desc()
}
