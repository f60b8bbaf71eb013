// Package metrics records batch scoring counters on a private Prometheus
// registry. The CLI has no server; the registry is written in the node
// exporter textfile format when a metrics file is configured.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dotcommander/shs/internal/shs"
)

// Recorder holds the batch collectors. A nil *Recorder records nothing.
type Recorder struct {
	registry    *prometheus.Registry
	evaluations *prometheus.CounterVec
	bands       *prometheus.CounterVec
	scores      prometheus.Histogram
	runDuration prometheus.Histogram
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		evaluations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shs_evaluations_total",
				Help: "Total number of evaluations scored, by outcome",
			},
			[]string{"status"},
		),
		bands: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shs_evaluations_by_band_total",
				Help: "Scored evaluations by overall classification band",
			},
			[]string{"band"},
		),
		scores: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "shs_overall_score",
				Help:    "Distribution of overall SHS scores",
				Buckets: prometheus.LinearBuckets(-1, 0.25, 9),
			},
		),
		runDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name: "shs_batch_duration_seconds",
				Help: "Duration of batch runs in seconds",
			},
		),
	}
}

// ObserveEvaluation counts one evaluation. res is ignored when err is set.
func (r *Recorder) ObserveEvaluation(res shs.Result, err error) {
	if r == nil {
		return
	}
	if err != nil {
		r.evaluations.WithLabelValues("failed").Inc()
		return
	}
	r.evaluations.WithLabelValues("ok").Inc()
	r.bands.WithLabelValues(res.Band().ID).Inc()
	r.scores.Observe(res.OverallScore)
}

// ObserveRun records the wall time of a batch run.
func (r *Recorder) ObserveRun(d time.Duration) {
	if r == nil {
		return
	}
	r.runDuration.Observe(d.Seconds())
}

// Gatherer exposes the registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes the registry to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics file %s: %w", path, err)
	}
	return nil
}
