// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics records extraction activity in Prometheus collectors.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pdiddy/mutfinder/internal/mutation"
)

// Metrics holds the extraction collectors on a private registry, so several
// instances can coexist in one process.
//
// Metrics:
//   - mutfinder_documents_total{status} - documents processed, by outcome
//   - mutfinder_mentions_total{template} - accepted matches per template
//   - mutfinder_noop_filtered_total - no-op mutations removed per document
//   - mutfinder_extract_duration_seconds - per-document extraction time
type Metrics struct {
	registry *prometheus.Registry

	DocumentsTotal     *prometheus.CounterVec
	MentionsTotal      *prometheus.CounterVec
	NoOpFilteredTotal  prometheus.Counter
	ExtractionDuration prometheus.Histogram
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		DocumentsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mutfinder_documents_total",
				Help: "Total number of documents processed",
			},
			[]string{"status"}, // "extracted" or "failed"
		),
		MentionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mutfinder_mentions_total",
				Help: "Total number of mutation mentions accepted",
			},
			[]string{"template"},
		),
		NoOpFilteredTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "mutfinder_noop_filtered_total",
				Help: "Total number of no-op mutations removed from document results",
			},
		),
		ExtractionDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "mutfinder_extract_duration_seconds",
				Help:    "Duration of single-document extraction in seconds",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
		),
	}
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Matched counts one accepted template match.
func (m *Metrics) Matched(template string, _ mutation.PointMutation) {
	m.MentionsTotal.WithLabelValues(template).Inc()
}

// NoOpFiltered counts one dropped no-op mention.
func (m *Metrics) NoOpFiltered(mutation.PointMutation) {
	m.NoOpFilteredTotal.Inc()
}

// Document records a processed document and its extraction time.
func (m *Metrics) Document(status string, elapsed time.Duration) {
	m.DocumentsTotal.WithLabelValues(status).Inc()
	m.ExtractionDuration.Observe(elapsed.Seconds())
}

// WriteTextfile writes the current values in the text exposition format,
// suitable for a node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
