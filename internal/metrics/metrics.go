// Package metrics collects per-run screening statistics in Prometheus
// format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ncov_watch"

// Metrics holds the collectors for one screening run.
type Metrics struct {
	registry *prometheus.Registry

	FilesScreened     *prometheus.CounterVec
	VariantsParsed    *prometheus.CounterVec
	WatchlistHits     *prometheus.CounterVec
	SamplesWithHits   prometheus.Counter
	FilesUnrecognized prometheus.Counter
	FilesFailed       prometheus.Counter
	WatchlistEntries  prometheus.Gauge
	LastRunCompleted  prometheus.Gauge
}

// New creates and registers the run collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		FilesScreened: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_screened_total",
			Help:      "Sample files screened, by input format.",
		}, []string{"format"}),
		VariantsParsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "variants_parsed_total",
			Help:      "Variants read from sample files, by input format.",
		}, []string{"format"}),
		WatchlistHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "watchlist_hits_total",
			Help:      "Sample variants matching a watchlist entry, by mutation name.",
		}, []string{"mutation"}),
		SamplesWithHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_with_hits_total",
			Help:      "Samples with at least one watchlist hit.",
		}),
		FilesUnrecognized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_unrecognized_total",
			Help:      "iVar files that could not be read as iVar output.",
		}),
		FilesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_failed_total",
			Help:      "Sample files skipped because of parse errors.",
		}),
		WatchlistEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "watchlist_entries",
			Help:      "Distinct variants in the loaded watchlist.",
		}),
		LastRunCompleted: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_completed_timestamp_seconds",
			Help:      "Unix time the last screening run finished.",
		}),
	}

	m.registry.MustRegister(
		m.FilesScreened,
		m.VariantsParsed,
		m.WatchlistHits,
		m.SamplesWithHits,
		m.FilesUnrecognized,
		m.FilesFailed,
		m.WatchlistEntries,
		m.LastRunCompleted,
	)
	return m
}

// Registry returns the registry holding the run collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// MarkCompleted records the run completion time.
func (m *Metrics) MarkCompleted(t time.Time) {
	m.LastRunCompleted.Set(float64(t.Unix()))
}

// WriteTextfile writes the metrics in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
