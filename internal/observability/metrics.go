// Package observability exposes prometheus metrics for the blame walk.
package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// WalkMetrics counts the work of one blame run.
type WalkMetrics struct {
	registry *prometheus.Registry

	// CommitsProcessed counts popped frontier nodes. A commit reached
	// from several descendants is merged into one node and counted once.
	CommitsProcessed prometheus.Counter
	// FilesBlamed counts target files in the result.
	FilesBlamed prometheus.Gauge
	// LinesAttributed counts lines that received an attribution.
	LinesAttributed prometheus.Gauge
}

// NewWalkMetrics creates and registers the walk metrics on a fresh registry.
func NewWalkMetrics() (*WalkMetrics, error) {
	metrics := &WalkMetrics{
		registry: prometheus.NewRegistry(),
		CommitsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bulkblame_commits_processed_total",
			Help: "Frontier nodes processed during the blame walk.",
		}),
		FilesBlamed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bulkblame_files_blamed",
			Help: "Files attributed by the blame run.",
		}),
		LinesAttributed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bulkblame_lines_attributed",
			Help: "Lines that received a commit attribution.",
		}),
	}

	for _, collector := range []prometheus.Collector{
		metrics.CommitsProcessed,
		metrics.FilesBlamed,
		metrics.LinesAttributed,
	} {
		err := metrics.registry.Register(collector)
		if err != nil {
			return nil, fmt.Errorf("register walk metric: %w", err)
		}
	}

	return metrics, nil
}

// Gather snapshots the registered metric families for reporting.
func (m *WalkMetrics) Gather() ([]*MetricSample, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather walk metrics: %w", err)
	}

	samples := make([]*MetricSample, 0, len(families))

	for _, family := range families {
		for _, metric := range family.GetMetric() {
			value := 0.0

			switch {
			case metric.GetCounter() != nil:
				value = metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				value = metric.GetGauge().GetValue()
			}

			samples = append(samples, &MetricSample{Name: family.GetName(), Value: value})
		}
	}

	return samples, nil
}

// MetricSample is one flattened metric value for CLI reporting.
type MetricSample struct {
	Name  string
	Value float64
}
