package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/c360studio/spectrace/identifier"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "spectrace"

// Metrics holds the gauges describing the latest build, for export through
// the node_exporter textfile collector.
type Metrics struct {
	registry *prometheus.Registry

	identifiers   *prometheus.GaugeVec
	orphans       *prometheus.GaugeVec
	coverage      *prometheus.GaugeVec
	skipped       *prometheus.GaugeVec
	documents     prometheus.Gauge
	duplicates    prometheus.Gauge
	dangling      prometheus.Gauge
	cycles        prometheus.Gauge
	buildDuration prometheus.Gauge
	lastBuild     prometheus.Gauge
}

// NewMetrics creates the gauges on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		identifiers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "identifiers",
			Help:      "Declared identifiers by category.",
		}, []string{"category"}),
		orphans: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "orphans",
			Help:      "Identifiers with no link to another category, by category.",
		}, []string{"category"}),
		coverage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "coverage_percent",
			Help:      "Coverage percentage per metric.",
		}, []string{"metric"}),
		skipped: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "skipped_documents",
			Help:      "Documents passed over by the scan, by reason.",
		}, []string{"reason"}),
		documents: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "documents",
			Help:      "Governed documents scanned.",
		}),
		duplicates: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "duplicate_identifiers",
			Help:      "Identifiers declared by more than one document.",
		}),
		dangling: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "dangling_references",
			Help:      "Referenced identifiers no document declares.",
		}),
		cycles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "reference_cycles",
			Help:      "Reference cycles between same-category identifiers.",
		}),
		buildDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "build_duration_seconds",
			Help:      "Duration of the last build.",
		}),
		lastBuild: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "last_build_timestamp_seconds",
			Help:      "Unix time of the last successful build.",
		}),
	}
	m.registry.MustRegister(
		m.identifiers, m.orphans, m.coverage, m.skipped,
		m.documents, m.duplicates, m.dangling, m.cycles,
		m.buildDuration, m.lastBuild,
	)
	return m
}

// Registry returns the registry holding the gauges.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Observe records the state of a finished build.
func (m *Metrics) Observe(r *Report, duration time.Duration) {
	m.identifiers.Reset()
	m.orphans.Reset()
	m.coverage.Reset()
	m.skipped.Reset()

	for _, cat := range identifier.Categories {
		m.identifiers.WithLabelValues(string(cat)).Set(float64(r.Analysis.Categories[cat].Total))
		m.orphans.WithLabelValues(string(cat)).Set(float64(len(r.Analysis.Orphans[cat])))
	}
	for name, pct := range r.Analysis.Percentages() {
		m.coverage.WithLabelValues(name).Set(pct)
	}

	docs := 0
	if r.Scan != nil {
		docs = len(r.Scan.Items)
		for _, s := range r.Scan.Skipped {
			m.skipped.WithLabelValues(s.Reason).Inc()
		}
	}
	m.documents.Set(float64(docs))
	m.duplicates.Set(float64(len(r.Graph.Duplicates)))
	m.dangling.Set(float64(len(r.Graph.Dangling)))
	m.cycles.Set(float64(len(r.Graph.Cycles)))
	m.buildDuration.Set(duration.Seconds())
	m.lastBuild.SetToCurrentTime()
}

// WriteTextfile writes the gauges in the Prometheus text format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
