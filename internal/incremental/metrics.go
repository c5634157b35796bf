package incremental

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the maintainer's Prometheus collectors on a private
// registry, so several maintainers (or tests) never collide.
type Metrics struct {
	registry *prometheus.Registry

	Batches       prometheus.Counter
	FilesApplied  *prometheus.CounterVec
	FileErrors    prometheus.Counter
	VectorErrors  prometheus.Counter
	ApplyDuration prometheus.Histogram
	QueueDepth    prometheus.Gauge
	Nodes         prometheus.Gauge
	Edges         prometheus.Gauge
	Version       prometheus.Gauge
}

// NewMetrics creates and registers the collectors under namespace.
func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		Batches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_applied_total",
			Help:      "Total number of change batches applied to the graph",
		}),
		FilesApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_applied_total",
			Help:      "Files processed by outcome",
		}, []string{"outcome"}),
		FileErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "file_errors_total",
			Help:      "Files that failed to re-extract",
		}),
		VectorErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vector_errors_total",
			Help:      "Best-effort vector store calls that failed",
		}),
		ApplyDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "apply_duration_seconds",
			Help:      "Time to apply one change batch",
			Buckets:   prometheus.DefBuckets,
		}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Change batches waiting for the writer",
		}),
		Nodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_nodes",
			Help:      "Nodes in the current snapshot",
		}),
		Edges: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_edges",
			Help:      "Edges in the current snapshot",
		}),
		Version: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_version",
			Help:      "Version of the published snapshot",
		}),
	}

	registry.MustRegister(
		m.Batches,
		m.FilesApplied,
		m.FileErrors,
		m.VectorErrors,
		m.ApplyDuration,
		m.QueueDepth,
		m.Nodes,
		m.Edges,
		m.Version,
	)
	return m
}

// Registry exposes the private registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) observe(res ApplyResult, nodes, edges int) {
	m.Batches.Inc()
	m.FilesApplied.WithLabelValues("reindexed").Add(float64(len(res.Reindexed)))
	m.FilesApplied.WithLabelValues("removed").Add(float64(len(res.Removed)))
	m.FilesApplied.WithLabelValues("unchanged").Add(float64(res.Unchanged))
	m.FilesApplied.WithLabelValues("ignored").Add(float64(res.Ignored))
	m.FileErrors.Add(float64(len(res.Errors)))
	m.VectorErrors.Add(float64(res.VectorErrors))
	m.ApplyDuration.Observe(res.Duration.Seconds())
	m.Nodes.Set(float64(nodes))
	m.Edges.Set(float64(edges))
	m.Version.Set(float64(res.Version))
}
