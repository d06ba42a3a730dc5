// Package metrics records pipeline metrics in a Prometheus registry.
//
// The pipeline runs as a batch job, so metrics are not served. WriteTextfile dumps the
// registry in the text exposition format for the node-exporter textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Row directions for StageRows
const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

// Option applies a configuration option to the Manager
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithHistogramBuckets sets the stage duration buckets
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.buckets = buckets
		}
	}
}

// WithRegistry sets the registry metrics are registered on and gathered from
func WithRegistry(registry *prometheus.Registry) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

// Manager holds the pipeline metrics
type Manager struct {
	namespace string
	buckets   []float64
	registry  *prometheus.Registry

	stageRows     *prometheus.GaugeVec
	stageDuration *prometheus.HistogramVec
	joinFanout    *prometheus.CounterVec
	pagesFetched  *prometheus.CounterVec
	tradeRows     prometheus.Gauge
}

// NewManager creates a manager on a fresh registry unless WithRegistry is given
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "nba_mvp",
		buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}

	auto := promauto.With(m.registry)

	m.stageRows = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "stage_rows",
		Help:      "Rows entering and leaving each pipeline stage",
	}, []string{"stage", "direction"})

	m.stageDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "stage_duration_seconds",
		Help:      "Wall time of each pipeline stage",
		Buckets:   m.buckets,
	}, []string{"stage"})

	m.joinFanout = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "join_fanout_total",
		Help:      "Join keys matched by more than one right-hand row",
	}, []string{"join"})

	m.pagesFetched = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "pages_fetched_total",
		Help:      "Pages obtained by the scraper, by page kind and source",
	}, []string{"kind", "source"})

	m.tradeRows = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "trade_rows_dropped",
		Help:      "Traded-player aggregate rows removed by the last merge",
	})

	return m
}

// ObserveStage records a stage's row counts and duration
func (m *Manager) ObserveStage(stage string, in, out int, d time.Duration) {
	m.stageRows.WithLabelValues(stage, DirectionIn).Set(float64(in))
	m.stageRows.WithLabelValues(stage, DirectionOut).Set(float64(out))
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// AddFanout counts fan-out keys for a join
func (m *Manager) AddFanout(join string, n int) {
	m.joinFanout.WithLabelValues(join).Add(float64(n))
}

// PageFetched counts a page by kind and source (network, browser, cache, disk)
func (m *Manager) PageFetched(kind, source string) {
	m.pagesFetched.WithLabelValues(kind, source).Inc()
}

// SetTradeRowsDropped records how many trade aggregate rows the merge removed
func (m *Manager) SetTradeRowsDropped(n int) {
	m.tradeRows.Set(float64(n))
}

// Registry returns the underlying registry
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes every metric to path in the text exposition format.
// The file is replaced atomically.
func (m *Manager) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
