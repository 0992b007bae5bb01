package instrument

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/lattice-dev/lattice/pkg/lattice"
)

// MetricsConfig configures the Prometheus hook set.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "lattice").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for engine operation duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus hook set.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace:   "lattice",
		Subsystem:   "",
		ConstLabels: nil,
		Buckets:     prometheus.DefBuckets,
		Registry:    prometheus.DefaultRegisterer,
	}
}

// metrics holds the Prometheus collectors fed by the engine hooks.
type metrics struct {
	wrapsTotal         prometheus.Counter
	notificationsTotal prometheus.Counter
	listenersFired     prometheus.Counter
	reconcilesTotal    *prometheus.CounterVec
	reconcileDuration  *prometheus.HistogramVec
	mergesTotal        *prometheus.CounterVec
	mergeDuration      *prometheus.HistogramVec
}

// globalMetrics is the singleton metrics instance, created on the first
// call to Prometheus().
var (
	globalMetrics   *metrics
	globalMetricsMu sync.Mutex
)

func initMetrics(config MetricsConfig) *metrics {
	factory := promauto.With(config.Registry)

	return &metrics{
		wrapsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "wraps_total",
			Help:        "Total number of observable wrappers constructed",
			ConstLabels: config.ConstLabels,
		}),

		notificationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "notifications_total",
			Help:        "Total number of notification passes dispatched",
			ConstLabels: config.ConstLabels,
		}),

		listenersFired: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "listener_invocations_total",
			Help:        "Total number of listener invocations dispatched",
			ConstLabels: config.ConstLabels,
		}),

		reconcilesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "reconciles_total",
			Help:        "Total number of reconcile operations by destination shape and outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"shape", "changed"}),

		reconcileDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "reconcile_duration_seconds",
			Help:        "Reconcile duration in seconds by destination shape",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"shape"}),

		mergesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "merges_total",
			Help:        "Total number of merge operations by mode and outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"mode", "changed"}),

		mergeDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "merge_duration_seconds",
			Help:        "Merge duration in seconds by mode",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"mode"}),
	}
}

// Prometheus builds a hook set that feeds engine activity into Prometheus
// collectors. Install the result with lattice.SetHooks.
//
// Metrics collected:
//   - lattice_wraps_total: Counter of wrappers constructed
//   - lattice_notifications_total: Counter of notification passes
//   - lattice_listener_invocations_total: Counter of listener invocations
//   - lattice_reconciles_total: Counter of reconciles by shape and outcome
//   - lattice_reconcile_duration_seconds: Histogram of reconcile duration
//   - lattice_merges_total: Counter of merges by mode and outcome
//   - lattice_merge_duration_seconds: Histogram of merge duration
//
// Example:
//
//	lattice.SetHooks(instrument.Prometheus(
//	    instrument.WithNamespace("myapp"),
//	))
//
//	// Expose metrics endpoint
//	http.Handle("/metrics", promhttp.Handler())
//
// The collectors register once per process; later calls reuse the first
// registration and ignore differing options.
func Prometheus(opts ...MetricsOption) *lattice.Hooks {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	globalMetricsMu.Lock()
	if globalMetrics == nil {
		globalMetrics = initMetrics(config)
	}
	m := globalMetrics
	globalMetricsMu.Unlock()

	return &lattice.Hooks{
		OnWrap: func() {
			m.wrapsTotal.Inc()
		},
		OnNotify: func() {
			m.notificationsTotal.Inc()
		},
		OnListenerFired: func() {
			m.listenersFired.Inc()
		},
		OnReconcile: func(shape string, changed bool, elapsed time.Duration) {
			m.reconcilesTotal.WithLabelValues(shape, boolLabel(changed)).Inc()
			m.reconcileDuration.WithLabelValues(shape).Observe(elapsed.Seconds())
		},
		OnMerge: func(deep, changed bool, elapsed time.Duration) {
			mode := "shallow"
			if deep {
				mode = "deep"
			}
			m.mergesTotal.WithLabelValues(mode, boolLabel(changed)).Inc()
			m.mergeDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
		},
	}
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
