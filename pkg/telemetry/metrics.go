package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the Prometheus metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "domsync").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for transaction duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registerer to use.
	// Default: a fresh registry owned by the Metrics.
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics.
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

// WithRegistry sets the Prometheus registerer.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "domsync",
		Buckets:   prometheus.DefBuckets,
	}
}

// Metrics holds the engine's Prometheus collectors. A nil *Metrics is valid
// and records nothing, so components can take one unconditionally.
type Metrics struct {
	gatherer prometheus.Gatherer

	transactionsTotal   *prometheus.CounterVec
	transactionDuration prometheus.Histogram
	patchesTotal        *prometheus.CounterVec
	removesTotal        prometheus.Counter
	registeredIDs       prometheus.Gauge
	nativeListeners     prometheus.Gauge
	eventsTotal         *prometheus.CounterVec
	errorsTotal         *prometheus.CounterVec
}

// NewMetrics creates and registers the engine metrics.
//
// Metrics collected:
//   - domsync_transactions_total: Counter of transactions by status
//   - domsync_transaction_duration_seconds: Histogram of patch() duration
//   - domsync_patches_total: Counter of applied patches by kind
//   - domsync_removes_total: Counter of processed removals
//   - domsync_registered_ids: Gauge of ids in the identity map
//   - domsync_native_listeners: Gauge of document-level listeners attached
//   - domsync_events_total: Counter of delegated events by name and outcome
//   - domsync_errors_total: Counter of aborted transactions by error code
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	var gatherer prometheus.Gatherer
	if config.Registry == nil {
		reg := prometheus.NewRegistry()
		config.Registry = reg
		gatherer = reg
	} else if g, ok := config.Registry.(prometheus.Gatherer); ok {
		gatherer = g
	} else {
		gatherer = prometheus.DefaultGatherer
	}

	factory := promauto.With(config.Registry)

	return &Metrics{
		gatherer: gatherer,

		transactionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "transactions_total",
			Help:        "Total number of transactions applied",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),

		transactionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "transaction_duration_seconds",
			Help:        "Transaction application duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		patchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "patches_total",
			Help:        "Total number of patches applied by kind",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		removesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "removes_total",
			Help:        "Total number of subtree removals processed",
			ConstLabels: config.ConstLabels,
		}),

		registeredIDs: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "registered_ids",
			Help:        "Number of ids in the identity map",
			ConstLabels: config.ConstLabels,
		}),

		nativeListeners: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "native_listeners",
			Help:        "Number of document-level native listeners attached",
			ConstLabels: config.ConstLabels,
		}),

		eventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "events_total",
			Help:        "Total delegated events by name and outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"event", "outcome"}),

		errorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "errors_total",
			Help:        "Total aborted transactions by error code",
			ConstLabels: config.ConstLabels,
		}, []string{"code"}),
	}
}

// Gatherer returns the gatherer the metrics are registered with.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.gatherer
}

// ObserveTransaction records one transaction's outcome and duration.
func (m *Metrics) ObserveTransaction(seconds float64, code string) {
	if m == nil {
		return
	}
	m.transactionDuration.Observe(seconds)
	if code == "" && seconds >= 0 {
		m.transactionsTotal.WithLabelValues("success").Inc()
		return
	}
	m.transactionsTotal.WithLabelValues("error").Inc()
	if code == "" {
		code = "unknown"
	}
	m.errorsTotal.WithLabelValues(code).Inc()
}

// RecordPatch records one applied patch.
func (m *Metrics) RecordPatch(kind string) {
	if m == nil {
		return
	}
	m.patchesTotal.WithLabelValues(kind).Inc()
}

// RecordRemove records one processed removal.
func (m *Metrics) RecordRemove() {
	if m == nil {
		return
	}
	m.removesTotal.Inc()
}

// SetRegisteredIDs records the identity map size.
func (m *Metrics) SetRegisteredIDs(n int) {
	if m == nil {
		return
	}
	m.registeredIDs.Set(float64(n))
}

// ListenerAttached records a native listener being attached.
func (m *Metrics) ListenerAttached() {
	if m == nil {
		return
	}
	m.nativeListeners.Inc()
}

// ListenerDetached records a native listener being detached.
func (m *Metrics) ListenerDetached() {
	if m == nil {
		return
	}
	m.nativeListeners.Dec()
}

// RecordEvent records a delegated event. dispatched is false when the
// target could not be resolved to an id.
func (m *Metrics) RecordEvent(name string, dispatched bool) {
	if m == nil {
		return
	}
	outcome := "dispatched"
	if !dispatched {
		outcome = "dropped"
	}
	m.eventsTotal.WithLabelValues(name, outcome).Inc()
}
