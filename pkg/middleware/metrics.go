package middleware

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vango-dev/waypoint/pkg/history"
	"github.com/vango-dev/waypoint/pkg/router"
)

// MetricsConfig configures the Prometheus collectors.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "waypoint").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus collectors.
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

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "waypoint",
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the navigation collectors. It implements router.Observer,
// so it can be passed to router.WithObserver, and Instrument attaches it to
// a backend.
//
// Metrics collected:
//   - waypoint_navigations_total: navigate/redirect/go commands by outcome
//     (issued or skipped)
//   - waypoint_history_calls_total: Push/Replace/Go calls reaching a backend
//   - waypoint_history_updates_total: updates delivered by a backend, by action
//   - waypoint_history_listeners: listeners currently registered on
//     instrumented backends
//   - waypoint_sessions_active: open WebSocket sessions
//   - waypoint_frames_rejected_total: inbound frames dropped, by reason
type Metrics struct {
	navigations    *prometheus.CounterVec
	calls          *prometheus.CounterVec
	updates        *prometheus.CounterVec
	listeners      prometheus.Gauge
	sessions       prometheus.Gauge
	framesRejected *prometheus.CounterVec
}

var _ router.Observer = (*Metrics)(nil)

// NewMetrics creates and registers the collectors. Registering twice on the
// same registry panics, as with promauto.
//
//	reg := prometheus.NewRegistry()
//	m := middleware.NewMetrics(middleware.WithRegistry(reg))
//	r := router.New(
//	    router.WithHistory(middleware.Instrument(history.NewMemory(), m)),
//	    router.WithObserver(m),
//	)
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		navigations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigations_total",
			Help:        "Navigation commands by command and outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"command", "outcome"}),

		calls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "history_calls_total",
			Help:        "Calls received by history backends",
			ConstLabels: config.ConstLabels,
		}, []string{"method"}),

		updates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "history_updates_total",
			Help:        "Updates delivered by history backends",
			ConstLabels: config.ConstLabels,
		}, []string{"action"}),

		listeners: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "history_listeners",
			Help:        "Listeners registered on history backends",
			ConstLabels: config.ConstLabels,
		}),

		sessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "sessions_active",
			Help:        "Open WebSocket history sessions",
			ConstLabels: config.ConstLabels,
		}),

		framesRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "frames_rejected_total",
			Help:        "Inbound history frames dropped, by reason",
			ConstLabels: config.ConstLabels,
		}, []string{"reason"}),
	}
}

// NavigationIssued implements router.Observer.
func (m *Metrics) NavigationIssued(cmd router.Command) {
	m.navigations.WithLabelValues(string(cmd), "issued").Inc()
}

// NavigationSkipped implements router.Observer.
func (m *Metrics) NavigationSkipped(cmd router.Command) {
	m.navigations.WithLabelValues(string(cmd), "skipped").Inc()
}

// SessionOpened records a new WebSocket session.
func (m *Metrics) SessionOpened() { m.sessions.Inc() }

// SessionClosed records the end of a WebSocket session.
func (m *Metrics) SessionClosed() { m.sessions.Dec() }

// FrameRejected records an inbound frame that was dropped. reason should be
// a short fixed category, never the frame contents.
func (m *Metrics) FrameRejected(reason string) {
	m.framesRejected.WithLabelValues(reason).Inc()
}

// Instrument wraps h so that its calls and deliveries are counted in m.
func Instrument(h history.History, m *Metrics) history.History {
	return &instrumented{History: h, m: m}
}

type instrumented struct {
	history.History
	m *Metrics
}

func (h *instrumented) Unwrap() history.History { return h.History }

func (h *instrumented) Push(to history.Path, state any) {
	h.m.calls.WithLabelValues("push").Inc()
	h.History.Push(to, state)
}

func (h *instrumented) Replace(to history.Path, state any) {
	h.m.calls.WithLabelValues("replace").Inc()
	h.History.Replace(to, state)
}

func (h *instrumented) Go(delta int) {
	h.m.calls.WithLabelValues("go").Inc()
	h.History.Go(delta)
}

func (h *instrumented) Listen(fn history.Listener) func() {
	h.m.listeners.Inc()
	stop := h.History.Listen(func(u history.Update) {
		h.m.updates.WithLabelValues(string(u.Action)).Inc()
		fn(u)
	})
	stopped := false
	return func() {
		if stopped {
			return
		}
		stopped = true
		h.m.listeners.Dec()
		stop()
	}
}
