package middleware

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/waypoint/pkg/history"
	"github.com/vango-dev/waypoint/pkg/router"
)

func newTestMetrics(t *testing.T) (*Metrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return NewMetrics(WithRegistry(reg)), reg
}

func TestMetricsCountsNavigationDecisions(t *testing.T) {
	m, _ := newTestMetrics(t)
	mem := history.NewMemory("/a")
	r := router.New(router.WithHistory(Instrument(mem, m)), router.WithObserver(m))

	r.Navigate(router.To("/b"))
	r.Navigate(router.To("/b"))
	r.Redirect(router.To("/c"))
	r.Back()
	r.Back() // clamped at the first entry

	tests := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"navigate issued", m.navigations.WithLabelValues("navigate", "issued"), 1},
		{"navigate skipped", m.navigations.WithLabelValues("navigate", "skipped"), 1},
		{"redirect issued", m.navigations.WithLabelValues("redirect", "issued"), 1},
		{"go issued", m.navigations.WithLabelValues("go", "issued"), 1},
		{"go skipped", m.navigations.WithLabelValues("go", "skipped"), 1},
		{"push calls", m.calls.WithLabelValues("push"), 1},
		{"replace calls", m.calls.WithLabelValues("replace"), 1},
		{"go calls", m.calls.WithLabelValues("go"), 1},
		{"push updates", m.updates.WithLabelValues("PUSH"), 1},
		{"replace updates", m.updates.WithLabelValues("REPLACE"), 1},
		{"pop updates", m.updates.WithLabelValues("POP"), 1},
		{"listeners", m.listeners, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, testutil.ToFloat64(tt.c), tt.name)
	}
	assert.Equal(t, "/a", r.Path().Current())
}

func TestInstrumentListenerGauge(t *testing.T) {
	m, _ := newTestMetrics(t)
	h := Instrument(history.NewMemory(), m)

	stop1 := h.Listen(func(history.Update) {})
	stop2 := h.Listen(func(history.Update) {})
	stop1()
	stop1()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.listeners))
	stop2()
	assert.Equal(t, 0.0, testutil.ToFloat64(m.listeners))
}

func TestSessionsAndRejectedFrames(t *testing.T) {
	m, reg := newTestMetrics(t)
	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()
	m.FrameRejected("invalid_path")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.framesRejected.WithLabelValues("invalid_path")))

	n, err := testutil.GatherAndCount(reg, "waypoint_sessions_active", "waypoint_frames_rejected_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestMetricsNamespace(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg), WithNamespace("app"), WithSubsystem("nav"),
		WithConstLabels(prometheus.Labels{"router": "root"}))
	m.SessionOpened()

	n, err := testutil.GatherAndCount(reg, "app_nav_sessions_active")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDecoratorsUnwrap(t *testing.T) {
	m, _ := newTestMetrics(t)
	mem := history.NewMemory("/a")
	h := Tracing(Instrument(Logging(mem, nil), m))

	assert.False(t, history.CanGo(h, 1), "single entry seen through decorators")
	h.Push(history.Path{Path: "/b"}, nil)
	assert.True(t, history.CanGo(h, -1))
}
