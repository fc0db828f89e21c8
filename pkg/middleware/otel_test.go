package middleware

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/vango-dev/waypoint/pkg/history"
	"github.com/vango-dev/waypoint/pkg/router"
)

type startedSpan struct {
	name  string
	attrs []attribute.KeyValue
}

// recordingTracer records span starts and hands out no-op spans.
type recordingTracer struct {
	noop.Tracer
	spans []startedSpan
}

func (r *recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	cfg := trace.NewSpanStartConfig(opts...)
	r.spans = append(r.spans, startedSpan{name: name, attrs: cfg.Attributes()})
	return r.Tracer.Start(ctx, name, opts...)
}

type recordingProvider struct {
	noop.TracerProvider
	tracer *recordingTracer
	names  []string
}

func (p *recordingProvider) Tracer(name string, _ ...trace.TracerOption) trace.Tracer {
	p.names = append(p.names, name)
	return p.tracer
}

func newRecordingProvider() *recordingProvider {
	return &recordingProvider{tracer: &recordingTracer{}}
}

// attr returns the span attribute key as its Go value, or nil.
func attr(span startedSpan, key string) any {
	for _, kv := range span.attrs {
		if string(kv.Key) == key {
			return kv.Value.AsInterface()
		}
	}
	return nil
}

func TestTracingSpans(t *testing.T) {
	tp := newRecordingProvider()
	h := Tracing(history.NewMemory("/a"), WithTracerProvider(tp), WithTracerName("test"))
	r := router.New(router.WithHistory(h))

	r.Navigate(router.To("/b?x=1"))
	r.Redirect(router.To("/c"))
	r.Back()

	var names []string
	for _, s := range tp.tracer.spans {
		names = append(names, s.name)
	}
	want := []string{
		"history.push", "history.update",
		"history.replace", "history.update",
		"history.go", "history.update",
	}
	require.Equal(t, want, names)
	assert.Equal(t, []string{"test"}, tp.names)

	push := tp.tracer.spans[0]
	assert.Equal(t, "/a", attr(push, "waypoint.from"))
	assert.Equal(t, "/b?x=1", attr(push, "waypoint.target"))
	assert.Equal(t, "PUSH", attr(tp.tracer.spans[1], "waypoint.action"))
	assert.Equal(t, int64(-1), attr(tp.tracer.spans[4], "waypoint.delta"))
}

func TestTracingExtractorAndState(t *testing.T) {
	tp := newRecordingProvider()
	h := Tracing(history.NewMemory("/"),
		WithTracerProvider(tp),
		WithIncludeState(true),
		WithAttributeExtractor(func(to history.Path) []attribute.KeyValue {
			return []attribute.KeyValue{attribute.String("test.path", to.Path)}
		}),
	)
	h.Push(history.Path{Path: "/x"}, map[string]int{"n": 1})

	require.NotEmpty(t, tp.tracer.spans)
	span := tp.tracer.spans[0]
	assert.Equal(t, "/x", attr(span, "test.path"))
	assert.Equal(t, "map[string]int", attr(span, "waypoint.state_type"))
}

func TestTracingGlobalProvider(t *testing.T) {
	// The global provider is a no-op by default; the decorator must still
	// delegate.
	mem := history.NewMemory("/")
	h := Tracing(mem)
	h.Push(history.Path{Path: "/y"}, nil)
	assert.Equal(t, "/y", mem.Location().Path)
}
