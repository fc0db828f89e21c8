package middleware

import (
	"context"

	"github.com/vango-dev/waypoint/pkg/history"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name for waypoint backends.
const defaultTracerName = "waypoint"

// TracingConfig configures the OpenTelemetry decorator.
type TracingConfig struct {
	// TracerName is the name of the tracer (default: "waypoint").
	TracerName string

	// Provider supplies the tracer. Default: the global provider.
	Provider trace.TracerProvider

	// IncludeState records the location state's Go type as an attribute.
	// The value itself is never recorded.
	IncludeState bool

	// AttributeExtractor adds custom attributes for a target path.
	AttributeExtractor func(to history.Path) []attribute.KeyValue
}

// TracingOption configures the OpenTelemetry decorator.
type TracingOption func(*TracingConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracingOption {
	return func(c *TracingConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) TracingOption {
	return func(c *TracingConfig) {
		c.Provider = tp
	}
}

// WithIncludeState enables the state type attribute.
func WithIncludeState(include bool) TracingOption {
	return func(c *TracingConfig) {
		c.IncludeState = include
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(to history.Path) []attribute.KeyValue) TracingOption {
	return func(c *TracingConfig) {
		c.AttributeExtractor = extractor
	}
}

// Tracing wraps h so that every Push, Replace and Go runs inside a span
// (history.push, history.replace, history.go), and every update the backend
// delivers runs inside a history.update span. Because routers settle
// synchronously, the update span covers the whole propagation pass it
// triggers.
//
// Spans carry the location before and after the call:
//
//	waypoint.from    "/users/42"
//	waypoint.to      "/users/7?tab=info"
//	waypoint.action  "PUSH"
//
// The tracer comes from the global OpenTelemetry provider unless
// WithTracerProvider is given.
func Tracing(h history.History, opts ...TracingOption) history.History {
	config := TracingConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	provider := config.Provider
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	return &traced{
		History: h,
		config:  config,
		tracer:  provider.Tracer(config.TracerName),
	}
}

type traced struct {
	history.History
	config TracingConfig
	tracer trace.Tracer
}

func (h *traced) Unwrap() history.History { return h.History }

func (h *traced) Push(to history.Path, state any) {
	span := h.start("history.push", to, state)
	defer span.End()
	h.History.Push(to, state)
	h.finish(span)
}

func (h *traced) Replace(to history.Path, state any) {
	span := h.start("history.replace", to, state)
	defer span.End()
	h.History.Replace(to, state)
	h.finish(span)
}

func (h *traced) Go(delta int) {
	_, span := h.tracer.Start(context.Background(), "history.go",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("waypoint.from", h.History.Location().URL()),
			attribute.Int("waypoint.delta", delta),
		),
	)
	defer span.End()
	h.History.Go(delta)
	h.finish(span)
}

func (h *traced) Listen(fn history.Listener) func() {
	return h.History.Listen(func(u history.Update) {
		_, span := h.tracer.Start(context.Background(), "history.update",
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(
				attribute.String("waypoint.action", string(u.Action)),
				attribute.String("waypoint.location", u.Location.URL()),
				attribute.String("waypoint.key", u.Location.Key),
			),
		)
		defer span.End()
		fn(u)
	})
}

func (h *traced) start(name string, to history.Path, state any) trace.Span {
	attrs := []attribute.KeyValue{
		attribute.String("waypoint.from", h.History.Location().URL()),
		attribute.String("waypoint.target", history.CreatePath(to)),
	}
	if h.config.IncludeState && state != nil {
		attrs = append(attrs, attribute.String("waypoint.state_type", typeName(state)))
	}
	if h.config.AttributeExtractor != nil {
		attrs = append(attrs, h.config.AttributeExtractor(to)...)
	}
	_, span := h.tracer.Start(context.Background(), name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
	return span
}

func (h *traced) finish(span trace.Span) {
	span.SetAttributes(
		attribute.String("waypoint.to", h.History.Location().URL()),
		attribute.String("waypoint.action", string(h.History.Action())),
	)
	span.SetStatus(codes.Ok, "")
}
