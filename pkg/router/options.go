package router

import (
	"log/slog"

	"github.com/vango-dev/waypoint/pkg/history"
	"github.com/vango-dev/waypoint/pkg/pathmatch"
	"github.com/vango-dev/waypoint/pkg/reactive"
)

// MatchMode selects how HasMatches aggregates route visibility.
type MatchMode int

const (
	// MatchAccumulate makes HasMatches start false and latch true once any
	// registered route has been visible. It is never reset by navigation.
	MatchAccumulate MatchMode = iota

	// MatchLive makes HasMatches the live OR over every registered route,
	// so it reflects whether the current location matches anything.
	MatchLive
)

// String implements fmt.Stringer.
func (m MatchMode) String() string {
	switch m {
	case MatchAccumulate:
		return "accumulate"
	case MatchLive:
		return "live"
	}
	return "unknown"
}

// ParseMatchMode parses "accumulate" or "live". The empty string is
// MatchAccumulate.
func ParseMatchMode(s string) (MatchMode, bool) {
	switch s {
	case "", "accumulate":
		return MatchAccumulate, true
	case "live":
		return MatchLive, true
	}
	return MatchAccumulate, false
}

// Options configures a Router.
type Options struct {
	// History is the backend. Nil creates a history.Memory holding
	// InitialEntries.
	History history.History

	// InitialEntries seed the default in-memory backend.
	InitialEntries []string

	// Engine compiles route patterns. Nil uses pathmatch.Default.
	Engine pathmatch.Engine

	// Logger receives navigation decisions at debug level and errors from
	// bindings at warn level. Nil uses slog.Default().
	Logger *slog.Logger

	// Graph is the propagation domain. Nil creates a new graph. Routers
	// that are bound together must share one.
	Graph *reactive.Graph

	// MatchMode selects the HasMatches semantics.
	MatchMode MatchMode

	// Observer is told about navigation decisions.
	Observer Observer
}

// Option is a functional option for New.
type Option func(*Options)

// WithHistory sets the backend.
func WithHistory(h history.History) Option {
	return func(o *Options) {
		o.History = h
	}
}

// WithInitialEntry sets the entries of the default in-memory backend.
func WithInitialEntry(entries ...string) Option {
	return func(o *Options) {
		o.InitialEntries = entries
	}
}

// WithEngine sets the pattern engine.
func WithEngine(e pathmatch.Engine) Option {
	return func(o *Options) {
		o.Engine = e
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithGraph sets the propagation graph.
func WithGraph(g *reactive.Graph) Option {
	return func(o *Options) {
		o.Graph = g
	}
}

// WithMatchMode sets how HasMatches aggregates.
func WithMatchMode(m MatchMode) Option {
	return func(o *Options) {
		o.MatchMode = m
	}
}

// WithObserver sets the navigation observer.
func WithObserver(obs Observer) Option {
	return func(o *Options) {
		o.Observer = obs
	}
}

func (o *Options) applyDefaults() {
	if o.History == nil {
		o.History = history.NewMemory(o.InitialEntries...)
	}
	if o.Engine == nil {
		o.Engine = pathmatch.Default
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Graph == nil {
		o.Graph = reactive.NewGraph()
	}
	if o.Observer == nil {
		o.Observer = nopObserver{}
	}
}
