// Package navtree builds a live route tree from a config.Config.
//
// The root router runs on the backend the caller provides; every child
// router gets its own memory backend seeded from its initial entries.
// Routes, aggregates and routers are addressable by their config names.
package navtree

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/vango-dev/waypoint/internal/config"
	"github.com/vango-dev/waypoint/pkg/history"
	"github.com/vango-dev/waypoint/pkg/pathmatch"
	"github.com/vango-dev/waypoint/pkg/reactive"
	"github.com/vango-dev/waypoint/pkg/router"
)

// Kind tells what a named entry of the tree is.
type Kind string

const (
	KindRoute Kind = "route"
	KindMerge Kind = "merge"
	KindNone  Kind = "none"
)

// Entry is a named route or aggregate.
type Entry struct {
	Name   string
	Kind   Kind
	Router string

	// Route is set for KindRoute.
	Route *router.Route

	// Merged is set for KindMerge and KindNone.
	Merged *router.MergedRoute
}

// Visible returns the entry's visibility cell.
func (e *Entry) Visible() *reactive.Cell[bool] {
	if e.Route != nil {
		return e.Route.Visible()
	}
	return e.Merged.Visible()
}

// Params returns the route's current params, or nil for aggregates and
// hidden routes.
func (e *Entry) Params() pathmatch.Params {
	if e.Route == nil {
		return nil
	}
	return e.Route.Params().Current()
}

// State is a point-in-time view of an entry.
type State struct {
	Name    string           `json:"name"`
	Kind    Kind             `json:"kind"`
	Router  string           `json:"router"`
	Visible bool             `json:"visible"`
	Params  pathmatch.Params `json:"params,omitempty"`
}

// String renders the state on one line.
func (s State) String() string {
	mark := "-"
	if s.Visible {
		mark = "+"
	}
	out := fmt.Sprintf("%s %s/%s", mark, s.Router, s.Name)
	if s.Kind != KindRoute {
		out += " (" + string(s.Kind) + ")"
	}
	if len(s.Params) > 0 {
		keys := make([]string, 0, len(s.Params))
		for k := range s.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out += fmt.Sprintf(" %s=%q", k, s.Params[k])
		}
	}
	return out
}

// Options configures Build.
type Options struct {
	// Logger is handed to every router. Nil uses slog.Default().
	Logger *slog.Logger

	// Observer is handed to every router.
	Observer router.Observer

	// Wrap decorates each child router's memory backend.
	Wrap func(name string, h history.History) history.History
}

// Option is a functional option for Build.
type Option func(*Options)

// WithLogger sets the routers' logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithObserver sets the routers' observer.
func WithObserver(obs router.Observer) Option {
	return func(o *Options) { o.Observer = obs }
}

// WithChildWrapper decorates child backends, for example with
// middleware.Logging.
func WithChildWrapper(fn func(name string, h history.History) history.History) Option {
	return func(o *Options) { o.Wrap = fn }
}

// Tree is a built route tree.
type Tree struct {
	Root *router.Router

	routers     map[string]*router.Router
	routerOrder []string
	entries     map[string]*Entry
	order       []string
}

// Build creates the routers, routes, aggregates and bindings declared by
// cfg. A nil backend gives the root a memory backend seeded from
// cfg.Initial. cfg is expected to have passed Validate; errors from the
// router are returned as they are.
func Build(cfg *config.Config, backend history.History, opts ...Option) (*Tree, error) {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}

	engine, err := cfg.PatternEngine()
	if err != nil {
		return nil, err
	}
	if backend == nil {
		backend = history.NewMemory(cfg.Initial...)
	}

	rootOpts := []router.Option{
		router.WithHistory(backend),
		router.WithEngine(engine),
		router.WithLogger(o.Logger),
		router.WithMatchMode(cfg.Mode()),
	}
	if o.Observer != nil {
		rootOpts = append(rootOpts, router.WithObserver(o.Observer))
	}

	t := &Tree{
		Root:    router.New(rootOpts...),
		routers: make(map[string]*router.Router),
		entries: make(map[string]*Entry),
	}
	t.addRouter(config.RootName, t.Root)

	for _, rc := range cfg.Routers {
		var h history.History = history.NewMemory(rc.Initial...)
		if o.Wrap != nil {
			h = o.Wrap(rc.Name, h)
		}
		childOpts := []router.Option{router.WithHistory(h), router.WithMatchMode(rc.Mode())}
		if o.Observer != nil {
			childOpts = append(childOpts, router.WithObserver(o.Observer))
		}
		t.addRouter(rc.Name, t.Root.Child(childOpts...))
	}

	// Routes and aggregates before bindings: a binding syncs as soon as it
	// is made, and its child's routes must already be there to follow.
	for _, rc := range cfg.All() {
		if err := t.declare(rc); err != nil {
			t.Close()
			return nil, err
		}
	}
	for _, rc := range cfg.All() {
		for _, rtc := range rc.Routes {
			for _, b := range rtc.Bind {
				rt := t.entries[rtc.Name].Route
				_, err := rt.Bind(b.Param, router.BindConfig{
					Router: t.routers[b.Router],
					Parse:  b.Parse(),
					Format: b.Format(),
				})
				if err != nil {
					t.Close()
					return nil, fmt.Errorf("navtree: bind %s.%s to %s: %w", rtc.Name, b.Param, b.Router, err)
				}
			}
		}
	}

	o.Logger.Debug("navtree: built", "routers", len(t.routers), "entries", len(t.entries))
	return t, nil
}

func (t *Tree) addRouter(name string, r *router.Router) {
	t.routers[name] = r
	t.routerOrder = append(t.routerOrder, name)
}

func (t *Tree) declare(rc *config.RouterConfig) error {
	r := t.routers[rc.Name]
	for _, rtc := range rc.Routes {
		rt, err := r.AddConfig(router.RouteConfig{Pattern: rtc.Pattern, Match: rtc.MatchOptions()})
		if err != nil {
			return fmt.Errorf("navtree: route %s: %w", rtc.Name, err)
		}
		t.addEntry(&Entry{Name: rtc.Name, Kind: KindRoute, Router: rc.Name, Route: rt})
	}
	for _, agg := range rc.Merges {
		t.addEntry(&Entry{Name: agg.Name, Kind: KindMerge, Router: rc.Name, Merged: r.Merge(t.routes(agg.Routes)...)})
	}
	for _, agg := range rc.Nones {
		t.addEntry(&Entry{Name: agg.Name, Kind: KindNone, Router: rc.Name, Merged: r.None(t.routes(agg.Routes)...)})
	}
	return nil
}

func (t *Tree) addEntry(e *Entry) {
	t.entries[e.Name] = e
	t.order = append(t.order, e.Name)
}

func (t *Tree) routes(names []string) []*router.Route {
	out := make([]*router.Route, 0, len(names))
	for _, n := range names {
		out = append(out, t.entries[n].Route)
	}
	return out
}

// Router returns the router called name; the root is "root".
func (t *Tree) Router(name string) (*router.Router, bool) {
	r, ok := t.routers[name]
	return r, ok
}

// RouterNames returns the router names, root first.
func (t *Tree) RouterNames() []string {
	return append([]string(nil), t.routerOrder...)
}

// Entry returns the route or aggregate called name.
func (t *Tree) Entry(name string) (*Entry, bool) {
	e, ok := t.entries[name]
	return e, ok
}

// Route returns the route called name.
func (t *Tree) Route(name string) (*router.Route, bool) {
	e, ok := t.entries[name]
	if !ok || e.Route == nil {
		return nil, false
	}
	return e.Route, true
}

// Names returns entry names in declaration order.
func (t *Tree) Names() []string {
	return append([]string(nil), t.order...)
}

// Snapshot returns every entry's current state in declaration order.
func (t *Tree) Snapshot() []State {
	out := make([]State, 0, len(t.order))
	for _, name := range t.order {
		e := t.entries[name]
		out = append(out, State{
			Name:    e.Name,
			Kind:    e.Kind,
			Router:  e.Router,
			Visible: e.Visible().Current(),
			Params:  e.Params(),
		})
	}
	return out
}

// Close detaches every router from its backend.
func (t *Tree) Close() {
	for _, r := range t.routers {
		r.Close()
	}
}
