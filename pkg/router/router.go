package router

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/vango-dev/waypoint/pkg/history"
	"github.com/vango-dev/waypoint/pkg/pathmatch"
	"github.com/vango-dev/waypoint/pkg/reactive"
)

// QueryParams is the parsed search string of a location. When a key repeats,
// the last value wins.
type QueryParams map[string]string

// ParseQuery parses a search string, with or without its "?". Malformed
// pairs are skipped.
func ParseQuery(search string) QueryParams {
	values, _ := url.ParseQuery(strings.TrimPrefix(search, "?"))
	out := make(QueryParams, len(values))
	for k, vs := range values {
		out[k] = vs[len(vs)-1]
	}
	return out
}

// Router owns one location store over a history backend, the routes
// declared against it, and the match aggregates over those routes.
//
// A Router and everything bound to it belong to one goroutine.
type Router struct {
	graph    *reactive.Graph
	logger   *slog.Logger
	engine   pathmatch.Engine
	observer Observer
	mode     MatchMode

	history  history.History
	unlisten func()

	updated *reactive.Event[history.Update]
	update  *reactive.Cell[history.Update]

	location *reactive.Cell[history.Location]
	action   *reactive.Cell[history.Action]
	path     *reactive.Cell[string]
	search   *reactive.Cell[string]
	query    *reactive.Cell[QueryParams]
	hash     *reactive.Cell[string]
	state    *reactive.Cell[any]
	key      *reactive.Cell[string]
	href     *reactive.Cell[string]

	live       *reactive.Group[bool, bool]
	hasMatches *reactive.Cell[bool]
	noMatches  *reactive.Cell[bool]

	routes []*Route
}

// New creates a router.
//
//	r := router.New(router.WithInitialEntry("/users/42"))
//	user := r.MustAdd("/users/:id")
//	user.Params().Current() // {"id": "42"}
func New(opts ...Option) *Router {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return NewWithOptions(o)
}

// NewWithOptions creates a router from an Options value.
func NewWithOptions(o Options) *Router {
	o.applyDefaults()
	g := o.Graph
	h := o.History

	r := &Router{
		graph:    g,
		logger:   o.Logger,
		engine:   o.Engine,
		observer: o.Observer,
		mode:     o.MatchMode,
		history:  h,
	}

	r.updated = reactive.NewEvent[history.Update](g).Named("historyUpdated")
	r.update = reactive.On(
		reactive.NewCell(g, history.Update{Action: h.Action(), Location: h.Location()}).Named("historyUpdate"),
		r.updated,
		func(_ history.Update, u history.Update) history.Update { return u },
	)

	r.location = reactive.Map(r.update, func(u history.Update) history.Location { return u.Location }).Named("location")
	r.action = reactive.Map(r.update, func(u history.Update) history.Action { return u.Action }).Named("action")
	r.path = reactive.Map(r.location, func(l history.Location) string { return l.Path }).Named("path")
	r.search = reactive.Map(r.location, func(l history.Location) string { return l.Search }).Named("search")
	r.hash = reactive.Map(r.location, func(l history.Location) string { return l.Hash }).Named("hash")
	r.state = reactive.Map(r.location, func(l history.Location) any { return l.State }).Named("state")
	r.key = reactive.Map(r.location, func(l history.Location) string { return l.Key }).Named("key")
	r.query = reactive.Map(r.search, ParseQuery).Named("query")
	r.href = reactive.Map(r.location, func(l history.Location) string {
		return r.history.CreateHref(history.Path{Path: l.Path, Search: l.Search, Hash: l.Hash})
	}).Named("href")

	r.live = reactive.AnyOf(g)
	switch r.mode {
	case MatchLive:
		r.hasMatches = r.live.Cell()
	default:
		r.hasMatches = reactive.On(reactive.NewCell(g, false), r.live.Cell(), func(matched, visible bool) bool {
			return matched || visible
		})
	}
	r.hasMatches.Named("hasMatches")
	r.noMatches = reactive.Not(r.hasMatches).Named("noMatches")

	r.unlisten = h.Listen(r.onHistory)
	return r
}

// Child creates a router on the same graph, logger and engine, for use as
// the target of Route.Bind. opts are applied after the inherited ones.
func (r *Router) Child(opts ...Option) *Router {
	inherited := []Option{
		WithGraph(r.graph),
		WithLogger(r.logger),
		WithEngine(r.engine),
	}
	return New(append(inherited, opts...)...)
}

func (r *Router) onHistory(u history.Update) {
	r.updated.Fire(u)
}

// Use hot-swaps the backend. The old backend's listener is removed, the new
// backend's current location becomes the router's location, and exactly one
// listener stays registered on the new backend.
func (r *Router) Use(h history.History) {
	if r.unlisten != nil {
		r.unlisten()
	}
	r.history = h
	r.unlisten = h.Listen(r.onHistory)
	r.logger.Debug("router: history backend swapped", "location", h.Location().URL())
	r.updated.Fire(history.Update{Action: h.Action(), Location: h.Location()})
}

// Close removes the router's backend listener. The router keeps its last
// location and can be revived with Use.
func (r *Router) Close() {
	if r.unlisten != nil {
		r.unlisten()
		r.unlisten = nil
	}
}

// OnUpdate registers fn for every history update the router receives,
// including those that do not change the location's fields.
func (r *Router) OnUpdate(fn func(history.Update)) reactive.Unsubscribe {
	return r.updated.Watch(fn)
}

// Graph returns the router's propagation graph.
func (r *Router) Graph() *reactive.Graph { return r.graph }

// History returns the current backend.
func (r *Router) History() history.History { return r.history }

// Engine returns the pattern engine.
func (r *Router) Engine() pathmatch.Engine { return r.engine }

// Logger returns the router's logger.
func (r *Router) Logger() *slog.Logger { return r.logger }

// MatchMode returns the HasMatches semantics.
func (r *Router) MatchMode() MatchMode { return r.mode }

// Update returns the cell holding the last history update.
func (r *Router) Update() *reactive.Cell[history.Update] { return r.update }

// Location returns the current location cell.
func (r *Router) Location() *reactive.Cell[history.Location] { return r.location }

// Action returns the cell holding how the current location was reached.
func (r *Router) Action() *reactive.Cell[history.Action] { return r.action }

// Path returns the current path cell.
func (r *Router) Path() *reactive.Cell[string] { return r.path }

// Search returns the current search cell, including its "?".
func (r *Router) Search() *reactive.Cell[string] { return r.search }

// Query returns the parsed search cell.
func (r *Router) Query() *reactive.Cell[QueryParams] { return r.query }

// Hash returns the current hash cell, including its "#".
func (r *Router) Hash() *reactive.Cell[string] { return r.hash }

// State returns the current location state cell.
func (r *Router) State() *reactive.Cell[any] { return r.state }

// Key returns the current location key cell.
func (r *Router) Key() *reactive.Cell[string] { return r.key }

// Href returns the cell holding the backend's href for the current location.
func (r *Router) Href() *reactive.Cell[string] { return r.href }

// HasMatches returns the match aggregate over registered routes.
func (r *Router) HasMatches() *reactive.Cell[bool] { return r.hasMatches }

// NoMatches returns the negation of HasMatches.
func (r *Router) NoMatches() *reactive.Cell[bool] { return r.noMatches }

// Routes returns the registered routes in registration order.
func (r *Router) Routes() []*Route {
	out := make([]*Route, len(r.routes))
	copy(out, r.routes)
	return out
}

// register feeds visible into the match aggregate. Registrations are never
// removed.
func (r *Router) register(visible *reactive.Cell[bool]) {
	r.live.Add(visible)
}
