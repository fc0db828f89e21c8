package router

import (
	"fmt"
	"sort"

	"github.com/vango-dev/waypoint/pkg/pathmatch"
	"github.com/vango-dev/waypoint/pkg/reactive"
)

// RouteConfig declares a route. It is copied by AddConfig.
type RouteConfig struct {
	Pattern string
	Match   pathmatch.Options
}

// Route is a pattern declared on a Router. Its params cell holds the values
// extracted from the router's path, or nil when the path does not match;
// visible is params != nil. Both settle in the same pass.
type Route struct {
	router  *Router
	config  RouteConfig
	match   pathmatch.MatchFunc
	compile pathmatch.CompileFunc

	params  *reactive.Cell[pathmatch.Params]
	visible *reactive.Cell[bool]

	// last is the most recent non-nil params value.
	last pathmatch.Params

	bindings map[string]*binding
}

// Add declares a route for pattern with default match options.
func (r *Router) Add(pattern string) (*Route, error) {
	return r.AddConfig(RouteConfig{Pattern: pattern})
}

// MustAdd is Add that panics on an invalid pattern.
func (r *Router) MustAdd(pattern string) *Route {
	rt, err := r.Add(pattern)
	if err != nil {
		panic(err)
	}
	return rt
}

// AddConfig declares a route. The route is registered in HasMatches for the
// router's lifetime.
func (r *Router) AddConfig(cfg RouteConfig) (*Route, error) {
	match, err := r.engine.Match(cfg.Pattern, cfg.Match)
	if err != nil {
		return nil, fmt.Errorf("router: add %q: %w", cfg.Pattern, err)
	}
	compile, err := r.engine.Compile(cfg.Pattern, pathmatch.CompileOptions{})
	if err != nil {
		return nil, fmt.Errorf("router: add %q: %w", cfg.Pattern, err)
	}

	rt := &Route{
		router:   r,
		config:   cfg,
		match:    match,
		compile:  compile,
		bindings: make(map[string]*binding),
	}
	rt.params = reactive.Map(r.path, rt.matchPath).Named("params " + cfg.Pattern)
	rt.visible = reactive.Map(rt.params, func(p pathmatch.Params) bool { return p != nil }).
		Named("visible " + cfg.Pattern)

	r.routes = append(r.routes, rt)
	r.register(rt.visible)
	r.logger.Debug("router: route added", "pattern", cfg.Pattern, "visible", rt.visible.Current())
	return rt, nil
}

func (rt *Route) matchPath(path string) pathmatch.Params {
	p, ok := rt.match(path)
	if !ok {
		return nil
	}
	rt.last = p
	return p
}

// Router returns the owning router.
func (rt *Route) Router() *Router { return rt.router }

// Config returns the route's configuration.
func (rt *Route) Config() RouteConfig { return rt.config }

// Pattern returns the route's pattern.
func (rt *Route) Pattern() string { return rt.config.Pattern }

// Params returns the cell holding the matched params, nil when the route
// does not match.
func (rt *Route) Params() *reactive.Cell[pathmatch.Params] { return rt.params }

// Visible returns the cell reporting whether the route matches.
func (rt *Route) Visible() *reactive.Cell[bool] { return rt.visible }

// LastParams returns the params of the most recent match, or nil if the route
// has never matched.
func (rt *Route) LastParams() pathmatch.Params { return rt.last.Clone() }

// Match runs the route's matcher against path without touching any cell.
func (rt *Route) Match(path string) (pathmatch.Params, bool) {
	return rt.match(path)
}

// Bindings returns the bound param names, sorted.
func (rt *Route) Bindings() []string {
	names := make([]string, 0, len(rt.bindings))
	for name := range rt.bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Navigate compiles params into the route's path and navigates there.
// Bound params are formatted first.
func (rt *Route) Navigate(params pathmatch.Params) error {
	path, err := rt.Compile(CompileConfig{Params: params})
	if err != nil {
		return err
	}
	return rt.router.Navigate(To(path))
}

// Redirect is Navigate with Replace instead of Push.
func (rt *Route) Redirect(params pathmatch.Params) error {
	path, err := rt.Compile(CompileConfig{Params: params})
	if err != nil {
		return err
	}
	return rt.router.Redirect(To(path))
}

// String implements fmt.Stringer.
func (rt *Route) String() string {
	return fmt.Sprintf("route(%s) visible=%t", rt.config.Pattern, rt.visible.Current())
}
