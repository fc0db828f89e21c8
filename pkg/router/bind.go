package router

import (
	"strings"

	"github.com/vango-dev/waypoint/pkg/pathmatch"
	"github.com/vango-dev/waypoint/pkg/reactive"
)

// BindConfig links a route param to a child router's path.
type BindConfig struct {
	// Router is the child router. It must share the route's graph.
	Router *Router

	// Parse converts the raw param into the child path. Nil prefixes a "/"
	// to a non-empty param.
	Parse func(raw string) string

	// Format converts the child path into the raw param. Nil strips one
	// leading "/".
	Format func(path string) string
}

// DefaultParse is the Parse used when BindConfig.Parse is nil.
func DefaultParse(raw string) string {
	if raw == "" {
		return ""
	}
	return "/" + raw
}

// DefaultFormat is the Format used when BindConfig.Format is nil.
func DefaultFormat(path string) string {
	return strings.TrimPrefix(path, "/")
}

type binding struct {
	param  string
	child  *Router
	parse  func(string) string
	format func(string) string
	stops  []reactive.Unsubscribe
}

// Bind keeps param in sync with child's path, in both directions:
//
//   - while the route is visible and the parsed param differs from the
//     child's path, a non-empty param navigates the child there; an empty
//     param redirects the route to the formatted child path.
//   - when the child's path changes and its formatted value differs from the
//     param, the route navigates with that param replaced and all others
//     kept from its last match.
//
// The loop closes because navigating to the current location is a no-op.
// Bind returns an *AlreadyBoundError when param is already bound; nothing
// is wired when any error is returned.
func (rt *Route) Bind(param string, cfg BindConfig) (*Route, error) {
	if _, ok := rt.bindings[param]; ok {
		return rt, &AlreadyBoundError{Param: param, Pattern: rt.config.Pattern}
	}
	child := cfg.Router
	switch {
	case child == nil:
		return rt, ErrNilRouter
	case child == rt.router:
		return rt, ErrSelfBind
	case child.graph != rt.router.graph:
		return rt, ErrGraphMismatch
	}

	b := &binding{
		param:  param,
		child:  child,
		parse:  cfg.Parse,
		format: cfg.Format,
	}
	if b.parse == nil {
		b.parse = DefaultParse
	}
	if b.format == nil {
		b.format = DefaultFormat
	}
	rt.bindings[param] = b

	// Child to parent is registered first so that, within a pass, the
	// parent has already followed the child when the reverse check runs.
	b.stops = append(b.stops, child.path.Subscribe(func(childPath string) {
		rt.followChild(b, childPath)
	}))

	sync := reactive.Combine3(rt.visible, rt.params, child.path)
	b.stops = append(b.stops, sync.Subscribe(func(s reactive.Triple[bool, pathmatch.Params, string]) {
		rt.driveChild(b, s.First, s.Second, s.Third)
	}))

	rt.router.logger.Debug("router: param bound", "pattern", rt.config.Pattern, "param", param)
	rt.driveChild(b, rt.visible.Current(), rt.params.Current(), child.path.Current())
	return rt, nil
}

// MustBind is Bind that panics on error, for chained declarations.
func (rt *Route) MustBind(param string, cfg BindConfig) *Route {
	if _, err := rt.Bind(param, cfg); err != nil {
		panic(err)
	}
	return rt
}

// Unbind removes the binding for param. It reports whether one existed.
func (rt *Route) Unbind(param string) bool {
	b, ok := rt.bindings[param]
	if !ok {
		return false
	}
	for _, stop := range b.stops {
		stop()
	}
	delete(rt.bindings, param)
	return true
}

// driveChild carries the param down to the child.
func (rt *Route) driveChild(b *binding, visible bool, params pathmatch.Params, childPath string) {
	if !visible {
		return
	}
	want := b.parse(params[b.param])
	if want == childPath {
		return
	}
	if want != "" {
		if err := b.child.Navigate(To(want)); err != nil {
			rt.warn("child navigation failed", b, err)
		}
		return
	}

	next := params.Clone()
	next[b.param] = b.format(childPath)
	path, err := rt.compileRaw(next)
	if err != nil {
		rt.warn("parent redirect failed", b, err)
		return
	}
	if err := rt.router.Redirect(To(path)); err != nil {
		rt.warn("parent redirect failed", b, err)
	}
}

// followChild carries the child's path up to the param.
func (rt *Route) followChild(b *binding, childPath string) {
	raw := b.format(childPath)
	if rt.params.Current()[b.param] == raw {
		return
	}

	next := rt.last.Clone()
	if next == nil {
		next = pathmatch.Params{}
	}
	next[b.param] = raw
	path, err := rt.compileRaw(next)
	if err != nil {
		rt.warn("parent navigation failed", b, err)
		return
	}
	if err := rt.router.Navigate(To(path)); err != nil {
		rt.warn("parent navigation failed", b, err)
	}
}

func (rt *Route) warn(msg string, b *binding, err error) {
	rt.router.logger.Warn("router: binding: "+msg,
		"pattern", rt.config.Pattern,
		"param", b.param,
		"child_path", b.child.path.Current(),
		"error", err,
	)
}
