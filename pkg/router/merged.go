package router

import (
	"github.com/vango-dev/waypoint/pkg/reactive"
)

// MergedRoute is a visibility aggregate over several routes.
type MergedRoute struct {
	visible *reactive.Cell[bool]
	routes  []*Route
	configs []RouteConfig
}

// Visible returns the aggregate visibility cell.
func (m *MergedRoute) Visible() *reactive.Cell[bool] { return m.visible }

// Routes returns the constituent routes in order.
func (m *MergedRoute) Routes() []*Route {
	out := make([]*Route, len(m.routes))
	copy(out, m.routes)
	return out
}

// Configs returns the constituents' configurations in order.
func (m *MergedRoute) Configs() []RouteConfig {
	out := make([]RouteConfig, len(m.configs))
	copy(out, m.configs)
	return out
}

func newMerged(visible *reactive.Cell[bool], routes []*Route) *MergedRoute {
	m := &MergedRoute{visible: visible, routes: append([]*Route(nil), routes...)}
	for _, rt := range routes {
		m.configs = append(m.configs, rt.config)
	}
	return m
}

func visibles(routes []*Route) []*reactive.Cell[bool] {
	cells := make([]*reactive.Cell[bool], len(routes))
	for i, rt := range routes {
		cells[i] = rt.visible
	}
	return cells
}

// Merge creates an aggregate that is visible while any of routes is. It is
// registered in HasMatches. Routes must share the router's graph.
func (r *Router) Merge(routes ...*Route) *MergedRoute {
	m := newMerged(reactive.AnyOf(r.graph, visibles(routes)...).Cell(), routes)
	r.register(m.visible)
	return m
}

// None creates an aggregate that is visible while none of routes is. It is
// not registered in HasMatches, so a "none of these" condition never counts
// as a match.
func (r *Router) None(routes ...*Route) *MergedRoute {
	return newMerged(reactive.NoneOf(r.graph, visibles(routes)...).Cell(), routes)
}

// NotFound returns an aggregate over every route registered so far whose
// visibility is NoMatches.
func (r *Router) NotFound() *MergedRoute {
	return newMerged(r.noMatches, r.routes)
}
