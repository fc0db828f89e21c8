package reactive

import (
	"fmt"
	"reflect"
)

// Cell is a reactive value container. Its value changes only through
// reducers declared with On or, for derived cells, through their sources.
type Cell[T any] struct {
	graph *Graph
	id    uint64
	name  string
	rank  int

	value T

	// equal decides whether a new value is a change. Nil uses defaultEquals.
	equal func(a, b T) bool

	outs []outlet[T]
}

// NewCell creates a cell holding initial.
func NewCell[T any](g *Graph, initial T) *Cell[T] {
	return &Cell[T]{
		graph: g,
		id:    nextID(),
		value: initial,
	}
}

// Current returns the value as of the last settled pass, or the value being
// built by the current pass when called from inside one.
func (c *Cell[T]) Current() T {
	return c.value
}

// Graph returns the graph the cell belongs to.
func (c *Cell[T]) Graph() *Graph {
	return c.graph
}

// ID returns the unique identifier for this cell.
func (c *Cell[T]) ID() uint64 {
	return c.id
}

// Named sets a debugging name and returns the cell.
func (c *Cell[T]) Named(name string) *Cell[T] {
	c.name = name
	return c
}

// Name returns the debugging name, if any.
func (c *Cell[T]) Name() string {
	return c.name
}

// String implements fmt.Stringer.
func (c *Cell[T]) String() string {
	if c.name != "" {
		return fmt.Sprintf("cell(%s)=%v", c.name, c.value)
	}
	return fmt.Sprintf("cell#%d=%v", c.id, c.value)
}

// WithEquals configures the equality used to detect changes and returns the
// cell. Use it where reflect.DeepEqual is too expensive or has the wrong
// semantics.
func (c *Cell[T]) WithEquals(fn func(a, b T) bool) *Cell[T] {
	c.equal = fn
	return c
}

// Subscribe registers fn to run after every pass that changes the value.
// It does not run for the current value.
func (c *Cell[T]) Subscribe(fn func(T)) Unsubscribe {
	s := &subscription[T]{cell: c, fn: fn, last: c.value}
	c.outs = append(c.outs, s)
	return s.cancel
}

// Watch calls fn with the current value and then behaves like Subscribe.
func (c *Cell[T]) Watch(fn func(T)) Unsubscribe {
	stop := c.Subscribe(fn)
	fn(c.value)
	return stop
}

// set stores v and notifies downstream outlets when it differs.
func (c *Cell[T]) set(v T) {
	if c.equals(c.value, v) {
		return
	}
	c.value = v
	outs := make([]outlet[T], len(c.outs))
	copy(outs, c.outs)
	for _, o := range outs {
		o.notify(v)
	}
}

func (c *Cell[T]) equals(a, b T) bool {
	if c.equal != nil {
		return c.equal(a, b)
	}
	return defaultEquals(a, b)
}

func (c *Cell[T]) addOutlet(o outlet[T]) {
	c.outs = append(c.outs, o)
	if d := o.downstream(); d != nil {
		d.raise(c.rank+1, map[node]bool{})
	}
}

func (c *Cell[T]) removeOutlet(o outlet[T]) {
	for i, existing := range c.outs {
		if existing == o {
			c.outs = append(c.outs[:i], c.outs[i+1:]...)
			return
		}
	}
}

func (c *Cell[T]) graphOf() *Graph { return c.graph }

func (c *Cell[T]) rankOf() int { return c.rank }

// raise lifts the cell above rank and pushes its downstream nodes along.
// Cycles stop at the first revisit.
func (c *Cell[T]) raise(rank int, seen map[node]bool) {
	if rank <= c.rank || seen[c] {
		return
	}
	seen[c] = true
	c.rank = rank
	for _, o := range c.outs {
		if d := o.downstream(); d != nil {
			d.raise(rank+1, seen)
		}
	}
}

// subscription delivers settled values to an observer.
type subscription[T any] struct {
	cell   *Cell[T]
	fn     func(T)
	last   T
	closed bool
}

func (s *subscription[T]) notify(T) {
	s.cell.graph.scheduleOnce(s, phaseEffect, 0, s.deliver)
}

func (s *subscription[T]) downstream() node { return nil }

// deliver runs the observer with the cell's settled value, skipping values it
// has already seen.
func (s *subscription[T]) deliver() {
	if s.closed {
		return
	}
	v := s.cell.value
	if s.cell.equals(s.last, v) {
		return
	}
	s.last = v
	s.fn(v)
}

func (s *subscription[T]) cancel() {
	if s.closed {
		return
	}
	s.closed = true
	s.cell.removeOutlet(s)
}

// Trigger is anything a reducer can react to: an *Event or a *Cell.
type Trigger[T any] interface {
	graphOf() *Graph
	rankOf() int
	addOutlet(o outlet[T])
}

// On wires c to recompute through reducer whenever trigger fires or
// changes. It returns c so declarations can be chained.
//
//	location := reactive.On(reactive.NewCell(g, initial), updated,
//	    func(_ Location, u Update) Location { return u.Location })
func On[T, U any](c *Cell[T], trigger Trigger[U], reducer func(T, U) T) *Cell[T] {
	mustShare(c.graph, trigger.graphOf())
	trigger.addOutlet(&reaction[T, U]{target: c, reduce: reducer})
	return c
}

// reaction applies a reducer to a target cell with the trigger's payload.
type reaction[T, U any] struct {
	target *Cell[T]
	reduce func(T, U) T
}

func (r *reaction[T, U]) notify(v U) {
	t := r.target
	t.graph.schedule(phasePure, t.rank, func() {
		t.set(r.reduce(t.value, v))
	})
}

func (r *reaction[T, U]) downstream() node { return r.target }

// defaultEquals provides type-appropriate equality checking.
// Uses == for common comparable types and reflect.DeepEqual for others.
// T may be an interface type, so the two dynamic types can differ.
func defaultEquals[T any](a, b T) bool {
	switch av := any(a).(type) {
	case string:
		bv, ok := any(b).(string)
		return ok && av == bv
	case bool:
		bv, ok := any(b).(bool)
		return ok && av == bv
	case int:
		bv, ok := any(b).(int)
		return ok && av == bv
	case int64:
		bv, ok := any(b).(int64)
		return ok && av == bv
	case uint64:
		bv, ok := any(b).(uint64)
		return ok && av == bv
	case float64:
		bv, ok := any(b).(float64)
		return ok && av == bv
	default:
		return reflect.DeepEqual(a, b)
	}
}
