package reactive

// derivation recomputes a derived cell from its sources. It is scheduled at
// most once per pass, at the rank of the cell it feeds, so it always reads
// settled sources. Derivations feeding the same cell from several sources
// share a key.
type derivation[T any] struct {
	key       any
	out       node
	graph     *Graph
	recompute func()
}

func (d *derivation[T]) notify(T) {
	key := d.key
	if key == nil {
		key = d
	}
	d.graph.scheduleOnce(key, phasePure, d.out.rankOf(), d.recompute)
}

func (d *derivation[T]) downstream() node { return d.out }

// Map derives a cell by applying fn to every new value of src.
func Map[T, U any](src *Cell[T], fn func(T) U) *Cell[U] {
	out := NewCell(src.graph, fn(src.value))
	src.addOutlet(&derivation[T]{
		out:       out,
		graph:     src.graph,
		recompute: func() { out.set(fn(src.value)) },
	})
	return out
}

// Not derives the logical negation of src.
func Not(src *Cell[bool]) *Cell[bool] {
	return Map(src, func(v bool) bool { return !v })
}

// Pair is the value of a Combine2 cell.
type Pair[A, B any] struct {
	First  A
	Second B
}

// Triple is the value of a Combine3 cell.
type Triple[A, B, C any] struct {
	First  A
	Second B
	Third  C
}

// Combine2 derives a cell holding the current values of a and b.
func Combine2[A, B any](a *Cell[A], b *Cell[B]) *Cell[Pair[A, B]] {
	mustShare(a.graph, b.graph)
	read := func() Pair[A, B] { return Pair[A, B]{a.value, b.value} }
	out := NewCell(a.graph, read())
	recompute := func() { out.set(read()) }
	a.addOutlet(&derivation[A]{key: out, out: out, graph: a.graph, recompute: recompute})
	b.addOutlet(&derivation[B]{key: out, out: out, graph: a.graph, recompute: recompute})
	return out
}

// Combine3 derives a cell holding the current values of a, b and c.
func Combine3[A, B, C any](a *Cell[A], b *Cell[B], c *Cell[C]) *Cell[Triple[A, B, C]] {
	mustShare(a.graph, b.graph)
	mustShare(a.graph, c.graph)
	read := func() Triple[A, B, C] { return Triple[A, B, C]{a.value, b.value, c.value} }
	out := NewCell(a.graph, read())
	recompute := func() { out.set(read()) }
	a.addOutlet(&derivation[A]{key: out, out: out, graph: a.graph, recompute: recompute})
	b.addOutlet(&derivation[B]{key: out, out: out, graph: a.graph, recompute: recompute})
	c.addOutlet(&derivation[C]{key: out, out: out, graph: a.graph, recompute: recompute})
	return out
}

// Combine derives a cell holding the current values of all cells, in order.
func Combine[T any](g *Graph, cells ...*Cell[T]) *Cell[[]T] {
	return NewGroup(g, func(values []T) []T {
		out := make([]T, len(values))
		copy(out, values)
		return out
	}, cells...).Cell()
}

// Group folds the values of a member set into one cell. Members can be added
// after creation; the fold is recomputed whenever a member changes or joins.
type Group[T, R any] struct {
	graph   *Graph
	members []*Cell[T]
	fold    func([]T) R
	out     *Cell[R]
	d       *derivation[T]
}

// NewGroup creates a group over members folded by fold.
func NewGroup[T, R any](g *Graph, fold func([]T) R, members ...*Cell[T]) *Group[T, R] {
	gr := &Group[T, R]{graph: g, fold: fold}
	gr.out = NewCell(g, fold(nil))
	gr.d = &derivation[T]{out: gr.out, graph: g, recompute: gr.recompute}
	for _, m := range members {
		mustShare(g, m.graph)
		gr.members = append(gr.members, m)
		m.addOutlet(gr.d)
	}
	gr.out.value = fold(gr.values())
	return gr
}

// Add joins c to the group. Outside a pass the fold is recomputed before Add
// returns.
func (gr *Group[T, R]) Add(c *Cell[T]) {
	mustShare(gr.graph, c.graph)
	gr.members = append(gr.members, c)
	c.addOutlet(gr.d)
	gr.graph.scheduleOnce(gr.d, phasePure, gr.out.rank, gr.recompute)
	gr.graph.flush()
}

// Cell returns the folded cell.
func (gr *Group[T, R]) Cell() *Cell[R] {
	return gr.out
}

// Len returns the number of members.
func (gr *Group[T, R]) Len() int {
	return len(gr.members)
}

func (gr *Group[T, R]) values() []T {
	values := make([]T, len(gr.members))
	for i, m := range gr.members {
		values[i] = m.value
	}
	return values
}

func (gr *Group[T, R]) recompute() {
	gr.out.set(gr.fold(gr.values()))
}

// AnyOf creates a boolean group that is true while any member is true.
func AnyOf(g *Graph, members ...*Cell[bool]) *Group[bool, bool] {
	return NewGroup(g, some, members...)
}

// NoneOf creates a boolean group that is true while no member is true.
func NoneOf(g *Graph, members ...*Cell[bool]) *Group[bool, bool] {
	return NewGroup(g, func(values []bool) bool { return !some(values) }, members...)
}

func some(values []bool) bool {
	for _, v := range values {
		if v {
			return true
		}
	}
	return false
}
