package reactive

// Event is a channel of discrete occurrences. Unlike a Cell it has no
// current value: every Fire is delivered, even when the payload repeats.
type Event[T any] struct {
	graph *Graph
	id    uint64
	name  string

	outs []outlet[T]
}

// NewEvent creates an event on g.
func NewEvent[T any](g *Graph) *Event[T] {
	return &Event[T]{graph: g, id: nextID()}
}

// Named sets a debugging name and returns the event.
func (e *Event[T]) Named(name string) *Event[T] {
	e.name = name
	return e
}

// Name returns the debugging name, if any.
func (e *Event[T]) Name() string {
	return e.name
}

// ID returns the unique identifier for this event.
func (e *Event[T]) ID() uint64 {
	return e.id
}

// Graph returns the graph the event belongs to.
func (e *Event[T]) Graph() *Graph {
	return e.graph
}

// Fire delivers v to every reducer and watcher. Called outside a pass it
// drains the resulting pass before returning; called from inside a pass the
// work joins that pass.
func (e *Event[T]) Fire(v T) {
	outs := make([]outlet[T], len(e.outs))
	copy(outs, e.outs)
	for _, o := range outs {
		o.notify(v)
	}
	e.graph.flush()
}

// Watch registers a side-effecting observer. Watchers run in registration
// order, after the pure work caused by the same fire has settled.
func (e *Event[T]) Watch(fn func(T)) Unsubscribe {
	w := &watcher[T]{event: e, fn: fn}
	e.outs = append(e.outs, w)
	return w.cancel
}

func (e *Event[T]) graphOf() *Graph { return e.graph }

func (e *Event[T]) rankOf() int { return 0 }

func (e *Event[T]) addOutlet(o outlet[T]) {
	e.outs = append(e.outs, o)
	if d := o.downstream(); d != nil {
		d.raise(1, map[node]bool{})
	}
}

func (e *Event[T]) removeOutlet(o outlet[T]) {
	for i, existing := range e.outs {
		if existing == o {
			e.outs = append(e.outs[:i], e.outs[i+1:]...)
			return
		}
	}
}

type watcher[T any] struct {
	event  *Event[T]
	fn     func(T)
	closed bool
}

func (w *watcher[T]) notify(v T) {
	w.event.graph.schedule(phaseEffect, 0, func() {
		if !w.closed {
			w.fn(v)
		}
	})
}

func (w *watcher[T]) downstream() node { return nil }

func (w *watcher[T]) cancel() {
	if w.closed {
		return
	}
	w.closed = true
	w.event.removeOutlet(w)
}
