package reactive

import (
	"container/heap"
	"errors"
	"fmt"
	"sync/atomic"
)

// DefaultMaxTasks is the per-pass work limit used when Graph.MaxTasks is zero.
const DefaultMaxTasks = 1 << 20

// ErrRunaway is the panic value (wrapped) raised when a pass does not settle
// within the graph's task limit. It almost always means two reactions keep
// undoing each other.
var ErrRunaway = errors.New("reactive: propagation did not settle")

// ErrGraphMismatch is the panic value raised when nodes from different graphs
// are connected.
var ErrGraphMismatch = errors.New("reactive: nodes belong to different graphs")

// globalIDCounter is the source of unique IDs for all reactive nodes.
var globalIDCounter uint64

// nextID returns the next unique node ID.
func nextID() uint64 {
	return atomic.AddUint64(&globalIDCounter, 1)
}

// phase orders tasks inside a pass: all pure work settles before effects run.
type phase uint8

const (
	phasePure phase = iota
	phaseEffect
)

// task is one queued unit of work.
type task struct {
	phase phase
	rank  int
	seq   uint64
	key   any // dedupe key; nil means never deduplicated
	run   func()
}

// taskQueue is a min-heap ordered by (phase, rank, seq). Effects ignore rank
// so that they run in the order they were scheduled.
type taskQueue []*task

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	a, b := q[i], q[j]
	if a.phase != b.phase {
		return a.phase < b.phase
	}
	if a.phase == phasePure && a.rank != b.rank {
		return a.rank < b.rank
	}
	return a.seq < b.seq
}

func (q taskQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *taskQueue) Push(x any) { *q = append(*q, x.(*task)) }

func (q *taskQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return t
}

// Graph is a propagation domain. Cells and events created on the same Graph
// can be connected; each change runs as one pass over the graph's queue.
//
// The zero value is not usable; create graphs with NewGraph.
type Graph struct {
	id uint64

	// MaxTasks bounds the number of tasks one pass may run. Zero means
	// DefaultMaxTasks.
	MaxTasks int

	queue    taskQueue
	pending  map[any]struct{}
	seq      uint64
	draining bool
	holds    int

	passes atomic.Uint64
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		id:      nextID(),
		pending: make(map[any]struct{}),
	}
}

// ID returns the unique identifier of the graph.
func (g *Graph) ID() uint64 {
	return g.id
}

// Passes returns how many passes have drained on this graph.
func (g *Graph) Passes() uint64 {
	return g.passes.Load()
}

// Draining reports whether a pass is currently running.
func (g *Graph) Draining() bool {
	return g.draining
}

// Batch runs fn and defers propagation until it returns, so several fires
// settle in a single pass. Batches nest; the pass runs when the outermost
// batch completes.
func (g *Graph) Batch(fn func()) {
	g.holds++
	defer func() {
		g.holds--
		if g.holds == 0 {
			g.flush()
		}
	}()
	fn()
}

// schedule queues a task.
func (g *Graph) schedule(p phase, rank int, run func()) {
	g.seq++
	heap.Push(&g.queue, &task{phase: p, rank: rank, seq: g.seq, run: run})
}

// scheduleOnce queues a task unless one with the same key is still queued.
func (g *Graph) scheduleOnce(key any, p phase, rank int, run func()) {
	if _, ok := g.pending[key]; ok {
		return
	}
	g.pending[key] = struct{}{}
	g.seq++
	heap.Push(&g.queue, &task{phase: p, rank: rank, seq: g.seq, key: key, run: run})
}

// flush drains the queue unless a pass is already draining or a batch holds
// it. A panic raised by user code discards the rest of the pass and is
// re-raised after the graph is reset.
func (g *Graph) flush() {
	if g.draining || g.holds > 0 || len(g.queue) == 0 {
		return
	}
	g.draining = true
	settled := false
	defer func() {
		g.draining = false
		if !settled {
			g.queue = g.queue[:0]
			clear(g.pending)
		}
	}()

	limit := g.MaxTasks
	if limit <= 0 {
		limit = DefaultMaxTasks
	}
	for n := 0; len(g.queue) > 0; n++ {
		if n >= limit {
			panic(fmt.Errorf("%w after %d tasks", ErrRunaway, n))
		}
		t := heap.Pop(&g.queue).(*task)
		if t.key != nil {
			delete(g.pending, t.key)
		}
		t.run()
	}
	settled = true
	g.passes.Add(1)
}

// mustShare panics when two nodes live on different graphs.
func mustShare(a, b *Graph) {
	if a != b {
		panic(ErrGraphMismatch)
	}
}

// Unsubscribe removes a subscriber or watcher. Calling it more than once is
// harmless.
type Unsubscribe func()

// node is anything with a position in the propagation order.
type node interface {
	rankOf() int
	raise(rank int, seen map[node]bool)
}

// outlet receives the values a cell or event emits.
type outlet[T any] interface {
	notify(v T)
	// downstream returns the node whose rank must stay above the emitter,
	// or nil for observers that run in the effect phase.
	downstream() node
}
