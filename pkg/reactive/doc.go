// Package reactive provides the synchronous dataflow primitives the router is
// built on.
//
// The graph is push-based and fully synchronous: firing an event or changing a
// cell drains every downstream derivation and observer before the call
// returns. There are no timers, goroutines or suspension points.
//
// # Core Types
//
// Cell[T] holds a current value. It changes only through reducers declared
// with On:
//
//	g := reactive.NewGraph()
//	inc := reactive.NewEvent[int](g)
//	count := reactive.On(reactive.NewCell(g, 0), inc, func(n, by int) int { return n + by })
//	inc.Fire(2)
//	count.Current() // 2
//
// Map and Combine derive cells from other cells:
//
//	doubled := reactive.Map(count, func(n int) int { return n * 2 })
//	both := reactive.Combine2(count, doubled)
//
// Subscribe and Watch observe a cell; Event.Watch observes an event:
//
//	stop := doubled.Subscribe(func(n int) { fmt.Println("doubled:", n) })
//	defer stop()
//
// Group folds a member set that can grow after creation:
//
//	anyVisible := reactive.AnyOf(g)
//	anyVisible.Add(routeA)
//	anyVisible.Add(routeB)
//
// # Propagation Order
//
// Every node has a rank equal to its depth in the graph. Within a pass, pure
// work (reducers and derivations) runs in rank order and all of it settles
// before any subscriber or watcher runs. A derivation therefore always reads
// settled inputs, and observers never see one branch of a diamond updated
// while the other still holds its previous value.
//
// Subscribers and watchers registered on the same node run in registration
// order.
//
// # Re-entrancy
//
// A Graph is a trampoline. An observer may fire events or issue commands that
// change cells; that work is queued into the pass that is already draining
// and completes before the outermost call returns. Pure work queued this way
// runs before the remaining observers of the outer change. Termination is the
// caller's responsibility; a pass that exceeds MaxTasks panics with
// ErrRunaway.
//
// # Thread Safety
//
// A Graph and everything created on it must be confined to one goroutine.
// Components that receive input on other goroutines must hand it to the
// owning goroutine first.
package reactive
