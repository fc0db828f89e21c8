// Package history defines the navigation history contract consumed by the
// router, the location types it produces, and an in-memory implementation.
//
// A History is the single writer of the current location. Routers never set
// their location directly; they ask the backend to Push, Replace or Go and
// the backend reports the result to its listeners synchronously, before the
// call returns.
package history

// Action describes how the current location was reached.
type Action string

const (
	// Pop means the location changed by moving through the stack (back,
	// forward, go) or is the initial entry.
	Pop Action = "POP"

	// Push means a new entry was appended.
	Push Action = "PUSH"

	// Replace means the current entry was replaced.
	Replace Action = "REPLACE"
)

// Location is an immutable snapshot of where the application is.
// Search keeps its leading "?" and Hash its leading "#"; both are empty when
// absent.
type Location struct {
	Path   string
	Search string
	Hash   string
	State  any
	Key    string
}

// URL returns the path, search and hash joined.
func (l Location) URL() string {
	return CreatePath(Path{Path: l.Path, Search: l.Search, Hash: l.Hash})
}

// Update is delivered to listeners after every location change.
type Update struct {
	Action   Action
	Location Location
}

// Listener receives updates from a History.
type Listener func(Update)

// History is a navigation backend.
//
// Push and Replace take the path portion of the new location. An empty
// Path.Path keeps the current path; empty Search and Hash clear them. Go
// moves delta entries through the stack; moves past either end are clamped.
// Listeners are invoked synchronously, in registration order, after the
// location has changed.
type History interface {
	Location() Location
	Action() Action
	Push(to Path, state any)
	Replace(to Path, state any)
	Go(delta int)
	Listen(fn Listener) (unlisten func())
	CreateHref(to Path) string
}

// Stack is implemented by backends that know their position in the entry
// stack.
type Stack interface {
	Index() int
	Len() int
}

// Wrapper is implemented by decorators around a History.
type Wrapper interface {
	Unwrap() History
}

// CanGo reports whether Go(delta) on h would move. It looks through
// Wrappers for a Stack; without one it only rules out a zero delta.
func CanGo(h History, delta int) bool {
	for h != nil {
		if s, ok := h.(Stack); ok {
			i := s.Index()
			return min(max(i+delta, 0), s.Len()-1) != i
		}
		w, ok := h.(Wrapper)
		if !ok {
			break
		}
		h = w.Unwrap()
	}
	return delta != 0
}

// resolve applies a Push/Replace target to the current location.
func resolve(current Location, to Path, state any, key string) Location {
	path := to.Path
	if path == "" {
		path = current.Path
	}
	return Location{
		Path:   path,
		Search: to.Search,
		Hash:   to.Hash,
		State:  state,
		Key:    key,
	}
}
