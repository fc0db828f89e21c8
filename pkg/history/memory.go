package history

import (
	"github.com/oklog/ulid/v2"
)

// Memory is an in-process History holding its own entry stack. It is used
// for tests, for nested routers and for the CLI.
//
// Memory is not safe for concurrent use; like the routers that drive it, it
// belongs to one goroutine.
type Memory struct {
	entries   []Location
	index     int
	action    Action
	listeners []*memoryListener
}

type memoryListener struct {
	fn     Listener
	closed bool
}

// NewMemory creates a backend whose stack holds entries, positioned at the
// last one. With no entries the stack holds "/".
func NewMemory(entries ...string) *Memory {
	if len(entries) == 0 {
		entries = []string{"/"}
	}
	m := &Memory{action: Pop}
	for _, e := range entries {
		p := Normalize(ParsePath(e))
		if p.Path == "" {
			p.Path = "/"
		}
		m.entries = append(m.entries, Location{
			Path:   p.Path,
			Search: p.Search,
			Hash:   p.Hash,
			Key:    NewKey(),
		})
	}
	m.index = len(m.entries) - 1
	return m
}

// NewKey returns a new unique location key.
func NewKey() string {
	return ulid.Make().String()
}

// Location returns the current entry.
func (m *Memory) Location() Location {
	return m.entries[m.index]
}

// Action returns how the current entry was reached.
func (m *Memory) Action() Action {
	return m.action
}

// Index returns the position of the current entry.
func (m *Memory) Index() int {
	return m.index
}

// Len returns the number of entries in the stack.
func (m *Memory) Len() int {
	return len(m.entries)
}

// Entries returns a copy of the stack.
func (m *Memory) Entries() []Location {
	out := make([]Location, len(m.entries))
	copy(out, m.entries)
	return out
}

// Push discards every entry after the current one and appends a new entry.
func (m *Memory) Push(to Path, state any) {
	loc := resolve(m.Location(), Normalize(to), state, NewKey())
	m.entries = append(m.entries[:m.index+1], loc)
	m.index++
	m.action = Push
	m.emit()
}

// Replace swaps the current entry for a new one.
func (m *Memory) Replace(to Path, state any) {
	m.entries[m.index] = resolve(m.Location(), Normalize(to), state, NewKey())
	m.action = Replace
	m.emit()
}

// Go moves delta entries. The target index is clamped to the stack; when it
// does not move, nothing is reported.
func (m *Memory) Go(delta int) {
	next := min(max(m.index+delta, 0), len(m.entries)-1)
	if next == m.index {
		return
	}
	m.index = next
	m.action = Pop
	m.emit()
}

// Back is Go(-1).
func (m *Memory) Back() { m.Go(-1) }

// Forward is Go(1).
func (m *Memory) Forward() { m.Go(1) }

// Listen registers fn for updates.
func (m *Memory) Listen(fn Listener) func() {
	l := &memoryListener{fn: fn}
	m.listeners = append(m.listeners, l)
	return func() {
		if l.closed {
			return
		}
		l.closed = true
		for i, existing := range m.listeners {
			if existing == l {
				m.listeners = append(m.listeners[:i], m.listeners[i+1:]...)
				return
			}
		}
	}
}

// Listeners returns the number of active listeners.
func (m *Memory) Listeners() int {
	return len(m.listeners)
}

// CreateHref renders to as an href.
func (m *Memory) CreateHref(to Path) string {
	return CreatePath(to)
}

func (m *Memory) emit() {
	u := Update{Action: m.action, Location: m.Location()}
	listeners := make([]*memoryListener, len(m.listeners))
	copy(listeners, m.listeners)
	for _, l := range listeners {
		if !l.closed {
			l.fn(u)
		}
	}
}
