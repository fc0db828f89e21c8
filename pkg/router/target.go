package router

import (
	"fmt"
	"reflect"

	"github.com/vango-dev/waypoint/pkg/history"
)

// Target is where Navigate and Redirect should go. Build one with To, ToPath
// or ToState; WithState adds a state to a path target.
//
//	r.Navigate(router.To("/users/7?tab=info#top"))
//	r.Navigate(router.ToState(scroll))
//	r.Redirect(router.To("/login").WithState(returnTo))
//
// Only the fields a target carries are compared with the current location.
// A path target without a state carries a nil state.
type Target struct {
	path     history.Path
	hasPath  bool
	state    any
	hasState bool
}

// To targets a "path?search#hash" string. Parts that are absent from the
// string are not compared and are cleared by the navigation.
func To(s string) Target {
	return Target{path: history.ParsePath(s), hasPath: true}
}

// ToPath targets a structured path. Empty fields are absent.
func ToPath(p history.Path) Target {
	return Target{path: p, hasPath: true}
}

// ToState targets the current path with a new state.
func ToState(state any) Target {
	return Target{state: state, hasState: true}
}

// WithState returns a copy of t carrying state.
func (t Target) WithState(state any) Target {
	t.state, t.hasState = state, true
	return t
}

// Path returns the path portion and whether the target has one.
func (t Target) Path() (history.Path, bool) {
	return t.path, t.hasPath
}

// State returns the state and whether the target has one.
func (t Target) State() (any, bool) {
	return t.state, t.hasState
}

// IsZero reports whether t carries neither a path nor a state.
func (t Target) IsZero() bool {
	return !t.hasPath && !t.hasState
}

// String implements fmt.Stringer.
func (t Target) String() string {
	switch {
	case t.hasPath && t.hasState:
		return fmt.Sprintf("%s (state %v)", history.CreatePath(t.path), t.state)
	case t.hasPath:
		return history.CreatePath(t.path)
	case t.hasState:
		return fmt.Sprintf("(state %v)", t.state)
	}
	return "(invalid target)"
}

// destination is a normalized target: the path fields it specifies (empty
// means unspecified) and the state, which is always specified.
type destination struct {
	to    history.Path
	state any
}

func normalize(t Target) (destination, error) {
	if t.IsZero() {
		return destination{}, ErrInvalidNavigationTarget
	}
	return destination{to: history.Normalize(t.path), state: t.state}, nil
}

// differs reports whether navigating to d would change cur.
func (d destination) differs(cur history.Location) bool {
	switch {
	case d.to.Path != "" && d.to.Path != cur.Path:
		return true
	case d.to.Search != "" && d.to.Search != cur.Search:
		return true
	case d.to.Hash != "" && d.to.Hash != cur.Hash:
		return true
	}
	return !reflect.DeepEqual(d.state, cur.State)
}
