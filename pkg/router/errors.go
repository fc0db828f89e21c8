package router

import (
	"errors"
	"fmt"
)

// =============================================================================
// Sentinel Errors
// =============================================================================

// ErrInvalidNavigationTarget is returned by Navigate and Redirect when the
// target carries neither a path nor a state. The zero Target is invalid.
var ErrInvalidNavigationTarget = errors.New("router: navigation target has neither a path nor a state")

// ErrAlreadyBound matches every *AlreadyBoundError via errors.Is.
var ErrAlreadyBound = errors.New("router: param is already bound")

// ErrNilRouter is returned by Bind when no child router is given.
var ErrNilRouter = errors.New("router: bind requires a child router")

// ErrSelfBind is returned by Bind when the child router is the route's own
// router. Such a binding would synchronize a param with the path holding it.
var ErrSelfBind = errors.New("router: a route cannot be bound to its own router")

// ErrGraphMismatch is returned by Bind when the child router propagates on a
// different graph. Create child routers with Router.Child or WithGraph.
var ErrGraphMismatch = errors.New("router: routers belong to different graphs")

// =============================================================================
// Typed Errors
// =============================================================================

// AlreadyBoundError is returned by Bind when the param already has a binding
// on the route. Nothing is wired when it is returned.
type AlreadyBoundError struct {
	Param   string
	Pattern string
}

func (e *AlreadyBoundError) Error() string {
	return fmt.Sprintf("router: %q is already bound on route %s", e.Param, e.Pattern)
}

// Is reports whether target is ErrAlreadyBound.
func (e *AlreadyBoundError) Is(target error) bool {
	return target == ErrAlreadyBound
}
