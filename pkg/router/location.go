package router

import (
	"github.com/vango-dev/waypoint/pkg/history"
)

// Navigate pushes target unless it matches the current location, in which
// case nothing happens. It returns ErrInvalidNavigationTarget for the zero
// Target.
//
// Navigate can be called from inside subscribers; the comparison always
// reads the backend's live location.
func (r *Router) Navigate(target Target) error {
	return r.change(CommandNavigate, target)
}

// Redirect is Navigate with Replace instead of Push.
func (r *Router) Redirect(target Target) error {
	return r.change(CommandRedirect, target)
}

// Back moves one entry back.
func (r *Router) Back() { r.Go(-1) }

// Forward moves one entry forward.
func (r *Router) Forward() { r.Go(1) }

// Go moves delta entries through the backend's stack. A move the backend
// would clamp to the current entry is skipped.
func (r *Router) Go(delta int) {
	if !history.CanGo(r.history, delta) {
		r.observer.NavigationSkipped(CommandGo)
		r.logger.Debug("router: go skipped", "delta", delta)
		return
	}
	r.observer.NavigationIssued(CommandGo)
	r.logger.Debug("router: go", "delta", delta)
	r.history.Go(delta)
}

func (r *Router) change(cmd Command, target Target) error {
	dest, err := normalize(target)
	if err != nil {
		return err
	}
	cur := r.history.Location()
	if !dest.differs(cur) {
		r.observer.NavigationSkipped(cmd)
		r.logger.Debug("router: navigation skipped", "command", string(cmd), "target", target.String())
		return nil
	}

	r.observer.NavigationIssued(cmd)
	r.logger.Debug("router: navigation issued",
		"command", string(cmd),
		"from", cur.URL(),
		"to", history.CreatePath(dest.to),
	)
	if cmd == CommandRedirect {
		r.history.Replace(dest.to, dest.state)
	} else {
		r.history.Push(dest.to, dest.state)
	}
	return nil
}
