package middleware

import (
	"fmt"
	"log/slog"

	"github.com/vango-dev/waypoint/pkg/history"
)

// Logging wraps h so that its calls and deliveries are logged at debug
// level. A nil logger uses slog.Default().
func Logging(h history.History, logger *slog.Logger) history.History {
	if logger == nil {
		logger = slog.Default()
	}
	return &logged{History: h, logger: logger}
}

type logged struct {
	history.History
	logger *slog.Logger
}

func (h *logged) Unwrap() history.History { return h.History }

func (h *logged) Push(to history.Path, state any) {
	h.logger.Debug("history push",
		"from", h.History.Location().URL(),
		"to", history.CreatePath(to),
		"state", typeName(state),
	)
	h.History.Push(to, state)
}

func (h *logged) Replace(to history.Path, state any) {
	h.logger.Debug("history replace",
		"from", h.History.Location().URL(),
		"to", history.CreatePath(to),
		"state", typeName(state),
	)
	h.History.Replace(to, state)
}

func (h *logged) Go(delta int) {
	h.logger.Debug("history go", "from", h.History.Location().URL(), "delta", delta)
	h.History.Go(delta)
}

func (h *logged) Listen(fn history.Listener) func() {
	h.logger.Debug("history listener added")
	stop := h.History.Listen(func(u history.Update) {
		h.logger.Debug("history update",
			"action", u.Action,
			"location", u.Location.URL(),
			"key", u.Location.Key,
		)
		fn(u)
	})
	return func() {
		h.logger.Debug("history listener removed")
		stop()
	}
}

func typeName(v any) string {
	if v == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%T", v)
}
