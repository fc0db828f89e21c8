package middleware

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vango-dev/waypoint/pkg/history"
)

func TestLoggingDecorator(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	mem := history.NewMemory("/a")
	h := Logging(mem, logger)

	var got []history.Action
	stop := h.Listen(func(u history.Update) { got = append(got, u.Action) })
	h.Push(history.Path{Path: "/b"}, nil)
	h.Replace(history.Path{Path: "/c"}, "s")
	h.Go(-1)
	stop()

	assert.Equal(t, []history.Action{history.Push, history.Replace, history.Pop}, got)
	assert.Equal(t, "/a", mem.Location().Path)

	out := buf.String()
	for _, want := range []string{
		"history push", "to=/b",
		"history replace", "state=string",
		"history go", "delta=-1",
		"history update", "action=PUSH",
		"history listener removed",
	} {
		assert.Contains(t, out, want)
	}
}

func TestLoggingQuietAboveDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	h := Logging(history.NewMemory(), logger)
	h.Push(history.Path{Path: "/b"}, nil)
	assert.Empty(t, buf.String(), "output at info level")
}
