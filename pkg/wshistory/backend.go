// Package wshistory provides a history.History that mirrors a browser's
// history stack over a WebSocket.
//
// The server keeps the authoritative stack. Push and Replace update it
// immediately and tell the client to pushState/replaceState. Go asks the
// client to move; the browser's popstate comes back as a pop frame, and only
// then does the location change. Back and forward buttons in the browser
// produce pop frames the same way.
//
// A Backend belongs to one goroutine, the one that calls Serve. Frames read
// from the connection and functions passed to Dispatch are run there, so a
// router built on the backend never sees concurrent calls:
//
//	conn, _ := upgrader.Upgrade(w, r, nil)
//	b, err := wshistory.Accept(conn, wshistory.Config{Logger: logger})
//	if err != nil {
//	    return
//	}
//	rt := router.New(router.WithHistory(b))
//	rt.MustAdd("/users/:id")
//	err = b.Serve(r.Context())
package wshistory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vango-dev/waypoint/pkg/history"
)

// Config configures a Backend.
type Config struct {
	// HandshakeTimeout bounds the wait for the hello frame (default 10s).
	HandshakeTimeout time.Duration

	// ReadTimeout is the idle limit between inbound frames or pongs
	// (default 60s).
	ReadTimeout time.Duration

	// WriteTimeout bounds each outbound frame (default 10s).
	WriteTimeout time.Duration

	// PingInterval is the keepalive period (default 30s).
	PingInterval time.Duration

	// MaxMessageSize is the inbound frame limit in bytes (default 64KB).
	MaxMessageSize int64

	// InboxSize is the capacity of the owner goroutine's queue (default 32).
	InboxSize int

	// Base is prefixed to hrefs created by CreateHref.
	Base string

	// Logger receives connection diagnostics (default slog.Default()).
	Logger *slog.Logger

	// OnReject is called with a Reject* reason for every inbound frame that
	// is dropped. It may be called from the reader goroutine.
	OnReject func(reason string)
}

func (c *Config) applyDefaults() {
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = 10 * time.Second
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 60 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.PingInterval <= 0 {
		c.PingInterval = 30 * time.Second
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = 64 << 10
	}
	if c.InboxSize <= 0 {
		c.InboxSize = 32
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Backend is a history.History driven by a WebSocket client.
type Backend struct {
	conn   *websocket.Conn
	config Config
	logger *slog.Logger

	// stack is the authoritative entry stack. Its first listener mirrors
	// pushes and replaces to the client, so frames go out in the order the
	// entries were created even when listeners navigate again.
	stack *history.Memory

	inbox     chan func()
	done      chan struct{}
	closeOnce sync.Once
	writeMu   sync.Mutex
}

var _ history.History = (*Backend)(nil)

// Accept reads the client's hello frame and returns a backend positioned at
// the location it reports. On failure the client is sent an error frame, the
// connection is closed and the error wraps ErrHandshake.
func Accept(conn *websocket.Conn, cfg Config) (*Backend, error) {
	cfg.applyDefaults()
	b := &Backend{
		conn:   conn,
		config: cfg,
		logger: cfg.Logger.With("remote", conn.RemoteAddr().String()),
		inbox:  make(chan func(), cfg.InboxSize),
		done:   make(chan struct{}),
	}

	conn.SetReadLimit(cfg.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(cfg.HandshakeTimeout))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: read hello: %v", ErrHandshake, err)
	}

	var hello Frame
	if err := json.Unmarshal(msg, &hello); err != nil || hello.Type != FrameHello {
		return nil, b.refuse("expected hello frame")
	}
	p, err := history.CanonicalizePath(history.ParsePath(hello.Path))
	if err != nil {
		return nil, b.refuse(err.Error())
	}

	b.stack = history.NewMemory(history.CreatePath(p))
	b.stack.Listen(b.mirror)
	b.logger.Debug("wshistory: client connected", "location", b.stack.Location().URL())
	return b, nil
}

func (b *Backend) refuse(reason string) error {
	b.write(Frame{Type: FrameError, Error: reason})
	b.conn.Close()
	return fmt.Errorf("%w: %s", ErrHandshake, reason)
}

// Location implements history.History.
func (b *Backend) Location() history.Location { return b.stack.Location() }

// Action implements history.History.
func (b *Backend) Action() history.Action { return b.stack.Action() }

// Push implements history.History. The client is told to pushState.
func (b *Backend) Push(to history.Path, state any) { b.stack.Push(to, state) }

// Replace implements history.History. The client is told to replaceState.
func (b *Backend) Replace(to history.Path, state any) { b.stack.Replace(to, state) }

// Go implements history.History. The move is clamped to the stack and the
// location changes when the client's pop frame arrives.
func (b *Backend) Go(delta int) {
	cur := b.stack.Index()
	next := min(max(cur+delta, 0), b.stack.Len()-1)
	if next == cur {
		return
	}
	b.write(Frame{Type: FrameGo, Delta: next - cur, Index: next})
}

// Index returns the position of the current entry.
func (b *Backend) Index() int { return b.stack.Index() }

// Len returns the number of entries the client has.
func (b *Backend) Len() int { return b.stack.Len() }

// Listen implements history.History.
func (b *Backend) Listen(fn history.Listener) func() { return b.stack.Listen(fn) }

// Listeners returns the number of application listeners.
func (b *Backend) Listeners() int { return b.stack.Listeners() - 1 }

// CreateHref implements history.History.
func (b *Backend) CreateHref(to history.Path) string {
	return b.config.Base + history.CreatePath(to)
}

// mirror sends pushes and replaces to the client. Pops came from the client
// and are not echoed.
func (b *Backend) mirror(u history.Update) {
	var t FrameType
	switch u.Action {
	case history.Push:
		t = FramePush
	case history.Replace:
		t = FrameReplace
	default:
		return
	}
	f := Frame{Type: t, Path: u.Location.URL(), Key: u.Location.Key, Index: b.stack.Index()}
	if u.Location.State != nil {
		raw, err := json.Marshal(u.Location.State)
		if err != nil {
			b.logger.Warn("wshistory: state not serializable", "error", err)
		} else {
			f.State = raw
		}
	}
	b.write(f)
}

func (b *Backend) write(f Frame) {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	b.conn.SetWriteDeadline(time.Now().Add(b.config.WriteTimeout))
	if err := b.conn.WriteJSON(f); err != nil {
		b.logger.Warn("wshistory: write failed", "type", f.Type, "error", err)
	}
}

// Dispatch runs fn on the goroutine that runs Serve. It blocks while the
// queue is full and returns ErrClosed once the backend is closed. It must
// not be called from that goroutine.
func (b *Backend) Dispatch(fn func()) error {
	select {
	case <-b.done:
		return ErrClosed
	default:
	}
	select {
	case b.inbox <- fn:
		return nil
	case <-b.done:
		return ErrClosed
	}
}

// Serve applies inbound frames and dispatched functions until ctx is done,
// the client disconnects or the backend is closed. A normal client close
// returns nil. The backend is closed when Serve returns.
func (b *Backend) Serve(ctx context.Context) error {
	defer b.Close()

	readErr := make(chan error, 1)
	go func() { readErr <- b.readLoop() }()

	ping := time.NewTicker(b.config.PingInterval)
	defer ping.Stop()

	for {
		select {
		case fn := <-b.inbox:
			fn()
		case err := <-readErr:
			b.drain()
			if err == nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				b.logger.Debug("wshistory: client disconnected")
				return nil
			}
			select {
			case <-b.done:
				return nil
			default:
			}
			return fmt.Errorf("wshistory: read: %w", err)
		case <-ping.C:
			b.writeMu.Lock()
			err := b.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(b.config.WriteTimeout))
			b.writeMu.Unlock()
			if err != nil {
				b.logger.Debug("wshistory: ping failed", "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		case <-b.done:
			return nil
		}
	}
}

// drain runs whatever the reader queued before it stopped.
func (b *Backend) drain() {
	for {
		select {
		case fn := <-b.inbox:
			fn()
		default:
			return
		}
	}
}

func (b *Backend) readLoop() error {
	b.conn.SetPongHandler(func(string) error {
		return b.conn.SetReadDeadline(time.Now().Add(b.config.ReadTimeout))
	})
	for {
		b.conn.SetReadDeadline(time.Now().Add(b.config.ReadTimeout))
		_, msg, err := b.conn.ReadMessage()
		if err != nil {
			return err
		}

		var f Frame
		if err := json.Unmarshal(msg, &f); err != nil {
			b.reject(RejectDecode, "error", err)
			continue
		}
		switch f.Type {
		case FramePop:
			if f.Path != "" {
				if _, err := history.Canonicalize(history.ParsePath(f.Path).Path); err != nil {
					b.reject(RejectInvalidPath, "path", f.Path, "error", err)
					continue
				}
			}
			if err := b.Dispatch(func() { b.applyPop(f) }); err != nil {
				return nil
			}
		case FrameHello:
			b.reject(RejectRepeatedHello)
		default:
			b.reject(RejectUnknownType, "type", f.Type)
		}
	}
}

// applyPop moves the stack to the entry the browser reports.
func (b *Backend) applyPop(f Frame) {
	if f.Index < 0 || f.Index >= b.stack.Len() {
		b.reject(RejectBadIndex, "index", f.Index, "len", b.stack.Len())
		return
	}
	if f.Path != "" {
		entry := b.stack.Entries()[f.Index]
		if p := history.ParsePath(f.Path); p.Path != entry.Path {
			b.logger.Debug("wshistory: pop path differs from entry", "index", f.Index, "client", f.Path, "entry", entry.URL())
		}
	}
	b.stack.Go(f.Index - b.stack.Index())
}

func (b *Backend) reject(reason string, args ...any) {
	b.logger.Warn("wshistory: frame rejected", append([]any{"reason", reason}, args...)...)
	if b.config.OnReject != nil {
		b.config.OnReject(reason)
	}
}

// Close sends a close frame and closes the connection. It is safe to call
// more than once and from any goroutine.
func (b *Backend) Close() error {
	var err error
	b.closeOnce.Do(func() {
		close(b.done)
		b.writeMu.Lock()
		b.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		b.writeMu.Unlock()
		err = b.conn.Close()
		if errors.Is(err, websocket.ErrCloseSent) {
			err = nil
		}
	})
	return err
}

// Done is closed when the backend closes.
func (b *Backend) Done() <-chan struct{} { return b.done }
