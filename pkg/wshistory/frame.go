package wshistory

import (
	"encoding/json"
	"errors"
)

// FrameType identifies a frame on the wire.
type FrameType string

const (
	// FrameHello is the client's first frame. Path is the browser's current
	// location.
	FrameHello FrameType = "hello"

	// FramePop reports a back/forward move. Index is the stack position the
	// browser landed on.
	FramePop FrameType = "pop"

	// FramePush asks the client to pushState Path. Index is the new entry's
	// stack position.
	FramePush FrameType = "push"

	// FrameReplace asks the client to replaceState Path.
	FrameReplace FrameType = "replace"

	// FrameGo asks the client to call history.go(Delta). The client answers
	// with a pop frame once the browser has moved.
	FrameGo FrameType = "go"

	// FrameError reports a rejected handshake before the server closes.
	FrameError FrameType = "error"
)

// Frame is one JSON message in either direction.
//
//	{"type":"hello","path":"/users/42?tab=info"}
//	{"type":"push","path":"/users/7","key":"01HV...","index":1,"state":{"from":"list"}}
//	{"type":"pop","index":0}
type Frame struct {
	Type  FrameType       `json:"type"`
	Path  string          `json:"path,omitempty"`
	Key   string          `json:"key,omitempty"`
	Index int             `json:"index"`
	Delta int             `json:"delta,omitempty"`
	State json.RawMessage `json:"state,omitempty"`
	Error string          `json:"error,omitempty"`
}

// Errors returned by Accept, Serve and Dispatch.
var (
	ErrHandshake = errors.New("wshistory: handshake failed")
	ErrClosed    = errors.New("wshistory: backend closed")
)

// Reject reasons passed to Config.OnReject.
const (
	RejectDecode        = "decode"
	RejectUnknownType   = "unknown_type"
	RejectInvalidPath   = "invalid_path"
	RejectBadIndex      = "bad_index"
	RejectRepeatedHello = "repeated_hello"
)
