package pathmatch

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPattern is returned for patterns that cannot be parsed.
	ErrInvalidPattern = errors.New("pathmatch: invalid pattern")

	// ErrUnsupportedPattern is returned when an engine cannot express a
	// valid pattern.
	ErrUnsupportedPattern = errors.New("pathmatch: unsupported pattern")

	// ErrMissingParam is returned by a compiler when a required param has
	// no value.
	ErrMissingParam = errors.New("pathmatch: missing param")

	// ErrInvalidParam is returned by a compiler when a value does not
	// satisfy its param pattern.
	ErrInvalidParam = errors.New("pathmatch: invalid param")
)

// PatternError describes a pattern rejected by an engine.
type PatternError struct {
	Pattern string
	Reason  string
	Err     error // ErrInvalidPattern or ErrUnsupportedPattern
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("%v %q: %s", e.Err, e.Pattern, e.Reason)
}

func (e *PatternError) Unwrap() error {
	return e.Err
}

func invalid(pattern, format string, args ...any) error {
	return &PatternError{Pattern: pattern, Reason: fmt.Sprintf(format, args...), Err: ErrInvalidPattern}
}

func unsupported(pattern, format string, args ...any) error {
	return &PatternError{Pattern: pattern, Reason: fmt.Sprintf(format, args...), Err: ErrUnsupportedPattern}
}
