package errors

import (
	"bufio"
	"errors"
	"fmt"
	"os"
)

// Category groups codes by the part of waypoint that raises them.
type Category string

const (
	CategoryConfig  Category = "config"
	CategoryPattern Category = "pattern"
	CategoryScript  Category = "script"
	CategoryServe   Category = "serve"
	CategoryCLI     Category = "cli"
)

// Location is a position in a config or script file. Column is 1-based
// and zero when unknown.
type Location struct {
	File   string
	Line   int
	Column int
}

// String renders file:line, or file:line:column when the column is known.
func (l *Location) String() string {
	switch {
	case l == nil:
		return ""
	case l.Column > 0:
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	default:
		return fmt.Sprintf("%s:%d", l.File, l.Line)
	}
}

// WaypointError is what the CLI reports to users. New fills Category,
// Message, Detail and DocURL from the code's template; the builder methods
// add the rest and return the receiver so calls chain.
type WaypointError struct {
	Code     string // "W101"; empty for Newf errors
	Category Category
	Message  string
	Detail   string

	Location *Location
	Context  []string // source lines centred on Location.Line

	Suggestion string
	Example    string
	DocURL     string

	Wrapped error
}

// Error renders "CODE: message: cause".
func (e *WaypointError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

func (e *WaypointError) Unwrap() error { return e.Wrapped }

// contextRadius is how many lines either side of the failing one
// WithLocation keeps.
const contextRadius = 2

// WithLocation points the error at file:line:column and loads the source
// lines around it. An unreadable file leaves Context empty.
func (e *WaypointError) WithLocation(file string, line, column int) *WaypointError {
	e.Location = &Location{File: file, Line: line, Column: column}
	e.Context = sourceLines(file, line-contextRadius, line+contextRadius)
	return e
}

func (e *WaypointError) WithSuggestion(s string) *WaypointError {
	e.Suggestion = s
	return e
}

func (e *WaypointError) WithExample(ex string) *WaypointError {
	e.Example = ex
	return e
}

// WithDetail overrides the template's detail.
func (e *WaypointError) WithDetail(d string) *WaypointError {
	e.Detail = d
	return e
}

func (e *WaypointError) WithDetailf(format string, args ...any) *WaypointError {
	return e.WithDetail(fmt.Sprintf(format, args...))
}

// WithContext replaces the source excerpt, for input that is not on disk.
func (e *WaypointError) WithContext(lines []string) *WaypointError {
	e.Context = lines
	return e
}

// Wrap records err as the cause.
func (e *WaypointError) Wrap(err error) *WaypointError {
	e.Wrapped = err
	return e
}

// sourceLines returns lines from..to of file, 1-based and inclusive,
// clipped to what the file has.
func sourceLines(file string, from, to int) []string {
	f, err := os.Open(file)
	if err != nil {
		return nil
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for n := 1; n <= to && sc.Scan(); n++ {
		if n >= from {
			out = append(out, sc.Text())
		}
	}
	return out
}

// New returns an error for a registered code. Unregistered codes still
// produce an error, with the message "Unknown error".
func New(code string) *WaypointError {
	t, ok := registry[code]
	if !ok {
		return &WaypointError{Code: code, Message: "Unknown error"}
	}
	return &WaypointError{
		Code:     code,
		Category: t.Category,
		Message:  t.Message,
		Detail:   t.Detail,
		DocURL:   t.DocURL,
	}
}

// Newf returns an uncoded error in category.
func Newf(category Category, format string, args ...any) *WaypointError {
	return &WaypointError{Category: category, Message: fmt.Sprintf(format, args...)}
}

// FromError finds the WaypointError in err's chain, or wraps err in a new
// one with code.
func FromError(err error, code string) *WaypointError {
	if err == nil {
		return nil
	}
	var we *WaypointError
	if errors.As(err, &we) {
		return we
	}
	return New(code).Wrap(err)
}

// HasCode reports whether err's chain holds a WaypointError with code.
func HasCode(err error, code string) bool {
	var we *WaypointError
	return errors.As(err, &we) && we.Code == code
}
