package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// style is an ANSI SGR sequence.
type style string

const (
	plain     style = "\033[0m"
	styleErr  style = "\033[1;31m"
	styleHead style = "\033[1;37m"
	styleText style = "\033[37m"
	styleLoc  style = "\033[36m"
	styleLink style = "\033[34m"
	styleDim  style = "\033[90m"
)

var colors = true

// DisableColors makes Format and Fprint emit plain text.
func DisableColors() { colors = false }

// EnableColors turns ANSI styling back on.
func EnableColors() { colors = true }

func (s style) paint(text string) string {
	if !colors || text == "" {
		return text
	}
	return string(s) + text + string(plain)
}

// detailWidth is where Format wraps the detail paragraph.
const detailWidth = 70

// Format renders the error as a multi-line terminal report: a header,
// the cause, the source excerpt with the failing line marked, then the
// detail, hint, example and doc link when they are set.
func (e *WaypointError) Format() string {
	var r report
	r.blank()
	r.WriteString(e.header())
	r.WriteString("\n\n")

	if e.Wrapped != nil {
		r.para(styleDim.paint(e.Wrapped.Error()))
	}
	if e.Location != nil {
		r.para(styleLoc.paint(e.Location.String()))
		r.excerpt(e.Location, e.Context)
	}
	if e.Detail != "" {
		for _, l := range wrapText(e.Detail, detailWidth) {
			r.indent(2, l)
		}
		r.blank()
	}
	if e.Suggestion != "" {
		r.para(styleLoc.paint("Hint: ") + e.Suggestion)
	}
	if e.Example != "" {
		r.indent(2, styleLoc.paint("Example:"))
		for _, l := range strings.Split(e.Example, "\n") {
			r.indent(4, l)
		}
		r.blank()
	}
	if e.DocURL != "" {
		r.indent(2, styleDim.paint("Learn more: ")+styleLink.paint(e.DocURL))
	}
	return r.String()
}

func (e *WaypointError) header() string {
	if e.Code == "" {
		return styleErr.paint("ERROR:") + " " + styleText.paint(e.Message)
	}
	return styleErr.paint("ERROR") + " " + styleHead.paint(e.Code+":") + " " + styleText.paint(e.Message)
}

// FormatCompact renders "file:line:col: CODE: message", leaving out the
// parts that are unset.
func (e *WaypointError) FormatCompact() string {
	parts := make([]string, 0, 3)
	if e.Location != nil {
		parts = append(parts, e.Location.String())
	}
	if e.Code != "" {
		parts = append(parts, e.Code)
	}
	return strings.Join(append(parts, e.Message), ": ")
}

type jsonError struct {
	Code       string        `json:"code,omitempty"`
	Category   Category      `json:"category"`
	Message    string        `json:"message"`
	Detail     string        `json:"detail,omitempty"`
	Cause      string        `json:"cause,omitempty"`
	Location   *jsonLocation `json:"location,omitempty"`
	Suggestion string        `json:"suggestion,omitempty"`
	DocURL     string        `json:"docUrl,omitempty"`
}

type jsonLocation struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column,omitempty"`
}

// FormatJSON renders the error as one JSON object for machine consumers.
func (e *WaypointError) FormatJSON() string {
	out := jsonError{
		Code:       e.Code,
		Category:   e.Category,
		Message:    e.Message,
		Detail:     e.Detail,
		Suggestion: e.Suggestion,
		DocURL:     e.DocURL,
	}
	if e.Wrapped != nil {
		out.Cause = e.Wrapped.Error()
	}
	if l := e.Location; l != nil {
		out.Location = &jsonLocation{File: l.File, Line: l.Line, Column: l.Column}
	}
	raw, _ := json.Marshal(out)
	return string(raw)
}

// report accumulates Format output.
type report struct {
	strings.Builder
}

func (r *report) blank() { r.WriteByte('\n') }

func (r *report) indent(n int, text string) {
	r.WriteString(strings.Repeat(" ", n))
	r.WriteString(text)
	r.WriteByte('\n')
}

// para writes text indented by two and followed by a blank line.
func (r *report) para(text string) {
	r.indent(2, text)
	r.blank()
}

// excerpt writes the context lines centred on loc, numbering each and
// pointing at loc's line and column.
func (r *report) excerpt(loc *Location, lines []string) {
	if len(lines) == 0 {
		return
	}
	first := loc.Line - len(lines)/2
	gutter := styleDim.paint(" │ ")
	for i, text := range lines {
		n := first + i
		if n != loc.Line {
			r.indent(4, fmt.Sprintf("%4d", n)+gutter+text)
			continue
		}
		r.indent(2, styleErr.paint("→ ")+fmt.Sprintf("%4d", n)+gutter+text)
		if loc.Column > 0 {
			r.indent(7, styleDim.paint("│ ")+strings.Repeat(" ", loc.Column-1)+styleErr.paint("^"))
		}
	}
	r.blank()
}

// wrapText breaks text into lines of at most width bytes at word
// boundaries. A word longer than width gets a line of its own.
func wrapText(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	lines := []string{words[0]}
	for _, w := range words[1:] {
		last := &lines[len(lines)-1]
		if len(*last)+1+len(w) > width {
			lines = append(lines, w)
			continue
		}
		*last += " " + w
	}
	return lines
}

// PrintError is Fprint to stderr.
func PrintError(err error) {
	Fprint(os.Stderr, err)
}

// Fprint writes err to w: the full report for a WaypointError anywhere in
// the chain, a one-line header otherwise.
func Fprint(w io.Writer, err error) {
	var we *WaypointError
	if errors.As(err, &we) {
		io.WriteString(w, we.Format())
		return
	}
	fmt.Fprintf(w, "\n%s %s\n\n", styleErr.paint("ERROR:"), err)
}
