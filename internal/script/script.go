// Package script reads and replays navigation scripts against a route tree.
//
// A script is one command per line. Blank lines and lines starting with #
// are ignored.
//
//	navigate /users/7/posts
//	navigate /users/7 {"from":"list"}
//	redirect /login
//	back
//	forward
//	go -2
//	on tabs navigate /info
//	expect user visible
//	expect settings hidden
//	expect user param tab=info
//	expect path /users/7/info
//	on tabs expect path /info
//	print
//
// Commands that act on a router run on the root unless prefixed with
// "on <router>".
package script

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/vango-dev/waypoint/internal/config"
	"github.com/vango-dev/waypoint/internal/errors"
)

// Op is a script command.
type Op string

const (
	OpNavigate      Op = "navigate"
	OpRedirect      Op = "redirect"
	OpBack          Op = "back"
	OpForward       Op = "forward"
	OpGo            Op = "go"
	OpExpectVisible Op = "expect-visible"
	OpExpectHidden  Op = "expect-hidden"
	OpExpectParam   Op = "expect-param"
	OpExpectPath    Op = "expect-path"
	OpPrint         Op = "print"
)

// Step is one parsed line.
type Step struct {
	Line int
	Text string
	Op   Op

	// Router is the router the step acts on.
	Router string

	// Target and State are set for navigate and redirect. HasState
	// distinguishes an explicit null state from none.
	Target   string
	State    any
	HasState bool

	// Delta is set for go.
	Delta int

	// Entry names the route or aggregate of an expect step. Key and Value
	// are the param of expect-param; Value is the path of expect-path.
	Entry string
	Key   string
	Value string
}

// IsExpectation reports whether the step checks the tree.
func (s Step) IsExpectation() bool {
	switch s.Op {
	case OpExpectVisible, OpExpectHidden, OpExpectParam, OpExpectPath:
		return true
	}
	return false
}

// Script is a parsed script.
type Script struct {
	File  string
	Steps []Step
}

// ParseFile reads and parses the script at path.
func ParseFile(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(errors.CodeCLIFile).
			WithDetailf("Cannot open script %s", path).
			Wrap(err)
	}
	defer f.Close()
	return Parse(f, path)
}

// Parse reads a script from r. file names the source in errors.
func Parse(r io.Reader, file string) (*Script, error) {
	s := &Script{File: file}
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		step, err := parseLine(text)
		if err != nil {
			return nil, locate(err, file, line)
		}
		step.Line = line
		step.Text = text
		s.Steps = append(s.Steps, step)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.New(errors.CodeCLIFile).Wrap(err)
	}
	return s, nil
}

func locate(we *errors.WaypointError, file string, line int) *errors.WaypointError {
	if file == "" {
		we.Location = &errors.Location{Line: line}
		return we
	}
	return we.WithLocation(file, line, 0)
}

func parseLine(text string) (Step, *errors.WaypointError) {
	word, rest := cut(text)
	if word != "on" {
		return parseCommand(config.RootName, word, rest, true)
	}

	name, rest := cut(rest)
	if name == "" || rest == "" {
		return Step{}, syntax("on needs a router and a command", "on tabs navigate /info")
	}
	word, rest = cut(rest)
	return parseCommand(name, word, rest, false)
}

func parseCommand(routerName, word, rest string, top bool) (Step, *errors.WaypointError) {
	step := Step{Router: routerName}
	switch word {
	case "navigate", "redirect":
		step.Op = OpNavigate
		if word == "redirect" {
			step.Op = OpRedirect
		}
		target, state := cut(rest)
		if target == "" {
			return step, syntax(word+" needs a target", word+" /users/7")
		}
		step.Target = target
		if state != "" {
			if err := json.Unmarshal([]byte(state), &step.State); err != nil {
				return step, syntax("state is not valid JSON", word+` /users/7 {"from":"list"}`).Wrap(err)
			}
			step.HasState = true
		}

	case "back", "forward":
		if rest != "" {
			return step, syntax(word+" takes no arguments", word)
		}
		step.Op = OpBack
		if word == "forward" {
			step.Op = OpForward
		}

	case "go":
		n, err := strconv.Atoi(rest)
		if err != nil {
			return step, syntax("go needs an integer delta", "go -2").Wrap(err)
		}
		step.Op = OpGo
		step.Delta = n

	case "expect":
		return parseExpect(step, rest, top)

	case "print":
		if !top {
			return step, syntax("print cannot be scoped to a router", "print")
		}
		if rest != "" {
			return step, syntax("print takes no arguments", "print")
		}
		step.Op = OpPrint

	case "on":
		return step, syntax("on cannot be nested", "on tabs back")

	default:
		return step, errors.New(errors.CodeScriptCommand).
			WithDetailf("Unknown command %q", word).
			WithSuggestion("Use navigate, redirect, back, forward, go, on, expect or print")
	}
	return step, nil
}

func parseExpect(step Step, rest string, top bool) (Step, *errors.WaypointError) {
	args := strings.Fields(rest)
	if len(args) >= 2 {
		switch args[1] {
		case "visible", "hidden":
			if len(args) != 2 {
				break
			}
			if !top {
				return step, syntax("route expectations cannot be scoped to a router", "expect user visible")
			}
			step.Op = OpExpectVisible
			if args[1] == "hidden" {
				step.Op = OpExpectHidden
			}
			step.Entry = args[0]
			return step, nil

		case "param":
			if len(args) != 3 {
				break
			}
			if !top {
				return step, syntax("route expectations cannot be scoped to a router", "expect user param id=7")
			}
			key, value, ok := strings.Cut(args[2], "=")
			if !ok || key == "" {
				return step, syntax("param expectation needs key=value", "expect user param id=7")
			}
			step.Op = OpExpectParam
			step.Entry = args[0]
			step.Key = key
			step.Value = value
			return step, nil
		}
		if args[0] == "path" && len(args) == 2 {
			step.Op = OpExpectPath
			step.Value = args[1]
			return step, nil
		}
	}
	return step, syntax(fmt.Sprintf("cannot parse expectation %q", rest),
		"expect user visible\nexpect user hidden\nexpect user param id=7\nexpect path /users/7")
}

func syntax(detail, example string) *errors.WaypointError {
	return errors.New(errors.CodeScriptSyntax).WithDetail(detail).WithExample(example)
}

// cut splits s at its first run of spaces.
func cut(s string) (string, string) {
	s = strings.TrimSpace(s)
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i:])
}
