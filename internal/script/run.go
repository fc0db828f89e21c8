package script

import (
	"fmt"
	"io"

	"github.com/vango-dev/waypoint/internal/errors"
	"github.com/vango-dev/waypoint/internal/navtree"
	"github.com/vango-dev/waypoint/pkg/router"
)

// Failure is an expectation that did not hold.
type Failure struct {
	Line    int
	Text    string
	Message string
}

// Result summarizes a run.
type Result struct {
	Steps        int
	Expectations int
	Failures     []Failure
}

// Passed reports whether every expectation held.
func (r *Result) Passed() bool { return len(r.Failures) == 0 }

// Run checks every router and entry the script names, then executes the
// steps in order against tree and writes a report to w. Failed
// expectations do not stop the run; the returned error then has code
// CodeScriptExpectation. A rejected navigation stops the run.
func Run(s *Script, tree *navtree.Tree, w io.Writer) (*Result, error) {
	if err := check(s, tree); err != nil {
		return nil, err
	}

	res := &Result{}
	for _, step := range s.Steps {
		res.Steps++
		r, _ := tree.Router(step.Router)

		switch step.Op {
		case OpNavigate, OpRedirect:
			var target router.Target
			if step.Target != "" {
				target = router.To(step.Target)
			}
			if step.HasState {
				target = target.WithState(step.State)
			}
			navigate := r.Navigate
			if step.Op == OpRedirect {
				navigate = r.Redirect
			}
			if err := navigate(target); err != nil {
				return res, locate(errors.New(errors.CodeScriptNavigation).Wrap(err), s.File, step.Line)
			}
			reportMove(w, step, r)

		case OpBack:
			r.Back()
			reportMove(w, step, r)

		case OpForward:
			r.Forward()
			reportMove(w, step, r)

		case OpGo:
			r.Go(step.Delta)
			reportMove(w, step, r)

		case OpPrint:
			fmt.Fprintf(w, "%d: print\n", step.Line)
			for _, st := range tree.Snapshot() {
				fmt.Fprintf(w, "    %s\n", st)
			}

		default:
			res.Expectations++
			if msg := expect(step, tree, r); msg != "" {
				res.Failures = append(res.Failures, Failure{Line: step.Line, Text: step.Text, Message: msg})
				fmt.Fprintf(w, "%d: %s FAIL: %s\n", step.Line, step.Text, msg)
			} else {
				fmt.Fprintf(w, "%d: %s ok\n", step.Line, step.Text)
			}
		}
	}

	if !res.Passed() {
		fmt.Fprintf(w, "FAIL: %d of %d expectations failed\n", len(res.Failures), res.Expectations)
		first := res.Failures[0]
		return res, locate(errors.New(errors.CodeScriptExpectation).
			WithDetailf("%d of %d expectations failed; first: %s (%s)",
				len(res.Failures), res.Expectations, first.Text, first.Message),
			s.File, first.Line)
	}
	fmt.Fprintf(w, "PASS: %d steps, %d expectations\n", res.Steps, res.Expectations)
	return res, nil
}

func check(s *Script, tree *navtree.Tree) error {
	for _, step := range s.Steps {
		if _, ok := tree.Router(step.Router); !ok {
			return locate(errors.New(errors.CodeScriptRouter).
				WithDetailf("No router named %q", step.Router).
				WithSuggestion(fmt.Sprintf("Declared routers: %v", tree.RouterNames())),
				s.File, step.Line)
		}
		if step.Entry == "" {
			continue
		}
		e, ok := tree.Entry(step.Entry)
		if !ok {
			return locate(errors.New(errors.CodeScriptRoute).
				WithDetailf("No route or aggregate named %q", step.Entry).
				WithSuggestion(fmt.Sprintf("Declared names: %v", tree.Names())),
				s.File, step.Line)
		}
		if step.Op == OpExpectParam && e.Kind != navtree.KindRoute {
			return locate(errors.New(errors.CodeScriptRoute).
				WithDetailf("%q is a %s and has no params", step.Entry, e.Kind),
				s.File, step.Line)
		}
	}
	return nil
}

func expect(step Step, tree *navtree.Tree, r *router.Router) string {
	switch step.Op {
	case OpExpectVisible, OpExpectHidden:
		e, _ := tree.Entry(step.Entry)
		want := step.Op == OpExpectVisible
		if got := e.Visible().Current(); got != want {
			return fmt.Sprintf("%s is %s", step.Entry, visibility(got))
		}
	case OpExpectParam:
		e, _ := tree.Entry(step.Entry)
		params := e.Params()
		if params == nil {
			return fmt.Sprintf("%s is hidden", step.Entry)
		}
		got, ok := params[step.Key]
		if !ok {
			return fmt.Sprintf("%s has no param %q", step.Entry, step.Key)
		}
		if got != step.Value {
			return fmt.Sprintf("%s=%q", step.Key, got)
		}
	case OpExpectPath:
		if got := r.Path().Current(); got != step.Value {
			return fmt.Sprintf("%s is at %s", step.Router, got)
		}
	}
	return ""
}

func visibility(v bool) string {
	if v {
		return "visible"
	}
	return "hidden"
}

func reportMove(w io.Writer, step Step, r *router.Router) {
	fmt.Fprintf(w, "%d: %s -> %s %s (%s)\n", step.Line, step.Text, step.Router,
		r.Location().Current().URL(), r.Action().Current())
}
