package script

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/waypoint/internal/config"
	"github.com/vango-dev/waypoint/internal/errors"
	"github.com/vango-dev/waypoint/internal/navtree"
)

const tree = `
initial: [/users/7/info]
routes:
  - name: user
    pattern: /users/:id/:tab?
    bind: [{param: tab, router: tabs}]
  - name: settings
    pattern: /settings
merges:
  - name: anywhere
    routes: [user, settings]
routers:
  - name: tabs
    routes:
      - name: info
        pattern: /info
      - name: posts
        pattern: /posts
`

func newTree(t *testing.T) *navtree.Tree {
	t.Helper()
	cfg, err := config.Parse([]byte(tree), ".yaml")
	require.NoError(t, err)
	nt, err := navtree.Build(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(nt.Close)
	return nt
}

func parse(t *testing.T, src string) *Script {
	t.Helper()
	s, err := Parse(strings.NewReader(src), "")
	require.NoError(t, err)
	return s
}

func TestParse(t *testing.T) {
	s := parse(t, `
# comment
navigate /users/7/posts
navigate /x {"from": "list"}
redirect /login null
back
forward
go -2
on tabs navigate /info
on tabs expect path /info
expect user visible
expect settings hidden
expect user param tab=info
expect path /users/7
print
`)

	want := []Step{
		{Line: 3, Op: OpNavigate, Router: "root", Target: "/users/7/posts"},
		{Line: 4, Op: OpNavigate, Router: "root", Target: "/x", State: map[string]any{"from": "list"}, HasState: true},
		{Line: 5, Op: OpRedirect, Router: "root", Target: "/login", HasState: true},
		{Line: 6, Op: OpBack, Router: "root"},
		{Line: 7, Op: OpForward, Router: "root"},
		{Line: 8, Op: OpGo, Router: "root", Delta: -2},
		{Line: 9, Op: OpNavigate, Router: "tabs", Target: "/info"},
		{Line: 10, Op: OpExpectPath, Router: "tabs", Value: "/info"},
		{Line: 11, Op: OpExpectVisible, Router: "root", Entry: "user"},
		{Line: 12, Op: OpExpectHidden, Router: "root", Entry: "settings"},
		{Line: 13, Op: OpExpectParam, Router: "root", Entry: "user", Key: "tab", Value: "info"},
		{Line: 14, Op: OpExpectPath, Router: "root", Value: "/users/7"},
		{Line: 15, Op: OpPrint, Router: "root"},
	}
	require.Len(t, s.Steps, len(want))
	for i := range want {
		want[i].Text = s.Steps[i].Text
		assert.Equal(t, want[i], s.Steps[i], "line %d", want[i].Line)
	}
	assert.Equal(t, "go -2", s.Steps[5].Text)
	assert.True(t, s.Steps[9].IsExpectation())
	assert.False(t, s.Steps[0].IsExpectation())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		src  string
		code string
	}{
		{"navigate", errors.CodeScriptSyntax},
		{"navigate /x {bad", errors.CodeScriptSyntax},
		{"back 2", errors.CodeScriptSyntax},
		{"go back", errors.CodeScriptSyntax},
		{"on tabs", errors.CodeScriptSyntax},
		{"on tabs on root back", errors.CodeScriptSyntax},
		{"on tabs print", errors.CodeScriptSyntax},
		{"on tabs expect user visible", errors.CodeScriptSyntax},
		{"print now", errors.CodeScriptSyntax},
		{"expect user", errors.CodeScriptSyntax},
		{"expect user param tab", errors.CodeScriptSyntax},
		{"expect user shown", errors.CodeScriptSyntax},
		{"jump /x", errors.CodeScriptCommand},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := Parse(strings.NewReader("print\n\n"+tt.src+"\n"), "")
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.code), "got %v", err)
			we := errors.FromError(err, "")
			require.NotNil(t, we.Location)
			assert.Equal(t, 3, we.Location.Line)
		})
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flow.nav")
	require.NoError(t, os.WriteFile(path, []byte("back\nexpect user sideways\nforward\n"), 0o644))

	_, err := ParseFile(path)
	we := errors.FromError(err, "")
	require.NotNil(t, we)
	assert.Equal(t, errors.CodeScriptSyntax, we.Code)
	assert.Equal(t, path, we.Location.File)
	assert.Equal(t, []string{"back", "expect user sideways", "forward"}, we.Context)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.nav"))
	assert.True(t, errors.HasCode(err, errors.CodeCLIFile))
}

func TestRunPasses(t *testing.T) {
	s := parse(t, `expect user param tab=info
on tabs expect path /info
navigate /users/7/posts
on tabs expect path /posts
expect posts visible
on tabs navigate /info
expect path /users/7/info
back
expect path /users/7/posts
navigate /settings
expect anywhere visible
expect user hidden
print
`)
	var out bytes.Buffer
	res, err := Run(s, newTree(t), &out)
	require.NoError(t, err)
	assert.True(t, res.Passed())
	assert.Equal(t, 13, res.Steps)
	assert.Equal(t, 8, res.Expectations)

	report := out.String()
	assert.Contains(t, report, "3: navigate /users/7/posts -> root /users/7/posts (PUSH)")
	assert.Contains(t, report, "8: back -> root /users/7/posts (POP)")
	assert.Contains(t, report, "2: on tabs expect path /info ok")
	assert.Contains(t, report, "    + root/settings")
	assert.Contains(t, report, "    - root/user")
	assert.Contains(t, report, "PASS: 13 steps, 8 expectations")
}

func TestRunReportsFailures(t *testing.T) {
	s := parse(t, `expect settings visible
expect user param tab=posts
expect user param nope=1
navigate /settings
expect user param id=7
on tabs expect path /posts
expect path /settings
`)
	var out bytes.Buffer
	res, err := Run(s, newTree(t), &out)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeScriptExpectation))
	assert.Equal(t, 6, res.Expectations)
	require.Len(t, res.Failures, 5)
	assert.Equal(t, Failure{Line: 1, Text: "expect settings visible", Message: "settings is hidden"}, res.Failures[0])
	assert.Equal(t, `tab="info"`, res.Failures[1].Message)
	assert.Equal(t, `user has no param "nope"`, res.Failures[2].Message)
	assert.Equal(t, "user is hidden", res.Failures[3].Message)
	assert.Equal(t, "tabs is at /info", res.Failures[4].Message)
	assert.Contains(t, out.String(), "FAIL: 5 of 6 expectations failed")

	we := errors.FromError(err, "")
	assert.Equal(t, 1, we.Location.Line)
}

func TestRunState(t *testing.T) {
	nt := newTree(t)
	s := parse(t, `navigate /settings {"from":"list"}`)
	_, err := Run(s, nt, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"from": "list"}, nt.Root.State().Current())
}

func TestRunChecksReferences(t *testing.T) {
	tests := []struct {
		src  string
		code string
	}{
		{"on nowhere back", errors.CodeScriptRouter},
		{"expect ghost visible", errors.CodeScriptRoute},
		{"expect anywhere param id=1", errors.CodeScriptRoute},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			nt := newTree(t)
			s := parse(t, "navigate /settings\n"+tt.src)
			var out bytes.Buffer
			_, err := Run(s, nt, &out)
			assert.True(t, errors.HasCode(err, tt.code), "got %v", err)
			assert.Empty(t, out.String(), "nothing runs when a reference is unknown")
			assert.Equal(t, "/users/7/info", nt.Root.Path().Current())
		})
	}
}

func TestRunNavigationError(t *testing.T) {
	s := parse(t, "navigate ?\n")
	s.Steps[0].Target = ""
	_, err := Run(s, newTree(t), &bytes.Buffer{})
	assert.True(t, errors.HasCode(err, errors.CodeScriptNavigation), "got %v", err)
}
