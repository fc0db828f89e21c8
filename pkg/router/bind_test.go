package router

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/waypoint/pkg/pathmatch"
)

type tabsFixture struct {
	parent, child   *Router
	parentH, childH *recorder
	page            *Route
	logs            *bytes.Buffer
}

func newTabs(t *testing.T, pattern, parentPath, childPath string) *tabsFixture {
	t.Helper()
	f := &tabsFixture{
		parentH: newRecorder(parentPath),
		childH:  newRecorder(childPath),
		logs:    &bytes.Buffer{},
	}
	logger := slog.New(slog.NewTextHandler(f.logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	f.parent = New(WithHistory(f.parentH), WithLogger(logger))
	f.child = f.parent.Child(WithHistory(f.childH))
	f.page = f.parent.MustAdd(pattern)
	_, err := f.page.Bind("tab", BindConfig{Router: f.child})
	require.NoError(t, err)
	return f
}

func (f *tabsFixture) assertCalls(t *testing.T, parent, child []string) {
	t.Helper()
	assert.Equal(t, parent, f.parentH.calls, "parent calls")
	assert.Equal(t, child, f.childH.calls, "child calls")
}

func TestBindInSync(t *testing.T) {
	f := newTabs(t, "/users/:id/:tab", "/users/7/info", "/info")
	f.assertCalls(t, nil, nil)
}

func TestBindChildDrivesParent(t *testing.T) {
	f := newTabs(t, "/users/:id/:tab", "/users/7/info", "/info")

	require.NoError(t, f.child.Navigate(To("/settings")))
	f.assertCalls(t, []string{"push /users/7/settings"}, []string{"push /settings"})
	assert.Equal(t, "settings", f.page.Params().Current()["tab"])
	assert.Equal(t, "/users/7/settings", f.parent.Path().Current())

	// Steady state: repeating the navigation does nothing.
	f.child.Navigate(To("/settings"))
	f.assertCalls(t, []string{"push /users/7/settings"}, []string{"push /settings"})
}

func TestBindParentDrivesChild(t *testing.T) {
	f := newTabs(t, "/users/:id/:tab", "/users/7/info", "/info")

	f.parent.Navigate(To("/users/7/billing"))
	f.assertCalls(t, []string{"push /users/7/billing"}, []string{"push /billing"})
	assert.Equal(t, "/billing", f.child.Path().Current())
}

func TestBindAlternatingSettles(t *testing.T) {
	f := newTabs(t, "/users/:id/:tab", "/users/7/info", "/info")

	f.child.Navigate(To("/a"))
	f.parent.Navigate(To("/users/8/b"))
	f.child.Navigate(To("/c"))
	f.parent.Back()

	// Back is a pop on the parent; the child follows with a push.
	assert.Equal(t, 3, f.parentH.pushes, "parent pushes")
	assert.Equal(t, 4, f.childH.pushes, "child pushes")
	assert.Equal(t, "/users/8/b", f.parent.Path().Current())
	assert.Equal(t, "/b", f.child.Path().Current())
}

func TestBindAtCreationNavigatesChild(t *testing.T) {
	f := newTabs(t, "/users/:id/:tab", "/users/7/info", "/")
	f.assertCalls(t, nil, []string{"push /info"})
}

func TestBindEmptyParamRedirectsParent(t *testing.T) {
	f := newTabs(t, "/users/:id/:tab?", "/users/7", "/info")
	f.assertCalls(t, []string{"replace /users/7/info"}, nil)
	assert.Equal(t, "info", f.page.Params().Current()["tab"])
}

func TestBindHiddenRoute(t *testing.T) {
	f := newTabs(t, "/users/:id/:tab", "/about", "/info")
	f.assertCalls(t, nil, nil)

	f.parent.Navigate(To("/users/7/x"))
	f.assertCalls(t, []string{"push /users/7/x"}, []string{"push /x"})
}

func TestBindChildWithoutParentMatchWarns(t *testing.T) {
	f := newTabs(t, "/users/:id/:tab", "/about", "/info")

	f.child.Navigate(To("/settings"))
	f.assertCalls(t, nil, []string{"push /settings"})
	assert.Contains(t, f.logs.String(), "parent navigation failed")
}

func TestBindNestedChildPathIsNotPushed(t *testing.T) {
	f := newTabs(t, "/users/:id/:tab", "/users/7/info", "/info")

	f.child.Navigate(To("/settings/advanced"))
	f.assertCalls(t, nil, []string{"push /settings/advanced"})
	assert.True(t, f.page.Visible().Current(), "page hidden after child moved")
	assert.Equal(t, "info", f.page.Params().Current()["tab"])
	assert.Contains(t, f.logs.String(), "parent navigation failed")

	// Sync resumes once the child is back on a single segment.
	f.child.Navigate(To("/billing"))
	f.assertCalls(t, []string{"push /users/7/billing"}, []string{"push /settings/advanced", "push /billing"})
}

func TestBindChildUsesLastParams(t *testing.T) {
	f := newTabs(t, "/users/:id/:tab", "/users/7/info", "/info")
	f.parent.Navigate(To("/about"))

	f.child.Navigate(To("/settings"))
	assert.Equal(t, "/users/7/settings", f.parent.Path().Current())
}

func TestUnbind(t *testing.T) {
	f := newTabs(t, "/users/:id/:tab", "/users/7/info", "/info")
	require.True(t, f.page.Unbind("tab"))
	require.False(t, f.page.Unbind("tab"), "second Unbind")

	f.child.Navigate(To("/settings"))
	f.parent.Navigate(To("/users/7/x"))
	f.assertCalls(t, []string{"push /users/7/x"}, []string{"push /settings"})
	assert.Empty(t, f.page.Bindings())
}

func TestBindErrors(t *testing.T) {
	r := New(WithInitialEntry("/users/7/info"))
	page := r.MustAdd("/users/:id/:tab")
	tabs := r.Child()
	page.MustBind("tab", BindConfig{Router: tabs})

	_, err := page.Bind("tab", BindConfig{Router: r.Child()})
	require.ErrorIs(t, err, ErrAlreadyBound)
	var abe *AlreadyBoundError
	require.ErrorAs(t, err, &abe)
	assert.Equal(t, "tab", abe.Param)
	assert.Equal(t, "/users/:id/:tab", abe.Pattern)

	_, err = page.Bind("id", BindConfig{})
	assert.ErrorIs(t, err, ErrNilRouter)
	_, err = page.Bind("id", BindConfig{Router: r})
	assert.ErrorIs(t, err, ErrSelfBind)
	_, err = page.Bind("id", BindConfig{Router: New()})
	assert.ErrorIs(t, err, ErrGraphMismatch)

	assert.Equal(t, []string{"tab"}, page.Bindings())
}

func TestBindCustomParseFormat(t *testing.T) {
	parentH := newRecorder("/p/a+b")
	r := New(WithHistory(parentH))
	childH := newRecorder("/")
	child := r.Child(WithHistory(childH))
	list := r.MustAdd("/p/:list")
	list.MustBind("list", BindConfig{
		Router: child,
		Parse: func(raw string) string {
			return "/" + strings.ReplaceAll(raw, "+", "/")
		},
		Format: func(path string) string {
			return strings.ReplaceAll(strings.TrimPrefix(path, "/"), "/", "+")
		},
	})

	assert.Equal(t, "/a/b", child.Path().Current())

	child.Navigate(To("/c/d"))
	assert.Equal(t, "/p/c+d", r.Path().Current())

	path, err := list.Compile(CompileConfig{Params: pathmatch.Params{"list": "/x/y"}})
	require.NoError(t, err)
	assert.Equal(t, "/p/x+y", path)
	assert.Equal(t, 1, parentH.pushes, "parent pushes")
	assert.Equal(t, 2, childH.pushes, "child pushes")
}
