package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/waypoint/pkg/history"
)

// recorder is a memory backend that records the calls it receives.
type recorder struct {
	*history.Memory
	pushes, replaces, gos int
	calls                 []string
}

func newRecorder(entries ...string) *recorder {
	return &recorder{Memory: history.NewMemory(entries...)}
}

func (h *recorder) Push(to history.Path, state any) {
	h.pushes++
	h.calls = append(h.calls, "push "+history.CreatePath(to))
	h.Memory.Push(to, state)
}

func (h *recorder) Replace(to history.Path, state any) {
	h.replaces++
	h.calls = append(h.calls, "replace "+history.CreatePath(to))
	h.Memory.Replace(to, state)
}

func (h *recorder) Go(delta int) {
	h.gos++
	h.Memory.Go(delta)
}

type countObserver struct {
	issued, skipped map[Command]int
}

func newCountObserver() *countObserver {
	return &countObserver{issued: map[Command]int{}, skipped: map[Command]int{}}
}

func (o *countObserver) NavigationIssued(cmd Command)  { o.issued[cmd]++ }
func (o *countObserver) NavigationSkipped(cmd Command) { o.skipped[cmd]++ }

func TestLocationCells(t *testing.T) {
	h := newRecorder("/users/42?tab=info&tab=settings#top")
	r := New(WithHistory(h))

	loc := r.Location().Current()
	assert.Equal(t, "/users/42", loc.Path)
	assert.Equal(t, "/users/42", r.Path().Current())
	assert.Equal(t, "?tab=info&tab=settings", r.Search().Current())
	assert.Equal(t, QueryParams{"tab": "settings"}, r.Query().Current())
	assert.Equal(t, "#top", r.Hash().Current())
	assert.Equal(t, "/users/42?tab=info&tab=settings#top", r.Href().Current())
	assert.Equal(t, history.Pop, r.Action().Current())
	assert.NotEmpty(t, r.Key().Current())
	assert.Equal(t, loc.Key, r.Key().Current())
	assert.Nil(t, r.State().Current())
}

func TestNavigatePushes(t *testing.T) {
	h := newRecorder("/users/42")
	r := New(WithHistory(h))

	require.NoError(t, r.Navigate(To("/users/7")))
	assert.Equal(t, []string{"push /users/7"}, h.calls)
	assert.Equal(t, "/users/7", r.Path().Current())
	assert.Equal(t, history.Push, r.Action().Current())
}

func TestNavigateIdempotent(t *testing.T) {
	h := newRecorder("/users/42?x=1#h")
	r := New(WithHistory(h))

	changes := 0
	r.Location().Subscribe(func(history.Location) { changes++ })
	r.Path().Subscribe(func(string) { changes++ })
	r.Query().Subscribe(func(QueryParams) { changes++ })

	targets := []Target{
		To("/users/42"),
		To("/users/42?x=1"),
		To("/users/42#h"),
		To("/users/42?x=1#h"),
		To("?x=1"),
		To(""),
		ToPath(history.Path{Search: "x=1"}),
		ToPath(history.Path{Path: "/users/42", Hash: "h"}),
		ToState(nil),
	}
	for _, target := range targets {
		assert.NoError(t, r.Navigate(target), "Navigate(%s)", target)
		assert.NoError(t, r.Redirect(target), "Redirect(%s)", target)
	}
	assert.Empty(t, h.calls)
	assert.Zero(t, changes)
}

func TestNavigateState(t *testing.T) {
	h := newRecorder("/a?q=1")
	r := New(WithHistory(h))

	require.NoError(t, r.Navigate(ToState("s")))
	assert.Equal(t, "s", r.State().Current())
	assert.Equal(t, "/a", r.Path().Current())
	r.Navigate(ToState("s"))
	assert.Equal(t, 1, h.pushes, "repeated state target pushed")

	// A path target carries a nil state, which differs from "s".
	r.Navigate(To("/a"))
	assert.Equal(t, 2, h.pushes)
	assert.Nil(t, r.State().Current())

	r.Navigate(To("/b").WithState(map[string]int{"n": 1}))
	r.Navigate(To("/b").WithState(map[string]int{"n": 1}))
	assert.Equal(t, 3, h.pushes, "equal states compare by value")
}

func TestRedirectReplaces(t *testing.T) {
	h := newRecorder("/a", "/b")
	r := New(WithHistory(h))

	require.NoError(t, r.Redirect(To("/c")))
	assert.Equal(t, []string{"replace /c"}, h.calls)
	assert.Equal(t, 2, h.Len())
	assert.Equal(t, history.Replace, r.Action().Current())
}

func TestInvalidTarget(t *testing.T) {
	h := newRecorder("/a")
	r := New(WithHistory(h))
	assert.ErrorIs(t, r.Navigate(Target{}), ErrInvalidNavigationTarget)
	assert.ErrorIs(t, r.Redirect(Target{}), ErrInvalidNavigationTarget)
	assert.Empty(t, h.calls)
}

func TestTarget(t *testing.T) {
	target := To("/a?b=1").WithState(1)

	p, ok := target.Path()
	require.True(t, ok)
	assert.Equal(t, history.Path{Path: "/a", Search: "?b=1"}, p)

	s, ok := target.State()
	require.True(t, ok)
	assert.Equal(t, 1, s)

	assert.Equal(t, "/a?b=1 (state 1)", target.String())
	assert.True(t, Target{}.IsZero())
	assert.False(t, ToState(nil).IsZero())
}

func TestBackForwardGo(t *testing.T) {
	h := newRecorder("/a", "/b", "/c")
	obs := newCountObserver()
	r := New(WithHistory(h), WithObserver(obs))

	r.Back()
	assert.Equal(t, "/b", r.Path().Current(), "after Back")
	r.Go(-1)
	assert.Equal(t, "/a", r.Path().Current(), "after Go(-1)")
	r.Forward()
	assert.Equal(t, "/b", r.Path().Current(), "after Forward")

	assert.Equal(t, history.Pop, r.Action().Current())
	assert.Equal(t, 3, h.gos)
	assert.Equal(t, 3, obs.issued[CommandGo])
}

func TestGoClampedIsSkipped(t *testing.T) {
	h := newRecorder("/a", "/b")
	obs := newCountObserver()
	r := New(WithHistory(h), WithObserver(obs))

	r.Forward()
	r.Go(0)
	r.Go(-5)
	r.Back()

	assert.Equal(t, "/a", r.Path().Current())
	assert.Equal(t, 1, h.gos, "only the move that goes somewhere reaches the backend")
	assert.Equal(t, 1, obs.issued[CommandGo])
	assert.Equal(t, 3, obs.skipped[CommandGo])
}

func TestOnUpdate(t *testing.T) {
	r := New(WithInitialEntry("/a"))
	var got []history.Action
	stop := r.OnUpdate(func(u history.Update) { got = append(got, u.Action) })

	r.Navigate(To("/b"))
	r.Redirect(To("/c"))
	stop()
	r.Navigate(To("/d"))

	assert.Equal(t, []history.Action{history.Push, history.Replace}, got)
}

func TestUse(t *testing.T) {
	h1 := newRecorder("/a")
	h2 := newRecorder("/b?x=1")
	r := New(WithHistory(h1))

	r.Use(h2)
	assert.Equal(t, "/b", r.Path().Current())
	assert.Equal(t, "?x=1", r.Search().Current())
	assert.Zero(t, h1.Listeners())
	assert.Equal(t, 1, h2.Listeners())
	assert.Same(t, h2, r.History())

	h1.Memory.Push(history.Path{Path: "/old"}, nil)
	assert.Equal(t, "/b", r.Path().Current(), "old backend still delivers")

	r.Navigate(To("/c"))
	assert.Zero(t, h1.pushes)
	assert.Equal(t, 1, h2.pushes)

	updates := 0
	r.OnUpdate(func(history.Update) { updates++ })
	h2.Memory.Push(history.Path{Path: "/d"}, nil)
	assert.Equal(t, 1, updates)
}

func TestClose(t *testing.T) {
	h := newRecorder("/a")
	r := New(WithHistory(h))
	r.Close()
	r.Close()
	assert.Zero(t, h.Listeners())

	h.Memory.Push(history.Path{Path: "/b"}, nil)
	assert.Equal(t, "/a", r.Path().Current(), "closed router followed backend")
}

func TestObserver(t *testing.T) {
	obs := newCountObserver()
	r := New(WithInitialEntry("/a"), WithObserver(obs))
	r.Navigate(To("/b"))
	r.Navigate(To("/b"))
	r.Redirect(To("/b"))

	assert.Equal(t, map[Command]int{CommandNavigate: 1}, obs.issued)
	assert.Equal(t, map[Command]int{CommandNavigate: 1, CommandRedirect: 1}, obs.skipped)
}

func TestNavigateFromSubscriberSeesLiveLocation(t *testing.T) {
	h := newRecorder("/a")
	r := New(WithHistory(h))

	r.Path().Subscribe(func(p string) {
		if p == "/old" {
			r.Redirect(To("/new"))
			r.Redirect(To("/new"))
		}
	})
	r.Navigate(To("/old"))

	assert.Equal(t, "/new", r.Path().Current())
	assert.Equal(t, []string{"push /old", "replace /new"}, h.calls)
}

func TestParseQuery(t *testing.T) {
	tests := []struct {
		in   string
		want QueryParams
	}{
		{"", QueryParams{}},
		{"?a=1&b=2&a=3", QueryParams{"a": "3", "b": "2"}},
		{"a=x+y", QueryParams{"a": "x y"}},
		{"a=%zz&b=1", QueryParams{"b": "1"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseQuery(tt.in), tt.in)
	}
}

func TestParseMatchMode(t *testing.T) {
	for in, want := range map[string]MatchMode{"": MatchAccumulate, "accumulate": MatchAccumulate, "live": MatchLive} {
		got, ok := ParseMatchMode(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got)
		if in != "" {
			assert.Equal(t, in, got.String())
		}
	}
	_, ok := ParseMatchMode("sometimes")
	assert.False(t, ok)
}

func TestChildSharesGraph(t *testing.T) {
	r := New()
	child := r.Child(WithInitialEntry("/tab"))

	assert.Same(t, r.Graph(), child.Graph())
	assert.Equal(t, "/tab", child.Path().Current())
	assert.Equal(t, r.Engine(), child.Engine())
	assert.Same(t, r.Logger(), child.Logger())
}
