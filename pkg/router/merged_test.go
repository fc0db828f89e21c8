package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeAndNone(t *testing.T) {
	r := New(WithInitialEntry("/"))
	a := r.MustAdd("/a")
	b := r.MustAdd("/b")
	r.MustAdd("/c")
	merged := r.Merge(a, b)
	none := r.None(a, b)

	for path, want := range map[string]bool{"/a": true, "/c": false, "/b": true, "/x": false} {
		r.Navigate(To(path))
		assert.Equal(t, want, merged.Visible().Current(), "%s: merged", path)
		assert.Equal(t, !want, none.Visible().Current(), "%s: none", path)
	}

	configs := merged.Configs()
	require.Len(t, configs, 2)
	assert.Equal(t, "/a", configs[0].Pattern)
	assert.Equal(t, "/b", configs[1].Pattern)
	assert.Len(t, none.Routes(), 2)
}

func TestMergeSettlesWithConstituents(t *testing.T) {
	r := New(WithInitialEntry("/"))
	a := r.MustAdd("/a")
	b := r.MustAdd("/b")
	merged := r.Merge(a, b)
	none := r.None(a, b)

	check := func(bool) {
		matched := a.Visible().Current() || b.Visible().Current()
		assert.Equal(t, matched, merged.Visible().Current(), "merge stale at %q", r.Path().Current())
		assert.Equal(t, !matched, none.Visible().Current(), "none stale at %q", r.Path().Current())
	}
	a.Visible().Subscribe(check)
	b.Visible().Subscribe(check)
	merged.Visible().Subscribe(check)

	for _, p := range []string{"/a", "/b", "/x", "/a"} {
		r.Navigate(To(p))
	}
}

func TestHasMatchesAccumulate(t *testing.T) {
	r := New(WithInitialEntry("/x"))
	assert.False(t, r.HasMatches().Current(), "no routes")

	r.MustAdd("/a")
	assert.False(t, r.HasMatches().Current(), "before any match")

	r.Navigate(To("/a"))
	assert.True(t, r.HasMatches().Current(), "after a match")

	r.Navigate(To("/x"))
	assert.True(t, r.HasMatches().Current(), "accumulated match was lost")
	assert.False(t, r.NoMatches().Current())
}

func TestHasMatchesOnRegistration(t *testing.T) {
	r := New(WithInitialEntry("/a"))
	require.False(t, r.HasMatches().Current())

	r.MustAdd("/a")
	assert.True(t, r.HasMatches().Current(), "registering a visible route counts")
}

func TestHasMatchesLive(t *testing.T) {
	r := New(WithInitialEntry("/x"), WithMatchMode(MatchLive))
	r.MustAdd("/a")

	r.Navigate(To("/a"))
	assert.True(t, r.HasMatches().Current())

	r.Navigate(To("/x"))
	assert.False(t, r.HasMatches().Current(), "live mode kept a stale match")
	assert.True(t, r.NoMatches().Current())
}

func TestMergeRegisteredNoneNot(t *testing.T) {
	r := New(WithInitialEntry("/x"), WithMatchMode(MatchLive))
	other := r.Child(WithInitialEntry("/a"))
	a := other.MustAdd("/a")
	b := other.MustAdd("/b")

	none := r.None(b)
	require.True(t, none.Visible().Current())
	assert.False(t, r.HasMatches().Current(), "None counted as a match")

	r.Merge(a)
	assert.True(t, r.HasMatches().Current(), "Merge registers")
}

func TestNotFound(t *testing.T) {
	r := New(WithInitialEntry("/x"), WithMatchMode(MatchLive))
	r.MustAdd("/a")
	nf := r.NotFound()
	assert.True(t, nf.Visible().Current())

	r.Navigate(To("/a"))
	assert.False(t, nf.Visible().Current())
	assert.Len(t, nf.Routes(), 1)
}
