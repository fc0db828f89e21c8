package reactive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiamondIsGlitchFree(t *testing.T) {
	g := NewGraph()
	set, src := setter(g, 1)
	plusOne := Map(src, func(n int) int { return n + 1 })
	double := Map(src, func(n int) int { return n * 2 })

	var seen []Pair[int, int]
	both := Map(Combine2(plusOne, double), func(p Pair[int, int]) Pair[int, int] {
		seen = append(seen, p)
		return p
	})

	var observed []Pair[int, int]
	both.Subscribe(func(p Pair[int, int]) { observed = append(observed, p) })

	set.Fire(5)
	set.Fire(10)

	for _, p := range seen {
		// Both branches come from the same source value.
		assert.Equal(t, (p.First-1)*2, p.Second, "inconsistent pair %+v", p)
	}
	assert.Equal(t, []Pair[int, int]{{6, 10}, {11, 20}}, observed)
}

func TestDerivationRunsOncePerPass(t *testing.T) {
	g := NewGraph()
	setA, a := setter(g, 0)
	setB, b := setter(g, 0)

	evaluations := 0
	Map(Combine2(a, b), func(p Pair[int, int]) int {
		evaluations++
		return p.First + p.Second
	})
	evaluations = 0

	g.Batch(func() {
		setA.Fire(1)
		setB.Fire(2)
	})

	assert.Equal(t, 1, evaluations)
}

func TestNestedFireJoinsPass(t *testing.T) {
	g := NewGraph()
	outer := NewEvent[int](g)
	setInner, inner := setter(g, 0)

	var sawInner int
	outer.Watch(func(v int) { setInner.Fire(v * 10) })
	outer.Watch(func(int) { sawInner = inner.Current() })

	outer.Fire(4)

	assert.Equal(t, 40, inner.Current())
	assert.Equal(t, 40, sawInner, "nested pure work settles before the next watcher")
	assert.False(t, g.Draining())
}

func TestSubscriberCommandSettlesBeforeReturn(t *testing.T) {
	g := NewGraph()
	setA, a := setter(g, 0)
	setB, b := setter(g, 0)

	// Mirror a into b from an observer, the way a binding echoes values.
	a.Subscribe(func(v int) {
		if b.Current() != v {
			setB.Fire(v)
		}
	})
	var bValues []int
	b.Subscribe(func(v int) { bValues = append(bValues, v) })

	setA.Fire(3)
	assert.Equal(t, 3, b.Current())
	assert.Equal(t, []int{3}, bValues)
}

func TestRunawayPanics(t *testing.T) {
	g := NewGraph()
	g.MaxTasks = 100
	inc, n := setter(g, 0)
	stop := n.Subscribe(func(v int) { inc.Fire(v + 1) })

	func() {
		defer func() {
			err, _ := recover().(error)
			assert.ErrorIs(t, err, ErrRunaway)
		}()
		inc.Fire(1)
	}()
	stop()

	// The graph is usable again after the aborted pass.
	require.False(t, g.Draining())
	inc.Fire(-1)
	assert.Equal(t, -1, n.Current())
}

func TestPanicDiscardsPass(t *testing.T) {
	g := NewGraph()
	set, v := setter(g, 0)

	calls := 0
	stop := v.Subscribe(func(int) { panic("boom") })
	v.Subscribe(func(int) { calls++ })

	assert.PanicsWithValue(t, "boom", func() { set.Fire(1) })
	stop()

	assert.Zero(t, calls, "queued observer ran after panic")
	set.Fire(2)
	assert.Equal(t, 1, calls)
}

func TestPassesCounted(t *testing.T) {
	g := NewGraph()
	set, _ := setter(g, 0)
	before := g.Passes()
	set.Fire(1)
	set.Fire(2)
	assert.Equal(t, uint64(2), g.Passes()-before)
}
