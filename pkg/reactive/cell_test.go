package reactive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func setter[T any](g *Graph, initial T) (*Event[T], *Cell[T]) {
	set := NewEvent[T](g)
	return set, On(NewCell(g, initial), set, func(_ T, v T) T { return v })
}

func TestCellOnEvent(t *testing.T) {
	g := NewGraph()
	add := NewEvent[int](g)
	count := On(NewCell(g, 0), add, func(n, by int) int { return n + by })
	assert.Equal(t, 0, count.Current())

	add.Fire(5)
	assert.Equal(t, 5, count.Current())
	add.Fire(-2)
	assert.Equal(t, 3, count.Current())
}

func TestCellOnCellTrigger(t *testing.T) {
	g := NewGraph()
	set, name := setter(g, "")
	seen := On(NewCell(g, []string(nil)), name, func(h []string, v string) []string {
		return append(append([]string(nil), h...), v)
	})

	set.Fire("a")
	set.Fire("b")
	set.Fire("b") // unchanged; the trigger cell does not emit

	assert.Equal(t, []string{"a", "b"}, seen.Current())
}

func TestSubscribeOnlyOnChange(t *testing.T) {
	g := NewGraph()
	set, value := setter(g, 1)

	var got []int
	value.Subscribe(func(v int) { got = append(got, v) })
	for _, v := range []int{1, 2, 2, 3} {
		set.Fire(v)
	}

	assert.Equal(t, []int{2, 3}, got)
}

func TestWatchFiresImmediately(t *testing.T) {
	g := NewGraph()
	set, value := setter(g, 7)

	var got []int
	value.Watch(func(v int) { got = append(got, v) })
	set.Fire(8)

	assert.Equal(t, []int{7, 8}, got)
}

func TestUnsubscribe(t *testing.T) {
	g := NewGraph()
	set, value := setter(g, 0)

	calls := 0
	stop := value.Subscribe(func(int) { calls++ })
	set.Fire(1)
	stop()
	stop() // second call is harmless
	set.Fire(2)

	assert.Equal(t, 1, calls)
}

func TestSubscribersRunInRegistrationOrder(t *testing.T) {
	g := NewGraph()
	set, value := setter(g, 0)

	var order []string
	for _, name := range []string{"first", "second", "third"} {
		value.Subscribe(func(int) { order = append(order, name) })
	}
	set.Fire(1)

	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestWithEquals(t *testing.T) {
	type point struct{ X, Y int }

	g := NewGraph()
	set := NewEvent[point](g)
	p := On(NewCell(g, point{}), set, func(_ point, v point) point { return v }).
		WithEquals(func(a, b point) bool { return a.X == b.X })

	calls := 0
	p.Subscribe(func(point) { calls++ })

	set.Fire(point{X: 0, Y: 9}) // equal by X, not a change
	assert.Zero(t, calls)
	assert.Zero(t, p.Current().Y, "value should not have been replaced")

	set.Fire(point{X: 1})
	assert.Equal(t, 1, calls)
}

func TestOnAcrossGraphsPanics(t *testing.T) {
	a := NewGraph()
	b := NewGraph()
	defer func() {
		err, _ := recover().(error)
		assert.ErrorIs(t, err, ErrGraphMismatch)
	}()
	On(NewCell(a, 0), NewEvent[int](b), func(n, _ int) int { return n })
}

func TestCellString(t *testing.T) {
	c := NewCell(NewGraph(), 3).Named("count")
	assert.Equal(t, "cell(count)=3", c.String())
	assert.Equal(t, "count", c.Name())
}

func TestAnyCellMixedTypes(t *testing.T) {
	g := NewGraph()
	set, state := setter[any](g, nil)

	changes := 0
	state.Subscribe(func(any) { changes++ })

	set.Fire("1")
	set.Fire(1)
	set.Fire(1)
	set.Fire(map[string]int{"n": 1})
	set.Fire(map[string]int{"n": 1})
	set.Fire(nil)

	assert.Equal(t, 4, changes)
}
