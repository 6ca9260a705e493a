package observe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceDeliversInRegistrationOrder(t *testing.T) {
	var src Source[int]
	var got []string

	src.Subscribe(func(v int) { got = append(got, "a") })
	src.Subscribe(func(v int) { got = append(got, "b") })
	src.Emit(1)

	assert.Equal(t, []string{"a", "b"}, got)
}

func TestSourceUnsubscribeStopsDelivery(t *testing.T) {
	var src Source[int]
	calls := 0
	unsubscribe := src.Subscribe(func(int) { calls++ })

	src.Emit(1)
	unsubscribe()
	unsubscribe()
	src.Emit(2)

	assert.Equal(t, 1, calls)
	assert.Zero(t, src.Len())
}

func TestSourceReentrantEmitIsQueued(t *testing.T) {
	var src Source[int]
	var first, second []int

	src.Subscribe(func(v int) {
		first = append(first, v)
		if v == 1 {
			src.Emit(2)
		}
	})
	src.Subscribe(func(v int) { second = append(second, v) })

	src.Emit(1)

	require.Equal(t, []int{1, 2}, first)
	// The nested value must not overtake the one still being delivered.
	require.Equal(t, []int{1, 2}, second)
}

func TestSourceSkipsSubscriberRemovedMidDelivery(t *testing.T) {
	var src Source[int]
	var unsubscribeB func()
	calledB := false

	src.Subscribe(func(int) { unsubscribeB() })
	unsubscribeB = src.Subscribe(func(int) { calledB = true })

	src.Emit(1)
	assert.False(t, calledB)
}
