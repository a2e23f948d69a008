package event

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wiberlin/isds-bitcoin-prototype/interfaces"
)

type queueTestEvent struct {
	Base
	id int
}

func newQueueTestEvent(id int) *queueTestEvent {
	return &queueTestEvent{Base: NewBase(interfaces.POKE_NODE_EVENT), id: id}
}

func (ev *queueTestEvent) Execute(sim interfaces.ISimulation) {}

func popID(t *testing.T, q *Queue) (interfaces.SimSeconds, int) {
	t.Helper()
	due, ev := q.NextEvent()
	return due, ev.(*queueTestEvent).id
}

func TestQueueOrdersByDueTime(t *testing.T) {
	q := NewQueue()
	q.Add(3.0, newQueueTestEvent(3))
	q.Add(1.0, newQueueTestEvent(1))
	q.Add(2.0, newQueueTestEvent(2))

	for want := 1; want <= 3; want++ {
		due, id := popID(t, q)
		require.Equal(t, interfaces.SimSeconds(want), due)
		require.Equal(t, want, id)
	}
	require.Equal(t, 0, q.Length())
}

func TestQueueFIFOAtEqualDueTimes(t *testing.T) {
	q := NewQueue()
	for i := 0; i < 5; i++ {
		q.Add(7.5, newQueueTestEvent(i))
	}
	for want := 0; want < 5; want++ {
		_, id := popID(t, q)
		require.Equal(t, want, id)
	}
}

func TestQueueFIFOAcrossBatches(t *testing.T) {
	q := NewQueue()
	q.Add(1.0, newQueueTestEvent(10))
	q.Add(5.0, newQueueTestEvent(20))

	// force a merge, then add more entries at an already-present due time
	_, id := popID(t, q)
	require.Equal(t, 10, id)
	q.Add(5.0, newQueueTestEvent(21))
	q.Add(5.0, newQueueTestEvent(22))

	for _, want := range []int{20, 21, 22} {
		_, id := popID(t, q)
		require.Equal(t, want, id)
	}
}

func TestQueueNextDue(t *testing.T) {
	q := NewQueue()
	_, ok := q.NextDue()
	require.False(t, ok)

	q.Add(4.0, newQueueTestEvent(1))
	q.Add(2.0, newQueueTestEvent(2))

	due, ok := q.NextDue()
	require.True(t, ok)
	require.Equal(t, interfaces.SimSeconds(2.0), due)
	require.Equal(t, 2, q.Length())

	// peeking does not consume
	due2, _ := q.NextDue()
	require.Equal(t, due, due2)
}

func TestQueueInterleavedAddAndPop(t *testing.T) {
	q := NewQueue()
	q.Add(10.0, newQueueTestEvent(100))
	q.Add(30.0, newQueueTestEvent(300))

	due, id := popID(t, q)
	require.Equal(t, interfaces.SimSeconds(10.0), due)
	require.Equal(t, 100, id)

	// an entry scheduled later but due sooner overtakes the queued one
	q.Add(20.0, newQueueTestEvent(200))
	due, id = popID(t, q)
	require.Equal(t, interfaces.SimSeconds(20.0), due)
	require.Equal(t, 200, id)

	due, id = popID(t, q)
	require.Equal(t, interfaces.SimSeconds(30.0), due)
	require.Equal(t, 300, id)
}
