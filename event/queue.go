package event

import (
	"math"

	"github.com/wiberlin/isds-bitcoin-prototype/interfaces"
)

type timed struct {
	due interfaces.SimSeconds
	ev  interfaces.IEvent
}

// Queue is the pending-event store: entries are collected in an insertion-
// ordered batch and stably merged into the main queue on demand, so that
// events due at identical timestamps come back out in scheduling order.
type Queue struct {
	events              []timed
	newEvents           []timed
	earliestNewEventDue interfaces.SimSeconds
}

func NewQueue() *Queue {
	return &Queue{
		events:              make([]timed, 0, 1000),
		newEvents:           make([]timed, 0, 200),
		earliestNewEventDue: interfaces.SimSeconds(math.Inf(1)),
	}
}

func (q *Queue) Add(due interfaces.SimSeconds, ev interfaces.IEvent) {
	q.newEvents = append(q.newEvents, timed{due: due, ev: ev})
	if q.earliestNewEventDue > due {
		q.earliestNewEventDue = due
	}
}

// NextEvent pops the earliest-due entry; ties go to the event scheduled
// first. Callers check Length or NextDue beforehand.
func (q *Queue) NextEvent() (interfaces.SimSeconds, interfaces.IEvent) {
	q.fitNewEventsToQueue()
	next := q.events[0]
	q.events = q.events[1:]
	return next.due, next.ev
}

// NextDue reports the due time of the entry NextEvent would return.
func (q *Queue) NextDue() (interfaces.SimSeconds, bool) {
	q.fitNewEventsToQueue()
	if len(q.events) == 0 {
		return 0, false
	}
	return q.events[0].due, true
}

func (q *Queue) fitNewEventsToQueue() {
	// if the events queue is empty but the new events queue is not
	if len(q.events) == 0 && len(q.newEvents) > 0 {
		q.events = mergeSort(q.newEvents)
		q.newEvents = make([]timed, 0, 200)
		q.earliestNewEventDue = interfaces.SimSeconds(math.Inf(1))
		return
	}

	// if no new events, or the earliest new event is due after the head of
	// the queue, the head is already correct; otherwise merge the lists
	if len(q.newEvents) > 0 && len(q.events) > 0 && q.earliestNewEventDue <= q.events[0].due {
		sorted := mergeSort(q.newEvents)

		// last queued entry earlier than first new one: append suffices
		if q.events[len(q.events)-1].due < sorted[0].due {
			q.events = append(q.events, sorted...)
		} else {
			q.events = merge(q.events, sorted)
		}
		q.newEvents = make([]timed, 0, 200)
		q.earliestNewEventDue = interfaces.SimSeconds(math.Inf(1))
	}
}

// mergeSort sorts stably by due time, preserving insertion order on ties.
func mergeSort(src []timed) []timed {
	if len(src) <= 1 {
		return src
	}
	mid := len(src) / 2
	return merge(mergeSort(src[:mid]), mergeSort(src[mid:]))
}

// merge prefers the left list on equal due times; left always holds the
// earlier-scheduled entries.
func merge(left, right []timed) []timed {
	result := make([]timed, 0, len(left)+len(right))
	var l, r int
	for l < len(left) || r < len(right) {
		if l < len(left) && r < len(right) {
			if left[l].due <= right[r].due {
				result = append(result, left[l])
				l++
			} else {
				result = append(result, right[r])
				r++
			}
		} else if l < len(left) {
			result = append(result, left[l:]...)
			break
		} else {
			result = append(result, right[r:]...)
			break
		}
	}
	return result
}

func (q *Queue) Length() int {
	return len(q.events) + len(q.newEvents)
}
