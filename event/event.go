package event

import (
	"github.com/wiberlin/isds-bitcoin-prototype/interfaces"
)

// Base carries the kind shared by every concrete event. Due times live in
// the queue, not in the event: an event fires at whatever time it was
// scheduled for, and reads the clock through the simulation handle.
type Base struct {
	eventType interfaces.IEventType
}

func NewBase(eventType interfaces.IEventType) Base {
	return Base{eventType: eventType}
}

func (b Base) Type() interfaces.IEventType {
	return b.eventType
}
