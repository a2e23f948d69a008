package events

import (
	"github.com/wiberlin/isds-bitcoin-prototype/event"
	"github.com/wiberlin/isds-bitcoin-prototype/interfaces"
)

// SpawnRandomMessagesEvent launches Count payload-less messages between
// random node pairs.
type SpawnRandomMessagesEvent struct {
	event.Base
	Count int
}

func NewSpawnRandomMessagesEvent(count int) *SpawnRandomMessagesEvent {
	return &SpawnRandomMessagesEvent{Base: event.NewBase(interfaces.SPAWN_RANDOM_MESSAGES_EVENT), Count: count}
}

func (ev *SpawnRandomMessagesEvent) Execute(sim interfaces.ISimulation) {
	for i := 0; i < ev.Count; i++ {
		sim.SpawnMessageBetweenRandomNodes()
	}
}
