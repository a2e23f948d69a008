package events

import (
	"github.com/wiberlin/isds-bitcoin-prototype/event"
	"github.com/wiberlin/isds-bitcoin-prototype/interfaces"
)

// SpawnRandomNodesEvent populates the world with Count randomly named and
// placed nodes.
type SpawnRandomNodesEvent struct {
	event.Base
	Count int
}

func NewSpawnRandomNodesEvent(count int) *SpawnRandomNodesEvent {
	return &SpawnRandomNodesEvent{Base: event.NewBase(interfaces.SPAWN_RANDOM_NODES_EVENT), Count: count}
}

func (ev *SpawnRandomNodesEvent) Execute(sim interfaces.ISimulation) {
	for i := 0; i < ev.Count; i++ {
		sim.SpawnRandomNode()
	}
}
