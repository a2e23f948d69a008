package events

import (
	"github.com/wiberlin/isds-bitcoin-prototype/event"
	"github.com/wiberlin/isds-bitcoin-prototype/interfaces"
	"github.com/wiberlin/isds-bitcoin-prototype/underlay"
	"github.com/wiberlin/isds-bitcoin-prototype/world"
)

// PokeRandomNodesEvent pokes up to Count distinct randomly chosen nodes.
type PokeRandomNodesEvent struct {
	event.Base
	Count int
}

func NewPokeRandomNodesEvent(count int) *PokeRandomNodesEvent {
	return &PokeRandomNodesEvent{Base: event.NewBase(interfaces.POKE_RANDOM_NODES_EVENT), Count: count}
}

func (ev *PokeRandomNodesEvent) Execute(sim interfaces.ISimulation) {
	nodes := make([]world.Entity, 0)
	for _, item := range world.Query[underlay.NodeID](sim.World()) {
		nodes = append(nodes, item.Entity)
	}
	sim.Rng().Shuffle(len(nodes), func(i, j int) {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	})
	count := ev.Count
	if count > len(nodes) {
		count = len(nodes)
	}
	for _, node := range nodes[:count] {
		Poke(sim, node)
	}
}
