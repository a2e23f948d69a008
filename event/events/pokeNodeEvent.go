package events

import (
	"github.com/wiberlin/isds-bitcoin-prototype/event"
	"github.com/wiberlin/isds-bitcoin-prototype/interfaces"
	"github.com/wiberlin/isds-bitcoin-prototype/world"
)

// PokeNodeEvent delivers an external stimulus to one node.
type PokeNodeEvent struct {
	event.Base
	Node world.Entity
}

func NewPokeNodeEvent(node world.Entity) *PokeNodeEvent {
	return &PokeNodeEvent{Base: event.NewBase(interfaces.POKE_NODE_EVENT), Node: node}
}

func (ev *PokeNodeEvent) Execute(sim interfaces.ISimulation) {
	Poke(sim, ev.Node)
}
