package events

import (
	"github.com/wiberlin/isds-bitcoin-prototype/interfaces"
	"github.com/wiberlin/isds-bitcoin-prototype/util/logger"
	"github.com/wiberlin/isds-bitcoin-prototype/util/metrics"
	"github.com/wiberlin/isds-bitcoin-prototype/world"
)

// The installed protocols are dispatched in installation order; a failure in
// one is logged and does not block the others.

func dispatch(sim interfaces.ISimulation, node world.Entity, kind string, call func(p interfaces.IProtocol, h interfaces.NodeHandle) error) {
	handle := interfaces.NodeHandle{Sim: sim, Node: node}
	for _, p := range sim.Protocols() {
		if err := call(p, handle); err != nil {
			metrics.Counter(interfaces.METRIC_HANDLER_FAILED.String(), 1)
			logger.HandlerFailed(sim.Now(), p.Name(), sim.Name(node), kind, err)
		}
	}
}

// PeerSetChanged notifies every protocol installed on node of one peer-set
// change, synchronously at the current virtual instant.
func PeerSetChanged(sim interfaces.ISimulation, node world.Entity, update interfaces.PeerSetUpdate) {
	if !sim.World().Contains(node) {
		return
	}
	dispatch(sim, node, interfaces.PEER_SET_CHANGED_EVENT.String(), func(p interfaces.IProtocol, h interfaces.NodeHandle) error {
		return p.HandlePeerSetUpdate(h, update)
	})
}

// Poke delivers an external stimulus to every protocol installed on node.
func Poke(sim interfaces.ISimulation, node world.Entity) {
	if !sim.World().Contains(node) {
		return
	}
	dispatch(sim, node, interfaces.POKE_NODE_EVENT.String(), func(p interfaces.IProtocol, h interfaces.NodeHandle) error {
		return p.HandlePoke(h)
	})
}
