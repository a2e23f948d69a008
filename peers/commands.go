package peers

import (
	"fmt"

	"github.com/fogleman/delaunay"

	"github.com/wiberlin/isds-bitcoin-prototype/event"
	"github.com/wiberlin/isds-bitcoin-prototype/event/events"
	"github.com/wiberlin/isds-bitcoin-prototype/interfaces"
	"github.com/wiberlin/isds-bitcoin-prototype/underlay"
	"github.com/wiberlin/isds-bitcoin-prototype/util/logger"
	"github.com/wiberlin/isds-bitcoin-prototype/util/metrics"
	"github.com/wiberlin/isds-bitcoin-prototype/world"
)

// AddPeer inserts peer into node's peer set at the current virtual time and
// notifies node's protocols at the same instant. Symmetric linking requires
// a second AddPeer(sim, peer, node).
func AddPeer(sim interfaces.ISimulation, node, peer world.Entity) {
	now := sim.Now()
	if Of(sim.World(), node).Insert(peer, now) {
		metrics.Counter(metrics.NameFormat(interfaces.METRIC_PEER_ADDED, sim.Name(node)), 1)
		metrics.Counter(interfaces.METRIC_PEER_ADDED.String(), 1)
	}
	events.PeerSetChanged(sim, node, interfaces.PeerSetUpdate{Kind: interfaces.PeerAdded, Peer: peer})
}

// RemovePeer is the symmetric removal; it notifies with a peer-removed
// update.
func RemovePeer(sim interfaces.ISimulation, node, peer world.Entity) {
	now := sim.Now()
	if Of(sim.World(), node).Remove(peer, now) {
		metrics.Counter(metrics.NameFormat(interfaces.METRIC_PEER_REMOVED, sim.Name(node)), 1)
		metrics.Counter(interfaces.METRIC_PEER_REMOVED.String(), 1)
	}
	events.PeerSetChanged(sim, node, interfaces.PeerSetUpdate{Kind: interfaces.PeerRemoved, Peer: peer})
}

// MakeDelaunayNetwork computes a Delaunay triangulation over every node
// position, resets all peer sets and peers both directions of every
// triangulation edge. On failure nothing is applied.
func MakeDelaunayNetwork(sim interfaces.ISimulation) error {
	w := sim.World()
	items := world.Query2[underlay.NodeID, underlay.Position](w)
	if len(items) < 3 {
		return fmt.Errorf("%w: delaunay needs at least 3 nodes, have %d", interfaces.ErrNotEnoughNodes, len(items))
	}
	points := make([]delaunay.Point, len(items))
	for i, item := range items {
		points[i] = delaunay.Point{X: item.B.X, Y: item.B.Y}
	}
	triangulation, err := delaunay.Triangulate(points)
	if err != nil {
		return fmt.Errorf("%w: %v", interfaces.ErrNoTriangulation, err)
	}
	triangles := triangulation.Triangles
	if len(triangles) == 0 {
		// all points collinear
		return interfaces.ErrNoTriangulation
	}

	now := sim.Now()
	for _, item := range items {
		Of(w, item.Entity).Clear(now)
	}
	for i := 0; i+2 < len(triangles); i += 3 {
		node1 := items[triangles[i]].Entity
		node2 := items[triangles[i+1]].Entity
		node3 := items[triangles[i+2]].Entity
		AddPeer(sim, node1, node2)
		AddPeer(sim, node1, node3)
		AddPeer(sim, node2, node1)
		AddPeer(sim, node2, node3)
		AddPeer(sim, node3, node1)
		AddPeer(sim, node3, node2)
	}
	return nil
}

// AddRandomPeers adds a uniformly random count in [min, max) of not yet
// peered other nodes as one-directional peers of node; bounds are clamped to
// the number of candidates. Reciprocating is the caller's business.
func AddRandomPeers(sim interfaces.ISimulation, node world.Entity, min, max int) {
	w := sim.World()
	if !w.Contains(node) {
		return
	}
	own := Of(w, node)
	candidates := make([]world.Entity, 0)
	for _, item := range world.Query[underlay.NodeID](w) {
		if item.Entity != node && !own.Contains(item.Entity) {
			candidates = append(candidates, item.Entity)
		}
	}
	if min > len(candidates) {
		min = len(candidates)
	}
	if max > len(candidates) {
		max = len(candidates)
	}
	count := min
	if max > min {
		count = min + sim.Rng().Intn(max-min)
	}
	sim.Rng().Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	for _, peer := range candidates[:count] {
		AddPeer(sim, node, peer)
	}
}

// AddPeerCommand is the schedulable form of AddPeer.
type AddPeerCommand struct {
	event.Base
	A, B world.Entity
}

func NewAddPeerCommand(a, b world.Entity) *AddPeerCommand {
	return &AddPeerCommand{Base: event.NewBase(interfaces.ADD_PEER_COMMAND), A: a, B: b}
}

func (c *AddPeerCommand) Execute(sim interfaces.ISimulation) {
	AddPeer(sim, c.A, c.B)
}

// RemovePeerCommand is the schedulable form of RemovePeer.
type RemovePeerCommand struct {
	event.Base
	A, B world.Entity
}

func NewRemovePeerCommand(a, b world.Entity) *RemovePeerCommand {
	return &RemovePeerCommand{Base: event.NewBase(interfaces.REMOVE_PEER_COMMAND), A: a, B: b}
}

func (c *RemovePeerCommand) Execute(sim interfaces.ISimulation) {
	RemovePeer(sim, c.A, c.B)
}

// MakeDelaunayNetworkCommand is the schedulable form of
// MakeDelaunayNetwork; a failure is logged and leaves the topology
// untouched.
type MakeDelaunayNetworkCommand struct {
	event.Base
}

func NewMakeDelaunayNetworkCommand() *MakeDelaunayNetworkCommand {
	return &MakeDelaunayNetworkCommand{Base: event.NewBase(interfaces.MAKE_DELAUNAY_COMMAND)}
}

func (c *MakeDelaunayNetworkCommand) Execute(sim interfaces.ISimulation) {
	if err := MakeDelaunayNetwork(sim); err != nil {
		logger.CommandFailed(sim.Now(), c.Type().String(), err)
	}
}

// AddRandomPeersCommand is the schedulable form of AddRandomPeers.
type AddRandomPeersCommand struct {
	event.Base
	Node     world.Entity
	Min, Max int
}

func NewAddRandomPeersCommand(node world.Entity, min, max int) *AddRandomPeersCommand {
	return &AddRandomPeersCommand{Base: event.NewBase(interfaces.ADD_RANDOM_PEERS_COMMAND), Node: node, Min: min, Max: max}
}

func (c *AddRandomPeersCommand) Execute(sim interfaces.ISimulation) {
	AddRandomPeers(sim, c.Node, c.Min, c.Max)
}
