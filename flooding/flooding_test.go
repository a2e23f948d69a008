package flooding

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wiberlin/isds-bitcoin-prototype/interfaces"
	"github.com/wiberlin/isds-bitcoin-prototype/peers"
	"github.com/wiberlin/isds-bitcoin-prototype/simulation"
	"github.com/wiberlin/isds-bitcoin-prototype/underlay"
	"github.com/wiberlin/isds-bitcoin-prototype/world"
)

// deliveryCounter counts int payload deliveries per node.
type deliveryCounter struct {
	deliveries map[world.Entity]int
}

func newDeliveryCounter() *deliveryCounter {
	return &deliveryCounter{deliveries: make(map[world.Entity]int)}
}

func (c *deliveryCounter) Name() string { return "deliveryCounter" }

func (c *deliveryCounter) HandleMessage(h interfaces.NodeHandle, env interfaces.Envelope, payload world.Entity) error {
	if _, ok := world.Get[Message[int]](h.World(), payload); ok {
		c.deliveries[h.Node]++
	}
	return nil
}

func (c *deliveryCounter) HandlePoke(h interfaces.NodeHandle) error { return nil }

func (c *deliveryCounter) HandlePeerSetUpdate(h interfaces.NodeHandle, update interfaces.PeerSetUpdate) error {
	return nil
}

func spawnNodeAt(sim *simulation.Simulation, name string, x, y float64) world.Entity {
	node := sim.World().Spawn()
	world.Insert(sim.World(), node, &underlay.NodeID{Name: name})
	world.Insert(sim.World(), node, &underlay.Position{X: x, Y: y})
	return node
}

func linkBoth(sim *simulation.Simulation, a, b world.Entity) {
	peers.AddPeer(sim, a, b)
	peers.AddPeer(sim, b, a)
}

func handle(sim *simulation.Simulation, node world.Entity) interfaces.NodeHandle {
	return interfaces.NodeHandle{Sim: sim, Node: node}
}

func TestFloodReachesAllNodesOnALine(t *testing.T) {
	sim := simulation.New(1)
	sim.AddProtocol(New[int]())
	counter := newDeliveryCounter()
	sim.AddProtocol(counter)

	a := spawnNodeAt(sim, "a", 100, 100)
	b := spawnNodeAt(sim, "b", 200, 100)
	c := spawnNodeAt(sim, "c", 300, 100)
	linkBoth(sim, a, b)
	linkBoth(sim, b, c)

	require.NoError(t, Flood(handle(sim, a), 42))
	sim.CatchUp(1000)

	for _, n := range []world.Entity{a, b, c} {
		require.Equal(t, []int{42}, StateOf[int](sim.World(), n).Known())
	}
	// one hop per edge, no echo to the sender, no second delivery
	require.Equal(t, 1, counter.deliveries[b])
	require.Equal(t, 1, counter.deliveries[c])
	require.Equal(t, 0, counter.deliveries[a])
	require.Empty(t, world.Query[interfaces.Envelope](sim.World()), "broadcast must terminate")
}

func TestFloodSkipsPeersThatAlreadyHaveTheItem(t *testing.T) {
	sim := simulation.New(1)
	sim.AddProtocol(New[int]())
	counter := newDeliveryCounter()
	sim.AddProtocol(counter)

	// triangle: every pair is peered
	a := spawnNodeAt(sim, "a", 100, 100)
	b := spawnNodeAt(sim, "b", 200, 100)
	c := spawnNodeAt(sim, "c", 150, 200)
	linkBoth(sim, a, b)
	linkBoth(sim, b, c)
	linkBoth(sim, a, c)

	require.NoError(t, Flood(handle(sim, a), 7))
	sim.CatchUp(1000)

	// each edge direction carries the item at most once, so no node sees
	// more than one copy per neighbor
	require.LessOrEqual(t, counter.deliveries[b], 2)
	require.LessOrEqual(t, counter.deliveries[c], 2)
	require.Equal(t, []int{7}, StateOf[int](sim.World(), b).Known())
	require.Equal(t, []int{7}, StateOf[int](sim.World(), c).Known())
}

func TestKnownItemsReplayedToNewPeer(t *testing.T) {
	sim := simulation.New(1)
	sim.AddProtocol(New[int]())

	a := spawnNodeAt(sim, "a", 100, 100)
	b := spawnNodeAt(sim, "b", 200, 100)

	// a learns items while isolated
	require.NoError(t, Flood(handle(sim, a), 1))
	require.NoError(t, Flood(handle(sim, a), 2))
	sim.CatchUp(10)
	require.Empty(t, StateOf[int](sim.World(), b).Known())

	linkBoth(sim, a, b)
	sim.CatchUp(1000)

	require.Equal(t, []int{1, 2}, StateOf[int](sim.World(), b).Known(), "replay preserves first-seen order")
}

func TestForgetPeerAllowsResend(t *testing.T) {
	sim := simulation.New(1)
	sim.AddProtocol(New[int]())

	a := spawnNodeAt(sim, "a", 100, 100)
	b := spawnNodeAt(sim, "b", 200, 100)
	linkBoth(sim, a, b)
	require.NoError(t, Flood(handle(sim, a), 5))
	sim.CatchUp(1000)
	require.True(t, StateOf[int](sim.World(), a).PeerHas(b, 5))

	peers.RemovePeer(sim, a, b)
	peers.RemovePeer(sim, b, a)
	require.False(t, StateOf[int](sim.World(), a).PeerHas(b, 5), "bookkeeping is dropped with the peer")

	// re-adding replays everything; b absorbs the duplicate idempotently
	linkBoth(sim, a, b)
	sim.CatchUp(2000)
	require.Equal(t, []int{5}, StateOf[int](sim.World(), b).Known())
}

func TestFloodingIgnoresForeignPayloads(t *testing.T) {
	sim := simulation.New(1)
	sim.AddProtocol(New[int]())

	a := spawnNodeAt(sim, "a", 100, 100)
	b := spawnNodeAt(sim, "b", 200, 100)
	linkBoth(sim, a, b)

	msg, err := sim.SpawnMessage(a, b)
	require.NoError(t, err)
	world.Insert(sim.World(), msg, &Message[string]{Item: "other"})
	sim.CatchUp(1000)

	require.Empty(t, StateOf[int](sim.World(), b).Known())
	require.Empty(t, StateOf[string](sim.World(), b).Known(), "no string protocol is installed")
}

func TestFloodWithoutPeersJustRecordsTheItem(t *testing.T) {
	sim := simulation.New(1)
	sim.AddProtocol(New[int]())
	a := spawnNodeAt(sim, "a", 100, 100)

	require.NoError(t, Flood(handle(sim, a), 9))
	require.Equal(t, []int{9}, StateOf[int](sim.World(), a).Known())
	require.Empty(t, world.Query[interfaces.Envelope](sim.World()))
}
