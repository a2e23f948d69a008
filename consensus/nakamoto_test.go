package consensus

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/wiberlin/isds-bitcoin-prototype/interfaces"
	"github.com/wiberlin/isds-bitcoin-prototype/peers"
	"github.com/wiberlin/isds-bitcoin-prototype/simulation"
	"github.com/wiberlin/isds-bitcoin-prototype/underlay"
	"github.com/wiberlin/isds-bitcoin-prototype/world"
)

func testRng() *rand.Rand {
	return rand.New(rand.NewSource(1))
}

func TestRegisterBlockExtendsTip(t *testing.T) {
	st := NewState()
	rng := testRng()

	b1 := NewBlock(Hash{}, rng)
	require.True(t, st.RegisterBlock(b1), "first block on genesis advances the tip")
	require.Equal(t, b1.Hash, st.Tip())
	require.Equal(t, 1, st.TipHeight())

	b2 := NewBlock(b1.Hash, rng)
	require.True(t, st.RegisterBlock(b2))
	require.Equal(t, b2.Hash, st.Tip())
	require.Equal(t, 2, st.TipHeight())
	require.Empty(t, st.ForkTips())
}

func TestRegisterBlockIsIdempotent(t *testing.T) {
	st := NewState()
	b1 := NewBlock(Hash{}, testRng())

	require.True(t, st.RegisterBlock(b1))
	require.False(t, st.RegisterBlock(b1))
	require.Equal(t, 1, st.TipHeight())
	require.Len(t, st.AllBlocksSorted(), 1)
}

func TestEqualHeightForkDoesNotDisplaceTip(t *testing.T) {
	st := NewState()
	rng := testRng()

	b1 := NewBlock(Hash{}, rng)
	rival := NewBlock(Hash{}, rng)
	require.True(t, st.RegisterBlock(b1))
	require.False(t, st.RegisterBlock(rival), "first seen wins at equal height")
	require.Equal(t, b1.Hash, st.Tip())
	require.Equal(t, []Hash{rival.Hash}, st.ForkTips())
}

func TestLongerForkCausesReorg(t *testing.T) {
	st := NewState()
	rng := testRng()

	b1 := NewBlock(Hash{}, rng)
	require.True(t, st.RegisterBlock(b1))

	rival1 := NewBlock(Hash{}, rng)
	require.False(t, st.RegisterBlock(rival1))
	rival2 := NewBlock(rival1.Hash, rng)
	require.True(t, st.RegisterBlock(rival2), "a strictly higher fork takes over")

	require.Equal(t, rival2.Hash, st.Tip())
	require.Equal(t, 2, st.TipHeight())
	// the displaced chain head is kept as a fork tip
	require.Equal(t, []Hash{b1.Hash}, st.ForkTips())
}

func TestOrphanIsDropped(t *testing.T) {
	st := NewState()
	rng := testRng()

	parent := NewBlock(Hash{}, rng)
	orphan := NewBlock(parent.Hash, rng)

	require.False(t, st.RegisterBlock(orphan))
	require.False(t, st.Knows(orphan.Hash))
	require.Equal(t, 0, st.TipHeight())

	// the orphan is not remembered; it must be delivered again after its
	// parent
	require.True(t, st.RegisterBlock(parent))
	require.True(t, st.RegisterBlock(orphan))
	require.Equal(t, orphan.Hash, st.Tip())
}

func TestHeightAndPrevQueries(t *testing.T) {
	st := NewState()
	rng := testRng()
	b1 := NewBlock(Hash{}, rng)
	b2 := NewBlock(b1.Hash, rng)
	st.RegisterBlock(b1)
	st.RegisterBlock(b2)

	h, err := st.Height(Hash{})
	require.NoError(t, err)
	require.Equal(t, 0, h, "genesis sits at height zero")

	h, err = st.Height(b2.Hash)
	require.NoError(t, err)
	require.Equal(t, 2, h)

	_, err = st.Height(NewBlock(Hash{}, rng).Hash)
	require.ErrorIs(t, err, interfaces.ErrUnknownBlock)

	prev, err := st.PrevOf(b2.Hash)
	require.NoError(t, err)
	require.Equal(t, b1.Hash, prev)

	_, err = st.PrevOf(NewBlock(Hash{}, rng).Hash)
	require.ErrorIs(t, err, interfaces.ErrUnknownBlock)
}

func TestAllBlocksSortedAscendsAndReplays(t *testing.T) {
	st := NewState()
	rng := testRng()
	b1 := NewBlock(Hash{}, rng)
	b2 := NewBlock(b1.Hash, rng)
	fork := NewBlock(b1.Hash, rng)
	st.RegisterBlock(b1)
	st.RegisterBlock(b2)
	st.RegisterBlock(fork)

	blocks := st.AllBlocksSorted()
	require.Len(t, blocks, 3)
	require.Equal(t, b1, blocks[0], "parents come before children")

	// replaying the sorted list on a fresh state orphans nothing
	fresh := NewState()
	for _, b := range blocks {
		fresh.RegisterBlock(b)
	}
	require.Len(t, fresh.AllBlocksSorted(), 3)
	require.Equal(t, st.TipHeight(), fresh.TipHeight())
}

// --- whole-network scenarios ---

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

func line3(sim *simulation.Simulation) (world.Entity, world.Entity, world.Entity) {
	a := spawnNodeAt(sim, "a", 100, 100)
	b := spawnNodeAt(sim, "b", 200, 100)
	c := spawnNodeAt(sim, "c", 300, 100)
	linkBoth(sim, a, b)
	linkBoth(sim, b, c)
	return a, b, c
}

func poke(sim *simulation.Simulation, nc *NakamotoConsensus, node world.Entity) {
	_ = nc.HandlePoke(interfaces.NodeHandle{Sim: sim, Node: node})
}

func TestBlocksGetDistributed(t *testing.T) {
	sim := simulation.New(1)
	nc := New()
	sim.AddProtocol(nc)
	a, b, c := line3(sim)

	poke(sim, nc, a)
	sim.CatchUp(1000)

	tip := StateOf(sim.World(), a).Tip()
	require.False(t, tip.IsGenesis())
	for _, n := range []world.Entity{a, b, c} {
		require.Equal(t, tip, StateOf(sim.World(), n).Tip(), "every node converges on the mined block")
		require.Equal(t, 1, StateOf(sim.World(), n).TipHeight())
	}
}

func TestForksGetRegistered(t *testing.T) {
	sim := simulation.New(1)
	nc := New()
	sim.AddProtocol(nc)
	a, b, c := line3(sim)

	// both ends mine before either block has traveled
	poke(sim, nc, a)
	poke(sim, nc, c)
	sim.CatchUp(1000)

	for _, n := range []world.Entity{a, b, c} {
		st := StateOf(sim.World(), n)
		require.Len(t, st.AllBlocksSorted(), 2, "both height-1 blocks are known everywhere")
		require.Equal(t, 1, st.TipHeight())
		require.Len(t, st.ForkTips(), 1)
	}
}

func TestForksGetResolved(t *testing.T) {
	sim := simulation.New(1)
	nc := New()
	sim.AddProtocol(nc)
	a, b, c := line3(sim)

	poke(sim, nc, a)
	poke(sim, nc, c)
	sim.CatchUp(1000)

	// one more block on top of somebody's tip outgrows the rival chain
	poke(sim, nc, b)
	sim.CatchUp(2000)

	tip := StateOf(sim.World(), b).Tip()
	for _, n := range []world.Entity{a, b, c} {
		st := StateOf(sim.World(), n)
		require.Equal(t, tip, st.Tip())
		require.Equal(t, 2, st.TipHeight())
	}
}

func TestRecoversFromNetworkSplit(t *testing.T) {
	sim := simulation.New(1)
	nc := New()
	sim.AddProtocol(nc)
	a := spawnNodeAt(sim, "a", 100, 100)
	b := spawnNodeAt(sim, "b", 200, 100)

	// partitioned: a mines three blocks, b mines two
	for i := 0; i < 3; i++ {
		poke(sim, nc, a)
	}
	poke(sim, nc, b)
	poke(sim, nc, b)
	sim.CatchUp(100)
	require.Equal(t, 3, StateOf(sim.World(), a).TipHeight())
	require.Equal(t, 2, StateOf(sim.World(), b).TipHeight())

	// healing the partition replays all blocks in height order, so the
	// shorter side reorgs onto the longer chain
	linkBoth(sim, a, b)
	sim.CatchUp(1000)

	require.Equal(t, StateOf(sim.World(), a).Tip(), StateOf(sim.World(), b).Tip())
	require.Equal(t, 3, StateOf(sim.World(), b).TipHeight())
	require.Len(t, StateOf(sim.World(), b).AllBlocksSorted(), 5)
}

func TestEveryChainWalksBackToGenesis(t *testing.T) {
	sim := simulation.New(1)
	nc := New()
	sim.AddProtocol(nc)
	a, b, c := line3(sim)

	poke(sim, nc, a)
	poke(sim, nc, c)
	sim.CatchUp(1000)
	poke(sim, nc, b)
	sim.CatchUp(2000)

	for _, n := range []world.Entity{a, b, c} {
		st := StateOf(sim.World(), n)
		visited := make(map[Hash]struct{})
		heads := append(st.ForkTips(), st.Tip())
		for _, head := range heads {
			for h := head; !h.IsGenesis(); {
				visited[h] = struct{}{}
				prev, err := st.PrevOf(h)
				require.NoError(t, err, "every stored block has a stored ancestor chain")
				h = prev
			}
		}
		require.Len(t, visited, len(st.AllBlocksSorted()), "no block is unreachable from the chain heads")
	}
}

func TestMinedBlockBuildsOnOwnTip(t *testing.T) {
	sim := simulation.New(1)
	nc := New()
	sim.AddProtocol(nc)
	a := spawnNodeAt(sim, "a", 100, 100)

	poke(sim, nc, a)
	poke(sim, nc, a)

	st := StateOf(sim.World(), a)
	require.Equal(t, 2, st.TipHeight())
	prev, err := st.PrevOf(st.Tip())
	require.NoError(t, err)
	require.False(t, prev.IsGenesis())
}

func TestToNumberIsStable(t *testing.T) {
	var h Hash
	h[0] = 3
	require.Equal(t, uint32(45), ToNumber(h))
	require.Equal(t, ToNumber(h), ToNumber(h))
}
