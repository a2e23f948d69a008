// Package consensus implements Nakamoto-style longest-chain consensus on
// top of flooding. Block identity is an independently drawn random 256-bit
// tag standing in for a hash, not a digest of content; collision and
// security properties are out of scope for this simulator.
package consensus

import (
	"bytes"
	"sort"

	"github.com/wiberlin/isds-bitcoin-prototype/flooding"
	"github.com/wiberlin/isds-bitcoin-prototype/interfaces"
	"github.com/wiberlin/isds-bitcoin-prototype/util/metrics"
	"github.com/wiberlin/isds-bitcoin-prototype/world"

	"golang.org/x/exp/rand"
)

// Hash is a 256-bit block identity tag. The all-zero value is the reserved
// genesis sentinel; it is never itself a stored block.
type Hash [32]byte

func (h Hash) IsGenesis() bool {
	return h == Hash{}
}

// ToNumber maps a hash to a small stable integer, used by renderers for
// visual block identity.
func ToNumber(h Hash) uint32 {
	var result uint32
	for i := uint32(0); i < 4; i++ {
		result += uint32(h[0]) * (1 << i)
	}
	return result
}

// Block is an identity tag plus the tag of its predecessor. Immutable once
// created.
type Block struct {
	Hash     Hash
	PrevHash Hash
}

// NewBlock draws a fresh random identity on top of prev.
func NewBlock(prev Hash, rng *rand.Rand) Block {
	var h Hash
	rng.Read(h[:])
	return Block{Hash: h, PrevHash: prev}
}

type heightBlock struct {
	height int
	block  Block
}

// NakamotoNodeState is one node's view of the block tree: every known block
// with its height, the current best tip and the set of fork tips. Superseded
// tips become fork tips, they are never deleted.
type NakamotoNodeState struct {
	allBlocks map[Hash]heightBlock
	tip       Hash
	forkTips  map[Hash]struct{}
}

func NewState() *NakamotoNodeState {
	return &NakamotoNodeState{
		allBlocks: make(map[Hash]heightBlock),
		forkTips:  make(map[Hash]struct{}),
	}
}

// StateOf returns the node's consensus state, attaching a fresh one if the
// node has none yet.
func StateOf(w *world.World, node world.Entity) *NakamotoNodeState {
	if st, ok := world.Get[NakamotoNodeState](w, node); ok {
		return st
	}
	st := NewState()
	world.Insert(w, node, st)
	return st
}

// RegisterBlock folds one block into the state. Idempotent: a known block is
// a no-op. A block extending the current tip advances it; a block extending
// any other known block (or genesis) becomes a fork tip and takes over as
// tip only if it is strictly higher than the current one, so a competing
// chain of equal height never displaces the tip. A block whose predecessor
// is unknown and not genesis is an orphan and is dropped silently; flooding
// is relied on to re-deliver it once the ancestor has arrived. The returned
// bool reports whether the tip changed.
func (s *NakamotoNodeState) RegisterBlock(block Block) bool {
	if _, known := s.allBlocks[block.Hash]; known {
		return false
	}
	if block.PrevHash == s.tip {
		s.allBlocks[block.Hash] = heightBlock{height: s.height(s.tip) + 1, block: block}
		s.tip = block.Hash
		return true
	}
	_, prevKnown := s.allBlocks[block.PrevHash]
	if block.PrevHash.IsGenesis() || prevKnown {
		s.allBlocks[block.Hash] = heightBlock{height: s.height(block.PrevHash) + 1, block: block}
		delete(s.forkTips, block.PrevHash) // can very well fail
		s.forkTips[block.Hash] = struct{}{}
		if s.height(block.Hash) > s.height(s.tip) {
			oldTip := s.tip
			s.tip = block.Hash
			delete(s.forkTips, block.Hash)
			s.forkTips[oldTip] = struct{}{}
			metrics.Counter(interfaces.METRIC_REORG.String(), 1)
			return true
		}
		return false
	}
	metrics.Counter(interfaces.METRIC_BLOCK_ORPHANED.String(), 1)
	return false
}

func (s *NakamotoNodeState) Tip() Hash {
	return s.tip
}

// ForkTips returns the fork-tip identities in a deterministic order.
func (s *NakamotoNodeState) ForkTips() []Hash {
	out := make([]Hash, 0, len(s.forkTips))
	for h := range s.forkTips {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i][:], out[j][:]) < 0 })
	return out
}

func (s *NakamotoNodeState) Knows(h Hash) bool {
	_, ok := s.allBlocks[h]
	return ok
}

// height assumes h is known or genesis; callers on the registration path
// have checked that already.
func (s *NakamotoNodeState) height(h Hash) int {
	if h.IsGenesis() {
		return 0
	}
	return s.allBlocks[h].height
}

// Height reports the height of a known block; the genesis sentinel has
// height 0. Asking about an unknown block is caller misuse.
func (s *NakamotoNodeState) Height(h Hash) (int, error) {
	if h.IsGenesis() {
		return 0, nil
	}
	hb, ok := s.allBlocks[h]
	if !ok {
		return 0, interfaces.ErrUnknownBlock
	}
	return hb.height, nil
}

// PrevOf reports the predecessor identity of a known block.
func (s *NakamotoNodeState) PrevOf(h Hash) (Hash, error) {
	hb, ok := s.allBlocks[h]
	if !ok {
		return Hash{}, interfaces.ErrUnknownBlock
	}
	return hb.block.PrevHash, nil
}

// TipHeight is the height of the current best tip.
func (s *NakamotoNodeState) TipHeight() int {
	return s.height(s.tip)
}

// AllBlocksSorted returns every stored block, forks included, sorted by
// ascending height. Replaying this on an empty state reconstructs the same
// tree without orphaning.
func (s *NakamotoNodeState) AllBlocksSorted() []Block {
	hbs := make([]heightBlock, 0, len(s.allBlocks))
	for _, hb := range s.allBlocks {
		hbs = append(hbs, hb)
	}
	sort.Slice(hbs, func(i, j int) bool {
		if hbs[i].height != hbs[j].height {
			return hbs[i].height < hbs[j].height
		}
		return bytes.Compare(hbs[i].block.Hash[:], hbs[j].block.Hash[:]) < 0
	})
	out := make([]Block, len(hbs))
	for i, hb := range hbs {
		out[i] = hb.block
	}
	return out
}

// NakamotoConsensus is the protocol; all per-node state lives in the world
// as NakamotoNodeState components.
type NakamotoConsensus struct {
	flooding *flooding.Flooding[Block]
}

func New() *NakamotoConsensus {
	return &NakamotoConsensus{flooding: flooding.New[Block]()}
}

func (n *NakamotoConsensus) Name() string {
	return "nakamotoConsensus"
}

// HandleMessage registers the delivered block, then delegates to flooding
// so the block continues propagating.
func (n *NakamotoConsensus) HandleMessage(h interfaces.NodeHandle, env interfaces.Envelope, payload world.Entity) error {
	msg, ok := world.Get[flooding.Message[Block]](h.World(), payload)
	if !ok {
		return nil
	}
	StateOf(h.World(), h.Node).RegisterBlock(msg.Item)
	metrics.Counter(interfaces.METRIC_BLOCK_REGISTERED.String(), 1)
	return n.flooding.HandleMessage(h, env, payload)
}

// HandlePoke mines: a fresh block on top of the node's current tip,
// registered locally and flooded to all peers.
func (n *NakamotoConsensus) HandlePoke(h interfaces.NodeHandle) error {
	h.Log("got poked, found a new block")
	st := StateOf(h.World(), h.Node)
	block := NewBlock(st.Tip(), h.Rng())
	st.RegisterBlock(block)
	metrics.Counter(interfaces.METRIC_BLOCK_MINED.String(), 1)
	return flooding.Flood(h, block)
}

// HandlePeerSetUpdate sends a newly added peer the whole known block set in
// ascending height order and clears flooding bookkeeping for a removed one.
func (n *NakamotoConsensus) HandlePeerSetUpdate(h interfaces.NodeHandle, update interfaces.PeerSetUpdate) error {
	switch update.Kind {
	case interfaces.PeerAdded:
		blocks := StateOf(h.World(), h.Node).AllBlocksSorted()
		return flooding.FloodPeerWith(h, update.Peer, blocks)
	case interfaces.PeerRemoved:
		flooding.ForgetPeer[Block](h, update.Peer)
	}
	return nil
}
