package peers

import (
	"sort"

	"github.com/wiberlin/isds-bitcoin-prototype/interfaces"
	"github.com/wiberlin/isds-bitcoin-prototype/world"
)

// PeerSet is the per-node set of peers, stamped with the virtual time of its
// last successful change so observers can tell when a cached layout went
// stale. Peering is conceptually symmetric but not structurally enforced;
// callers issue both directions.
type PeerSet struct {
	peers      map[world.Entity]struct{}
	lastUpdate interfaces.SimSeconds
}

func NewPeerSet() *PeerSet {
	return &PeerSet{peers: make(map[world.Entity]struct{})}
}

// From builds a peer set with a zero update stamp. Only useful for tests
// really.
func From(peers ...world.Entity) *PeerSet {
	ps := NewPeerSet()
	for _, p := range peers {
		ps.peers[p] = struct{}{}
	}
	return ps
}

// Insert adds a peer and stamps the set; it reports whether the set changed.
func (ps *PeerSet) Insert(peer world.Entity, now interfaces.SimSeconds) bool {
	if _, ok := ps.peers[peer]; ok {
		return false
	}
	ps.peers[peer] = struct{}{}
	ps.lastUpdate = now
	return true
}

// Remove drops a peer and stamps the set; it reports whether the set
// changed.
func (ps *PeerSet) Remove(peer world.Entity, now interfaces.SimSeconds) bool {
	if _, ok := ps.peers[peer]; !ok {
		return false
	}
	delete(ps.peers, peer)
	ps.lastUpdate = now
	return true
}

// Clear empties the set and stamps it.
func (ps *PeerSet) Clear(now interfaces.SimSeconds) {
	ps.peers = make(map[world.Entity]struct{})
	ps.lastUpdate = now
}

func (ps *PeerSet) Contains(peer world.Entity) bool {
	_, ok := ps.peers[peer]
	return ok
}

func (ps *PeerSet) Len() int {
	return len(ps.peers)
}

func (ps *PeerSet) LastUpdate() interfaces.SimSeconds {
	return ps.lastUpdate
}

// List returns the peers in ascending entity order; protocols iterate this
// so that runs replay deterministically.
func (ps *PeerSet) List() []world.Entity {
	out := make([]world.Entity, 0, len(ps.peers))
	for p := range ps.peers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Of returns the node's peer set, attaching an empty one first if the node
// has none yet.
func Of(w *world.World, node world.Entity) *PeerSet {
	if ps, ok := world.Get[PeerSet](w, node); ok {
		return ps
	}
	ps := NewPeerSet()
	world.Insert(w, node, ps)
	return ps
}
