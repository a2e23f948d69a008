// Package view derives read-only render state from the world: the topology
// edge map, in-flight message positions and a height-sliced cutout of a
// node's block tree. Nothing in here mutates the simulation.
package view

import (
	"sort"

	"github.com/wiberlin/isds-bitcoin-prototype/consensus"
	"github.com/wiberlin/isds-bitcoin-prototype/interfaces"
	"github.com/wiberlin/isds-bitcoin-prototype/peers"
	"github.com/wiberlin/isds-bitcoin-prototype/underlay"
	"github.com/wiberlin/isds-bitcoin-prototype/world"
)

type EdgeType int

const (
	// Connection is an edge both endpoints agree on.
	Connection EdgeType = iota
	// Phantom is a one-directional edge, drawn differently so asymmetric
	// topologies stand out.
	Phantom
)

func (t EdgeType) String() string {
	if t == Phantom {
		return "phantom"
	}
	return "connection"
}

// EdgeEndpoints is an unordered node pair in normalized order.
type EdgeEndpoints struct {
	Left, Right world.Entity
}

func NewEdgeEndpoints(a, b world.Entity) EdgeEndpoints {
	if b < a {
		a, b = b, a
	}
	return EdgeEndpoints{Left: a, Right: b}
}

type Edge struct {
	Type EdgeType
	Line underlay.Line
}

// EdgeMap caches the undirected edge set derived from all peer sets. It is
// rebuilt lazily: peer sets stamp their last change, and the map only
// recomputes when some stamp is newer than the last build.
type EdgeMap struct {
	edges     map[EdgeEndpoints]Edge
	builtAt   interfaces.SimSeconds
	everBuilt bool
}

func NewEdgeMap() *EdgeMap {
	return &EdgeMap{edges: make(map[EdgeEndpoints]Edge)}
}

// RebuildIfNeeded recomputes the edge map when any peer set changed since
// the last build. Returns whether a rebuild happened.
func (m *EdgeMap) RebuildIfNeeded(w *world.World) bool {
	var latest interfaces.SimSeconds
	for _, it := range world.Query[peers.PeerSet](w) {
		if lu := it.C.LastUpdate(); lu > latest {
			latest = lu
		}
	}
	if m.everBuilt && latest <= m.builtAt {
		return false
	}
	m.rebuild(w)
	m.builtAt = latest
	m.everBuilt = true
	return true
}

func (m *EdgeMap) rebuild(w *world.World) {
	directed := make(map[EdgeEndpoints]int)
	for _, it := range world.Query[peers.PeerSet](w) {
		for _, peer := range it.C.List() {
			directed[NewEdgeEndpoints(it.Entity, peer)]++
		}
	}
	m.edges = make(map[EdgeEndpoints]Edge, len(directed))
	for ep, count := range directed {
		edge := Edge{Type: Phantom}
		if count > 1 {
			edge.Type = Connection
		}
		start, okStart := world.Get[underlay.Position](w, ep.Left)
		end, okEnd := world.Get[underlay.Position](w, ep.Right)
		if okStart && okEnd {
			edge.Line = underlay.Line{Start: *start, End: *end}
		}
		m.edges[ep] = edge
	}
}

func (m *EdgeMap) Edge(a, b world.Entity) (Edge, bool) {
	e, ok := m.edges[NewEdgeEndpoints(a, b)]
	return e, ok
}

func (m *EdgeMap) Len() int {
	return len(m.edges)
}

// Endpoints returns all edge endpoints in a deterministic order.
func (m *EdgeMap) Endpoints() []EdgeEndpoints {
	out := make([]EdgeEndpoints, 0, len(m.edges))
	for ep := range m.edges {
		out = append(out, ep)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Left != out[j].Left {
			return out[i].Left < out[j].Left
		}
		return out[i].Right < out[j].Right
	})
	return out
}

// MessageInFlight is a message snapshot for rendering, with its current
// interpolated position.
type MessageInFlight struct {
	Entity   world.Entity
	Source   world.Entity
	Dest     world.Entity
	Position underlay.Position
}

// MessagesInFlight snapshots every undelivered message at virtual time now.
func MessagesInFlight(w *world.World, now interfaces.SimSeconds) []MessageInFlight {
	var out []MessageInFlight
	for _, it := range world.Query2[interfaces.Envelope, underlay.Line](w) {
		pos := it.B.Start
		if ts, ok := world.Get[underlay.TimeSpan](w, it.Entity); ok {
			pos = it.B.PositionAt(ts.Progress(now))
		}
		out = append(out, MessageInFlight{
			Entity:   it.Entity,
			Source:   it.A.Source,
			Dest:     it.A.Dest,
			Position: pos,
		})
	}
	return out
}

// BlocksCutout groups one node's known blocks by height, ascending, keeping
// only the maxRows highest rows. Blocks within a row are in the sorted order
// of AllBlocksSorted, so siblings render stably across frames.
func BlocksCutout(st *consensus.NakamotoNodeState, maxRows int) [][]consensus.Block {
	blocks := st.AllBlocksSorted()
	if len(blocks) == 0 || maxRows <= 0 {
		return nil
	}
	byHeight := make(map[int][]consensus.Block)
	maxHeight := 0
	for _, b := range blocks {
		h, err := st.Height(b.Hash)
		if err != nil {
			continue
		}
		byHeight[h] = append(byHeight[h], b)
		if h > maxHeight {
			maxHeight = h
		}
	}
	firstVisible := maxHeight - maxRows + 1
	if firstVisible < 1 {
		firstVisible = 1
	}
	var rows [][]consensus.Block
	for h := firstVisible; h <= maxHeight; h++ {
		rows = append(rows, byHeight[h])
	}
	return rows
}
