package stats

import (
	"encoding/json"
	"os"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/wiberlin/isds-bitcoin-prototype/consensus"
	"github.com/wiberlin/isds-bitcoin-prototype/interfaces"
	"github.com/wiberlin/isds-bitcoin-prototype/peers"
	"github.com/wiberlin/isds-bitcoin-prototype/underlay"
	"github.com/wiberlin/isds-bitcoin-prototype/util/file"
	"github.com/wiberlin/isds-bitcoin-prototype/view"
	"github.com/wiberlin/isds-bitcoin-prototype/world"
)

type NodeState struct {
	Name       string
	X          float64
	Y          float64
	Peers      string
	TipHeight  int
	BlockCount int
	ForkTips   int
}

// PrintWorld dumps every node's end-of-run state as JSON.
func PrintWorld(sim interfaces.ISimulation, f *os.File) {
	var nodes []NodeState
	// query order is ascending entity order, deterministic across runs
	for _, it := range world.Query[underlay.NodeID](sim.World()) {
		n := NodeState{Name: it.C.Name}
		if pos, ok := world.Get[underlay.Position](sim.World(), it.Entity); ok {
			n.X, n.Y = pos.X, pos.Y
		}
		if ps, ok := world.Get[peers.PeerSet](sim.World(), it.Entity); ok {
			names := make([]string, 0, ps.Len())
			for _, peer := range ps.List() {
				names = append(names, sim.Name(peer))
			}
			n.Peers = strings.Join(names, ",")
		}
		if st, ok := world.Get[consensus.NakamotoNodeState](sim.World(), it.Entity); ok {
			n.TipHeight = st.TipHeight()
			n.BlockCount = len(st.AllBlocksSorted())
			n.ForkTips = len(st.ForkTips())
		}
		nodes = append(nodes, n)
	}
	out, _ := json.Marshal(nodes)
	f.Write(out)
}

type StatsOverview struct {
	SimulatedTime      float64
	NodeCount          int
	TipHeightPerNode   map[string]int
	BlockCountPerNode  map[string]int
	MeanTipHeight      float64
	StdDevTipHeight    float64
	MeanBlockCount     float64
	StdDevBlockCount   float64
	NodesOnBestChain   int
	DistinctTipHeights int
	Edges              int
	PhantomEdges       int
}

func NewStatsOverview(sim interfaces.ISimulation, config *file.Config) *StatsOverview {
	overview := &StatsOverview{
		SimulatedTime:     float64(sim.Now()),
		TipHeightPerNode:  make(map[string]int),
		BlockCountPerNode: make(map[string]int),
	}

	var tipHeights, blockCounts []float64
	bestHeight := 0
	heights := make(map[int]struct{})
	for _, it := range world.Query2[underlay.NodeID, consensus.NakamotoNodeState](sim.World()) {
		h := it.B.TipHeight()
		overview.TipHeightPerNode[it.A.Name] = h
		overview.BlockCountPerNode[it.A.Name] = len(it.B.AllBlocksSorted())
		tipHeights = append(tipHeights, float64(h))
		blockCounts = append(blockCounts, float64(len(it.B.AllBlocksSorted())))
		heights[h] = struct{}{}
		if h > bestHeight {
			bestHeight = h
		}
		overview.NodeCount++
	}
	for _, h := range tipHeights {
		if int(h) == bestHeight {
			overview.NodesOnBestChain++
		}
	}
	overview.DistinctTipHeights = len(heights)

	edgeMap := view.NewEdgeMap()
	edgeMap.RebuildIfNeeded(sim.World())
	overview.Edges = edgeMap.Len()
	for _, ep := range edgeMap.Endpoints() {
		if edge, ok := edgeMap.Edge(ep.Left, ep.Right); ok && edge.Type == view.Phantom {
			overview.PhantomEdges++
		}
	}
	if len(tipHeights) > 0 {
		overview.MeanTipHeight = stat.Mean(tipHeights, nil)
		overview.StdDevTipHeight = stat.StdDev(tipHeights, nil)
		overview.MeanBlockCount = stat.Mean(blockCounts, nil)
		overview.StdDevBlockCount = stat.StdDev(blockCounts, nil)
	}
	return overview
}

func PrintStatsOverview(sim interfaces.ISimulation, f *os.File, config *file.Config) {
	statsOverview, _ := json.Marshal(NewStatsOverview(sim, config))
	f.Write(statsOverview)
}
