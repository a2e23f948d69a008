package main

import (
	"log"

	"github.com/wiberlin/isds-bitcoin-prototype/consensus"
	"github.com/wiberlin/isds-bitcoin-prototype/event/events"
	"github.com/wiberlin/isds-bitcoin-prototype/interfaces"
	"github.com/wiberlin/isds-bitcoin-prototype/peers"
	"github.com/wiberlin/isds-bitcoin-prototype/simulation"
	"github.com/wiberlin/isds-bitcoin-prototype/util/file"
	"github.com/wiberlin/isds-bitcoin-prototype/util/random"
	"github.com/wiberlin/isds-bitcoin-prototype/world"
)

func createSimulation(config *file.Config) *simulation.Simulation {
	sim := simulation.New(config.Seed())
	sim.AddProtocol(consensus.New())

	// nodes first, then wiring; peer-set updates flood known blocks so the
	// order matters once mining has started
	nodes := make([]world.Entity, 0, config.NodeCount())
	for i := 0; i < config.NodeCount(); i++ {
		nodes = append(nodes, sim.SpawnRandomNode())
	}

	switch config.Topology() {
	case "delaunay", "":
		err := peers.MakeDelaunayNetwork(sim)
		if err != nil {
			log.Panic(err)
		}
	case "random":
		for _, node := range nodes {
			peers.AddRandomPeers(sim, node, config.RandomPeersMin(), config.RandomPeersMax())
		}
	}

	schedulePokes(sim, config)

	if config.DemoMessages() > 0 {
		sim.ScheduleNow(events.NewSpawnRandomMessagesEvent(config.DemoMessages()))
	}

	return sim
}

// schedulePokes pre-schedules the whole mining timeline: one random node is
// poked at random intervals drawn from the configured distribution. A
// dedicated source keeps the timeline stable no matter what the simulation
// RNG is used for in between.
func schedulePokes(sim *simulation.Simulation, config *file.Config) {
	dist := config.PokeInterval()
	if dist.Distribution == "" {
		return
	}
	intervals := random.GetDist(dist.Distribution, dist.Params, random.NewSource(config.Seed()+1))
	for t := intervals.Rand(); t < config.EndTime(); t += intervals.Rand() {
		sim.Schedule(interfaces.SimSeconds(t), events.NewPokeRandomNodesEvent(1))
	}
}
