package interfaces

import (
	"golang.org/x/exp/rand"

	"github.com/wiberlin/isds-bitcoin-prototype/world"
)

// SimSeconds is virtual time: simulated seconds since the start of the run.
// It never goes backward.
type SimSeconds float64

// ISimulation is the handle every operation takes explicitly; there is no
// ambient simulation instance. It bundles the world, the virtual clock, the
// scheduler, the run's RNG and the installed protocol set.
type ISimulation interface {
	// Now returns the current virtual time.
	Now() SimSeconds
	// Schedule enqueues an event; a due time earlier than the current
	// clock is clamped to it.
	Schedule(due SimSeconds, ev IEvent)
	// ScheduleNow enqueues an event at the current virtual time.
	ScheduleNow(ev IEvent)
	// CatchUp processes every pending event due at or before target and
	// leaves the clock at target.
	CatchUp(target SimSeconds)
	World() *world.World
	Rng() *rand.Rand
	// Protocols returns the installed protocol set in installation order.
	Protocols() []IProtocol
	// SpawnMessage creates an in-flight message entity from source to
	// dest, with flight time derived from underlay distance, and
	// schedules its arrival. The caller attaches the payload component.
	SpawnMessage(source, dest world.Entity) (world.Entity, error)
	// SpawnRandomNode creates a node with a random name and position.
	SpawnRandomNode() world.Entity
	// SpawnMessageBetweenRandomNodes launches a payload-less message
	// between two distinct random nodes, if at least two exist.
	SpawnMessageBetweenRandomNodes() (world.Entity, error)
	// SpawnMessageToRandomNode launches a payload-less message from
	// source to some other random node, if one exists.
	SpawnMessageToRandomNode(source world.Entity) (world.Entity, error)
	// Name returns a node's display name, or a placeholder for entities
	// without one.
	Name(e world.Entity) string
	// Log appends to the bounded in-memory message log shown to
	// observers.
	Log(at SimSeconds, text string)
}

type IQueue interface {
	Add(due SimSeconds, ev IEvent)
	// NextEvent pops the earliest-due pending event. Events due at the
	// same time are served in scheduling order.
	NextEvent() (SimSeconds, IEvent)
	// NextDue peeks at the earliest pending due time.
	NextDue() (SimSeconds, bool)
	Length() int
}
