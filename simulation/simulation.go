// Package simulation ties the world, the event queue, the virtual clock and
// the installed protocols together behind interfaces.ISimulation.
package simulation

import (
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/wiberlin/isds-bitcoin-prototype/event"
	"github.com/wiberlin/isds-bitcoin-prototype/event/events"
	"github.com/wiberlin/isds-bitcoin-prototype/interfaces"
	"github.com/wiberlin/isds-bitcoin-prototype/underlay"
	"github.com/wiberlin/isds-bitcoin-prototype/util/logger"
	"github.com/wiberlin/isds-bitcoin-prototype/util/metrics"
	"github.com/wiberlin/isds-bitcoin-prototype/util/random"
	"github.com/wiberlin/isds-bitcoin-prototype/world"
)

// messageLogCap bounds the in-memory log shown to observers.
const messageLogCap = 12

// LogEntry is one line of the bounded observer log.
type LogEntry struct {
	At   interfaces.SimSeconds
	Text string
}

type Simulation struct {
	world      *world.World
	queue      *event.Queue
	now        interfaces.SimSeconds
	rng        *rand.Rand
	protocols  []interfaces.IProtocol
	messageLog []LogEntry
}

// New builds an empty simulation at virtual time zero. The seed fixes the
// simulation RNG; two runs with the same seed and the same inputs produce
// identical traces.
func New(seed uint64) *Simulation {
	return &Simulation{
		world: world.New(),
		queue: event.NewQueue(),
		rng:   rand.New(random.NewSource(seed)),
	}
}

// AddProtocol installs a protocol; installation order is dispatch order.
func (s *Simulation) AddProtocol(p interfaces.IProtocol) {
	s.protocols = append(s.protocols, p)
}

func (s *Simulation) Protocols() []interfaces.IProtocol {
	return s.protocols
}

func (s *Simulation) World() *world.World {
	return s.world
}

func (s *Simulation) Rng() *rand.Rand {
	return s.rng
}

func (s *Simulation) Now() interfaces.SimSeconds {
	return s.now
}

// Schedule enqueues ev at due; a due time already in the past fires at the
// current clock instead, so the clock never runs backward.
func (s *Simulation) Schedule(due interfaces.SimSeconds, ev interfaces.IEvent) {
	if due < s.now {
		due = s.now
	}
	s.queue.Add(due, ev)
}

func (s *Simulation) ScheduleNow(ev interfaces.IEvent) {
	s.queue.Add(s.now, ev)
}

// CatchUp executes every pending event due at or before target in due-time
// order, advancing the clock to each event's due time before it runs, and
// leaves the clock at target even if the queue drained early. Events
// scheduled during the pass are processed in the same pass when they fall
// inside the horizon.
func (s *Simulation) CatchUp(target interfaces.SimSeconds) {
	for {
		due, ok := s.queue.NextDue()
		if !ok || due > target {
			break
		}
		due, ev := s.queue.NextEvent()
		if due > s.now {
			s.now = due
		}
		ev.Execute(s)
		metrics.Counter(interfaces.METRIC_EVENTS_EXECUTED.String(), 1)
	}
	if target > s.now {
		s.now = target
	}
}

func (s *Simulation) PendingEvents() int {
	return s.queue.Length()
}

// SpawnRandomNode creates a node with a random four-digit name, placed
// uniformly inside the underlay bounds with a margin so nodes never sit on
// the edge.
func (s *Simulation) SpawnRandomNode() world.Entity {
	node := s.world.Spawn()
	world.Insert(s.world, node, &underlay.NodeID{
		Name: fmt.Sprintf("node%04d", s.rng.Intn(10000)),
	})
	world.Insert(s.world, node, &underlay.Position{
		X: underlay.BufferZone + s.rng.Float64()*(underlay.NetMaxX-2*underlay.BufferZone),
		Y: underlay.BufferZone + s.rng.Float64()*(underlay.NetMaxY-2*underlay.BufferZone),
	})
	return node
}

// SpawnMessage creates an in-flight message entity from source to dest and
// schedules its arrival; flight time is proportional to underlay distance.
// The payload component, if any, is attached by the caller.
func (s *Simulation) SpawnMessage(source, dest world.Entity) (world.Entity, error) {
	if !s.world.Contains(source) || !s.world.Contains(dest) {
		return 0, fmt.Errorf("spawn message %v -> %v: %w", source, dest, interfaces.ErrUnknownSimEntity)
	}
	start, ok := world.Get[underlay.Position](s.world, source)
	if !ok {
		return 0, fmt.Errorf("message source %s: %w", s.Name(source), interfaces.ErrMissingPosition)
	}
	end, ok := world.Get[underlay.Position](s.world, dest)
	if !ok {
		return 0, fmt.Errorf("message dest %s: %w", s.Name(dest), interfaces.ErrMissingPosition)
	}

	flight := underlay.FlightDuration(*start, *end)
	msg := s.world.Spawn()
	world.Insert(s.world, msg, &interfaces.Envelope{Source: source, Dest: dest})
	world.Insert(s.world, msg, &underlay.Line{Start: *start, End: *end})
	world.Insert(s.world, msg, &underlay.TimeSpan{Start: s.now, End: s.now + flight})

	s.Schedule(s.now+flight, events.NewMessageArrivedEvent(msg))
	metrics.Counter(interfaces.METRIC_MESSAGE_SENT.String(), 1)
	s.Log(s.now, fmt.Sprintf("%s: Sending a message to %s", s.Name(source), s.Name(dest)))
	return msg, nil
}

// SpawnMessageBetweenRandomNodes launches a payload-less message between two
// distinct random nodes.
func (s *Simulation) SpawnMessageBetweenRandomNodes() (world.Entity, error) {
	nodes := s.nodes()
	if len(nodes) < 2 {
		return 0, fmt.Errorf("spawn random message: %w", interfaces.ErrNotEnoughNodes)
	}
	i := s.rng.Intn(len(nodes))
	j := s.rng.Intn(len(nodes) - 1)
	if j >= i {
		j++
	}
	return s.SpawnMessage(nodes[i], nodes[j])
}

// SpawnMessageToRandomNode launches a payload-less message from source to
// some other random node.
func (s *Simulation) SpawnMessageToRandomNode(source world.Entity) (world.Entity, error) {
	var candidates []world.Entity
	for _, n := range s.nodes() {
		if n != source {
			candidates = append(candidates, n)
		}
	}
	if len(candidates) == 0 {
		return 0, fmt.Errorf("spawn message from %s: %w", s.Name(source), interfaces.ErrNotEnoughNodes)
	}
	return s.SpawnMessage(source, candidates[s.rng.Intn(len(candidates))])
}

func (s *Simulation) nodes() []world.Entity {
	items := world.Query[underlay.NodeID](s.world)
	out := make([]world.Entity, len(items))
	for i, it := range items {
		out[i] = it.Entity
	}
	return out
}

// Name returns a node's display name; entities without one get a numeric
// placeholder.
func (s *Simulation) Name(e world.Entity) string {
	if id, ok := world.Get[underlay.NodeID](s.world, e); ok {
		return id.Name
	}
	return fmt.Sprintf("#%d", e)
}

// Log appends one line to the bounded observer log, newest first, and mirrors
// it to the structured logger.
func (s *Simulation) Log(at interfaces.SimSeconds, text string) {
	s.messageLog = append([]LogEntry{{At: at, Text: text}}, s.messageLog...)
	if len(s.messageLog) > messageLogCap {
		s.messageLog = s.messageLog[:messageLogCap]
	}
	logger.Sim(at, text)
}

// MessageLog returns the retained log lines, newest first.
func (s *Simulation) MessageLog() []LogEntry {
	out := make([]LogEntry, len(s.messageLog))
	copy(out, s.messageLog)
	return out
}
