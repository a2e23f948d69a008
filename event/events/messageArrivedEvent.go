package events

import (
	"fmt"

	"github.com/wiberlin/isds-bitcoin-prototype/event"
	"github.com/wiberlin/isds-bitcoin-prototype/interfaces"
	"github.com/wiberlin/isds-bitcoin-prototype/util/metrics"
	"github.com/wiberlin/isds-bitcoin-prototype/world"
)

// MessageArrivedEvent fires when a message entity reaches the end of its
// time span. The message entity is despawned afterwards; a message whose
// entity or addressee is gone by then is a no-op.
type MessageArrivedEvent struct {
	event.Base
	Message world.Entity
}

func NewMessageArrivedEvent(message world.Entity) *MessageArrivedEvent {
	return &MessageArrivedEvent{Base: event.NewBase(interfaces.MESSAGE_ARRIVED_EVENT), Message: message}
}

func (ev *MessageArrivedEvent) Execute(sim interfaces.ISimulation) {
	w := sim.World()
	if !w.Contains(ev.Message) {
		metrics.Counter(interfaces.METRIC_MESSAGE_ORPHANED.String(), 1)
		return
	}
	defer w.Despawn(ev.Message)

	env, ok := world.Get[interfaces.Envelope](w, ev.Message)
	if !ok || !w.Contains(env.Dest) {
		metrics.Counter(interfaces.METRIC_MESSAGE_ORPHANED.String(), 1)
		return
	}
	metrics.Counter(interfaces.METRIC_MESSAGE_ARRIVED.String(), 1)
	sim.Log(sim.Now(), fmt.Sprintf("%s: got message from %s", sim.Name(env.Dest), sim.Name(env.Source)))

	if len(sim.Protocols()) == 0 {
		// demo mode: keep the traffic alive by forwarding to somebody else
		sim.SpawnMessageToRandomNode(env.Dest)
		return
	}
	dispatch(sim, env.Dest, interfaces.MESSAGE_ARRIVED_EVENT.String(), func(p interfaces.IProtocol, h interfaces.NodeHandle) error {
		return p.HandleMessage(h, *env, ev.Message)
	})
}
