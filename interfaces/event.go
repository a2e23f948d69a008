package interfaces

type IEvent interface {
	Type() IEventType
	// Execute runs the event against the simulation at its scheduled due
	// time; the clock has already advanced when it is called. An event
	// whose target entity is gone must treat that as a no-op.
	Execute(sim ISimulation)
}

type eventType string

type IEventType interface {
	getType() eventType
	String() string
}

// this is just for preventing simple strings from being used as IEventType
func (evType eventType) getType() eventType {
	return evType
}

func (evType eventType) String() string {
	return string(evType)
}

// add event types here
const (
	MESSAGE_ARRIVED_EVENT       = eventType("MessageArrivedEvent")
	POKE_NODE_EVENT             = eventType("PokeNodeEvent")
	POKE_RANDOM_NODES_EVENT     = eventType("PokeRandomNodesEvent")
	PEER_SET_CHANGED_EVENT      = eventType("PeerSetChangedEvent")
	ADD_PEER_COMMAND            = eventType("AddPeerCommand")
	REMOVE_PEER_COMMAND         = eventType("RemovePeerCommand")
	MAKE_DELAUNAY_COMMAND       = eventType("MakeDelaunayNetworkCommand")
	ADD_RANDOM_PEERS_COMMAND    = eventType("AddRandomPeersCommand")
	SPAWN_RANDOM_NODES_EVENT    = eventType("SpawnRandomNodesEvent")
	SPAWN_RANDOM_MESSAGES_EVENT = eventType("SpawnRandomMessagesEvent")
)
