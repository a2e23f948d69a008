package interfaces

import (
	"errors"

	"golang.org/x/exp/rand"

	"github.com/wiberlin/isds-bitcoin-prototype/world"
)

// Envelope is the raw transport view of an in-flight message: who sent it
// and who it is addressed to. It is also the component attached to every
// message entity.
type Envelope struct {
	Source world.Entity
	Dest   world.Entity
}

// NodeHandle gives a protocol read/write access to the acting node's
// components, plus scheduling and randomness, via the explicit simulation
// handle.
type NodeHandle struct {
	Sim  ISimulation
	Node world.Entity
}

func (h NodeHandle) World() *world.World {
	return h.Sim.World()
}

func (h NodeHandle) Rng() *rand.Rand {
	return h.Sim.Rng()
}

func (h NodeHandle) Log(text string) {
	h.Sim.Log(h.Sim.Now(), h.Sim.Name(h.Node)+": "+text)
}

// IProtocol is the contract a plug-in protocol implements. Multiple
// protocols may be installed on the same simulation; each is dispatched
// independently, and a failure in one does not block the others.
type IProtocol interface {
	Name() string
	// HandleMessage is invoked when a message entity addressed to the
	// node reaches the end of its time span. The payload entity still
	// carries its components at this point; a protocol that finds no
	// payload of its own type must treat the message as not addressed to
	// it.
	HandleMessage(node NodeHandle, env Envelope, payload world.Entity) error
	// HandlePoke is invoked on external stimulus with no message context.
	HandlePoke(node NodeHandle) error
	// HandlePeerSetUpdate is invoked synchronously after the node's peer
	// set changed.
	HandlePeerSetUpdate(node NodeHandle, update PeerSetUpdate) error
}

type PeerSetUpdateKind int

const (
	PeerAdded PeerSetUpdateKind = iota
	PeerRemoved
)

func (k PeerSetUpdateKind) String() string {
	if k == PeerAdded {
		return "PeerAdded"
	}
	return "PeerRemoved"
}

// PeerSetUpdate describes one peer-set change delivered to the protocols of
// the affected node.
type PeerSetUpdate struct {
	Kind PeerSetUpdateKind
	Peer world.Entity
}

var (
	ErrUnknownBlock     = errors.New("unknown block")
	ErrNoTriangulation  = errors.New("no triangulation exists")
	ErrNotEnoughNodes   = errors.New("not enough nodes")
	ErrMissingPosition  = errors.New("entity has no underlay position")
	ErrUnknownSimEntity = errors.New("entity not in world")
)
