// Package flooding implements generic epidemic dissemination: every node
// forwards a received item to all peers that are not yet known to have it.
// Per-peer bookkeeping bounds the number of sends by items times peer edges,
// which is what makes the broadcast terminate.
package flooding

import (
	"errors"

	"github.com/wiberlin/isds-bitcoin-prototype/interfaces"
	"github.com/wiberlin/isds-bitcoin-prototype/peers"
	"github.com/wiberlin/isds-bitcoin-prototype/util/metrics"
	"github.com/wiberlin/isds-bitcoin-prototype/world"
)

// Message is the payload component a flooded item travels in.
type Message[T comparable] struct {
	Item T
}

type peerBook[T comparable] struct {
	sent     map[T]struct{}
	received map[T]struct{}
}

func newPeerBook[T comparable]() *peerBook[T] {
	return &peerBook[T]{sent: make(map[T]struct{}), received: make(map[T]struct{})}
}

// State is the per-node flooding bookkeeping: which items this node knows,
// in first-seen order, and which items have been exchanged with which peer.
type State[T comparable] struct {
	known    []T
	knownSet map[T]struct{}
	books    map[world.Entity]*peerBook[T]
}

func newState[T comparable]() *State[T] {
	return &State[T]{
		knownSet: make(map[T]struct{}),
		books:    make(map[world.Entity]*peerBook[T]),
	}
}

// StateOf returns node's flooding state for payload type T, attaching an
// empty one first if needed.
func StateOf[T comparable](w *world.World, node world.Entity) *State[T] {
	if st, ok := world.Get[State[T]](w, node); ok {
		return st
	}
	st := newState[T]()
	world.Insert(w, node, st)
	return st
}

func (st *State[T]) addKnown(item T) {
	if _, ok := st.knownSet[item]; ok {
		return
	}
	st.knownSet[item] = struct{}{}
	st.known = append(st.known, item)
}

// Known returns the node's known items in first-seen order.
func (st *State[T]) Known() []T {
	out := make([]T, len(st.known))
	copy(out, st.known)
	return out
}

func (st *State[T]) book(peer world.Entity) *peerBook[T] {
	b, ok := st.books[peer]
	if !ok {
		b = newPeerBook[T]()
		st.books[peer] = b
	}
	return b
}

// PeerHas reports whether the peer is known to have the item, because we
// sent it to them or received it from them.
func (st *State[T]) PeerHas(peer world.Entity, item T) bool {
	b, ok := st.books[peer]
	if !ok {
		return false
	}
	if _, ok := b.sent[item]; ok {
		return true
	}
	_, ok = b.received[item]
	return ok
}

func (st *State[T]) markSent(peer world.Entity, item T) {
	st.book(peer).sent[item] = struct{}{}
}

func (st *State[T]) markReceived(peer world.Entity, item T) {
	st.book(peer).received[item] = struct{}{}
}

// Forget drops all bookkeeping about the peer, so a later re-add starts
// fresh.
func (st *State[T]) Forget(peer world.Entity) {
	delete(st.books, peer)
}

// Flooding is the protocol. It is stateless about specific nodes: all
// per-node state lives in the world as State[T] components.
type Flooding[T comparable] struct{}

func New[T comparable]() *Flooding[T] {
	return &Flooding[T]{}
}

func (f *Flooding[T]) Name() string {
	return "flooding"
}

// Flood sends item toward every current peer not yet known to have it and
// records the sends.
func Flood[T comparable](h interfaces.NodeHandle, item T) error {
	w := h.World()
	st := StateOf[T](w, h.Node)
	st.addKnown(item)
	var errs error
	for _, peer := range peers.Of(w, h.Node).List() {
		if st.PeerHas(peer, item) {
			continue
		}
		if err := send(h, st, peer, item); err != nil {
			errs = errors.Join(errs, err)
		}
	}
	return errs
}

// FloodPeerWith replays an ordered batch of already-known items to one peer
// regardless of prior bookkeeping, so a newly joined peer can catch up.
func FloodPeerWith[T comparable](h interfaces.NodeHandle, peer world.Entity, items []T) error {
	st := StateOf[T](h.World(), h.Node)
	var errs error
	for _, item := range items {
		st.addKnown(item)
		if err := send(h, st, peer, item); err != nil {
			errs = errors.Join(errs, err)
		}
	}
	return errs
}

// ForgetPeer drops the node's bookkeeping for one peer.
func ForgetPeer[T comparable](h interfaces.NodeHandle, peer world.Entity) {
	StateOf[T](h.World(), h.Node).Forget(peer)
}

func send[T comparable](h interfaces.NodeHandle, st *State[T], peer world.Entity, item T) error {
	msg, err := h.Sim.SpawnMessage(h.Node, peer)
	if err != nil {
		return err
	}
	world.Insert(h.World(), msg, &Message[T]{Item: item})
	st.markSent(peer, item)
	metrics.Counter(interfaces.METRIC_FLOOD_SENT.String(), 1)
	return nil
}

// HandleMessage re-floods a received item to all peers other than the
// sender that are not yet known to have it; bookkeeping guarantees each
// peer edge carries an item at most once per direction.
func (f *Flooding[T]) HandleMessage(h interfaces.NodeHandle, env interfaces.Envelope, payload world.Entity) error {
	w := h.World()
	msg, ok := world.Get[Message[T]](w, payload)
	if !ok {
		// not our payload
		return nil
	}
	st := StateOf[T](w, h.Node)
	st.addKnown(msg.Item)
	st.markReceived(env.Source, msg.Item)
	var errs error
	for _, peer := range peers.Of(w, h.Node).List() {
		if peer == env.Source || st.PeerHas(peer, msg.Item) {
			continue
		}
		if err := send(h, st, peer, msg.Item); err != nil {
			errs = errors.Join(errs, err)
		}
	}
	return errs
}

// HandlePoke is a no-op: flooding only reacts, it does not originate.
func (f *Flooding[T]) HandlePoke(h interfaces.NodeHandle) error {
	return nil
}

// HandlePeerSetUpdate replays everything the node knows to a newly added
// peer and forgets bookkeeping for a removed one.
func (f *Flooding[T]) HandlePeerSetUpdate(h interfaces.NodeHandle, update interfaces.PeerSetUpdate) error {
	switch update.Kind {
	case interfaces.PeerAdded:
		st := StateOf[T](h.World(), h.Node)
		return FloodPeerWith(h, update.Peer, st.Known())
	case interfaces.PeerRemoved:
		ForgetPeer[T](h, update.Peer)
	}
	return nil
}
