package world

import (
	"reflect"
	"sort"
)

// Entity is an opaque, totally-ordered handle for a simulated thing (a node,
// an in-flight message). Existence in the World is its only intrinsic state;
// everything else hangs off it as components.
type Entity uint64

// World owns all entity and component data of one simulation. Components are
// heterogeneous and independently attached per entity; they are stored by
// pointer so that a handler holding one mutates it in place.
type World struct {
	next   Entity
	alive  map[Entity]struct{}
	stores map[reflect.Type]map[Entity]any
}

func New() *World {
	return &World{
		alive:  make(map[Entity]struct{}),
		stores: make(map[reflect.Type]map[Entity]any),
	}
}

// Spawn creates a fresh entity with no components attached.
func (w *World) Spawn() Entity {
	w.next++
	e := w.next
	w.alive[e] = struct{}{}
	return e
}

// Despawn removes the entity and every component attached to it. Despawning
// an unknown entity is a no-op.
func (w *World) Despawn(e Entity) {
	if _, ok := w.alive[e]; !ok {
		return
	}
	delete(w.alive, e)
	for _, store := range w.stores {
		delete(store, e)
	}
}

func (w *World) Contains(e Entity) bool {
	_, ok := w.alive[e]
	return ok
}

func (w *World) Len() int {
	return len(w.alive)
}

// Entities returns all live entities in ascending handle order.
func (w *World) Entities() []Entity {
	out := make([]Entity, 0, len(w.alive))
	for e := range w.alive {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Insert attaches c to e, replacing any previous component of the same type.
// Inserting on a despawned entity is a no-op.
func Insert[T any](w *World, e Entity, c *T) {
	if _, ok := w.alive[e]; !ok {
		return
	}
	key := reflect.TypeOf((*T)(nil))
	store, ok := w.stores[key]
	if !ok {
		store = make(map[Entity]any)
		w.stores[key] = store
	}
	store[e] = c
}

// Get returns e's component of type T, if attached.
func Get[T any](w *World, e Entity) (*T, bool) {
	store, ok := w.stores[reflect.TypeOf((*T)(nil))]
	if !ok {
		return nil, false
	}
	c, ok := store[e]
	if !ok {
		return nil, false
	}
	return c.(*T), true
}

func Has[T any](w *World, e Entity) bool {
	_, ok := Get[T](w, e)
	return ok
}

// Remove detaches e's component of type T, if attached.
func Remove[T any](w *World, e Entity) {
	if store, ok := w.stores[reflect.TypeOf((*T)(nil))]; ok {
		delete(store, e)
	}
}

// Item pairs an entity with one of its components.
type Item[T any] struct {
	Entity Entity
	C      *T
}

// Query returns every entity carrying a T, in ascending entity order,
// evaluated eagerly at call time.
func Query[T any](w *World) []Item[T] {
	store := w.stores[reflect.TypeOf((*T)(nil))]
	out := make([]Item[T], 0, len(store))
	for e, c := range store {
		out = append(out, Item[T]{Entity: e, C: c.(*T)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Entity < out[j].Entity })
	return out
}

// Item2 pairs an entity with two of its components.
type Item2[A, B any] struct {
	Entity Entity
	A      *A
	B      *B
}

// Query2 returns every entity carrying both an A and a B, in ascending
// entity order.
func Query2[A, B any](w *World) []Item2[A, B] {
	out := make([]Item2[A, B], 0)
	for _, item := range Query[A](w) {
		if b, ok := Get[B](w, item.Entity); ok {
			out = append(out, Item2[A, B]{Entity: item.Entity, A: item.C, B: b})
		}
	}
	return out
}
