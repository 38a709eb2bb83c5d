package world

import (
	"sort"

	"tileworld.ai/internal/sim/world/nav"
	"tileworld.ai/internal/sim/world/position"
	"tileworld.ai/internal/sim/world/stream"
)

type EntityID uint64

// Entity is one agent. Goal, when non-zero, is the ID of the entity it follows.
type Entity struct {
	ID   EntityID
	Name string
	Pos  position.Pos

	Loader      bool
	LoaderRange int

	Goal  EntityID
	Delta position.Pos
	Path  *nav.Pathing

	// The health pass removes the entity once this drops to 0 or below.
	Health int
}

// DefaultHealth is used when a SpawnSpec leaves Health unset.
const DefaultHealth = 1

// Int returns a pointer to v for the optional SpawnSpec fields.
// LoaderRange: Int(0) keeps only the loader's own chunk resident.
func Int(v int) *int { return &v }

type SpawnSpec struct {
	Name        string       `json:"name"`
	Pos         position.Pos `json:"pos"`
	Loader      bool         `json:"loader,omitempty"`
	LoaderRange *int         `json:"loader_range,omitempty"` // nil or negative: DefaultLoaderRange
	Goal        EntityID     `json:"goal,omitempty"`
	Health      *int         `json:"health,omitempty"` // nil: DefaultHealth
}

// Entities is the registry passes query. Iteration is always by ascending ID.
type Entities struct {
	byID   map[EntityID]*Entity
	sorted []*Entity
	dirty  bool
	next   EntityID
}

func NewEntities() *Entities {
	return &Entities{byID: map[EntityID]*Entity{}}
}

func (es *Entities) Spawn(s SpawnSpec) *Entity {
	es.next++
	e := &Entity{
		ID:          es.next,
		Name:        s.Name,
		Pos:         s.Pos,
		Loader:      s.Loader,
		Goal:        s.Goal,
		Health:      DefaultHealth,
	}
	if s.Health != nil {
		e.Health = *s.Health
	}
	if s.LoaderRange != nil {
		e.LoaderRange = *s.LoaderRange
	}
	es.byID[e.ID] = e
	es.dirty = true
	return e
}

func (es *Entities) Despawn(id EntityID) bool {
	if _, ok := es.byID[id]; !ok {
		return false
	}
	delete(es.byID, id)
	es.dirty = true
	return true
}

func (es *Entities) Get(id EntityID) (*Entity, bool) {
	e, ok := es.byID[id]
	return e, ok
}

func (es *Entities) Len() int { return len(es.byID) }

// SetGoal points id at goal (0 clears it). The current path is dropped.
func (es *Entities) SetGoal(id, goal EntityID) bool {
	e, ok := es.byID[id]
	if !ok {
		return false
	}
	e.Goal = goal
	e.Path = nil
	return true
}

// Sorted returns entities by ascending ID. The slice is shared until the next spawn or despawn.
func (es *Entities) Sorted() []*Entity {
	if es.dirty || es.sorted == nil {
		es.sorted = make([]*Entity, 0, len(es.byID))
		for _, e := range es.byID {
			es.sorted = append(es.sorted, e)
		}
		sort.Slice(es.sorted, func(i, j int) bool { return es.sorted[i].ID < es.sorted[j].ID })
		es.dirty = false
	}
	return es.sorted
}

func (es *Entities) Loaders() []stream.Loader {
	var out []stream.Loader
	for _, e := range es.Sorted() {
		if e.Loader {
			out = append(out, stream.Loader{Pos: e.Pos, Range: e.LoaderRange})
		}
	}
	return out
}

// Seeker pairs an entity with the live position of its goal.
type Seeker struct {
	Entity *Entity
	Goal   position.Pos
}

// Seekers lists entities whose goal entity exists.
func (es *Entities) Seekers() []Seeker {
	var out []Seeker
	for _, e := range es.Sorted() {
		if e.Goal == 0 || e.Goal == e.ID {
			continue
		}
		g, ok := es.byID[e.Goal]
		if !ok {
			continue
		}
		out = append(out, Seeker{Entity: e, Goal: g.Pos})
	}
	return out
}

// ResidentsIn returns the IDs of entities standing in chunk c.
func (es *Entities) ResidentsIn(c position.Pos) []uint64 {
	var out []uint64
	for _, e := range es.Sorted() {
		if position.TileToChunk(e.Pos) == c {
			out = append(out, uint64(e.ID))
		}
	}
	return out
}
