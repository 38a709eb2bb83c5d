package world

import (
	"tileworld.ai/internal/sim/world/nav"
	"tileworld.ai/internal/sim/world/position"
	"tileworld.ai/internal/sim/world/stream"
	"tileworld.ai/internal/sim/world/terrain/store"
)

// TickContext is everything a pass may touch during one tick.
type TickContext struct {
	Tick     uint64
	Level    *store.Level
	Entities *Entities
	Config   WorldConfig

	Streamer *stream.Streamer
	Planner  nav.Planner

	Stream   stream.Stats
	Counters TickCounters
	Died     []EntityID
}

// DefaultPasses is stream -> ai -> move -> health.
func DefaultPasses() []Pass {
	return []Pass{StreamPass(), AIPass(), MovePass(), HealthPass()}
}

// StreamPass reconciles the resident chunk set with the loaders. It is the only
// pass that writes the Level.
func StreamPass() Pass {
	return Pass{
		Name:   "stream",
		Reads:  []Resource{ResPositions, ResLoaders},
		Writes: []Resource{ResLevel},
		Run: func(tc *TickContext) {
			tc.Stream = tc.Streamer.Reconcile(tc.Entities.Loaders())
			tc.Counters.ChunksLoaded = tc.Stream.Loaded
			tc.Counters.ChunksUnloaded = tc.Stream.Unloaded
		},
	}
}

// AIPass sets every entity's delta for this tick. Entities without a live goal stand still.
func AIPass() Pass {
	return Pass{
		Name:   "ai",
		Reads:  []Resource{ResLevel, ResPositions, ResGoals},
		Writes: []Resource{ResDeltas, ResPathing},
		Run: func(tc *TickContext) {
			for _, e := range tc.Entities.Sorted() {
				e.Delta = position.Pos{}
			}
			for _, s := range tc.Entities.Seekers() {
				d := tc.Planner.Plan(s.Entity.Pos, s.Goal, s.Entity.Path)
				s.Entity.Delta = d.Delta
				s.Entity.Path = d.Path
				tc.Counters.Searches += d.Searches
				tc.Counters.SearchFailures += d.Failures
			}
		},
	}
}

// MovePass applies deltas. A move onto a blocked or unloaded tile is rejected.
func MovePass() Pass {
	return Pass{
		Name:   "move",
		Reads:  []Resource{ResLevel, ResDeltas},
		Writes: []Resource{ResPositions},
		Run: func(tc *TickContext) {
			for _, e := range tc.Entities.Sorted() {
				if e.Delta == (position.Pos{}) {
					continue
				}
				target := e.Pos.Add(e.Delta)
				t, ok := tc.Level.LoadedTile(target)
				if !ok || !t.Passable() {
					tc.Counters.Rejected++
					continue
				}
				e.Pos = target
				tc.Counters.Moves++
			}
		},
	}
}

// HealthPass removes every entity whose health is 0 or below.
func HealthPass() Pass {
	return Pass{
		Name:   "health",
		Reads:  []Resource{ResHealth},
		Writes: []Resource{ResMembership},
		Run: func(tc *TickContext) {
			for _, e := range tc.Entities.Sorted() {
				if e.Health <= 0 {
					tc.Died = append(tc.Died, e.ID)
				}
			}
			for _, id := range tc.Died {
				tc.Entities.Despawn(id)
			}
			tc.Counters.Deaths = len(tc.Died)
		},
	}
}
