// Package stream keeps the Level's resident chunk set equal to the union of the
// squares demanded by loaders.
package stream

import (
	"sort"

	"tileworld.ai/internal/sim/world/position"
	"tileworld.ai/internal/sim/world/terrain/store"
)

// Loader keeps every chunk within Chebyshev distance Range of its own chunk resident.
type Loader struct {
	Pos   position.Pos // tile space
	Range int
}

// ResidentsFunc reports the entities standing in a chunk that is about to be archived.
type ResidentsFunc func(chunk position.Pos) []uint64

type Stats struct {
	Demanded int
	Loaded   int
	Unloaded int

	// Chunks changed this pass, in application order.
	LoadedChunks   []position.Pos
	UnloadedChunks []position.Pos
}

type Streamer struct {
	level     *store.Level
	residents ResidentsFunc
}

func New(level *store.Level, residents ResidentsFunc) *Streamer {
	return &Streamer{level: level, residents: residents}
}

// Demand returns the union of loader squares, sorted by X then Y.
func Demand(loaders []Loader) []position.Pos {
	set := map[position.Pos]struct{}{}
	for _, ld := range loaders {
		r := ld.Range
		if r < 0 {
			r = 0
		}
		center := position.TileToChunk(ld.Pos)
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				set[center.Add(position.New(dx, dy))] = struct{}{}
			}
		}
	}
	out := make([]position.Pos, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Reconcile loads every demanded chunk, then archives every loaded chunk that is
// no longer demanded. Calling it twice with the same loaders is a no-op the
// second time.
func (s *Streamer) Reconcile(loaders []Loader) Stats {
	demand := Demand(loaders)
	want := make(map[position.Pos]struct{}, len(demand))
	st := Stats{Demanded: len(demand)}

	for _, c := range demand {
		want[c] = struct{}{}
		if !s.level.IsLoaded(c) {
			s.level.EnsureLoaded(c)
			st.Loaded++
			st.LoadedChunks = append(st.LoadedChunks, c)
		}
	}
	for _, c := range s.level.LoadedKeys() {
		if _, ok := want[c]; ok {
			continue
		}
		var ids []uint64
		if s.residents != nil {
			ids = s.residents(c)
		}
		if _, ok := s.level.UnloadChunk(c, ids); ok {
			st.Unloaded++
			st.UnloadedChunks = append(st.UnloadedChunks, c)
		}
	}
	return st
}
