package stream

import (
	"reflect"
	"testing"

	"tileworld.ai/internal/sim/world/position"
	"tileworld.ai/internal/sim/world/terrain/gen"
	"tileworld.ai/internal/sim/world/terrain/store"
)

func newLevel(seed int64) *store.Level {
	return store.NewLevel(store.LevelConfig{Seed: seed, Params: gen.DefaultParams()})
}

func TestConvergesToSquare(t *testing.T) {
	for _, r := range []int{0, 1, 2, 3} {
		l := newLevel(1)
		s := New(l, nil)
		st := s.Reconcile([]Loader{{Pos: position.New(-5, 70), Range: r}})
		side := 2*r + 1
		if l.LoadedCount() != side*side || st.Loaded != side*side || st.Demanded != side*side {
			t.Fatalf("r=%d loaded=%d stats=%+v", r, l.LoadedCount(), st)
		}
		center := position.TileToChunk(position.New(-5, 70))
		for _, c := range l.LoadedKeys() {
			if c.Chebyshev(center) > r {
				t.Fatalf("r=%d: chunk %v outside range", r, c)
			}
		}
	}
}

func TestReconcileIdempotent(t *testing.T) {
	l := newLevel(2)
	s := New(l, nil)
	loaders := []Loader{{Pos: position.New(0, 0), Range: 2}, {Pos: position.New(200, 0), Range: 1}}
	s.Reconcile(loaders)
	before := l.LoadedKeys()
	st := s.Reconcile(loaders)
	if st.Loaded != 0 || st.Unloaded != 0 {
		t.Fatalf("second pass changed state: %+v", st)
	}
	if !reflect.DeepEqual(before, l.LoadedKeys()) {
		t.Fatalf("loaded set changed")
	}
}

func TestLoaderMovesOneChunkEast(t *testing.T) {
	l := newLevel(42)
	s := New(l, nil)
	s.Reconcile([]Loader{{Pos: position.New(0, 0), Range: 1}})
	if l.LoadedCount() != 9 {
		t.Fatalf("loaded=%d want 9", l.LoadedCount())
	}

	st := s.Reconcile([]Loader{{Pos: position.ChunkToTile(position.New(1, 0)), Range: 1}})
	if st.Loaded != 3 || st.Unloaded != 3 {
		t.Fatalf("stats=%+v want 3 loads, 3 unloads", st)
	}
	for y := -1; y <= 1; y++ {
		if l.IsLoaded(position.New(-1, y)) || !l.IsArchived(position.New(-1, y)) {
			t.Fatalf("chunk (-1,%d) should be archived", y)
		}
		if !l.IsLoaded(position.New(2, y)) {
			t.Fatalf("chunk (2,%d) should be loaded", y)
		}
	}
}

func TestOrderIndependent(t *testing.T) {
	a := []Loader{{Pos: position.New(0, 0), Range: 1}, {Pos: position.New(64, 64), Range: 2}, {Pos: position.New(-100, 3), Range: 0}}
	b := []Loader{a[2], a[0], a[1]}

	la, lb := newLevel(3), newLevel(3)
	New(la, nil).Reconcile(a)
	New(lb, nil).Reconcile(b)
	if !reflect.DeepEqual(la.LoadedKeys(), lb.LoadedKeys()) {
		t.Fatalf("loader order changed the resident set")
	}
}

func TestUnloadRecordsResidents(t *testing.T) {
	l := newLevel(4)
	s := New(l, func(c position.Pos) []uint64 {
		if c == position.New(0, 0) {
			return []uint64{17}
		}
		return nil
	})
	s.Reconcile([]Loader{{Pos: position.New(0, 0), Range: 0}})
	s.Reconcile(nil)
	if l.LoadedCount() != 0 {
		t.Fatalf("no loaders should leave nothing loaded")
	}
	u, ok := l.Archived(position.New(0, 0))
	if !ok || !reflect.DeepEqual(u.Residents, []uint64{17}) {
		t.Fatalf("archived residents=%+v", u)
	}
}

func TestDemandUnionsOverlap(t *testing.T) {
	d := Demand([]Loader{{Pos: position.New(0, 0), Range: 1}, {Pos: position.New(32, 0), Range: 1}})
	if len(d) != 12 {
		t.Fatalf("demand=%d want 12", len(d))
	}
	if d[0] != position.New(-1, -1) {
		t.Fatalf("demand not sorted: first=%v", d[0])
	}
}
