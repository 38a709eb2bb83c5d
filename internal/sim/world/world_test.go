package world

import (
	"context"
	"testing"
	"time"

	"tileworld.ai/internal/sim/world/position"
)

// openConfig generates rock-free terrain so movement is predictable.
func openConfig() WorldConfig {
	cfg := DefaultConfig()
	cfg.Gen.RockThreshold = 10
	return cfg
}

func newTestWorld(t *testing.T, cfg WorldConfig) *World {
	t.Helper()
	w, err := New(cfg)
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	return w
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TickRateHz = 0
	if _, err := New(cfg); err == nil {
		t.Fatalf("expected config error")
	}
}

func TestDeterminism_SameSpawnsSameDigest(t *testing.T) {
	run := func() []string {
		w := newTestWorld(t, DefaultConfig())
		target := w.Spawn(SpawnSpec{Name: "target", Pos: position.New(40, -12), Loader: true, LoaderRange: Int(1)})
		w.Spawn(SpawnSpec{Name: "seeker", Pos: position.New(0, 0), Loader: true, LoaderRange: Int(1), Goal: target})
		w.Spawn(SpawnSpec{Name: "wanderer", Pos: position.New(-70, 33), Loader: true})
		var out []string
		for i := 0; i < 40; i++ {
			_, d := w.Step()
			out = append(out, d)
		}
		return out
	}
	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("digest mismatch at tick %d: %s vs %s", i, a[i], b[i])
		}
	}
}

func TestStepStreamsAroundLoaders(t *testing.T) {
	w := newTestWorld(t, openConfig())
	w.Spawn(SpawnSpec{Name: "loader", Pos: position.New(5, 5), Loader: true})
	tick, _ := w.Step()
	if tick != 0 || w.CurrentTick() != 1 {
		t.Fatalf("tick=%d current=%d", tick, w.CurrentTick())
	}
	if w.Level().LoadedCount() != 9 {
		t.Fatalf("default loader range 1 should load 9 chunks, got %d", w.Level().LoadedCount())
	}
	m := w.Metrics()
	if m.Tick != 1 || m.LoadedChunks != 9 || m.LastTick.ChunksLoaded != 9 || m.Entities != 1 {
		t.Fatalf("metrics=%+v", m)
	}
}

func TestSeekerReachesTarget(t *testing.T) {
	w := newTestWorld(t, openConfig())
	target := w.Spawn(SpawnSpec{Name: "target", Pos: position.New(20, 6), Loader: true})
	seeker := w.Spawn(SpawnSpec{Name: "seeker", Pos: position.New(0, 0), Goal: target})
	for i := 0; i < 30; i++ {
		w.Step()
	}
	s, _ := w.Entities().Get(seeker)
	if d := s.Pos.Chebyshev(position.New(20, 6)); d != w.Config().CloseEnough {
		t.Fatalf("seeker at %v, distance %d want %d", s.Pos, d, w.Config().CloseEnough)
	}
}

func TestSeekerResearchesWhenGoalMoves(t *testing.T) {
	w := newTestWorld(t, openConfig())
	target := w.Spawn(SpawnSpec{Name: "target", Pos: position.New(20, 0), Loader: true})
	seeker := w.Spawn(SpawnSpec{Name: "seeker", Pos: position.New(0, 0), Goal: target})

	w.Step()
	if m := w.Metrics(); m.LastTick.Searches != 1 || m.LastTick.Moves != 1 {
		t.Fatalf("first tick=%+v", m.LastTick)
	}
	w.Step()
	if m := w.Metrics(); m.LastTick.Searches != 0 {
		t.Fatalf("unchanged goal should reuse the path: %+v", m.LastTick)
	}

	tg, _ := w.Entities().Get(target)
	tg.Pos = position.New(-20, 0)
	w.Step()
	if m := w.Metrics(); m.LastTick.Searches != 1 {
		t.Fatalf("moved goal should trigger one search: %+v", m.LastTick)
	}
	s, _ := w.Entities().Get(seeker)
	if s.Path == nil || s.Path.Goal() != position.New(-20, 0) {
		t.Fatalf("path not rebuilt for new goal")
	}
	if s.Delta.X != -1 {
		t.Fatalf("seeker should turn west, delta=%v", s.Delta)
	}
}

func TestCloseEnoughSuppressesMovement(t *testing.T) {
	w := newTestWorld(t, openConfig())
	target := w.Spawn(SpawnSpec{Name: "target", Pos: position.New(3, -3), Loader: true})
	seeker := w.Spawn(SpawnSpec{Name: "seeker", Pos: position.New(0, 0), Goal: target})
	for i := 0; i < 5; i++ {
		w.Step()
		if m := w.Metrics(); m.LastTick.Searches != 0 || m.LastTick.Moves != 0 {
			t.Fatalf("tick %d: %+v", i, m.LastTick)
		}
	}
	s, _ := w.Entities().Get(seeker)
	if s.Pos != (position.Pos{}) {
		t.Fatalf("seeker moved to %v", s.Pos)
	}
}

func TestMoveRejectsUnloadedTarget(t *testing.T) {
	push := Pass{
		Name:   "push",
		Reads:  []Resource{ResPositions},
		Writes: []Resource{ResDeltas},
		Run: func(tc *TickContext) {
			for _, e := range tc.Entities.Sorted() {
				e.Delta = position.New(1, 0)
			}
		},
	}
	w, err := NewWithPasses(openConfig(), StreamPass(), push, MovePass())
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	// Range 0 keeps only chunk (0,0) resident; tile 31 is its east edge.
	id := w.Spawn(SpawnSpec{Name: "edge", Pos: position.New(30, 0), Loader: true, LoaderRange: Int(0)})
	e, _ := w.Entities().Get(id)

	w.Step()
	if e.Pos != position.New(31, 0) {
		t.Fatalf("first move should succeed, pos=%v", e.Pos)
	}
	w.Step()
	if e.Pos != position.New(31, 0) || w.Metrics().LastTick.Rejected != 1 {
		t.Fatalf("move into unloaded chunk should be rejected: pos=%v metrics=%+v", e.Pos, w.Metrics().LastTick)
	}
}

func TestMoveRejectsRockTarget(t *testing.T) {
	push := Pass{
		Name:   "push",
		Reads:  []Resource{ResPositions},
		Writes: []Resource{ResDeltas},
		Run: func(tc *TickContext) {
			for _, e := range tc.Entities.Sorted() {
				e.Delta = position.New(1, 0)
			}
		},
	}
	cfg := DefaultConfig()
	cfg.Gen.RockThreshold = -10 // every tile is rock
	w, err := NewWithPasses(cfg, StreamPass(), push, MovePass())
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	id := w.Spawn(SpawnSpec{Name: "stuck", Pos: position.New(5, 5), Loader: true, LoaderRange: Int(1)})
	e, _ := w.Entities().Get(id)

	w.Step()
	if tl, ok := w.Level().LoadedTile(position.New(6, 5)); !ok || tl.Passable() {
		t.Fatalf("target tile should be loaded rock: %+v ok=%v", tl, ok)
	}
	m := w.Metrics().LastTick
	if e.Pos != position.New(5, 5) || m.Rejected != 1 || m.Moves != 0 {
		t.Fatalf("move onto rock should be rejected: pos=%v metrics=%+v", e.Pos, m)
	}
}

func TestSpawnLoaderRange(t *testing.T) {
	cfg := openConfig()
	cfg.DefaultLoaderRange = 2
	w := newTestWorld(t, cfg)
	def := w.Spawn(SpawnSpec{Name: "default", Pos: position.New(0, 0), Loader: true})
	neg := w.Spawn(SpawnSpec{Name: "negative", Pos: position.New(0, 0), Loader: true, LoaderRange: Int(-1)})
	own := w.Spawn(SpawnSpec{Name: "own", Pos: position.New(500, 0), Loader: true, LoaderRange: Int(0)})
	for _, c := range []struct {
		id   EntityID
		want int
	}{{def, 2}, {neg, 2}, {own, 0}} {
		e, _ := w.Entities().Get(c.id)
		if e.LoaderRange != c.want {
			t.Fatalf("%s: range=%d want %d", e.Name, e.LoaderRange, c.want)
		}
	}
	w.Step()
	// 5x5 around the origin plus the single chunk under "own".
	if n := w.Level().LoadedCount(); n != 26 {
		t.Fatalf("loaded=%d want 26", n)
	}
}

func TestGoallessEntityStandsStill(t *testing.T) {
	w := newTestWorld(t, openConfig())
	target := w.Spawn(SpawnSpec{Name: "target", Pos: position.New(15, 0), Loader: true})
	seeker := w.Spawn(SpawnSpec{Name: "seeker", Pos: position.New(0, 0), Goal: target})
	w.Step()
	if !w.Entities().Despawn(target) {
		t.Fatalf("despawn failed")
	}
	s, _ := w.Entities().Get(seeker)
	before := s.Pos
	w.Step()
	if s.Pos != before || s.Delta != (position.Pos{}) {
		t.Fatalf("seeker without goal moved: %v -> %v", before, s.Pos)
	}
}

func TestUnloadRecordsResidents(t *testing.T) {
	w := newTestWorld(t, openConfig())
	loader := w.Spawn(SpawnSpec{Name: "loader", Pos: position.New(0, 0), Loader: true, LoaderRange: Int(1)})
	sitter := w.Spawn(SpawnSpec{Name: "sitter", Pos: position.New(-20, 0)})
	w.Step()

	l, _ := w.Entities().Get(loader)
	l.Pos = position.New(200, 0)
	w.Step()

	u, ok := w.Level().Archived(position.New(-1, 0))
	if !ok || len(u.Residents) != 1 || u.Residents[0] != uint64(sitter) {
		t.Fatalf("archived chunk residents=%+v", u)
	}
}

func TestRunProcessesSpawnRequests(t *testing.T) {
	cfg := openConfig()
	cfg.TickRateHz = 50
	w := newTestWorld(t, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	id, err := w.RequestSpawn(ctx, SpawnSpec{Name: "late", Pos: position.New(1, 1), Loader: true})
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	if id == 0 {
		t.Fatalf("zero entity id")
	}
	for w.Metrics().Entities != 1 {
		select {
		case <-ctx.Done():
			t.Fatalf("metrics never reported the spawn")
		case <-time.After(10 * time.Millisecond):
		}
	}
	w.Stop()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
}

type recordingTickLogger struct{ entries []TickLogEntry }

func (r *recordingTickLogger) WriteTick(e TickLogEntry) error {
	r.entries = append(r.entries, e)
	return nil
}

func TestStepOnceReplaysTickLog(t *testing.T) {
	rec := &recordingTickLogger{}
	w := newTestWorld(t, DefaultConfig())
	w.SetTickLogger(rec)
	target := w.Spawn(SpawnSpec{Name: "target", Pos: position.New(50, 10), Loader: true})
	w.Spawn(SpawnSpec{Name: "seeker", Pos: position.New(0, 0), Loader: true, Goal: target})
	tough := w.Spawn(SpawnSpec{Name: "tough", Pos: position.New(3, 3), Health: Int(5)})
	for i := 0; i < 10; i++ {
		w.Step()
	}
	w.stepInternal([]SpawnRequest{{Spec: SpawnSpec{Name: "late", Pos: position.New(-5, 5), Goal: target}}}, []EntityID{target},
		[]DamageRecord{{ID: tough, Amount: 2}})
	w.stepInternal(nil, nil, []DamageRecord{{ID: tough, Amount: 3}, {ID: 999, Amount: 1}})
	for i := 0; i < 10; i++ {
		w.Step()
	}

	if got := len(rec.entries[0].Spawns); got != 3 {
		t.Fatalf("first entry should carry the direct spawns, got %d", got)
	}

	r := newTestWorld(t, DefaultConfig())
	for _, e := range rec.entries {
		specs := make([]SpawnSpec, 0, len(e.Spawns))
		for _, s := range e.Spawns {
			specs = append(specs, s.Spec)
		}
		tick, digest := r.StepOnce(specs, e.Removed, e.Damage...)
		if tick != e.Tick || digest != e.Digest {
			t.Fatalf("tick %d: replay digest %s want %s", e.Tick, digest, e.Digest)
		}
	}
	if _, ok := r.Entities().Get(tough); ok {
		t.Fatalf("replayed damage should have killed %d", tough)
	}
}

func TestHealthPassRemovesDeadEntities(t *testing.T) {
	rec := &recordingTickLogger{}
	w := newTestWorld(t, openConfig())
	w.SetTickLogger(rec)
	doomed := w.Spawn(SpawnSpec{Name: "doomed", Pos: position.New(0, 0), Health: Int(0)})
	hardy := w.Spawn(SpawnSpec{Name: "hardy", Pos: position.New(1, 0), Health: Int(3)})
	plain := w.Spawn(SpawnSpec{Name: "plain", Pos: position.New(2, 0)})

	w.Step()
	if _, ok := w.Entities().Get(doomed); ok {
		t.Fatalf("zero-health entity survived the tick")
	}
	if got := rec.entries[0].Died; len(got) != 1 || got[0] != doomed || w.Metrics().LastTick.Deaths != 1 {
		t.Fatalf("died=%v counters=%+v", got, w.Metrics().LastTick)
	}
	if e, _ := w.Entities().Get(plain); e.Health != DefaultHealth {
		t.Fatalf("unset health=%d want %d", e.Health, DefaultHealth)
	}

	w.stepInternal(nil, nil, []DamageRecord{{ID: hardy, Amount: 2}})
	if e, ok := w.Entities().Get(hardy); !ok || e.Health != 1 {
		t.Fatalf("hardy after 2 damage: %+v ok=%v", e, ok)
	}
	w.stepInternal(nil, nil, []DamageRecord{{ID: hardy, Amount: 1}, {ID: plain, Amount: 1}})
	if w.Entities().Len() != 0 || w.Metrics().LastTick.Deaths != 2 {
		t.Fatalf("entities=%d counters=%+v", w.Entities().Len(), w.Metrics().LastTick)
	}
}

func TestRunAppliesRequestedDamage(t *testing.T) {
	cfg := openConfig()
	cfg.TickRateHz = 100
	w := newTestWorld(t, cfg)
	id := w.Spawn(SpawnSpec{Name: "target", Pos: position.New(0, 0)})
	w.RequestDamage(id, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	for w.Metrics().Entities != 0 || w.Metrics().Tick == 0 {
		select {
		case <-ctx.Done():
			t.Fatalf("damage never applied: %+v", w.Metrics())
		case <-time.After(5 * time.Millisecond):
		}
	}
	w.Stop()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
}
