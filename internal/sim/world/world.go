package world

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"tileworld.ai/internal/sim/world/nav"
	"tileworld.ai/internal/sim/world/position"
	"tileworld.ai/internal/sim/world/stream"
	"tileworld.ai/internal/sim/world/terrain/store"
)

// World owns the level, the entities and every observer session. All of it is
// touched only by the goroutine running Run (or by direct Step calls when Run is
// not running).
type World struct {
	cfg WorldConfig

	tick    atomic.Uint64
	metrics atomic.Value

	level    *store.Level
	entities *Entities
	streamer *stream.Streamer
	schedule *Schedule

	spawn   chan SpawnRequest
	despawn chan EntityID
	damage  chan DamageRecord
	stop    chan struct{}

	observerJoin  chan ObserverJoinRequest
	observerSub   chan ObserverSubscribeRequest
	observerLeave chan string
	observers     map[string]*observerClient

	// Direct Spawn calls since the last tick, reported in the next tick log entry.
	unlogged []SpawnRecord

	// Optional loggers (may be nil). Implemented in internal/persistence/*.
	tickLogger  TickLogger
	chunkLogger ChunkEventLogger
}

func New(cfg WorldConfig) (*World, error) {
	return NewWithPasses(cfg, DefaultPasses()...)
}

// NewWithPasses builds a world whose ticks run the given passes in order.
func NewWithPasses(cfg WorldConfig, passes ...Pass) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("world config: %w", err)
	}
	sched, err := NewSchedule(passes...)
	if err != nil {
		return nil, fmt.Errorf("world schedule: %w", err)
	}
	w := &World{
		cfg: cfg,
		level: store.NewLevel(store.LevelConfig{
			Seed:         cfg.Seed,
			Params:       cfg.Gen,
			ArchiveLimit: cfg.ArchiveLimit,
		}),
		entities:      NewEntities(),
		schedule:      sched,
		spawn:         make(chan SpawnRequest, 64),
		despawn:       make(chan EntityID, 64),
		damage:        make(chan DamageRecord, 256),
		stop:          make(chan struct{}),
		observerJoin:  make(chan ObserverJoinRequest, 16),
		observerSub:   make(chan ObserverSubscribeRequest, 16),
		observerLeave: make(chan string, 16),
		observers:     map[string]*observerClient{},
	}
	w.streamer = stream.New(w.level, func(c position.Pos) []uint64 {
		return w.entities.ResidentsIn(c)
	})
	w.metrics.Store(WorldMetrics{})
	return w, nil
}

func (w *World) Config() WorldConfig { return w.cfg }
func (w *World) ID() string          { return w.cfg.ID }
func (w *World) CurrentTick() uint64 { return w.tick.Load() }

// Level and Entities expose world state to tests and to single-goroutine drivers.
func (w *World) Level() *store.Level { return w.level }
func (w *World) Entities() *Entities { return w.entities }
func (w *World) Schedule() *Schedule { return w.schedule }

func (w *World) SetTickLogger(l TickLogger)             { w.tickLogger = l }
func (w *World) SetChunkEventLogger(l ChunkEventLogger) { w.chunkLogger = l }

// Spawn adds an entity immediately. Not safe while Run is active; use RequestSpawn.
func (w *World) Spawn(s SpawnSpec) EntityID {
	id := w.spawnNow(s)
	w.unlogged = append(w.unlogged, SpawnRecord{ID: id, Spec: s})
	return id
}

func (w *World) spawnNow(s SpawnSpec) EntityID {
	if s.Loader && (s.LoaderRange == nil || *s.LoaderRange < 0) {
		s.LoaderRange = Int(w.cfg.DefaultLoaderRange)
	}
	return w.entities.Spawn(s).ID
}

// RequestSpawn queues a spawn for the next tick boundary and waits for its ID.
func (w *World) RequestSpawn(ctx context.Context, s SpawnSpec) (EntityID, error) {
	resp := make(chan EntityID, 1)
	select {
	case w.spawn <- SpawnRequest{Spec: s, Resp: resp}:
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	select {
	case id := <-resp:
		return id, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// RequestDespawn queues removal of id for the next tick boundary.
func (w *World) RequestDespawn(id EntityID) {
	select {
	case w.despawn <- id:
	default:
	}
}

// RequestDamage queues a health loss for id at the next tick boundary.
func (w *World) RequestDamage(id EntityID, amount int) {
	select {
	case w.damage <- DamageRecord{ID: id, Amount: amount}:
	default:
	}
}

func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pendingSpawns []SpawnRequest
	var pendingDespawns []EntityID
	var pendingDamage []DamageRecord

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.spawn:
			pendingSpawns = append(pendingSpawns, req)
		case id := <-w.despawn:
			pendingDespawns = append(pendingDespawns, id)
		case d := <-w.damage:
			pendingDamage = append(pendingDamage, d)
		case req := <-w.observerJoin:
			w.handleObserverJoin(req)
		case req := <-w.observerSub:
			w.handleObserverSubscribe(req)
		case id := <-w.observerLeave:
			w.handleObserverLeave(id)
		case <-ticker.C:
			w.stepInternal(pendingSpawns, pendingDespawns, pendingDamage)
			pendingSpawns = pendingSpawns[:0]
			pendingDespawns = pendingDespawns[:0]
			pendingDamage = pendingDamage[:0]
		}
	}
}

func (w *World) Stop() { close(w.stop) }

// Step advances the world by a single tick and returns the tick it ran and the
// resulting state digest.
func (w *World) Step() (tick uint64, digest string) {
	tick = w.tick.Load()
	digest = w.stepInternal(nil, nil, nil)
	return tick, digest
}

// StepOnce replays one logged tick: it applies spawns, despawns and damage at
// the tick boundary, then steps. Not safe while Run is active.
func (w *World) StepOnce(spawns []SpawnSpec, despawns []EntityID, damage ...DamageRecord) (tick uint64, digest string) {
	reqs := make([]SpawnRequest, 0, len(spawns))
	for _, s := range spawns {
		reqs = append(reqs, SpawnRequest{Spec: s})
	}
	tick = w.tick.Load()
	digest = w.stepInternal(reqs, despawns, damage)
	return tick, digest
}

func (w *World) stepInternal(spawns []SpawnRequest, despawns []EntityID, damage []DamageRecord) string {
	stepStart := time.Now()
	nowTick := w.tick.Load()

	// Membership changes apply at the tick boundary, before any pass runs.
	spawned := w.unlogged
	w.unlogged = nil
	for _, req := range spawns {
		id := w.spawnNow(req.Spec)
		spawned = append(spawned, SpawnRecord{ID: id, Spec: req.Spec})
		if req.Resp != nil {
			req.Resp <- id
		}
	}
	var removed []EntityID
	for _, id := range despawns {
		if w.entities.Despawn(id) {
			removed = append(removed, id)
		}
	}
	var damaged []DamageRecord
	for _, d := range damage {
		if e, ok := w.entities.Get(d.ID); ok {
			e.Health -= d.Amount
			damaged = append(damaged, d)
		}
	}

	tc := &TickContext{
		Tick:     nowTick,
		Level:    w.level,
		Entities: w.entities,
		Config:   w.cfg,
		Streamer: w.streamer,
		Planner: nav.Planner{
			Source:        w.level,
			NavRange:      w.cfg.NavRange,
			CloseEnough:   w.cfg.CloseEnough,
			MaxExpansions: w.cfg.MaxExpansions,
		},
	}
	w.schedule.Run(tc)

	digest := w.stateDigest(nowTick)
	w.stepObservers(nowTick, digest, tc.Counters)

	if w.chunkLogger != nil {
		for _, c := range tc.Stream.LoadedChunks {
			_ = w.chunkLogger.WriteChunkEvent(ChunkEvent{Tick: nowTick, Kind: ChunkEventLoad, Chunk: c})
		}
		for _, c := range tc.Stream.UnloadedChunks {
			ev := ChunkEvent{Tick: nowTick, Kind: ChunkEventUnload, Chunk: c}
			if u, ok := w.level.Archived(c); ok {
				ev.Residents = u.Residents
			}
			_ = w.chunkLogger.WriteChunkEvent(ev)
		}
	}
	if w.tickLogger != nil {
		_ = w.tickLogger.WriteTick(TickLogEntry{
			Tick:     nowTick,
			Digest:   digest,
			Entities: w.entities.Len(),
			Loaded:   w.level.LoadedCount(),
			Archived: w.level.ArchivedCount(),
			Counters: tc.Counters,
			Spawns:   spawned,
			Removed:  removed,
			Damage:   damaged,
			Died:     tc.Died,
		})
	}

	stepMS := float64(time.Since(stepStart).Microseconds()) / 1000.0
	nextTick := w.tick.Add(1)

	w.metrics.Store(WorldMetrics{
		Tick:            nextTick,
		Entities:        w.entities.Len(),
		Observers:       len(w.observers),
		LoadedChunks:    w.level.LoadedCount(),
		ArchivedChunks:  w.level.ArchivedCount(),
		GeneratedChunks: w.level.Generated(),
		DroppedChunks:   w.level.Dropped(),
		QueueDepths: QueueDepths{
			Spawn:   len(w.spawn),
			Despawn: len(w.despawn),
			Damage:  len(w.damage),
		},
		StepMS:   stepMS,
		LastTick: tc.Counters,
	})
	return digest
}

// sortedObserverIDs keeps per-observer work in a stable order.
func (w *World) sortedObserverIDs() []string {
	ids := make([]string, 0, len(w.observers))
	for id := range w.observers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
