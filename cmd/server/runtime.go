package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"

	"tileworld.ai/internal/persistence/indexdb"
	"tileworld.ai/internal/sim/world"
)

// runWorld drives w until ctx ends. The returned channel closes once Run has
// returned, so no tick writes to the loggers after that.
func runWorld(ctx context.Context, w *world.World, logger *log.Logger) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := w.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("world stopped: %v", err)
		}
	}()
	return done
}

func logMemory(ctx context.Context, logger *log.Logger, every time.Duration, w *world.World) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			var ms runtime.MemStats
			runtime.ReadMemStats(&ms)
			m := w.Metrics()
			logger.Printf("mem: heap=%s sys=%s gc=%d tick=%d loaded=%d archived=%d generated=%s",
				humanize.Bytes(ms.HeapAlloc),
				humanize.Bytes(ms.Sys),
				ms.NumGC,
				m.Tick,
				m.LoadedChunks,
				m.ArchivedChunks,
				humanize.Comma(int64(m.GeneratedChunks)),
			)
		}
	}
}

// writeWorldMetrics renders the Prometheus text exposition format.
func writeWorldMetrics(rw io.Writer, worldID string, tick uint64, m world.WorldMetrics) {
	if m.Tick != 0 {
		tick = m.Tick
	}
	gauge := func(name, help string, v any) {
		fmt.Fprintf(rw, "# HELP tileworld_%s %s\n", name, help)
		fmt.Fprintf(rw, "# TYPE tileworld_%s gauge\n", name)
		fmt.Fprintf(rw, "tileworld_%s{world=%q} %v\n", name, worldID, v)
	}
	gauge("world_tick", "Current world tick.", tick)
	gauge("world_entities", "Entities in the world.", m.Entities)
	gauge("world_observers", "Connected observer sessions.", m.Observers)
	gauge("world_loaded_chunks", "Loaded chunk count.", m.LoadedChunks)
	gauge("world_archived_chunks", "Unloaded chunks kept for regeneration-free reload.", m.ArchivedChunks)
	gauge("world_generated_chunks", "Chunks generated since start.", m.GeneratedChunks)
	gauge("world_dropped_chunks", "Archived chunks dropped by the archive limit.", m.DroppedChunks)
	gauge("world_step_ms", "Last tick step duration in milliseconds.", fmt.Sprintf("%.3f", m.StepMS))

	fmt.Fprintf(rw, "# HELP tileworld_world_queue_depth Channel backlog depth.\n")
	fmt.Fprintf(rw, "# TYPE tileworld_world_queue_depth gauge\n")
	fmt.Fprintf(rw, "tileworld_world_queue_depth{world=%q,queue=%q} %d\n", worldID, "spawn", m.QueueDepths.Spawn)
	fmt.Fprintf(rw, "tileworld_world_queue_depth{world=%q,queue=%q} %d\n", worldID, "despawn", m.QueueDepths.Despawn)
	fmt.Fprintf(rw, "tileworld_world_queue_depth{world=%q,queue=%q} %d\n", worldID, "damage", m.QueueDepths.Damage)

	fmt.Fprintf(rw, "# HELP tileworld_tick_counter Per-tick pass counters of the last tick.\n")
	fmt.Fprintf(rw, "# TYPE tileworld_tick_counter gauge\n")
	c := m.LastTick
	for _, kv := range []struct {
		name string
		v    int
	}{
		{"chunks_loaded", c.ChunksLoaded},
		{"chunks_unloaded", c.ChunksUnloaded},
		{"searches", c.Searches},
		{"search_failures", c.SearchFailures},
		{"moves", c.Moves},
		{"rejected", c.Rejected},
		{"deaths", c.Deaths},
	} {
		fmt.Fprintf(rw, "tileworld_tick_counter{world=%q,counter=%q} %d\n", worldID, kv.name, kv.v)
	}
}

func writeIndexMetrics(rw io.Writer, worldID string, s indexdb.Stats) {
	fmt.Fprintf(rw, "# HELP tileworld_index_queue_depth SQLite index queue depth.\n")
	fmt.Fprintf(rw, "# TYPE tileworld_index_queue_depth gauge\n")
	fmt.Fprintf(rw, "tileworld_index_queue_depth{world=%q} %d\n", worldID, s.QueueDepth)
	fmt.Fprintf(rw, "# HELP tileworld_index_dropped_total Index writes dropped on a full queue.\n")
	fmt.Fprintf(rw, "# TYPE tileworld_index_dropped_total counter\n")
	fmt.Fprintf(rw, "tileworld_index_dropped_total{world=%q,kind=%q} %d\n", worldID, "tick", s.DropTickTotal)
	fmt.Fprintf(rw, "tileworld_index_dropped_total{world=%q,kind=%q} %d\n", worldID, "chunk_event", s.DropChunkEventTotal)
}
