package world

import "tileworld.ai/internal/sim/world/position"

// TickLogger receives one entry per tick. Implemented in internal/persistence/*.
type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

// ChunkEventLogger receives every chunk load and unload.
type ChunkEventLogger interface {
	WriteChunkEvent(e ChunkEvent) error
}

type TickLogEntry struct {
	Tick     uint64       `json:"tick"`
	Digest   string       `json:"digest"`
	Entities int          `json:"entities"`
	Loaded   int          `json:"loaded_chunks"`
	Archived int          `json:"archived_chunks"`
	Counters TickCounters `json:"counters"`

	// Spawns, Removed and Damage are applied before the tick's passes in that
	// order. Replaying them through StepOnce reproduces Digest.
	Spawns  []SpawnRecord  `json:"spawns,omitempty"`
	Removed []EntityID     `json:"removed,omitempty"`
	Damage  []DamageRecord `json:"damage,omitempty"`

	// Died lists entities the health pass removed. Replay derives it.
	Died []EntityID `json:"died,omitempty"`
}

type DamageRecord struct {
	ID     EntityID `json:"id"`
	Amount int      `json:"amount"`
}

type SpawnRecord struct {
	ID   EntityID  `json:"id"`
	Spec SpawnSpec `json:"spec"`
}

// TickCounters are per-tick pass statistics.
type TickCounters struct {
	ChunksLoaded   int `json:"chunks_loaded"`
	ChunksUnloaded int `json:"chunks_unloaded"`
	Searches       int `json:"searches"`
	SearchFailures int `json:"search_failures"`
	Moves          int `json:"moves"`
	Rejected       int `json:"rejected"`
	Deaths         int `json:"deaths"`
}

const (
	ChunkEventLoad   = "LOAD"
	ChunkEventUnload = "UNLOAD"
)

type ChunkEvent struct {
	Tick      uint64       `json:"tick"`
	Kind      string       `json:"kind"`
	Chunk     position.Pos `json:"chunk"`
	Residents []uint64     `json:"residents,omitempty"`
}

// SpawnRequest asks the world loop to add an entity at the next tick boundary.
type SpawnRequest struct {
	Spec SpawnSpec
	Resp chan EntityID
}
