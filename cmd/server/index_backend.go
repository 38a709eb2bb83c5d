package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tileworld.ai/internal/persistence/indexdb"
	"tileworld.ai/internal/sim/tuning"
	"tileworld.ai/internal/sim/world"
)

type runtimeIndex interface {
	world.TickLogger
	world.ChunkEventLogger
	Close() error
	UpsertTuning(tune tuning.Tuning) error
	Stats() indexdb.Stats
}

func openRuntimeIndex(worldDir string, disableDB bool) (runtimeIndex, error) {
	if disableDB {
		return nil, nil
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("TW_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		idx, err := indexdb.OpenSQLite(filepath.Join(worldDir, "index", "world.sqlite"))
		if err != nil {
			return nil, err
		}
		return idx, nil
	default:
		return nil, fmt.Errorf("unsupported TW_INDEX_BACKEND: %s", backend)
	}
}

type multiTickLogger struct {
	a world.TickLogger
	b world.TickLogger
}

func (m multiTickLogger) WriteTick(entry world.TickLogEntry) error {
	if m.a != nil {
		_ = m.a.WriteTick(entry)
	}
	if m.b != nil {
		_ = m.b.WriteTick(entry)
	}
	return nil
}

type multiChunkEventLogger struct {
	a world.ChunkEventLogger
	b world.ChunkEventLogger
}

func (m multiChunkEventLogger) WriteChunkEvent(e world.ChunkEvent) error {
	if m.a != nil {
		_ = m.a.WriteChunkEvent(e)
	}
	if m.b != nil {
		_ = m.b.WriteChunkEvent(e)
	}
	return nil
}
