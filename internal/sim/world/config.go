package world

import (
	"fmt"

	"tileworld.ai/internal/sim/world/terrain/gen"
)

type WorldConfig struct {
	ID         string
	TickRateHz int
	Seed       int64

	Gen          gen.Params
	ArchiveLimit int

	NavRange      int
	CloseEnough   int
	MaxExpansions int

	DefaultLoaderRange  int
	ObserverChunkBudget int
}

func DefaultConfig() WorldConfig {
	return WorldConfig{
		ID:                  "world_1",
		TickRateHz:          5,
		Seed:                42,
		Gen:                 gen.DefaultParams(),
		NavRange:            3,
		CloseEnough:         3,
		DefaultLoaderRange:  1,
		ObserverChunkBudget: 16,
	}
}

func (c WorldConfig) Validate() error {
	if c.TickRateHz <= 0 {
		return fmt.Errorf("tick_rate_hz must be > 0")
	}
	if c.NavRange < 0 {
		return fmt.Errorf("nav_range must be >= 0")
	}
	if c.CloseEnough < 0 {
		return fmt.Errorf("close_enough must be >= 0")
	}
	if c.ArchiveLimit < 0 {
		return fmt.Errorf("archive_limit must be >= 0")
	}
	if c.DefaultLoaderRange < 0 {
		return fmt.Errorf("default_loader_range must be >= 0")
	}
	if err := c.Gen.Validate(); err != nil {
		return err
	}
	return nil
}
