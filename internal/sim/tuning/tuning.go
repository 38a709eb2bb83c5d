package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"tileworld.ai/internal/sim/world"
	"tileworld.ai/internal/sim/world/position"
	"tileworld.ai/internal/sim/world/terrain/gen"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickRateHz int   `yaml:"tick_rate_hz"`
	Seed       int64 `yaml:"seed"`
	ChunkSize  int   `yaml:"chunk_size"`

	NoiseScale           float64 `yaml:"noise_scale"`
	RockThreshold        float64 `yaml:"rock_threshold"`
	SprinkleTreePermille int     `yaml:"sprinkle_tree_permille"`
	ArchiveLimit         int     `yaml:"archive_limit"`

	NavRange           int `yaml:"nav_range"`
	CloseEnough        int `yaml:"close_enough"`
	MaxExpansions      int `yaml:"max_expansions"`
	DefaultLoaderRange int `yaml:"default_loader_range"`

	Observer Observer `yaml:"observer"`
}

type Observer struct {
	ChunkBudget int `yaml:"chunk_budget"`
}

func Defaults() Tuning {
	g := gen.DefaultParams()
	return Tuning{
		ProtocolVersion:      "0.1",
		TickRateHz:           5,
		Seed:                 42,
		ChunkSize:            position.ChunkSize,
		NoiseScale:           g.NoiseScale,
		RockThreshold:        g.RockThreshold,
		SprinkleTreePermille: g.SprinkleTreePermille,
		NavRange:             3,
		CloseEnough:          3,
		DefaultLoaderRange:   1,
		Observer:             Observer{ChunkBudget: 16},
	}
}

// Load reads path over Defaults and validates the result. Keys absent from the
// file keep their default.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if t.TickRateHz <= 0 {
		return fmt.Errorf("tick_rate_hz must be > 0")
	}
	if t.ChunkSize != position.ChunkSize {
		return fmt.Errorf("chunk_size must be %d (got %d)", position.ChunkSize, t.ChunkSize)
	}
	if t.MaxExpansions < 0 {
		return fmt.Errorf("max_expansions must be >= 0")
	}
	if t.Observer.ChunkBudget < 0 {
		return fmt.Errorf("observer.chunk_budget must be >= 0")
	}
	return t.WorldConfig("").Validate()
}

// WorldConfig maps tuning onto a world config for world id.
func (t Tuning) WorldConfig(id string) world.WorldConfig {
	return world.WorldConfig{
		ID:         id,
		TickRateHz: t.TickRateHz,
		Seed:       t.Seed,
		Gen: gen.Params{
			NoiseScale:           t.NoiseScale,
			RockThreshold:        t.RockThreshold,
			SprinkleTreePermille: t.SprinkleTreePermille,
		},
		ArchiveLimit:        t.ArchiveLimit,
		NavRange:            t.NavRange,
		CloseEnough:         t.CloseEnough,
		MaxExpansions:       t.MaxExpansions,
		DefaultLoaderRange:  t.DefaultLoaderRange,
		ObserverChunkBudget: t.Observer.ChunkBudget,
	}
}
