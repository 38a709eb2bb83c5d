// Package nav finds paths across chunk boundaries using only chunks that are
// already resident.
package nav

import (
	"tileworld.ai/internal/sim/world/position"
	"tileworld.ai/internal/sim/world/terrain/store"
	"tileworld.ai/internal/sim/world/terrain/tile"
)

// ChunkSource is the read side of the Level. It must not load anything.
type ChunkSource interface {
	Loaded(c position.Pos) (*store.LoadedChunk, bool)
}

type slot struct {
	resolved bool
	exists   bool
	chunk    *store.LoadedChunk
}

// ChunkCache is a (2r+1)^2 window of chunks centered on one chunk. Each slot is
// resolved against the source at most once. A cache lives for one search.
type ChunkCache struct {
	src    ChunkSource
	center position.Pos
	radius int
	side   int
	slots  []slot

	queries int
}

func NewChunkCache(src ChunkSource, center position.Pos, radius int) *ChunkCache {
	if radius < 0 {
		radius = 0
	}
	side := 2*radius + 1
	return &ChunkCache{
		src:    src,
		center: center,
		radius: radius,
		side:   side,
		slots:  make([]slot, side*side),
	}
}

// Chunk returns the loaded chunk at c. It misses for chunks outside the window
// and for chunks the source does not have loaded.
func (c *ChunkCache) Chunk(cp position.Pos) (*store.LoadedChunk, bool) {
	d := cp.Sub(c.center)
	if d.X < -c.radius || d.X > c.radius || d.Y < -c.radius || d.Y > c.radius {
		return nil, false
	}
	s := &c.slots[(d.Y+c.radius)*c.side+(d.X+c.radius)]
	if !s.resolved {
		s.resolved = true
		s.chunk, s.exists = c.src.Loaded(cp)
		c.queries++
	}
	return s.chunk, s.exists
}

func (c *ChunkCache) Tile(t position.Pos) (tile.Tile, bool) {
	ch, ok := c.Chunk(position.TileToChunk(t))
	if !ok {
		return tile.Tile{}, false
	}
	l := position.TileInChunk(t)
	return ch.Tile(l.X, l.Y), true
}

// Queries counts source lookups made so far.
func (c *ChunkCache) Queries() int { return c.queries }
