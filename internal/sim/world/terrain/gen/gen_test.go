package gen

import (
	"testing"

	"tileworld.ai/internal/sim/world/position"
	"tileworld.ai/internal/sim/world/terrain/tile"
)

func TestChunkDeterministic(t *testing.T) {
	a := New(42, DefaultParams())
	b := New(42, DefaultParams())
	for _, c := range []position.Pos{{X: 0, Y: 0}, {X: -1, Y: 3}, {X: 7, Y: -9}} {
		if a.Chunk(c) != b.Chunk(c) {
			t.Fatalf("chunk %v differs between generators with the same seed", c)
		}
	}
}

func TestChunkMatchesTileAt(t *testing.T) {
	p := DefaultParams()
	p.RockThreshold = 0
	g := New(7, p)
	c := position.New(-1, 2)
	grid := g.Chunk(c)
	origin := position.ChunkToTile(c)
	for y := 0; y < position.ChunkSize; y++ {
		for x := 0; x < position.ChunkSize; x++ {
			want := g.TileAt(origin.Add(position.New(x, y)))
			if grid[y][x] != want {
				t.Fatalf("local (%d,%d): chunk tile %+v, TileAt %+v", x, y, grid[y][x], want)
			}
		}
	}
}

func TestSeedChangesTerrain(t *testing.T) {
	p := DefaultParams()
	p.RockThreshold = 0
	a := New(1, p).Chunk(position.New(0, 0))
	b := New(2, p).Chunk(position.New(0, 0))
	if a == b {
		t.Fatalf("different seeds produced identical chunks")
	}
}

func TestHighThresholdIsAllGround(t *testing.T) {
	p := DefaultParams()
	p.RockThreshold = 10
	grid := New(99, p).Chunk(position.New(3, 3))
	for y := range grid {
		for x := range grid[y] {
			tl := grid[y][x]
			if tl.Kind != tile.Ground || tl.Blocked || tl.Cost != 1 {
				t.Fatalf("local (%d,%d) = %+v", x, y, tl)
			}
		}
	}
}

func TestRockIsBlocked(t *testing.T) {
	p := DefaultParams()
	p.RockThreshold = -10
	tl := New(5, p).TileAt(position.New(-40, 12))
	if tl.Kind != tile.Rock || !tl.Blocked || tl.Cost != tile.ImpassableCost || tl.Sprite != tile.SpriteSolid {
		t.Fatalf("tile=%+v", tl)
	}
}

func TestParamsValidate(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	p := DefaultParams()
	p.NoiseScale = 0
	if err := p.Validate(); err == nil {
		t.Fatalf("expected error for zero noise scale")
	}
}
