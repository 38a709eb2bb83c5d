// Package gen is the pure terrain function: tile kind and sprite from (seed, position).
package gen

import (
	"fmt"

	perlin "github.com/aquilax/go-perlin"

	"tileworld.ai/internal/sim/world/logic/mathx"
	"tileworld.ai/internal/sim/world/position"
	"tileworld.ai/internal/sim/world/terrain/tile"
)

// Perlin octave parameters. Changing them changes every world.
const (
	noiseAlpha   = 2.0
	noiseBeta    = 2.0
	noiseOctaves = 3
)

type Params struct {
	NoiseScale           float64
	RockThreshold        float64
	SprinkleTreePermille int
}

func DefaultParams() Params {
	return Params{
		NoiseScale:           1.0 / 15.0,
		RockThreshold:        0.5,
		SprinkleTreePermille: 20,
	}
}

func (p Params) Validate() error {
	if p.NoiseScale <= 0 {
		return fmt.Errorf("noise_scale must be > 0")
	}
	if p.SprinkleTreePermille < 0 || p.SprinkleTreePermille > 1000 {
		return fmt.Errorf("sprinkle_tree_permille must be in [0,1000]")
	}
	return nil
}

// Generator is safe for concurrent reads; it holds no mutable state after New.
type Generator struct {
	seed   int64
	params Params
	noise  *perlin.Perlin
}

func New(seed int64, p Params) *Generator {
	return &Generator{
		seed:   seed,
		params: p,
		noise:  perlin.NewPerlin(noiseAlpha, noiseBeta, noiseOctaves, seed),
	}
}

func (g *Generator) Seed() int64    { return g.seed }
func (g *Generator) Params() Params { return g.params }

// KindAt samples the noise field at tile t.
func (g *Generator) KindAt(t position.Pos) tile.Kind {
	v := g.noise.Noise2D(float64(t.X)*g.params.NoiseScale, float64(t.Y)*g.params.NoiseScale)
	if v > g.params.RockThreshold {
		return tile.Rock
	}
	return tile.Ground
}

// TileAt builds the full tile at t. Neighbor kinds are sampled directly from the
// field, so the result does not depend on which chunks exist.
func (g *Generator) TileAt(t position.Pos) tile.Tile {
	return g.tileFrom(t, g.KindAt(t), func(n position.Pos) tile.Kind { return g.KindAt(n) })
}

func (g *Generator) tileFrom(t position.Pos, k tile.Kind, kindAt func(position.Pos) tile.Kind) tile.Tile {
	if k == tile.Rock {
		var n position.DirectionalMap[tile.Kind]
		for _, d := range position.Directions {
			n.Set(d, kindAt(t.Add(d.Delta())))
		}
		out := tile.RockTile()
		out.Sprite = tile.SelectSprite(tile.Rock, n)
		return out
	}
	out := tile.Empty()
	if g.params.SprinkleTreePermille > 0 {
		h := mathx.Hash2(g.seed, t.X, t.Y)
		if int(h%1000) < g.params.SprinkleTreePermille {
			out.Sprite = tile.SpriteTreeA
			if (h>>32)&1 == 1 {
				out.Sprite = tile.SpriteTreeB
			}
		}
	}
	return out
}

// Chunk fills a ChunkSize x ChunkSize grid (indexed [y][x]) for chunk c. Kinds are
// sampled once over a one-tile apron so sprite selection reuses them.
func (g *Generator) Chunk(c position.Pos) [position.ChunkSize][position.ChunkSize]tile.Tile {
	const n = position.ChunkSize
	var kinds [n + 2][n + 2]tile.Kind
	origin := position.ChunkToTile(c)
	for y := -1; y <= n; y++ {
		for x := -1; x <= n; x++ {
			kinds[y+1][x+1] = g.KindAt(origin.Add(position.New(x, y)))
		}
	}
	kindAt := func(p position.Pos) tile.Kind {
		l := p.Sub(origin)
		return kinds[l.Y+1][l.X+1]
	}

	var out [n][n]tile.Tile
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			p := origin.Add(position.New(x, y))
			out[y][x] = g.tileFrom(p, kinds[y+1][x+1], kindAt)
		}
	}
	return out
}
