// Package position converts between the four coordinate spaces of the world.
//
//   - Tile: one grid cell.
//   - Chunk: a ChunkSize x ChunkSize block of tiles.
//   - World: TileSize units per tile (renderer space before the camera).
//   - Screen: world relative to a camera, scaled by zoom.
//
// Every conversion uses floor division, so negative coordinates map contiguously:
// tile -1 lives in chunk -1 at local index ChunkSize-1.
package position

import (
	"fmt"

	"tileworld.ai/internal/sim/world/logic/mathx"
)

const (
	ChunkSize = 32
	TileSize  = 16
)

// Pos is an integer 2D vector. The space it lives in is implied by usage.
type Pos struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func New(x, y int) Pos { return Pos{X: x, Y: y} }

func (p Pos) Add(o Pos) Pos { return Pos{X: p.X + o.X, Y: p.Y + o.Y} }
func (p Pos) Sub(o Pos) Pos { return Pos{X: p.X - o.X, Y: p.Y - o.Y} }
func (p Pos) Scale(k int) Pos {
	return Pos{X: p.X * k, Y: p.Y * k}
}

// Sign clamps each axis to -1, 0 or 1.
func (p Pos) Sign() Pos { return Pos{X: mathx.Sign(p.X), Y: mathx.Sign(p.Y)} }

// Chebyshev returns max(|dx|, |dy|), the 8-connected step distance.
func (p Pos) Chebyshev(o Pos) int {
	return mathx.MaxInt(mathx.AbsInt(p.X-o.X), mathx.AbsInt(p.Y-o.Y))
}

// IsAdjacent reports whether o is p itself or one of its 8 neighbors.
func (p Pos) IsAdjacent(o Pos) bool { return p.Chebyshev(o) <= 1 }

func (p Pos) String() string { return fmt.Sprintf("(%d,%d)", p.X, p.Y) }

// Less orders positions by X then Y.
func (p Pos) Less(o Pos) bool {
	if p.X != o.X {
		return p.X < o.X
	}
	return p.Y < o.Y
}

func TileToChunk(t Pos) Pos {
	return Pos{X: mathx.FloorDiv(t.X, ChunkSize), Y: mathx.FloorDiv(t.Y, ChunkSize)}
}

// TileInChunk returns the local index of t inside its chunk, always in [0, ChunkSize).
func TileInChunk(t Pos) Pos {
	return Pos{X: mathx.Mod(t.X, ChunkSize), Y: mathx.Mod(t.Y, ChunkSize)}
}

// ChunkToTile returns the tile at local (0,0) of chunk c.
func ChunkToTile(c Pos) Pos { return c.Scale(ChunkSize) }

func TileToWorld(t Pos) Pos { return t.Scale(TileSize) }

func WorldToTile(w Pos) Pos {
	return Pos{X: mathx.FloorDiv(w.X, TileSize), Y: mathx.FloorDiv(w.Y, TileSize)}
}

func WorldToChunk(w Pos) Pos { return TileToChunk(WorldToTile(w)) }

func ChunkToWorld(c Pos) Pos { return TileToWorld(ChunkToTile(c)) }
