package store

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"tileworld.ai/internal/sim/world/position"
	"tileworld.ai/internal/sim/world/terrain/gen"
	"tileworld.ai/internal/sim/world/terrain/tile"
)

const N = position.ChunkSize

// grid is shared by the archived and loaded forms of one chunk; it is never mutated
// after generation, so moving between the two forms is a pointer handoff.
type grid struct {
	tiles [N][N]tile.Tile // [y][x]

	hashed bool
	hash   [32]byte
}

func (g *grid) digest() [32]byte {
	if !g.hashed {
		h := sha256.New()
		var tmp [8]byte
		for y := 0; y < N; y++ {
			for x := 0; x < N; x++ {
				t := g.tiles[y][x]
				tmp[0] = byte(t.Kind)
				tmp[1] = 0
				if t.Blocked {
					tmp[1] = 1
				}
				binary.LittleEndian.PutUint32(tmp[2:6], uint32(t.Cost))
				binary.LittleEndian.PutUint16(tmp[6:8], t.Sprite.Pack())
				h.Write(tmp[:])
			}
		}
		copy(g.hash[:], h.Sum(nil))
		g.hashed = true
	}
	return g.hash
}

// OutOfRangeError is the panic value of LoadedChunk.Tile for a local coordinate
// outside [0, N). It marks a caller bug, not a lookup miss.
type OutOfRangeError struct {
	Chunk position.Pos
	X, Y  int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("local tile (%d,%d) out of range [0,%d) in chunk %v", e.X, e.Y, N, e.Chunk)
}

// UnloadedChunk is the archived form. It keeps the IDs of entities that were
// standing in it when it was unloaded.
type UnloadedChunk struct {
	pos       position.Pos
	grid      *grid
	Residents []uint64

	archivedSeq uint64
}

// Generate builds the archived form of chunk c from the generator alone.
func Generate(c position.Pos, g *gen.Generator) *UnloadedChunk {
	return &UnloadedChunk{pos: c, grid: &grid{tiles: g.Chunk(c)}}
}

// FromTiles wraps a prebuilt grid ([y][x]) as an archived chunk.
func FromTiles(c position.Pos, tiles [N][N]tile.Tile) *UnloadedChunk {
	return &UnloadedChunk{pos: c, grid: &grid{tiles: tiles}}
}

func (u *UnloadedChunk) Pos() position.Pos { return u.pos }

func (u *UnloadedChunk) Digest() [32]byte { return u.grid.digest() }

// Load converts u to the active form without recomputing tiles.
func (u *UnloadedChunk) Load() *LoadedChunk {
	return &LoadedChunk{pos: u.pos, grid: u.grid}
}

// LoadedChunk is the active, queryable form.
type LoadedChunk struct {
	pos  position.Pos
	grid *grid
}

func (c *LoadedChunk) Pos() position.Pos { return c.pos }

// Tile returns the tile at local (x, y). It panics with *OutOfRangeError when
// either coordinate is outside [0, N).
func (c *LoadedChunk) Tile(x, y int) tile.Tile {
	if x < 0 || y < 0 || x >= N || y >= N {
		panic(&OutOfRangeError{Chunk: c.pos, X: x, Y: y})
	}
	return c.grid.tiles[y][x]
}

// TileAt resolves a tile-space position that must lie inside this chunk.
func (c *LoadedChunk) TileAt(t position.Pos) tile.Tile {
	l := t.Sub(position.ChunkToTile(c.pos))
	return c.Tile(l.X, l.Y)
}

func (c *LoadedChunk) Digest() [32]byte { return c.grid.digest() }

// Sprites returns packed sprite ids in row-major order.
func (c *LoadedChunk) Sprites() []uint16 {
	out := make([]uint16, 0, N*N)
	for y := 0; y < N; y++ {
		for x := 0; x < N; x++ {
			out = append(out, c.grid.tiles[y][x].Sprite.Pack())
		}
	}
	return out
}

// Unload converts c to the archived form, recording residents.
func (c *LoadedChunk) Unload(residents []uint64) *UnloadedChunk {
	var ids []uint64
	if len(residents) > 0 {
		ids = append([]uint64(nil), residents...)
	}
	return &UnloadedChunk{pos: c.pos, grid: c.grid, Residents: ids}
}
