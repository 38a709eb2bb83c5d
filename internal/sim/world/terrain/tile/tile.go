// Package tile defines the terrain cell value and its sprite table.
package tile

// Kind is the terrain class of a tile.
type Kind uint8

const (
	Ground Kind = iota
	Rock
)

func (k Kind) String() string {
	switch k {
	case Ground:
		return "GROUND"
	case Rock:
		return "ROCK"
	default:
		return "UNKNOWN"
	}
}

// ImpassableCost is the traversal cost of blocked tiles. Large enough that
// any detour through passable ground is cheaper.
const ImpassableCost = 1 << 20

// Tile is immutable once generated.
type Tile struct {
	Kind       Kind
	Blocked    bool
	BlockSight bool
	Cost       int
	Sprite     SpriteID
}

func Empty() Tile {
	return Tile{Kind: Ground, Cost: 1, Sprite: SpriteEmpty}
}

func RockTile() Tile {
	return Tile{Kind: Rock, Blocked: true, BlockSight: true, Cost: ImpassableCost, Sprite: SpriteSolid}
}

// Passable reports whether an agent may stand on the tile.
func (t Tile) Passable() bool { return !t.Blocked }
