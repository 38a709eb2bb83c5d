package tile

import "tileworld.ai/internal/sim/world/position"

// SpriteID is a cell of the sprite atlas.
type SpriteID struct {
	X uint8 `json:"x"`
	Y uint8 `json:"y"`
}

// Pack returns the id as a single uint16 (x in the low byte).
func (s SpriteID) Pack() uint16 { return uint16(s.X) | uint16(s.Y)<<8 }

var (
	SpriteEmpty  = SpriteID{0, 0}
	SpriteSolid  = SpriteID{1, 0}
	SpritePlayer = SpriteID{2, 0}
	SpriteTreeA  = SpriteID{3, 0}
	SpriteTreeB  = SpriteID{4, 0}
)

// Open-side bits, named by the compass letters of the wall sprites.
const (
	openN = 1 << iota
	openE
	openS
	openW
)

// Rock with at least one open cardinal side.
var wallOpen = map[int]SpriteID{
	openS:                         {0, 1},
	openN | openS:                 {0, 2},
	openN:                         {0, 3},
	openE | openS:                 {1, 1},
	openN | openE | openS:         {1, 2},
	openN | openE:                 {1, 3},
	openE | openS | openW:         {2, 1},
	openN | openE | openS | openW: {2, 2},
	openN | openE | openW:         {2, 3},
	openS | openW:                 {3, 1},
	openN | openS | openW:         {3, 2},
	openN | openW:                 {3, 3},
	// The atlas has no dedicated art for these.
	openE:         {1, 2},
	openW:         {3, 2},
	openE | openW: {2, 2},
}

// Rock closed on all cardinal sides but open on at least one diagonal.
var wallOpenCorner = map[int]SpriteID{
	openE | openS:                 {4, 1},
	openN | openE | openS:         {4, 2},
	openN | openE:                 {4, 3},
	openE | openS | openW:         {5, 1},
	openN | openE | openS | openW: {5, 2},
	openN | openE | openW:         {5, 3},
	openS | openW:                 {6, 1},
	openN | openS | openW:         {6, 2},
	openN | openW:                 {6, 3},
}

// SelectSprite picks the sprite of a tile of kind k from its 8 neighbor kinds.
// Ground is always SpriteEmpty here; decoration is layered on by the generator.
func SelectSprite(k Kind, n position.DirectionalMap[Kind]) SpriteID {
	if k != Rock {
		return SpriteEmpty
	}
	open := func(d position.Direction) bool { return n.Get(d) != Rock }

	mask := 0
	if open(position.North) {
		mask |= openN
	}
	if open(position.East) {
		mask |= openE
	}
	if open(position.South) {
		mask |= openS
	}
	if open(position.West) {
		mask |= openW
	}
	if mask != 0 {
		return wallOpen[mask]
	}

	// Each open diagonal contributes both of its letters (SE -> E,S).
	if open(position.NorthEast) {
		mask |= openN | openE
	}
	if open(position.SouthEast) {
		mask |= openS | openE
	}
	if open(position.SouthWest) {
		mask |= openS | openW
	}
	if open(position.NorthWest) {
		mask |= openN | openW
	}
	if mask != 0 {
		return wallOpenCorner[mask]
	}
	return SpriteSolid
}

// NamedSprite labels an atlas cell for renderers.
type NamedSprite struct {
	Name string
	ID   SpriteID
}

// Masks that borrow another mask's art; they get no name of their own.
var aliasedWallOpen = map[int]bool{openE: true, openW: true, openE | openW: true}

func maskLetters(mask int) string {
	var b []byte
	for i, c := range []byte("nesw") {
		if mask&(1<<i) != 0 {
			b = append(b, c)
		}
	}
	return string(b)
}

// Catalog lists every distinct sprite the tile layer emits, in a stable order.
func Catalog() []NamedSprite {
	out := []NamedSprite{
		{"empty", SpriteEmpty},
		{"solid", SpriteSolid},
		{"player", SpritePlayer},
		{"tree_a", SpriteTreeA},
		{"tree_b", SpriteTreeB},
	}
	for mask := 1; mask < 16; mask++ {
		if id, ok := wallOpen[mask]; ok && !aliasedWallOpen[mask] {
			out = append(out, NamedSprite{"wall_" + maskLetters(mask) + "_open", id})
		}
	}
	for mask := 1; mask < 16; mask++ {
		if id, ok := wallOpenCorner[mask]; ok {
			out = append(out, NamedSprite{"wall_" + maskLetters(mask) + "_open_corner", id})
		}
	}
	return out
}
