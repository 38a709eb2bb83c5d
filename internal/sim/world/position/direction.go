package position

import "errors"

var ErrZeroDirection = errors.New("position: zero Direction has no slot")

// Direction is one of the 8 unit steps of the grid.
type Direction struct {
	dx, dy int
}

var (
	North     = Direction{0, -1}
	NorthEast = Direction{1, -1}
	East      = Direction{1, 0}
	SouthEast = Direction{1, 1}
	South     = Direction{0, 1}
	SouthWest = Direction{-1, 1}
	West      = Direction{-1, 0}
	NorthWest = Direction{-1, -1}
)

// Directions lists all 8 directions clockwise from North. Index() follows this order.
var Directions = [8]Direction{North, NorthEast, East, SouthEast, South, SouthWest, West, NorthWest}

// DirectionOf normalizes delta to a unit direction. ok is false for the zero delta.
func DirectionOf(delta Pos) (Direction, bool) {
	s := delta.Sign()
	if s.X == 0 && s.Y == 0 {
		return Direction{}, false
	}
	return Direction{dx: s.X, dy: s.Y}, true
}

func (d Direction) Delta() Pos { return Pos{X: d.dx, Y: d.dy} }

func (d Direction) Invert() Direction { return Direction{dx: -d.dx, dy: -d.dy} }

// Index returns the position of d in Directions, or -1 for the zero value.
func (d Direction) Index() int {
	for i, v := range Directions {
		if v == d {
			return i
		}
	}
	return -1
}

// Cardinal reports whether d moves along exactly one axis.
func (d Direction) Cardinal() bool { return d.dx == 0 || d.dy == 0 }

// DirectionalMap stores one value per direction.
type DirectionalMap[T any] struct {
	data [8]T
}

func NewDirectionalMap[T any](v T) DirectionalMap[T] {
	var m DirectionalMap[T]
	for i := range m.data {
		m.data[i] = v
	}
	return m
}

// Get and Set panic on the zero Direction; callers obtain directions from
// Directions or DirectionOf.
func (m *DirectionalMap[T]) Get(d Direction) T { return m.data[slot(d)] }

func (m *DirectionalMap[T]) Set(d Direction, v T) { m.data[slot(d)] = v }

func slot(d Direction) int {
	i := d.Index()
	if i < 0 {
		panic(ErrZeroDirection)
	}
	return i
}
