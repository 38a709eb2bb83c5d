package position

import "testing"

func TestTileChunkRoundTrip(t *testing.T) {
	for _, tile := range []Pos{{0, 0}, {31, 31}, {32, 0}, {-1, -1}, {-32, 5}, {-33, -65}, {1000, -1000}} {
		c := TileToChunk(tile)
		local := TileInChunk(tile)
		if local.X < 0 || local.X >= ChunkSize || local.Y < 0 || local.Y >= ChunkSize {
			t.Fatalf("local %v out of range for %v", local, tile)
		}
		if got := ChunkToTile(c).Add(local); got != tile {
			t.Fatalf("round trip %v -> chunk %v local %v -> %v", tile, c, local, got)
		}
	}
}

func TestNegativeTileMapsToPreviousChunk(t *testing.T) {
	tile := New(-1, 0)
	if c := TileToChunk(tile); c != New(-1, 0) {
		t.Fatalf("chunk=%v want (-1,0)", c)
	}
	if l := TileInChunk(tile); l != New(31, 0) {
		t.Fatalf("local=%v want (31,0)", l)
	}
}

func TestWorldTileConversions(t *testing.T) {
	if w := TileToWorld(New(2, -3)); w != New(32, -48) {
		t.Fatalf("world=%v", w)
	}
	if tile := WorldToTile(New(-1, 15)); tile != New(-1, 0) {
		t.Fatalf("tile=%v", tile)
	}
	if c := WorldToChunk(New(ChunkSize*TileSize, -1)); c != New(1, -1) {
		t.Fatalf("chunk=%v", c)
	}
	if w := ChunkToWorld(New(1, -1)); w != New(512, -512) {
		t.Fatalf("chunk world=%v", w)
	}
}

func TestChebyshevAndAdjacency(t *testing.T) {
	a := New(3, 4)
	if d := a.Chebyshev(New(0, 0)); d != 4 {
		t.Fatalf("chebyshev=%d", d)
	}
	if !a.IsAdjacent(New(4, 5)) || !a.IsAdjacent(a) {
		t.Fatalf("expected adjacent")
	}
	if a.IsAdjacent(New(5, 4)) {
		t.Fatalf("unexpected adjacent")
	}
	if s := New(-9, 0).Sign(); s != New(-1, 0) {
		t.Fatalf("sign=%v", s)
	}
}

func TestDirections(t *testing.T) {
	for i, d := range Directions {
		if d.Index() != i {
			t.Fatalf("index of %v = %d want %d", d.Delta(), d.Index(), i)
		}
		if d.Invert().Invert() != d {
			t.Fatalf("double invert changed %v", d.Delta())
		}
		if d.Delta().Add(d.Invert().Delta()) != (Pos{}) {
			t.Fatalf("invert not opposite for %v", d.Delta())
		}
	}
	if North.Delta() != New(0, -1) || NorthWest.Index() != 7 {
		t.Fatalf("unexpected ordering")
	}
	d, ok := DirectionOf(New(5, -2))
	if !ok || d != NorthEast {
		t.Fatalf("DirectionOf=%v ok=%v", d.Delta(), ok)
	}
	if _, ok := DirectionOf(Pos{}); ok {
		t.Fatalf("zero delta should not have a direction")
	}
}

func TestDirectionalMap(t *testing.T) {
	m := NewDirectionalMap(false)
	m.Set(South, true)
	for _, d := range Directions {
		if m.Get(d) != (d == South) {
			t.Fatalf("unexpected value for %v", d.Delta())
		}
	}
}

func TestDirectionalMapZeroDirectionPanics(t *testing.T) {
	defer func() {
		if r := recover(); r != ErrZeroDirection {
			t.Fatalf("recovered %v, want ErrZeroDirection", r)
		}
	}()
	m := NewDirectionalMap(0)
	m.Get(Direction{})
}
