package position

import "testing"

func TestWorldToScreen(t *testing.T) {
	cam := Camera{Pos: New(100, 50), Width: 640, Height: 480, Zoom: 2}
	if s := WorldToScreen(New(110, 60), cam); s != New(20, 20) {
		t.Fatalf("screen=%v", s)
	}
	if s := TileToScreen(New(7, 4), cam); s != New(24, 28) {
		t.Fatalf("tile screen=%v", s)
	}
	if s := ChunkToScreen(New(0, 0), cam); s != New(-200, -100) {
		t.Fatalf("chunk screen=%v", s)
	}
}

func TestScreenToWorldInvertsIntegerZoom(t *testing.T) {
	for _, zoom := range []float64{1, 2, 3} {
		cam := Camera{Pos: New(-37, 12), Width: 320, Height: 240, Zoom: zoom}
		for _, w := range []Pos{{0, 0}, {-37, 12}, {400, -5}, {-1000, 999}} {
			if got := ScreenToWorld(WorldToScreen(w, cam), cam); got != w {
				t.Fatalf("zoom %v: %v -> %v", zoom, w, got)
			}
		}
	}
}

func TestInView(t *testing.T) {
	cam := Camera{Pos: New(0, 0), Width: 64, Height: 32, Zoom: 1}
	if !cam.InView(New(0, 0)) || !cam.InView(New(63, 31)) {
		t.Fatalf("corner should be visible")
	}
	if cam.InView(New(64, 0)) || cam.InView(New(-1, 0)) {
		t.Fatalf("outside should not be visible")
	}
	// Tile -1 spans world [-16,0): it touches nothing on screen.
	if cam.TileInView(New(-1, 0)) {
		t.Fatalf("tile left of view")
	}
	cam.Pos = New(-8, 0)
	if !cam.TileInView(New(-1, 0)) {
		t.Fatalf("partially visible tile")
	}
}

func TestCenteredOn(t *testing.T) {
	cam := Camera{Width: 320, Height: 160, Zoom: 2}.CenteredOn(New(10, 10))
	if cam.Pos != New(160-80, 160-40) {
		t.Fatalf("pos=%v", cam.Pos)
	}
	if !cam.TileInView(New(10, 10)) {
		t.Fatalf("center tile not in view")
	}
}
