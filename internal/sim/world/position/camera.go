package position

import "math"

// Camera maps world space onto a Width x Height screen. Zoom must be > 0.
type Camera struct {
	Pos    Pos
	Width  int
	Height int
	Zoom   float64
}

// CenteredOn returns a copy of c whose view is centered on tile t.
func (c Camera) CenteredOn(t Pos) Camera {
	half := Pos{
		X: int(float64(c.Width) / c.Zoom / 2),
		Y: int(float64(c.Height) / c.Zoom / 2),
	}
	c.Pos = TileToWorld(t).Sub(half)
	return c
}

// WorldToScreen computes (w - camera) * zoom, flooring fractional results.
func WorldToScreen(w Pos, c Camera) Pos {
	d := w.Sub(c.Pos)
	return Pos{
		X: int(math.Floor(float64(d.X) * c.Zoom)),
		Y: int(math.Floor(float64(d.Y) * c.Zoom)),
	}
}

// ScreenToWorld is the inverse of WorldToScreen, exact for integer zoom >= 1.
func ScreenToWorld(s Pos, c Camera) Pos {
	return Pos{
		X: int(math.Floor(float64(s.X)/c.Zoom)) + c.Pos.X,
		Y: int(math.Floor(float64(s.Y)/c.Zoom)) + c.Pos.Y,
	}
}

func TileToScreen(t Pos, c Camera) Pos { return WorldToScreen(TileToWorld(t), c) }

func ChunkToScreen(ch Pos, c Camera) Pos { return WorldToScreen(ChunkToWorld(ch), c) }

// InView reports whether world point w lands on the screen.
func (c Camera) InView(w Pos) bool {
	s := WorldToScreen(w, c)
	return s.X >= 0 && s.Y >= 0 && s.X < c.Width && s.Y < c.Height
}

// TileInView reports whether any part of tile t is on screen.
func (c Camera) TileInView(t Pos) bool {
	s := TileToScreen(t, c)
	size := int(math.Ceil(TileSize * c.Zoom))
	return s.X+size > 0 && s.Y+size > 0 && s.X < c.Width && s.Y < c.Height
}
