package main

import (
	"strings"

	"tileworld.ai/internal/sim/world"
	"tileworld.ai/internal/sim/world/position"
	"tileworld.ai/internal/sim/world/terrain/tile"
)

// render draws a cols x rows tile view centered on center, one rune per tile:
// '@' entity, '#' rock, '^' tree, '.' ground, ' ' not loaded.
func render(w *world.World, center position.Pos, cols, rows int) string {
	cam := position.Camera{Width: cols * position.TileSize, Height: rows * position.TileSize, Zoom: 1}.CenteredOn(center)

	occupied := map[position.Pos]bool{}
	for _, e := range w.Entities().Sorted() {
		if cam.TileInView(e.Pos) {
			occupied[e.Pos] = true
		}
	}

	var b strings.Builder
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			screen := position.New(x*position.TileSize, y*position.TileSize)
			t := position.WorldToTile(position.ScreenToWorld(screen, cam))
			b.WriteByte(glyph(w, t, occupied[t]))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func glyph(w *world.World, t position.Pos, occupied bool) byte {
	if occupied {
		return '@'
	}
	tl, ok := w.Level().LoadedTile(t)
	switch {
	case !ok:
		return ' '
	case tl.Kind == tile.Rock:
		return '#'
	case tl.Sprite == tile.SpriteTreeA || tl.Sprite == tile.SpriteTreeB:
		return '^'
	default:
		return '.'
	}
}
