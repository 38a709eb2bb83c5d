// Package scenario seeds worlds with fixed entity populations.
package scenario

import (
	"tileworld.ai/internal/sim/world"
	"tileworld.ai/internal/sim/world/position"
)

// Demo places a loader walking toward a distant beacon and a second loader
// trailing it, so streaming and pathfinding run without any client attached.
// It returns the spawned IDs in spawn order.
func Demo(w *world.World) []world.EntityID {
	beacon := w.Spawn(world.SpawnSpec{Name: "beacon", Pos: position.New(80, 20), Loader: true, LoaderRange: world.Int(1)})
	scout := w.Spawn(world.SpawnSpec{Name: "scout", Pos: position.New(0, 0), Loader: true, LoaderRange: world.Int(2), Goal: beacon})
	trail := w.Spawn(world.SpawnSpec{Name: "trail", Pos: position.New(-30, 10), Loader: true, LoaderRange: world.Int(1), Goal: scout})
	return []world.EntityID{beacon, scout, trail}
}
