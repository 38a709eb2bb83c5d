package nav

import (
	"container/heap"

	"tileworld.ai/internal/sim/world/position"
)

type Result struct {
	Steps    []position.Pos // excludes the start tile
	Cost     int
	Expanded int
}

type node struct {
	pos  position.Pos
	g, h int
	seq  int
}

// openSet orders by f, then h, then insertion so equal-cost searches are reproducible.
type openSet []node

func (o openSet) Len() int { return len(o) }
func (o openSet) Less(i, j int) bool {
	fi, fj := o[i].g+o[i].h, o[j].g+o[j].h
	if fi != fj {
		return fi < fj
	}
	if o[i].h != o[j].h {
		return o[i].h < o[j].h
	}
	return o[i].seq < o[j].seq
}
func (o openSet) Swap(i, j int) { o[i], o[j] = o[j], o[i] }
func (o *openSet) Push(x any)   { *o = append(*o, x.(node)) }
func (o *openSet) Pop() any {
	old := *o
	n := old[len(old)-1]
	*o = old[:len(old)-1]
	return n
}

// Search runs A* over 8-connected tiles known to cache. Any tile within
// Chebyshev distance 1 of goal ends the search. Stepping onto a tile costs that
// tile's Cost, so blocked tiles are reachable only at ImpassableCost. Tiles the
// cache cannot resolve have no edges. maxExpansions <= 0 means unbounded.
func Search(cache *ChunkCache, start, goal position.Pos, maxExpansions int) (Result, bool) {
	if start.IsAdjacent(goal) {
		return Result{}, true
	}

	open := &openSet{}
	best := map[position.Pos]int{start: 0}
	parent := map[position.Pos]position.Pos{}
	closed := map[position.Pos]bool{}
	seq := 0
	heap.Push(open, node{pos: start, g: 0, h: start.Chebyshev(goal), seq: seq})

	expanded := 0
	for open.Len() > 0 {
		cur := heap.Pop(open).(node)
		if closed[cur.pos] {
			continue
		}
		if cur.pos.IsAdjacent(goal) {
			return Result{Steps: unwind(parent, start, cur.pos), Cost: cur.g, Expanded: expanded}, true
		}
		closed[cur.pos] = true
		expanded++
		if maxExpansions > 0 && expanded > maxExpansions {
			break
		}

		for _, d := range position.Directions {
			np := cur.pos.Add(d.Delta())
			if closed[np] {
				continue
			}
			t, ok := cache.Tile(np)
			if !ok {
				continue
			}
			g := cur.g + t.Cost
			if old, seen := best[np]; seen && old <= g {
				continue
			}
			best[np] = g
			parent[np] = cur.pos
			seq++
			heap.Push(open, node{pos: np, g: g, h: np.Chebyshev(goal), seq: seq})
		}
	}
	return Result{Expanded: expanded}, false
}

func unwind(parent map[position.Pos]position.Pos, start, end position.Pos) []position.Pos {
	var rev []position.Pos
	for p := end; p != start; p = parent[p] {
		rev = append(rev, p)
	}
	steps := make([]position.Pos, len(rev))
	for i := range rev {
		steps[i] = rev[len(rev)-1-i]
	}
	return steps
}
