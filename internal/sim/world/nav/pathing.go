package nav

import "tileworld.ai/internal/sim/world/position"

// Pathing is a search result being walked one step per tick.
type Pathing struct {
	steps  []position.Pos
	goal   position.Pos
	cost   int
	cursor int
}

func NewPathing(steps []position.Pos, goal position.Pos, cost int) *Pathing {
	return &Pathing{steps: steps, goal: goal, cost: cost}
}

// Next returns the next step and advances. ok is false once every step was taken.
func (p *Pathing) Next() (position.Pos, bool) {
	if p.cursor >= len(p.steps) {
		return position.Pos{}, false
	}
	s := p.steps[p.cursor]
	p.cursor++
	return s, true
}

// Stale reports whether the goal has moved since the search.
func (p *Pathing) Stale(liveGoal position.Pos) bool { return p.goal != liveGoal }

func (p *Pathing) Goal() position.Pos { return p.goal }
func (p *Pathing) Cost() int          { return p.cost }
func (p *Pathing) Remaining() int     { return len(p.steps) - p.cursor }

// Planner turns (position, goal, current path) into a one-tile delta.
type Planner struct {
	Source        ChunkSource
	NavRange      int
	CloseEnough   int
	MaxExpansions int
}

type Decision struct {
	Delta    position.Pos
	Path     *Pathing
	Searches int
	Failures int
}

// Plan decides this tick's move. A stale, exhausted or derailed path is replaced
// by a fresh search in the same call. Agents within CloseEnough of their goal
// do not move. The returned Path is nil once its last step has been taken.
func (pl Planner) Plan(pos, goal position.Pos, path *Pathing) Decision {
	d := Decision{Path: path}
	if d.Path != nil && (d.Path.Stale(goal) || d.Path.Remaining() == 0) {
		d.Path = nil
	}
	if pos.Chebyshev(goal) <= pl.CloseEnough {
		return d
	}

	var step position.Pos
	ok := false
	if d.Path != nil {
		step, ok = d.Path.Next()
		if ok && (step == pos || !pos.IsAdjacent(step)) {
			// The last move was rejected or the agent was displaced.
			ok = false
		}
	}
	if !ok {
		step, ok = pl.research(pos, goal, &d)
		if !ok {
			return d
		}
	}
	if d.Path != nil && d.Path.Remaining() == 0 {
		d.Path = nil
	}
	d.Delta = step.Sub(pos).Sign()
	return d
}

func (pl Planner) research(pos, goal position.Pos, d *Decision) (position.Pos, bool) {
	d.Searches++
	cache := NewChunkCache(pl.Source, position.TileToChunk(pos), pl.NavRange)
	res, found := Search(cache, pos, goal, pl.MaxExpansions)
	if !found {
		d.Failures++
		d.Path = nil
		return position.Pos{}, false
	}
	d.Path = NewPathing(res.Steps, goal, res.Cost)
	step, ok := d.Path.Next()
	if !ok {
		d.Path = nil
	}
	return step, ok
}
