package world

import (
	"fmt"
	"strings"
)

// Resource names a piece of world state a pass touches.
type Resource uint8

const (
	ResLevel Resource = iota
	ResPositions
	ResLoaders
	ResGoals
	ResDeltas
	ResPathing
	ResHealth
	ResMembership
)

func (r Resource) String() string {
	switch r {
	case ResLevel:
		return "level"
	case ResPositions:
		return "positions"
	case ResLoaders:
		return "loaders"
	case ResGoals:
		return "goals"
	case ResDeltas:
		return "deltas"
	case ResPathing:
		return "pathing"
	case ResHealth:
		return "health"
	case ResMembership:
		return "membership"
	default:
		return fmt.Sprintf("resource(%d)", uint8(r))
	}
}

// Pass is one step of a tick. Reads and Writes declare what Run touches.
type Pass struct {
	Name   string
	Reads  []Resource
	Writes []Resource
	Run    func(tc *TickContext)
}

// Schedule runs passes in order, one after another.
type Schedule struct {
	passes []Pass
}

// NewSchedule rejects a pass list where two passes write the same resource.
func NewSchedule(passes ...Pass) (*Schedule, error) {
	writer := map[Resource]string{}
	for _, p := range passes {
		if p.Run == nil {
			return nil, fmt.Errorf("pass %q has no run func", p.Name)
		}
		for _, r := range p.Writes {
			if prev, ok := writer[r]; ok {
				return nil, fmt.Errorf("passes %q and %q both write %s", prev, p.Name, r)
			}
			writer[r] = p.Name
		}
	}
	return &Schedule{passes: append([]Pass(nil), passes...)}, nil
}

// Conflicts reports whether a and b could not run concurrently: one writes
// something the other reads or writes.
func Conflicts(a, b Pass) bool {
	return overlaps(a.Writes, b.Writes) || overlaps(a.Writes, b.Reads) || overlaps(b.Writes, a.Reads)
}

func overlaps(x, y []Resource) bool {
	for _, a := range x {
		for _, b := range y {
			if a == b {
				return true
			}
		}
	}
	return false
}

func (s *Schedule) Run(tc *TickContext) {
	for _, p := range s.passes {
		p.Run(tc)
	}
}

func (s *Schedule) String() string {
	names := make([]string, len(s.passes))
	for i, p := range s.passes {
		names[i] = p.Name
	}
	return strings.Join(names, " -> ")
}
