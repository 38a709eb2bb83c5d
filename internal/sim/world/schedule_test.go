package world

import (
	"strings"
	"testing"
)

func noop(*TickContext) {}

func TestNewScheduleRejectsSecondWriter(t *testing.T) {
	_, err := NewSchedule(
		StreamPass(),
		Pass{Name: "terraform", Writes: []Resource{ResLevel}, Run: noop},
	)
	if err == nil || !strings.Contains(err.Error(), "level") {
		t.Fatalf("expected single-writer error, got %v", err)
	}
}

func TestNewScheduleRejectsMissingRun(t *testing.T) {
	if _, err := NewSchedule(Pass{Name: "empty"}); err == nil {
		t.Fatalf("expected error for pass without run func")
	}
}

func TestDefaultPassesValid(t *testing.T) {
	s, err := NewSchedule(DefaultPasses()...)
	if err != nil {
		t.Fatalf("default passes: %v", err)
	}
	if got := s.String(); got != "stream -> ai -> move -> health" {
		t.Fatalf("order=%q", got)
	}
}

func TestConflicts(t *testing.T) {
	stream, ai, move := StreamPass(), AIPass(), MovePass()
	if !Conflicts(stream, ai) {
		t.Fatalf("stream writes the level that ai reads")
	}
	if !Conflicts(ai, move) {
		t.Fatalf("ai writes deltas that move reads")
	}
	if !Conflicts(move, stream) {
		t.Fatalf("move writes positions that stream reads")
	}
	if Conflicts(move, HealthPass()) {
		t.Fatalf("move and health touch disjoint state")
	}
	a := Pass{Name: "a", Reads: []Resource{ResLevel}, Run: noop}
	b := Pass{Name: "b", Reads: []Resource{ResLevel, ResGoals}, Run: noop}
	if Conflicts(a, b) {
		t.Fatalf("two readers should not conflict")
	}
}
