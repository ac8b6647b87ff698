package domain

import "testing"

func TestStageNavigation(t *testing.T) {
	t.Parallel()

	next, ok := StageSenate.Next()
	if !ok || next != StageCategorize {
		t.Fatalf("senate should advance to categorize, got %q", next)
	}
	if _, ok := StageReview.Next(); ok {
		t.Fatalf("review is the last stage")
	}
	prev, ok := StageGmail.Prev()
	if !ok || prev != StageStart {
		t.Fatalf("gmail should go back to start, got %q", prev)
	}
	if _, err := ParseStage("export"); err == nil {
		t.Fatalf("export is an action, not a stage")
	}
}
