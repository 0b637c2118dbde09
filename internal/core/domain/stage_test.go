package domain

import "testing"

func TestStageOrderIsStrictlyForward(t *testing.T) {
	want := []Stage{
		StageGenerating, StageSynthesizing, StageImaging,
		StageTranscribing, StageComposing, StagePublishing, StageDone,
	}

	s := StageIdle
	for _, expected := range want {
		next, ok := s.Next()
		if !ok {
			t.Fatalf("no next stage after %s", s)
		}
		if next != expected {
			t.Fatalf("after %s got %s, want %s", s, next, expected)
		}
		if !s.CanAdvanceTo(next) {
			t.Fatalf("CanAdvanceTo(%s -> %s) = false", s, next)
		}
		s = next
	}

	if _, ok := StageDone.Next(); ok {
		t.Fatal("done must be terminal")
	}
}

func TestCanAdvanceToRejectsSkips(t *testing.T) {
	if StageIdle.CanAdvanceTo(StageComposing) {
		t.Fatal("skipping stages must not be a legal transition")
	}
	if StagePublishing.CanAdvanceTo(StageGenerating) {
		t.Fatal("backwards transition must not be legal")
	}
}

func TestValid(t *testing.T) {
	if !StageComposing.Valid() {
		t.Fatal("composing should be valid")
	}
	if Stage("rendering").Valid() {
		t.Fatal("unknown stage should be invalid")
	}
}
