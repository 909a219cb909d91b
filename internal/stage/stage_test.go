package stage_test

import (
	"testing"

	"github.com/toledos-acai/api/internal/stage"
)

func TestPositionMapping(t *testing.T) {
	cases := []struct {
		status string
		want   int
	}{
		{"pending", 0},
		{"preparing", 1},
		{"delivery", 2},
		{"completed", 3},
		{"cancelled", -1},
		{"anything-else", 0},
		{"", 0},
		{"PENDING", 0}, // statuses are lowercase; anything else falls back
	}
	for _, tc := range cases {
		if got := stage.Position(tc.status); got != tc.want {
			t.Errorf("Position(%q): got %d, want %d", tc.status, got, tc.want)
		}
	}
}

func TestProgress(t *testing.T) {
	cases := []struct {
		status string
		want   float64
	}{
		{"pending", 0},
		{"preparing", 1.0 / 3.0},
		{"delivery", 2.0 / 3.0},
		{"completed", 1},
		{"cancelled", 0},
		{"garbage", 0},
	}
	for _, tc := range cases {
		if got := stage.Progress(tc.status); got != tc.want {
			t.Errorf("Progress(%q): got %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestReachedAndCurrent(t *testing.T) {
	// delivery = position 2: stages 0..2 reached, only 2 current.
	for i := 0; i < stage.Count; i++ {
		wantReached := i <= 2
		if got := stage.Reached(i, "delivery"); got != wantReached {
			t.Errorf("Reached(%d, delivery): got %v, want %v", i, got, wantReached)
		}
		wantCurrent := i == 2
		if got := stage.Current(i, "delivery"); got != wantCurrent {
			t.Errorf("Current(%d, delivery): got %v, want %v", i, got, wantCurrent)
		}
	}

	// Cancelled suppresses the stepper entirely.
	for i := 0; i < stage.Count; i++ {
		if stage.Reached(i, "cancelled") {
			t.Errorf("Reached(%d, cancelled) must be false", i)
		}
		if stage.Current(i, "cancelled") {
			t.Errorf("Current(%d, cancelled) must be false", i)
		}
	}
}

func TestIsCancelled(t *testing.T) {
	if !stage.IsCancelled("cancelled") {
		t.Error("cancelled not detected")
	}
	for _, s := range []string{"pending", "preparing", "delivery", "completed", "unknown", ""} {
		if stage.IsCancelled(s) {
			t.Errorf("IsCancelled(%q) must be false", s)
		}
	}
}

func TestStepsOrder(t *testing.T) {
	steps := stage.Steps()
	if len(steps) != stage.Count {
		t.Fatalf("expected %d steps, got %d", stage.Count, len(steps))
	}
	for i, s := range steps {
		if got := stage.Position(s.Status); got != i {
			t.Errorf("step %d (%s): Position = %d", i, s.Status, got)
		}
	}
}
