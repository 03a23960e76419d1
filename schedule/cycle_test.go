package schedule_test

import (
	"testing"
	"time"

	"github.com/warp/shift-engine/schedule"
)

func date(y int, m time.Month, d int) schedule.TimePoint {
	return schedule.NewTimePoint(y, m, d)
}

// =============================================================================
// CYCLE INDEX TESTS
// =============================================================================

func TestCycleIndex_ReferenceDateIsDayZero(t *testing.T) {
	ref := date(2010, time.January, 4)
	if got := schedule.CycleIndex(ref, ref, 18); got != 0 {
		t.Errorf("expected index 0 at the reference date, got %d", got)
	}
}

func TestCycleIndex_AlwaysInRange(t *testing.T) {
	// GIVEN: Dates far before and after the reference
	// THEN: The index stays in [0, cycleLength) for every one of them
	ref := date(2010, time.January, 4)
	for offset := -1000; offset <= 1000; offset++ {
		d := ref.AddDays(offset)
		idx := schedule.CycleIndex(d, ref, 18)
		if idx < 0 || idx >= 18 {
			t.Fatalf("index %d out of range for offset %d", idx, offset)
		}
	}
}

func TestCycleIndex_Periodicity(t *testing.T) {
	// Index of d equals index of d +/- cycleLength days.
	ref := date(2010, time.January, 4)
	for offset := -50; offset <= 50; offset++ {
		d := ref.AddDays(offset)
		idx := schedule.CycleIndex(d, ref, 18)
		if next := schedule.CycleIndex(d.AddDays(18), ref, 18); next != idx {
			t.Errorf("offset %d: index %d, +18 days gave %d", offset, idx, next)
		}
		if prev := schedule.CycleIndex(d.AddDays(-18), ref, 18); prev != idx {
			t.Errorf("offset %d: index %d, -18 days gave %d", offset, idx, prev)
		}
	}
}

func TestCycleIndex_DatesBeforeReference(t *testing.T) {
	// GIVEN: A date before the reference
	// THEN: Flooring division keeps the index positive: one day before the
	//       reference is the cycle's last day, not -1.
	ref := date(2010, time.January, 4)
	if got := schedule.CycleIndex(ref.AddDays(-1), ref, 18); got != 17 {
		t.Errorf("expected index 17 the day before the reference, got %d", got)
	}
	if got := schedule.CycleIndex(ref.AddDays(-18), ref, 18); got != 0 {
		t.Errorf("expected index 0 a full cycle before the reference, got %d", got)
	}
}

func TestCycleIndex_CrossesDSTBoundary(t *testing.T) {
	// Day-level arithmetic must be immune to the spring DST transition:
	// 89 days after 2026-01-01 is 2026-03-31 regardless of wall clocks.
	ref := date(2026, time.January, 1)
	d := date(2026, time.March, 31)
	if got := schedule.DaysBetween(ref, d); got != 89 {
		t.Fatalf("expected 89 days between, got %d", got)
	}
	if got := schedule.CycleIndex(d, ref, 18); got != 89%18 {
		t.Errorf("expected index %d, got %d", 89%18, got)
	}
}

func TestFloorMod(t *testing.T) {
	cases := []struct {
		x, n, want int
	}{
		{0, 18, 0},
		{17, 18, 17},
		{18, 18, 0},
		{36, 18, 0},
		{-1, 18, 17},
		{-18, 18, 0},
		{-19, 18, 17},
	}
	for _, c := range cases {
		if got := schedule.FloorMod(c.x, c.n); got != c.want {
			t.Errorf("FloorMod(%d, %d) = %d, want %d", c.x, c.n, got, c.want)
		}
	}
}
