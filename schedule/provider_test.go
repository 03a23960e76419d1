package schedule_test

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/warp/shift-engine/rotation"
	"github.com/warp/shift-engine/schedule"
)

// =============================================================================
// FIXED ROTATION PROVIDER
// =============================================================================

func newFixedProvider(t *testing.T) *schedule.FixedRotationProvider {
	t.Helper()
	p, err := schedule.NewFixedRotationProvider(
		rotation.CanonicalTable(), rotation.DefaultShiftTypes(), zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to build provider: %v", err)
	}
	return p
}

func TestFixedProvider_ReferenceDayMatchesGrid(t *testing.T) {
	// GIVEN: The canonical grid at its reference date (cycle day 0)
	// THEN: Every configured slot with teams yields one assignment
	p := newFixedProvider(t)
	pattern := rotation.CanonicalPattern()

	out, warnings := p.GenerateForDate(rotation.ReferenceDate(), pattern, schedule.ScopeFilter{})

	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(out) != rotation.ShiftsPerDay {
		t.Fatalf("expected %d assignments, got %d", rotation.ShiftsPerDay, len(out))
	}
	for _, a := range out {
		if a.CycleIndex != 0 {
			t.Errorf("expected cycle index 0, got %d", a.CycleIndex)
		}
		if a.Provider != schedule.FixedRotationProviderName {
			t.Errorf("unexpected provider %q", a.Provider)
		}
	}
}

func TestFixedProvider_FullCyclePeriodicity(t *testing.T) {
	// A date a whole cycle later produces the same (shift, teams) tuples.
	p := newFixedProvider(t)
	pattern := rotation.CanonicalPattern()
	d := date(2026, time.March, 14)

	first, _ := p.GenerateForDate(d, pattern, schedule.ScopeFilter{})
	second, _ := p.GenerateForDate(d.AddDays(rotation.CycleLength), pattern, schedule.ScopeFilter{})

	if len(first) != len(second) {
		t.Fatalf("cycle shifted: %d vs %d assignments", len(first), len(second))
	}
	for i := range first {
		if first[i].Shift.ID != second[i].Shift.ID {
			t.Errorf("slot %d: shift %s vs %s", i, first[i].Shift.ID, second[i].Shift.ID)
		}
		if len(first[i].Teams) != len(second[i].Teams) || first[i].Teams[0] != second[i].Teams[0] {
			t.Errorf("slot %d: teams %v vs %v", i, first[i].Teams, second[i].Teams)
		}
	}
}

func TestFixedProvider_TeamFilter(t *testing.T) {
	// Scoping to one team returns at most that team's single slot.
	p := newFixedProvider(t)
	pattern := rotation.CanonicalPattern()

	for offset := 0; offset < rotation.CycleLength; offset++ {
		d := rotation.ReferenceDate().AddDays(offset)
		out, _ := p.GenerateForDate(d, pattern, schedule.FilterByTeam("A"))
		if len(out) > 1 {
			t.Fatalf("day %d: team A in %d slots at once", offset, len(out))
		}
		for _, a := range out {
			if !schedule.ContainsTeam(a.Teams, "A") {
				t.Errorf("day %d: filtered result without team A: %v", offset, a.Teams)
			}
		}
	}
}

func TestFixedProvider_TeamFilterNormalizesIdentifier(t *testing.T) {
	p := newFixedProvider(t)
	pattern := rotation.CanonicalPattern()

	strict, _ := p.GenerateForDate(rotation.ReferenceDate(), pattern, schedule.FilterByTeam("A"))
	sloppy, _ := p.GenerateForDate(rotation.ReferenceDate(), pattern, schedule.FilterByTeam(" a "))

	if len(strict) != len(sloppy) {
		t.Errorf("identifier normalization broken: %d vs %d results", len(strict), len(sloppy))
	}
}

func TestFixedProvider_AbsentTeamYieldsEmptyNotError(t *testing.T) {
	p := newFixedProvider(t)
	pattern := rotation.CanonicalPattern()

	out, warnings := p.GenerateForDate(rotation.ReferenceDate(), pattern, schedule.FilterByTeam("Z"))

	if len(out) != 0 {
		t.Errorf("expected empty result for unknown team, got %d", len(out))
	}
	if len(warnings) != 0 {
		t.Errorf("an absent team is not a data-quality problem, got warnings %v", warnings)
	}
}

func TestFixedProvider_MissingSlotMappingSkipsWithWarning(t *testing.T) {
	// GIVEN: A provider configured without the night slot's shift type
	// THEN: The slot is skipped and a warning names the gap; other slots
	//       are unaffected
	mapping := rotation.DefaultShiftTypes()
	delete(mapping, rotation.SlotNight)
	p, err := schedule.NewFixedRotationProvider(rotation.CanonicalTable(), mapping, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to build provider: %v", err)
	}

	out, warnings := p.GenerateForDate(rotation.ReferenceDate(), rotation.CanonicalPattern(), schedule.ScopeFilter{})

	if len(out) != rotation.ShiftsPerDay-1 {
		t.Errorf("expected %d assignments, got %d", rotation.ShiftsPerDay-1, len(out))
	}
	if len(warnings) != 1 || warnings[0].Code != schedule.WarnMissingShiftMapping {
		t.Errorf("expected one missing-mapping warning, got %v", warnings)
	}
}

func TestFixedProvider_InvertedRangeYieldsEmptyWithWarning(t *testing.T) {
	p := newFixedProvider(t)
	start := date(2026, time.March, 14)

	out, warnings := p.GenerateForRange(start, start.AddDays(-1), rotation.CanonicalPattern(), schedule.ScopeFilter{})

	if out == nil || len(out) != 0 {
		t.Errorf("expected empty non-nil result, got %v", out)
	}
	if len(warnings) != 1 || warnings[0].Code != schedule.WarnInvalidRange {
		t.Errorf("expected one invalid-range warning, got %v", warnings)
	}
}

func TestFixedProvider_RejectsForeignPattern(t *testing.T) {
	p := newFixedProvider(t)
	custom := twoDayPattern(date(2026, time.January, 1))

	if p.Supports(custom) {
		t.Fatal("fixed provider must not claim custom patterns")
	}
	out, warnings := p.GenerateForDate(date(2026, time.March, 14), custom, schedule.ScopeFilter{})
	if len(out) != 0 {
		t.Errorf("expected no output for unsupported pattern, got %d", len(out))
	}
	if len(warnings) != 1 || warnings[0].Code != schedule.WarnUnsupportedPattern {
		t.Errorf("expected unsupported-pattern warning, got %v", warnings)
	}
}

// =============================================================================
// CUSTOM PATTERN PROVIDER
// =============================================================================

// twoDayPattern alternates one working day and one rest day.
func twoDayPattern(reference schedule.TimePoint) schedule.PatternDefinition {
	return schedule.PatternDefinition{
		ID:          "alt-2",
		Name:        "Alternating",
		Kind:        schedule.PatternCustom,
		CycleLength: 2,
		Days: []schedule.DaySlots{
			{{Shift: "morning"}},
			{{Shift: "rest"}},
		},
		Reference: reference,
		Version:   1,
	}
}

func TestCustomProvider_FollowsSlotSequence(t *testing.T) {
	p := schedule.NewCustomPatternProvider(testShiftTypes(), zerolog.Nop())
	ref := date(2026, time.January, 1)
	pattern := twoDayPattern(ref)

	work, _ := p.GenerateForDate(ref, pattern, schedule.ScopeFilter{})
	rest, _ := p.GenerateForDate(ref.AddDays(1), pattern, schedule.ScopeFilter{})

	if len(work) != 1 || work[0].Shift.ID != "morning" {
		t.Errorf("day 0: expected morning, got %v", work)
	}
	if len(rest) != 1 || !rest[0].Shift.Rest {
		t.Errorf("day 1: expected rest, got %v", rest)
	}
}

func TestCustomProvider_CycleAnchorShiftsPhase(t *testing.T) {
	// GIVEN: Two users on the same 2-day pattern, anchored on different
	//        cycle days at the same effective date
	// THEN: Their schedules are exactly out of phase
	p := schedule.NewCustomPatternProvider(testShiftTypes(), zerolog.Nop())
	from := date(2026, time.January, 1)
	pattern := twoDayPattern(from)

	onDayOne := pattern.AlignedTo(schedule.UserScheduleAssignment{EffectiveFrom: from, CycleAnchor: 1})
	onDayTwo := pattern.AlignedTo(schedule.UserScheduleAssignment{EffectiveFrom: from, CycleAnchor: 2})

	first, _ := p.GenerateForDate(from, onDayOne, schedule.ScopeFilter{})
	second, _ := p.GenerateForDate(from, onDayTwo, schedule.ScopeFilter{})

	if first[0].Shift.ID == second[0].Shift.ID {
		t.Errorf("different anchors produced the same phase: %s", first[0].Shift.ID)
	}
	if second[0].Shift.ID != "rest" {
		t.Errorf("anchor 2 should land on the rest day, got %s", second[0].Shift.ID)
	}
}

func TestCustomProvider_OutOfRangeAnchorClampsToOne(t *testing.T) {
	p := schedule.NewCustomPatternProvider(testShiftTypes(), zerolog.Nop())
	from := date(2026, time.January, 1)
	pattern := twoDayPattern(from)

	clamped := pattern.AlignedTo(schedule.UserScheduleAssignment{EffectiveFrom: from, CycleAnchor: 99})
	out, _ := p.GenerateForDate(from, clamped, schedule.ScopeFilter{})

	if len(out) != 1 || out[0].Shift.ID != "morning" {
		t.Errorf("out-of-range anchor should behave like anchor 1, got %v", out)
	}
}

func TestCustomProvider_UnknownShiftTypeSkipsSlot(t *testing.T) {
	p := schedule.NewCustomPatternProvider(testShiftTypes(), zerolog.Nop())
	pattern := twoDayPattern(date(2026, time.January, 1))
	pattern.Days[0] = schedule.DaySlots{{Shift: "unknown"}}

	out, warnings := p.GenerateForDate(date(2026, time.January, 1), pattern, schedule.ScopeFilter{})

	if len(out) != 0 {
		t.Errorf("expected the unknown slot skipped, got %v", out)
	}
	if len(warnings) != 1 || warnings[0].Code != schedule.WarnUnknownShiftType {
		t.Errorf("expected unknown-shift-type warning, got %v", warnings)
	}
}

func TestCustomProvider_LengthMismatchNotSupported(t *testing.T) {
	p := schedule.NewCustomPatternProvider(testShiftTypes(), zerolog.Nop())
	pattern := twoDayPattern(date(2026, time.January, 1))
	pattern.CycleLength = 3 // Days still has 2 entries

	if p.Supports(pattern) {
		t.Fatal("mismatched slot sequence must not be supported")
	}
	if err := pattern.Validate(); err == nil {
		t.Fatal("expected validation error for length mismatch")
	}
}

func TestCustomProvider_TeamlessSlotPassesTeamFilter(t *testing.T) {
	// A personal pattern has no team lists; filtering by team must not
	// erase the user's own schedule.
	p := schedule.NewCustomPatternProvider(testShiftTypes(), zerolog.Nop())
	ref := date(2026, time.January, 1)

	out, _ := p.GenerateForDate(ref, twoDayPattern(ref), schedule.FilterByTeam("A"))

	if len(out) != 1 {
		t.Errorf("teamless slot should pass any team filter, got %d results", len(out))
	}
}

// =============================================================================
// PROVIDER SELECTION
// =============================================================================

func TestSelectProvider_UnsupportedPatternIsError(t *testing.T) {
	fixed := newFixedProvider(t)
	pattern := rotation.CanonicalPattern()
	pattern.Kind = "LUNAR"

	_, err := schedule.SelectProvider([]schedule.Provider{fixed}, pattern)
	if err == nil {
		t.Fatal("expected error for unsupported pattern kind")
	}
	if !errors.Is(err, schedule.ErrUnsupportedPattern) {
		t.Errorf("unexpected error classification: %v", err)
	}
}
