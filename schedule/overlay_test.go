package schedule_test

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/shift-engine/schedule"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var (
	morning = schedule.ShiftType{
		ID: "morning", Name: "Morning",
		Start: schedule.NewClockTime(6, 0), End: schedule.NewClockTime(14, 0),
	}
	afternoon = schedule.ShiftType{
		ID: "afternoon", Name: "Afternoon",
		Start: schedule.NewClockTime(14, 0), End: schedule.NewClockTime(22, 0),
	}
	night = schedule.ShiftType{
		ID: "night", Name: "Night",
		Start: schedule.NewClockTime(22, 0), End: schedule.NewClockTime(6, 0),
	}
	restShift = schedule.ShiftType{ID: "rest", Name: "Rest", Rest: true}
)

func testShiftTypes() map[schedule.ShiftTypeID]schedule.ShiftType {
	return map[schedule.ShiftTypeID]schedule.ShiftType{
		"morning":   morning,
		"afternoon": afternoon,
		"night":     night,
		"rest":      restShift,
	}
}

func newOverlay() *schedule.ExceptionOverlay {
	return schedule.NewExceptionOverlay(testShiftTypes(), zerolog.Nop())
}

func baseMorning(d schedule.TimePoint, teams ...schedule.TeamID) schedule.BaseAssignment {
	return schedule.BaseAssignment{
		Date: d, Shift: morning, Teams: teams,
		SlotIndex: 0, CycleIndex: 3, PatternID: "canonical-18", Provider: "fixed-rotation",
	}
}

func shiftID(id string) *schedule.ShiftTypeID {
	s := schedule.ShiftTypeID(id)
	return &s
}

func exc(id string, d schedule.TimePoint, kind schedule.ExceptionKind, scope schedule.Scope, replacement *schedule.ShiftTypeID, createdAt time.Time) schedule.ShiftException {
	return schedule.ShiftException{
		ID: schedule.ExceptionID(id), Date: d, Kind: kind, Scope: scope,
		Status: schedule.ExceptionActive, Replacement: replacement, CreatedAt: createdAt,
	}
}

// =============================================================================
// CONFLICT RESOLUTION
// =============================================================================

func TestResolveExceptionConflicts_LastWriteWins(t *testing.T) {
	// GIVEN: Two mutators for the same (date, scope), created an hour apart
	// THEN: The later one wins, the earlier one is discarded
	d := date(2026, time.March, 14)
	t0 := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	older := exc("e1", d, schedule.ExceptionRemove, schedule.TeamScope("A"), nil, t0)
	newer := exc("e2", d, schedule.ExceptionOverride, schedule.TeamScope("A"), shiftID("night"), t0.Add(time.Hour))

	decision := schedule.ResolveExceptionConflicts([]schedule.ShiftException{older, newer})

	require.NotNil(t, decision.Mutator)
	assert.Equal(t, schedule.ExceptionID("e2"), decision.Mutator.ID)
	require.Len(t, decision.Discarded, 1)
	assert.Equal(t, schedule.ExceptionID("e1"), decision.Discarded[0].ID)
}

func TestResolveExceptionConflicts_ExactTimestampTieBreaksOnID(t *testing.T) {
	d := date(2026, time.March, 14)
	at := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	a := exc("aaa", d, schedule.ExceptionRemove, schedule.TeamScope("A"), nil, at)
	b := exc("bbb", d, schedule.ExceptionOverride, schedule.TeamScope("A"), shiftID("night"), at)

	decision := schedule.ResolveExceptionConflicts([]schedule.ShiftException{a, b})

	require.NotNil(t, decision.Mutator)
	assert.Equal(t, schedule.ExceptionID("bbb"), decision.Mutator.ID,
		"equal timestamps must fall back to the larger ID, deterministically")

	// Input order must not matter.
	reversed := schedule.ResolveExceptionConflicts([]schedule.ShiftException{b, a})
	assert.Equal(t, decision.Mutator.ID, reversed.Mutator.ID)
}

func TestResolveExceptionConflicts_AddsAreNotDiscarded(t *testing.T) {
	// ADD_SHIFT entries are additive: they coexist with the winning mutator.
	d := date(2026, time.March, 14)
	t0 := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	group := []schedule.ShiftException{
		exc("add-1", d, schedule.ExceptionAdd, schedule.TeamScope("A"), shiftID("night"), t0),
		exc("rm-1", d, schedule.ExceptionRemove, schedule.TeamScope("A"), nil, t0.Add(time.Minute)),
		exc("add-2", d, schedule.ExceptionAdd, schedule.TeamScope("A"), shiftID("afternoon"), t0.Add(2*time.Minute)),
	}

	decision := schedule.ResolveExceptionConflicts(group)

	assert.Len(t, decision.Adds, 2)
	assert.Empty(t, decision.Discarded)
	require.NotNil(t, decision.Mutator)
	assert.Equal(t, schedule.ExceptionRemove, decision.Mutator.Kind)
}

func TestResolveExceptionConflicts_CancelledAreInert(t *testing.T) {
	d := date(2026, time.March, 14)
	cancelled := exc("e1", d, schedule.ExceptionRemove, schedule.TeamScope("A"), nil, time.Now())
	cancelled.Status = schedule.ExceptionCancelled

	decision := schedule.ResolveExceptionConflicts([]schedule.ShiftException{cancelled})

	assert.Nil(t, decision.Mutator)
	assert.Empty(t, decision.Adds)
	assert.Empty(t, decision.Discarded)
}

// =============================================================================
// OVERLAY APPLICATION
// =============================================================================

func TestOverlay_RemoveShift_GuaranteesAbsence(t *testing.T) {
	// GIVEN: Team A works the morning slot
	// WHEN: A REMOVE_SHIFT for team A is applied
	// THEN: Nothing remains for team A on that date
	d := date(2026, time.March, 14)
	base := []schedule.BaseAssignment{baseMorning(d, "A")}
	remove := exc("rm", d, schedule.ExceptionRemove, schedule.TeamScope("A"), nil, time.Now())

	resolved, warnings := newOverlay().Apply(d, base, []schedule.ShiftException{remove})

	assert.Empty(t, resolved)
	assert.Empty(t, warnings)
}

func TestOverlay_RemoveShift_SplitsMultiTeamSlot(t *testing.T) {
	// Removing one team from a shared slot keeps the other team working.
	d := date(2026, time.March, 14)
	base := []schedule.BaseAssignment{baseMorning(d, "A", "B")}
	remove := exc("rm", d, schedule.ExceptionRemove, schedule.TeamScope("A"), nil, time.Now())

	resolved, _ := newOverlay().Apply(d, base, []schedule.ShiftException{remove})

	require.Len(t, resolved, 1)
	assert.Equal(t, []schedule.TeamID{"B"}, resolved[0].Teams)
}

func TestOverlay_OverrideShift_ReplacesShift(t *testing.T) {
	d := date(2026, time.March, 14)
	base := []schedule.BaseAssignment{baseMorning(d, "A")}
	override := exc("ov", d, schedule.ExceptionOverride, schedule.TeamScope("A"), shiftID("night"), time.Now())

	resolved, _ := newOverlay().Apply(d, base, []schedule.ShiftException{override})

	require.Len(t, resolved, 1)
	assert.Equal(t, schedule.ShiftTypeID("night"), resolved[0].Shift.ID)
	assert.Equal(t, schedule.OriginExceptionOverride, resolved[0].Origin)
	assert.Equal(t, schedule.ExceptionID("ov"), resolved[0].ExceptionID)
}

func TestOverlay_OverrideShift_SynthesizesWhenScopeOffDuty(t *testing.T) {
	// An override is authoritative even when the pattern had the team off.
	d := date(2026, time.March, 14)
	override := exc("ov", d, schedule.ExceptionOverride, schedule.TeamScope("C"), shiftID("morning"), time.Now())

	resolved, _ := newOverlay().Apply(d, nil, []schedule.ShiftException{override})

	require.Len(t, resolved, 1)
	assert.Equal(t, schedule.ShiftTypeID("morning"), resolved[0].Shift.ID)
	assert.Equal(t, []schedule.TeamID{"C"}, resolved[0].Teams)
	assert.Equal(t, -1, resolved[0].CycleIndex, "synthesized entries carry no cycle position")
}

func TestOverlay_AddCoexistsWithBase(t *testing.T) {
	// GIVEN: Team A works the morning
	// WHEN: An ADD_SHIFT(night) for team A arrives
	// THEN: Both the morning and the night shift appear, sorted by start time
	d := date(2026, time.March, 14)
	base := []schedule.BaseAssignment{baseMorning(d, "A")}
	add := exc("add", d, schedule.ExceptionAdd, schedule.TeamScope("A"), shiftID("night"), time.Now())

	resolved, _ := newOverlay().Apply(d, base, []schedule.ShiftException{add})

	require.Len(t, resolved, 2)
	assert.Equal(t, schedule.ShiftTypeID("morning"), resolved[0].Shift.ID)
	assert.Equal(t, schedule.OriginPattern, resolved[0].Origin)
	assert.Equal(t, schedule.ShiftTypeID("night"), resolved[1].Shift.ID)
	assert.Equal(t, schedule.OriginExceptionAdd, resolved[1].Origin)
}

func TestOverlay_DuplicateAddsCollapse(t *testing.T) {
	d := date(2026, time.March, 14)
	t0 := time.Now()
	adds := []schedule.ShiftException{
		exc("add-1", d, schedule.ExceptionAdd, schedule.TeamScope("A"), shiftID("night"), t0),
		exc("add-2", d, schedule.ExceptionAdd, schedule.TeamScope("A"), shiftID("night"), t0.Add(time.Minute)),
	}

	resolved, _ := newOverlay().Apply(d, nil, adds)

	assert.Len(t, resolved, 1, "two ADDs of the same shift must yield one entry")
}

func TestOverlay_ConflictEmitsWarningAndLastWins(t *testing.T) {
	// The ambiguity surfaces as a warning, never as an error or a crash.
	d := date(2026, time.March, 14)
	t0 := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	base := []schedule.BaseAssignment{baseMorning(d, "A")}
	excs := []schedule.ShiftException{
		exc("e1", d, schedule.ExceptionRemove, schedule.TeamScope("A"), nil, t0),
		exc("e2", d, schedule.ExceptionOverride, schedule.TeamScope("A"), shiftID("night"), t0.Add(time.Hour)),
	}

	resolved, warnings := newOverlay().Apply(d, base, excs)

	require.Len(t, resolved, 1)
	assert.Equal(t, schedule.ShiftTypeID("night"), resolved[0].Shift.ID)
	require.Len(t, warnings, 1)
	assert.Equal(t, schedule.WarnAmbiguousExceptions, warnings[0].Code)
}

func TestOverlay_MissingReplacementDegradesToWarning(t *testing.T) {
	d := date(2026, time.March, 14)
	base := []schedule.BaseAssignment{baseMorning(d, "A")}
	override := exc("ov", d, schedule.ExceptionOverride, schedule.TeamScope("A"), shiftID("nonexistent"), time.Now())

	resolved, warnings := newOverlay().Apply(d, base, []schedule.ShiftException{override})

	require.Len(t, resolved, 1, "base assignment survives an unusable override")
	assert.Equal(t, schedule.ShiftTypeID("morning"), resolved[0].Shift.ID)
	require.Len(t, warnings, 1)
	assert.Equal(t, schedule.WarnMissingReplacement, warnings[0].Code)
}

func TestOverlay_ExceptionsForOtherDatesIgnored(t *testing.T) {
	d := date(2026, time.March, 14)
	base := []schedule.BaseAssignment{baseMorning(d, "A")}
	other := exc("rm", d.AddDays(1), schedule.ExceptionRemove, schedule.TeamScope("A"), nil, time.Now())

	resolved, _ := newOverlay().Apply(d, base, []schedule.ShiftException{other})

	require.Len(t, resolved, 1)
	assert.Equal(t, schedule.OriginPattern, resolved[0].Origin)
}

func TestOverlay_UserScopeAppliesAfterTeamScope(t *testing.T) {
	// GIVEN: A team override moves the user's team to the afternoon, and a
	//        user REMOVE frees this particular user
	// THEN: The user ends the day with nothing scheduled
	d := date(2026, time.March, 14)
	base := []schedule.BaseAssignment{baseMorning(d, "A")}
	excs := []schedule.ShiftException{
		exc("team-ov", d, schedule.ExceptionOverride, schedule.TeamScope("A"), shiftID("afternoon"), time.Now()),
		exc("user-rm", d, schedule.ExceptionRemove, schedule.UserScope("u1"), nil, time.Now()),
	}

	resolved, _ := newOverlay().Apply(d, base, excs)

	assert.Empty(t, resolved)
}

func TestOverlay_SortsRestLast(t *testing.T) {
	d := date(2026, time.March, 14)
	base := []schedule.BaseAssignment{
		{Date: d, Shift: restShift, Teams: []schedule.TeamID{"C"}, SlotIndex: 2},
		{Date: d, Shift: night, Teams: []schedule.TeamID{"B"}, SlotIndex: 1},
		{Date: d, Shift: morning, Teams: []schedule.TeamID{"A"}, SlotIndex: 0},
	}

	resolved, _ := newOverlay().Apply(d, base, nil)

	require.Len(t, resolved, 3)
	assert.Equal(t, schedule.ShiftTypeID("morning"), resolved[0].Shift.ID)
	assert.Equal(t, schedule.ShiftTypeID("night"), resolved[1].Shift.ID)
	assert.True(t, resolved[2].Shift.Rest)
}
