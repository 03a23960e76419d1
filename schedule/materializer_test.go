package schedule_test

import (
	"strings"
	"testing"
	"time"

	"github.com/warp/shift-engine/schedule"
)

func resolvedMorning(d schedule.TimePoint) schedule.ResolvedAssignment {
	return schedule.ResolvedAssignment{
		BaseAssignment: schedule.BaseAssignment{
			Date: d, Shift: morning, Teams: []schedule.TeamID{"A"},
			SlotIndex: 0, CycleIndex: 3, PatternID: "canonical-18", Provider: "fixed-rotation",
		},
		Origin: schedule.OriginPattern,
	}
}

func canonicalTestPattern() schedule.PatternDefinition {
	return schedule.PatternDefinition{
		ID: "canonical-18", Name: "18-day rotation", Kind: schedule.PatternFixed,
		CycleLength: 18, Reference: date(2010, time.January, 4),
	}
}

func TestMaterializer_DeterministicEventIDs(t *testing.T) {
	// Same input twice yields identical IDs; a different origin yields a
	// different ID for otherwise equal content.
	var m schedule.Materializer
	d := date(2026, time.March, 14)
	teams := map[schedule.TeamID]schedule.Team{"A": {ID: "A", Name: "Team A"}}
	pattern := canonicalTestPattern()

	first := m.Day(d, []schedule.ResolvedAssignment{resolvedMorning(d)}, pattern, teams, nil)
	second := m.Day(d, []schedule.ResolvedAssignment{resolvedMorning(d)}, pattern, teams, nil)

	if first.Events[0].ID != second.Events[0].ID {
		t.Errorf("IDs differ across identical materializations: %s vs %s",
			first.Events[0].ID, second.Events[0].ID)
	}

	overridden := resolvedMorning(d)
	overridden.Origin = schedule.OriginExceptionOverride
	overridden.ExceptionID = "e1"
	third := m.Day(d, []schedule.ResolvedAssignment{overridden}, pattern, teams, nil)
	if third.Events[0].ID == first.Events[0].ID {
		t.Error("different origins must not collide on event ID")
	}
}

func TestMaterializer_TitleAndDescription(t *testing.T) {
	var m schedule.Materializer
	d := date(2026, time.March, 14)
	teams := map[schedule.TeamID]schedule.Team{"A": {ID: "A", Name: "Team A"}}

	day := m.Day(d, []schedule.ResolvedAssignment{resolvedMorning(d)}, canonicalTestPattern(), teams, nil)

	ev := day.Events[0]
	if ev.Title != "Morning: Team A (18-day rotation)" {
		t.Errorf("unexpected title %q", ev.Title)
	}
	for _, want := range []string{"06:00-14:00", "Day 4 of 18"} {
		if !strings.Contains(ev.Description, want) {
			t.Errorf("description %q missing %q", ev.Description, want)
		}
	}
}

func TestMaterializer_NightShiftMarksNextDay(t *testing.T) {
	var m schedule.Materializer
	d := date(2026, time.March, 14)
	r := resolvedMorning(d)
	r.Shift = night

	day := m.Day(d, []schedule.ResolvedAssignment{r}, canonicalTestPattern(), nil, nil)

	if !strings.Contains(day.Events[0].Description, "(ends next day)") {
		t.Errorf("night shift description should flag the midnight crossing: %q", day.Events[0].Description)
	}
}

func TestMaterializer_UnknownTeamRendersRawID(t *testing.T) {
	// A missing directory row must not blank out the schedule.
	var m schedule.Materializer
	d := date(2026, time.March, 14)

	day := m.Day(d, []schedule.ResolvedAssignment{resolvedMorning(d)}, canonicalTestPattern(),
		map[schedule.TeamID]schedule.Team{}, nil)

	if len(day.Events) != 1 {
		t.Fatalf("expected one event, got %d", len(day.Events))
	}
	if day.Events[0].Teams[0].Name != "A" {
		t.Errorf("expected raw ID as fallback name, got %q", day.Events[0].Teams[0].Name)
	}
}

func TestMaterializer_SynthesizedEntryOmitsCycleDay(t *testing.T) {
	// Exception-created entries carry CycleIndex -1 and must not claim a
	// cycle position.
	var m schedule.Materializer
	d := date(2026, time.March, 14)
	r := resolvedMorning(d)
	r.CycleIndex = -1
	r.SlotIndex = -1
	r.Origin = schedule.OriginExceptionAdd
	r.ExceptionID = "add-1"

	day := m.Day(d, []schedule.ResolvedAssignment{r}, canonicalTestPattern(), nil, nil)

	desc := day.Events[0].Description
	if strings.Contains(desc, "Day ") {
		t.Errorf("synthesized entry should not report a cycle day: %q", desc)
	}
	if !strings.Contains(desc, "Added by exception") {
		t.Errorf("expected exception provenance in description: %q", desc)
	}
}

func TestMaterializer_RestShiftDescription(t *testing.T) {
	var m schedule.Materializer
	d := date(2026, time.March, 14)
	r := resolvedMorning(d)
	r.Shift = restShift

	day := m.Day(d, []schedule.ResolvedAssignment{r}, canonicalTestPattern(), nil, nil)

	if !strings.HasPrefix(day.Events[0].Description, "Rest period") {
		t.Errorf("unexpected rest description %q", day.Events[0].Description)
	}
}
