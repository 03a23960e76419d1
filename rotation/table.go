/*
Package rotation holds the canonical industrial rotation data.

PURPOSE:
  One rotation dominates this system: an 18-day cycle, 3 shift slots per day,
  9 teams. Each team works two mornings, two afternoons, two nights, then
  rests twelve days; teams are staggered two days apart so every slot is
  covered every day. This package exposes that table as plain data - the
  engine receives it as injected configuration and never hard-codes it.

LAYOUT:
  CanonicalTable():     the 18x3 grid of team sets
  DefaultShiftTypes():  slot index -> shift type (morning/afternoon/night)
  ShiftTypesByID():     shift type lookup for overlays and custom patterns
  CanonicalTeams():     the nine teams, A through I
  CanonicalPattern():   the grid re-expressed as a PatternDefinition

USAGE:
  provider, err := schedule.NewFixedRotationProvider(
      rotation.CanonicalTable(), rotation.DefaultShiftTypes(), logger)

SEE ALSO:
  - schedule/fixed.go: the provider consuming this table
*/
package rotation

import (
	"time"

	"github.com/warp/shift-engine/schedule"
)

// Grid geometry.
const (
	CycleLength  = 18
	ShiftsPerDay = 3
	TeamCount    = 9

	// teamStagger is the phase distance between consecutive teams.
	teamStagger = 2
)

// Slot indexes into the grid rows.
const (
	SlotMorning = iota
	SlotAfternoon
	SlotNight
)

// Shift type identifiers.
const (
	ShiftMorning   schedule.ShiftTypeID = "morning"
	ShiftAfternoon schedule.ShiftTypeID = "afternoon"
	ShiftNight     schedule.ShiftTypeID = "night"
	ShiftRest      schedule.ShiftTypeID = "rest"
)

// referenceDate anchors cycle day 0. Monday 2010-01-04, the rotation's
// historical start; every deployment of the canonical table shares it.
var referenceDate = schedule.NewTimePoint(2010, time.January, 4)

// ReferenceDate returns the historical anchor of the canonical rotation.
func ReferenceDate() schedule.TimePoint { return referenceDate }

// DefaultShiftTypes maps grid slot indexes to their shift types.
func DefaultShiftTypes() map[int]schedule.ShiftType {
	return map[int]schedule.ShiftType{
		SlotMorning: {
			ID:    ShiftMorning,
			Name:  "Morning",
			Start: schedule.NewClockTime(6, 0),
			End:   schedule.NewClockTime(14, 0),
		},
		SlotAfternoon: {
			ID:    ShiftAfternoon,
			Name:  "Afternoon",
			Start: schedule.NewClockTime(14, 0),
			End:   schedule.NewClockTime(22, 0),
		},
		SlotNight: {
			ID:    ShiftNight,
			Name:  "Night",
			Start: schedule.NewClockTime(22, 0),
			End:   schedule.NewClockTime(6, 0),
		},
	}
}

// ShiftTypesByID returns the shift type lookup used by overlays, custom
// patterns and the API layer. Includes the rest marker.
func ShiftTypesByID() map[schedule.ShiftTypeID]schedule.ShiftType {
	byID := make(map[schedule.ShiftTypeID]schedule.ShiftType, ShiftsPerDay+1)
	for _, st := range DefaultShiftTypes() {
		byID[st.ID] = st
	}
	byID[ShiftRest] = schedule.ShiftType{ID: ShiftRest, Name: "Rest", Rest: true}
	return byID
}

// CanonicalTeams returns the nine rotation teams, A through I. Phase offsets
// are zero because the stagger is baked into the grid itself.
func CanonicalTeams() []schedule.Team {
	teams := make([]schedule.Team, 0, TeamCount)
	for i := 0; i < TeamCount; i++ {
		id := schedule.TeamID(string(rune('A' + i)))
		teams = append(teams, schedule.Team{ID: id, Name: "Team " + string(id)})
	}
	return teams
}

// CanonicalTable builds the 18x3 grid. Team t (0-based) starts its block
// t*teamStagger days into the cycle: days 0-1 morning, 2-3 afternoon, 4-5
// night relative to its own phase, the rest off. Every cell holds exactly
// one team.
func CanonicalTable() schedule.RotationTable {
	cells := make([][][]schedule.TeamID, CycleLength)
	teams := CanonicalTeams()

	for day := 0; day < CycleLength; day++ {
		cells[day] = make([][]schedule.TeamID, ShiftsPerDay)
		for t := 0; t < TeamCount; t++ {
			phase := schedule.FloorMod(day-t*teamStagger, CycleLength)
			var slot int
			switch {
			case phase < 2:
				slot = SlotMorning
			case phase < 4:
				slot = SlotAfternoon
			case phase < 6:
				slot = SlotNight
			default:
				continue
			}
			cells[day][slot] = append(cells[day][slot], teams[t].ID)
		}
	}

	return schedule.RotationTable{
		CycleLength:  CycleLength,
		ShiftsPerDay: ShiftsPerDay,
		Reference:    referenceDate,
		Cells:        cells,
	}
}

// CanonicalPattern re-expresses the grid as a PatternDefinition, the form
// the orchestrator and cache key work with.
func CanonicalPattern() schedule.PatternDefinition {
	table := CanonicalTable()
	shiftBySlot := DefaultShiftTypes()

	days := make([]schedule.DaySlots, table.CycleLength)
	for day, row := range table.Cells {
		slots := make(schedule.DaySlots, 0, len(row))
		for slot, cell := range row {
			if len(cell) == 0 {
				continue
			}
			slots = append(slots, schedule.SlotTemplate{
				Shift: shiftBySlot[slot].ID,
				Teams: append([]schedule.TeamID(nil), cell...),
			})
		}
		days[day] = slots
	}

	return schedule.PatternDefinition{
		ID:          "canonical-18",
		Name:        "18-day rotation",
		Description: "Nine teams, three shifts, eighteen-day cycle",
		Kind:        schedule.PatternFixed,
		CycleLength: table.CycleLength,
		Days:        days,
		Reference:   table.Reference,
		Version:     1,
	}
}
