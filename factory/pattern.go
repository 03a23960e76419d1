/*
Package factory provides JSON to Go pattern conversion.

PURPOSE:
  Converts JSON pattern definitions into schedule.PatternDefinition values
  and their shift-type lookups. This keeps rotations configurable without
  code changes: an admin UI or a seed file can define a custom cycle, and
  the factory builds the proper Go structs and validates them up front.

JSON SCHEMA:
  {
    "id": "guard-4",
    "name": "4-day guard cycle",
    "kind": "CUSTOM",
    "cycle_length": 4,
    "reference": "2024-01-01",
    "shift_types": [
      {"id": "day", "name": "Day", "start": "08:00", "end": "20:00",
       "break": {"start": "12:00", "end": "12:30"}},
      {"id": "off", "name": "Off", "rest": true}
    ],
    "days": [
      {"slots": [{"shift": "day"}]},
      {"slots": [{"shift": "day"}]},
      {"slots": [{"shift": "off"}]},
      {"slots": [{"shift": "off"}]}
    ]
  }

VALIDATION:
  Structural invariants fail loudly here, at configuration time, so the
  generation pipeline never sees an invalid pattern: positive cycle length,
  slot-sequence length equal to the declared cycle length, parseable clock
  times, and every referenced shift type defined.

SEE ALSO:
  - schedule/types.go: PatternDefinition.Validate
  - schedule/custom.go: the provider consuming these patterns
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/warp/shift-engine/schedule"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

type PatternJSON struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Kind        string          `json:"kind"`
	CycleLength int             `json:"cycle_length"`
	Reference   string          `json:"reference"`
	Version     int64           `json:"version,omitempty"`
	ShiftTypes  []ShiftTypeJSON `json:"shift_types"`
	Days        []DayJSON       `json:"days"`
}

type ShiftTypeJSON struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Start string     `json:"start,omitempty"`
	End   string     `json:"end,omitempty"`
	Rest  bool       `json:"rest,omitempty"`
	Break *BreakJSON `json:"break,omitempty"`
}

type BreakJSON struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type DayJSON struct {
	Slots []SlotJSON `json:"slots"`
}

type SlotJSON struct {
	Shift string   `json:"shift"`
	Teams []string `json:"teams,omitempty"`
}

// =============================================================================
// PARSING
// =============================================================================

// ParsePattern converts a JSON document into a validated pattern and its
// shift-type lookup.
func ParsePattern(data []byte) (schedule.PatternDefinition, map[schedule.ShiftTypeID]schedule.ShiftType, error) {
	var pj PatternJSON
	if err := json.Unmarshal(data, &pj); err != nil {
		return schedule.PatternDefinition{}, nil, fmt.Errorf("failed to parse pattern JSON: %w", err)
	}

	shiftTypes, err := parseShiftTypes(pj.ShiftTypes)
	if err != nil {
		return schedule.PatternDefinition{}, nil, err
	}

	reference, err := schedule.ParseTimePoint(pj.Reference)
	if err != nil {
		return schedule.PatternDefinition{}, nil, fmt.Errorf("pattern %s: invalid reference date %q: %w", pj.ID, pj.Reference, err)
	}

	days := make([]schedule.DaySlots, len(pj.Days))
	for i, day := range pj.Days {
		slots := make(schedule.DaySlots, 0, len(day.Slots))
		for _, slot := range day.Slots {
			id := schedule.ShiftTypeID(slot.Shift)
			if _, ok := shiftTypes[id]; !ok {
				return schedule.PatternDefinition{}, nil,
					fmt.Errorf("pattern %s: day %d references undefined shift type %q", pj.ID, i, slot.Shift)
			}
			teams := make([]schedule.TeamID, 0, len(slot.Teams))
			for _, t := range slot.Teams {
				teams = append(teams, schedule.TeamID(t))
			}
			slots = append(slots, schedule.SlotTemplate{Shift: id, Teams: teams})
		}
		days[i] = slots
	}

	version := pj.Version
	if version == 0 {
		version = 1
	}

	pattern := schedule.PatternDefinition{
		ID:          schedule.PatternID(pj.ID),
		Name:        pj.Name,
		Description: pj.Description,
		Kind:        schedule.PatternKind(pj.Kind),
		CycleLength: pj.CycleLength,
		Days:        days,
		Reference:   reference,
		Version:     version,
	}
	if err := pattern.Validate(); err != nil {
		return schedule.PatternDefinition{}, nil, err
	}
	return pattern, shiftTypes, nil
}

func parseShiftTypes(defs []ShiftTypeJSON) (map[schedule.ShiftTypeID]schedule.ShiftType, error) {
	out := make(map[schedule.ShiftTypeID]schedule.ShiftType, len(defs))
	for _, def := range defs {
		if def.ID == "" {
			return nil, fmt.Errorf("shift type with empty id")
		}
		st := schedule.ShiftType{
			ID:   schedule.ShiftTypeID(def.ID),
			Name: def.Name,
			Rest: def.Rest,
		}
		if st.Name == "" {
			st.Name = def.ID
		}
		if !def.Rest {
			start, err := schedule.ParseClockTime(def.Start)
			if err != nil {
				return nil, fmt.Errorf("shift type %s: invalid start %q: %w", def.ID, def.Start, err)
			}
			end, err := schedule.ParseClockTime(def.End)
			if err != nil {
				return nil, fmt.Errorf("shift type %s: invalid end %q: %w", def.ID, def.End, err)
			}
			st.Start, st.End = start, end
		}
		if def.Break != nil {
			bs, err := schedule.ParseClockTime(def.Break.Start)
			if err != nil {
				return nil, fmt.Errorf("shift type %s: invalid break start %q: %w", def.ID, def.Break.Start, err)
			}
			be, err := schedule.ParseClockTime(def.Break.End)
			if err != nil {
				return nil, fmt.Errorf("shift type %s: invalid break end %q: %w", def.ID, def.Break.End, err)
			}
			st.Break = &schedule.BreakWindow{Start: bs, End: be}
		}
		if _, dup := out[st.ID]; dup {
			return nil, fmt.Errorf("duplicate shift type id %q", def.ID)
		}
		out[st.ID] = st
	}
	return out, nil
}

// =============================================================================
// PRESETS - JSON builders for common custom patterns
// =============================================================================

// TwoOnTwoOffJSON returns JSON for a 4-day "two on, two off" cycle.
func TwoOnTwoOffJSON(id, name, reference string, startClock, endClock string) string {
	pj := PatternJSON{
		ID:          id,
		Name:        name,
		Kind:        string(schedule.PatternCustom),
		CycleLength: 4,
		Reference:   reference,
		ShiftTypes: []ShiftTypeJSON{
			{ID: "day", Name: "Day", Start: startClock, End: endClock},
			{ID: "off", Name: "Off", Rest: true},
		},
		Days: []DayJSON{
			{Slots: []SlotJSON{{Shift: "day"}}},
			{Slots: []SlotJSON{{Shift: "day"}}},
			{Slots: []SlotJSON{{Shift: "off"}}},
			{Slots: []SlotJSON{{Shift: "off"}}},
		},
	}
	b, _ := json.MarshalIndent(pj, "", "  ")
	return string(b)
}

// ContinentalWeekJSON returns JSON for a 7-day cycle with weekday day shifts
// and weekend rest, a common office-support pattern.
func ContinentalWeekJSON(id, name, reference string) string {
	days := make([]DayJSON, 7)
	for i := 0; i < 5; i++ {
		days[i] = DayJSON{Slots: []SlotJSON{{Shift: "day"}}}
	}
	for i := 5; i < 7; i++ {
		days[i] = DayJSON{Slots: []SlotJSON{{Shift: "off"}}}
	}
	pj := PatternJSON{
		ID:          id,
		Name:        name,
		Kind:        string(schedule.PatternCustom),
		CycleLength: 7,
		Reference:   reference,
		ShiftTypes: []ShiftTypeJSON{
			{ID: "day", Name: "Day", Start: "09:00", End: "17:00"},
			{ID: "off", Name: "Off", Rest: true},
		},
		Days: days,
	}
	b, _ := json.MarshalIndent(pj, "", "  ")
	return string(b)
}
