/*
materializer.go - Event materialization

PURPOSE:
  Converts overlaid assignments into the ephemeral WorkScheduleEvent records
  the UI consumes. Pure function of its inputs: no I/O, no clock, no side
  effects. Event IDs are UUIDv5 digests of the event identity, so calling the
  materializer twice with identical input yields structurally equal output.

SEE ALSO:
  - overlay.go: produces the input
  - orchestrator.go: caches the output
*/
package schedule

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// eventNamespace scopes the deterministic event IDs.
var eventNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("warp/shift-engine/event"))

// Materializer builds presentation-ready events from resolved assignments.
type Materializer struct{}

// Day materializes one date. teams supplies display metadata for team IDs;
// IDs without an entry render with the raw identifier as name, since a
// missing directory row must not blank out a schedule.
func (m *Materializer) Day(date TimePoint, resolved []ResolvedAssignment, pattern PatternDefinition, teams map[TeamID]Team, warnings []Warning) WorkScheduleDay {
	events := make([]WorkScheduleEvent, 0, len(resolved))
	for _, r := range resolved {
		events = append(events, m.event(date, r, pattern, teams))
	}
	return WorkScheduleDay{Date: date, Events: events, Warnings: warnings}
}

func (m *Materializer) event(date TimePoint, r ResolvedAssignment, pattern PatternDefinition, teams map[TeamID]Team) WorkScheduleEvent {
	resolvedTeams := make([]Team, 0, len(r.Teams))
	names := make([]string, 0, len(r.Teams))
	for _, id := range r.Teams {
		team, ok := teams[id]
		if !ok {
			team = Team{ID: id, Name: string(id)}
		}
		resolvedTeams = append(resolvedTeams, team)
		names = append(names, team.Name)
	}

	return WorkScheduleEvent{
		ID:          eventID(date, r, pattern.ID),
		Date:        date,
		Shift:       r.Shift,
		Teams:       resolvedTeams,
		Title:       buildTitle(r.Shift, names, pattern),
		Description: buildDescription(r, pattern),
		CycleIndex:  r.CycleIndex,
		Origin:      r.Origin,
		Provenance: Provenance{
			Provider:    r.Provider,
			PatternID:   pattern.ID,
			ExceptionID: r.ExceptionID,
		},
	}
}

func eventID(date TimePoint, r ResolvedAssignment, pattern PatternID) uuid.UUID {
	teamIDs := make([]string, 0, len(r.Teams))
	for _, id := range r.Teams {
		teamIDs = append(teamIDs, string(id))
	}
	key := strings.Join([]string{
		date.String(),
		string(pattern),
		string(r.Shift.ID),
		strings.Join(teamIDs, ","),
		string(r.Origin),
		string(r.ExceptionID),
		fmt.Sprintf("%d", r.SlotIndex),
	}, "|")
	return uuid.NewSHA1(eventNamespace, []byte(key))
}

func buildTitle(shift ShiftType, teamNames []string, pattern PatternDefinition) string {
	title := shift.Name
	if len(teamNames) > 0 {
		title += ": " + strings.Join(teamNames, ", ")
	}
	if pattern.Name != "" {
		title += " (" + pattern.Name + ")"
	}
	return title
}

func buildDescription(r ResolvedAssignment, pattern PatternDefinition) string {
	var b strings.Builder

	if r.Shift.Rest {
		b.WriteString("Rest period")
	} else {
		fmt.Fprintf(&b, "%s-%s", r.Shift.Start, r.Shift.End)
		if r.Shift.CrossesMidnight() {
			b.WriteString(" (ends next day)")
		}
		if r.Shift.Break != nil {
			fmt.Fprintf(&b, ", break %s-%s", r.Shift.Break.Start, r.Shift.Break.End)
		}
	}

	if pattern.CycleLength > 0 && r.CycleIndex >= 0 {
		fmt.Fprintf(&b, ". Day %d of %d", r.CycleIndex+1, pattern.CycleLength)
	}

	switch r.Origin {
	case OriginExceptionOverride:
		b.WriteString(". Replaced by exception")
	case OriginExceptionAdd:
		b.WriteString(". Added by exception")
	}

	if pattern.Description != "" {
		b.WriteString(". " + pattern.Description)
	}
	return b.String()
}
