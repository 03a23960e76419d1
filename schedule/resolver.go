/*
resolver.go - Team membership and effective-assignment resolution

PURPOSE:
  Answers two questions the rest of the pipeline delegates:
  1. Which assignment governs a user on a given date? (effective range
     containing the date; overlapping data tolerated read-only by taking the
     most recently effective one)
  2. How does a team's phase offset map onto a shared pattern? (the pattern
     is re-anchored rather than every lookup shifted)

SEE ALSO:
  - types.go: UserScheduleAssignment.IsEffective, MatchTeamID
  - orchestrator.go: the caller
*/
package schedule

import (
	"context"
)

// TeamAssignmentResolver resolves users to their governing assignment and
// teams to their phase-adjusted view of a shared pattern.
type TeamAssignmentResolver struct {
	Patterns PatternRepository
	Teams    TeamDirectory
}

// EffectiveAssignment returns the assignment governing the user on the date.
// When overlapping assignments exist (a write-time integrity violation this
// engine must tolerate), the one with the latest EffectiveFrom wins.
// Returns NoEffectiveAssignmentError when nothing covers the date.
func (r *TeamAssignmentResolver) EffectiveAssignment(ctx context.Context, user UserID, date TimePoint) (UserScheduleAssignment, error) {
	assignments, err := r.Patterns.AssignmentsForUser(ctx, user)
	if err != nil {
		return UserScheduleAssignment{}, err
	}

	best, ok := SelectEffectiveAssignment(assignments, date)
	if !ok {
		return UserScheduleAssignment{}, &NoEffectiveAssignmentError{User: user, Date: date}
	}
	return best, nil
}

// PatternForTeam re-anchors a shared pattern for a team's phase offset.
// A team with offset o runs o cycle-days behind the base rotation, which is
// equivalent to advancing the reference date by o days. Offset 0 returns the
// pattern unchanged.
func (r *TeamAssignmentResolver) PatternForTeam(pattern PatternDefinition, team Team) PatternDefinition {
	if team.PhaseOffset == 0 || pattern.CycleLength <= 0 {
		return pattern
	}
	shifted := pattern
	shifted.Reference = pattern.Reference.AddDays(FloorMod(team.PhaseOffset, pattern.CycleLength))
	return shifted
}

// OccupiesSlot reports whether the target team is part of a grid cell,
// using normalized identifier matching.
func (r *TeamAssignmentResolver) OccupiesSlot(cell []TeamID, target TeamID) bool {
	return ContainsTeam(cell, target)
}
