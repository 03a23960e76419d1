/*
store.go - Data-access contracts consumed by the engine

PURPOSE:
  The engine owns no persistence. Patterns, teams, user assignments and
  exceptions are read-only inputs fetched through the narrow interfaces
  defined here; the application wires in concrete implementations.

IMPLEMENTATIONS:
  - store/sqlite: production SQLite store (also carries the write side:
    saving records, overlap rejection, exception cancellation)
  - schedule/store: in-memory implementations for tests and dev

SEE ALSO:
  - orchestrator.go: the only consumer of these interfaces
*/
package schedule

import "context"

// =============================================================================
// PATTERN REPOSITORY - Rotation patterns and user assignments
// =============================================================================

type PatternRepository interface {
	// GetPattern returns the pattern by ID, or ErrPatternNotFound.
	GetPattern(ctx context.Context, id PatternID) (PatternDefinition, error)

	// AssignmentsForUser returns all schedule assignments for a user, in no
	// particular order. Effective-date selection is the resolver's job.
	AssignmentsForUser(ctx context.Context, user UserID) ([]UserScheduleAssignment, error)
}

// =============================================================================
// TEAM DIRECTORY
// =============================================================================

type TeamDirectory interface {
	// GetTeam returns the team by ID, or ErrTeamNotFound.
	GetTeam(ctx context.Context, id TeamID) (Team, error)

	// AllTeams returns every known team.
	AllTeams(ctx context.Context) ([]Team, error)
}

// =============================================================================
// EXCEPTION STORE
// =============================================================================

type ExceptionStore interface {
	// ExceptionsForRange returns exceptions dated within [from, to] whose
	// scope is covered by the given scope. ScopeAny returns everything in
	// range. Cancelled exceptions are included; the overlay ignores them.
	ExceptionsForRange(ctx context.Context, scope Scope, from, to TimePoint) ([]ShiftException, error)
}
