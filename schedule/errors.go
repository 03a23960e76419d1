/*
errors.go - Centralized error types for the schedule engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The generation pipeline itself never returns errors for data-quality
  problems - those degrade to empty/partial results with Warnings - so the
  taxonomy here is small: contract violations and "no data" conditions.

ERROR CATEGORIES:
  1. Query errors      - Invalid ranges, unsupported patterns
  2. Configuration     - Incomplete shift-type mappings, invalid patterns
  3. Resolution errors - No effective assignment for a user/date
  4. Store errors      - Write-time invariant violations (sqlite layer)

USAGE:
  Callers classify with errors.Is:

    if errors.Is(err, schedule.ErrNoEffectiveAssignment) {
        // legitimate "no data", not a failure
    }

SEE ALSO:
  - warning.go: Non-fatal data-quality signals
  - orchestrator.go: Where these errors surface
*/
package schedule

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidRange is returned when a range query has start after end.
	ErrInvalidRange = errors.New("invalid range: start after end")

	// ErrUnsupportedPattern is returned when no provider supports the pattern.
	ErrUnsupportedPattern = errors.New("no provider supports pattern")

	// ErrMissingConfiguration is returned when the shift-type mapping is
	// incomplete for an operation that cannot degrade.
	ErrMissingConfiguration = errors.New("shift-type mapping incomplete")

	// ErrNoEffectiveAssignment is returned when a user has no schedule for a
	// date. Not necessarily a failure: callers may treat it as "no data".
	ErrNoEffectiveAssignment = errors.New("no effective assignment")

	// ErrPatternNotFound is returned when a referenced pattern doesn't exist.
	ErrPatternNotFound = errors.New("pattern not found")

	// ErrTeamNotFound is returned when a referenced team doesn't exist.
	ErrTeamNotFound = errors.New("team not found")

	// ErrExceptionNotFound is returned when a referenced exception doesn't exist.
	ErrExceptionNotFound = errors.New("exception not found")

	// ErrOverlappingAssignment is returned at write time when a user
	// assignment's effective range intersects an existing one.
	ErrOverlappingAssignment = errors.New("overlapping user assignment")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidRangeError reports the offending bounds.
type InvalidRangeError struct {
	Start TimePoint
	End   TimePoint
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range: start %s after end %s", e.Start, e.End)
}

func (e *InvalidRangeError) Unwrap() error { return ErrInvalidRange }

// UnsupportedPatternError reports which pattern had no matching provider.
type UnsupportedPatternError struct {
	Pattern PatternID
	Kind    PatternKind
}

func (e *UnsupportedPatternError) Error() string {
	return fmt.Sprintf("no provider supports pattern %s (kind %s)", e.Pattern, e.Kind)
}

func (e *UnsupportedPatternError) Unwrap() error { return ErrUnsupportedPattern }

// NoEffectiveAssignmentError reports which user/date had no schedule.
type NoEffectiveAssignmentError struct {
	User UserID
	Date TimePoint
}

func (e *NoEffectiveAssignmentError) Error() string {
	return fmt.Sprintf("user %s has no effective assignment on %s", e.User, e.Date)
}

func (e *NoEffectiveAssignmentError) Unwrap() error { return ErrNoEffectiveAssignment }

// PatternValidationError reports a structural invariant violation. These fail
// loudly at pattern-validation time, never inside the generation pipeline.
type PatternValidationError struct {
	Pattern PatternID
	Reason  string
}

func (e *PatternValidationError) Error() string {
	if e.Pattern == "" {
		return "invalid pattern: " + e.Reason
	}
	return fmt.Sprintf("invalid pattern %s: %s", e.Pattern, e.Reason)
}

// OverlappingAssignmentError reports the conflicting assignment.
type OverlappingAssignmentError struct {
	User       UserID
	ExistingID string
}

func (e *OverlappingAssignmentError) Error() string {
	return fmt.Sprintf("assignment for user %s overlaps existing assignment %s", e.User, e.ExistingID)
}

func (e *OverlappingAssignmentError) Unwrap() error { return ErrOverlappingAssignment }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPatternNotFound) ||
		errors.Is(err, ErrTeamNotFound) ||
		errors.Is(err, ErrExceptionNotFound)
}

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrOverlappingAssignment)
}

// IsNoData returns true for the legitimate "nothing scheduled" condition.
func IsNoData(err error) bool {
	return errors.Is(err, ErrNoEffectiveAssignment)
}
