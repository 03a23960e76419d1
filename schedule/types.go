/*
Package schedule provides the core work-schedule generation engine.

PURPOSE:
  This package contains the types and algorithms that answer one question:
  "which shift (if any) does this team or user work on this date?" It combines
  a cyclic rotation calculator, pluggable schedule providers, an exception
  overlay, and a materializer that turns resolved assignments into ephemeral
  calendar events for UI consumption.

KEY CONCEPTS IN THIS FILE (types.go):
  - ShiftType: An immutable shift definition (bounds, rest flag, break window)
  - Team: A rotation team with its phase offset inside the shared cycle
  - PatternDefinition: A fixed or custom rotation pattern
  - UserScheduleAssignment: Links a user to a team or custom pattern over a range
  - ShiftException: A punctual override/add/remove on top of the base pattern
  - BaseAssignment / ResolvedAssignment: Pipeline intermediate records
  - WorkScheduleDay / WorkScheduleEvent: Computed output, never persisted

DESIGN PRINCIPLES:
  1. Read-only inputs: patterns, teams, assignments and exceptions are owned by
     the persistence layer; the engine never mutates them
  2. Recomputable output: WorkScheduleDay is fully determined by its inputs
  3. Type Safety: Strong typing for IDs prevents mixing team/user/pattern IDs
  4. Degrade, don't crash: data-quality problems become Warnings, not errors

SEE ALSO:
  - cycle.go: cycle index arithmetic
  - provider.go, fixed.go, custom.go: base assignment generation
  - overlay.go: exception precedence and merging
  - materializer.go: event construction
*/
package schedule

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type TeamID string
type UserID string
type PatternID string
type ShiftTypeID string
type ExceptionID string

// =============================================================================
// SHIFT TYPE - Immutable shift definition
// =============================================================================

// BreakWindow is an optional unpaid break inside a shift.
type BreakWindow struct {
	Start ClockTime
	End   ClockTime
}

// ShiftType defines a kind of shift (morning, night, rest...). Value object,
// looked up by ID; never modified after construction.
type ShiftType struct {
	ID    ShiftTypeID
	Name  string
	Start ClockTime
	End   ClockTime

	// Rest marks a non-working slot (no time bounds apply).
	Rest bool

	Break *BreakWindow
}

// CrossesMidnight reports whether the shift ends on the following calendar
// day. Derived: a working shift whose end does not come after its start.
func (s ShiftType) CrossesMidnight() bool {
	return !s.Rest && !s.End.After(s.Start)
}

// DurationMinutes returns the scheduled working minutes, accounting for
// midnight crossing and subtracting the break window. Rest shifts are zero.
func (s ShiftType) DurationMinutes() int {
	if s.Rest {
		return 0
	}
	minutes := s.End.Minutes() - s.Start.Minutes()
	if s.CrossesMidnight() {
		minutes += 24 * 60
	}
	if s.Break != nil {
		b := s.Break.End.Minutes() - s.Break.Start.Minutes()
		if b > 0 {
			minutes -= b
		}
	}
	if minutes < 0 {
		return 0
	}
	return minutes
}

// =============================================================================
// TEAM
// =============================================================================

// Team is a rotation team. PhaseOffset shifts the team's position inside a
// shared cycle: offset 2 means the team runs two cycle-days behind a team
// with offset 0 on the same pattern.
type Team struct {
	ID          TeamID
	Name        string
	PhaseOffset int
}

// MatchTeamID compares team identifiers the way the grid does: surrounding
// whitespace is ignored and matching is case-insensitive.
func MatchTeamID(a, b TeamID) bool {
	return strings.EqualFold(strings.TrimSpace(string(a)), strings.TrimSpace(string(b)))
}

// ContainsTeam reports whether a grid cell's team set contains the target.
func ContainsTeam(cell []TeamID, target TeamID) bool {
	for _, id := range cell {
		if MatchTeamID(id, target) {
			return true
		}
	}
	return false
}

// =============================================================================
// PATTERN DEFINITION
// =============================================================================

type PatternKind string

const (
	PatternFixed  PatternKind = "FIXED"
	PatternCustom PatternKind = "CUSTOM"
)

// SlotTemplate is one shift slot on one cycle day: which shift, which teams.
type SlotTemplate struct {
	Shift ShiftTypeID
	Teams []TeamID
}

// DaySlots is the ordered slot list for a single cycle day.
type DaySlots []SlotTemplate

// PatternDefinition describes a repeating rotation. For FIXED patterns the
// cycle length and slot sequence come from an injected rotation table and are
// immutable; for CUSTOM patterns the caller supplies the slot sequence, whose
// length must equal CycleLength.
type PatternDefinition struct {
	ID          PatternID
	Name        string
	Description string
	Kind        PatternKind
	CycleLength int
	Days        []DaySlots

	// Reference is the calendar date of cycle day 0.
	Reference TimePoint

	// Version changes whenever the pattern is edited; part of the cache key.
	Version int64
}

// Validate checks the structural invariants. Violations here are programming
// or configuration errors and fail loudly, unlike data-quality problems in
// the generation pipeline.
func (p PatternDefinition) Validate() error {
	if p.CycleLength <= 0 {
		return &PatternValidationError{Pattern: p.ID, Reason: "cycle length must be positive"}
	}
	if p.Kind != PatternFixed && p.Kind != PatternCustom {
		return &PatternValidationError{Pattern: p.ID, Reason: "unknown pattern kind " + string(p.Kind)}
	}
	if len(p.Days) != p.CycleLength {
		return &PatternValidationError{Pattern: p.ID, Reason: "slot sequence length does not equal cycle length"}
	}
	if p.Reference.IsZero() {
		return &PatternValidationError{Pattern: p.ID, Reason: "reference date is required"}
	}
	return nil
}

// AlignedTo returns a copy of the pattern whose reference date is derived
// from a user assignment: on the assignment's first effective day the user
// is at the assignment's 1-based cycle anchor. Custom patterns are aligned
// per user rather than to a single global reference.
func (p PatternDefinition) AlignedTo(a UserScheduleAssignment) PatternDefinition {
	anchor := a.CycleAnchor
	if anchor < 1 || anchor > p.CycleLength {
		anchor = 1
	}
	aligned := p
	aligned.Reference = a.EffectiveFrom.AddDays(-(anchor - 1))
	return aligned
}

// =============================================================================
// ROTATION TABLE - Injected grid configuration for the fixed rotation
// =============================================================================

// RotationTable is the cycleLength x shiftsPerDay grid of team sets that
// drives the fixed industrial rotation. Loaded once at provider construction;
// the provider never mutates it.
type RotationTable struct {
	CycleLength  int
	ShiftsPerDay int
	Reference    TimePoint

	// Cells[day][slot] is the set of team IDs working that slot.
	Cells [][][]TeamID
}

// Validate checks grid dimensions against the declared geometry.
func (t RotationTable) Validate() error {
	if t.CycleLength <= 0 || t.ShiftsPerDay <= 0 {
		return &PatternValidationError{Reason: "rotation table geometry must be positive"}
	}
	if len(t.Cells) != t.CycleLength {
		return &PatternValidationError{Reason: "rotation table rows do not match cycle length"}
	}
	for _, row := range t.Cells {
		if len(row) != t.ShiftsPerDay {
			return &PatternValidationError{Reason: "rotation table row width does not match shifts per day"}
		}
	}
	if t.Reference.IsZero() {
		return &PatternValidationError{Reason: "rotation table reference date is required"}
	}
	return nil
}

// =============================================================================
// USER SCHEDULE ASSIGNMENT
// =============================================================================

// UserScheduleAssignment links a user to either a team (fixed rotation) or a
// custom pattern, over an effective date range. At most one assignment should
// be effective per user per date; overlaps are rejected at write time, and
// tolerated read-only here by taking the most recently effective one.
type UserScheduleAssignment struct {
	ID   string
	User UserID

	// Exactly one of Team / Pattern is set.
	Team    *TeamID
	Pattern *PatternID

	EffectiveFrom TimePoint
	EffectiveTo   *TimePoint // nil = open-ended

	// CycleAnchor is the 1-based cycle day the user is on at EffectiveFrom.
	// Only meaningful for custom patterns.
	CycleAnchor int
}

// IsEffective reports whether the assignment covers the given date.
func (a UserScheduleAssignment) IsEffective(at TimePoint) bool {
	if at.Before(a.EffectiveFrom) {
		return false
	}
	if a.EffectiveTo != nil && at.After(*a.EffectiveTo) {
		return false
	}
	return true
}

// Overlaps reports whether two assignment ranges intersect.
func (a UserScheduleAssignment) Overlaps(b UserScheduleAssignment) bool {
	aEnd := a.EffectiveTo
	bEnd := b.EffectiveTo
	if aEnd != nil && aEnd.Before(b.EffectiveFrom) {
		return false
	}
	if bEnd != nil && bEnd.Before(a.EffectiveFrom) {
		return false
	}
	return true
}

// =============================================================================
// SCOPE - The entity an exception or query applies to
// =============================================================================

type ScopeKind string

const (
	// ScopeAny matches every scope; used for unfiltered store queries.
	ScopeAny  ScopeKind = ""
	ScopeTeam ScopeKind = "team"
	ScopeUser ScopeKind = "user"
)

type Scope struct {
	Kind ScopeKind
	Team TeamID
	User UserID
}

func TeamScope(id TeamID) Scope { return Scope{Kind: ScopeTeam, Team: id} }
func UserScope(id UserID) Scope { return Scope{Kind: ScopeUser, User: id} }

// Key returns a stable identity string, used for grouping and cache keys.
func (s Scope) Key() string {
	switch s.Kind {
	case ScopeTeam:
		return "team:" + string(s.Team)
	case ScopeUser:
		return "user:" + string(s.User)
	default:
		return "any"
	}
}

// Matches reports whether s covers other. ScopeAny covers everything; team
// scopes match by normalized team ID.
func (s Scope) Matches(other Scope) bool {
	if s.Kind == ScopeAny {
		return true
	}
	if s.Kind != other.Kind {
		return false
	}
	if s.Kind == ScopeTeam {
		return MatchTeamID(s.Team, other.Team)
	}
	return s.User == other.User
}

// =============================================================================
// SHIFT EXCEPTION - Punctual deviation from the base pattern
// =============================================================================

type ExceptionKind string

const (
	ExceptionOverride ExceptionKind = "OVERRIDE_SHIFT"
	ExceptionAdd      ExceptionKind = "ADD_SHIFT"
	ExceptionRemove   ExceptionKind = "REMOVE_SHIFT"
)

type ExceptionStatus string

const (
	ExceptionActive    ExceptionStatus = "ACTIVE"
	ExceptionCancelled ExceptionStatus = "CANCELLED"
)

// ShiftException overrides the base pattern for one date and one scope.
// Cancelled exceptions are inert. Among multiple active exceptions for the
// same (date, scope), the most recently created one wins.
type ShiftException struct {
	ID     ExceptionID
	Date   TimePoint
	Kind   ExceptionKind
	Scope  Scope
	Status ExceptionStatus

	// Replacement is the shift applied by OVERRIDE_SHIFT / ADD_SHIFT.
	Replacement *ShiftTypeID

	Note      string
	CreatedAt time.Time
}

func (e ShiftException) IsActive() bool { return e.Status == ExceptionActive }

// =============================================================================
// PIPELINE RECORDS
// =============================================================================

// BaseAssignment is one (shift, teams) tuple produced by a provider before
// exceptions are applied.
type BaseAssignment struct {
	Date       TimePoint
	Shift      ShiftType
	Teams      []TeamID
	SlotIndex  int
	CycleIndex int
	PatternID  PatternID
	Provider   string
}

// AssignmentOrigin records where a resolved assignment came from.
type AssignmentOrigin string

const (
	OriginPattern           AssignmentOrigin = "pattern"
	OriginExceptionOverride AssignmentOrigin = "exception_override"
	OriginExceptionAdd      AssignmentOrigin = "exception_add"
)

// ResolvedAssignment is a base assignment after the exception overlay.
type ResolvedAssignment struct {
	BaseAssignment
	Origin      AssignmentOrigin
	ExceptionID ExceptionID // set when Origin != OriginPattern
}

// =============================================================================
// COMPUTED OUTPUT - Ephemeral, recomputable, never persisted
// =============================================================================

// Provenance says which provider and pattern produced an event.
type Provenance struct {
	Provider    string
	PatternID   PatternID
	ExceptionID ExceptionID
}

// WorkScheduleEvent is one presentation-ready schedule entry. Created on
// demand by the materializer and discarded after consumption; IDs are
// deterministic (UUIDv5 over the event identity) so repeated materialization
// of the same inputs yields structurally equal output.
type WorkScheduleEvent struct {
	ID          uuid.UUID
	Date        TimePoint
	Shift       ShiftType
	Teams       []Team
	Title       string
	Description string
	CycleIndex  int
	Origin      AssignmentOrigin
	Provenance  Provenance
}

// WorkScheduleDay is the computed schedule for one date.
type WorkScheduleDay struct {
	Date     TimePoint
	Events   []WorkScheduleEvent
	Warnings []Warning
}
