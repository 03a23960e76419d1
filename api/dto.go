/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Schedule:
    DayDTO, EventDTO, WarningDTO, SummaryDTO

  Configuration:
    TeamDTO, PatternDTO, AssignmentDTO, CreateAssignmentRequest

  Exceptions:
    ExceptionDTO, CreateExceptionRequest

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/pattern.go: PatternJSON type
*/
package api

import (
	"github.com/warp/shift-engine/schedule"
)

// =============================================================================
// SCHEDULE TYPES
// =============================================================================

// ShiftDTO describes a shift type inside an event.
type ShiftDTO struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Start           string    `json:"start,omitempty"`
	End             string    `json:"end,omitempty"`
	Rest            bool      `json:"rest,omitempty"`
	CrossesMidnight bool      `json:"crosses_midnight,omitempty"`
	Break           *BreakDTO `json:"break,omitempty"`
}

type BreakDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// TeamDTO represents a team in API responses.
type TeamDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PhaseOffset int    `json:"phase_offset,omitempty"`
}

// EventDTO is one presentation-ready schedule entry.
type EventDTO struct {
	ID          string    `json:"id"`
	Date        string    `json:"date"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Shift       ShiftDTO  `json:"shift"`
	Teams       []TeamDTO `json:"teams"`
	CycleIndex  int       `json:"cycle_index"`
	Origin      string    `json:"origin"`
	PatternID   string    `json:"pattern_id,omitempty"`
	ExceptionID string    `json:"exception_id,omitempty"`
}

// WarningDTO surfaces a non-fatal data-quality signal alongside results.
type WarningDTO struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Date    string `json:"date,omitempty"`
}

// DayDTO is the computed schedule for one date.
type DayDTO struct {
	Date     string       `json:"date"`
	Events   []EventDTO   `json:"events"`
	Warnings []WarningDTO `json:"warnings,omitempty"`
}

// SummaryDTO aggregates worked hours over a span.
type SummaryDTO struct {
	From        string         `json:"from"`
	To          string         `json:"to"`
	TotalHours  string         `json:"total_hours"`
	ShiftCounts map[string]int `json:"shift_counts"`
	WorkDays    int            `json:"work_days"`
	RestDays    int            `json:"rest_days"`
}

// =============================================================================
// CONFIGURATION TYPES
// =============================================================================

// PatternDTO represents a pattern in API responses.
type PatternDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Kind        string `json:"kind"`
	CycleLength int    `json:"cycle_length"`
	Reference   string `json:"reference"`
	Version     int64  `json:"version"`
}

// CreatePatternRequest carries a raw pattern config document.
type CreatePatternRequest struct {
	Config map[string]any `json:"config"`
}

// CreateTeamRequest is the request to create or update a team.
type CreateTeamRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PhaseOffset int    `json:"phase_offset"`
}

// AssignmentDTO represents a user schedule assignment.
type AssignmentDTO struct {
	ID            string  `json:"id"`
	UserID        string  `json:"user_id"`
	TeamID        *string `json:"team_id,omitempty"`
	PatternID     *string `json:"pattern_id,omitempty"`
	EffectiveFrom string  `json:"effective_from"`
	EffectiveTo   *string `json:"effective_to,omitempty"`
	CycleAnchor   int     `json:"cycle_anchor,omitempty"`
}

// CreateAssignmentRequest is the request to assign a user to a team or
// custom pattern. Exactly one of team_id / pattern_id must be set.
type CreateAssignmentRequest struct {
	ID            string  `json:"id,omitempty"`
	UserID        string  `json:"user_id"`
	TeamID        *string `json:"team_id,omitempty"`
	PatternID     *string `json:"pattern_id,omitempty"`
	EffectiveFrom string  `json:"effective_from"`
	EffectiveTo   *string `json:"effective_to,omitempty"`
	CycleAnchor   int     `json:"cycle_anchor,omitempty"`
}

// =============================================================================
// EXCEPTION TYPES
// =============================================================================

// ExceptionDTO represents a schedule exception in API responses.
type ExceptionDTO struct {
	ID          string  `json:"id"`
	Date        string  `json:"date"`
	Kind        string  `json:"kind"`
	ScopeKind   string  `json:"scope_kind"`
	TeamID      string  `json:"team_id,omitempty"`
	UserID      string  `json:"user_id,omitempty"`
	Status      string  `json:"status"`
	Replacement *string `json:"replacement_shift,omitempty"`
	Note        string  `json:"note,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

// CreateExceptionRequest is the request to record a schedule deviation.
// Exactly one of team_id / user_id selects the scope.
type CreateExceptionRequest struct {
	Date        string  `json:"date"`
	Kind        string  `json:"kind"`
	TeamID      string  `json:"team_id,omitempty"`
	UserID      string  `json:"user_id,omitempty"`
	Replacement *string `json:"replacement_shift,omitempty"`
	Note        string  `json:"note,omitempty"`
}

// =============================================================================
// MISC
// =============================================================================

// ErrorResponse is the standard error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// CacheStatsDTO reports orchestrator cache occupancy.
type CacheStatsDTO struct {
	TotalEntries   int `json:"total_entries"`
	ExpiredEntries int `json:"expired_entries"`
	ActiveEntries  int `json:"active_entries"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toShiftDTO(s schedule.ShiftType) ShiftDTO {
	dto := ShiftDTO{
		ID:   string(s.ID),
		Name: s.Name,
		Rest: s.Rest,
	}
	if !s.Rest {
		dto.Start = s.Start.String()
		dto.End = s.End.String()
		dto.CrossesMidnight = s.CrossesMidnight()
	}
	if s.Break != nil {
		dto.Break = &BreakDTO{Start: s.Break.Start.String(), End: s.Break.End.String()}
	}
	return dto
}

func toTeamDTO(t schedule.Team) TeamDTO {
	return TeamDTO{ID: string(t.ID), Name: t.Name, PhaseOffset: t.PhaseOffset}
}

func toEventDTO(e schedule.WorkScheduleEvent) EventDTO {
	teams := make([]TeamDTO, len(e.Teams))
	for i, t := range e.Teams {
		teams[i] = toTeamDTO(t)
	}
	return EventDTO{
		ID:          e.ID.String(),
		Date:        e.Date.String(),
		Title:       e.Title,
		Description: e.Description,
		Shift:       toShiftDTO(e.Shift),
		Teams:       teams,
		CycleIndex:  e.CycleIndex,
		Origin:      string(e.Origin),
		PatternID:   string(e.Provenance.PatternID),
		ExceptionID: string(e.Provenance.ExceptionID),
	}
}

func toDayDTO(d schedule.WorkScheduleDay) DayDTO {
	dto := DayDTO{
		Date:   d.Date.String(),
		Events: make([]EventDTO, len(d.Events)),
	}
	for i, e := range d.Events {
		dto.Events[i] = toEventDTO(e)
	}
	for _, w := range d.Warnings {
		wd := WarningDTO{Code: string(w.Code), Message: w.Message}
		if !w.Date.IsZero() {
			wd.Date = w.Date.String()
		}
		dto.Warnings = append(dto.Warnings, wd)
	}
	return dto
}

func toDayDTOs(days map[schedule.TimePoint]schedule.WorkScheduleDay) []DayDTO {
	dtos := make([]DayDTO, 0, len(days))
	for _, d := range days {
		dtos = append(dtos, toDayDTO(d))
	}
	sortDayDTOs(dtos)
	return dtos
}

func toExceptionDTO(e schedule.ShiftException) ExceptionDTO {
	dto := ExceptionDTO{
		ID:        string(e.ID),
		Date:      e.Date.String(),
		Kind:      string(e.Kind),
		ScopeKind: string(e.Scope.Kind),
		Status:    string(e.Status),
		Note:      e.Note,
		CreatedAt: e.CreatedAt.Format(timeFormatRFC),
	}
	switch e.Scope.Kind {
	case schedule.ScopeTeam:
		dto.TeamID = string(e.Scope.Team)
	case schedule.ScopeUser:
		dto.UserID = string(e.Scope.User)
	}
	if e.Replacement != nil {
		r := string(*e.Replacement)
		dto.Replacement = &r
	}
	return dto
}

func toAssignmentDTO(a schedule.UserScheduleAssignment) AssignmentDTO {
	dto := AssignmentDTO{
		ID:            a.ID,
		UserID:        string(a.User),
		EffectiveFrom: a.EffectiveFrom.String(),
		CycleAnchor:   a.CycleAnchor,
	}
	if a.Team != nil {
		t := string(*a.Team)
		dto.TeamID = &t
	}
	if a.Pattern != nil {
		p := string(*a.Pattern)
		dto.PatternID = &p
	}
	if a.EffectiveTo != nil {
		s := a.EffectiveTo.String()
		dto.EffectiveTo = &s
	}
	return dto
}

func toPatternDTO(p schedule.PatternDefinition) PatternDTO {
	return PatternDTO{
		ID:          string(p.ID),
		Name:        p.Name,
		Description: p.Description,
		Kind:        string(p.Kind),
		CycleLength: p.CycleLength,
		Reference:   p.Reference.String(),
		Version:     p.Version,
	}
}
