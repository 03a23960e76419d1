/*
handlers.go - HTTP API handlers for the shift schedule engine

PURPOSE:
  Exposes the schedule engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the orchestrator and store.

ENDPOINTS:
  Schedule:
    GET    /api/schedule/day        One day (user=, team=, or full rotation)
    GET    /api/schedule/range      [start, end] span
    GET    /api/schedule/month      One calendar month
    GET    /api/schedule/summary    Worked-hours tally over a span

  Configuration:
    GET    /api/teams               Team directory
    POST   /api/teams               Create/update a team
    GET    /api/patterns            List stored patterns
    POST   /api/patterns            Store a pattern from JSON config
    GET    /api/users/{id}/assignments
    POST   /api/assignments         Assign user to team/pattern (409 on overlap)

  Exceptions:
    GET    /api/exceptions          List for a span
    POST   /api/exceptions          Record a deviation
    GET    /api/exceptions/{id}
    DELETE /api/exceptions/{id}     Cancel (soft; row stays)

  Admin:
    POST   /api/admin/cache/clear   Drop cached results
    GET    /api/admin/cache/stats   Cache occupancy
    POST   /api/admin/seed          Reset DB and load the canonical rotation

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (orchestrator, store)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, inverted ranges
  - 404: Resource not found, no effective assignment
  - 409: Overlapping user assignments
  - 500: Internal errors

CACHE INVALIDATION:
  Exception writes call ClearCacheForRange for the affected date;
  configuration writes clear the whole cache.

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/warp/shift-engine/schedule"
	"github.com/warp/shift-engine/store/sqlite"
)

const timeFormatRFC = time.RFC3339

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store        *sqlite.Store
	Orchestrator *schedule.Orchestrator

	// Seed rebuilds the demo data set (canonical rotation, teams, sample
	// users). Wired by cmd/server; nil disables the endpoint.
	Seed func(r *http.Request) error

	Logger zerolog.Logger
}

// NewHandler creates a new handler.
func NewHandler(store *sqlite.Store, orch *schedule.Orchestrator, logger zerolog.Logger) *Handler {
	return &Handler{
		Store:        store,
		Orchestrator: orch,
		Logger:       logger.With().Str("component", "api").Logger(),
	}
}

// =============================================================================
// SCHEDULE QUERIES
// =============================================================================

// GetDay returns the schedule for one date.
// GET /api/schedule/day?date=2026-03-14&user=u1 | &team=A
func (h *Handler) GetDay(w http.ResponseWriter, r *http.Request) {
	date, err := schedule.ParseTimePoint(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", err)
		return
	}

	scope, ok := scopeFromQuery(w, r)
	if !ok {
		return
	}

	var day schedule.WorkScheduleDay
	if scope.Kind == schedule.ScopeAny {
		day, err = h.Orchestrator.TeamScheduleForDate(r.Context(), date, nil)
	} else {
		day, err = h.Orchestrator.ScheduleForDate(r.Context(), scope, date)
	}
	if err != nil {
		writeDomainError(w, "Failed to compute schedule", err)
		return
	}
	writeJSON(w, http.StatusOK, toDayDTO(day))
}

// GetRange returns one day entry per date in [start, end].
// GET /api/schedule/range?start=2026-03-01&end=2026-03-31&user=u1 | &team=A
func (h *Handler) GetRange(w http.ResponseWriter, r *http.Request) {
	start, err := schedule.ParseTimePoint(r.URL.Query().Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start (use YYYY-MM-DD)", err)
		return
	}
	end, err := schedule.ParseTimePoint(r.URL.Query().Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end (use YYYY-MM-DD)", err)
		return
	}

	scope, ok := scopeFromQuery(w, r)
	if !ok {
		return
	}

	days, err := h.Orchestrator.ScheduleForRange(r.Context(), scope, start, end)
	if err != nil {
		writeDomainError(w, "Failed to compute schedule", err)
		return
	}
	writeJSON(w, http.StatusOK, toDayDTOs(days))
}

// GetMonth returns exactly one entry per calendar day of the month.
// GET /api/schedule/month?year=2026&month=3&user=u1 | &team=A
func (h *Handler) GetMonth(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}
	monthNum, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil || monthNum < 1 || monthNum > 12 {
		writeError(w, http.StatusBadRequest, "Invalid month (1-12)", err)
		return
	}

	scope, ok := scopeFromQuery(w, r)
	if !ok {
		return
	}

	days, err := h.Orchestrator.ScheduleForMonth(r.Context(), scope, year, time.Month(monthNum))
	if err != nil {
		writeDomainError(w, "Failed to compute schedule", err)
		return
	}
	writeJSON(w, http.StatusOK, toDayDTOs(days))
}

// GetSummary tallies worked hours over a span.
// GET /api/schedule/summary?start=...&end=...&user=u1 | &team=A
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	start, err := schedule.ParseTimePoint(r.URL.Query().Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start (use YYYY-MM-DD)", err)
		return
	}
	end, err := schedule.ParseTimePoint(r.URL.Query().Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end (use YYYY-MM-DD)", err)
		return
	}

	scope, ok := scopeFromQuery(w, r)
	if !ok {
		return
	}

	days, err := h.Orchestrator.ScheduleForRange(r.Context(), scope, start, end)
	if err != nil {
		writeDomainError(w, "Failed to compute schedule", err)
		return
	}

	s := schedule.SummarizeHours(days)
	counts := make(map[string]int, len(s.ShiftCounts))
	for id, n := range s.ShiftCounts {
		counts[string(id)] = n
	}
	writeJSON(w, http.StatusOK, SummaryDTO{
		From:        start.String(),
		To:          end.String(),
		TotalHours:  s.TotalHours.StringFixed(2),
		ShiftCounts: counts,
		WorkDays:    s.WorkDays,
		RestDays:    s.RestDays,
	})
}

// =============================================================================
// TEAM HANDLERS
// =============================================================================

// ListTeams returns the team directory.
func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.Store.AllTeams(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list teams", err)
		return
	}
	dtos := make([]TeamDTO, len(teams))
	for i, t := range teams {
		dtos[i] = toTeamDTO(t)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateTeam creates or updates a team.
func (h *Handler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	var req CreateTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "Team id is required", nil)
		return
	}
	team := schedule.Team{
		ID:          schedule.TeamID(req.ID),
		Name:        req.Name,
		PhaseOffset: req.PhaseOffset,
	}
	if team.Name == "" {
		team.Name = "Team " + req.ID
	}
	if err := h.Store.SaveTeam(r.Context(), team); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save team", err)
		return
	}
	// Phase offsets shift the whole rotation; cached results are stale.
	h.Orchestrator.ClearCache()
	writeJSON(w, http.StatusCreated, toTeamDTO(team))
}

// =============================================================================
// PATTERN HANDLERS
// =============================================================================

// ListPatterns returns every stored pattern.
func (h *Handler) ListPatterns(w http.ResponseWriter, r *http.Request) {
	patterns, err := h.Store.ListPatterns(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list patterns", err)
		return
	}
	dtos := make([]PatternDTO, len(patterns))
	for i, p := range patterns {
		dtos[i] = toPatternDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetPattern returns one stored pattern.
func (h *Handler) GetPattern(w http.ResponseWriter, r *http.Request) {
	id := schedule.PatternID(chi.URLParam(r, "id"))
	pattern, err := h.Store.GetPattern(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get pattern", err)
		return
	}
	writeJSON(w, http.StatusOK, toPatternDTO(pattern))
}

// CreatePattern validates and stores a JSON pattern config.
func (h *Handler) CreatePattern(w http.ResponseWriter, r *http.Request) {
	var req CreatePatternRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	configJSON, err := json.Marshal(req.Config)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid config", err)
		return
	}

	pattern, err := h.Store.SavePattern(r.Context(), string(configJSON))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid pattern config", err)
		return
	}
	// The version bump already invalidates cache keys; drop entries eagerly
	// anyway so memory does not hold superseded results until TTL.
	h.Orchestrator.ClearCache()
	writeJSON(w, http.StatusCreated, toPatternDTO(pattern))
}

// =============================================================================
// ASSIGNMENT HANDLERS
// =============================================================================

// GetAssignments returns a user's schedule assignments.
// GET /api/users/{id}/assignments
func (h *Handler) GetAssignments(w http.ResponseWriter, r *http.Request) {
	user := schedule.UserID(chi.URLParam(r, "id"))
	assignments, err := h.Store.AssignmentsForUser(r.Context(), user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list assignments", err)
		return
	}
	dtos := make([]AssignmentDTO, len(assignments))
	for i, a := range assignments {
		dtos[i] = toAssignmentDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateAssignment assigns a user to a team or custom pattern.
// Returns 409 when the effective range overlaps an existing assignment.
func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	var req CreateAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required", nil)
		return
	}
	if (req.TeamID == nil) == (req.PatternID == nil) {
		writeError(w, http.StatusBadRequest, "Exactly one of team_id / pattern_id is required", nil)
		return
	}

	from, err := schedule.ParseTimePoint(req.EffectiveFrom)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid effective_from (use YYYY-MM-DD)", err)
		return
	}

	a := schedule.UserScheduleAssignment{
		ID:            req.ID,
		User:          schedule.UserID(req.UserID),
		EffectiveFrom: from,
		CycleAnchor:   req.CycleAnchor,
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if req.TeamID != nil {
		id := schedule.TeamID(*req.TeamID)
		a.Team = &id
	}
	if req.PatternID != nil {
		id := schedule.PatternID(*req.PatternID)
		a.Pattern = &id
	}
	if req.EffectiveTo != nil {
		to, err := schedule.ParseTimePoint(*req.EffectiveTo)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid effective_to (use YYYY-MM-DD)", err)
			return
		}
		if to.Before(from) {
			writeError(w, http.StatusBadRequest, "effective_to before effective_from", nil)
			return
		}
		a.EffectiveTo = &to
	}

	if err := h.Store.SaveAssignment(r.Context(), a); err != nil {
		writeDomainError(w, "Failed to save assignment", err)
		return
	}
	h.Orchestrator.ClearCache()
	writeJSON(w, http.StatusCreated, toAssignmentDTO(a))
}

// =============================================================================
// EXCEPTION HANDLERS
// =============================================================================

// ListExceptions returns exceptions for a span, optionally scoped.
// GET /api/exceptions?start=...&end=...&team=A | &user=u1
func (h *Handler) ListExceptions(w http.ResponseWriter, r *http.Request) {
	start, err := schedule.ParseTimePoint(r.URL.Query().Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start (use YYYY-MM-DD)", err)
		return
	}
	end, err := schedule.ParseTimePoint(r.URL.Query().Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end (use YYYY-MM-DD)", err)
		return
	}
	scope, ok := scopeFromQuery(w, r)
	if !ok {
		return
	}

	excs, err := h.Store.ExceptionsForRange(r.Context(), scope, start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list exceptions", err)
		return
	}
	dtos := make([]ExceptionDTO, len(excs))
	for i, e := range excs {
		dtos[i] = toExceptionDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetException returns one exception.
func (h *Handler) GetException(w http.ResponseWriter, r *http.Request) {
	id := schedule.ExceptionID(chi.URLParam(r, "id"))
	e, err := h.Store.GetException(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get exception", err)
		return
	}
	writeJSON(w, http.StatusOK, toExceptionDTO(e))
}

// CreateException records a schedule deviation and invalidates cached
// results covering its date.
func (h *Handler) CreateException(w http.ResponseWriter, r *http.Request) {
	var req CreateExceptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	date, err := schedule.ParseTimePoint(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", err)
		return
	}

	kind := schedule.ExceptionKind(req.Kind)
	switch kind {
	case schedule.ExceptionOverride, schedule.ExceptionAdd, schedule.ExceptionRemove:
	default:
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("Unknown kind %q (use OVERRIDE_SHIFT, ADD_SHIFT or REMOVE_SHIFT)", req.Kind), nil)
		return
	}
	if kind != schedule.ExceptionRemove && req.Replacement == nil {
		writeError(w, http.StatusBadRequest, "replacement_shift is required for this kind", nil)
		return
	}

	var scope schedule.Scope
	switch {
	case req.TeamID != "" && req.UserID == "":
		scope = schedule.TeamScope(schedule.TeamID(req.TeamID))
	case req.UserID != "" && req.TeamID == "":
		scope = schedule.UserScope(schedule.UserID(req.UserID))
	default:
		writeError(w, http.StatusBadRequest, "Exactly one of team_id / user_id is required", nil)
		return
	}

	e := schedule.ShiftException{
		ID:        schedule.ExceptionID(uuid.NewString()),
		Date:      date,
		Kind:      kind,
		Scope:     scope,
		Status:    schedule.ExceptionActive,
		Note:      req.Note,
		CreatedAt: time.Now().UTC(),
	}
	if req.Replacement != nil {
		id := schedule.ShiftTypeID(*req.Replacement)
		e.Replacement = &id
	}

	if err := h.Store.SaveException(r.Context(), e); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save exception", err)
		return
	}
	h.Orchestrator.ClearCacheForRange(date, date)

	h.Logger.Info().
		Str("exception", string(e.ID)).
		Str("kind", string(e.Kind)).
		Str("date", date.String()).
		Msg("exception created")
	writeJSON(w, http.StatusCreated, toExceptionDTO(e))
}

// CancelException soft-deletes an exception and invalidates cached results
// covering its date.
func (h *Handler) CancelException(w http.ResponseWriter, r *http.Request) {
	id := schedule.ExceptionID(chi.URLParam(r, "id"))

	e, err := h.Store.GetException(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get exception", err)
		return
	}
	if err := h.Store.CancelException(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to cancel exception", err)
		return
	}
	h.Orchestrator.ClearCacheForRange(e.Date, e.Date)

	e.Status = schedule.ExceptionCancelled
	writeJSON(w, http.StatusOK, toExceptionDTO(e))
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// ClearCache drops every cached schedule result.
func (h *Handler) ClearCache(w http.ResponseWriter, r *http.Request) {
	h.Orchestrator.ClearCache()
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// CacheStats reports cache occupancy.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	s := h.Orchestrator.Stats()
	writeJSON(w, http.StatusOK, CacheStatsDTO{
		TotalEntries:   s.TotalEntries,
		ExpiredEntries: s.ExpiredEntries,
		ActiveEntries:  s.ActiveEntries,
	})
}

// SeedDemo resets the database and loads the canonical rotation data set.
func (h *Handler) SeedDemo(w http.ResponseWriter, r *http.Request) {
	if h.Seed == nil {
		writeError(w, http.StatusNotFound, "Seeding is not enabled", nil)
		return
	}
	if err := h.Seed(r); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to seed", err)
		return
	}
	h.Orchestrator.ClearCache()
	writeJSON(w, http.StatusOK, map[string]string{"status": "seeded"})
}

// =============================================================================
// HELPERS
// =============================================================================

// scopeFromQuery reads user= / team= into a scope. Neither set means the
// whole rotation; both set is a client error.
func scopeFromQuery(w http.ResponseWriter, r *http.Request) (schedule.Scope, bool) {
	user := r.URL.Query().Get("user")
	team := r.URL.Query().Get("team")
	switch {
	case user != "" && team != "":
		writeError(w, http.StatusBadRequest, "Use either user= or team=, not both", nil)
		return schedule.Scope{}, false
	case user != "":
		return schedule.UserScope(schedule.UserID(user)), true
	case team != "":
		return schedule.TeamScope(schedule.TeamID(team)), true
	default:
		return schedule.Scope{Kind: schedule.ScopeAny}, true
	}
}

func sortDayDTOs(dtos []DayDTO) {
	sort.Slice(dtos, func(i, j int) bool { return dtos[i].Date < dtos[j].Date })
}

// writeDomainError maps engine errors to HTTP status codes.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case schedule.IsNoData(err) || schedule.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, schedule.ErrOverlappingAssignment):
		writeError(w, http.StatusConflict, message, err)
	case schedule.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
