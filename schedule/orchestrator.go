/*
orchestrator.go - Service-level façade over the generation pipeline

PURPOSE:
  The single entry point the application layer consumes. Each query:
  resolve the effective pattern for the subject -> select a provider once ->
  generate base assignments -> fetch exceptions for the span -> overlay ->
  materialize -> cache -> return.

QUERY SEMANTICS:
  - User queries resolve the user's effective assignment per day, so an
    assignment change mid-range is honored. A single-date query with no
    effective assignment returns NoEffectiveAssignmentError (an explicit
    "not available" with a reason, not a crash); range queries tolerate
    uncovered days as empty entries.
  - Team queries run against the default (fixed rotation) pattern with the
    team as scope filter, re-anchored for the team's phase offset.
  - Month queries return exactly one entry per calendar day.

CONCURRENCY:
  The pipeline underneath is pure; the only shared mutable state is the
  result cache, which handles its own locking. All methods are safe for
  concurrent use and intended to be called off the UI's primary goroutine;
  they block only on the injected stores.

CACHING:
  Results are cached by the exact key (scope, span, pattern fingerprint).
  Writers invalidate with ClearCacheForRange when exceptions change, or
  ClearCache wholesale; the TTL bounds staleness otherwise.

SEE ALSO:
  - provider.go, overlay.go, materializer.go: the pipeline stages
  - store.go: the consumed data-access contracts
*/
package schedule

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Orchestrator coordinates providers, overlay, materializer and cache.
type Orchestrator struct {
	patterns   PatternRepository
	teams      TeamDirectory
	exceptions ExceptionStore

	providers    []Provider
	resolver     *TeamAssignmentResolver
	overlay      *ExceptionOverlay
	materializer Materializer

	// defaultPattern is the fixed rotation served for team-level queries and
	// team-targeted user assignments.
	defaultPattern PatternDefinition

	cache  *resultCache
	logger zerolog.Logger
}

// OrchestratorConfig wires the orchestrator. Providers and the overlay's
// shift-type lookup are supplied up front; nothing is mutable afterwards.
type OrchestratorConfig struct {
	Patterns   PatternRepository
	Teams      TeamDirectory
	Exceptions ExceptionStore

	Providers      []Provider
	Overlay        *ExceptionOverlay
	DefaultPattern PatternDefinition

	CacheTTL        time.Duration
	CacheMaxEntries int
	Logger          zerolog.Logger
}

func NewOrchestrator(cfg OrchestratorConfig) (*Orchestrator, error) {
	if err := cfg.DefaultPattern.Validate(); err != nil {
		return nil, err
	}
	if len(cfg.Providers) == 0 {
		return nil, &UnsupportedPatternError{Pattern: cfg.DefaultPattern.ID, Kind: cfg.DefaultPattern.Kind}
	}
	return &Orchestrator{
		patterns:       cfg.Patterns,
		teams:          cfg.Teams,
		exceptions:     cfg.Exceptions,
		providers:      cfg.Providers,
		resolver:       &TeamAssignmentResolver{Patterns: cfg.Patterns, Teams: cfg.Teams},
		overlay:        cfg.Overlay,
		defaultPattern: cfg.DefaultPattern,
		cache:          newResultCache(cfg.CacheTTL, cfg.CacheMaxEntries),
		logger:         cfg.Logger.With().Str("component", "schedule-orchestrator").Logger(),
	}, nil
}

// =============================================================================
// PUBLIC QUERIES
// =============================================================================

// ScheduleForDate returns the schedule for one subject on one date.
// A user with no effective assignment yields NoEffectiveAssignmentError.
func (o *Orchestrator) ScheduleForDate(ctx context.Context, scope Scope, date TimePoint) (WorkScheduleDay, error) {
	days, err := o.ScheduleForRange(ctx, scope, date, date)
	if err != nil {
		return WorkScheduleDay{}, err
	}
	day := days[date]
	if scope.Kind == ScopeUser && len(day.Events) == 0 && !o.hasAssignment(ctx, scope.User, date) {
		return WorkScheduleDay{}, &NoEffectiveAssignmentError{User: scope.User, Date: date}
	}
	return day, nil
}

// ScheduleForRange returns one WorkScheduleDay per date in [start, end].
func (o *Orchestrator) ScheduleForRange(ctx context.Context, scope Scope, start, end TimePoint) (map[TimePoint]WorkScheduleDay, error) {
	if start.After(end) {
		return nil, &InvalidRangeError{Start: start, End: end}
	}

	switch scope.Kind {
	case ScopeUser:
		return o.userRange(ctx, scope.User, start, end)
	default:
		return o.teamRange(ctx, scope, start, end)
	}
}

// ScheduleForMonth returns one entry per calendar day of the month.
func (o *Orchestrator) ScheduleForMonth(ctx context.Context, scope Scope, year int, month time.Month) (map[TimePoint]WorkScheduleDay, error) {
	return o.ScheduleForRange(ctx, scope, StartOfMonth(year, month), EndOfMonth(year, month))
}

// TeamScheduleForDate returns the fixed-rotation schedule for one date,
// optionally filtered to one team. A nil team returns every slot.
func (o *Orchestrator) TeamScheduleForDate(ctx context.Context, date TimePoint, team *TeamID) (WorkScheduleDay, error) {
	scope := Scope{Kind: ScopeAny}
	if team != nil {
		scope = TeamScope(*team)
	}
	days, err := o.teamRange(ctx, scope, date, date)
	if err != nil {
		return WorkScheduleDay{}, err
	}
	return days[date], nil
}

// ClearCache invalidates every cached result.
func (o *Orchestrator) ClearCache() { o.cache.clear() }

// ClearCacheForRange invalidates cached results whose span intersects
// [start, end]. Call after creating or cancelling an exception.
func (o *Orchestrator) ClearCacheForRange(start, end TimePoint) { o.cache.clearRange(start, end) }

// Stats reports cache occupancy.
func (o *Orchestrator) Stats() CacheStats { return o.cache.stats() }

// =============================================================================
// TEAM-SCOPED GENERATION
// =============================================================================

func (o *Orchestrator) teamRange(ctx context.Context, scope Scope, start, end TimePoint) (map[TimePoint]WorkScheduleDay, error) {
	pattern := o.defaultPattern
	filter := ScopeFilter{}
	if scope.Kind == ScopeTeam {
		filter = FilterByTeam(scope.Team)
		if team, err := o.teams.GetTeam(ctx, scope.Team); err == nil {
			pattern = o.resolver.PatternForTeam(pattern, team)
		}
	}

	key := cacheKey(scope, start, end, pattern.ID, pattern.Version)
	if days, ok := o.cache.get(key); ok {
		return days, nil
	}

	provider, err := SelectProvider(o.providers, pattern)
	if err != nil {
		return nil, err
	}

	// Only team-kind exceptions apply to team-level queries.
	excs, err := o.exceptions.ExceptionsForRange(ctx, Scope{Kind: ScopeAny}, start, end)
	if err != nil {
		return nil, err
	}
	excs = filterExceptions(excs, func(e ShiftException) bool {
		if e.Scope.Kind != ScopeTeam {
			return false
		}
		return scope.Kind != ScopeTeam || MatchTeamID(e.Scope.Team, scope.Team)
	})

	teamsByID, err := o.teamIndex(ctx)
	if err != nil {
		return nil, err
	}

	days := make(map[TimePoint]WorkScheduleDay, DaysBetween(start, end)+1)
	for d := start; d.BeforeOrEqual(end); d = d.AddDays(1) {
		base, warns := provider.GenerateForDate(d, pattern, filter)
		resolved, overlayWarns := o.overlay.Apply(d, base, exceptionsOn(excs, d))
		warns = append(warns, overlayWarns...)
		days[d] = o.materializer.Day(d, resolved, pattern, teamsByID, warns)
	}

	o.cache.set(key, start, end, days)
	return days, nil
}

// =============================================================================
// USER-SCOPED GENERATION
// =============================================================================

func (o *Orchestrator) userRange(ctx context.Context, user UserID, start, end TimePoint) (map[TimePoint]WorkScheduleDay, error) {
	assignments, err := o.patterns.AssignmentsForUser(ctx, user)
	if err != nil {
		return nil, err
	}

	// Resolve the governing assignment for every day up front; the set of
	// distinct (assignment, pattern) segments drives the cache fingerprint.
	type daySetup struct {
		assignment *UserScheduleAssignment
		pattern    PatternDefinition
		provider   Provider
		filter     ScopeFilter
		team       *Team
	}

	teamsByID, err := o.teamIndex(ctx)
	if err != nil {
		return nil, err
	}

	patternCache := make(map[PatternID]PatternDefinition)
	setups := make(map[TimePoint]daySetup, DaysBetween(start, end)+1)
	fingerprint := sha256.New()
	involvedTeams := make(map[TeamID]bool)

	for d := start; d.BeforeOrEqual(end); d = d.AddDays(1) {
		a, ok := SelectEffectiveAssignment(assignments, d)
		if !ok {
			setups[d] = daySetup{}
			continue
		}
		setup := daySetup{assignment: &a}

		switch {
		case a.Team != nil:
			pattern := o.defaultPattern
			if team, ok := teamsByID[*a.Team]; ok {
				pattern = o.resolver.PatternForTeam(pattern, team)
				t := team
				setup.team = &t
			}
			setup.pattern = pattern
			setup.filter = FilterByTeam(*a.Team)
			involvedTeams[*a.Team] = true
		case a.Pattern != nil:
			pattern, ok := patternCache[*a.Pattern]
			if !ok {
				pattern, err = o.patterns.GetPattern(ctx, *a.Pattern)
				if err != nil {
					return nil, err
				}
				patternCache[*a.Pattern] = pattern
			}
			setup.pattern = pattern.AlignedTo(a)
		default:
			// Assignment names neither a team nor a pattern; treat the day
			// as uncovered rather than guessing.
			setups[d] = daySetup{}
			continue
		}

		provider, err := SelectProvider(o.providers, setup.pattern)
		if err != nil {
			return nil, err
		}
		setup.provider = provider
		setups[d] = setup

		fmt.Fprintf(fingerprint, "%s|%s|%s|%d;", d, a.ID, setup.pattern.ID, setup.pattern.Version)
	}

	key := cacheKey(UserScope(user), start, end,
		PatternID(fmt.Sprintf("%x", fingerprint.Sum(nil))), 0)
	if days, ok := o.cache.get(key); ok {
		return days, nil
	}

	// One exception fetch per scope for the whole span: the user's own
	// exceptions plus those of every team the user rotates with.
	excs, err := o.exceptions.ExceptionsForRange(ctx, UserScope(user), start, end)
	if err != nil {
		return nil, err
	}
	for teamID := range involvedTeams {
		teamExcs, err := o.exceptions.ExceptionsForRange(ctx, TeamScope(teamID), start, end)
		if err != nil {
			return nil, err
		}
		excs = append(excs, teamExcs...)
	}

	days := make(map[TimePoint]WorkScheduleDay, DaysBetween(start, end)+1)
	for d := start; d.BeforeOrEqual(end); d = d.AddDays(1) {
		setup := setups[d]
		if setup.assignment == nil {
			days[d] = WorkScheduleDay{Date: d, Events: []WorkScheduleEvent{}}
			continue
		}

		base, warns := setup.provider.GenerateForDate(d, setup.pattern, setup.filter)
		dayExcs := filterExceptions(exceptionsOn(excs, d), func(e ShiftException) bool {
			if e.Scope.Kind == ScopeUser {
				return e.Scope.User == user
			}
			return setup.assignment.Team != nil && MatchTeamID(e.Scope.Team, *setup.assignment.Team)
		})
		resolved, overlayWarns := o.overlay.Apply(d, base, dayExcs)
		warns = append(warns, overlayWarns...)
		days[d] = o.materializer.Day(d, resolved, setup.pattern, teamsByID, warns)
	}

	o.cache.set(key, start, end, days)
	return days, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// SelectEffectiveAssignment picks the assignment governing the date:
// effective range contains the date, latest EffectiveFrom wins when the data
// contains overlaps.
func SelectEffectiveAssignment(assignments []UserScheduleAssignment, date TimePoint) (UserScheduleAssignment, bool) {
	var best *UserScheduleAssignment
	for i := range assignments {
		if !assignments[i].IsEffective(date) {
			continue
		}
		if best == nil || assignments[i].EffectiveFrom.After(best.EffectiveFrom) {
			best = &assignments[i]
		}
	}
	if best == nil {
		return UserScheduleAssignment{}, false
	}
	return *best, true
}

func (o *Orchestrator) hasAssignment(ctx context.Context, user UserID, date TimePoint) bool {
	assignments, err := o.patterns.AssignmentsForUser(ctx, user)
	if err != nil {
		return false
	}
	_, ok := SelectEffectiveAssignment(assignments, date)
	return ok
}

func (o *Orchestrator) teamIndex(ctx context.Context) (map[TeamID]Team, error) {
	all, err := o.teams.AllTeams(ctx)
	if err != nil {
		return nil, err
	}
	idx := make(map[TeamID]Team, len(all))
	for _, t := range all {
		idx[t.ID] = t
	}
	return idx, nil
}

func exceptionsOn(excs []ShiftException, date TimePoint) []ShiftException {
	var out []ShiftException
	for _, e := range excs {
		if e.Date.Equal(date) {
			out = append(out, e)
		}
	}
	return out
}

func filterExceptions(excs []ShiftException, keep func(ShiftException) bool) []ShiftException {
	var out []ShiftException
	for _, e := range excs {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}
