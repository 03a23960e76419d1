/*
overlay.go - Exception overlay and precedence resolution

PURPOSE:
  Merges punctual exceptions on top of provider output without touching the
  base pattern. Exceptions always beat the pattern for their (date, scope);
  conflicting exceptions resolve through an explicit, named tie-break
  (ResolveExceptionConflicts) instead of an implicit map-iteration accident.

PRECEDENCE POLICY:
  - Cancelled exceptions are inert.
  - Per (date, scope), REMOVE_SHIFT and OVERRIDE_SHIFT both rewrite the base
    slot, so they are mutually exclusive: the most recently created of the
    two wins (last-write-wins by CreatedAt, exception ID breaks exact ties).
  - ADD_SHIFT entries model extra coverage and are additive: every active ADD
    applies, on top of whatever the winning mutator left behind, deduplicated
    by replacement shift.
  - User-scoped exceptions apply after team-scoped ones: the more specific
    scope has the final word.

OUTPUT ORDERING:
  By shift start time; rest markers sort last.

SEE ALSO:
  - types.go: ShiftException, ResolvedAssignment
  - materializer.go: consumes the overlay output
*/
package schedule

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"
)

// ExceptionOverlay applies exceptions to base assignments. Replacement shift
// IDs resolve through a constructor-supplied immutable lookup.
type ExceptionOverlay struct {
	shiftTypes map[ShiftTypeID]ShiftType
	logger     zerolog.Logger
}

func NewExceptionOverlay(shiftTypes map[ShiftTypeID]ShiftType, logger zerolog.Logger) *ExceptionOverlay {
	lookup := make(map[ShiftTypeID]ShiftType, len(shiftTypes))
	for id, st := range shiftTypes {
		lookup[id] = st
	}
	return &ExceptionOverlay{
		shiftTypes: lookup,
		logger:     logger.With().Str("component", "exception-overlay").Logger(),
	}
}

// ExceptionDecision is the outcome of conflict resolution for one
// (date, scope) group.
type ExceptionDecision struct {
	// Mutator is the winning REMOVE_SHIFT or OVERRIDE_SHIFT, nil when the
	// group has neither.
	Mutator *ShiftException

	// Adds are all active ADD_SHIFT exceptions, oldest first.
	Adds []ShiftException

	// Discarded lists active exceptions that lost the tie-break.
	Discarded []ShiftException
}

// ResolveExceptionConflicts applies the precedence policy to all exceptions
// of a single (date, scope) group. Cancelled entries are dropped first. This
// is the explicit, testable tie-break the rest of the engine relies on.
func ResolveExceptionConflicts(group []ShiftException) ExceptionDecision {
	var decision ExceptionDecision
	for _, exc := range group {
		if !exc.IsActive() {
			continue
		}
		switch exc.Kind {
		case ExceptionAdd:
			decision.Adds = append(decision.Adds, exc)
		case ExceptionRemove, ExceptionOverride:
			if decision.Mutator == nil || moreRecent(exc, *decision.Mutator) {
				if decision.Mutator != nil {
					decision.Discarded = append(decision.Discarded, *decision.Mutator)
				}
				e := exc
				decision.Mutator = &e
			} else {
				decision.Discarded = append(decision.Discarded, exc)
			}
		}
	}
	sort.SliceStable(decision.Adds, func(i, j int) bool {
		return moreRecent(decision.Adds[j], decision.Adds[i])
	})
	return decision
}

// moreRecent implements last-write-wins ordering: later CreatedAt wins, and
// exact timestamp ties fall back to the larger exception ID so the result is
// a total order.
func moreRecent(a, b ShiftException) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.ID > b.ID
	}
	return a.CreatedAt.After(b.CreatedAt)
}

// Apply merges the exceptions for one date into the base assignments.
// Exceptions dated differently are ignored. Team-scoped exceptions act on
// assignments containing their team (splitting multi-team slots as needed);
// user-scoped exceptions act on the whole result, since base output for a
// user query is already filtered to that user's schedule.
func (o *ExceptionOverlay) Apply(date TimePoint, base []BaseAssignment, exceptions []ShiftException) ([]ResolvedAssignment, []Warning) {
	resolved := make([]ResolvedAssignment, 0, len(base))
	for _, b := range base {
		resolved = append(resolved, ResolvedAssignment{BaseAssignment: b, Origin: OriginPattern})
	}

	byScope := make(map[string][]ShiftException)
	var scopeOrder []string
	for _, exc := range exceptions {
		if !exc.Date.Equal(date) {
			continue
		}
		k := exc.Scope.Key()
		if _, seen := byScope[k]; !seen {
			scopeOrder = append(scopeOrder, k)
		}
		byScope[k] = append(byScope[k], exc)
	}
	// Deterministic application order: team scopes first, then user scopes,
	// alphabetical within each kind.
	sort.Slice(scopeOrder, func(i, j int) bool { return scopeOrder[i] < scopeOrder[j] })

	var warnings []Warning
	for _, key := range scopeOrder {
		group := byScope[key]
		scope := group[0].Scope
		decision := ResolveExceptionConflicts(group)

		if len(decision.Discarded) > 0 {
			w := NewWarning(WarnAmbiguousExceptions,
				fmt.Sprintf("%d conflicting exceptions, most recent wins", len(decision.Discarded)+1)).
				At(date).For(scope)
			w.Log(o.logger)
			warnings = append(warnings, w)
		}

		resolved, warnings = o.applyDecision(resolved, warnings, date, scope, decision)
	}

	sortResolved(resolved)
	return resolved, warnings
}

func (o *ExceptionOverlay) applyDecision(resolved []ResolvedAssignment, warnings []Warning, date TimePoint, scope Scope, decision ExceptionDecision) ([]ResolvedAssignment, []Warning) {
	if m := decision.Mutator; m != nil {
		switch m.Kind {
		case ExceptionRemove:
			resolved = removeForScope(resolved, scope)
		case ExceptionOverride:
			replacement, ok := o.replacementShift(*m)
			if !ok {
				w := NewWarning(WarnMissingReplacement,
					fmt.Sprintf("override exception %s has no usable replacement shift, skipping", m.ID)).
					At(date).For(scope)
				w.Log(o.logger)
				warnings = append(warnings, w)
			} else {
				resolved = overrideForScope(resolved, scope, replacement, m.ID, date)
			}
		}
	}

	seen := make(map[ShiftTypeID]bool)
	for _, add := range decision.Adds {
		replacement, ok := o.replacementShift(add)
		if !ok {
			w := NewWarning(WarnMissingReplacement,
				fmt.Sprintf("add exception %s has no usable replacement shift, skipping", add.ID)).
				At(date).For(scope)
			w.Log(o.logger)
			warnings = append(warnings, w)
			continue
		}
		if seen[replacement.ID] {
			continue
		}
		seen[replacement.ID] = true
		resolved = append(resolved, ResolvedAssignment{
			BaseAssignment: BaseAssignment{
				Date:       date,
				Shift:      replacement,
				Teams:      scopeTeams(scope),
				SlotIndex:  -1,
				CycleIndex: -1,
			},
			Origin:      OriginExceptionAdd,
			ExceptionID: add.ID,
		})
	}
	return resolved, warnings
}

func (o *ExceptionOverlay) replacementShift(exc ShiftException) (ShiftType, bool) {
	if exc.Replacement == nil {
		return ShiftType{}, false
	}
	st, ok := o.shiftTypes[*exc.Replacement]
	return st, ok
}

// removeForScope strips the scope from every assignment; assignments left
// with no subject disappear entirely.
func removeForScope(resolved []ResolvedAssignment, scope Scope) []ResolvedAssignment {
	if scope.Kind == ScopeUser {
		// The whole result is this user's schedule.
		return resolved[:0]
	}
	out := resolved[:0]
	for _, r := range resolved {
		if !ContainsTeam(r.Teams, scope.Team) {
			out = append(out, r)
			continue
		}
		remaining := withoutTeam(r.Teams, scope.Team)
		if len(remaining) == 0 {
			continue
		}
		r.Teams = remaining
		out = append(out, r)
	}
	return out
}

// overrideForScope replaces the scope's shift. Multi-team slots split: the
// scoped team moves to the replacement shift, the rest keep the base one.
// A scope with no base assignment gets a synthesized one, so an override is
// authoritative even when the pattern had the scope off duty.
func overrideForScope(resolved []ResolvedAssignment, scope Scope, replacement ShiftType, excID ExceptionID, date TimePoint) []ResolvedAssignment {
	touched := false
	// A split appends two entries per input, so this cannot reuse the
	// backing array the way removeForScope does.
	out := make([]ResolvedAssignment, 0, len(resolved)+1)
	for _, r := range resolved {
		if scope.Kind == ScopeUser {
			touched = true
			r.Shift = replacement
			r.Origin = OriginExceptionOverride
			r.ExceptionID = excID
			out = append(out, r)
			continue
		}
		if !ContainsTeam(r.Teams, scope.Team) {
			out = append(out, r)
			continue
		}
		touched = true
		remaining := withoutTeam(r.Teams, scope.Team)
		if len(remaining) > 0 {
			kept := r
			kept.Teams = remaining
			out = append(out, kept)
		}
		r.Teams = scopeTeams(scope)
		r.Shift = replacement
		r.Origin = OriginExceptionOverride
		r.ExceptionID = excID
		out = append(out, r)
	}
	if !touched {
		out = append(out, ResolvedAssignment{
			BaseAssignment: BaseAssignment{
				Date:       date,
				Shift:      replacement,
				Teams:      scopeTeams(scope),
				SlotIndex:  -1,
				CycleIndex: -1,
			},
			Origin:      OriginExceptionOverride,
			ExceptionID: excID,
		})
	}
	return out
}

func withoutTeam(cell []TeamID, target TeamID) []TeamID {
	var out []TeamID
	for _, id := range cell {
		if !MatchTeamID(id, target) {
			out = append(out, id)
		}
	}
	return out
}

func scopeTeams(scope Scope) []TeamID {
	if scope.Kind == ScopeTeam {
		return []TeamID{scope.Team}
	}
	return nil
}

// sortResolved orders by shift start time with rest markers last; name and
// slot index break ties so the order is stable across runs.
func sortResolved(resolved []ResolvedAssignment) {
	sort.SliceStable(resolved, func(i, j int) bool {
		a, b := resolved[i], resolved[j]
		if a.Shift.Rest != b.Shift.Rest {
			return !a.Shift.Rest
		}
		if a.Shift.Start.Minutes() != b.Shift.Start.Minutes() {
			return a.Shift.Start.Minutes() < b.Shift.Start.Minutes()
		}
		if a.Shift.Name != b.Shift.Name {
			return a.Shift.Name < b.Shift.Name
		}
		return a.SlotIndex < b.SlotIndex
	})
}
