/*
provider.go - The polymorphic schedule provider contract

PURPOSE:
  A provider turns (date, pattern, scope filter) into base shift assignments.
  Two variants exist - the fixed industrial rotation and user-defined custom
  patterns - behind one contract, so the orchestrator selects a provider once
  per pattern and never probes again per call.

FAILURE SEMANTICS (both variants):
  Invalid or unusable inputs produce an empty result paired with a structured
  Warning, never a panic or error. An empty day degrades gracefully in the UI;
  a crash would abort a whole range query.

SEE ALSO:
  - fixed.go: FixedRotationProvider
  - custom.go: CustomPatternProvider
  - orchestrator.go: provider selection and wiring
*/
package schedule

// ScopeFilter restricts provider output to slots containing a team.
// The zero value means "no filtering".
type ScopeFilter struct {
	Team *TeamID
}

func FilterByTeam(id TeamID) ScopeFilter { return ScopeFilter{Team: &id} }

// Matches reports whether a grid cell passes the filter.
func (f ScopeFilter) Matches(cell []TeamID) bool {
	if f.Team == nil {
		return true
	}
	return ContainsTeam(cell, *f.Team)
}

// Provider generates base (un-overridden) shift assignments for a pattern.
// Implementations are pure given their construction-time configuration and
// safe for concurrent use.
type Provider interface {
	// Name identifies the provider in provenance metadata and warnings.
	Name() string

	// Supports declares whether this provider can generate for the pattern.
	Supports(pattern PatternDefinition) bool

	// GenerateForDate returns zero or more assignments for one date.
	GenerateForDate(date TimePoint, pattern PatternDefinition, scope ScopeFilter) ([]BaseAssignment, []Warning)

	// GenerateForRange covers the inclusive [start, end] range day by day, in
	// date-ascending order. start > end yields an empty result and a warning.
	GenerateForRange(start, end TimePoint, pattern PatternDefinition, scope ScopeFilter) ([]BaseAssignment, []Warning)
}

// SelectProvider picks the first provider that supports the pattern.
// The provider set is a closed list fixed at orchestrator construction.
func SelectProvider(providers []Provider, pattern PatternDefinition) (Provider, error) {
	for _, p := range providers {
		if p.Supports(pattern) {
			return p, nil
		}
	}
	return nil, &UnsupportedPatternError{Pattern: pattern.ID, Kind: pattern.Kind}
}

// generateRange implements the shared day-by-day range walk. No batching
// assumptions: each day goes through the single-date path.
func generateRange(p Provider, start, end TimePoint, pattern PatternDefinition, scope ScopeFilter) ([]BaseAssignment, []Warning) {
	if start.After(end) {
		w := NewWarning(WarnInvalidRange, "range start after end, returning empty result").At(start)
		return []BaseAssignment{}, []Warning{w}
	}

	var out []BaseAssignment
	var warnings []Warning
	for d := start; d.BeforeOrEqual(end); d = d.AddDays(1) {
		base, warns := p.GenerateForDate(d, pattern, scope)
		out = append(out, base...)
		warnings = append(warnings, warns...)
	}
	return out, warnings
}
