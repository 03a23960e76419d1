/*
custom.go - CustomPatternProvider

PURPOSE:
  Generates base assignments from a caller-supplied slot sequence instead of
  the hard-coded industrial grid. The cycle index is computed against the
  pattern's reference date, which the orchestrator derives per user from the
  assignment's 1-based cycle anchor (see PatternDefinition.AlignedTo): two
  users on the same custom pattern may start their cycles on different
  calendar days.

VALIDATION:
  The slot sequence length must equal the declared cycle length; mismatched
  patterns are simply not supported (Supports returns false) and the
  orchestrator reports ErrUnsupportedPattern.

SEE ALSO:
  - fixed.go: the grid-driven sibling
  - factory/pattern.go: JSON-configured custom patterns
*/
package schedule

import (
	"fmt"

	"github.com/rs/zerolog"
)

const CustomPatternProviderName = "custom-pattern"

// CustomPatternProvider serves CUSTOM patterns. Shift types are resolved
// through a constructor-supplied immutable lookup.
type CustomPatternProvider struct {
	shiftTypes map[ShiftTypeID]ShiftType
	logger     zerolog.Logger
}

func NewCustomPatternProvider(shiftTypes map[ShiftTypeID]ShiftType, logger zerolog.Logger) *CustomPatternProvider {
	lookup := make(map[ShiftTypeID]ShiftType, len(shiftTypes))
	for id, st := range shiftTypes {
		lookup[id] = st
	}
	return &CustomPatternProvider{
		shiftTypes: lookup,
		logger:     logger.With().Str("component", CustomPatternProviderName).Logger(),
	}
}

func (p *CustomPatternProvider) Name() string { return CustomPatternProviderName }

// Supports accepts structurally valid CUSTOM patterns.
func (p *CustomPatternProvider) Supports(pattern PatternDefinition) bool {
	return pattern.Kind == PatternCustom && pattern.Validate() == nil
}

func (p *CustomPatternProvider) GenerateForDate(date TimePoint, pattern PatternDefinition, scope ScopeFilter) ([]BaseAssignment, []Warning) {
	if !p.Supports(pattern) {
		w := NewWarning(WarnInvalidPattern,
			fmt.Sprintf("custom pattern %s failed validation, skipping", pattern.ID)).At(date)
		w.Log(p.logger)
		return []BaseAssignment{}, []Warning{w}
	}

	idx := CycleIndex(date, pattern.Reference, pattern.CycleLength)

	var out []BaseAssignment
	var warnings []Warning
	for slot, tpl := range pattern.Days[idx] {
		shift, ok := p.shiftTypes[tpl.Shift]
		if !ok {
			w := NewWarning(WarnUnknownShiftType,
				fmt.Sprintf("pattern %s references unknown shift type %s, skipping slot", pattern.ID, tpl.Shift)).At(date)
			w.Log(p.logger)
			warnings = append(warnings, w)
			continue
		}
		// A slot with no team list belongs to whoever the pattern is assigned
		// to, so it always passes a team filter.
		if len(tpl.Teams) > 0 && !scope.Matches(tpl.Teams) {
			continue
		}
		out = append(out, BaseAssignment{
			Date:       date,
			Shift:      shift,
			Teams:      append([]TeamID(nil), tpl.Teams...),
			SlotIndex:  slot,
			CycleIndex: idx,
			PatternID:  pattern.ID,
			Provider:   CustomPatternProviderName,
		})
	}
	return out, warnings
}

func (p *CustomPatternProvider) GenerateForRange(start, end TimePoint, pattern PatternDefinition, scope ScopeFilter) ([]BaseAssignment, []Warning) {
	return generateRange(p, start, end, pattern, scope)
}
