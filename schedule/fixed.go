/*
fixed.go - FixedRotationProvider

PURPOSE:
  Generates base assignments for the canonical industrial rotation: a
  cycleLength x shiftsPerDay grid of team sets, anchored at a fixed
  historical reference date. The grid and the slot-index-to-shift-type
  mapping are injected at construction as immutable configuration, so tests
  can run alternate rotations and there is no partially-initialized state.

SEE ALSO:
  - rotation/table.go: the canonical 18-day, 3-slot, 9-team table
  - provider.go: the contract this implements
*/
package schedule

import (
	"fmt"

	"github.com/rs/zerolog"
)

const FixedRotationProviderName = "fixed-rotation"

// FixedRotationProvider serves FIXED patterns from an injected grid.
type FixedRotationProvider struct {
	table        RotationTable
	shiftBySlot  map[int]ShiftType
	logger       zerolog.Logger
}

// NewFixedRotationProvider builds a provider over the given rotation table.
// shiftBySlot maps grid slot indexes to shift types; it is copied and never
// modified afterwards. Slots without a mapping are skipped with a warning at
// generation time.
func NewFixedRotationProvider(table RotationTable, shiftBySlot map[int]ShiftType, logger zerolog.Logger) (*FixedRotationProvider, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	mapping := make(map[int]ShiftType, len(shiftBySlot))
	for idx, st := range shiftBySlot {
		mapping[idx] = st
	}
	return &FixedRotationProvider{
		table:       table,
		shiftBySlot: mapping,
		logger:      logger.With().Str("component", FixedRotationProviderName).Logger(),
	}, nil
}

func (p *FixedRotationProvider) Name() string { return FixedRotationProviderName }

// Supports accepts FIXED patterns whose cycle length matches the grid.
func (p *FixedRotationProvider) Supports(pattern PatternDefinition) bool {
	return pattern.Kind == PatternFixed && pattern.CycleLength == p.table.CycleLength
}

// GenerateForDate looks up the grid row for the date's cycle index and emits
// one assignment per configured slot. The pattern's reference date drives the
// index so that phase-shifted pattern copies work; a zero reference falls
// back to the table's historical reference.
func (p *FixedRotationProvider) GenerateForDate(date TimePoint, pattern PatternDefinition, scope ScopeFilter) ([]BaseAssignment, []Warning) {
	if !p.Supports(pattern) {
		w := NewWarning(WarnUnsupportedPattern,
			fmt.Sprintf("pattern %s is not servable by the fixed rotation", pattern.ID)).At(date)
		w.Log(p.logger)
		return []BaseAssignment{}, []Warning{w}
	}

	reference := pattern.Reference
	if reference.IsZero() {
		reference = p.table.Reference
	}
	idx := CycleIndex(date, reference, p.table.CycleLength)
	row := p.table.Cells[idx]

	var out []BaseAssignment
	var warnings []Warning
	for slot, cell := range row {
		if len(cell) == 0 {
			continue
		}
		shift, ok := p.shiftBySlot[slot]
		if !ok {
			w := NewWarning(WarnMissingShiftMapping,
				fmt.Sprintf("no shift type configured for slot %d, skipping", slot)).At(date)
			w.Log(p.logger)
			warnings = append(warnings, w)
			continue
		}
		if !scope.Matches(cell) {
			continue
		}
		out = append(out, BaseAssignment{
			Date:       date,
			Shift:      shift,
			Teams:      append([]TeamID(nil), cell...),
			SlotIndex:  slot,
			CycleIndex: idx,
			PatternID:  pattern.ID,
			Provider:   FixedRotationProviderName,
		})
	}
	return out, warnings
}

func (p *FixedRotationProvider) GenerateForRange(start, end TimePoint, pattern PatternDefinition, scope ScopeFilter) ([]BaseAssignment, []Warning) {
	return generateRange(p, start, end, pattern, scope)
}
