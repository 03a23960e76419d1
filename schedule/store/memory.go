// Package store provides in-memory implementations of the schedule
// data-access contracts, for tests and development.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/shift-engine/schedule"
)

// =============================================================================
// MEMORY STORE - Implements PatternRepository, TeamDirectory, ExceptionStore
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	patterns    map[schedule.PatternID]schedule.PatternDefinition
	teams       map[schedule.TeamID]schedule.Team
	assignments map[schedule.UserID][]schedule.UserScheduleAssignment
	exceptions  map[schedule.ExceptionID]schedule.ShiftException
}

func NewMemory() *Memory {
	return &Memory{
		patterns:    make(map[schedule.PatternID]schedule.PatternDefinition),
		teams:       make(map[schedule.TeamID]schedule.Team),
		assignments: make(map[schedule.UserID][]schedule.UserScheduleAssignment),
		exceptions:  make(map[schedule.ExceptionID]schedule.ShiftException),
	}
}

// -----------------------------------------------------------------------------
// Write helpers (test/dev setup; production writes live in store/sqlite)
// -----------------------------------------------------------------------------

func (m *Memory) PutPattern(p schedule.PatternDefinition) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patterns[p.ID] = p
}

func (m *Memory) PutTeam(t schedule.Team) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teams[t.ID] = t
}

func (m *Memory) PutAssignment(a schedule.UserScheduleAssignment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assignments[a.User] = append(m.assignments[a.User], a)
}

func (m *Memory) PutException(e schedule.ShiftException) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exceptions[e.ID] = e
}

// CancelException flips an exception to CANCELLED; it stays in the store.
func (m *Memory) CancelException(id schedule.ExceptionID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.exceptions[id]
	if !ok {
		return false
	}
	e.Status = schedule.ExceptionCancelled
	m.exceptions[id] = e
	return true
}

// -----------------------------------------------------------------------------
// PatternRepository
// -----------------------------------------------------------------------------

func (m *Memory) GetPattern(_ context.Context, id schedule.PatternID) (schedule.PatternDefinition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.patterns[id]
	if !ok {
		return schedule.PatternDefinition{}, schedule.ErrPatternNotFound
	}
	return p, nil
}

func (m *Memory) AssignmentsForUser(_ context.Context, user schedule.UserID) ([]schedule.UserScheduleAssignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]schedule.UserScheduleAssignment, len(m.assignments[user]))
	copy(out, m.assignments[user])
	return out, nil
}

// -----------------------------------------------------------------------------
// TeamDirectory
// -----------------------------------------------------------------------------

func (m *Memory) GetTeam(_ context.Context, id schedule.TeamID) (schedule.Team, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.teams[id]
	if !ok {
		return schedule.Team{}, schedule.ErrTeamNotFound
	}
	return t, nil
}

func (m *Memory) AllTeams(_ context.Context) ([]schedule.Team, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]schedule.Team, 0, len(m.teams))
	for _, t := range m.teams {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// -----------------------------------------------------------------------------
// ExceptionStore
// -----------------------------------------------------------------------------

func (m *Memory) ExceptionsForRange(_ context.Context, scope schedule.Scope, from, to schedule.TimePoint) ([]schedule.ShiftException, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []schedule.ShiftException
	for _, e := range m.exceptions {
		if e.Date.Before(from) || e.Date.After(to) {
			continue
		}
		if !scope.Matches(e.Scope) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
