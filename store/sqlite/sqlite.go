/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements the read contracts the engine consumes (PatternRepository,
  TeamDirectory, ExceptionStore) plus the write side that lives outside the
  engine: saving patterns/teams/assignments, creating and cancelling
  exceptions, and enforcing write-time invariants the engine only tolerates
  read-only (no overlapping effective user assignments).

KEY TABLES:
  patterns:          JSON pattern configs, versioned
  teams:             Team directory with phase offsets
  user_assignments:  User -> team/pattern links with effective ranges
  exceptions:        Punctual schedule deviations; cancelled rows stay

EXCEPTION LIFECYCLE:
  Exceptions are never deleted. Cancelling flips status to CANCELLED; the
  engine treats cancelled rows as inert but history stays queryable.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of SQLite WAL mode. Contention
  is human-driven UI traffic, so a coarse lock is fine.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/shifts.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - schedule/store.go: interface definitions
  - schedule/store/memory.go: in-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/shift-engine/factory"
	"github.com/warp/shift-engine/schedule"
)

const (
	dateFormat = "2006-01-02"
	timeFormat = time.RFC3339Nano
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schemaSQL := `
	CREATE TABLE IF NOT EXISTS patterns (
		id TEXT PRIMARY KEY,
		config_json TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS teams (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		phase_offset INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS user_assignments (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		team_id TEXT,
		pattern_id TEXT,
		effective_from TEXT NOT NULL,
		effective_to TEXT,
		cycle_anchor INTEGER NOT NULL DEFAULT 1
	);
	CREATE INDEX IF NOT EXISTS idx_assignments_user ON user_assignments(user_id, effective_from);

	CREATE TABLE IF NOT EXISTS exceptions (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		kind TEXT NOT NULL,
		scope_kind TEXT NOT NULL,
		scope_id TEXT NOT NULL,
		status TEXT NOT NULL,
		replacement_shift TEXT,
		note TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_exceptions_date ON exceptions(date);
	CREATE INDEX IF NOT EXISTS idx_exceptions_scope ON exceptions(scope_kind, scope_id, date);
	`
	_, err := s.db.Exec(schemaSQL)
	return err
}

// =============================================================================
// PATTERN REPOSITORY
// =============================================================================

func (s *Store) GetPattern(ctx context.Context, id schedule.PatternID) (schedule.PatternDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var configJSON string
	var version int64
	err := s.db.QueryRowContext(ctx,
		`SELECT config_json, version FROM patterns WHERE id = ?`, string(id)).
		Scan(&configJSON, &version)
	if err == sql.ErrNoRows {
		return schedule.PatternDefinition{}, schedule.ErrPatternNotFound
	}
	if err != nil {
		return schedule.PatternDefinition{}, err
	}

	pattern, _, err := factory.ParsePattern([]byte(configJSON))
	if err != nil {
		return schedule.PatternDefinition{}, fmt.Errorf("stored pattern %s is invalid: %w", id, err)
	}
	pattern.Version = version
	return pattern, nil
}

// GetPatternShiftTypes returns the shift-type lookup a stored custom
// pattern defines. The overlay and API layer need it alongside the pattern.
func (s *Store) GetPatternShiftTypes(ctx context.Context, id schedule.PatternID) (map[schedule.ShiftTypeID]schedule.ShiftType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var configJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT config_json FROM patterns WHERE id = ?`, string(id)).Scan(&configJSON)
	if err == sql.ErrNoRows {
		return nil, schedule.ErrPatternNotFound
	}
	if err != nil {
		return nil, err
	}
	_, shiftTypes, err := factory.ParsePattern([]byte(configJSON))
	return shiftTypes, err
}

// SavePattern validates and stores a JSON pattern config. Re-saving an
// existing id bumps its version so cache keys of stale results stop matching.
func (s *Store) SavePattern(ctx context.Context, configJSON string) (schedule.PatternDefinition, error) {
	pattern, _, err := factory.ParsePattern([]byte(configJSON))
	if err != nil {
		return schedule.PatternDefinition{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO patterns (id, config_json, version, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			config_json = excluded.config_json,
			version = patterns.version + 1`,
		string(pattern.ID), configJSON, pattern.Version, time.Now().UTC().Format(timeFormat))
	if err != nil {
		return schedule.PatternDefinition{}, err
	}

	var version int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT version FROM patterns WHERE id = ?`, string(pattern.ID)).Scan(&version); err != nil {
		return schedule.PatternDefinition{}, err
	}
	pattern.Version = version
	return pattern, nil
}

// ListPatterns returns every stored pattern, ordered by id.
func (s *Store) ListPatterns(ctx context.Context) ([]schedule.PatternDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT config_json, version FROM patterns ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []schedule.PatternDefinition
	for rows.Next() {
		var configJSON string
		var version int64
		if err := rows.Scan(&configJSON, &version); err != nil {
			return nil, err
		}
		pattern, _, err := factory.ParsePattern([]byte(configJSON))
		if err != nil {
			return nil, fmt.Errorf("stored pattern is invalid: %w", err)
		}
		pattern.Version = version
		out = append(out, pattern)
	}
	return out, rows.Err()
}

func (s *Store) AssignmentsForUser(ctx context.Context, user schedule.UserID) ([]schedule.UserScheduleAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.assignmentsForUserLocked(ctx, user)
}

// SaveAssignment stores a user assignment, rejecting effective ranges that
// overlap an existing assignment for the same user.
func (s *Store) SaveAssignment(ctx context.Context, a schedule.UserScheduleAssignment) error {
	if a.Team == nil && a.Pattern == nil {
		return fmt.Errorf("assignment %s: %w: either team or pattern is required",
			a.ID, schedule.ErrMissingConfiguration)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.assignmentsForUserLocked(ctx, a.User)
	if err != nil {
		return err
	}
	for _, other := range existing {
		if other.ID == a.ID {
			continue
		}
		if a.Overlaps(other) {
			return &schedule.OverlappingAssignmentError{User: a.User, ExistingID: other.ID}
		}
	}

	var teamID, patternID, effectiveTo interface{}
	if a.Team != nil {
		teamID = string(*a.Team)
	}
	if a.Pattern != nil {
		patternID = string(*a.Pattern)
	}
	if a.EffectiveTo != nil {
		effectiveTo = a.EffectiveTo.Time.Format(dateFormat)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO user_assignments
			(id, user_id, team_id, pattern_id, effective_from, effective_to, cycle_anchor)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, string(a.User), teamID, patternID,
		a.EffectiveFrom.Time.Format(dateFormat), effectiveTo, a.CycleAnchor)
	return err
}

func (s *Store) assignmentsForUserLocked(ctx context.Context, user schedule.UserID) ([]schedule.UserScheduleAssignment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, team_id, pattern_id, effective_from, effective_to, cycle_anchor
		FROM user_assignments WHERE user_id = ? ORDER BY effective_from`, string(user))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []schedule.UserScheduleAssignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAssignment(rows *sql.Rows) (schedule.UserScheduleAssignment, error) {
	var (
		a           schedule.UserScheduleAssignment
		userID      string
		teamID      sql.NullString
		patternID   sql.NullString
		from        string
		to          sql.NullString
		cycleAnchor int
	)
	if err := rows.Scan(&a.ID, &userID, &teamID, &patternID, &from, &to, &cycleAnchor); err != nil {
		return schedule.UserScheduleAssignment{}, err
	}
	a.User = schedule.UserID(userID)
	a.CycleAnchor = cycleAnchor
	if teamID.Valid {
		id := schedule.TeamID(teamID.String)
		a.Team = &id
	}
	if patternID.Valid {
		id := schedule.PatternID(patternID.String)
		a.Pattern = &id
	}
	fromTP, err := schedule.ParseTimePoint(from)
	if err != nil {
		return schedule.UserScheduleAssignment{}, fmt.Errorf("assignment %s: bad effective_from: %w", a.ID, err)
	}
	a.EffectiveFrom = fromTP
	if to.Valid {
		toTP, err := schedule.ParseTimePoint(to.String)
		if err != nil {
			return schedule.UserScheduleAssignment{}, fmt.Errorf("assignment %s: bad effective_to: %w", a.ID, err)
		}
		a.EffectiveTo = &toTP
	}
	return a, nil
}

// =============================================================================
// TEAM DIRECTORY
// =============================================================================

func (s *Store) GetTeam(ctx context.Context, id schedule.TeamID) (schedule.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var t schedule.Team
	var teamID string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, phase_offset FROM teams WHERE id = ?`, string(id)).
		Scan(&teamID, &t.Name, &t.PhaseOffset)
	if err == sql.ErrNoRows {
		return schedule.Team{}, schedule.ErrTeamNotFound
	}
	if err != nil {
		return schedule.Team{}, err
	}
	t.ID = schedule.TeamID(teamID)
	return t, nil
}

func (s *Store) AllTeams(ctx context.Context) ([]schedule.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, name, phase_offset FROM teams ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []schedule.Team
	for rows.Next() {
		var t schedule.Team
		var id string
		if err := rows.Scan(&id, &t.Name, &t.PhaseOffset); err != nil {
			return nil, err
		}
		t.ID = schedule.TeamID(id)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) SaveTeam(ctx context.Context, t schedule.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO teams (id, name, phase_offset) VALUES (?, ?, ?)`,
		string(t.ID), t.Name, t.PhaseOffset)
	return err
}

// =============================================================================
// EXCEPTION STORE
// =============================================================================

func (s *Store) ExceptionsForRange(ctx context.Context, scope schedule.Scope, from, to schedule.TimePoint) ([]schedule.ShiftException, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, date, kind, scope_kind, scope_id, status, replacement_shift, note, created_at
		FROM exceptions WHERE date >= ? AND date <= ?`
	args := []interface{}{from.Time.Format(dateFormat), to.Time.Format(dateFormat)}
	if scope.Kind != schedule.ScopeAny {
		query += ` AND scope_kind = ? AND scope_id = ?`
		args = append(args, string(scope.Kind), scopeID(scope))
	}
	query += ` ORDER BY date, created_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []schedule.ShiftException
	for rows.Next() {
		e, err := scanException(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// SaveException stores a new exception. CreatedAt defaults to now; the
// overlay's last-write-wins tie-break depends on it.
func (s *Store) SaveException(ctx context.Context, e schedule.ShiftException) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.Status == "" {
		e.Status = schedule.ExceptionActive
	}

	var replacement interface{}
	if e.Replacement != nil {
		replacement = string(*e.Replacement)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO exceptions
			(id, date, kind, scope_kind, scope_id, status, replacement_shift, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(e.ID), e.Date.Time.Format(dateFormat), string(e.Kind),
		string(e.Scope.Kind), scopeID(e.Scope), string(e.Status),
		replacement, e.Note, e.CreatedAt.Format(timeFormat))
	return err
}

// CancelException flips an exception to CANCELLED. The row is kept.
func (s *Store) CancelException(ctx context.Context, id schedule.ExceptionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE exceptions SET status = ? WHERE id = ?`,
		string(schedule.ExceptionCancelled), string(id))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return schedule.ErrExceptionNotFound
	}
	return nil
}

// GetException returns one exception by ID.
func (s *Store) GetException(ctx context.Context, id schedule.ExceptionID) (schedule.ShiftException, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, date, kind, scope_kind, scope_id, status, replacement_shift, note, created_at
		FROM exceptions WHERE id = ?`, string(id))
	e, err := scanException(row)
	if err == sql.ErrNoRows {
		return schedule.ShiftException{}, schedule.ErrExceptionNotFound
	}
	return e, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanException(r rowScanner) (schedule.ShiftException, error) {
	var (
		e           schedule.ShiftException
		id          string
		date        string
		kind        string
		scopeKind   string
		scopeIDStr  string
		status      string
		replacement sql.NullString
		note        sql.NullString
		createdAt   string
	)
	if err := r.Scan(&id, &date, &kind, &scopeKind, &scopeIDStr, &status, &replacement, &note, &createdAt); err != nil {
		return schedule.ShiftException{}, err
	}
	e.ID = schedule.ExceptionID(id)
	e.Kind = schedule.ExceptionKind(kind)
	e.Status = schedule.ExceptionStatus(status)
	if note.Valid {
		e.Note = note.String
	}

	tp, err := schedule.ParseTimePoint(date)
	if err != nil {
		return schedule.ShiftException{}, fmt.Errorf("exception %s: bad date: %w", id, err)
	}
	e.Date = tp

	switch schedule.ScopeKind(scopeKind) {
	case schedule.ScopeTeam:
		e.Scope = schedule.TeamScope(schedule.TeamID(scopeIDStr))
	case schedule.ScopeUser:
		e.Scope = schedule.UserScope(schedule.UserID(scopeIDStr))
	default:
		return schedule.ShiftException{}, fmt.Errorf("exception %s: unknown scope kind %q", id, scopeKind)
	}

	if replacement.Valid {
		shiftID := schedule.ShiftTypeID(replacement.String)
		e.Replacement = &shiftID
	}

	created, err := time.Parse(timeFormat, createdAt)
	if err != nil {
		return schedule.ShiftException{}, fmt.Errorf("exception %s: bad created_at: %w", id, err)
	}
	e.CreatedAt = created
	return e, nil
}

func scopeID(scope schedule.Scope) string {
	if scope.Kind == schedule.ScopeTeam {
		return string(scope.Team)
	}
	return string(scope.User)
}

// =============================================================================
// MAINTENANCE
// =============================================================================

// Reset clears every table. Dev/seed use only.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"patterns", "teams", "user_assignments", "exceptions"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}
