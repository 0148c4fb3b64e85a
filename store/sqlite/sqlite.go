/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements tracker.RecordStore and tracker.BalanceStore using SQLite.
  In production, the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

KEY TABLES:
  attendance_logs:  One row per employee per calendar day. Soft-deleted
                    rows keep their data but are invisible to queries.
  absence_balances: One row per employee per year, lazily created with
                    default totals.

UNIQUENESS:
  idx_attendance_user_date is a partial unique index over live rows
  only: a soft-deleted entry frees the (user, date) slot for re-entry,
  while two live entries for the same day are impossible even under
  concurrent inserts. Create() maps the constraint violation to
  attendance.ErrDuplicateEntry.

BALANCE ATOMICITY:
  Hours in absence_balances are stored as INTEGER hundredths so the
  consume path can be a single guarded UPDATE:

    UPDATE ... SET used = used + ? WHERE total - used >= ?

  RowsAffected = 0 means insufficient balance - check and increment are
  one statement, so two racing requests cannot both pass. Hours are
  quarter-hour multiples, so hundredths are exact.

NUMERIC COLUMNS:
  Hour figures on attendance_logs are TEXT decimal strings; they are
  read-modify-written through the application and never touched by SQL
  arithmetic.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/attendance.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - tracker/store.go: Interface definitions and the atomicity contract
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/absence"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/tracker"
)

// Store implements the storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ tracker.RecordStore = (*Store)(nil)
var _ tracker.BalanceStore = (*Store)(nil)

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

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Attendance logs (one row per employee per day)
	CREATE TABLE IF NOT EXISTS attendance_logs (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		manager_id TEXT NOT NULL DEFAULT '',
		date TEXT NOT NULL,
		shift_start TEXT,
		lunch_start TEXT,
		lunch_end TEXT,
		shift_end TEXT,
		vacation_hours TEXT NOT NULL DEFAULT '0',
		sick_hours TEXT NOT NULL DEFAULT '0',
		total_hours TEXT NOT NULL DEFAULT '0',
		overtime_hours TEXT NOT NULL DEFAULT '0',
		approval_status TEXT NOT NULL DEFAULT 'pending',
		manager_comments TEXT NOT NULL DEFAULT '',
		approved_at TEXT,
		approved_by TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		deleted_at TEXT
	);

	-- CRITICAL: one live entry per (user, day). Soft-deleted rows are
	-- excluded, so a deleted day can be re-logged.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_attendance_user_date
		ON attendance_logs(user_id, date)
		WHERE deleted_at IS NULL;

	-- History queries (hot path)
	CREATE INDEX IF NOT EXISTS idx_attendance_user_date_range
		ON attendance_logs(user_id, date DESC);

	-- Manager approval queue lookups
	CREATE INDEX IF NOT EXISTS idx_attendance_manager_status
		ON attendance_logs(manager_id, approval_status);

	-- Absence balances (one row per employee per year).
	-- Hour columns are INTEGER hundredths: 16000 = 160.00 hours.
	CREATE TABLE IF NOT EXISTS absence_balances (
		user_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		vacation_total INTEGER NOT NULL DEFAULT 16000,
		vacation_used INTEGER NOT NULL DEFAULT 0,
		sick_total INTEGER NOT NULL DEFAULT 8000,
		sick_used INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (user_id, year)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// RECORD STORE (tracker.RecordStore interface)
// =============================================================================

const recordColumns = `id, user_id, manager_id, date, shift_start, lunch_start, lunch_end, shift_end,
	       vacation_hours, sick_hours, total_hours, overtime_hours,
	       approval_status, manager_comments, approved_at, approved_by,
	       created_at, updated_at, deleted_at`

// FindByEmployeeAndDate returns the live record for (user, date), or
// (nil, nil) when none exists.
func (s *Store) FindByEmployeeAndDate(ctx context.Context, userID string, date time.Time) (*attendance.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT ` + recordColumns + `
		FROM attendance_logs
		WHERE user_id = ? AND date = ? AND deleted_at IS NULL
	`

	row := s.db.QueryRowContext(ctx, query, userID, formatDate(date))
	return scanRecordRow(row)
}

// FindByEmployeeAndDateRange returns live records with from <= date <= to,
// newest first. limit <= 0 means no limit.
func (s *Store) FindByEmployeeAndDateRange(ctx context.Context, userID string, from, to time.Time, limit int) ([]*attendance.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT ` + recordColumns + `
		FROM attendance_logs
		WHERE user_id = ? AND date >= ? AND date <= ? AND deleted_at IS NULL
		ORDER BY date DESC
	`
	args := []any{userID, formatDate(from), formatDate(to)}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance logs: %w", err)
	}
	defer rows.Close()

	var records []*attendance.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// FindByID returns the live record, or (nil, nil) when none exists.
func (s *Store) FindByID(ctx context.Context, id attendance.RecordID) (*attendance.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT ` + recordColumns + `
		FROM attendance_logs
		WHERE id = ? AND deleted_at IS NULL
	`

	row := s.db.QueryRowContext(ctx, query, string(id))
	return scanRecordRow(row)
}

// Create inserts a new record. The partial unique index rejects a
// second live entry for the same (user, date); that violation surfaces
// as attendance.ErrDuplicateEntry.
func (s *Store) Create(ctx context.Context, r *attendance.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO attendance_logs
		(id, user_id, manager_id, date, shift_start, lunch_start, lunch_end, shift_end,
		 vacation_hours, sick_hours, total_hours, overtime_hours,
		 approval_status, manager_comments, approved_at, approved_by,
		 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, query,
		string(r.ID),
		r.UserID,
		r.ManagerID,
		formatDate(r.Date),
		nullTime(r.ShiftStart),
		nullTime(r.LunchStart),
		nullTime(r.LunchEnd),
		nullTime(r.ShiftEnd),
		r.VacationHours.String(),
		r.SickHours.String(),
		r.TotalHours.String(),
		r.OvertimeHours.String(),
		string(r.ApprovalStatus),
		r.ManagerComments,
		nullTime(r.ApprovedAt),
		r.ApprovedBy,
		now.Format(time.RFC3339),
		now.Format(time.RFC3339),
	)

	if err != nil {
		if isUniqueConstraintError(err) {
			return attendance.ErrDuplicateEntry
		}
		return fmt.Errorf("failed to insert attendance log: %w", err)
	}

	r.CreatedAt = now
	r.UpdatedAt = now
	return nil
}

// Update applies a partial patch and returns the updated record.
func (s *Store) Update(ctx context.Context, id attendance.RecordID, patch tracker.Patch) (*attendance.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sets []string
	var args []any

	set := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if patch.ShiftStart != nil {
		set("shift_start", patch.ShiftStart.UTC().Format(time.RFC3339))
	}
	if patch.LunchStart != nil {
		set("lunch_start", patch.LunchStart.UTC().Format(time.RFC3339))
	}
	if patch.LunchEnd != nil {
		set("lunch_end", patch.LunchEnd.UTC().Format(time.RFC3339))
	}
	if patch.ShiftEnd != nil {
		set("shift_end", patch.ShiftEnd.UTC().Format(time.RFC3339))
	}
	if patch.VacationHours != nil {
		set("vacation_hours", patch.VacationHours.String())
	}
	if patch.SickHours != nil {
		set("sick_hours", patch.SickHours.String())
	}
	if patch.TotalHours != nil {
		set("total_hours", patch.TotalHours.String())
	}
	if patch.OvertimeHours != nil {
		set("overtime_hours", patch.OvertimeHours.String())
	}
	if patch.ApprovalStatus != nil {
		set("approval_status", string(*patch.ApprovalStatus))
	}
	if patch.ManagerComments != nil {
		set("manager_comments", *patch.ManagerComments)
	}
	if patch.ApprovedAt != nil {
		set("approved_at", patch.ApprovedAt.UTC().Format(time.RFC3339))
	}
	if patch.ApprovedBy != nil {
		set("approved_by", *patch.ApprovedBy)
	}

	set("updated_at", time.Now().UTC().Format(time.RFC3339))
	args = append(args, string(id))

	query := "UPDATE attendance_logs SET " + strings.Join(sets, ", ") + " WHERE id = ? AND deleted_at IS NULL"
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update attendance log: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return nil, attendance.ErrRecordNotFound
	}

	row := s.db.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM attendance_logs WHERE id = ?", string(id))
	r, err := scanRecordRow(row)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, attendance.ErrRecordNotFound
	}
	return r, nil
}

// SoftDelete marks the record removed. It is never hard-deleted.
func (s *Store) SoftDelete(ctx context.Context, id attendance.RecordID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx,
		"UPDATE attendance_logs SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL",
		at.UTC().Format(time.RFC3339), at.UTC().Format(time.RFC3339), string(id),
	)
	if err != nil {
		return fmt.Errorf("failed to soft-delete attendance log: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return attendance.ErrRecordNotFound
	}
	return nil
}

// =============================================================================
// BALANCE STORE (tracker.BalanceStore interface)
// =============================================================================

// GetOrCreateBalance returns the balance for (user, year), creating it
// with default totals on first access. INSERT OR IGNORE then SELECT
// keeps two racing first accesses down to one row.
func (s *Store) GetOrCreateBalance(ctx context.Context, userID string, year int) (*absence.Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO absence_balances (user_id, year, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		userID, year, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create absence balance: %w", err)
	}

	var vacTotal, vacUsed, sickTotal, sickUsed int64
	err = s.db.QueryRowContext(ctx,
		`SELECT vacation_total, vacation_used, sick_total, sick_used
		 FROM absence_balances WHERE user_id = ? AND year = ?`,
		userID, year,
	).Scan(&vacTotal, &vacUsed, &sickTotal, &sickUsed)
	if err != nil {
		return nil, fmt.Errorf("failed to load absence balance: %w", err)
	}

	return &absence.Balance{
		UserID:        userID,
		Year:          year,
		VacationTotal: fromHundredths(vacTotal),
		VacationUsed:  fromHundredths(vacUsed),
		SickTotal:     fromHundredths(sickTotal),
		SickUsed:      fromHundredths(sickUsed),
	}, nil
}

// ConsumeBalance atomically checks and deducts hours. The guard in the
// UPDATE makes check and increment one statement; RowsAffected = 0
// means the pool could not cover the request.
func (s *Store) ConsumeBalance(ctx context.Context, userID string, year int, kind absence.Kind, hours decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureBalanceRow(ctx, userID, year); err != nil {
		return err
	}

	totalCol, usedCol := balanceColumns(kind)
	amount := toHundredths(hours)
	now := time.Now().UTC().Format(time.RFC3339)

	query := fmt.Sprintf(
		`UPDATE absence_balances SET %s = %s + ?, updated_at = ?
		 WHERE user_id = ? AND year = ? AND %s - %s >= ?`,
		usedCol, usedCol, totalCol, usedCol,
	)
	result, err := s.db.ExecContext(ctx, query, amount, now, userID, year, amount)
	if err != nil {
		return fmt.Errorf("failed to consume absence balance: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Re-read for the error detail; the guard already decided.
		var total, used int64
		query := fmt.Sprintf(
			"SELECT %s, %s FROM absence_balances WHERE user_id = ? AND year = ?",
			totalCol, usedCol,
		)
		if err := s.db.QueryRowContext(ctx, query, userID, year).Scan(&total, &used); err != nil {
			return absence.ErrInsufficientBalance
		}
		return &absence.InsufficientBalanceError{
			Kind:      kind,
			Available: fromHundredths(total - used),
			Requested: hours,
		}
	}
	return nil
}

// RefundBalance returns hours to the pool, clamping used at zero.
func (s *Store) RefundBalance(ctx context.Context, userID string, year int, kind absence.Kind, hours decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureBalanceRow(ctx, userID, year); err != nil {
		return err
	}

	_, usedCol := balanceColumns(kind)
	now := time.Now().UTC().Format(time.RFC3339)

	query := fmt.Sprintf(
		"UPDATE absence_balances SET %s = MAX(0, %s - ?), updated_at = ? WHERE user_id = ? AND year = ?",
		usedCol, usedCol,
	)
	if _, err := s.db.ExecContext(ctx, query, toHundredths(hours), now, userID, year); err != nil {
		return fmt.Errorf("failed to refund absence balance: %w", err)
	}
	return nil
}

func (s *Store) ensureBalanceRow(ctx context.Context, userID string, year int) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO absence_balances (user_id, year, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		userID, year, now, now,
	)
	return err
}

func balanceColumns(kind absence.Kind) (total, used string) {
	if kind == absence.Sick {
		return "sick_total", "sick_used"
	}
	return "vacation_total", "vacation_used"
}

// =============================================================================
// SCANNING AND CONVERSIONS
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecordRow(row *sql.Row) (*attendance.Record, error) {
	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}

func scanRecord(row rowScanner) (*attendance.Record, error) {
	var (
		r                                attendance.Record
		id, date                         string
		shiftStart, lunchStart, lunchEnd sql.NullString
		shiftEnd, approvedAt, deletedAt  sql.NullString
		vacation, sick, total, overtime  string
		status, createdAt, updatedAt     string
	)

	err := row.Scan(
		&id, &r.UserID, &r.ManagerID, &date,
		&shiftStart, &lunchStart, &lunchEnd, &shiftEnd,
		&vacation, &sick, &total, &overtime,
		&status, &r.ManagerComments, &approvedAt, &r.ApprovedBy,
		&createdAt, &updatedAt, &deletedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan attendance log: %w", err)
	}

	r.ID = attendance.RecordID(id)
	r.Date, err = attendance.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("failed to parse attendance date: %w", err)
	}
	r.ShiftStart = parseNullTime(shiftStart)
	r.LunchStart = parseNullTime(lunchStart)
	r.LunchEnd = parseNullTime(lunchEnd)
	r.ShiftEnd = parseNullTime(shiftEnd)
	r.ApprovedAt = parseNullTime(approvedAt)
	r.DeletedAt = parseNullTime(deletedAt)
	r.ApprovalStatus = attendance.ApprovalStatus(status)

	if r.VacationHours, err = decimal.NewFromString(vacation); err != nil {
		return nil, fmt.Errorf("failed to parse vacation hours: %w", err)
	}
	if r.SickHours, err = decimal.NewFromString(sick); err != nil {
		return nil, fmt.Errorf("failed to parse sick hours: %w", err)
	}
	if r.TotalHours, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("failed to parse total hours: %w", err)
	}
	if r.OvertimeHours, err = decimal.NewFromString(overtime); err != nil {
		return nil, fmt.Errorf("failed to parse overtime hours: %w", err)
	}

	r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	r.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &r, nil
}

func formatDate(t time.Time) string {
	return attendance.DateOnly(t).Format("2006-01-02")
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil
	}
	return &t
}

// toHundredths converts hours to integer hundredths. Leave hours are
// quarter-hour multiples, so this is exact.
func toHundredths(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

func fromHundredths(n int64) decimal.Decimal {
	return decimal.New(n, -2)
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
