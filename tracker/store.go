/*
store.go - Persistence interfaces consumed by the tracker

PURPOSE:
  Defines the narrow storage contract the attendance tracker needs.
  Implementations must honor the atomicity rules below; the tracker
  deliberately does NOT re-check them in application code because a
  check-then-write in two steps leaves a race window.

ATOMICITY CONTRACT:
  Create:             must fail with attendance.ErrDuplicateEntry when a
                      live record already exists for (user, date) -
                      enforced by a unique index, not a prior SELECT.
  GetOrCreateBalance: atomic insert-if-absent; two racing first
                      accesses must yield one row.
  ConsumeBalance:     the balance check and the used-hours increment
                      must be one atomic operation (CAS or row lock);
                      returns absence.ErrInsufficientBalance otherwise.
  RefundBalance:      clamps used hours at zero, never errors for
                      over-refunds.

IMPLEMENTATIONS:
  - store/sqlite: Production SQLite
  - store/memory: In-memory for tests

SEE ALSO:
  - tracker.go: The actions driving these interfaces
*/
package tracker

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/absence"
	"github.com/warp/attendance-engine/attendance"
)

// =============================================================================
// RECORD STORE
// =============================================================================

// Patch is a partial record update. nil fields are left unchanged;
// corrections never null a field out.
type Patch struct {
	ShiftStart *time.Time
	LunchStart *time.Time
	LunchEnd   *time.Time
	ShiftEnd   *time.Time

	VacationHours *decimal.Decimal
	SickHours     *decimal.Decimal
	TotalHours    *decimal.Decimal
	OvertimeHours *decimal.Decimal

	ApprovalStatus  *attendance.ApprovalStatus
	ManagerComments *string
	ApprovedAt      *time.Time
	ApprovedBy      *string
}

// HasTimeChange reports whether any clock timestamp is being patched.
func (p Patch) HasTimeChange() bool {
	return p.ShiftStart != nil || p.LunchStart != nil || p.LunchEnd != nil || p.ShiftEnd != nil
}

// RecordStore persists attendance records. Soft-deleted records are
// invisible to every query.
type RecordStore interface {
	// FindByEmployeeAndDate returns the record for (user, calendar
	// date), or (nil, nil) when none exists.
	FindByEmployeeAndDate(ctx context.Context, userID string, date time.Time) (*attendance.Record, error)

	// FindByEmployeeAndDateRange returns records with from <= date <= to,
	// newest first. limit <= 0 means no limit.
	FindByEmployeeAndDateRange(ctx context.Context, userID string, from, to time.Time, limit int) ([]*attendance.Record, error)

	// FindByID returns the record, or (nil, nil) when none exists.
	FindByID(ctx context.Context, id attendance.RecordID) (*attendance.Record, error)

	// Create inserts a new record. Returns attendance.ErrDuplicateEntry
	// when (user, date) is already taken.
	Create(ctx context.Context, r *attendance.Record) error

	// Update applies a partial patch and returns the updated record.
	Update(ctx context.Context, id attendance.RecordID, patch Patch) (*attendance.Record, error)

	// SoftDelete marks the record removed. It is never hard-deleted.
	SoftDelete(ctx context.Context, id attendance.RecordID, at time.Time) error
}

// =============================================================================
// BALANCE STORE
// =============================================================================

// BalanceStore persists per-year absence balances.
type BalanceStore interface {
	// GetOrCreateBalance returns the balance for (user, year), creating
	// it with default totals atomically on first access.
	GetOrCreateBalance(ctx context.Context, userID string, year int) (*absence.Balance, error)

	// ConsumeBalance atomically checks and deducts hours. Returns an
	// error wrapping absence.ErrInsufficientBalance when the pool
	// cannot cover the request.
	ConsumeBalance(ctx context.Context, userID string, year int, kind absence.Kind, hours decimal.Decimal) error

	// RefundBalance returns hours to the pool, clamping used at zero.
	RefundBalance(ctx context.Context, userID string, year int, kind absence.Kind, hours decimal.Decimal) error
}
