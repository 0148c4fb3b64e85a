/*
Package attendance provides the core attendance domain model and rules.

PURPOSE:
  This package contains the types and pure logic for employee attendance
  tracking: the daily attendance record, the time-accounting calculator
  that turns raw timestamps into worked/overtime hours, and the rule
  engine that validates records before they are persisted.

KEY CONCEPTS IN THIS FILE (types.go):
  - Record: One attendance entry per (employee, calendar date)
  - ApprovalStatus: Manager approval lifecycle tag
  - Status: Derived clock state (not_started/working/on_lunch/completed)

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal for all hour quantities to avoid
     floating-point drift in payroll-adjacent arithmetic
  2. Derived state: Clock state is computed from timestamp presence,
     never stored, so it cannot drift from the timestamps
  3. Nullability: Time fields are *time.Time; nil means "not yet"

SEE ALSO:
  - accounting.go: Worked/overtime hour computation
  - validator.go: Field-level and business rule validation
  - errors.go: Error taxonomy shared with callers
*/
package attendance

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// APPROVAL STATUS - Manager approval lifecycle
// =============================================================================

type ApprovalStatus string

const (
	ApprovalPending            ApprovalStatus = "pending"
	ApprovalApproved           ApprovalStatus = "approved"
	ApprovalRejected           ApprovalStatus = "rejected"
	ApprovalRequiresCorrection ApprovalStatus = "requires_correction"
)

// =============================================================================
// CLOCK STATUS - Derived from timestamp presence
// =============================================================================

type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusWorking    Status = "working"
	StatusOnLunch    Status = "on_lunch"
	StatusCompleted  Status = "completed"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type RecordID string

// =============================================================================
// RECORD - One attendance entry per (employee, date)
// =============================================================================

// Record is a single day's attendance for one employee. At most one
// record exists per (UserID, Date); the storage layer enforces this
// with a unique index.
type Record struct {
	ID        RecordID
	UserID    string
	ManagerID string // empty = no manager assigned
	Date      time.Time

	// Clock timestamps. nil = not yet recorded.
	ShiftStart *time.Time
	LunchStart *time.Time
	LunchEnd   *time.Time
	ShiftEnd   *time.Time

	// Hour quantities, always non-negative.
	VacationHours decimal.Decimal
	SickHours     decimal.Decimal
	TotalHours    decimal.Decimal
	OvertimeHours decimal.Decimal

	ApprovalStatus  ApprovalStatus
	ManagerComments string
	ApprovedAt      *time.Time
	ApprovedBy      string

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time // soft removal; records are never hard-deleted
}

// Status derives the current clock state from timestamp presence.
func (r *Record) Status() Status {
	switch {
	case r.ShiftStart == nil:
		return StatusNotStarted
	case r.ShiftEnd != nil:
		return StatusCompleted
	case r.LunchStart != nil && r.LunchEnd == nil:
		return StatusOnLunch
	default:
		return StatusWorking
	}
}

// HasCompletedShift reports whether both shift timestamps are recorded.
func (r *Record) HasCompletedShift() bool {
	return r.ShiftStart != nil && r.ShiftEnd != nil
}

// HasLeaveHours reports whether any vacation or sick hours are logged.
func (r *Record) HasLeaveHours() bool {
	return r.VacationHours.IsPositive() || r.SickHours.IsPositive()
}

func (r *Record) IsApproved() bool { return r.ApprovalStatus == ApprovalApproved }
func (r *Record) IsPending() bool  { return r.ApprovalStatus == ApprovalPending }
func (r *Record) IsRejected() bool { return r.ApprovalStatus == ApprovalRejected }

func (r *Record) RequiresCorrection() bool {
	return r.ApprovalStatus == ApprovalRequiresCorrection
}

// CanBeEdited reports whether the record is still correctable: not yet
// approved and dated within the last 7 days (relative to today).
func (r *Record) CanBeEdited(today time.Time) bool {
	if r.IsApproved() {
		return false
	}
	cutoff := DateOnly(today).AddDate(0, 0, -editWindowDays)
	return !DateOnly(r.Date).Before(cutoff)
}

// Clone returns a shallow copy with the pointer time fields duplicated,
// so provisional mutations (e.g. real-time status) never leak into the
// original.
func (r *Record) Clone() *Record {
	c := *r
	c.ShiftStart = cloneTime(r.ShiftStart)
	c.LunchStart = cloneTime(r.LunchStart)
	c.LunchEnd = cloneTime(r.LunchEnd)
	c.ShiftEnd = cloneTime(r.ShiftEnd)
	c.ApprovedAt = cloneTime(r.ApprovedAt)
	c.DeletedAt = cloneTime(r.DeletedAt)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// DateOnly truncates a timestamp to its calendar date in UTC.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}
