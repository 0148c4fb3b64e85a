/*
Package tracker drives the attendance lifecycle.

PURPOSE:
  Orchestrates clock actions, leave logging, corrections, and the
  manager approval workflow over the storage interfaces. This is where
  the attendance state machine lives:

    not_started -> working -> on_lunch -> working -> completed

  Lunch is optional; working -> completed directly is legal. Each
  action checks the record's current state, runs the relevant
  validation rules, recomputes hour figures, and persists the update.

STATE CHECKS:
  Every transition precondition failure surfaces as a
  StateConflictError with a stable message, e.g. a second clock-in on
  the same date is rejected with "You have already clocked in for this
  date." regardless of whether the duplicate was caught by the
  existence check or by the storage unique index (the race case).

LEAVE BOOKKEEPING:
  Vacation/sick logging validates against the year's balance FIRST and
  mutates the balance through the store's atomic consume/refund before
  the record is written. Re-logging hours for a day adjusts by the
  delta, so nothing is double-counted.

CLOCK-OUT SEQUENCE:
  Clock-out persists in two steps: shift_end and overtime_hours first,
  then total_hours recomputed from the committed timestamps. Keep the
  two-step sequence; tests assert on the intermediate state.

SEE ALSO:
  - attendance: Types, calculator, validator, error taxonomy
  - absence: Balance arithmetic and request validation
  - store.go: The persistence contract
*/
package tracker

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/warp/attendance-engine/absence"
	"github.com/warp/attendance-engine/attendance"
)

// Tracker executes attendance actions. Construct with New; all actions
// take the authenticated Identity explicitly.
type Tracker struct {
	records  RecordStore
	balances BalanceStore

	validator *attendance.Validator
	calc      *attendance.Calculator
	now       func() time.Time
	log       logrus.FieldLogger
}

func New(records RecordStore, balances BalanceStore) *Tracker {
	return &Tracker{
		records:   records,
		balances:  balances,
		validator: attendance.NewValidator(),
		calc:      attendance.NewCalculator(),
		now:       time.Now,
		log:       logrus.StandardLogger(),
	}
}

// WithClock overrides the time source (tests).
func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	t.now = now
	return t
}

// WithLogger overrides the logger.
func (t *Tracker) WithLogger(log logrus.FieldLogger) *Tracker {
	t.log = log
	return t
}

// Calculator exposes the time-accounting engine for read-side callers.
func (t *Tracker) Calculator() *attendance.Calculator { return t.calc }

// Rules exposes the validation rule bounds.
func (t *Tracker) Rules() attendance.ValidationRules {
	return t.validator.GetValidationRules()
}

// =============================================================================
// CLOCK ACTIONS
// =============================================================================

// ClockIn creates the day's record with shift_start = now. A zero date
// means today.
func (t *Tracker) ClockIn(ctx context.Context, actor Identity, date time.Time) (*attendance.Record, error) {
	now := t.now()
	if date.IsZero() {
		date = now
	}
	date = attendance.DateOnly(date)

	existing, err := t.records.FindByEmployeeAndDate(ctx, actor.UserID, date)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &attendance.StateConflictError{Field: "date", Message: "You have already clocked in for this date."}
	}

	record := &attendance.Record{
		ID:             attendance.RecordID(uuid.NewString()),
		UserID:         actor.UserID,
		ManagerID:      actor.ManagerID,
		Date:           date,
		ShiftStart:     &now,
		VacationHours:  decimal.Zero,
		SickHours:      decimal.Zero,
		TotalHours:     decimal.Zero,
		OvertimeHours:  decimal.Zero,
		ApprovalStatus: attendance.ApprovalPending,
	}

	// Business rules are skipped here: a fresh clock-in is a partial
	// record by definition.
	errs := t.validator.ValidateRequiredFields(record)
	errs = append(errs, t.validator.ValidateDateRestrictions(record, now)...)
	if len(errs) > 0 {
		return nil, attendance.NewValidationError(errs...)
	}

	if err := t.records.Create(ctx, record); err != nil {
		if errors.Is(err, attendance.ErrDuplicateEntry) {
			// Lost the race to a concurrent clock-in; the unique index
			// caught what the existence check missed.
			return nil, &attendance.StateConflictError{Field: "date", Message: "You have already clocked in for this date."}
		}
		return nil, err
	}

	t.log.WithFields(logrus.Fields{"user": actor.UserID, "date": date.Format("2006-01-02")}).Info("clocked in")
	return record, nil
}

// StartLunch sets lunch_start = now on the day's record.
func (t *Tracker) StartLunch(ctx context.Context, actor Identity, date time.Time) (*attendance.Record, error) {
	now := t.now()
	record, err := t.findForDate(ctx, actor, date, now)
	if err != nil {
		return nil, err
	}

	switch {
	case record.ShiftStart == nil:
		return nil, &attendance.StateConflictError{Field: "shift", Message: "You must clock in before starting lunch."}
	case record.LunchStart != nil:
		return nil, &attendance.StateConflictError{Field: "lunch", Message: "Lunch break has already been started."}
	case record.ShiftEnd != nil:
		return nil, &attendance.StateConflictError{Field: "shift", Message: "Cannot start lunch after clocking out."}
	}

	errs := t.validator.ValidateTimeEntry(attendance.FieldLunchStart, &now, attendance.EntryContext{
		Date:       record.Date,
		ShiftStart: record.ShiftStart,
	})
	if len(errs) > 0 {
		return nil, attendance.NewValidationError(errs...)
	}

	return t.records.Update(ctx, record.ID, Patch{LunchStart: &now})
}

// EndLunch sets lunch_end = now on the day's record.
func (t *Tracker) EndLunch(ctx context.Context, actor Identity, date time.Time) (*attendance.Record, error) {
	now := t.now()
	record, err := t.findForDate(ctx, actor, date, now)
	if err != nil {
		return nil, err
	}

	switch {
	case record.LunchStart == nil:
		return nil, &attendance.StateConflictError{Field: "lunch", Message: "Lunch break has not been started."}
	case record.LunchEnd != nil:
		return nil, &attendance.StateConflictError{Field: "lunch", Message: "Lunch break has already been ended."}
	case record.ShiftEnd != nil:
		return nil, &attendance.StateConflictError{Field: "shift", Message: "Cannot end lunch after clocking out."}
	}

	errs := t.validator.ValidateTimeEntry(attendance.FieldLunchEnd, &now, attendance.EntryContext{
		LunchStart: record.LunchStart,
	})
	if len(errs) > 0 {
		return nil, attendance.NewValidationError(errs...)
	}

	return t.records.Update(ctx, record.ID, Patch{LunchEnd: &now})
}

// ClockOut sets shift_end = now and recomputes the hour figures. The
// persistence happens in two steps: shift_end + overtime_hours first,
// then total_hours from the committed timestamps.
func (t *Tracker) ClockOut(ctx context.Context, actor Identity, date time.Time) (*attendance.Record, error) {
	now := t.now()
	record, err := t.findForDate(ctx, actor, date, now)
	if err != nil {
		return nil, err
	}

	switch {
	case record.ShiftStart == nil:
		return nil, &attendance.StateConflictError{Field: "shift", Message: "You must clock in before clocking out."}
	case record.ShiftEnd != nil:
		return nil, &attendance.StateConflictError{Field: "shift", Message: "You have already clocked out."}
	case record.LunchStart != nil && record.LunchEnd == nil:
		return nil, &attendance.StateConflictError{Field: "lunch", Message: "You must end your lunch break before clocking out."}
	}

	entryCtx := attendance.EntryContext{}
	if record.LunchEnd != nil {
		entryCtx.LunchEnd = record.LunchEnd
	} else {
		entryCtx.ShiftStart = record.ShiftStart
	}
	errs := t.validator.ValidateTimeEntry(attendance.FieldShiftEnd, &now, entryCtx)
	if len(errs) > 0 {
		return nil, attendance.NewValidationError(errs...)
	}

	provisional := record.Clone()
	provisional.ShiftEnd = &now
	overtime := t.calc.DailyOvertime(provisional)

	updated, err := t.records.Update(ctx, record.ID, Patch{ShiftEnd: &now, OvertimeHours: &overtime})
	if err != nil {
		return nil, err
	}

	total := t.calc.TotalCompensatedHours(updated)
	updated, err = t.records.Update(ctx, updated.ID, Patch{TotalHours: &total})
	if err != nil {
		return nil, err
	}

	t.log.WithFields(logrus.Fields{
		"user":  actor.UserID,
		"date":  updated.Date.Format("2006-01-02"),
		"total": total.String(),
	}).Info("clocked out")
	return updated, nil
}

// =============================================================================
// STATUS
// =============================================================================

// StatusInfo is the non-mutating view of the day's attendance. For
// working/on_lunch states the Current* fields carry real-time figures
// computed with "now" as a provisional shift end; nothing is persisted.
type StatusInfo struct {
	Record *attendance.Record // nil when no entry exists
	Status attendance.Status
	Date   time.Time

	CurrentWorkedHours   *decimal.Decimal
	CurrentOvertimeHours *decimal.Decimal
}

// Status reports the current clock state for a date. Calling it
// repeatedly without mutating actions returns the same state.
func (t *Tracker) Status(ctx context.Context, actor Identity, date time.Time) (*StatusInfo, error) {
	now := t.now()
	if date.IsZero() {
		date = now
	}
	date = attendance.DateOnly(date)

	record, err := t.records.FindByEmployeeAndDate(ctx, actor.UserID, date)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return &StatusInfo{Status: attendance.StatusNotStarted, Date: date}, nil
	}

	info := &StatusInfo{Record: record, Status: record.Status(), Date: date}

	if info.Status == attendance.StatusWorking || info.Status == attendance.StatusOnLunch {
		provisional := record.Clone()
		if provisional.ShiftEnd == nil {
			provisional.ShiftEnd = &now
		}
		worked := t.calc.WorkedHours(provisional)
		overtime := t.calc.DailyOvertime(provisional)
		info.CurrentWorkedHours = &worked
		info.CurrentOvertimeHours = &overtime
	}
	return info, nil
}

// =============================================================================
// CORRECTIONS
// =============================================================================

// Correction is a partial timestamp fix submitted by the record owner.
type Correction struct {
	ShiftStart *time.Time
	LunchStart *time.Time
	LunchEnd   *time.Time
	ShiftEnd   *time.Time
}

// Update applies a correction: ownership, editability, full
// revalidation of the merged record, then recomputation of the hour
// figures when any timestamp changed.
func (t *Tracker) Update(ctx context.Context, actor Identity, id attendance.RecordID, c Correction) (*attendance.Record, error) {
	now := t.now()
	record, err := t.records.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, attendance.ErrRecordNotFound
	}
	if record.UserID != actor.UserID {
		return nil, &attendance.AuthorizationError{UserID: actor.UserID, RecordID: id}
	}

	if errs := t.validator.ValidateEditable(record, now); len(errs) > 0 {
		return nil, attendance.NewValidationError(errs...)
	}

	merged := record.Clone()
	patch := Patch{}
	if c.ShiftStart != nil {
		merged.ShiftStart, patch.ShiftStart = c.ShiftStart, c.ShiftStart
	}
	if c.LunchStart != nil {
		merged.LunchStart, patch.LunchStart = c.LunchStart, c.LunchStart
	}
	if c.LunchEnd != nil {
		merged.LunchEnd, patch.LunchEnd = c.LunchEnd, c.LunchEnd
	}
	if c.ShiftEnd != nil {
		merged.ShiftEnd, patch.ShiftEnd = c.ShiftEnd, c.ShiftEnd
	}

	if errs := t.validator.Validate(merged); len(errs) > 0 {
		return nil, attendance.NewValidationError(errs...)
	}

	if patch.HasTimeChange() {
		total := t.calc.TotalCompensatedHours(merged)
		overtime := t.calc.DailyOvertime(merged)
		patch.TotalHours = &total
		patch.OvertimeHours = &overtime
	}

	return t.records.Update(ctx, id, patch)
}

// =============================================================================
// LEAVE LOGGING
// =============================================================================

// LogVacation logs vacation hours for a date, creating the day's record
// if needed. The year's balance is validated and consumed first.
func (t *Tracker) LogVacation(ctx context.Context, actor Identity, date time.Time, hours decimal.Decimal) (*attendance.Record, bool, error) {
	return t.logLeave(ctx, actor, date, hours, absence.Vacation)
}

// LogSick logs sick hours for a date, creating the day's record if
// needed.
func (t *Tracker) LogSick(ctx context.Context, actor Identity, date time.Time, hours decimal.Decimal) (*attendance.Record, bool, error) {
	return t.logLeave(ctx, actor, date, hours, absence.Sick)
}

// logLeave returns the day's record and whether it was newly created.
func (t *Tracker) logLeave(ctx context.Context, actor Identity, date time.Time, hours decimal.Decimal, kind absence.Kind) (*attendance.Record, bool, error) {
	if date.IsZero() {
		return nil, false, attendance.NewValidationError(attendance.FieldError{Field: "date", Message: "The date field is required."})
	}
	// Logging requires at least one increment; only the correction
	// endpoints may zero hours out.
	if hours.LessThan(absence.MinimumIncrement) {
		return nil, false, leaveValidationError([]string{"Hours must be at least 0.25."})
	}
	date = attendance.DateOnly(date)

	existing, err := t.records.FindByEmployeeAndDate(ctx, actor.UserID, date)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		if !existing.CanBeEdited(t.now()) {
			return nil, false, attendance.NewValidationError(attendance.FieldError{Field: "record", Message: "This attendance entry cannot be edited"})
		}
		record, err := t.applyLeaveHours(ctx, actor, existing, hours, kind)
		return record, false, err
	}

	balance, err := t.balances.GetOrCreateBalance(ctx, actor.UserID, date.Year())
	if err != nil {
		return nil, false, err
	}
	if msgs := balance.ValidateTimeOffRequest(hours, kind); len(msgs) > 0 {
		return nil, false, leaveValidationError(msgs)
	}

	if err := t.balances.ConsumeBalance(ctx, actor.UserID, date.Year(), kind, hours); err != nil {
		return nil, false, translateBalanceErr(err)
	}

	record := &attendance.Record{
		ID:             attendance.RecordID(uuid.NewString()),
		UserID:         actor.UserID,
		ManagerID:      actor.ManagerID,
		Date:           date,
		VacationHours:  decimal.Zero,
		SickHours:      decimal.Zero,
		TotalHours:     hours,
		OvertimeHours:  decimal.Zero,
		ApprovalStatus: attendance.ApprovalPending,
	}
	if kind == absence.Sick {
		record.SickHours = hours
	} else {
		record.VacationHours = hours
	}

	if err := t.records.Create(ctx, record); err != nil {
		if errors.Is(err, attendance.ErrDuplicateEntry) {
			// Give the hours back; a concurrent write owns the date now.
			_ = t.balances.RefundBalance(ctx, actor.UserID, date.Year(), kind, hours)
			return nil, false, &attendance.StateConflictError{Field: "date", Message: "An attendance entry already exists for this date."}
		}
		return nil, false, err
	}

	t.log.WithFields(logrus.Fields{
		"user":  actor.UserID,
		"date":  date.Format("2006-01-02"),
		"kind":  string(kind),
		"hours": hours.String(),
	}).Info("leave logged")
	return record, true, nil
}

// UpdateVacation corrects the vacation hours on an existing record.
func (t *Tracker) UpdateVacation(ctx context.Context, actor Identity, id attendance.RecordID, hours decimal.Decimal) (*attendance.Record, error) {
	return t.updateLeave(ctx, actor, id, hours, absence.Vacation)
}

// UpdateSick corrects the sick hours on an existing record.
func (t *Tracker) UpdateSick(ctx context.Context, actor Identity, id attendance.RecordID, hours decimal.Decimal) (*attendance.Record, error) {
	return t.updateLeave(ctx, actor, id, hours, absence.Sick)
}

func (t *Tracker) updateLeave(ctx context.Context, actor Identity, id attendance.RecordID, hours decimal.Decimal, kind absence.Kind) (*attendance.Record, error) {
	record, err := t.records.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, attendance.ErrRecordNotFound
	}
	if record.UserID != actor.UserID {
		return nil, &attendance.AuthorizationError{UserID: actor.UserID, RecordID: id}
	}
	if !record.CanBeEdited(t.now()) {
		return nil, attendance.NewValidationError(attendance.FieldError{Field: "record", Message: "This attendance entry cannot be edited"})
	}

	return t.applyLeaveHours(ctx, actor, record, hours, kind)
}

// applyLeaveHours adjusts the record's leave hours of one kind and the
// year's balance by the delta, so re-logging never double-counts.
func (t *Tracker) applyLeaveHours(ctx context.Context, actor Identity, record *attendance.Record, hours decimal.Decimal, kind absence.Kind) (*attendance.Record, error) {
	year := record.Date.Year()

	prior := record.VacationHours
	if kind == absence.Sick {
		prior = record.SickHours
	}

	merged := record.Clone()
	if kind == absence.Sick {
		merged.SickHours = hours
	} else {
		merged.VacationHours = hours
	}
	if errs := t.validator.ValidateBusinessRules(merged); len(errs) > 0 {
		return nil, attendance.NewValidationError(errs...)
	}

	balance, err := t.balances.GetOrCreateBalance(ctx, actor.UserID, year)
	if err != nil {
		return nil, err
	}
	// Validate as if the prior hours were already returned; only the
	// delta is actually consumed.
	preview := *balance
	preview.Refund(kind, prior)
	if msgs := preview.ValidateTimeOffRequest(hours, kind); len(msgs) > 0 {
		return nil, leaveValidationError(msgs)
	}

	delta := hours.Sub(prior)
	switch {
	case delta.IsPositive():
		if err := t.balances.ConsumeBalance(ctx, actor.UserID, year, kind, delta); err != nil {
			return nil, translateBalanceErr(err)
		}
	case delta.IsNegative():
		if err := t.balances.RefundBalance(ctx, actor.UserID, year, kind, delta.Neg()); err != nil {
			return nil, err
		}
	}

	total := t.calc.TotalCompensatedHours(merged)
	patch := Patch{TotalHours: &total}
	if kind == absence.Sick {
		patch.SickHours = &hours
	} else {
		patch.VacationHours = &hours
	}
	return t.records.Update(ctx, record.ID, patch)
}

// =============================================================================
// APPROVAL WORKFLOW
// =============================================================================

// Approve finalizes a record. Only the record's manager may approve;
// once approved the record is immutable.
func (t *Tracker) Approve(ctx context.Context, actor Identity, id attendance.RecordID, comments string) (*attendance.Record, error) {
	record, err := t.findForManager(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if record.IsApproved() {
		return nil, &attendance.StateConflictError{Field: "approval_status", Message: "Attendance entry has already been approved."}
	}

	now := t.now()
	status := attendance.ApprovalApproved
	approvedBy := actor.UserID
	return t.records.Update(ctx, id, Patch{
		ApprovalStatus:  &status,
		ApprovedAt:      &now,
		ApprovedBy:      &approvedBy,
		ManagerComments: &comments,
	})
}

// Reject marks a record rejected. Rejecting a leave record refunds the
// consumed hours.
func (t *Tracker) Reject(ctx context.Context, actor Identity, id attendance.RecordID, comments string) (*attendance.Record, error) {
	record, err := t.findForManager(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if record.IsApproved() {
		return nil, &attendance.StateConflictError{Field: "approval_status", Message: "Cannot reject an approved attendance entry."}
	}

	if err := t.refundLeave(ctx, record); err != nil {
		return nil, err
	}

	status := attendance.ApprovalRejected
	return t.records.Update(ctx, id, Patch{ApprovalStatus: &status, ManagerComments: &comments})
}

// RequireCorrection sends a record back to the employee for fixes.
func (t *Tracker) RequireCorrection(ctx context.Context, actor Identity, id attendance.RecordID, comments string) (*attendance.Record, error) {
	record, err := t.findForManager(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if record.IsApproved() {
		return nil, &attendance.StateConflictError{Field: "approval_status", Message: "Cannot request corrections on an approved attendance entry."}
	}

	status := attendance.ApprovalRequiresCorrection
	return t.records.Update(ctx, id, Patch{ApprovalStatus: &status, ManagerComments: &comments})
}

func (t *Tracker) findForManager(ctx context.Context, actor Identity, id attendance.RecordID) (*attendance.Record, error) {
	record, err := t.records.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, attendance.ErrRecordNotFound
	}
	if !actor.IsManager() || record.ManagerID == "" || record.ManagerID != actor.UserID {
		return nil, &attendance.AuthorizationError{UserID: actor.UserID, RecordID: id}
	}
	return record, nil
}

// =============================================================================
// REMOVAL
// =============================================================================

// Delete soft-removes a record. Leave hours on the record are refunded
// to the year's balance.
func (t *Tracker) Delete(ctx context.Context, actor Identity, id attendance.RecordID) error {
	now := t.now()
	record, err := t.records.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if record == nil {
		return attendance.ErrRecordNotFound
	}
	if record.UserID != actor.UserID {
		return &attendance.AuthorizationError{UserID: actor.UserID, RecordID: id}
	}
	if !record.CanBeEdited(now) {
		return attendance.NewValidationError(attendance.FieldError{Field: "record", Message: "This attendance entry cannot be edited"})
	}

	if err := t.refundLeave(ctx, record); err != nil {
		return err
	}
	return t.records.SoftDelete(ctx, id, now)
}

func (t *Tracker) refundLeave(ctx context.Context, record *attendance.Record) error {
	year := record.Date.Year()
	if record.VacationHours.IsPositive() {
		if err := t.balances.RefundBalance(ctx, record.UserID, year, absence.Vacation, record.VacationHours); err != nil {
			return err
		}
	}
	if record.SickHours.IsPositive() {
		if err := t.balances.RefundBalance(ctx, record.UserID, year, absence.Sick, record.SickHours); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// READ SIDE
// =============================================================================

const (
	defaultHistoryDays  = 30
	defaultHistoryLimit = 30
	maxHistoryLimit     = 100
)

// History returns the caller's records for a date range, newest first.
// Zero bounds default to the last 30 days; limit defaults to 30 and is
// capped at 100.
func (t *Tracker) History(ctx context.Context, actor Identity, from, to time.Time, limit int) ([]*attendance.Record, error) {
	today := attendance.DateOnly(t.now())
	if to.IsZero() {
		to = today
	}
	if from.IsZero() {
		from = today.AddDate(0, 0, -defaultHistoryDays)
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return t.records.FindByEmployeeAndDateRange(ctx, actor.UserID, attendance.DateOnly(from), attendance.DateOnly(to), limit)
}

// OvertimeSummary aggregates a date range two ways: the classified
// breakdown (no double counting) and the simple sum-minus-40 weekly
// figure. Both are kept because callers rely on each.
type OvertimeSummary struct {
	From time.Time
	To   time.Time

	Breakdown           attendance.OvertimeBreakdown
	WeeklyOvertimeHours decimal.Decimal
	RecordCount         int
}

// Overtime computes the overtime summary for a date range.
func (t *Tracker) Overtime(ctx context.Context, actor Identity, from, to time.Time) (*OvertimeSummary, error) {
	today := attendance.DateOnly(t.now())
	if to.IsZero() {
		to = today
	}
	if from.IsZero() {
		from = attendance.DateOnly(to).AddDate(0, 0, -6)
	}
	from, to = attendance.DateOnly(from), attendance.DateOnly(to)

	records, err := t.records.FindByEmployeeAndDateRange(ctx, actor.UserID, from, to, 0)
	if err != nil {
		return nil, err
	}

	return &OvertimeSummary{
		From:                from,
		To:                  to,
		Breakdown:           t.calc.CalculateOvertimeBreakdown(records),
		WeeklyOvertimeHours: t.calc.WeeklyOvertime(records),
		RecordCount:         len(records),
	}, nil
}

// PayRates computes the pay-band breakdown for one day at an hourly
// rate.
func (t *Tracker) PayRates(ctx context.Context, actor Identity, date time.Time, hourlyRate decimal.Decimal) (*attendance.PayBreakdown, error) {
	record, err := t.records.FindByEmployeeAndDate(ctx, actor.UserID, attendance.DateOnly(date))
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, attendance.ErrRecordNotFound
	}
	breakdown := t.calc.CalculatePayRates(record, hourlyRate)
	return &breakdown, nil
}

// Balance returns the caller's absence balance for a year (0 = current
// year), creating it with defaults on first access.
func (t *Tracker) Balance(ctx context.Context, actor Identity, year int) (*absence.Balance, error) {
	if year == 0 {
		year = t.now().Year()
	}
	return t.balances.GetOrCreateBalance(ctx, actor.UserID, year)
}

// =============================================================================
// HELPERS
// =============================================================================

func (t *Tracker) findForDate(ctx context.Context, actor Identity, date time.Time, now time.Time) (*attendance.Record, error) {
	if date.IsZero() {
		date = now
	}
	record, err := t.records.FindByEmployeeAndDate(ctx, actor.UserID, attendance.DateOnly(date))
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, &attendance.StateConflictError{Field: "attendance", Message: "No attendance entry found for this date. Please clock in first."}
	}
	return record, nil
}

func leaveValidationError(msgs []string) *attendance.ValidationError {
	errs := make([]attendance.FieldError, len(msgs))
	for i, m := range msgs {
		errs[i] = attendance.FieldError{Field: "hours", Message: m}
	}
	return attendance.NewValidationError(errs...)
}

// translateBalanceErr converts a storage-level insufficient-balance
// result (the race case that slipped past validation) into the same
// validation failure shape the pre-check produces.
func translateBalanceErr(err error) error {
	var ib *absence.InsufficientBalanceError
	if errors.As(err, &ib) {
		return leaveValidationError([]string{ib.Error()})
	}
	if errors.Is(err, absence.ErrInsufficientBalance) {
		return leaveValidationError([]string{err.Error()})
	}
	return err
}
