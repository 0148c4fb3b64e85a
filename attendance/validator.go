/*
validator.go - Stateless attendance rule engine

PURPOSE:
  Validates proposed attendance records before they are persisted.
  Every method returns an ordered list of FieldError; an empty list
  means valid. Nothing here reads storage or the clock - callers pass
  "today" explicitly so the rules stay pure and testable.

COMPOSITION ORDER:
  Validate() runs the required-field checks first and short-circuits:
  if any required field is missing, the time and business rule checks
  are skipped entirely. This is an explicit early return, not an
  accident of accumulation.

RULE GROUPS:
  ValidateRequiredFields   employee id + date present
  ValidateTimeSequence     shift_start < lunch_start < lunch_end < shift_end,
                           checked pairwise for every pair with both
                           endpoints present; lunch both-or-neither
  ValidateLunchDuration    30..120 minutes inclusive
  ValidateShiftDuration    15 minutes .. 16 hours
  ValidateBusinessRules    vacation/sick in [0,24]; completed shift and
                           leave hours are mutually exclusive; a fully
                           formed record needs one of them
  ValidateNoOverlap        one record per (employee, date)
  ValidateEditable         not approved, dated within 7 days
  ValidateDateRestrictions no future dates, nothing older than 30 days
  ValidateTimeEntry        single-field ordering check for in-progress
                           clock actions

SEE ALSO:
  - errors.go: FieldError and ValidationError
  - tracker package: Drives these rules from clock actions
*/
package attendance

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var decMaxDailyLeave = decimal.NewFromInt(maxDailyLeaveHours)

// TimeField names a clock timestamp for single-entry validation.
type TimeField string

const (
	FieldShiftStart TimeField = "shift_start"
	FieldLunchStart TimeField = "lunch_start"
	FieldLunchEnd   TimeField = "lunch_end"
	FieldShiftEnd   TimeField = "shift_end"
)

// EntryContext carries the already-recorded timestamps a candidate
// entry is validated against during in-progress clock actions.
type EntryContext struct {
	Date       time.Time
	ShiftStart *time.Time
	LunchStart *time.Time
	LunchEnd   *time.Time
}

// Validator is the stateless attendance rule engine. The zero value is
// ready to use.
type Validator struct{}

func NewValidator() *Validator { return &Validator{} }

// Validate runs the full rule set against a fully formed record.
// Required-field errors short-circuit the remaining groups.
func (v *Validator) Validate(r *Record) []FieldError {
	errs := v.ValidateRequiredFields(r)
	if len(errs) > 0 {
		return errs
	}

	errs = append(errs, v.ValidateTimeSequence(r)...)
	errs = append(errs, v.ValidateLunchDuration(r)...)
	errs = append(errs, v.ValidateShiftDuration(r)...)
	errs = append(errs, v.ValidateBusinessRules(r)...)
	return errs
}

// ValidateRequiredFields checks employee id and date presence.
func (v *Validator) ValidateRequiredFields(r *Record) []FieldError {
	var errs []FieldError

	if r.UserID == "" {
		errs = append(errs, FieldError{Field: "employee_id", Message: "The employee_id field is required."})
	}
	if r.Date.IsZero() {
		errs = append(errs, FieldError{Field: "date", Message: "The date field is required."})
	}
	return errs
}

// ValidateTimeSequence checks strict ordering across every pair of
// present timestamps in canonical order, plus the lunch
// both-or-neither rule. All four ordered pairs are checked
// independently, not just adjacent ones.
func (v *Validator) ValidateTimeSequence(r *Record) []FieldError {
	var errs []FieldError

	if r.ShiftStart != nil && r.LunchStart != nil && !r.ShiftStart.Before(*r.LunchStart) {
		errs = append(errs, FieldError{Field: "lunch_start", Message: "Lunch start time must be after shift start time."})
	}
	if r.LunchStart != nil && r.LunchEnd != nil && !r.LunchStart.Before(*r.LunchEnd) {
		errs = append(errs, FieldError{Field: "lunch_end", Message: "Lunch end time must be after lunch start time."})
	}
	if r.LunchEnd != nil && r.ShiftEnd != nil && !r.LunchEnd.Before(*r.ShiftEnd) {
		errs = append(errs, FieldError{Field: "shift_end", Message: "Shift end time must be after lunch end time."})
	}
	if r.ShiftStart != nil && r.ShiftEnd != nil && !r.ShiftStart.Before(*r.ShiftEnd) {
		errs = append(errs, FieldError{Field: "shift_end", Message: "Shift end time must be after shift start time."})
	}

	if (r.LunchStart != nil) != (r.LunchEnd != nil) {
		errs = append(errs, FieldError{Field: "lunch", Message: "Both lunch start and lunch end times must be provided together."})
	}
	return errs
}

// ValidateLunchDuration bounds the lunch break to 30..120 minutes when
// both lunch timestamps are present.
func (v *Validator) ValidateLunchDuration(r *Record) []FieldError {
	if r.LunchStart == nil || r.LunchEnd == nil {
		return nil
	}

	var errs []FieldError
	minutes := int64(r.LunchEnd.Sub(*r.LunchStart).Minutes())

	if minutes < minLunchMinutes {
		errs = append(errs, FieldError{Field: "lunch", Message: fmt.Sprintf("Lunch break must be at least %d minutes.", minLunchMinutes)})
	}
	if minutes > maxLunchMinutes {
		errs = append(errs, FieldError{Field: "lunch", Message: fmt.Sprintf("Lunch break cannot exceed %d minutes.", maxLunchMinutes)})
	}
	return errs
}

// ValidateShiftDuration bounds the shift to 15 minutes .. 16 hours
// when both shift timestamps are present.
func (v *Validator) ValidateShiftDuration(r *Record) []FieldError {
	if r.ShiftStart == nil || r.ShiftEnd == nil {
		return nil
	}

	var errs []FieldError
	minutes := int64(r.ShiftEnd.Sub(*r.ShiftStart).Minutes())

	if minutes < minShiftMinutes {
		errs = append(errs, FieldError{Field: "shift", Message: fmt.Sprintf("Shift must be at least %d minutes.", minShiftMinutes)})
	}
	if minutes > maxShiftHours*60 {
		errs = append(errs, FieldError{Field: "shift", Message: fmt.Sprintf("Shift cannot exceed %d hours.", maxShiftHours)})
	}
	return errs
}

// ValidateBusinessRules checks leave-hour bounds and the worked-time /
// leave-hours exclusivity rules. The "must have one of them" rule only
// applies to fully formed records; partial clock-in states are
// validated through ValidateTimeEntry instead.
func (v *Validator) ValidateBusinessRules(r *Record) []FieldError {
	var errs []FieldError

	if r.VacationHours.IsNegative() {
		errs = append(errs, FieldError{Field: "vacation_hours", Message: "Vacation hours cannot be negative."})
	}
	if r.SickHours.IsNegative() {
		errs = append(errs, FieldError{Field: "sick_hours", Message: "Sick hours cannot be negative."})
	}
	if r.VacationHours.GreaterThan(decMaxDailyLeave) {
		errs = append(errs, FieldError{Field: "vacation_hours", Message: fmt.Sprintf("Vacation hours cannot exceed %d hours per day.", maxDailyLeaveHours)})
	}
	if r.SickHours.GreaterThan(decMaxDailyLeave) {
		errs = append(errs, FieldError{Field: "sick_hours", Message: fmt.Sprintf("Sick hours cannot exceed %d hours per day.", maxDailyLeaveHours)})
	}

	hasWorkedTime := r.HasCompletedShift()
	hasLeave := r.HasLeaveHours()

	if hasWorkedTime && hasLeave {
		errs = append(errs, FieldError{Field: "hours", Message: "Cannot log both worked time and vacation/sick hours on the same day."})
	}
	if !hasWorkedTime && !hasLeave {
		errs = append(errs, FieldError{Field: "hours", Message: "Must log either worked time or vacation/sick hours."})
	}
	return errs
}

// ValidateNoOverlap rejects a candidate when another record (different
// id) already exists for the same employee and calendar date.
func (v *Validator) ValidateNoOverlap(r *Record, existing []*Record) []FieldError {
	if r.UserID == "" || r.Date.IsZero() {
		return nil
	}

	date := DateOnly(r.Date)
	for _, other := range existing {
		if other.UserID == r.UserID && DateOnly(other.Date).Equal(date) && other.ID != r.ID {
			return []FieldError{{Field: "date", Message: "An attendance entry already exists for this date."}}
		}
	}
	return nil
}

// ValidateEditable rejects corrections to approved records and records
// dated more than 7 days before today.
func (v *Validator) ValidateEditable(r *Record, today time.Time) []FieldError {
	var errs []FieldError

	if r.IsApproved() {
		errs = append(errs, FieldError{Field: "approval_status", Message: "Cannot edit approved attendance entries."})
	}
	if !r.Date.IsZero() {
		cutoff := DateOnly(today).AddDate(0, 0, -editWindowDays)
		if DateOnly(r.Date).Before(cutoff) {
			errs = append(errs, FieldError{Field: "date", Message: fmt.Sprintf("Cannot edit attendance entries older than %d days.", editWindowDays)})
		}
	}
	return errs
}

// ValidateDateRestrictions applies the creation window: no future
// dates, nothing older than 30 days.
func (v *Validator) ValidateDateRestrictions(r *Record, today time.Time) []FieldError {
	if r.Date.IsZero() {
		return nil
	}

	var errs []FieldError
	date := DateOnly(r.Date)
	day := DateOnly(today)

	if date.After(day) {
		errs = append(errs, FieldError{Field: "date", Message: "Cannot log attendance for future dates."})
	}
	if date.Before(day.AddDate(0, 0, -creationWindowDays)) {
		errs = append(errs, FieldError{Field: "date", Message: fmt.Sprintf("Cannot log attendance for dates older than %d days.", creationWindowDays)})
	}
	return errs
}

// ValidateTimeEntry checks a single candidate timestamp against the
// already-recorded context during an in-progress clock action. A nil
// candidate produces no error.
func (v *Validator) ValidateTimeEntry(field TimeField, candidate *time.Time, ctx EntryContext) []FieldError {
	if candidate == nil {
		return nil
	}

	switch field {
	case FieldShiftStart:
		if !ctx.Date.IsZero() {
			dayStart := DateOnly(ctx.Date)
			dayEnd := dayStart.AddDate(0, 0, 1)
			if candidate.Before(dayStart) || !candidate.Before(dayEnd) {
				return []FieldError{{Field: string(field), Message: "Shift start time must be within the same day."}}
			}
		}

	case FieldLunchStart:
		if ctx.ShiftStart != nil && !candidate.After(*ctx.ShiftStart) {
			return []FieldError{{Field: string(field), Message: "Lunch start must be after shift start."}}
		}

	case FieldLunchEnd:
		if ctx.LunchStart != nil && !candidate.After(*ctx.LunchStart) {
			return []FieldError{{Field: string(field), Message: "Lunch end must be after lunch start."}}
		}

	case FieldShiftEnd:
		if ctx.LunchEnd != nil {
			if !candidate.After(*ctx.LunchEnd) {
				return []FieldError{{Field: string(field), Message: "Shift end must be after lunch end."}}
			}
		} else if ctx.ShiftStart != nil && !candidate.After(*ctx.ShiftStart) {
			return []FieldError{{Field: string(field), Message: "Shift end must be after shift start."}}
		}
	}
	return nil
}

// ValidationRules exposes the rule bounds for client configuration.
type ValidationRules struct {
	MinLunchDurationMinutes int `json:"min_lunch_duration_minutes"`
	MaxLunchDurationMinutes int `json:"max_lunch_duration_minutes"`
	MaxShiftDurationHours   int `json:"max_shift_duration_hours"`
	MinShiftDurationMinutes int `json:"min_shift_duration_minutes"`
	MaxDailyHours           int `json:"max_daily_hours"`
}

// GetValidationRules returns the rule bounds.
func (v *Validator) GetValidationRules() ValidationRules {
	return ValidationRules{
		MinLunchDurationMinutes: minLunchMinutes,
		MaxLunchDurationMinutes: maxLunchMinutes,
		MaxShiftDurationHours:   maxShiftHours,
		MinShiftDurationMinutes: minShiftMinutes,
		MaxDailyHours:           maxDailyLeaveHours,
	}
}
