/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

NUMERIC FIELDS:
  Hour and pay figures are serialized as decimal strings ("8.25"), not
  JSON numbers. Clients doing arithmetic on payroll figures should not
  be handed floats.

VALIDATION:
  Validation is done in domain logic, not in DTOs. DTOs are pure data
  carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - tracker package: Domain types these map from
*/
package api

import (
	"time"

	"github.com/warp/attendance-engine/absence"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/tracker"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// ClockRequest is the body for clock-in/lunch/clock-out actions. An
// empty date means today.
type ClockRequest struct {
	Date string `json:"date,omitempty"` // YYYY-MM-DD
}

// LogLeaveRequest is the body for logging vacation or sick hours.
type LogLeaveRequest struct {
	Date  string `json:"date"`  // YYYY-MM-DD
	Hours string `json:"hours"` // decimal string, e.g. "8" or "4.25"
}

// UpdateLeaveRequest is the body for correcting leave hours on a record.
type UpdateLeaveRequest struct {
	Hours string `json:"hours"`
}

// UpdateRecordRequest is a partial timestamp correction. Omitted fields
// are left unchanged.
type UpdateRecordRequest struct {
	ShiftStart *string `json:"shift_start,omitempty"` // RFC 3339
	LunchStart *string `json:"lunch_start,omitempty"`
	LunchEnd   *string `json:"lunch_end,omitempty"`
	ShiftEnd   *string `json:"shift_end,omitempty"`
}

// ReviewRequest is the body for approve/reject/request-correction.
type ReviewRequest struct {
	Comments string `json:"comments,omitempty"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// RecordDTO represents an attendance record in API responses.
type RecordDTO struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	ManagerID string `json:"manager_id,omitempty"`
	Date      string `json:"date"`

	ShiftStart *string `json:"shift_start,omitempty"`
	LunchStart *string `json:"lunch_start,omitempty"`
	LunchEnd   *string `json:"lunch_end,omitempty"`
	ShiftEnd   *string `json:"shift_end,omitempty"`

	VacationHours string `json:"vacation_hours"`
	SickHours     string `json:"sick_hours"`
	TotalHours    string `json:"total_hours"`
	OvertimeHours string `json:"overtime_hours"`

	ApprovalStatus  string  `json:"approval_status"`
	ManagerComments string  `json:"manager_comments,omitempty"`
	ApprovedAt      *string `json:"approved_at,omitempty"`
	ApprovedBy      string  `json:"approved_by,omitempty"`

	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// StatusDTO is the current clock state for a day.
type StatusDTO struct {
	Status string     `json:"status"` // not_started, working, on_lunch, completed
	Date   string     `json:"date"`
	Record *RecordDTO `json:"record,omitempty"`

	// Real-time figures, present while working or on lunch.
	CurrentWorkedHours   *string `json:"current_worked_hours,omitempty"`
	CurrentOvertimeHours *string `json:"current_overtime_hours,omitempty"`

	// Human-readable overtime, e.g. "2h 59m".
	CurrentOvertimeDisplay *string `json:"current_overtime_display,omitempty"`
}

// OvertimeSummaryDTO is the aggregated overtime view for a date range.
type OvertimeSummaryDTO struct {
	From        string `json:"from"`
	To          string `json:"to"`
	RecordCount int    `json:"record_count"`

	TotalWorkedHours    string `json:"total_worked_hours"`
	RegularHours        string `json:"regular_hours"`
	DailyOvertimeHours  string `json:"daily_overtime_hours"`
	DoubleTimeHours     string `json:"double_time_hours"`
	WeeklyOvertimeHours string `json:"weekly_overtime_hours"`
	TotalOvertimeHours  string `json:"total_overtime_hours"`
	OvertimePremium     string `json:"overtime_premium_hours"`

	// Simple sum-minus-40 figure, reported alongside the classified
	// breakdown.
	SimpleWeeklyOvertimeHours string `json:"simple_weekly_overtime_hours"`
}

// PayRatesDTO is the pay-band breakdown for one day.
type PayRatesDTO struct {
	Date       string `json:"date"`
	HourlyRate string `json:"hourly_rate"`

	RegularHours  string `json:"regular_hours"`
	OvertimeHours string `json:"overtime_hours"`
	DoubleHours   string `json:"double_time_hours"`

	RegularPay  string `json:"regular_pay"`
	OvertimePay string `json:"overtime_pay"`
	DoublePay   string `json:"double_time_pay"`
	TotalPay    string `json:"total_pay"`
}

// BalanceDTO is the yearly absence balance view.
type BalanceDTO struct {
	UserID string `json:"user_id"`
	Year   int    `json:"year"`

	VacationTotal     string `json:"vacation_total_hours"`
	VacationUsed      string `json:"vacation_used_hours"`
	VacationRemaining string `json:"vacation_remaining_hours"`
	SickTotal         string `json:"sick_total_hours"`
	SickUsed          string `json:"sick_used_hours"`
	SickRemaining     string `json:"sick_remaining_hours"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toRecordDTO(r *attendance.Record) *RecordDTO {
	if r == nil {
		return nil
	}
	dto := &RecordDTO{
		ID:              string(r.ID),
		UserID:          r.UserID,
		ManagerID:       r.ManagerID,
		Date:            r.Date.Format("2006-01-02"),
		ShiftStart:      formatTimePtr(r.ShiftStart),
		LunchStart:      formatTimePtr(r.LunchStart),
		LunchEnd:        formatTimePtr(r.LunchEnd),
		ShiftEnd:        formatTimePtr(r.ShiftEnd),
		VacationHours:   r.VacationHours.String(),
		SickHours:       r.SickHours.String(),
		TotalHours:      r.TotalHours.String(),
		OvertimeHours:   r.OvertimeHours.String(),
		ApprovalStatus:  string(r.ApprovalStatus),
		ManagerComments: r.ManagerComments,
		ApprovedAt:      formatTimePtr(r.ApprovedAt),
		ApprovedBy:      r.ApprovedBy,
	}
	if !r.CreatedAt.IsZero() {
		dto.CreatedAt = r.CreatedAt.Format(time.RFC3339)
	}
	if !r.UpdatedAt.IsZero() {
		dto.UpdatedAt = r.UpdatedAt.Format(time.RFC3339)
	}
	return dto
}

func toRecordDTOs(records []*attendance.Record) []*RecordDTO {
	dtos := make([]*RecordDTO, len(records))
	for i, r := range records {
		dtos[i] = toRecordDTO(r)
	}
	return dtos
}

func toStatusDTO(info *tracker.StatusInfo) StatusDTO {
	dto := StatusDTO{
		Status: string(info.Status),
		Date:   info.Date.Format("2006-01-02"),
		Record: toRecordDTO(info.Record),
	}
	if info.CurrentWorkedHours != nil {
		worked := info.CurrentWorkedHours.String()
		dto.CurrentWorkedHours = &worked
	}
	if info.CurrentOvertimeHours != nil {
		overtime := info.CurrentOvertimeHours.String()
		dto.CurrentOvertimeHours = &overtime
		display := attendance.FormatOvertime(*info.CurrentOvertimeHours)
		dto.CurrentOvertimeDisplay = &display
	}
	return dto
}

func toOvertimeSummaryDTO(s *tracker.OvertimeSummary) OvertimeSummaryDTO {
	return OvertimeSummaryDTO{
		From:                      s.From.Format("2006-01-02"),
		To:                        s.To.Format("2006-01-02"),
		RecordCount:               s.RecordCount,
		TotalWorkedHours:          s.Breakdown.TotalWorkedHours.String(),
		RegularHours:              s.Breakdown.RegularHours.String(),
		DailyOvertimeHours:        s.Breakdown.DailyOvertimeHours.String(),
		DoubleTimeHours:           s.Breakdown.DoubleTimeHours.String(),
		WeeklyOvertimeHours:       s.Breakdown.WeeklyOvertimeHours.String(),
		TotalOvertimeHours:        s.Breakdown.TotalOvertimeHours.String(),
		OvertimePremium:           s.Breakdown.TotalPremiumHours.String(),
		SimpleWeeklyOvertimeHours: s.WeeklyOvertimeHours.String(),
	}
}

func toBalanceDTO(b *absence.Balance) BalanceDTO {
	return BalanceDTO{
		UserID:            b.UserID,
		Year:              b.Year,
		VacationTotal:     b.VacationTotal.String(),
		VacationUsed:      b.VacationUsed.String(),
		VacationRemaining: b.Remaining(absence.Vacation).String(),
		SickTotal:         b.SickTotal.String(),
		SickUsed:          b.SickUsed.String(),
		SickRemaining:     b.Remaining(absence.Sick).String(),
	}
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
