/*
accounting.go - Time accounting: worked hours, overtime, pay rates

PURPOSE:
  Pure, side-effect-free computation over a record's timestamps. This
  answers "how many hours did this shift produce, and in which pay
  band?" Nothing here touches storage or mutates a record.

ACCOUNTING RULES:
  Worked hours:   shift duration minus lunch duration, in decimal hours,
                  rounded to 2 places (half-up)
  Daily overtime: worked hours beyond 8 in one day
  Double time:    worked hours beyond 12 in one day
  Weekly overtime:
    - WeeklyOvertime() is the simple aggregate: sum of worked hours
      minus 40, floored at 0. It deliberately does NOT account for
      hours already classified as daily overtime.
    - CalculateOvertimeBreakdown() is the richer model: daily overtime
      and double time are classified first, and weekly overtime is
      computed only on the remaining regular pool above 40 so no hour
      is counted twice.
  Both are kept as distinct operations; callers rely on each.

ROUNDING:
  Every published figure is rounded to 2 decimals independently at the
  end. Intermediate accumulation keeps full precision.

SEE ALSO:
  - types.go: Record definition
  - validator.go: Guarantees start < end before these run
*/
package attendance

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// =============================================================================
// THRESHOLDS
// =============================================================================

const (
	standardDailyHours   = 8.0
	standardWeeklyHours  = 40.0
	doubleTimeThreshold  = 12.0
	editWindowDays       = 7
	creationWindowDays   = 30
	minLunchMinutes      = 30
	maxLunchMinutes      = 120
	minShiftMinutes      = 15
	maxShiftHours        = 16
	maxDailyLeaveHours   = 24
)

var (
	decDailyThreshold  = decimal.NewFromInt(8)
	decWeeklyThreshold = decimal.NewFromInt(40)
	decDoubleThreshold = decimal.NewFromInt(12)
	decMinutesPerHour  = decimal.NewFromInt(60)
	decOvertimeRate    = decimal.NewFromFloat(1.5)
	decDoubleTimeRate  = decimal.NewFromInt(2)
)

// Thresholds exposes the accounting constants for display and client
// configuration endpoints.
type Thresholds struct {
	DailyStandardHours      float64 `json:"daily_standard_hours"`
	WeeklyStandardHours     float64 `json:"weekly_standard_hours"`
	DailyOvertimeThreshold  float64 `json:"daily_overtime_threshold"`
	WeeklyOvertimeThreshold float64 `json:"weekly_overtime_threshold"`
	DoubleTimeThreshold     float64 `json:"double_time_threshold"`
}

// =============================================================================
// CALCULATOR
// =============================================================================

// Calculator computes hour figures from attendance records. It is
// stateless; the zero value is ready to use.
type Calculator struct{}

func NewCalculator() *Calculator { return &Calculator{} }

// WorkedHours returns the shift duration minus the lunch break, in
// decimal hours rounded to 2 places. Returns zero when either shift
// timestamp is missing.
func (c *Calculator) WorkedHours(r *Record) decimal.Decimal {
	if r.ShiftStart == nil || r.ShiftEnd == nil {
		return decimal.Zero
	}

	totalMinutes := int64(r.ShiftEnd.Sub(*r.ShiftStart).Minutes())

	// Subtract lunch break if both times are set
	if r.LunchStart != nil && r.LunchEnd != nil {
		totalMinutes -= int64(r.LunchEnd.Sub(*r.LunchStart).Minutes())
	}

	return decimal.NewFromInt(totalMinutes).Div(decMinutesPerHour).Round(2)
}

// LunchDurationMinutes returns the lunch break length in whole minutes,
// or nil when either lunch timestamp is missing.
func (c *Calculator) LunchDurationMinutes(r *Record) *int64 {
	if r.LunchStart == nil || r.LunchEnd == nil {
		return nil
	}
	minutes := int64(r.LunchEnd.Sub(*r.LunchStart).Minutes())
	return &minutes
}

// DailyOvertime returns worked hours beyond the 8-hour daily standard.
func (c *Calculator) DailyOvertime(r *Record) decimal.Decimal {
	overtime := c.WorkedHours(r).Sub(decDailyThreshold)
	if overtime.IsNegative() {
		return decimal.Zero
	}
	return overtime
}

// WeeklyOvertime is the simple weekly aggregate: total worked hours
// across the records minus 40, floored at 0. Hours already counted as
// daily overtime are NOT subtracted; use CalculateOvertimeBreakdown
// for the non-double-counting classification.
func (c *Calculator) WeeklyOvertime(records []*Record) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(c.WorkedHours(r))
	}
	overtime := total.Sub(decWeeklyThreshold)
	if overtime.IsNegative() {
		return decimal.Zero
	}
	return overtime
}

// TotalCompensatedHours returns worked + vacation + sick hours.
func (c *Calculator) TotalCompensatedHours(r *Record) decimal.Decimal {
	return c.WorkedHours(r).Add(r.VacationHours).Add(r.SickHours).Round(2)
}

// QualifiesForOvertime reports whether the day's worked hours exceed
// the daily overtime threshold.
func (c *Calculator) QualifiesForOvertime(r *Record) bool {
	return c.WorkedHours(r).GreaterThan(decDailyThreshold)
}

// QualifiesForDoubleTime reports whether the day's worked hours exceed
// the double-time threshold.
func (c *Calculator) QualifiesForDoubleTime(r *Record) bool {
	return c.WorkedHours(r).GreaterThan(decDoubleThreshold)
}

// GetThresholds returns the accounting constants.
func (c *Calculator) GetThresholds() Thresholds {
	return Thresholds{
		DailyStandardHours:      standardDailyHours,
		WeeklyStandardHours:     standardWeeklyHours,
		DailyOvertimeThreshold:  standardDailyHours,
		WeeklyOvertimeThreshold: standardWeeklyHours,
		DoubleTimeThreshold:     doubleTimeThreshold,
	}
}

// =============================================================================
// OVERTIME BREAKDOWN - Daily/weekly/double-time without double counting
// =============================================================================

// OvertimeBreakdown classifies a week's worked hours into pay bands.
type OvertimeBreakdown struct {
	TotalWorkedHours    decimal.Decimal
	RegularHours        decimal.Decimal
	DailyOvertimeHours  decimal.Decimal
	WeeklyOvertimeHours decimal.Decimal
	DoubleTimeHours     decimal.Decimal
	TotalOvertimeHours  decimal.Decimal
	TotalPremiumHours   decimal.Decimal
}

// CalculateOvertimeBreakdown classifies a week's records:
//   - hours beyond 12 in a day are double time
//   - the 8..12 band is daily overtime (at most 4 per day)
//   - weekly overtime applies only to the remaining regular pool above
//     40, so hours already classified as daily overtime or double time
//     are never counted again
//
// All output figures are rounded to 2 decimals independently at the
// end; accumulation keeps full precision.
func (c *Calculator) CalculateOvertimeBreakdown(records []*Record) OvertimeBreakdown {
	var (
		totalWorked   = decimal.Zero
		dailyOvertime = decimal.Zero
		doubleTime    = decimal.Zero
	)

	for _, r := range records {
		worked := c.WorkedHours(r)
		totalWorked = totalWorked.Add(worked)

		if worked.GreaterThan(decDailyThreshold) {
			if worked.GreaterThan(decDoubleThreshold) {
				doubleTime = doubleTime.Add(worked.Sub(decDoubleThreshold))
				// The 8..12 band caps daily overtime at 4 hours
				dailyOvertime = dailyOvertime.Add(decDoubleThreshold.Sub(decDailyThreshold))
			} else {
				dailyOvertime = dailyOvertime.Add(worked.Sub(decDailyThreshold))
			}
		}
	}

	// Weekly overtime only on the pool not already classified above
	weeklyOvertime := decimal.Zero
	regularPool := totalWorked.Sub(dailyOvertime).Sub(doubleTime)
	if regularPool.GreaterThan(decWeeklyThreshold) {
		weeklyOvertime = regularPool.Sub(decWeeklyThreshold)
	}

	return OvertimeBreakdown{
		TotalWorkedHours:    totalWorked.Round(2),
		RegularHours:        totalWorked.Sub(dailyOvertime).Sub(weeklyOvertime).Sub(doubleTime).Round(2),
		DailyOvertimeHours:  dailyOvertime.Round(2),
		WeeklyOvertimeHours: weeklyOvertime.Round(2),
		DoubleTimeHours:     doubleTime.Round(2),
		TotalOvertimeHours:  dailyOvertime.Add(weeklyOvertime).Round(2),
		TotalPremiumHours:   dailyOvertime.Add(weeklyOvertime).Add(doubleTime).Round(2),
	}
}

// =============================================================================
// PAY RATES
// =============================================================================

// PayBreakdown splits a day's worked hours into pay bands at an hourly
// rate: regular 1.0x, overtime 1.5x (hours 8..12), double time 2.0x
// (hours beyond 12).
type PayBreakdown struct {
	RegularHours    decimal.Decimal
	RegularPay      decimal.Decimal
	OvertimeHours   decimal.Decimal
	OvertimePay     decimal.Decimal
	DoubleTimeHours decimal.Decimal
	DoubleTimePay   decimal.Decimal
	TotalPay        decimal.Decimal
}

// CalculatePayRates computes the pay-band breakdown for a single day.
// Each figure is rounded to 2 decimals independently; the total is the
// sum of the rounded parts.
func (c *Calculator) CalculatePayRates(r *Record, hourlyRate decimal.Decimal) PayBreakdown {
	worked := c.WorkedHours(r)

	regular := decimal.Min(worked, decDailyThreshold)
	overtime := worked.Sub(decDailyThreshold)
	if overtime.IsNegative() {
		overtime = decimal.Zero
	}
	overtime = decimal.Min(overtime, decDoubleThreshold.Sub(decDailyThreshold))
	doubleTime := worked.Sub(decDoubleThreshold)
	if doubleTime.IsNegative() {
		doubleTime = decimal.Zero
	}

	regularPay := regular.Mul(hourlyRate).Round(2)
	overtimePay := overtime.Mul(hourlyRate).Mul(decOvertimeRate).Round(2)
	doubleTimePay := doubleTime.Mul(hourlyRate).Mul(decDoubleTimeRate).Round(2)

	return PayBreakdown{
		RegularHours:    regular.Round(2),
		RegularPay:      regularPay,
		OvertimeHours:   overtime.Round(2),
		OvertimePay:     overtimePay,
		DoubleTimeHours: doubleTime.Round(2),
		DoubleTimePay:   doubleTimePay,
		TotalPay:        regularPay.Add(overtimePay).Add(doubleTimePay),
	}
}

// =============================================================================
// FORMATTING
// =============================================================================

// FormatOvertime renders decimal hours as "2h 30m". Minutes are
// truncated, not rounded: 2.999 formats as "2h 59m".
func FormatOvertime(hours decimal.Decimal) string {
	f, _ := hours.Float64()
	whole := math.Floor(f)
	minutes := (f - whole) * 60
	return fmt.Sprintf("%dh %dm", int(whole), int(minutes))
}
