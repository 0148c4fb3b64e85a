/*
Package absence tracks per-employee, per-year vacation and sick hour
pools.

PURPOSE:
  Bookkeeping for leave balances with two hard guarantees:
  1. A pool never goes negative: consumption that would exceed the
     remaining balance is rejected in advance, never clamped after the
     fact.
  2. Refunds clamp at zero: used hours never go negative either, and
     over-refunding is silently absorbed.

LIFECYCLE:
  A balance row is lazily created with default totals (160 vacation
  hours, 80 sick hours) on first access for a given employee and year.
  The atomic insert-if-absent lives in the storage layer; this package
  only defines the defaults and the in-memory arithmetic.

CONCURRENCY:
  The methods here mutate a single in-memory value and are used for
  validation and tests. Production consumption goes through the store's
  compare-and-swap update so concurrent requests cannot both pass the
  balance check.

SEE ALSO:
  - store/sqlite: Atomic get-or-create and CAS consumption
  - tracker package: Drives balance checks from leave logging
*/
package absence

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// KINDS AND DEFAULTS
// =============================================================================

// Kind selects which pool an operation applies to.
type Kind string

const (
	Vacation Kind = "vacation"
	Sick     Kind = "sick"
)

const (
	// DefaultVacationHours is 20 days x 8 hours.
	DefaultVacationHours = 160.0
	// DefaultSickHours is 10 days x 8 hours.
	DefaultSickHours = 80.0
)

// MinimumIncrement is the smallest amount of leave that can be logged,
// and the granularity all leave hours must follow.
var MinimumIncrement = decimal.NewFromFloat(0.25)

var (
	decIncrement    = MinimumIncrement
	decMaxDaily     = decimal.NewFromInt(8)
	decHundred      = decimal.NewFromInt(100)
	defaultVacation = decimal.NewFromInt(160)
	defaultSick     = decimal.NewFromInt(80)
)

// ErrInsufficientBalance is returned when consumption exceeds the
// remaining pool.
var ErrInsufficientBalance = errors.New("insufficient absence balance")

// InsufficientBalanceError carries the shortfall details.
type InsufficientBalanceError struct {
	Kind      Kind
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("Insufficient %s balance. Available: %s hours, Requested: %s hours.",
		e.Kind, e.Available.StringFixed(2), e.Requested.StringFixed(2))
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// =============================================================================
// BALANCE
// =============================================================================

// Balance is one employee's leave pools for one calendar year.
type Balance struct {
	UserID string
	Year   int

	VacationTotal decimal.Decimal
	VacationUsed  decimal.Decimal
	SickTotal     decimal.Decimal
	SickUsed      decimal.Decimal
}

// NewBalance returns a balance with the default yearly totals and
// nothing used.
func NewBalance(userID string, year int) *Balance {
	return &Balance{
		UserID:        userID,
		Year:          year,
		VacationTotal: defaultVacation,
		VacationUsed:  decimal.Zero,
		SickTotal:     defaultSick,
		SickUsed:      decimal.Zero,
	}
}

// Remaining returns total minus used for the given pool.
func (b *Balance) Remaining(kind Kind) decimal.Decimal {
	if kind == Sick {
		return b.SickTotal.Sub(b.SickUsed)
	}
	return b.VacationTotal.Sub(b.VacationUsed)
}

// HasBalance reports whether the pool can cover the requested hours.
func (b *Balance) HasBalance(kind Kind, hours decimal.Decimal) bool {
	return b.Remaining(kind).GreaterThanOrEqual(hours)
}

// Consume deducts hours from the pool. It rejects without mutating when
// the remaining balance is insufficient.
func (b *Balance) Consume(kind Kind, hours decimal.Decimal) error {
	if !b.HasBalance(kind, hours) {
		return &InsufficientBalanceError{Kind: kind, Available: b.Remaining(kind), Requested: hours}
	}
	if kind == Sick {
		b.SickUsed = b.SickUsed.Add(hours)
	} else {
		b.VacationUsed = b.VacationUsed.Add(hours)
	}
	return nil
}

// Refund returns hours to the pool. Used hours clamp at zero; refunding
// more than was used is not an error.
func (b *Balance) Refund(kind Kind, hours decimal.Decimal) {
	if kind == Sick {
		b.SickUsed = decimal.Max(decimal.Zero, b.SickUsed.Sub(hours))
		return
	}
	b.VacationUsed = decimal.Max(decimal.Zero, b.VacationUsed.Sub(hours))
}

// UsagePercentage returns used/total as a percentage, 0 for an empty
// pool.
func (b *Balance) UsagePercentage(kind Kind) decimal.Decimal {
	total, used := b.VacationTotal, b.VacationUsed
	if kind == Sick {
		total, used = b.SickTotal, b.SickUsed
	}
	if total.IsZero() {
		return decimal.Zero
	}
	return used.Div(total).Mul(decHundred)
}

// =============================================================================
// REQUEST VALIDATION
// =============================================================================

// ValidateTimeOffRequest collects the rule violations for a leave
// request: hours must be non-negative, an exact multiple of 0.25
// (15-minute increments), at most 8 per day, and within the remaining
// balance.
func (b *Balance) ValidateTimeOffRequest(hours decimal.Decimal, kind Kind) []string {
	var errs []string

	if hours.IsNegative() {
		errs = append(errs, "Hours cannot be negative.")
	}
	if !hours.Mod(decIncrement).IsZero() {
		errs = append(errs, "Hours must be in 0.25 hour (15-minute) increments.")
	}
	if hours.GreaterThan(decMaxDaily) {
		errs = append(errs, "Cannot exceed 8 hours per day.")
	}
	if !b.HasBalance(kind, hours) {
		errs = append(errs, fmt.Sprintf(
			"Insufficient %s balance. Available: %s hours, Requested: %s hours.",
			kind, b.Remaining(kind).StringFixed(2), hours.StringFixed(2)))
	}
	return errs
}
