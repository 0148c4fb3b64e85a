package absence_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/absence"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// =============================================================================
// DEFAULTS AND ARITHMETIC
// =============================================================================

func TestNewBalance_Defaults(t *testing.T) {
	b := absence.NewBalance("emp-1", 2026)

	assert.Equal(t, "emp-1", b.UserID)
	assert.Equal(t, 2026, b.Year)
	assert.True(t, b.VacationTotal.Equal(dec("160")))
	assert.True(t, b.SickTotal.Equal(dec("80")))
	assert.True(t, b.VacationUsed.IsZero())
	assert.True(t, b.SickUsed.IsZero())
}

func TestRemainingAndHasBalance(t *testing.T) {
	b := absence.NewBalance("emp-1", 2026)
	b.VacationUsed = dec("100")

	assert.True(t, b.Remaining(absence.Vacation).Equal(dec("60")))
	assert.True(t, b.HasBalance(absence.Vacation, dec("60")), "exactly the remainder is allowed")
	assert.False(t, b.HasBalance(absence.Vacation, dec("60.25")))
	assert.True(t, b.Remaining(absence.Sick).Equal(dec("80")))
}

func TestConsume_RejectsInAdvance(t *testing.T) {
	// GIVEN: 5 vacation hours remaining
	// WHEN: Consuming 6
	// THEN: Rejected without mutation, with the shortfall detail

	b := absence.NewBalance("emp-1", 2026)
	b.VacationUsed = dec("155")

	err := b.Consume(absence.Vacation, dec("6"))
	require.Error(t, err)
	assert.ErrorIs(t, err, absence.ErrInsufficientBalance)
	assert.Equal(t,
		"Insufficient vacation balance. Available: 5.00 hours, Requested: 6.00 hours.",
		err.Error())
	assert.True(t, b.VacationUsed.Equal(dec("155")), "a rejected consume must not mutate")
}

func TestConsume_Succeeds(t *testing.T) {
	b := absence.NewBalance("emp-1", 2026)

	require.NoError(t, b.Consume(absence.Sick, dec("8")))
	require.NoError(t, b.Consume(absence.Sick, dec("0.25")))
	assert.True(t, b.SickUsed.Equal(dec("8.25")))
	assert.True(t, b.VacationUsed.IsZero(), "pools are independent")
}

func TestRefund_ClampsAtZero(t *testing.T) {
	b := absence.NewBalance("emp-1", 2026)
	b.VacationUsed = dec("4")

	b.Refund(absence.Vacation, dec("8"))
	assert.True(t, b.VacationUsed.IsZero(), "over-refunds are absorbed")

	b.SickUsed = dec("6")
	b.Refund(absence.Sick, dec("2"))
	assert.True(t, b.SickUsed.Equal(dec("4")))
}

func TestUsagePercentage(t *testing.T) {
	b := absence.NewBalance("emp-1", 2026)
	b.VacationUsed = dec("40")

	assert.True(t, b.UsagePercentage(absence.Vacation).Equal(dec("25")))

	b.SickTotal = decimal.Zero
	assert.True(t, b.UsagePercentage(absence.Sick).IsZero(), "empty pool is 0%, not a division error")
}

// =============================================================================
// REQUEST VALIDATION
// =============================================================================

func TestValidateTimeOffRequest(t *testing.T) {
	b := absence.NewBalance("emp-1", 2026)

	t.Run("valid request", func(t *testing.T) {
		assert.Empty(t, b.ValidateTimeOffRequest(dec("8"), absence.Vacation))
		assert.Empty(t, b.ValidateTimeOffRequest(dec("0.25"), absence.Sick))
	})

	t.Run("negative hours", func(t *testing.T) {
		// -5 is a clean multiple of 0.25 and always "within" the
		// balance, so it needs its own rejection
		msgs := b.ValidateTimeOffRequest(dec("-5"), absence.Vacation)
		assert.Contains(t, msgs, "Hours cannot be negative.")
	})

	t.Run("off-increment hours", func(t *testing.T) {
		msgs := b.ValidateTimeOffRequest(dec("4.1"), absence.Vacation)
		assert.Contains(t, msgs, "Hours must be in 0.25 hour (15-minute) increments.")
	})

	t.Run("over daily cap", func(t *testing.T) {
		msgs := b.ValidateTimeOffRequest(dec("8.25"), absence.Vacation)
		assert.Contains(t, msgs, "Cannot exceed 8 hours per day.")
	})

	t.Run("insufficient balance", func(t *testing.T) {
		low := absence.NewBalance("emp-2", 2026)
		low.VacationUsed = dec("155")
		msgs := low.ValidateTimeOffRequest(dec("6"), absence.Vacation)
		assert.Contains(t, msgs,
			"Insufficient vacation balance. Available: 5.00 hours, Requested: 6.00 hours.")
	})

	t.Run("violations accumulate", func(t *testing.T) {
		low := absence.NewBalance("emp-3", 2026)
		low.SickUsed = dec("79")
		msgs := low.ValidateTimeOffRequest(dec("8.3"), absence.Sick)
		assert.Len(t, msgs, 3, "increment, cap, and balance all reported")
	})
}
