package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/absence"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/store/sqlite"
	"github.com/warp/attendance-engine/tracker"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func ptrTime(t time.Time) *time.Time { return &t }

var testDate = time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)

func workedRecord(id, userID string, date time.Time) *attendance.Record {
	start := date.Add(9 * time.Hour)
	end := date.Add(17 * time.Hour)
	return &attendance.Record{
		ID:             attendance.RecordID(id),
		UserID:         userID,
		ManagerID:      "mgr-1",
		Date:           date,
		ShiftStart:     &start,
		ShiftEnd:       &end,
		TotalHours:     dec("8"),
		ApprovalStatus: attendance.ApprovalPending,
	}
}

// =============================================================================
// RECORD CRUD
// =============================================================================

func TestCreateAndFind_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	original := workedRecord("rec-1", "emp-1", testDate)
	original.LunchStart = ptrTime(testDate.Add(12 * time.Hour))
	original.LunchEnd = ptrTime(testDate.Add(12*time.Hour + 30*time.Minute))
	original.OvertimeHours = dec("0.5")

	require.NoError(t, store.Create(ctx, original))
	assert.False(t, original.CreatedAt.IsZero())

	found, err := store.FindByEmployeeAndDate(ctx, "emp-1", testDate)
	require.NoError(t, err)
	require.NotNil(t, found)

	assert.Equal(t, original.ID, found.ID)
	assert.Equal(t, "mgr-1", found.ManagerID)
	assert.True(t, found.Date.Equal(testDate))
	require.NotNil(t, found.LunchStart)
	assert.True(t, found.LunchStart.Equal(*original.LunchStart))
	assert.True(t, found.TotalHours.Equal(dec("8")))
	assert.True(t, found.OvertimeHours.Equal(dec("0.5")))
	assert.Equal(t, attendance.ApprovalPending, found.ApprovalStatus)
}

func TestFind_Missing_NilNil(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	found, err := store.FindByEmployeeAndDate(ctx, "emp-1", testDate)
	require.NoError(t, err)
	assert.Nil(t, found)

	found, err = store.FindByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestCreate_SameUserAndDate_Duplicate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, workedRecord("rec-1", "emp-1", testDate)))

	err := store.Create(ctx, workedRecord("rec-2", "emp-1", testDate))
	assert.ErrorIs(t, err, attendance.ErrDuplicateEntry)

	// A different employee on the same date is fine
	assert.NoError(t, store.Create(ctx, workedRecord("rec-3", "emp-2", testDate)))
}

func TestSoftDelete_FreesTheDaySlot(t *testing.T) {
	// GIVEN: A record for (emp-1, date)
	// WHEN: Soft-deleting it
	// THEN: It disappears from reads and the day accepts a new record

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, workedRecord("rec-1", "emp-1", testDate)))
	require.NoError(t, store.SoftDelete(ctx, "rec-1", testDate.Add(18*time.Hour)))

	found, err := store.FindByID(ctx, "rec-1")
	require.NoError(t, err)
	assert.Nil(t, found)

	assert.NoError(t, store.Create(ctx, workedRecord("rec-2", "emp-1", testDate)))
}

func TestSoftDelete_Missing(t *testing.T) {
	store := newTestStore(t)

	err := store.SoftDelete(context.Background(), "nope", testDate)
	assert.ErrorIs(t, err, attendance.ErrRecordNotFound)
}

func TestFindByDateRange_NewestFirstWithLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		date := testDate.AddDate(0, 0, i)
		require.NoError(t, store.Create(ctx, workedRecord(string(rune('a'+i)), "emp-1", date)))
	}
	// Another employee's record must not leak into the range
	require.NoError(t, store.Create(ctx, workedRecord("other", "emp-2", testDate)))

	records, err := store.FindByEmployeeAndDateRange(ctx, "emp-1", testDate, testDate.AddDate(0, 0, 4), 0)
	require.NoError(t, err)
	require.Len(t, records, 5)
	for i := 1; i < len(records); i++ {
		assert.True(t, records[i-1].Date.After(records[i].Date), "newest first")
	}

	limited, err := store.FindByEmployeeAndDateRange(ctx, "emp-1", testDate, testDate.AddDate(0, 0, 4), 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.True(t, limited[0].Date.Equal(testDate.AddDate(0, 0, 4)))

	narrow, err := store.FindByEmployeeAndDateRange(ctx, "emp-1", testDate.AddDate(0, 0, 1), testDate.AddDate(0, 0, 2), 0)
	require.NoError(t, err)
	assert.Len(t, narrow, 2, "range bounds are inclusive")
}

// =============================================================================
// PATCH UPDATES
// =============================================================================

func TestUpdate_PatchRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, workedRecord("rec-1", "emp-1", testDate)))

	newEnd := testDate.Add(19 * time.Hour)
	total := dec("10")
	overtime := dec("2")
	updated, err := store.Update(ctx, "rec-1", tracker.Patch{
		ShiftEnd:      &newEnd,
		TotalHours:    &total,
		OvertimeHours: &overtime,
	})
	require.NoError(t, err)

	assert.True(t, updated.ShiftEnd.Equal(newEnd))
	assert.True(t, updated.TotalHours.Equal(dec("10")))
	assert.True(t, updated.OvertimeHours.Equal(dec("2")))

	// Untouched fields survive the patch
	assert.True(t, updated.ShiftStart.Equal(testDate.Add(9*time.Hour)))
	assert.Equal(t, attendance.ApprovalPending, updated.ApprovalStatus)
}

func TestUpdate_ApprovalFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, workedRecord("rec-1", "emp-1", testDate)))

	status := attendance.ApprovalApproved
	comments := "verified against the schedule"
	at := testDate.Add(20 * time.Hour)
	by := "mgr-1"
	updated, err := store.Update(ctx, "rec-1", tracker.Patch{
		ApprovalStatus:  &status,
		ManagerComments: &comments,
		ApprovedAt:      &at,
		ApprovedBy:      &by,
	})
	require.NoError(t, err)

	assert.Equal(t, attendance.ApprovalApproved, updated.ApprovalStatus)
	assert.Equal(t, comments, updated.ManagerComments)
	require.NotNil(t, updated.ApprovedAt)
	assert.True(t, updated.ApprovedAt.Equal(at))
	assert.Equal(t, "mgr-1", updated.ApprovedBy)
}

func TestUpdate_Missing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Update(context.Background(), "nope", tracker.Patch{})
	assert.ErrorIs(t, err, attendance.ErrRecordNotFound)
}

// =============================================================================
// BALANCES
// =============================================================================

func TestGetOrCreateBalance_DefaultsAndIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	balance, err := store.GetOrCreateBalance(ctx, "emp-1", 2026)
	require.NoError(t, err)
	assert.True(t, balance.VacationTotal.Equal(dec("160")))
	assert.True(t, balance.SickTotal.Equal(dec("80")))
	assert.True(t, balance.VacationUsed.IsZero())

	require.NoError(t, store.ConsumeBalance(ctx, "emp-1", 2026, absence.Vacation, dec("8")))

	again, err := store.GetOrCreateBalance(ctx, "emp-1", 2026)
	require.NoError(t, err)
	assert.True(t, again.VacationUsed.Equal(dec("8")), "existing row is returned, not reset")
}

func TestConsumeBalance_ExactRemainderAllowed(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.ConsumeBalance(ctx, "emp-1", 2026, absence.Sick, dec("79.75")))
	require.NoError(t, store.ConsumeBalance(ctx, "emp-1", 2026, absence.Sick, dec("0.25")))

	balance, err := store.GetOrCreateBalance(ctx, "emp-1", 2026)
	require.NoError(t, err)
	assert.True(t, balance.SickUsed.Equal(dec("80")))
}

func TestConsumeBalance_Insufficient(t *testing.T) {
	// GIVEN: 5 vacation hours remaining
	// WHEN: Consuming 6
	// THEN: Rejected with the shortfall detail and no mutation

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.ConsumeBalance(ctx, "emp-1", 2026, absence.Vacation, dec("155")))

	err := store.ConsumeBalance(ctx, "emp-1", 2026, absence.Vacation, dec("6"))
	require.Error(t, err)

	var insufficient *absence.InsufficientBalanceError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, absence.Vacation, insufficient.Kind)
	assert.True(t, insufficient.Available.Equal(dec("5")), "available: %s", insufficient.Available)
	assert.True(t, insufficient.Requested.Equal(dec("6")))

	balance, err := store.GetOrCreateBalance(ctx, "emp-1", 2026)
	require.NoError(t, err)
	assert.True(t, balance.VacationUsed.Equal(dec("155")))
}

func TestRefundBalance_ClampsAtZero(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.ConsumeBalance(ctx, "emp-1", 2026, absence.Vacation, dec("4")))
	require.NoError(t, store.RefundBalance(ctx, "emp-1", 2026, absence.Vacation, dec("8")))

	balance, err := store.GetOrCreateBalance(ctx, "emp-1", 2026)
	require.NoError(t, err)
	assert.True(t, balance.VacationUsed.IsZero(), "over-refunds are absorbed")
}

func TestBalances_IsolatedByUserAndYear(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.ConsumeBalance(ctx, "emp-1", 2026, absence.Vacation, dec("8")))

	other, err := store.GetOrCreateBalance(ctx, "emp-2", 2026)
	require.NoError(t, err)
	assert.True(t, other.VacationUsed.IsZero())

	nextYear, err := store.GetOrCreateBalance(ctx, "emp-1", 2027)
	require.NoError(t, err)
	assert.True(t, nextYear.VacationUsed.IsZero())
}
