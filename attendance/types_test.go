package attendance_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/attendance"
)

// =============================================================================
// DERIVED CLOCK STATUS
// =============================================================================

func TestRecordStatus_AllTimestampCombinations(t *testing.T) {
	cases := []struct {
		name     string
		record   attendance.Record
		expected attendance.Status
	}{
		{"no timestamps", attendance.Record{}, attendance.StatusNotStarted},
		{"shift started", attendance.Record{
			ShiftStart: clockTime(9, 0),
		}, attendance.StatusWorking},
		{"on lunch", attendance.Record{
			ShiftStart: clockTime(9, 0), LunchStart: clockTime(12, 0),
		}, attendance.StatusOnLunch},
		{"back from lunch", attendance.Record{
			ShiftStart: clockTime(9, 0), LunchStart: clockTime(12, 0), LunchEnd: clockTime(12, 30),
		}, attendance.StatusWorking},
		{"completed with lunch", attendance.Record{
			ShiftStart: clockTime(9, 0), LunchStart: clockTime(12, 0),
			LunchEnd: clockTime(12, 30), ShiftEnd: clockTime(17, 30),
		}, attendance.StatusCompleted},
		{"completed without lunch", attendance.Record{
			ShiftStart: clockTime(9, 0), ShiftEnd: clockTime(17, 0),
		}, attendance.StatusCompleted},
		// A leave-only record never started the clock
		{"leave only", attendance.Record{VacationHours: dec("8")}, attendance.StatusNotStarted},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.record.Status())
		})
	}
}

// =============================================================================
// PREDICATES
// =============================================================================

func TestHasCompletedShiftAndLeaveHours(t *testing.T) {
	r := &attendance.Record{ShiftStart: clockTime(9, 0)}
	assert.False(t, r.HasCompletedShift())
	r.ShiftEnd = clockTime(17, 0)
	assert.True(t, r.HasCompletedShift())

	assert.False(t, (&attendance.Record{}).HasLeaveHours())
	assert.True(t, (&attendance.Record{SickHours: dec("2")}).HasLeaveHours())
}

func TestCanBeEdited(t *testing.T) {
	today := time.Date(2026, time.March, 9, 15, 0, 0, 0, time.UTC)

	r := &attendance.Record{Date: attendance.DateOnly(today), ApprovalStatus: attendance.ApprovalPending}
	assert.True(t, r.CanBeEdited(today))

	r.ApprovalStatus = attendance.ApprovalApproved
	assert.False(t, r.CanBeEdited(today), "approved records are immutable")

	r.ApprovalStatus = attendance.ApprovalRejected
	assert.True(t, r.CanBeEdited(today), "rejected records can be fixed and resubmitted")

	r.Date = attendance.DateOnly(today).AddDate(0, 0, -7)
	assert.True(t, r.CanBeEdited(today), "exactly 7 days back is inside the window")

	r.Date = attendance.DateOnly(today).AddDate(0, 0, -8)
	assert.False(t, r.CanBeEdited(today))
}

// =============================================================================
// CLONE
// =============================================================================

func TestClone_TimePointersIndependent(t *testing.T) {
	original := &attendance.Record{
		ID:         "rec-1",
		ShiftStart: clockTime(9, 0),
		LunchStart: clockTime(12, 0),
	}

	clone := original.Clone()
	require.NotNil(t, clone.ShiftStart)

	// Mutating the clone's timestamps must not touch the original
	*clone.ShiftStart = clone.ShiftStart.Add(time.Hour)
	end := clone.ShiftStart.Add(8 * time.Hour)
	clone.ShiftEnd = &end

	assert.Equal(t, 9, original.ShiftStart.Hour())
	assert.Nil(t, original.ShiftEnd)
}

// =============================================================================
// DATE HELPERS
// =============================================================================

func TestDateOnly(t *testing.T) {
	ts := time.Date(2026, time.March, 9, 23, 45, 12, 999, time.UTC)
	d := attendance.DateOnly(ts)

	assert.Equal(t, time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC), d)
}

func TestParseDate(t *testing.T) {
	d, err := attendance.ParseDate("2026-03-09")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC), d)

	_, err = attendance.ParseDate("03/09/2026")
	assert.Error(t, err)
}
