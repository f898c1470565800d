package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	r, err := ParseRole("trainer")
	require.NoError(t, err)
	assert.Equal(t, RoleTrainer, r)

	r, err = ParseRole(" ADMIN ")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, r)

	_, err = ParseRole("coach")
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-01-10")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDate("2024-01-10T22:15:00Z")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-10", FormatDate(d))
	assert.Equal(t, 0, d.Hour())

	// 23:30 at -02:00 is already the next day in UTC
	d, err = ParseDate("2024-01-10T23:30:00-02:00")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-11", FormatDate(d))

	_, err = ParseDate("10/01/2024")
	assert.Error(t, err)
}

func TestClientWorkout_ApplyStatus(t *testing.T) {
	first := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	later := first.Add(time.Hour)

	cw := &ClientWorkout{Status: StatusScheduled}
	cw.ApplyStatus(StatusCompleted, first)
	require.NotNil(t, cw.CompletedAt)
	assert.Equal(t, first, *cw.CompletedAt)

	// repeated completion keeps the original stamp
	cw.ApplyStatus(StatusCompleted, later)
	require.NotNil(t, cw.CompletedAt)
	assert.Equal(t, first, *cw.CompletedAt)

	cw.ApplyStatus(StatusScheduled, later)
	assert.Nil(t, cw.CompletedAt)
	assert.Equal(t, StatusScheduled, cw.Status)

	cw.ApplyStatus(StatusSkipped, later)
	assert.Nil(t, cw.CompletedAt)
}

func TestClientWorkoutProgram_Overrides(t *testing.T) {
	e := &ClientWorkoutProgram{}
	d1 := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 2, 12, 0, 0, 0, 0, time.UTC)

	o := e.SetOverride(2, d1)
	assert.False(t, o.ID.IsZero())
	e.SetOverride(2, d2)
	require.Len(t, e.DayOverrides, 1)
	assert.Equal(t, d2, e.DayOverrides[0].ScheduledDate)

	assert.True(t, e.ClearOverride(2))
	assert.False(t, e.ClearOverride(2))
	assert.Empty(t, e.DayOverrides)
}

func TestClient_Eligibility(t *testing.T) {
	for _, st := range AllSubscriptionStatuses {
		c := &Client{SubscriptionStatus: st}
		assert.Equal(t, st == SubscriptionActive, c.HasActiveSubscription(), st)
	}
}
