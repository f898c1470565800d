package service

import (
	"alcyxob/fitness-scheduler/internal/calendar"
	"alcyxob/fitness-scheduler/internal/domain"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalendarProjection(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	client, clientCaller := f.addClient(t, domain.SubscriptionActive, &f.trainer)
	workout := f.addWorkout(t, "A")

	_, err := f.assignments.AssignWorkout(ctx, f.trainer, AssignWorkoutInput{
		ClientID: client.ID, WorkoutID: workout.ID, ScheduledDate: date(t, "2024-01-10"),
	})
	require.NoError(t, err)

	days, err := f.calendar.Calendar(ctx, clientCaller, client.ID, calendar.Range{})
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"2024-01-10": {"A"}}, calendar.AsMap(days))

	// A second copy of the same workout collapses; another workout is merged in.
	_, err = f.assignments.AssignWorkout(ctx, f.trainer, AssignWorkoutInput{
		ClientID: client.ID, WorkoutID: workout.ID, ScheduledDate: date(t, "2024-01-10"),
	})
	require.NoError(t, err)
	other := f.addWorkout(t, "B")
	_, err = f.assignments.AssignWorkout(ctx, f.trainer, AssignWorkoutInput{
		ClientID: client.ID, WorkoutID: other.ID, ScheduledDate: date(t, "2024-01-10"),
	})
	require.NoError(t, err)

	days, err = f.calendar.Calendar(ctx, f.admin, client.ID, calendar.Range{})
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"2024-01-10": {"A", "B"}}, calendar.AsMap(days))
}

func TestCalendarProgramDays(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	client, _ := f.addClient(t, domain.SubscriptionActive, &f.trainer)
	program := f.addProgram(t, "P", 3)

	enrollment, err := f.assignments.AssignProgram(ctx, f.trainer, AssignProgramInput{
		ClientID: client.ID, ProgramID: program.ID, StartDate: date(t, "2024-02-01"),
	})
	require.NoError(t, err)

	want := map[string][]string{
		"2024-02-01": {"P - Day 1"},
		"2024-02-02": {"P - Day 2"},
		"2024-02-03": {"P - Day 3"},
	}
	first, err := f.calendar.Calendar(ctx, f.trainer, client.ID, calendar.Range{})
	require.NoError(t, err)
	assert.Equal(t, want, calendar.AsMap(first))

	second, err := f.calendar.Calendar(ctx, f.trainer, client.ID, calendar.Range{})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	_, err = f.assignments.SetProgramDayOverride(ctx, f.trainer, enrollment.ID, 2, date(t, "2024-02-10"))
	require.NoError(t, err)

	days, err := f.calendar.Calendar(ctx, f.trainer, client.ID, calendar.Range{})
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{
		"2024-02-01": {"P - Day 1"},
		"2024-02-03": {"P - Day 3"},
		"2024-02-10": {"P - Day 2"},
	}, calendar.AsMap(days))

	days, err = f.calendar.Calendar(ctx, f.trainer, client.ID, calendar.Range{
		From: date(t, "2024-02-02"), To: date(t, "2024-02-03"),
	})
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"2024-02-03": {"P - Day 3"}}, calendar.AsMap(days))
}

func TestCalendarRejectsInvertedRange(t *testing.T) {
	f := newFixture(t, false)
	client, _ := f.addClient(t, domain.SubscriptionActive, &f.trainer)

	_, err := f.calendar.Calendar(context.Background(), f.trainer, client.ID, calendar.Range{
		From: date(t, "2024-03-02"), To: date(t, "2024-03-01"),
	})
	requireKind(t, err, KindValidation)
}

func TestCalendarVisibility(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	client, _ := f.addClient(t, domain.SubscriptionActive, &f.trainer)
	_, otherClient := f.addClient(t, domain.SubscriptionActive, nil)
	otherTrainer := f.addUser(t, domain.RoleTrainer)

	_, err := f.calendar.Calendar(ctx, otherTrainer, client.ID, calendar.Range{})
	requireKind(t, err, KindNotFound)
	_, err = f.calendar.Calendar(ctx, otherClient, client.ID, calendar.Range{})
	requireKind(t, err, KindNotFound)

	days, err := f.calendar.Calendar(ctx, f.trainer, client.ID, calendar.Range{})
	require.NoError(t, err)
	assert.Empty(t, days)
}
