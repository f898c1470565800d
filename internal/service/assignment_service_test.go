package service

import (
	"alcyxob/fitness-scheduler/internal/domain"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAssignWorkoutRequiresActiveSubscription(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	w := f.addWorkout(t, "A")

	for _, status := range domain.AllSubscriptionStatuses {
		if status == domain.SubscriptionActive {
			continue
		}
		t.Run(string(status), func(t *testing.T) {
			client, _ := f.addClient(t, status, &f.trainer)
			_, err := f.assignments.AssignWorkout(ctx, f.trainer, AssignWorkoutInput{
				ClientID: client.ID, WorkoutID: w.ID, ScheduledDate: date(t, "2024-01-10"),
			})
			requireKind(t, err, KindEligibility)
			assert.ErrorIs(t, err, ErrInactiveSubscription)

			_, err = f.assignments.AssignProgram(ctx, f.admin, AssignProgramInput{
				ClientID: client.ID, ProgramID: primitive.NewObjectID(), StartDate: date(t, "2024-01-10"),
			})
			assert.ErrorIs(t, err, ErrInactiveSubscription)
		})
	}
}

func TestAssignWorkoutAuthorization(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	w := f.addWorkout(t, "A")
	other := f.addUser(t, domain.RoleTrainer)
	client, clientCaller := f.addClient(t, domain.SubscriptionActive, &other)

	input := AssignWorkoutInput{ClientID: client.ID, WorkoutID: w.ID, ScheduledDate: date(t, "2024-01-10")}

	_, err := f.assignments.AssignWorkout(ctx, f.trainer, input)
	requireKind(t, err, KindAuthorization)
	assert.ErrorIs(t, err, ErrClientNotManaged)

	_, err = f.assignments.AssignWorkout(ctx, clientCaller, input)
	requireKind(t, err, KindAuthorization)

	// Admins may schedule for any client.
	details, err := f.assignments.AssignWorkout(ctx, f.admin, input)
	require.NoError(t, err)
	assert.Equal(t, f.admin.UserID, details.AssignedBy)
}

func TestAssignWorkoutNotFound(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	client, _ := f.addClient(t, domain.SubscriptionActive, &f.trainer)
	w := f.addWorkout(t, "A")

	_, err := f.assignments.AssignWorkout(ctx, f.trainer, AssignWorkoutInput{
		ClientID: client.ID, WorkoutID: primitive.NewObjectID(), ScheduledDate: date(t, "2024-01-10"),
	})
	assert.ErrorIs(t, err, ErrWorkoutNotFound)

	_, err = f.assignments.AssignWorkout(ctx, f.trainer, AssignWorkoutInput{
		ClientID: primitive.NewObjectID(), WorkoutID: w.ID, ScheduledDate: date(t, "2024-01-10"),
	})
	assert.ErrorIs(t, err, ErrClientNotFound)

	_, err = f.assignments.AssignWorkout(ctx, f.trainer, AssignWorkoutInput{ClientID: client.ID, WorkoutID: w.ID})
	requireKind(t, err, KindValidation)
}

func TestAssignWorkoutStoresCalendarDate(t *testing.T) {
	f := newFixture(t, false)
	client, _ := f.addClient(t, domain.SubscriptionActive, &f.trainer)
	w := f.addWorkout(t, "A")

	at := time.Date(2024, 1, 10, 18, 45, 0, 0, time.UTC)
	details, err := f.assignments.AssignWorkout(context.Background(), f.trainer, AssignWorkoutInput{
		ClientID: client.ID, WorkoutID: w.ID, ScheduledDate: at, Notes: " warm up first ",
	})
	require.NoError(t, err)
	assert.Equal(t, date(t, "2024-01-10"), details.ScheduledDate)
	assert.Equal(t, domain.StatusScheduled, details.Status)
	assert.Equal(t, "warm up first", details.Notes)
	assert.Equal(t, "A", details.Workout.Name)
	assert.Equal(t, client.ID, details.Client.ID)
}

func TestDuplicateAssignmentsPolicy(t *testing.T) {
	for _, unique := range []bool{false, true} {
		name := "duplicates allowed"
		if unique {
			name = "unique per day"
		}
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, unique)
			ctx := context.Background()
			client, _ := f.addClient(t, domain.SubscriptionActive, &f.trainer)
			w := f.addWorkout(t, "A")
			input := AssignWorkoutInput{ClientID: client.ID, WorkoutID: w.ID, ScheduledDate: date(t, "2024-01-10")}

			_, err := f.assignments.AssignWorkout(ctx, f.trainer, input)
			require.NoError(t, err)
			_, err = f.assignments.AssignWorkout(ctx, f.trainer, input)
			if unique {
				requireKind(t, err, KindConflict)
				assert.ErrorIs(t, err, ErrDuplicateAssignment)
			} else {
				require.NoError(t, err)
			}

			// Another day is never a duplicate.
			input.ScheduledDate = date(t, "2024-01-11")
			_, err = f.assignments.AssignWorkout(ctx, f.trainer, input)
			require.NoError(t, err)
		})
	}
}

func TestUpdateAssignmentStatusCompletedAt(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	client, clientCaller := f.addClient(t, domain.SubscriptionActive, &f.trainer)
	w := f.addWorkout(t, "A")
	details, err := f.assignments.AssignWorkout(ctx, f.trainer, AssignWorkoutInput{
		ClientID: client.ID, WorkoutID: w.ID, ScheduledDate: date(t, "2024-01-10"),
	})
	require.NoError(t, err)

	first := time.Date(2024, 1, 10, 19, 0, 0, 0, time.UTC)
	f.assignments.now = func() time.Time { return first }
	cw, err := f.assignments.UpdateAssignmentStatus(ctx, clientCaller, details.ID, domain.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, cw.Status)
	require.NotNil(t, cw.CompletedAt)
	assert.Equal(t, first, *cw.CompletedAt)

	f.assignments.now = func() time.Time { return first.Add(time.Hour) }
	cw, err = f.assignments.UpdateAssignmentStatus(ctx, clientCaller, details.ID, domain.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, cw.Status)
	require.NotNil(t, cw.CompletedAt)
	assert.Equal(t, first, *cw.CompletedAt, "repeated COMPLETED keeps the original stamp")

	cw, err = f.assignments.UpdateAssignmentStatus(ctx, f.trainer, details.ID, domain.StatusScheduled)
	require.NoError(t, err)
	assert.Nil(t, cw.CompletedAt)

	stored, err := f.store.ClientWorkouts().GetByID(ctx, details.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusScheduled, stored.Status)
	assert.Nil(t, stored.CompletedAt)
}

func TestUpdateAssignmentStatusAccess(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	client, clientCaller := f.addClient(t, domain.SubscriptionActive, &f.trainer)
	_, stranger := f.addClient(t, domain.SubscriptionActive, nil)
	otherTrainer := f.addUser(t, domain.RoleTrainer)
	w := f.addWorkout(t, "A")
	details, err := f.assignments.AssignWorkout(ctx, f.trainer, AssignWorkoutInput{
		ClientID: client.ID, WorkoutID: w.ID, ScheduledDate: date(t, "2024-01-10"),
	})
	require.NoError(t, err)

	_, err = f.assignments.UpdateAssignmentStatus(ctx, stranger, details.ID, domain.StatusSkipped)
	requireKind(t, err, KindAuthorization)
	_, err = f.assignments.UpdateAssignmentStatus(ctx, otherTrainer, details.ID, domain.StatusSkipped)
	requireKind(t, err, KindAuthorization)
	_, err = f.assignments.UpdateAssignmentStatus(ctx, f.trainer, details.ID, domain.AssignmentStatus("DONE"))
	requireKind(t, err, KindValidation)
	_, err = f.assignments.UpdateAssignmentStatus(ctx, f.trainer, primitive.NewObjectID(), domain.StatusSkipped)
	requireKind(t, err, KindNotFound)

	// Only staff may delete an assignment.
	err = f.assignments.Unassign(ctx, clientCaller, details.ID)
	requireKind(t, err, KindAuthorization)
}

func TestProgramDayOverrides(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	client, _ := f.addClient(t, domain.SubscriptionActive, &f.trainer)
	p := f.addProgram(t, "P", 3)
	enrolled, err := f.assignments.AssignProgram(ctx, f.trainer, AssignProgramInput{
		ClientID: client.ID, ProgramID: p.ID, StartDate: date(t, "2024-02-01"),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.EnrollmentActive, enrolled.Status)
	assert.Equal(t, 3, enrolled.Program.TotalDays)

	e, err := f.assignments.SetProgramDayOverride(ctx, f.trainer, enrolled.ID, 2, date(t, "2024-02-10"))
	require.NoError(t, err)
	require.Len(t, e.DayOverrides, 1)
	firstID := e.DayOverrides[0].ID

	// Setting the same day again replaces the date in place.
	e, err = f.assignments.SetProgramDayOverride(ctx, f.trainer, enrolled.ID, 2, date(t, "2024-02-11"))
	require.NoError(t, err)
	require.Len(t, e.DayOverrides, 1)
	assert.Equal(t, firstID, e.DayOverrides[0].ID)
	assert.Equal(t, date(t, "2024-02-11"), e.DayOverrides[0].ScheduledDate)

	for _, day := range []int{0, 4} {
		_, err = f.assignments.SetProgramDayOverride(ctx, f.trainer, enrolled.ID, day, date(t, "2024-02-11"))
		requireKind(t, err, KindValidation)
	}

	other := f.addUser(t, domain.RoleTrainer)
	_, err = f.assignments.SetProgramDayOverride(ctx, other, enrolled.ID, 1, date(t, "2024-02-11"))
	requireKind(t, err, KindAuthorization)

	e, err = f.assignments.ClearProgramDayOverride(ctx, f.trainer, enrolled.ID, 2)
	require.NoError(t, err)
	assert.Empty(t, e.DayOverrides)

	_, err = f.assignments.ClearProgramDayOverride(ctx, f.trainer, enrolled.ID, 2)
	requireKind(t, err, KindNotFound)
}

func TestConcurrentDayOverridesAreAllKept(t *testing.T) {
	const days = 20
	f := newFixture(t, false)
	ctx := context.Background()
	client, _ := f.addClient(t, domain.SubscriptionActive, &f.trainer)
	p := f.addProgram(t, "Long", days)
	base := date(t, "2024-06-01")

	for round := 0; round < 20; round++ {
		enrolled, err := f.assignments.AssignProgram(ctx, f.trainer, AssignProgramInput{
			ClientID: client.ID, ProgramID: p.ID, StartDate: date(t, "2024-03-01"),
		})
		require.NoError(t, err)

		var wg sync.WaitGroup
		errs := make(chan error, days)
		for day := 1; day <= days; day++ {
			wg.Add(1)
			go func(day int) {
				defer wg.Done()
				_, err := f.assignments.SetProgramDayOverride(ctx, f.trainer, enrolled.ID, day, base.AddDate(0, 0, day))
				errs <- err
			}(day)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		stored, err := f.store.ClientPrograms().GetByID(ctx, enrolled.ID)
		require.NoError(t, err)
		require.Len(t, stored.DayOverrides, days, "round %d", round)
		for _, o := range stored.DayOverrides {
			assert.Equal(t, base.AddDate(0, 0, o.DayNumber), o.ScheduledDate)
		}
	}
}

func TestListClientAssignmentsVisibility(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	client, clientCaller := f.addClient(t, domain.SubscriptionActive, &f.trainer)
	_, stranger := f.addClient(t, domain.SubscriptionActive, nil)
	w := f.addWorkout(t, "A")
	p := f.addProgram(t, "P", 2)

	_, err := f.assignments.AssignWorkout(ctx, f.trainer, AssignWorkoutInput{
		ClientID: client.ID, WorkoutID: w.ID, ScheduledDate: date(t, "2024-01-10"),
	})
	require.NoError(t, err)
	_, err = f.assignments.AssignProgram(ctx, f.trainer, AssignProgramInput{
		ClientID: client.ID, ProgramID: p.ID, StartDate: date(t, "2024-02-01"),
	})
	require.NoError(t, err)

	for _, caller := range []Caller{f.admin, f.trainer, clientCaller} {
		list, err := f.assignments.ListClientAssignments(ctx, caller, client.ID)
		require.NoError(t, err)
		require.Len(t, list.Workouts, 1)
		require.Len(t, list.Programs, 1)
		assert.Equal(t, "A", list.Workouts[0].Workout.Name)
		assert.Equal(t, "P", list.Programs[0].Program.Name)
	}

	otherTrainer := f.addUser(t, domain.RoleTrainer)
	for _, caller := range []Caller{otherTrainer, stranger} {
		_, err := f.assignments.ListClientAssignments(ctx, caller, client.ID)
		requireKind(t, err, KindNotFound)
	}
}
