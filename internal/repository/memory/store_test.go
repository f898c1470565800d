package memory

import (
	"alcyxob/fitness-scheduler/internal/domain"
	"alcyxob/fitness-scheduler/internal/repository"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newWorkout(t *testing.T, s *Store) primitive.ObjectID {
	t.Helper()
	id, err := s.Workouts().Create(context.Background(), &domain.Workout{
		Name:      "Push",
		CreatorID: primitive.NewObjectID(),
		Status:    domain.TemplateActive,
		Exercises: []domain.WorkoutExercise{{ExerciseID: primitive.NewObjectID(), Order: 1, Sets: 3, Reps: "10"}},
	})
	require.NoError(t, err)
	return id
}

func TestTransactionRollsBackOnError(t *testing.T) {
	s := NewStore(false)
	ctx := context.Background()
	workoutID := newWorkout(t, s)

	boom := errors.New("boom")
	err := s.WithTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, s.Workouts().Delete(ctx, workoutID))
		_, err := s.Workouts().Create(ctx, &domain.Workout{Name: "Pull", CreatorID: primitive.NewObjectID()})
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Workouts().GetByID(ctx, workoutID)
	require.NoError(t, err)
	all, err := s.Workouts().List(ctx, repository.TemplateFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestTransactionCommits(t *testing.T) {
	s := NewStore(false)
	ctx := context.Background()
	workoutID := newWorkout(t, s)

	err := s.WithTransaction(ctx, func(ctx context.Context) error {
		return s.Workouts().Delete(ctx, workoutID)
	})
	require.NoError(t, err)

	_, err = s.Workouts().GetByID(ctx, workoutID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTransactionsAreSerialized(t *testing.T) {
	s := NewStore(false)
	ctx := context.Background()
	c := &domain.Client{UserID: primitive.NewObjectID(), Name: "Ann"}
	clientID, err := s.Clients().Create(ctx, c)
	require.NoError(t, err)

	const trainers = 20
	var wg sync.WaitGroup
	wins := make(chan primitive.ObjectID, trainers)
	for i := 0; i < trainers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			trainerID := primitive.NewObjectID()
			err := s.WithTransaction(ctx, func(ctx context.Context) error {
				client, err := s.Clients().GetByID(ctx, clientID)
				if err != nil {
					return err
				}
				if client.HasTrainer() {
					return errors.New("already assigned")
				}
				time.Sleep(time.Millisecond)
				return s.Clients().SetTrainer(ctx, clientID, &trainerID)
			})
			if err == nil {
				wins <- trainerID
			}
		}()
	}
	wg.Wait()
	close(wins)

	var winners []primitive.ObjectID
	for id := range wins {
		winners = append(winners, id)
	}
	require.Len(t, winners, 1)

	client, err := s.Clients().GetByID(ctx, clientID)
	require.NoError(t, err)
	assert.True(t, client.IsManagedBy(winners[0]))
}

func TestClientWorkoutUniquePerDay(t *testing.T) {
	ctx := context.Background()
	clientID, workoutID := primitive.NewObjectID(), primitive.NewObjectID()
	day := time.Date(2024, 3, 4, 15, 30, 0, 0, time.UTC)

	t.Run("duplicates allowed", func(t *testing.T) {
		s := NewStore(false)
		for i := 0; i < 2; i++ {
			_, err := s.ClientWorkouts().Create(ctx, &domain.ClientWorkout{ClientID: clientID, WorkoutID: workoutID, ScheduledDate: day})
			require.NoError(t, err)
		}
		n, err := s.ClientWorkouts().CountByWorkout(ctx, workoutID)
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)
	})

	t.Run("duplicates rejected", func(t *testing.T) {
		s := NewStore(true)
		_, err := s.ClientWorkouts().Create(ctx, &domain.ClientWorkout{ClientID: clientID, WorkoutID: workoutID, ScheduledDate: day})
		require.NoError(t, err)
		_, err = s.ClientWorkouts().Create(ctx, &domain.ClientWorkout{ClientID: clientID, WorkoutID: workoutID, ScheduledDate: day.Add(3 * time.Hour)})
		assert.ErrorIs(t, err, repository.ErrDuplicate)

		// another date is fine
		_, err = s.ClientWorkouts().Create(ctx, &domain.ClientWorkout{ClientID: clientID, WorkoutID: workoutID, ScheduledDate: day.AddDate(0, 0, 1)})
		assert.NoError(t, err)
	})
}

func TestExerciseNamesAreCaseInsensitiveUnique(t *testing.T) {
	s := NewStore(false)
	ctx := context.Background()
	creator := primitive.NewObjectID()

	_, err := s.Exercises().Create(ctx, &domain.Exercise{Name: "Bench Press", CreatorID: creator})
	require.NoError(t, err)
	_, err = s.Exercises().Create(ctx, &domain.Exercise{Name: "  bench press ", CreatorID: creator})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestReturnedValuesAreCopies(t *testing.T) {
	s := NewStore(false)
	ctx := context.Background()
	workoutID := newWorkout(t, s)

	w, err := s.Workouts().GetByID(ctx, workoutID)
	require.NoError(t, err)
	w.Exercises[0].Sets = 99

	again, err := s.Workouts().GetByID(ctx, workoutID)
	require.NoError(t, err)
	assert.Equal(t, 3, again.Exercises[0].Sets)
}

func TestSetTrainerIfUnassigned(t *testing.T) {
	s := NewStore(false)
	ctx := context.Background()
	clientID, err := s.Clients().Create(ctx, &domain.Client{UserID: primitive.NewObjectID(), Name: "Bo"})
	require.NoError(t, err)

	first, second := primitive.NewObjectID(), primitive.NewObjectID()
	require.NoError(t, s.Clients().SetTrainerIfUnassigned(ctx, clientID, first))
	assert.ErrorIs(t, s.Clients().SetTrainerIfUnassigned(ctx, clientID, second), repository.ErrNotFound)

	unassigned, err := s.Clients().ListUnassigned(ctx)
	require.NoError(t, err)
	assert.Empty(t, unassigned)
	mine, err := s.Clients().ListByTrainer(ctx, first)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestTemplateUpdateRejectsStaleRead(t *testing.T) {
	s := NewStore(false)
	ctx := context.Background()
	workoutID := newWorkout(t, s)

	first, err := s.Workouts().GetByID(ctx, workoutID)
	require.NoError(t, err)
	second, err := s.Workouts().GetByID(ctx, workoutID)
	require.NoError(t, err)

	first.Name = "Push A"
	require.NoError(t, s.Workouts().Update(ctx, first))

	second.Status = domain.TemplateArchived
	err = s.Workouts().Update(ctx, second)
	require.ErrorIs(t, err, repository.ErrStale)

	stored, err := s.Workouts().GetByID(ctx, workoutID)
	require.NoError(t, err)
	assert.Equal(t, "Push A", stored.Name)
	assert.Equal(t, domain.TemplateActive, stored.Status)

	// The first writer's copy carries the new version and may write again.
	first.Status = domain.TemplateArchived
	require.NoError(t, s.Workouts().Update(ctx, first))
}

func TestDayOverrideWritesTouchOneDay(t *testing.T) {
	s := NewStore(false)
	ctx := context.Background()
	id, err := s.ClientPrograms().Create(ctx, &domain.ClientWorkoutProgram{
		ClientID: primitive.NewObjectID(), ProgramID: primitive.NewObjectID(),
		StartDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	d1 := time.Date(2024, 2, 10, 15, 30, 0, 0, time.UTC)

	e, err := s.ClientPrograms().SetDayOverride(ctx, id, 2, d1)
	require.NoError(t, err)
	require.Len(t, e.DayOverrides, 1)
	assert.Equal(t, domain.DateOf(d1), e.DayOverrides[0].ScheduledDate)

	_, err = s.ClientPrograms().SetDayOverride(ctx, id, 3, d1)
	require.NoError(t, err)

	e, removed, err := s.ClientPrograms().ClearDayOverride(ctx, id, 2)
	require.NoError(t, err)
	assert.True(t, removed)
	require.Len(t, e.DayOverrides, 1)
	assert.Equal(t, 3, e.DayOverrides[0].DayNumber)

	_, removed, err = s.ClientPrograms().ClearDayOverride(ctx, id, 2)
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = s.ClientPrograms().SetDayOverride(ctx, primitive.NewObjectID(), 1, d1)
	require.ErrorIs(t, err, repository.ErrNotFound)
}
