package service

import (
	"alcyxob/fitness-scheduler/internal/domain"
	"alcyxob/fitness-scheduler/internal/repository"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateExerciseNameIsCaseInsensitivelyUnique(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	f.addExercise(t, "Push-ups")

	_, err := f.exercises.CreateExercise(ctx, f.trainer, ExerciseInput{Name: "PUSH-UPS", Difficulty: domain.DifficultyAdvanced})
	requireKind(t, err, KindConflict)

	_, err = f.exercises.CreateExercise(ctx, f.trainer, ExerciseInput{Name: "Pull-ups", Difficulty: "EXTREME"})
	requireKind(t, err, KindValidation)
}

func TestListExercisesFilters(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	_, err := f.exercises.CreateExercise(ctx, f.trainer, ExerciseInput{
		Name: "Squat", Category: "Strength", Difficulty: domain.DifficultyIntermediate,
		MuscleGroups: []string{"Legs", " Legs ", "Glutes"},
	})
	require.NoError(t, err)
	f.addExercise(t, "Jog")

	legs, err := f.exercises.ListExercises(ctx, repository.ExerciseFilter{MuscleGroup: "Legs"})
	require.NoError(t, err)
	require.Len(t, legs, 1)
	assert.Equal(t, []string{"Legs", "Glutes"}, legs[0].MuscleGroups)

	beginner, err := f.exercises.ListExercises(ctx, repository.ExerciseFilter{Difficulty: domain.DifficultyBeginner})
	require.NoError(t, err)
	require.Len(t, beginner, 1)
	assert.Equal(t, "Jog", beginner[0].Name)
}

func TestDeleteExerciseInUse(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	w := f.addWorkout(t, "A")
	exerciseID := w.Exercises[0].ExerciseID

	err := f.exercises.DeleteExercise(ctx, f.trainer, exerciseID)
	requireKind(t, err, KindConflict)

	require.NoError(t, f.catalog.DeleteWorkout(ctx, f.trainer, w.ID))
	require.NoError(t, f.exercises.DeleteExercise(ctx, f.trainer, exerciseID))

	_, err = f.exercises.GetExercise(ctx, exerciseID)
	requireKind(t, err, KindNotFound)
}

func TestExerciseOwnership(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	ex := f.addExercise(t, "Deadlift")
	other := f.addUser(t, domain.RoleTrainer)

	_, err := f.exercises.UpdateExercise(ctx, other, ex.ID, ExerciseInput{Name: "Romanian deadlift", Difficulty: domain.DifficultyAdvanced})
	requireKind(t, err, KindAuthorization)
	err = f.exercises.DeleteExercise(ctx, other, ex.ID)
	requireKind(t, err, KindAuthorization)

	updated, err := f.exercises.UpdateExercise(ctx, f.admin, ex.ID, ExerciseInput{Name: "Romanian deadlift", Difficulty: domain.DifficultyAdvanced})
	require.NoError(t, err)
	assert.Equal(t, "Romanian deadlift", updated.Name)
	assert.Equal(t, ex.CreatorID, updated.CreatorID)
}

func TestExerciseMediaFlow(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	ex := f.addExercise(t, "Clean")

	_, err := f.exercises.RequestMediaUpload(ctx, f.trainer, ex.ID, "application/pdf")
	requireKind(t, err, KindValidation)

	upload, err := f.exercises.RequestMediaUpload(ctx, f.trainer, ex.ID, "video/mp4")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(upload.ObjectKey, "exercises/"+ex.ID.Hex()+"/"))
	assert.True(t, strings.HasSuffix(upload.ObjectKey, ".mp4"))
	assert.Contains(t, upload.UploadURL, upload.ObjectKey)

	_, err = f.exercises.ConfirmMedia(ctx, f.trainer, ex.ID, "exercises/elsewhere/clip.mp4")
	requireKind(t, err, KindValidation)

	_, err = f.exercises.ConfirmMedia(ctx, f.trainer, ex.ID, upload.ObjectKey)
	require.NoError(t, err)

	details, err := f.exercises.GetExercise(ctx, ex.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://storage.test/get/"+upload.ObjectKey, details.MediaURL)

	// Replacing the media deletes the previous object.
	second, err := f.exercises.RequestMediaUpload(ctx, f.trainer, ex.ID, "image/png")
	require.NoError(t, err)
	_, err = f.exercises.ConfirmMedia(ctx, f.trainer, ex.ID, second.ObjectKey)
	require.NoError(t, err)
	assert.Equal(t, []string{upload.ObjectKey}, f.storage.deleted)

	// A failing presign still serves the exercise.
	f.storage.failGet = true
	details, err = f.exercises.GetExercise(ctx, ex.ID)
	require.NoError(t, err)
	assert.Empty(t, details.MediaURL)

	require.NoError(t, f.exercises.DeleteExercise(ctx, f.trainer, ex.ID))
	assert.Equal(t, []string{upload.ObjectKey, second.ObjectKey}, f.storage.deleted)
}
