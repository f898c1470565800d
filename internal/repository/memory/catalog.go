package memory

import (
	"alcyxob/fitness-scheduler/internal/domain"
	"alcyxob/fitness-scheduler/internal/repository"
	"context"
	"errors"
	"slices"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- exercises ---

type exerciseRepo struct{ s *Store }

func (r *exerciseRepo) nameTaken(key string, except primitive.ObjectID) bool {
	for id, e := range r.s.exercises {
		if id != except && e.NameKey == key {
			return true
		}
	}
	return false
}

func (r *exerciseRepo) Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error) {
	if exercise.Name == "" || exercise.CreatorID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("exercise name and creator ID are required")
	}
	defer r.s.lock(ctx)()

	key := domain.ExerciseNameKey(exercise.Name)
	if r.nameTaken(key, primitive.NilObjectID) {
		return primitive.NilObjectID, repository.ErrDuplicate
	}

	exercise.ID = primitive.NewObjectID()
	exercise.NameKey = key
	now := time.Now().UTC()
	exercise.CreatedAt = now
	exercise.UpdatedAt = now
	r.s.exercises[exercise.ID] = cloneExercise(*exercise)
	return exercise.ID, nil
}

func (r *exerciseRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	defer r.s.lock(ctx)()
	e, ok := r.s.exercises[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	e = cloneExercise(e)
	return &e, nil
}

func (r *exerciseRepo) List(ctx context.Context, filter repository.ExerciseFilter) ([]domain.Exercise, error) {
	defer r.s.lock(ctx)()
	exercises := []domain.Exercise{}
	for _, e := range r.s.exercises {
		if filter.Category != "" && e.Category != filter.Category {
			continue
		}
		if filter.MuscleGroup != "" && !slices.Contains(e.MuscleGroups, filter.MuscleGroup) {
			continue
		}
		if filter.Difficulty != "" && e.Difficulty != filter.Difficulty {
			continue
		}
		exercises = append(exercises, cloneExercise(e))
	}
	sort.Slice(exercises, func(i, j int) bool { return exercises[i].NameKey < exercises[j].NameKey })
	return exercises, nil
}

func (r *exerciseRepo) ExistingIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]bool, error) {
	defer r.s.lock(ctx)()
	existing := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		if _, ok := r.s.exercises[id]; ok {
			existing[id] = true
		}
	}
	return existing, nil
}

func (r *exerciseRepo) Update(ctx context.Context, exercise *domain.Exercise) error {
	if exercise.ID == primitive.NilObjectID {
		return errors.New("exercise ID is required for update")
	}
	defer r.s.lock(ctx)()

	current, ok := r.s.exercises[exercise.ID]
	if !ok {
		return repository.ErrNotFound
	}
	key := domain.ExerciseNameKey(exercise.Name)
	if r.nameTaken(key, exercise.ID) {
		return repository.ErrDuplicate
	}

	exercise.NameKey = key
	exercise.CreatorID = current.CreatorID
	exercise.CreatedAt = current.CreatedAt
	exercise.UpdatedAt = time.Now().UTC()
	r.s.exercises[exercise.ID] = cloneExercise(*exercise)
	return nil
}

func (r *exerciseRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.exercises[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.exercises, id)
	return nil
}

// --- templates ---

func matchesTemplate(filter repository.TemplateFilter, creatorID primitive.ObjectID, status domain.TemplateStatus) bool {
	if filter.CreatorID != nil && *filter.CreatorID != creatorID {
		return false
	}
	return filter.Status == "" || filter.Status == status
}

// newestFirst orders like the MongoDB listings: createdAt descending, ties by id.
func newestFirst(ai, aj time.Time, idi, idj primitive.ObjectID) bool {
	if !ai.Equal(aj) {
		return ai.After(aj)
	}
	return idi.Hex() > idj.Hex()
}

type workoutRepo struct{ s *Store }

func (r *workoutRepo) Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error) {
	if workout.CreatorID == primitive.NilObjectID || workout.Name == "" {
		return primitive.NilObjectID, errors.New("workout requires creatorId and name")
	}
	defer r.s.lock(ctx)()

	workout.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	workout.CreatedAt = now
	workout.UpdatedAt = now
	r.s.workouts[workout.ID] = cloneWorkout(*workout)
	return workout.ID, nil
}

func (r *workoutRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error) {
	defer r.s.lock(ctx)()
	w, ok := r.s.workouts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	w = cloneWorkout(w)
	return &w, nil
}

func (r *workoutRepo) GetByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]domain.Workout, error) {
	defer r.s.lock(ctx)()
	found := make(map[primitive.ObjectID]domain.Workout, len(ids))
	for _, id := range ids {
		if w, ok := r.s.workouts[id]; ok {
			found[id] = cloneWorkout(w)
		}
	}
	return found, nil
}

func (r *workoutRepo) List(ctx context.Context, filter repository.TemplateFilter) ([]domain.Workout, error) {
	defer r.s.lock(ctx)()
	workouts := []domain.Workout{}
	for _, w := range r.s.workouts {
		if matchesTemplate(filter, w.CreatorID, w.Status) {
			workouts = append(workouts, cloneWorkout(w))
		}
	}
	sort.Slice(workouts, func(i, j int) bool {
		return newestFirst(workouts[i].CreatedAt, workouts[j].CreatedAt, workouts[i].ID, workouts[j].ID)
	})
	return workouts, nil
}

func (r *workoutRepo) Update(ctx context.Context, workout *domain.Workout) error {
	if workout.ID == primitive.NilObjectID {
		return errors.New("workout ID is required for update")
	}
	defer r.s.lock(ctx)()

	current, ok := r.s.workouts[workout.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if !current.UpdatedAt.Equal(workout.UpdatedAt) {
		return repository.ErrStale
	}
	workout.CreatorID = current.CreatorID
	workout.CreatedAt = current.CreatedAt
	workout.UpdatedAt = time.Now().UTC()
	r.s.workouts[workout.ID] = cloneWorkout(*workout)
	return nil
}

func (r *workoutRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.workouts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.workouts, id)
	return nil
}

func (r *workoutRepo) CountByExercise(ctx context.Context, exerciseID primitive.ObjectID) (int64, error) {
	defer r.s.lock(ctx)()
	var n int64
	for _, w := range r.s.workouts {
		if w.ReferencesExercise(exerciseID) {
			n++
		}
	}
	return n, nil
}

type programRepo struct{ s *Store }

func (r *programRepo) Create(ctx context.Context, program *domain.WorkoutProgram) (primitive.ObjectID, error) {
	if program.CreatorID == primitive.NilObjectID || program.Name == "" {
		return primitive.NilObjectID, errors.New("program requires creatorId and name")
	}
	defer r.s.lock(ctx)()

	program.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	program.CreatedAt = now
	program.UpdatedAt = now
	r.s.programs[program.ID] = cloneProgram(*program)
	return program.ID, nil
}

func (r *programRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutProgram, error) {
	defer r.s.lock(ctx)()
	p, ok := r.s.programs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p = cloneProgram(p)
	return &p, nil
}

func (r *programRepo) GetByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]domain.WorkoutProgram, error) {
	defer r.s.lock(ctx)()
	found := make(map[primitive.ObjectID]domain.WorkoutProgram, len(ids))
	for _, id := range ids {
		if p, ok := r.s.programs[id]; ok {
			found[id] = cloneProgram(p)
		}
	}
	return found, nil
}

func (r *programRepo) List(ctx context.Context, filter repository.TemplateFilter) ([]domain.WorkoutProgram, error) {
	defer r.s.lock(ctx)()
	programs := []domain.WorkoutProgram{}
	for _, p := range r.s.programs {
		if matchesTemplate(filter, p.CreatorID, p.Status) {
			programs = append(programs, cloneProgram(p))
		}
	}
	sort.Slice(programs, func(i, j int) bool {
		return newestFirst(programs[i].CreatedAt, programs[j].CreatedAt, programs[i].ID, programs[j].ID)
	})
	return programs, nil
}

func (r *programRepo) Update(ctx context.Context, program *domain.WorkoutProgram) error {
	if program.ID == primitive.NilObjectID {
		return errors.New("program ID is required for update")
	}
	defer r.s.lock(ctx)()

	current, ok := r.s.programs[program.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if !current.UpdatedAt.Equal(program.UpdatedAt) {
		return repository.ErrStale
	}
	program.CreatorID = current.CreatorID
	program.CreatedAt = current.CreatedAt
	program.UpdatedAt = time.Now().UTC()
	r.s.programs[program.ID] = cloneProgram(*program)
	return nil
}

func (r *programRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.programs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.programs, id)
	return nil
}

func (r *programRepo) CountByExercise(ctx context.Context, exerciseID primitive.ObjectID) (int64, error) {
	defer r.s.lock(ctx)()
	var n int64
	for _, p := range r.s.programs {
		if p.ReferencesExercise(exerciseID) {
			n++
		}
	}
	return n, nil
}
