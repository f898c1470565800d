package memory

import (
	"alcyxob/fitness-scheduler/internal/domain"
	"alcyxob/fitness-scheduler/internal/repository"
	"context"
	"errors"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type clientWorkoutRepo struct{ s *Store }

func (r *clientWorkoutRepo) Create(ctx context.Context, cw *domain.ClientWorkout) (primitive.ObjectID, error) {
	if cw.ClientID == primitive.NilObjectID || cw.WorkoutID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("assignment requires clientId and workoutId")
	}
	defer r.s.lock(ctx)()

	date := domain.DateOf(cw.ScheduledDate)
	if r.s.uniquePerDay {
		for _, existing := range r.s.clientWorkouts {
			if existing.ClientID == cw.ClientID && existing.WorkoutID == cw.WorkoutID && existing.ScheduledDate.Equal(date) {
				return primitive.NilObjectID, repository.ErrDuplicate
			}
		}
	}

	cw.ID = primitive.NewObjectID()
	cw.ScheduledDate = date
	now := time.Now().UTC()
	cw.CreatedAt = now
	cw.UpdatedAt = now
	if cw.Status == "" {
		cw.Status = domain.StatusScheduled
	}
	r.s.clientWorkouts[cw.ID] = cloneClientWorkout(*cw)
	return cw.ID, nil
}

func (r *clientWorkoutRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ClientWorkout, error) {
	defer r.s.lock(ctx)()
	cw, ok := r.s.clientWorkouts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cw = cloneClientWorkout(cw)
	return &cw, nil
}

func (r *clientWorkoutRepo) ListByClient(ctx context.Context, clientID primitive.ObjectID) ([]domain.ClientWorkout, error) {
	defer r.s.lock(ctx)()
	assignments := []domain.ClientWorkout{}
	for _, cw := range r.s.clientWorkouts {
		if cw.ClientID == clientID {
			assignments = append(assignments, cloneClientWorkout(cw))
		}
	}
	sort.Slice(assignments, func(i, j int) bool {
		a, b := assignments[i], assignments[j]
		if !a.ScheduledDate.Equal(b.ScheduledDate) {
			return a.ScheduledDate.Before(b.ScheduledDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID.Hex() < b.ID.Hex()
	})
	return assignments, nil
}

func (r *clientWorkoutRepo) UpdateStatus(ctx context.Context, cw *domain.ClientWorkout) error {
	if cw.ID == primitive.NilObjectID {
		return errors.New("assignment ID is required for update")
	}
	defer r.s.lock(ctx)()

	current, ok := r.s.clientWorkouts[cw.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cw.UpdatedAt = time.Now().UTC()
	current.Status = cw.Status
	current.CompletedAt = cw.CompletedAt
	current.Notes = cw.Notes
	current.UpdatedAt = cw.UpdatedAt
	r.s.clientWorkouts[cw.ID] = cloneClientWorkout(current)
	return nil
}

func (r *clientWorkoutRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.clientWorkouts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.clientWorkouts, id)
	return nil
}

func (r *clientWorkoutRepo) CountByWorkout(ctx context.Context, workoutID primitive.ObjectID) (int64, error) {
	defer r.s.lock(ctx)()
	var n int64
	for _, cw := range r.s.clientWorkouts {
		if cw.WorkoutID == workoutID {
			n++
		}
	}
	return n, nil
}

type clientProgramRepo struct{ s *Store }

func (r *clientProgramRepo) Create(ctx context.Context, enrollment *domain.ClientWorkoutProgram) (primitive.ObjectID, error) {
	if enrollment.ClientID == primitive.NilObjectID || enrollment.ProgramID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("enrollment requires clientId and programId")
	}
	defer r.s.lock(ctx)()

	enrollment.ID = primitive.NewObjectID()
	enrollment.StartDate = domain.DateOf(enrollment.StartDate)
	now := time.Now().UTC()
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now
	if enrollment.Status == "" {
		enrollment.Status = domain.EnrollmentActive
	}
	r.s.clientPrograms[enrollment.ID] = cloneEnrollment(*enrollment)
	return enrollment.ID, nil
}

func (r *clientProgramRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ClientWorkoutProgram, error) {
	defer r.s.lock(ctx)()
	e, ok := r.s.clientPrograms[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	e = cloneEnrollment(e)
	return &e, nil
}

func (r *clientProgramRepo) ListByClient(ctx context.Context, clientID primitive.ObjectID) ([]domain.ClientWorkoutProgram, error) {
	defer r.s.lock(ctx)()
	enrollments := []domain.ClientWorkoutProgram{}
	for _, e := range r.s.clientPrograms {
		if e.ClientID == clientID {
			enrollments = append(enrollments, cloneEnrollment(e))
		}
	}
	sort.Slice(enrollments, func(i, j int) bool {
		a, b := enrollments[i], enrollments[j]
		if !a.StartDate.Equal(b.StartDate) {
			return a.StartDate.Before(b.StartDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID.Hex() < b.ID.Hex()
	})
	return enrollments, nil
}

func (r *clientProgramRepo) SetDayOverride(ctx context.Context, enrollmentID primitive.ObjectID, dayNumber int, date time.Time) (*domain.ClientWorkoutProgram, error) {
	defer r.s.lock(ctx)()
	current, ok := r.s.clientPrograms[enrollmentID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	current = cloneEnrollment(current)
	current.SetOverride(dayNumber, domain.DateOf(date))
	current.UpdatedAt = time.Now().UTC()
	r.s.clientPrograms[enrollmentID] = current

	out := cloneEnrollment(current)
	return &out, nil
}

func (r *clientProgramRepo) ClearDayOverride(ctx context.Context, enrollmentID primitive.ObjectID, dayNumber int) (*domain.ClientWorkoutProgram, bool, error) {
	defer r.s.lock(ctx)()
	current, ok := r.s.clientPrograms[enrollmentID]
	if !ok {
		return nil, false, repository.ErrNotFound
	}
	current = cloneEnrollment(current)
	removed := current.ClearOverride(dayNumber)
	if removed {
		current.UpdatedAt = time.Now().UTC()
		r.s.clientPrograms[enrollmentID] = current
	}

	out := cloneEnrollment(current)
	return &out, removed, nil
}

func (r *clientProgramRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.clientPrograms[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.clientPrograms, id)
	return nil
}

func (r *clientProgramRepo) CountByProgram(ctx context.Context, programID primitive.ObjectID) (int64, error) {
	defer r.s.lock(ctx)()
	var n int64
	for _, e := range r.s.clientPrograms {
		if e.ProgramID == programID {
			n++
		}
	}
	return n, nil
}
