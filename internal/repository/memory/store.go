// Package memory is an in-process implementation of the repository
// interfaces. It backs tests and the "memory" database driver.
package memory

import (
	"alcyxob/fitness-scheduler/internal/domain"
	"alcyxob/fitness-scheduler/internal/repository"
	"context"
	"maps"
	"slices"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type txKey struct{}

// Store holds every collection in maps guarded by one mutex. A transaction
// holds the mutex for its whole duration; repository calls made with the
// transaction's context run under that same hold.
type Store struct {
	mu sync.Mutex

	uniquePerDay bool

	users          map[primitive.ObjectID]domain.User
	clients        map[primitive.ObjectID]domain.Client
	exercises      map[primitive.ObjectID]domain.Exercise
	workouts       map[primitive.ObjectID]domain.Workout
	programs       map[primitive.ObjectID]domain.WorkoutProgram
	clientWorkouts map[primitive.ObjectID]domain.ClientWorkout
	clientPrograms map[primitive.ObjectID]domain.ClientWorkoutProgram
}

// NewStore creates an empty store. uniquePerDay mirrors the unique
// (client, workout, date) index of the MongoDB backend.
func NewStore(uniquePerDay bool) *Store {
	return &Store{
		uniquePerDay:   uniquePerDay,
		users:          map[primitive.ObjectID]domain.User{},
		clients:        map[primitive.ObjectID]domain.Client{},
		exercises:      map[primitive.ObjectID]domain.Exercise{},
		workouts:       map[primitive.ObjectID]domain.Workout{},
		programs:       map[primitive.ObjectID]domain.WorkoutProgram{},
		clientWorkouts: map[primitive.ObjectID]domain.ClientWorkout{},
		clientPrograms: map[primitive.ObjectID]domain.ClientWorkoutProgram{},
	}
}

func (s *Store) Users() repository.UserRepository                   { return &userRepo{s} }
func (s *Store) Clients() repository.ClientRepository               { return &clientRepo{s} }
func (s *Store) Exercises() repository.ExerciseRepository           { return &exerciseRepo{s} }
func (s *Store) Workouts() repository.WorkoutRepository             { return &workoutRepo{s} }
func (s *Store) Programs() repository.ProgramRepository             { return &programRepo{s} }
func (s *Store) ClientWorkouts() repository.ClientWorkoutRepository { return &clientWorkoutRepo{s} }
func (s *Store) ClientPrograms() repository.ClientProgramRepository { return &clientProgramRepo{s} }

// Transactor returns the store itself; it satisfies repository.Transactor.
func (s *Store) Transactor() repository.Transactor { return s }

// lock acquires the store mutex unless ctx already belongs to a transaction
// of this store, and returns the matching release func.
func (s *Store) lock(ctx context.Context) func() {
	if owner, _ := ctx.Value(txKey{}).(*Store); owner == s {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// WithTransaction runs fn while holding the store exclusively. On error every
// collection is restored to its state before fn ran.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if owner, _ := ctx.Value(txKey{}).(*Store); owner == s {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// Stored values are never mutated in place (writes replace whole values and
// slices are cloned on the way in), so copying the maps is enough.
type snapshot struct {
	users          map[primitive.ObjectID]domain.User
	clients        map[primitive.ObjectID]domain.Client
	exercises      map[primitive.ObjectID]domain.Exercise
	workouts       map[primitive.ObjectID]domain.Workout
	programs       map[primitive.ObjectID]domain.WorkoutProgram
	clientWorkouts map[primitive.ObjectID]domain.ClientWorkout
	clientPrograms map[primitive.ObjectID]domain.ClientWorkoutProgram
}

func (s *Store) snapshot() snapshot {
	return snapshot{
		users:          maps.Clone(s.users),
		clients:        maps.Clone(s.clients),
		exercises:      maps.Clone(s.exercises),
		workouts:       maps.Clone(s.workouts),
		programs:       maps.Clone(s.programs),
		clientWorkouts: maps.Clone(s.clientWorkouts),
		clientPrograms: maps.Clone(s.clientPrograms),
	}
}

func (s *Store) restore(snap snapshot) {
	s.users = snap.users
	s.clients = snap.clients
	s.exercises = snap.exercises
	s.workouts = snap.workouts
	s.programs = snap.programs
	s.clientWorkouts = snap.clientWorkouts
	s.clientPrograms = snap.clientPrograms
}

func cloneLines(lines []domain.WorkoutExercise) []domain.WorkoutExercise {
	if lines == nil {
		return nil
	}
	return slices.Clone(lines)
}

func cloneWorkout(w domain.Workout) domain.Workout {
	w.Exercises = cloneLines(w.Exercises)
	return w
}

func cloneProgram(p domain.WorkoutProgram) domain.WorkoutProgram {
	if p.Days != nil {
		days := make([]domain.WorkoutDay, len(p.Days))
		for i, d := range p.Days {
			d.Exercises = cloneLines(d.Exercises)
			days[i] = d
		}
		p.Days = days
	}
	return p
}

func cloneExercise(e domain.Exercise) domain.Exercise {
	e.MuscleGroups = slices.Clone(e.MuscleGroups)
	e.Equipment = slices.Clone(e.Equipment)
	return e
}

func cloneClient(c domain.Client) domain.Client {
	if c.TrainerID != nil {
		id := *c.TrainerID
		c.TrainerID = &id
	}
	if c.SubscriptionPlan != nil {
		p := *c.SubscriptionPlan
		c.SubscriptionPlan = &p
	}
	return c
}

func cloneEnrollment(e domain.ClientWorkoutProgram) domain.ClientWorkoutProgram {
	if e.DayOverrides != nil {
		e.DayOverrides = slices.Clone(e.DayOverrides)
	}
	return e
}

func cloneClientWorkout(cw domain.ClientWorkout) domain.ClientWorkout {
	if cw.CompletedAt != nil {
		t := *cw.CompletedAt
		cw.CompletedAt = &t
	}
	return cw
}
