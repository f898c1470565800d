package repository

import (
	"alcyxob/fitness-scheduler/internal/domain"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound  = RepositoryError("not found")
	ErrDuplicate = RepositoryError("duplicate key")
	// ErrStale reports a write based on a read the stored document has since moved past.
	ErrStale = RepositoryError("document changed since it was read")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// Transactor runs fn as one all-or-nothing unit of work. Repository calls made
// with the context passed to fn take part in the unit.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
}

// ClientRepository stores client profiles and the trainer relationship.
type ClientRepository interface {
	Create(ctx context.Context, client *domain.Client) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Client, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.Client, error)
	List(ctx context.Context) ([]domain.Client, error)
	ListByTrainer(ctx context.Context, trainerID primitive.ObjectID) ([]domain.Client, error)
	ListUnassigned(ctx context.Context) ([]domain.Client, error)
	// SetTrainerIfUnassigned sets the trainer only when the client currently
	// has none. It returns ErrNotFound when no unassigned client matched.
	SetTrainerIfUnassigned(ctx context.Context, clientID, trainerID primitive.ObjectID) error
	// SetTrainer overwrites the trainer; nil unassigns.
	SetTrainer(ctx context.Context, clientID primitive.ObjectID, trainerID *primitive.ObjectID) error
	UpdateSubscription(ctx context.Context, clientID primitive.ObjectID, status domain.SubscriptionStatus, plan *domain.SubscriptionPlan) error
}

// ExerciseFilter narrows exercise listings. Empty fields match everything.
type ExerciseFilter struct {
	Category    string
	MuscleGroup string
	Difficulty  domain.Difficulty
}

// ExerciseRepository defines the interface for interacting with exercise data.
type ExerciseRepository interface {
	// Create returns ErrDuplicate when the name is taken (case-insensitive).
	Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error)
	List(ctx context.Context, filter ExerciseFilter) ([]domain.Exercise, error)
	// ExistingIDs returns the subset of ids that exist.
	ExistingIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]bool, error)
	Update(ctx context.Context, exercise *domain.Exercise) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// TemplateFilter narrows workout and program listings.
type TemplateFilter struct {
	CreatorID *primitive.ObjectID
	Status    domain.TemplateStatus
}

// WorkoutRepository defines the interface for interacting with workout templates.
type WorkoutRepository interface {
	Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]domain.Workout, error)
	List(ctx context.Context, filter TemplateFilter) ([]domain.Workout, error)
	// Update writes the whole template, exercise lines included, in one write.
	// It only applies while the stored updatedAt equals workout.UpdatedAt and
	// returns ErrStale otherwise.
	Update(ctx context.Context, workout *domain.Workout) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	CountByExercise(ctx context.Context, exerciseID primitive.ObjectID) (int64, error)
}

// ProgramRepository defines the interface for interacting with program templates.
type ProgramRepository interface {
	Create(ctx context.Context, program *domain.WorkoutProgram) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutProgram, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]domain.WorkoutProgram, error)
	List(ctx context.Context, filter TemplateFilter) ([]domain.WorkoutProgram, error)
	// Update writes the whole template, days included, in one write. Like
	// WorkoutRepository.Update it returns ErrStale after a concurrent write.
	Update(ctx context.Context, program *domain.WorkoutProgram) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	CountByExercise(ctx context.Context, exerciseID primitive.ObjectID) (int64, error)
}

// ClientWorkoutRepository stores single-workout assignments.
type ClientWorkoutRepository interface {
	// Create returns ErrDuplicate when the per-day uniqueness constraint is
	// enabled and the (client, workout, date) triple already exists.
	Create(ctx context.Context, cw *domain.ClientWorkout) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ClientWorkout, error)
	ListByClient(ctx context.Context, clientID primitive.ObjectID) ([]domain.ClientWorkout, error)
	UpdateStatus(ctx context.Context, cw *domain.ClientWorkout) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	CountByWorkout(ctx context.Context, workoutID primitive.ObjectID) (int64, error)
}

// ClientProgramRepository stores program enrollments with their day overrides.
type ClientProgramRepository interface {
	Create(ctx context.Context, enrollment *domain.ClientWorkoutProgram) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ClientWorkoutProgram, error)
	ListByClient(ctx context.Context, clientID primitive.ObjectID) ([]domain.ClientWorkoutProgram, error)
	// SetDayOverride pins one day in a single write, replacing the date of an
	// existing override of that day. It returns the enrollment as stored.
	SetDayOverride(ctx context.Context, enrollmentID primitive.ObjectID, dayNumber int, date time.Time) (*domain.ClientWorkoutProgram, error)
	// ClearDayOverride removes the override of one day in a single write and
	// reports whether there was one.
	ClearDayOverride(ctx context.Context, enrollmentID primitive.ObjectID, dayNumber int) (*domain.ClientWorkoutProgram, bool, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	CountByProgram(ctx context.Context, programID primitive.ObjectID) (int64, error)
}
