package service

import (
	"alcyxob/fitness-scheduler/internal/domain"
	"alcyxob/fitness-scheduler/internal/repository"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExerciseLineInput describes one prescription line. Its order is taken from
// its position in the input list.
type ExerciseLineInput struct {
	ExerciseID primitive.ObjectID
	Sets       int
	Reps       string
	Rest       string
	Notes      string
}

type WorkoutInput struct {
	Name        string
	Description string
	Exercises   []ExerciseLineInput
}

// WorkoutPatch updates a workout. Nil fields are left unchanged; a non-nil
// Exercises replaces the whole list.
type WorkoutPatch struct {
	Name        *string
	Description *string
	Status      *domain.TemplateStatus
	Exercises   *[]ExerciseLineInput
}

type WorkoutDayInput struct {
	DayNumber         int
	Name              string
	IsRestDay         bool
	EstimatedDuration int
	Notes             string
	Exercises         []ExerciseLineInput
}

type ProgramInput struct {
	Name        string
	Description string
	Days        []WorkoutDayInput
}

// ProgramPatch updates a program. A non-nil Days replaces every day.
type ProgramPatch struct {
	Name        *string
	Description *string
	Status      *domain.TemplateStatus
	Days        *[]WorkoutDayInput
}

// CatalogService manages workout and program templates.
type CatalogService interface {
	CreateWorkout(ctx context.Context, caller Caller, input WorkoutInput) (*domain.Workout, error)
	GetWorkout(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error)
	ListWorkouts(ctx context.Context, filter repository.TemplateFilter) ([]domain.Workout, error)
	UpdateWorkout(ctx context.Context, caller Caller, id primitive.ObjectID, patch WorkoutPatch) (*domain.Workout, error)
	DeleteWorkout(ctx context.Context, caller Caller, id primitive.ObjectID) error

	CreateProgram(ctx context.Context, caller Caller, input ProgramInput) (*domain.WorkoutProgram, error)
	GetProgram(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutProgram, error)
	ListPrograms(ctx context.Context, filter repository.TemplateFilter) ([]domain.WorkoutProgram, error)
	UpdateProgram(ctx context.Context, caller Caller, id primitive.ObjectID, patch ProgramPatch) (*domain.WorkoutProgram, error)
	DeleteProgram(ctx context.Context, caller Caller, id primitive.ObjectID) error
}

type catalogService struct {
	exerciseRepo      repository.ExerciseRepository
	workoutRepo       repository.WorkoutRepository
	programRepo       repository.ProgramRepository
	clientWorkoutRepo repository.ClientWorkoutRepository
	clientProgramRepo repository.ClientProgramRepository
	tx                repository.Transactor
}

// NewCatalogService creates a new instance of catalogService.
func NewCatalogService(
	exerciseRepo repository.ExerciseRepository,
	workoutRepo repository.WorkoutRepository,
	programRepo repository.ProgramRepository,
	clientWorkoutRepo repository.ClientWorkoutRepository,
	clientProgramRepo repository.ClientProgramRepository,
	tx repository.Transactor,
) CatalogService {
	return &catalogService{
		exerciseRepo:      exerciseRepo,
		workoutRepo:       workoutRepo,
		programRepo:       programRepo,
		clientWorkoutRepo: clientWorkoutRepo,
		clientProgramRepo: clientProgramRepo,
		tx:                tx,
	}
}

func requireAuthor(caller Caller) error {
	if caller.IsAdmin() || caller.IsTrainer() {
		return nil
	}
	return ErrForbidden
}

// buildLines validates lines and numbers them 1..n in input order.
func (s *catalogService) buildLines(ctx context.Context, where string, inputs []ExerciseLineInput) ([]domain.WorkoutExercise, error) {
	if len(inputs) == 0 {
		return nil, validationErrorf("%s must contain at least one exercise", where)
	}

	ids := make([]primitive.ObjectID, 0, len(inputs))
	for i, in := range inputs {
		if in.ExerciseID == primitive.NilObjectID {
			return nil, validationErrorf("%s: exercise line %d has no exercise", where, i+1)
		}
		if in.Sets < 1 {
			return nil, validationErrorf("%s: exercise line %d must have at least one set", where, i+1)
		}
		if strings.TrimSpace(in.Reps) == "" {
			return nil, validationErrorf("%s: exercise line %d must specify reps", where, i+1)
		}
		ids = append(ids, in.ExerciseID)
	}

	existing, err := s.exerciseRepo.ExistingIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("check exercises: %w", err)
	}

	lines := make([]domain.WorkoutExercise, len(inputs))
	for i, in := range inputs {
		if !existing[in.ExerciseID] {
			return nil, validationErrorf("%s: exercise %s does not exist", where, in.ExerciseID.Hex())
		}
		lines[i] = domain.WorkoutExercise{
			ExerciseID: in.ExerciseID,
			Order:      i + 1,
			Sets:       in.Sets,
			Reps:       strings.TrimSpace(in.Reps),
			Rest:       in.Rest,
			Notes:      in.Notes,
		}
	}
	return lines, nil
}

// buildDays validates that day numbers are exactly 1..len(inputs) and returns
// the days sorted by day number. Rest days drop any exercise lines.
func (s *catalogService) buildDays(ctx context.Context, inputs []WorkoutDayInput) ([]domain.WorkoutDay, error) {
	if len(inputs) == 0 {
		return nil, validationErrorf("program must contain at least one day")
	}

	seen := make(map[int]bool, len(inputs))
	for _, in := range inputs {
		if in.DayNumber < 1 || in.DayNumber > len(inputs) {
			return nil, validationErrorf("day numbers must be contiguous from 1 to %d, got %d", len(inputs), in.DayNumber)
		}
		if seen[in.DayNumber] {
			return nil, validationErrorf("duplicate day number %d", in.DayNumber)
		}
		seen[in.DayNumber] = true
	}

	days := make([]domain.WorkoutDay, 0, len(inputs))
	for _, in := range inputs {
		day := domain.WorkoutDay{
			DayNumber:         in.DayNumber,
			Name:              strings.TrimSpace(in.Name),
			IsRestDay:         in.IsRestDay,
			EstimatedDuration: in.EstimatedDuration,
			Notes:             in.Notes,
		}
		if in.EstimatedDuration < 0 {
			return nil, validationErrorf("day %d: estimated duration cannot be negative", in.DayNumber)
		}
		if !in.IsRestDay {
			lines, err := s.buildLines(ctx, fmt.Sprintf("day %d", in.DayNumber), in.Exercises)
			if err != nil {
				return nil, err
			}
			day.Exercises = lines
		}
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].DayNumber < days[j].DayNumber })
	return days, nil
}

func requireName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", validationErrorf("name is required")
	}
	return name, nil
}

// === Workouts ===

func (s *catalogService) CreateWorkout(ctx context.Context, caller Caller, input WorkoutInput) (*domain.Workout, error) {
	if err := requireAuthor(caller); err != nil {
		return nil, err
	}
	name, err := requireName(input.Name)
	if err != nil {
		return nil, err
	}

	workout := &domain.Workout{
		Name:        name,
		Description: input.Description,
		Status:      domain.TemplateDraft,
		CreatorID:   caller.UserID,
	}
	// The referenced exercises must still exist when the workout is written.
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		lines, err := s.buildLines(ctx, "workout", input.Exercises)
		if err != nil {
			return err
		}
		workout.Exercises = lines
		if _, err := s.workoutRepo.Create(ctx, workout); err != nil {
			return fmt.Errorf("create workout: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"workout": workout.ID.Hex(), "creator": caller.UserID.Hex()}).Info("workout created")
	return workout, nil
}

func (s *catalogService) GetWorkout(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error) {
	workout, err := s.workoutRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}
	return workout, nil
}

func (s *catalogService) ListWorkouts(ctx context.Context, filter repository.TemplateFilter) ([]domain.Workout, error) {
	return s.workoutRepo.List(ctx, filter)
}

// UpdateWorkout applies patch. A replaced exercise list is written together
// with the rest of the document, so readers never see a partial list. A patch
// racing another write of the same workout fails with ErrTemplateChanged.
func (s *catalogService) UpdateWorkout(ctx context.Context, caller Caller, id primitive.ObjectID, patch WorkoutPatch) (*domain.Workout, error) {
	var workout *domain.Workout
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		if workout, err = s.GetWorkout(ctx, id); err != nil {
			return err
		}
		if !caller.canModify(workout.CreatorID) {
			return ErrNotTemplateCreator
		}

		if patch.Name != nil {
			if workout.Name, err = requireName(*patch.Name); err != nil {
				return err
			}
		}
		if patch.Description != nil {
			workout.Description = *patch.Description
		}
		if patch.Status != nil {
			workout.Status = *patch.Status
		}
		if patch.Exercises != nil {
			if workout.Exercises, err = s.buildLines(ctx, "workout", *patch.Exercises); err != nil {
				return err
			}
		}

		if err := s.workoutRepo.Update(ctx, workout); err != nil {
			switch {
			case errors.Is(err, repository.ErrNotFound):
				return ErrWorkoutNotFound
			case errors.Is(err, repository.ErrStale):
				return ErrTemplateChanged
			}
			return fmt.Errorf("update workout: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return workout, nil
}

// DeleteWorkout removes the workout and its lines unless an assignment still
// references it.
func (s *catalogService) DeleteWorkout(ctx context.Context, caller Caller, id primitive.ObjectID) error {
	return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		workout, err := s.GetWorkout(ctx, id)
		if err != nil {
			return err
		}
		if !caller.canModify(workout.CreatorID) {
			return ErrNotTemplateCreator
		}

		inUse, err := s.clientWorkoutRepo.CountByWorkout(ctx, id)
		if err != nil {
			return fmt.Errorf("count workout assignments: %w", err)
		}
		if inUse > 0 {
			return ErrWorkoutInUse
		}

		if err := s.workoutRepo.Delete(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrWorkoutNotFound
			}
			return fmt.Errorf("delete workout: %w", err)
		}
		log.WithField("workout", id.Hex()).Info("workout deleted")
		return nil
	})
}

// === Programs ===

func (s *catalogService) CreateProgram(ctx context.Context, caller Caller, input ProgramInput) (*domain.WorkoutProgram, error) {
	if err := requireAuthor(caller); err != nil {
		return nil, err
	}
	name, err := requireName(input.Name)
	if err != nil {
		return nil, err
	}

	program := &domain.WorkoutProgram{
		Name:        name,
		Description: input.Description,
		Status:      domain.TemplateDraft,
		CreatorID:   caller.UserID,
	}
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		days, err := s.buildDays(ctx, input.Days)
		if err != nil {
			return err
		}
		program.Days = days
		program.TotalDays = len(days)
		if _, err := s.programRepo.Create(ctx, program); err != nil {
			return fmt.Errorf("create program: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"program": program.ID.Hex(), "days": program.TotalDays}).Info("program created")
	return program, nil
}

func (s *catalogService) GetProgram(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutProgram, error) {
	program, err := s.programRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}
	return program, nil
}

func (s *catalogService) ListPrograms(ctx context.Context, filter repository.TemplateFilter) ([]domain.WorkoutProgram, error) {
	return s.programRepo.List(ctx, filter)
}

func (s *catalogService) UpdateProgram(ctx context.Context, caller Caller, id primitive.ObjectID, patch ProgramPatch) (*domain.WorkoutProgram, error) {
	var program *domain.WorkoutProgram
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		if program, err = s.GetProgram(ctx, id); err != nil {
			return err
		}
		if !caller.canModify(program.CreatorID) {
			return ErrNotTemplateCreator
		}

		if patch.Name != nil {
			if program.Name, err = requireName(*patch.Name); err != nil {
				return err
			}
		}
		if patch.Description != nil {
			program.Description = *patch.Description
		}
		if patch.Status != nil {
			program.Status = *patch.Status
		}
		if patch.Days != nil {
			days, err := s.buildDays(ctx, *patch.Days)
			if err != nil {
				return err
			}
			program.Days = days
			program.TotalDays = len(days)
		}

		if err := s.programRepo.Update(ctx, program); err != nil {
			switch {
			case errors.Is(err, repository.ErrNotFound):
				return ErrProgramNotFound
			case errors.Is(err, repository.ErrStale):
				return ErrTemplateChanged
			}
			return fmt.Errorf("update program: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return program, nil
}

func (s *catalogService) DeleteProgram(ctx context.Context, caller Caller, id primitive.ObjectID) error {
	return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		program, err := s.GetProgram(ctx, id)
		if err != nil {
			return err
		}
		if !caller.canModify(program.CreatorID) {
			return ErrNotTemplateCreator
		}

		inUse, err := s.clientProgramRepo.CountByProgram(ctx, id)
		if err != nil {
			return fmt.Errorf("count program enrollments: %w", err)
		}
		if inUse > 0 {
			return ErrProgramInUse
		}

		if err := s.programRepo.Delete(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrProgramNotFound
			}
			return fmt.Errorf("delete program: %w", err)
		}
		log.WithField("program", id.Hex()).Info("program deleted")
		return nil
	})
}
