package service

import (
	"alcyxob/fitness-scheduler/internal/domain"
	"alcyxob/fitness-scheduler/internal/repository"
	"alcyxob/fitness-scheduler/internal/storage"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExerciseInput carries the editable fields of an exercise.
type ExerciseInput struct {
	Name         string
	Category     string
	Difficulty   domain.Difficulty
	MuscleGroups []string
	Equipment    []string
	Instructions string
}

// ExerciseDetails is an exercise with a temporary link to its media, if any.
type ExerciseDetails struct {
	domain.Exercise
	MediaURL string `json:"mediaUrl,omitempty"`
}

// UploadURLResponse structure for returning URL and object key
type UploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"` // The key the caller reports back on confirm
}

type ExerciseService interface {
	CreateExercise(ctx context.Context, caller Caller, input ExerciseInput) (*domain.Exercise, error)
	GetExercise(ctx context.Context, exerciseID primitive.ObjectID) (*ExerciseDetails, error)
	ListExercises(ctx context.Context, filter repository.ExerciseFilter) ([]domain.Exercise, error)
	UpdateExercise(ctx context.Context, caller Caller, exerciseID primitive.ObjectID, input ExerciseInput) (*domain.Exercise, error)
	DeleteExercise(ctx context.Context, caller Caller, exerciseID primitive.ObjectID) error

	RequestMediaUpload(ctx context.Context, caller Caller, exerciseID primitive.ObjectID, contentType string) (*UploadURLResponse, error)
	ConfirmMedia(ctx context.Context, caller Caller, exerciseID primitive.ObjectID, objectKey string) (*domain.Exercise, error)
}

// exerciseService implements the ExerciseService interface.
type exerciseService struct {
	exerciseRepo repository.ExerciseRepository
	workoutRepo  repository.WorkoutRepository
	programRepo  repository.ProgramRepository
	tx           repository.Transactor
	fileStorage  storage.FileStorage
}

// NewExerciseService creates a new instance of exerciseService.
func NewExerciseService(
	exerciseRepo repository.ExerciseRepository,
	workoutRepo repository.WorkoutRepository,
	programRepo repository.ProgramRepository,
	tx repository.Transactor,
	fileStorage storage.FileStorage,
) ExerciseService {
	return &exerciseService{
		exerciseRepo: exerciseRepo,
		workoutRepo:  workoutRepo,
		programRepo:  programRepo,
		tx:           tx,
		fileStorage:  fileStorage,
	}
}

func (in ExerciseInput) apply(ex *domain.Exercise) error {
	name, err := requireName(in.Name)
	if err != nil {
		return err
	}
	difficulty, err := domain.ParseDifficulty(string(in.Difficulty))
	if err != nil {
		return validationErrorf("%v", err)
	}

	ex.Name = name
	ex.Category = strings.TrimSpace(in.Category)
	ex.Difficulty = difficulty
	ex.MuscleGroups = distinct(in.MuscleGroups)
	ex.Equipment = distinct(in.Equipment)
	ex.Instructions = in.Instructions
	return nil
}

// distinct trims values and drops blanks and repeats, keeping first-seen order.
func distinct(values []string) []string {
	var out []string
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// CreateExercise adds an exercise to the shared library.
func (s *exerciseService) CreateExercise(ctx context.Context, caller Caller, input ExerciseInput) (*domain.Exercise, error) {
	if err := requireAuthor(caller); err != nil {
		return nil, err
	}

	exercise := &domain.Exercise{CreatorID: caller.UserID}
	if err := input.apply(exercise); err != nil {
		return nil, err
	}

	if _, err := s.exerciseRepo.Create(ctx, exercise); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrExerciseNameTaken
		}
		return nil, fmt.Errorf("create exercise: %w", err)
	}
	return exercise, nil
}

func (s *exerciseService) getExercise(ctx context.Context, exerciseID primitive.ObjectID) (*domain.Exercise, error) {
	exercise, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	return exercise, nil
}

// GetExercise retrieves a single exercise, with a presigned media link when
// media has been confirmed.
func (s *exerciseService) GetExercise(ctx context.Context, exerciseID primitive.ObjectID) (*ExerciseDetails, error) {
	exercise, err := s.getExercise(ctx, exerciseID)
	if err != nil {
		return nil, err
	}

	details := &ExerciseDetails{Exercise: *exercise}
	if exercise.MediaKey != "" {
		url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, exercise.MediaKey, storage.DefaultPresignedURLExpiry)
		if err != nil {
			// Serve the exercise without a media link.
			log.WithField("exercise", exerciseID.Hex()).Errorf("media download url: %v", err)
		} else {
			details.MediaURL = url
		}
	}
	return details, nil
}

func (s *exerciseService) ListExercises(ctx context.Context, filter repository.ExerciseFilter) ([]domain.Exercise, error) {
	return s.exerciseRepo.List(ctx, filter)
}

// UpdateExercise handles updating an existing exercise, ensuring ownership.
func (s *exerciseService) UpdateExercise(ctx context.Context, caller Caller, exerciseID primitive.ObjectID, input ExerciseInput) (*domain.Exercise, error) {
	exercise, err := s.getExercise(ctx, exerciseID)
	if err != nil {
		return nil, err
	}
	if !caller.canModify(exercise.CreatorID) {
		return nil, ErrNotExerciseCreator
	}
	if err := input.apply(exercise); err != nil {
		return nil, err
	}

	if err := s.exerciseRepo.Update(ctx, exercise); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrExerciseNotFound
		case errors.Is(err, repository.ErrDuplicate):
			return nil, ErrExerciseNameTaken
		}
		return nil, fmt.Errorf("update exercise: %w", err)
	}
	return exercise, nil
}

// DeleteExercise removes an exercise no workout or program day references.
func (s *exerciseService) DeleteExercise(ctx context.Context, caller Caller, exerciseID primitive.ObjectID) error {
	var mediaKey string
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		exercise, err := s.getExercise(ctx, exerciseID)
		if err != nil {
			return err
		}
		if !caller.canModify(exercise.CreatorID) {
			return ErrNotExerciseCreator
		}

		inWorkouts, err := s.workoutRepo.CountByExercise(ctx, exerciseID)
		if err != nil {
			return fmt.Errorf("count workouts using exercise: %w", err)
		}
		inPrograms, err := s.programRepo.CountByExercise(ctx, exerciseID)
		if err != nil {
			return fmt.Errorf("count programs using exercise: %w", err)
		}
		if inWorkouts+inPrograms > 0 {
			return ErrExerciseInUse
		}

		if err := s.exerciseRepo.Delete(ctx, exerciseID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrExerciseNotFound
			}
			return fmt.Errorf("delete exercise: %w", err)
		}
		mediaKey = exercise.MediaKey
		return nil
	})
	if err != nil {
		return err
	}

	if mediaKey != "" {
		if err := s.fileStorage.DeleteObject(ctx, mediaKey); err != nil {
			log.WithField("key", mediaKey).Warnf("orphaned exercise media: %v", err)
		}
	}
	return nil
}

func mediaPrefix(exerciseID primitive.ObjectID) string {
	return path.Join("exercises", exerciseID.Hex()) + "/"
}

// RequestMediaUpload generates a pre-signed URL for uploading a demonstration
// video or image of an exercise.
func (s *exerciseService) RequestMediaUpload(ctx context.Context, caller Caller, exerciseID primitive.ObjectID, contentType string) (*UploadURLResponse, error) {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	kind, subtype, ok := strings.Cut(contentType, "/")
	if !ok || subtype == "" || (kind != "video" && kind != "image") {
		return nil, validationErrorf("content type must be video/* or image/*")
	}

	exercise, err := s.getExercise(ctx, exerciseID)
	if err != nil {
		return nil, err
	}
	if !caller.canModify(exercise.CreatorID) {
		return nil, ErrNotExerciseCreator
	}

	objectKey := mediaPrefix(exerciseID) + fmt.Sprintf("%s.%s", uuid.NewString(), subtype)
	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("media upload url: %w", err)
	}

	return &UploadURLResponse{UploadURL: uploadURL, ObjectKey: objectKey}, nil
}

// ConfirmMedia records an uploaded object as the exercise's media, replacing
// and deleting any previous one.
func (s *exerciseService) ConfirmMedia(ctx context.Context, caller Caller, exerciseID primitive.ObjectID, objectKey string) (*domain.Exercise, error) {
	if !strings.HasPrefix(objectKey, mediaPrefix(exerciseID)) || strings.Contains(objectKey, "..") {
		return nil, validationErrorf("object key does not belong to this exercise")
	}

	exercise, err := s.getExercise(ctx, exerciseID)
	if err != nil {
		return nil, err
	}
	if !caller.canModify(exercise.CreatorID) {
		return nil, ErrNotExerciseCreator
	}

	previous := exercise.MediaKey
	exercise.MediaKey = objectKey
	if err := s.exerciseRepo.Update(ctx, exercise); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, fmt.Errorf("record exercise media: %w", err)
	}

	if previous != "" && previous != objectKey {
		if err := s.fileStorage.DeleteObject(ctx, previous); err != nil {
			log.WithField("key", previous).Warnf("orphaned exercise media: %v", err)
		}
	}
	return exercise, nil
}
