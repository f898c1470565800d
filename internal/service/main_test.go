package service

import (
	"alcyxob/fitness-scheduler/internal/domain"
	"alcyxob/fitness-scheduler/internal/repository/memory"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeStorage struct {
	mu      sync.Mutex
	deleted []string
	failGet bool
}

func (f *fakeStorage) GeneratePresignedUploadURL(_ context.Context, objectKey, contentType string, _ time.Duration) (string, error) {
	return "https://storage.test/upload/" + objectKey + "?ct=" + contentType, nil
}

func (f *fakeStorage) GeneratePresignedDownloadURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	if f.failGet {
		return "", errors.New("presign failed")
	}
	return "https://storage.test/get/" + objectKey, nil
}

func (f *fakeStorage) DeleteObject(_ context.Context, objectKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, objectKey)
	return nil
}

// fixture wires every service to one in-memory store.
type fixture struct {
	store   *memory.Store
	storage *fakeStorage

	auth        AuthService
	exercises   ExerciseService
	catalog     CatalogService
	assignments *assignmentService
	trainers    TrainerService
	clients     ClientService
	calendar    CalendarService

	admin   Caller
	trainer Caller
}

func newFixture(t *testing.T, uniquePerDay bool) *fixture {
	t.Helper()
	store := memory.NewStore(uniquePerDay)
	fs := &fakeStorage{}
	tx := store.Transactor()

	f := &fixture{
		store:   store,
		storage: fs,
		auth:    NewAuthService(store.Users(), store.Clients(), tx, "test-secret", time.Hour),
		exercises: NewExerciseService(
			store.Exercises(), store.Workouts(), store.Programs(), tx, fs),
		catalog: NewCatalogService(
			store.Exercises(), store.Workouts(), store.Programs(), store.ClientWorkouts(), store.ClientPrograms(), tx),
		assignments: NewAssignmentService(
			store.Users(), store.Clients(), store.Workouts(), store.Programs(), store.ClientWorkouts(), store.ClientPrograms(), tx,
		).(*assignmentService),
		trainers: NewTrainerService(store.Users(), store.Clients(), tx),
		clients:  NewClientService(store.Users(), store.Clients()),
		calendar: NewCalendarService(
			store.Users(), store.Clients(), store.Workouts(), store.Programs(), store.ClientWorkouts(), store.ClientPrograms()),
	}
	f.admin = f.addUser(t, domain.RoleAdmin)
	f.trainer = f.addUser(t, domain.RoleTrainer)
	return f
}

func (f *fixture) addUser(t *testing.T, role domain.Role) Caller {
	t.Helper()
	user := &domain.User{
		Name:         string(role) + " user",
		Email:        primitive.NewObjectID().Hex() + "@example.com",
		PasswordHash: "not-a-real-hash",
		Role:         role,
	}
	_, err := f.store.Users().Create(context.Background(), user)
	require.NoError(t, err)
	return Caller{UserID: user.ID, Role: role}
}

// addClient creates a CLIENT account with a profile in the given subscription
// status, managed by trainer when it is not nil.
func (f *fixture) addClient(t *testing.T, status domain.SubscriptionStatus, trainer *Caller) (*domain.Client, Caller) {
	t.Helper()
	caller := f.addUser(t, domain.RoleClient)
	client := &domain.Client{
		UserID:             caller.UserID,
		Name:               "Client C",
		SubscriptionStatus: status,
	}
	if status == domain.SubscriptionActive {
		plan := domain.PlanBasic
		client.SubscriptionPlan = &plan
	}
	if trainer != nil {
		id := trainer.UserID
		client.TrainerID = &id
	}
	_, err := f.store.Clients().Create(context.Background(), client)
	require.NoError(t, err)
	return client, caller
}

func (f *fixture) addExercise(t *testing.T, name string) *domain.Exercise {
	t.Helper()
	ex, err := f.exercises.CreateExercise(context.Background(), f.trainer, ExerciseInput{
		Name:       name,
		Difficulty: domain.DifficultyBeginner,
	})
	require.NoError(t, err)
	return ex
}

func line(exerciseID primitive.ObjectID) ExerciseLineInput {
	return ExerciseLineInput{ExerciseID: exerciseID, Sets: 3, Reps: "10"}
}

func (f *fixture) addWorkout(t *testing.T, name string) *domain.Workout {
	t.Helper()
	ex := f.addExercise(t, name+" exercise")
	w, err := f.catalog.CreateWorkout(context.Background(), f.trainer, WorkoutInput{
		Name:      name,
		Exercises: []ExerciseLineInput{line(ex.ID)},
	})
	require.NoError(t, err)
	return w
}

func (f *fixture) addProgram(t *testing.T, name string, totalDays int) *domain.WorkoutProgram {
	t.Helper()
	ex := f.addExercise(t, name+" exercise")
	days := make([]WorkoutDayInput, totalDays)
	for i := range days {
		days[i] = WorkoutDayInput{DayNumber: i + 1, Exercises: []ExerciseLineInput{line(ex.ID)}}
	}
	p, err := f.catalog.CreateProgram(context.Background(), f.trainer, ProgramInput{Name: name, Days: days})
	require.NoError(t, err)
	return p
}

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := domain.ParseDate(s)
	require.NoError(t, err)
	return d
}

func requireKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, KindOf(err), "error: %v", err)
}
