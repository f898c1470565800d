package service

import (
	"alcyxob/fitness-scheduler/internal/domain"
	"alcyxob/fitness-scheduler/internal/repository"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ClientSummary is the part of a client shown next to its assignments.
type ClientSummary struct {
	ID                 primitive.ObjectID        `json:"id"`
	Name               string                    `json:"name"`
	SubscriptionStatus domain.SubscriptionStatus `json:"subscriptionStatus"`
}

// TemplateSummary is the part of a workout or program shown next to an assignment.
type TemplateSummary struct {
	ID        primitive.ObjectID    `json:"id"`
	Name      string                `json:"name"`
	Status    domain.TemplateStatus `json:"status"`
	TotalDays int                   `json:"totalDays,omitempty"`
}

// WorkoutAssignmentDetails is a single-workout assignment with denormalized
// workout and client details for display.
type WorkoutAssignmentDetails struct {
	domain.ClientWorkout
	Workout TemplateSummary `json:"workout"`
	Client  ClientSummary   `json:"client"`
}

// ProgramAssignmentDetails is a program enrollment with denormalized details.
type ProgramAssignmentDetails struct {
	domain.ClientWorkoutProgram
	Program TemplateSummary `json:"program"`
	Client  ClientSummary   `json:"client"`
}

// ClientAssignments lists everything scheduled for one client.
type ClientAssignments struct {
	Client   ClientSummary              `json:"client"`
	Workouts []WorkoutAssignmentDetails `json:"workouts"`
	Programs []ProgramAssignmentDetails `json:"programs"`
}

type AssignWorkoutInput struct {
	ClientID      primitive.ObjectID
	WorkoutID     primitive.ObjectID
	ScheduledDate time.Time
	Notes         string
}

type AssignProgramInput struct {
	ClientID  primitive.ObjectID
	ProgramID primitive.ObjectID
	StartDate time.Time
	Notes     string
}

// AssignmentService binds templates to clients and manages those bindings.
type AssignmentService interface {
	AssignWorkout(ctx context.Context, caller Caller, input AssignWorkoutInput) (*WorkoutAssignmentDetails, error)
	AssignProgram(ctx context.Context, caller Caller, input AssignProgramInput) (*ProgramAssignmentDetails, error)
	UpdateAssignmentStatus(ctx context.Context, caller Caller, assignmentID primitive.ObjectID, status domain.AssignmentStatus) (*domain.ClientWorkout, error)
	Unassign(ctx context.Context, caller Caller, assignmentID primitive.ObjectID) error
	UnassignProgram(ctx context.Context, caller Caller, enrollmentID primitive.ObjectID) error

	SetProgramDayOverride(ctx context.Context, caller Caller, enrollmentID primitive.ObjectID, dayNumber int, date time.Time) (*domain.ClientWorkoutProgram, error)
	ClearProgramDayOverride(ctx context.Context, caller Caller, enrollmentID primitive.ObjectID, dayNumber int) (*domain.ClientWorkoutProgram, error)

	ListClientAssignments(ctx context.Context, caller Caller, clientID primitive.ObjectID) (*ClientAssignments, error)
}

type assignmentService struct {
	clients           clientAccess
	workoutRepo       repository.WorkoutRepository
	programRepo       repository.ProgramRepository
	clientWorkoutRepo repository.ClientWorkoutRepository
	clientProgramRepo repository.ClientProgramRepository
	tx                repository.Transactor
	now               func() time.Time
}

// NewAssignmentService creates a new instance of assignmentService.
func NewAssignmentService(
	userRepo repository.UserRepository,
	clientRepo repository.ClientRepository,
	workoutRepo repository.WorkoutRepository,
	programRepo repository.ProgramRepository,
	clientWorkoutRepo repository.ClientWorkoutRepository,
	clientProgramRepo repository.ClientProgramRepository,
	tx repository.Transactor,
) AssignmentService {
	return &assignmentService{
		clients:           clientAccess{clientRepo: clientRepo, userRepo: userRepo},
		workoutRepo:       workoutRepo,
		programRepo:       programRepo,
		clientWorkoutRepo: clientWorkoutRepo,
		clientProgramRepo: clientProgramRepo,
		tx:                tx,
		now:               time.Now,
	}
}

func summarizeClient(c *domain.Client) ClientSummary {
	return ClientSummary{ID: c.ID, Name: c.Name, SubscriptionStatus: c.SubscriptionStatus}
}

func summarizeWorkout(w *domain.Workout) TemplateSummary {
	return TemplateSummary{ID: w.ID, Name: w.Name, Status: w.Status}
}

func summarizeProgram(p *domain.WorkoutProgram) TemplateSummary {
	return TemplateSummary{ID: p.ID, Name: p.Name, Status: p.Status, TotalDays: p.TotalDays}
}

// eligibleClient runs the checks shared by every new assignment: the client
// exists, belongs to the calling trainer (admins exempt) and is subscribed.
func (s *assignmentService) eligibleClient(ctx context.Context, caller Caller, clientID primitive.ObjectID) (*domain.Client, error) {
	client, err := s.clients.managedClient(ctx, caller, clientID)
	if err != nil {
		return nil, err
	}
	if !client.HasActiveSubscription() {
		return nil, ErrInactiveSubscription
	}
	return client, nil
}

// AssignWorkout schedules a workout for a client on a calendar date.
func (s *assignmentService) AssignWorkout(ctx context.Context, caller Caller, input AssignWorkoutInput) (*WorkoutAssignmentDetails, error) {
	if input.ClientID == primitive.NilObjectID || input.WorkoutID == primitive.NilObjectID {
		return nil, validationErrorf("clientId and workoutId are required")
	}
	if input.ScheduledDate.IsZero() {
		return nil, validationErrorf("scheduledDate is required")
	}

	var details *WorkoutAssignmentDetails
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		client, err := s.eligibleClient(ctx, caller, input.ClientID)
		if err != nil {
			return err
		}

		workout, err := s.workoutRepo.GetByID(ctx, input.WorkoutID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrWorkoutNotFound
			}
			return fmt.Errorf("get workout: %w", err)
		}

		assignment := &domain.ClientWorkout{
			ClientID:      client.ID,
			WorkoutID:     workout.ID,
			AssignedBy:    caller.UserID,
			ScheduledDate: domain.DateOf(input.ScheduledDate),
			Status:        domain.StatusScheduled,
			Notes:         strings.TrimSpace(input.Notes),
		}
		if _, err := s.clientWorkoutRepo.Create(ctx, assignment); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrDuplicateAssignment
			}
			return fmt.Errorf("create assignment: %w", err)
		}

		details = &WorkoutAssignmentDetails{
			ClientWorkout: *assignment,
			Workout:       summarizeWorkout(workout),
			Client:        summarizeClient(client),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"assignment": details.ID.Hex(),
		"client":     details.ClientID.Hex(),
		"workout":    details.WorkoutID.Hex(),
		"date":       domain.FormatDate(details.ScheduledDate),
	}).Info("workout assigned")
	return details, nil
}

// AssignProgram enrolls a client in a program starting at a calendar date.
func (s *assignmentService) AssignProgram(ctx context.Context, caller Caller, input AssignProgramInput) (*ProgramAssignmentDetails, error) {
	if input.ClientID == primitive.NilObjectID || input.ProgramID == primitive.NilObjectID {
		return nil, validationErrorf("clientId and programId are required")
	}
	if input.StartDate.IsZero() {
		return nil, validationErrorf("startDate is required")
	}

	var details *ProgramAssignmentDetails
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		client, err := s.eligibleClient(ctx, caller, input.ClientID)
		if err != nil {
			return err
		}

		program, err := s.programRepo.GetByID(ctx, input.ProgramID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrProgramNotFound
			}
			return fmt.Errorf("get program: %w", err)
		}

		enrollment := &domain.ClientWorkoutProgram{
			ClientID:   client.ID,
			ProgramID:  program.ID,
			AssignedBy: caller.UserID,
			StartDate:  domain.DateOf(input.StartDate),
			Status:     domain.EnrollmentActive,
			Notes:      strings.TrimSpace(input.Notes),
		}
		if _, err := s.clientProgramRepo.Create(ctx, enrollment); err != nil {
			return fmt.Errorf("create enrollment: %w", err)
		}

		details = &ProgramAssignmentDetails{
			ClientWorkoutProgram: *enrollment,
			Program:              summarizeProgram(program),
			Client:               summarizeClient(client),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"enrollment": details.ID.Hex(),
		"client":     details.ClientID.Hex(),
		"program":    details.ProgramID.Hex(),
		"start":      domain.FormatDate(details.StartDate),
	}).Info("program assigned")
	return details, nil
}

// authorizeAssignmentChange checks that caller may change something scheduled
// for clientID. Clients may only touch their own; trainers their own clients.
func (s *assignmentService) authorizeAssignmentChange(ctx context.Context, caller Caller, clientID primitive.ObjectID, allowClient bool, notFound error) error {
	client, err := s.clients.clientRepo.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound
		}
		return fmt.Errorf("get client: %w", err)
	}

	switch {
	case caller.IsAdmin():
		return nil
	case caller.IsTrainer():
		if !client.IsManagedBy(caller.UserID) {
			return ErrClientNotManaged
		}
		return nil
	case caller.IsClient() && allowClient:
		if client.UserID != caller.UserID {
			return ErrForbidden
		}
		return nil
	}
	return ErrForbidden
}

func (s *assignmentService) getAssignment(ctx context.Context, id primitive.ObjectID) (*domain.ClientWorkout, error) {
	assignment, err := s.clientWorkoutRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}
	return assignment, nil
}

func (s *assignmentService) getEnrollment(ctx context.Context, id primitive.ObjectID) (*domain.ClientWorkoutProgram, error) {
	enrollment, err := s.clientProgramRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, err
	}
	return enrollment, nil
}

// UpdateAssignmentStatus moves an assignment to status, stamping completedAt
// on the way into COMPLETED and clearing it on the way out.
func (s *assignmentService) UpdateAssignmentStatus(ctx context.Context, caller Caller, assignmentID primitive.ObjectID, status domain.AssignmentStatus) (*domain.ClientWorkout, error) {
	if _, err := domain.ParseAssignmentStatus(string(status)); err != nil {
		return nil, validationErrorf("%v", err)
	}

	assignment, err := s.getAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeAssignmentChange(ctx, caller, assignment.ClientID, true, ErrAssignmentNotFound); err != nil {
		return nil, err
	}

	assignment.ApplyStatus(status, s.now())
	if err := s.clientWorkoutRepo.UpdateStatus(ctx, assignment); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("update assignment status: %w", err)
	}
	return assignment, nil
}

// Unassign deletes a single-workout assignment.
func (s *assignmentService) Unassign(ctx context.Context, caller Caller, assignmentID primitive.ObjectID) error {
	assignment, err := s.getAssignment(ctx, assignmentID)
	if err != nil {
		return err
	}
	if err := s.authorizeAssignmentChange(ctx, caller, assignment.ClientID, false, ErrAssignmentNotFound); err != nil {
		return err
	}

	if err := s.clientWorkoutRepo.Delete(ctx, assignmentID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAssignmentNotFound
		}
		return fmt.Errorf("delete assignment: %w", err)
	}
	log.WithField("assignment", assignmentID.Hex()).Info("workout unassigned")
	return nil
}

// UnassignProgram deletes a program enrollment together with its overrides.
func (s *assignmentService) UnassignProgram(ctx context.Context, caller Caller, enrollmentID primitive.ObjectID) error {
	enrollment, err := s.getEnrollment(ctx, enrollmentID)
	if err != nil {
		return err
	}
	if err := s.authorizeAssignmentChange(ctx, caller, enrollment.ClientID, false, ErrEnrollmentNotFound); err != nil {
		return err
	}

	if err := s.clientProgramRepo.Delete(ctx, enrollmentID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrEnrollmentNotFound
		}
		return fmt.Errorf("delete enrollment: %w", err)
	}
	log.WithField("enrollment", enrollmentID.Hex()).Info("program unassigned")
	return nil
}

// SetProgramDayOverride pins one day of an enrollment to an explicit date.
func (s *assignmentService) SetProgramDayOverride(ctx context.Context, caller Caller, enrollmentID primitive.ObjectID, dayNumber int, date time.Time) (*domain.ClientWorkoutProgram, error) {
	if date.IsZero() {
		return nil, validationErrorf("scheduledDate is required")
	}

	var updated *domain.ClientWorkoutProgram
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.checkOverrideTarget(ctx, caller, enrollmentID, dayNumber); err != nil {
			return err
		}
		enrollment, err := s.clientProgramRepo.SetDayOverride(ctx, enrollmentID, dayNumber, date)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrEnrollmentNotFound
			}
			return fmt.Errorf("set day override: %w", err)
		}
		updated = enrollment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ClearProgramDayOverride returns one day of an enrollment to its projected date.
func (s *assignmentService) ClearProgramDayOverride(ctx context.Context, caller Caller, enrollmentID primitive.ObjectID, dayNumber int) (*domain.ClientWorkoutProgram, error) {
	var updated *domain.ClientWorkoutProgram
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.checkOverrideTarget(ctx, caller, enrollmentID, dayNumber); err != nil {
			return err
		}
		enrollment, removed, err := s.clientProgramRepo.ClearDayOverride(ctx, enrollmentID, dayNumber)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrEnrollmentNotFound
			}
			return fmt.Errorf("clear day override: %w", err)
		}
		if !removed {
			return newError(KindNotFound, "no override for day %d", dayNumber)
		}
		updated = enrollment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// checkOverrideTarget verifies the caller manages the enrollment's client and
// that dayNumber exists in its program.
func (s *assignmentService) checkOverrideTarget(ctx context.Context, caller Caller, enrollmentID primitive.ObjectID, dayNumber int) error {
	enrollment, err := s.getEnrollment(ctx, enrollmentID)
	if err != nil {
		return err
	}
	if err := s.authorizeAssignmentChange(ctx, caller, enrollment.ClientID, false, ErrEnrollmentNotFound); err != nil {
		return err
	}

	program, err := s.programRepo.GetByID(ctx, enrollment.ProgramID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProgramNotFound
		}
		return fmt.Errorf("get program: %w", err)
	}
	if dayNumber < 1 || dayNumber > program.TotalDays {
		return validationErrorf("day number must be between 1 and %d", program.TotalDays)
	}
	return nil
}

// ListClientAssignments returns the workouts and programs scheduled for a
// client the caller can see.
func (s *assignmentService) ListClientAssignments(ctx context.Context, caller Caller, clientID primitive.ObjectID) (*ClientAssignments, error) {
	client, err := s.clients.visibleClient(ctx, caller, clientID)
	if err != nil {
		return nil, err
	}

	assignments, err := s.clientWorkoutRepo.ListByClient(ctx, client.ID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	enrollments, err := s.clientProgramRepo.ListByClient(ctx, client.ID)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}

	workouts, programs, err := loadTemplates(ctx, s.workoutRepo, s.programRepo, assignments, enrollments)
	if err != nil {
		return nil, err
	}

	summary := summarizeClient(client)
	result := &ClientAssignments{
		Client:   summary,
		Workouts: make([]WorkoutAssignmentDetails, 0, len(assignments)),
		Programs: make([]ProgramAssignmentDetails, 0, len(enrollments)),
	}
	for _, a := range assignments {
		d := WorkoutAssignmentDetails{ClientWorkout: a, Client: summary, Workout: TemplateSummary{ID: a.WorkoutID}}
		if w, ok := workouts[a.WorkoutID]; ok {
			d.Workout = summarizeWorkout(&w)
		}
		result.Workouts = append(result.Workouts, d)
	}
	for _, e := range enrollments {
		d := ProgramAssignmentDetails{ClientWorkoutProgram: e, Client: summary, Program: TemplateSummary{ID: e.ProgramID}}
		if p, ok := programs[e.ProgramID]; ok {
			d.Program = summarizeProgram(&p)
		}
		result.Programs = append(result.Programs, d)
	}
	return result, nil
}

// loadTemplates fetches the workouts and programs referenced by a client's
// schedule in one round trip each.
func loadTemplates(
	ctx context.Context,
	workoutRepo repository.WorkoutRepository,
	programRepo repository.ProgramRepository,
	assignments []domain.ClientWorkout,
	enrollments []domain.ClientWorkoutProgram,
) (map[primitive.ObjectID]domain.Workout, map[primitive.ObjectID]domain.WorkoutProgram, error) {
	workoutIDs := make([]primitive.ObjectID, 0, len(assignments))
	for _, a := range assignments {
		workoutIDs = append(workoutIDs, a.WorkoutID)
	}
	programIDs := make([]primitive.ObjectID, 0, len(enrollments))
	for _, e := range enrollments {
		programIDs = append(programIDs, e.ProgramID)
	}

	workouts, err := workoutRepo.GetByIDs(ctx, workoutIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("load workouts: %w", err)
	}
	programs, err := programRepo.GetByIDs(ctx, programIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("load programs: %w", err)
	}
	return workouts, programs, nil
}
