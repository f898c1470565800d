package service

import (
	"alcyxob/fitness-scheduler/internal/calendar"
	"alcyxob/fitness-scheduler/internal/domain"
	"alcyxob/fitness-scheduler/internal/repository"
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CalendarService projects a client's schedule onto calendar dates.
type CalendarService interface {
	Calendar(ctx context.Context, caller Caller, clientID primitive.ObjectID, window calendar.Range) ([]calendar.Day, error)
}

type calendarService struct {
	clients           clientAccess
	workoutRepo       repository.WorkoutRepository
	programRepo       repository.ProgramRepository
	clientWorkoutRepo repository.ClientWorkoutRepository
	clientProgramRepo repository.ClientProgramRepository
}

// NewCalendarService creates a new instance of calendarService.
func NewCalendarService(
	userRepo repository.UserRepository,
	clientRepo repository.ClientRepository,
	workoutRepo repository.WorkoutRepository,
	programRepo repository.ProgramRepository,
	clientWorkoutRepo repository.ClientWorkoutRepository,
	clientProgramRepo repository.ClientProgramRepository,
) CalendarService {
	return &calendarService{
		clients:           clientAccess{clientRepo: clientRepo, userRepo: userRepo},
		workoutRepo:       workoutRepo,
		programRepo:       programRepo,
		clientWorkoutRepo: clientWorkoutRepo,
		clientProgramRepo: clientProgramRepo,
	}
}

// Calendar re-derives the client's calendar from the current assignment rows.
// Nothing is cached between calls.
func (s *calendarService) Calendar(ctx context.Context, caller Caller, clientID primitive.ObjectID, window calendar.Range) ([]calendar.Day, error) {
	if !window.From.IsZero() && !window.To.IsZero() && window.To.Before(window.From) {
		return nil, validationErrorf("'to' must not be before 'from'")
	}

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

	workoutEntries := make([]calendar.WorkoutEntry, 0, len(assignments))
	for _, a := range assignments {
		w, ok := workouts[a.WorkoutID]
		if !ok {
			log.WithFields(log.Fields{"assignment": a.ID.Hex(), "workout": a.WorkoutID.Hex()}).Warn("assignment references a missing workout")
			continue
		}
		workoutEntries = append(workoutEntries, calendar.WorkoutEntry{Date: a.ScheduledDate, Label: w.Name})
	}

	programEntries := make([]calendar.ProgramEntry, 0, len(enrollments))
	for _, e := range enrollments {
		p, ok := programs[e.ProgramID]
		if !ok {
			log.WithFields(log.Fields{"enrollment": e.ID.Hex(), "program": e.ProgramID.Hex()}).Warn("enrollment references a missing program")
			continue
		}
		programEntries = append(programEntries, calendar.ProgramEntry{
			Name:      p.Name,
			StartDate: e.StartDate,
			TotalDays: p.TotalDays,
			Overrides: overrideDates(e.DayOverrides),
		})
	}

	return calendar.Project(workoutEntries, programEntries, window), nil
}

func overrideDates(overrides []domain.ProgramDayAssignment) map[int]time.Time {
	if len(overrides) == 0 {
		return nil
	}
	dates := make(map[int]time.Time, len(overrides))
	for _, o := range overrides {
		dates[o.DayNumber] = o.ScheduledDate
	}
	return dates
}
