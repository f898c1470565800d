package domain

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AssignmentStatus type for assignment lifecycle
type AssignmentStatus string

const (
	StatusScheduled  AssignmentStatus = "SCHEDULED"
	StatusInProgress AssignmentStatus = "IN_PROGRESS"
	StatusCompleted  AssignmentStatus = "COMPLETED"
	StatusSkipped    AssignmentStatus = "SKIPPED"
	StatusCancelled  AssignmentStatus = "CANCELLED"
)

func ParseAssignmentStatus(s string) (AssignmentStatus, error) {
	switch st := AssignmentStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusScheduled, StatusInProgress, StatusCompleted, StatusSkipped, StatusCancelled:
		return st, nil
	default:
		return "", fmt.Errorf("unknown assignment status %q", s)
	}
}

type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "ACTIVE"
	EnrollmentPaused    EnrollmentStatus = "PAUSED"
	EnrollmentCompleted EnrollmentStatus = "COMPLETED"
	EnrollmentCancelled EnrollmentStatus = "CANCELLED"
)

// ClientWorkout binds a single workout to a client on a calendar date.
type ClientWorkout struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClientID      primitive.ObjectID `bson:"clientId" json:"clientId"`
	WorkoutID     primitive.ObjectID `bson:"workoutId" json:"workoutId"`
	AssignedBy    primitive.ObjectID `bson:"assignedBy" json:"assignedBy"`
	ScheduledDate time.Time          `bson:"scheduledDate" json:"scheduledDate"` // UTC midnight
	Status        AssignmentStatus   `bson:"status" json:"status"`
	CompletedAt   *time.Time         `bson:"completedAt" json:"completedAt,omitempty"`
	Notes         string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ApplyStatus moves the assignment to status. CompletedAt is stamped on the
// transition into COMPLETED and cleared on any transition out of it; a repeated
// COMPLETED keeps the original stamp.
func (cw *ClientWorkout) ApplyStatus(status AssignmentStatus, now time.Time) {
	if status == StatusCompleted {
		if cw.Status != StatusCompleted || cw.CompletedAt == nil {
			t := now.UTC()
			cw.CompletedAt = &t
		}
	} else if cw.Status == StatusCompleted {
		cw.CompletedAt = nil
	}
	cw.Status = status
}

// ProgramDayAssignment pins one program day of an enrollment to an explicit date.
type ProgramDayAssignment struct {
	ID            primitive.ObjectID `bson:"_id" json:"id"`
	DayNumber     int                `bson:"dayNumber" json:"dayNumber"`
	ScheduledDate time.Time          `bson:"scheduledDate" json:"scheduledDate"`
}

// ClientWorkoutProgram anchors a program on a client's calendar. Days are
// projected from StartDate, never stored, except for explicit overrides.
type ClientWorkoutProgram struct {
	ID           primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	ClientID     primitive.ObjectID     `bson:"clientId" json:"clientId"`
	ProgramID    primitive.ObjectID     `bson:"programId" json:"programId"`
	AssignedBy   primitive.ObjectID     `bson:"assignedBy" json:"assignedBy"`
	StartDate    time.Time              `bson:"startDate" json:"startDate"`
	Status       EnrollmentStatus       `bson:"status" json:"status"`
	Notes        string                 `bson:"notes,omitempty" json:"notes,omitempty"`
	DayOverrides []ProgramDayAssignment `bson:"dayOverrides,omitempty" json:"dayOverrides,omitempty"`
	CreatedAt    time.Time              `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time              `bson:"updatedAt" json:"updatedAt"`
}

// SetOverride pins dayNumber to date, replacing any previous override of that day.
func (e *ClientWorkoutProgram) SetOverride(dayNumber int, date time.Time) ProgramDayAssignment {
	for i := range e.DayOverrides {
		if e.DayOverrides[i].DayNumber == dayNumber {
			e.DayOverrides[i].ScheduledDate = date
			return e.DayOverrides[i]
		}
	}
	o := ProgramDayAssignment{ID: primitive.NewObjectID(), DayNumber: dayNumber, ScheduledDate: date}
	e.DayOverrides = append(e.DayOverrides, o)
	return o
}

// ClearOverride removes the override of dayNumber and reports whether one existed.
func (e *ClientWorkoutProgram) ClearOverride(dayNumber int) bool {
	for i := range e.DayOverrides {
		if e.DayOverrides[i].DayNumber == dayNumber {
			e.DayOverrides = append(e.DayOverrides[:i], e.DayOverrides[i+1:]...)
			return true
		}
	}
	return false
}
