package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutDay is one day of a program. Rest days never carry exercise lines.
type WorkoutDay struct {
	DayNumber         int               `bson:"dayNumber" json:"dayNumber"`
	Name              string            `bson:"name,omitempty" json:"name,omitempty"`
	IsRestDay         bool              `bson:"isRestDay" json:"isRestDay"`
	EstimatedDuration int               `bson:"estimatedDuration,omitempty" json:"estimatedDuration,omitempty"` // minutes
	Notes             string            `bson:"notes,omitempty" json:"notes,omitempty"`
	Exercises         []WorkoutExercise `bson:"exercises,omitempty" json:"exercises,omitempty"`
}

// WorkoutProgram is a multi-day template. TotalDays always equals len(Days)
// and day numbers are exactly 1..TotalDays.
type WorkoutProgram struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	TotalDays   int                `bson:"totalDays" json:"totalDays"`
	Status      TemplateStatus     `bson:"status" json:"status"`
	CreatorID   primitive.ObjectID `bson:"creatorId" json:"creatorId"`
	Days        []WorkoutDay       `bson:"days" json:"days"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ReferencesExercise reports whether any non-rest day uses the exercise.
func (p *WorkoutProgram) ReferencesExercise(exerciseID primitive.ObjectID) bool {
	for _, d := range p.Days {
		for _, line := range d.Exercises {
			if line.ExerciseID == exerciseID {
				return true
			}
		}
	}
	return false
}

// ReferencesExercise reports whether the workout uses the exercise.
func (w *Workout) ReferencesExercise(exerciseID primitive.ObjectID) bool {
	for _, line := range w.Exercises {
		if line.ExerciseID == exerciseID {
			return true
		}
	}
	return false
}
