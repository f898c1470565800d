package domain

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TemplateStatus is the lifecycle of workout and program templates.
type TemplateStatus string

const (
	TemplateDraft    TemplateStatus = "DRAFT"
	TemplateActive   TemplateStatus = "ACTIVE"
	TemplateArchived TemplateStatus = "ARCHIVED"
)

func ParseTemplateStatus(s string) (TemplateStatus, error) {
	switch st := TemplateStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case TemplateDraft, TemplateActive, TemplateArchived:
		return st, nil
	default:
		return "", fmt.Errorf("unknown status %q", s)
	}
}

// WorkoutExercise is one prescription line of a workout or program day.
// Order is 1-based and contiguous within its parent.
type WorkoutExercise struct {
	ExerciseID primitive.ObjectID `bson:"exerciseId" json:"exerciseId"`
	Order      int                `bson:"order" json:"order"`
	Sets       int                `bson:"sets" json:"sets"`
	Reps       string             `bson:"reps" json:"reps"` // "10", "8-10", "30 seconds"
	Rest       string             `bson:"rest,omitempty" json:"rest,omitempty"`
	Notes      string             `bson:"notes,omitempty" json:"notes,omitempty"`
}

// Workout is a single-day template. Its exercise lines are embedded so a
// replacement of the whole list is one atomic document write.
type Workout struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Status      TemplateStatus     `bson:"status" json:"status"`
	CreatorID   primitive.ObjectID `bson:"creatorId" json:"creatorId"`
	Exercises   []WorkoutExercise  `bson:"exercises" json:"exercises"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
