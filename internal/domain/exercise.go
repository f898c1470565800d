// internal/domain/exercise.go
package domain

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Difficulty string

const (
	DifficultyBeginner     Difficulty = "BEGINNER"
	DifficultyIntermediate Difficulty = "INTERMEDIATE"
	DifficultyAdvanced     Difficulty = "ADVANCED"
)

func ParseDifficulty(s string) (Difficulty, error) {
	switch d := Difficulty(strings.ToUpper(strings.TrimSpace(s))); d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return d, nil
	default:
		return "", fmt.Errorf("unknown difficulty %q", s)
	}
}

// Exercise represents a single exercise definition in the library.
type Exercise struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatorID    primitive.ObjectID `bson:"creatorId" json:"creatorId"` // Trainer (or admin) who created the exercise
	Name         string             `bson:"name" json:"name"`
	NameKey      string             `bson:"nameKey" json:"-"` // Lower-cased name, unique
	Category     string             `bson:"category,omitempty" json:"category,omitempty"`
	Difficulty   Difficulty         `bson:"difficulty" json:"difficulty"`
	MuscleGroups []string           `bson:"muscleGroups,omitempty" json:"muscleGroups,omitempty"` // e.g., "Chest", "Legs"
	Equipment    []string           `bson:"equipment,omitempty" json:"equipment,omitempty"`
	Instructions string             `bson:"instructions,omitempty" json:"instructions,omitempty"`
	MediaKey     string             `bson:"mediaKey,omitempty" json:"-"` // Object storage key of a demo video/image
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ExerciseNameKey normalizes an exercise name for case-insensitive uniqueness.
func ExerciseNameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
