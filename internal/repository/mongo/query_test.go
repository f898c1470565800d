package mongo

import (
	"alcyxob/fitness-scheduler/internal/domain"
	"alcyxob/fitness-scheduler/internal/repository"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestTemplateQuery(t *testing.T) {
	assert.Equal(t, bson.M{}, templateQuery(repository.TemplateFilter{}))

	creator := primitive.NewObjectID()
	assert.Equal(t, bson.M{"creatorId": creator, "status": domain.TemplateActive},
		templateQuery(repository.TemplateFilter{CreatorID: &creator, Status: domain.TemplateActive}))
}

func TestExerciseQuery(t *testing.T) {
	assert.Equal(t, bson.M{}, exerciseQuery(repository.ExerciseFilter{}))
	assert.Equal(t, bson.M{"muscleGroups": "Legs", "difficulty": domain.DifficultyAdvanced},
		exerciseQuery(repository.ExerciseFilter{MuscleGroup: "Legs", Difficulty: domain.DifficultyAdvanced}))
}

func TestDisabledTransactorRunsInline(t *testing.T) {
	tx := NewTransactor(nil, false)
	boom := errors.New("boom")

	calls := 0
	err := tx.WithTransaction(context.Background(), func(context.Context) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestDailyIndexChanges(t *testing.T) {
	unique, plain := true, false
	idIndex := &mongo.IndexSpecification{Name: "_id_"}

	tests := []struct {
		name         string
		specs        []*mongo.IndexSpecification
		uniquePerDay bool
		drop, create bool
	}{
		{"missing, unique wanted", []*mongo.IndexSpecification{idIndex}, true, false, true},
		{"missing, plain wanted", nil, false, false, true},
		{"unique kept", []*mongo.IndexSpecification{idIndex, {Name: clientWorkoutDailyIndex, Unique: &unique}}, true, false, false},
		{"plain kept", []*mongo.IndexSpecification{{Name: clientWorkoutDailyIndex}}, false, false, false},
		{"explicit non-unique kept", []*mongo.IndexSpecification{{Name: clientWorkoutDailyIndex, Unique: &plain}}, false, false, false},
		{"plain to unique", []*mongo.IndexSpecification{{Name: clientWorkoutDailyIndex}}, true, true, true},
		{"unique to plain", []*mongo.IndexSpecification{{Name: clientWorkoutDailyIndex, Unique: &unique}}, false, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drop, create := dailyIndexChanges(tt.specs, tt.uniquePerDay)
			assert.Equal(t, tt.drop, drop)
			assert.Equal(t, tt.create, create)
		})
	}
}
