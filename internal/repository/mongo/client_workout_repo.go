package mongo

import (
	"alcyxob/fitness-scheduler/internal/domain"
	"alcyxob/fitness-scheduler/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	clientWorkoutCollectionName = "client_workouts"
	clientWorkoutDailyIndex     = "client_workout_date"
)

// mongoClientWorkoutRepository implements repository.ClientWorkoutRepository
type mongoClientWorkoutRepository struct {
	collection *mongo.Collection
}

// NewMongoClientWorkoutRepository creates a new ClientWorkout repository backed by MongoDB.
func NewMongoClientWorkoutRepository(db *mongo.Database) repository.ClientWorkoutRepository {
	return &mongoClientWorkoutRepository{
		collection: db.Collection(clientWorkoutCollectionName),
	}
}

// Create inserts a new assignment. With the daily uniqueness index in place a
// second (client, workout, date) insert fails with ErrDuplicate.
func (r *mongoClientWorkoutRepository) Create(ctx context.Context, cw *domain.ClientWorkout) (primitive.ObjectID, error) {
	if cw.ClientID == primitive.NilObjectID || cw.WorkoutID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("assignment requires clientId and workoutId")
	}

	// Generate new ID and timestamps
	cw.ID = primitive.NewObjectID()
	cw.ScheduledDate = domain.DateOf(cw.ScheduledDate) // Store the calendar day only
	now := time.Now().UTC()
	cw.CreatedAt = now
	cw.UpdatedAt = now
	// Default status if not set
	if cw.Status == "" {
		cw.Status = domain.StatusScheduled
	}

	if _, err := r.collection.InsertOne(ctx, cw); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}
	return cw.ID, nil
}

// GetByID retrieves an assignment by its ID.
func (r *mongoClientWorkoutRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ClientWorkout, error) {
	var cw domain.ClientWorkout
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&cw)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &cw, nil
}

// ListByClient retrieves all assignments of a client ordered by date, then
// creation time.
func (r *mongoClientWorkoutRepository) ListByClient(ctx context.Context, clientID primitive.ObjectID) ([]domain.ClientWorkout, error) {
	// Sort by scheduled date (ascending), ties by creation time
	findOptions := options.Find().SetSort(bson.D{{Key: "scheduledDate", Value: 1}, {Key: "createdAt", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"clientId": clientID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx) // Ensure cursor is closed

	var assignments []domain.ClientWorkout
	if err = cursor.All(ctx, &assignments); err != nil {
		return nil, err
	}
	return assignments, nil
}

// UpdateStatus persists status, completedAt and notes.
func (r *mongoClientWorkoutRepository) UpdateStatus(ctx context.Context, cw *domain.ClientWorkout) error {
	if cw.ID == primitive.NilObjectID {
		return errors.New("assignment ID is required for update")
	}

	cw.UpdatedAt = time.Now().UTC()
	// Note: clientId, workoutId and scheduledDate are never set here
	update := bson.M{
		"$set": bson.M{
			"status":      cw.Status,
			"completedAt": cw.CompletedAt,
			"notes":       cw.Notes,
			"updatedAt":   cw.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": cw.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes an assignment.
func (r *mongoClientWorkoutRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// CountByWorkout counts assignments referencing a workout, whatever their status.
func (r *mongoClientWorkoutRepository) CountByWorkout(ctx context.Context, workoutID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"workoutId": workoutID})
}

// EnsureClientWorkoutIndexes creates necessary indexes for the client_workouts
// collection. uniquePerDay decides whether the (client, workout, date) index is
// a unique constraint. An existing daily index is rebuilt only when its unique
// flag disagrees with the policy. Failing to build the unique index is an error.
func EnsureClientWorkoutIndexes(ctx context.Context, collection *mongo.Collection, uniquePerDay bool) error {
	createIndexes(ctx, collection, []mongo.IndexModel{
		{
			// Calendar and history lookups
			Keys:    bson.D{{Key: "clientId", Value: 1}, {Key: "scheduledDate", Value: 1}},
			Options: options.Index(),
		},
		{
			// Reference checks before a workout is deleted
			Keys:    bson.D{{Key: "workoutId", Value: 1}},
			Options: options.Index(),
		},
	})

	// Inspect what is already there before touching the daily index
	specs, err := collection.Indexes().ListSpecifications(ctx)
	if err != nil {
		return fmt.Errorf("list %s indexes: %w", collection.Name(), err)
	}
	drop, create := dailyIndexChanges(specs, uniquePerDay)
	if drop {
		log.WithFields(log.Fields{"index": clientWorkoutDailyIndex, "unique": uniquePerDay}).Info("daily assignment policy changed, rebuilding index")
		if _, err := collection.Indexes().DropOne(ctx, clientWorkoutDailyIndex); err != nil {
			return fmt.Errorf("drop index %s: %w", clientWorkoutDailyIndex, err)
		}
	}
	if !create {
		return nil
	}

	_, err = collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "clientId", Value: 1},
			{Key: "workoutId", Value: 1},
			{Key: "scheduledDate", Value: 1},
		},
		Options: options.Index().SetName(clientWorkoutDailyIndex).SetUnique(uniquePerDay),
	})
	if err != nil {
		if uniquePerDay {
			// Most likely existing duplicate rows.
			return fmt.Errorf("create unique index %s: %w", clientWorkoutDailyIndex, err)
		}
		log.WithField("collection", collection.Name()).Warnf("failed to create index %s: %v", clientWorkoutDailyIndex, err)
	}
	return nil
}

// dailyIndexChanges compares the existing indexes with the wanted policy and
// reports whether the daily index must be dropped and whether it must be created.
func dailyIndexChanges(specs []*mongo.IndexSpecification, uniquePerDay bool) (drop, create bool) {
	for _, spec := range specs {
		if spec.Name != clientWorkoutDailyIndex {
			continue
		}
		unique := spec.Unique != nil && *spec.Unique
		if unique == uniquePerDay {
			return false, false
		}
		return true, true
	}
	return false, true
}
