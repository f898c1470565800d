// internal/repository/mongo/workout_repo.go
package mongo

import (
	"alcyxob/fitness-scheduler/internal/domain"
	"alcyxob/fitness-scheduler/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const workoutCollectionName = "workouts"

// mongoWorkoutRepository implements repository.WorkoutRepository
type mongoWorkoutRepository struct {
	collection *mongo.Collection
}

// NewMongoWorkoutRepository creates a new Workout repository.
func NewMongoWorkoutRepository(db *mongo.Database) repository.WorkoutRepository {
	return &mongoWorkoutRepository{
		collection: db.Collection(workoutCollectionName),
	}
}

// Create inserts a new workout with its exercise lines.
func (r *mongoWorkoutRepository) Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error) {
	if workout.CreatorID == primitive.NilObjectID || workout.Name == "" {
		return primitive.NilObjectID, errors.New("workout requires creatorId and name")
	}
	// Generate new ID and timestamps
	workout.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	workout.CreatedAt = now
	workout.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, workout); err != nil {
		return primitive.NilObjectID, err
	}
	return workout.ID, nil
}

// GetByID retrieves a single workout by its ID.
func (r *mongoWorkoutRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error) {
	var workout domain.Workout
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&workout)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &workout, nil
}

// GetByIDs retrieves the workouts with the given ids, keyed by id.
func (r *mongoWorkoutRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]domain.Workout, error) {
	result := make(map[primitive.ObjectID]domain.Workout, len(ids))
	// Nothing to look up
	if len(ids) == 0 {
		return result, nil
	}
	workouts, err := r.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	for _, w := range workouts {
		result[w.ID] = w
	}
	return result, nil
}

// List retrieves workouts matching the filter, newest first.
func (r *mongoWorkoutRepository) List(ctx context.Context, filter repository.TemplateFilter) ([]domain.Workout, error) {
	return r.find(ctx, templateQuery(filter))
}

func (r *mongoWorkoutRepository) find(ctx context.Context, query bson.M) ([]domain.Workout, error) {
	// Sort by creation date (newest first)
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, query, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx) // Ensure cursor is closed

	var workouts []domain.Workout
	if err = cursor.All(ctx, &workouts); err != nil {
		return nil, err
	}
	return workouts, nil
}

// Update replaces the template fields and the full exercise list in a single
// document write, so readers see either the old or the new list.
func (r *mongoWorkoutRepository) Update(ctx context.Context, workout *domain.Workout) error {
	if workout.ID == primitive.NilObjectID {
		return errors.New("workout ID is required for update")
	}

	// Remember the version the caller loaded
	readAt := workout.UpdatedAt
	updatedAt := time.Now().UTC()
	// Note: creatorId and createdAt are never set here
	updateDoc := bson.M{
		"$set": bson.M{
			"name":        workout.Name,
			"description": workout.Description,
			"status":      workout.Status,
			"exercises":   workout.Exercises,
			"updatedAt":   updatedAt,
		},
	}

	// Only overwrite the version that was read.
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": workout.ID, "updatedAt": readAt}, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return staleOrMissing(ctx, r.collection, workout.ID)
	}
	workout.UpdatedAt = updatedAt
	return nil
}

// Delete removes the workout together with its embedded exercise lines.
func (r *mongoWorkoutRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// CountByExercise counts workouts with a line referencing the exercise.
func (r *mongoWorkoutRepository) CountByExercise(ctx context.Context, exerciseID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"exercises.exerciseId": exerciseID})
}

// templateQuery builds the filter shared by workout and program listings.
func templateQuery(filter repository.TemplateFilter) bson.M {
	query := bson.M{}
	if filter.CreatorID != nil {
		query["creatorId"] = *filter.CreatorID
	}
	// Empty status means any status
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	return query
}

// EnsureWorkoutIndexes creates necessary indexes. Call during startup.
func EnsureWorkoutIndexes(ctx context.Context, collection *mongo.Collection) {
	createIndexes(ctx, collection, []mongo.IndexModel{
		{
			// Trainer's own workouts, newest first
			Keys:    bson.D{{Key: "creatorId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
		{
			// Reference checks before an exercise is deleted
			Keys:    bson.D{{Key: "exercises.exerciseId", Value: 1}},
			Options: options.Index(),
		},
	})
}
