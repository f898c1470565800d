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

const programCollectionName = "workout_programs"

// mongoProgramRepository implements repository.ProgramRepository
type mongoProgramRepository struct {
	collection *mongo.Collection
}

// NewMongoProgramRepository creates a new WorkoutProgram repository.
func NewMongoProgramRepository(db *mongo.Database) repository.ProgramRepository {
	return &mongoProgramRepository{
		collection: db.Collection(programCollectionName),
	}
}

// Create inserts a new program with its days.
func (r *mongoProgramRepository) Create(ctx context.Context, program *domain.WorkoutProgram) (primitive.ObjectID, error) {
	if program.CreatorID == primitive.NilObjectID || program.Name == "" {
		return primitive.NilObjectID, errors.New("program requires creatorId and name")
	}
	// Generate new ID and timestamps
	program.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	program.CreatedAt = now
	program.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, program); err != nil {
		return primitive.NilObjectID, err
	}
	return program.ID, nil
}

// GetByID retrieves a single program by its ID.
func (r *mongoProgramRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutProgram, error) {
	var program domain.WorkoutProgram
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&program)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &program, nil
}

// GetByIDs retrieves the programs with the given ids, keyed by id.
func (r *mongoProgramRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]domain.WorkoutProgram, error) {
	result := make(map[primitive.ObjectID]domain.WorkoutProgram, len(ids))
	// Nothing to look up
	if len(ids) == 0 {
		return result, nil
	}
	programs, err := r.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	for _, p := range programs {
		result[p.ID] = p
	}
	return result, nil
}

// List retrieves programs matching the filter, newest first.
func (r *mongoProgramRepository) List(ctx context.Context, filter repository.TemplateFilter) ([]domain.WorkoutProgram, error) {
	return r.find(ctx, templateQuery(filter))
}

func (r *mongoProgramRepository) find(ctx context.Context, query bson.M) ([]domain.WorkoutProgram, error) {
	// Sort by creation date (newest first)
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, query, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx) // Ensure cursor is closed

	var programs []domain.WorkoutProgram
	if err = cursor.All(ctx, &programs); err != nil {
		return nil, err
	}
	return programs, nil
}

// Update replaces the program fields and all of its days in one document write.
func (r *mongoProgramRepository) Update(ctx context.Context, program *domain.WorkoutProgram) error {
	if program.ID == primitive.NilObjectID {
		return errors.New("program ID is required for update")
	}

	// Remember the version the caller loaded
	readAt := program.UpdatedAt
	updatedAt := time.Now().UTC()
	// Note: creatorId and createdAt are never set here
	updateDoc := bson.M{
		"$set": bson.M{
			"name":        program.Name,
			"description": program.Description,
			"status":      program.Status,
			"totalDays":   program.TotalDays,
			"days":        program.Days,
			"updatedAt":   updatedAt,
		},
	}

	// Only overwrite the version that was read.
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": program.ID, "updatedAt": readAt}, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return staleOrMissing(ctx, r.collection, program.ID)
	}
	program.UpdatedAt = updatedAt
	return nil
}

// Delete removes the program together with its embedded days.
func (r *mongoProgramRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// CountByExercise counts programs whose days reference the exercise.
func (r *mongoProgramRepository) CountByExercise(ctx context.Context, exerciseID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"days.exercises.exerciseId": exerciseID})
}

// EnsureProgramIndexes creates necessary indexes. Call during startup.
func EnsureProgramIndexes(ctx context.Context, collection *mongo.Collection) {
	createIndexes(ctx, collection, []mongo.IndexModel{
		{
			// Trainer's own programs, newest first
			Keys:    bson.D{{Key: "creatorId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
		{
			// Reference checks before an exercise is deleted
			Keys:    bson.D{{Key: "days.exercises.exerciseId", Value: 1}},
			Options: options.Index(),
		},
	})
}
