package mongo

import (
	"alcyxob/fitness-scheduler/internal/domain"
	"alcyxob/fitness-scheduler/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const clientProgramCollectionName = "client_workout_programs"

// mongoClientProgramRepository implements repository.ClientProgramRepository
type mongoClientProgramRepository struct {
	collection *mongo.Collection
}

// NewMongoClientProgramRepository creates a new enrollment repository backed by MongoDB.
func NewMongoClientProgramRepository(db *mongo.Database) repository.ClientProgramRepository {
	return &mongoClientProgramRepository{
		collection: db.Collection(clientProgramCollectionName),
	}
}

// Create inserts a new enrollment. The start date is normalized to midnight UTC.
func (r *mongoClientProgramRepository) Create(ctx context.Context, enrollment *domain.ClientWorkoutProgram) (primitive.ObjectID, error) {
	if enrollment.ClientID == primitive.NilObjectID || enrollment.ProgramID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("enrollment requires clientId and programId")
	}

	// Generate new ID and timestamps
	enrollment.ID = primitive.NewObjectID()
	enrollment.StartDate = domain.DateOf(enrollment.StartDate)
	now := time.Now().UTC()
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now
	// Default status if not set
	if enrollment.Status == "" {
		enrollment.Status = domain.EnrollmentActive
	}

	if _, err := r.collection.InsertOne(ctx, enrollment); err != nil {
		return primitive.NilObjectID, err
	}
	return enrollment.ID, nil
}

// GetByID retrieves an enrollment by its ID.
func (r *mongoClientProgramRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ClientWorkoutProgram, error) {
	var enrollment domain.ClientWorkoutProgram
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&enrollment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &enrollment, nil
}

// ListByClient retrieves a client's enrollments.
func (r *mongoClientProgramRepository) ListByClient(ctx context.Context, clientID primitive.ObjectID) ([]domain.ClientWorkoutProgram, error) {
	// Sort by start date, oldest first; ties by creation time
	findOptions := options.Find().SetSort(bson.D{{Key: "startDate", Value: 1}, {Key: "createdAt", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"clientId": clientID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx) // Ensure cursor is closed

	var enrollments []domain.ClientWorkoutProgram
	if err = cursor.All(ctx, &enrollments); err != nil {
		return nil, err
	}
	return enrollments, nil
}

// maxOverrideAttempts bounds the set/push retry loop of SetDayOverride. Each
// miss means another writer added or removed the same day in between.
const maxOverrideAttempts = 5

// SetDayOverride changes one array element per write so concurrent overrides
// of different days never overwrite each other, with or without transactions.
func (r *mongoClientProgramRepository) SetDayOverride(ctx context.Context, enrollmentID primitive.ObjectID, dayNumber int, date time.Time) (*domain.ClientWorkoutProgram, error) {
	date = domain.DateOf(date)
	after := options.FindOneAndUpdate().SetReturnDocument(options.After)

	for attempt := 0; attempt < maxOverrideAttempts; attempt++ {
		now := time.Now().UTC()

		// Existing override of the day: move it, keeping its id.
		var enrollment domain.ClientWorkoutProgram
		err := r.collection.FindOneAndUpdate(ctx,
			bson.M{"_id": enrollmentID, "dayOverrides.dayNumber": dayNumber},
			bson.M{"$set": bson.M{"dayOverrides.$.scheduledDate": date, "updatedAt": now}},
			after,
		).Decode(&enrollment)
		if err == nil {
			return &enrollment, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, err
		}

		// No override yet: append one, but only while the day is still absent.
		override := domain.ProgramDayAssignment{ID: primitive.NewObjectID(), DayNumber: dayNumber, ScheduledDate: date}
		err = r.collection.FindOneAndUpdate(ctx,
			bson.M{"_id": enrollmentID, "dayOverrides.dayNumber": bson.M{"$ne": dayNumber}},
			bson.M{"$push": bson.M{"dayOverrides": override}, "$set": bson.M{"updatedAt": now}},
			after,
		).Decode(&enrollment)
		if err == nil {
			return &enrollment, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, err
		}

		// Neither matched: the enrollment is gone, or the day appeared between the two writes.
		n, err := r.collection.CountDocuments(ctx, bson.M{"_id": enrollmentID})
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, repository.ErrNotFound
		}
	}
	return nil, fmt.Errorf("override of day %d kept changing concurrently", dayNumber)
}

// ClearDayOverride pulls the override of one day. The bool reports whether
// there was one to remove.
func (r *mongoClientProgramRepository) ClearDayOverride(ctx context.Context, enrollmentID primitive.ObjectID, dayNumber int) (*domain.ClientWorkoutProgram, bool, error) {
	var enrollment domain.ClientWorkoutProgram
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": enrollmentID, "dayOverrides.dayNumber": dayNumber},
		bson.M{
			"$pull": bson.M{"dayOverrides": bson.M{"dayNumber": dayNumber}},
			"$set":  bson.M{"updatedAt": time.Now().UTC()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&enrollment)
	if err == nil {
		return &enrollment, true, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, err
	}

	// Nothing pulled; tell a missing enrollment from a missing override.
	current, err := r.GetByID(ctx, enrollmentID)
	if err != nil {
		return nil, false, err
	}
	return current, false, nil
}

// Delete removes an enrollment and its overrides.
func (r *mongoClientProgramRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// CountByProgram counts enrollments referencing a program.
func (r *mongoClientProgramRepository) CountByProgram(ctx context.Context, programID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"programId": programID})
}

// EnsureClientProgramIndexes creates necessary indexes. Call during startup.
func EnsureClientProgramIndexes(ctx context.Context, collection *mongo.Collection) {
	createIndexes(ctx, collection, []mongo.IndexModel{
		{
			// Matches the ListByClient sort
			Keys:    bson.D{{Key: "clientId", Value: 1}, {Key: "startDate", Value: 1}},
			Options: options.Index(),
		},
		{
			// Referential checks before deleting a program
			Keys:    bson.D{{Key: "programId", Value: 1}},
			Options: options.Index(),
		},
	})
}
