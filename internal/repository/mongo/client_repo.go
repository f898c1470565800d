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

const clientCollectionName = "clients"

// mongoClientRepository implements repository.ClientRepository
type mongoClientRepository struct {
	collection *mongo.Collection
}

// NewMongoClientRepository creates a new Client repository backed by MongoDB.
func NewMongoClientRepository(db *mongo.Database) repository.ClientRepository {
	return &mongoClientRepository{
		collection: db.Collection(clientCollectionName),
	}
}

// Create inserts a new client profile for an existing user account.
func (r *mongoClientRepository) Create(ctx context.Context, client *domain.Client) (primitive.ObjectID, error) {
	if client.UserID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("client requires userId")
	}
	// Generate new ID and timestamps
	client.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	client.CreatedAt = now
	client.UpdatedAt = now
	// New profiles start without a subscription
	if client.SubscriptionStatus == "" {
		client.SubscriptionStatus = domain.SubscriptionInactive
	}

	if _, err := r.collection.InsertOne(ctx, client); err != nil {
		// userId is unique, so a second profile for the same user lands here
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}
	return client.ID, nil
}

func (r *mongoClientRepository) findOne(ctx context.Context, filter bson.M) (*domain.Client, error) {
	var client domain.Client
	if err := r.collection.FindOne(ctx, filter).Decode(&client); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &client, nil
}

// GetByID retrieves a client by its ID.
func (r *mongoClientRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Client, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetByUserID retrieves the client profile linked to a user account.
func (r *mongoClientRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.Client, error) {
	return r.findOne(ctx, bson.M{"userId": userID})
}

func (r *mongoClientRepository) find(ctx context.Context, filter bson.M) ([]domain.Client, error) {
	// Sort by name (ascending)
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx) // Ensure cursor is closed

	var clients []domain.Client
	if err = cursor.All(ctx, &clients); err != nil {
		return nil, err
	}
	return clients, nil
}

// List retrieves every client profile.
func (r *mongoClientRepository) List(ctx context.Context) ([]domain.Client, error) {
	return r.find(ctx, bson.M{})
}

// ListByTrainer retrieves the clients assigned to a trainer.
func (r *mongoClientRepository) ListByTrainer(ctx context.Context, trainerID primitive.ObjectID) ([]domain.Client, error) {
	return r.find(ctx, bson.M{"trainerId": trainerID})
}

// ListUnassigned retrieves the clients that have no trainer yet.
func (r *mongoClientRepository) ListUnassigned(ctx context.Context) ([]domain.Client, error) {
	// {trainerId: null} matches both null and missing fields
	return r.find(ctx, bson.M{"trainerId": nil})
}

// SetTrainerIfUnassigned links a trainer only when the client has none.
// ErrNotFound covers both a missing client and one already taken.
func (r *mongoClientRepository) SetTrainerIfUnassigned(ctx context.Context, clientID, trainerID primitive.ObjectID) error {
	// Match only while the slot is still free
	filter := bson.M{"_id": clientID, "trainerId": nil}
	update := bson.M{"$set": bson.M{"trainerId": trainerID, "updatedAt": time.Now().UTC()}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SetTrainer links or, with a nil trainerID, unlinks a trainer unconditionally.
func (r *mongoClientRepository) SetTrainer(ctx context.Context, clientID primitive.ObjectID, trainerID *primitive.ObjectID) error {
	update := bson.M{"$set": bson.M{"trainerId": trainerID, "updatedAt": time.Now().UTC()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": clientID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// UpdateSubscription sets the subscription status and plan.
func (r *mongoClientRepository) UpdateSubscription(ctx context.Context, clientID primitive.ObjectID, status domain.SubscriptionStatus, plan *domain.SubscriptionPlan) error {
	set := bson.M{"subscriptionStatus": status, "updatedAt": time.Now().UTC()}
	update := bson.M{"$set": set}
	if plan != nil {
		set["subscriptionPlan"] = *plan
	} else {
		// No plan given: remove any previous one
		update["$unset"] = bson.M{"subscriptionPlan": ""}
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": clientID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureClientIndexes creates necessary indexes for the clients collection.
func EnsureClientIndexes(ctx context.Context, collection *mongo.Collection) {
	createIndexes(ctx, collection, []mongo.IndexModel{
		{
			// One client profile per user account
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			// Trainer roster lookups
			Keys:    bson.D{{Key: "trainerId", Value: 1}},
			Options: options.Index(),
		},
	})
}
