package memory

import (
	"alcyxob/fitness-scheduler/internal/domain"
	"alcyxob/fitness-scheduler/internal/repository"
	"context"
	"errors"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type clientRepo struct{ s *Store }

func (r *clientRepo) Create(ctx context.Context, client *domain.Client) (primitive.ObjectID, error) {
	if client.UserID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("client requires userId")
	}
	defer r.s.lock(ctx)()

	for _, c := range r.s.clients {
		if c.UserID == client.UserID {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}

	client.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	client.CreatedAt = now
	client.UpdatedAt = now
	if client.SubscriptionStatus == "" {
		client.SubscriptionStatus = domain.SubscriptionInactive
	}
	r.s.clients[client.ID] = cloneClient(*client)
	return client.ID, nil
}

func (r *clientRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Client, error) {
	defer r.s.lock(ctx)()
	c, ok := r.s.clients[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c = cloneClient(c)
	return &c, nil
}

func (r *clientRepo) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.Client, error) {
	defer r.s.lock(ctx)()
	for _, c := range r.s.clients {
		if c.UserID == userID {
			c = cloneClient(c)
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *clientRepo) filter(ctx context.Context, match func(c *domain.Client) bool) []domain.Client {
	defer r.s.lock(ctx)()
	clients := []domain.Client{}
	for _, c := range r.s.clients {
		if match(&c) {
			clients = append(clients, cloneClient(c))
		}
	}
	sort.Slice(clients, func(i, j int) bool {
		if clients[i].Name != clients[j].Name {
			return clients[i].Name < clients[j].Name
		}
		return clients[i].ID.Hex() < clients[j].ID.Hex()
	})
	return clients
}

func (r *clientRepo) List(ctx context.Context) ([]domain.Client, error) {
	return r.filter(ctx, func(*domain.Client) bool { return true }), nil
}

func (r *clientRepo) ListByTrainer(ctx context.Context, trainerID primitive.ObjectID) ([]domain.Client, error) {
	return r.filter(ctx, func(c *domain.Client) bool { return c.IsManagedBy(trainerID) }), nil
}

func (r *clientRepo) ListUnassigned(ctx context.Context) ([]domain.Client, error) {
	return r.filter(ctx, func(c *domain.Client) bool { return !c.HasTrainer() }), nil
}

func (r *clientRepo) SetTrainerIfUnassigned(ctx context.Context, clientID, trainerID primitive.ObjectID) error {
	defer r.s.lock(ctx)()
	c, ok := r.s.clients[clientID]
	if !ok || c.HasTrainer() {
		return repository.ErrNotFound
	}
	id := trainerID
	c.TrainerID = &id
	c.UpdatedAt = time.Now().UTC()
	r.s.clients[clientID] = c
	return nil
}

func (r *clientRepo) SetTrainer(ctx context.Context, clientID primitive.ObjectID, trainerID *primitive.ObjectID) error {
	defer r.s.lock(ctx)()
	c, ok := r.s.clients[clientID]
	if !ok {
		return repository.ErrNotFound
	}
	c.TrainerID = nil
	if trainerID != nil {
		id := *trainerID
		c.TrainerID = &id
	}
	c.UpdatedAt = time.Now().UTC()
	r.s.clients[clientID] = c
	return nil
}

func (r *clientRepo) UpdateSubscription(ctx context.Context, clientID primitive.ObjectID, status domain.SubscriptionStatus, plan *domain.SubscriptionPlan) error {
	defer r.s.lock(ctx)()
	c, ok := r.s.clients[clientID]
	if !ok {
		return repository.ErrNotFound
	}
	c.SubscriptionStatus = status
	c.SubscriptionPlan = nil
	if plan != nil {
		p := *plan
		c.SubscriptionPlan = &p
	}
	c.UpdatedAt = time.Now().UTC()
	r.s.clients[clientID] = c
	return nil
}
