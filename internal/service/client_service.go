package service

import (
	"alcyxob/fitness-scheduler/internal/domain"
	"alcyxob/fitness-scheduler/internal/repository"
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ClientService lists client profiles and manages their subscriptions.
type ClientService interface {
	ListClients(ctx context.Context, caller Caller) ([]domain.Client, error)
	ListUnassignedClients(ctx context.Context, caller Caller) ([]domain.Client, error)
	GetClient(ctx context.Context, caller Caller, clientID primitive.ObjectID) (*domain.Client, error)
	UpdateSubscription(ctx context.Context, caller Caller, clientID primitive.ObjectID, status domain.SubscriptionStatus, plan *domain.SubscriptionPlan) (*domain.Client, error)
}

// clientService implements the ClientService interface.
type clientService struct {
	clients clientAccess
}

// NewClientService creates a new instance of clientService.
func NewClientService(userRepo repository.UserRepository, clientRepo repository.ClientRepository) ClientService {
	return &clientService{clients: clientAccess{clientRepo: clientRepo, userRepo: userRepo}}
}

// ListClients returns every client for admins and their own clients for trainers.
func (s *clientService) ListClients(ctx context.Context, caller Caller) ([]domain.Client, error) {
	switch {
	case caller.IsAdmin():
		return s.clients.clientRepo.List(ctx)
	case caller.IsTrainer():
		return s.clients.clientRepo.ListByTrainer(ctx, caller.UserID)
	}
	return nil, ErrForbidden
}

// ListUnassignedClients returns clients without a trainer.
func (s *clientService) ListUnassignedClients(ctx context.Context, caller Caller) ([]domain.Client, error) {
	if !caller.IsAdmin() && !caller.IsTrainer() {
		return nil, ErrForbidden
	}
	return s.clients.clientRepo.ListUnassigned(ctx)
}

func (s *clientService) GetClient(ctx context.Context, caller Caller, clientID primitive.ObjectID) (*domain.Client, error) {
	return s.clients.visibleClient(ctx, caller, clientID)
}

// UpdateSubscription sets a client's subscription. An ACTIVE subscription
// needs a plan; INACTIVE drops it.
func (s *clientService) UpdateSubscription(ctx context.Context, caller Caller, clientID primitive.ObjectID, status domain.SubscriptionStatus, plan *domain.SubscriptionPlan) (*domain.Client, error) {
	if !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	if _, err := domain.ParseSubscriptionStatus(string(status)); err != nil {
		return nil, validationErrorf("%v", err)
	}
	if plan != nil {
		if _, err := domain.ParseSubscriptionPlan(string(*plan)); err != nil {
			return nil, validationErrorf("%v", err)
		}
	}
	switch status {
	case domain.SubscriptionActive:
		if plan == nil {
			return nil, validationErrorf("an active subscription requires a plan")
		}
	case domain.SubscriptionInactive:
		plan = nil
	}

	client, err := s.clients.getClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if err := s.clients.clientRepo.UpdateSubscription(ctx, clientID, status, plan); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("update subscription: %w", err)
	}
	client.SubscriptionStatus = status
	client.SubscriptionPlan = plan

	log.WithFields(log.Fields{"client": clientID.Hex(), "status": status}).Info("subscription updated")
	return client, nil
}
