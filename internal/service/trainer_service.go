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

// TrainerService manages the trainer-client relationship.
type TrainerService interface {
	// AssignTrainer gives an unassigned, subscribed client a trainer. Trainers
	// assign themselves; admins name the trainer.
	AssignTrainer(ctx context.Context, caller Caller, clientID, trainerID primitive.ObjectID) (*domain.Client, error)
	// UnassignTrainer removes the client's trainer. Trainers may only release
	// their own clients.
	UnassignTrainer(ctx context.Context, caller Caller, clientID primitive.ObjectID) (*domain.Client, error)
	// ReassignTrainer moves a client to any trainer. Admin only; no
	// eligibility checks apply.
	ReassignTrainer(ctx context.Context, caller Caller, clientID, trainerID primitive.ObjectID) (*domain.Client, error)
}

// trainerService implements the TrainerService interface.
type trainerService struct {
	clients clientAccess
	tx      repository.Transactor
}

// NewTrainerService creates a new instance of trainerService.
func NewTrainerService(
	userRepo repository.UserRepository,
	clientRepo repository.ClientRepository,
	tx repository.Transactor,
) TrainerService {
	return &trainerService{
		clients: clientAccess{clientRepo: clientRepo, userRepo: userRepo},
		tx:      tx,
	}
}

// getTrainer verifies trainerID names a TRAINER account.
func (s *trainerService) getTrainer(ctx context.Context, trainerID primitive.ObjectID) (*domain.User, error) {
	trainer, err := s.clients.userRepo.GetByID(ctx, trainerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTrainerNotFound
		}
		return nil, fmt.Errorf("get trainer: %w", err)
	}
	if !trainer.IsTrainer() {
		return nil, ErrTrainerNotFound
	}
	return trainer, nil
}

func (s *trainerService) AssignTrainer(ctx context.Context, caller Caller, clientID, trainerID primitive.ObjectID) (*domain.Client, error) {
	switch {
	case caller.IsTrainer():
		if trainerID != primitive.NilObjectID && trainerID != caller.UserID {
			return nil, ErrForbidden
		}
		trainerID = caller.UserID
	case caller.IsAdmin():
		if trainerID == primitive.NilObjectID {
			return nil, validationErrorf("trainerId is required")
		}
	default:
		return nil, ErrForbidden
	}

	var updated *domain.Client
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.getTrainer(ctx, trainerID); err != nil {
			return err
		}
		client, err := s.clients.getClient(ctx, clientID)
		if err != nil {
			return err
		}
		if client.HasTrainer() {
			return ErrClientHasTrainer
		}
		if !client.HasActiveSubscription() {
			return ErrInactiveSubscription
		}

		// Conditional write: loses cleanly to a concurrent assignment.
		if err := s.clients.clientRepo.SetTrainerIfUnassigned(ctx, clientID, trainerID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrClientHasTrainer
			}
			return fmt.Errorf("set trainer: %w", err)
		}
		client.TrainerID = &trainerID
		updated = client
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"client": clientID.Hex(), "trainer": trainerID.Hex()}).Info("trainer assigned")
	return updated, nil
}

func (s *trainerService) UnassignTrainer(ctx context.Context, caller Caller, clientID primitive.ObjectID) (*domain.Client, error) {
	if !caller.IsAdmin() && !caller.IsTrainer() {
		return nil, ErrForbidden
	}

	client, err := s.clients.getClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if caller.IsTrainer() && !client.IsManagedBy(caller.UserID) {
		return nil, ErrNotAssignedTrainer
	}
	if !client.HasTrainer() {
		return client, nil
	}

	if err := s.clients.clientRepo.SetTrainer(ctx, clientID, nil); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("clear trainer: %w", err)
	}
	client.TrainerID = nil

	log.WithField("client", clientID.Hex()).Info("trainer unassigned")
	return client, nil
}

func (s *trainerService) ReassignTrainer(ctx context.Context, caller Caller, clientID, trainerID primitive.ObjectID) (*domain.Client, error) {
	if !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	if trainerID == primitive.NilObjectID {
		return nil, validationErrorf("trainerId is required")
	}

	if _, err := s.getTrainer(ctx, trainerID); err != nil {
		return nil, err
	}
	client, err := s.clients.getClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	if err := s.clients.clientRepo.SetTrainer(ctx, clientID, &trainerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("set trainer: %w", err)
	}
	client.TrainerID = &trainerID

	log.WithFields(log.Fields{"client": clientID.Hex(), "trainer": trainerID.Hex()}).Info("trainer reassigned")
	return client, nil
}
