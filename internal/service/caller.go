package service

import (
	"alcyxob/fitness-scheduler/internal/domain"
	"alcyxob/fitness-scheduler/internal/repository"
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Caller is the authenticated identity a request acts on behalf of.
type Caller struct {
	UserID primitive.ObjectID
	Role   domain.Role
}

func (c Caller) IsAdmin() bool   { return c.Role == domain.RoleAdmin }
func (c Caller) IsTrainer() bool { return c.Role == domain.RoleTrainer }
func (c Caller) IsClient() bool  { return c.Role == domain.RoleClient }

// canModify reports whether the caller may edit something created by creatorID.
func (c Caller) canModify(creatorID primitive.ObjectID) bool {
	return c.IsAdmin() || c.UserID == creatorID
}

// clientAccess resolves clients for the services that act on them.
type clientAccess struct {
	clientRepo repository.ClientRepository
	userRepo   repository.UserRepository
}

// getClient loads a client backed by a CLIENT-role account.
func (a clientAccess) getClient(ctx context.Context, clientID primitive.ObjectID) (*domain.Client, error) {
	client, err := a.clientRepo.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("get client: %w", err)
	}

	user, err := a.userRepo.GetByID(ctx, client.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("get client user: %w", err)
	}
	if !user.IsClient() {
		return nil, ErrClientNotFound
	}
	return client, nil
}

// visibleClient loads a client the caller may read. Clients outside the
// caller's scope are reported as not found.
func (a clientAccess) visibleClient(ctx context.Context, caller Caller, clientID primitive.ObjectID) (*domain.Client, error) {
	client, err := a.getClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	switch {
	case caller.IsAdmin():
		return client, nil
	case caller.IsTrainer() && client.IsManagedBy(caller.UserID):
		return client, nil
	case caller.IsClient() && client.UserID == caller.UserID:
		return client, nil
	}
	return nil, ErrClientNotFound
}

// managedClient loads a client the caller may schedule for: admins any,
// trainers only their own.
func (a clientAccess) managedClient(ctx context.Context, caller Caller, clientID primitive.ObjectID) (*domain.Client, error) {
	if !caller.IsAdmin() && !caller.IsTrainer() {
		return nil, ErrForbidden
	}
	client, err := a.getClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if caller.IsTrainer() && !client.IsManagedBy(caller.UserID) {
		return nil, ErrClientNotManaged
	}
	return client, nil
}
