package service

import (
	"alcyxob/fitness-scheduler/internal/domain"
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAssignTrainer(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	client, _ := f.addClient(t, domain.SubscriptionActive, nil)

	updated, err := f.trainers.AssignTrainer(ctx, f.trainer, client.ID, primitive.NilObjectID)
	require.NoError(t, err)
	require.NotNil(t, updated.TrainerID)
	assert.Equal(t, f.trainer.UserID, *updated.TrainerID)

	other := f.addUser(t, domain.RoleTrainer)
	_, err = f.trainers.AssignTrainer(ctx, other, client.ID, primitive.NilObjectID)
	requireKind(t, err, KindEligibility)
	assert.ErrorIs(t, err, ErrClientHasTrainer)

	// Admin assignment is still an assignment, not a reassignment.
	_, err = f.trainers.AssignTrainer(ctx, f.admin, client.ID, other.UserID)
	assert.ErrorIs(t, err, ErrClientHasTrainer)
}

func TestAssignTrainerEligibility(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	for _, status := range domain.AllSubscriptionStatuses {
		if status == domain.SubscriptionActive {
			continue
		}
		client, _ := f.addClient(t, status, nil)
		_, err := f.trainers.AssignTrainer(ctx, f.trainer, client.ID, primitive.NilObjectID)
		assert.ErrorIs(t, err, ErrInactiveSubscription, "status %s", status)
	}

	client, clientCaller := f.addClient(t, domain.SubscriptionActive, nil)
	_, err := f.trainers.AssignTrainer(ctx, clientCaller, client.ID, f.trainer.UserID)
	requireKind(t, err, KindAuthorization)

	_, err = f.trainers.AssignTrainer(ctx, f.admin, client.ID, primitive.NilObjectID)
	requireKind(t, err, KindValidation)

	// The named user must be a trainer.
	_, err = f.trainers.AssignTrainer(ctx, f.admin, client.ID, f.admin.UserID)
	requireKind(t, err, KindNotFound)

	// Trainers can only assign themselves.
	other := f.addUser(t, domain.RoleTrainer)
	_, err = f.trainers.AssignTrainer(ctx, f.trainer, client.ID, other.UserID)
	requireKind(t, err, KindAuthorization)
}

func TestAssignTrainerConcurrentRequestsHaveOneWinner(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	client, _ := f.addClient(t, domain.SubscriptionActive, nil)

	const n = 10
	trainers := make([]Caller, n)
	for i := range trainers {
		trainers[i] = f.addUser(t, domain.RoleTrainer)
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range trainers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.trainers.AssignTrainer(ctx, trainers[i], client.ID, primitive.NilObjectID)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		assert.ErrorIs(t, err, ErrClientHasTrainer)
	}
	assert.Equal(t, 1, winners)
}

func TestReassignTrainerIgnoresEligibility(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	other := f.addUser(t, domain.RoleTrainer)

	for _, status := range domain.AllSubscriptionStatuses {
		client, _ := f.addClient(t, status, &f.trainer)
		updated, err := f.trainers.ReassignTrainer(ctx, f.admin, client.ID, other.UserID)
		require.NoError(t, err, "status %s", status)
		assert.Equal(t, other.UserID, *updated.TrainerID)
	}

	client, _ := f.addClient(t, domain.SubscriptionActive, nil)
	updated, err := f.trainers.ReassignTrainer(ctx, f.admin, client.ID, other.UserID)
	require.NoError(t, err)
	assert.Equal(t, other.UserID, *updated.TrainerID)

	_, err = f.trainers.ReassignTrainer(ctx, f.trainer, client.ID, f.trainer.UserID)
	requireKind(t, err, KindAuthorization)
}

func TestUnassignTrainer(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	client, _ := f.addClient(t, domain.SubscriptionActive, &f.trainer)
	other := f.addUser(t, domain.RoleTrainer)

	_, err := f.trainers.UnassignTrainer(ctx, other, client.ID)
	requireKind(t, err, KindAuthorization)
	assert.ErrorIs(t, err, ErrNotAssignedTrainer)

	updated, err := f.trainers.UnassignTrainer(ctx, f.trainer, client.ID)
	require.NoError(t, err)
	assert.Nil(t, updated.TrainerID)

	stored, err := f.store.Clients().GetByID(ctx, client.ID)
	require.NoError(t, err)
	assert.False(t, stored.HasTrainer())

	// Admins may unassign too; an unassigned client is left as is.
	updated, err = f.trainers.UnassignTrainer(ctx, f.admin, client.ID)
	require.NoError(t, err)
	assert.Nil(t, updated.TrainerID)
}
