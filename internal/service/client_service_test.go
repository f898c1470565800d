package service

import (
	"alcyxob/fitness-scheduler/internal/domain"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListClientsByRole(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	mine, clientCaller := f.addClient(t, domain.SubscriptionActive, &f.trainer)
	f.addClient(t, domain.SubscriptionActive, nil)

	all, err := f.clients.ListClients(ctx, f.admin)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	own, err := f.clients.ListClients(ctx, f.trainer)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, mine.ID, own[0].ID)

	unassigned, err := f.clients.ListUnassignedClients(ctx, f.trainer)
	require.NoError(t, err)
	require.Len(t, unassigned, 1)
	assert.NotEqual(t, mine.ID, unassigned[0].ID)

	_, err = f.clients.ListClients(ctx, clientCaller)
	requireKind(t, err, KindAuthorization)
	_, err = f.clients.ListUnassignedClients(ctx, clientCaller)
	requireKind(t, err, KindAuthorization)
}

func TestUpdateSubscription(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	client, _ := f.addClient(t, domain.SubscriptionInactive, nil)
	pro := domain.PlanPro

	_, err := f.clients.UpdateSubscription(ctx, f.trainer, client.ID, domain.SubscriptionActive, &pro)
	requireKind(t, err, KindAuthorization)

	_, err = f.clients.UpdateSubscription(ctx, f.admin, client.ID, domain.SubscriptionActive, nil)
	requireKind(t, err, KindValidation)

	updated, err := f.clients.UpdateSubscription(ctx, f.admin, client.ID, domain.SubscriptionActive, &pro)
	require.NoError(t, err)
	assert.True(t, updated.HasActiveSubscription())
	require.NotNil(t, updated.SubscriptionPlan)
	assert.Equal(t, domain.PlanPro, *updated.SubscriptionPlan)

	// The client is now eligible for a trainer.
	_, err = f.trainers.AssignTrainer(ctx, f.trainer, client.ID, f.trainer.UserID)
	require.NoError(t, err)

	updated, err = f.clients.UpdateSubscription(ctx, f.admin, client.ID, domain.SubscriptionInactive, &pro)
	require.NoError(t, err)
	assert.Nil(t, updated.SubscriptionPlan)

	stored, err := f.store.Clients().GetByID(ctx, client.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionInactive, stored.SubscriptionStatus)
	assert.Nil(t, stored.SubscriptionPlan)
}

func TestGetClientVisibility(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	client, clientCaller := f.addClient(t, domain.SubscriptionActive, &f.trainer)
	_, stranger := f.addClient(t, domain.SubscriptionActive, nil)

	got, err := f.clients.GetClient(ctx, clientCaller, client.ID)
	require.NoError(t, err)
	assert.Equal(t, client.ID, got.ID)

	_, err = f.clients.GetClient(ctx, stranger, client.ID)
	requireKind(t, err, KindNotFound)
	_, err = f.clients.GetClient(ctx, f.addUser(t, domain.RoleTrainer), client.ID)
	requireKind(t, err, KindNotFound)
}
