package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingo-hub/lingo-learning-backend/internal/domain/learner"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/shared"
)

func newActivateSubscriptionFixture(t *testing.T) (*ActivateSubscriptionHandler, *fakeStore, *fakePublisher) {
	t.Helper()

	store := newFakeStore()
	publisher := &fakePublisher{}

	l, err := learner.NewLearner(learner.NewLearnerParams{ID: "l1", DisplayName: "Anna"})
	require.NoError(t, err)
	store.putLearner(l)

	handler := NewActivateSubscriptionHandler(
		&fakeLearnerRepo{store: store}, publisher, learner.DefaultPlanCatalog(), nil,
	)
	return handler, store, publisher
}

func TestActivateSubscription_MonthlyPlan(t *testing.T) {
	handler, store, publisher := newActivateSubscriptionFixture(t)

	activatedAt := at(2025, 6, 1)
	result, err := handler.Handle(context.Background(), ActivateSubscriptionCommand{
		LearnerID: "l1", Plan: "monthly", ActivatedAt: activatedAt,
	})
	require.NoError(t, err)

	assert.Equal(t, "monthly", result.Plan)
	require.NotNil(t, result.ExpiresAt)
	assert.Equal(t, activatedAt.AddDate(0, 0, 30), *result.ExpiresAt)

	stored := store.learnerByID("l1")
	assert.Equal(t, learner.SubscriptionPremium, stored.Subscription.Status)
	assert.Equal(t, learner.PlanMonthly, stored.Subscription.Plan)

	events := publisher.published(shared.EventSubscriptionActivated)
	require.Len(t, events, 1)
}

func TestActivateSubscription_LifetimeHasNoExpiry(t *testing.T) {
	handler, store, _ := newActivateSubscriptionFixture(t)

	result, err := handler.Handle(context.Background(), ActivateSubscriptionCommand{
		LearnerID: "l1", Plan: "lifetime", ActivatedAt: at(2025, 6, 1),
	})
	require.NoError(t, err)

	assert.Nil(t, result.ExpiresAt)
	assert.Nil(t, store.learnerByID("l1").Subscription.ExpiresAt)
}

func TestActivateSubscription_RenewalRestartsTerm(t *testing.T) {
	handler, store, _ := newActivateSubscriptionFixture(t)

	_, err := handler.Handle(context.Background(), ActivateSubscriptionCommand{
		LearnerID: "l1", Plan: "monthly", ActivatedAt: at(2025, 6, 1),
	})
	require.NoError(t, err)

	result, err := handler.Handle(context.Background(), ActivateSubscriptionCommand{
		LearnerID: "l1", Plan: "yearly", ActivatedAt: at(2025, 6, 15),
	})
	require.NoError(t, err)

	require.NotNil(t, result.ExpiresAt)
	assert.Equal(t, at(2025, 6, 15).AddDate(0, 0, 365), *result.ExpiresAt)
	assert.Equal(t, learner.PlanYearly, store.learnerByID("l1").Subscription.Plan)
}

func TestActivateSubscription_UnknownPlan(t *testing.T) {
	handler, _, _ := newActivateSubscriptionFixture(t)

	_, err := handler.Handle(context.Background(), ActivateSubscriptionCommand{
		LearnerID: "l1", Plan: "weekly",
	})
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
}

func TestActivateSubscription_LearnerNotFound(t *testing.T) {
	handler, _, _ := newActivateSubscriptionFixture(t)

	_, err := handler.Handle(context.Background(), ActivateSubscriptionCommand{
		LearnerID: "ghost", Plan: "monthly",
	})
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}
