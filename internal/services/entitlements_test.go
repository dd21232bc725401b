package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kseniabot/astro-backend/internal/apperr"
	"github.com/kseniabot/astro-backend/internal/models"
	"github.com/kseniabot/astro-backend/internal/store"
)

func seedUser(m *store.Memory, id string, sub *models.Subscription, freeRequests map[string]bool) {
	m.Seed(&models.UserProfile{
		TelegramID:   id,
		Status:       models.StatusIdle,
		Subscription: sub,
		FreeRequests: freeRequests,
	})
}

func TestEvaluateActiveSubscriptionIsNotFree(t *testing.T) {
	m := store.NewMemory()
	end := time.Now().UTC().Add(24 * time.Hour)
	seedUser(m, "42", &models.Subscription{Status: models.SubscriptionActive, EndDate: &end},
		map[string]bool{models.FeatureYesNoTarot: true})

	e := NewEntitlements(m)
	decision, err := e.Evaluate(context.Background(), "42", models.FeatureYesNoTarot)
	require.NoError(t, err)
	require.True(t, decision.CanUse)
	require.False(t, decision.IsFree)

	// No mutation on the subscription path: the trial stays available.
	u, err := m.Get(context.Background(), "42")
	require.NoError(t, err)
	require.True(t, u.FreeRequests[models.FeatureYesNoTarot])
}

func TestEvaluateSubscriptionWithoutEndDateIsActive(t *testing.T) {
	m := store.NewMemory()
	seedUser(m, "42", &models.Subscription{Status: models.SubscriptionActive}, nil)

	e := NewEntitlements(m)
	decision, err := e.Evaluate(context.Background(), "42", models.FeaturePersonality)
	require.NoError(t, err)
	require.True(t, decision.CanUse)
	require.False(t, decision.IsFree)
}

func TestEvaluateFreeRequestConsumedOnce(t *testing.T) {
	m := store.NewMemory()
	seedUser(m, "42", nil, map[string]bool{models.FeaturePersonality: true})

	e := NewEntitlements(m)

	first, err := e.Evaluate(context.Background(), "42", models.FeaturePersonality)
	require.NoError(t, err)
	require.True(t, first.CanUse)
	require.True(t, first.IsFree)

	second, err := e.Evaluate(context.Background(), "42", models.FeaturePersonality)
	require.NoError(t, err)
	require.False(t, second.CanUse)
}

func TestEvaluateDenialMutatesNothing(t *testing.T) {
	m := store.NewMemory()
	seedUser(m, "42", &models.Subscription{Status: models.SubscriptionCancelled},
		map[string]bool{models.FeatureMoonPhase: false})

	e := NewEntitlements(m)
	decision, err := e.Evaluate(context.Background(), "42", models.FeatureMoonPhase)
	require.NoError(t, err)
	require.False(t, decision.CanUse)

	u, err := m.Get(context.Background(), "42")
	require.NoError(t, err)
	require.Equal(t, models.SubscriptionCancelled, u.Subscription.Status)
	require.False(t, u.FreeRequests[models.FeatureMoonPhase])
}

func TestEvaluateExpiresLapsedSubscription(t *testing.T) {
	m := store.NewMemory()
	end := time.Now().UTC().Add(-time.Hour)
	seedUser(m, "42", &models.Subscription{Status: models.SubscriptionActive, EndDate: &end},
		map[string]bool{models.FeatureKarmaDestiny: true})

	e := NewEntitlements(m)
	decision, err := e.Evaluate(context.Background(), "42", models.FeatureKarmaDestiny)
	require.NoError(t, err)
	// Falls through to the free trial.
	require.True(t, decision.CanUse)
	require.True(t, decision.IsFree)

	u, err := m.Get(context.Background(), "42")
	require.NoError(t, err)
	require.Equal(t, models.SubscriptionExpired, u.Subscription.Status)
}

func TestEvaluateUnknownUser(t *testing.T) {
	e := NewEntitlements(store.NewMemory())
	_, err := e.Evaluate(context.Background(), "missing", models.FeatureYesNoTarot)
	require.Error(t, err)
	require.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestSubscribeOverwritesUnconditionally(t *testing.T) {
	m := store.NewMemory()
	oldEnd := time.Now().UTC().Add(-time.Hour)
	seedUser(m, "42", &models.Subscription{Status: models.SubscriptionExpired, EndDate: &oldEnd}, nil)

	e := NewEntitlements(m)
	sub, err := e.Subscribe(context.Background(), "42", SubscribeParams{PaymentMethod: "card"})
	require.NoError(t, err)

	require.Equal(t, models.SubscriptionActive, sub.Status)
	require.Equal(t, models.SubscriptionMonthly, sub.Type)
	require.False(t, sub.AutoRenew)
	require.NotEmpty(t, sub.PaymentID) // generated when the caller sends none
	require.NotNil(t, sub.StartDate)
	require.NotNil(t, sub.EndDate)
	require.Equal(t, sub.StartDate.AddDate(0, 1, 0), *sub.EndDate)
}

func TestSubscribeRejectsUnknownType(t *testing.T) {
	m := store.NewMemory()
	seedUser(m, "42", nil, nil)

	e := NewEntitlements(m)
	_, err := e.Subscribe(context.Background(), "42", SubscribeParams{Type: "weekly"})
	require.Error(t, err)
	require.Equal(t, apperr.Validation, apperr.KindOf(err))
}

func TestStatusLazilyExpires(t *testing.T) {
	m := store.NewMemory()
	end := time.Now().UTC().Add(-time.Minute)
	seedUser(m, "42", &models.Subscription{Status: models.SubscriptionActive, EndDate: &end}, nil)

	e := NewEntitlements(m)
	sub, isActive, err := e.Status(context.Background(), "42")
	require.NoError(t, err)
	require.False(t, isActive)
	require.Equal(t, models.SubscriptionExpired, sub.Status)

	u, err := m.Get(context.Background(), "42")
	require.NoError(t, err)
	require.Equal(t, models.SubscriptionExpired, u.Subscription.Status)
}

func TestCancelKeepsEndDate(t *testing.T) {
	m := store.NewMemory()
	end := time.Now().UTC().Add(240 * time.Hour)
	seedUser(m, "42", &models.Subscription{Status: models.SubscriptionActive, EndDate: &end, AutoRenew: true}, nil)

	e := NewEntitlements(m)
	sub, err := e.Cancel(context.Background(), "42")
	require.NoError(t, err)

	require.Equal(t, models.SubscriptionCancelled, sub.Status)
	require.NotNil(t, sub.CancelledAt)
	require.False(t, sub.AutoRenew)
	require.NotNil(t, sub.EndDate)
	require.True(t, sub.EndDate.Equal(end))

	// A cancelled-but-unexpired subscription still reads as inactive.
	_, isActive, err := e.Status(context.Background(), "42")
	require.NoError(t, err)
	require.False(t, isActive)
}

func TestCancelWithoutSubscription(t *testing.T) {
	m := store.NewMemory()
	seedUser(m, "42", nil, nil)

	e := NewEntitlements(m)
	_, err := e.Cancel(context.Background(), "42")
	require.Error(t, err)
	require.Equal(t, apperr.NotFound, apperr.KindOf(err))
}
