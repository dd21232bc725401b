package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/kseniabot/astro-backend/internal/apperr"
	"github.com/kseniabot/astro-backend/internal/models"
	"github.com/kseniabot/astro-backend/internal/store"
)

// Entitlements decides whether a gated feature may be used and owns every
// mutation of the subscription and freeRequests fields.
type Entitlements struct {
	store store.Profiles
}

func NewEntitlements(s store.Profiles) *Entitlements {
	return &Entitlements{store: s}
}

// Decision is the gate verdict. IsFree marks a granted one-shot trial.
type Decision struct {
	CanUse bool `json:"canUse"`
	IsFree bool `json:"isFree"`
}

// Evaluate applies the gate rules in order: active unexpired subscription
// first, then the per-feature free trial. The trial is consumed with a single
// conditional update, so two racing requests cannot both spend it. Denial
// performs no mutation.
func (e *Entitlements) Evaluate(ctx context.Context, telegramID, feature string) (Decision, error) {
	u, err := e.store.Get(ctx, telegramID)
	if err != nil {
		return Decision{}, err
	}

	now := time.Now().UTC()
	sub := u.Subscription
	if sub.IsActive(now) {
		return Decision{CanUse: true, IsFree: false}, nil
	}
	if sub.NeedsExpiry(now) {
		if _, err := e.store.Set(ctx, telegramID, map[string]any{
			"subscription.status": models.SubscriptionExpired,
		}, false); err != nil {
			log.Error().Err(err).Str("telegramId", telegramID).Msg("failed to mark subscription expired")
		}
	}

	consumed, err := e.store.ConsumeFreeRequest(ctx, telegramID, feature)
	if err != nil {
		return Decision{}, err
	}
	if consumed {
		return Decision{CanUse: true, IsFree: true}, nil
	}
	return Decision{}, nil
}

// SubscribeParams are caller-supplied subscription attributes.
type SubscribeParams struct {
	Type          models.SubscriptionType
	PaymentMethod string
	PaymentID     string
}

// Subscribe overwrites the subscription unconditionally: active for one
// calendar month from now, no proration, no stacking.
func (e *Entitlements) Subscribe(ctx context.Context, telegramID string, params SubscribeParams) (*models.Subscription, error) {
	if params.Type == "" {
		params.Type = models.SubscriptionMonthly
	}
	if !params.Type.Valid() {
		return nil, apperr.Newf(apperr.Validation, "invalid subscription type %q", params.Type)
	}
	if params.PaymentID == "" {
		params.PaymentID = uuid.NewString()
	}

	now := time.Now().UTC()
	end := now.AddDate(0, 1, 0)
	sub := &models.Subscription{
		Status:        models.SubscriptionActive,
		Type:          params.Type,
		StartDate:     &now,
		EndDate:       &end,
		AutoRenew:     false,
		PaymentMethod: params.PaymentMethod,
		PaymentID:     params.PaymentID,
	}

	if _, err := e.store.Set(ctx, telegramID, map[string]any{"subscription": sub}, false); err != nil {
		return nil, err
	}
	return sub, nil
}

// Status returns the subscription with its derived isActive flag, lazily
// persisting the expired status when an active term has lapsed.
func (e *Entitlements) Status(ctx context.Context, telegramID string) (*models.Subscription, bool, error) {
	u, err := e.store.Get(ctx, telegramID)
	if err != nil {
		return nil, false, err
	}

	sub := u.Subscription
	now := time.Now().UTC()
	if sub.NeedsExpiry(now) {
		if _, err := e.store.Set(ctx, telegramID, map[string]any{
			"subscription.status": models.SubscriptionExpired,
		}, false); err != nil {
			return nil, false, err
		}
		sub.Status = models.SubscriptionExpired
	}
	return sub, sub.IsActive(now), nil
}

// Cancel marks the subscription cancelled. endDate is left untouched, though
// the gate treats a cancelled subscription as inactive immediately.
func (e *Entitlements) Cancel(ctx context.Context, telegramID string) (*models.Subscription, error) {
	u, err := e.store.Get(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	if u.Subscription == nil || u.Subscription.Status == "" {
		return nil, apperr.New(apperr.NotFound, "no subscription")
	}

	now := time.Now().UTC()
	updated, err := e.store.Set(ctx, telegramID, map[string]any{
		"subscription.status":      models.SubscriptionCancelled,
		"subscription.cancelledAt": now,
		"subscription.autoRenew":   false,
	}, false)
	if err != nil {
		return nil, err
	}
	return updated.Subscription, nil
}
