package services

import (
	"context"
	"time"

	"github.com/kseniabot/astro-backend/internal/apperr"
	"github.com/kseniabot/astro-backend/internal/models"
	"github.com/kseniabot/astro-backend/internal/store"
)

// Spreads manages the per-user divination session: at most one open spread,
// with "none" as the rest state. Data is a caller-defined payload and is
// stored opaquely.
type Spreads struct {
	store store.Profiles
}

func NewSpreads(s store.Profiles) *Spreads {
	return &Spreads{store: s}
}

// Start opens a session of the given type. An already-open spread is silently
// overwritten; the bot workflows restart sessions freely.
func (s *Spreads) Start(ctx context.Context, telegramID string, typ models.SpreadType, data map[string]any) (*models.UserProfile, error) {
	if typ == models.SpreadNone || !typ.Valid() {
		return nil, apperr.Newf(apperr.Validation, "invalid spread type %q", typ)
	}

	set := map[string]any{
		"activeSpread":          typ,
		"activeSpreadStartedAt": time.Now().UTC(),
	}
	if data != nil {
		set["activeSpreadData"] = data
		return s.store.SetUnset(ctx, telegramID, set, nil)
	}
	// No initial data: drop whatever a previous session left behind.
	return s.store.SetUnset(ctx, telegramID, set, []string{"activeSpreadData"})
}

// UpdateData replaces the working payload of the open spread. Fails with
// InvalidState, without mutating, when no spread is open.
func (s *Spreads) UpdateData(ctx context.Context, telegramID string, data map[string]any) (*models.UserProfile, error) {
	if data == nil {
		return nil, apperr.New(apperr.Validation, "data is required")
	}
	return s.store.SetIfSpreadActive(ctx, telegramID, map[string]any{"activeSpreadData": data})
}

// Complete merges result into the stored data, stamps completedAt, and
// returns the spread to rest. The merged payload is kept as the record of the
// finished session.
func (s *Spreads) Complete(ctx context.Context, telegramID string, result map[string]any) (*models.UserProfile, error) {
	u, err := s.store.Get(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	if u.ActiveSpread == "" || u.ActiveSpread == models.SpreadNone {
		return nil, apperr.New(apperr.InvalidState, "no active spread")
	}

	merged := make(map[string]any, len(u.ActiveSpreadData)+len(result)+1)
	for k, v := range u.ActiveSpreadData {
		merged[k] = v
	}
	for k, v := range result {
		merged[k] = v
	}
	merged["completedAt"] = time.Now().UTC()

	return s.store.SetUnset(ctx, telegramID, map[string]any{
		"activeSpread":     models.SpreadNone,
		"activeSpreadData": merged,
	}, []string{"activeSpreadStartedAt"})
}

// Clear discards the session unconditionally: spread to rest, data and
// startedAt removed. Safe to call when nothing is open.
func (s *Spreads) Clear(ctx context.Context, telegramID string) (*models.UserProfile, error) {
	return s.store.SetUnset(ctx, telegramID,
		map[string]any{"activeSpread": models.SpreadNone},
		[]string{"activeSpreadData", "activeSpreadStartedAt"},
	)
}
