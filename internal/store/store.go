package store

import (
	"context"

	"github.com/kseniabot/astro-backend/internal/models"
)

// Profiles is the user-profile document contract. Every operation is keyed by
// the external telegram id and touches exactly one document; partner data is
// embedded, so no multi-document transactions are needed.
type Profiles interface {
	// Ensure creates a minimal profile if absent and returns the document
	// either way (idempotent upsert).
	Ensure(ctx context.Context, telegramID string) (*models.UserProfile, error)

	// Get returns the profile or a NotFound error.
	Get(ctx context.Context, telegramID string) (*models.UserProfile, error)

	// Set applies a partial update of dotted field paths, refreshing
	// updatedAt. With upsert false a missing profile is a NotFound error.
	Set(ctx context.Context, telegramID string, fields map[string]any, upsert bool) (*models.UserProfile, error)

	// SetUnset applies set and unset paths in one update. Missing profile is
	// a NotFound error.
	SetUnset(ctx context.Context, telegramID string, set map[string]any, unset []string) (*models.UserProfile, error)

	// SetIfSpreadActive applies fields only while a spread is open. Returns
	// InvalidState when the active spread is "none", without mutating.
	SetIfSpreadActive(ctx context.Context, telegramID string, fields map[string]any) (*models.UserProfile, error)

	// ConsumeFreeRequest flips freeRequests[feature] true→false as a single
	// conditional update and reports whether this call performed the flip.
	ConsumeFreeRequest(ctx context.Context, telegramID, feature string) (bool, error)

	// BackfillFreeRequests sets missing freeRequests keys to true across all
	// profiles and returns the number of modified documents.
	BackfillFreeRequests(ctx context.Context, features []string) (int64, error)
}
