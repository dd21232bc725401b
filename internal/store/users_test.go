package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kseniabot/astro-backend/internal/models"
)

func TestInsertDefaultsBase(t *testing.T) {
	base := insertDefaults("42", nil)

	require.Equal(t, "42", base["telegramId"])
	require.Equal(t, models.StatusRegistered, base["status"])
	require.Equal(t, models.SpreadNone, base["activeSpread"])
	require.Equal(t, false, base["isProfileComplete"])
	require.Contains(t, base, "createdAt")

	free, ok := base["freeRequests"].(map[string]bool)
	require.True(t, ok)
	for _, feature := range models.GatedFeatures() {
		require.True(t, free[feature], feature)
	}
}

func TestInsertDefaultsDropsKeysThatSetTouches(t *testing.T) {
	// $setOnInsert and $set must never address the same key or Mongo
	// rejects the update.
	base := insertDefaults("42", map[string]any{
		"status":       models.StatusAwaitingName,
		"activeSpread": models.SpreadYesNoTarot,
	})

	require.NotContains(t, base, "status")
	require.NotContains(t, base, "activeSpread")
	require.Contains(t, base, "freeRequests")
	require.Contains(t, base, "telegramId")
}

func TestInsertDefaultsDropsDottedPrefixConflicts(t *testing.T) {
	base := insertDefaults("42", map[string]any{
		"freeRequests.yesNoTarot": false,
	})

	require.NotContains(t, base, "freeRequests")
	require.Contains(t, base, "status")
}
