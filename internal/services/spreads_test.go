package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kseniabot/astro-backend/internal/apperr"
	"github.com/kseniabot/astro-backend/internal/models"
	"github.com/kseniabot/astro-backend/internal/store"
)

func newSpreadsFixture(t *testing.T) (*Spreads, *store.Memory) {
	t.Helper()
	m := store.NewMemory()
	m.Seed(&models.UserProfile{TelegramID: "42", Status: models.StatusIdle})
	return NewSpreads(m), m
}

func TestStartSpread(t *testing.T) {
	s, _ := newSpreadsFixture(t)

	u, err := s.Start(context.Background(), "42", models.SpreadYesNoTarot, map[string]any{"question": "really?"})
	require.NoError(t, err)
	require.Equal(t, models.SpreadYesNoTarot, u.ActiveSpread)
	require.Equal(t, "really?", u.ActiveSpreadData["question"])
	require.NotNil(t, u.ActiveSpreadStartedAt)
}

func TestStartSpreadOverwritesSilently(t *testing.T) {
	s, _ := newSpreadsFixture(t)

	_, err := s.Start(context.Background(), "42", models.SpreadNatalChart, map[string]any{"stage": 1})
	require.NoError(t, err)

	u, err := s.Start(context.Background(), "42", models.SpreadSynastry, nil)
	require.NoError(t, err)
	require.Equal(t, models.SpreadSynastry, u.ActiveSpread)
	// A fresh start without data drops the previous session's payload.
	require.Nil(t, u.ActiveSpreadData)
}

func TestStartSpreadRejectsInvalidType(t *testing.T) {
	s, _ := newSpreadsFixture(t)

	for _, typ := range []models.SpreadType{"none", "tea_leaves", ""} {
		_, err := s.Start(context.Background(), "42", typ, nil)
		require.Error(t, err, "type %q", typ)
		require.Equal(t, apperr.Validation, apperr.KindOf(err))
	}
}

func TestUpdateDataRequiresOpenSpread(t *testing.T) {
	s, m := newSpreadsFixture(t)

	_, err := s.UpdateData(context.Background(), "42", map[string]any{"step": 2})
	require.Error(t, err)
	require.Equal(t, apperr.InvalidState, apperr.KindOf(err))

	// Denied update performs no mutation.
	u, err := m.Get(context.Background(), "42")
	require.NoError(t, err)
	require.Nil(t, u.ActiveSpreadData)
}

func TestUpdateDataReplacesPayload(t *testing.T) {
	s, _ := newSpreadsFixture(t)

	_, err := s.Start(context.Background(), "42", models.SpreadTransit, map[string]any{"a": 1, "b": 2})
	require.NoError(t, err)

	u, err := s.UpdateData(context.Background(), "42", map[string]any{"b": 3})
	require.NoError(t, err)
	require.Equal(t, map[string]any{"b": 3}, u.ActiveSpreadData)
}

func TestCompleteMergesResultAndRests(t *testing.T) {
	s, _ := newSpreadsFixture(t)

	_, err := s.Start(context.Background(), "42", models.SpreadYesNoTarot, map[string]any{"question": "really?"})
	require.NoError(t, err)

	u, err := s.Complete(context.Background(), "42", map[string]any{"result": "yes"})
	require.NoError(t, err)

	require.Equal(t, models.SpreadNone, u.ActiveSpread)
	require.Nil(t, u.ActiveSpreadStartedAt)
	require.Equal(t, "really?", u.ActiveSpreadData["question"])
	require.Equal(t, "yes", u.ActiveSpreadData["result"])
	require.Contains(t, u.ActiveSpreadData, "completedAt")
}

func TestCompleteWithoutOpenSpread(t *testing.T) {
	s, _ := newSpreadsFixture(t)

	_, err := s.Complete(context.Background(), "42", map[string]any{"result": "yes"})
	require.Error(t, err)
	require.Equal(t, apperr.InvalidState, apperr.KindOf(err))
}

func TestClearDiscardsEverything(t *testing.T) {
	s, _ := newSpreadsFixture(t)

	_, err := s.Start(context.Background(), "42", models.SpreadCustom, map[string]any{"notes": "wip"})
	require.NoError(t, err)

	u, err := s.Clear(context.Background(), "42")
	require.NoError(t, err)
	require.Equal(t, models.SpreadNone, u.ActiveSpread)
	require.Nil(t, u.ActiveSpreadData)
	require.Nil(t, u.ActiveSpreadStartedAt)
}

func TestClearIsIdempotent(t *testing.T) {
	s, _ := newSpreadsFixture(t)

	u, err := s.Clear(context.Background(), "42")
	require.NoError(t, err)
	require.Equal(t, models.SpreadNone, u.ActiveSpread)
}

func TestSpreadUnknownUser(t *testing.T) {
	s := NewSpreads(store.NewMemory())
	_, err := s.Start(context.Background(), "missing", models.SpreadCustom, nil)
	require.Error(t, err)
	require.Equal(t, apperr.NotFound, apperr.KindOf(err))
}
