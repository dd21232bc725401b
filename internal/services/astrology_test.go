package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kseniabot/astro-backend/internal/apperr"
)

func newAstrologyFixture(t *testing.T, handler http.HandlerFunc) *Astrology {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	a := NewAstrology("user-1", "key-1", "russian")
	a.baseURL = srv.URL
	return a
}

func TestYesNoTarotRequestShape(t *testing.T) {
	a := newAstrologyFixture(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/yes_no_tarot", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "russian", r.Header.Get("Accept-Language"))

		user, key, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "user-1", user)
		require.Equal(t, "key-1", key)

		var body map[string]int
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, 7, body["tarot_id"])

		json.NewEncoder(w).Encode(map[string]string{"value": "Yes"})
	})

	report, err := a.YesNoTarot(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, "Yes", report["value"])
}

func TestYesNoTarotRejectsOutOfRangeCard(t *testing.T) {
	a := NewAstrology("user-1", "key-1", "")
	for _, id := range []int{0, -1, 23} {
		_, err := a.YesNoTarot(context.Background(), id)
		require.Error(t, err, "id %d", id)
		require.Equal(t, apperr.Validation, apperr.KindOf(err))
	}
}

func TestKarmaDestinyPayloadPrefixes(t *testing.T) {
	a := newAstrologyFixture(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/karma_destiny_report/tropical", r.URL.Path)

		var body map[string]float64
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, float64(17), body["p_day"])
		require.Equal(t, float64(1985), body["s_year"])
		require.Equal(t, 5.5, body["s_tzone"])

		json.NewEncoder(w).Encode(map[string]any{"report": []string{"..."}})
	})

	primary := BirthPayload{Day: 17, Month: 5, Year: 1990, Hour: 8, Min: 30, Lat: 55.75, Lon: 37.61, Tzone: 3}
	partner := BirthPayload{Day: 2, Month: 11, Year: 1985, Hour: 23, Min: 5, Lat: 28.61, Lon: 77.2, Tzone: 5.5}

	_, err := a.KarmaDestiny(context.Background(), primary, partner)
	require.NoError(t, err)
}

func TestTarotPredictionsValidatesIndices(t *testing.T) {
	a := NewAstrology("user-1", "key-1", "")
	_, err := a.TarotPredictions(context.Background(), 1, 79, 3)
	require.Error(t, err)
	require.Equal(t, apperr.Validation, apperr.KindOf(err))
}

func TestAstrologyErrorSurfacesStatus(t *testing.T) {
	a := newAstrologyFixture(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusPaymentRequired)
	})

	_, err := a.Personality(context.Background(), BirthPayload{Day: 1, Month: 1, Year: 2000})
	require.Error(t, err)
	require.Equal(t, apperr.ExternalService, apperr.KindOf(err))
	require.Contains(t, err.Error(), "402")
}

func TestAstrologyMissingCredentials(t *testing.T) {
	a := NewAstrology("", "", "")
	_, err := a.MoonPhase(context.Background(), BirthPayload{})
	require.Error(t, err)
	require.Equal(t, apperr.Config, apperr.KindOf(err))
}

func TestRandomDraws(t *testing.T) {
	for i := 0; i < 200; i++ {
		id := RandomTarotID()
		require.GreaterOrEqual(t, id, 1)
		require.LessOrEqual(t, id, tarotDeckSize)

		idx := RandomPredictionIndex()
		require.GreaterOrEqual(t, idx, 1)
		require.LessOrEqual(t, idx, predictionDeckSize)
	}
}
