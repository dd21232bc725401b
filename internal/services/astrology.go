package services

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/kseniabot/astro-backend/internal/apperr"
)

const (
	astrologyBaseURL = "https://json.astrologyapi.com/v1"

	// No explicit timeout existed historically; 30s is the inherited sane
	// default for report generation.
	astrologyTimeout = 30 * time.Second

	tarotDeckSize       = 22
	predictionDeckSize  = 78
	maxErrorBodyPreview = 512
)

// Astrology calls json.astrologyapi.com report endpoints with basic auth.
// Report bodies are caller-facing natural language, passed through opaquely.
type Astrology struct {
	userID   string
	apiKey   string
	language string
	baseURL  string
	client   *http.Client
}

func NewAstrology(userID, apiKey, language string) *Astrology {
	if language == "" {
		language = "russian"
	}
	return &Astrology{
		userID:   userID,
		apiKey:   apiKey,
		language: language,
		baseURL:  astrologyBaseURL,
		client:   &http.Client{Timeout: astrologyTimeout},
	}
}

// BirthPayload is the normalized natal data every single-person report needs.
type BirthPayload struct {
	Day   int     `json:"day"`
	Month int     `json:"month"`
	Year  int     `json:"year"`
	Hour  int     `json:"hour"`
	Min   int     `json:"min"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Tzone float64 `json:"tzone"`
}

// synastryPayload pairs primary (p_) and partner (s_) birth data for
// two-person reports.
type synastryPayload struct {
	PDay   int     `json:"p_day"`
	PMonth int     `json:"p_month"`
	PYear  int     `json:"p_year"`
	PHour  int     `json:"p_hour"`
	PMin   int     `json:"p_min"`
	PLat   float64 `json:"p_lat"`
	PLon   float64 `json:"p_lon"`
	PTzone float64 `json:"p_tzone"`
	SDay   int     `json:"s_day"`
	SMonth int     `json:"s_month"`
	SYear  int     `json:"s_year"`
	SHour  int     `json:"s_hour"`
	SMin   int     `json:"s_min"`
	SLat   float64 `json:"s_lat"`
	SLon   float64 `json:"s_lon"`
	STzone float64 `json:"s_tzone"`
}

func (a *Astrology) post(ctx context.Context, path string, payload any) (map[string]any, error) {
	if a.userID == "" || a.apiKey == "" {
		return nil, apperr.New(apperr.Config, "astrology API credentials are not configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to encode astrology payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/"+path, bytes.NewReader(body))
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to build astrology request", err)
	}
	req.SetBasicAuth(a.userID, a.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Language", a.language)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.ExternalService, "astrology API request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		preview, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyPreview))
		return nil, apperr.Newf(apperr.ExternalService, "astrology API %s: HTTP %d: %s", path, resp.StatusCode, preview)
	}

	var report map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, apperr.Wrap(apperr.ExternalService, "invalid astrology API response", err)
	}
	return report, nil
}

// YesNoTarot draws the card identified by tarotID (1-22).
func (a *Astrology) YesNoTarot(ctx context.Context, tarotID int) (map[string]any, error) {
	if tarotID < 1 || tarotID > tarotDeckSize {
		return nil, apperr.Newf(apperr.Validation, "tarot id must be between 1 and %d", tarotDeckSize)
	}
	return a.post(ctx, "yes_no_tarot", map[string]int{"tarot_id": tarotID})
}

func (a *Astrology) RomanticPersonality(ctx context.Context, b BirthPayload) (map[string]any, error) {
	return a.post(ctx, "romantic_personality_report/tropical", b)
}

func (a *Astrology) Personality(ctx context.Context, b BirthPayload) (map[string]any, error) {
	return a.post(ctx, "personality_report/tropical", b)
}

// KarmaDestiny runs the two-person karma/destiny synastry report.
func (a *Astrology) KarmaDestiny(ctx context.Context, primary, partner BirthPayload) (map[string]any, error) {
	return a.post(ctx, "karma_destiny_report/tropical", synastryPayload{
		PDay: primary.Day, PMonth: primary.Month, PYear: primary.Year,
		PHour: primary.Hour, PMin: primary.Min,
		PLat: primary.Lat, PLon: primary.Lon, PTzone: primary.Tzone,
		SDay: partner.Day, SMonth: partner.Month, SYear: partner.Year,
		SHour: partner.Hour, SMin: partner.Min,
		SLat: partner.Lat, SLon: partner.Lon, STzone: partner.Tzone,
	})
}

// TarotPredictions draws love/career/finance cards by index (1-78 each).
func (a *Astrology) TarotPredictions(ctx context.Context, love, career, finance int) (map[string]any, error) {
	for _, idx := range []int{love, career, finance} {
		if idx < 1 || idx > predictionDeckSize {
			return nil, apperr.Newf(apperr.Validation, "prediction index must be between 1 and %d", predictionDeckSize)
		}
	}
	return a.post(ctx, "tarot_predictions", map[string]int{
		"love":    love,
		"career":  career,
		"finance": finance,
	})
}

func (a *Astrology) MoonPhase(ctx context.Context, b BirthPayload) (map[string]any, error) {
	return a.post(ctx, "moon_phase_report", b)
}

// RandomTarotID picks a card for yes/no draws when the caller pins none.
func RandomTarotID() int {
	return rand.Intn(tarotDeckSize) + 1
}

// RandomPredictionIndex picks a card index for tarot predictions.
func RandomPredictionIndex() int {
	return rand.Intn(predictionDeckSize) + 1
}
