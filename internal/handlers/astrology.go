package handlers

import (
	"context"
	"net/http"

	"github.com/kseniabot/astro-backend/internal/apperr"
	"github.com/kseniabot/astro-backend/internal/models"
	"github.com/kseniabot/astro-backend/internal/services"
	"github.com/kseniabot/astro-backend/pkg/dates"
)

type reportResponse struct {
	OK     bool           `json:"ok"`
	IsFree bool           `json:"isFree"`
	Report map[string]any `json:"report"`
}

// gate runs the entitlement check for a feature. The free trial, if used, is
// consumed here, before the external call.
func (h *Handler) gate(ctx context.Context, telegramID, feature string) (services.Decision, error) {
	decision, err := h.entitlements.Evaluate(ctx, telegramID, feature)
	if err != nil {
		return services.Decision{}, err
	}
	if !decision.CanUse {
		return services.Decision{}, apperr.New(apperr.Entitlement, "subscription or free request required")
	}
	return decision, nil
}

func birthPayload(birthDate string, hour, minute *int, location *models.Geocode, who string) (services.BirthPayload, error) {
	if birthDate == "" || hour == nil || minute == nil {
		return services.BirthPayload{}, apperr.Newf(apperr.Validation, "%s birth data is incomplete", who)
	}
	if location == nil {
		return services.BirthPayload{}, apperr.Newf(apperr.Validation, "%s location is not set", who)
	}
	d, err := dates.Normalize(birthDate)
	if err != nil {
		return services.BirthPayload{}, apperr.Wrap(apperr.Validation, "invalid stored birthDate", err)
	}
	return services.BirthPayload{
		Day:   d.Day,
		Month: d.Month,
		Year:  d.Year,
		Hour:  *hour,
		Min:   *minute,
		Lat:   location.Lat,
		Lon:   location.Lon,
		Tzone: location.TZone,
	}, nil
}

func primaryBirthPayload(u *models.UserProfile) (services.BirthPayload, error) {
	return birthPayload(u.BirthDate, u.BirthHour, u.BirthMinute, u.Location, "user")
}

func partnerBirthPayload(u *models.UserProfile) (services.BirthPayload, error) {
	if u.Partner == nil {
		return services.BirthPayload{}, apperr.New(apperr.Validation, "partner birth data is incomplete")
	}
	return birthPayload(u.Partner.BirthDate, u.Partner.BirthHour, u.Partner.BirthMinute, u.Partner.Location, "partner")
}

type yesNoTarotRequest struct {
	TelegramID TelegramID `json:"telegramId"`
	TarotID    *int       `json:"tarotId"`
}

// YesNoTarot draws a yes/no card. The card is picked locally unless the
// caller pins one.
func (h *Handler) YesNoTarot(w http.ResponseWriter, r *http.Request) {
	var req yesNoTarotRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	id, err := requireID(req.TelegramID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	decision, err := h.gate(r.Context(), id, models.FeatureYesNoTarot)
	if err != nil {
		respondError(w, r, err)
		return
	}

	tarotID := services.RandomTarotID()
	if req.TarotID != nil {
		tarotID = *req.TarotID
	}

	report, err := h.astrology.YesNoTarot(r.Context(), tarotID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, reportResponse{OK: true, IsFree: decision.IsFree, Report: report})
}

func (h *Handler) RomanticPersonality(w http.ResponseWriter, r *http.Request) {
	h.singlePersonReport(w, r, models.FeatureRomanticPersonality, h.astrology.RomanticPersonality)
}

func (h *Handler) Personality(w http.ResponseWriter, r *http.Request) {
	h.singlePersonReport(w, r, models.FeaturePersonality, h.astrology.Personality)
}

func (h *Handler) MoonPhase(w http.ResponseWriter, r *http.Request) {
	h.singlePersonReport(w, r, models.FeatureMoonPhase, h.astrology.MoonPhase)
}

func (h *Handler) singlePersonReport(w http.ResponseWriter, r *http.Request, feature string,
	call func(context.Context, services.BirthPayload) (map[string]any, error)) {
	var req userRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	id, err := requireID(req.TelegramID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	decision, err := h.gate(r.Context(), id, feature)
	if err != nil {
		respondError(w, r, err)
		return
	}

	user, err := h.store.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	payload, err := primaryBirthPayload(user)
	if err != nil {
		respondError(w, r, err)
		return
	}

	report, err := call(r.Context(), payload)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, reportResponse{OK: true, IsFree: decision.IsFree, Report: report})
}

// KarmaDestiny runs the two-person karma/destiny synastry report; it needs
// complete birth data and locations for both the user and the partner.
func (h *Handler) KarmaDestiny(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	id, err := requireID(req.TelegramID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	decision, err := h.gate(r.Context(), id, models.FeatureKarmaDestiny)
	if err != nil {
		respondError(w, r, err)
		return
	}

	user, err := h.store.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	primary, err := primaryBirthPayload(user)
	if err != nil {
		respondError(w, r, err)
		return
	}
	partner, err := partnerBirthPayload(user)
	if err != nil {
		respondError(w, r, err)
		return
	}

	report, err := h.astrology.KarmaDestiny(r.Context(), primary, partner)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, reportResponse{OK: true, IsFree: decision.IsFree, Report: report})
}

type tarotPredictionsRequest struct {
	TelegramID TelegramID `json:"telegramId"`
	Love       *int       `json:"love"`
	Career     *int       `json:"career"`
	Finance    *int       `json:"finance"`
}

// TarotPredictions draws love/career/finance cards, locally randomized unless
// pinned by the caller.
func (h *Handler) TarotPredictions(w http.ResponseWriter, r *http.Request) {
	var req tarotPredictionsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	id, err := requireID(req.TelegramID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	decision, err := h.gate(r.Context(), id, models.FeatureTarotPredictions)
	if err != nil {
		respondError(w, r, err)
		return
	}

	love, career, finance := services.RandomPredictionIndex(), services.RandomPredictionIndex(), services.RandomPredictionIndex()
	if req.Love != nil {
		love = *req.Love
	}
	if req.Career != nil {
		career = *req.Career
	}
	if req.Finance != nil {
		finance = *req.Finance
	}

	report, err := h.astrology.TarotPredictions(r.Context(), love, career, finance)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, reportResponse{OK: true, IsFree: decision.IsFree, Report: report})
}
