package handlers

import (
	"net/http"
	"strings"

	"github.com/kseniabot/astro-backend/internal/apperr"
	"github.com/kseniabot/astro-backend/internal/models"
)

type geocodeRequest struct {
	TelegramID TelegramID `json:"telegramId"`
	Query      string     `json:"query"`
}

type geocodeResponse struct {
	OK bool `json:"ok"`
	*models.Geocode
}

// Geocode resolves the query and stores the result as the user's primary
// location, creating the profile if needed.
func (h *Handler) Geocode(w http.ResponseWriter, r *http.Request) {
	h.geocode(w, r, "location")
}

// GeocodePartner stores the result as the partner's location. Requires an
// existing profile.
func (h *Handler) GeocodePartner(w http.ResponseWriter, r *http.Request) {
	h.geocode(w, r, "partner.location")
}

func (h *Handler) geocode(w http.ResponseWriter, r *http.Request, path string) {
	var req geocodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	id, err := requireID(req.TelegramID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		respondError(w, r, apperr.New(apperr.Validation, "query is required"))
		return
	}

	result, err := h.geocoder.Resolve(r.Context(), query)
	if err != nil {
		respondError(w, r, err)
		return
	}

	upsert := path == "location"
	if _, err := h.store.Set(r.Context(), id, map[string]any{path: result}, upsert); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, geocodeResponse{OK: true, Geocode: result})
}
