package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/kseniabot/astro-backend/internal/apperr"
	"github.com/kseniabot/astro-backend/internal/config"
	"github.com/kseniabot/astro-backend/internal/services"
	"github.com/kseniabot/astro-backend/internal/store"
)

const maxBodyBytes = 1 << 20 // 1 MB JSON body cap

// Handler carries the injected collaborators for every route.
type Handler struct {
	cfg          *config.Config
	store        store.Profiles
	entitlements *services.Entitlements
	spreads      *services.Spreads
	geocoder     *services.Geocoder
	astrology    *services.Astrology
}

func New(cfg *config.Config, profiles store.Profiles, entitlements *services.Entitlements,
	spreads *services.Spreads, geocoder *services.Geocoder, astrology *services.Astrology) *Handler {
	return &Handler{
		cfg:          cfg,
		store:        profiles,
		entitlements: entitlements,
		spreads:      spreads,
		geocoder:     geocoder,
		astrology:    astrology,
	}
}

// TelegramID accepts both JSON strings and numbers, since n8n workflows send
// whatever the Telegram node produced.
type TelegramID string

func (id *TelegramID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = TelegramID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = TelegramID(n.String())
	return nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Wrap(apperr.Validation, "invalid request body", err)
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	body := map[string]any{"error": apperr.Message(err)}
	if apperr.KindOf(err) == apperr.Entitlement {
		body["limitExceeded"] = true
	}

	evt := log.Debug()
	if status >= http.StatusInternalServerError {
		evt = log.Error()
	}
	evt.Err(err).Str("method", r.Method).Str("path", r.URL.Path).Int("status", status).Msg("request failed")

	respondJSON(w, status, body)
}

// requireID validates the telegramId common to every request body.
func requireID(id TelegramID) (string, error) {
	s := strings.TrimSpace(string(id))
	if s == "" {
		return "", apperr.New(apperr.Validation, "telegramId is required")
	}
	return s, nil
}

// Health answers liveness probes. No auth, no rate limit.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// NotFound is the JSON fallthrough for unknown routes.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusNotFound, map[string]string{"error": "Not found", "path": r.URL.Path})
}
