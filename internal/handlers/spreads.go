package handlers

import (
	"net/http"
	"time"

	"github.com/kseniabot/astro-backend/internal/models"
)

type spreadStartRequest struct {
	TelegramID TelegramID     `json:"telegramId"`
	Type       string         `json:"type"`
	Data       map[string]any `json:"data"`
}

type spreadDataRequest struct {
	TelegramID TelegramID     `json:"telegramId"`
	Data       map[string]any `json:"data"`
}

type spreadCompleteRequest struct {
	TelegramID TelegramID     `json:"telegramId"`
	Result     map[string]any `json:"result"`
}

type spreadResponse struct {
	OK        bool              `json:"ok"`
	Type      models.SpreadType `json:"activeSpread"`
	Data      map[string]any    `json:"activeSpreadData,omitempty"`
	StartedAt *time.Time        `json:"activeSpreadStartedAt,omitempty"`
}

func newSpreadResponse(u *models.UserProfile) spreadResponse {
	typ := u.ActiveSpread
	if typ == "" {
		typ = models.SpreadNone
	}
	return spreadResponse{
		OK:        true,
		Type:      typ,
		Data:      u.ActiveSpreadData,
		StartedAt: u.ActiveSpreadStartedAt,
	}
}

func (h *Handler) StartSpread(w http.ResponseWriter, r *http.Request) {
	var req spreadStartRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	id, err := requireID(req.TelegramID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	user, err := h.spreads.Start(r.Context(), id, models.SpreadType(req.Type), req.Data)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newSpreadResponse(user))
}

func (h *Handler) GetSpread(w http.ResponseWriter, r *http.Request) {
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

	user, err := h.store.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newSpreadResponse(user))
}

func (h *Handler) UpdateSpreadData(w http.ResponseWriter, r *http.Request) {
	var req spreadDataRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	id, err := requireID(req.TelegramID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	user, err := h.spreads.UpdateData(r.Context(), id, req.Data)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newSpreadResponse(user))
}

func (h *Handler) CompleteSpread(w http.ResponseWriter, r *http.Request) {
	var req spreadCompleteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	id, err := requireID(req.TelegramID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	user, err := h.spreads.Complete(r.Context(), id, req.Result)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newSpreadResponse(user))
}

func (h *Handler) ClearSpread(w http.ResponseWriter, r *http.Request) {
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

	user, err := h.spreads.Clear(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newSpreadResponse(user))
}
