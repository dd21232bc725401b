package handlers

import (
	"net/http"

	"github.com/kseniabot/astro-backend/internal/models"
	"github.com/kseniabot/astro-backend/internal/services"
)

type subscribeRequest struct {
	TelegramID    TelegramID `json:"telegramId"`
	Type          string     `json:"type"`
	PaymentMethod string     `json:"paymentMethod"`
	PaymentID     string     `json:"paymentId"`
}

type subscriptionResponse struct {
	OK           bool                 `json:"ok"`
	Subscription *models.Subscription `json:"subscription"`
	IsActive     bool                 `json:"isActive"`
}

func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	id, err := requireID(req.TelegramID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	sub, err := h.entitlements.Subscribe(r.Context(), id, services.SubscribeParams{
		Type:          models.SubscriptionType(req.Type),
		PaymentMethod: req.PaymentMethod,
		PaymentID:     req.PaymentID,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, subscriptionResponse{OK: true, Subscription: sub, IsActive: true})
}

func (h *Handler) GetSubscription(w http.ResponseWriter, r *http.Request) {
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

	sub, isActive, err := h.entitlements.Status(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, subscriptionResponse{OK: true, Subscription: sub, IsActive: isActive})
}

func (h *Handler) CancelSubscription(w http.ResponseWriter, r *http.Request) {
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

	sub, err := h.entitlements.Cancel(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, subscriptionResponse{OK: true, Subscription: sub, IsActive: false})
}
