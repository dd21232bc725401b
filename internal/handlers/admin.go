package handlers

import (
	"net/http"

	"github.com/kseniabot/astro-backend/internal/models"
)

type migrateResponse struct {
	OK       bool  `json:"ok"`
	Modified int64 `json:"modified"`
}

// MigrateFreeRequests backfills missing freeRequests keys to true for every
// profile. One-off administrative migration; safe to re-run.
func (h *Handler) MigrateFreeRequests(w http.ResponseWriter, r *http.Request) {
	modified, err := h.store.BackfillFreeRequests(r.Context(), models.GatedFeatures())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, migrateResponse{OK: true, Modified: modified})
}
