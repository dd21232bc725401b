package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/kseniabot/astro-backend/internal/apperr"
	"github.com/kseniabot/astro-backend/internal/models"
	"github.com/kseniabot/astro-backend/pkg/dates"
)

type userRequest struct {
	TelegramID TelegramID `json:"telegramId"`
}

type userResponse struct {
	OK   bool                `json:"ok"`
	User *models.UserProfile `json:"user"`
}

// Register creates the profile on first contact; repeat calls return the
// existing document unchanged.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
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

	user, err := h.store.Ensure(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, userResponse{OK: true, User: user})
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
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
	respondJSON(w, http.StatusOK, userResponse{OK: true, User: user})
}

type nameRequest struct {
	TelegramID TelegramID `json:"telegramId"`
	Name       string     `json:"name"`
}

func (h *Handler) SetName(w http.ResponseWriter, r *http.Request) {
	h.setName(w, r, "name")
}

func (h *Handler) SetPartnerName(w http.ResponseWriter, r *http.Request) {
	h.setName(w, r, "partner.name")
}

func (h *Handler) setName(w http.ResponseWriter, r *http.Request, path string) {
	var req nameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	id, err := requireID(req.TelegramID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		respondError(w, r, apperr.New(apperr.Validation, "name is required"))
		return
	}

	// Primary name may arrive before registration; partner onboarding
	// requires an existing profile.
	upsert := path == "name"
	user, err := h.store.Set(r.Context(), id, map[string]any{path: name}, upsert)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, userResponse{OK: true, User: user})
}

type statusRequest struct {
	TelegramID TelegramID `json:"telegramId"`
	Status     string     `json:"status"`
}

// SetStatus records whichever onboarding status the workflow asserts. Any
// enumerated status may follow any other; ordering lives in the workflow.
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	id, err := requireID(req.TelegramID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	status := models.Status(strings.TrimSpace(req.Status))
	if !status.Valid() {
		respondError(w, r, apperr.Newf(apperr.Validation, "invalid status %q", req.Status))
		return
	}

	user, err := h.store.Set(r.Context(), id, map[string]any{
		"status":          status,
		"statusUpdatedAt": time.Now().UTC(),
	}, true)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, userResponse{OK: true, User: user})
}

type birthDateRequest struct {
	TelegramID TelegramID `json:"telegramId"`
	BirthDate  string     `json:"birthDate"`
}

func (h *Handler) SetBirthDate(w http.ResponseWriter, r *http.Request) {
	h.setBirthDate(w, r, "birthDate")
}

func (h *Handler) SetPartnerBirthDate(w http.ResponseWriter, r *http.Request) {
	h.setBirthDate(w, r, "partner.birthDate")
}

func (h *Handler) setBirthDate(w http.ResponseWriter, r *http.Request, path string) {
	var req birthDateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	id, err := requireID(req.TelegramID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	birthDate := strings.TrimSpace(req.BirthDate)
	if birthDate == "" {
		respondError(w, r, apperr.New(apperr.Validation, "birthDate is required"))
		return
	}
	if _, err := dates.Normalize(birthDate); err != nil {
		respondError(w, r, apperr.Wrap(apperr.Validation, "invalid birthDate", err))
		return
	}

	user, err := h.store.Set(r.Context(), id, map[string]any{path: birthDate}, false)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, userResponse{OK: true, User: user})
}

type birthClockRequest struct {
	TelegramID  TelegramID `json:"telegramId"`
	BirthHour   *int       `json:"birthHour"`
	BirthMinute *int       `json:"birthMinute"`
}

func (h *Handler) SetBirthHour(w http.ResponseWriter, r *http.Request) {
	h.setBirthClock(w, r, "birthHour")
}

func (h *Handler) SetBirthMinute(w http.ResponseWriter, r *http.Request) {
	h.setBirthClock(w, r, "birthMinute")
}

func (h *Handler) SetPartnerBirthHour(w http.ResponseWriter, r *http.Request) {
	h.setBirthClock(w, r, "partner.birthHour")
}

func (h *Handler) SetPartnerBirthMinute(w http.ResponseWriter, r *http.Request) {
	h.setBirthClock(w, r, "partner.birthMinute")
}

func (h *Handler) setBirthClock(w http.ResponseWriter, r *http.Request, path string) {
	var req birthClockRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	id, err := requireID(req.TelegramID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var value *int
	var limit int
	var field string
	if strings.HasSuffix(path, "birthHour") {
		value, limit, field = req.BirthHour, 23, "birthHour"
	} else {
		value, limit, field = req.BirthMinute, 59, "birthMinute"
	}
	if value == nil {
		respondError(w, r, apperr.Newf(apperr.Validation, "%s is required", field))
		return
	}
	if *value < 0 || *value > limit {
		respondError(w, r, apperr.Newf(apperr.Validation, "%s must be between 0 and %d", field, limit))
		return
	}

	user, err := h.store.Set(r.Context(), id, map[string]any{path: *value}, false)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, userResponse{OK: true, User: user})
}

type profileCompleteRequest struct {
	TelegramID        TelegramID `json:"telegramId"`
	IsProfileComplete bool       `json:"isProfileComplete"`
}

func (h *Handler) SetProfileComplete(w http.ResponseWriter, r *http.Request) {
	var req profileCompleteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	id, err := requireID(req.TelegramID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	user, err := h.store.Set(r.Context(), id, map[string]any{
		"isProfileComplete": req.IsProfileComplete,
	}, false)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, userResponse{OK: true, User: user})
}
