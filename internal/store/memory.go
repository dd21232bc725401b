package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kseniabot/astro-backend/internal/apperr"
	"github.com/kseniabot/astro-backend/internal/models"
)

// Memory is an in-memory Profiles implementation backing the unit tests.
// It mirrors the Mongo semantics for the dotted field paths the services and
// handlers actually write.
type Memory struct {
	mu    sync.Mutex
	users map[string]*models.UserProfile
}

func NewMemory() *Memory {
	return &Memory{users: make(map[string]*models.UserProfile)}
}

func newDefaultProfile(telegramID string) *models.UserProfile {
	now := time.Now().UTC()
	return &models.UserProfile{
		TelegramID:   telegramID,
		Status:       models.StatusRegistered,
		ActiveSpread: models.SpreadNone,
		FreeRequests: models.DefaultFreeRequests(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func cloneProfile(u *models.UserProfile) *models.UserProfile {
	cp := *u
	if u.FreeRequests != nil {
		cp.FreeRequests = make(map[string]bool, len(u.FreeRequests))
		for k, v := range u.FreeRequests {
			cp.FreeRequests[k] = v
		}
	}
	if u.ActiveSpreadData != nil {
		cp.ActiveSpreadData = make(map[string]any, len(u.ActiveSpreadData))
		for k, v := range u.ActiveSpreadData {
			cp.ActiveSpreadData[k] = v
		}
	}
	if u.Subscription != nil {
		sub := *u.Subscription
		cp.Subscription = &sub
	}
	if u.Partner != nil {
		p := *u.Partner
		cp.Partner = &p
	}
	return &cp
}

func (m *Memory) Ensure(_ context.Context, telegramID string) (*models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[telegramID]
	if !ok {
		u = newDefaultProfile(telegramID)
		m.users[telegramID] = u
	}
	u.UpdatedAt = time.Now().UTC()
	return cloneProfile(u), nil
}

func (m *Memory) Get(_ context.Context, telegramID string) (*models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[telegramID]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "user not found")
	}
	return cloneProfile(u), nil
}

// Seed installs a profile directly, for test setup.
func (m *Memory) Seed(u *models.UserProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ActiveSpread == "" {
		u.ActiveSpread = models.SpreadNone
	}
	m.users[u.TelegramID] = cloneProfile(u)
}

func (m *Memory) Set(_ context.Context, telegramID string, fields map[string]any, upsert bool) (*models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[telegramID]
	if !ok {
		if !upsert {
			return nil, apperr.New(apperr.NotFound, "user not found")
		}
		u = newDefaultProfile(telegramID)
		m.users[telegramID] = u
	}
	for path, value := range fields {
		if err := applySet(u, path, value); err != nil {
			return nil, err
		}
	}
	u.UpdatedAt = time.Now().UTC()
	return cloneProfile(u), nil
}

func (m *Memory) SetUnset(_ context.Context, telegramID string, set map[string]any, unset []string) (*models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[telegramID]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "user not found")
	}
	for path, value := range set {
		if err := applySet(u, path, value); err != nil {
			return nil, err
		}
	}
	for _, path := range unset {
		if err := applyUnset(u, path); err != nil {
			return nil, err
		}
	}
	u.UpdatedAt = time.Now().UTC()
	return cloneProfile(u), nil
}

func (m *Memory) SetIfSpreadActive(_ context.Context, telegramID string, fields map[string]any) (*models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[telegramID]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "user not found")
	}
	if u.ActiveSpread == "" || u.ActiveSpread == models.SpreadNone {
		return nil, apperr.New(apperr.InvalidState, "no active spread")
	}
	for path, value := range fields {
		if err := applySet(u, path, value); err != nil {
			return nil, err
		}
	}
	u.UpdatedAt = time.Now().UTC()
	return cloneProfile(u), nil
}

func (m *Memory) ConsumeFreeRequest(_ context.Context, telegramID, feature string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[telegramID]
	if !ok || !u.FreeRequests[feature] {
		return false, nil
	}
	u.FreeRequests[feature] = false
	u.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (m *Memory) BackfillFreeRequests(_ context.Context, features []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var modified int64
	for _, feature := range features {
		for _, u := range m.users {
			if u.FreeRequests == nil {
				u.FreeRequests = make(map[string]bool)
			}
			if _, exists := u.FreeRequests[feature]; !exists {
				u.FreeRequests[feature] = true
				modified++
			}
		}
	}
	return modified, nil
}

func applySet(u *models.UserProfile, path string, value any) error {
	switch path {
	case "name":
		u.Name = value.(string)
	case "birthDate":
		u.BirthDate = value.(string)
	case "birthHour":
		v := value.(int)
		u.BirthHour = &v
	case "birthMinute":
		v := value.(int)
		u.BirthMinute = &v
	case "isProfileComplete":
		u.IsProfileComplete = value.(bool)
	case "location":
		u.Location = value.(*models.Geocode)
	case "status":
		u.Status = value.(models.Status)
	case "statusUpdatedAt":
		v := value.(time.Time)
		u.StatusUpdatedAt = &v
	case "subscription":
		u.Subscription = value.(*models.Subscription)
	case "subscription.status":
		if u.Subscription == nil {
			u.Subscription = &models.Subscription{}
		}
		u.Subscription.Status = value.(models.SubscriptionStatus)
	case "subscription.cancelledAt":
		if u.Subscription == nil {
			u.Subscription = &models.Subscription{}
		}
		v := value.(time.Time)
		u.Subscription.CancelledAt = &v
	case "subscription.autoRenew":
		if u.Subscription == nil {
			u.Subscription = &models.Subscription{}
		}
		u.Subscription.AutoRenew = value.(bool)
	case "activeSpread":
		u.ActiveSpread = value.(models.SpreadType)
	case "activeSpreadData":
		u.ActiveSpreadData = value.(map[string]any)
	case "activeSpreadStartedAt":
		v := value.(time.Time)
		u.ActiveSpreadStartedAt = &v
	case "partner.name":
		partner(u).Name = value.(string)
	case "partner.birthDate":
		partner(u).BirthDate = value.(string)
	case "partner.birthHour":
		v := value.(int)
		partner(u).BirthHour = &v
	case "partner.birthMinute":
		v := value.(int)
		partner(u).BirthMinute = &v
	case "partner.location":
		partner(u).Location = value.(*models.Geocode)
	default:
		return fmt.Errorf("memory store: unsupported path %q", path)
	}
	return nil
}

func applyUnset(u *models.UserProfile, path string) error {
	switch path {
	case "activeSpreadData":
		u.ActiveSpreadData = nil
	case "activeSpreadStartedAt":
		u.ActiveSpreadStartedAt = nil
	default:
		return fmt.Errorf("memory store: unsupported unset path %q", path)
	}
	return nil
}

func partner(u *models.UserProfile) *models.Partner {
	if u.Partner == nil {
		u.Partner = &models.Partner{}
	}
	return u.Partner
}
