package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/kseniabot/astro-backend/internal/handlers"
	"github.com/kseniabot/astro-backend/internal/middleware"
)

// Setup wires the route table. Everything under /n8n requires the shared
// secret; /health stays open for probes.
func Setup(r *chi.Mux, h *handlers.Handler, n8nToken string) {
	r.Get("/health", h.Health)

	r.Route("/n8n", func(r chi.Router) {
		r.Use(middleware.RequireToken(n8nToken))

		// Profile CRUD
		r.Post("/users", h.Register)
		r.Post("/users/get", h.GetUser)
		r.Post("/users/name", h.SetName)
		r.Post("/users/status", h.SetStatus)
		r.Post("/users/birthdate", h.SetBirthDate)
		r.Post("/users/birthhour", h.SetBirthHour)
		r.Post("/users/birthminute", h.SetBirthMinute)
		r.Post("/users/profile-complete", h.SetProfileComplete)
		r.Post("/users/partner/name", h.SetPartnerName)
		r.Post("/users/partner/birthdate", h.SetPartnerBirthDate)
		r.Post("/users/partner/birthhour", h.SetPartnerBirthHour)
		r.Post("/users/partner/birthminute", h.SetPartnerBirthMinute)

		// Geocoding
		r.Post("/geocode", h.Geocode)
		r.Post("/geocode/partner", h.GeocodePartner)

		// Subscription
		r.Post("/subscription/subscribe", h.Subscribe)
		r.Post("/subscription/get", h.GetSubscription)
		r.Post("/subscription/cancel", h.CancelSubscription)

		// Active spread
		r.Post("/spread/start", h.StartSpread)
		r.Post("/spread/get", h.GetSpread)
		r.Post("/spread/data", h.UpdateSpreadData)
		r.Post("/spread/complete", h.CompleteSpread)
		r.Post("/spread/clear", h.ClearSpread)

		// Astrology reports (entitlement-gated)
		r.Post("/astrology/yes-no-tarot", h.YesNoTarot)
		r.Post("/astrology/romantic-personality", h.RomanticPersonality)
		r.Post("/astrology/personality", h.Personality)
		r.Post("/astrology/karma-destiny", h.KarmaDestiny)
		r.Post("/astrology/tarot-predictions", h.TarotPredictions)
		r.Post("/astrology/moon-phase", h.MoonPhase)

		// Administrative
		r.Post("/admin/migrate-free-requests", h.MigrateFreeRequests)
	})

	r.NotFound(h.NotFound)
}
