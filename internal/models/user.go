package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Status is the onboarding/conversation state asserted by the bot workflow.
// The backend records whichever status the workflow sets; it does not enforce
// an order between them.
type Status string

const (
	StatusRegistered            Status = "registered"
	StatusIdle                  Status = "idle"
	StatusAwaitingName          Status = "awaiting_name"
	StatusAwaitingBirthDate     Status = "awaiting_birthdate"
	StatusAwaitingBirthHour     Status = "awaiting_birthhour"
	StatusAwaitingBirthMinute   Status = "awaiting_birthminute"
	StatusAwaitingCity          Status = "awaiting_city"
	StatusAwaitingPartnerName   Status = "awaiting_partner_name"
	StatusAwaitingPartnerDate   Status = "awaiting_partner_birthdate"
	StatusAwaitingPartnerHour   Status = "awaiting_partner_birthhour"
	StatusAwaitingPartnerMinute Status = "awaiting_partner_birthminute"
	StatusAwaitingPartnerCity   Status = "awaiting_partner_city"
)

var statuses = map[Status]bool{
	StatusRegistered:            true,
	StatusIdle:                  true,
	StatusAwaitingName:          true,
	StatusAwaitingBirthDate:     true,
	StatusAwaitingBirthHour:     true,
	StatusAwaitingBirthMinute:   true,
	StatusAwaitingCity:          true,
	StatusAwaitingPartnerName:   true,
	StatusAwaitingPartnerDate:   true,
	StatusAwaitingPartnerHour:   true,
	StatusAwaitingPartnerMinute: true,
	StatusAwaitingPartnerCity:   true,
}

func (s Status) Valid() bool { return statuses[s] }

// SpreadType identifies an in-progress divination/report session.
// SpreadNone is the rest state.
type SpreadType string

const (
	SpreadNone                SpreadType = "none"
	SpreadYesNoTarot          SpreadType = "yes_no_tarot"
	SpreadDailyHoroscope      SpreadType = "daily_horoscope"
	SpreadCompatibility       SpreadType = "compatibility"
	SpreadNatalChart          SpreadType = "natal_chart"
	SpreadTransit             SpreadType = "transit"
	SpreadSynastry            SpreadType = "synastry"
	SpreadProgressed          SpreadType = "progressed"
	SpreadSolarReturn         SpreadType = "solar_return"
	SpreadLunarReturn         SpreadType = "lunar_return"
	SpreadCustom              SpreadType = "custom"
	SpreadRomanticPersonality SpreadType = "romantic_personality"
)

var spreadTypes = map[SpreadType]bool{
	SpreadNone:                true,
	SpreadYesNoTarot:          true,
	SpreadDailyHoroscope:      true,
	SpreadCompatibility:       true,
	SpreadNatalChart:          true,
	SpreadTransit:             true,
	SpreadSynastry:            true,
	SpreadProgressed:          true,
	SpreadSolarReturn:         true,
	SpreadLunarReturn:         true,
	SpreadCustom:              true,
	SpreadRomanticPersonality: true,
}

func (s SpreadType) Valid() bool { return spreadTypes[s] }

// Subscription lifecycle values.
type SubscriptionStatus string

const (
	SubscriptionInactive  SubscriptionStatus = "inactive"
	SubscriptionTrial     SubscriptionStatus = "trial"
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
	SubscriptionExpired   SubscriptionStatus = "expired"
)

type SubscriptionType string

const (
	SubscriptionMonthly  SubscriptionType = "monthly"
	SubscriptionYearly   SubscriptionType = "yearly"
	SubscriptionTypTrial SubscriptionType = "trial"
	SubscriptionLifetime SubscriptionType = "lifetime"
)

var subscriptionTypes = map[SubscriptionType]bool{
	SubscriptionMonthly:  true,
	SubscriptionYearly:   true,
	SubscriptionTypTrial: true,
	SubscriptionLifetime: true,
}

func (t SubscriptionType) Valid() bool { return subscriptionTypes[t] }

// Gated feature names used as freeRequests keys.
const (
	FeatureYesNoTarot          = "yesNoTarot"
	FeatureRomanticPersonality = "romanticPersonality"
	FeaturePersonality         = "personality"
	FeatureKarmaDestiny        = "karmaDestiny"
	FeatureTarotPredictions    = "tarotPredictions"
	FeatureMoonPhase           = "moonPhase"
)

// GatedFeatures lists every feature carrying a one-shot free trial.
func GatedFeatures() []string {
	return []string{
		FeatureYesNoTarot,
		FeatureRomanticPersonality,
		FeaturePersonality,
		FeatureKarmaDestiny,
		FeatureTarotPredictions,
		FeatureMoonPhase,
	}
}

// DefaultFreeRequests is the freeRequests map stamped onto new profiles.
func DefaultFreeRequests() map[string]bool {
	out := make(map[string]bool, len(GatedFeatures()))
	for _, f := range GatedFeatures() {
		out[f] = true
	}
	return out
}

// Geocode is a resolved place: coordinates, address metadata and the derived
// timezone (IANA id plus numeric UTC offset in hours, half-hour zones allowed).
type Geocode struct {
	Provider  string  `bson:"provider" json:"provider"`
	Query     string  `bson:"query" json:"query"`
	Lat       float64 `bson:"lat" json:"lat"`
	Lon       float64 `bson:"lon" json:"lon"`
	Name      string  `bson:"name,omitempty" json:"name,omitempty"`
	Precision string  `bson:"precision,omitempty" json:"precision,omitempty"`
	Address   string  `bson:"address,omitempty" json:"address,omitempty"`
	TimeZone  string  `bson:"timeZone,omitempty" json:"timeZone,omitempty"`
	TZone     float64 `bson:"tzone" json:"tzone"`
}

// Subscription is the entitlement record embedded in the profile.
type Subscription struct {
	Status        SubscriptionStatus `bson:"status" json:"status"`
	Type          SubscriptionType   `bson:"type,omitempty" json:"type,omitempty"`
	StartDate     *time.Time         `bson:"startDate,omitempty" json:"startDate,omitempty"`
	EndDate       *time.Time         `bson:"endDate,omitempty" json:"endDate,omitempty"`
	AutoRenew     bool               `bson:"autoRenew" json:"autoRenew"`
	CancelledAt   *time.Time         `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
	PaymentMethod string             `bson:"paymentMethod,omitempty" json:"paymentMethod,omitempty"`
	PaymentID     string             `bson:"paymentId,omitempty" json:"paymentId,omitempty"`
}

// IsActive derives the gate condition: an active status whose term has not
// lapsed. Cancelled subscriptions read as inactive even before endDate.
func (s *Subscription) IsActive(now time.Time) bool {
	if s == nil || s.Status != SubscriptionActive {
		return false
	}
	return s.EndDate == nil || !s.EndDate.Before(now)
}

// NeedsExpiry reports an active subscription whose endDate has passed and
// which therefore needs its status lazily corrected to expired.
func (s *Subscription) NeedsExpiry(now time.Time) bool {
	return s != nil && s.Status == SubscriptionActive && s.EndDate != nil && s.EndDate.Before(now)
}

// Partner mirrors the primary birth data for two-person reports.
type Partner struct {
	Name        string   `bson:"name,omitempty" json:"name,omitempty"`
	BirthDate   string   `bson:"birthDate,omitempty" json:"birthDate,omitempty"`
	BirthHour   *int     `bson:"birthHour,omitempty" json:"birthHour,omitempty"`
	BirthMinute *int     `bson:"birthMinute,omitempty" json:"birthMinute,omitempty"`
	Location    *Geocode `bson:"location,omitempty" json:"location,omitempty"`
}

// HasBirthData reports whether the partner's natal fields are all set.
func (p *Partner) HasBirthData() bool {
	return p != nil && p.BirthDate != "" && p.BirthHour != nil && p.BirthMinute != nil
}

// UserProfile is the single per-user document. Keyed by telegramId; created
// lazily on first contact and never hard-deleted.
type UserProfile struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	TelegramID string             `bson:"telegramId" json:"telegramId"`

	Name        string `bson:"name,omitempty" json:"name,omitempty"`
	BirthDate   string `bson:"birthDate,omitempty" json:"birthDate,omitempty"`
	BirthHour   *int   `bson:"birthHour,omitempty" json:"birthHour,omitempty"`
	BirthMinute *int   `bson:"birthMinute,omitempty" json:"birthMinute,omitempty"`

	IsProfileComplete bool     `bson:"isProfileComplete" json:"isProfileComplete"`
	Location          *Geocode `bson:"location,omitempty" json:"location,omitempty"`
	Partner           *Partner `bson:"partner,omitempty" json:"partner,omitempty"`

	Status          Status     `bson:"status" json:"status"`
	StatusUpdatedAt *time.Time `bson:"statusUpdatedAt,omitempty" json:"statusUpdatedAt,omitempty"`

	Subscription *Subscription   `bson:"subscription,omitempty" json:"subscription,omitempty"`
	FreeRequests map[string]bool `bson:"freeRequests,omitempty" json:"freeRequests,omitempty"`

	ActiveSpread          SpreadType     `bson:"activeSpread" json:"activeSpread"`
	ActiveSpreadData      map[string]any `bson:"activeSpreadData,omitempty" json:"activeSpreadData,omitempty"`
	ActiveSpreadStartedAt *time.Time     `bson:"activeSpreadStartedAt,omitempty" json:"activeSpreadStartedAt,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// HasBirthData reports whether all three natal fields are set.
func (u *UserProfile) HasBirthData() bool {
	return u.BirthDate != "" && u.BirthHour != nil && u.BirthMinute != nil
}
