package search

import (
	"time"

	"github.com/iliyamo/pharmacy-marketplace/internal/model"
)

// TierPolicy maps subscription plans to the largest radius, in kilometres, a
// caller on that plan may search.
type TierPolicy struct {
	NoneKm    float64
	BasicKm   float64
	PremiumKm float64
}

// DefaultTierPolicy returns the 10/25/50 km caps used when nothing is
// configured.
func DefaultTierPolicy() TierPolicy {
	return TierPolicy{NoneKm: 10, BasicKm: 25, PremiumKm: 50}
}

// Subscription is the plan of the caller a search runs on behalf of. The zero
// value is an anonymous caller on the "none" plan.
type Subscription struct {
	Status    model.SubscriptionStatus
	ExpiresAt *time.Time
}

// SubscriptionOf extracts the plan of a pharmacy owner profile.
func SubscriptionOf(p *model.PharmacyOwnerProfile) Subscription {
	if p == nil {
		return Subscription{Status: model.SubscriptionNone}
	}
	return Subscription{Status: p.SubscriptionStatus, ExpiresAt: p.SubscriptionExpiresAt}
}

// Active reports whether the plan is a paid one that has not expired yet.
func (s Subscription) Active(now time.Time) bool {
	if s.Status == "" || s.Status == model.SubscriptionNone {
		return false
	}
	return s.ExpiresAt == nil || s.ExpiresAt.After(now)
}

// MaxRadiusFor returns the radius cap for sub. Expired or unknown plans get
// the cap of the "none" tier.
func (p TierPolicy) MaxRadiusFor(sub Subscription, now time.Time) float64 {
	if !sub.Active(now) {
		return p.NoneKm
	}
	switch sub.Status {
	case model.SubscriptionBasic:
		return p.BasicKm
	case model.SubscriptionPremium:
		return p.PremiumKm
	}
	return p.NoneKm
}

// RadiusInfo tells the caller which radius a search actually used.
type RadiusInfo struct {
	RequestedKm float64 `json:"requestedRadius"`
	EffectiveKm float64 `json:"effectiveRadius"`
	MaxKm       float64 `json:"maxRadius"`
	Clamped     bool    `json:"clamped"`
}

// Clamp caps requestedKm at the plan's maximum. A non-positive request means
// "not given" and is replaced by defaultKm before clamping.
func (p TierPolicy) Clamp(requestedKm, defaultKm float64, sub Subscription, now time.Time) RadiusInfo {
	if requestedKm <= 0 {
		requestedKm = defaultKm
	}
	capKm := p.MaxRadiusFor(sub, now)
	info := RadiusInfo{RequestedKm: requestedKm, EffectiveKm: requestedKm, MaxKm: capKm}
	if requestedKm > capKm {
		info.EffectiveKm = capKm
		info.Clamped = true
	}
	return info
}
