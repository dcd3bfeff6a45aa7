package config

import (
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// SearchConfig holds the subscription radius caps and request limits of the
// search endpoints.
type SearchConfig struct {
	NoneRadiusKm     float64
	BasicRadiusKm    float64
	PremiumRadiusKm  float64
	DefaultRadiusKm  float64
	Timeout          time.Duration
	SubscriptionDays int
}

func LoadSearchConfig() SearchConfig {
	return SearchConfig{
		NoneRadiusKm:     envFloat("SEARCH_RADIUS_NONE_KM", 10),
		BasicRadiusKm:    envFloat("SEARCH_RADIUS_BASIC_KM", 25),
		PremiumRadiusKm:  envFloat("SEARCH_RADIUS_PREMIUM_KM", 50),
		DefaultRadiusKm:  envFloat("SEARCH_DEFAULT_RADIUS_KM", 10),
		Timeout:          envDur("SEARCH_TIMEOUT", 5*time.Second),
		SubscriptionDays: envInt("SUBSCRIPTION_DAYS", 30),
	}
}

// Validate rejects caps that are not positive or shrink with a higher tier.
func (c SearchConfig) Validate() error {
	if c.NoneRadiusKm <= 0 || c.BasicRadiusKm <= 0 || c.PremiumRadiusKm <= 0 {
		return errors.New("search radius caps must be positive")
	}
	if c.NoneRadiusKm > c.BasicRadiusKm || c.BasicRadiusKm > c.PremiumRadiusKm {
		return errors.Errorf("search radius caps must not decrease by tier: none=%v basic=%v premium=%v",
			c.NoneRadiusKm, c.BasicRadiusKm, c.PremiumRadiusKm)
	}
	if c.DefaultRadiusKm <= 0 {
		return errors.New("SEARCH_DEFAULT_RADIUS_KM must be positive")
	}
	if c.Timeout <= 0 {
		return errors.New("SEARCH_TIMEOUT must be positive")
	}
	return nil
}

func envFloat(k string, d float64) float64 {
	v := envStr(k, "")
	if v == "" {
		return d
	}
	if f, err := cast.ToFloat64E(v); err == nil {
		return f
	}
	return d
}
