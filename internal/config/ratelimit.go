package config

import "time"

// RateLimitConfig configures the redis token bucket. Auth endpoints get a
// separate, smaller bucket so password guessing is throttled harder than
// browsing.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	AuthCapacity   int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	KeyStrategy    string
	Prefix         string
	Debug          bool
}

func LoadRateLimitConfig() RateLimitConfig {
	def := RateLimitConfig{
		Enabled:        envBool("RATE_LIMIT_ENABLED", true),
		Capacity:       envInt("RATE_LIMIT_CAPACITY", 60),
		AuthCapacity:   envInt("RATE_LIMIT_AUTH_CAPACITY", 10),
		RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
		TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
		KeyStrategy:    envStr("RATE_LIMIT_KEY_STRATEGY", "ip_user_route"),
		Prefix:         envStr("RATE_LIMIT_PREFIX", "pharmacy:rl"),
		Debug:          envBool("RATE_LIMIT_DEBUG", false),
	}
	if b := envInt("RATE_LIMIT_BURST", -1); b > 0 {
		def.Capacity = b
	}
	if every := envDur("RATE_LIMIT_REFILL_EVERY", 0); every > 0 {
		def.RefillTokens = 1
		def.RefillInterval = every
	}
	if def.Capacity < 1 {
		def.Capacity = 1
	}
	if def.AuthCapacity < 1 || def.AuthCapacity > def.Capacity {
		def.AuthCapacity = def.Capacity
	}
	if def.RefillTokens < 1 {
		def.RefillTokens = 1
	}
	if def.RefillInterval <= 0 {
		def.RefillInterval = time.Second
	}
	minTTL := 5 * def.RefillInterval
	if def.TTL < minTTL {
		def.TTL = minTTL
	}
	return def
}

// WithCapacity returns a copy of c using a different bucket size and key
// prefix, for route groups that need their own limit.
func (c RateLimitConfig) WithCapacity(capacity int, prefix string) RateLimitConfig {
	c.Capacity = capacity
	c.Prefix = c.Prefix + ":" + prefix
	return c
}
