package config

import (
	"strings"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	for k, v := range map[string]string{
		"APP_ENV":                "test",
		"APP_PORT":               "8080",
		"DB_USER":                "app",
		"DB_HOST":                "localhost",
		"DB_PORT":                "3306",
		"DB_NAME":                "pharmacy",
		"JWT_SECRET":             "secret",
		"ACCESS_TOKEN_TTL_MIN":   "15",
		"REFRESH_TOKEN_TTL_DAYS": "7",
		"BCRYPT_COST":            "4",
	} {
		t.Setenv(k, v)
	}
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AccessTTLMin != 15 || cfg.BcryptCost != 4 {
		t.Fatalf("unexpected ints: %+v", cfg)
	}
	s := cfg.Search
	if s.NoneRadiusKm != 10 || s.BasicRadiusKm != 25 || s.PremiumRadiusKm != 50 || s.DefaultRadiusKm != 10 {
		t.Fatalf("radius defaults = %+v", s)
	}
	if s.Timeout != 5*time.Second || s.SubscriptionDays != 30 {
		t.Fatalf("search defaults = %+v", s)
	}
	if cfg.Storage.Driver != "local" || cfg.Storage.MaxUploadSize != 5<<20 {
		t.Fatalf("storage defaults = %+v", cfg.Storage)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Fatalf("CORS origins = %v", cfg.CORSOrigins)
	}
}

func TestLoadReportsAllMissing(t *testing.T) {
	setRequired(t)
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_HOST", "")
	t.Setenv("BCRYPT_COST", "ten")

	_, err := Load()
	if err == nil {
		t.Fatal("Load succeeded with missing variables")
	}
	for _, want := range []string{"DB_HOST", "JWT_SECRET", "BCRYPT_COST"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestSearchConfigOverridesAndValidation(t *testing.T) {
	setRequired(t)
	t.Setenv("SEARCH_RADIUS_BASIC_KM", "30.5")
	t.Setenv("SEARCH_RADIUS_PREMIUM_KM", "75")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Search.BasicRadiusKm != 30.5 || cfg.Search.PremiumRadiusKm != 75 {
		t.Fatalf("overrides not applied: %+v", cfg.Search)
	}

	t.Setenv("SEARCH_RADIUS_PREMIUM_KM", "20")
	if _, err := Load(); err == nil {
		t.Fatal("premium cap below basic cap accepted")
	}
}

func TestRateLimitAuthCapacity(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "5")
	t.Setenv("RATE_LIMIT_AUTH_CAPACITY", "50")
	c := LoadRateLimitConfig()
	if c.AuthCapacity != 5 {
		t.Fatalf("AuthCapacity = %d, want capped at 5", c.AuthCapacity)
	}
	auth := c.WithCapacity(c.AuthCapacity, "auth")
	if auth.Prefix != "pharmacy:rl:auth" || c.Prefix != "pharmacy:rl" {
		t.Fatalf("prefixes = %q / %q", auth.Prefix, c.Prefix)
	}
}
