package config // package config loads application configuration from environment variables

import (
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable; grouped concerns live in their own sub-configs.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	DBMigrate      bool   // create missing tables at startup
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing
	CORSOrigins    []string

	Cache     CacheConfig
	RateLimit RateLimitConfig
	Search    SearchConfig
	Storage   StorageConfig
	Log       LogConfig
	Broker    BrokerConfig
}

// Load reads a .env file when present, then builds a Config from the
// environment. All missing required variables are reported at once.
func Load() (Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	r := &reader{}
	cfg := Config{
		Env:            r.must("APP_ENV"),
		Port:           r.must("APP_PORT"),
		DBUser:         r.must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         r.must("DB_HOST"),
		DBPort:         r.must("DB_PORT"),
		DBName:         r.must("DB_NAME"),
		DBMigrate:      envBool("DB_MIGRATE", true),
		JWTSecret:      r.must("JWT_SECRET"),
		AccessTTLMin:   r.mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: r.mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     r.mustInt("BCRYPT_COST"),
		CORSOrigins:    splitList(envStr("CORS_ALLOWED_ORIGINS", "*")),

		Cache:     LoadCacheConfig(),
		RateLimit: LoadRateLimitConfig(),
		Search:    LoadSearchConfig(),
		Storage:   LoadStorageConfig(),
		Log:       LoadLogConfig(),
		Broker:    LoadBrokerConfig(),
	}
	if err := r.err(); err != nil {
		return Config{}, err
	}
	if err := cfg.Search.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// reader accumulates problems with required variables.
type reader struct {
	missing []string
	invalid []string
}

// must retrieves the value of a required environment variable.
func (r *reader) must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		r.missing = append(r.missing, key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func (r *reader) mustInt(key string) int {
	s := r.must(key)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		r.invalid = append(r.invalid, key)
	}
	return n
}

func (r *reader) err() error {
	if len(r.missing) == 0 && len(r.invalid) == 0 {
		return nil
	}
	sort.Strings(r.missing)
	sort.Strings(r.invalid)
	var parts []string
	if len(r.missing) > 0 {
		parts = append(parts, "missing required env vars: "+strings.Join(r.missing, ", "))
	}
	if len(r.invalid) > 0 {
		parts = append(parts, "invalid int env vars: "+strings.Join(r.invalid, ", "))
	}
	return errors.New(strings.Join(parts, "; "))
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
