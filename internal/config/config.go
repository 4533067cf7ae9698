package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment names recognised by the platform. The in-process counter
// fallback is only permitted in development and test.
const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Config represents runtime configuration for the canpoli services.
type Config struct {
	Port        string
	DatabaseURL string
	Environment string

	// House of Commons ingestion.
	HoCAPITimeout           time.Duration
	HoCParliament           int
	HoCSession              int
	HoCMaxConcurrency       int
	HoCMinRequestInterval   time.Duration
	HoCDebatesMaxSitting    int
	HoCDebatesLookahead     int
	HoCDebatesMaxMissing    int
	HoCDebateLanguages      []string
	HoCEnableMembers        bool
	HoCEnableRoles          bool
	HoCEnablePartyStandings bool
	HoCEnableVotes          bool
	HoCEnablePetitions      bool
	HoCEnableDebates        bool
	HoCEnableExpenditures   bool
	HoCEnableBills          bool

	// Rate limiting and usage metering.
	FreeRateLimitPerMinute int
	PaidRateLimitPerMinute int
	RedisURL               string

	// API keys.
	APIKeyHMACSecret string

	// Stripe billing.
	StripeSecretKey         string
	StripeWebhookSecret     string
	StripePriceID           string
	StripeCheckoutSuccess   string
	StripeCheckoutCancel    string
	StripePortalReturnURL   string

	// Bearer-token auth.
	AuthIssuer       string
	AuthAudience     []string
	AuthHSSecret     string
	AuthRSAPublicKey string

	// CORS.
	CORSOrigins []string
}

// FromEnv loads configuration from environment variables. A local .env file
// is merged in first when present so development setups match deployment.
func FromEnv() (*Config, error) {
	_ = godotenv.Load()

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	environment := strings.ToLower(getEnvDefault("ENVIRONMENT", EnvDevelopment))
	switch environment {
	case EnvDevelopment, EnvTest, EnvStaging, EnvProduction:
	default:
		return nil, fmt.Errorf("invalid ENVIRONMENT %q", environment)
	}

	timeoutSeconds, err := parseFloatEnv("HOC_API_TIMEOUT", 10)
	if err != nil {
		return nil, err
	}
	intervalMS, err := parseIntEnv("HOC_MIN_REQUEST_INTERVAL_MS", 250)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:                  getEnvDefault("PORT", "8080"),
		DatabaseURL:           dbURL,
		Environment:           environment,
		HoCAPITimeout:         time.Duration(timeoutSeconds * float64(time.Second)),
		HoCMinRequestInterval: time.Duration(intervalMS) * time.Millisecond,
		HoCDebateLanguages:    parseCSVEnv("HOC_DEBATE_LANGUAGES"),
		RedisURL:              strings.TrimSpace(os.Getenv("REDIS_URL")),
		APIKeyHMACSecret:      strings.TrimSpace(os.Getenv("API_KEY_HMAC_SECRET")),
		StripeSecretKey:       strings.TrimSpace(os.Getenv("STRIPE_SECRET_KEY")),
		StripeWebhookSecret:   strings.TrimSpace(os.Getenv("STRIPE_WEBHOOK_SECRET")),
		StripePriceID:         strings.TrimSpace(os.Getenv("STRIPE_PRICE_ID")),
		StripeCheckoutSuccess: strings.TrimSpace(os.Getenv("STRIPE_CHECKOUT_SUCCESS_URL")),
		StripeCheckoutCancel:  strings.TrimSpace(os.Getenv("STRIPE_CHECKOUT_CANCEL_URL")),
		StripePortalReturnURL: strings.TrimSpace(os.Getenv("STRIPE_PORTAL_RETURN_URL")),
		AuthIssuer:            strings.TrimSpace(os.Getenv("AUTH_ISSUER")),
		AuthAudience:          parseCSVEnv("AUTH_AUDIENCE"),
		AuthHSSecret:          strings.TrimSpace(os.Getenv("AUTH_HS_SECRET")),
		AuthRSAPublicKey:      strings.TrimSpace(os.Getenv("AUTH_RSA_PUBLIC_KEY_FILE")),
		CORSOrigins:           parseCSVEnv("CORS_ORIGINS"),
	}
	if len(cfg.HoCDebateLanguages) == 0 {
		cfg.HoCDebateLanguages = []string{"en", "fr"}
	}

	intFields := []struct {
		name string
		dst  *int
		def  int
		min  int
	}{
		{"HOC_PARLIAMENT", &cfg.HoCParliament, 45, 1},
		{"HOC_SESSION", &cfg.HoCSession, 1, 1},
		{"HOC_MAX_CONCURRENCY", &cfg.HoCMaxConcurrency, 4, 1},
		{"HOC_DEBATES_MAX_SITTING", &cfg.HoCDebatesMaxSitting, 200, 1},
		{"HOC_DEBATES_LOOKAHEAD", &cfg.HoCDebatesLookahead, 10, 1},
		{"HOC_DEBATES_MAX_MISSING", &cfg.HoCDebatesMaxMissing, 20, 1},
		{"FREE_RATE_LIMIT_PER_MINUTE", &cfg.FreeRateLimitPerMinute, 50, 1},
		{"PAID_RATE_LIMIT_PER_MINUTE", &cfg.PaidRateLimitPerMinute, 500, 1},
	}
	for _, field := range intFields {
		value, err := parseIntEnv(field.name, field.def)
		if err != nil {
			return nil, err
		}
		if value < field.min {
			return nil, fmt.Errorf("%s must be >= %d", field.name, field.min)
		}
		*field.dst = value
	}

	boolFields := []struct {
		name string
		dst  *bool
	}{
		{"HOC_ENABLE_MEMBERS", &cfg.HoCEnableMembers},
		{"HOC_ENABLE_ROLES", &cfg.HoCEnableRoles},
		{"HOC_ENABLE_PARTY_STANDINGS", &cfg.HoCEnablePartyStandings},
		{"HOC_ENABLE_VOTES", &cfg.HoCEnableVotes},
		{"HOC_ENABLE_PETITIONS", &cfg.HoCEnablePetitions},
		{"HOC_ENABLE_DEBATES", &cfg.HoCEnableDebates},
		{"HOC_ENABLE_EXPENDITURES", &cfg.HoCEnableExpenditures},
		{"HOC_ENABLE_BILLS", &cfg.HoCEnableBills},
	}
	for _, field := range boolFields {
		value, err := parseBoolEnv(field.name, true)
		if err != nil {
			return nil, err
		}
		*field.dst = value
	}

	if cfg.RedisURL == "" && environment != EnvDevelopment && environment != EnvTest {
		return nil, fmt.Errorf("REDIS_URL is required outside development/test")
	}

	return cfg, nil
}

// IsDevOrTest reports whether the in-process counter fallback is permitted.
func (c *Config) IsDevOrTest() bool {
	return c.Environment == EnvDevelopment || c.Environment == EnvTest
}

func getEnvDefault(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func parseIntEnv(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return value, nil
}

func parseFloatEnv(key string, fallback float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return value, nil
}

func parseBoolEnv(key string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q", key, raw)
	}
	return value, nil
}

func parseCSVEnv(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
