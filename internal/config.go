package internal

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env         string
	Port        int
	LogLevel    string
	DatabaseUrl string

	// Front-end origin, used for checkout redirect URLs and CORS.
	FrontendURL string

	// Additional allowed CORS origins (comma-separated env var).
	AllowedOrigins []string

	// AI Provider Configuration
	AIProvider       string // "gemini" or "mock"
	GeminiAPIKey     string
	GeminiModel      string
	AIMaxRetries     int
	AIRetryBaseDelay time.Duration
	AIRequestTimeout time.Duration

	// Stripe Billing Configuration
	// Optional: billing endpoints answer 503 STRIPE_NOT_CONFIGURED when empty.
	StripeSecretKey     string // Stripe API secret key (sk_test_... or sk_live_...)
	StripeWebhookSecret string // Stripe webhook signing secret (whsec_...)

	// Stripe price IDs for the paid plans
	StripePriceStarter string
	StripePricePremium string

	// Metrics endpoint authentication
	// If both are empty, the /metrics endpoint will be unprotected (not recommended)
	MetricsUsername string
	MetricsPassword string
}

func NewConfig() (*Config, error) {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 3001),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),

		// AI provider defaults
		AIProvider:       getEnv("AI_PROVIDER", "gemini"),
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		AIMaxRetries:     getEnvInt("AI_MAX_RETRIES", 3),
		AIRetryBaseDelay: getEnvDuration("AI_RETRY_BASE_DELAY", 1*time.Second),
		AIRequestTimeout: getEnvDuration("AI_REQUEST_TIMEOUT", 60*time.Second),

		// Stripe billing (optional — endpoints answer 503 without these)
		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		StripePriceStarter:  getEnv("STRIPE_PRICE_STARTER", ""),
		StripePricePremium:  getEnv("STRIPE_PRICE_PREMIUM", ""),

		// Metrics authentication
		MetricsUsername: getEnv("METRICS_USERNAME", ""),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),
	}

	// Parse allowed origins from comma-separated environment variable
	originsStr := getEnv("ALLOWED_ORIGINS", "")
	if originsStr != "" {
		for _, origin := range strings.Split(originsStr, ",") {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
			}
		}
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{cfg.FrontendURL}
	}

	// Required
	cfg.DatabaseUrl = os.Getenv("DATABASE_URL")
	if cfg.DatabaseUrl == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	// Validate AI provider configuration
	if cfg.AIProvider == "gemini" {
		if cfg.GeminiAPIKey == "" || cfg.GeminiAPIKey == "placeholder_key" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required when AI_PROVIDER is 'gemini'")
		}
	} else if cfg.AIProvider != "mock" {
		return nil, fmt.Errorf("AI_PROVIDER must be either 'gemini' or 'mock', got: %s", cfg.AIProvider)
	}

	// Stripe key, when set, must look like a real secret key
	if cfg.StripeSecretKey != "" {
		if !strings.HasPrefix(cfg.StripeSecretKey, "sk_test_") && !strings.HasPrefix(cfg.StripeSecretKey, "sk_live_") {
			return nil, fmt.Errorf("STRIPE_SECRET_KEY must start with sk_test_ or sk_live_")
		}
	}

	return cfg, nil
}

// StripeConfigured reports whether billing is enabled. Placeholder keys from
// example env files count as unconfigured.
func (c *Config) StripeConfigured() bool {
	return c.StripeSecretKey != "" && len(c.StripeSecretKey) > 20
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
