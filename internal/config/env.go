package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultFreeDailyGenerations  = 3
	defaultProDailyGenerations   = 20
	defaultMonthlyTokenAllowance = 200_000
	defaultGeneratorTimeout      = 90 * time.Second
	defaultHTTPRateLimit         = "30-M"
)

// loads configuration from environment variables
func LoadEnvironmentVariables() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		_ = err // not an error - production environments may not have .env file
	}

	return Load(os.Getenv)
}

// builds a Config from a lookup function so tests can supply their own environment
func Load(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Environment:         getenv("ENVIRONMENT"),
		Port:                getenv("PORT"),
		DatabaseURL:         getenv("DATABASE_URL"),
		RedisURL:            getenv("REDIS_URL"),
		JWTSecret:           getenv("JWT_SECRET"),
		GeneratorProvider:   strings.ToLower(getenv("GENERATOR_PROVIDER")),
		AnthropicKey:        getenv("ANTHROPIC_API_KEY"),
		OpenAIKey:           getenv("OPENAI_API_KEY"),
		GeneratorModel:      getenv("GENERATOR_MODEL"),
		StripeSecretKey:     getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: getenv("STRIPE_WEBHOOK_SECRET"),
		StripePriceID:       getenv("STRIPE_PRICE_ID"),
		FrontendURL:         strings.TrimRight(getenv("FRONTEND_URL"), "/"),
		PricingTableJSON:    getenv("PRICING_TABLE"),
		PlanCacheBackend:    strings.ToLower(getenv("PLAN_CACHE_BACKEND")),
		HTTPRateLimit:       getenv("HTTP_RATE_LIMIT"),
	}

	required := []struct{ name, value string }{
		{"DATABASE_URL", cfg.DatabaseURL},
		{"REDIS_URL", cfg.RedisURL},
		{"JWT_SECRET", cfg.JWTSecret},
		{"STRIPE_SECRET_KEY", cfg.StripeSecretKey},
		{"STRIPE_WEBHOOK_SECRET", cfg.StripeWebhookSecret},
		{"STRIPE_PRICE_ID", cfg.StripePriceID},
	}

	for _, r := range required {
		if r.value == "" {
			return nil, fmt.Errorf("%s environment variable is required", r.name)
		}
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	switch cfg.GeneratorProvider {
	case "", "anthropic":
		cfg.GeneratorProvider = "anthropic"
		if cfg.AnthropicKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is required")
		}
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required")
		}
	default:
		return nil, fmt.Errorf("unsupported GENERATOR_PROVIDER: %s", cfg.GeneratorProvider)
	}

	switch cfg.PlanCacheBackend {
	case "":
		cfg.PlanCacheBackend = "postgres"
	case "postgres", "redis":
	default:
		return nil, fmt.Errorf("unsupported PLAN_CACHE_BACKEND: %s", cfg.PlanCacheBackend)
	}

	if cfg.HTTPRateLimit == "" {
		cfg.HTTPRateLimit = defaultHTTPRateLimit
	}

	var err error

	if cfg.FreeDailyGenerations, err = intOr(getenv, "FREE_DAILY_GENERATIONS", defaultFreeDailyGenerations); err != nil {
		return nil, err
	}

	if cfg.ProDailyGenerations, err = intOr(getenv, "PRO_DAILY_GENERATIONS", defaultProDailyGenerations); err != nil {
		return nil, err
	}

	allowance, err := intOr(getenv, "MONTHLY_TOKEN_ALLOWANCE", defaultMonthlyTokenAllowance)
	if err != nil {
		return nil, err
	}

	if allowance < 0 {
		return nil, fmt.Errorf("MONTHLY_TOKEN_ALLOWANCE must not be negative")
	}

	cfg.MonthlyTokenAllowance = int64(allowance)

	cfg.GeneratorTimeout = defaultGeneratorTimeout
	if raw := getenv("GENERATOR_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid GENERATOR_TIMEOUT: %w", err)
		}
		cfg.GeneratorTimeout = d
	}

	cfg.MeteredPlans = []string{"PRO"}
	if raw := getenv("METERED_PLANS"); raw != "" {
		cfg.MeteredPlans = splitList(raw)
	}

	return cfg, nil
}

func intOr(getenv func(string) string, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(getenv(name))
	if raw == "" {
		return fallback, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}

	return v, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		if p = strings.ToUpper(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}

	return out
}
