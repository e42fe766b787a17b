package config

import "time"

type Config struct {
	Environment string
	Port        string

	DatabaseURL string
	RedisURL    string
	JWTSecret   string

	// model generation
	GeneratorProvider string // "anthropic" or "openai"
	AnthropicKey      string
	OpenAIKey         string
	GeneratorModel    string
	GeneratorTimeout  time.Duration

	// billing platform
	StripeSecretKey     string
	StripeWebhookSecret string
	StripePriceID       string
	FrontendURL         string

	// entitlement + quota policy
	FreeDailyGenerations  int
	ProDailyGenerations   int
	MonthlyTokenAllowance int64
	MeteredPlans          []string
	PricingTableJSON      string

	// infrastructure knobs
	PlanCacheBackend string // "postgres" or "redis"
	HTTPRateLimit    string // ulule formatted rate, e.g. "30-M"
}

// reports whether the service runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "" || c.Environment == "development"
}
