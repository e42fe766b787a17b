package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseEnv() map[string]string {
	return map[string]string{
		"DATABASE_URL":          "postgres://localhost/fitcoach",
		"REDIS_URL":             "redis://localhost:6379/0",
		"JWT_SECRET":            "secret",
		"ANTHROPIC_API_KEY":     "sk-ant",
		"STRIPE_SECRET_KEY":     "sk_test",
		"STRIPE_WEBHOOK_SECRET": "whsec_test",
		"STRIPE_PRICE_ID":       "price_pro",
	}
}

func lookup(env map[string]string) func(string) string {
	return func(k string) string { return env[k] }
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(lookup(baseEnv()))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "anthropic", cfg.GeneratorProvider)
	assert.Equal(t, "postgres", cfg.PlanCacheBackend)
	assert.Equal(t, 3, cfg.FreeDailyGenerations)
	assert.Equal(t, 20, cfg.ProDailyGenerations)
	assert.Equal(t, int64(200_000), cfg.MonthlyTokenAllowance)
	assert.Equal(t, []string{"PRO"}, cfg.MeteredPlans)
	assert.Equal(t, 90*time.Second, cfg.GeneratorTimeout)
	assert.Equal(t, "30-M", cfg.HTTPRateLimit)
}

func TestLoad_MissingRequired(t *testing.T) {
	for _, name := range []string{"DATABASE_URL", "REDIS_URL", "JWT_SECRET", "STRIPE_SECRET_KEY", "STRIPE_WEBHOOK_SECRET", "STRIPE_PRICE_ID"} {
		t.Run(name, func(t *testing.T) {
			env := baseEnv()
			delete(env, name)

			_, err := Load(lookup(env))
			require.Error(t, err)
			assert.Contains(t, err.Error(), name)
		})
	}
}

func TestLoad_OpenAIProviderNeedsKey(t *testing.T) {
	env := baseEnv()
	env["GENERATOR_PROVIDER"] = "OpenAI"

	_, err := Load(lookup(env))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")

	env["OPENAI_API_KEY"] = "sk-openai"
	cfg, err := Load(lookup(env))
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.GeneratorProvider)
}

func TestLoad_Overrides(t *testing.T) {
	env := baseEnv()
	env["ENVIRONMENT"] = "production"
	env["FREE_DAILY_GENERATIONS"] = "0"
	env["PRO_DAILY_GENERATIONS"] = "50"
	env["MONTHLY_TOKEN_ALLOWANCE"] = "1000"
	env["METERED_PLANS"] = " pro , free ,"
	env["PLAN_CACHE_BACKEND"] = "Redis"
	env["GENERATOR_TIMEOUT"] = "30s"
	env["FRONTEND_URL"] = "https://app.example.com/"

	cfg, err := Load(lookup(env))
	require.NoError(t, err)

	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, 0, cfg.FreeDailyGenerations)
	assert.Equal(t, 50, cfg.ProDailyGenerations)
	assert.Equal(t, int64(1000), cfg.MonthlyTokenAllowance)
	assert.Equal(t, []string{"PRO", "FREE"}, cfg.MeteredPlans)
	assert.Equal(t, "redis", cfg.PlanCacheBackend)
	assert.Equal(t, 30*time.Second, cfg.GeneratorTimeout)
	assert.Equal(t, "https://app.example.com", cfg.FrontendURL)
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"FREE_DAILY_GENERATIONS":  "three",
		"MONTHLY_TOKEN_ALLOWANCE": "-5",
		"GENERATOR_TIMEOUT":       "soon",
		"PLAN_CACHE_BACKEND":      "memcached",
		"GENERATOR_PROVIDER":      "llama",
	}

	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			env := baseEnv()
			env[key] = value

			_, err := Load(lookup(env))
			assert.Error(t, err)
		})
	}
}
