// Package ratelimit throttles HTTP requests per client before they reach
// handlers. signed-in callers are keyed by user id, everyone else by IP.
package ratelimit

import (
	"fmt"
	"strings"

	"codeberg.org/fitcoach/server/internal/auth"
	apierrors "codeberg.org/fitcoach/server/internal/errors"
	"codeberg.org/fitcoach/server/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

const keyPrefix = "ratelimit"

type Config struct {
	// formatted rate, e.g. "30-M" for 30 requests per minute
	Rate string

	// paths that are never limited (health checks, webhooks)
	ExemptPaths []string
}

func DefaultConfig() *Config {
	return &Config{
		Rate: "30-M",
		ExemptPaths: []string{
			"/health",
			"/ready",
			"/ping",
			"/api/v1/billing/webhook",
		},
	}
}

type Limiter struct {
	config   *Config
	instance *limiter.Limiter
}

// limiter shared by every replica through redis
func NewRedis(cfg *Config, client *redis.Client) (*Limiter, error) {
	store, err := sredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: keyPrefix})
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit store: %w", err)
	}

	return newLimiter(cfg, store)
}

// process-local limiter for tests and single-node runs
func NewMemory(cfg *Config) (*Limiter, error) {
	return newLimiter(cfg, memory.NewStore())
}

func newLimiter(cfg *Config, store limiter.Store) (*Limiter, error) {
	rate, err := limiter.NewRateFromFormatted(cfg.Rate)
	if err != nil {
		return nil, fmt.Errorf("invalid rate %q: %w", cfg.Rate, err)
	}

	return &Limiter{config: cfg, instance: limiter.New(store, rate)}, nil
}

// returns a gin middleware that answers 429 once a client spends its rate.
// store failures let the request through.
func (l *Limiter) Middleware() gin.HandlerFunc {
	limit := mgin.NewMiddleware(l.instance,
		mgin.WithKeyGetter(clientKey),
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			logger.Debug("rate limit reached", "key", clientKey(c), "path", c.Request.URL.Path)
			apierrors.TooManyRequests(c)
		}),
		mgin.WithErrorHandler(func(c *gin.Context, err error) {
			logger.Warn("rate limit store unavailable", "error", err)
			c.Next()
		}),
	)

	return func(c *gin.Context) {
		if l.isExempt(c.Request.URL.Path) {
			c.Next()
			return
		}

		limit(c)
	}
}

func (l *Limiter) isExempt(path string) bool {
	for _, p := range l.config.ExemptPaths {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}

	return false
}

func clientKey(c *gin.Context) string {
	if userID, ok := auth.GetUserID(c); ok {
		return "user:" + userID
	}

	return "ip:" + c.ClientIP()
}
