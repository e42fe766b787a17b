package main

import (
	"codeberg.org/fitcoach/server/fitcoach/accounts"
	"codeberg.org/fitcoach/server/internal/auth"
	"codeberg.org/fitcoach/server/internal/billing"
	"codeberg.org/fitcoach/server/internal/config"
	"codeberg.org/fitcoach/server/internal/planner"
	"codeberg.org/fitcoach/server/internal/quota"
	"codeberg.org/fitcoach/server/internal/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// holds all dependencies and state for the API server
type Server struct {
	db       *pgxpool.Pool
	redis    *redis.Client
	config   *config.Config
	auth     *auth.Authenticator
	accounts accounts.Repository
	limiter  *ratelimit.Limiter
	services *Services
	router   *gin.Engine
}

// holds the domain services built on top of the stores
type Services struct {
	Planner    *planner.Planner
	Quota      *quota.Ledger
	Reconciler *billing.Reconciler
	Webhooks   *billing.WebhookProcessor
	Checkout   *billing.Checkout
}
