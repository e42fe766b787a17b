package main

import (
	"context"
	"time"

	"codeberg.org/fitcoach/server/api/rest/billing"
	"codeberg.org/fitcoach/server/api/rest/health"
	"codeberg.org/fitcoach/server/api/rest/plans"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// sets up all API routes and middleware
func RegisterRoutes(router *gin.Engine, server *Server) {
	router.Use(CORSMiddleware(server.config.FrontendURL))

	router.GET("/health", health.Handler)
	router.GET("/ready", health.ReadyHandler(map[string]health.Pinger{
		"postgres": server.db,
		"redis": health.PingFunc(func(ctx context.Context) error {
			return server.redis.Ping(ctx).Err()
		}),
	}))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/ping", health.PingHandler)

		billing.RegisterWebhookRoutes(v1, server.services.Webhooks)

		protected := v1.Group("")
		protected.Use(server.auth.Middleware(), server.limiter.Middleware())

		plans.RegisterRoutes(protected, server.services.Planner)
		billing.RegisterRoutes(protected, billing.StatusDeps{
			Accounts:  server.accounts,
			Syncer:    server.services.Reconciler,
			Quota:     server.services.Quota,
			IsMetered: server.services.Planner.IsMetered,
			Now:       time.Now,
		}, server.services.Checkout)
	}
}

// browsers may only call the API from the frontend origin
func CORSMiddleware(frontendURL string) gin.HandlerFunc {
	origins := []string{"http://localhost:3000"}
	if frontendURL != "" {
		origins = append(origins, frontendURL)
	}

	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "Accept-Language"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}
