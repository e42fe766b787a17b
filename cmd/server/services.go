package main

import (
	"fmt"

	"codeberg.org/fitcoach/server/fitcoach/accounts"
	"codeberg.org/fitcoach/server/fitcoach/plans"
	"codeberg.org/fitcoach/server/internal/billing"
	"codeberg.org/fitcoach/server/internal/config"
	"codeberg.org/fitcoach/server/internal/llm"
	"codeberg.org/fitcoach/server/internal/logger"
	"codeberg.org/fitcoach/server/internal/metering"
	"codeberg.org/fitcoach/server/internal/plancache"
	"codeberg.org/fitcoach/server/internal/planner"
	"codeberg.org/fitcoach/server/internal/quota"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stripe/stripe-go/v81/client"
)

// creates and configures all domain services
func InitializeServices(cfg *config.Config, db *pgxpool.Pool, rdb *redis.Client, accountRepo accounts.Repository) (*Services, error) {
	generator, err := llm.NewTextGenerator(llm.ConfigFromApp(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create text generator: %w", err)
	}

	pricing, err := metering.LoadPricingTable(cfg.PricingTableJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to load pricing table: %w", err)
	}

	var cache plancache.Store
	switch cfg.PlanCacheBackend {
	case "redis":
		cache = plancache.NewRedisStore(rdb, plancache.DefaultRedisTTL)
	default:
		cache = plancache.NewPostgresStore(db)
	}

	ledger := quota.NewLedger(quota.NewPostgresStore(db), map[string]int{
		string(accounts.PlanFree): cfg.FreeDailyGenerations,
		string(accounts.PlanPro):  cfg.ProDailyGenerations,
	})

	p := planner.New(planner.Deps{
		Generator:    generator,
		Cache:        cache,
		Quota:        ledger,
		Meter:        metering.NewMeter(accountRepo, pricing),
		Plans:        plans.NewPostgresRepository(db),
		Accounts:     accountRepo,
		MeteredPlans: cfg.MeteredPlans,
	})

	stripeAPI := client.New(cfg.StripeSecretKey, nil)

	reconciler := billing.NewReconciler(
		accountRepo,
		billing.NewStripeSource(stripeAPI, cfg.StripePriceID),
		cfg.StripePriceID,
		cfg.MonthlyTokenAllowance,
	)

	logger.Info("services initialized",
		"generator", generator.Model(),
		"plan_cache", cfg.PlanCacheBackend,
		"metered_plans", cfg.MeteredPlans,
	)

	return &Services{
		Planner:    p,
		Quota:      ledger,
		Reconciler: reconciler,
		Webhooks:   billing.NewWebhookProcessor(cfg.StripeWebhookSecret, billing.NewRedisEventLog(rdb), reconciler),
		Checkout:   billing.NewCheckout(stripeAPI, cfg.StripePriceID, cfg.FrontendURL),
	}, nil
}
