package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"codeberg.org/fitcoach/server/fitcoach/accounts"
	"codeberg.org/fitcoach/server/internal/auth"
	"codeberg.org/fitcoach/server/internal/logger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

// prints a session token for a local test user and makes sure the user has
// an entitlement account. development only.
func main() {
	_ = godotenv.Load() // .env is optional

	userID := flag.String("user", "", "user id (random when empty)")
	email := flag.String("email", "test@fitcoach.dev", "email claim")
	name := flag.String("name", "Test", "display name claim")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		logger.Fatal("JWT_SECRET not set")
	}

	if *userID == "" {
		*userID = uuid.NewString()
	}

	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		ctx := context.Background()

		db, err := pgxpool.New(ctx, dsn)
		if err != nil {
			logger.Fatal("failed to connect to database", "error", err)
		}
		defer db.Close()

		acc, err := accounts.NewPostgresRepository(db).Get(ctx, *userID)
		if err != nil {
			logger.Fatal("failed to create entitlement account", "error", err)
		}

		logger.Info("entitlement account ready", "user_id", acc.UserID, "plan", acc.Plan)
	}

	authenticator, err := auth.New(secret)
	if err != nil {
		logger.Fatal("failed to initialize auth", "error", err)
	}

	token, err := authenticator.GenerateToken(*userID, *email, *name)
	if err != nil {
		logger.Fatal("failed to generate token", "error", err)
	}

	fmt.Printf("export TEST_TOKEN=%q\n", token)
}
