package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"codeberg.org/fitcoach/server/internal/logger"
	"codeberg.org/fitcoach/server/migrations"
	"github.com/golang-migrate/migrate/v4"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load() // production environments may not have .env file

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		logger.Fatal("DATABASE_URL environment variable is required")
	}

	m, err := migrations.New(databaseURL)
	if err != nil {
		logger.Fatal("failed to initialize migrations", "error", err)
	}

	defer func() {
		if sourceErr, dbErr := m.Close(); sourceErr != nil || dbErr != nil {
			logger.Warn("failed to close migration resources", "source_error", sourceErr, "db_error", dbErr)
		}
	}()

	switch os.Args[1] {
	case "up":
		err := m.Up()
		switch {
		case errors.Is(err, migrate.ErrNoChange):
			logger.Info("schema already up to date")
		case err != nil:
			logger.Fatal("failed to run migrations", "error", err)
		default:
			logger.Info("migrations applied")
		}

	case "down":
		if err := m.Steps(-1); err != nil {
			logger.Fatal("failed to roll back last migration", "error", err)
		}
		logger.Info("rolled back last migration")

	case "goto":
		if len(os.Args) < 3 {
			logger.Fatal("goto needs a version number")
		}

		version, err := strconv.ParseUint(os.Args[2], 10, 64)
		if err != nil {
			logger.Fatal("invalid version number", "error", err)
		}

		if err := m.Migrate(uint(version)); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			logger.Fatal("failed to migrate", "version", version, "error", err)
		}
		logger.Info("migrated", "version", version)

	case "status":
		version, dirty, err := m.Version()
		switch {
		case errors.Is(err, migrate.ErrNilVersion):
			logger.Info("no migrations applied yet")
		case err != nil:
			logger.Fatal("failed to read schema version", "error", err)
		default:
			logger.Info("schema version", "version", version, "dirty", dirty)
		}

	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("usage: migrate <command>")
	fmt.Println("commands:")
	fmt.Println("  up       apply all pending migrations")
	fmt.Println("  down     roll back the last migration")
	fmt.Println("  goto N   migrate to version N")
	fmt.Println("  status   print the current schema version")
}
