package main

import (
	"context"
	"log"
	"log/slog"

	"hangout-service/internal/adapters/database"
	"hangout-service/internal/config"
	"hangout-service/internal/services"

	"github.com/spf13/pflag"
)

const schemaVersion = "1.0.0"

func main() {
	force := pflag.Bool("force", false, "migrate even when redis reports this schema version as completed")
	pflag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	ctx := context.Background()

	slog.Info("Starting database migration...", "driver", cfg.Database.Driver)

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("Failed to get database instance:", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	// Migration state lives in redis so other instances can see it; without redis always migrate
	var redisService *services.RedisService
	redisClient, err := database.NewRedisConnection(cfg.Redis)
	if err != nil {
		slog.Warn("Skipping migration state, redis unavailable", "error", err)
	} else {
		defer redisClient.Close()
		redisService = services.NewRedisService(redisClient)
	}

	if redisService != nil && !*force {
		done, err := redisService.MigrationCompleted(ctx, schemaVersion)
		if err != nil {
			slog.Warn("Failed to read migration state", "error", err)
		} else if done {
			slog.Info("Schema already migrated, nothing to do", "version", schemaVersion)
			return
		}
	}

	recordState(ctx, redisService, "running")

	slog.Info("Running GORM auto-migration...")
	if err := database.Migrate(db); err != nil {
		recordState(ctx, redisService, "failed")
		log.Fatal("Failed to migrate database:", err)
	}

	recordState(ctx, redisService, "completed")
	slog.Info("Database migration completed successfully!", "version", schemaVersion)
}

func recordState(ctx context.Context, redisService *services.RedisService, status string) {
	if redisService == nil {
		return
	}
	if err := redisService.SetMigrationState(ctx, schemaVersion, status); err != nil {
		slog.Warn("Failed to record migration state", "status", status, "error", err)
	}
}
