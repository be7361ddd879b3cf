package database

import (
	"fmt"
	"log/slog"
	"time"

	"hangout-service/internal/config"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	maxConnectRetries = 5
	connectRetryDelay = 5 * time.Second
)

// Open connects to the relational store selected by cfg.Driver
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	switch cfg.Driver {
	case "mysql":
		return NewMySQLDB(cfg.DSN())
	case "postgres":
		return NewPostgresConnection(cfg.DSN())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Warn),
		SkipDefaultTransaction: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// NewMySQLDB creates a new MySQL database connection
func NewMySQLDB(dsn string) (*gorm.DB, error) {
	// Retry the initial connection while the container comes up
	var db *gorm.DB
	var err error
	for i := 0; i < maxConnectRetries; i++ {
		db, err = gorm.Open(mysql.Open(dsn), gormConfig())
		if err == nil {
			break
		}
		slog.Warn("Failed to connect to database", "attempt", i+1, "maxRetries", maxConnectRetries, "error", err)
		time.Sleep(connectRetryDelay)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxConnectRetries, err)
	}

	if err := configurePool(db); err != nil {
		return nil, err
	}

	slog.Info("Connected to MySQL")
	return db, nil
}

func configurePool(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)
	return nil
}
