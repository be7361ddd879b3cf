package database

import (
	"fmt"
	"log/slog"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func NewPostgresConnection(dburi string) (*gorm.DB, error) {
	cfg := gormConfig()
	cfg.DisableForeignKeyConstraintWhenMigrating = true
	// pgbouncer in transaction mode breaks cached statements
	cfg.PrepareStmt = false

	db, err := gorm.Open(postgres.Open(dburi), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := configurePool(db); err != nil {
		return nil, err
	}

	slog.Info("Connected to PostgreSQL")
	return db, nil
}
