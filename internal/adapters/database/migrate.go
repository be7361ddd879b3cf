package database

import (
	"fmt"

	"hangout-service/internal/models"

	"gorm.io/gorm"
)

// Migrate runs database migrations for all models
func Migrate(db *gorm.DB) error {
	// Plans first so child tables can reference them
	modelsToMigrate := []interface{}{
		&models.Plan{},
		&models.Option{},
		&models.Participant{},
		&models.Vote{},
		&models.RSVP{},
	}

	for _, model := range modelsToMigrate {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	return nil
}
