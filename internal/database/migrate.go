package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/pageza/nutrisnap/backend/internal/models"
)

// RunMigrations creates or updates every table the API uses.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to auto-migrate %s schema: %w", db.Dialector.Name(), err)
	}
	return nil
}
