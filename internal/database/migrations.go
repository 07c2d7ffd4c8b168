package database

import (
	"bunkhouse/internal/models"
	"bunkhouse/pkg/logger"
)

func Models() []any {
	return []any{
		&models.Unit{},
		&models.Stay{},
		&models.Problem{},
		&models.GuestToken{},
		&models.Settings{},
		&models.CleaningRecord{},
	}
}

// MigrateModels runs GORM AutoMigrate for every persisted model.
func (db *DB) MigrateModels() error {
	log := logger.New("database").Function("MigrateModels")
	log.Info("Starting database migration")

	for _, model := range Models() {
		if err := db.SQL.AutoMigrate(model); err != nil {
			return log.Err("failed to migrate model", err, "model", model)
		}
	}

	log.Info("Database migration completed successfully")
	return nil
}
