package repositories

import (
	"context"

	"bunkhouse/internal/database"
	"bunkhouse/internal/models"
	"bunkhouse/pkg/logger"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type settingsRepository struct {
	db  database.DB
	log logger.Logger
}

func (r *settingsRepository) GetSettings(ctx context.Context) (*models.Settings, error) {
	settings, err := gorm.G[models.Settings](conn(ctx, r.db)).Where("id = ?", models.SettingsID).First(ctx)
	if err != nil {
		return nil, storageError(err)
	}
	return &settings, nil
}

func (r *settingsRepository) SaveSettings(ctx context.Context, settings *models.Settings) error {
	log := r.log.Function("SaveSettings")

	settings.ID = models.SettingsID
	err := conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(settings).Error
	if err != nil {
		return storageError(log.Err("failed to save settings", err))
	}
	return nil
}
