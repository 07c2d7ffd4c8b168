package initialize

import (
	"context"

	"bunkhouse/config"
	"bunkhouse/internal/database"
	"bunkhouse/internal/repositories"
	"bunkhouse/internal/services"
	"bunkhouse/pkg/logger"
)

// InitializeTables writes the production baseline: the settings row and the
// unit registry. Both steps are idempotent.
func InitializeTables(db database.DB, cfg config.Config, log logger.Logger) error {
	log = log.Function("InitializeTables")
	log.Info("Initializing essential production data")

	ctx := context.Background()
	service, err := services.New(repositories.NewGormStore(db), nil, cfg, nil)
	if err != nil {
		return log.Err("failed to create services", err)
	}

	if err := service.Settings.EnsureDefaults(ctx); err != nil {
		return log.Err("failed to initialize settings", err)
	}

	created, err := service.Units.Seed(ctx, cfg.UnitCount)
	if err != nil {
		return log.Err("failed to initialize units", err)
	}

	log.Info("Table initialization complete", "unitsCreated", created, "unitCount", cfg.UnitCount)
	return nil
}
