package repositories

import (
	"context"
	"time"

	"bunkhouse/internal/database"
	"bunkhouse/internal/models"
	"bunkhouse/pkg/logger"

	"gorm.io/gorm"
)

type unitRepository struct {
	db  database.DB
	log logger.Logger
}

func (r *unitRepository) CreateUnit(ctx context.Context, unit *models.Unit) error {
	log := r.log.Function("CreateUnit")

	if err := gorm.G[models.Unit](conn(ctx, r.db)).Create(ctx, unit); err != nil {
		return storageError(log.Err("failed to create unit", err, "unitNumber", unit.Number))
	}
	return nil
}

func (r *unitRepository) GetUnit(ctx context.Context, number string) (*models.Unit, error) {
	unit, err := gorm.G[models.Unit](conn(ctx, r.db)).Where("number = ?", number).First(ctx)
	if err != nil {
		return nil, storageError(err)
	}
	return &unit, nil
}

func (r *unitRepository) ListUnits(ctx context.Context) ([]models.Unit, error) {
	log := r.log.Function("ListUnits")

	units, err := gorm.G[models.Unit](conn(ctx, r.db)).Find(ctx)
	if err != nil {
		return nil, storageError(log.Err("failed to list units", err))
	}
	SortUnits(units)
	return units, nil
}

func (r *unitRepository) ListUnitsByCleaningStatus(
	ctx context.Context,
	status models.CleaningStatus,
) ([]models.Unit, error) {
	log := r.log.Function("ListUnitsByCleaningStatus")

	units, err := gorm.G[models.Unit](conn(ctx, r.db)).Where("cleaning_status = ?", status).Find(ctx)
	if err != nil {
		return nil, storageError(log.Err("failed to list units by cleaning status", err, "status", status))
	}
	SortUnits(units)
	return units, nil
}

func (r *unitRepository) updateUnit(ctx context.Context, number string, updates map[string]any) error {
	result := conn(ctx, r.db).Model(&models.Unit{}).Where("number = ?", number).Updates(updates)
	if result.Error != nil {
		return storageError(r.log.Function("updateUnit").
			Err("failed to update unit", result.Error, "unitNumber", number))
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (r *unitRepository) SetUnitAvailability(ctx context.Context, number string, available bool) error {
	return r.updateUnit(ctx, number, map[string]any{"is_available": available})
}

// ClaimUnit is a compare-and-set on is_available. Concurrent claims on the
// same unit serialize on the row and only one observes a changed row.
func (r *unitRepository) ClaimUnit(ctx context.Context, number string) (bool, error) {
	log := r.log.Function("ClaimUnit").Unit(number)

	result := conn(ctx, r.db).Model(&models.Unit{}).
		Where("number = ? AND is_available = ?", number, true).
		Update("is_available", false)
	if result.Error != nil {
		return false, storageError(log.Err("failed to claim unit", result.Error))
	}
	return result.RowsAffected == 1, nil
}

func (r *unitRepository) SetUnitCleaningStatus(
	ctx context.Context,
	number string,
	status models.CleaningStatus,
	actor string,
	at time.Time,
) error {
	updates := map[string]any{"cleaning_status": status}
	if status == models.CleaningStatusCleaned {
		updates["last_cleaned_at"] = at
		updates["last_cleaned_by"] = actor
	}
	return r.updateUnit(ctx, number, updates)
}

func (r *unitRepository) SetUnitToRent(ctx context.Context, number string, toRent bool) error {
	return r.updateUnit(ctx, number, map[string]any{"to_rent": toRent})
}
