package repositories

import (
	"context"

	"bunkhouse/internal/database"
	"bunkhouse/internal/models"
	"bunkhouse/pkg/logger"

	"gorm.io/gorm"
)

type cleaningRepository struct {
	db  database.DB
	log logger.Logger
}

func (r *cleaningRepository) CreateCleaningRecord(ctx context.Context, record *models.CleaningRecord) error {
	log := r.log.Function("CreateCleaningRecord").Unit(record.UnitNumber)

	if err := gorm.G[models.CleaningRecord](conn(ctx, r.db)).Create(ctx, record); err != nil {
		return storageError(log.Err("failed to create cleaning record", err))
	}
	return nil
}

func (r *cleaningRepository) ListCleaningRecords(
	ctx context.Context,
	number string,
	page Pagination,
) (Page[models.CleaningRecord], error) {
	log := r.log.Function("ListCleaningRecords")

	query := conn(ctx, r.db).Model(&models.CleaningRecord{})
	if number != "" {
		query = query.Where("unit_number = ?", number)
	}

	result, err := paginateQuery[models.CleaningRecord](query, "cleaned_at DESC, id ASC", page)
	if err != nil {
		return Page[models.CleaningRecord]{}, storageError(log.Err("failed to list cleaning records", err))
	}
	return result, nil
}
