package repositories

import (
	"context"
	"strings"
	"time"

	"bunkhouse/internal/database"
	"bunkhouse/internal/models"
	"bunkhouse/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type stayRepository struct {
	db  database.DB
	log logger.Logger
}

func (r *stayRepository) CreateStay(ctx context.Context, stay *models.Stay) error {
	log := r.log.Function("CreateStay").Unit(stay.UnitNumber)

	if err := gorm.G[models.Stay](conn(ctx, r.db)).Create(ctx, stay); err != nil {
		return storageError(log.Err("failed to create stay", err))
	}
	return nil
}

func (r *stayRepository) GetStay(ctx context.Context, id uuid.UUID) (*models.Stay, error) {
	stay, err := gorm.G[models.Stay](conn(ctx, r.db)).Where("id = ?", id).First(ctx)
	if err != nil {
		return nil, storageError(err)
	}
	return &stay, nil
}

func (r *stayRepository) SaveStay(ctx context.Context, stay *models.Stay) error {
	log := r.log.Function("SaveStay").Unit(stay.UnitNumber)

	result := conn(ctx, r.db).Model(stay).Select("*").Omit("created_at").Updates(stay)
	if result.Error != nil {
		return storageError(log.Err("failed to save stay", result.Error, "stayID", stay.ID))
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (r *stayRepository) ListActiveStays(ctx context.Context, page Pagination) (Page[models.Stay], error) {
	log := r.log.Function("ListActiveStays")

	query := conn(ctx, r.db).Model(&models.Stay{}).Where("is_checked_in = ?", true)
	result, err := paginateQuery[models.Stay](query, "checkin_time DESC, id ASC", page)
	if err != nil {
		return Page[models.Stay]{}, storageError(log.Err("failed to list active stays", err))
	}
	return result, nil
}

func (r *stayRepository) ListStayHistory(
	ctx context.Context,
	page Pagination,
	filter StayFilter,
) (Page[models.Stay], error) {
	log := r.log.Function("ListStayHistory")

	query := conn(ctx, r.db).Model(&models.Stay{}).
		Where("is_checked_in = ? AND checkout_time IS NOT NULL", false)
	if filter.UnitNumber != "" {
		query = query.Where("unit_number = ?", filter.UnitNumber)
	}
	if filter.GuestName != "" {
		query = query.Where("LOWER(guest_name) LIKE ?", "%"+strings.ToLower(filter.GuestName)+"%")
	}
	if filter.From != nil {
		query = query.Where("checkout_time >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("checkout_time <= ?", *filter.To)
	}

	result, err := paginateQuery[models.Stay](query, "checkout_time DESC, id ASC", page)
	if err != nil {
		return Page[models.Stay]{}, storageError(log.Err("failed to list stay history", err))
	}
	return result, nil
}

func (r *stayRepository) ActiveStayUnits(ctx context.Context) ([]string, error) {
	log := r.log.Function("ActiveStayUnits")

	var units []string
	err := conn(ctx, r.db).Model(&models.Stay{}).
		Where("is_checked_in = ?", true).
		Order("unit_number").
		Pluck("unit_number", &units).Error
	if err != nil {
		return nil, storageError(log.Err("failed to load active stay units", err))
	}
	if units == nil {
		units = []string{}
	}
	return units, nil
}

func (r *stayRepository) ActiveStayForUnit(ctx context.Context, number string) (*models.Stay, error) {
	stay, err := gorm.G[models.Stay](conn(ctx, r.db)).
		Where("unit_number = ? AND is_checked_in = ?", number, true).
		First(ctx)
	if err != nil {
		return nil, storageError(err)
	}
	return &stay, nil
}

func (r *stayRepository) LatestCheckedOutStay(ctx context.Context) (*models.Stay, error) {
	stay, err := gorm.G[models.Stay](conn(ctx, r.db)).
		Where("is_checked_in = ? AND checkout_time IS NOT NULL", false).
		Order("checkout_time DESC, id ASC").
		Take(ctx)
	if err != nil {
		return nil, storageError(err)
	}
	return &stay, nil
}

func (r *stayRepository) ListOverdueStays(ctx context.Context, before time.Time) ([]models.Stay, error) {
	log := r.log.Function("ListOverdueStays")

	stays, err := gorm.G[models.Stay](conn(ctx, r.db)).
		Where("is_checked_in = ? AND expected_checkout_date IS NOT NULL AND expected_checkout_date < ?", true, before).
		Order("expected_checkout_date ASC").
		Find(ctx)
	if err != nil {
		return nil, storageError(log.Err("failed to list overdue stays", err))
	}
	return stays, nil
}
