package repositories

import (
	"context"
	"time"

	"bunkhouse/internal/database"
	"bunkhouse/internal/models"
	"bunkhouse/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type tokenRepository struct {
	db  database.DB
	log logger.Logger
}

func (r *tokenRepository) CreateToken(ctx context.Context, token *models.GuestToken) error {
	log := r.log.Function("CreateToken")

	if err := gorm.G[models.GuestToken](conn(ctx, r.db)).Create(ctx, token); err != nil {
		return storageError(log.Err("failed to create guest token", err))
	}
	return nil
}

func (r *tokenRepository) GetToken(ctx context.Context, token string) (*models.GuestToken, error) {
	found, err := gorm.G[models.GuestToken](conn(ctx, r.db)).Where("token = ?", token).First(ctx)
	if err != nil {
		return nil, storageError(err)
	}
	return &found, nil
}

// MarkTokenUsed is a compare-and-set on is_used.
func (r *tokenRepository) MarkTokenUsed(
	ctx context.Context,
	id uuid.UUID,
	stayID uuid.UUID,
	at time.Time,
) (bool, error) {
	log := r.log.Function("MarkTokenUsed")

	result := conn(ctx, r.db).Model(&models.GuestToken{}).
		Where("id = ? AND is_used = ?", id, false).
		Updates(map[string]any{
			"is_used": true,
			"used_at": at,
			"stay_id": stayID,
		})
	if result.Error != nil {
		return false, storageError(log.Err("failed to mark token used", result.Error, "tokenID", id))
	}
	return result.RowsAffected == 1, nil
}

func (r *tokenRepository) DeleteToken(ctx context.Context, token string) (bool, error) {
	log := r.log.Function("DeleteToken")

	rowsAffected, err := gorm.G[models.GuestToken](conn(ctx, r.db)).Where("token = ?", token).Delete(ctx)
	if err != nil {
		return false, storageError(log.Err("failed to delete guest token", err))
	}
	return rowsAffected > 0, nil
}

func (r *tokenRepository) DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	log := r.log.Function("DeleteExpiredTokens")

	rowsAffected, err := gorm.G[models.GuestToken](conn(ctx, r.db)).Where("expires_at <= ?", now).Delete(ctx)
	if err != nil {
		return 0, storageError(log.Err("failed to delete expired tokens", err))
	}
	return int64(rowsAffected), nil
}

func (r *tokenRepository) ListActiveTokens(
	ctx context.Context,
	now time.Time,
	page Pagination,
) (Page[models.GuestToken], error) {
	log := r.log.Function("ListActiveTokens")

	query := conn(ctx, r.db).Model(&models.GuestToken{}).
		Where("is_used = ? AND expires_at > ?", false, now)
	result, err := paginateQuery[models.GuestToken](query, "created_at DESC, token ASC", page)
	if err != nil {
		return Page[models.GuestToken]{}, storageError(log.Err("failed to list active tokens", err))
	}
	return result, nil
}
