package repositories

import (
	"context"
	"errors"

	"bunkhouse/internal/database"
	"bunkhouse/pkg/logger"

	"gorm.io/gorm"
)

var (
	_ Store = (*GormStore)(nil)
	_ Store = (*MemoryStore)(nil)
)

// GormStore is the relational backend. Each entity lives in its own
// repository; GormStore composes them and owns transactions.
type GormStore struct {
	*unitRepository
	*stayRepository
	*problemRepository
	*tokenRepository
	*settingsRepository
	*cleaningRepository

	transaction *database.TransactionService
	log         logger.Logger
}

func NewGormStore(db database.DB) *GormStore {
	return &GormStore{
		unitRepository:     &unitRepository{db: db, log: logger.New("unitRepository")},
		stayRepository:     &stayRepository{db: db, log: logger.New("stayRepository")},
		problemRepository:  &problemRepository{db: db, log: logger.New("problemRepository")},
		tokenRepository:    &tokenRepository{db: db, log: logger.New("tokenRepository")},
		settingsRepository: &settingsRepository{db: db, log: logger.New("settingsRepository")},
		cleaningRepository: &cleaningRepository{db: db, log: logger.New("cleaningRepository")},
		transaction:        database.NewTransactionService(db),
		log:                logger.New("gormStore"),
	}
}

// Atomic returns fn's error unchanged; begin, commit and rollback failures
// surface as ErrStorage.
func (s *GormStore) Atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	err := s.transaction.Execute(ctx, func(ctx context.Context, _ *gorm.DB) error {
		return fn(ctx)
	})
	if errors.Is(err, database.ErrTransaction) {
		return storageError(err)
	}
	return err
}

// conn returns the transaction carried by ctx, or a plain session.
func conn(ctx context.Context, db database.DB) *gorm.DB {
	if tx, ok := database.TransactionFrom(ctx); ok {
		return tx.WithContext(ctx)
	}
	return db.SQLWithContext(ctx)
}

// paginateQuery counts query, then fetches one ordered page of it.
func paginateQuery[T any](query *gorm.DB, order string, p Pagination) (Page[T], error) {
	p = p.Normalize()

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return Page[T]{}, err
	}

	var items []T
	if err := query.Session(&gorm.Session{}).Order(order).Offset(p.Offset()).Limit(p.Limit).Find(&items).Error; err != nil {
		return Page[T]{}, err
	}

	return NewPage(items, p, total), nil
}
