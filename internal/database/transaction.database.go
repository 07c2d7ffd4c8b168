package database

import (
	"context"
	"errors"
	"fmt"

	"bunkhouse/pkg/logger"

	"gorm.io/gorm"
)

type transactionKey struct{}

// ErrTransaction marks a failure to begin, commit or roll back, as opposed to
// an error returned by the transaction body.
var ErrTransaction = errors.New("transaction failure")

// TransactionFrom returns the transaction opened by an enclosing Execute.
func TransactionFrom(ctx context.Context) (*gorm.DB, bool) {
	tx, ok := ctx.Value(transactionKey{}).(*gorm.DB)
	return tx, ok
}

func withTransaction(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, transactionKey{}, tx)
}

// TransactionService runs work inside a single database transaction and
// publishes the transaction on the context for repositories to pick up.
type TransactionService struct {
	db  DB
	log logger.Logger
}

func NewTransactionService(db DB) *TransactionService {
	return &TransactionService{
		db:  db,
		log: logger.New("TransactionService"),
	}
}

// Execute commits when fn returns nil and rolls back otherwise. A panic inside
// fn is rolled back and returned as an error; a failed rollback after a panic
// re-panics since the connection state is unknown. When ctx already carries a
// transaction, fn joins it and the outer caller owns commit and rollback.
func (ts *TransactionService) Execute(
	ctx context.Context,
	fn func(context.Context, *gorm.DB) error,
) (err error) {
	if tx, ok := TransactionFrom(ctx); ok {
		return fn(ctx, tx)
	}

	log := ts.log.Function("Execute").TraceFromContext(ctx)

	tx := ts.db.SQLWithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("%w: %w", ErrTransaction, log.Err("failed to begin transaction", tx.Error))
	}

	defer func() {
		if r := recover(); r != nil {
			panicErr := fmt.Errorf("panic during transaction: %v", r)
			log.Er("panic during transaction, rolling back", panicErr)

			if rollbackErr := tx.Rollback().Error; rollbackErr != nil {
				log.Er("CRITICAL: failed to rollback after panic", rollbackErr, "panic", r)
				panic(fmt.Sprintf("transaction rollback failed: %v (original panic: %v)", rollbackErr, r))
			}

			err = panicErr
		}
	}()

	if err = fn(withTransaction(ctx, tx), tx); err != nil {
		if rollbackErr := tx.Rollback().Error; rollbackErr != nil {
			log.Er("CRITICAL: failed to rollback after function error", rollbackErr, "originalError", err)
			return fmt.Errorf("%w: rollback failed: %w (original error: %v)", ErrTransaction, rollbackErr, err)
		}
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("%w: %w", ErrTransaction, log.Err("failed to commit transaction", err))
	}

	return nil
}
