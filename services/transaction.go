package services

import (
	"context"

	"github.com/upb/tenant-access-gate/repositories"
)

// WithTransactionResult executes fn within a database transaction and returns its result.
// The zero value is returned when the transaction fails.
func WithTransactionResult[T any](ctx context.Context, txMgr repositories.TransactionManager, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := txMgr.InTransaction(ctx, func(txCtx context.Context) error {
		var err error
		result, err = fn(txCtx)
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
