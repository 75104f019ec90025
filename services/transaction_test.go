package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type txKey struct{}

// MockTransactionManager is a mock implementation of TransactionManager.
// InTransaction runs fn with a marked context unless the mock returns an error.
type MockTransactionManager struct {
	mock.Mock
}

func (m *MockTransactionManager) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(context.WithValue(ctx, txKey{}, true))
}

func TestWithTransactionResult_Success(t *testing.T) {
	ctx := context.Background()
	mockTxMgr := new(MockTransactionManager)
	mockTxMgr.On("InTransaction", ctx).Return(nil)

	var sawTx bool
	result, err := WithTransactionResult(ctx, mockTxMgr, func(txCtx context.Context) (string, error) {
		sawTx, _ = txCtx.Value(txKey{}).(bool)
		return "success", nil
	})

	assert.NoError(t, err)
	assert.Equal(t, "success", result)
	assert.True(t, sawTx)
	mockTxMgr.AssertExpectations(t)
}

func TestWithTransactionResult_ErrorInFunction(t *testing.T) {
	ctx := context.Background()
	mockTxMgr := new(MockTransactionManager)
	mockTxMgr.On("InTransaction", ctx).Return(nil)
	expectedErr := errors.New("operation failed")

	result, err := WithTransactionResult(ctx, mockTxMgr, func(context.Context) (int, error) {
		return 42, expectedErr
	})

	assert.Equal(t, expectedErr, err)
	assert.Equal(t, 0, result)
}

func TestWithTransactionResult_BeginError(t *testing.T) {
	ctx := context.Background()
	mockTxMgr := new(MockTransactionManager)
	mockTxMgr.On("InTransaction", ctx).Return(errors.New("failed to begin transaction"))

	called := false
	result, err := WithTransactionResult(ctx, mockTxMgr, func(context.Context) (int, error) {
		called = true
		return 42, nil
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to begin transaction")
	assert.Equal(t, 0, result)
	assert.False(t, called)
}
