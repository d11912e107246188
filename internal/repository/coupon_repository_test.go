package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiendalink/rewards/internal/model"
	"github.com/tiendalink/rewards/internal/service"
)

// mockRow implements pgx.Row.
type mockRow struct {
	scanFn func(dest ...any) error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.scanFn != nil {
		return m.scanFn(dest...)
	}
	return nil
}

// mockPool implements CouponPoolInterface and the TxQuerier subset the
// repositories touch.
type mockPool struct {
	execFn     func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	queryFn    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	queryRowFn func(ctx context.Context, sql string, args ...any) pgx.Row
}

func (m *mockPool) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	if m.execFn != nil {
		return m.execFn(ctx, sql, arguments...)
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (m *mockPool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if m.queryFn != nil {
		return m.queryFn(ctx, sql, args...)
	}
	return nil, errors.New("query not mocked")
}

func (m *mockPool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if m.queryRowFn != nil {
		return m.queryRowFn(ctx, sql, args...)
	}
	return &mockRow{}
}

func noRowsRow() pgx.Row {
	return &mockRow{scanFn: func(dest ...any) error { return pgx.ErrNoRows }}
}

func TestCouponRepository_GetByCode_NotFoundReturnsNil(t *testing.T) {
	mock := &mockPool{
		queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			assert.Contains(t, sql, "FROM coupons")
			assert.Contains(t, sql, "code = $2")
			return noRowsRow()
		},
	}
	repo := NewCouponRepositoryWithPool(mock)

	coupon, err := repo.GetByCode(context.Background(), "store_001", "NOPE")

	require.NoError(t, err, "not found is not an error at the repository layer")
	assert.Nil(t, coupon)
}

func TestCouponRepository_GetByCode_DatabaseError(t *testing.T) {
	dbErr := errors.New("connection refused")
	mock := &mockPool{
		queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &mockRow{scanFn: func(dest ...any) error { return dbErr }}
		},
	}
	repo := NewCouponRepositoryWithPool(mock)

	_, err := repo.GetByCode(context.Background(), "store_001", "SAVE10")

	require.Error(t, err)
	assert.True(t, errors.Is(err, dbErr), "should wrap original error")
	assert.Contains(t, err.Error(), "get coupon by code")
}

func TestCouponRepository_GetByCodeForUpdate_NotFound(t *testing.T) {
	mock := &mockPool{
		queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			assert.Contains(t, sql, "FOR UPDATE")
			return noRowsRow()
		},
	}
	repo := NewCouponRepositoryWithPool(mock)

	_, err := repo.GetByCodeForUpdate(context.Background(), mock, "store_001", "NOPE")

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrCouponNotFound))
}

func TestCouponRepository_Insert_Success(t *testing.T) {
	var capturedSQL string
	var capturedArgs []any

	mock := &mockPool{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			capturedSQL = sql
			capturedArgs = arguments
			return pgconn.NewCommandTag("INSERT 0 1"), nil
		},
	}
	repo := NewCouponRepositoryWithPool(mock)

	err := repo.Insert(context.Background(), &model.Coupon{
		ID:      "cpn_1",
		StoreID: "store_001",
		Code:    "RECUPERA-CART_42",
		Type:    model.CouponTypePercentage,
		Value:   10,
		Status:  model.CouponStatusActive,
	})

	require.NoError(t, err)
	assert.Contains(t, capturedSQL, "INSERT INTO coupons")
	assert.Equal(t, "cpn_1", capturedArgs[0])
	assert.Equal(t, "store_001", capturedArgs[1])
	assert.Equal(t, "RECUPERA-CART_42", capturedArgs[3])
}

func TestCouponRepository_Insert_DuplicateCode(t *testing.T) {
	mock := &mockPool{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			return pgconn.CommandTag{}, &pgconn.PgError{
				Code:    "23505",
				Message: "duplicate key value violates unique constraint",
			}
		},
	}
	repo := NewCouponRepositoryWithPool(mock)

	err := repo.Insert(context.Background(), &model.Coupon{Code: "RECUPERA-CART_42"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrCouponExists))
}

func TestCouponRepository_Insert_OtherPgError(t *testing.T) {
	mock := &mockPool{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			return pgconn.CommandTag{}, &pgconn.PgError{
				Code:    "23502",
				Message: "null value in column violates not-null constraint",
			}
		},
	}
	repo := NewCouponRepositoryWithPool(mock)

	err := repo.Insert(context.Background(), &model.Coupon{Code: "X"})

	require.Error(t, err)
	assert.False(t, errors.Is(err, service.ErrCouponExists), "only 23505 maps to the sentinel")
	assert.Contains(t, err.Error(), "insert coupon")
}

func TestCouponRepository_InsertRedemption_Replay(t *testing.T) {
	mock := &mockPool{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			assert.Contains(t, sql, "INSERT INTO coupon_redemptions")
			return pgconn.CommandTag{}, &pgconn.PgError{Code: "23505"}
		},
	}
	repo := NewCouponRepositoryWithPool(mock)

	err := repo.InsertRedemption(context.Background(), mock, "cpn_1", "order_001")

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrUsageAlreadyRecorded))
}

func TestCouponRepository_IncrementUsage(t *testing.T) {
	var capturedSQL string
	var capturedArgs []any
	mock := &mockPool{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			capturedSQL = sql
			capturedArgs = arguments
			return pgconn.NewCommandTag("UPDATE 1"), nil
		},
	}
	repo := NewCouponRepositoryWithPool(mock)

	err := repo.IncrementUsage(context.Background(), mock, "cpn_1")

	require.NoError(t, err)
	assert.Contains(t, capturedSQL, "total_uses = total_uses + 1")
	assert.Equal(t, []any{"cpn_1"}, capturedArgs)
}
