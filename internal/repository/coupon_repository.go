package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tiendalink/rewards/internal/model"
	"github.com/tiendalink/rewards/internal/service"
	"github.com/tiendalink/rewards/pkg/database"
)

// CouponPoolInterface defines the database operations needed by CouponRepository.
// This allows for easier testing with mocks.
type CouponPoolInterface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// CouponRepository provides data access for coupons using pgx.
type CouponRepository struct {
	pool CouponPoolInterface
}

// NewCouponRepository creates a new CouponRepository with the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// NewCouponRepositoryWithPool creates a new CouponRepository with a custom pool
// interface. This is primarily used for testing.
func NewCouponRepositoryWithPool(pool CouponPoolInterface) *CouponRepository {
	return &CouponRepository{pool: pool}
}

const couponColumns = `id, store_id, name, code, type, value, status, start_date, end_date,
	total_uses, max_uses, uses_per_customer`

func scanCoupon(row pgx.Row) (*model.Coupon, error) {
	var c model.Coupon
	err := row.Scan(
		&c.ID, &c.StoreID, &c.Name, &c.Code, &c.Type, &c.Value, &c.Status,
		&c.StartDate, &c.EndDate, &c.TotalUses, &c.MaxUses, &c.UsesPerCustomer,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByCode retrieves a coupon by its canonical (upper-case) code.
// Returns nil, nil if the coupon is not found (service layer handles this).
func (r *CouponRepository) GetByCode(ctx context.Context, storeID, code string) (*model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE store_id = $1 AND code = $2`

	coupon, err := scanCoupon(r.pool.QueryRow(ctx, query, storeID, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found - let service handle
		}
		return nil, fmt.Errorf("get coupon by code %s: %w", code, err)
	}
	return coupon, nil
}

// GetByCodeForUpdate retrieves a coupon with a row lock (SELECT FOR UPDATE).
// This locks the row until the transaction completes.
// Returns service.ErrCouponNotFound if the coupon doesn't exist.
func (r *CouponRepository) GetByCodeForUpdate(ctx context.Context, tx database.TxQuerier, storeID, code string) (*model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE store_id = $1 AND code = $2 FOR UPDATE`

	coupon, err := scanCoupon(tx.QueryRow(ctx, query, storeID, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrCouponNotFound
		}
		return nil, fmt.Errorf("get coupon for update %s: %w", code, err)
	}
	return coupon, nil
}

// Insert inserts a new coupon.
// Returns service.ErrCouponExists if the code is already taken for the store.
func (r *CouponRepository) Insert(ctx context.Context, coupon *model.Coupon) error {
	query := `INSERT INTO coupons (` + couponColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.pool.Exec(ctx, query,
		coupon.ID, coupon.StoreID, coupon.Name, coupon.Code, coupon.Type,
		coupon.Value, coupon.Status, coupon.StartDate, coupon.EndDate,
		coupon.TotalUses, coupon.MaxUses, coupon.UsesPerCustomer)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return service.ErrCouponExists
		}
		return fmt.Errorf("insert coupon: %w", err)
	}
	return nil
}

// InsertRedemption records that an order consumed the coupon. The unique
// (coupon_id, order_id) index makes the order id an idempotency key.
// Returns service.ErrUsageAlreadyRecorded on a replay.
func (r *CouponRepository) InsertRedemption(ctx context.Context, tx database.TxQuerier, couponID, orderID string) error {
	query := `INSERT INTO coupon_redemptions (coupon_id, order_id) VALUES ($1, $2)`

	_, err := tx.Exec(ctx, query, couponID, orderID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return service.ErrUsageAlreadyRecorded
		}
		return fmt.Errorf("insert redemption: %w", err)
	}
	return nil
}

// IncrementUsage bumps the coupon's total_uses by 1.
// Must be called within a transaction after locking the row.
func (r *CouponRepository) IncrementUsage(ctx context.Context, tx database.TxQuerier, couponID string) error {
	query := `UPDATE coupons SET total_uses = total_uses + 1 WHERE id = $1`

	_, err := tx.Exec(ctx, query, couponID)
	if err != nil {
		return fmt.Errorf("increment usage for %s: %w", couponID, err)
	}
	return nil
}
