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

// LoyaltyPoolInterface defines the database operations needed by LoyaltyRepository.
type LoyaltyPoolInterface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// LoyaltyRepository provides data access for loyalty programs and the
// per-customer points ledger using pgx.
type LoyaltyRepository struct {
	pool LoyaltyPoolInterface
}

// NewLoyaltyRepository creates a new LoyaltyRepository with the given pool.
func NewLoyaltyRepository(pool *pgxpool.Pool) *LoyaltyRepository {
	return &LoyaltyRepository{pool: pool}
}

// NewLoyaltyRepositoryWithPool creates a new LoyaltyRepository with a custom
// pool interface. This is primarily used for testing.
func NewLoyaltyRepositoryWithPool(pool LoyaltyPoolInterface) *LoyaltyRepository {
	return &LoyaltyRepository{pool: pool}
}

// GetProgram retrieves a store's loyalty program configuration.
// Returns nil, nil if no program is configured (service layer handles this).
func (r *LoyaltyRepository) GetProgram(ctx context.Context, storeID string) (*model.LoyaltyProgram, error) {
	query := `SELECT store_id, active, points_per_currency, min_purchase_amount, points_value, min_points_to_redeem
		FROM loyalty_programs WHERE store_id = $1`

	var p model.LoyaltyProgram
	err := r.pool.QueryRow(ctx, query, storeID).Scan(
		&p.StoreID, &p.Active, &p.PointsPerCurrency, &p.MinPurchaseAmount,
		&p.PointsValue, &p.MinPointsToRedeem,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not configured - let service handle
		}
		return nil, fmt.Errorf("get loyalty program for store %s: %w", storeID, err)
	}
	return &p, nil
}

const accountColumns = `id, store_id, customer_email, customer_name,
	current_points, total_points_earned, total_points_redeemed`

func scanAccount(row pgx.Row) (*model.PointsAccount, error) {
	var a model.PointsAccount
	err := row.Scan(
		&a.ID, &a.StoreID, &a.CustomerEmail, &a.CustomerName,
		&a.CurrentPoints, &a.TotalPointsEarned, &a.TotalPointsRedeemed,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetAccount retrieves a points account without locking. Used by read-only
// paths where slightly stale reads are acceptable.
// Returns nil, nil if the account doesn't exist.
func (r *LoyaltyRepository) GetAccount(ctx context.Context, storeID, email string) (*model.PointsAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM loyalty_accounts WHERE store_id = $1 AND customer_email = $2`

	account, err := scanAccount(r.pool.QueryRow(ctx, query, storeID, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get points account: %w", err)
	}
	return account, nil
}

// GetAccountForUpdate retrieves a points account with a row lock
// (SELECT FOR UPDATE), serializing concurrent Earn/Redeem calls per account.
// Returns nil, nil if the account doesn't exist.
func (r *LoyaltyRepository) GetAccountForUpdate(ctx context.Context, tx database.TxQuerier, storeID, email string) (*model.PointsAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM loyalty_accounts WHERE store_id = $1 AND customer_email = $2 FOR UPDATE`

	account, err := scanAccount(tx.QueryRow(ctx, query, storeID, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get points account for update: %w", err)
	}
	return account, nil
}

// UpsertAccount creates the account row if absent or refreshes the customer
// name if present, taking the row lock either way. The account passed in is
// updated in place with the canonical row (two concurrent creates converge on
// one id). Balances start at zero; UpdateBalance applies the deltas.
func (r *LoyaltyRepository) UpsertAccount(ctx context.Context, tx database.TxQuerier, account *model.PointsAccount) error {
	query := `INSERT INTO loyalty_accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, 0, 0, 0)
		ON CONFLICT (store_id, customer_email)
		DO UPDATE SET customer_name = EXCLUDED.customer_name
		RETURNING ` + accountColumns

	canonical, err := scanAccount(tx.QueryRow(ctx, query,
		account.ID, account.StoreID, account.CustomerEmail, account.CustomerName))
	if err != nil {
		return fmt.Errorf("upsert points account: %w", err)
	}
	*account = *canonical
	return nil
}

// UpdateBalance applies signed deltas to the account's running balance and
// monotonic totals. Must be called within a transaction after locking the row.
func (r *LoyaltyRepository) UpdateBalance(ctx context.Context, tx database.TxQuerier, accountID string, currentDelta, earnedDelta, redeemedDelta int) error {
	query := `UPDATE loyalty_accounts
		SET current_points = current_points + $2,
		    total_points_earned = total_points_earned + $3,
		    total_points_redeemed = total_points_redeemed + $4
		WHERE id = $1`

	_, err := tx.Exec(ctx, query, accountID, currentDelta, earnedDelta, redeemedDelta)
	if err != nil {
		return fmt.Errorf("update balance for account %s: %w", accountID, err)
	}
	return nil
}

// InsertTransaction appends a ledger entry. The unique
// (account_id, order_id, type) index makes the order id an idempotency key.
// Returns service.ErrDuplicateTransaction on a replay.
func (r *LoyaltyRepository) InsertTransaction(ctx context.Context, tx database.TxQuerier, txn *model.PointTransaction) error {
	query := `INSERT INTO point_transactions
		(id, account_id, type, points, order_id, order_amount, discount_value, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := tx.Exec(ctx, query,
		txn.ID, txn.AccountID, txn.Type, txn.Points, txn.OrderID,
		txn.OrderAmount, txn.DiscountValue, txn.Description, txn.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return service.ErrDuplicateTransaction
		}
		return fmt.Errorf("insert point transaction: %w", err)
	}
	return nil
}

const transactionColumns = `id, account_id, type, points, order_id, order_amount, discount_value, description, created_at`

// FindTransaction looks up a ledger entry by its idempotency key.
// Returns nil, nil if no entry exists for the order.
func (r *LoyaltyRepository) FindTransaction(ctx context.Context, tx database.TxQuerier, accountID, orderID string, txType model.TransactionType) (*model.PointTransaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM point_transactions WHERE account_id = $1 AND order_id = $2 AND type = $3`

	var t model.PointTransaction
	err := tx.QueryRow(ctx, query, accountID, orderID, txType).Scan(
		&t.ID, &t.AccountID, &t.Type, &t.Points, &t.OrderID,
		&t.OrderAmount, &t.DiscountValue, &t.Description, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find point transaction: %w", err)
	}
	return &t, nil
}

// ListTransactions returns an account's ledger history, oldest first.
// On success, returns an empty slice (not nil) when no entries exist.
func (r *LoyaltyRepository) ListTransactions(ctx context.Context, accountID string) ([]model.PointTransaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM point_transactions WHERE account_id = $1 ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("list point transactions: %w", err)
	}
	defer rows.Close()

	var history []model.PointTransaction
	for rows.Next() {
		var t model.PointTransaction
		if err := rows.Scan(
			&t.ID, &t.AccountID, &t.Type, &t.Points, &t.OrderID,
			&t.OrderAmount, &t.DiscountValue, &t.Description, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan point transaction: %w", err)
		}
		history = append(history, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate point transaction rows: %w", err)
	}

	if history == nil {
		history = []model.PointTransaction{}
	}

	return history, nil
}
