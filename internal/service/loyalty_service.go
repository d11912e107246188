package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tiendalink/rewards/internal/metrics"
	"github.com/tiendalink/rewards/internal/model"
	"github.com/tiendalink/rewards/pkg/database"
)

// LoyaltyRepositoryInterface defines the interface for loyalty data access.
// Earn and Redeem drive the transactional methods; the read-only paths use
// the unlocked ones.
type LoyaltyRepositoryInterface interface {
	GetProgram(ctx context.Context, storeID string) (*model.LoyaltyProgram, error)
	GetAccount(ctx context.Context, storeID, email string) (*model.PointsAccount, error)
	GetAccountForUpdate(ctx context.Context, tx database.TxQuerier, storeID, email string) (*model.PointsAccount, error)
	UpsertAccount(ctx context.Context, tx database.TxQuerier, account *model.PointsAccount) error
	UpdateBalance(ctx context.Context, tx database.TxQuerier, accountID string, currentDelta, earnedDelta, redeemedDelta int) error
	InsertTransaction(ctx context.Context, tx database.TxQuerier, txn *model.PointTransaction) error
	FindTransaction(ctx context.Context, tx database.TxQuerier, accountID, orderID string, txType model.TransactionType) (*model.PointTransaction, error)
	ListTransactions(ctx context.Context, accountID string) ([]model.PointTransaction, error)
}

// LoyaltyService owns the per-customer points ledger. Earn and Redeem each
// run as one transaction over the locked account row: read balance, validate
// against that same read, append the ledger entry, write the new balance.
// Accounts are independent across (store, email), so concurrency is bounded
// only per account.
type LoyaltyService struct {
	pool    TxBeginner
	repo    LoyaltyRepositoryInterface
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewLoyaltyService creates a new LoyaltyService with the given pool and repository.
func NewLoyaltyService(pool *pgxpool.Pool, repo LoyaltyRepositoryInterface) *LoyaltyService {
	return &LoyaltyService{
		pool:    pool,
		repo:    repo,
		metrics: metrics.Default(),
		now:     time.Now,
	}
}

// NewLoyaltyServiceWithTxBeginner creates a LoyaltyService with a custom TxBeginner.
// Primarily used for testing.
func NewLoyaltyServiceWithTxBeginner(pool TxBeginner, repo LoyaltyRepositoryInterface) *LoyaltyService {
	return &LoyaltyService{
		pool:    pool,
		repo:    repo,
		metrics: metrics.Default(),
		now:     time.Now,
	}
}

func canonicalEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Earn credits points for a completed order. A missing or disabled program,
// an order under the minimum purchase, or a rate that floors to zero all
// return zero points without error: earning is a side effect of checkout and
// must not fail it. The order id is an idempotency key; a replay returns the
// originally credited points without touching the balance.
func (s *LoyaltyService) Earn(ctx context.Context, storeID, customerEmail, customerName, orderID string, orderAmount float64) (*model.EarnResult, error) {
	program, err := s.repo.GetProgram(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("get loyalty program: %w", err)
	}
	if program == nil || !program.Active {
		return &model.EarnResult{PointsAdded: 0}, nil
	}
	if orderAmount < program.MinPurchaseAmount {
		return &model.EarnResult{PointsAdded: 0}, nil
	}

	points := int(math.Floor(orderAmount * program.PointsPerCurrency))
	if points <= 0 {
		return &model.EarnResult{PointsAdded: 0}, nil
	}

	email := canonicalEmail(customerEmail)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // Safe: no-op if committed

	account, err := s.repo.GetAccountForUpdate(ctx, tx, storeID, email)
	if err != nil {
		return nil, fmt.Errorf("get account for update: %w", err)
	}
	if account == nil {
		// Lazily create on first earn. The upsert takes the row lock and
		// converges concurrent creates onto one canonical row.
		account = &model.PointsAccount{
			ID:            uuid.NewString(),
			StoreID:       storeID,
			CustomerEmail: email,
			CustomerName:  customerName,
		}
		if err := s.repo.UpsertAccount(ctx, tx, account); err != nil {
			return nil, fmt.Errorf("create account: %w", err)
		}
	}

	previous, err := s.repo.FindTransaction(ctx, tx, account.ID, orderID, model.TransactionEarned)
	if err != nil {
		return nil, fmt.Errorf("find earned transaction: %w", err)
	}
	if previous != nil {
		// Replay: the order was already credited
		return &model.EarnResult{PointsAdded: previous.Points}, nil
	}

	txn := &model.PointTransaction{
		ID:          uuid.NewString(),
		AccountID:   account.ID,
		Type:        model.TransactionEarned,
		Points:      points,
		OrderID:     orderID,
		OrderAmount: orderAmount,
		Description: fmt.Sprintf("Points earned for order %s", orderID),
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.InsertTransaction(ctx, tx, txn); err != nil {
		return nil, fmt.Errorf("insert earned transaction: %w", err)
	}
	if err := s.repo.UpdateBalance(ctx, tx, account.ID, points, points, 0); err != nil {
		return nil, fmt.Errorf("update balance: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	s.metrics.ObservePointsEarned(storeID, points)
	return &model.EarnResult{PointsAdded: points}, nil
}

// Redeem converts points into a discount for an order. Validation order:
// program configured, program active, request sane, account exists, balance
// covers the points, points meet the program minimum. Idempotent on order id
// like Earn.
func (s *LoyaltyService) Redeem(ctx context.Context, storeID, customerEmail string, pointsToRedeem int, orderID string) (*model.RedeemResult, error) {
	program, err := s.repo.GetProgram(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("get loyalty program: %w", err)
	}
	if program == nil {
		return nil, ErrProgramNotConfigured
	}
	if !program.Active {
		return nil, ErrProgramNotActive
	}
	if pointsToRedeem <= 0 {
		return nil, ErrInvalidRequest
	}

	email := canonicalEmail(customerEmail)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // Safe: no-op if committed

	account, err := s.repo.GetAccountForUpdate(ctx, tx, storeID, email)
	if err != nil {
		return nil, fmt.Errorf("get account for update: %w", err)
	}
	if account == nil {
		return nil, ErrNoPointsRecord
	}

	previous, err := s.repo.FindTransaction(ctx, tx, account.ID, orderID, model.TransactionRedeemed)
	if err != nil {
		return nil, fmt.Errorf("find redeemed transaction: %w", err)
	}
	if previous != nil {
		// Replay: the balance already reflects this redemption
		return &model.RedeemResult{
			PointsRedeemed:  previous.Points,
			DiscountValue:   previous.DiscountValue,
			RemainingPoints: account.CurrentPoints,
		}, nil
	}

	if account.CurrentPoints < pointsToRedeem {
		return nil, ErrInsufficientPoints
	}
	if pointsToRedeem < program.MinPointsToRedeem {
		return nil, ErrBelowMinimumRedeem
	}

	discountValue := round2(float64(pointsToRedeem) * program.PointsValue)

	txn := &model.PointTransaction{
		ID:            uuid.NewString(),
		AccountID:     account.ID,
		Type:          model.TransactionRedeemed,
		Points:        pointsToRedeem,
		OrderID:       orderID,
		DiscountValue: discountValue,
		Description:   fmt.Sprintf("Points redeemed on order %s", orderID),
		CreatedAt:     s.now().UTC(),
	}
	if err := s.repo.InsertTransaction(ctx, tx, txn); err != nil {
		return nil, fmt.Errorf("insert redeemed transaction: %w", err)
	}
	if err := s.repo.UpdateBalance(ctx, tx, account.ID, -pointsToRedeem, 0, pointsToRedeem); err != nil {
		return nil, fmt.Errorf("update balance: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	s.metrics.ObservePointsRedeemed(storeID, pointsToRedeem)
	return &model.RedeemResult{
		PointsRedeemed:  pointsToRedeem,
		DiscountValue:   discountValue,
		RemainingPoints: account.CurrentPoints - pointsToRedeem,
	}, nil
}

// CheckPoints returns the customer's balance for the storefront widget.
// Reads are unlocked; slightly stale values are acceptable for display.
func (s *LoyaltyService) CheckPoints(ctx context.Context, storeID, customerEmail string) (*model.PointsStatus, error) {
	program, err := s.repo.GetProgram(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("get loyalty program: %w", err)
	}
	if program == nil || !program.Active {
		return &model.PointsStatus{Active: false}, nil
	}

	account, err := s.repo.GetAccount(ctx, storeID, canonicalEmail(customerEmail))
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}

	points := 0
	if account != nil {
		points = account.CurrentPoints
	}

	return &model.PointsStatus{
		Active:    true,
		Points:    points,
		Value:     round2(float64(points) * program.PointsValue),
		CanRedeem: points >= program.MinPointsToRedeem,
		Program:   program,
	}, nil
}

// GetProgram returns a store's loyalty program configuration, or nil when
// none is configured.
func (s *LoyaltyService) GetProgram(ctx context.Context, storeID string) (*model.LoyaltyProgram, error) {
	return s.repo.GetProgram(ctx, storeID)
}

// History returns a customer's ledger entries, oldest first. A customer with
// no account has an empty history.
func (s *LoyaltyService) History(ctx context.Context, storeID, customerEmail string) ([]model.PointTransaction, error) {
	account, err := s.repo.GetAccount(ctx, storeID, canonicalEmail(customerEmail))
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	if account == nil {
		return []model.PointTransaction{}, nil
	}
	return s.repo.ListTransactions(ctx, account.ID)
}
