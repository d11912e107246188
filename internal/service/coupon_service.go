package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tiendalink/rewards/internal/metrics"
	"github.com/tiendalink/rewards/internal/model"
	"github.com/tiendalink/rewards/pkg/database"
)

// CouponRepositoryInterface defines the interface for coupon data access.
type CouponRepositoryInterface interface {
	GetByCode(ctx context.Context, storeID, code string) (*model.Coupon, error)
	GetByCodeForUpdate(ctx context.Context, tx database.TxQuerier, storeID, code string) (*model.Coupon, error)
	Insert(ctx context.Context, coupon *model.Coupon) error
	InsertRedemption(ctx context.Context, tx database.TxQuerier, couponID, orderID string) error
	IncrementUsage(ctx context.Context, tx database.TxQuerier, couponID string) error
}

// TxBeginner defines the interface for beginning transactions.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// CouponService validates customer-entered coupon codes, applies their
// discounts, and records usage once per completed order.
type CouponService struct {
	pool    TxBeginner
	repo    CouponRepositoryInterface
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewCouponService creates a new CouponService with the given pool and repository.
func NewCouponService(pool *pgxpool.Pool, repo CouponRepositoryInterface) *CouponService {
	return &CouponService{
		pool:    pool,
		repo:    repo,
		metrics: metrics.Default(),
		now:     time.Now,
	}
}

// NewCouponServiceWithTxBeginner creates a CouponService with a custom TxBeginner.
// Primarily used for testing.
func NewCouponServiceWithTxBeginner(pool TxBeginner, repo CouponRepositoryInterface) *CouponService {
	return &CouponService{
		pool:    pool,
		repo:    repo,
		metrics: metrics.Default(),
		now:     time.Now,
	}
}

// CanonicalCode upper-cases and trims a customer-entered coupon code.
// Codes are stored canonicalized, so lookup is case-insensitive.
func CanonicalCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate checks a coupon code against a cart subtotal and computes its
// discount without consuming a use. Guards run in a fixed order so the
// storefront can show the most specific message:
// empty code, not found, status, validity window, usage cap.
func (s *CouponService) Validate(ctx context.Context, storeID, code string, subtotal float64) (*model.Coupon, *model.DiscountResult, error) {
	code = CanonicalCode(code)
	if code == "" {
		s.metrics.ObserveCouponValidation("empty_code")
		return nil, nil, ErrEmptyCode
	}

	coupon, err := s.repo.GetByCode(ctx, storeID, code)
	if err != nil {
		s.metrics.ObserveCouponValidation("error")
		return nil, nil, fmt.Errorf("get coupon: %w", err)
	}
	if coupon == nil {
		s.metrics.ObserveCouponValidation("not_found")
		return nil, nil, ErrCouponNotFound
	}

	switch coupon.Status {
	case model.CouponStatusActive:
	case model.CouponStatusExpired:
		s.metrics.ObserveCouponValidation("expired")
		return nil, nil, ErrCouponExpired
	case model.CouponStatusScheduled:
		s.metrics.ObserveCouponValidation("not_started")
		return nil, nil, ErrCouponNotStarted
	default:
		s.metrics.ObserveCouponValidation("not_active")
		return nil, nil, ErrCouponNotActive
	}

	now := s.now().UTC()
	if now.Before(coupon.StartDate) {
		s.metrics.ObserveCouponValidation("not_started")
		return nil, nil, ErrCouponNotStarted
	}
	if now.After(coupon.EndDate) {
		s.metrics.ObserveCouponValidation("expired")
		return nil, nil, ErrCouponExpired
	}

	// max_uses <= 0 means no cap
	if coupon.MaxUses > 0 && coupon.TotalUses >= coupon.MaxUses {
		s.metrics.ObserveCouponValidation("exhausted")
		return nil, nil, ErrCouponExhausted
	}

	discount := discountFor(coupon, subtotal)
	s.metrics.ObserveCouponValidation("valid")
	return coupon, &discount, nil
}

// Apply applies a validated coupon to a subtotal/shipping pair. Percentage
// and fixed-amount coupons reduce the subtotal; free-shipping coupons zero
// the shipping cost and report the waived amount as the discount.
func (s *CouponService) Apply(subtotal, shippingCost float64, coupon *model.Coupon) model.CouponApplication {
	if shippingCost < 0 {
		shippingCost = 0
	}

	if coupon.Type == model.CouponTypeFreeShipping {
		return model.CouponApplication{
			NewSubtotal:    subtotal,
			NewShipping:    0,
			DiscountAmount: shippingCost,
		}
	}

	discount := discountFor(coupon, subtotal)
	newSubtotal := subtotal - discount.Amount
	if newSubtotal < 0 {
		newSubtotal = 0
	}

	return model.CouponApplication{
		NewSubtotal:    newSubtotal,
		NewShipping:    shippingCost,
		DiscountAmount: discount.Amount,
	}
}

// RecordUsage increments a coupon's usage counter for a completed order,
// exactly once per order id. A replay with the same order id is a successful
// no-op. Uses SELECT FOR UPDATE to lock the coupon row for the transaction.
func (s *CouponService) RecordUsage(ctx context.Context, storeID, code, orderID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // Safe: no-op if committed

	coupon, err := s.repo.GetByCodeForUpdate(ctx, tx, storeID, CanonicalCode(code))
	if err != nil {
		if errors.Is(err, ErrCouponNotFound) {
			return ErrCouponNotFound
		}
		return fmt.Errorf("get coupon for update: %w", err)
	}

	err = s.repo.InsertRedemption(ctx, tx, coupon.ID, orderID)
	if err != nil {
		if errors.Is(err, ErrUsageAlreadyRecorded) {
			// Replay of an already-recorded order: nothing to do
			return nil
		}
		return fmt.Errorf("insert redemption: %w", err)
	}

	if err := s.repo.IncrementUsage(ctx, tx, coupon.ID); err != nil {
		return fmt.Errorf("increment usage: %w", err)
	}

	return tx.Commit(ctx)
}

// RecoveryCouponCode derives the deterministic code minted for an abandoned
// cart: the same cart always yields the same code.
func RecoveryCouponCode(cartID string) string {
	id := strings.ToUpper(strings.ReplaceAll(cartID, "-", ""))
	if len(id) > 8 {
		id = id[:8]
	}
	return "RECUPERA-" + id
}

// MintRecoveryCoupon creates the single-use percentage coupon the
// abandoned-cart workflow attaches to its reminder email. Minting is
// idempotent per cart: a replay returns the existing coupon unchanged.
func (s *CouponService) MintRecoveryCoupon(ctx context.Context, storeID, cartID string, percentOff float64, ttl time.Duration) (*model.Coupon, error) {
	code := RecoveryCouponCode(cartID)

	existing, err := s.repo.GetByCode(ctx, storeID, code)
	if err != nil {
		return nil, fmt.Errorf("get recovery coupon: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	now := s.now().UTC()
	coupon := &model.Coupon{
		ID:              uuid.NewString(),
		StoreID:         storeID,
		Name:            "Cart recovery " + cartID,
		Code:            code,
		Type:            model.CouponTypePercentage,
		Value:           percentOff,
		Status:          model.CouponStatusActive,
		StartDate:       now,
		EndDate:         now.Add(ttl),
		MaxUses:         1,
		UsesPerCustomer: 1,
	}

	if err := s.repo.Insert(ctx, coupon); err != nil {
		if errors.Is(err, ErrCouponExists) {
			// Lost a race with a concurrent mint for the same cart
			return s.repo.GetByCode(ctx, storeID, code)
		}
		return nil, fmt.Errorf("insert recovery coupon: %w", err)
	}
	return coupon, nil
}

func discountFor(coupon *model.Coupon, subtotal float64) model.DiscountResult {
	var amount float64
	switch coupon.Type {
	case model.CouponTypePercentage:
		amount = round2(subtotal * coupon.Value / 100)
		if amount > subtotal {
			amount = subtotal
		}
	case model.CouponTypeFixedAmount:
		amount = coupon.Value
		if amount > subtotal {
			amount = subtotal
		}
	case model.CouponTypeFreeShipping:
		// The shipping waiver is applied by Apply, not computed here
		amount = 0
	}
	return model.DiscountResult{Amount: amount, Type: coupon.Type}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
