package model

import "time"

// LoyaltyProgram is the per-store configuration converting purchase amounts
// to points and points back to currency value.
type LoyaltyProgram struct {
	StoreID           string  `json:"storeId"`
	Active            bool    `json:"active"`
	PointsPerCurrency float64 `json:"pointsPerCurrency"`
	MinPurchaseAmount float64 `json:"minPurchaseAmount"`
	PointsValue       float64 `json:"pointsValue"`
	MinPointsToRedeem int     `json:"minPointsToRedeem"`
}

// PointsAccount is the per-(store, customer email) ledger head. The email is
// stored lower-cased. Invariant, enforced transactionally:
// CurrentPoints == TotalPointsEarned - TotalPointsRedeemed at all times, and
// both totals are monotonic non-decreasing.
type PointsAccount struct {
	ID                  string `json:"id"`
	StoreID             string `json:"storeId"`
	CustomerEmail       string `json:"customerEmail"`
	CustomerName        string `json:"customerName"`
	CurrentPoints       int    `json:"currentPoints"`
	TotalPointsEarned   int    `json:"totalPointsEarned"`
	TotalPointsRedeemed int    `json:"totalPointsRedeemed"`
}

// TransactionType is the direction of a ledger entry.
type TransactionType string

const (
	TransactionEarned   TransactionType = "earned"
	TransactionRedeemed TransactionType = "redeemed"
)

// PointTransaction is one append-only ledger entry. OrderID doubles as the
// idempotency key: an account never carries two entries of the same type for
// the same order.
type PointTransaction struct {
	ID            string          `json:"id"`
	AccountID     string          `json:"-"`
	Type          TransactionType `json:"type"`
	Points        int             `json:"points"`
	OrderID       string          `json:"orderId"`
	OrderAmount   float64         `json:"orderAmount,omitempty"`
	DiscountValue float64         `json:"discountValue,omitempty"`
	Description   string          `json:"description"`
	CreatedAt     time.Time       `json:"date"`
}

// EarnResult reports the outcome of crediting points for an order.
type EarnResult struct {
	PointsAdded int `json:"pointsAdded"`
}

// RedeemResult reports the outcome of redeeming points against an order.
type RedeemResult struct {
	PointsRedeemed  int     `json:"pointsRedeemed"`
	DiscountValue   float64 `json:"discountValue"`
	RemainingPoints int     `json:"remainingPoints"`
}

// PointsStatus is the read-only balance view for the storefront widget.
type PointsStatus struct {
	Active    bool            `json:"active"`
	Points    int             `json:"points"`
	Value     float64         `json:"value"`
	CanRedeem bool            `json:"canRedeem"`
	Program   *LoyaltyProgram `json:"program,omitempty"`
}

// AddPointsRequest is the DTO for POST /loyalty/add-points.
type AddPointsRequest struct {
	StoreID       string  `json:"storeId" validate:"required,notblank,max=255"`
	CustomerEmail string  `json:"customerEmail" validate:"required,email,max=255"`
	CustomerName  string  `json:"customerName" validate:"max=255"`
	OrderID       string  `json:"orderId" validate:"required,notblank,max=255"`
	OrderAmount   float64 `json:"orderAmount" validate:"gte=0"`
}

// RedeemPointsRequest is the DTO for POST /loyalty/redeem-points.
type RedeemPointsRequest struct {
	StoreID        string `json:"storeId" validate:"required,notblank,max=255"`
	CustomerEmail  string `json:"customerEmail" validate:"required,email,max=255"`
	PointsToRedeem int    `json:"pointsToRedeem" validate:"required,gt=0"`
	OrderID        string `json:"orderId" validate:"required,notblank,max=255"`
}
