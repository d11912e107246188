package model

import "time"

// CouponType identifies how a coupon's value is interpreted.
type CouponType string

const (
	CouponTypePercentage   CouponType = "percentage"
	CouponTypeFixedAmount  CouponType = "fixed_amount"
	CouponTypeFreeShipping CouponType = "free_shipping"
)

// CouponStatus is the merchant-controlled lifecycle state of a coupon.
type CouponStatus string

const (
	CouponStatusActive    CouponStatus = "active"
	CouponStatusExpired   CouponStatus = "expired"
	CouponStatusScheduled CouponStatus = "scheduled"
)

// Coupon is a customer-entered code with its own validity window and usage
// cap. Code is stored canonicalized upper-case; lookups upper-case the input.
type Coupon struct {
	ID              string       `json:"id"`
	StoreID         string       `json:"storeId"`
	Name            string       `json:"name"`
	Code            string       `json:"code"`
	Type            CouponType   `json:"type"`
	Value           float64      `json:"value"`
	Status          CouponStatus `json:"status"`
	StartDate       time.Time    `json:"startDate"`
	EndDate         time.Time    `json:"endDate"`
	TotalUses       int          `json:"totalUses"`
	MaxUses         int          `json:"maxUses"`
	UsesPerCustomer int          `json:"usesPerCustomer"`
}

// DiscountResult is the ephemeral outcome of validating a coupon against a
// subtotal. It is never persisted; the checkout collaborator decides what to
// keep.
type DiscountResult struct {
	Amount float64    `json:"amount"`
	Type   CouponType `json:"type"`
}

// CouponApplication is the outcome of applying a coupon to a subtotal and
// shipping cost pair. Both outputs are clamped at zero.
type CouponApplication struct {
	NewSubtotal    float64 `json:"newSubtotal"`
	NewShipping    float64 `json:"newShipping"`
	DiscountAmount float64 `json:"discountAmount"`
}

// ValidateCouponRequest is the DTO for POST /coupons/validate.
// Code is deliberately not validated here: an empty code must surface as the
// structured EmptyCode error, not a generic validation failure.
type ValidateCouponRequest struct {
	StoreID  string  `json:"storeId" validate:"required,notblank,max=255"`
	Code     string  `json:"code" validate:"max=255"`
	Subtotal float64 `json:"subtotal" validate:"gte=0"`
}

// ApplyCouponRequest is the DTO for POST /coupons/apply.
type ApplyCouponRequest struct {
	StoreID      string  `json:"storeId" validate:"required,notblank,max=255"`
	Code         string  `json:"code" validate:"max=255"`
	Subtotal     float64 `json:"subtotal" validate:"gte=0"`
	ShippingCost float64 `json:"shippingCost" validate:"gte=0"`
}

// RecordUsageRequest is the DTO for POST /coupons/record-usage, called by the
// order-completion collaborator exactly once per completed order. OrderID is
// the idempotency key.
type RecordUsageRequest struct {
	StoreID string `json:"storeId" validate:"required,notblank,max=255"`
	Code    string `json:"code" validate:"required,notblank,max=255"`
	OrderID string `json:"orderId" validate:"required,notblank,max=255"`
}

// MintRecoveryCouponRequest is the DTO for POST /coupons/recovery, called by
// the abandoned-cart workflow.
type MintRecoveryCouponRequest struct {
	StoreID    string  `json:"storeId" validate:"required,notblank,max=255"`
	CartID     string  `json:"cartId" validate:"required,notblank,max=255"`
	PercentOff float64 `json:"percentOff" validate:"gt=0,lte=100"`
	TTLHours   int     `json:"ttlHours" validate:"gte=1"`
}
