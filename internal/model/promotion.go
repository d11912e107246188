package model

import "time"

// PromotionType identifies how a promotion's discount value is interpreted.
type PromotionType string

const (
	PromotionTypePriceDiscount PromotionType = "price_discount"
	PromotionTypePercentage    PromotionType = "percentage"
	PromotionTypeBuyXGetY      PromotionType = "buy_x_get_y"
)

// PromotionStatus is the merchant-controlled lifecycle state of a promotion.
type PromotionStatus string

const (
	PromotionStatusActive    PromotionStatus = "active"
	PromotionStatusPaused    PromotionStatus = "paused"
	PromotionStatusExpired   PromotionStatus = "expired"
	PromotionStatusScheduled PromotionStatus = "scheduled"
)

// PromotionTargetType controls which products a promotion applies to.
type PromotionTargetType string

const (
	TargetAllProducts      PromotionTargetType = "all_products"
	TargetSpecificProducts PromotionTargetType = "specific_products"
	TargetCategories       PromotionTargetType = "categories"
	TargetBrands           PromotionTargetType = "brands"
)

// Promotion is a merchant-defined, time-boxed automatic discount rule.
// Only the single highest-priority matching promotion applies to a product;
// promotions never stack.
type Promotion struct {
	ID            string              `json:"id"`
	StoreID       string              `json:"storeId"`
	Name          string              `json:"name"`
	Type          PromotionType       `json:"type"`
	DiscountValue float64             `json:"discountValue"`
	Status        PromotionStatus     `json:"status"`
	StartDate     time.Time           `json:"startDate"`
	EndDate       time.Time           `json:"endDate"`
	TargetType    PromotionTargetType `json:"targetType"`
	TargetIDs     []string            `json:"targetIds"`
	Priority      int                 `json:"priority"`
	ShowBadge     bool                `json:"showBadge"`
	TotalUses     int                 `json:"totalUses"`
	TotalRevenue  float64             `json:"totalRevenue"`
}

// PriceQuote is the result of evaluating promotions against a product price.
// AppliedPromotion is nil when no promotion matched.
type PriceQuote struct {
	FinalPrice       float64    `json:"finalPrice"`
	Discount         float64    `json:"discount"`
	AppliedPromotion *Promotion `json:"appliedPromotion,omitempty"`
}

// QuotePriceRequest is the DTO for POST /promotions/price.
type QuotePriceRequest struct {
	StoreID       string  `json:"storeId" validate:"required,notblank,max=255"`
	ProductID     string  `json:"productId" validate:"required,notblank,max=255"`
	OriginalPrice float64 `json:"originalPrice" validate:"gte=0"`
}
