package handler

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/tiendalink/rewards/internal/model"
	"github.com/tiendalink/rewards/internal/service"
)

// CouponServiceInterface defines the interface for coupon business logic.
type CouponServiceInterface interface {
	Validate(ctx context.Context, storeID, code string, subtotal float64) (*model.Coupon, *model.DiscountResult, error)
	Apply(subtotal, shippingCost float64, coupon *model.Coupon) model.CouponApplication
	RecordUsage(ctx context.Context, storeID, code, orderID string) error
	MintRecoveryCoupon(ctx context.Context, storeID, cartID string, percentOff float64, ttl time.Duration) (*model.Coupon, error)
}

// CouponHandler handles HTTP requests for coupon operations. Validation and
// application are also consumed in-process by the storefront checkout; these
// routes mirror that surface for parity with the loyalty API.
type CouponHandler struct {
	service   CouponServiceInterface
	validator *validator.Validate
}

// NewCouponHandler creates a new CouponHandler with the given service and validator.
func NewCouponHandler(svc CouponServiceInterface, v *validator.Validate) *CouponHandler {
	return &CouponHandler{service: svc, validator: v}
}

// couponErrorStatus maps a validation sentinel to its HTTP status and
// user-facing message. Messages must stay distinguishable: the storefront
// routes them straight to the customer.
func couponErrorStatus(err error) (int, string, bool) {
	switch {
	case errors.Is(err, service.ErrEmptyCode):
		return fiber.StatusBadRequest, "coupon code is required", true
	case errors.Is(err, service.ErrCouponNotFound):
		return fiber.StatusNotFound, "coupon not found", true
	case errors.Is(err, service.ErrCouponExpired):
		return fiber.StatusBadRequest, "coupon expired", true
	case errors.Is(err, service.ErrCouponNotStarted):
		return fiber.StatusBadRequest, "coupon not yet available", true
	case errors.Is(err, service.ErrCouponNotActive):
		return fiber.StatusBadRequest, "coupon not active", true
	case errors.Is(err, service.ErrCouponExhausted):
		return fiber.StatusBadRequest, "coupon usage limit reached", true
	}
	return 0, "", false
}

// ValidateCoupon handles POST /coupons/validate requests. Read-only: usage is
// not consumed here.
func (h *CouponHandler) ValidateCoupon(c *fiber.Ctx) error {
	var req model.ValidateCouponRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "invalid request body",
		})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   formatValidationError(err),
		})
	}

	coupon, discount, err := h.service.Validate(c.Context(), req.StoreID, req.Code, req.Subtotal)
	if err != nil {
		if status, msg, ok := couponErrorStatus(err); ok {
			return c.Status(status).JSON(fiber.Map{"success": false, "error": msg})
		}
		log.Error().Err(err).Str("store_id", req.StoreID).Msg("failed to validate coupon")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "internal server error",
		})
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"coupon":   coupon,
		"discount": discount,
	})
}

// ApplyCoupon handles POST /coupons/apply requests: validate, then apply the
// discount to the subtotal/shipping pair.
func (h *CouponHandler) ApplyCoupon(c *fiber.Ctx) error {
	var req model.ApplyCouponRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "invalid request body",
		})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   formatValidationError(err),
		})
	}

	coupon, _, err := h.service.Validate(c.Context(), req.StoreID, req.Code, req.Subtotal)
	if err != nil {
		if status, msg, ok := couponErrorStatus(err); ok {
			return c.Status(status).JSON(fiber.Map{"success": false, "error": msg})
		}
		log.Error().Err(err).Str("store_id", req.StoreID).Msg("failed to validate coupon for apply")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "internal server error",
		})
	}

	applied := h.service.Apply(req.Subtotal, req.ShippingCost, coupon)

	return c.JSON(fiber.Map{
		"success":        true,
		"newSubtotal":    applied.NewSubtotal,
		"newShipping":    applied.NewShipping,
		"discountAmount": applied.DiscountAmount,
	})
}

// RecordUsage handles POST /coupons/record-usage requests from the
// order-completion collaborator. Replays with the same order id succeed
// without a second increment.
func (h *CouponHandler) RecordUsage(c *fiber.Ctx) error {
	var req model.RecordUsageRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "invalid request body",
		})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   formatValidationError(err),
		})
	}

	if err := h.service.RecordUsage(c.Context(), req.StoreID, req.Code, req.OrderID); err != nil {
		if errors.Is(err, service.ErrCouponNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"error":   "coupon not found",
			})
		}
		log.Error().
			Err(err).
			Str("request_id", c.GetRespHeader("X-Request-ID")).
			Str("store_id", req.StoreID).
			Str("order_id", req.OrderID).
			Msg("failed to record coupon usage")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "internal server error",
		})
	}

	return c.JSON(fiber.Map{"success": true})
}

// MintRecoveryCoupon handles POST /coupons/recovery requests from the
// abandoned-cart workflow. Minting is idempotent per cart.
func (h *CouponHandler) MintRecoveryCoupon(c *fiber.Ctx) error {
	var req model.MintRecoveryCouponRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "invalid request body",
		})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   formatValidationError(err),
		})
	}

	coupon, err := h.service.MintRecoveryCoupon(
		c.Context(), req.StoreID, req.CartID, req.PercentOff,
		time.Duration(req.TTLHours)*time.Hour)
	if err != nil {
		log.Error().
			Err(err).
			Str("store_id", req.StoreID).
			Str("cart_id", req.CartID).
			Msg("failed to mint recovery coupon")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "internal server error",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"coupon":  coupon,
	})
}
