package handler

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/tiendalink/rewards/internal/model"
	"github.com/tiendalink/rewards/internal/service"
)

// LoyaltyServiceInterface defines the interface for loyalty business logic.
type LoyaltyServiceInterface interface {
	Earn(ctx context.Context, storeID, customerEmail, customerName, orderID string, orderAmount float64) (*model.EarnResult, error)
	Redeem(ctx context.Context, storeID, customerEmail string, pointsToRedeem int, orderID string) (*model.RedeemResult, error)
	CheckPoints(ctx context.Context, storeID, customerEmail string) (*model.PointsStatus, error)
	GetProgram(ctx context.Context, storeID string) (*model.LoyaltyProgram, error)
	History(ctx context.Context, storeID, customerEmail string) ([]model.PointTransaction, error)
}

// LoyaltyHandler handles the storefront-facing loyalty HTTP API. All
// responses carry the {success: ...} envelope the storefront widget expects.
type LoyaltyHandler struct {
	service   LoyaltyServiceInterface
	validator *validator.Validate
}

// NewLoyaltyHandler creates a new LoyaltyHandler with the given service and validator.
func NewLoyaltyHandler(svc LoyaltyServiceInterface, v *validator.Validate) *LoyaltyHandler {
	return &LoyaltyHandler{service: svc, validator: v}
}

// GetProgram handles GET /loyalty/program?storeId= requests.
func (h *LoyaltyHandler) GetProgram(c *fiber.Ctx) error {
	storeID := c.Query("storeId")
	if storeID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "storeId is required",
		})
	}

	program, err := h.service.GetProgram(c.Context(), storeID)
	if err != nil {
		log.Error().Err(err).Str("store_id", storeID).Msg("failed to get loyalty program")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "internal server error",
		})
	}

	if program == nil {
		return c.JSON(fiber.Map{"success": true, "active": false})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"active":  program.Active,
		"program": program,
	})
}

// CheckPoints handles GET /loyalty/check-points?storeId=&customerEmail= requests.
func (h *LoyaltyHandler) CheckPoints(c *fiber.Ctx) error {
	storeID := c.Query("storeId")
	email := c.Query("customerEmail")
	if storeID == "" || email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "storeId and customerEmail are required",
		})
	}

	status, err := h.service.CheckPoints(c.Context(), storeID, email)
	if err != nil {
		log.Error().Err(err).Str("store_id", storeID).Msg("failed to check points")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "internal server error",
		})
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"active":    status.Active,
		"points":    status.Points,
		"value":     status.Value,
		"canRedeem": status.CanRedeem,
		"program":   status.Program,
	})
}

// History handles GET /loyalty/history?storeId=&customerEmail= requests.
func (h *LoyaltyHandler) History(c *fiber.Ctx) error {
	storeID := c.Query("storeId")
	email := c.Query("customerEmail")
	if storeID == "" || email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "storeId and customerEmail are required",
		})
	}

	history, err := h.service.History(c.Context(), storeID, email)
	if err != nil {
		log.Error().Err(err).Str("store_id", storeID).Msg("failed to get points history")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "internal server error",
		})
	}

	return c.JSON(fiber.Map{"success": true, "history": history})
}

// AddPoints handles POST /loyalty/add-points requests, called by the
// order-completion collaborator after checkout.
func (h *LoyaltyHandler) AddPoints(c *fiber.Ctx) error {
	var req model.AddPointsRequest

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

	result, err := h.service.Earn(c.Context(), req.StoreID, req.CustomerEmail, req.CustomerName, req.OrderID, req.OrderAmount)
	if err != nil {
		log.Error().
			Err(err).
			Str("request_id", c.GetRespHeader("X-Request-ID")).
			Str("store_id", req.StoreID).
			Str("order_id", req.OrderID).
			Msg("failed to add points")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "internal server error",
		})
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"pointsAdded": result.PointsAdded,
	})
}

// RedeemPoints handles POST /loyalty/redeem-points requests.
func (h *LoyaltyHandler) RedeemPoints(c *fiber.Ctx) error {
	var req model.RedeemPointsRequest

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

	result, err := h.service.Redeem(c.Context(), req.StoreID, req.CustomerEmail, req.PointsToRedeem, req.OrderID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProgramNotConfigured):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "loyalty program not configured",
			})
		case errors.Is(err, service.ErrProgramNotActive):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "loyalty program not active",
			})
		case errors.Is(err, service.ErrInvalidRequest):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "pointsToRedeem must be positive",
			})
		case errors.Is(err, service.ErrNoPointsRecord):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"error":   "no points record for customer",
			})
		case errors.Is(err, service.ErrInsufficientPoints):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success":        false,
				"error":          "insufficient points",
				"pointsToRedeem": req.PointsToRedeem,
			})
		case errors.Is(err, service.ErrBelowMinimumRedeem):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success":        false,
				"error":          "points below minimum redemption",
				"pointsToRedeem": req.PointsToRedeem,
			})
		}
		log.Error().
			Err(err).
			Str("request_id", c.GetRespHeader("X-Request-ID")).
			Str("store_id", req.StoreID).
			Str("order_id", req.OrderID).
			Msg("failed to redeem points")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "internal server error",
		})
	}

	log.Info().
		Str("request_id", c.GetRespHeader("X-Request-ID")).
		Str("store_id", req.StoreID).
		Str("order_id", req.OrderID).
		Int("points_redeemed", result.PointsRedeemed).
		Msg("points redeemed")

	return c.JSON(fiber.Map{
		"success":         true,
		"pointsRedeemed":  result.PointsRedeemed,
		"discountValue":   result.DiscountValue,
		"remainingPoints": result.RemainingPoints,
	})
}
