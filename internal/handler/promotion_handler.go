package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/tiendalink/rewards/internal/model"
)

// PromotionServiceInterface defines the interface for promotion business logic.
// The service is fail-open: lookups never return an error.
type PromotionServiceInterface interface {
	ActivePromotions(ctx context.Context, storeID, productID string) []model.Promotion
	DiscountedPrice(originalPrice float64, promotions []model.Promotion) model.PriceQuote
	HasBadge(promotions []model.Promotion) bool
}

// PromotionHandler mirrors the in-process promotion evaluator over HTTP for
// the storefront product display. These endpoints never fail: promotion
// pricing is passive display and degrades to "no discount".
type PromotionHandler struct {
	service   PromotionServiceInterface
	validator *validator.Validate
}

// NewPromotionHandler creates a new PromotionHandler with the given service and validator.
func NewPromotionHandler(svc PromotionServiceInterface, v *validator.Validate) *PromotionHandler {
	return &PromotionHandler{service: svc, validator: v}
}

// ActivePromotions handles GET /promotions/active?storeId=&productId= requests.
func (h *PromotionHandler) ActivePromotions(c *fiber.Ctx) error {
	storeID := c.Query("storeId")
	productID := c.Query("productId")
	if storeID == "" || productID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "storeId and productId are required",
		})
	}

	promotions := h.service.ActivePromotions(c.Context(), storeID, productID)
	if promotions == nil {
		promotions = []model.Promotion{}
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"promotions": promotions,
		"hasBadge":   h.service.HasBadge(promotions),
	})
}

// QuotePrice handles POST /promotions/price requests: display pricing for a
// product with the best applicable promotion applied.
func (h *PromotionHandler) QuotePrice(c *fiber.Ctx) error {
	var req model.QuotePriceRequest

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

	promotions := h.service.ActivePromotions(c.Context(), req.StoreID, req.ProductID)
	quote := h.service.DiscountedPrice(req.OriginalPrice, promotions)

	resp := fiber.Map{
		"success":    true,
		"finalPrice": quote.FinalPrice,
		"discount":   quote.Discount,
		"hasBadge":   h.service.HasBadge(promotions),
	}
	if quote.AppliedPromotion != nil {
		resp["appliedPromotion"] = quote.AppliedPromotion
	}
	return c.JSON(resp)
}
