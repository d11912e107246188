package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiendalink/rewards/internal/model"
	appvalidator "github.com/tiendalink/rewards/internal/validator"
)

// mockPromotionService is a mock implementation of PromotionServiceInterface.
type mockPromotionService struct {
	activeFn func(ctx context.Context, storeID, productID string) []model.Promotion
	priceFn  func(originalPrice float64, promotions []model.Promotion) model.PriceQuote
	badgeFn  func(promotions []model.Promotion) bool
}

func (m *mockPromotionService) ActivePromotions(ctx context.Context, storeID, productID string) []model.Promotion {
	if m.activeFn != nil {
		return m.activeFn(ctx, storeID, productID)
	}
	return nil
}

func (m *mockPromotionService) DiscountedPrice(originalPrice float64, promotions []model.Promotion) model.PriceQuote {
	if m.priceFn != nil {
		return m.priceFn(originalPrice, promotions)
	}
	return model.PriceQuote{FinalPrice: originalPrice}
}

func (m *mockPromotionService) HasBadge(promotions []model.Promotion) bool {
	if m.badgeFn != nil {
		return m.badgeFn(promotions)
	}
	return len(promotions) > 0
}

func setupPromotionApp(mockSvc *mockPromotionService) *fiber.App {
	app := fiber.New()
	h := NewPromotionHandler(mockSvc, appvalidator.New())
	app.Get("/api/promotions/active", h.ActivePromotions)
	app.Post("/api/promotions/price", h.QuotePrice)
	return app
}

func TestActivePromotions_Success(t *testing.T) {
	mockSvc := &mockPromotionService{
		activeFn: func(ctx context.Context, storeID, productID string) []model.Promotion {
			assert.Equal(t, "store_001", storeID)
			assert.Equal(t, "prod_1", productID)
			return []model.Promotion{
				{ID: "promo_1", Type: model.PromotionTypePercentage, DiscountValue: 20, Priority: 5},
			}
		},
	}
	app := setupPromotionApp(mockSvc)

	req := httptest.NewRequest(http.MethodGet, "/api/promotions/active?storeId=store_001&productId=prod_1", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	result := decodeBody(t, resp)
	assert.Equal(t, true, result["success"])
	assert.Equal(t, true, result["hasBadge"])
	promotions, ok := result["promotions"].([]interface{})
	require.True(t, ok)
	assert.Len(t, promotions, 1)
}

func TestActivePromotions_EmptyIsListNotNull(t *testing.T) {
	app := setupPromotionApp(&mockPromotionService{})

	req := httptest.NewRequest(http.MethodGet, "/api/promotions/active?storeId=store_001&productId=prod_1", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	result := decodeBody(t, resp)
	assert.Equal(t, true, result["success"])
	assert.Equal(t, false, result["hasBadge"])
	promotions, ok := result["promotions"].([]interface{})
	require.True(t, ok, "promotions must serialize as [] rather than null")
	assert.Len(t, promotions, 0)
}

func TestActivePromotions_MissingParams(t *testing.T) {
	app := setupPromotionApp(&mockPromotionService{})

	req := httptest.NewRequest(http.MethodGet, "/api/promotions/active?storeId=store_001", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestQuotePrice_WithPromotion(t *testing.T) {
	promo := model.Promotion{ID: "promo_b", Type: model.PromotionTypePriceDiscount, DiscountValue: 15, Priority: 10}
	mockSvc := &mockPromotionService{
		activeFn: func(ctx context.Context, storeID, productID string) []model.Promotion {
			return []model.Promotion{promo}
		},
		priceFn: func(originalPrice float64, promotions []model.Promotion) model.PriceQuote {
			assert.Equal(t, 100.0, originalPrice)
			return model.PriceQuote{FinalPrice: 85, Discount: 15, AppliedPromotion: &promo}
		},
	}
	app := setupPromotionApp(mockSvc)

	body := `{"storeId":"store_001","productId":"prod_1","originalPrice":100}`
	req := httptest.NewRequest(http.MethodPost, "/api/promotions/price", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	result := decodeBody(t, resp)
	assert.Equal(t, true, result["success"])
	assert.Equal(t, float64(85), result["finalPrice"])
	assert.Equal(t, float64(15), result["discount"])
	applied, ok := result["appliedPromotion"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "promo_b", applied["id"])
}

func TestQuotePrice_NoPromotions(t *testing.T) {
	app := setupPromotionApp(&mockPromotionService{
		badgeFn: func(promotions []model.Promotion) bool { return false },
	})

	body := `{"storeId":"store_001","productId":"prod_1","originalPrice":100}`
	req := httptest.NewRequest(http.MethodPost, "/api/promotions/price", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	result := decodeBody(t, resp)
	assert.Equal(t, float64(100), result["finalPrice"])
	assert.Equal(t, float64(0), result["discount"])
	_, present := result["appliedPromotion"]
	assert.False(t, present, "no applied promotion key when nothing applies")
}

func TestQuotePrice_NegativePriceRejected(t *testing.T) {
	app := setupPromotionApp(&mockPromotionService{})

	body := `{"storeId":"store_001","productId":"prod_1","originalPrice":-5}`
	req := httptest.NewRequest(http.MethodPost, "/api/promotions/price", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
