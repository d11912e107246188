package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tiendalink/rewards/internal/metrics"
	"github.com/tiendalink/rewards/internal/model"
)

// PromotionRepositoryInterface defines the interface for promotion data access.
type PromotionRepositoryInterface interface {
	ListActive(ctx context.Context, storeID, productID string, now time.Time) ([]model.Promotion, error)
}

// PromotionService selects applicable promotions for product display and
// computes discounted prices. It backs passive price display, so every
// failure degrades to "no discount" instead of propagating: a broken
// promotion store must never block checkout rendering.
type PromotionService struct {
	repo    PromotionRepositoryInterface
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewPromotionService creates a new PromotionService with the given repository.
func NewPromotionService(repo PromotionRepositoryInterface) *PromotionService {
	return &PromotionService{
		repo:    repo,
		metrics: metrics.Default(),
		now:     time.Now,
	}
}

// ActivePromotions returns the promotions currently applicable to a product,
// highest priority first (equal priorities resolve to the lowest id). A
// repository failure is logged and returns an empty list.
func (s *PromotionService) ActivePromotions(ctx context.Context, storeID, productID string) []model.Promotion {
	s.metrics.ObservePromotionLookup()

	promotions, err := s.repo.ListActive(ctx, storeID, productID, s.now().UTC())
	if err != nil {
		log.Warn().
			Err(err).
			Str("store_id", storeID).
			Str("product_id", productID).
			Msg("promotion lookup failed, degrading to no promotions")
		s.metrics.ObservePromotionFailOpen()
		return nil
	}
	return promotions
}

// DiscountedPrice applies the single best promotion to a price. Promotions
// never stack: only the highest-priority entry is used, with lowest id
// winning ties when the input is unordered. An empty list returns the
// original price unchanged.
func (s *PromotionService) DiscountedPrice(originalPrice float64, promotions []model.Promotion) model.PriceQuote {
	best := bestPromotion(promotions)
	if best == nil {
		return model.PriceQuote{FinalPrice: originalPrice}
	}

	var discount float64
	switch best.Type {
	case model.PromotionTypePercentage:
		discount = originalPrice * best.DiscountValue / 100
	case model.PromotionTypePriceDiscount:
		discount = best.DiscountValue
		if discount > originalPrice {
			discount = originalPrice
		}
	default:
		// buy_x_get_y and unknown types carry no unit price discount
		discount = 0
	}

	finalPrice := originalPrice - discount
	if finalPrice < 0 {
		finalPrice = 0
	}

	return model.PriceQuote{
		FinalPrice:       finalPrice,
		Discount:         discount,
		AppliedPromotion: best,
	}
}

// HasBadge reports whether any of the promotions wants a badge shown on the
// product card.
func (s *PromotionService) HasBadge(promotions []model.Promotion) bool {
	for _, p := range promotions {
		if p.ShowBadge {
			return true
		}
	}
	return false
}

func bestPromotion(promotions []model.Promotion) *model.Promotion {
	var best *model.Promotion
	for i := range promotions {
		p := &promotions[i]
		if best == nil ||
			p.Priority > best.Priority ||
			(p.Priority == best.Priority && p.ID < best.ID) {
			best = p
		}
	}
	return best
}
