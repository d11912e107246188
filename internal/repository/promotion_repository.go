package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tiendalink/rewards/internal/model"
)

// PromotionPoolInterface defines the database operations needed by PromotionRepository.
type PromotionPoolInterface interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PromotionRepository provides data access for promotions using pgx.
type PromotionRepository struct {
	pool PromotionPoolInterface
}

// NewPromotionRepository creates a new PromotionRepository with the given pool.
func NewPromotionRepository(pool *pgxpool.Pool) *PromotionRepository {
	return &PromotionRepository{pool: pool}
}

// NewPromotionRepositoryWithPool creates a new PromotionRepository with a custom
// pool interface. This is primarily used for testing.
func NewPromotionRepositoryWithPool(pool PromotionPoolInterface) *PromotionRepository {
	return &PromotionRepository{pool: pool}
}

// ListActive retrieves the promotions applicable to a product at the given
// instant: active status, inside the validity window, targeting either all
// products or the specific product. Ordered by priority descending; equal
// priorities tie-break on lowest id so selection is deterministic.
func (r *PromotionRepository) ListActive(ctx context.Context, storeID, productID string, now time.Time) ([]model.Promotion, error) {
	query := `SELECT id, store_id, name, type, discount_value, status, start_date, end_date,
		       target_type, target_ids, priority, show_badge, total_uses, total_revenue
		FROM promotions
		WHERE store_id = $1
		  AND status = 'active'
		  AND start_date <= $2
		  AND end_date >= $2
		  AND (target_type = 'all_products'
		       OR (target_type = 'specific_products' AND $3 = ANY(target_ids)))
		ORDER BY priority DESC, id ASC`

	rows, err := r.pool.Query(ctx, query, storeID, now, productID)
	if err != nil {
		return nil, fmt.Errorf("list active promotions for store %s: %w", storeID, err)
	}
	defer rows.Close()

	var promotions []model.Promotion
	for rows.Next() {
		var p model.Promotion
		if err := rows.Scan(
			&p.ID, &p.StoreID, &p.Name, &p.Type, &p.DiscountValue, &p.Status,
			&p.StartDate, &p.EndDate, &p.TargetType, &p.TargetIDs,
			&p.Priority, &p.ShowBadge, &p.TotalUses, &p.TotalRevenue,
		); err != nil {
			return nil, fmt.Errorf("scan promotion: %w", err)
		}
		promotions = append(promotions, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate promotion rows: %w", err)
	}

	return promotions, nil
}
