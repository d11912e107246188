package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors that report rewards-engine activity.
type Metrics struct {
	pointsEarned      *prometheus.CounterVec
	pointsRedeemed    *prometheus.CounterVec
	couponValidations *prometheus.CounterVec
	promotionLookups  prometheus.Counter
	promotionFailOpen prometheus.Counter
}

var (
	defaultOnce   sync.Once
	sharedMetrics *Metrics
)

// Default returns the package-level metrics instance registered with the
// global Prometheus registry. Collectors are created only once so repeated
// service construction (e.g. in tests) does not panic on duplicate
// registration.
func Default() *Metrics {
	defaultOnce.Do(func() {
		sharedMetrics = MustNew(prometheus.DefaultRegisterer)
	})
	return sharedMetrics
}

// MustNew constructs a Metrics instance using the provided registerer. Pass a
// fresh registry in tests that need isolated collectors. Registration errors
// panic, mirroring promauto semantics.
func MustNew(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	pointsEarned := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rewards",
			Subsystem: "loyalty",
			Name:      "points_earned_total",
			Help:      "Total points credited to customer accounts.",
		},
		[]string{"store_id"},
	)
	pointsRedeemed := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rewards",
			Subsystem: "loyalty",
			Name:      "points_redeemed_total",
			Help:      "Total points debited from customer accounts.",
		},
		[]string{"store_id"},
	)
	couponValidations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rewards",
			Subsystem: "coupon",
			Name:      "validations_total",
			Help:      "Coupon validation attempts by outcome.",
		},
		[]string{"outcome"},
	)
	promotionLookups := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "rewards",
			Subsystem: "promotion",
			Name:      "lookups_total",
			Help:      "Active-promotion lookups performed for product display.",
		},
	)
	promotionFailOpen := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "rewards",
			Subsystem: "promotion",
			Name:      "fail_open_total",
			Help:      "Promotion lookups that degraded to an empty result after a storage error.",
		},
	)

	reg.MustRegister(pointsEarned, pointsRedeemed, couponValidations, promotionLookups, promotionFailOpen)

	return &Metrics{
		pointsEarned:      pointsEarned,
		pointsRedeemed:    pointsRedeemed,
		couponValidations: couponValidations,
		promotionLookups:  promotionLookups,
		promotionFailOpen: promotionFailOpen,
	}
}

// ObservePointsEarned records points credited for a store.
func (m *Metrics) ObservePointsEarned(storeID string, points int) {
	if m == nil {
		return
	}
	m.pointsEarned.WithLabelValues(storeID).Add(float64(points))
}

// ObservePointsRedeemed records points debited for a store.
func (m *Metrics) ObservePointsRedeemed(storeID string, points int) {
	if m == nil {
		return
	}
	m.pointsRedeemed.WithLabelValues(storeID).Add(float64(points))
}

// ObserveCouponValidation records one validation attempt and its outcome
// ("valid", "not_found", "expired", ...).
func (m *Metrics) ObserveCouponValidation(outcome string) {
	if m == nil {
		return
	}
	m.couponValidations.WithLabelValues(outcome).Inc()
}

// ObservePromotionLookup records one active-promotion lookup.
func (m *Metrics) ObservePromotionLookup() {
	if m == nil {
		return
	}
	m.promotionLookups.Inc()
}

// ObservePromotionFailOpen records a lookup that degraded to an empty result.
func (m *Metrics) ObservePromotionFailOpen() {
	if m == nil {
		return
	}
	m.promotionFailOpen.Inc()
}
