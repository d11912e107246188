package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMustNew_RegistersAndCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := MustNew(reg)

	m.ObservePointsEarned("store_001", 100)
	m.ObservePointsEarned("store_001", 50)
	m.ObservePointsRedeemed("store_001", 30)
	m.ObserveCouponValidation("valid")
	m.ObserveCouponValidation("not_found")
	m.ObservePromotionLookup()
	m.ObservePromotionFailOpen()

	assert.Equal(t, 150.0, testutil.ToFloat64(m.pointsEarned.WithLabelValues("store_001")))
	assert.Equal(t, 30.0, testutil.ToFloat64(m.pointsRedeemed.WithLabelValues("store_001")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.couponValidations.WithLabelValues("valid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.couponValidations.WithLabelValues("not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.promotionLookups))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.promotionFailOpen))
}

func TestMustNew_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	MustNew(reg)

	assert.Panics(t, func() { MustNew(reg) })
}

func TestObserve_NilReceiverIsSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObservePointsEarned("store_001", 10)
		m.ObservePointsRedeemed("store_001", 10)
		m.ObserveCouponValidation("valid")
		m.ObservePromotionLookup()
		m.ObservePromotionFailOpen()
	})
}

func TestDefault_ReturnsSameInstance(t *testing.T) {
	assert.Same(t, Default(), Default())
}
