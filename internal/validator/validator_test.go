package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiendalink/rewards/internal/model"
)

func TestNew_NotBlank(t *testing.T) {
	v := New()

	type subject struct {
		Value string `validate:"required,notblank"`
	}

	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"valid value", "store_001", false},
		{"whitespace only", "   ", true},
		{"tab and newline", "\t\n", true},
		{"value with surrounding spaces", "  store_001  ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(subject{Value: tt.value})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNew_ReportsJSONFieldNames(t *testing.T) {
	v := New()

	err := v.Struct(model.AddPointsRequest{
		CustomerEmail: "ana@example.com",
		OrderID:       "order_001",
	})
	require.Error(t, err)

	ve, ok := err.(validator.ValidationErrors)
	require.True(t, ok)
	require.NotEmpty(t, ve)
	assert.Equal(t, "storeId", ve[0].Field())
}

func TestNew_AddPointsRequest(t *testing.T) {
	v := New()

	valid := model.AddPointsRequest{
		StoreID:       "store_001",
		CustomerEmail: "ana@example.com",
		CustomerName:  "Ana",
		OrderID:       "order_001",
		OrderAmount:   100,
	}
	require.NoError(t, v.Struct(valid))

	badEmail := valid
	badEmail.CustomerEmail = "not-an-email"
	assert.Error(t, v.Struct(badEmail))

	negativeAmount := valid
	negativeAmount.OrderAmount = -1
	assert.Error(t, v.Struct(negativeAmount))

	blankStore := valid
	blankStore.StoreID = "  "
	assert.Error(t, v.Struct(blankStore))
}

func TestNew_RedeemPointsRequest(t *testing.T) {
	v := New()

	valid := model.RedeemPointsRequest{
		StoreID:        "store_001",
		CustomerEmail:  "ana@example.com",
		PointsToRedeem: 100,
		OrderID:        "order_002",
	}
	require.NoError(t, v.Struct(valid))

	zeroPoints := valid
	zeroPoints.PointsToRedeem = 0
	assert.Error(t, v.Struct(zeroPoints))

	negativePoints := valid
	negativePoints.PointsToRedeem = -5
	assert.Error(t, v.Struct(negativePoints))
}
