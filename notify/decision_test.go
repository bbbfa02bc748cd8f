package notify

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"pricewatch/models"
)

func TestDecide(t *testing.T) {
	policy := DefaultPolicy()

	tests := []struct {
		name           string
		price          string
		discount       string
		outOfStock     bool
		wasOutOfStock  bool
		previousLowest string
		want           models.NotificationKind
	}{
		{
			name:           "new lowest price",
			price:          "89",
			discount:       "0",
			previousLowest: "90",
			want:           models.NotificationLowestPrice,
		},
		{
			name:           "lowest price outranks restock and discount",
			price:          "50",
			discount:       "60",
			wasOutOfStock:  true,
			previousLowest: "90",
			want:           models.NotificationLowestPrice,
		},
		{
			name:           "equal to lowest is not a new low",
			price:          "90",
			discount:       "0",
			previousLowest: "90",
			want:           models.NotificationNone,
		},
		{
			name:           "back in stock",
			price:          "100",
			discount:       "0",
			wasOutOfStock:  true,
			previousLowest: "90",
			want:           models.NotificationChangeOfStock,
		},
		{
			name:           "still out of stock",
			price:          "100",
			discount:       "0",
			outOfStock:     true,
			wasOutOfStock:  true,
			previousLowest: "90",
			want:           models.NotificationNone,
		},
		{
			name:           "restock outranks discount",
			price:          "100",
			discount:       "45",
			wasOutOfStock:  true,
			previousLowest: "90",
			want:           models.NotificationChangeOfStock,
		},
		{
			name:           "discount at threshold",
			price:          "100",
			discount:       "40",
			previousLowest: "90",
			want:           models.NotificationThresholdMet,
		},
		{
			name:           "discount below threshold",
			price:          "100",
			discount:       "39.9",
			previousLowest: "90",
			want:           models.NotificationNone,
		},
		{
			name:           "empty history never triggers lowest price",
			price:          "10",
			discount:       "0",
			previousLowest: "0",
			want:           models.NotificationNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snapshot := models.ProductSnapshot{
				CurrentPrice: decimal.RequireFromString(tt.price),
				DiscountRate: decimal.RequireFromString(tt.discount),
				IsOutOfStock: tt.outOfStock,
			}
			previous := models.TrackedProduct{IsOutOfStock: tt.wasOutOfStock}

			got := Decide(snapshot, previous, decimal.RequireFromString(tt.previousLowest), policy)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecide_CustomThreshold(t *testing.T) {
	policy := Policy{DiscountThreshold: decimal.NewFromInt(10)}
	snapshot := models.ProductSnapshot{CurrentPrice: decimal.NewFromInt(100), DiscountRate: decimal.NewFromInt(15)}

	got := Decide(snapshot, models.TrackedProduct{}, decimal.NewFromInt(50), policy)
	assert.Equal(t, models.NotificationThresholdMet, got)
}
