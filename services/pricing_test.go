package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"storefront/config"
)

func TestPricing_Quote(t *testing.T) {
	tests := []struct {
		name   string
		policy config.Pricing
		lines  []PricedLine
		want   Quote
	}{
		{
			name:   "flat delivery with discount",
			policy: config.Pricing{DeliveryCharge: 50, DiscountPercent: 10},
			lines:  []PricedLine{{PriceAt: 100, Qty: 1}},
			want: Quote{
				LineTotals: []float64{100}, Subtotal: 100, DeliveryCharge: 50,
				DiscountPercent: 10, DiscountAmount: 10, Total: 140,
			},
		},
		{
			name:   "delivery waived at threshold",
			policy: config.Pricing{DeliveryCharge: 50, FreeDeliveryThreshold: 200},
			lines:  []PricedLine{{PriceAt: 120, Qty: 1}, {PriceAt: 40, Qty: 2}},
			want:   Quote{LineTotals: []float64{120, 80}, Subtotal: 200, Total: 200},
		},
		{
			name:   "discount below minimum subtotal",
			policy: config.Pricing{DeliveryCharge: 50, DiscountPercent: 10, DiscountMinSubtotal: 500},
			lines:  []PricedLine{{PriceAt: 100, Qty: 2}},
			want:   Quote{LineTotals: []float64{200}, Subtotal: 200, DeliveryCharge: 50, Total: 250},
		},
		{
			name:   "rounds half away from zero",
			policy: config.Pricing{DiscountPercent: 15},
			lines:  []PricedLine{{PriceAt: 0.1, Qty: 3}, {PriceAt: 19.99, Qty: 3}},
			want: Quote{
				LineTotals: []float64{0.3, 59.97}, Subtotal: 60.27,
				DiscountPercent: 15, DiscountAmount: 9.04, Total: 51.23,
			},
		},
		{
			name:   "no lines",
			policy: config.Pricing{DeliveryCharge: 50},
			want:   Quote{LineTotals: []float64{}, DeliveryCharge: 50, Total: 50},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewPricing(tt.policy).Quote(tt.lines)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, OrderTotal(got.Subtotal, got.DeliveryCharge, got.DiscountAmount), got.Total)
		})
	}
}

func TestLineTotal(t *testing.T) {
	assert.Equal(t, 0.3, LineTotal(0.1, 3))
	assert.Equal(t, 33.35, LineTotal(6.67, 5))
	assert.Equal(t, 0.0, LineTotal(9.99, 0))
}
