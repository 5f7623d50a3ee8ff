package services

import (
	"github.com/shopspring/decimal"

	"storefront/config"
)

// PricedLine is a cart line with its price frozen at checkout.
type PricedLine struct {
	PriceAt float64
	Qty     int
}

type Quote struct {
	LineTotals      []float64
	Subtotal        float64
	DeliveryCharge  float64
	DiscountPercent float64
	DiscountAmount  float64
	Total           float64
}

// Pricing computes order totals from frozen line prices under a delivery and
// discount policy.
type Pricing struct {
	policy config.Pricing
}

func NewPricing(policy config.Pricing) *Pricing {
	return &Pricing{policy: policy}
}

func (p *Pricing) Quote(lines []PricedLine) Quote {
	q := Quote{LineTotals: make([]float64, len(lines))}

	subtotal := decimal.Zero
	for i, line := range lines {
		lt := lineTotal(line.PriceAt, line.Qty)
		q.LineTotals[i] = lt.InexactFloat64()
		subtotal = subtotal.Add(lt)
	}
	subtotal = subtotal.Round(2)

	delivery := decimal.NewFromFloat(p.policy.DeliveryCharge).Round(2)
	if threshold := p.policy.FreeDeliveryThreshold; threshold > 0 && subtotal.GreaterThanOrEqual(decimal.NewFromFloat(threshold)) {
		delivery = decimal.Zero
	}

	percent := decimal.Zero
	if p.policy.DiscountPercent > 0 && subtotal.GreaterThanOrEqual(decimal.NewFromFloat(p.policy.DiscountMinSubtotal)) {
		percent = decimal.NewFromFloat(p.policy.DiscountPercent)
	}
	discount := subtotal.Mul(percent).Div(decimal.NewFromInt(100)).Round(2)

	q.Subtotal = subtotal.InexactFloat64()
	q.DeliveryCharge = delivery.InexactFloat64()
	q.DiscountPercent = percent.InexactFloat64()
	q.DiscountAmount = discount.InexactFloat64()
	q.Total = OrderTotal(q.Subtotal, q.DeliveryCharge, q.DiscountAmount)
	return q
}

// LineTotal is round(priceAt * qty, 2).
func LineTotal(priceAt float64, qty int) float64 {
	return lineTotal(priceAt, qty).InexactFloat64()
}

// OrderTotal is round(subtotal + deliveryCharge - discountAmount, 2).
func OrderTotal(subtotal, deliveryCharge, discountAmount float64) float64 {
	return decimal.NewFromFloat(subtotal).
		Add(decimal.NewFromFloat(deliveryCharge)).
		Sub(decimal.NewFromFloat(discountAmount)).
		Round(2).
		InexactFloat64()
}

func lineTotal(priceAt float64, qty int) decimal.Decimal {
	return decimal.NewFromFloat(priceAt).Mul(decimal.NewFromInt(int64(qty))).Round(2)
}
