package membership

import (
	"github.com/shopspring/decimal"

	"dojo/internal/domain/domainerr"
)

// Discount types accepted by the price calculator.
const (
	DiscountPercentage  = "percentage"
	DiscountFixedAmount = "fixed_amount"
)

var hundred = decimal.NewFromInt(100)

// Discount is an optional reduction of the base price.
// Percentage values are in [0,100]; fixed values are in major currency units.
type Discount struct {
	Type  string  `json:"type"`
	Value float64 `json:"value"`
}

// Price is the outcome of the assignment wizard's price step.
type Price struct {
	DiscountedPriceCents int64 `json:"discounted_price_cents"`
	SetupFeeChargedCents int64 `json:"setup_fee_charged_cents"`
	TotalCents           int64 `json:"total_cents"`
	DiscountAppliedCents int64 `json:"discount_applied_cents"`
}

// ComputeFinalPrice applies an optional discount and the setup fee rules.
// PRE: basePriceCents >= 0; percentage discounts within [0,100]
// POST: DiscountedPriceCents >= 0; TotalCents = DiscountedPriceCents + SetupFeeChargedCents
func ComputeFinalPrice(basePriceCents int64, discount *Discount, setupFeeCents int64, waiveSetupFee bool, customSetupFeeCents int64) (Price, error) {
	if basePriceCents < 0 {
		return Price{}, domainerr.Invalidf("base price cannot be negative")
	}
	if setupFeeCents < 0 || customSetupFeeCents < 0 {
		return Price{}, domainerr.Invalidf("setup fee cannot be negative")
	}

	base := decimal.NewFromInt(basePriceCents)
	reduction := decimal.Zero
	if discount != nil {
		value := decimal.NewFromFloat(discount.Value)
		switch discount.Type {
		case DiscountPercentage:
			if value.LessThan(decimal.Zero) || value.GreaterThan(hundred) {
				return Price{}, domainerr.Invalidf("percentage discount must be between 0 and 100")
			}
			reduction = base.Mul(value).Div(hundred)
		case DiscountFixedAmount:
			if value.LessThan(decimal.Zero) {
				return Price{}, domainerr.Invalidf("fixed discount cannot be negative")
			}
			reduction = value.Mul(hundred)
		default:
			return Price{}, domainerr.Invalidf("unknown discount type %q", discount.Type)
		}
	}

	discounted := base.Sub(reduction).Round(0)
	if discounted.LessThan(decimal.Zero) {
		discounted = decimal.Zero
	}
	discountedCents := discounted.IntPart()

	var setupCharged int64
	if !waiveSetupFee {
		setupCharged = setupFeeCents
		if customSetupFeeCents > 0 {
			setupCharged = customSetupFeeCents
		}
	}

	return Price{
		DiscountedPriceCents: discountedCents,
		SetupFeeChargedCents: setupCharged,
		TotalCents:           discountedCents + setupCharged,
		DiscountAppliedCents: basePriceCents - discountedCents,
	}, nil
}
