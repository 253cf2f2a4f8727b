package pricing

import (
	"smoothiehouse/internal/domain"
	"github.com/shopspring/decimal"
)

// taxRate is fixed for the storefront; it is not configurable anywhere else.
var taxRate = decimal.RequireFromString("0.0875")

// promotions is a closed, hardcoded table. Applying any code not listed here
// clears the active promotion.
var promotions = map[string]int64{
	"WELCOME10": 300,
}

// Totals is the pricing breakdown for one cart snapshot. All amounts are in
// cents; Tax and Total carry fractional cents.
//
// Line prices already include each line's topping/booster surcharge, so the
// total is subtotal + tax - discount. AddIns is an informational breakdown of
// the surcharges and is never summed into Total a second time.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	AddIns   decimal.Decimal `json:"addIns"`
	Discount decimal.Decimal `json:"discount"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// Calculate derives the totals for a cart snapshot and an optional active
// promotion. It is a pure function of its inputs.
func Calculate(items []domain.LineItem, promo *domain.Promotion) Totals {
	var subtotalCents, addInCents int64
	for _, item := range items {
		subtotalCents += item.PriceCents
		addInCents += item.AddInCents()
	}

	subtotal := decimal.NewFromInt(subtotalCents)
	discount := decimal.Zero
	if promo != nil {
		discount = decimal.NewFromInt(promo.DiscountCents)
	}
	tax := subtotal.Mul(taxRate)

	return Totals{
		Subtotal: subtotal,
		AddIns:   decimal.NewFromInt(addInCents),
		Discount: discount,
		Tax:      tax,
		Total:    subtotal.Add(tax).Sub(discount),
	}
}

// LookupPromo resolves a promo code against the closed table. It returns nil
// for unrecognized codes, which clears any active promotion.
func LookupPromo(code string) *domain.Promotion {
	discount, ok := promotions[code]
	if !ok {
		return nil
	}
	return &domain.Promotion{Code: code, DiscountCents: discount}
}
