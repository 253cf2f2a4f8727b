package pricing

import (
	"testing"

	"smoothiehouse/internal/domain"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCalculateBreakdown(t *testing.T) {
	// One line whose price already includes its add-in surcharge.
	items := []domain.LineItem{
		{
			ProductID:  "banana-date-shake",
			Quantity:   1,
			PriceCents: 500,
			Toppings:   []domain.Option{{ID: "chia", PriceCents: 30}},
			Boosters:   []domain.Option{{ID: "collagen", PriceCents: 25}},
		},
	}
	promo := &domain.Promotion{Code: "WELCOME10", DiscountCents: 3}

	got := Calculate(items, promo)

	if !got.Subtotal.Equal(dec("500")) {
		t.Fatalf("subtotal = %s, want 500", got.Subtotal)
	}
	if !got.AddIns.Equal(dec("55")) {
		t.Fatalf("addIns = %s, want 55", got.AddIns)
	}
	if !got.Tax.Equal(dec("43.75")) {
		t.Fatalf("tax = %s, want 43.75", got.Tax)
	}
	if !got.Discount.Equal(dec("3")) {
		t.Fatalf("discount = %s, want 3", got.Discount)
	}
	// Line prices include add-ins, so they are not summed a second time.
	if !got.Total.Equal(dec("540.75")) {
		t.Fatalf("total = %s, want 540.75", got.Total)
	}
}

func TestCalculateTotalIdentity(t *testing.T) {
	items := []domain.LineItem{
		{Quantity: 3, PriceCents: 447, Toppings: []domain.Option{{ID: "granola", PriceCents: 40}}},
		{Quantity: 2, PriceCents: 398, Boosters: []domain.Option{{ID: "whey", PriceCents: 75}, {ID: "spirulina", PriceCents: 60}}},
	}
	got := Calculate(items, LookupPromo("WELCOME10"))
	want := got.Subtotal.Add(got.Tax).Sub(got.Discount)
	if !got.Total.Equal(want) {
		t.Fatalf("total = %s, want subtotal+tax-discount = %s", got.Total, want)
	}
}

func TestCalculateAddInsNotMultipliedByQuantity(t *testing.T) {
	items := []domain.LineItem{
		{Quantity: 5, PriceCents: 1000, Toppings: []domain.Option{{ID: "chia", PriceCents: 30}}},
	}
	got := Calculate(items, nil)
	if !got.AddIns.Equal(dec("30")) {
		t.Fatalf("addIns = %s, want 30 (independent of quantity)", got.AddIns)
	}
}

func TestCalculateIsPure(t *testing.T) {
	items := []domain.LineItem{
		{Quantity: 2, PriceCents: 358, Toppings: []domain.Option{{ID: "chia", PriceCents: 30}}},
	}
	promo := LookupPromo("WELCOME10")
	first := Calculate(items, promo)
	second := Calculate(items, promo)
	if !first.Total.Equal(second.Total) || !first.Tax.Equal(second.Tax) || !first.Subtotal.Equal(second.Subtotal) {
		t.Fatalf("identical inputs gave different outputs: %+v vs %+v", first, second)
	}
}

func TestCalculateEmptyCart(t *testing.T) {
	got := Calculate(nil, nil)
	if !got.Total.Equal(decimal.Zero) || !got.Subtotal.Equal(decimal.Zero) {
		t.Fatalf("empty cart totals should be zero, got %+v", got)
	}
}

func TestLookupPromo(t *testing.T) {
	promo := LookupPromo("WELCOME10")
	if promo == nil || promo.DiscountCents != 300 {
		t.Fatalf("WELCOME10 should resolve to 300 cents, got %+v", promo)
	}
	if got := LookupPromo("FOO"); got != nil {
		t.Fatalf("unrecognized code should clear the promotion, got %+v", got)
	}
	if got := LookupPromo(""); got != nil {
		t.Fatalf("empty code should clear the promotion, got %+v", got)
	}
}
