package domain

import "testing"

func TestSelectionKeyOrderInsensitive(t *testing.T) {
	a := LineItem{
		ProductID: "banana-date-shake",
		Base:      "Almond Milk",
		Toppings:  []Option{{ID: "chia"}, {ID: "granola"}},
		Boosters:  []Option{{ID: "whey"}},
	}
	b := LineItem{
		ProductID: "banana-date-shake",
		Base:      "Almond Milk",
		Toppings:  []Option{{ID: "granola"}, {ID: "chia"}},
		Boosters:  []Option{{ID: "whey"}},
	}
	if a.SelectionKey() != b.SelectionKey() {
		t.Fatalf("selection order must not matter: %q vs %q", a.SelectionKey(), b.SelectionKey())
	}
}

func TestSelectionKeyDistinguishes(t *testing.T) {
	base := LineItem{ProductID: "banana-date-shake", Base: "Almond Milk"}
	cases := []struct {
		name  string
		other LineItem
	}{
		{"different product", LineItem{ProductID: "berry-blast", Base: "Almond Milk"}},
		{"different base", LineItem{ProductID: "banana-date-shake", Base: "Oat Milk"}},
		{"extra topping", LineItem{ProductID: "banana-date-shake", Base: "Almond Milk", Toppings: []Option{{ID: "chia"}}}},
		{"instructions", LineItem{ProductID: "banana-date-shake", Base: "Almond Milk", SpecialInstructions: "no ice"}},
	}
	for _, tc := range cases {
		if base.SelectionKey() == tc.other.SelectionKey() {
			t.Fatalf("%s: keys must differ", tc.name)
		}
	}
}

func TestUnitPriceCents(t *testing.T) {
	item := LineItem{Quantity: 3, PriceCents: 447}
	if got := item.UnitPriceCents(); got != 149 {
		t.Fatalf("unit price = %d, want 149", got)
	}
	zero := LineItem{Quantity: 0, PriceCents: 447}
	if got := zero.UnitPriceCents(); got != 447 {
		t.Fatalf("zero quantity unit price = %d, want 447", got)
	}
}

func TestAddInCents(t *testing.T) {
	item := LineItem{
		Quantity:   5,
		PriceCents: 1000,
		Toppings:   []Option{{ID: "chia", PriceCents: 30}, {ID: "granola", PriceCents: 40}},
		Boosters:   []Option{{ID: "whey", PriceCents: 75}},
	}
	if got := item.AddInCents(); got != 145 {
		t.Fatalf("add-ins = %d, want 145 (not multiplied by quantity)", got)
	}
}
