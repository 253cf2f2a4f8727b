package domain

import (
	"sort"
	"strings"
	"time"
)

const (
	// MaxQuantity is the hard upper bound for a single line item.
	MaxQuantity = 10
	// MaxToppings bounds the topping selection per line item.
	MaxToppings = 3
	// MaxBoosters bounds the booster selection per line item.
	MaxBoosters = 2
)

// Option is one selectable add-in (base, topping or booster).
type Option struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	PriceCents  int64  `json:"priceCents"`
}

// LineItem is one customized product entry in a cart. The in-memory copy is a
// cache of the item store row, kept live by subscription.
type LineItem struct {
	ID                  string    `json:"id"`
	OwnerID             string    `json:"-"`
	ProductID           string    `json:"productId"`
	Category            string    `json:"category"`
	Name                string    `json:"name"`
	Image               string    `json:"image,omitempty"`
	Base                string    `json:"base"`
	Toppings            []Option  `json:"toppings"`
	Boosters            []Option  `json:"boosters"`
	SpecialInstructions string    `json:"specialInstructions,omitempty"`
	Quantity            int       `json:"quantity"`
	PriceCents          int64     `json:"priceCents"`
	StockCached         int       `json:"stock"`
	Customized          bool      `json:"customized"`
	Version             int       `json:"version"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// UnitPriceCents derives the per-unit price implied by the last save,
// including any topping/booster surcharge baked into PriceCents.
func (li LineItem) UnitPriceCents() int64 {
	if li.Quantity <= 0 {
		return li.PriceCents
	}
	return li.PriceCents / int64(li.Quantity)
}

// AddInCents sums the line's topping and booster prices, not multiplied by
// quantity.
func (li LineItem) AddInCents() int64 {
	var sum int64
	for _, t := range li.Toppings {
		sum += t.PriceCents
	}
	for _, b := range li.Boosters {
		sum += b.PriceCents
	}
	return sum
}

// SelectionKey identifies a line item by product, base, topping set, booster
// set and special instructions. Two candidates with the same key merge into
// one line. Selection order is display-only, so option ids are compared as a
// set.
func (li LineItem) SelectionKey() string {
	parts := []string{li.ProductID, li.Base, optionSetKey(li.Toppings), optionSetKey(li.Boosters), li.SpecialInstructions}
	return strings.Join(parts, "|")
}

func optionSetKey(opts []Option) string {
	ids := make([]string, 0, len(opts))
	for _, o := range opts {
		ids = append(ids, o.ID)
	}
	sort.Strings(ids)
	return strings.Join(ids, ",")
}

// StockAlert is an advisory blocking flag produced by stock reconciliation.
// It marks a line item that needs user action before checkout; it does not by
// itself prevent further cart mutations.
type StockAlert struct {
	ItemID    string `json:"itemId"`
	ProductID string `json:"productId"`
	Stock     int    `json:"stock"`
	Message   string `json:"message"`
}
