package domain

import "time"

// Product is one sellable smoothie/shake in the catalog. Key is the public
// product id referenced by cart line items.
type Product struct {
	ID          string    `json:"-"`
	Key         string    `json:"productId"`
	Category    string    `json:"category"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	PriceCents  int64     `json:"priceCents"`
	Stock       int       `json:"stock"`
	Image       string    `json:"image,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Option catalog kinds.
const (
	OptionKindBases    = "bases"
	OptionKindToppings = "toppings"
	OptionKindBoosters = "boosters"
)
