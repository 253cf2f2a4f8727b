package domain

// Promotion is a fixed-amount discount keyed by code. At most one promotion
// is active per cart at a time.
type Promotion struct {
	Code          string `json:"code"`
	DiscountCents int64  `json:"discountCents"`
}
