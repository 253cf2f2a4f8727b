package domain

import "time"

// Customer is an authenticated identity. Cart contents are scoped entirely
// to a customer id.
type Customer struct {
	ID        string    `json:"id"`
	Phone     string    `json:"phone"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email,omitempty"`
	Addresses []Address `json:"addresses"`
	CreatedAt time.Time `json:"createdAt"`
}

// Address is a delivery address captured on the customer record.
type Address struct {
	ID         string `json:"id"`
	Label      string `json:"label,omitempty"`
	StreetName string `json:"streetName"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Notes      string `json:"notes,omitempty"`
}
