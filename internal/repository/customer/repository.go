package customer

import (
	"context"

	"smoothiehouse/internal/domain"
)

type Repository interface {
	// UpsertByPhone creates the customer on first login and returns whether
	// this login created it. The new/returning signal comes from the insert
	// itself, never from timestamps.
	UpsertByPhone(ctx context.Context, phone string) (*domain.Customer, bool, error)
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	SaveAddresses(ctx context.Context, customerID string, addresses []domain.Address) error
	UpdateProfile(ctx context.Context, customerID, name, email string) error
}
