package cartitem

import (
	"context"

	"smoothiehouse/internal/domain"
)

// Correction is one stock-driven quantity reduction computed by the
// reconciler. All corrections of a pass commit in a single transaction.
type Correction struct {
	ItemID     string
	Quantity   int
	PriceCents int64
	Stock      int
}

// Repository is the system of record for cart line items, scoped per owner.
type Repository interface {
	Create(ctx context.Context, item domain.LineItem) (*domain.LineItem, error)
	Upsert(ctx context.Context, ownerID, id string, item domain.LineItem) (*domain.LineItem, error)
	UpdateQuantity(ctx context.Context, ownerID, id string, quantity int, priceCents int64) error
	Delete(ctx context.Context, ownerID, id string) error
	ListByOwner(ctx context.Context, ownerID string) ([]domain.LineItem, error)
	ApplyCorrections(ctx context.Context, ownerID string, corrections []Correction) error
	Subscribe(ctx context.Context, ownerID string, onSnapshot func([]domain.LineItem)) (func(), error)
}
