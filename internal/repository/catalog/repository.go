package catalog

import (
	"context"

	"smoothiehouse/internal/domain"
)

// StockInfo is the live availability record for one product.
type StockInfo struct {
	Stock      int
	PriceCents int64
}

type Repository interface {
	ListProducts(ctx context.Context, category string) ([]domain.Product, error)
	GetProduct(ctx context.Context, category, key string) (*domain.Product, error)
	ReadStock(ctx context.Context, category, key string) (*StockInfo, error)
	ListOptions(ctx context.Context, kind string) ([]domain.Option, error)
	UpsertProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
}
