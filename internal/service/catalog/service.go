package catalog

import (
	"context"
	"fmt"

	"smoothiehouse/internal/domain"
	catalogrepo "smoothiehouse/internal/repository/catalog"
)

type Service struct {
	repo catalogrepo.Repository
}

func New(repo catalogrepo.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListProducts(ctx context.Context, category string) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx, category)
}

func (s *Service) GetProduct(ctx context.Context, category, key string) (*domain.Product, error) {
	return s.repo.GetProduct(ctx, category, key)
}

// ListOptions returns the customization catalog for one of the kinds
// bases, toppings or boosters.
func (s *Service) ListOptions(ctx context.Context, kind string) ([]domain.Option, error) {
	switch kind {
	case domain.OptionKindBases, domain.OptionKindToppings, domain.OptionKindBoosters:
	default:
		return nil, fmt.Errorf("%w: unknown option kind %q", domain.ErrInvalidInput, kind)
	}
	return s.repo.ListOptions(ctx, kind)
}
