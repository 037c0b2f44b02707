package services

import (
	"context"
	"errors"

	"storefront/internal/domain"
	"storefront/internal/repos"
)

type CartService struct {
	Carts    *repos.CartRepo
	Variants VariantFinder
}

func NewCartService(carts *repos.CartRepo, variants VariantFinder) *CartService {
	return &CartService{Carts: carts, Variants: variants}
}

// Add puts qty units of a variant in the user's cart, adding to any existing row.
func (s *CartService) Add(ctx context.Context, userID, variantID string, qty int) (domain.CartView, error) {
	if qty < 1 {
		return domain.CartView{}, domain.Invalid("quantity must be positive")
	}
	if _, err := s.Variants.FindSellable(ctx, variantID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.CartView{}, &domain.VariantNotFoundError{VariantID: variantID}
		}
		return domain.CartView{}, err
	}
	if err := s.Carts.Add(ctx, userID, variantID, qty); err != nil {
		return domain.CartView{}, err
	}
	return s.Carts.View(ctx, userID)
}

func (s *CartService) View(ctx context.Context, userID string) (domain.CartView, error) {
	return s.Carts.View(ctx, userID)
}

func (s *CartService) Remove(ctx context.Context, userID, variantID string) (domain.CartView, error) {
	if err := s.Carts.Remove(ctx, userID, variantID); err != nil {
		return domain.CartView{}, err
	}
	return s.Carts.View(ctx, userID)
}
