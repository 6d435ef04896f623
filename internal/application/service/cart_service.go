package service

import (
	"context"

	"github.com/sangkips/tempo-pos/internal/domain/checkout"
	"github.com/sangkips/tempo-pos/internal/domain/entity"
	"github.com/sangkips/tempo-pos/internal/domain/repository"
	"github.com/sangkips/tempo-pos/pkg/apperror"
)

// CartService reads and edits the lines waiting for checkout
type CartService struct {
	cartRepo repository.CartRepository
}

// NewCartService creates a new cart service
func NewCartService(cartRepo repository.CartRepository) *CartService {
	return &CartService{cartRepo: cartRepo}
}

// CartSummary is the cart with its totals.
type CartSummary struct {
	Lines    []entity.CartLine `json:"lines"`
	Subtotal int64             `json:"subtotal"`
	Discount int64             `json:"discount"`
	Total    int64             `json:"total"`
}

func (s *CartService) List(ctx context.Context, ownerID string, discount int64) (*CartSummary, error) {
	lines, err := s.cartRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if discount < 0 {
		discount = 0
	}
	return &CartSummary{
		Lines:    lines,
		Subtotal: checkout.Subtotal(lines),
		Discount: discount,
		Total:    checkout.ComputeTotal(lines, discount),
	}, nil
}

// Total is max(0, subtotal - discount) for the owner's cart.
func (s *CartService) Total(ctx context.Context, ownerID string, discount int64) (int64, error) {
	summary, err := s.List(ctx, ownerID, discount)
	if err != nil {
		return 0, err
	}
	return summary.Total, nil
}

func (s *CartService) AdjustQuantity(ctx context.Context, ownerID, lineID string, quantity int64) (*entity.CartLine, error) {
	lines, err := s.cartRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	updated, err := checkout.AdjustQuantity(lines, lineID, quantity)
	if err != nil {
		return nil, err
	}
	if err := s.cartRepo.UpdateQuantity(ctx, lineID, quantity); err != nil {
		return nil, err
	}
	for i := range updated {
		if updated[i].ID == lineID {
			return &updated[i], nil
		}
	}
	return nil, apperror.NewNotFoundError("Cart line")
}

// RemoveLine deletes one of the owner's lines. Removing a line that is
// already gone succeeds.
func (s *CartService) RemoveLine(ctx context.Context, ownerID, lineID string) error {
	line, err := s.cartRepo.GetByID(ctx, lineID)
	if err != nil {
		return err
	}
	if line == nil {
		return nil
	}
	if line.OwnerID != ownerID {
		return apperror.NewNotFoundError("Cart line")
	}
	return s.cartRepo.Delete(ctx, lineID)
}
