package repository

import (
	"context"

	"github.com/sangkips/tempo-pos/internal/domain/entity"
)

// CartRepository defines the interface for cart line data operations
type CartRepository interface {
	Add(ctx context.Context, line *entity.CartLine) error
	GetByID(ctx context.Context, id string) (*entity.CartLine, error)
	// FindBySource returns the owner's line for a menu item or clock, if any.
	FindBySource(ctx context.Context, ownerID, sourceID string) (*entity.CartLine, error)
	UpdateQuantity(ctx context.Context, id string, quantity int64) error
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, ownerID string) ([]entity.CartLine, error)
}
