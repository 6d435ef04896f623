package repository

import (
	"context"

	"github.com/sangkips/tempo-pos/internal/domain/entity"
)

// MenuRepository defines the interface for menu item data operations
type MenuRepository interface {
	Create(ctx context.Context, item *entity.MenuItem) error
	GetByID(ctx context.Context, id string) (*entity.MenuItem, error)
	Save(ctx context.Context, item *entity.MenuItem) error
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, ownerID string) ([]entity.MenuItem, error)
}
