package repository

import (
	"context"
	"sort"

	"github.com/sangkips/tempo-pos/internal/domain/entity"
	domainRepo "github.com/sangkips/tempo-pos/internal/domain/repository"
	"github.com/sangkips/tempo-pos/internal/infrastructure/docstore"
)

type cartRepository struct {
	store docstore.Store
}

// NewCartRepository creates a new cart line repository
func NewCartRepository(store docstore.Store) domainRepo.CartRepository {
	return &cartRepository{store: store}
}

func (r *cartRepository) Add(ctx context.Context, line *entity.CartLine) error {
	id, err := r.store.Create(ctx, collectionCart, line)
	if err != nil {
		return err
	}
	line.ID = id
	return nil
}

func (r *cartRepository) GetByID(ctx context.Context, id string) (*entity.CartLine, error) {
	return getDoc[entity.CartLine](ctx, r.store, collectionCart, id)
}

func (r *cartRepository) FindBySource(ctx context.Context, ownerID, sourceID string) (*entity.CartLine, error) {
	lines, err := queryDocs[entity.CartLine](ctx, r.store, collectionCart, docstore.Filter{
		"owner_id":  ownerID,
		"source_id": sourceID,
	})
	if err != nil || len(lines) == 0 {
		return nil, err
	}
	sortLines(lines)
	return &lines[0], nil
}

func (r *cartRepository) UpdateQuantity(ctx context.Context, id string, quantity int64) error {
	return r.store.Update(ctx, collectionCart, id, docstore.Fields{"quantity": quantity})
}

func (r *cartRepository) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, collectionCart, id)
}

// ListByOwner returns the cart in the order lines were added.
func (r *cartRepository) ListByOwner(ctx context.Context, ownerID string) ([]entity.CartLine, error) {
	lines, err := queryDocs[entity.CartLine](ctx, r.store, collectionCart, OwnerScope(ownerID))
	if err != nil {
		return nil, err
	}
	sortLines(lines)
	return lines, nil
}

func sortLines(lines []entity.CartLine) {
	sort.SliceStable(lines, func(i, j int) bool {
		if !lines[i].CreatedAt.Equal(lines[j].CreatedAt) {
			return lines[i].CreatedAt.Before(lines[j].CreatedAt)
		}
		return lines[i].ID < lines[j].ID
	})
}
