package repository

import (
	"context"
	"sort"
	"strings"

	"github.com/sangkips/tempo-pos/internal/domain/entity"
	domainRepo "github.com/sangkips/tempo-pos/internal/domain/repository"
	"github.com/sangkips/tempo-pos/internal/infrastructure/docstore"
)

type menuRepository struct {
	store docstore.Store
}

// NewMenuRepository creates a new menu item repository
func NewMenuRepository(store docstore.Store) domainRepo.MenuRepository {
	return &menuRepository{store: store}
}

func (r *menuRepository) Create(ctx context.Context, item *entity.MenuItem) error {
	id, err := r.store.Create(ctx, collectionMenus, item)
	if err != nil {
		return err
	}
	item.ID = id
	return nil
}

func (r *menuRepository) GetByID(ctx context.Context, id string) (*entity.MenuItem, error) {
	return getDoc[entity.MenuItem](ctx, r.store, collectionMenus, id)
}

func (r *menuRepository) Save(ctx context.Context, item *entity.MenuItem) error {
	return saveDoc(ctx, r.store, collectionMenus, item.ID, item)
}

func (r *menuRepository) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, collectionMenus, id)
}

// ListByOwner returns the owner's menu sorted by name.
func (r *menuRepository) ListByOwner(ctx context.Context, ownerID string) ([]entity.MenuItem, error) {
	items, err := queryDocs[entity.MenuItem](ctx, r.store, collectionMenus, OwnerScope(ownerID))
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := strings.ToLower(items[i].Name), strings.ToLower(items[j].Name)
		if a != b {
			return a < b
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}
