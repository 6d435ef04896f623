package repository

import (
	"context"
	"sort"

	"github.com/sangkips/tempo-pos/internal/domain/entity"
	"github.com/sangkips/tempo-pos/internal/domain/enum"
	domainRepo "github.com/sangkips/tempo-pos/internal/domain/repository"
	"github.com/sangkips/tempo-pos/internal/infrastructure/docstore"
)

type clockRepository struct {
	store docstore.Store
}

// NewClockRepository creates a new billable unit repository
func NewClockRepository(store docstore.Store) domainRepo.ClockRepository {
	return &clockRepository{store: store}
}

func (r *clockRepository) Create(ctx context.Context, unit *entity.BillableUnit) error {
	id, err := r.store.Create(ctx, collectionClocks, unit)
	if err != nil {
		return err
	}
	unit.ID = id
	return nil
}

func (r *clockRepository) GetByID(ctx context.Context, id string) (*entity.BillableUnit, error) {
	return getDoc[entity.BillableUnit](ctx, r.store, collectionClocks, id)
}

func (r *clockRepository) Save(ctx context.Context, unit *entity.BillableUnit) error {
	return saveDoc(ctx, r.store, collectionClocks, unit.ID, unit)
}

func (r *clockRepository) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, collectionClocks, id)
}

func (r *clockRepository) ListByOwner(ctx context.Context, ownerID string) ([]entity.BillableUnit, error) {
	units, err := queryDocs[entity.BillableUnit](ctx, r.store, collectionClocks, OwnerScope(ownerID))
	if err != nil {
		return nil, err
	}
	sortUnits(units)
	return units, nil
}

func (r *clockRepository) ListRunningCountdowns(ctx context.Context) ([]entity.BillableUnit, error) {
	units, err := queryDocs[entity.BillableUnit](ctx, r.store, collectionClocks, docstore.Filter{
		"mode":    enum.ClockModeCountDown,
		"running": true,
	})
	if err != nil {
		return nil, err
	}
	sortUnits(units)
	return units, nil
}

func sortUnits(units []entity.BillableUnit) {
	sort.SliceStable(units, func(i, j int) bool {
		if !units[i].CreatedAt.Equal(units[j].CreatedAt) {
			return units[i].CreatedAt.Before(units[j].CreatedAt)
		}
		return units[i].ID < units[j].ID
	})
}
