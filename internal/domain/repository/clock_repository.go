package repository

import (
	"context"

	"github.com/sangkips/tempo-pos/internal/domain/entity"
)

// ClockRepository persists billable units. Getters return nil, nil when the
// record does not exist.
type ClockRepository interface {
	Create(ctx context.Context, unit *entity.BillableUnit) error
	GetByID(ctx context.Context, id string) (*entity.BillableUnit, error)
	Save(ctx context.Context, unit *entity.BillableUnit) error
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, ownerID string) ([]entity.BillableUnit, error)
	// ListRunningCountdowns spans every owner; the expiry sweep uses it.
	ListRunningCountdowns(ctx context.Context) ([]entity.BillableUnit, error)
}
