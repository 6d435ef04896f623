package repository

import (
	"context"
	"errors"

	"github.com/sangkips/tempo-pos/internal/domain/checkout"
	"github.com/sangkips/tempo-pos/internal/domain/entity"
	domainRepo "github.com/sangkips/tempo-pos/internal/domain/repository"
	"github.com/sangkips/tempo-pos/internal/infrastructure/docstore"
)

type settlementRepository struct {
	store docstore.Store
}

// NewSettlementRepository commits settlements through one store batch.
func NewSettlementRepository(store docstore.Store) domainRepo.SettlementRepository {
	return &settlementRepository{store: store}
}

func (r *settlementRepository) Commit(ctx context.Context, tx *entity.Transaction, stock []checkout.StockUpdate, lineIDs []string) ([]entity.StockShortage, error) {
	b := r.store.Batch().Set(collectionTransactions, tx.ID, tx)

	// batch op index -> stock update; op 0 is the transaction
	byOp := make(map[int]checkout.StockUpdate, len(stock))
	for i, su := range stock {
		b.Decrement(collectionMenus, su.MenuID, "stock", su.Quantity)
		byOp[i+1] = su
	}
	for _, id := range lineIDs {
		b.Delete(collectionCart, id)
	}

	err := b.Commit(ctx)
	if errors.Is(err, docstore.ErrAlreadyExists) {
		return nil, domainRepo.ErrDuplicate
	}
	if err != nil {
		return nil, err
	}

	var late []entity.StockShortage
	for _, sf := range b.Shortfalls() {
		su, ok := byOp[sf.Op]
		if !ok {
			continue
		}
		late = append(late, entity.StockShortage{
			LineID:    su.LineID,
			SourceID:  su.MenuID,
			Name:      su.Name,
			Requested: sf.Requested,
			Available: sf.Available,
		})
	}
	return late, nil
}

func (r *settlementRepository) RecordShortages(ctx context.Context, txID string, shortages []entity.StockShortage) error {
	return r.store.Update(ctx, collectionTransactions, txID, docstore.Fields{"shortages": shortages})
}
