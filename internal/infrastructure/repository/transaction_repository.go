package repository

import (
	"context"
	"sort"

	"github.com/sangkips/tempo-pos/internal/domain/entity"
	domainRepo "github.com/sangkips/tempo-pos/internal/domain/repository"
	"github.com/sangkips/tempo-pos/internal/infrastructure/docstore"
)

type transactionRepository struct {
	store docstore.Store
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(store docstore.Store) domainRepo.TransactionRepository {
	return &transactionRepository{store: store}
}

func (r *transactionRepository) GetByID(ctx context.Context, id string) (*entity.Transaction, error) {
	return getDoc[entity.Transaction](ctx, r.store, collectionTransactions, id)
}

func (r *transactionRepository) List(ctx context.Context, params *domainRepo.TransactionFilterParams) ([]entity.Transaction, error) {
	if params == nil {
		params = &domainRepo.TransactionFilterParams{}
	}

	// Equality predicates go to the store; the range is applied here.
	filter := docstore.Filter{}
	if params.OwnerID != "" {
		filter["owner_id"] = params.OwnerID
	}
	if params.PaymentMethod != nil {
		filter["payment_method"] = *params.PaymentMethod
	}
	if params.Day != "" {
		filter["day"] = params.Day
	}
	if params.Year != 0 {
		filter["year"] = params.Year
	}

	txs, err := queryDocs[entity.Transaction](ctx, r.store, collectionTransactions, filter)
	if err != nil {
		return nil, err
	}

	out := txs[:0]
	for _, tx := range txs {
		if params.StartDate != nil && tx.Timestamp.Before(*params.StartDate) {
			continue
		}
		if params.EndDate != nil && !tx.Timestamp.Before(*params.EndDate) {
			continue
		}
		out = append(out, tx)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}
