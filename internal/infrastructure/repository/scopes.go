package repository

import (
	"context"
	"errors"

	"github.com/sangkips/tempo-pos/internal/infrastructure/docstore"
)

const (
	collectionClocks       = "clocks"
	collectionMenus        = "menus"
	collectionCart         = "cart"
	collectionTransactions = "transactions"
	collectionUsers        = "users"
)

// OwnerScope filters a collection to one user's records.
func OwnerScope(ownerID string) docstore.Filter {
	return docstore.Filter{"owner_id": ownerID}
}

// getDoc reads one record, returning nil, nil when it does not exist.
func getDoc[T any](ctx context.Context, store docstore.Store, collection, id string) (*T, error) {
	var out T
	err := store.Get(ctx, collection, id, &out)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func queryDocs[T any](ctx context.Context, store docstore.Store, collection string, filter docstore.Filter) ([]T, error) {
	snaps, err := store.Query(ctx, collection, filter)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(snaps))
	for _, s := range snaps {
		var v T
		if err := s.DataTo(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// saveDoc overwrites every stored field of an existing record.
func saveDoc(ctx context.Context, store docstore.Store, collection, id string, record any) error {
	fields, err := docstore.Encode(record)
	if err != nil {
		return err
	}
	return store.Update(ctx, collection, id, fields)
}
