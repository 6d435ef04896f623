// Package docstore defines the document-store collaborator the services persist
// through, plus helpers shared by its backends.
//
// Records are JSON-shaped field maps grouped into named collections. A record's
// id lives outside its fields; Snapshot.DataTo injects it as "id".
package docstore

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	ErrNotFound      = errors.New("docstore: record not found")
	ErrAlreadyExists = errors.New("docstore: record already exists")
	ErrInvalidID     = errors.New("docstore: empty record id")
)

// Fields is the stored form of a record.
type Fields map[string]any

// Filter holds equality predicates. A record matches when every key is present
// with an equal value.
type Filter map[string]any

// Snapshot is a record read back from a store.
type Snapshot struct {
	ID     string
	Fields Fields
}

// DataTo decodes the snapshot into out, a pointer to a struct or map.
func (s Snapshot) DataTo(out any) error {
	m := clone(s.Fields)
	m["id"] = s.ID
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

// Store is the contract every backend implements.
type Store interface {
	// Create stores record under a generated id.
	Create(ctx context.Context, collection string, record any) (string, error)
	// Set stores record under id and fails with ErrAlreadyExists if it is taken.
	Set(ctx context.Context, collection, id string, record any) error
	Get(ctx context.Context, collection, id string, out any) error
	// Update merges fields into an existing record.
	Update(ctx context.Context, collection, id string, fields Fields) error
	// Delete succeeds when the record is already gone.
	Delete(ctx context.Context, collection, id string) error
	Query(ctx context.Context, collection string, filter Filter) ([]Snapshot, error)
	Batch() Batch
	Subscribe(collection string, filter Filter, fn func(Change)) (cancel func(), err error)
	Close() error
}

// Batch collects writes that commit all-or-nothing.
type Batch interface {
	Set(collection, id string, record any) Batch
	Update(collection, id string, fields Fields) Batch
	Delete(collection, id string) Batch
	// Decrement subtracts n from an integer field of an existing record when
	// the field holds at least n. Otherwise the record is left alone and the
	// op is reported by Shortfalls. A missing record fails the batch.
	Decrement(collection, id, field string, n int64) Batch
	Commit(ctx context.Context) error
	// Shortfalls lists the decrements a successful Commit skipped.
	Shortfalls() []Shortfall
}

// Shortfall is a guarded decrement that found too little to take.
type Shortfall struct {
	// Op is the position of the decrement among the batch's ops.
	Op         int
	Collection string
	ID         string
	Field      string
	Requested  int64
	Available  int64
}
