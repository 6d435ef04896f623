// Package memory is an in-process docstore backend.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sangkips/tempo-pos/internal/infrastructure/docstore"
)

// Store keeps collections in maps guarded by a single RWMutex. Stored field
// maps are replaced on write, never mutated, so readers may hold them unlocked.
type Store struct {
	mu   sync.RWMutex
	data map[string]map[string]docstore.Fields
	feed docstore.Feed
}

var _ docstore.Store = (*Store)(nil)

func New() *Store {
	return &Store{data: make(map[string]map[string]docstore.Fields)}
}

func (s *Store) Create(ctx context.Context, collection string, record any) (string, error) {
	id := uuid.NewString()
	if err := s.Set(ctx, collection, id, record); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) Set(ctx context.Context, collection, id string, record any) error {
	return s.Batch().Set(collection, id, record).Commit(ctx)
}

func (s *Store) Update(ctx context.Context, collection, id string, fields docstore.Fields) error {
	return s.Batch().Update(collection, id, fields).Commit(ctx)
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	return s.Batch().Delete(collection, id).Commit(ctx)
}

func (s *Store) Get(ctx context.Context, collection, id string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	fields, ok := s.data[collection][id]
	s.mu.RUnlock()

	if !ok {
		return docstore.ErrNotFound
	}
	return docstore.Snapshot{ID: id, Fields: fields}.DataTo(out)
}

func (s *Store) Query(ctx context.Context, collection string, filter docstore.Filter) ([]docstore.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	want, err := docstore.NormalizeFilter(filter)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	var out []docstore.Snapshot
	for id, fields := range s.data[collection] {
		if docstore.Match(fields, want) {
			out = append(out, docstore.Snapshot{ID: id, Fields: docstore.Clone(fields)})
		}
	}
	s.mu.RUnlock()

	docstore.SortSnapshots(out)
	return out, nil
}

func (s *Store) Batch() docstore.Batch {
	return docstore.NewBatch(s.commit)
}

func (s *Store) Subscribe(collection string, filter docstore.Filter, fn func(docstore.Change)) (func(), error) {
	return s.feed.Subscribe(collection, filter, fn)
}

func (s *Store) Close() error {
	return nil
}

type staged struct {
	collection string
	id         string
	fields     docstore.Fields // nil when deleted
}

// commit validates every op against a staged view first, so a failing op
// leaves the maps untouched.
func (s *Store) commit(_ context.Context, ops []docstore.Op) ([]docstore.Shortfall, error) {
	s.mu.Lock()

	pending := make(map[string]*staged, len(ops))
	prior := make(map[string]docstore.Fields)
	lookup := func(collection, id string) (docstore.Fields, bool) {
		if st, ok := pending[docstore.Key(collection, id)]; ok {
			return st.fields, st.fields != nil
		}
		f, ok := s.data[collection][id]
		return f, ok
	}

	var shortfalls []docstore.Shortfall
	for i, op := range ops {
		if op.ID == "" {
			s.mu.Unlock()
			return nil, docstore.ErrInvalidID
		}
		key := docstore.Key(op.Collection, op.ID)
		current, exists := lookup(op.Collection, op.ID)

		switch op.Kind {
		case docstore.OpSet:
			if exists {
				s.mu.Unlock()
				return nil, fmt.Errorf("%w: %s/%s", docstore.ErrAlreadyExists, op.Collection, op.ID)
			}
			pending[key] = &staged{collection: op.Collection, id: op.ID, fields: docstore.Clone(op.Fields)}
		case docstore.OpUpdate:
			if !exists {
				s.mu.Unlock()
				return nil, fmt.Errorf("%w: %s/%s", docstore.ErrNotFound, op.Collection, op.ID)
			}
			pending[key] = &staged{collection: op.Collection, id: op.ID, fields: docstore.Merge(current, op.Fields)}
		case docstore.OpDecrement:
			if !exists {
				s.mu.Unlock()
				return nil, fmt.Errorf("%w: %s/%s", docstore.ErrNotFound, op.Collection, op.ID)
			}
			next, sf, err := docstore.Decrement(current, i, op)
			if err != nil {
				s.mu.Unlock()
				return nil, err
			}
			if sf != nil {
				shortfalls = append(shortfalls, *sf)
				continue
			}
			pending[key] = &staged{collection: op.Collection, id: op.ID, fields: next}
		case docstore.OpDelete:
			if exists {
				if _, seen := prior[key]; !seen {
					prior[key] = current
				}
			}
			pending[key] = &staged{collection: op.Collection, id: op.ID}
		}
	}

	after := make(map[string]docstore.Fields, len(pending))
	for key, st := range pending {
		if st.fields == nil {
			delete(s.data[st.collection], st.id)
			continue
		}
		coll, ok := s.data[st.collection]
		if !ok {
			coll = make(map[string]docstore.Fields)
			s.data[st.collection] = coll
		}
		coll[st.id] = st.fields
		after[key] = st.fields
	}
	s.mu.Unlock()

	s.feed.Publish(docstore.ChangesFor(ops, after, prior, shortfalls)...)
	return shortfalls, nil
}
