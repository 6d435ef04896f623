// Package bolt is an embedded docstore backend on BoltDB. Each collection is a
// bucket of JSON values keyed by record id.
package bolt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/boltdb/bolt"
	"github.com/google/uuid"
	"github.com/sangkips/tempo-pos/internal/infrastructure/docstore"
)

type Store struct {
	db   *bolt.DB
	feed docstore.Feed
}

var _ docstore.Store = (*Store)(nil)

// Open opens or creates the database file at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create bolt directory: %w", err)
		}
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}
	return &Store{db: db}, nil
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
	if id == "" {
		return docstore.ErrNotFound
	}

	var fields docstore.Fields
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(collection))
		if b == nil {
			return docstore.ErrNotFound
		}
		raw := b.Get([]byte(id))
		if raw == nil {
			return docstore.ErrNotFound
		}
		var err error
		fields, err = docstore.Decode(raw)
		return err
	})
	if err != nil {
		return err
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

	var out []docstore.Snapshot
	err = s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(collection))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fields, err := docstore.Decode(v)
			if err != nil {
				return fmt.Errorf("%s/%s: %w", collection, k, err)
			}
			if docstore.Match(fields, want) {
				out = append(out, docstore.Snapshot{ID: string(k), Fields: fields})
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	// bucket keys are already sorted, but keep the shared ordering contract explicit
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
	return s.db.Close()
}

// commit runs every op inside one read-write transaction; any error rolls the
// whole batch back.
func (s *Store) commit(_ context.Context, ops []docstore.Op) ([]docstore.Shortfall, error) {
	after := make(map[string]docstore.Fields)
	prior := make(map[string]docstore.Fields)
	var shortfalls []docstore.Shortfall

	err := s.db.Update(func(tx *bolt.Tx) error {
		for i, op := range ops {
			if op.ID == "" {
				return docstore.ErrInvalidID
			}
			b, err := tx.CreateBucketIfNotExists([]byte(op.Collection))
			if err != nil {
				return fmt.Errorf("create bucket %s: %w", op.Collection, err)
			}
			key := []byte(op.ID)
			raw := b.Get(key)

			switch op.Kind {
			case docstore.OpSet:
				if raw != nil {
					return fmt.Errorf("%w: %s/%s", docstore.ErrAlreadyExists, op.Collection, op.ID)
				}
				if err := put(b, key, op.Fields); err != nil {
					return err
				}
				after[docstore.Key(op.Collection, op.ID)] = op.Fields

			case docstore.OpUpdate:
				if raw == nil {
					return fmt.Errorf("%w: %s/%s", docstore.ErrNotFound, op.Collection, op.ID)
				}
				current, err := docstore.Decode(raw)
				if err != nil {
					return err
				}
				merged := docstore.Merge(current, op.Fields)
				if err := put(b, key, merged); err != nil {
					return err
				}
				after[docstore.Key(op.Collection, op.ID)] = merged

			case docstore.OpDecrement:
				if raw == nil {
					return fmt.Errorf("%w: %s/%s", docstore.ErrNotFound, op.Collection, op.ID)
				}
				current, err := docstore.Decode(raw)
				if err != nil {
					return err
				}
				next, sf, err := docstore.Decrement(current, i, op)
				if err != nil {
					return err
				}
				if sf != nil {
					shortfalls = append(shortfalls, *sf)
					continue
				}
				if err := put(b, key, next); err != nil {
					return err
				}
				after[docstore.Key(op.Collection, op.ID)] = next

			case docstore.OpDelete:
				if raw == nil {
					continue
				}
				ck := docstore.Key(op.Collection, op.ID)
				if _, seen := prior[ck]; !seen {
					current, err := docstore.Decode(raw)
					if err != nil {
						return err
					}
					prior[ck] = current
				}
				if err := b.Delete(key); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.feed.Publish(docstore.ChangesFor(ops, after, prior, shortfalls)...)
	return shortfalls, nil
}

func put(b *bolt.Bucket, key []byte, fields docstore.Fields) error {
	data, err := docstore.MarshalFields(fields)
	if err != nil {
		return err
	}
	return b.Put(key, data)
}
