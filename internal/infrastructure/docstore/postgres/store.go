// Package postgres stores documents in a single jsonb table through gorm.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tempo-pos/internal/infrastructure/docstore"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Document is one row of the documents table.
type Document struct {
	Collection string         `gorm:"primaryKey;size:64"`
	ID         string         `gorm:"primaryKey;size:64"`
	Data       datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (Document) TableName() string {
	return "documents"
}

type Store struct {
	db   *gorm.DB
	feed docstore.Feed
}

var _ docstore.Store = (*Store)(nil)

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the documents table and its containment index.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&Document{}); err != nil {
		return fmt.Errorf("failed to migrate documents: %w", err)
	}
	return db.Exec("CREATE INDEX IF NOT EXISTS idx_documents_data ON documents USING gin (data jsonb_path_ops)").Error
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
	doc, err := find(s.db.WithContext(ctx), collection, id)
	if err != nil {
		return err
	}
	fields, err := docstore.Decode(doc.Data)
	if err != nil {
		return err
	}
	return docstore.Snapshot{ID: id, Fields: fields}.DataTo(out)
}

func (s *Store) Query(ctx context.Context, collection string, filter docstore.Filter) ([]docstore.Snapshot, error) {
	q := s.db.WithContext(ctx).Where("collection = ?", collection)
	if len(filter) > 0 {
		want, err := docstore.NormalizeFilter(filter)
		if err != nil {
			return nil, err
		}
		raw, err := docstore.MarshalFields(want)
		if err != nil {
			return nil, err
		}
		q = q.Where("data @> ?::jsonb", datatypes.JSON(raw))
	}

	var docs []Document
	if err := q.Order("id").Find(&docs).Error; err != nil {
		return nil, err
	}

	out := make([]docstore.Snapshot, 0, len(docs))
	for _, d := range docs {
		fields, err := docstore.Decode(d.Data)
		if err != nil {
			return nil, fmt.Errorf("%s/%s: %w", collection, d.ID, err)
		}
		out = append(out, docstore.Snapshot{ID: d.ID, Fields: fields})
	}
	return out, nil
}

func (s *Store) Batch() docstore.Batch {
	return docstore.NewBatch(s.commit)
}

func (s *Store) Subscribe(collection string, filter docstore.Filter, fn func(docstore.Change)) (func(), error) {
	return s.feed.Subscribe(collection, filter, fn)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) commit(ctx context.Context, ops []docstore.Op) ([]docstore.Shortfall, error) {
	after := make(map[string]docstore.Fields)
	prior := make(map[string]docstore.Fields)
	var shortfalls []docstore.Shortfall

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, op := range ops {
			if op.ID == "" {
				return docstore.ErrInvalidID
			}
			key := docstore.Key(op.Collection, op.ID)

			switch op.Kind {
			case docstore.OpSet:
				raw, err := docstore.MarshalFields(op.Fields)
				if err != nil {
					return err
				}
				err = tx.Create(&Document{Collection: op.Collection, ID: op.ID, Data: datatypes.JSON(raw)}).Error
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return fmt.Errorf("%w: %s/%s", docstore.ErrAlreadyExists, op.Collection, op.ID)
				}
				if err != nil {
					return err
				}
				after[key] = op.Fields

			case docstore.OpUpdate:
				raw, err := docstore.MarshalFields(op.Fields)
				if err != nil {
					return err
				}
				res := tx.Model(&Document{}).
					Where("collection = ? AND id = ?", op.Collection, op.ID).
					Updates(map[string]any{
						"data":       gorm.Expr("data || ?::jsonb", datatypes.JSON(raw)),
						"updated_at": time.Now(),
					})
				if res.Error != nil {
					return res.Error
				}
				if res.RowsAffected == 0 {
					return fmt.Errorf("%w: %s/%s", docstore.ErrNotFound, op.Collection, op.ID)
				}
				doc, err := find(tx, op.Collection, op.ID)
				if err != nil {
					return err
				}
				if after[key], err = docstore.Decode(doc.Data); err != nil {
					return err
				}

			case docstore.OpDecrement:
				res := tx.Model(&Document{}).
					Where("collection = ? AND id = ? AND (data->>?)::bigint >= ?", op.Collection, op.ID, op.Field, op.Amount).
					Updates(map[string]any{
						"data":       gorm.Expr("jsonb_set(data, ?::text[], to_jsonb((data->>?)::bigint - ?))", "{"+op.Field+"}", op.Field, op.Amount),
						"updated_at": time.Now(),
					})
				if res.Error != nil {
					return res.Error
				}
				doc, err := find(tx, op.Collection, op.ID)
				if err != nil {
					return err
				}
				current, err := docstore.Decode(doc.Data)
				if err != nil {
					return err
				}
				if res.RowsAffected == 0 {
					available, _ := current[op.Field].(int64)
					shortfalls = append(shortfalls, docstore.Shortfall{
						Op:         i,
						Collection: op.Collection,
						ID:         op.ID,
						Field:      op.Field,
						Requested:  op.Amount,
						Available:  available,
					})
					continue
				}
				after[key] = current

			case docstore.OpDelete:
				doc, err := find(tx, op.Collection, op.ID)
				if errors.Is(err, docstore.ErrNotFound) {
					continue
				}
				if err != nil {
					return err
				}
				if _, seen := prior[key]; !seen {
					if prior[key], err = docstore.Decode(doc.Data); err != nil {
						return err
					}
				}
				if err := tx.Where("collection = ? AND id = ?", op.Collection, op.ID).Delete(&Document{}).Error; err != nil {
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

func find(db *gorm.DB, collection, id string) (*Document, error) {
	var doc Document
	err := db.Where("collection = ? AND id = ?", collection, id).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, docstore.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}
