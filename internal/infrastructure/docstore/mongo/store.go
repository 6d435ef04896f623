// Package mongo maps each docstore collection onto a MongoDB collection with
// the record id as a string _id.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sangkips/tempo-pos/internal/infrastructure/docstore"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
	feed   docstore.Feed
}

var _ docstore.Store = (*Store)(nil)

// Open connects to uri and verifies the connection. Batches use multi-document
// transactions, which need a replica set or sharded cluster.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &Store{client: client, db: client.Database(database)}, nil
}

func (s *Store) Create(ctx context.Context, collection string, record any) (string, error) {
	id := uuid.NewString()
	if err := s.Set(ctx, collection, id, record); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) Set(ctx context.Context, collection, id string, record any) error {
	if id == "" {
		return docstore.ErrInvalidID
	}
	fields, err := docstore.Encode(record)
	if err != nil {
		return err
	}
	if err := s.insert(ctx, collection, id, fields); err != nil {
		return err
	}
	s.feed.Publish(docstore.Change{Collection: collection, ID: id, Kind: docstore.ChangeCreated, Fields: fields})
	return nil
}

func (s *Store) Update(ctx context.Context, collection, id string, fields docstore.Fields) error {
	patch, err := docstore.Encode(fields)
	if err != nil {
		return err
	}
	merged, err := s.update(ctx, collection, id, patch)
	if err != nil {
		return err
	}
	s.feed.Publish(docstore.Change{Collection: collection, ID: id, Kind: docstore.ChangeUpdated, Fields: merged})
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	old, err := s.delete(ctx, collection, id)
	if err != nil {
		return err
	}
	if old != nil {
		s.feed.Publish(docstore.Change{Collection: collection, ID: id, Kind: docstore.ChangeDeleted, Fields: old})
	}
	return nil
}

func (s *Store) Get(ctx context.Context, collection, id string, out any) error {
	var raw bson.M
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return docstore.ErrNotFound
	}
	if err != nil {
		return err
	}
	_, fields := fromBSON(raw)
	return docstore.Snapshot{ID: id, Fields: fields}.DataTo(out)
}

func (s *Store) Query(ctx context.Context, collection string, filter docstore.Filter) ([]docstore.Snapshot, error) {
	want, err := docstore.NormalizeFilter(filter)
	if err != nil {
		return nil, err
	}

	cur, err := s.db.Collection(collection).Find(ctx, bson.M(want),
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]docstore.Snapshot, 0, len(docs))
	for _, d := range docs {
		id, fields := fromBSON(d)
		out = append(out, docstore.Snapshot{ID: id, Fields: fields})
	}
	return out, nil
}

func (s *Store) Batch() docstore.Batch {
	return docstore.NewBatch(s.commit)
}

func (s *Store) Subscribe(collection string, filter docstore.Filter, fn func(docstore.Change)) (func(), error) {
	return s.feed.Subscribe(collection, filter, fn)
}

// Ping checks the server is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

func (s *Store) commit(ctx context.Context, ops []docstore.Op) ([]docstore.Shortfall, error) {
	sess, err := s.client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	var after, prior map[string]docstore.Fields
	var shortfalls []docstore.Shortfall
	_, err = sess.WithTransaction(ctx, func(sc context.Context) (any, error) {
		// the callback may be retried on transient errors, so start clean
		after = make(map[string]docstore.Fields)
		prior = make(map[string]docstore.Fields)
		shortfalls = nil

		for i, op := range ops {
			if op.ID == "" {
				return nil, docstore.ErrInvalidID
			}
			key := docstore.Key(op.Collection, op.ID)
			switch op.Kind {
			case docstore.OpSet:
				if err := s.insert(sc, op.Collection, op.ID, op.Fields); err != nil {
					return nil, err
				}
				after[key] = op.Fields
			case docstore.OpUpdate:
				merged, err := s.update(sc, op.Collection, op.ID, op.Fields)
				if err != nil {
					return nil, err
				}
				after[key] = merged
			case docstore.OpDecrement:
				next, sf, err := s.decrement(sc, op)
				if err != nil {
					return nil, err
				}
				if sf != nil {
					sf.Op = i
					shortfalls = append(shortfalls, *sf)
					continue
				}
				after[key] = next
			case docstore.OpDelete:
				old, err := s.delete(sc, op.Collection, op.ID)
				if err != nil {
					return nil, err
				}
				if _, seen := prior[key]; old != nil && !seen {
					prior[key] = old
				}
			}
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	s.feed.Publish(docstore.ChangesFor(ops, after, prior, shortfalls)...)
	return shortfalls, nil
}

func (s *Store) insert(ctx context.Context, collection, id string, fields docstore.Fields) error {
	_, err := s.db.Collection(collection).InsertOne(ctx, toBSON(id, fields))
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %s/%s", docstore.ErrAlreadyExists, collection, id)
	}
	return err
}

func (s *Store) update(ctx context.Context, collection, id string, patch docstore.Fields) (docstore.Fields, error) {
	var raw bson.M
	err := s.db.Collection(collection).FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M(patch)},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s/%s", docstore.ErrNotFound, collection, id)
	}
	if err != nil {
		return nil, err
	}
	_, fields := fromBSON(raw)
	return fields, nil
}

// decrement applies op with $inc only when the field still holds at least
// op.Amount, so concurrent writers never see a lost update.
func (s *Store) decrement(ctx context.Context, op docstore.Op) (docstore.Fields, *docstore.Shortfall, error) {
	coll := s.db.Collection(op.Collection)

	var raw bson.M
	err := coll.FindOneAndUpdate(ctx,
		bson.M{"_id": op.ID, op.Field: bson.M{"$gte": op.Amount}},
		bson.M{"$inc": bson.M{op.Field: -op.Amount}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&raw)
	if err == nil {
		_, fields := fromBSON(raw)
		return fields, nil, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil, err
	}

	err = coll.FindOne(ctx, bson.M{"_id": op.ID}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil, fmt.Errorf("%w: %s/%s", docstore.ErrNotFound, op.Collection, op.ID)
	}
	if err != nil {
		return nil, nil, err
	}
	available, _ := plain(raw[op.Field]).(int64)
	return nil, &docstore.Shortfall{
		Collection: op.Collection,
		ID:         op.ID,
		Field:      op.Field,
		Requested:  op.Amount,
		Available:  available,
	}, nil
}

// delete returns the removed record, or nil when there was nothing to remove.
func (s *Store) delete(ctx context.Context, collection, id string) (docstore.Fields, error) {
	var raw bson.M
	err := s.db.Collection(collection).FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	_, fields := fromBSON(raw)
	return fields, nil
}

func toBSON(id string, fields docstore.Fields) bson.M {
	doc := make(bson.M, len(fields)+1)
	for k, v := range fields {
		doc[k] = v
	}
	doc["_id"] = id
	return doc
}

// fromBSON splits off _id and converts driver types back into the plain
// shapes docstore.Decode would produce.
func fromBSON(doc bson.M) (string, docstore.Fields) {
	id, _ := doc["_id"].(string)
	fields := make(docstore.Fields, len(doc))
	for k, v := range doc {
		if k == "_id" {
			continue
		}
		fields[k] = plain(v)
	}
	return id, fields
}

func plain(v any) any {
	switch t := v.(type) {
	case int32:
		return int64(t)
	case float64:
		if t == float64(int64(t)) {
			return int64(t)
		}
		return t
	case bson.M:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = plain(val)
		}
		return m
	case bson.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = plain(e.Value)
		}
		return m
	case bson.A:
		s := make([]any, len(t))
		for i, val := range t {
			s[i] = plain(val)
		}
		return s
	default:
		return v
	}
}
