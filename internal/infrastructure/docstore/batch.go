package docstore

import (
	"context"
	"fmt"
)

// OpKind is the type of a batched write.
type OpKind int

const (
	OpSet OpKind = iota
	OpUpdate
	OpDelete
	OpDecrement
)

func (k OpKind) String() string {
	switch k {
	case OpSet:
		return "set"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	case OpDecrement:
		return "decrement"
	}
	return "unknown"
}

// Op is one pending write inside a batch.
type Op struct {
	Kind       OpKind
	Collection string
	ID         string
	Fields     Fields

	// Field and Amount describe an OpDecrement.
	Field  string
	Amount int64
}

// CommitFunc applies ops atomically and returns the decrements it skipped.
type CommitFunc func(ctx context.Context, ops []Op) ([]Shortfall, error)

type batch struct {
	ops        []Op
	err        error
	commit     CommitFunc
	done       bool
	shortfalls []Shortfall
}

// NewBatch returns a Batch that hands its ops to commit. Backends only supply
// the atomic apply step.
func NewBatch(commit CommitFunc) Batch {
	return &batch{commit: commit}
}

func (b *batch) Set(collection, id string, record any) Batch {
	if b.err != nil {
		return b
	}
	if id == "" {
		b.err = ErrInvalidID
		return b
	}
	fields, err := Encode(record)
	if err != nil {
		b.err = err
		return b
	}
	b.ops = append(b.ops, Op{Kind: OpSet, Collection: collection, ID: id, Fields: fields})
	return b
}

func (b *batch) Update(collection, id string, fields Fields) Batch {
	if b.err != nil {
		return b
	}
	normalized, err := Encode(fields)
	if err != nil {
		b.err = err
		return b
	}
	b.ops = append(b.ops, Op{Kind: OpUpdate, Collection: collection, ID: id, Fields: normalized})
	return b
}

func (b *batch) Delete(collection, id string) Batch {
	if b.err == nil {
		b.ops = append(b.ops, Op{Kind: OpDelete, Collection: collection, ID: id})
	}
	return b
}

func (b *batch) Decrement(collection, id, field string, n int64) Batch {
	if b.err != nil {
		return b
	}
	if field == "" || n < 1 {
		b.err = fmt.Errorf("docstore: invalid decrement of %q by %d", field, n)
		return b
	}
	b.ops = append(b.ops, Op{Kind: OpDecrement, Collection: collection, ID: id, Field: field, Amount: n})
	return b
}

func (b *batch) Shortfalls() []Shortfall {
	return b.shortfalls
}

func (b *batch) Commit(ctx context.Context) error {
	if b.done {
		return fmt.Errorf("docstore: batch already committed")
	}
	b.done = true
	if b.err != nil {
		return b.err
	}
	if len(b.ops) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	shortfalls, err := b.commit(ctx, b.ops)
	if err != nil {
		return err
	}
	b.shortfalls = shortfalls
	return nil
}

// Decrement applies the decrement op at position i to current, a record that
// exists. It returns the new fields, or a shortfall when the field holds less
// than the amount. A missing field counts as zero.
func Decrement(current Fields, i int, op Op) (Fields, *Shortfall, error) {
	var available int64
	switch v := current[op.Field].(type) {
	case nil:
	case int64:
		available = v
	default:
		return nil, nil, fmt.Errorf("docstore: %s/%s field %q is not an integer", op.Collection, op.ID, op.Field)
	}
	if available < op.Amount {
		return nil, &Shortfall{
			Op:         i,
			Collection: op.Collection,
			ID:         op.ID,
			Field:      op.Field,
			Requested:  op.Amount,
			Available:  available,
		}, nil
	}
	return Merge(current, Fields{op.Field: available - op.Amount}), nil, nil
}
