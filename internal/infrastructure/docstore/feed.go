package docstore

import "sync"

// ChangeKind describes what happened to a record.
type ChangeKind int

const (
	ChangeCreated ChangeKind = iota
	ChangeUpdated
	ChangeDeleted
)

func (k ChangeKind) String() string {
	return [...]string{"created", "updated", "deleted"}[k]
}

// Change is delivered to subscribers after a write commits. For deletes,
// Fields holds the last known state when the backend has it.
type Change struct {
	Collection string
	ID         string
	Kind       ChangeKind
	Fields     Fields
}

type subscription struct {
	collection string
	filter     Fields
	fn         func(Change)
}

// Feed fans committed changes out to in-process subscribers. Callbacks run on
// the writer's goroutine after the write returns, so they must not block.
type Feed struct {
	mu   sync.RWMutex
	next int
	subs map[int]subscription
}

// Subscribe registers fn for changes in collection matching filter.
func (f *Feed) Subscribe(collection string, filter Filter, fn func(Change)) (func(), error) {
	normalized, err := NormalizeFilter(filter)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	if f.subs == nil {
		f.subs = make(map[int]subscription)
	}
	id := f.next
	f.next++
	f.subs[id] = subscription{collection: collection, filter: normalized, fn: fn}
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
		})
	}, nil
}

// Publish delivers changes in order.
func (f *Feed) Publish(changes ...Change) {
	if len(changes) == 0 {
		return
	}

	f.mu.RLock()
	subs := make([]subscription, 0, len(f.subs))
	for _, s := range f.subs {
		subs = append(subs, s)
	}
	f.mu.RUnlock()

	for _, c := range changes {
		for _, s := range subs {
			if s.collection != c.Collection {
				continue
			}
			if len(s.filter) > 0 && (c.Fields == nil || !Match(c.Fields, s.filter)) {
				continue
			}
			s.fn(Change{Collection: c.Collection, ID: c.ID, Kind: c.Kind, Fields: clone(c.Fields)})
		}
	}
}

// ChangesFor maps committed ops to changes. prior holds the state before the
// batch for deleted records, and after the state following it for updates.
// Skipped decrements produce no change.
func ChangesFor(ops []Op, after map[string]Fields, prior map[string]Fields, skipped []Shortfall) []Change {
	skip := make(map[int]bool, len(skipped))
	for _, sf := range skipped {
		skip[sf.Op] = true
	}
	changes := make([]Change, 0, len(ops))
	for i, op := range ops {
		key := Key(op.Collection, op.ID)
		switch op.Kind {
		case OpSet:
			changes = append(changes, Change{Collection: op.Collection, ID: op.ID, Kind: ChangeCreated, Fields: op.Fields})
		case OpDecrement:
			if skip[i] {
				continue
			}
			changes = append(changes, Change{Collection: op.Collection, ID: op.ID, Kind: ChangeUpdated, Fields: after[key]})
		case OpUpdate:
			changes = append(changes, Change{Collection: op.Collection, ID: op.ID, Kind: ChangeUpdated, Fields: after[key]})
		case OpDelete:
			old, ok := prior[key]
			if !ok {
				continue
			}
			changes = append(changes, Change{Collection: op.Collection, ID: op.ID, Kind: ChangeDeleted, Fields: old})
		}
	}
	return changes
}

// Key joins a collection and id into a single map key.
func Key(collection, id string) string {
	return collection + "\x00" + id
}
