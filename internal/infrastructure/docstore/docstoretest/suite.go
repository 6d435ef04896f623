// Package docstoretest holds behaviour tests every docstore backend must pass.
package docstoretest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sangkips/tempo-pos/internal/infrastructure/docstore"
)

type item struct {
	ID      string     `json:"id"`
	OwnerID string     `json:"owner_id"`
	Name    string     `json:"name"`
	Stock   int        `json:"stock"`
	Price   int64      `json:"price"`
	Active  bool       `json:"active"`
	Anchor  *time.Time `json:"anchor"`
}

// Run exercises the Store contract against a fresh store from newStore.
func Run(t *testing.T, newStore func(t *testing.T) docstore.Store) {
	t.Helper()

	t.Run("CreateGet", func(t *testing.T) { testCreateGet(t, newStore(t)) })
	t.Run("SetDuplicate", func(t *testing.T) { testSetDuplicate(t, newStore(t)) })
	t.Run("UpdateMerges", func(t *testing.T) { testUpdateMerges(t, newStore(t)) })
	t.Run("UpdateMissing", func(t *testing.T) { testUpdateMissing(t, newStore(t)) })
	t.Run("DeleteIdempotent", func(t *testing.T) { testDeleteIdempotent(t, newStore(t)) })
	t.Run("QueryEquality", func(t *testing.T) { testQueryEquality(t, newStore(t)) })
	t.Run("BatchCommits", func(t *testing.T) { testBatchCommits(t, newStore(t)) })
	t.Run("BatchAllOrNothing", func(t *testing.T) { testBatchAllOrNothing(t, newStore(t)) })
	t.Run("BatchDecrement", func(t *testing.T) { testBatchDecrement(t, newStore(t)) })
	t.Run("BatchDecrementMissing", func(t *testing.T) { testBatchDecrementMissing(t, newStore(t)) })
	t.Run("Subscribe", func(t *testing.T) { testSubscribe(t, newStore(t)) })
}

func testCreateGet(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	anchor := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

	id, err := s.Create(ctx, "menus", item{OwnerID: "u1", Name: "Tea", Stock: 4, Price: 8000, Anchor: &anchor})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if id == "" {
		t.Fatal("Create() returned empty id")
	}

	var got item
	if err := s.Get(ctx, "menus", id, &got); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ID != id || got.Name != "Tea" || got.Stock != 4 || got.Price != 8000 {
		t.Errorf("Get() = %+v", got)
	}
	if got.Anchor == nil || !got.Anchor.Equal(anchor) {
		t.Errorf("Anchor = %v, want %v", got.Anchor, anchor)
	}

	if err := s.Get(ctx, "menus", "missing", &got); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func testSetDuplicate(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	if err := s.Set(ctx, "transactions", "tx-1", item{Name: "first"}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	err := s.Set(ctx, "transactions", "tx-1", item{Name: "second"})
	if !errors.Is(err, docstore.ErrAlreadyExists) {
		t.Fatalf("Set(duplicate) error = %v, want ErrAlreadyExists", err)
	}

	var got item
	if err := s.Get(ctx, "transactions", "tx-1", &got); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name != "first" {
		t.Errorf("duplicate Set overwrote record: %+v", got)
	}
}

func testUpdateMerges(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	anchor := time.Now().UTC()
	id, err := s.Create(ctx, "clocks", item{Name: "Table 1", Stock: 1, Anchor: &anchor})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := s.Update(ctx, "clocks", id, docstore.Fields{"stock": 7, "anchor": nil}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	var got item
	if err := s.Get(ctx, "clocks", id, &got); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name != "Table 1" || got.Stock != 7 || got.Anchor != nil {
		t.Errorf("after Update = %+v", got)
	}
}

func testUpdateMissing(t *testing.T, s docstore.Store) {
	err := s.Update(context.Background(), "clocks", "nope", docstore.Fields{"stock": 1})
	if !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("Update(missing) error = %v, want ErrNotFound", err)
	}
}

func testDeleteIdempotent(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	id, err := s.Create(ctx, "cart", item{Name: "Coffee"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := s.Delete(ctx, "cart", id); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := s.Delete(ctx, "cart", id); err != nil {
		t.Fatalf("second Delete() error = %v", err)
	}
	var got item
	if err := s.Get(ctx, "cart", id, &got); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("Get(deleted) error = %v", err)
	}
}

func testQueryEquality(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	seed := []item{
		{OwnerID: "u1", Name: "A", Stock: 0, Active: true},
		{OwnerID: "u1", Name: "B", Stock: 3, Active: false},
		{OwnerID: "u2", Name: "C", Stock: 3, Active: true},
	}
	for _, it := range seed {
		if _, err := s.Create(ctx, "menus", it); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	tests := []struct {
		name   string
		filter docstore.Filter
		want   int
	}{
		{"no filter", nil, 3},
		{"by owner", docstore.Filter{"owner_id": "u1"}, 2},
		{"by int", docstore.Filter{"stock": 3}, 2},
		{"by bool", docstore.Filter{"active": true}, 2},
		{"combined", docstore.Filter{"owner_id": "u1", "active": true}, 1},
		{"no match", docstore.Filter{"owner_id": "u3"}, 0},
		{"missing field", docstore.Filter{"color": "red"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Query(ctx, "menus", tt.filter)
			if err != nil {
				t.Fatalf("Query() error = %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("Query() returned %d records, want %d", len(got), tt.want)
			}
		})
	}

	empty, err := s.Query(ctx, "nothing-here", nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("Query(unknown collection) = %v, %v", empty, err)
	}
}

func testBatchCommits(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	menuID, _ := s.Create(ctx, "menus", item{Name: "Tea", Stock: 5})
	lineID, _ := s.Create(ctx, "cart", item{Name: "Tea"})

	err := s.Batch().
		Set("transactions", "tx-42", item{Name: "sale", Price: 16000}).
		Update("menus", menuID, docstore.Fields{"stock": 3}).
		Delete("cart", lineID).
		Commit(ctx)
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	var tx, menu item
	if err := s.Get(ctx, "transactions", "tx-42", &tx); err != nil {
		t.Fatalf("transaction missing: %v", err)
	}
	if err := s.Get(ctx, "menus", menuID, &menu); err != nil || menu.Stock != 3 {
		t.Errorf("menu = %+v, %v", menu, err)
	}
	if err := s.Get(ctx, "cart", lineID, &item{}); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("cart line still present: %v", err)
	}
}

func testBatchAllOrNothing(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	menuID, _ := s.Create(ctx, "menus", item{Name: "Tea", Stock: 5})
	lineID, _ := s.Create(ctx, "cart", item{Name: "Tea"})

	err := s.Batch().
		Set("transactions", "tx-7", item{Name: "sale"}).
		Update("menus", menuID, docstore.Fields{"stock": 4}).
		Delete("cart", lineID).
		Update("menus", "deleted-item", docstore.Fields{"stock": 1}).
		Commit(ctx)
	if !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("Commit() error = %v, want ErrNotFound", err)
	}

	if err := s.Get(ctx, "transactions", "tx-7", &item{}); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("transaction written despite failed batch: %v", err)
	}
	var menu item
	if err := s.Get(ctx, "menus", menuID, &menu); err != nil || menu.Stock != 5 {
		t.Errorf("menu stock changed: %+v, %v", menu, err)
	}
	if err := s.Get(ctx, "cart", lineID, &item{}); err != nil {
		t.Errorf("cart line removed despite failed batch: %v", err)
	}
}

func testBatchDecrement(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	teaID, _ := s.Create(ctx, "menus", item{Name: "Tea", Stock: 5})
	cakeID, _ := s.Create(ctx, "menus", item{Name: "Cake", Stock: 1})

	// a write landing between a read and the batch must not be overwritten
	if err := s.Update(ctx, "menus", teaID, docstore.Fields{"stock": 10}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	b := s.Batch().
		Set("transactions", "tx-9", item{Name: "sale"}).
		Decrement("menus", teaID, "stock", 1).
		Decrement("menus", cakeID, "stock", 2)
	if err := b.Commit(ctx); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	var tea, cake item
	if err := s.Get(ctx, "menus", teaID, &tea); err != nil || tea.Stock != 9 {
		t.Errorf("tea = %+v, %v, want stock 9", tea, err)
	}
	if err := s.Get(ctx, "menus", cakeID, &cake); err != nil || cake.Stock != 1 {
		t.Errorf("cake = %+v, %v, want stock left at 1", cake, err)
	}
	if err := s.Get(ctx, "transactions", "tx-9", &item{}); err != nil {
		t.Errorf("transaction missing: %v", err)
	}

	want := docstore.Shortfall{Op: 2, Collection: "menus", ID: cakeID, Field: "stock", Requested: 2, Available: 1}
	if got := b.Shortfalls(); len(got) != 1 || got[0] != want {
		t.Errorf("Shortfalls() = %+v, want [%+v]", got, want)
	}
}

func testBatchDecrementMissing(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	teaID, _ := s.Create(ctx, "menus", item{Name: "Tea", Stock: 5})

	err := s.Batch().
		Set("transactions", "tx-10", item{Name: "sale"}).
		Decrement("menus", teaID, "stock", 1).
		Decrement("menus", "deleted-item", "stock", 1).
		Commit(ctx)
	if !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("Commit() error = %v, want ErrNotFound", err)
	}

	var tea item
	if err := s.Get(ctx, "menus", teaID, &tea); err != nil || tea.Stock != 5 {
		t.Errorf("tea stock changed: %+v, %v", tea, err)
	}
	if err := s.Get(ctx, "transactions", "tx-10", &item{}); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("transaction written despite failed batch: %v", err)
	}
}

func testSubscribe(t *testing.T, s docstore.Store) {
	ctx := context.Background()

	var mu sync.Mutex
	var got []docstore.Change
	cancel, err := s.Subscribe("clocks", docstore.Filter{"owner_id": "u1"}, func(c docstore.Change) {
		mu.Lock()
		got = append(got, c)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	id, _ := s.Create(ctx, "clocks", item{OwnerID: "u1", Name: "PS5"})
	_, _ = s.Create(ctx, "clocks", item{OwnerID: "u2", Name: "Billiard"})
	_, _ = s.Create(ctx, "menus", item{OwnerID: "u1", Name: "Tea"})
	_ = s.Update(ctx, "clocks", id, docstore.Fields{"active": true})
	_ = s.Delete(ctx, "clocks", id)

	cancel()
	_, _ = s.Create(ctx, "clocks", item{OwnerID: "u1", Name: "after cancel"})

	mu.Lock()
	defer mu.Unlock()
	want := []docstore.ChangeKind{docstore.ChangeCreated, docstore.ChangeUpdated, docstore.ChangeDeleted}
	if len(got) != len(want) {
		t.Fatalf("received %d changes, want %d: %+v", len(got), len(want), got)
	}
	for i, kind := range want {
		if got[i].Kind != kind || got[i].ID != id {
			t.Errorf("change %d = %v %s, want %v %s", i, got[i].Kind, got[i].ID, kind, id)
		}
	}
	if got[1].Fields["active"] != true {
		t.Errorf("update change fields = %v", got[1].Fields)
	}
}
