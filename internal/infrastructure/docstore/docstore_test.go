package docstore

import (
	"context"
	"errors"
	"testing"
)

func TestEncodeNormalizesNumbers(t *testing.T) {
	fields, err := Encode(struct {
		ID    string  `json:"id"`
		Price int64   `json:"price"`
		Ratio float64 `json:"ratio"`
		Whole float64 `json:"whole"`
	}{ID: "x", Price: 15000, Ratio: 0.25, Whole: 3})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	if _, ok := fields["id"]; ok {
		t.Error("id should not be stored in fields")
	}
	if v, ok := fields["price"].(int64); !ok || v != 15000 {
		t.Errorf("price = %#v", fields["price"])
	}
	if v, ok := fields["ratio"].(float64); !ok || v != 0.25 {
		t.Errorf("ratio = %#v", fields["ratio"])
	}
	if v, ok := fields["whole"].(int64); !ok || v != 3 {
		t.Errorf("whole = %#v", fields["whole"])
	}
}

func TestMatch(t *testing.T) {
	record := Fields{"owner_id": "u1", "stock": int64(3), "running": true}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty", Filter{}, true},
		{"string", Filter{"owner_id": "u1"}, true},
		{"int literal", Filter{"stock": 3}, true},
		{"bool mismatch", Filter{"running": false}, false},
		{"absent key", Filter{"mode": "CountUp"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want, err := NormalizeFilter(tt.filter)
			if err != nil {
				t.Fatalf("NormalizeFilter() error = %v", err)
			}
			if got := Match(record, want); got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMergeDoesNotMutateBase(t *testing.T) {
	base := Fields{"name": "Tea", "stock": int64(4)}
	merged := Merge(base, Fields{"stock": int64(2)})

	if base["stock"] != int64(4) {
		t.Error("Merge mutated base")
	}
	if merged["stock"] != int64(2) || merged["name"] != "Tea" {
		t.Errorf("Merge() = %v", merged)
	}
}

func TestBatchSurfacesEncodeErrors(t *testing.T) {
	called := false
	b := NewBatch(func(ctx context.Context, ops []Op) ([]Shortfall, error) {
		called = true
		return nil, nil
	})

	err := b.Set("menus", "", map[string]any{"name": "x"}).Commit(context.Background())
	if !errors.Is(err, ErrInvalidID) {
		t.Errorf("Commit() error = %v, want ErrInvalidID", err)
	}
	if called {
		t.Error("commit func should not run after a build error")
	}
	if err := b.Commit(context.Background()); err == nil {
		t.Error("second Commit() should fail")
	}
}

func TestFeedFiltersDeletesByLastState(t *testing.T) {
	var f Feed
	var kinds []ChangeKind
	cancel, err := f.Subscribe("cart", Filter{"owner_id": "u1"}, func(c Change) {
		kinds = append(kinds, c.Kind)
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer cancel()

	ops := []Op{
		{Kind: OpDelete, Collection: "cart", ID: "a"},
		{Kind: OpDelete, Collection: "cart", ID: "b"},
		{Kind: OpDelete, Collection: "cart", ID: "never-existed"},
	}
	prior := map[string]Fields{
		Key("cart", "a"): {"owner_id": "u1"},
		Key("cart", "b"): {"owner_id": "u2"},
	}
	f.Publish(ChangesFor(ops, nil, prior, nil)...)

	if len(kinds) != 1 || kinds[0] != ChangeDeleted {
		t.Errorf("delivered %v, want one delete", kinds)
	}
}

func TestDecrement(t *testing.T) {
	op := Op{Kind: OpDecrement, Collection: "menus", ID: "tea", Field: "stock", Amount: 3}

	tests := []struct {
		name      string
		current   Fields
		wantStock int64
		wantShort *Shortfall
		wantErr   bool
	}{
		{name: "enough", current: Fields{"stock": int64(5)}, wantStock: 2},
		{name: "exact", current: Fields{"stock": int64(3)}, wantStock: 0},
		{
			name:      "short",
			current:   Fields{"stock": int64(2)},
			wantShort: &Shortfall{Op: 4, Collection: "menus", ID: "tea", Field: "stock", Requested: 3, Available: 2},
		},
		{
			name:      "missing field",
			current:   Fields{"name": "Tea"},
			wantShort: &Shortfall{Op: 4, Collection: "menus", ID: "tea", Field: "stock", Requested: 3},
		},
		{name: "not an integer", current: Fields{"stock": "many"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, short, err := Decrement(tt.current, 4, op)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Decrement() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if tt.wantShort != nil {
				if short == nil || *short != *tt.wantShort {
					t.Errorf("Decrement() shortfall = %+v, want %+v", short, tt.wantShort)
				}
				if next != nil {
					t.Errorf("Decrement() fields = %v, want nil on a shortfall", next)
				}
				return
			}
			if short != nil {
				t.Fatalf("Decrement() unexpected shortfall %+v", short)
			}
			if next["stock"] != tt.wantStock {
				t.Errorf("stock = %v, want %d", next["stock"], tt.wantStock)
			}
			if tt.current["stock"] == next["stock"] {
				t.Error("Decrement mutated the current fields")
			}
		})
	}
}

func TestBatchRejectsInvalidDecrement(t *testing.T) {
	b := NewBatch(func(ctx context.Context, ops []Op) ([]Shortfall, error) {
		t.Fatal("commit func should not run")
		return nil, nil
	})
	if err := b.Decrement("menus", "tea", "stock", 0).Commit(context.Background()); err == nil {
		t.Error("Commit() should fail for a zero decrement")
	}
}

func TestBatchKeepsShortfalls(t *testing.T) {
	want := []Shortfall{{Op: 1, Collection: "menus", ID: "tea", Field: "stock", Requested: 2, Available: 1}}
	b := NewBatch(func(ctx context.Context, ops []Op) ([]Shortfall, error) {
		if len(ops) != 2 || ops[1].Kind != OpDecrement || ops[1].Amount != 2 {
			t.Errorf("ops = %+v", ops)
		}
		return want, nil
	})

	err := b.Set("transactions", "tx-1", map[string]any{"total": 10}).
		Decrement("menus", "tea", "stock", 2).
		Commit(context.Background())
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if got := b.Shortfalls(); len(got) != 1 || got[0] != want[0] {
		t.Errorf("Shortfalls() = %+v, want %+v", got, want)
	}
}

func TestFeedSkipsShortDecrements(t *testing.T) {
	var f Feed
	var got []Change
	cancel, err := f.Subscribe("menus", nil, func(c Change) { got = append(got, c) })
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer cancel()

	ops := []Op{
		{Kind: OpDecrement, Collection: "menus", ID: "tea", Field: "stock", Amount: 1},
		{Kind: OpDecrement, Collection: "menus", ID: "cake", Field: "stock", Amount: 5},
	}
	after := map[string]Fields{Key("menus", "tea"): {"stock": int64(4)}}
	skipped := []Shortfall{{Op: 1, Collection: "menus", ID: "cake", Field: "stock", Requested: 5}}
	f.Publish(ChangesFor(ops, after, nil, skipped)...)

	if len(got) != 1 || got[0].ID != "tea" || got[0].Kind != ChangeUpdated || got[0].Fields["stock"] != int64(4) {
		t.Errorf("delivered %+v, want one update for tea", got)
	}
}
