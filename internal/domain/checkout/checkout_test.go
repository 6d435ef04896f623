package checkout

import (
	"errors"
	"reflect"
	"testing"

	"github.com/sangkips/tempo-pos/internal/domain/entity"
	"github.com/sangkips/tempo-pos/internal/domain/enum"
	"github.com/sangkips/tempo-pos/pkg/apperror"
)

func int64p(v int64) *int64 { return &v }

func TestComputeTotal(t *testing.T) {
	lines := []entity.CartLine{{ID: "a", UnitPrice: 10000, Quantity: 2}}

	tests := []struct {
		name     string
		discount int64
		want     int64
	}{
		{"discount applied", 5000, 15000},
		{"discount larger than subtotal", 50000, 0},
		{"negative discount ignored", -3000, 20000},
		{"no discount", 0, 20000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeTotal(lines, tt.discount); got != tt.want {
				t.Errorf("ComputeTotal() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAdjustQuantity(t *testing.T) {
	lines := []entity.CartLine{{ID: "a", UnitPrice: 2500, Quantity: 1}, {ID: "b", UnitPrice: 4000, Quantity: 1}}

	got, err := AdjustQuantity(lines, "b", 3)
	if err != nil {
		t.Fatalf("AdjustQuantity() error = %v", err)
	}
	if got[1].Quantity != 3 || got[1].UnitPrice != 4000 {
		t.Errorf("line b = %+v", got[1])
	}
	if lines[1].Quantity != 1 {
		t.Error("input slice was mutated")
	}

	if _, err := AdjustQuantity(lines, "a", 0); !errors.Is(err, apperror.ErrInvalidQuantity) {
		t.Errorf("qty 0 error = %v, want ErrInvalidQuantity", err)
	}
	if _, err := AdjustQuantity(lines, "zzz", 2); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("unknown line error = %v, want not found", err)
	}
}

func TestRemoveLineIdempotent(t *testing.T) {
	lines := []entity.CartLine{{ID: "a"}, {ID: "b"}}
	once := RemoveLine(lines, "a")
	twice := RemoveLine(once, "a")
	if len(once) != 1 || !reflect.DeepEqual(once, twice) {
		t.Errorf("once = %v, twice = %v", once, twice)
	}
}

func TestNewPlanRejectsBeforeMutation(t *testing.T) {
	lines := []entity.CartLine{{ID: "a", UnitPrice: 15000, Quantity: 1}}

	tests := []struct {
		name string
		in   Input
		want error
	}{
		{"empty cart", Input{Method: enum.PaymentMethodQRIS}, apperror.ErrEmptyCart},
		{"insufficient cash", Input{Lines: lines, Method: enum.PaymentMethodCash, CashTendered: int64p(10000)}, apperror.ErrInsufficientPayment},
		{"missing cash", Input{Lines: lines, Method: enum.PaymentMethodCash}, apperror.ErrInsufficientPayment},
		{"negative cash", Input{Lines: lines, Method: enum.PaymentMethodCash, CashTendered: int64p(-1)}, apperror.ErrValidation},
		{"unknown method", Input{Lines: lines}, apperror.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewPlan(tt.in, nil); !errors.Is(err, tt.want) {
				t.Errorf("NewPlan() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNewPlanCashChange(t *testing.T) {
	p, err := NewPlan(Input{
		Lines:        []entity.CartLine{{ID: "a", UnitPrice: 12000, Quantity: 1}},
		Discount:     2000,
		Method:       enum.PaymentMethodCash,
		CashTendered: int64p(20000),
	}, nil)
	if err != nil {
		t.Fatalf("NewPlan() error = %v", err)
	}
	if p.Subtotal != 12000 || p.Total != 10000 || p.Change != 10000 {
		t.Errorf("plan = %+v", p)
	}
}

func TestNewPlanStockShortage(t *testing.T) {
	lines := []entity.CartLine{
		{ID: "l1", SourceID: "tea", Name: "Tea", UnitPrice: 5000, Quantity: 2, StockLinked: true},
		{ID: "l2", SourceID: "cake", Name: "Cake", UnitPrice: 20000, Quantity: 3, StockLinked: true},
		{ID: "l3", SourceID: "clock-1", Name: "PS5", UnitPrice: 9000, Quantity: 1},
		{ID: "l4", SourceID: "tea", Name: "Tea", UnitPrice: 5000, Quantity: 1, StockLinked: true},
		{ID: "l5", SourceID: "gone", Name: "Removed", UnitPrice: 1000, Quantity: 1, StockLinked: true},
	}
	stock := map[string]int64{"tea": 5, "cake": 1}

	p, err := NewPlan(Input{Lines: lines, Method: enum.PaymentMethodQRIS}, stock)
	if err != nil {
		t.Fatalf("NewPlan() error = %v", err)
	}

	if p.Total != 10000+60000+9000+5000+1000 {
		t.Errorf("Total = %d, shorted lines must still be charged", p.Total)
	}
	wantUpdates := []StockUpdate{
		{LineID: "l1", MenuID: "tea", Name: "Tea", Quantity: 2},
		{LineID: "l4", MenuID: "tea", Name: "Tea", Quantity: 1},
	}
	if !reflect.DeepEqual(p.StockUpdates, wantUpdates) {
		t.Errorf("StockUpdates = %+v, want %+v", p.StockUpdates, wantUpdates)
	}
	if len(p.Shortages) != 2 || p.Shortages[0].SourceID != "cake" || p.Shortages[0].Available != 1 || p.Shortages[1].SourceID != "gone" {
		t.Errorf("Shortages = %+v", p.Shortages)
	}
	if len(p.LineIDs) != 5 || len(p.Items) != 5 {
		t.Errorf("every line is settled: ids=%v items=%d", p.LineIDs, len(p.Items))
	}
	if stock["tea"] != 5 {
		t.Error("input stock map mutated")
	}
}
