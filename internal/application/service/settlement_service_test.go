package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/sangkips/tempo-pos/internal/domain/entity"
	"github.com/sangkips/tempo-pos/internal/domain/enum"
	"github.com/sangkips/tempo-pos/internal/domain/event"
	"github.com/sangkips/tempo-pos/internal/domain/repository"
	"github.com/sangkips/tempo-pos/pkg/apperror"
)

func TestSettleCash(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	coffee := f.addMenu(t, "u1", "Coffee", 10000, 5)
	line := f.addToCart(t, "u1", coffee.ID)
	_, _ = f.cart.AdjustQuantity(ctx, "u1", line.ID, 2)

	res, err := f.settlement.Settle(ctx, &SettleInput{
		OwnerID:      "u1",
		Discount:     5000,
		CustomerName: " Budi ",
		Method:       enum.PaymentMethodCash,
		CashTendered: int64Ptr(20000),
	})
	if err != nil {
		t.Fatalf("Settle() error = %v", err)
	}

	tx := res.Transaction
	if tx.Subtotal != 20000 || tx.Discount != 5000 || tx.Total != 15000 || res.Change != 5000 {
		t.Errorf("amounts = %d/%d/%d change %d", tx.Subtotal, tx.Discount, tx.Total, res.Change)
	}
	if tx.CustomerName != "Budi" || tx.CashTendered == nil || *tx.CashTendered != 20000 {
		t.Errorf("transaction = %+v", tx)
	}
	if res.Replayed || len(res.Shortages) != 0 {
		t.Errorf("result = %+v", res)
	}
	if got := f.stockOf(t, coffee.ID); got != 3 {
		t.Errorf("stock = %d, want 3", got)
	}
	if summary, _ := f.cart.List(ctx, "u1", 0); len(summary.Lines) != 0 {
		t.Errorf("cart not cleared: %d lines", len(summary.Lines))
	}
	if got := len(f.eventsOf(event.SettlementCompleted)); got != 1 {
		t.Errorf("settlement events = %d, want 1", got)
	}
}

func TestSettleInsufficientCashChangesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	coffee := f.addMenu(t, "u1", "Coffee", 15000, 5)
	f.addToCart(t, "u1", coffee.ID)

	_, err := f.settlement.Settle(ctx, &SettleInput{
		OwnerID:      "u1",
		Method:       enum.PaymentMethodCash,
		CashTendered: int64Ptr(10000),
	})
	if !errors.Is(err, apperror.ErrInsufficientPayment) {
		t.Fatalf("Settle() error = %v, want ErrInsufficientPayment", err)
	}

	list, _ := f.transactions.List(ctx, "u1", nil)
	if list.Count != 0 {
		t.Errorf("%d transactions written", list.Count)
	}
	if got := f.stockOf(t, coffee.ID); got != 5 {
		t.Errorf("stock = %d, want 5", got)
	}
	if summary, _ := f.cart.List(ctx, "u1", 0); len(summary.Lines) != 1 {
		t.Errorf("cart lines = %d, want 1", len(summary.Lines))
	}
}

func TestSettleRejectsBeforeWriting(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if _, err := f.settlement.Settle(ctx, &SettleInput{OwnerID: "u1", Method: enum.PaymentMethodQRIS}); !errors.Is(err, apperror.ErrEmptyCart) {
		t.Errorf("Settle(empty cart) error = %v, want ErrEmptyCart", err)
	}

	tea := f.addMenu(t, "u1", "Tea", 5000, 5)
	f.addToCart(t, "u1", tea.ID)
	if _, err := f.settlement.Settle(ctx, &SettleInput{OwnerID: "u1"}); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Settle(no method) error = %v, want validation", err)
	}
}

func TestSettleShortageIsChargedAndReported(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tea := f.addMenu(t, "u1", "Tea", 5000, 5)
	cake := f.addMenu(t, "u1", "Cake", 20000, 1)
	gone := f.addMenu(t, "u1", "Seasonal", 7000, 3)

	teaLine := f.addToCart(t, "u1", tea.ID)
	_, _ = f.cart.AdjustQuantity(ctx, "u1", teaLine.ID, 3)
	cakeLine := f.addToCart(t, "u1", cake.ID)
	_, _ = f.cart.AdjustQuantity(ctx, "u1", cakeLine.ID, 2)
	f.addToCart(t, "u1", gone.ID)
	if err := f.menus.Delete(ctx, "u1", gone.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	res, err := f.settlement.Settle(ctx, &SettleInput{OwnerID: "u1", Method: enum.PaymentMethodQRIS})
	if err != nil {
		t.Fatalf("Settle() error = %v", err)
	}

	if want := int64(3*5000 + 2*20000 + 7000); res.Transaction.Total != want {
		t.Errorf("Total = %d, want %d", res.Transaction.Total, want)
	}
	if res.Transaction.CashTendered != nil || res.Change != 0 {
		t.Errorf("QRIS transaction carries cash fields: %+v", res.Transaction)
	}
	if len(res.Shortages) != 2 {
		t.Fatalf("shortages = %+v, want 2", res.Shortages)
	}
	if sh := res.Shortages[0]; sh.SourceID != cake.ID || sh.Requested != 2 || sh.Available != 1 {
		t.Errorf("cake shortage = %+v", sh)
	}
	if sh := res.Shortages[1]; sh.SourceID != gone.ID || sh.Available != 0 {
		t.Errorf("missing item shortage = %+v", sh)
	}

	if got := f.stockOf(t, tea.ID); got != 2 {
		t.Errorf("tea stock = %d, want 2", got)
	}
	if got := f.stockOf(t, cake.ID); got != 1 {
		t.Errorf("cake stock = %d, want 1 (unchanged)", got)
	}
	if summary, _ := f.cart.List(ctx, "u1", 0); len(summary.Lines) != 0 {
		t.Errorf("cart not cleared: %d lines", len(summary.Lines))
	}
	if got := len(f.eventsOf(event.StockShortage)); got != 2 {
		t.Errorf("shortage events = %d, want 2", got)
	}
}

func TestSettleIdempotencyKeyReplays(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tea := f.addMenu(t, "u1", "Tea", 5000, 5)
	f.addToCart(t, "u1", tea.ID)

	in := &SettleInput{OwnerID: "u1", Method: enum.PaymentMethodQRIS, IdempotencyKey: "checkout-17"}
	first, err := f.settlement.Settle(ctx, in)
	if err != nil {
		t.Fatalf("first Settle() error = %v", err)
	}
	second, err := f.settlement.Settle(ctx, in)
	if err != nil {
		t.Fatalf("second Settle() error = %v", err)
	}
	if !second.Replayed || second.Transaction.ID != first.Transaction.ID {
		t.Errorf("second = %+v, want replay of %s", second, first.Transaction.ID)
	}

	// the same key from another owner is a different settlement
	f.addToCart(t, "u2", f.addMenu(t, "u2", "Tea", 5000, 5).ID)
	other, err := f.settlement.Settle(ctx, &SettleInput{OwnerID: "u2", Method: enum.PaymentMethodQRIS, IdempotencyKey: "checkout-17"})
	if err != nil || other.Replayed || other.Transaction.ID == first.Transaction.ID {
		t.Errorf("other owner = %+v, %v", other, err)
	}

	if list, _ := f.transactions.List(ctx, "u1", nil); list.Count != 1 {
		t.Errorf("u1 transactions = %d, want 1", list.Count)
	}
	if got := f.stockOf(t, tea.ID); got != 4 {
		t.Errorf("stock = %d, want 4", got)
	}
}

func TestSettleCancelledBeforeCommit(t *testing.T) {
	f := newFixture(t)
	tea := f.addMenu(t, "u1", "Tea", 5000, 5)
	f.addToCart(t, "u1", tea.ID)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.settlement.Settle(ctx, &SettleInput{OwnerID: "u1", Method: enum.PaymentMethodQRIS})
	if !errors.Is(err, apperror.ErrSettlementFailed) || !errors.Is(err, context.Canceled) {
		t.Fatalf("Settle() error = %v, want SettlementFailed wrapping context.Canceled", err)
	}
	if got := f.stockOf(t, tea.ID); got != 5 {
		t.Errorf("stock = %d, want 5", got)
	}
}

func TestSettleFilesTransactionUnderLocalDay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.clock.Set(time.Date(2024, 12, 31, 20, 0, 0, 0, time.UTC))

	tea := f.addMenu(t, "u1", "Tea", 5000, 5)
	f.addToCart(t, "u1", tea.ID)
	res, err := f.settlement.Settle(ctx, &SettleInput{OwnerID: "u1", Method: enum.PaymentMethodQRIS})
	if err != nil {
		t.Fatalf("Settle() error = %v", err)
	}
	if res.Transaction.Day != "2025-01-01" || res.Transaction.Year != 2025 {
		t.Errorf("Day/Year = %s/%d, want 2025-01-01/2025", res.Transaction.Day, res.Transaction.Year)
	}
}

// interleavedMenus runs afterRead once, right after the first read of menu
// item id, to simulate another cashier writing between read and commit.
type interleavedMenus struct {
	repository.MenuRepository
	id        string
	afterRead func()
}

func (m *interleavedMenus) GetByID(ctx context.Context, id string) (*entity.MenuItem, error) {
	item, err := m.MenuRepository.GetByID(ctx, id)
	if id == m.id && m.afterRead != nil {
		m.afterRead()
		m.afterRead = nil
	}
	return item, err
}

// settlementWithWriteAfterRead builds a settlement service whose stock read of
// menuID is followed by write.
func (f *fixture) settlementWithWriteAfterRead(menuID string, write func()) *SettlementService {
	menus := &interleavedMenus{MenuRepository: f.menuRepo, id: menuID, afterRead: write}
	return NewSettlementService(f.cartRepo, menus, f.txRepo, f.settleRepo, f.bus, f.clock, wib, zerolog.Nop())
}

func (f *fixture) setStock(t *testing.T, id string, stock int64) {
	t.Helper()
	item, err := f.menuRepo.GetByID(context.Background(), id)
	if err != nil || item == nil {
		t.Fatalf("menu item %s: %v, %v", id, item, err)
	}
	item.Stock = stock
	if err := f.menuRepo.Save(context.Background(), item); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
}

func TestSettleKeepsConcurrentRestock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tea := f.addMenu(t, "u1", "Tea", 5000, 5)
	f.addToCart(t, "u1", tea.ID)

	settlement := f.settlementWithWriteAfterRead(tea.ID, func() { f.setStock(t, tea.ID, 10) })
	res, err := settlement.Settle(ctx, &SettleInput{OwnerID: "u1", Method: enum.PaymentMethodQRIS})
	if err != nil {
		t.Fatalf("Settle() error = %v", err)
	}

	if got := f.stockOf(t, tea.ID); got != 9 {
		t.Errorf("stock = %d, want 9 (restock to 10 minus one sold)", got)
	}
	if len(res.Shortages) != 0 {
		t.Errorf("shortages = %+v, want none", res.Shortages)
	}
}

func TestSettleStockSoldOutAfterRead(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tea := f.addMenu(t, "u1", "Tea", 5000, 5)
	cake := f.addMenu(t, "u1", "Cake", 20000, 4)
	teaLine := f.addToCart(t, "u1", tea.ID)
	_, _ = f.cart.AdjustQuantity(ctx, "u1", teaLine.ID, 2)
	f.addToCart(t, "u1", cake.ID)

	settlement := f.settlementWithWriteAfterRead(tea.ID, func() { f.setStock(t, tea.ID, 1) })
	res, err := settlement.Settle(ctx, &SettleInput{OwnerID: "u1", Method: enum.PaymentMethodQRIS})
	if err != nil {
		t.Fatalf("Settle() error = %v", err)
	}

	if want := int64(2*5000 + 20000); res.Transaction.Total != want {
		t.Errorf("Total = %d, want %d", res.Transaction.Total, want)
	}
	if got := f.stockOf(t, tea.ID); got != 1 {
		t.Errorf("tea stock = %d, want 1 (unchanged)", got)
	}
	if got := f.stockOf(t, cake.ID); got != 3 {
		t.Errorf("cake stock = %d, want 3", got)
	}

	want := entity.StockShortage{LineID: teaLine.ID, SourceID: tea.ID, Name: "Tea", Requested: 2, Available: 1}
	if len(res.Shortages) != 1 || res.Shortages[0] != want {
		t.Fatalf("shortages = %+v, want [%+v]", res.Shortages, want)
	}
	stored, err := f.transactions.Get(ctx, "u1", res.Transaction.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(stored.Shortages) != 1 || stored.Shortages[0] != want {
		t.Errorf("stored shortages = %+v", stored.Shortages)
	}
	if got := len(f.eventsOf(event.StockShortage)); got != 1 {
		t.Errorf("shortage events = %d, want 1", got)
	}
	if summary, _ := f.cart.List(ctx, "u1", 0); len(summary.Lines) != 0 {
		t.Errorf("cart not cleared: %d lines", len(summary.Lines))
	}
}

func TestSettleStorageFailureLeavesEverything(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tea := f.addMenu(t, "u1", "Tea", 5000, 5)
	cake := f.addMenu(t, "u1", "Cake", 20000, 3)
	f.addToCart(t, "u1", tea.ID)
	f.addToCart(t, "u1", cake.ID)

	// the cake record disappears after its stock was read but before commit
	settlement := f.settlementWithWriteAfterRead(cake.ID, func() {
		if err := f.menuRepo.Delete(ctx, cake.ID); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
	})
	_, err := settlement.Settle(ctx, &SettleInput{OwnerID: "u1", Method: enum.PaymentMethodQRIS})
	if !errors.Is(err, apperror.ErrSettlementFailed) {
		t.Fatalf("Settle() error = %v, want ErrSettlementFailed", err)
	}

	if summary, _ := f.cart.List(ctx, "u1", 0); len(summary.Lines) != 2 {
		t.Errorf("cart lines = %d, want 2", len(summary.Lines))
	}
	if list, _ := f.transactions.List(ctx, "u1", nil); list.Count != 0 {
		t.Errorf("%d transactions written", list.Count)
	}
	if got := f.stockOf(t, tea.ID); got != 5 {
		t.Errorf("tea stock = %d, want 5", got)
	}
	if got := len(f.eventsOf(event.SettlementCompleted)); got != 0 {
		t.Errorf("settlement events = %d, want 0", got)
	}
}
