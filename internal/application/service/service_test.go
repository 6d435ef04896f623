package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/sangkips/tempo-pos/internal/domain/billing"
	"github.com/sangkips/tempo-pos/internal/domain/entity"
	"github.com/sangkips/tempo-pos/internal/domain/enum"
	"github.com/sangkips/tempo-pos/internal/domain/event"
	"github.com/sangkips/tempo-pos/internal/domain/repository"
	"github.com/sangkips/tempo-pos/internal/infrastructure/docstore/memory"
	"github.com/sangkips/tempo-pos/internal/infrastructure/events"
	infraRepo "github.com/sangkips/tempo-pos/internal/infrastructure/repository"
	"github.com/sangkips/tempo-pos/pkg/printer"
)

var (
	t0  = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	wib = time.FixedZone("WIB", 7*60*60)
)

// fixture wires every service against an in-memory store and a manual clock.
type fixture struct {
	clock   *billing.ManualClock
	bus     *events.LocalBus
	printer *printer.BufferPrinter

	menuRepo   repository.MenuRepository
	cartRepo   repository.CartRepository
	txRepo     repository.TransactionRepository
	clockRepo  repository.ClockRepository
	settleRepo repository.SettlementRepository

	clocks       *ClockService
	menus        *MenuService
	cart         *CartService
	settlement   *SettlementService
	transactions *TransactionService
	dashboard    *DashboardService
	users        *UserService
	printing     *PrinterService

	mu     sync.Mutex
	events []event.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.New()
	t.Cleanup(func() { _ = store.Close() })

	f := &fixture{
		clock:     billing.NewManualClock(t0),
		bus:       events.NewLocalBus(),
		printer:   printer.NewBufferPrinter(),
		menuRepo:  infraRepo.NewMenuRepository(store),
		cartRepo:  infraRepo.NewCartRepository(store),
		txRepo:    infraRepo.NewTransactionRepository(store),
		clockRepo: infraRepo.NewClockRepository(store),
	}
	f.settleRepo = infraRepo.NewSettlementRepository(store)
	log := zerolog.Nop()
	userRepo := infraRepo.NewUserRepository(store)

	f.clocks = NewClockService(f.clockRepo, f.cartRepo, f.bus, f.clock, log)
	f.menus = NewMenuService(f.menuRepo, f.cartRepo, f.clock, log)
	f.cart = NewCartService(f.cartRepo)
	f.settlement = NewSettlementService(f.cartRepo, f.menuRepo, f.txRepo,
		f.settleRepo, f.bus, f.clock, wib, log)
	f.transactions = NewTransactionService(f.txRepo)
	f.dashboard = NewDashboardService(f.txRepo, userRepo, wib)
	f.users = NewUserService(userRepo, f.clock)
	f.printing = NewPrinterService(f.printer, f.transactions, "none", ReceiptOptions{
		StoreName: "Tempo Billiard",
		Currency:  "IDR",
		Width:     32,
		Location:  wib,
	}, log)

	cancel, err := f.bus.Subscribe(context.Background(), "", func(ev event.Event) {
		f.mu.Lock()
		f.events = append(f.events, ev)
		f.mu.Unlock()
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	t.Cleanup(cancel)
	return f
}

// eventsOf returns the published events of one type.
func (f *fixture) eventsOf(typ event.Type) []event.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []event.Event
	for _, ev := range f.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

func (f *fixture) addMenu(t *testing.T, owner, name string, price, stock int64) *entity.MenuItem {
	t.Helper()
	item, err := f.menus.Create(context.Background(), owner, &MenuInput{Name: &name, Price: &price, Stock: &stock})
	if err != nil {
		t.Fatalf("Create menu %q: %v", name, err)
	}
	return item
}

func (f *fixture) addToCart(t *testing.T, owner, menuID string) *entity.CartLine {
	t.Helper()
	// distinct timestamps keep cart order deterministic
	f.clock.Advance(time.Second)
	line, err := f.menus.AddToCart(context.Background(), owner, menuID)
	if err != nil {
		t.Fatalf("AddToCart(%s): %v", menuID, err)
	}
	return line
}

func (f *fixture) stockOf(t *testing.T, id string) int64 {
	t.Helper()
	item, err := f.menuRepo.GetByID(context.Background(), id)
	if err != nil || item == nil {
		t.Fatalf("menu item %s: %v, %v", id, item, err)
	}
	return item.Stock
}

func int64Ptr(v int64) *int64 { return &v }

func methodPtr(m enum.PaymentMethod) *enum.PaymentMethod { return &m }
