package events

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/sangkips/tempo-pos/internal/domain/event"
)

func TestLocalBusRoutesByOwner(t *testing.T) {
	bus := NewLocalBus()
	ctx := context.Background()

	var mine, all []event.Event
	cancelMine, _ := bus.Subscribe(ctx, "u1", func(ev event.Event) { mine = append(mine, ev) })
	cancelAll, _ := bus.Subscribe(ctx, "", func(ev event.Event) { all = append(all, ev) })
	defer cancelAll()

	_ = bus.Publish(ctx, event.Event{Type: event.ClockExpired, OwnerID: "u1", SubjectID: "c1"})
	_ = bus.Publish(ctx, event.Event{Type: event.ClockExpired, OwnerID: "u2", SubjectID: "c2"})

	cancelMine()
	cancelMine()
	_ = bus.Publish(ctx, event.Event{Type: event.SettlementCompleted, OwnerID: "u1"})

	if len(mine) != 1 || mine[0].SubjectID != "c1" {
		t.Errorf("owner subscriber got %+v", mine)
	}
	if len(all) != 3 {
		t.Errorf("wildcard subscriber got %d events, want 3", len(all))
	}
}

func newRedisBus(t *testing.T) *RedisBus {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisBus(client, "tempo:events:", zerolog.Nop())
}

func receive(t *testing.T, ch <-chan event.Event) event.Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return event.Event{}
	}
}

func TestRedisBusDeliversToOwnerChannel(t *testing.T) {
	bus := newRedisBus(t)
	ctx := context.Background()

	got := make(chan event.Event, 4)
	cancel, err := bus.Subscribe(ctx, "u1", func(ev event.Event) { got <- ev })
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer cancel()

	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	if err := bus.Publish(ctx, event.Event{Type: event.ClockExpired, OwnerID: "u2", SubjectID: "other"}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if err := bus.Publish(ctx, event.Event{
		Type:      event.ClockExpired,
		OwnerID:   "u1",
		SubjectID: "clock-1",
		Payload:   map[string]any{"name": "PS5 #1"},
		At:        at,
	}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	ev := receive(t, got)
	if ev.SubjectID != "clock-1" || ev.Type != event.ClockExpired || !ev.At.Equal(at) {
		t.Errorf("received %+v", ev)
	}
	if ev.Payload["name"] != "PS5 #1" {
		t.Errorf("payload = %v", ev.Payload)
	}
}

func TestRedisBusWildcardSubscription(t *testing.T) {
	bus := newRedisBus(t)
	ctx := context.Background()

	got := make(chan event.Event, 4)
	cancel, err := bus.Subscribe(ctx, "", func(ev event.Event) { got <- ev })
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer cancel()

	_ = bus.Publish(ctx, event.Event{Type: event.StockShortage, OwnerID: "u7", SubjectID: "menu-1"})

	if ev := receive(t, got); ev.OwnerID != "u7" || ev.Type != event.StockShortage {
		t.Errorf("received %+v", ev)
	}
}
