package events

import (
	"context"
	"sync"

	"github.com/sangkips/tempo-pos/internal/domain/event"
	"github.com/sangkips/tempo-pos/internal/metrics"
)

// LocalBus fans events out to in-process subscribers synchronously.
type LocalBus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]localSub
}

type localSub struct {
	owner   string
	handler event.Handler
}

func NewLocalBus() *LocalBus {
	return &LocalBus{subs: make(map[int]localSub)}
}

func (b *LocalBus) Publish(ctx context.Context, ev event.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.RLock()
	targets := make([]event.Handler, 0, len(b.subs))
	for _, s := range b.subs {
		if s.owner == "" || s.owner == ev.OwnerID {
			targets = append(targets, s.handler)
		}
	}
	b.mu.RUnlock()

	metrics.EventsPublished.WithLabelValues(string(ev.Type)).Inc()
	for _, h := range targets {
		h(ev)
	}
	return nil
}

func (b *LocalBus) Subscribe(_ context.Context, owner string, h event.Handler) (func(), error) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = localSub{owner: owner, handler: h}
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}, nil
}

func (b *LocalBus) Close() error {
	b.mu.Lock()
	b.subs = make(map[int]localSub)
	b.mu.Unlock()
	return nil
}
