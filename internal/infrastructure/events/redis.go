package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/sangkips/tempo-pos/internal/domain/event"
	"github.com/sangkips/tempo-pos/internal/metrics"
)

// RedisBus publishes events on one pub/sub channel per owner so that a
// cashier terminal in another process can follow them.
type RedisBus struct {
	client *redis.Client
	prefix string
	log    zerolog.Logger
}

// NewRedisBus does not take ownership of client.
func NewRedisBus(client *redis.Client, prefix string, log zerolog.Logger) *RedisBus {
	return &RedisBus{
		client: client,
		prefix: prefix,
		log:    log.With().Str("component", "events").Logger(),
	}
}

func (b *RedisBus) channel(owner string) string {
	return b.prefix + owner
}

func (b *RedisBus) Publish(ctx context.Context, ev event.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel(ev.OwnerID), data).Err(); err != nil {
		return fmt.Errorf("failed to publish %s: %w", ev.Type, err)
	}
	metrics.EventsPublished.WithLabelValues(string(ev.Type)).Inc()
	return nil
}

// Subscribe returns once redis has confirmed the subscription.
func (b *RedisBus) Subscribe(ctx context.Context, owner string, h event.Handler) (func(), error) {
	var ps *redis.PubSub
	if owner == "" {
		ps = b.client.PSubscribe(ctx, b.prefix+"*")
	} else {
		ps = b.client.Subscribe(ctx, b.channel(owner))
	}

	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range ps.Channel() {
			var ev event.Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				b.log.Warn().Err(err).Str("channel", msg.Channel).Msg("Dropping malformed event")
				continue
			}
			h(ev)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			_ = ps.Close()
			<-done
		})
	}, nil
}

func (b *RedisBus) Close() error {
	return nil
}
