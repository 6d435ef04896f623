// Package event defines the notifications emitted by the billing and
// checkout services. Nothing in the domain waits on their delivery.
package event

import (
	"context"
	"time"
)

type Type string

const (
	ClockExpired        Type = "clock.expired"
	SettlementCompleted Type = "settlement.completed"
	StockShortage       Type = "stock.shortage"
)

type Event struct {
	Type      Type           `json:"type"`
	OwnerID   string         `json:"owner_id"`
	SubjectID string         `json:"subject_id"`
	Payload   map[string]any `json:"payload,omitempty"`
	At        time.Time      `json:"at"`
}

type Handler func(Event)

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Subscriber delivers events for one owner, or for every owner when owner is empty.
type Subscriber interface {
	Subscribe(ctx context.Context, owner string, h Handler) (cancel func(), err error)
}

type Bus interface {
	Publisher
	Subscriber
	Close() error
}
