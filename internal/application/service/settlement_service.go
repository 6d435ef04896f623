package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sangkips/tempo-pos/internal/domain/billing"
	"github.com/sangkips/tempo-pos/internal/domain/checkout"
	"github.com/sangkips/tempo-pos/internal/domain/entity"
	"github.com/sangkips/tempo-pos/internal/domain/enum"
	"github.com/sangkips/tempo-pos/internal/domain/event"
	"github.com/sangkips/tempo-pos/internal/domain/repository"
	"github.com/sangkips/tempo-pos/internal/metrics"
	"github.com/sangkips/tempo-pos/pkg/apperror"
)

// settlementNamespace seeds transaction ids derived from idempotency keys.
var settlementNamespace = uuid.MustParse("6f1c2a9e-53b4-4c1e-9d3a-0b7e5f2c8a41")

// SettlementService turns a cart into a transaction.
type SettlementService struct {
	cartRepo   repository.CartRepository
	menuRepo   repository.MenuRepository
	txRepo     repository.TransactionRepository
	settleRepo repository.SettlementRepository
	events     event.Publisher
	clock      billing.Clock
	loc        *time.Location
	log        zerolog.Logger
}

// NewSettlementService creates a new settlement service. loc decides which
// calendar day and year a transaction is filed under.
func NewSettlementService(
	cartRepo repository.CartRepository,
	menuRepo repository.MenuRepository,
	txRepo repository.TransactionRepository,
	settleRepo repository.SettlementRepository,
	events event.Publisher,
	clock billing.Clock,
	loc *time.Location,
	log zerolog.Logger,
) *SettlementService {
	if loc == nil {
		loc = time.UTC
	}
	return &SettlementService{
		cartRepo:   cartRepo,
		menuRepo:   menuRepo,
		txRepo:     txRepo,
		settleRepo: settleRepo,
		events:     events,
		clock:      clock,
		loc:        loc,
		log:        log.With().Str("component", "settlement").Logger(),
	}
}

type SettleInput struct {
	OwnerID        string
	Discount       int64
	CustomerName   string
	Method         enum.PaymentMethod
	CashTendered   *int64
	IdempotencyKey string
}

type SettlementResult struct {
	Transaction *entity.Transaction    `json:"transaction"`
	Change      int64                  `json:"change"`
	Shortages   []entity.StockShortage `json:"shortages"`
	Replayed    bool                   `json:"replayed"`
}

// Settle records a transaction for the owner's whole cart, decrements stock
// for stock-linked lines and clears the cart in one all-or-nothing commit.
//
// Payment and cart validation happen before anything is written. Storage
// failures come back as SettlementFailed. With an idempotency key a retry
// returns the first result instead of charging twice. Once the commit has
// begun, cancelling ctx no longer aborts it.
func (s *SettlementService) Settle(ctx context.Context, in *SettleInput) (*SettlementResult, error) {
	txID := uuid.NewString()
	if in.IdempotencyKey != "" {
		txID = uuid.NewSHA1(settlementNamespace, []byte(in.OwnerID+"\x00"+in.IdempotencyKey)).String()
		existing, err := s.txRepo.GetByID(ctx, txID)
		if err != nil {
			return nil, s.failed(in, err)
		}
		if existing != nil {
			return s.replay(existing), nil
		}
	}

	lines, err := s.cartRepo.ListByOwner(ctx, in.OwnerID)
	if err != nil {
		return nil, s.failed(in, err)
	}
	stock, err := s.stockFor(ctx, in.OwnerID, lines)
	if err != nil {
		return nil, s.failed(in, err)
	}

	plan, err := checkout.NewPlan(checkout.Input{
		Lines:        lines,
		Discount:     in.Discount,
		CustomerName: in.CustomerName,
		Method:       in.Method,
		CashTendered: in.CashTendered,
	}, stock)
	if err != nil {
		metrics.SettlementsTotal.WithLabelValues(in.Method.String(), "rejected").Inc()
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, s.failed(in, err)
	}

	now := s.clock.Now()
	tx := &entity.Transaction{
		ID:             txID,
		OwnerID:        in.OwnerID,
		CustomerName:   strings.TrimSpace(in.CustomerName),
		PaymentMethod:  in.Method,
		Timestamp:      now,
		Day:            entity.DayKey(now, s.loc),
		Year:           now.In(s.loc).Year(),
		Subtotal:       plan.Subtotal,
		Discount:       plan.Discount,
		Total:          plan.Total,
		Change:         plan.Change,
		Items:          plan.Items,
		Shortages:      plan.Shortages,
		IdempotencyKey: in.IdempotencyKey,
	}
	if in.Method == enum.PaymentMethodCash {
		tendered := plan.Total + plan.Change
		tx.CashTendered = &tendered
	}

	late, err := s.settleRepo.Commit(context.WithoutCancel(ctx), tx, plan.StockUpdates, plan.LineIDs)
	if errors.Is(err, repository.ErrDuplicate) && in.IdempotencyKey != "" {
		// A concurrent retry with the same key won the race.
		if existing, gerr := s.txRepo.GetByID(context.WithoutCancel(ctx), txID); gerr == nil && existing != nil {
			return s.replay(existing), nil
		}
	}
	if err != nil {
		return nil, s.failed(in, err)
	}
	if len(late) > 0 {
		s.recordLateShortages(ctx, tx, late)
	}

	s.completed(ctx, tx)
	return &SettlementResult{
		Transaction: tx,
		Change:      tx.Change,
		Shortages:   tx.Shortages,
	}, nil
}

// stockFor loads current stock for every menu item referenced by the cart.
// Items that are gone or belong to someone else are left out, which makes
// their lines shortages.
func (s *SettlementService) stockFor(ctx context.Context, ownerID string, lines []entity.CartLine) (map[string]int64, error) {
	stock := make(map[string]int64)
	seen := make(map[string]bool)
	for _, l := range lines {
		if !l.StockLinked || seen[l.SourceID] {
			continue
		}
		seen[l.SourceID] = true
		item, err := s.menuRepo.GetByID(ctx, l.SourceID)
		if err != nil {
			return nil, err
		}
		if item != nil && item.OwnerID == ownerID {
			stock[item.ID] = item.Stock
		}
	}
	return stock, nil
}

// recordLateShortages adds decrements that live stock no longer covered at
// commit time to the committed transaction.
func (s *SettlementService) recordLateShortages(ctx context.Context, tx *entity.Transaction, late []entity.StockShortage) {
	tx.Shortages = append(tx.Shortages, late...)
	if err := s.settleRepo.RecordShortages(context.WithoutCancel(ctx), tx.ID, tx.Shortages); err != nil {
		s.log.Warn().Err(err).
			Str("transaction_id", tx.ID).
			Int("shortages", len(late)).
			Msg("Failed to record commit-time stock shortages")
	}
}

func (s *SettlementService) replay(tx *entity.Transaction) *SettlementResult {
	metrics.SettlementsTotal.WithLabelValues(tx.PaymentMethod.String(), "replayed").Inc()
	s.log.Info().
		Str("owner_id", tx.OwnerID).
		Str("transaction_id", tx.ID).
		Msg("Settlement replayed from idempotency key")
	return &SettlementResult{
		Transaction: tx,
		Change:      tx.Change,
		Shortages:   tx.Shortages,
		Replayed:    true,
	}
}

func (s *SettlementService) failed(in *SettleInput, cause error) error {
	metrics.SettlementsTotal.WithLabelValues(in.Method.String(), "failed").Inc()
	s.log.Error().Err(cause).Str("owner_id", in.OwnerID).Msg("Settlement failed")
	return apperror.NewSettlementFailed(cause)
}

func (s *SettlementService) completed(ctx context.Context, tx *entity.Transaction) {
	method := tx.PaymentMethod.String()
	metrics.SettlementsTotal.WithLabelValues(method, "success").Inc()
	metrics.SettlementAmount.WithLabelValues(method).Add(float64(tx.Total))
	metrics.StockShortages.Add(float64(len(tx.Shortages)))

	s.log.Info().
		Str("owner_id", tx.OwnerID).
		Str("transaction_id", tx.ID).
		Str("method", method).
		Int64("total", tx.Total).
		Int("lines", len(tx.Items)).
		Msg("Settlement completed")

	// Notifications must not fail a committed settlement.
	ctx = context.WithoutCancel(ctx)
	s.publish(ctx, event.Event{
		Type:      event.SettlementCompleted,
		OwnerID:   tx.OwnerID,
		SubjectID: tx.ID,
		Payload: map[string]any{
			"total":          tx.Total,
			"payment_method": method,
			"customer_name":  tx.CustomerName,
		},
		At: tx.Timestamp,
	})
	for _, sh := range tx.Shortages {
		s.log.Warn().
			Str("transaction_id", tx.ID).
			Str("menu_id", sh.SourceID).
			Int64("requested", sh.Requested).
			Int64("available", sh.Available).
			Msg("Stock shortage: line charged without stock decrement")
		s.publish(ctx, event.Event{
			Type:      event.StockShortage,
			OwnerID:   tx.OwnerID,
			SubjectID: sh.SourceID,
			Payload: map[string]any{
				"transaction_id": tx.ID,
				"name":           sh.Name,
				"requested":      sh.Requested,
				"available":      sh.Available,
			},
			At: tx.Timestamp,
		})
	}
}

func (s *SettlementService) publish(ctx context.Context, ev event.Event) {
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warn().Err(err).Str("type", string(ev.Type)).Msg("Failed to publish event")
	}
}
