package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sangkips/tempo-pos/internal/domain/billing"
	"github.com/sangkips/tempo-pos/internal/domain/entity"
	"github.com/sangkips/tempo-pos/internal/domain/enum"
	"github.com/sangkips/tempo-pos/internal/domain/event"
	"github.com/sangkips/tempo-pos/internal/domain/repository"
	"github.com/sangkips/tempo-pos/internal/metrics"
	"github.com/sangkips/tempo-pos/pkg/apperror"
)

// ClockService drives stopwatches and timers and turns them into cart lines.
//
// Unit mutations are serialized by mu so that the expiry watcher and request
// handlers in one process never both observe the same expiry.
type ClockService struct {
	mu        sync.Mutex
	clockRepo repository.ClockRepository
	cartRepo  repository.CartRepository
	events    event.Publisher
	clock     billing.Clock
	log       zerolog.Logger
}

// NewClockService creates a new clock service
func NewClockService(
	clockRepo repository.ClockRepository,
	cartRepo repository.CartRepository,
	events event.Publisher,
	clock billing.Clock,
	log zerolog.Logger,
) *ClockService {
	return &ClockService{
		clockRepo: clockRepo,
		cartRepo:  cartRepo,
		events:    events,
		clock:     clock,
		log:       log.With().Str("component", "clocks").Logger(),
	}
}

// ClockView is a unit together with its live values at read time.
type ClockView struct {
	entity.BillableUnit
	EffectiveMs   int64  `json:"effective_ms"`
	Display       string `json:"display"`
	PriceSnapshot int64  `json:"price_snapshot"`
}

func newClockView(u *entity.BillableUnit, now time.Time) *ClockView {
	value := u.EffectiveValue(now)
	return &ClockView{
		BillableUnit:  *u,
		EffectiveMs:   value.Milliseconds(),
		Display:       billing.FormatDuration(value),
		PriceSnapshot: u.PriceSnapshot(now),
	}
}

type CreateClockInput struct {
	OwnerID     string
	Name        string
	RatePerHour int64
	Mode        enum.ClockMode
	Duration    time.Duration
}

func (s *ClockService) Create(ctx context.Context, input *CreateClockInput) (*ClockView, error) {
	now := s.clock.Now()
	unit, err := entity.NewBillableUnit(input.OwnerID, input.Name, input.RatePerHour, input.Mode, input.Duration, now)
	if err != nil {
		return nil, err
	}
	if err := s.clockRepo.Create(ctx, unit); err != nil {
		return nil, err
	}
	return newClockView(unit, now), nil
}

func (s *ClockService) Get(ctx context.Context, ownerID, id string) (*ClockView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	unit, err := s.load(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := s.observe(ctx, unit, now); err != nil {
		return nil, err
	}
	return newClockView(unit, now), nil
}

func (s *ClockService) List(ctx context.Context, ownerID string) ([]ClockView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	units, err := s.clockRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	views := make([]ClockView, 0, len(units))
	for i := range units {
		if err := s.observe(ctx, &units[i], now); err != nil {
			return nil, err
		}
		views = append(views, *newClockView(&units[i], now))
	}
	return views, nil
}

// Update edits name and rate at any time, duration and value only while stopped.
func (s *ClockService) Update(ctx context.Context, ownerID, id string, changes entity.UnitChanges) (*ClockView, error) {
	return s.mutate(ctx, ownerID, id, "edit", func(u *entity.BillableUnit, now time.Time) error {
		return u.Apply(changes, now)
	})
}

func (s *ClockService) Delete(ctx context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.load(ctx, ownerID, id); err != nil {
		return err
	}
	return s.clockRepo.Delete(ctx, id)
}

func (s *ClockService) Start(ctx context.Context, ownerID, id string) (*ClockView, error) {
	return s.mutate(ctx, ownerID, id, "start", func(u *entity.BillableUnit, now time.Time) error {
		return u.Start(now)
	})
}

func (s *ClockService) Stop(ctx context.Context, ownerID, id string) (*ClockView, error) {
	return s.mutate(ctx, ownerID, id, "stop", func(u *entity.BillableUnit, now time.Time) error {
		return u.Stop(now)
	})
}

func (s *ClockService) Reset(ctx context.Context, ownerID, id string) (*ClockView, error) {
	return s.mutate(ctx, ownerID, id, "reset", func(u *entity.BillableUnit, now time.Time) error {
		u.Reset()
		u.UpdatedAt = now
		return nil
	})
}

// AddToCart captures the unit's current price as a new cart line. The unit
// itself is left untouched, so later clock changes do not affect the line.
func (s *ClockService) AddToCart(ctx context.Context, ownerID, id string) (*entity.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	unit, err := s.load(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := s.observe(ctx, unit, now); err != nil {
		return nil, err
	}

	line := &entity.CartLine{
		OwnerID:   ownerID,
		SourceID:  unit.ID,
		Name:      unit.Name,
		UnitPrice: unit.PriceSnapshot(now),
		Quantity:  1,
		CreatedAt: now,
	}
	if err := s.cartRepo.Add(ctx, line); err != nil {
		return nil, err
	}

	metrics.CartLinesAdded.WithLabelValues(line.Source()).Inc()
	s.log.Debug().
		Str("owner_id", ownerID).
		Str("clock_id", unit.ID).
		Int64("price", line.UnitPrice).
		Msg("Clock added to cart")
	return line, nil
}

// Sweep is one expiry tick: every running timer is observed and those that
// reached zero are stopped, saved and announced. It returns how many expired.
func (s *ClockService) Sweep(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	units, err := s.clockRepo.ListRunningCountdowns(ctx)
	if err != nil {
		return 0, err
	}
	metrics.RunningClocks.Set(float64(len(units)))

	expired := 0
	for i := range units {
		if _, fired := units[i].Observe(now); !fired {
			continue
		}
		if err := s.clockRepo.Save(ctx, &units[i]); err != nil {
			return expired, err
		}
		expired++
		s.notifyExpired(ctx, &units[i], now)
	}
	return expired, nil
}

// RunExpiryWatcher sweeps on every tick until ctx is cancelled.
func (s *ClockService) RunExpiryWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Info().Dur("interval", interval).Msg("Expiry watcher started")
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("Expiry watcher stopped")
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
				s.log.Error().Err(err).Msg("Expiry sweep failed")
			}
		}
	}
}

// mutate loads a unit, settles any pending expiry, applies op and saves.
func (s *ClockService) mutate(ctx context.Context, ownerID, id, action string, op func(*entity.BillableUnit, time.Time) error) (*ClockView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	unit, err := s.load(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := s.observe(ctx, unit, now); err != nil {
		return nil, err
	}
	if err := op(unit, now); err != nil {
		return nil, err
	}
	if err := s.clockRepo.Save(ctx, unit); err != nil {
		return nil, err
	}

	metrics.ClockTransitions.WithLabelValues(action, unit.Mode.String()).Inc()
	s.log.Debug().Str("clock_id", id).Str("action", action).Msg("Clock updated")
	return newClockView(unit, now), nil
}

func (s *ClockService) load(ctx context.Context, ownerID, id string) (*entity.BillableUnit, error) {
	unit, err := s.clockRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if unit == nil || unit.OwnerID != ownerID {
		return nil, apperror.NewNotFoundError("Clock")
	}
	return unit, nil
}

// observe persists an expiry noticed outside the watcher.
func (s *ClockService) observe(ctx context.Context, unit *entity.BillableUnit, now time.Time) error {
	if _, fired := unit.Observe(now); !fired {
		return nil
	}
	if err := s.clockRepo.Save(ctx, unit); err != nil {
		return err
	}
	s.notifyExpired(ctx, unit, now)
	return nil
}

func (s *ClockService) notifyExpired(ctx context.Context, unit *entity.BillableUnit, now time.Time) {
	metrics.ClockExpirations.Inc()
	s.log.Info().
		Str("owner_id", unit.OwnerID).
		Str("clock_id", unit.ID).
		Str("name", unit.Name).
		Msg("Timer expired")

	err := s.events.Publish(ctx, event.Event{
		Type:      event.ClockExpired,
		OwnerID:   unit.OwnerID,
		SubjectID: unit.ID,
		Payload: map[string]any{
			"name":  unit.Name,
			"price": unit.PriceSnapshot(now),
		},
		At: now,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("clock_id", unit.ID).Msg("Failed to publish expiry")
	}
}
