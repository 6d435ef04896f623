package entity

import (
	"strings"
	"time"

	"github.com/sangkips/tempo-pos/internal/domain/billing"
	"github.com/sangkips/tempo-pos/internal/domain/enum"
	"github.com/sangkips/tempo-pos/pkg/apperror"
)

// BillableUnit is a stopwatch (CountUp) or timer (CountDown) charged by the hour.
//
// ValueMs holds elapsed time for CountUp and remaining time for CountDown as
// of the last stop. While running, the live value is derived from Anchor and
// the current instant, never accumulated tick by tick.
type BillableUnit struct {
	ID                   string         `json:"id"`
	OwnerID              string         `json:"owner_id"`
	Name                 string         `json:"name"`
	RatePerHour          int64          `json:"rate_per_hour"`
	Mode                 enum.ClockMode `json:"mode"`
	ConfiguredDurationMs int64          `json:"configured_duration_ms"`
	ValueMs              int64          `json:"value_ms"`
	Running              bool           `json:"running"`
	Anchor               *time.Time     `json:"anchor"`
	ExpiredAt            *time.Time     `json:"expired_at"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
}

// NewBillableUnit validates the inputs and returns a stopped unit. A
// CountDown unit starts with its full duration remaining.
func NewBillableUnit(ownerID, name string, rate int64, mode enum.ClockMode, duration time.Duration, now time.Time) (*BillableUnit, error) {
	var errs []apperror.FieldError
	name = strings.TrimSpace(name)
	if name == "" {
		errs = append(errs, apperror.FieldError{Field: "name", Message: "Name is required"})
	}
	if rate < 0 {
		errs = append(errs, apperror.FieldError{Field: "rate_per_hour", Message: "Rate must not be negative"})
	}
	if !mode.Valid() {
		errs = append(errs, apperror.FieldError{Field: "mode", Message: "Mode must be countup or countdown"})
	}
	if duration < 0 {
		errs = append(errs, apperror.FieldError{Field: "duration_ms", Message: "Duration must not be negative"})
	}
	if len(errs) > 0 {
		return nil, apperror.NewValidationError(errs)
	}

	u := &BillableUnit{
		OwnerID:     ownerID,
		Name:        name,
		RatePerHour: rate,
		Mode:        mode,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if mode == enum.ClockModeCountDown {
		u.ConfiguredDurationMs = duration.Milliseconds()
	}
	u.Reset()
	return u, nil
}

func (u *BillableUnit) ConfiguredDuration() time.Duration {
	return time.Duration(u.ConfiguredDurationMs) * time.Millisecond
}

// delta is the live time since Anchor. Clock skew counts as zero.
func (u *BillableUnit) delta(now time.Time) time.Duration {
	if !u.Running || u.Anchor == nil {
		return 0
	}
	d := now.Sub(*u.Anchor)
	if d < 0 {
		return 0
	}
	return d
}

// EffectiveValue is the elapsed (CountUp) or remaining (CountDown) time at now.
func (u *BillableUnit) EffectiveValue(now time.Time) time.Duration {
	stored := time.Duration(u.ValueMs) * time.Millisecond
	if u.Mode == enum.ClockModeCountDown {
		remaining := stored - u.delta(now)
		if remaining < 0 {
			return 0
		}
		return remaining
	}
	return stored + u.delta(now)
}

// Consumed is the billable time: elapsed for CountUp, duration minus
// remaining for CountDown.
func (u *BillableUnit) Consumed(now time.Time) time.Duration {
	if u.Mode == enum.ClockModeCountDown {
		used := u.ConfiguredDuration() - u.EffectiveValue(now)
		if used < 0 {
			return 0
		}
		return used
	}
	return u.EffectiveValue(now)
}

// PriceSnapshot is the charge for the time consumed so far.
func (u *BillableUnit) PriceSnapshot(now time.Time) int64 {
	return billing.Price(u.RatePerHour, u.Consumed(now))
}

func (u *BillableUnit) Start(now time.Time) error {
	if u.Running {
		return apperror.ErrAlreadyRunning
	}
	if u.Mode == enum.ClockModeCountDown && u.ValueMs <= 0 {
		return apperror.ErrAlreadyExpired
	}
	anchor := now
	u.Anchor = &anchor
	u.Running = true
	u.ExpiredAt = nil
	u.UpdatedAt = now
	return nil
}

func (u *BillableUnit) Stop(now time.Time) error {
	if !u.Running {
		return apperror.ErrNotRunning
	}
	u.ValueMs = u.EffectiveValue(now).Milliseconds()
	u.Running = false
	u.Anchor = nil
	u.UpdatedAt = now
	return nil
}

// Reset stops the unit and restores zero or the full duration.
func (u *BillableUnit) Reset() {
	if u.Mode == enum.ClockModeCountDown {
		u.ValueMs = u.ConfiguredDurationMs
	} else {
		u.ValueMs = 0
	}
	u.Running = false
	u.Anchor = nil
	u.ExpiredAt = nil
}

// Observe is the tick handler. It stops a running CountDown whose remaining
// time has reached zero and reports expired only on that transition.
func (u *BillableUnit) Observe(now time.Time) (time.Duration, bool) {
	value := u.EffectiveValue(now)
	if u.Mode != enum.ClockModeCountDown || !u.Running || value > 0 {
		return value, false
	}

	u.ValueMs = 0
	u.Running = false
	u.Anchor = nil
	at := now
	u.ExpiredAt = &at
	u.UpdatedAt = now
	return 0, true
}

// UnitChanges carries an edit. Nil fields are left alone.
type UnitChanges struct {
	Name        *string
	RatePerHour *int64
	Duration    *time.Duration
	Value       *time.Duration
}

// Apply edits the unit. Name and rate may change at any time; duration and
// value only while stopped. Duration is rejected on a countup unit.
func (u *BillableUnit) Apply(c UnitChanges, now time.Time) error {
	var errs []apperror.FieldError
	if c.Name != nil && strings.TrimSpace(*c.Name) == "" {
		errs = append(errs, apperror.FieldError{Field: "name", Message: "Name is required"})
	}
	if c.RatePerHour != nil && *c.RatePerHour < 0 {
		errs = append(errs, apperror.FieldError{Field: "rate_per_hour", Message: "Rate must not be negative"})
	}
	if c.Duration != nil {
		switch {
		case u.Mode != enum.ClockModeCountDown:
			errs = append(errs, apperror.FieldError{Field: "duration_ms", Message: "Duration only applies to countdown timers"})
		case *c.Duration < 0:
			errs = append(errs, apperror.FieldError{Field: "duration_ms", Message: "Duration must not be negative"})
		}
	}
	if c.Value != nil && *c.Value < 0 {
		errs = append(errs, apperror.FieldError{Field: "value_ms", Message: "Value must not be negative"})
	}
	if len(errs) > 0 {
		return apperror.NewValidationError(errs)
	}
	if u.Running && (c.Duration != nil || c.Value != nil) {
		return apperror.ErrRunning
	}

	if c.Name != nil {
		u.Name = strings.TrimSpace(*c.Name)
	}
	if c.RatePerHour != nil {
		u.RatePerHour = *c.RatePerHour
	}
	if c.Duration != nil {
		u.ConfiguredDurationMs = c.Duration.Milliseconds()
		if c.Value == nil {
			u.ValueMs = u.ConfiguredDurationMs
		}
	}
	if c.Value != nil {
		u.ValueMs = c.Value.Milliseconds()
		if u.Mode == enum.ClockModeCountDown && u.ValueMs > u.ConfiguredDurationMs {
			u.ValueMs = u.ConfiguredDurationMs
		}
	}
	u.UpdatedAt = now
	return nil
}
