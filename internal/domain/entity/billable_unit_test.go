package entity

import (
	"errors"
	"testing"
	"time"

	"github.com/sangkips/tempo-pos/internal/domain/enum"
	"github.com/sangkips/tempo-pos/pkg/apperror"
)

var t0 = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func mustUnit(t *testing.T, rate int64, mode enum.ClockMode, d time.Duration) *BillableUnit {
	t.Helper()
	u, err := NewBillableUnit("owner-1", "PS5 #1", rate, mode, d, t0)
	if err != nil {
		t.Fatalf("NewBillableUnit() error = %v", err)
	}
	return u
}

func TestNewBillableUnitValidation(t *testing.T) {
	tests := []struct {
		name     string
		unitName string
		rate     int64
		mode     enum.ClockMode
		duration time.Duration
		field    string
	}{
		{"empty name", "  ", 1000, enum.ClockModeCountUp, 0, "name"},
		{"negative rate", "Billiard", -1, enum.ClockModeCountUp, 0, "rate_per_hour"},
		{"negative duration", "Timer", 1000, enum.ClockModeCountDown, -time.Second, "duration_ms"},
		{"unknown mode", "Odd", 1000, enum.ClockMode(7), 0, "mode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBillableUnit("o", tt.unitName, tt.rate, tt.mode, tt.duration, t0)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Fatalf("error = %v, want validation error", err)
			}
			appErr := apperror.GetAppError(err)
			if len(appErr.Errors) != 1 || appErr.Errors[0].Field != tt.field {
				t.Errorf("field errors = %+v, want %s", appErr.Errors, tt.field)
			}
		})
	}
}

func TestCountDownStartsFull(t *testing.T) {
	u := mustUnit(t, 6000, enum.ClockModeCountDown, 30*time.Minute)
	if u.EffectiveValue(t0) != 30*time.Minute {
		t.Errorf("EffectiveValue = %v, want 30m", u.EffectiveValue(t0))
	}
	if u.Running || u.Anchor != nil {
		t.Error("new unit should be stopped")
	}
}

func TestStartStopStateErrors(t *testing.T) {
	u := mustUnit(t, 1000, enum.ClockModeCountUp, 0)

	if err := u.Stop(t0); !errors.Is(err, apperror.ErrNotRunning) {
		t.Errorf("Stop() on stopped unit = %v, want ErrNotRunning", err)
	}
	if err := u.Start(t0); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := u.Start(t0.Add(time.Second)); !errors.Is(err, apperror.ErrAlreadyRunning) {
		t.Errorf("second Start() = %v, want ErrAlreadyRunning", err)
	}
	if *u.Anchor != t0 {
		t.Error("failed Start() moved the anchor")
	}
}

func TestEffectiveValueIsPure(t *testing.T) {
	u := mustUnit(t, 1000, enum.ClockModeCountUp, 0)
	_ = u.Start(t0)

	now := t0.Add(90 * time.Second)
	first := u.EffectiveValue(now)
	second := u.EffectiveValue(now)
	if first != 90*time.Second || second != first {
		t.Errorf("EffectiveValue = %v then %v, want 90s twice", first, second)
	}
	if u.ValueMs != 0 {
		t.Error("EffectiveValue mutated stored value")
	}
	if got := u.EffectiveValue(t0.Add(-time.Minute)); got != 0 {
		t.Errorf("EffectiveValue before anchor = %v, want 0", got)
	}
}

func TestStopStartStopIsAdditive(t *testing.T) {
	for _, mode := range []enum.ClockMode{enum.ClockModeCountUp, enum.ClockModeCountDown} {
		t.Run(mode.String(), func(t *testing.T) {
			split := mustUnit(t, 1000, mode, time.Hour)
			whole := mustUnit(t, 1000, mode, time.Hour)

			_ = split.Start(t0)
			_ = split.Stop(t0.Add(7 * time.Minute))
			_ = split.Start(t0.Add(7 * time.Minute))
			_ = split.Stop(t0.Add(19 * time.Minute))

			_ = whole.Start(t0)
			_ = whole.Stop(t0.Add(19 * time.Minute))

			if split.ValueMs != whole.ValueMs {
				t.Errorf("split = %dms, whole = %dms", split.ValueMs, whole.ValueMs)
			}
		})
	}
}

func TestResetFromAnyState(t *testing.T) {
	tests := []struct {
		name  string
		mode  enum.ClockMode
		setup func(u *BillableUnit)
		want  int64
	}{
		{"countup stopped", enum.ClockModeCountUp, func(u *BillableUnit) {
			_ = u.Start(t0)
			_ = u.Stop(t0.Add(time.Minute))
		}, 0},
		{"countup running", enum.ClockModeCountUp, func(u *BillableUnit) { _ = u.Start(t0) }, 0},
		{"countdown running", enum.ClockModeCountDown, func(u *BillableUnit) { _ = u.Start(t0) }, 600000},
		{"countdown expired", enum.ClockModeCountDown, func(u *BillableUnit) {
			_ = u.Start(t0)
			u.Observe(t0.Add(time.Hour))
		}, 600000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := mustUnit(t, 1000, tt.mode, 10*time.Minute)
			tt.setup(u)
			u.Reset()
			if u.Running || u.Anchor != nil || u.ValueMs != tt.want {
				t.Errorf("after Reset running=%v anchor=%v value=%d, want stopped %d", u.Running, u.Anchor, u.ValueMs, tt.want)
			}
		})
	}
}

func TestPriceSnapshot(t *testing.T) {
	up := mustUnit(t, 12000, enum.ClockModeCountUp, 0)
	_ = up.Start(t0)
	if got := up.PriceSnapshot(t0.Add(30 * time.Minute)); got != 6000 {
		t.Errorf("countup price = %d, want 6000", got)
	}

	down := mustUnit(t, 12000, enum.ClockModeCountDown, time.Hour)
	_ = down.Start(t0)
	if got := down.PriceSnapshot(t0.Add(15 * time.Minute)); got != 3000 {
		t.Errorf("countdown price = %d, want 3000 for consumed time", got)
	}
	if got := down.PriceSnapshot(t0.Add(3 * time.Hour)); got != 12000 {
		t.Errorf("countdown price past expiry = %d, want capped 12000", got)
	}
}

func TestPriceSnapshotMonotone(t *testing.T) {
	u := mustUnit(t, 7919, enum.ClockModeCountUp, 0)
	_ = u.Start(t0)

	prev := int64(-1)
	for ms := int64(0); ms <= 10*60*1000; ms += 337 {
		got := u.PriceSnapshot(t0.Add(time.Duration(ms) * time.Millisecond))
		if got < prev {
			t.Fatalf("price decreased at %dms: %d < %d", ms, got, prev)
		}
		prev = got
	}
}

func TestCountDownExpiryFiresOnce(t *testing.T) {
	u := mustUnit(t, 1000, enum.ClockModeCountDown, 5*time.Second)
	_ = u.Start(t0)

	fired := 0
	for s := 0; s <= 9; s++ {
		if _, expired := u.Observe(t0.Add(time.Duration(s) * time.Second)); expired {
			fired++
		}
	}

	if fired != 1 {
		t.Errorf("expiry fired %d times, want 1", fired)
	}
	if u.Running || u.EffectiveValue(t0.Add(time.Minute)) != 0 {
		t.Errorf("running=%v value=%v, want stopped at zero", u.Running, u.EffectiveValue(t0.Add(time.Minute)))
	}
	if u.ExpiredAt == nil || !u.ExpiredAt.Equal(t0.Add(5*time.Second)) {
		t.Errorf("ExpiredAt = %v", u.ExpiredAt)
	}
	if err := u.Start(t0.Add(time.Minute)); !errors.Is(err, apperror.ErrAlreadyExpired) {
		t.Errorf("Start() on expired timer = %v, want ErrAlreadyExpired", err)
	}
}

func TestApply(t *testing.T) {
	u := mustUnit(t, 1000, enum.ClockModeCountDown, 10*time.Minute)
	_ = u.Start(t0)

	name, rate := "VIP Room", int64(20000)
	if err := u.Apply(UnitChanges{Name: &name, RatePerHour: &rate}, t0); err != nil {
		t.Fatalf("Apply(name, rate) while running = %v", err)
	}
	d := 20 * time.Minute
	if err := u.Apply(UnitChanges{Duration: &d}, t0); !errors.Is(err, apperror.ErrRunning) {
		t.Errorf("Apply(duration) while running = %v, want ErrRunning", err)
	}

	_ = u.Stop(t0.Add(time.Minute))
	if err := u.Apply(UnitChanges{Duration: &d}, t0); err != nil {
		t.Fatalf("Apply(duration) = %v", err)
	}
	if u.ConfiguredDurationMs != d.Milliseconds() || u.ValueMs != d.Milliseconds() {
		t.Errorf("duration=%d value=%d, want both %d", u.ConfiguredDurationMs, u.ValueMs, d.Milliseconds())
	}

	tooMuch := time.Hour
	_ = u.Apply(UnitChanges{Value: &tooMuch}, t0)
	if u.ValueMs != d.Milliseconds() {
		t.Errorf("value not clamped to duration: %d", u.ValueMs)
	}

	empty := ""
	if err := u.Apply(UnitChanges{Name: &empty}, t0); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Apply(empty name) = %v, want validation error", err)
	}
}

func TestApplyRejectsDurationOnCountUp(t *testing.T) {
	u := mustUnit(t, 1000, enum.ClockModeCountUp, 0)
	value := 3 * time.Minute
	_ = u.Apply(UnitChanges{Value: &value}, t0)

	d := 30 * time.Minute
	err := u.Apply(UnitChanges{Duration: &d}, t0.Add(time.Second))
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("Apply(duration) on countup = %v, want validation error", err)
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || len(appErr.Errors) != 1 || appErr.Errors[0].Field != "duration_ms" {
		t.Errorf("field errors = %+v, want one on duration_ms", appErr)
	}
	if u.ConfiguredDurationMs != 0 || u.ValueMs != value.Milliseconds() || !u.UpdatedAt.Equal(t0) {
		t.Errorf("unit changed by rejected edit: %+v", u)
	}
}
