package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestIsMatchesByKind(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{"constructed not found", NewNotFoundError("Clock"), ErrNotFound, true},
		{"wrapped insufficient payment", fmt.Errorf("settle: %w", NewInsufficientPaymentError(15000, 10000)), ErrInsufficientPayment, true},
		{"state errors stay distinct", ErrAlreadyRunning, ErrNotRunning, false},
		{"same state sentinel", fmt.Errorf("start: %w", ErrAlreadyRunning), ErrAlreadyRunning, true},
		{"different kinds", ErrEmptyCart, ErrInvalidQuantity, false},
		{"plain error", errors.New("boom"), ErrSettlementFailed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.want {
				t.Errorf("errors.Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSettlementFailedUnwrapsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := NewSettlementFailed(cause)

	if !errors.Is(err, ErrSettlementFailed) {
		t.Fatal("expected settlement failed kind")
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected cause to be reachable")
	}
	if err.Code != http.StatusInternalServerError {
		t.Errorf("Code = %d, want 500", err.Code)
	}
}

func TestGetAppErrorFallsBackToInternal(t *testing.T) {
	appErr := GetAppError(errors.New("unexpected"))
	if appErr.Code != http.StatusInternalServerError || appErr.Kind != KindInternal {
		t.Errorf("got %d/%s, want 500/internal", appErr.Code, appErr.Kind)
	}

	if !IsKind(fmt.Errorf("x: %w", ErrNotRunning), KindState) {
		t.Error("IsKind should see through wrapping")
	}
}
