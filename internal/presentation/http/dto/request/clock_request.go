package request

import "github.com/sangkips/tempo-pos/internal/domain/enum"

// CreateClockRequest represents a stopwatch or timer creation request
type CreateClockRequest struct {
	Name        string         `json:"name" binding:"required,max=100"`
	RatePerHour int64          `json:"rate_per_hour"`
	Mode        enum.ClockMode `json:"mode"`
	DurationMs  int64          `json:"duration_ms"`
}

// UpdateClockRequest edits a clock. Duration and value may only change while stopped.
type UpdateClockRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=100"`
	RatePerHour *int64  `json:"rate_per_hour"`
	DurationMs  *int64  `json:"duration_ms"`
	ValueMs     *int64  `json:"value_ms"`
}
