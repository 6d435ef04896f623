package entity

import "time"

// IdempotencyKey stores a processed request so a retry can be answered
// with the original response.
type IdempotencyKey struct {
	Key          string    `json:"key"`
	UserID       string    `json:"user_id"`
	Endpoint     string    `json:"endpoint"` // e.g. "POST /api/v1/checkout"
	ResponseCode int       `json:"response_code"`
	ResponseBody string    `json:"response_body"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// IsExpired checks if the idempotency key has expired
func (i *IdempotencyKey) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
