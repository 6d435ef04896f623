package repository

import (
	"context"

	"github.com/sangkips/tempo-pos/internal/domain/entity"
)

// IdempotencyRepository defines the interface for idempotency key operations
type IdempotencyRepository interface {
	// GetByKey returns nil, nil when the key is unknown or expired.
	GetByKey(ctx context.Context, key, userID string) (*entity.IdempotencyKey, error)
	// Create stores a new key, returning ErrDuplicate if one is already stored.
	Create(ctx context.Context, ikey *entity.IdempotencyKey) error
	// DeleteExpired removes expired keys for stores without native expiry.
	DeleteExpired(ctx context.Context) error
}
