package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"

	"github.com/sangkips/tempo-pos/internal/domain/entity"
	domainRepo "github.com/sangkips/tempo-pos/internal/domain/repository"
)

func idempotencyCacheKey(userID, key string) string {
	return userID + ":" + key
}

type redisIdempotencyRepository struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisIdempotencyRepository stores keys in redis with a native TTL taken
// from each key's ExpiresAt.
func NewRedisIdempotencyRepository(client *redis.Client) domainRepo.IdempotencyRepository {
	return &redisIdempotencyRepository{client: client, prefix: "tempo:idempotency:", now: time.Now}
}

func (r *redisIdempotencyRepository) GetByKey(ctx context.Context, key, userID string) (*entity.IdempotencyKey, error) {
	data, err := r.client.Get(ctx, r.prefix+idempotencyCacheKey(userID, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read idempotency key: %w", err)
	}

	var ikey entity.IdempotencyKey
	if err := json.Unmarshal(data, &ikey); err != nil {
		return nil, fmt.Errorf("failed to decode idempotency key: %w", err)
	}
	if ikey.IsExpired(r.now()) {
		return nil, nil
	}
	return &ikey, nil
}

func (r *redisIdempotencyRepository) Create(ctx context.Context, ikey *entity.IdempotencyKey) error {
	ttl := ikey.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(ikey)
	if err != nil {
		return err
	}

	ok, err := r.client.SetNX(ctx, r.prefix+idempotencyCacheKey(ikey.UserID, ikey.Key), data, ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to store idempotency key: %w", err)
	}
	if !ok {
		return domainRepo.ErrDuplicate
	}
	return nil
}

// DeleteExpired is a no-op; redis expires keys itself.
func (r *redisIdempotencyRepository) DeleteExpired(ctx context.Context) error {
	return nil
}

type memoryIdempotencyRepository struct {
	mu    sync.Mutex
	cache *lru.Cache[string, entity.IdempotencyKey]
	now   func() time.Time
}

// NewMemoryIdempotencyRepository keeps at most size keys in an LRU cache.
func NewMemoryIdempotencyRepository(size int) (domainRepo.IdempotencyRepository, error) {
	cache, err := lru.New[string, entity.IdempotencyKey](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create idempotency cache: %w", err)
	}
	return &memoryIdempotencyRepository{cache: cache, now: time.Now}, nil
}

func (r *memoryIdempotencyRepository) GetByKey(_ context.Context, key, userID string) (*entity.IdempotencyKey, error) {
	ikey, ok := r.cache.Get(idempotencyCacheKey(userID, key))
	if !ok || ikey.IsExpired(r.now()) {
		return nil, nil
	}
	return &ikey, nil
}

func (r *memoryIdempotencyRepository) Create(_ context.Context, ikey *entity.IdempotencyKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := idempotencyCacheKey(ikey.UserID, ikey.Key)
	if existing, ok := r.cache.Peek(k); ok && !existing.IsExpired(r.now()) {
		return domainRepo.ErrDuplicate
	}
	r.cache.Add(k, *ikey)
	return nil
}

func (r *memoryIdempotencyRepository) DeleteExpired(_ context.Context) error {
	now := r.now()
	for _, k := range r.cache.Keys() {
		if v, ok := r.cache.Peek(k); ok && v.IsExpired(now) {
			r.cache.Remove(k)
		}
	}
	return nil
}
