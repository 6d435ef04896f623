package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/sangkips/tempo-pos/internal/config"
	"github.com/sangkips/tempo-pos/internal/domain/event"
	domainRepo "github.com/sangkips/tempo-pos/internal/domain/repository"
	"github.com/sangkips/tempo-pos/internal/infrastructure/database"
	"github.com/sangkips/tempo-pos/internal/infrastructure/docstore"
	"github.com/sangkips/tempo-pos/internal/infrastructure/docstore/bolt"
	"github.com/sangkips/tempo-pos/internal/infrastructure/docstore/memory"
	"github.com/sangkips/tempo-pos/internal/infrastructure/docstore/mongo"
	"github.com/sangkips/tempo-pos/internal/infrastructure/docstore/postgres"
	"github.com/sangkips/tempo-pos/internal/infrastructure/events"
	infraRepo "github.com/sangkips/tempo-pos/internal/infrastructure/repository"
)

// infra holds the connections shared by every command.
type infra struct {
	store docstore.Store
	redis *redis.Client
	bus   event.Bus
}

func openInfra(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*infra, error) {
	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Driver, err)
	}
	in := &infra{store: store}

	if cfg.NeedsRedis() {
		in.redis, err = database.NewRedisClient(cfg.Redis, log)
		if err != nil {
			_ = in.Close()
			return nil, err
		}
	}

	switch cfg.Events.Driver {
	case "redis":
		in.bus = events.NewRedisBus(in.redis, cfg.Events.ChannelPrefix, log)
	default:
		in.bus = events.NewLocalBus()
	}
	return in, nil
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (docstore.Store, error) {
	switch cfg.Store.Driver {
	case "memory":
		log.Warn().Msg("Using in-memory store, data is lost on exit")
		return memory.New(), nil
	case "bolt":
		store, err := bolt.Open(cfg.Store.BoltPath)
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", cfg.Store.BoltPath).Msg("Bolt store opened")
		return store, nil
	case "postgres":
		db, err := database.NewPostgresDB(&cfg.Database, cfg.App.Debug, log)
		if err != nil {
			return nil, err
		}
		store := postgres.New(db)
		if err := postgres.Migrate(db); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to migrate documents table: %w", err)
		}
		return store, nil
	case "mongo":
		store, err := mongo.Open(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, err
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("Connected to MongoDB")
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func (in *infra) idempotencyRepo(cfg config.IdempotencyConfig) (domainRepo.IdempotencyRepository, error) {
	if cfg.Driver == "redis" {
		return infraRepo.NewRedisIdempotencyRepository(in.redis), nil
	}
	return infraRepo.NewMemoryIdempotencyRepository(cfg.CacheSize)
}

func (in *infra) Close() error {
	var errs []error
	if in.bus != nil {
		errs = append(errs, in.bus.Close())
	}
	if in.redis != nil {
		errs = append(errs, in.redis.Close())
	}
	if in.store != nil {
		errs = append(errs, in.store.Close())
	}
	return errors.Join(errs...)
}
