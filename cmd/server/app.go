package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"kasirlokal/backend/internal/cache"
	"kasirlokal/backend/internal/config"
	"kasirlokal/backend/internal/events"
	"kasirlokal/backend/internal/service"
	"kasirlokal/backend/internal/store"
	"kasirlokal/backend/internal/store/memory"
	pgstore "kasirlokal/backend/internal/store/postgres"
	redisstore "kasirlokal/backend/internal/store/redis"
	sqlitestore "kasirlokal/backend/internal/store/sqlite"
)

// app bundles the hydrated service with the resources it holds open.
type app struct {
	service  *service.Service
	producer *events.Producer
	closers  []func() error
}

func (a *app) Close() error {
	var errs []error
	// close in reverse order of opening
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func buildApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	a := &app{}

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	slots, err := buildSlotStore(initCtx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, slots.Close)

	reportCache := cache.ReportCache(cache.NoopReportCache{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisReportCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisKeyPrefix)
		if err := redisCache.Ping(initCtx); err != nil {
			logger.Warn("redis unavailable, report cache disabled", zap.Error(err))
			_ = redisCache.Close()
		} else {
			reportCache = redisCache
			a.closers = append(a.closers, redisCache.Close)
			logger.Info("report cache: redis", zap.String("addr", cfg.RedisAddr))
		}
	} else {
		logger.Info("report cache: noop")
	}

	publisher := events.Publisher(events.NoopPublisher{})
	if len(cfg.KafkaBrokers) > 0 {
		a.producer = events.NewProducer(cfg.KafkaBrokers, 256, logger)
		publisher = a.producer
		a.closers = append(a.closers, a.producer.Close)
		logger.Info("events: kafka", zap.Strings("brokers", cfg.KafkaBrokers))
	} else {
		logger.Info("events: disabled")
	}

	defaults, err := cfg.DefaultSettings()
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	opts := service.Options{
		StockPolicy:       service.AllowOversell,
		UniqueCodes:       cfg.EnforceUniqueCodes,
		LowStockThreshold: cfg.LowStockThreshold,
		TopSellingLimit:   cfg.TopSellingLimit,
		ReportCacheTTL:    cfg.ReportCacheTTL(),
		DefaultSettings:   &defaults,
		Topics:            events.TopicsFor(cfg.KafkaTopicPrefix),
	}
	if !cfg.AllowOversell {
		opts.StockPolicy = service.RejectOversell
	}

	a.service = service.New(slots, reportCache, publisher, logger, opts)
	if err := a.service.Hydrate(initCtx); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("hydrate: %w", err)
	}
	return a, nil
}

func buildSlotStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (store.SlotStore, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		logger.Warn("slot store: in-memory, data is lost on exit")
		return memory.New(), nil
	case config.BackendSQLite:
		s, err := sqlitestore.New(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLitePath, err)
		}
		logger.Info("slot store: sqlite", zap.String("path", cfg.SQLitePath))
		return s, nil
	case config.BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("STORE_BACKEND=postgres requires DATABASE_URL")
		}
		s, err := pgstore.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, fmt.Errorf("postgres unavailable: %w", err)
		}
		logger.Info("slot store: postgres")
		return s, nil
	case config.BackendRedis:
		if cfg.RedisAddr == "" {
			return nil, errors.New("STORE_BACKEND=redis requires REDIS_ADDR")
		}
		s := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisKeyPrefix)
		if err := s.Ping(ctx); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("redis unavailable: %w", err)
		}
		logger.Info("slot store: redis", zap.String("addr", cfg.RedisAddr))
		return s, nil
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
}
