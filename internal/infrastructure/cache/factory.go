package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/fincore/internal/infrastructure/config"
	"go.uber.org/zap"
)

// SyncLock is what both lock implementations provide
type SyncLock interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(), acquired bool, err error)
}

// SyncLockFactory creates sync locks based on configuration
type SyncLockFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// SyncLockFactoryOption is a functional option for configuring the factory
type SyncLockFactoryOption func(*SyncLockFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) SyncLockFactoryOption {
	return func(f *SyncLockFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory lock
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) SyncLockFactoryOption {
	return func(f *SyncLockFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewSyncLockFactory creates a new factory
func NewSyncLockFactory(cfg config.RedisConfig, opts ...SyncLockFactoryOption) *SyncLockFactory {
	f := &SyncLockFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateLock returns a Redis lock when Redis is enabled and reachable, and
// the in-memory lock otherwise (if fallback is allowed)
func (f *SyncLockFactory) CreateLock() (SyncLock, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory sync lock")
		return NewInMemorySyncLock(), nil
	}

	lock, err := NewRedisSyncLock(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err == nil {
		f.logger.Info("using Redis sync lock", zap.String("addr", f.redisConfig.Addr()))
		return lock, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for sync lock but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory sync lock. "+
		"Concurrent sync runs on other instances are not excluded.",
		zap.Error(err),
	)
	return NewInMemorySyncLock(), nil
}
