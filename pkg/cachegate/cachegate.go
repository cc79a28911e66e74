package cachegate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mbroughton/cachegate/internal/config"
	"github.com/mbroughton/cachegate/internal/metrics"
	"github.com/mbroughton/cachegate/internal/pool"
	"github.com/mbroughton/cachegate/internal/provider"
	"github.com/mbroughton/cachegate/internal/types"
)

// Service is the application-facing cache. It applies the optional key
// hashing transform and delegates to the storage provider. All methods are
// safe for concurrent use.
type Service struct {
	provider types.StorageProvider
	logger   *slog.Logger
	group    singleflight.Group
	hashKeys bool
	enabled  bool
}

// New validates cfg and builds the service. Invalid configuration and pool
// construction failures are fatal; the service never runs partially
// initialized. When caching is disabled the connection pool is not built at
// all and a no-op provider serves every operation.
func New(cfg *config.Config, opts ...ServiceOption) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &ServiceOptions{}
	for _, opt := range opts {
		opt(options)
	}

	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "cache-service")

	recorder := options.Metrics
	if recorder == nil {
		var err error
		recorder, err = metrics.NewStatsd(&cfg.Metrics, logger)
		if err != nil {
			return nil, err
		}
	}

	var prov types.StorageProvider
	switch {
	case options.Provider != nil:
		prov = options.Provider
	case !cfg.CachingEnabled:
		logger.Info("caching disabled, requests bypass the cache")
		prov = provider.NewDisabled()
	default:
		pl, err := pool.New(cfg, logger)
		if err != nil {
			return nil, err
		}
		pl.SetOnStateChange(recorder.RecordConnectionStateChange)
		prov = provider.New(pl, cfg, options.Serializer, logger, recorder)
	}

	return &Service{
		provider: prov,
		logger:   logger,
		hashKeys: cfg.EnableKeyHashing,
		enabled:  cfg.CachingEnabled,
	}, nil
}

// cacheKey applies the key-hashing transform. When hashing is enabled every
// logical key becomes the lowercase hex SHA-256 of its UTF-8 bytes, so the
// same logical key always maps to the same storage key across operations.
func (s *Service) cacheKey(key string) string {
	if !s.hashKeys {
		return key
	}
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// Store writes value under key.
func (s *Service) Store(ctx context.Context, key string, value any, ttl time.Duration, opts ...types.WriteOption) error {
	return s.provider.Store(ctx, s.cacheKey(key), value, ttl, opts...)
}

// Fetch reads the entry under key into dest, reporting whether it was found.
func (s *Service) Fetch(ctx context.Context, key string, dest any) (bool, error) {
	return s.provider.Fetch(ctx, s.cacheKey(key), dest)
}

// Remove deletes the entry under key, optionally after a delay.
func (s *Service) Remove(ctx context.Context, key string, delay time.Duration) error {
	return s.provider.Remove(ctx, s.cacheKey(key), delay)
}

// Exists reports whether the key is present.
func (s *Service) Exists(ctx context.Context, key string) (bool, error) {
	return s.provider.Exists(ctx, s.cacheKey(key))
}

// TimeToLive reports the remaining TTL of key.
func (s *Service) TimeToLive(ctx context.Context, key string) (time.Duration, bool, error) {
	return s.provider.TimeToLive(ctx, s.cacheKey(key))
}

// Refresh resets the key's TTL.
func (s *Service) Refresh(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.provider.Refresh(ctx, s.cacheKey(key), ttl)
}

// SortedSetLength counts members of the sorted set at key with scores in
// [min, max].
func (s *Service) SortedSetLength(ctx context.Context, key string, min, max float64) (int64, error) {
	return s.provider.SortedSetLength(ctx, s.cacheKey(key), min, max)
}

// SortedSetAdd adds member with score to the sorted set at key. Only the key
// is hashed; the member is payload.
func (s *Service) SortedSetAdd(ctx context.Context, key, member string, score float64, opts ...types.WriteOption) (bool, error) {
	return s.provider.SortedSetAdd(ctx, s.cacheKey(key), member, score, opts...)
}

// KeyExpire sets the key's TTL.
func (s *Service) KeyExpire(ctx context.Context, key string, ttl time.Duration, opts ...types.WriteOption) (bool, error) {
	return s.provider.KeyExpire(ctx, s.cacheKey(key), ttl, opts...)
}

// ScanKeys drains the keyspace cursor for keys matching pattern. The pattern
// is passed through unhashed; hashing a glob would match nothing.
func (s *Service) ScanKeys(ctx context.Context, cursor uint64, match string, count int64) ([]string, error) {
	return s.provider.ScanKeys(ctx, cursor, match, count)
}

// Close releases the provider and its connection pool.
func (s *Service) Close() error {
	return s.provider.Close()
}
