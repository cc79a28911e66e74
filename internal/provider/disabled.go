package provider

import (
	"context"
	"time"

	"github.com/mbroughton/cachegate/internal/types"
)

// Disabled is a no-op storage provider used when caching is turned off.
// Every read is a miss, every write is a no-op, and no remote call is ever
// made.
type Disabled struct{}

// NewDisabled creates a new disabled provider.
func NewDisabled() *Disabled {
	return &Disabled{}
}

// Store does nothing as caching is disabled.
func (d *Disabled) Store(ctx context.Context, key string, value any, ttl time.Duration, opts ...types.WriteOption) error {
	return nil
}

// Fetch reports a miss as caching is disabled.
func (d *Disabled) Fetch(ctx context.Context, key string, dest any) (bool, error) {
	return false, nil
}

// Remove does nothing as caching is disabled.
func (d *Disabled) Remove(ctx context.Context, key string, delay time.Duration) error {
	return nil
}

// Exists reports false as caching is disabled.
func (d *Disabled) Exists(ctx context.Context, key string) (bool, error) {
	return false, nil
}

// TimeToLive reports no TTL as caching is disabled.
func (d *Disabled) TimeToLive(ctx context.Context, key string) (time.Duration, bool, error) {
	return 0, false, nil
}

// Refresh reports false as caching is disabled.
func (d *Disabled) Refresh(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return false, nil
}

// SortedSetLength reports zero as caching is disabled.
func (d *Disabled) SortedSetLength(ctx context.Context, key string, min, max float64) (int64, error) {
	return 0, nil
}

// SortedSetAdd reports false as caching is disabled.
func (d *Disabled) SortedSetAdd(ctx context.Context, key, member string, score float64, opts ...types.WriteOption) (bool, error) {
	return false, nil
}

// KeyExpire reports false as caching is disabled.
func (d *Disabled) KeyExpire(ctx context.Context, key string, ttl time.Duration, opts ...types.WriteOption) (bool, error) {
	return false, nil
}

// ScanKeys reports no keys as caching is disabled.
func (d *Disabled) ScanKeys(ctx context.Context, cursor uint64, match string, count int64) ([]string, error) {
	return nil, nil
}

// Close does nothing as caching is disabled.
func (d *Disabled) Close() error {
	return nil
}

var _ types.StorageProvider = (*Disabled)(nil)
