package types

import (
	"context"
	"time"
)

// StorageProvider is the low-level operation surface against the remote
// cluster. Advisory operations (Exists, TimeToLive, Refresh) log and absorb
// transport failures, reporting safe defaults with a nil error. The remaining
// operations are correctness-critical and surface transport failures as a
// *ProviderError. Every keyed operation can additionally fail with a
// *KeyTooLongError before any remote call is made.
type StorageProvider interface {
	// Store serializes value under key. A nil value is a no-op. The write
	// is dispatched fire-and-forget unless WithConfirm is given.
	Store(ctx context.Context, key string, value any, ttl time.Duration, opts ...WriteOption) error

	// Fetch deserializes the entry under key into dest. A missing key and
	// an undecodable payload both report (false, nil).
	Fetch(ctx context.Context, key string, dest any) (bool, error)

	// Remove deletes the entry. A positive delay expires the key after the
	// delay instead of deleting it immediately.
	Remove(ctx context.Context, key string, delay time.Duration) error

	// Exists reports whether the key is present. Transport failures report false.
	Exists(ctx context.Context, key string) (bool, error)

	// TimeToLive reports the remaining TTL. ok is false when the key is
	// missing, has no expiry, or the lookup failed.
	TimeToLive(ctx context.Context, key string) (ttl time.Duration, ok bool, err error)

	// Refresh resets the key's TTL. Transport failures report false.
	Refresh(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// SortedSetLength counts members with scores in [min, max].
	SortedSetLength(ctx context.Context, key string, min, max float64) (int64, error)

	// SortedSetAdd adds member with score. The reported bool is whether the
	// member was newly added; a fire-and-forget dispatch reports false.
	SortedSetAdd(ctx context.Context, key, member string, score float64, opts ...WriteOption) (bool, error)

	// KeyExpire sets the key's TTL, falling back to the configured default
	// when ttl is non-positive. Fire-and-forget dispatch reports false.
	KeyExpire(ctx context.Context, key string, ttl time.Duration, opts ...WriteOption) (bool, error)

	// ScanKeys drains the cluster's keyspace cursor starting at cursor,
	// returning every key matching the pattern. Expensive; administrative
	// use only.
	ScanKeys(ctx context.Context, cursor uint64, match string, count int64) ([]string, error)

	Close() error
}

// Serializer encodes values for remote storage.
type Serializer interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, dest any) error
}

// MetricsRecorder receives cache operation metrics.
type MetricsRecorder interface {
	RecordHit(key string, latency time.Duration)
	RecordMiss(key string, latency time.Duration)
	RecordSet(key string, size int, latency time.Duration)
	RecordDelete(key string, latency time.Duration)
	RecordError(op string, err error)
	RecordConnectionStateChange(slot int, connected bool)
}

// WriteOptions controls how a write is delivered to the cluster.
type WriteOptions struct {
	// Confirm waits for cluster acknowledgment instead of returning once
	// the write is dispatched.
	Confirm bool
}

// WriteOption is a functional option for write operations.
type WriteOption func(*WriteOptions)

// WithConfirm makes the write wait for cluster acknowledgment.
func WithConfirm() WriteOption {
	return func(o *WriteOptions) {
		o.Confirm = true
	}
}

// ApplyWriteOptions folds opts over the fire-and-forget default.
func ApplyWriteOptions(opts ...WriteOption) *WriteOptions {
	options := &WriteOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}
