// Package provider implements the low-level storage operations against the
// remote cluster: key construction, serialization, TTL handling and the
// asymmetric error policy.
package provider

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mbroughton/cachegate/internal/codec"
	"github.com/mbroughton/cachegate/internal/config"
	"github.com/mbroughton/cachegate/internal/metrics"
	"github.com/mbroughton/cachegate/internal/pool"
	"github.com/mbroughton/cachegate/internal/types"
)

// Provider executes storage operations through one connection pool.
type Provider struct {
	pool       *pool.Manager
	serializer types.Serializer
	cfg        *config.Config
	logger     *slog.Logger
	metrics    types.MetricsRecorder

	writeQueue    chan writeOp
	pendingWrites atomic.Int32
	droppedWrites atomic.Int64
	stopCh        chan struct{}
	wg            sync.WaitGroup
	closed        atomic.Bool
}

// writeOp is one dispatched fire-and-forget write.
type writeOp struct {
	op   string
	key  string
	exec func(ctx context.Context) error
}

// New creates a provider over the given pool. A nil serializer selects
// MessagePack, wrapped with block compression when the config enables it.
func New(pl *pool.Manager, cfg *config.Config, serializer types.Serializer, logger *slog.Logger, recorder types.MetricsRecorder) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	if serializer == nil {
		serializer = codec.NewMsgpack()
		if cfg.EnableCompression {
			serializer = codec.NewCompressed(serializer)
		}
	}
	if recorder == nil {
		recorder = metrics.NewNoOp()
	}

	queueSize := cfg.MaxPendingWrites
	if queueSize <= 0 {
		queueSize = 500
	}

	p := &Provider{
		pool:       pl,
		serializer: serializer,
		cfg:        cfg,
		logger:     logger.With("component", "storage-provider"),
		metrics:    recorder,
		writeQueue: make(chan writeOp, queueSize),
		stopCh:     make(chan struct{}),
	}

	p.wg.Add(1)
	go p.writeWorker()

	return p
}

// Store serializes value and writes it under key with the effective TTL.
// A nil value is a no-op. The write is dispatched fire-and-forget unless
// WithConfirm is given.
func (p *Provider) Store(ctx context.Context, key string, value any, ttl time.Duration, opts ...types.WriteOption) error {
	if types.IsNil(value) {
		return nil
	}

	k, err := p.buildKey(key)
	if err != nil {
		return err
	}

	data, err := p.serializer.Marshal(value)
	if err != nil {
		return p.critical("Store", key, err)
	}

	effTTL := p.effectiveTTL(ttl)

	if types.ApplyWriteOptions(opts...).Confirm {
		handle, err := p.pool.Handle()
		if err != nil {
			return p.critical("Store", key, err)
		}
		start := time.Now()
		if err := handle.Set(ctx, k, data, effTTL).Err(); err != nil {
			return p.critical("Store", key, err)
		}
		p.metrics.RecordSet(key, len(data), time.Since(start))
		return nil
	}

	return p.dispatch("Store", key, func(ctx context.Context) error {
		handle, err := p.pool.Handle()
		if err != nil {
			return err
		}
		if err := handle.Set(ctx, k, data, effTTL).Err(); err != nil {
			return err
		}
		p.metrics.RecordSet(key, len(data), 0)
		return nil
	})
}

// Fetch reads and deserializes the entry under key into dest. A missing key
// reports (false, nil). An undecodable payload is logged and treated as a
// miss; a corrupted blob must not crash the caller.
func (p *Provider) Fetch(ctx context.Context, key string, dest any) (bool, error) {
	k, err := p.buildKey(key)
	if err != nil {
		return false, err
	}

	handle, err := p.pool.Handle()
	if err != nil {
		return false, p.critical("Fetch", key, err)
	}

	start := time.Now()
	data, err := handle.Get(ctx, k).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			p.logger.Debug("cache miss", "key", key)
			p.metrics.RecordMiss(key, time.Since(start))
			return false, nil
		}
		return false, p.critical("Fetch", key, err)
	}

	if err := p.serializer.Unmarshal(data, dest); err != nil {
		p.logger.Error("discarding undecodable payload", "key", key, "error", err)
		p.metrics.RecordMiss(key, time.Since(start))
		return false, nil
	}

	p.logger.Debug("cache hit", "key", key)
	p.metrics.RecordHit(key, time.Since(start))
	return true, nil
}

// Remove deletes the entry under key. A positive delay expires the key after
// the delay instead of deleting it immediately.
func (p *Provider) Remove(ctx context.Context, key string, delay time.Duration) error {
	k, err := p.buildKey(key)
	if err != nil {
		return err
	}

	handle, err := p.pool.Handle()
	if err != nil {
		return p.critical("Remove", key, err)
	}

	start := time.Now()
	if delay > 0 {
		err = handle.Expire(ctx, k, delay).Err()
	} else {
		err = handle.Del(ctx, k).Err()
	}
	if err != nil {
		return p.critical("Remove", key, err)
	}

	p.metrics.RecordDelete(key, time.Since(start))
	return nil
}

// Exists reports whether the key is present. Advisory: transport failures
// are logged and report false.
func (p *Provider) Exists(ctx context.Context, key string) (bool, error) {
	k, err := p.buildKey(key)
	if err != nil {
		return false, err
	}

	handle, err := p.pool.Handle()
	if err != nil {
		p.advisory("Exists", key, err)
		return false, nil
	}

	n, err := handle.Exists(ctx, k).Result()
	if err != nil {
		p.advisory("Exists", key, err)
		return false, nil
	}
	return n > 0, nil
}

// TimeToLive reports the remaining TTL of key. Advisory: ok is false when
// the key is missing, has no expiry, or the lookup failed.
func (p *Provider) TimeToLive(ctx context.Context, key string) (time.Duration, bool, error) {
	k, err := p.buildKey(key)
	if err != nil {
		return 0, false, err
	}

	handle, err := p.pool.Handle()
	if err != nil {
		p.advisory("TimeToLive", key, err)
		return 0, false, nil
	}

	d, err := handle.TTL(ctx, k).Result()
	if err != nil {
		p.advisory("TimeToLive", key, err)
		return 0, false, nil
	}
	if d < 0 {
		// -1 no expiry, -2 missing key
		return 0, false, nil
	}
	return d, true, nil
}

// Refresh resets the key's TTL. Advisory: transport failures report false.
func (p *Provider) Refresh(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	k, err := p.buildKey(key)
	if err != nil {
		return false, err
	}

	handle, err := p.pool.Handle()
	if err != nil {
		p.advisory("Refresh", key, err)
		return false, nil
	}

	ok, err := handle.Expire(ctx, k, ttl).Result()
	if err != nil {
		p.advisory("Refresh", key, err)
		return false, nil
	}
	return ok, nil
}

// SortedSetLength counts members of the sorted set at key with scores in
// [min, max].
func (p *Provider) SortedSetLength(ctx context.Context, key string, min, max float64) (int64, error) {
	k, err := p.buildKey(key)
	if err != nil {
		return 0, err
	}

	handle, err := p.pool.Handle()
	if err != nil {
		return 0, p.critical("SortedSetLength", key, err)
	}

	n, err := handle.ZCount(ctx, k, formatScore(min), formatScore(max)).Result()
	if err != nil {
		return 0, p.critical("SortedSetLength", key, err)
	}
	return n, nil
}

// SortedSetAdd adds member with score to the sorted set at key. The reported
// bool is whether the member was newly added; a fire-and-forget dispatch
// reports false because the cluster has not confirmed anything yet.
func (p *Provider) SortedSetAdd(ctx context.Context, key, member string, score float64, opts ...types.WriteOption) (bool, error) {
	k, err := p.buildKey(key)
	if err != nil {
		return false, err
	}

	z := redis.Z{Score: score, Member: member}

	if types.ApplyWriteOptions(opts...).Confirm {
		handle, err := p.pool.Handle()
		if err != nil {
			return false, p.critical("SortedSetAdd", key, err)
		}
		added, err := handle.ZAdd(ctx, k, z).Result()
		if err != nil {
			return false, p.critical("SortedSetAdd", key, err)
		}
		return added > 0, nil
	}

	err = p.dispatch("SortedSetAdd", key, func(ctx context.Context) error {
		handle, err := p.pool.Handle()
		if err != nil {
			return err
		}
		return handle.ZAdd(ctx, k, z).Err()
	})
	return false, err
}

// KeyExpire sets the key's TTL, falling back to the configured default when
// ttl is non-positive. Fire-and-forget dispatch reports false.
func (p *Provider) KeyExpire(ctx context.Context, key string, ttl time.Duration, opts ...types.WriteOption) (bool, error) {
	k, err := p.buildKey(key)
	if err != nil {
		return false, err
	}

	if ttl <= 0 {
		ttl = p.cfg.DefaultTTL
	}

	if types.ApplyWriteOptions(opts...).Confirm {
		handle, err := p.pool.Handle()
		if err != nil {
			return false, p.critical("KeyExpire", key, err)
		}
		ok, err := handle.Expire(ctx, k, ttl).Result()
		if err != nil {
			return false, p.critical("KeyExpire", key, err)
		}
		return ok, nil
	}

	err = p.dispatch("KeyExpire", key, func(ctx context.Context) error {
		handle, err := p.pool.Handle()
		if err != nil {
			return err
		}
		return handle.Expire(ctx, k, ttl).Err()
	})
	return false, err
}

// ScanKeys drains the cluster's keyspace cursor starting at cursor and
// returns every key matching the pattern. This walks the whole keyspace;
// administrative use only.
func (p *Provider) ScanKeys(ctx context.Context, cursor uint64, match string, count int64) ([]string, error) {
	handle, err := p.pool.Handle()
	if err != nil {
		return nil, p.critical("ScanKeys", match, err)
	}

	var keys []string
	for {
		batch, next, err := handle.Scan(ctx, cursor, match, count).Result()
		if err != nil {
			return nil, p.critical("ScanKeys", match, err)
		}
		keys = append(keys, batch...)
		if next == 0 {
			return keys, nil
		}
		cursor = next
	}
}

// PendingWrites returns the number of queued fire-and-forget writes.
func (p *Provider) PendingWrites() int {
	return int(p.pendingWrites.Load())
}

// DroppedWrites returns the number of writes dropped because the queue was full.
func (p *Provider) DroppedWrites() int64 {
	return p.droppedWrites.Load()
}

// Close drains the write queue and releases the connection pool.
func (p *Provider) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	close(p.stopCh)
	p.wg.Wait()
	return p.pool.Close()
}

// dispatch queues a fire-and-forget write. The call returns once the write
// is queued, not once the cluster acknowledges it.
func (p *Provider) dispatch(op, key string, exec func(ctx context.Context) error) error {
	if p.closed.Load() {
		return types.ErrClosed
	}

	select {
	case p.writeQueue <- writeOp{op: op, key: key, exec: exec}:
		p.pendingWrites.Add(1)
		return nil
	default:
		p.droppedWrites.Add(1)
		p.logger.Warn("write queue full, dropping write",
			"op", op,
			"key", key,
			"dropped_total", p.droppedWrites.Load(),
		)
		return types.ErrWriteQueueFull
	}
}

func (p *Provider) writeWorker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopCh:
			for {
				select {
				case op := <-p.writeQueue:
					p.executeWrite(op)
				default:
					return
				}
			}
		case op := <-p.writeQueue:
			p.executeWrite(op)
		}
	}
}

func (p *Provider) executeWrite(op writeOp) {
	defer p.pendingWrites.Add(-1)

	timeout := p.cfg.CommandTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := op.exec(ctx); err != nil {
		// Fire-and-forget failures surface in logs only.
		p.logger.Error("dispatched write failed", "op", op.op, "key", op.key, "error", err)
		p.metrics.RecordError(op.op, err)
	}
}

// critical logs a correctness-critical failure and wraps it for the caller.
func (p *Provider) critical(op, key string, err error) error {
	p.logger.Error("cache operation failed", "op", op, "key", key, "error", err)
	p.metrics.RecordError(op, err)
	return types.NewProviderError(op, key, err)
}

// advisory logs a failure on an advisory read and absorbs it.
func (p *Provider) advisory(op, key string, err error) {
	p.logger.Error("advisory cache operation failed, returning default", "op", op, "key", key, "error", err)
	p.metrics.RecordError(op, err)
}

func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

var _ types.StorageProvider = (*Provider)(nil)
