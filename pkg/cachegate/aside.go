package cachegate

import (
	"context"
	"time"

	"github.com/mbroughton/cachegate/internal/types"
)

// asideState tracks progress through the cache-aside flow. Modeling the flow
// as an explicit machine keeps the terminal fallback reachable from every
// failure point instead of being buried in nested error handling.
type asideState int

const (
	stateLookup asideState = iota
	statePopulate
	stateHit
	stateFallback
)

// Factory computes a value on a cache miss.
type Factory[T any] func(ctx context.Context) (T, error)

// GetOrPopulate implements the cache-aside pattern: look the key up, and on
// a miss invoke factory and store its result under the key with the given
// TTL. Concurrent callers missing on the same key share a single factory
// invocation.
//
// The operation fails open: if the lookup or the populate step fails, the
// error is logged and factory is called directly, so a cache malfunction
// degrades latency but never withholds data. When caching is disabled the
// cache is not consulted at all. A nil factory result is returned as the
// zero value and never cached.
func GetOrPopulate[T any](ctx context.Context, s *Service, key string, ttl time.Duration, factory Factory[T]) (T, error) {
	if !s.enabled {
		return factory(ctx)
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		return runAside(ctx, s, key, ttl, factory)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

func runAside[T any](ctx context.Context, s *Service, key string, ttl time.Duration, factory Factory[T]) (T, error) {
	var (
		val   T
		zero  T
		cause error
	)

	state := stateLookup
	for {
		switch state {
		case stateLookup:
			found, err := s.Fetch(ctx, key, &val)
			switch {
			case err != nil:
				cause = err
				state = stateFallback
			case found:
				state = stateHit
			default:
				state = statePopulate
			}

		case stateHit:
			return val, nil

		case statePopulate:
			produced, err := factory(ctx)
			if err != nil {
				cause = err
				state = stateFallback
				continue
			}
			if types.IsNil(produced) {
				// An absent result is never cached.
				return zero, nil
			}
			if err := s.Store(ctx, key, produced, ttl); err != nil {
				cause = err
				state = stateFallback
				continue
			}
			return produced, nil

		case stateFallback:
			s.logger.Error("cache-aside failed, falling back to factory", "key", key, "error", cause)
			return factory(ctx)
		}
	}
}
