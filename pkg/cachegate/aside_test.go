package cachegate

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profile struct {
	ID   int    `msgpack:"id"`
	Name string `msgpack:"name"`
}

func countingFactory[T any](v T, err error) (Factory[T], *atomic.Int32) {
	var calls atomic.Int32
	return func(ctx context.Context) (T, error) {
		calls.Add(1)
		return v, err
	}, &calls
}

func TestGetOrPopulate(t *testing.T) {
	ctx := context.Background()

	t.Run("hit skips the factory", func(t *testing.T) {
		stub := newStubProvider()
		svc := newStubService(t, stub, nil)

		require.NoError(t, svc.Store(ctx, "p:1", profile{ID: 1, Name: "a"}, time.Minute))

		factory, calls := countingFactory(profile{ID: 99}, nil)
		got, err := GetOrPopulate(ctx, svc, "p:1", time.Minute, factory)
		require.NoError(t, err)
		assert.Equal(t, profile{ID: 1, Name: "a"}, got)
		assert.Equal(t, int32(0), calls.Load())
	})

	t.Run("miss populates the cache", func(t *testing.T) {
		stub := newStubProvider()
		svc := newStubService(t, stub, nil)

		factory, calls := countingFactory(profile{ID: 2, Name: "b"}, nil)
		got, err := GetOrPopulate(ctx, svc, "p:2", time.Minute, factory)
		require.NoError(t, err)
		assert.Equal(t, profile{ID: 2, Name: "b"}, got)
		assert.Equal(t, int32(1), calls.Load())
		assert.Equal(t, 1, stub.callCount("Store"))

		// The populated entry serves the next call.
		got, err = GetOrPopulate(ctx, svc, "p:2", time.Minute, factory)
		require.NoError(t, err)
		assert.Equal(t, profile{ID: 2, Name: "b"}, got)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("nil factory result is returned but never cached", func(t *testing.T) {
		stub := newStubProvider()
		svc := newStubService(t, stub, nil)

		factory, calls := countingFactory[*profile](nil, nil)
		got, err := GetOrPopulate(ctx, svc, "p:absent", time.Minute, factory)
		require.NoError(t, err)
		assert.Nil(t, got)
		assert.Equal(t, int32(1), calls.Load())
		assert.Equal(t, 0, stub.callCount("Store"))
	})

	t.Run("lookup failure falls back to the factory", func(t *testing.T) {
		stub := newStubProvider()
		stub.fetchErr = errors.New("connection reset")
		svc := newStubService(t, stub, nil)

		factory, calls := countingFactory(profile{ID: 3}, nil)
		got, err := GetOrPopulate(ctx, svc, "p:3", time.Minute, factory)
		require.NoError(t, err, "a cache malfunction must not withhold data")
		assert.Equal(t, profile{ID: 3}, got)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("populate failure falls back to the factory", func(t *testing.T) {
		stub := newStubProvider()
		stub.storeErr = errors.New("write queue full")
		svc := newStubService(t, stub, nil)

		factory, calls := countingFactory(profile{ID: 4}, nil)
		got, err := GetOrPopulate(ctx, svc, "p:4", time.Minute, factory)
		require.NoError(t, err)
		assert.Equal(t, profile{ID: 4}, got)
		// Once on the miss, once more in the fallback.
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("factory error propagates", func(t *testing.T) {
		stub := newStubProvider()
		svc := newStubService(t, stub, nil)

		boom := errors.New("upstream down")
		factory, calls := countingFactory(profile{}, boom)
		_, err := GetOrPopulate(ctx, svc, "p:5", time.Minute, factory)
		require.ErrorIs(t, err, boom)
		// The fallback re-invokes the factory even when the factory itself
		// was the failure.
		assert.Equal(t, int32(2), calls.Load())
		assert.Equal(t, 0, stub.callCount("Store"))
	})

	t.Run("disabled caching calls the factory directly", func(t *testing.T) {
		stub := newStubProvider()
		svc := newStubService(t, stub, func(c *Config) { c.CachingEnabled = false })

		factory, calls := countingFactory(profile{ID: 6}, nil)
		got, err := GetOrPopulate(ctx, svc, "p:6", time.Minute, factory)
		require.NoError(t, err)
		assert.Equal(t, profile{ID: 6}, got)
		assert.Equal(t, int32(1), calls.Load())
		assert.Equal(t, 0, stub.callCount("Fetch"))
		assert.Equal(t, 0, stub.callCount("Store"))
	})
}

func TestGetOrPopulateSharesConcurrentMisses(t *testing.T) {
	ctx := context.Background()
	stub := newStubProvider()
	svc := newStubService(t, stub, nil)

	var calls atomic.Int32
	factory := func(ctx context.Context) (profile, error) {
		calls.Add(1)
		time.Sleep(100 * time.Millisecond)
		return profile{ID: 7}, nil
	}

	const workers = 10
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			got, err := GetOrPopulate(ctx, svc, "p:shared", time.Minute, factory)
			assert.NoError(t, err)
			assert.Equal(t, profile{ID: 7}, got)
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load(), "concurrent misses should share one factory call")
}

func TestServiceEndToEnd(t *testing.T) {
	ctx := context.Background()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	cfg := TestConfig(mr.Addr())
	cfg.EnableKeyHashing = true
	cfg.EnableCompression = true

	svc, err := New(cfg, WithLogger(testLogger()))
	require.NoError(t, err)
	defer svc.Close()

	t.Run("store and fetch round trip", func(t *testing.T) {
		in := profile{ID: 10, Name: "carol"}
		require.NoError(t, svc.Store(ctx, "e2e:user", in, time.Minute, WithConfirm()))

		var out profile
		found, err := svc.Fetch(ctx, "e2e:user", &out)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, in, out)
	})

	t.Run("cache aside populates then hits", func(t *testing.T) {
		factory, calls := countingFactory(profile{ID: 11, Name: "dave"}, nil)

		got, err := GetOrPopulate(ctx, svc, "e2e:aside", time.Minute, factory)
		require.NoError(t, err)
		assert.Equal(t, profile{ID: 11, Name: "dave"}, got)
		require.Equal(t, int32(1), calls.Load())

		// The populate write is dispatched asynchronously; wait for it to
		// land before expecting a hit.
		require.Eventually(t, func() bool {
			ok, err := svc.Exists(ctx, "e2e:aside")
			return err == nil && ok
		}, 2*time.Second, 10*time.Millisecond)

		got, err = GetOrPopulate(ctx, svc, "e2e:aside", time.Minute, factory)
		require.NoError(t, err)
		assert.Equal(t, profile{ID: 11, Name: "dave"}, got)
		assert.Equal(t, int32(1), calls.Load(), "second call should be served from cache")
	})
}
