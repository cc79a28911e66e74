package cachegate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"reflect"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbroughton/cachegate/internal/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubProvider records every operation and the storage keys it was handed.
type stubProvider struct {
	mu       sync.Mutex
	values   map[string]any
	calls    map[string]int
	lastKeys map[string]string

	fetchErr error
	storeErr error
}

func newStubProvider() *stubProvider {
	return &stubProvider{
		values:   make(map[string]any),
		calls:    make(map[string]int),
		lastKeys: make(map[string]string),
	}
}

func (s *stubProvider) record(op, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[op]++
	s.lastKeys[op] = key
}

func (s *stubProvider) callCount(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *stubProvider) lastKey(op string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastKeys[op]
}

func (s *stubProvider) Store(ctx context.Context, key string, value any, ttl time.Duration, opts ...types.WriteOption) error {
	s.record("Store", key)
	if s.storeErr != nil {
		return s.storeErr
	}
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
	return nil
}

func (s *stubProvider) Fetch(ctx context.Context, key string, dest any) (bool, error) {
	s.record("Fetch", key)
	if s.fetchErr != nil {
		return false, s.fetchErr
	}
	s.mu.Lock()
	v, ok := s.values[key]
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	reflect.ValueOf(dest).Elem().Set(reflect.ValueOf(v))
	return true, nil
}

func (s *stubProvider) Remove(ctx context.Context, key string, delay time.Duration) error {
	s.record("Remove", key)
	s.mu.Lock()
	delete(s.values, key)
	s.mu.Unlock()
	return nil
}

func (s *stubProvider) Exists(ctx context.Context, key string) (bool, error) {
	s.record("Exists", key)
	s.mu.Lock()
	_, ok := s.values[key]
	s.mu.Unlock()
	return ok, nil
}

func (s *stubProvider) TimeToLive(ctx context.Context, key string) (time.Duration, bool, error) {
	s.record("TimeToLive", key)
	return 0, false, nil
}

func (s *stubProvider) Refresh(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	s.record("Refresh", key)
	return false, nil
}

func (s *stubProvider) SortedSetLength(ctx context.Context, key string, min, max float64) (int64, error) {
	s.record("SortedSetLength", key)
	return 0, nil
}

func (s *stubProvider) SortedSetAdd(ctx context.Context, key, member string, score float64, opts ...types.WriteOption) (bool, error) {
	s.record("SortedSetAdd", key)
	return true, nil
}

func (s *stubProvider) KeyExpire(ctx context.Context, key string, ttl time.Duration, opts ...types.WriteOption) (bool, error) {
	s.record("KeyExpire", key)
	return false, nil
}

func (s *stubProvider) ScanKeys(ctx context.Context, cursor uint64, match string, count int64) ([]string, error) {
	s.record("ScanKeys", match)
	return nil, nil
}

func (s *stubProvider) Close() error { return nil }

var _ types.StorageProvider = (*stubProvider)(nil)

func newStubService(t *testing.T, stub *stubProvider, mutate func(*Config)) *Service {
	t.Helper()

	cfg := TestConfig("localhost:6379")
	cfg.EnableKeyHashing = true
	if mutate != nil {
		mutate(cfg)
	}

	svc, err := New(cfg, WithProvider(stub), WithLogger(testLogger()))
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	return svc
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := TestConfig("localhost:6379")
	cfg.Endpoints = ""

	_, err := New(cfg, WithLogger(testLogger()))
	require.ErrorIs(t, err, types.ErrInvalidConfig)
}

func TestKeyHashing(t *testing.T) {
	ctx := context.Background()
	hexPattern := regexp.MustCompile(`^[0-9a-f]{64}$`)

	t.Run("hashes keys to lowercase hex digests", func(t *testing.T) {
		stub := newStubProvider()
		svc := newStubService(t, stub, nil)

		require.NoError(t, svc.Store(ctx, "user:42", "v", time.Minute))

		got := stub.lastKey("Store")
		assert.Regexp(t, hexPattern, got)

		sum := sha256.Sum256([]byte("user:42"))
		assert.Equal(t, hex.EncodeToString(sum[:]), got)
	})

	t.Run("same logical key maps to the same storage key everywhere", func(t *testing.T) {
		stub := newStubProvider()
		svc := newStubService(t, stub, nil)

		require.NoError(t, svc.Store(ctx, "user:42", "v", time.Minute))
		var out string
		_, err := svc.Fetch(ctx, "user:42", &out)
		require.NoError(t, err)
		_, err = svc.Exists(ctx, "user:42")
		require.NoError(t, err)
		require.NoError(t, svc.Remove(ctx, "user:42", 0))

		storeKey := stub.lastKey("Store")
		assert.Equal(t, storeKey, stub.lastKey("Fetch"))
		assert.Equal(t, storeKey, stub.lastKey("Exists"))
		assert.Equal(t, storeKey, stub.lastKey("Remove"))
	})

	t.Run("distinct keys hash differently", func(t *testing.T) {
		stub := newStubProvider()
		svc := newStubService(t, stub, nil)

		require.NoError(t, svc.Store(ctx, "user:1", "v", time.Minute))
		first := stub.lastKey("Store")
		require.NoError(t, svc.Store(ctx, "user:2", "v", time.Minute))
		assert.NotEqual(t, first, stub.lastKey("Store"))
	})

	t.Run("scan patterns are never hashed", func(t *testing.T) {
		stub := newStubProvider()
		svc := newStubService(t, stub, nil)

		_, err := svc.ScanKeys(ctx, 0, "user:*", 10)
		require.NoError(t, err)
		assert.Equal(t, "user:*", stub.lastKey("ScanKeys"))
	})

	t.Run("disabled hashing passes keys through", func(t *testing.T) {
		stub := newStubProvider()
		svc := newStubService(t, stub, func(c *Config) { c.EnableKeyHashing = false })

		require.NoError(t, svc.Store(ctx, "user:42", "v", time.Minute))
		assert.Equal(t, "user:42", stub.lastKey("Store"))
	})
}
