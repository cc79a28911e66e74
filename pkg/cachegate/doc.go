// Package cachegate provides a caching façade over a remote Redis cluster:
// a fixed connection pool, key transformation, binary serialization and a
// fail-open cache-aside pattern.
//
// # Quick Start
//
// Create a service from configuration:
//
//	cfg := cachegate.DefaultConfig()
//	cfg.Endpoints = "redis-1:6379;redis-2:6379"
//	cfg.KeyPrefix = "app"
//
//	svc, err := cachegate.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer svc.Close()
//
// # Cache Operations
//
// Values are serialized with MessagePack (optionally block-compressed) and
// stored under the constructed key:
//
//	ctx := context.Background()
//	err := svc.Store(ctx, "user:1", user, 30*time.Minute)
//
//	var cached User
//	found, err := svc.Fetch(ctx, "user:1", &cached)
//
// Writes are dispatched fire-and-forget by default; pass
// cachegate.WithConfirm() to wait for cluster acknowledgment.
//
// # Cache-Aside
//
// GetOrPopulate looks the key up and computes the value through the supplied
// factory on a miss, caching the result for next time. Concurrent misses on
// the same key share one factory call:
//
//	user, err := cachegate.GetOrPopulate(ctx, svc, "user:1", 30*time.Minute,
//	    func(ctx context.Context) (User, error) {
//	        return loadUserFromDB(ctx, 1)
//	    })
//
// The operation fails open: if the cache errors, the factory result is
// returned directly and the caller sees degraded latency, not a failure.
//
// # Key Hashing
//
// With EnableKeyHashing, every logical key is replaced by the lowercase hex
// SHA-256 digest of its UTF-8 bytes before reaching the cluster, applied
// consistently across all operations.
//
// # Thread Safety
//
// All operations are safe to invoke concurrently from multiple goroutines
// against one shared service instance.
package cachegate
