package provider

import (
	"math/rand/v2"
	"time"

	"github.com/mbroughton/cachegate/internal/types"
)

// Jitter bounds added to every stored TTL, uniform in [jitterMin, jitterMax).
// Desynchronizes expiry of entries written at the same logical time.
const (
	jitterMin = 10 * time.Second
	jitterMax = 120 * time.Second
)

// buildKey applies the configured prefix and enforces the maximum key
// length. Runs before every remote operation that targets a key.
func (p *Provider) buildKey(key string) (string, error) {
	k := key
	if p.cfg.KeyPrefix != "" {
		k = p.cfg.KeyPrefix + ":" + key
	}
	if p.cfg.MaxKeyLength > 0 && len(k) > p.cfg.MaxKeyLength {
		return "", &types.KeyTooLongError{Key: k, Length: len(k), Limit: p.cfg.MaxKeyLength}
	}
	return k, nil
}

// effectiveTTL resolves the requested TTL against the configured default and
// adds expiry jitter.
func (p *Provider) effectiveTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		ttl = p.cfg.DefaultTTL
	}
	return ttl + jitterMin + time.Duration(rand.Int64N(int64(jitterMax-jitterMin)))
}
