package config

import "time"

// DefaultConfig returns a configuration with sensible defaults. Endpoints
// must still be provided before the config validates.
func DefaultConfig() *Config {
	return &Config{
		Endpoints:           "localhost:6379",
		ConnectionCount:     4,
		ConnectTimeout:      5 * time.Second,
		CommandTimeout:      3 * time.Second,
		DefaultTTL:          30 * time.Minute,
		KeyPrefix:           "",
		MaxKeyLength:        1024,
		EnableCompression:   false,
		EnableKeyHashing:    false,
		CachingEnabled:      true,
		HealthCheckInterval: 5 * time.Second,
		MaxPendingWrites:    500,
		Retry: RetryConfig{
			MaxRetries: 3,
			MinBackoff: 100 * time.Millisecond,
			MaxBackoff: 2 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled:   false,
			AgentAddr: "127.0.0.1:8125",
			Prefix:    "cachegate",
			Tags:      []string{},
		},
	}
}

// ForTesting returns a minimal configuration pointed at addr, suitable for
// unit tests against an in-memory server.
func ForTesting(addr string) *Config {
	return &Config{
		Endpoints:           addr,
		ConnectionCount:     1,
		ConnectTimeout:      1 * time.Second,
		CommandTimeout:      1 * time.Second,
		DefaultTTL:          1 * time.Minute,
		KeyPrefix:           "test",
		MaxKeyLength:        1024,
		CachingEnabled:      true,
		HealthCheckInterval: 0, // no background pings in tests
		MaxPendingWrites:    50,
		Retry: RetryConfig{
			MaxRetries: 1,
			MinBackoff: 10 * time.Millisecond,
			MaxBackoff: 100 * time.Millisecond,
		},
	}
}
