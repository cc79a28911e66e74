package cachegate

import (
	"github.com/mbroughton/cachegate/internal/config"
	"github.com/mbroughton/cachegate/internal/types"
)

type (
	// Config contains all settings for the cache service.
	Config = config.Config
	// RetryConfig bounds the transport's reconnect attempts.
	RetryConfig = config.RetryConfig
	// MetricsConfig contains configuration for StatsD metrics publishing.
	MetricsConfig = config.MetricsConfig
	// Secret holds a credential and redacts it when printed or marshaled.
	Secret = config.Secret

	// StorageProvider is the low-level operation surface against the cluster.
	StorageProvider = types.StorageProvider
	// Serializer encodes values for remote storage.
	Serializer = types.Serializer
	// MetricsRecorder receives cache operation metrics.
	MetricsRecorder = types.MetricsRecorder
	// WriteOption controls how a write is delivered to the cluster.
	WriteOption = types.WriteOption
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return config.DefaultConfig()
}

// TestConfig returns a minimal configuration pointed at addr, suitable for
// tests against an in-memory server.
func TestConfig(addr string) *Config {
	return config.ForTesting(addr)
}

// NewSecret wraps a credential value.
func NewSecret(value string) Secret {
	return config.NewSecret(value)
}

// WithConfirm makes a write wait for cluster acknowledgment instead of
// returning once dispatched.
func WithConfirm() WriteOption {
	return types.WithConfirm()
}
