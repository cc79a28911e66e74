// Package config provides configuration for the cachegate service.
package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/mbroughton/cachegate/internal/types"
)

// Config contains all settings for the cachegate service. It is validated
// once at startup and treated as immutable afterwards.
//
//nolint:govet // Configuration struct - logical grouping prioritized over alignment
type Config struct {
	// Endpoints is a semicolon-delimited list of host:port tokens. Every
	// pooled connection is established against the full list, treating it
	// as one logical cluster address.
	Endpoints string `json:"endpoints"`

	// ConnectionCount is the number of independent pooled connections.
	ConnectionCount int `json:"connectionCount"`

	ConnectTimeout time.Duration `json:"connectTimeout"`
	CommandTimeout time.Duration `json:"commandTimeout"`

	Username string `json:"username"`
	Password Secret `json:"password"`

	DefaultTTL   time.Duration `json:"defaultTTL"`
	KeyPrefix    string        `json:"keyPrefix"`
	MaxKeyLength int           `json:"maxKeyLength"`

	EnableCompression bool `json:"enableCompression"`
	EnableKeyHashing  bool `json:"enableKeyHashing"`

	// CachingEnabled toggles the whole service. When false, lookups are
	// never attempted and cache-aside calls go straight to the factory.
	CachingEnabled bool `json:"cachingEnabled"`

	// HealthCheckInterval controls how often pooled connections are pinged.
	// Zero disables the background health loop.
	HealthCheckInterval time.Duration `json:"healthCheckInterval"`

	// MaxPendingWrites bounds the fire-and-forget write queue.
	MaxPendingWrites int `json:"maxPendingWrites"`

	Retry   RetryConfig   `json:"retry"`
	Metrics MetricsConfig `json:"metrics"`
}

// RetryConfig bounds the transport's reconnect attempts. Mapped directly
// onto go-redis retry options.
type RetryConfig struct {
	MaxRetries int           `json:"maxRetries"`
	MinBackoff time.Duration `json:"minBackoff"`
	MaxBackoff time.Duration `json:"maxBackoff"`
}

// MetricsConfig contains configuration for StatsD metrics publishing.
type MetricsConfig struct {
	Tags      []string `json:"tags"`
	AgentAddr string   `json:"agentAddr"`
	Prefix    string   `json:"prefix"`
	Enabled   bool     `json:"enabled"`
}

// EndpointList splits the semicolon-delimited endpoint string, dropping
// empty tokens.
func (c *Config) EndpointList() []string {
	parts := strings.Split(c.Endpoints, ";")
	endpoints := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			endpoints = append(endpoints, p)
		}
	}
	return endpoints
}

// Validate checks the configuration and fails fast on the first violation.
// All returned errors wrap types.ErrInvalidConfig.
func (c *Config) Validate() error {
	endpoints := c.EndpointList()
	if len(endpoints) == 0 {
		return fmt.Errorf("%w: endpoint list is empty", types.ErrInvalidConfig)
	}
	for _, ep := range endpoints {
		if _, _, err := net.SplitHostPort(ep); err != nil {
			return fmt.Errorf("%w: endpoint %q is not host:port", types.ErrInvalidConfig, ep)
		}
	}
	if c.ConnectionCount < 1 {
		return fmt.Errorf("%w: connection count must be at least 1, got %d", types.ErrInvalidConfig, c.ConnectionCount)
	}
	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("%w: connect timeout must be positive, got %v", types.ErrInvalidConfig, c.ConnectTimeout)
	}
	if c.CommandTimeout <= 0 {
		return fmt.Errorf("%w: command timeout must be positive, got %v", types.ErrInvalidConfig, c.CommandTimeout)
	}
	if c.MaxKeyLength < 0 {
		return fmt.Errorf("%w: max key length must not be negative, got %d", types.ErrInvalidConfig, c.MaxKeyLength)
	}
	return nil
}
