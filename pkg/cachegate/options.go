package cachegate

import (
	"log/slog"

	"github.com/mbroughton/cachegate/internal/types"
)

// ServiceOptions holds construction-time dependencies for the service.
type ServiceOptions struct {
	// Logger is the structured logger to use.
	Logger *slog.Logger

	// Metrics is the metrics recorder. Defaults to the StatsD recorder
	// when enabled in config, a no-op otherwise.
	Metrics types.MetricsRecorder

	// Serializer overrides the default MessagePack serializer.
	Serializer types.Serializer

	// Provider replaces the pooled storage provider entirely. Intended
	// for tests and custom backends; when set, no pool is constructed.
	Provider types.StorageProvider
}

// ServiceOption is a functional option for New.
type ServiceOption func(*ServiceOptions)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(o *ServiceOptions) {
		o.Logger = logger
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(recorder types.MetricsRecorder) ServiceOption {
	return func(o *ServiceOptions) {
		o.Metrics = recorder
	}
}

// WithSerializer sets the value serializer.
func WithSerializer(serializer types.Serializer) ServiceOption {
	return func(o *ServiceOptions) {
		o.Serializer = serializer
	}
}

// WithProvider sets the storage provider, bypassing pool construction.
func WithProvider(p types.StorageProvider) ServiceOption {
	return func(o *ServiceOptions) {
		o.Provider = p
	}
}
