package cachegate

import (
	"github.com/mbroughton/cachegate/internal/types"
)

// ProviderError wraps a transport failure on a correctness-critical operation.
type ProviderError = types.ProviderError

// KeyTooLongError reports a constructed storage key over the configured limit.
type KeyTooLongError = types.KeyTooLongError

var (
	// ErrInvalidConfig indicates the configuration failed validation.
	ErrInvalidConfig = types.ErrInvalidConfig
	// ErrPoolExhausted indicates no connections were configured.
	ErrPoolExhausted = types.ErrPoolExhausted
	// ErrKeyTooLong indicates a constructed key exceeds the maximum length.
	ErrKeyTooLong = types.ErrKeyTooLong
	// ErrWriteQueueFull indicates the fire-and-forget queue is full.
	ErrWriteQueueFull = types.ErrWriteQueueFull
	// ErrClosed indicates the provider has been closed.
	ErrClosed = types.ErrClosed
)

// IsKeyTooLong reports whether the error is a key-length violation.
func IsKeyTooLong(err error) bool {
	return types.IsKeyTooLong(err)
}

// IsProviderError reports whether the error wraps a transport failure.
func IsProviderError(err error) bool {
	return types.IsProviderError(err)
}
