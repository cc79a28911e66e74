package types

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfig  = errors.New("cachegate: invalid configuration")
	ErrPoolExhausted  = errors.New("cachegate: no connections configured")
	ErrKeyTooLong     = errors.New("cachegate: key exceeds maximum length")
	ErrWriteQueueFull = errors.New("cachegate: write queue full")
	ErrClosed         = errors.New("cachegate: provider closed")
)

// ProviderError wraps a transport failure on a correctness-critical operation.
// Advisory operations (Exists, TimeToLive, Refresh) never produce one; they
// absorb transport failures and return safe defaults instead.
type ProviderError struct {
	Op  string
	Key string
	Err error
}

func (e *ProviderError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("cache %s [%s]: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("cache %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func NewProviderError(op, key string, err error) *ProviderError {
	return &ProviderError{
		Op:  op,
		Key: key,
		Err: err,
	}
}

// KeyTooLongError reports a constructed storage key that exceeds the
// configured limit. The caller can correct it; no remote call was made.
type KeyTooLongError struct {
	Key    string
	Length int
	Limit  int
}

func (e *KeyTooLongError) Error() string {
	return fmt.Sprintf("cachegate: key %q is %d bytes, limit is %d", e.Key, e.Length, e.Limit)
}

func (e *KeyTooLongError) Unwrap() error {
	return ErrKeyTooLong
}

func IsKeyTooLong(err error) bool {
	return errors.Is(err, ErrKeyTooLong)
}

func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}
