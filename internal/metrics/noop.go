// Package metrics provides cache operation metrics recording.
package metrics

import (
	"time"

	"github.com/mbroughton/cachegate/internal/types"
)

// NoOp is a no-operation metrics recorder used when metrics are disabled.
type NoOp struct{}

// NewNoOp creates a new no-op recorder.
func NewNoOp() *NoOp {
	return &NoOp{}
}

// RecordHit does nothing.
func (n *NoOp) RecordHit(key string, latency time.Duration) {}

// RecordMiss does nothing.
func (n *NoOp) RecordMiss(key string, latency time.Duration) {}

// RecordSet does nothing.
func (n *NoOp) RecordSet(key string, size int, latency time.Duration) {}

// RecordDelete does nothing.
func (n *NoOp) RecordDelete(key string, latency time.Duration) {}

// RecordError does nothing.
func (n *NoOp) RecordError(op string, err error) {}

// RecordConnectionStateChange does nothing.
func (n *NoOp) RecordConnectionStateChange(slot int, connected bool) {}

var _ types.MetricsRecorder = (*NoOp)(nil)
