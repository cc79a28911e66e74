package metrics

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"

	"github.com/mbroughton/cachegate/internal/config"
	"github.com/mbroughton/cachegate/internal/types"
)

// Statsd records cache metrics through a DataDog StatsD client.
type Statsd struct {
	client *statsd.Client
	logger *slog.Logger
}

// NewStatsd creates a StatsD recorder from config. When metrics are not
// enabled, a NoOp recorder is returned instead.
func NewStatsd(cfg *config.MetricsConfig, logger *slog.Logger) (types.MetricsRecorder, error) {
	if !cfg.Enabled {
		return NewNoOp(), nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := statsd.New(cfg.AgentAddr,
		statsd.WithNamespace(cfg.Prefix+"."),
		statsd.WithTags(cfg.Tags),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create statsd client: %w", err)
	}

	logger.Info("statsd recorder initialized", "address", cfg.AgentAddr, "prefix", cfg.Prefix)

	return &Statsd{
		client: client,
		logger: logger.With("component", "statsd"),
	}, nil
}

// RecordHit increments the hit counter and records lookup latency.
func (s *Statsd) RecordHit(key string, latency time.Duration) {
	s.incr("cache.hit")
	s.timing("cache.get.latency", latency)
}

// RecordMiss increments the miss counter and records lookup latency.
func (s *Statsd) RecordMiss(key string, latency time.Duration) {
	s.incr("cache.miss")
	s.timing("cache.get.latency", latency)
}

// RecordSet increments the set counter and records payload size.
func (s *Statsd) RecordSet(key string, size int, latency time.Duration) {
	s.incr("cache.set")
	if err := s.client.Histogram("cache.set.bytes", float64(size), nil, 1); err != nil {
		s.logger.Debug("failed to send histogram metric", "error", err)
	}
	if latency > 0 {
		s.timing("cache.set.latency", latency)
	}
}

// RecordDelete increments the delete counter.
func (s *Statsd) RecordDelete(key string, latency time.Duration) {
	s.incr("cache.delete")
	s.timing("cache.delete.latency", latency)
}

// RecordError increments the error counter tagged with the operation.
func (s *Statsd) RecordError(op string, err error) {
	if e := s.client.Incr("cache.error", []string{"op:" + op}, 1); e != nil {
		s.logger.Debug("failed to send error metric", "error", e)
	}
}

// RecordConnectionStateChange emits a liveness gauge for the pool slot.
func (s *Statsd) RecordConnectionStateChange(slot int, connected bool) {
	value := 0.0
	if connected {
		value = 1.0
	}
	tags := []string{"slot:" + strconv.Itoa(slot)}
	if err := s.client.Gauge("pool.connected", value, tags, 1); err != nil {
		s.logger.Debug("failed to send gauge metric", "error", err)
	}
}

// Close flushes and releases the underlying StatsD client.
func (s *Statsd) Close() error {
	return s.client.Close()
}

func (s *Statsd) incr(name string) {
	if err := s.client.Incr(name, nil, 1); err != nil {
		s.logger.Debug("failed to send incr metric", "name", name, "error", err)
	}
}

func (s *Statsd) timing(name string, d time.Duration) {
	if err := s.client.Timing(name, d, nil, 1); err != nil {
		s.logger.Debug("failed to send timing metric", "name", name, "error", err)
	}
}

var _ types.MetricsRecorder = (*Statsd)(nil)
