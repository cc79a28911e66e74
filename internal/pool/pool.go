// Package pool manages the fixed set of connections to the remote cluster
// and selects one per operation.
package pool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mbroughton/cachegate/internal/config"
	"github.com/mbroughton/cachegate/internal/types"
)

// StateChangeFunc observes liveness transitions of pooled connections.
type StateChangeFunc func(slot int, connected bool)

// Entry is one live connection handle to the cluster. Entries are created at
// startup and never removed or resized; only the liveness flag changes.
type Entry struct {
	client    redis.UniversalClient
	connected atomic.Bool
	slot      int
}

// Manager owns the pool entries and exposes a single logical database handle.
type Manager struct {
	entries       []*Entry
	cfg           *config.Config
	logger        *slog.Logger
	onStateChange atomic.Pointer[StateChangeFunc]

	stopCh chan struct{}
	wg     sync.WaitGroup
	closed atomic.Bool
}

// New establishes ConnectionCount connections, each against the full endpoint
// set. Configuration problems abort construction; an unreachable cluster does
// not. A slot whose initial ping fails starts disconnected and is restored by
// the health loop once the transport reconnects.
func New(cfg *config.Config, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "connection-pool")

	endpoints := cfg.EndpointList()
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("%w: endpoint list is empty", types.ErrInvalidConfig)
	}
	if cfg.ConnectionCount < 1 {
		return nil, fmt.Errorf("%w: connection count must be at least 1", types.ErrInvalidConfig)
	}

	m := &Manager{
		cfg:     cfg,
		logger:  logger,
		entries: make([]*Entry, 0, cfg.ConnectionCount),
		stopCh:  make(chan struct{}),
	}

	for slot := 0; slot < cfg.ConnectionCount; slot++ {
		client := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:           endpoints,
			Username:        cfg.Username,
			Password:        cfg.Password.Value(),
			DialTimeout:     cfg.ConnectTimeout,
			ReadTimeout:     cfg.CommandTimeout,
			WriteTimeout:    cfg.CommandTimeout,
			MaxRetries:      cfg.Retry.MaxRetries,
			MinRetryBackoff: cfg.Retry.MinBackoff,
			MaxRetryBackoff: cfg.Retry.MaxBackoff,
		})

		e := &Entry{client: client, slot: slot}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
		err := client.Ping(ctx).Err()
		cancel()

		if err != nil {
			logger.Warn("initial connection failed, transport will keep retrying",
				"slot", slot, "error", err)
		} else {
			e.connected.Store(true)
			logger.Info("connection established", "slot", slot, "endpoints", endpoints)
		}

		m.entries = append(m.entries, e)
	}

	if cfg.HealthCheckInterval > 0 {
		m.wg.Add(1)
		go m.healthLoop()
	}

	return m, nil
}

// SetOnStateChange registers an observer for liveness transitions. Safe to
// call while the health loop is running.
func (m *Manager) SetOnStateChange(fn StateChangeFunc) {
	m.onStateChange.Store(&fn)
}

// Handle returns one connection for the next operation: a uniform-random
// entry when it is live, otherwise the first connected entry found by linear
// scan. When nothing is connected, the disconnected pick is returned anyway
// and the downstream operation surfaces the transport error.
func (m *Manager) Handle() (redis.UniversalClient, error) {
	e, err := m.pick()
	if err != nil {
		return nil, err
	}
	return e.client, nil
}

func (m *Manager) pick() (*Entry, error) {
	if len(m.entries) == 0 {
		return nil, types.ErrPoolExhausted
	}

	e := m.entries[rand.IntN(len(m.entries))]
	if e.connected.Load() {
		return e, nil
	}

	for _, cand := range m.entries {
		if cand.connected.Load() {
			return cand, nil
		}
	}

	m.logger.Warn("no live connections, returning disconnected handle", "slot", e.slot)
	return e, nil
}

// Len returns the number of pooled connections.
func (m *Manager) Len() int {
	return len(m.entries)
}

// ConnectedCount returns the number of entries currently marked live.
func (m *Manager) ConnectedCount() int {
	n := 0
	for _, e := range m.entries {
		if e.connected.Load() {
			n++
		}
	}
	return n
}

func (m *Manager) healthLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			for _, e := range m.entries {
				m.checkEntry(e)
			}
		}
	}
}

func (m *Manager) checkEntry(e *Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.ConnectTimeout)
	defer cancel()

	if err := e.client.Ping(ctx).Err(); err != nil {
		if e.connected.CompareAndSwap(true, false) {
			m.logger.Warn("connection failed", "slot", e.slot, "error", err)
			m.notify(e.slot, false)
		}
		return
	}

	if e.connected.CompareAndSwap(false, true) {
		m.logger.Info("connection restored", "slot", e.slot)
		m.notify(e.slot, true)
	}
}

func (m *Manager) notify(slot int, connected bool) {
	if fn := m.onStateChange.Load(); fn != nil {
		(*fn)(slot, connected)
	}
}

// Close stops the health loop and releases every pooled connection.
func (m *Manager) Close() error {
	if m.closed.Swap(true) {
		return nil
	}

	close(m.stopCh)
	m.wg.Wait()

	var errs []error
	for _, e := range m.entries {
		e.connected.Store(false)
		if err := e.client.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
