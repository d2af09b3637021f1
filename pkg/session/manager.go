package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/loom/internal/logging"
	"github.com/aretw0/loom/pkg/domain"
	"github.com/aretw0/loom/pkg/ports"
	"github.com/aretw0/loom/pkg/state"
)

// DefaultLockTTL bounds how long a crashed replica can hold a blueprint lock.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager serializes runs per blueprint key and checkpoints state after each run.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	next ports.BlueprintRunner

	mu    sync.Mutex            // guards locks
	locks map[string]*lockEntry // active locks by blueprint key

	store    ports.StateStore
	snapshot func() map[string]any
	saveMu   sync.Mutex
	saved    map[string]any // last checkpointed snapshot
	hasSaved bool

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithStore checkpoints snapshot() to store after every run.
func WithStore(store ports.StateStore, snapshot func() map[string]any) Option {
	return func(m *Manager) {
		m.store = store
		m.snapshot = snapshot
	}
}

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(m *Manager) {
		m.locker = locker
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager wraps next.
func NewManager(next ports.BlueprintRunner, opts ...Option) *Manager {
	m := &Manager{
		next:    next,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RunBlueprint runs the blueprint while holding its lock, then checkpoints the state.
// A failed checkpoint is logged; the run result is still returned.
func (m *Manager) RunBlueprint(ctx context.Context, key string, payload any) (*domain.RunResult, error) {
	var res *domain.RunResult
	err := m.WithLock(ctx, key, func(ctx context.Context) error {
		var runErr error
		res, runErr = m.next.RunBlueprint(ctx, key, payload)
		if err := m.Checkpoint(); err != nil {
			m.logger.Warn("State checkpoint failed", "blueprint", key, "err", err)
		}
		return runErr
	})
	return res, err
}

// Blueprints delegates to the wrapped runner.
func (m *Manager) Blueprints() []domain.BlueprintInfo {
	return m.next.Blueprints()
}

// Checkpoint saves the current snapshot unless it equals the last one saved.
// It is a no-op without a store.
func (m *Manager) Checkpoint() error {
	if m.store == nil {
		return nil
	}
	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	snap := m.snapshot()
	if m.hasSaved && state.Diff(m.saved, snap) == nil {
		return nil
	}
	if err := m.store.Save(snap); err != nil {
		return err
	}
	m.saved, m.hasSaved = snap, true
	return nil
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(key) after unlocking.
func (m *Manager) acquire(key string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		entry = &lockEntry{}
		m.locks[key] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, key)
	}
}

// WithLock executes fn while holding the lock for key.
func (m *Manager) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	entry := m.acquire(key)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(key)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, "blueprint:"+key, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			// The caller's context may already be done; the lock still has to go.
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"blueprint", key,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
