package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/homeward/internal/logging"
	"github.com/aretw0/homeward/pkg/domain"
	"github.com/aretw0/homeward/pkg/ports"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the number of snapshots kept in memory.
const DefaultCacheSize = 256

// DefaultLockTTL is how long a distributed lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates access to vehicle sessions, ensuring safe concurrent operations.
// It uses reference counting to garbage collect unused locks and a bounded
// read-through cache in front of the store.
type Manager struct {
	store ports.SnapshotStore
	cache *lru.Cache[string, *domain.Snapshot]

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithCacheSize bounds the snapshot cache. Zero or less disables caching.
func WithCacheSize(size int) Option {
	return func(m *Manager) {
		if size <= 0 {
			m.cache = nil
			return
		}
		m.cache, _ = lru.New[string, *domain.Snapshot](size)
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new Session Manager with the given persistence store.
func NewManager(store ports.SnapshotStore, opts ...Option) *Manager {
	cache, _ := lru.New[string, *domain.Snapshot](DefaultCacheSize)
	m := &Manager{
		store:   store,
		cache:   cache,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(vehicleID) after unlocking.
func (m *Manager) acquire(vehicleID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[vehicleID]
	if !exists {
		entry = &lockEntry{}
		m.locks[vehicleID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(vehicleID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[vehicleID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, vehicleID)
	}
}

// Load retrieves a session, from the cache when possible.
func (m *Manager) Load(ctx context.Context, vehicleID string) (*domain.Snapshot, error) {
	var snap *domain.Snapshot
	err := m.WithLock(ctx, vehicleID, func(ctx context.Context) error {
		var err error
		snap, err = m.load(ctx, vehicleID)
		return err
	})
	return snap, err
}

func (m *Manager) load(ctx context.Context, vehicleID string) (*domain.Snapshot, error) {
	if m.cache != nil {
		if snap, ok := m.cache.Get(vehicleID); ok {
			return snap.Clone(), nil
		}
	}
	snap, err := m.store.Load(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if m.cache != nil {
		m.cache.Add(vehicleID, snap.Clone())
	}
	return snap, nil
}

// LoadOrStart loads a session. If none exists, a fresh one is created and
// persisted immediately to reserve the ID.
func (m *Manager) LoadOrStart(ctx context.Context, vehicleID string) (*domain.Snapshot, bool, error) {
	var snap *domain.Snapshot
	var loaded bool
	err := m.WithLock(ctx, vehicleID, func(ctx context.Context) error {
		var err error
		snap, err = m.load(ctx, vehicleID)
		if err == nil {
			loaded = true
			return nil
		}
		if !errors.Is(err, domain.ErrSessionNotFound) {
			return fmt.Errorf("failed to check session existence: %w", err)
		}

		snap = domain.NewSnapshot(vehicleID)
		return m.save(ctx, vehicleID, snap)
	})
	return snap, loaded, err
}

// Save persists the session snapshot.
func (m *Manager) Save(ctx context.Context, vehicleID string, snap *domain.Snapshot) error {
	return m.WithLock(ctx, vehicleID, func(ctx context.Context) error {
		return m.save(ctx, vehicleID, snap)
	})
}

func (m *Manager) save(ctx context.Context, vehicleID string, snap *domain.Snapshot) error {
	if err := m.store.Save(ctx, vehicleID, snap); err != nil {
		if m.cache != nil {
			m.cache.Remove(vehicleID)
		}
		return fmt.Errorf("failed to save session %s: %w", vehicleID, err)
	}
	if m.cache != nil {
		m.cache.Add(vehicleID, snap.Clone())
	}
	return nil
}

// Update applies fn to the stored snapshot and saves the result atomically
// with respect to other Manager calls for the same vehicle.
func (m *Manager) Update(ctx context.Context, vehicleID string, fn func(*domain.Snapshot) error) (*domain.Snapshot, error) {
	var snap *domain.Snapshot
	err := m.WithLock(ctx, vehicleID, func(ctx context.Context) error {
		var err error
		snap, err = m.load(ctx, vehicleID)
		if err != nil {
			return err
		}
		if err := fn(snap); err != nil {
			return err
		}
		return m.save(ctx, vehicleID, snap)
	})
	return snap, err
}

// Delete removes the session from the store.
func (m *Manager) Delete(ctx context.Context, vehicleID string) error {
	return m.WithLock(ctx, vehicleID, func(ctx context.Context) error {
		if m.cache != nil {
			m.cache.Remove(vehicleID)
		}
		return m.store.Delete(ctx, vehicleID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying snapshot store.
func (m *Manager) Store() ports.SnapshotStore {
	return m.store
}

// WithLock executes a function while holding the lock for the vehicle.
func (m *Manager) WithLock(ctx context.Context, vehicleID string, fn func(context.Context) error) error {
	entry := m.acquire(vehicleID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(vehicleID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, vehicleID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"vehicle", vehicleID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
