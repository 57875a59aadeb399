package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/ironflow/internal/logging"
	"github.com/aretw0/ironflow/pkg/domain"
	"github.com/aretw0/ironflow/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed lock is held.
const DefaultLockTTL = 30 * time.Second

// lockEntry is a per-session mutex with the number of callers waiting on it.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager serializes access to stored session documents.
// Lock entries are reference counted and dropped once nobody holds them.
type Manager struct {
	store ports.SessionStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) { m.locker = locker }
}

// WithLockTTL sets the TTL of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) { m.lockTTL = ttl }
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// NewManager creates a Manager in front of store.
func NewManager(store ports.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) acquire(id string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.locks[id]
	if !ok {
		e = &lockEntry{}
		m.locks[id] = e
	}
	e.refs++
	return e
}

func (m *Manager) release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.locks[id]
	if !ok {
		return
	}
	e.refs--
	if e.refs <= 0 {
		delete(m.locks, id)
	}
}

// activeLocks is the number of sessions with a live lock entry.
func (m *Manager) activeLocks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}

// Load retrieves a stored document.
func (m *Manager) Load(ctx context.Context, id string) (*domain.Document, error) {
	var doc *domain.Document
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		doc, err = m.store.Load(ctx, id)
		return err
	})
	return doc, err
}

// LoadOrCreate loads a document, creating and saving an empty one with the
// given title when the session does not exist yet.
func (m *Manager) LoadOrCreate(ctx context.Context, id, title string) (*domain.Document, error) {
	var doc *domain.Document
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		doc, err = m.store.Load(ctx, id)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrSessionNotFound) {
			return fmt.Errorf("failed to check session existence: %w", err)
		}
		doc = domain.NewDocument(title)
		if err := m.store.Save(ctx, id, doc); err != nil {
			return fmt.Errorf("failed to initialize session: %w", err)
		}
		return nil
	})
	return doc, err
}

// Save persists a document.
func (m *Manager) Save(ctx context.Context, id string, doc *domain.Document) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		return m.store.Save(ctx, id, doc)
	})
}

// Update loads a document, lets fn modify it and saves it, all under the
// session lock. Nothing is saved when fn fails.
func (m *Manager) Update(ctx context.Context, id string, fn func(doc *domain.Document) error) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		doc, err := m.store.Load(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
		return m.store.Save(ctx, id, doc)
	})
}

// Delete removes a session from the store.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		return m.store.Delete(ctx, id)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying store.
func (m *Manager) Store() ports.SessionStore { return m.store }

// WithLock runs fn while holding the local and, if configured, the
// distributed lock of the session.
func (m *Manager) WithLock(ctx context.Context, id string, fn func(context.Context) error) error {
	e := m.acquire(id)
	e.mu.Lock()
	defer func() {
		e.mu.Unlock()
		m.release(id)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, id, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("failed to release distributed lock, it will expire",
					"session_id", id,
					"err", err,
				)
			}
		}()
	}
	return fn(ctx)
}
