package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/trezcool/csiportal/core"
)

const (
	DefaultIdleTimeout = 30 * time.Minute
	DefaultMaxLive     = 10000
)

type (
	ManagerOptions struct {
		// IdleTimeout is how long an unused Store stays in memory.
		IdleTimeout time.Duration
		// MaxLive caps the number of Stores kept in memory.
		MaxLive int
		// OnRelease is called, outside of the Manager lock, with the handles whose Store was dropped.
		OnRelease func(handles ...string)
	}

	// Manager hands out one Store per session handle.
	//
	// Stores are only a cache of the persisted sessions: a Store that is idle, without watchers
	// nor authentication in flight, may be dropped at any time and is restored on next use.
	Manager struct {
		storage Storage
		opts    Options
		mopts   ManagerOptions
		logger  core.Logger

		mu     sync.Mutex
		stores map[string]*liveStore
	}

	liveStore struct {
		*Store
		lastUsed time.Time
	}
)

func NewManager(storage Storage, opts Options, mopts ...ManagerOptions) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = core.NopLogger()
	}
	var mo ManagerOptions
	if len(mopts) > 0 {
		mo = mopts[0]
	}
	if mo.IdleTimeout <= 0 {
		mo.IdleTimeout = DefaultIdleTimeout
	}
	if mo.MaxLive <= 0 {
		mo.MaxLive = DefaultMaxLive
	}
	return &Manager{
		storage: storage,
		opts:    opts,
		mopts:   mo,
		logger:  logger,
		stores:  make(map[string]*liveStore),
	}
}

// Get returns the Store of handle, restoring it from storage on first use.
// A restore failure is logged, leaves the Store unauthenticated and is retried by the next Get.
func (m *Manager) Get(ctx context.Context, handle string) *Store {
	m.mu.Lock()
	ls, ok := m.stores[handle]
	if !ok {
		ls = &liveStore{Store: NewStore(m.storage, StorageKey(handle), m.opts)}
		m.stores[handle] = ls
		m.logger.Debug("session opened", core.SessionHandle(handle))
	}
	ls.lastUsed = time.Now()

	var released []string
	if over := len(m.stores) - m.mopts.MaxLive; over > 0 {
		released = m.evictLocked(over, handle)
	}
	m.mu.Unlock()

	m.release(released)
	_ = ls.restore(ctx)
	return ls.Store
}

// Forget drops the in-memory Store of handle. Its persisted Identity is kept.
func (m *Manager) Forget(handle string) {
	m.mu.Lock()
	_, ok := m.stores[handle]
	delete(m.stores, handle)
	m.mu.Unlock()

	if ok {
		m.release([]string{handle})
	}
}

// Sweep drops the idle Stores unused since IdleTimeout before now, and returns how many it dropped.
func (m *Manager) Sweep(now time.Time) int {
	m.mu.Lock()
	var released []string
	for handle, ls := range m.stores {
		if now.Sub(ls.lastUsed) >= m.mopts.IdleTimeout && ls.idle() {
			delete(m.stores, handle)
			released = append(released, handle)
		}
	}
	m.mu.Unlock()

	m.release(released)
	return len(released)
}

// Run sweeps the idle Stores until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.mopts.IdleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := m.Sweep(now); n > 0 {
				m.logger.Debug("idle sessions released", map[string]interface{}{"count": n})
			}
		}
	}
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stores)
}

// evictLocked drops up to n idle Stores, least recently used first. keep is never dropped.
func (m *Manager) evictLocked(n int, keep string) []string {
	candidates := make([]string, 0, len(m.stores))
	for handle, ls := range m.stores {
		if handle != keep && ls.idle() {
			candidates = append(candidates, handle)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return m.stores[candidates[i]].lastUsed.Before(m.stores[candidates[j]].lastUsed)
	})
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	for _, handle := range candidates {
		delete(m.stores, handle)
	}
	return candidates
}

func (m *Manager) release(handles []string) {
	if len(handles) == 0 || m.mopts.OnRelease == nil {
		return
	}
	m.mopts.OnRelease(handles...)
}
