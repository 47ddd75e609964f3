// Package ratelimit provides per-identity request rate limiting.
//
// The limiter uses fixed one-minute windows: each identity's counter lives
// in a bucket keyed by the window start and resets implicitly when the
// window rolls over. Every attempt is recorded, including rejected ones, so
// hammering while limited does not shorten the wait.
package ratelimit

import (
	"sync"
	"time"
)

// DefaultWindow is the span of one rate-limit window.
const DefaultWindow = time.Minute

// Store keeps per-identity window counters.
type Store interface {
	// Incr records an attempt in the window starting at windowStart and
	// returns the attempt count for that window including this one.
	Incr(key string, windowStart time.Time) int
	// Sweep drops windows that started before cutoff, returning how many
	// were removed.
	Sweep(cutoff time.Time) int
}

// Limiter enforces a requests-per-window ceiling per identity key.
type Limiter struct {
	store  Store
	window time.Duration
	now    func() time.Time
	stop   chan struct{}
	once   sync.Once
}

// Option configures the limiter.
type Option func(*Limiter)

// WithClock overrides the clock (for tests).
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// WithStore overrides the backing store.
func WithStore(s Store) Option {
	return func(l *Limiter) {
		l.store = s
	}
}

// New creates a limiter with one-minute fixed windows.
func New(opts ...Option) *Limiter {
	l := &Limiter{
		store:  NewMemoryStore(),
		window: DefaultWindow,
		now:    time.Now,
		stop:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow records an attempt for the key and reports whether it is within the
// limit for the current window.
func (l *Limiter) Allow(key string, limit int) bool {
	windowStart := l.now().Truncate(l.window)
	count := l.store.Incr(key, windowStart)
	return count <= limit
}

// StartSweeper runs a background loop that evicts stale windows every
// interval. Stop with Stop.
func (l *Limiter) StartSweeper(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				// Keep the current and previous window; drop older.
				l.store.Sweep(l.now().Add(-2 * l.window))
			case <-l.stop:
				return
			}
		}
	}()
}

// Stop terminates the sweeper goroutine.
func (l *Limiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}

// Windows reports how many identity windows the store is tracking, or 0
// when the store cannot say.
func (l *Limiter) Windows() int {
	if s, ok := l.store.(interface{ Size() int }); ok {
		return s.Size()
	}
	return 0
}

// MemoryStore is the in-process Store implementation.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*windowEntry
}

type windowEntry struct {
	count       int
	windowStart time.Time
}

// NewMemoryStore creates an empty in-memory window store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*windowEntry)}
}

func (m *MemoryStore) Incr(key string, windowStart time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok || !entry.windowStart.Equal(windowStart) {
		m.entries[key] = &windowEntry{count: 1, windowStart: windowStart}
		return 1
	}
	entry.count++
	return entry.count
}

func (m *MemoryStore) Sweep(cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, entry := range m.entries {
		if entry.windowStart.Before(cutoff) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed
}

// Size returns the number of tracked identities (for metrics).
func (m *MemoryStore) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

var _ Store = (*MemoryStore)(nil)
