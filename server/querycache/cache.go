package querycache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/meetandfeat/web/internal/xtime"
)

const defaultFetchTimeout = 10 * time.Second

type Status int

const (
	StatusIdle Status = iota
	StatusFetching
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusFetching:
		return "fetching"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Fetcher loads the data for a key. It receives a context detached from the caller.
type Fetcher func(ctx context.Context) (any, error)

// Snapshot is a point in time view of a cache entry.
type Snapshot struct {
	Key        Key
	Status     Status
	Data       any
	Err        error
	Stale      bool
	UpdatedAt  time.Time
	Generation uint64
	Observers  int
}

type entry struct {
	key Key
	// status is the state of the last settled fetch; an in-flight fetch is tracked by inflight.
	status     Status
	data       any
	err        error
	stale      bool
	updatedAt  time.Time
	generation uint64
	fetcher    Fetcher
	inflight   chan struct{}
	waiters    int
	observers  map[int]chan struct{}
	lastUsed   time.Time
}

func (e *entry) fresh(now time.Time, staleTime time.Duration) bool {
	return e.status == StatusSuccess && !e.stale && now.Sub(e.updatedAt) < staleTime
}

func (e *entry) wanted() bool {
	return e.waiters > 0 || len(e.observers) > 0
}

// Cache stores query results by Key. Concurrent requests for the same key share
// one in-flight fetch, and results from fetches that started before an
// invalidation of their key are never stored.
type Cache struct {
	cfg            Config
	now            func() time.Time
	mu             sync.Mutex
	entries        map[Key]*entry
	nextObserverID int
	done           chan struct{}
	closeOnce      sync.Once
}

func New(cfg Config) *Cache {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = xtime.Duration(defaultFetchTimeout)
	}

	c := &Cache{
		cfg:     cfg,
		now:     time.Now,
		entries: make(map[Key]*entry),
		done:    make(chan struct{}),
	}

	if cfg.GCTime > 0 {
		go c.cleanupEntries()
	}

	return c
}

// Close stops the garbage collection loop.
func (c *Cache) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

func (c *Cache) cleanupEntries() {
	interval := max(c.cfg.GCTime.Std()/2, time.Second)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.collect()
		}
	}
}

func (c *Cache) collect() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	var removed int
	for key, e := range c.entries {
		if e.wanted() || e.inflight != nil {
			continue
		}
		if now.Sub(e.lastUsed) < c.cfg.GCTime.Std() {
			continue
		}
		delete(c.entries, key)
		removed++
	}
	if removed > 0 {
		slog.Debug("removed unused cache entries", slog.Int("count", removed))
	}
	return removed
}

func (c *Cache) entry(key Key) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{
			key:       key,
			observers: make(map[int]chan struct{}),
		}
		c.entries[key] = e
	}
	e.lastUsed = c.now()
	return e
}

// Get returns the cached data for key when it is fresh. Otherwise it waits for
// a fetch, joining the one in flight if there is one.
func (c *Cache) Get(ctx context.Context, key Key, fetcher Fetcher) (any, error) {
	c.mu.Lock()
	e := c.entry(key)
	if fetcher != nil {
		e.fetcher = fetcher
	}
	if e.fresh(c.now(), c.cfg.StaleTime.Std()) {
		data := e.data
		c.mu.Unlock()
		return data, nil
	}
	if e.fetcher == nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("no fetcher registered for %s", key)
	}
	done := c.fetchLocked(ctx, e)
	e.waiters++
	c.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
		c.mu.Lock()
		e.waiters--
		c.mu.Unlock()
		return nil, ctx.Err()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	e.waiters--
	if e.status == StatusError {
		return nil, e.err
	}
	return e.data, nil
}

// Peek returns the cached data for key without fetching.
func (c *Cache) Peek(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || e.status != StatusSuccess {
		return nil, false
	}
	return e.data, true
}

func (c *Cache) Snapshot(key Key) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return Snapshot{Key: key, Status: StatusIdle}
	}
	return c.snapshotLocked(e)
}

func (c *Cache) snapshotLocked(e *entry) Snapshot {
	status := e.status
	if e.inflight != nil {
		status = StatusFetching
	}
	return Snapshot{
		Key:        e.key,
		Status:     status,
		Data:       e.data,
		Err:        e.err,
		Stale:      e.stale,
		UpdatedAt:  e.updatedAt,
		Generation: e.generation,
		Observers:  len(e.observers),
	}
}

// Status returns the state of the entry for key.
func (c *Cache) Status(key Key) Status {
	return c.Snapshot(key).Status
}

// Keys returns all keys currently held in the cache.
func (c *Cache) Keys() []Key {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]Key, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	return keys
}

// Invalidate marks every entry matching one of the patterns as stale. Entries
// with observers move to fetching before Invalidate returns. Entries without
// observers are refetched on their next Get.
func (c *Cache) Invalidate(patterns ...Key) []Key {
	c.mu.Lock()
	defer c.mu.Unlock()

	var invalidated []Key
	for key, e := range c.entries {
		if !matchesAny(key, patterns) {
			continue
		}
		e.generation++
		e.stale = true
		invalidated = append(invalidated, key)

		if len(e.observers) > 0 && e.fetcher != nil {
			c.fetchLocked(context.Background(), e)
		}
	}
	return invalidated
}

// Observe registers interest in key. The returned channel receives a value
// after every settled fetch of key. If the entry is missing or stale a fetch is
// started. Call cancel to stop observing.
func (c *Cache) Observe(key Key, fetcher Fetcher) (func(), <-chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entry(key)
	if fetcher != nil {
		e.fetcher = fetcher
	}

	id := c.nextObserverID
	c.nextObserverID++
	ch := make(chan struct{}, 1)
	e.observers[id] = ch

	if !e.fresh(c.now(), c.cfg.StaleTime.Std()) && e.fetcher != nil {
		c.fetchLocked(context.Background(), e)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			delete(e.observers, id)
			e.lastUsed = c.now()
			close(ch)
		})
	}, ch
}

func (c *Cache) fetchLocked(ctx context.Context, e *entry) <-chan struct{} {
	if e.inflight != nil {
		return e.inflight
	}
	done := make(chan struct{})
	e.inflight = done
	go c.run(context.WithoutCancel(ctx), e, done)
	return done
}

func (c *Cache) run(ctx context.Context, e *entry, done chan struct{}) {
	for {
		c.mu.Lock()
		generation := e.generation
		fetcher := e.fetcher
		c.mu.Unlock()

		data, err := c.fetch(ctx, e.key, fetcher)

		c.mu.Lock()
		if e.generation != generation {
			if e.wanted() {
				c.mu.Unlock()
				slog.DebugContext(ctx, "discarding result of invalidated fetch", slog.String("key", e.key.String()))
				continue
			}
			// nobody is waiting, leave the entry stale for the next Get
			e.inflight = nil
			close(done)
			c.mu.Unlock()
			return
		}

		if err != nil {
			e.status = StatusError
			e.err = err
		} else {
			e.status = StatusSuccess
			e.data = data
			e.err = nil
			e.stale = false
		}
		e.updatedAt = c.now()
		e.inflight = nil
		close(done)

		for _, ch := range e.observers {
			select {
			case ch <- struct{}{}:
			default:
			}
		}
		c.mu.Unlock()
		return
	}
}

func (c *Cache) fetch(ctx context.Context, key Key, fetcher Fetcher) (data any, err error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.FetchTimeout.Std())
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fetch of %s panicked: %v", key, r)
		}
	}()

	data, err = fetcher(ctx)
	if err != nil {
		slog.DebugContext(ctx, "query fetch failed", slog.String("key", key.String()), slog.Any("err", err))
	}
	return data, err
}

// Query is a typed wrapper around Cache.Get.
func Query[T any](ctx context.Context, c *Cache, key Key, fetch func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	data, err := c.Get(ctx, key, func(ctx context.Context) (any, error) {
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		return v, nil
	})
	if err != nil {
		return zero, err
	}
	v, ok := data.(T)
	if !ok {
		return zero, fmt.Errorf("unexpected cached type %T for %s", data, key)
	}
	return v, nil
}
