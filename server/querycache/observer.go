package querycache

import (
	"context"
	"sync"
)

// Observer follows one key at a time. When the key changes, results for the
// previous key are never returned, so the latest key always wins.
type Observer struct {
	cache *Cache

	mu      sync.Mutex
	key     Key
	fetcher Fetcher
	version uint64
	cancel  func()
	ch      <-chan struct{}
	updates chan struct{}
	closed  bool
}

func (c *Cache) NewObserver() *Observer {
	return &Observer{
		cache:   c,
		updates: make(chan struct{}, 1),
	}
}

// SetKey switches the observer to key. A no-op if key is already observed.
func (o *Observer) SetKey(key Key, fetcher Fetcher) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}
	if o.cancel != nil && o.key == key {
		o.fetcher = fetcher
		return
	}
	if o.cancel != nil {
		o.cancel()
	}

	o.key = key
	o.fetcher = fetcher
	o.version++
	o.cancel, o.ch = o.cache.Observe(key, fetcher)
	go o.forward(o.ch)
}

func (o *Observer) forward(ch <-chan struct{}) {
	for range ch {
		select {
		case o.updates <- struct{}{}:
		default:
		}
	}
}

// Key returns the currently observed key.
func (o *Observer) Key() Key {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.key
}

// Updates receives a value whenever the observed key settles a fetch.
func (o *Observer) Updates() <-chan struct{} {
	return o.updates
}

func (o *Observer) Snapshot() Snapshot {
	return o.cache.Snapshot(o.Key())
}

// Result waits for the data of the current key. If the key changes while
// waiting, the result for the old key is dropped and the new key is awaited.
func (o *Observer) Result(ctx context.Context) (Key, any, error) {
	for {
		o.mu.Lock()
		key, fetcher, version := o.key, o.fetcher, o.version
		o.mu.Unlock()

		data, err := o.cache.Get(ctx, key, fetcher)

		o.mu.Lock()
		current := o.version
		o.mu.Unlock()

		if current == version || ctx.Err() != nil {
			return key, data, err
		}
	}
}

func (o *Observer) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}
	o.closed = true
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
}
