package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/sajibhub/instagram-downloader/internal/domain"
)

// Options configures the result cache.
type Options struct {
	// TTL is how long a resolved post stays fresh.
	TTL time.Duration

	// CheckInterval is how often the janitor sweeps expired entries.
	// Zero disables the janitor; entries still expire lazily on read.
	CheckInterval time.Duration

	// PersistPath enables SQLite persistence when non-empty, so cached
	// results survive restarts.
	PersistPath string
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Sets      int64 `json:"sets"`
	Evictions int64 `json:"evictions"`
	Keys      int   `json:"keys"`
}

type entry struct {
	post      *domain.ResolvedPost
	expiresAt time.Time
}

// Cache is a TTL cache of resolved posts. Concurrent loads for the same
// key are collapsed into a single computation.
type Cache struct {
	mu    sync.RWMutex
	items map[string]entry
	opts  Options

	hits      atomic.Int64
	misses    atomic.Int64
	sets      atomic.Int64
	evictions atomic.Int64

	sf     singleflight.Group
	store  *sqliteStore
	stop   chan struct{}
	logger *slog.Logger
}

// New creates a cache and starts its janitor. Close must be called to
// release the janitor and any persistence handle.
func New(opts Options, logger *slog.Logger) (*Cache, error) {
	c := &Cache{
		items:  make(map[string]entry),
		opts:   opts,
		stop:   make(chan struct{}),
		logger: logger,
	}

	if opts.PersistPath != "" {
		store, err := newSQLiteStore(opts.PersistPath)
		if err != nil {
			return nil, fmt.Errorf("open cache store: %w", err)
		}
		c.store = store
		logger.Info("cache persistence enabled", "path", opts.PersistPath)
	}

	if opts.CheckInterval > 0 {
		go c.janitor()
	}

	return c, nil
}

// Get returns a fresh cached post for key, consulting the persistent
// store on a memory miss.
func (c *Cache) Get(key string) (*domain.ResolvedPost, bool) {
	now := time.Now()

	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()

	if ok && now.Before(e.expiresAt) {
		c.hits.Add(1)
		return e.post, true
	}

	if c.store != nil {
		if post, expiresAt, ok := c.store.get(key, now); ok {
			c.mu.Lock()
			c.items[key] = entry{post: post, expiresAt: expiresAt}
			c.mu.Unlock()
			c.hits.Add(1)
			return post, true
		}
	}

	c.misses.Add(1)
	return nil, false
}

// Set stores a post under key with the configured TTL.
func (c *Cache) Set(key string, post *domain.ResolvedPost) {
	expiresAt := time.Now().Add(c.opts.TTL)

	c.mu.Lock()
	c.items[key] = entry{post: post, expiresAt: expiresAt}
	c.mu.Unlock()
	c.sets.Add(1)

	if c.store != nil {
		if err := c.store.set(key, post, expiresAt); err != nil {
			c.logger.Warn("cache persistence write failed", "key", key, "error", err)
		}
	}
}

// Loader computes a value on a cache miss.
type Loader func(ctx context.Context) (*domain.ResolvedPost, error)

// GetOrLoad returns the cached post for key, or runs loader and caches
// its result. Concurrent callers for the same key share one loader run.
// Errors are not cached.
func (c *Cache) GetOrLoad(ctx context.Context, key string, loader Loader) (*domain.ResolvedPost, error) {
	if post, ok := c.Get(key); ok {
		return post, nil
	}

	// The run is shared by every collapsed waiter, so it must not die
	// with one caller's request context. The resolver's own timeout
	// still bounds the work.
	loadCtx := context.WithoutCancel(ctx)

	v, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Another caller may have populated the key while we queued.
		if post, ok := c.Get(key); ok {
			return post, nil
		}
		post, err := loader(loadCtx)
		if err != nil {
			return nil, err
		}
		c.Set(key, post)
		return post, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.ResolvedPost), nil
}

// Flush drops every entry from memory and the persistent store.
func (c *Cache) Flush() {
	c.mu.Lock()
	c.items = make(map[string]entry)
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.flush(); err != nil {
			c.logger.Warn("cache persistence flush failed", "error", err)
		}
	}
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	keys := len(c.items)
	c.mu.RUnlock()

	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Sets:      c.sets.Load(),
		Evictions: c.evictions.Load(),
		Keys:      keys,
	}
}

// Close stops the janitor and closes the persistent store.
func (c *Cache) Close() error {
	close(c.stop)
	if c.store != nil {
		return c.store.close()
	}
	return nil
}

func (c *Cache) janitor() {
	ticker := time.NewTicker(c.opts.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case now := <-ticker.C:
			c.purgeExpired(now)
		}
	}
}

func (c *Cache) purgeExpired(now time.Time) {
	c.mu.Lock()
	for key, e := range c.items {
		if !now.Before(e.expiresAt) {
			delete(c.items, key)
			c.evictions.Add(1)
		}
	}
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.purgeExpired(now); err != nil {
			c.logger.Warn("cache persistence purge failed", "error", err)
		}
	}
}
