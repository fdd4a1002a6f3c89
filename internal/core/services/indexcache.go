package services

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/docqa/internal/logger"
)

// BuildFunc builds the retriever for a cache key.
type BuildFunc func(ctx context.Context) (*MMRRetriever, error)

// IndexCache is a bounded LRU of built retrievers keyed by document hash.
// Entries are inserted once and never mutated, so a retriever handed out
// stays valid after eviction. Concurrent builds of one key are collapsed.
type IndexCache struct {
	mu       sync.Mutex
	entries  map[string]*MMRRetriever
	order    []string
	capacity int
	group    singleflight.Group
}

// NewIndexCache creates a cache holding up to capacity retrievers.
// A non-positive capacity disables caching; GetOrBuild then always builds.
func NewIndexCache(capacity int) *IndexCache {
	return &IndexCache{
		entries:  make(map[string]*MMRRetriever),
		capacity: capacity,
	}
}

// Enabled returns true if the cache stores anything.
func (c *IndexCache) Enabled() bool {
	return c != nil && c.capacity > 0
}

// Get returns the cached retriever and marks it most recently used.
func (c *IndexCache) Get(key string) (*MMRRetriever, bool) {
	if !c.Enabled() {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.entries[key]
	if ok {
		c.moveToEnd(key)
	}
	return r, ok
}

// GetOrBuild returns the cached retriever for key, building it if absent.
// The bool reports whether the result came from the cache or another
// caller's in-flight build. Failed builds are not cached.
func (c *IndexCache) GetOrBuild(ctx context.Context, key string, build BuildFunc) (*MMRRetriever, bool, error) {
	if !c.Enabled() {
		r, err := build(ctx)
		return r, false, err
	}

	if r, ok := c.Get(key); ok {
		logger.Debug("Index cache hit for %s", key)
		return r, true, nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		if r, ok := c.Get(key); ok {
			return r, nil
		}
		r, err := build(ctx)
		if err != nil {
			return nil, err
		}
		return c.put(key, r), nil
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			// The leader's context may have ended while ours is still live.
			if res.Shared && isContextErr(res.Err) && ctx.Err() == nil {
				r, err := build(ctx)
				if err != nil {
					return nil, false, err
				}
				return c.put(key, r), false, nil
			}
			return nil, false, res.Err
		}
		return res.Val.(*MMRRetriever), res.Shared, nil
	}
}

// Remove drops key from the cache.
func (c *IndexCache) Remove(key string) {
	if !c.Enabled() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		delete(c.entries, key)
		c.removeFromOrder(key)
	}
}

// Len returns the number of cached retrievers.
func (c *IndexCache) Len() int {
	if !c.Enabled() {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// put inserts r unless key is already present, and returns the cached value.
func (c *IndexCache) put(key string, r *MMRRetriever) *MMRRetriever {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[key]; ok {
		c.moveToEnd(key)
		return existing
	}

	if len(c.entries) >= c.capacity {
		c.evictOldest()
	}
	c.entries[key] = r
	c.order = append(c.order, key)
	return r
}

func (c *IndexCache) moveToEnd(key string) {
	c.removeFromOrder(key)
	c.order = append(c.order, key)
}

func (c *IndexCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

func (c *IndexCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
	logger.Debug("Index cache evicted %s", oldest)
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
