// Package configcache provides a TTL-bounded, lock-free-read cache of
// per-topic broker configuration. Reads never block a concurrent write;
// writes clone the current snapshot, mutate the clone, and swap it in, the
// same load-then-swap idiom franz-go's own client metadata state uses
// internally.
package configcache

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/flowbase-io/topicmgr/adminwrap"
)

type entry struct {
	cfg       adminwrap.TopicConfig
	fetchedAt time.Time
}

type snapshot map[string]entry

// Cache caches adminwrap.TopicConfig by topic name for a bounded TTL. There
// is no negative caching: a miss always means "ask the broker", never
// "known not to exist".
type Cache struct {
	ttl  time.Duration
	data atomic.Value // snapshot

	mu sync.Mutex // serializes writers; readers never take this
}

// New builds an empty cache with the given TTL. A zero TTL disables
// caching: every Get reports a miss.
func New(ttl time.Duration) *Cache {
	c := &Cache{ttl: ttl}
	c.data.Store(snapshot{})
	return c
}

// Get returns the cached config for topic and whether it is still fresh.
// A stale or absent entry reports (zero value, false).
func (c *Cache) Get(topic string) (adminwrap.TopicConfig, bool) {
	if c.ttl <= 0 {
		return adminwrap.TopicConfig{}, false
	}
	snap := c.data.Load().(snapshot)
	e, ok := snap[topic]
	if !ok {
		return adminwrap.TopicConfig{}, false
	}
	if time.Since(e.fetchedAt) > c.ttl {
		return adminwrap.TopicConfig{}, false
	}
	return e.cfg, true
}

// Put records cfg as the current known configuration for topic, timestamped
// now. The last writer for a topic always wins; there is no compare-and-set.
func (c *Cache) Put(topic string, cfg adminwrap.TopicConfig) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	old := c.data.Load().(snapshot)
	next := make(snapshot, len(old)+1)
	for k, v := range old {
		next[k] = v
	}
	next[topic] = entry{cfg: cfg, fetchedAt: time.Now()}
	c.data.Store(next)
}

// Len reports the number of entries currently cached, fresh or stale.
func (c *Cache) Len() int {
	return len(c.data.Load().(snapshot))
}
