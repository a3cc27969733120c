package threatintel

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/trustlens/trustlens/pkg/duration"
)

type cacheEntry struct {
	signal    *Signal // nil means the source had no data for the host
	fetchedAt time.Time
}

// Cache is a read-through wrapper around a Client. Entries live for a
// TTL; when a refresh fails and a stale entry exists, the stale entry
// is served rather than surfacing the error. Writes are idempotent
// upserts, so concurrent lookups for the same host may both hit the
// upstream but cannot corrupt the cache.
type Cache struct {
	client Client
	ttl    time.Duration
	logger *slog.Logger

	mu      sync.RWMutex
	entries map[string]cacheEntry
	now     func() time.Time
}

// NewCache wraps client with a read-through cache using the default
// intel TTL.
func NewCache(client Client, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		client:  client,
		ttl:     duration.IntelCacheTTL,
		logger:  logger,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// Name returns the underlying client's source identifier.
func (c *Cache) Name() string { return c.client.Name() }

// Lookup returns the cached signal for host, refreshing it from the
// upstream client when the entry is missing or expired.
func (c *Cache) Lookup(ctx context.Context, host string) (*Signal, error) {
	c.mu.RLock()
	entry, ok := c.entries[host]
	c.mu.RUnlock()

	if ok && c.now().Sub(entry.fetchedAt) < c.ttl {
		return entry.signal, nil
	}

	sig, err := c.client.Lookup(ctx, host)
	if err != nil {
		if ok {
			c.logger.Warn("threat intel refresh failed, serving stale entry",
				"host", host,
				"age", c.now().Sub(entry.fetchedAt).String(),
				"error", err)
			return entry.signal, nil
		}
		return nil, err
	}

	c.mu.Lock()
	c.entries[host] = cacheEntry{signal: sig, fetchedAt: c.now()}
	c.mu.Unlock()
	return sig, nil
}

// Len reports the number of cached hosts.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
