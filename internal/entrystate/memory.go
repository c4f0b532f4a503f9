package entrystate

import (
	"context"
	"strings"
	"sync"

	"github.com/merev/scorecard-api/internal/scoring"
)

// MemoryCache is a process-local Cache, used when no redis is configured.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string][]byte)}
}

func (c *MemoryCache) Save(_ context.Context, key Key, state scoring.EntryState) error {
	data, err := encode(state)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.entries[key.String()] = data
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Load(_ context.Context, key Key) (scoring.EntryState, error) {
	c.mu.RLock()
	data, ok := c.entries[key.String()]
	c.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return decode(data)
}

func (c *MemoryCache) Delete(_ context.Context, key Key) error {
	c.mu.Lock()
	delete(c.entries, key.String())
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) ClearSession(_ context.Context, session string) error {
	prefixes := sessionPrefixes(session)
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		for _, p := range prefixes {
			if strings.HasPrefix(k, p) {
				delete(c.entries, k)
				break
			}
		}
	}
	return nil
}
