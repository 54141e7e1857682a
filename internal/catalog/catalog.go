// Package catalog caches the list of operations the service declares.
package catalog

import (
	"context"
	"strings"
	"sync"

	"github.com/pinctl/pinctl/internal/api"
)

// Source provides the status snapshot the catalog is derived from.
type Source interface {
	FetchStatus(ctx context.Context) (*api.Snapshot, error)
}

// Cache holds the last-fetched operation list. The catalog is replaced
// wholesale on Reload; there is no incremental merge.
type Cache struct {
	mu     sync.RWMutex
	source Source
	ops    []api.Operation
}

// NewCache creates an empty catalog backed by the given source.
func NewCache(source Source) *Cache {
	return &Cache{source: source}
}

// Reload replaces the entire operation list from the source.
// On error the previous catalog is kept.
func (c *Cache) Reload(ctx context.Context) error {
	snap, err := c.source.FetchStatus(ctx)
	if err != nil {
		return err
	}

	ops := make([]api.Operation, len(snap.Tools))
	copy(ops, snap.Tools)

	c.mu.Lock()
	c.ops = ops
	c.mu.Unlock()
	return nil
}

// Operations returns the last-loaded catalog.
func (c *Cache) Operations() []api.Operation {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]api.Operation, len(c.ops))
	copy(out, c.ops)
	return out
}

// Get returns the named operation and whether it exists.
func (c *Cache) Get(name string) (api.Operation, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, op := range c.ops {
		if op.Name == name {
			return op, true
		}
	}
	return api.Operation{}, false
}

// Filter returns operations whose name contains the substring,
// case-insensitively. Pure: the catalog itself is not mutated.
func (c *Cache) Filter(substring string) []api.Operation {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if substring == "" {
		out := make([]api.Operation, len(c.ops))
		copy(out, c.ops)
		return out
	}

	needle := strings.ToLower(substring)
	var out []api.Operation
	for _, op := range c.ops {
		if strings.Contains(strings.ToLower(op.Name), needle) {
			out = append(out, op)
		}
	}
	return out
}

// Len returns the number of cached operations.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.ops)
}
