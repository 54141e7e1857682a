// Package notices aggregates server-reported deprecation warnings.
package notices

import (
	"sync"

	"github.com/pinctl/pinctl/internal/api"
)

// Aggregator keeps a deduplicated, update-in-place list of deprecation
// notices keyed by endpoint name. Dismissal is ephemeral: the list is
// repopulated on the next merge.
type Aggregator struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]api.DeprecationNotice
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		entries: make(map[string]api.DeprecationNotice),
	}
}

// Merge folds incoming notices into the list. A notice for an endpoint that
// is already present updates its hit count and hints in place; new endpoints
// are appended in arrival order.
func (a *Aggregator) Merge(incoming []api.DeprecationNotice) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, n := range incoming {
		if n.Endpoint == "" {
			continue
		}
		if _, ok := a.entries[n.Endpoint]; !ok {
			a.order = append(a.order, n.Endpoint)
		}
		a.entries[n.Endpoint] = n
	}
}

// List returns the current notices in first-seen order.
func (a *Aggregator) List() []api.DeprecationNotice {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]api.DeprecationNotice, 0, len(a.order))
	for _, name := range a.order {
		out = append(out, a.entries[name])
	}
	return out
}

// Len returns the number of distinct deprecated endpoints.
func (a *Aggregator) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.order)
}

// DismissAll clears the in-memory list. Nothing is persisted; the next
// merge repopulates it.
func (a *Aggregator) DismissAll() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.order = nil
	a.entries = make(map[string]api.DeprecationNotice)
}
