package search

import (
	"math"
	"sync"

	"github.com/llmchess/core/rules"
)

// minimaxEntry is a single cache slot: the budget it was (or is being)
// computed under and the shared future carrying its eventual value.
type minimaxEntry struct {
	budget float64
	future *Future[float64]
}

// minimaxCache maps state hashes to minimax values: per-hash, in-memory,
// no eviction, budget-aware upgrade.
type minimaxCache struct {
	mu      sync.Mutex
	entries map[rules.StateHash]*minimaxEntry
}

func newMinimaxCache() *minimaxCache {
	return &minimaxCache{entries: make(map[rules.StateHash]*minimaxEntry)}
}

// AcquireOrAttach is the single-flight entry point. If an adequate entry
// already exists (its budget is >= budget, or within tolerance of it) the
// caller attaches to it and owns nothing (owner=false): it must Await the
// returned future and must not compute anything itself. Otherwise the
// caller becomes the owner (owner=true): a fresh pending future is
// published atomically with this call, before the caller does any work,
// so a second arrival at the same hash attaches instead of recomputing.
func (c *minimaxCache) AcquireOrAttach(hash rules.StateHash, budget, tolerance float64) (future *Future[float64], owner bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[hash]; ok {
		if entry.budget >= budget || math.Abs(entry.budget-budget) < tolerance {
			return entry.future, false
		}
		// budget upgrade: install a new future for the upgrading caller.
		// Existing holders of entry.future are unaffected and will still
		// receive the weaker, earlier value once it resolves.
	}

	f := NewFuture[float64]()
	c.entries[hash] = &minimaxEntry{budget: budget, future: f}
	return f, true
}

// successorsCache maps state hashes to successor lists: no budget
// dimension, single-flight keyed purely by state hash.
type successorsCache struct {
	mu      sync.Mutex
	entries map[rules.StateHash]*Future[[]Successor]
}

func newSuccessorsCache() *successorsCache {
	return &successorsCache{entries: make(map[rules.StateHash]*Future[[]Successor])}
}

func (c *successorsCache) AcquireOrAttach(hash rules.StateHash) (future *Future[[]Successor], owner bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if f, ok := c.entries[hash]; ok {
		return f, false
	}
	f := NewFuture[[]Successor]()
	c.entries[hash] = f
	return f, true
}

// Peek returns the already-resolved successor list for hash, if any,
// without blocking. Used for the leaf-vs-expand decision: a cached list
// costs nothing to fetch and has a known length.
func (c *successorsCache) Peek(hash rules.StateHash) ([]Successor, bool) {
	c.mu.Lock()
	f, ok := c.entries[hash]
	c.mu.Unlock()
	if !ok {
		return nil, false
	}
	return f.TryGet()
}
