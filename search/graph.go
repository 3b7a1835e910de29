package search

import (
	"fmt"
	"sort"

	"github.com/awalterschulze/gographviz"
	"golang.org/x/exp/maps"

	"github.com/llmchess/core/rules"
)

// DumpTree renders every position the search has touched so far into a
// Graphviz dot string: one node per explored StateHash (labeled with its
// cached budget and, once resolved, its value), one edge per move from a
// state to each of its cached successors that has a minimax entry of its
// own; successors the search never visited get no edge. Feed the output to dot to see
// what the search actually explored.
func (c *Core) DumpTree() (string, error) {
	g := gographviz.NewGraph()
	if err := g.SetName("search"); err != nil {
		return "", err
	}
	if err := g.SetDir(true); err != nil {
		return "", err
	}

	c.mmCache.mu.Lock()
	entries := make(map[rules.StateHash]*minimaxEntry, len(c.mmCache.entries))
	for h, e := range c.mmCache.entries {
		entries[h] = e
	}
	c.mmCache.mu.Unlock()

	// iterate in a sorted, deterministic order so two dumps of the same
	// tree diff cleanly; map iteration order is otherwise unspecified.
	hashes := maps.Keys(entries)
	sort.Slice(hashes, func(i, j int) bool { return hashes[i] < hashes[j] })
	for _, h := range hashes {
		e := entries[h]
		label := fmt.Sprintf("\"budget=%.1f\"", e.budget)
		if v, ok := e.future.TryGet(); ok {
			label = fmt.Sprintf("\"budget=%.1f value=%.3f\"", e.budget, v)
		}
		_ = g.AddNode("search", nodeID(h), map[string]string{"label": label})
	}

	c.succCache.mu.Lock()
	for h, f := range c.succCache.entries {
		successors, ok := f.TryGet()
		if !ok {
			continue
		}
		for _, s := range successors {
			childHash := rules.Hash(s.NextState)
			if _, known := entries[childHash]; !known {
				continue
			}
			attrs := map[string]string{"label": fmt.Sprintf("%q", s.Move.Algebraic)}
			_ = g.AddEdge(nodeID(h), nodeID(childHash), true, attrs)
		}
	}
	c.succCache.mu.Unlock()

	return g.String(), nil
}

func nodeID(h rules.StateHash) string {
	return fmt.Sprintf("\"%x\"", []byte(h)[:min(len(h), 24)])
}
