// Package agent implements the LLM minimax agent (C4): the three oracle
// tasks (description, evaluate, successors) built on top of the oracle
// and prompt packages, exposed as the search package's Evaluator and
// SuccessorGenerator interfaces. It owns the description cache; the
// minimax and successors caches belong to search.Core.
package agent

import (
	"context"
	"sync"

	"github.com/llmchess/core/logging"
	"github.com/llmchess/core/oracle"
	"github.com/llmchess/core/rules"
	"github.com/llmchess/core/search"
)

// estimatedSuccessors is the fixed target used for the leaf-vs-expand
// decision before a real successor list is known, and the candidate
// count suggested to the oracle.
const estimatedSuccessors = 8

// Agent is the LLM-backed Evaluator and SuccessorGenerator. One Agent
// owns one description cache and should be constructed once per
// descriptor, not as a package-level singleton.
type Agent struct {
	Oracle oracle.Oracle
	Table  oracle.TokenTable
	Logs   *logging.Stream

	descMu    sync.Mutex
	descCache map[rules.StateHash]*search.Future[string]
}

// New constructs an Agent bound to a concrete oracle, its token table,
// and a log stream.
func New(o oracle.Oracle, table oracle.TokenTable, logs *logging.Stream) *Agent {
	return &Agent{
		Oracle:    o,
		Table:     table,
		Logs:      logs,
		descCache: make(map[rules.StateHash]*search.Future[string]),
	}
}

// EstimatedSuccessorCount implements search.SuccessorGenerator.
func (a *Agent) EstimatedSuccessorCount() int { return estimatedSuccessors }

// describe returns the game-state description for state, from the cache
// if a description is already in flight or resolved for its hash. The
// future is published before any oracle call, preserving the
// single-flight discipline for concurrent requesters of the same state.
func (a *Agent) describe(ctx context.Context, state rules.GameState, contextBlock string) (string, error) {
	hash := rules.Hash(state)

	a.descMu.Lock()
	future, ok := a.descCache[hash]
	if !ok {
		future = search.NewFuture[string]()
		a.descCache[hash] = future
	}
	a.descMu.Unlock()

	if ok {
		return future.Await(ctx)
	}

	desc, err := a.requestDescription(ctx, contextBlock)
	future.Resolve(desc, err)
	return desc, err
}
