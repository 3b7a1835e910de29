// Package chessagent is the entry point that binds agent descriptors to
// constructed search cores. A Registry is an explicitly owned resource:
// nothing here is a package-level singleton, so a caller controls the
// lifetime of every cache the descriptors carry.
package chessagent

import (
	"context"
	"math/rand"
	"time"

	"github.com/pkg/errors"

	"github.com/llmchess/core/agent"
	"github.com/llmchess/core/logging"
	"github.com/llmchess/core/oracle"
	"github.com/llmchess/core/rules"
	"github.com/llmchess/core/search"
)

// Descriptor names an agent kind.
type Descriptor string

const (
	Human        Descriptor = "human"
	Random       Descriptor = "random"
	MinimaxGPT35 Descriptor = "minimax(gpt-3.5)"
	MinimaxGPT4  Descriptor = "minimax(gpt-4)"
)

// ErrHumanDescriptor is returned when CallAgent is invoked with the
// human descriptor: a human move comes from the caller's UI, not from
// this package.
var ErrHumanDescriptor = errors.New("chessagent: human descriptor cannot be called for a move")

// DefaultCostSetup is the budget configuration bound to every minimax
// descriptor. The numbers tune the default search depth.
var DefaultCostSetup = search.CostSetup{
	MaxDepth:            1,
	TotalBudget:         500,
	GetSuccessorsCost:   10,
	StateEvaluationCost: 10,
	BasicMinimaxCost:    1,
}

// Registry binds descriptors to constructed engines. Construct one per
// playing session (or per process, if caches should persist across
// requests); never as a package global.
type Registry struct {
	rand  *rand.Rand
	cores map[Descriptor]*search.Core
	logs  *logging.Stream
}

// NewRegistry builds a Registry with the two packaged minimax
// descriptors bound to HTTP oracles for gpt-3.5 and gpt-4, and random
// bound to a local source of randomness. logs is the single stream shared
// by every descriptor for both oracle-call and minimax events; the two
// kinds are not split into separate streams. Callers should Close it once
// the registry is no longer needed.
func NewRegistry(endpoint, apiKey, orgID string, logs *logging.Stream) *Registry {
	r := &Registry{
		rand:  rand.New(rand.NewSource(time.Now().UnixNano())),
		cores: make(map[Descriptor]*search.Core),
		logs:  logs,
	}

	for descriptor, model := range map[Descriptor]oracle.Model{
		MinimaxGPT35: oracle.GPT35,
		MinimaxGPT4:  oracle.GPT4,
	} {
		o := oracle.NewHTTPOracle(endpoint, model, apiKey, orgID)
		a := agent.New(o, oracle.TokensFor(model), logs)
		r.cores[descriptor] = search.NewCore(DefaultCostSetup, a, a, logs)
	}

	return r
}

// CallAgent is the external entry point. human is rejected as an error;
// random returns a uniform pick from legal moves; the minimax
// descriptors delegate to their bound search.Core.
func (r *Registry) CallAgent(ctx context.Context, state rules.GameState, descriptor Descriptor) (rules.Move, error) {
	switch descriptor {
	case Human:
		return rules.Move{}, ErrHumanDescriptor
	case Random:
		moves := rules.LegalMoves(state, state.ToMove)
		if len(moves) == 0 {
			return rules.Move{}, search.ErrNoSuccessors
		}
		return moves[r.rand.Intn(len(moves))], nil
	}

	core, ok := r.cores[descriptor]
	if !ok {
		return rules.Move{}, errors.Errorf("chessagent: unknown descriptor %q", descriptor)
	}
	return core.ChooseMove(ctx, state)
}
