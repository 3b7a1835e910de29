// Package search implements the compressed minimax core (C5): a
// budgeted, alpha-beta-ish search whose branching factor and leaf
// evaluations come from an oracle-backed Evaluator/SuccessorGenerator
// rather than full legal-move expansion and a hand-written heuristic.
package search

import (
	"context"
	"math"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/llmchess/core/logging"
	"github.com/llmchess/core/rules"
)

// budgetCacheTolerance is the slack within which a cached minimax value
// computed under a nearby budget is considered reusable.
const budgetCacheTolerance = 0.1

var (
	negInf = math.Inf(-1)
	posInf = math.Inf(1)
)

// ErrNoSuccessors is raised when a non-terminal state yields zero legal
// moves after parsing.
var ErrNoSuccessors = errors.New("search: no successors for non-terminal state")

// CostSetup parameterizes the budgeted search.
type CostSetup struct {
	MaxDepth            int
	TotalBudget         float64
	StateEvaluationCost float64
	GetSuccessorsCost   float64
	BasicMinimaxCost    float64
}

// Successor is a candidate next state annotated with the move taken and
// the oracle-assigned probability of it being played.
type Successor struct {
	NextState   rules.GameState
	Move        rules.Move
	Probability float64
}

// Evaluator produces a leaf value in [-1,1] for a state (C4's evaluate).
type Evaluator interface {
	Evaluate(ctx context.Context, state rules.GameState) (float64, error)
}

// SuccessorGenerator produces successor proposals for a state (C4's
// successors) and an estimate of how many it typically returns, used for
// the leaf-vs-expand budget decision before the real list is known.
type SuccessorGenerator interface {
	Successors(ctx context.Context, state rules.GameState) ([]Successor, error)
	EstimatedSuccessorCount() int
}

// Core is the budgeted, parallel, cache-coordinated minimax engine.
type Core struct {
	CostSetup
	Evaluator
	SuccessorGenerator

	// Parallel selects the expansion mode: true (default) launches all
	// children concurrently with no pruning; false expands serially with
	// live alpha-beta, used to respect oracle rate limits.
	Parallel bool

	Logs *logging.Stream

	mmCache   *minimaxCache
	succCache *successorsCache
}

// NewCore constructs a Core with fresh, empty caches.
func NewCore(cost CostSetup, eval Evaluator, succ SuccessorGenerator, logs *logging.Stream) *Core {
	return &Core{
		CostSetup:          cost,
		Evaluator:          eval,
		SuccessorGenerator: succ,
		Parallel:           true,
		Logs:               logs,
		mmCache:            newMinimaxCache(),
		succCache:          newSuccessorsCache(),
	}
}

// ChooseMove is the root of the search. It fetches successors of the
// root, recurses into each with a budget share
// proportional to its probability, and returns the arg-max (white to
// move) or arg-min (black to move) child's move. The root always expands
// children in parallel regardless of Core.Parallel.
func (c *Core) ChooseMove(ctx context.Context, state rules.GameState) (rules.Move, error) {
	successors, err := c.getSuccessors(ctx, state)
	if err != nil {
		return rules.Move{}, err
	}
	if len(successors) == 0 {
		return rules.Move{}, ErrNoSuccessors
	}

	maximizing := state.ToMove == rules.White
	values := make([]float64, len(successors))

	eg, egCtx := errgroup.WithContext(ctx)
	for i, s := range successors {
		i, s := i, s
		eg.Go(func() error {
			budget := c.TotalBudget * s.Probability
			v, _, err := c.minimax(egCtx, 1, s.NextState, budget, negInf, posInf, !maximizing)
			if err != nil {
				return err
			}
			values[i] = v
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return rules.Move{}, err
	}

	best := 0
	for i := 1; i < len(values); i++ {
		if maximizing {
			if values[i] > values[best] {
				best = i
			}
		} else if values[i] <= values[best] {
			best = i
		}
	}
	return successors[best].Move, nil
}

// minimax is the recursive node. It returns the node's value and the
// budget actually used; usedBudget is diagnostic only and never alters
// the returned value.
func (c *Core) minimax(ctx context.Context, depth int, state rules.GameState, budget, alpha, beta float64, maximizing bool) (value float64, usedBudget float64, err error) {
	hash := rules.Hash(state)

	future, owner := c.mmCache.AcquireOrAttach(hash, budget, budgetCacheTolerance)
	if !owner {
		v, err := future.Await(ctx)
		return v, 0, err
	}

	usedBudget = c.BasicMinimaxCost

	endgame := rules.EndgameOf(state)
	if !endgame.InProgress && !endgame.Draw {
		v := -1.0
		if endgame.Checkmate == rules.Black {
			v = 1.0
		}
		future.Resolve(v, nil)
		c.Logs.MinimaxIter(depth, v, usedBudget)
		return v, usedBudget, nil
	}

	if endgame.Draw {
		// a draw is treated as a leaf, falling through to evaluate rather
		// than returning a fixed value.
		return c.leaf(ctx, depth, state, future, usedBudget)
	}

	cached, ok := c.succCache.Peek(hash)
	realizedGetSuccessorsCost := c.GetSuccessorsCost
	estimated := c.SuccessorGenerator.EstimatedSuccessorCount()
	if ok {
		realizedGetSuccessorsCost = 0
		estimated = len(cached)
	}

	isLeaf := depth >= c.MaxDepth ||
		budget < usedBudget+realizedGetSuccessorsCost+float64(estimated)*c.StateEvaluationCost
	if isLeaf {
		return c.leaf(ctx, depth, state, future, usedBudget)
	}

	usedBudget += realizedGetSuccessorsCost
	successors, err := c.getSuccessors(ctx, state)
	if err != nil {
		future.Resolve(0, err)
		return 0, usedBudget, err
	}
	if len(successors) == 0 {
		future.Resolve(0, ErrNoSuccessors)
		return 0, usedBudget, ErrNoSuccessors
	}

	remaining := budget - usedBudget
	var childValue, childUsed float64
	if c.Parallel {
		childValue, childUsed, err = c.expandParallel(ctx, depth, successors, remaining, maximizing)
	} else {
		childValue, childUsed, err = c.expandSerial(ctx, depth, successors, remaining, alpha, beta, maximizing)
	}
	usedBudget += childUsed
	if err != nil {
		future.Resolve(0, err)
		return 0, usedBudget, err
	}

	future.Resolve(childValue, nil)
	c.Logs.MinimaxIter(depth, childValue, usedBudget)
	return childValue, usedBudget, nil
}

func (c *Core) leaf(ctx context.Context, depth int, state rules.GameState, future *Future[float64], usedBudget float64) (float64, float64, error) {
	usedBudget += c.StateEvaluationCost
	v, err := c.Evaluator.Evaluate(ctx, state)
	if err != nil {
		future.Resolve(0, err)
		return 0, usedBudget, err
	}
	future.Resolve(v, nil)
	c.Logs.StateEvaluation(depth, v, usedBudget)
	return v, usedBudget, nil
}

func (c *Core) expandParallel(ctx context.Context, depth int, successors []Successor, budget float64, maximizing bool) (float64, float64, error) {
	values := make([]float64, len(successors))
	useds := make([]float64, len(successors))

	eg, egCtx := errgroup.WithContext(ctx)
	for i, s := range successors {
		i, s := i, s
		eg.Go(func() error {
			childBudget := budget * s.Probability
			v, u, err := c.minimax(egCtx, depth+1, s.NextState, childBudget, negInf, posInf, !maximizing)
			if err != nil {
				return err
			}
			values[i] = v
			useds[i] = u
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return 0, 0, err
	}

	value := values[0]
	var usedBudget float64
	for i, v := range values {
		if i > 0 {
			if maximizing {
				value = math.Max(value, v)
			} else {
				value = math.Min(value, v)
			}
		}
		usedBudget += useds[i]
	}
	return value, usedBudget, nil
}

func (c *Core) expandSerial(ctx context.Context, depth int, successors []Successor, budget, alpha, beta float64, maximizing bool) (float64, float64, error) {
	value := negInf
	if !maximizing {
		value = posInf
	}
	var usedBudget float64

	for _, s := range successors {
		childBudget := budget * s.Probability
		v, u, err := c.minimax(ctx, depth+1, s.NextState, childBudget, alpha, beta, !maximizing)
		if err != nil {
			return 0, usedBudget, err
		}
		usedBudget += u

		if maximizing {
			value = math.Max(value, v)
			alpha = math.Max(alpha, value)
		} else {
			value = math.Min(value, v)
			beta = math.Min(beta, value)
		}
		if beta <= alpha {
			break
		}
	}
	return value, usedBudget, nil
}

func (c *Core) getSuccessors(ctx context.Context, state rules.GameState) ([]Successor, error) {
	hash := rules.Hash(state)
	future, owner := c.succCache.AcquireOrAttach(hash)
	if !owner {
		return future.Await(ctx)
	}
	successors, err := c.SuccessorGenerator.Successors(ctx, state)
	future.Resolve(successors, err)
	return successors, err
}
