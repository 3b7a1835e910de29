package search

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/llmchess/core/logging"
	"github.com/llmchess/core/rules"
)

// countingEvaluator answers a fixed value after a small delay, counting
// how many times it was actually invoked per distinct state.
type countingEvaluator struct {
	mu    sync.Mutex
	calls map[rules.StateHash]int
	value float64
	delay time.Duration
}

func newCountingEvaluator(value float64, delay time.Duration) *countingEvaluator {
	return &countingEvaluator{calls: map[rules.StateHash]int{}, value: value, delay: delay}
}

func (e *countingEvaluator) Evaluate(ctx context.Context, s rules.GameState) (float64, error) {
	e.mu.Lock()
	e.calls[rules.Hash(s)]++
	e.mu.Unlock()
	select {
	case <-time.After(e.delay):
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	return e.value, nil
}

func (e *countingEvaluator) callCount(s rules.GameState) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls[rules.Hash(s)]
}

// stubSuccessors returns a fixed successor list for every state it is
// asked about, counting invocations.
type stubSuccessors struct {
	calls     int32
	fn        func(s rules.GameState) []Successor
	estimated int
}

func (g *stubSuccessors) Successors(ctx context.Context, s rules.GameState) ([]Successor, error) {
	atomic.AddInt32(&g.calls, 1)
	return g.fn(s), nil
}

func (g *stubSuccessors) EstimatedSuccessorCount() int { return g.estimated }

func twoMoveSuccessors(s rules.GameState) []Successor {
	moves := rules.LegalMoves(s, s.ToMove)
	if len(moves) == 0 {
		return nil
	}
	if len(moves) == 1 {
		return []Successor{{NextState: rules.Apply(s, moves[0]), Move: moves[0], Probability: 1}}
	}
	return []Successor{
		{NextState: rules.Apply(s, moves[0]), Move: moves[0], Probability: 0.5},
		{NextState: rules.Apply(s, moves[1]), Move: moves[1], Probability: 0.5},
	}
}

func discardLogs() *logging.Stream {
	return logging.NewStream(discardWriter{})
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestSingleFlightEvaluate(t *testing.T) {
	eval := newCountingEvaluator(0.5, 20*time.Millisecond)
	succ := &stubSuccessors{fn: twoMoveSuccessors, estimated: 2}
	core := NewCore(CostSetup{MaxDepth: 1, TotalBudget: 500, StateEvaluationCost: 10, GetSuccessorsCost: 10, BasicMinimaxCost: 1}, eval, succ, discardLogs())
	defer core.Logs.Close()

	state := rules.InitialState()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := core.minimax(context.Background(), 10, state, 0, negInf, posInf, true)
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Equal(t, 1, eval.callCount(state))
}

func TestSingleFlightSuccessors(t *testing.T) {
	// MaxDepth 1 makes every child of the root a leaf, so Successors is
	// only ever asked about the root state: exactly one call regardless
	// of fan-out.
	eval := newCountingEvaluator(0.5, 5*time.Millisecond)
	succ := &stubSuccessors{fn: twoMoveSuccessors, estimated: 2}
	core := NewCore(CostSetup{MaxDepth: 1, TotalBudget: 500, StateEvaluationCost: 10, GetSuccessorsCost: 10, BasicMinimaxCost: 1}, eval, succ, discardLogs())
	defer core.Logs.Close()

	state := rules.InitialState()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := core.ChooseMove(context.Background(), state)
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), atomic.LoadInt32(&succ.calls))
}

func TestBudgetMonotonicityReusesCachedValue(t *testing.T) {
	eval := newCountingEvaluator(0.5, 0)
	succ := &stubSuccessors{fn: twoMoveSuccessors, estimated: 2}
	core := NewCore(CostSetup{MaxDepth: 1, TotalBudget: 500, StateEvaluationCost: 10, GetSuccessorsCost: 10, BasicMinimaxCost: 1}, eval, succ, discardLogs())
	defer core.Logs.Close()

	state := rules.InitialState()

	_, _, err := core.minimax(context.Background(), 10, state, 100, negInf, posInf, true)
	require.NoError(t, err)
	require.Equal(t, 1, eval.callCount(state))

	_, _, err = core.minimax(context.Background(), 10, state, 50, negInf, posInf, true)
	require.NoError(t, err)
	require.Equal(t, 1, eval.callCount(state), "a request at a lower budget must reuse the cached value")
}

func TestChooseMoveDeterministicAcrossRuns(t *testing.T) {
	mkCore := func() *Core {
		eval := newCountingEvaluator(0.6, 0)
		succ := &stubSuccessors{fn: twoMoveSuccessors, estimated: 2}
		return NewCore(CostSetup{MaxDepth: 1, TotalBudget: 500, StateEvaluationCost: 10, GetSuccessorsCost: 10, BasicMinimaxCost: 1}, eval, succ, discardLogs())
	}
	state := rules.InitialState()

	c1 := mkCore()
	defer c1.Logs.Close()
	m1, err := c1.ChooseMove(context.Background(), state)
	require.NoError(t, err)

	c2 := mkCore()
	defer c2.Logs.Close()
	m2, err := c2.ChooseMove(context.Background(), state)
	require.NoError(t, err)

	require.Equal(t, m1, m2)
}

func TestBudgetControlsExpansionDepth(t *testing.T) {
	setup := func(totalBudget float64) (*Core, *stubSuccessors) {
		eval := newCountingEvaluator(0.5, 0)
		succ := &stubSuccessors{fn: twoMoveSuccessors, estimated: 8}
		core := NewCore(CostSetup{MaxDepth: 2, TotalBudget: totalBudget, StateEvaluationCost: 10, GetSuccessorsCost: 10, BasicMinimaxCost: 1}, eval, succ, discardLogs())
		return core, succ
	}

	// with a generous budget each child of the root expands once, but no
	// grandchild does: depth caps them into leaves.
	core, succ := setup(500)
	defer core.Logs.Close()
	_, err := core.ChooseMove(context.Background(), rules.InitialState())
	require.NoError(t, err)
	require.Equal(t, int32(3), atomic.LoadInt32(&succ.calls), "root plus both children should expand")

	// with a starved budget the children cannot afford their estimated
	// successors and become leaves immediately.
	core, succ = setup(50)
	defer core.Logs.Close()
	_, err = core.ChooseMove(context.Background(), rules.InitialState())
	require.NoError(t, err)
	require.Equal(t, int32(1), atomic.LoadInt32(&succ.calls), "only the root should expand")
}

func TestCheckmateShortCircuitsWithoutEvaluatorCall(t *testing.T) {
	eval := newCountingEvaluator(0, 0)
	succ := &stubSuccessors{fn: func(s rules.GameState) []Successor {
		moves := rules.LegalMoves(s, s.ToMove)
		out := make([]Successor, len(moves))
		for i, m := range moves {
			out[i] = Successor{NextState: rules.Apply(s, m), Move: m, Probability: 1.0 / float64(len(moves))}
		}
		return out
	}, estimated: 1}
	core := NewCore(CostSetup{MaxDepth: 1, TotalBudget: 500, StateEvaluationCost: 10, GetSuccessorsCost: 10, BasicMinimaxCost: 1}, eval, succ, discardLogs())
	defer core.Logs.Close()

	// White Kb2, Ra1 vs black Kh8 boxed in by its own pawns on g7/h7. White
	// to move plays Ra8#: the rook sweeps an empty, open back rank, so the
	// only piece either side ever "captures" on the mating move is nothing
	// at all.
	sqr := func(alg string) rules.Square {
		return rules.Square{Row: int(alg[1] - '1'), Col: int(alg[0] - 'a')}
	}
	s := rules.EmptyState(rules.White)
	s.Board.Set(sqr("b2"), rules.Cell{Piece: rules.Piece{Type: rules.King, Color: rules.White}})
	s.Board.Set(sqr("a1"), rules.Cell{Piece: rules.Piece{Type: rules.Rook, Color: rules.White}})
	s.Board.Set(sqr("h8"), rules.Cell{Piece: rules.Piece{Type: rules.King, Color: rules.Black}})
	s.Board.Set(sqr("g7"), rules.Cell{Piece: rules.Piece{Type: rules.Pawn, Color: rules.Black}})
	s.Board.Set(sqr("h7"), rules.Cell{Piece: rules.Piece{Type: rules.Pawn, Color: rules.Black}})

	best, err := core.ChooseMove(context.Background(), s)
	require.NoError(t, err)

	mated := rules.Apply(s, best)
	eg := rules.EndgameOf(mated)
	require.False(t, eg.InProgress)
	require.False(t, eg.Draw)
	require.Equal(t, rules.Black, eg.Checkmate)
	require.Equal(t, 0, eval.callCount(mated))
}
