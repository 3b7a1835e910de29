package agent

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/llmchess/core/logging"
	"github.com/llmchess/core/oracle"
	"github.com/llmchess/core/rules"
)

// stubOracle dispatches on the content of the last user message so one
// stub can stand in for describe/evaluate/successors in sequence.
type stubOracle struct {
	descCalls int32
	evalCalls int32
	succCalls int32

	evaluateChoice    oracle.Choice
	successorsContent string

	// succAttempts lets a test simulate failing parses on early attempts.
	mu           sync.Mutex
	succAttempts []string
}

func (s *stubOracle) Chat(ctx context.Context, messages []oracle.Message, opts oracle.ChatOptions) ([]oracle.Choice, error) {
	last := messages[len(messages)-1].Content
	switch {
	case strings.Contains(last, "Describe the game state"):
		atomic.AddInt32(&s.descCalls, 1)
		return []oracle.Choice{{Message: oracle.Message{Role: oracle.RoleAssistant, Content: "White holds a small space advantage."}}}, nil
	case strings.Contains(last, "more likely to win"):
		atomic.AddInt32(&s.evalCalls, 1)
		return []oracle.Choice{s.evaluateChoice}, nil
	case strings.Contains(last, "What moves is the"):
		atomic.AddInt32(&s.succCalls, 1)
		s.mu.Lock()
		content := s.successorsContent
		if len(s.succAttempts) > 0 {
			content = s.succAttempts[0]
			s.succAttempts = s.succAttempts[1:]
		}
		s.mu.Unlock()
		return []oracle.Choice{{Message: oracle.Message{Content: "Looks roughly balanced.\nMoves: " + content}}}, nil
	}
	return nil, errors.Errorf("stub: unrecognized prompt: %s", last)
}

func discardLogs() *logging.Stream {
	return logging.NewStream(discardWriter{})
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestEvaluateUsesLogprobSoftmax(t *testing.T) {
	stub := &stubOracle{evaluateChoice: oracle.Choice{
		Message: oracle.Message{Content: "white"},
		Logprobs: []oracle.TokenLogProb{{
			Token:   "white",
			LogProb: -0.05,
			TopLogprobs: []oracle.TopLogProb{
				{Token: "white", LogProb: -0.05},
				{Token: "black", LogProb: -3.5},
			},
		}},
	}}
	logs := discardLogs()
	defer logs.Close()
	a := New(stub, oracle.TokensFor(oracle.GPT35), logs)

	v, err := a.Evaluate(context.Background(), rules.InitialState())
	require.NoError(t, err)
	require.Greater(t, v, 0.9)
	require.LessOrEqual(t, v, 1.0)
}

func TestEvaluateFallsBackToLiteralWithoutLogprobs(t *testing.T) {
	stub := &stubOracle{evaluateChoice: oracle.Choice{Message: oracle.Message{Content: "black"}}}
	logs := discardLogs()
	defer logs.Close()
	a := New(stub, oracle.TokensFor(oracle.GPT35), logs)

	v, err := a.Evaluate(context.Background(), rules.InitialState())
	require.NoError(t, err)
	require.Equal(t, -1.0, v)
}

func TestEvaluateNoLogprobsNoLiteralIsSearchError(t *testing.T) {
	stub := &stubOracle{evaluateChoice: oracle.Choice{Message: oracle.Message{Content: "unclear"}}}
	logs := discardLogs()
	defer logs.Close()
	a := New(stub, oracle.TokensFor(oracle.GPT35), logs)

	_, err := a.Evaluate(context.Background(), rules.InitialState())
	require.ErrorIs(t, err, ErrNoLogprobs)
}

func TestSuccessorsProbabilityNormalization(t *testing.T) {
	stub := &stubOracle{successorsContent: "e4, d4"}
	logs := discardLogs()
	defer logs.Close()
	a := New(stub, oracle.TokensFor(oracle.GPT35), logs)

	successors, err := a.Successors(context.Background(), rules.InitialState())
	require.NoError(t, err)
	require.Len(t, successors, 2)

	var total float64
	for _, s := range successors {
		total += s.Probability
	}
	require.InDelta(t, 1.0, total, 1e-9)
}

func TestSuccessorsSalvageRewritesAndDrops(t *testing.T) {
	stub := &stubOracle{successorsContent: "Pe4, zz9, d4"}
	logs := discardLogs()
	defer logs.Close()
	a := New(stub, oracle.TokensFor(oracle.GPT35), logs)

	successors, err := a.Successors(context.Background(), rules.InitialState())
	require.NoError(t, err)
	require.Len(t, successors, 2)
	algs := []string{successors[0].Move.Algebraic, successors[1].Move.Algebraic}
	require.ElementsMatch(t, []string{"e4", "d4"}, algs)
}

func TestSuccessorsRetriesUntilParseSucceeds(t *testing.T) {
	stub := &stubOracle{succAttempts: []string{"zz9, yy8", "e4, d4"}}
	logs := discardLogs()
	defer logs.Close()
	a := New(stub, oracle.TokensFor(oracle.GPT35), logs)

	successors, err := a.Successors(context.Background(), rules.InitialState())
	require.NoError(t, err)
	require.Len(t, successors, 2)
	require.Equal(t, int32(2), atomic.LoadInt32(&stub.succCalls))
}

func TestDescriptionCacheIsSingleFlightAcrossConcurrentEvaluates(t *testing.T) {
	stub := &stubOracle{evaluateChoice: oracle.Choice{Message: oracle.Message{Content: "white"}}}
	logs := discardLogs()
	defer logs.Close()
	a := New(stub, oracle.TokensFor(oracle.GPT35), logs)

	state := rules.InitialState()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := a.Evaluate(context.Background(), state)
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), atomic.LoadInt32(&stub.descCalls))
}
