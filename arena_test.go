package chessagent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/llmchess/core/logging"
	"github.com/llmchess/core/rules"
)

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestArenaRandomVsRandomReachesTerminalOrPlyCap(t *testing.T) {
	logs := logging.NewStream(discardWriter{})
	defer logs.Close()

	reg := NewRegistry("https://example.invalid/v1/chat/completions", "", "", logs)
	arena := NewArena(reg, 40)

	res, err := arena.Play(context.Background(), Random, Random)
	require.NoError(t, err)
	require.LessOrEqual(t, res.Plies, 40)
	require.Len(t, res.History, res.Plies)
}

func TestTallyRecordsOutcomesAndMeanPlies(t *testing.T) {
	var tally Tally
	tally.Record(Result{Draw: true, Plies: 10})
	tally.Record(Result{Winner: rules.White, Plies: 20})
	tally.Record(Result{Winner: rules.Black, Plies: 30})

	require.Equal(t, 1, tally.Draws)
	require.Equal(t, 1, tally.Wins)
	require.Equal(t, 1, tally.Losses)
	require.InDelta(t, 20.0, tally.MeanPlies(), 1e-9)
}
