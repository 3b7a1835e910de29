package chessagent

import (
	"context"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/llmchess/core/rules"
)

// Arena plays two bound descriptors against each other to a conclusion.
type Arena struct {
	Registry *Registry
	MaxPlies int
}

// NewArena binds an Arena to reg. maxPlies caps game length: with no
// repetition or fifty-move detection in the rules engine, nothing else
// stops two engines from shuffling pieces forever.
func NewArena(reg *Registry, maxPlies int) *Arena {
	if maxPlies <= 0 {
		maxPlies = 300
	}
	return &Arena{Registry: reg, MaxPlies: maxPlies}
}

// Result is the outcome of one Arena.Play call.
type Result struct {
	Winner     rules.Color // valid only when !Draw
	Draw       bool
	Plies      int
	History    []rules.Move
	FinalState rules.GameState
}

// Play runs one game from the standard starting position, white bound to
// whiteDesc and black to blackDesc, alternating CallAgent until the
// rules engine reports a terminal state or MaxPlies is reached (a ply
// cap counts as a draw, since neither side can be said to have won).
func (a *Arena) Play(ctx context.Context, whiteDesc, blackDesc Descriptor) (Result, error) {
	state := rules.InitialState()

	for ply := 0; ply < a.MaxPlies; ply++ {
		endgame := rules.EndgameOf(state)
		if !endgame.InProgress {
			if endgame.Draw {
				return Result{Draw: true, Plies: ply, History: state.History, FinalState: state}, nil
			}
			return Result{Winner: endgame.Checkmate.Opposite(), Plies: ply, History: state.History, FinalState: state}, nil
		}

		descriptor := whiteDesc
		if state.ToMove == rules.Black {
			descriptor = blackDesc
		}

		move, err := a.Registry.CallAgent(ctx, state, descriptor)
		if err != nil {
			return Result{}, err
		}
		state = rules.Apply(state, move)
	}

	return Result{Draw: true, Plies: a.MaxPlies, History: state.History, FinalState: state}, nil
}

// Tally accumulates outcomes across repeated Arena.Play calls.
type Tally struct {
	Wins, Losses, Draws int
	plyCounts           []float64
}

// Record folds one Result into the tally, scored from the perspective of
// the side that played whiteDesc in that call to Arena.Play.
func (t *Tally) Record(res Result) {
	t.plyCounts = append(t.plyCounts, float64(res.Plies))
	switch {
	case res.Draw:
		t.Draws++
	case res.Winner == rules.White:
		t.Wins++
	default:
		t.Losses++
	}
}

// MeanPlies reports the average game length recorded so far, or NaN if
// nothing has been recorded yet.
func (t *Tally) MeanPlies() float64 {
	if len(t.plyCounts) == 0 {
		return math.NaN()
	}
	return stat.Mean(t.plyCounts, nil)
}
