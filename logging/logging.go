// Package logging provides Stream, an append-only JSON-lines event sink
// for two kinds of events: oracle calls and minimax iteration events.
// Each line carries an "event" field naming its kind; both kinds may go
// to one Stream or to one Stream each, as the caller wires it. Writes are fire-and-forget: they go through a bounded channel drained
// by a background goroutine so a slow writer never blocks the search or
// the oracle call it is logging.
package logging

import (
	"io"

	"github.com/rs/zerolog"
)

const queueDepth = 4096

// Stream is a fire-and-forget JSON-lines event sink.
type Stream struct {
	log    zerolog.Logger
	events chan func(zerolog.Logger)
	done   chan struct{}
}

// NewStream starts a background writer over w. Call Close to drain and
// stop it.
func NewStream(w io.Writer) *Stream {
	s := &Stream{
		log:    zerolog.New(w).With().Timestamp().Logger(),
		events: make(chan func(zerolog.Logger), queueDepth),
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Stream) run() {
	defer close(s.done)
	for emit := range s.events {
		emit(s.log)
	}
}

// enqueue drops the event rather than blocking the caller if the queue is
// full; log loss under extreme fan-out is preferable to search latency.
func (s *Stream) enqueue(emit func(zerolog.Logger)) {
	select {
	case s.events <- emit:
	default:
	}
}

// Close stops accepting new events and waits for the queue to drain.
func (s *Stream) Close() error {
	close(s.events)
	<-s.done
	return nil
}

// OracleCall records one oracle.Chat invocation: request args and the
// full response (as free-form fields since the shape varies by task).
func (s *Stream) OracleCall(task string, fields map[string]any, err error) {
	s.enqueue(func(log zerolog.Logger) {
		ev := log.Info()
		if err != nil {
			ev = log.Error()
		}
		ev = ev.Str("event", "oracleCall").Str("task", task)
		for k, v := range fields {
			ev = ev.Interface(k, v)
		}
		if err != nil {
			ev = ev.AnErr("error", err)
		}
		ev.Msg("oracle call")
	})
}

// StateEvaluation records a leaf evaluation event.
func (s *Stream) StateEvaluation(depth int, value, usedBudget float64) {
	s.enqueue(func(log zerolog.Logger) {
		log.Info().
			Str("event", "stateEvaluation").
			Int("depth", depth).
			Float64("value", value).
			Float64("usedBudget", usedBudget).
			Msg("state evaluation")
	})
}

// MinimaxIter records one minimax node's completion.
func (s *Stream) MinimaxIter(depth int, value, usedBudget float64) {
	s.enqueue(func(log zerolog.Logger) {
		log.Info().
			Str("event", "minimaxIter").
			Int("depth", depth).
			Float64("value", value).
			Float64("usedBudget", usedBudget).
			Msg("minimax iteration")
	})
}
