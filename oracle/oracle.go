// Package oracle abstracts an LLM behind two call shapes used by the
// agent: free-form chat completion (optionally with per-token
// log-probabilities and logit biases) and the logit-bias +
// log-probability path used for single-token classification. The oracle
// is expected to retry transient failures internally; callers additionally
// retry up to MaxTries times on top of that.
package oracle

import (
	"context"

	"github.com/pkg/errors"
)

// MaxTries bounds how many attempts the agent makes at any single oracle
// task (description, evaluate, successors) before raising ErrExhausted.
const MaxTries = 5

// Model names a packaged oracle configuration.
type Model string

const (
	GPT35 Model = "gpt3_5"
	GPT4  Model = "gpt4"
)

// Role is the speaker of a chat Message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a chat-completion request or response.
type Message struct {
	Role    Role
	Content string
}

// TopLogProb is one candidate token and its log-probability, as returned
// under a token position's top_logprobs list.
type TopLogProb struct {
	Token   string
	LogProb float64
}

// TokenLogProb is the realized token at one response position, plus
// whichever alternates the oracle chose to report alongside it.
type TokenLogProb struct {
	Token       string
	LogProb     float64
	TopLogprobs []TopLogProb
}

// Choice is a single completion choice returned by Chat.
type Choice struct {
	Message  Message
	Logprobs []TokenLogProb
}

// ChatOptions configures a single Chat call. LogitBias maps a token ID
// (from a Model's TokenTable) to an additive bias.
type ChatOptions struct {
	MaxTokens        int
	Temperature      float64
	N                int
	Stop             []string
	FrequencyPenalty float64
	PresencePenalty  float64
	LogitBias        map[int]float64
	Logprobs         bool
	TopLogprobs      int
}

// Oracle is the capability set the agent depends on. A concrete
// implementation talks HTTP to a real provider; tests substitute a stub.
type Oracle interface {
	Chat(ctx context.Context, messages []Message, opts ChatOptions) ([]Choice, error)
}

// ErrExhausted is raised when MaxTries attempts at an oracle task all
// failed, or all produced unusable output.
type ErrExhausted struct {
	Task string
	Last error
}

func (e *ErrExhausted) Error() string {
	return "oracle exhausted after retries for " + e.Task + ": " + e.Last.Error()
}

func (e *ErrExhausted) Unwrap() error { return e.Last }

// Retry calls fn up to MaxTries times, returning the first successful
// result. Every failed attempt's error is folded into a multierror that
// becomes ErrExhausted.Last if all attempts fail. fn itself decides
// whether a given attempt's output counts as a failure (e.g. a parse
// failure on otherwise-successful chat output).
func Retry[T any](ctx context.Context, task string, fn func(attempt int) (T, error)) (T, error) {
	var zero T
	var attempts error
	for attempt := 0; attempt < MaxTries; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, errors.Wrap(err, "oracle retry cancelled")
		}
		val, err := fn(attempt)
		if err == nil {
			return val, nil
		}
		attempts = appendAttemptError(attempts, attempt, err)
	}
	return zero, &ErrExhausted{Task: task, Last: attempts}
}
