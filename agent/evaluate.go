package agent

import (
	"context"
	"strings"

	"github.com/chewxy/math32"
	"gonum.org/v1/gonum/floats"

	"github.com/llmchess/core/oracle"
	"github.com/llmchess/core/prompt"
	"github.com/llmchess/core/rules"
)

// useNCompletionsEvaluate marks an alternative evaluate strategy:
// requesting n independent completions and building P(white) from their
// relative frequency rather than from top-log-probabilities of one
// completion. It was found ineffective and is kept false; no code path
// reads it as true.
const useNCompletionsEvaluate = false

// Evaluate implements search.Evaluator. It obtains (possibly cached) the
// state description, asks the oracle for a one-token black/white verdict
// with log-probabilities, and returns P(white) computed by softmax over
// the returned top-log-probabilities. If the oracle answered without
// log-probabilities but with a literal "black"/"white" token, it falls
// back to -1/+1, the terminal-value scale rather than the probability
// scale. The asymmetry is harmless: the search only compares values via
// min/max and picks extremes at the root.
func (a *Agent) Evaluate(ctx context.Context, state rules.GameState) (float64, error) {
	contextBlock := prompt.Context(state)
	description, err := a.describe(ctx, state, contextBlock)
	if err != nil {
		return 0, err
	}

	messages := prompt.Evaluate(contextBlock, description)
	options := prompt.EvaluateOptions(a.Table)

	choice, err := oracle.Retry(ctx, "evaluate", func(attempt int) (oracle.Choice, error) {
		choices, chatErr := a.Oracle.Chat(ctx, messages, options)
		a.Logs.OracleCall("evaluate", map[string]any{"attempt": attempt, "messages": messages, "choices": choices}, chatErr)
		if chatErr != nil {
			return oracle.Choice{}, chatErr
		}
		if len(choices) == 0 {
			return oracle.Choice{}, errNoChoices("evaluate")
		}
		return choices[0], nil
	})
	if err != nil {
		return 0, err
	}

	return probabilityOfWhite(choice)
}

func probabilityOfWhite(choice oracle.Choice) (float64, error) {
	if len(choice.Logprobs) > 0 {
		top := choice.Logprobs[len(choice.Logprobs)-1].TopLogprobs
		if len(top) > 0 {
			lps := make([]float64, len(top))
			whiteIdx := -1
			for i, t := range top {
				lps[i] = t.LogProb
				if strings.EqualFold(strings.TrimSpace(t.Token), "white") {
					whiteIdx = i
				}
			}
			if whiteIdx >= 0 {
				denom := floats.LogSumExp(lps)
				return float64(math32.Exp(float32(lps[whiteIdx] - denom))), nil
			}
		}
	}

	switch strings.ToLower(strings.TrimSpace(choice.Message.Content)) {
	case "white":
		return 1.0, nil
	case "black":
		return -1.0, nil
	}
	return 0, ErrNoLogprobs
}
