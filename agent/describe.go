package agent

import (
	"context"
	"strings"

	"github.com/llmchess/core/oracle"
	"github.com/llmchess/core/prompt"
)

// describeOptions has no logit bias or log-probability requirement: the
// description is free-form prose, so only a token ceiling and a sampling
// temperature are set.
var describeOptions = oracle.ChatOptions{MaxTokens: 300, Temperature: 0.7}

func (a *Agent) requestDescription(ctx context.Context, contextBlock string) (string, error) {
	messages := prompt.Describe(contextBlock)
	return oracle.Retry(ctx, "describe", func(attempt int) (string, error) {
		choices, err := a.Oracle.Chat(ctx, messages, describeOptions)
		a.Logs.OracleCall("describe", map[string]any{"attempt": attempt, "messages": messages, "choices": choices}, err)
		if err != nil {
			return "", err
		}
		if len(choices) == 0 {
			return "", errNoChoices("describe")
		}
		content := strings.TrimSpace(choices[0].Message.Content)
		if content == "" {
			return "", errEmptyContent("describe")
		}
		return content, nil
	})
}
