package prompt

import "github.com/llmchess/core/oracle"

// EvaluateOptions returns the ChatOptions for the evaluate task: a
// 1-token ceiling, temperature 0, a +100 logit bias on both "white" and
// "black", and log-probabilities enabled with topLogprobs = 12.
func EvaluateOptions(table oracle.TokenTable) oracle.ChatOptions {
	return oracle.ChatOptions{
		MaxTokens:   1,
		Temperature: 0,
		LogitBias:   oracle.LogitBiasFor(table, 100, "white", "black"),
		Logprobs:    true,
		TopLogprobs: 12,
	}
}

// SuccessorsOptions returns the ChatOptions for the successor-proposal
// task: temperature 1, maxTokens 300.
func SuccessorsOptions() oracle.ChatOptions {
	return oracle.ChatOptions{
		MaxTokens:   300,
		Temperature: 1,
	}
}
