package agent

import "github.com/pkg/errors"

// ErrNoLogprobs is raised when an evaluate response carried neither
// log-probabilities nor a literal black/white answer.
var ErrNoLogprobs = errors.New("agent: evaluate response had no logprobs and no literal black/white answer")

func errNoChoices(task string) error {
	return errors.Errorf("agent: %s returned zero choices", task)
}

func errEmptyContent(task string) error {
	return errors.Errorf("agent: %s returned empty content", task)
}
