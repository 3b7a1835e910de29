package agent

import (
	"context"
	"regexp"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/llmchess/core/oracle"
	"github.com/llmchess/core/prompt"
	"github.com/llmchess/core/rules"
	"github.com/llmchess/core/search"
)

var movesLineRe = regexp.MustCompile(`^Moves:\s*(.*)$`)

// Successors implements search.SuccessorGenerator. It asks the oracle
// which moves the side to move is likely to play, parses the trailing
// "Moves: ..." line, matches tokens against the legal-move set (with
// three salvage rewrites for near-misses), and assigns each surviving
// move uniform probability 1/k. A response that survives parsing with
// zero recognized moves counts as a failed attempt and is retried.
func (a *Agent) Successors(ctx context.Context, state rules.GameState) ([]search.Successor, error) {
	legalMoves := rules.LegalMoves(state, state.ToMove)
	if len(legalMoves) == 0 {
		return nil, nil
	}

	contextBlock := prompt.Context(state)
	description, err := a.describe(ctx, state, contextBlock)
	if err != nil {
		return nil, err
	}

	algebraic := make([]string, len(legalMoves))
	for i, m := range legalMoves {
		algebraic[i] = m.Algebraic
	}

	messages := prompt.Successors(contextBlock, description, state.ToMove, estimatedSuccessors, algebraic)
	options := prompt.SuccessorsOptions()

	return oracle.Retry(ctx, "successors", func(attempt int) ([]search.Successor, error) {
		choices, chatErr := a.Oracle.Chat(ctx, messages, options)
		a.Logs.OracleCall("successors", map[string]any{"attempt": attempt, "messages": messages, "choices": choices}, chatErr)
		if chatErr != nil {
			return nil, chatErr
		}
		if len(choices) == 0 {
			return nil, errNoChoices("successors")
		}

		moves := parseMoves(choices[0].Message.Content, legalMoves)
		if len(moves) == 0 {
			return nil, errEmptyContent("successors")
		}

		prob := 1.0 / float64(len(moves))
		out := make([]search.Successor, len(moves))
		for i, m := range moves {
			out[i] = search.Successor{NextState: rules.Apply(state, m), Move: m, Probability: prob}
		}
		return out, nil
	})
}

// parseMoves extracts the candidate move list from the last "Moves: ..."
// line in content and resolves each comma-separated token against legal,
// applying salvage rewrites to near-miss tokens. Duplicate matches and
// unrecognized tokens are silently dropped.
func parseMoves(content string, legal []rules.Move) []rules.Move {
	var moveLine string
	for _, line := range strings.Split(content, "\n") {
		if m := movesLineRe.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			moveLine = m[1]
		}
	}
	if moveLine == "" {
		return nil
	}

	legalSet := make(map[string]rules.Move, len(legal))
	for _, m := range legal {
		legalSet[m.Algebraic] = m
	}

	var out []rules.Move
	var seen []string
	for _, tok := range strings.Split(moveLine, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		for _, candidate := range append([]string{tok}, salvageRewrites(tok)...) {
			m, ok := legalSet[candidate]
			if !ok {
				continue
			}
			if slices.Contains(seen, candidate) {
				break
			}
			out = append(out, m)
			seen = append(seen, candidate)
			break
		}
	}
	return out
}

// salvageRewrites returns the alternate spellings tried when tok does
// not exactly match a legal move's algebraic string.
func salvageRewrites(tok string) []string {
	var out []string
	if len(tok) > 1 && (tok[0] == 'P' || tok[0] == 'p') {
		out = append(out, tok[1:])
	}
	switch tok {
	case "O-O":
		out = append(out, "0-0")
	case "O-O-O":
		out = append(out, "0-0-0")
	}
	return out
}
