// Package prompt renders a rules.GameState into the canonical textual
// context block and the three task prompts (describe, evaluate,
// enumerate successors) the agent sends to the oracle.
package prompt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/llmchess/core/oracle"
	"github.com/llmchess/core/rules"
)

// Context renders the shared context block: ASCII board, legend, piece
// census, per-piece squares grouped by color, move history, and a
// sentence declaring whose turn it is.
func Context(s rules.GameState) string {
	var sb strings.Builder

	sb.WriteString(asciiBoard(s.Board))
	sb.WriteString("\n")
	sb.WriteString(legend())
	sb.WriteString("\n")
	sb.WriteString(pieceCensus(s))
	sb.WriteString("\n")
	sb.WriteString(pieceSquares(s))
	sb.WriteString("\n")
	sb.WriteString(moveHistory(s))
	sb.WriteString("\n")
	sb.WriteString(turnSentence(s))

	return sb.String()
}

func asciiBoard(b rules.Board) string {
	var sb strings.Builder
	sb.WriteString("  a b c d e f g h\n")
	for r := 7; r >= 0; r-- {
		sb.WriteString(fmt.Sprintf("%d ", r+1))
		for c := 0; c < 8; c++ {
			cell := b[r][c]
			sb.WriteByte(cellGlyph(cell))
			sb.WriteByte(' ')
		}
		sb.WriteString(fmt.Sprintf("%d\n", r+1))
	}
	sb.WriteString("  a b c d e f g h")
	return sb.String()
}

func cellGlyph(cell rules.Cell) byte {
	if cell.Empty {
		return '.'
	}
	letters := map[rules.PieceType]byte{
		rules.Pawn: 'p', rules.Rook: 'r', rules.Knight: 'n',
		rules.Bishop: 'b', rules.Queen: 'q', rules.King: 'k',
	}
	ch := letters[cell.Piece.Type]
	if cell.Piece.Color == rules.White {
		ch -= 'a' - 'A'
	}
	return ch
}

func legend() string {
	return "Legend: uppercase = white pieces, lowercase = black pieces, " +
		"'.' = empty square. P/p=pawn, R/r=rook, N/n=knight, B/b=bishop, Q/q=queen, K/k=king."
}

func pieceCensus(s rules.GameState) string {
	pc := rules.PieceCountOf(s)
	var sb strings.Builder
	sb.WriteString("Piece census: {\n")
	for _, color := range []rules.Color{rules.White, rules.Black} {
		sb.WriteString(fmt.Sprintf("  %q: {", color.String()))
		first := true
		for _, t := range []rules.PieceType{rules.Pawn, rules.Knight, rules.Bishop, rules.Rook, rules.Queen, rules.King} {
			if !first {
				sb.WriteString(", ")
			}
			first = false
			sb.WriteString(fmt.Sprintf("%q: %d", pieceName(t), pc[color][t]))
		}
		sb.WriteString("},\n")
	}
	sb.WriteString("}")
	return sb.String()
}

func pieceName(t rules.PieceType) string {
	switch t {
	case rules.Pawn:
		return "pawn"
	case rules.Rook:
		return "rook"
	case rules.Knight:
		return "knight"
	case rules.Bishop:
		return "bishop"
	case rules.Queen:
		return "queen"
	case rules.King:
		return "king"
	}
	return "?"
}

func pieceSquares(s rules.GameState) string {
	squares := map[rules.Color][]string{}
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			cell := s.Board[r][c]
			if cell.Empty {
				continue
			}
			label := fmt.Sprintf("%s@%s", pieceName(cell.Piece.Type), rules.PositionToAlgebraic(r, c))
			squares[cell.Piece.Color] = append(squares[cell.Piece.Color], label)
		}
	}
	var sb strings.Builder
	for _, color := range []rules.Color{rules.White, rules.Black} {
		list := squares[color]
		sort.Strings(list)
		sb.WriteString(fmt.Sprintf("%s pieces: %s\n", capitalize(color.String()), strings.Join(list, ", ")))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func moveHistory(s rules.GameState) string {
	algs := make([]string, len(s.History))
	for i, m := range s.History {
		algs[i] = m.Algebraic
	}
	return "Move history: " + strings.Join(algs, " ")
}

func turnSentence(s rules.GameState) string {
	return fmt.Sprintf("It is %s's turn to move.", s.ToMove.String())
}

// Describe builds the "describe the game state" prompt.
func Describe(context string) []oracle.Message {
	return []oracle.Message{
		{Role: oracle.RoleSystem, Content: "You are a chess analyst."},
		{Role: oracle.RoleUser, Content: context + "\n\nDescribe the game state. Talk about important pieces, " +
			"danger, tactics, and implications. Format as three short sets of bullet points."},
	}
}

// Evaluate builds the "who is more likely to win" prompt.
func Evaluate(context, description string) []oracle.Message {
	return []oracle.Message{
		{Role: oracle.RoleSystem, Content: "You are a chess analyst."},
		{Role: oracle.RoleUser, Content: context + "\n\n" + description +
			"\n\nWho is more likely to win this game? Just answer `black` or `white`, lowercase."},
	}
}

// Successors builds the "what moves is the side likely to make next" prompt.
// n is a suggested candidate count; legalMoves is the full legal-move set
// in algebraic form that the oracle must choose from.
func Successors(context, description string, side rules.Color, n int, legalMoves []string) []oracle.Message {
	content := fmt.Sprintf(
		"%s\n\n%s\n\nWhat moves is the %s player likely to make next? Select around %d. "+
			"Finish with `Moves: ` followed by algebraic moves separated by commas. "+
			"Choose from the following moves: %s",
		context, description, side.String(), n, strings.Join(legalMoves, ", "),
	)
	return []oracle.Message{
		{Role: oracle.RoleSystem, Content: "You are a chess analyst."},
		{Role: oracle.RoleUser, Content: content},
	}
}
