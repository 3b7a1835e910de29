package rules

import "strings"

// Hash computes a deterministic, process-stable fingerprint of s. It
// concatenates a per-cell tag with "," separators, prefixed by the side
// to move, so that two states hash equal iff they are behaviourally
// identical for the purposes of legal-move generation (including
// castling rights and the en-passant window).
func Hash(s GameState) StateHash {
	var sb strings.Builder
	sb.WriteString(s.ToMove.String())
	sb.WriteByte('|')

	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			if r != 0 || c != 0 {
				sb.WriteByte(',')
			}
			cell := s.Board[r][c]
			if cell.Empty {
				sb.WriteString("empty")
				continue
			}
			p := cell.Piece
			sb.WriteString(p.Color.String())
			sb.WriteByte('_')
			sb.WriteString(pieceLetterLower(p.Type))
			sb.WriteByte('_')
			if p.HasMoved {
				sb.WriteByte('1')
			} else {
				sb.WriteByte('0')
			}
			if p.Type == Pawn && p.JustMoved2 {
				sb.WriteString("_jm2")
			}
		}
	}
	return StateHash(sb.String())
}

func pieceLetterLower(t PieceType) string {
	switch t {
	case Pawn:
		return "p"
	case Rook:
		return "r"
	case Knight:
		return "n"
	case Bishop:
		return "b"
	case Queen:
		return "q"
	case King:
		return "k"
	default:
		return "?"
	}
}
