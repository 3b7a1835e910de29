package rules

// InitialState returns the standard chess starting position, white to move.
func InitialState() GameState {
	var b Board
	back := [8]PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

	for col := 0; col < 8; col++ {
		b[0][col] = Cell{Piece: Piece{Type: back[col], Color: White}}
		b[7][col] = Cell{Piece: Piece{Type: back[col], Color: Black}}
		b[1][col] = Cell{Piece: Piece{Type: Pawn, Color: White}}
		b[6][col] = Cell{Piece: Piece{Type: Pawn, Color: Black}}
		for row := 2; row < 6; row++ {
			b[row][col] = Cell{Empty: true}
		}
	}

	return GameState{ToMove: White, Board: b}
}

// PositionToAlgebraic converts a zero-based (row, col) square into
// algebraic notation, e.g. (0,0) -> "a1", (7,7) -> "h8".
func PositionToAlgebraic(r, c int) string {
	return string([]byte{byte('a' + c), byte('1' + r)})
}

func (b *Board) at(s Square) Cell {
	return b[s.Row][s.Col]
}

func (b *Board) set(s Square, c Cell) {
	b[s.Row][s.Col] = c
}

// Set places a cell on the board. Exported for callers (tests, the CLI)
// that need to construct a position other than the standard start.
func (b *Board) Set(s Square, c Cell) {
	b.set(s, c)
}

// EmptyState returns a GameState with an empty board and the given side
// to move, for building custom positions.
func EmptyState(toMove Color) GameState {
	var b Board
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			b[r][c] = Cell{Empty: true}
		}
	}
	return GameState{ToMove: toMove, Board: b}
}

// clone returns a deep copy of the state; Apply always operates on a clone
// so the input GameState is never mutated.
func (s GameState) clone() GameState {
	out := GameState{
		ToMove:  s.ToMove,
		Board:   s.Board, // arrays are value types: this already copies
		History: make([]Move, len(s.History)),
	}
	copy(out.History, s.History)
	return out
}

// PieceCountOf tallies the pieces currently on the board by color and type.
func PieceCountOf(s GameState) PieceCount {
	pc := PieceCount{
		White: map[PieceType]int{},
		Black: map[PieceType]int{},
	}
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			cell := s.Board[r][c]
			if cell.Empty {
				continue
			}
			pc[cell.Piece.Color][cell.Piece.Type]++
		}
	}
	return pc
}

// findKing locates the king of the given color. Returns ok=false if the
// invariant "exactly one king of each color" has somehow been broken.
func findKing(b *Board, color Color) (Square, bool) {
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			cell := b[r][c]
			if !cell.Empty && cell.Piece.Type == King && cell.Piece.Color == color {
				return Square{Row: r, Col: c}, true
			}
		}
	}
	return Square{}, false
}
