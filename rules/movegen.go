package rules

var rookDirs = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
var bishopDirs = [4][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
var queenDirs = append(append([][2]int{}, rookDirs[:]...), bishopDirs[:]...)
var knightSteps = [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
var kingSteps = queenDirs

// LegalMoves returns every move for color that does not leave that
// color's own king in check. It is the single entry point callers should
// use; pseudoLegalMoves over-generates and is filtered here.
func LegalMoves(s GameState, color Color) []Move {
	pseudo := pseudoLegalMoves(s, color)
	legal := make([]Move, 0, len(pseudo))
	for _, m := range pseudo {
		if doesNotLeaveOwnKingInCheck(s, m, color) {
			legal = append(legal, m)
		}
	}
	return legal
}

func pseudoLegalMoves(s GameState, color Color) []Move {
	var moves []Move
	b := &s.Board
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			cell := b[r][c]
			if cell.Empty || cell.Piece.Color != color {
				continue
			}
			from := Square{Row: r, Col: c}
			switch cell.Piece.Type {
			case Pawn:
				moves = append(moves, pawnMoves(s, from)...)
			case Knight:
				moves = append(moves, stepMoves(s, from, knightSteps[:])...)
			case King:
				moves = append(moves, stepMoves(s, from, kingSteps)...)
				moves = append(moves, castlingMoves(s, from)...)
			case Rook:
				moves = append(moves, slideMoves(s, from, rookDirs[:])...)
			case Bishop:
				moves = append(moves, slideMoves(s, from, bishopDirs[:])...)
			case Queen:
				moves = append(moves, slideMoves(s, from, queenDirs)...)
			}
		}
	}
	return moves
}

func slideMoves(s GameState, from Square, dirs [][2]int) []Move {
	b := &s.Board
	mover := b.at(from).Piece
	var moves []Move
	for _, d := range dirs {
		to := from.add(d[0], d[1])
		for to.onBoard() {
			target := b.at(to)
			if target.Empty {
				moves = append(moves, makeMove(s, from, to, false))
			} else {
				if target.Piece.Color != mover.Color && target.Piece.Type != King {
					moves = append(moves, makeMove(s, from, to, false))
				}
				break
			}
			to = to.add(d[0], d[1])
		}
	}
	return moves
}

func stepMoves(s GameState, from Square, steps [][2]int) []Move {
	b := &s.Board
	mover := b.at(from).Piece
	var moves []Move
	for _, d := range steps {
		to := from.add(d[0], d[1])
		if !to.onBoard() {
			continue
		}
		target := b.at(to)
		if target.Empty || (target.Piece.Color != mover.Color && target.Piece.Type != King) {
			moves = append(moves, makeMove(s, from, to, false))
		}
	}
	return moves
}

func pawnMoves(s GameState, from Square) []Move {
	b := &s.Board
	p := b.at(from).Piece
	dir := 1
	startRow := 1
	promoRow := 7
	if p.Color == Black {
		dir = -1
		startRow = 6
		promoRow = 0
	}

	var moves []Move

	one := from.add(dir, 0)
	if one.onBoard() && b.at(one).Empty {
		moves = append(moves, pawnMoveOrPromotion(s, from, one, promoRow, false, false))

		two := from.add(2*dir, 0)
		if from.Row == startRow && two.onBoard() && b.at(two).Empty {
			m := makeMove(s, from, two, false)
			m.IsPawnMoving2 = true
			moves = append(moves, m)
		}
	}

	for _, dc := range [2]int{-1, 1} {
		diag := from.add(dir, dc)
		if !diag.onBoard() {
			continue
		}
		target := b.at(diag)
		if !target.Empty && target.Piece.Color != p.Color && target.Piece.Type != King {
			moves = append(moves, pawnMoveOrPromotion(s, from, diag, promoRow, false, false))
			continue
		}
		if target.Empty {
			// en-passant: adjacent same-row enemy pawn that just moved two squares
			side := Square{Row: from.Row, Col: diag.Col}
			if side.onBoard() {
				sc := b.at(side)
				if !sc.Empty && sc.Piece.Type == Pawn && sc.Piece.Color != p.Color && sc.Piece.JustMoved2 {
					m := makeMove(s, from, diag, true)
					m.EnPassant = true
					moves = append(moves, m)
				}
			}
		}
	}

	return moves
}

func pawnMoveOrPromotion(s GameState, from, to Square, promoRow int, enPassant, castling bool) Move {
	m := makeMove(s, from, to, enPassant)
	if to.Row == promoRow {
		m.HasPromotion = true
		m.Promotion = Queen // the oracle consumer only ever sees the algebraic string; queening is the default
		m.Algebraic += "=Q"
	}
	return m
}

func castlingMoves(s GameState, kingFrom Square) []Move {
	b := &s.Board
	king := b.at(kingFrom).Piece
	if king.HasMoved {
		return nil
	}
	row := kingFrom.Row
	var moves []Move

	tryCastle := func(rookCol, kingToCol, rookToCol int, queenSide bool) {
		rookFrom := Square{Row: row, Col: rookCol}
		rc := b.at(rookFrom)
		if rc.Empty || rc.Piece.Type != Rook || rc.Piece.Color != king.Color || rc.Piece.HasMoved {
			return
		}
		lo, hi := kingFrom.Col, rookCol
		if lo > hi {
			lo, hi = hi, lo
		}
		for col := lo + 1; col < hi; col++ {
			if !b.at(Square{Row: row, Col: col}).Empty {
				return
			}
		}
		kingTo := Square{Row: row, Col: kingToCol}
		transit := Square{Row: row, Col: (kingFrom.Col + kingToCol) / 2}
		for _, sq := range []Square{kingFrom, transit, kingTo} {
			if isAttacked(s, sq, king.Color.Opposite()) {
				return
			}
		}
		alg := "0-0"
		if queenSide {
			alg = "0-0-0"
		}
		moves = append(moves, Move{From: kingFrom, To: kingTo, Algebraic: alg, Castling: true})
		_ = rookToCol
	}

	tryCastle(7, 6, 5, false) // king-side
	tryCastle(0, 2, 3, true)  // queen-side

	return moves
}

func makeMove(s GameState, from, to Square, enPassant bool) Move {
	b := &s.Board
	mover := b.at(from).Piece
	target := b.at(to)
	capture := !target.Empty || enPassant

	var alg string
	if mover.Type != Pawn {
		alg = string(mover.Type.letter())
	}
	if capture {
		alg += "x"
	}
	alg += PositionToAlgebraic(to.Row, to.Col)

	return Move{From: from, To: to, Algebraic: alg}
}

// isAttacked reports whether sq is attacked by any piece of attacker's
// color, tested the same way isCheck tests a king's square: sliding for
// rooks/queens/bishops, stepping for knights, and diagonal-adjacency for
// pawns (direction depends on the defender's color, i.e. the opposite of
// attacker).
func isAttacked(s GameState, sq Square, attacker Color) bool {
	b := &s.Board

	for _, d := range rookDirs {
		if slideAttacks(b, sq, d, attacker, Rook, Queen) {
			return true
		}
	}
	for _, d := range bishopDirs {
		if slideAttacks(b, sq, d, attacker, Bishop, Queen) {
			return true
		}
	}
	for _, d := range knightSteps {
		to := sq.add(d[0], d[1])
		if to.onBoard() {
			c := b.at(to)
			if !c.Empty && c.Piece.Color == attacker && c.Piece.Type == Knight {
				return true
			}
		}
	}
	for _, d := range kingSteps {
		to := sq.add(d[0], d[1])
		if to.onBoard() {
			c := b.at(to)
			if !c.Empty && c.Piece.Color == attacker && c.Piece.Type == King {
				return true
			}
		}
	}

	// pawn attacks: a defender standing on sq of color (opposite attacker)
	// is attacked diagonally-forward from the attacker's point of view,
	// which is diagonally-backward from sq's perspective.
	pawnDir := -1
	if attacker == Black {
		pawnDir = 1
	}
	for _, dc := range [2]int{-1, 1} {
		from := sq.add(pawnDir, dc)
		if from.onBoard() {
			c := b.at(from)
			if !c.Empty && c.Piece.Color == attacker && c.Piece.Type == Pawn {
				return true
			}
		}
	}

	return false
}

func slideAttacks(b *Board, sq Square, dir [2]int, attacker Color, kinds ...PieceType) bool {
	to := sq.add(dir[0], dir[1])
	for to.onBoard() {
		c := b.at(to)
		if c.Empty {
			to = to.add(dir[0], dir[1])
			continue
		}
		if c.Piece.Color != attacker {
			return false
		}
		for _, k := range kinds {
			if c.Piece.Type == k {
				return true
			}
		}
		return false
	}
	return false
}

// isCheck reports whether color's king is currently attacked.
func isCheck(s GameState, color Color) bool {
	king, ok := findKing(&s.Board, color)
	if !ok {
		panic(&InvariantViolation{Reason: "missing king for " + color.String()})
	}
	return isAttacked(s, king, color.Opposite())
}

func doesNotLeaveOwnKingInCheck(s GameState, m Move, color Color) bool {
	next := applyUnchecked(s, m)
	return !isCheck(next, color)
}
