package board

// CaptureUndo is the reduced undo record MakeCapture/UnmakeCapture use
// in place of the full UndoInfo. Quiescence never plays a castling
// move or a double pawn push (see SPEC_FULL.md §4.3.2), so neither the
// rook-relocation bookkeeping nor a new en-passant square ever needs
// to be recorded here.
type CaptureUndo struct {
	CapturedPiece  Piece
	CastlingRights CastlingRights
	EnPassant      Square
	HalfMoveClock  int
	Hash           uint64
	Checkers       Bitboard

	historyLen       int
	historyTruncated bool
}

// MakeCapture is the quiescence fast path of MakeMove: the caller must
// have already validated m's legality and that it is a capture (plain
// or en-passant), a promotion, or both — never a castling move or a
// double pawn push. Skipping those two cases lets this path drop the
// rook-relocation branch and the new-en-passant-square branch MakeMove
// carries, at the cost of a smaller, purpose-built undo record instead
// of the general UndoInfo.
func (p *Position) MakeCapture(m Move) CaptureUndo {
	undo := CaptureUndo{
		CapturedPiece:  NoPiece,
		CastlingRights: p.CastlingRights,
		EnPassant:      p.EnPassant,
		HalfMoveClock:  p.HalfMoveClock,
		Hash:           p.Hash,
		Checkers:       p.Checkers,
	}

	us := p.SideToMove
	them := us.Other()
	from := m.From()
	to := m.To()
	piece := p.PieceAt(from)
	pt := piece.Type()

	p.Hash ^= zobristSideToMove
	p.Hash ^= zobristCastling[p.CastlingRights]
	if p.EnPassant != NoSquare {
		p.Hash ^= zobristEnPassant[p.EnPassant.File()]
	}
	p.EnPassant = NoSquare

	if m.IsEnPassant() {
		capturedSq := epCapturedSquare(us, to)
		undo.CapturedPiece = p.removePiece(capturedSq)
		p.Hash ^= zobristPiece[them][Pawn][capturedSq]
	} else if captured := p.PieceAt(to); captured != NoPiece {
		undo.CapturedPiece = captured
		p.removePiece(to)
		p.Hash ^= zobristPiece[them][captured.Type()][to]
	}

	p.movePiece(from, to)
	p.Hash ^= zobristPiece[us][pt][from]
	p.Hash ^= zobristPiece[us][pt][to]

	if m.IsPromotion() {
		promoPt := m.Promotion()
		p.Pieces[us][Pawn] &^= SquareBB(to)
		p.Pieces[us][promoPt] |= SquareBB(to)
		p.Hash ^= zobristPiece[us][Pawn][to]
		p.Hash ^= zobristPiece[us][promoPt][to]
	}

	p.updateCastlingRightsFor(pt, us, from, to)
	p.Hash ^= zobristCastling[p.CastlingRights]

	// Every move played through this path is a capture or a promotion:
	// both are irreversible, so the clock always resets.
	p.HalfMoveClock = 0

	if us == Black {
		p.FullMoveNumber++
	}
	p.SideToMove = them
	p.UpdateCheckers()
	p.checkDataSet = false

	undo.historyTruncated = true
	undo.historyLen = len(p.History)
	p.History = p.History[:0]
	p.History = append(p.History, p.Hash)

	return undo
}

// UnmakeCapture reverses MakeCapture.
func (p *Position) UnmakeCapture(m Move, undo CaptureUndo) {
	them := p.SideToMove
	us := them.Other()
	from := m.From()
	to := m.To()

	if undo.historyTruncated {
		p.History = p.History[:0]
	} else {
		p.History = p.History[:undo.historyLen]
	}

	p.CastlingRights = undo.CastlingRights
	p.EnPassant = undo.EnPassant
	p.HalfMoveClock = undo.HalfMoveClock
	p.Hash = undo.Hash
	p.Checkers = undo.Checkers
	p.SideToMove = us
	p.checkDataSet = false

	if us == Black {
		p.FullMoveNumber--
	}

	if m.IsPromotion() {
		promoPt := m.Promotion()
		p.Pieces[us][promoPt] &^= SquareBB(to)
		p.Pieces[us][Pawn] |= SquareBB(to)
	}

	p.movePiece(to, from)

	if undo.CapturedPiece != NoPiece {
		if m.IsEnPassant() {
			p.setPiece(undo.CapturedPiece, epCapturedSquare(us, to))
		} else {
			p.setPiece(undo.CapturedPiece, to)
		}
	}
}

// epCapturedSquare is the square of the pawn taken by an en-passant
// capture landing on to, for the side to move us.
func epCapturedSquare(us Color, to Square) Square {
	if us == White {
		return to - 8
	}
	return to + 8
}

// updateCastlingRightsFor withdraws whatever castling right(s) a king
// move, a rook move off its home square, or a capture on a rook's home
// square invalidates. Shared by MakeMove and MakeCapture.
func (p *Position) updateCastlingRightsFor(pt PieceType, us Color, from, to Square) {
	if pt == King {
		if us == White {
			p.CastlingRights &^= WhiteKingSideCastle | WhiteQueenSideCastle
		} else {
			p.CastlingRights &^= BlackKingSideCastle | BlackQueenSideCastle
		}
	}
	if from == A1 || to == A1 {
		p.CastlingRights &^= WhiteQueenSideCastle
	}
	if from == H1 || to == H1 {
		p.CastlingRights &^= WhiteKingSideCastle
	}
	if from == A8 || to == A8 {
		p.CastlingRights &^= BlackQueenSideCastle
	}
	if from == H8 || to == H8 {
		p.CastlingRights &^= BlackKingSideCastle
	}
}
