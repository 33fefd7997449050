package board

// ComputeCheckData recomputes the per-node derived state consumed by the
// staged move generator and the move selectors: pins, discovered-check
// blockers, the current checkers/check-ray set, and the opponent's
// attacked-square set. It is cheap enough to call once per node before
// move generation; callers that already have it (checkDataSet) may skip
// recomputation after a legality failure that didn't change the position.
func (p *Position) ComputeCheckData() {
	us := p.SideToMove
	them := us.Other()
	ksq := p.KingSquare[us]
	theirKing := p.KingSquare[them]

	p.DiagonalPins = 0
	p.StraightPins = 0

	straightSnipers := RookAttacks(ksq, 0) & (p.Pieces[them][Rook] | p.Pieces[them][Queen])
	for straightSnipers != 0 {
		sq := straightSnipers.PopLSB()
		between := Between(sq, ksq) & p.AllOccupied
		if between.PopCount() == 1 && between&p.Occupied[us] != 0 {
			p.StraightPins |= between
		}
	}

	diagSnipers := BishopAttacks(ksq, 0) & (p.Pieces[them][Bishop] | p.Pieces[them][Queen])
	for diagSnipers != 0 {
		sq := diagSnipers.PopLSB()
		between := Between(sq, ksq) & p.AllOccupied
		if between.PopCount() == 1 && between&p.Occupied[us] != 0 {
			p.DiagonalPins |= between
		}
	}

	p.Blockers = 0
	ourStraight := RookAttacks(theirKing, 0) & (p.Pieces[us][Rook] | p.Pieces[us][Queen])
	for ourStraight != 0 {
		sq := ourStraight.PopLSB()
		between := Between(sq, theirKing) & p.AllOccupied
		if between.PopCount() == 1 {
			p.Blockers |= between
		}
	}
	ourDiag := BishopAttacks(theirKing, 0) & (p.Pieces[us][Bishop] | p.Pieces[us][Queen])
	for ourDiag != 0 {
		sq := ourDiag.PopLSB()
		between := Between(sq, theirKing) & p.AllOccupied
		if between.PopCount() == 1 {
			p.Blockers |= between
		}
	}

	p.Checkers = p.AttackersByColor(ksq, them, p.AllOccupied)
	p.NumChecks = p.Checkers.PopCount()
	p.CheckRays = 0
	p.CheckSquare = NoSquare
	if p.NumChecks == 1 {
		checkerSq := p.Checkers.LSB()
		p.CheckSquare = checkerSq
		switch p.PieceAt(checkerSq).Type() {
		case Bishop, Rook, Queen:
			p.CheckRays = Between(checkerSq, ksq)
		}
	}

	p.UnsafeSquares = p.attackedSquaresBy(them, ksq)
	p.checkDataSet = true
}

// attackedSquaresBy returns every square attacked by c, with ourKingSq
// removed from the occupancy so that sliding attacks x-ray through the
// king (a king may not step back along the same ray it is checked on).
func (p *Position) attackedSquaresBy(c Color, ourKingSq Square) Bitboard {
	occ := p.AllOccupied &^ SquareBB(ourKingSq)
	var bb Bitboard

	pawns := p.Pieces[c][Pawn]
	for pawns != 0 {
		sq := pawns.PopLSB()
		bb |= PawnAttacks(sq, c)
	}

	knights := p.Pieces[c][Knight]
	for knights != 0 {
		bb |= KnightAttacks(knights.PopLSB())
	}

	diagSliders := p.Pieces[c][Bishop] | p.Pieces[c][Queen]
	for diagSliders != 0 {
		bb |= BishopAttacks(diagSliders.PopLSB(), occ)
	}

	straightSliders := p.Pieces[c][Rook] | p.Pieces[c][Queen]
	for straightSliders != 0 {
		bb |= RookAttacks(straightSliders.PopLSB(), occ)
	}

	if kingBB := p.Pieces[c][King]; kingBB != 0 {
		bb |= KingAttacks(kingBB.LSB())
	}

	return bb
}

// EnsureCheckData computes the derived pin/check/unsafe-square state if it
// has not been computed since the last make/unmake.
func (p *Position) EnsureCheckData() {
	if !p.checkDataSet {
		p.ComputeCheckData()
	}
}

// IsPinned reports whether the piece on sq is pinned to our king (either
// diagonally or along a file/rank).
func (p *Position) IsPinned(sq Square) bool {
	return (p.DiagonalPins|p.StraightPins)&SquareBB(sq) != 0
}

// PinRay returns the full line through the king and the pinned piece on
// sq, along which the pinned piece may still move. Only diagonal XOR
// straight pins exist for a given square, never both at once.
func (p *Position) PinRay(sq Square) Bitboard {
	ksq := p.KingSquare[p.SideToMove]
	if SquareBB(sq)&(p.DiagonalPins|p.StraightPins) == 0 {
		return Universe
	}
	return Line(ksq, sq)
}

// IsDrawByRepetitionOrFifty implements the search-level draw test of
// the fifty-move rule and three-fold repetition, scanning the ring of
// Zobrist keys accumulated since the last irreversible move.
func (p *Position) IsDrawByRepetitionOrFifty() bool {
	if p.HalfMoveClock >= 100 {
		return true
	}
	n := len(p.History)
	if n == 0 {
		return false
	}
	current := p.Hash
	limit := p.HalfMoveClock
	if limit > n-1 {
		limit = n - 1
	}
	matches := 0
	for i := n - 3; i >= 0 && i >= n-1-limit; i -= 2 {
		if p.History[i] == current {
			matches++
			if matches >= 2 {
				return true
			}
		}
	}
	return false
}
