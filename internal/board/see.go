package board

// seePieceValue gives the material values used by the static exchange
// evaluator. These are independent of the evaluator's own piece values
// since SEE only needs to rank the order attackers should be thrown in.
var seePieceValue = [7]int{
	Pawn:   100,
	Knight: 320,
	Bishop: 330,
	Rook:   500,
	Queen:  900,
	King:   20000,
}

// SeeGE reports whether the static exchange evaluation of m is at least
// threshold, simulating the full capture sequence on m.To() without
// mutating the position. Used by quiescence search and the move
// selectors to discard captures that lose material.
func (p *Position) SeeGE(m Move, threshold int) bool {
	from := m.From()
	to := m.To()

	attacker := p.PieceAt(from)
	if attacker == NoPiece {
		return threshold <= 0
	}

	var gain int
	if m.IsEnPassant() {
		gain = seePieceValue[Pawn]
	} else if victim := p.PieceAt(to); victim != NoPiece {
		gain = seePieceValue[victim.Type()]
	}
	if m.IsPromotion() {
		gain += seePieceValue[m.Promotion()] - seePieceValue[Pawn]
	}

	return p.seeSwap(to, from, attacker, gain) >= threshold
}

// seeSwap runs the standard swap-off algorithm: alternately replace the
// piece on target with the least valuable remaining attacker of each
// side, and negamax the resulting gain array.
func (p *Position) seeSwap(target, excludeFrom Square, firstAttacker Piece, initialGain int) int {
	var gain [32]int
	d := 0
	gain[d] = initialGain

	occupied := p.AllOccupied &^ SquareBB(excludeFrom)
	attackerValue := seePieceValue[firstAttacker.Type()]
	side := firstAttacker.Color().Other()

	for {
		d++
		gain[d] = attackerValue - gain[d-1]
		if max(-gain[d-1], gain[d]) < 0 {
			break
		}

		attackerSq, attackerPiece := p.leastValuableAttacker(target, side, occupied)
		if attackerSq == NoSquare {
			break
		}
		occupied &^= SquareBB(attackerSq)
		attackerValue = seePieceValue[attackerPiece.Type()]
		side = side.Other()
	}

	for d--; d > 0; d-- {
		gain[d-1] = -max(-gain[d-1], gain[d])
	}
	return gain[0]
}

// leastValuableAttacker finds the cheapest piece of c attacking target
// given occupied, recomputing slider attacks each time so that pieces
// unmasked by earlier removals (x-ray attackers) are picked up.
func (p *Position) leastValuableAttacker(target Square, c Color, occupied Bitboard) (Square, Piece) {
	if pawns := p.Pieces[c][Pawn] & PawnAttacks(target, c.Other()) & occupied; pawns != 0 {
		return pawns.LSB(), NewPiece(Pawn, c)
	}
	if knights := p.Pieces[c][Knight] & KnightAttacks(target) & occupied; knights != 0 {
		return knights.LSB(), NewPiece(Knight, c)
	}

	bishopAttacks := BishopAttacks(target, occupied)
	if bishops := p.Pieces[c][Bishop] & bishopAttacks & occupied; bishops != 0 {
		return bishops.LSB(), NewPiece(Bishop, c)
	}

	rookAttacks := RookAttacks(target, occupied)
	if rooks := p.Pieces[c][Rook] & rookAttacks & occupied; rooks != 0 {
		return rooks.LSB(), NewPiece(Rook, c)
	}

	if queens := p.Pieces[c][Queen] & (bishopAttacks | rookAttacks) & occupied; queens != 0 {
		return queens.LSB(), NewPiece(Queen, c)
	}

	if kingBB := p.Pieces[c][King] & KingAttacks(target) & occupied; kingBB != 0 {
		return kingBB.LSB(), NewPiece(King, c)
	}

	return NoSquare, NoPiece
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
