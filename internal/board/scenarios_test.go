package board

import "testing"

// scenarioFENs are the start position plus the six positions used to judge this engine's
// tactical strength end to end (a full search at tournament time
// controls against the production network, which needs the engine
// binary and trained weights, not a unit test). Here they serve as a
// fixed, moderately tricky sample for the invariants every reachable
// position must satisfy: make/unmake round-tripping, Zobrist
// consistency, legal move list completeness, and SEE correctness.
var scenarioFENs = []string{
	StartFEN,
	"kbK5/pp6/1P6/8/8/8/8/R7 w - - 0 1",
	"rR6/p7/KnPk4/P7/8/8/8/8 w - - 0 1",
	"1b1q4/8/P2p4/1N1Pp2p/5P1k/7P/1B1P3K/8 w - - 0 1",
	"2r2rk1/1b3ppp/p1qpp3/1P6/1Pn1P2b/2NB1P1P/1BP1R1P1/R2Q2K1 b - - 0 19",
	"rn2kb1r/1bq2pp1/pp3n1p/4p3/2PQ1B1P/2N3P1/PP2PPB1/2KR3R w kq - 0 12",
	"4k3/Q6n/8/8/8/8/PR5P/4K1NR w K - 0 1",
}

// referenceLegalMoves re-derives the legal move list by a path
// independent of Position.GenerateLegalMoves: every pseudo-legal move
// is simulated on a throwaway VBoard and kept only if it leaves the
// mover's own king safe. Castling's transit-square safety is already
// validated at generation time (see generateCastlingMoves), so no
// pseudo-legal castling move reaching here can be otherwise illegal.
func referenceLegalMoves(p *Position) map[Move]bool {
	us := p.SideToMove
	them := us.Other()
	pseudo := p.GeneratePseudoLegalMoves()
	out := make(map[Move]bool, pseudo.Len())
	for i := 0; i < pseudo.Len(); i++ {
		m := pseudo.Get(i)
		vb := NewVBoard(p)
		vb.ApplyMove(m, us)
		if !vb.IsKingAttacked(vb.KingSquare[us], them) {
			out[m] = true
		}
	}
	return out
}

// TestScenarioMakeUnmakeRoundTrip covers §8's make/unmake invariant:
// unmake(make(P, m)) == P for every legal move of every scenario
// position, compared by FEN, Zobrist hash and pawn key.
func TestScenarioMakeUnmakeRoundTrip(t *testing.T) {
	for _, fen := range scenarioFENs {
		pos, err := ParseFEN(fen)
		if err != nil {
			t.Fatalf("%s: parse: %v", fen, err)
		}
		before := pos.ToFEN()
		beforeHash, beforePawnKey := pos.Hash, pos.PawnKey

		legal := pos.GenerateLegalMoves()
		for i := 0; i < legal.Len(); i++ {
			m := legal.Get(i)
			undo := pos.MakeMove(m)
			pos.UnmakeMove(m, undo)

			if got := pos.ToFEN(); got != before {
				t.Fatalf("%s: move %v: FEN mismatch after unmake: got %q want %q", fen, m, got, before)
			}
			if pos.Hash != beforeHash {
				t.Fatalf("%s: move %v: hash mismatch after unmake: got %x want %x", fen, m, pos.Hash, beforeHash)
			}
			if pos.PawnKey != beforePawnKey {
				t.Fatalf("%s: move %v: pawn key mismatch after unmake", fen, m)
			}
		}
	}
}

// TestScenarioIncrementalHashMatchesFresh covers §8's Zobrist
// invariant: the hash make/unmake maintains incrementally must equal
// ComputeHash from scratch, both at rest and after playing every
// legal move one ply deep.
func TestScenarioIncrementalHashMatchesFresh(t *testing.T) {
	for _, fen := range scenarioFENs {
		pos, err := ParseFEN(fen)
		if err != nil {
			t.Fatalf("%s: parse: %v", fen, err)
		}
		if fresh := pos.ComputeHash(); fresh != pos.Hash {
			t.Fatalf("%s: incremental hash %x != fresh hash %x at rest", fen, pos.Hash, fresh)
		}

		legal := pos.GenerateLegalMoves()
		for i := 0; i < legal.Len(); i++ {
			m := legal.Get(i)
			undo := pos.MakeMove(m)
			if fresh := pos.ComputeHash(); fresh != pos.Hash {
				t.Errorf("%s: move %v: incremental hash %x != fresh hash %x", fen, m, pos.Hash, fresh)
			}
			pos.UnmakeMove(m, undo)
		}
	}
}

// TestScenarioLegalMoveListCompleteness covers §8's move-list
// invariant: no duplicates, every emitted move leaves the mover's own
// king safe, and no legal move is missing, cross-validated against
// referenceLegalMoves (the slow VBoard-based reference generator).
func TestScenarioLegalMoveListCompleteness(t *testing.T) {
	for _, fen := range scenarioFENs {
		pos, err := ParseFEN(fen)
		if err != nil {
			t.Fatalf("%s: parse: %v", fen, err)
		}

		legal := pos.GenerateLegalMoves()
		seen := make(map[Move]bool, legal.Len())
		for i := 0; i < legal.Len(); i++ {
			m := legal.Get(i)
			if seen[m] {
				t.Errorf("%s: duplicate move %v in legal move list", fen, m)
			}
			seen[m] = true
		}

		reference := referenceLegalMoves(pos)
		for m := range seen {
			if !reference[m] {
				t.Errorf("%s: GenerateLegalMoves produced %v, which the reference generator rejects", fen, m)
			}
		}
		for m := range reference {
			if !seen[m] {
				t.Errorf("%s: reference generator found %v missing from GenerateLegalMoves", fen, m)
			}
		}
	}
}

// TestScenarioSeeGEAgreesWithFullExchange covers §8's SEE invariant:
// see_ge(m, 0) must agree with the sign of a full simulated exchange
// on m's destination square, carried out by repeatedly playing the
// cheapest recapture available to each side in turn on a VBoard.
func TestScenarioSeeGEAgreesWithFullExchange(t *testing.T) {
	for _, fen := range scenarioFENs {
		pos, err := ParseFEN(fen)
		if err != nil {
			t.Fatalf("%s: parse: %v", fen, err)
		}

		captures := pos.GenerateCaptures()
		for i := 0; i < captures.Len(); i++ {
			m := captures.Get(i)
			if m.IsEnPassant() || m.IsPromotion() {
				// fullExchangeValue doesn't model the en-passant victim
				// square or the promotion value bonus SeeGE itself
				// adds, so these moves are not compared here.
				continue
			}
			want := fullExchangeValue(pos, m) >= 0
			got := pos.SeeGE(m, 0)
			if got != want {
				t.Errorf("%s: SeeGE(%v, 0) = %v, want %v (full exchange)", fen, m, got, want)
			}
		}
	}
}

// fullExchangeValue simulates the complete capture sequence on m's
// destination square by always recapturing with the least valuable
// attacker, stopping when a side has nothing left to recapture with
// or recapturing would lose material outright. It returns the net
// material swing for the side playing m, from scratch, independent of
// Position.SeeGE's own swap-list algorithm.
func fullExchangeValue(pos *Position, m Move) int {
	vb := NewVBoard(pos)
	us := pos.SideToMove
	to := m.To()

	gain := make([]int, 0, 16)
	captured := pos.PieceAt(to)
	gain = append(gain, captured.Value())

	mover := pos.PieceAt(m.From())
	vb.Pieces[us][mover.Type()] &^= SquareBB(m.From())
	vb.Occupied[us] &^= SquareBB(m.From())
	vb.Pieces[us][mover.Type()] |= SquareBB(to)
	vb.Occupied[us] |= SquareBB(to)
	vb.AllOccupied = vb.Occupied[White] | vb.Occupied[Black]
	lastValue := mover.Value()

	side := us.Other()
	for {
		attacker, attackerType, ok := leastValuableAttacker(&vb, to, side)
		if !ok {
			break
		}
		gain = append(gain, lastValue-gain[len(gain)-1])
		vb.Pieces[side][attackerType] &^= SquareBB(attacker)
		vb.Occupied[side] &^= SquareBB(attacker)
		vb.Pieces[side][attackerType] |= SquareBB(to)
		vb.Occupied[side] |= SquareBB(to)
		vb.AllOccupied = vb.Occupied[White] | vb.Occupied[Black]
		lastValue = PieceValue[attackerType]
		side = side.Other()
	}

	for i := len(gain) - 2; i >= 0; i-- {
		if -gain[i+1] < gain[i] {
			gain[i] = -gain[i+1]
		}
	}
	return gain[0]
}

// leastValuableAttacker finds the cheapest piece of color by that
// attacks to on vb, removing the king from consideration when it
// would be moving into an otherwise-defended square is not modeled
// here (fullExchangeValue is a value-only oracle, not a legality
// check).
func leastValuableAttacker(vb *VBoard, to Square, by Color) (Square, PieceType, bool) {
	for pt := Pawn; pt <= King; pt++ {
		var attackers Bitboard
		switch pt {
		case Pawn:
			attackers = pawnAttacks[by.Other()][to] & vb.Pieces[by][Pawn]
		case Knight:
			attackers = KnightAttacks(to) & vb.Pieces[by][Knight]
		case Bishop:
			attackers = BishopAttacks(to, vb.AllOccupied) & vb.Pieces[by][Bishop]
		case Rook:
			attackers = RookAttacks(to, vb.AllOccupied) & vb.Pieces[by][Rook]
		case Queen:
			attackers = (BishopAttacks(to, vb.AllOccupied) | RookAttacks(to, vb.AllOccupied)) & vb.Pieces[by][Queen]
		case King:
			attackers = KingAttacks(to) & vb.Pieces[by][King]
		}
		if attackers != 0 {
			return attackers.LSB(), pt, true
		}
	}
	return NoSquare, NoPieceType, false
}
