package engine

import (
	"testing"

	"github.com/hailam/nnueuchess/internal/board"
)

// countAlphaBeta drains an AlphaBetaSelector
// and returns how many moves it produced along with whether any
// duplicate was yielded.
func countAlphaBeta(sel *AlphaBetaSelector) (int, bool) {
	seen := map[board.Move]bool{}
	dup := false
	n := 0
	for {
		m, ok := sel.Next()
		if !ok {
			break
		}
		if seen[m] {
			dup = true
		}
		seen[m] = true
		n++
	}
	return n, dup
}

func TestAlphaBetaSelectorPVEnumeratesEveryLegalMoveOnce(t *testing.T) {
	pos := board.NewPosition()
	legal := pos.GenerateLegalMoves()

	sel := NewAlphaBetaSelector(pos, true, board.NoMove, refutationMoves{})
	n, dup := countAlphaBeta(sel)

	if dup {
		t.Fatal("PV selector yielded a duplicate move")
	}
	if n != legal.Len() {
		t.Fatalf("PV selector yielded %d moves, want %d", n, legal.Len())
	}
}

func TestAlphaBetaSelectorNonPVSkipsTTMove(t *testing.T) {
	pos := board.NewPosition()
	legal := pos.GenerateLegalMoves()
	ttMove := legal.Get(0)

	sel := NewAlphaBetaSelector(pos, false, ttMove, refutationMoves{})
	n, dup := countAlphaBeta(sel)

	if dup {
		t.Fatal("non-PV selector yielded a duplicate move")
	}
	if n != legal.Len()-1 {
		t.Fatalf("non-PV selector yielded %d moves, want %d (ttMove skipped)", n, legal.Len()-1)
	}
}

func TestQuiescenceSelectorNotInCheckOnlyCapturesAndPromotions(t *testing.T) {
	// A position with a capture available: the e4 pawn can take the d5 pawn.
	pos, err := board.ParseFEN("rnbqkbnr/ppp1pppp/8/3p4/4P3/8/PPPP1PPP/RNBQKBNR w KQkq d6 0 2")
	if err != nil {
		t.Fatalf("parse FEN: %v", err)
	}

	sel := NewQuiescenceSelector(pos)
	for {
		m, ok := sel.Next()
		if !ok {
			break
		}
		if !m.IsCapture(pos) && !m.IsPromotion() {
			t.Fatalf("quiescence selector yielded a non-capture, non-promotion move: %s", m.String())
		}
	}
}

func TestQuiescenceSelectorInCheckEnumeratesEvasions(t *testing.T) {
	// Black king in check along the open e-file; every legal reply is
	// an evasion, not necessarily a capture.
	pos, err := board.ParseFEN("4k3/8/8/8/8/8/8/4R1K1 b - - 0 1")
	if err != nil {
		t.Fatalf("parse FEN: %v", err)
	}
	pos.EnsureCheckData()
	if pos.NumChecks == 0 {
		t.Fatal("test position should be check")
	}

	legal := pos.GenerateLegalMoves()
	sel := NewQuiescenceSelector(pos)
	n, dup := countQuiescence(sel)
	if dup {
		t.Fatal("quiescence evasion selector yielded a duplicate")
	}
	if n != legal.Len() {
		t.Fatalf("quiescence evasion selector yielded %d moves, want %d", n, legal.Len())
	}
}

func countQuiescence(sel *QuiescenceSelector) (int, bool) {
	seen := map[board.Move]bool{}
	dup := false
	n := 0
	for {
		m, ok := sel.Next()
		if !ok {
			break
		}
		if seen[m] {
			dup = true
		}
		seen[m] = true
		n++
	}
	return n, dup
}
