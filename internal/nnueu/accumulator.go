package nnueu

import "github.com/hailam/nnueuchess/internal/board"

// Change describes the incremental update that produced a node's
// accumulator state: the feature added, the feature removed, and
// (for captures) the captured piece's own feature, removed from the
// perspective being updated before the mover's feature swap is applied.
type Change struct {
	IsCapture bool
	Add       int
	Remove    int
	Captured  int // only meaningful if IsCapture
}

// IsKingMove reports whether this change moved the king: king moves
// never touch the 640-wide input layer for their own perspective
// (the king has no feature of its own), only the second-layer
// weight block selection changes.
func (c Change) IsKingMove() bool { return c.Add == c.Remove }

// AccumulatorState holds the transformed input vector for both
// perspectives at one node, plus the change that produced it. It
// starts "uncomputed" (Computed[p] == false) until ApplyIncremental
// or Initialize fills in a given perspective.
type AccumulatorState struct {
	InputTurn [2][FirstOut]int16
	Computed  [2]bool
	Change    Change
}

func add8(a *[FirstOut]int16, b *[FirstOut]int16) {
	simdAdd8(a, b)
}

func sub8(a *[FirstOut]int16, b *[FirstOut]int16) {
	simdSub8(a, b)
}

// Initialize rebuilds both perspective vectors from scratch by
// copying the first-layer bias and summing the feature weight row
// for every piece on the board.
func (a *AccumulatorState) Initialize(pos *board.Position, t *Transformer) {
	a.InputTurn[0] = t.FirstBias
	a.InputTurn[1] = t.FirstBias

	for c := board.White; c <= board.Black; c++ {
		for pt := board.Pawn; pt <= board.Queen; pt++ {
			bb := pos.Pieces[c][pt]
			for bb != 0 {
				sq := bb.PopLSB()
				idx := featureIndex(pt, c, sq)
				add8(&a.InputTurn[0], &t.FirstW[idx])
				add8(&a.InputTurn[1], &t.FirstWInv[idx])
			}
		}
	}
	a.Computed[0] = true
	a.Computed[1] = true
}

func (a *AccumulatorState) removeFeature(idx int, perspective int, t *Transformer) {
	if perspective == 0 {
		sub8(&a.InputTurn[0], &t.FirstW[idx])
	} else {
		sub8(&a.InputTurn[1], &t.FirstWInv[idx])
	}
}

func (a *AccumulatorState) addAndRemove(addIdx, removeIdx int, perspective int, t *Transformer) {
	d := t.delta(addIdx, removeIdx)
	if perspective == 0 {
		add8(&a.InputTurn[0], &t.FirstW2[d])
	} else {
		add8(&a.InputTurn[1], &t.FirstW2Inv[d])
	}
}

// Stack is a fixed-depth ring of AccumulatorState nodes, one per ply
// of the active search line, plus the cached king-indexed second-layer
// weight slices for both perspectives.
type Stack struct {
	states      [128]AccumulatorState
	top         int // states[top-1] is the current node; top==0 is empty
	kingSquares [2]board.Square

	// The forward pass for side-to-move=white uses (whiteTurnBlock1,
	// whiteTurnBlock2); for side-to-move=black it uses (blackTurnBlock1,
	// blackTurnBlock2). The white pair is indexed by both king squares
	// directly and the black pair by both king squares mirrored; each
	// pair has one slice per king, so a king move for either colour
	// updates one slice in each pair.
	whiteTurnBlock1, whiteTurnBlock2 []int8
	blackTurnBlock1, blackTurnBlock2 []int8
}

// Reset rebuilds the root accumulator from scratch and primes the
// cached weight-block slices from the transformer's king-indexed
// tables for both starting king squares.
func (s *Stack) Reset(pos *board.Position, t *Transformer) {
	s.top = 1
	s.states[0] = AccumulatorState{}
	s.states[0].Initialize(pos, t)

	whiteKing := pos.KingSquare[board.White]
	blackKing := pos.KingSquare[board.Black]
	s.kingSquares[board.White] = whiteKing
	s.kingSquares[board.Black] = blackKing

	s.whiteTurnBlock1 = t.Second1[whiteKing][:]
	s.whiteTurnBlock2 = t.Second2[blackKing][:]
	s.blackTurnBlock1 = t.Second1[mirrorSquare(blackKing)][:]
	s.blackTurnBlock2 = t.Second2[mirrorSquare(whiteKing)][:]
}

// ChangeKingSquare updates the cached second-layer weight slices for
// c's king having moved to sq, per the transformer's king-indexed
// tables.
func (s *Stack) ChangeKingSquare(c board.Color, sq board.Square, t *Transformer) {
	s.kingSquares[c] = sq
	if c == board.White {
		s.whiteTurnBlock1 = t.Second1[sq][:]
		s.blackTurnBlock2 = t.Second2[mirrorSquare(sq)][:]
	} else {
		s.whiteTurnBlock2 = t.Second2[sq][:]
		s.blackTurnBlock1 = t.Second1[mirrorSquare(sq)][:]
	}
}

// Push records a new, as-yet-uncomputed node on top of the stack.
func (s *Stack) Push(c Change) {
	s.states[s.top] = AccumulatorState{Change: c}
	s.top++
}

// Pop discards the top node (used on unmake).
func (s *Stack) Pop() {
	s.top--
}

// Top returns the current node.
func (s *Stack) Top() *AccumulatorState {
	return &s.states[s.top-1]
}

// FindLastComputedNode scans downward from the node below the top for
// the most recent state with perspective computed, returning 0 (the
// root, always computed) if none is found above it.
func (s *Stack) FindLastComputedNode(perspective int) int {
	for idx := s.top - 2; idx > 0; idx-- {
		if s.states[idx].Computed[perspective] {
			return idx
		}
	}
	return 0
}

// ForwardUpdateIncremental walks the stack from begin+1 to the top,
// applying each intervening node's recorded Change to bring
// perspective up to date.
func (s *Stack) ForwardUpdateIncremental(begin int, perspective int, t *Transformer) {
	for next := begin + 1; next < s.top; next++ {
		applyIncremental(&s.states[next], &s.states[next-1], perspective, t)
	}
}

// NewChange builds the Change describing a single move for the
// accumulator stack. moverType/moverColor/from/to describe the piece
// as it was before the move; promoType is NoPieceType unless the move
// promotes. For captures, capturedType/capturedColor/capturedSquare
// describe the piece removed from the board (capturedSquare differs
// from to only for en passant).
func NewChange(moverType board.PieceType, moverColor board.Color, from, to board.Square, promoType board.PieceType, isCapture bool, capturedType board.PieceType, capturedColor board.Color, capturedSquare board.Square) Change {
	var c Change
	if isCapture {
		c.IsCapture = true
		c.Captured = FeatureIndex(capturedType, capturedColor, capturedSquare)
	}
	if moverType == board.King {
		// The king itself has no feature; Add/Remove stay at their
		// zero value, which is intentionally equal so IsKingMove holds.
		return c
	}
	addType := moverType
	if promoType != board.NoPieceType {
		addType = promoType
	}
	c.Add = FeatureIndex(addType, moverColor, to)
	c.Remove = FeatureIndex(moverType, moverColor, from)
	return c
}

func applyIncremental(curr, prev *AccumulatorState, perspective int, t *Transformer) {
	curr.InputTurn[perspective] = prev.InputTurn[perspective]

	c := curr.Change
	if c.IsCapture {
		curr.removeFeature(c.Captured, perspective, t)
	}
	if !c.IsKingMove() {
		curr.addAndRemove(c.Add, c.Remove, perspective, t)
	}
	curr.Computed[perspective] = true
}
