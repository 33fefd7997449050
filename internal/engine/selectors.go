package engine

import "github.com/hailam/nnueuchess/internal/board"

// MoveSelectors stage move enumeration for the search: rather than
// sorting a full legal move list up front, each call to Next produces
// the single best remaining candidate, lazily, so that a beta cutoff
// early in the list never pays for sorting the rest (every candidate is
// scored once, when the selector is built). board's
// generators already filter for full legality; the selectors below
// add scoring and staging on top of that.
//
// maxCandidates bounds how many moves a selector will ever buffer,
// matching the worst case of a position with many legal moves; 256 is
// the same bound board.MoveList itself uses internally.
const maxCandidates = 256

type scoredMove struct {
	move  board.Move
	score int32
}

// baseSelector is the shared lazy selection-sort core used by every
// selector below: moves are scored once up front, then Next pops the
// highest-scoring remaining entry in O(n) per call. For the small
// candidate counts a single chess position produces, this beats a
// full sort when a cutoff ends the scan early.
type baseSelector struct {
	moves []scoredMove
	next  int
}

func (s *baseSelector) add(m board.Move, score int32) {
	if len(s.moves) >= maxCandidates {
		return
	}
	s.moves = append(s.moves, scoredMove{move: m, score: score})
}

// pickBest returns the best-scoring move not yet emitted, or
// (NoMove, false) when exhausted.
func (s *baseSelector) pickBest() (board.Move, bool) {
	if s.next >= len(s.moves) {
		return board.NoMove, false
	}
	best := s.next
	for i := s.next + 1; i < len(s.moves); i++ {
		if s.moves[i].score > s.moves[best].score {
			best = i
		}
	}
	s.moves[s.next], s.moves[best] = s.moves[best], s.moves[s.next]
	m := s.moves[s.next].move
	s.next++
	return m, true
}

// mvvLVA scores a capture as sixteen times the victim value minus the
// attacker's value, so higher-value victims usually sort first (a much
// costlier attacker, such as the king, can outweigh a small gap between
// victims) and, within equal victims, cheaper attackers sort first.
func mvvLVA(pos *board.Position, m board.Move) int32 {
	victim := pos.PieceAt(m.To())
	attacker := pos.PieceAt(m.From())
	victimValue := int32(0)
	if victim != board.NoPiece {
		victimValue = int32(victim.Value())
	}
	if m.IsEnPassant() {
		victimValue = int32(board.PieceValue[board.Pawn])
	}
	attackerValue := int32(0)
	if attacker != board.NoPiece {
		attackerValue = int32(attacker.Value())
	}
	return victimValue*16 - attackerValue
}

// ---- Quiescence selectors (§4.7) ----

// QuiescenceSelector enumerates moves for the quiescence search: when
// the side to move is in check, every legal evasion (the position may
// be mated); otherwise captures and promotions only, pruned by SEE.
type QuiescenceSelector struct {
	base baseSelector
}

// NewQuiescenceSelector builds the selector for pos, computing its check
// data first if it is not current (board.Position.EnsureCheckData).
func NewQuiescenceSelector(pos *board.Position) *QuiescenceSelector {
	s := &QuiescenceSelector{}
	pos.EnsureCheckData()
	if pos.NumChecks > 0 {
		legal := pos.GenerateLegalMoves()
		for i := 0; i < legal.Len(); i++ {
			m := legal.Get(i)
			s.base.add(m, mvvLVA(pos, m))
		}
		return s
	}
	captures := pos.GenerateCaptures()
	for i := 0; i < captures.Len(); i++ {
		m := captures.Get(i)
		if !m.IsPromotion() && !pos.SeeGE(m, seeQuietMargin) {
			continue
		}
		s.base.add(m, mvvLVA(pos, m))
	}
	return s
}

// Next returns the next move to try, or (NoMove, false) when exhausted.
func (s *QuiescenceSelector) Next() (board.Move, bool) {
	return s.base.pickBest()
}

// ---- Alpha-beta selectors (§4.7) ----

// refutationMoves are the killer-move-like hints passed in from the
// worker for the current ply: moves that caused a beta cutoff the
// last time this ply was searched, tried before the rest of the quiet
// moves.
type refutationMoves [2]board.Move

// AlphaBetaSelector stages move emission for the main search. PV
// nodes emit every legal move in a single pass ordered by scoreMove
// (MVV-LVA, refutation bonus, unsafe-square penalty); non-PV nodes emit
// in stages (ttMove already handled by the caller; then refutations,
// then good captures, then the remaining quiet moves, then losing
// captures) so a cutoff in an early stage skips sorting the rest.
type AlphaBetaSelector struct {
	pv     bool
	ttMove board.Move

	base baseSelector

	// non-PV staging
	stage      int
	refIdx     int
	refs       refutationMoves
	captures   baseSelector
	quiets     baseSelector
	badCapture baseSelector
}

const (
	stageRefutations = iota
	stageGoodCaptures
	stageQuiets
	stageBadCaptures
	stageDone
)

// NewAlphaBetaSelector builds the selector for pos at a node; ttMove
// (board.NoMove if absent) is skipped since the caller always tries it
// first, and refs carries the refutation/killer hints for non-PV nodes.
func NewAlphaBetaSelector(pos *board.Position, pv bool, ttMove board.Move, refs refutationMoves) *AlphaBetaSelector {
	s := &AlphaBetaSelector{pv: pv, ttMove: ttMove, refs: refs}
	legal := pos.GenerateLegalMoves()

	if pv {
		for i := 0; i < legal.Len(); i++ {
			m := legal.Get(i)
			if m == ttMove {
				continue
			}
			s.base.add(m, scoreMove(pos, m, refs))
		}
		return s
	}

	var refLegal [2]bool
	for i := 0; i < legal.Len(); i++ {
		m := legal.Get(i)
		if m == ttMove {
			continue
		}
		if m == refs[0] || m == refs[1] {
			refLegal[0] = refLegal[0] || m == refs[0]
			refLegal[1] = refLegal[1] || m == refs[1]
			continue // emitted in the refutation stage below
		}
		if m.IsCapture(pos) || m.IsPromotion() {
			if pos.SeeGE(m, 0) {
				s.captures.add(m, mvvLVA(pos, m))
			} else {
				s.badCapture.add(m, mvvLVA(pos, m))
			}
			continue
		}
		s.quiets.add(m, quietScore(pos, m))
	}
	// Hints recorded at sibling nodes are emitted only if legal here.
	for i := range s.refs {
		if !refLegal[i] {
			s.refs[i] = board.NoMove
		}
	}
	return s
}

// scoreMove combines MVV-LVA for captures with a refutation bonus and
// a small penalty for moving into a square the opponent already
// attacks, used for the PV node's single sorted pass.
func scoreMove(pos *board.Position, m board.Move, refs refutationMoves) int32 {
	score := int32(0)
	if m.IsCapture(pos) || m.IsPromotion() {
		score += 100000 + mvvLVA(pos, m)
	}
	if m == refs[0] {
		score += 90000
	} else if m == refs[1] {
		score += 80000
	}
	if pos.UnsafeSquares&board.SquareBB(m.To()) != 0 {
		score -= 10
	}
	return score
}

func quietScore(pos *board.Position, m board.Move) int32 {
	score := int32(0)
	if pos.UnsafeSquares&board.SquareBB(m.To()) != 0 {
		score -= 10
	}
	if pos.UnsafeSquares&board.SquareBB(m.From()) != 0 {
		score += 5 // moving an attacked piece to safety is worth trying early
	}
	return score
}

// Next returns the next move to try, or (NoMove, false) when the
// selector is exhausted.
func (s *AlphaBetaSelector) Next() (board.Move, bool) {
	if s.pv {
		return s.base.pickBest()
	}

	for s.stage != stageDone {
		switch s.stage {
		case stageRefutations:
			for s.refIdx < len(s.refs) {
				r := s.refs[s.refIdx]
				s.refIdx++
				if r == board.NoMove || r == s.ttMove {
					continue
				}
				return r, true
			}
			s.stage = stageGoodCaptures
		case stageGoodCaptures:
			if m, ok := s.captures.pickBest(); ok {
				return m, true
			}
			s.stage = stageQuiets
		case stageQuiets:
			if m, ok := s.quiets.pickBest(); ok {
				return m, true
			}
			s.stage = stageBadCaptures
		case stageBadCaptures:
			if m, ok := s.badCapture.pickBest(); ok {
				return m, true
			}
			s.stage = stageDone
		}
	}
	return board.NoMove, false
}
