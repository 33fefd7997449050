package engine

import (
	"sync/atomic"
	"time"

	"github.com/hailam/nnueuchess/internal/board"
	"github.com/hailam/nnueuchess/internal/nnueu"
)

const (
	// mateValue anchors the mate-score range: a side in check with no
	// move scores -(mateValue + depth) in alphaBetaSearch and
	// -(mateValue + ply) in quiescence.
	mateValue = 30000
	// drawValue is the NNUEU evaluation range's mid-point, returned for
	// draws by repetition, fifty-move and stalemate.
	drawValue = 2048
	// seeQuietMargin is the SEE threshold below which a quiescence
	// capture is pruned, preserved verbatim per SPEC_FULL.md §9.
	seeQuietMargin = -120
	// rootScoreDropForReduction is the centipawn gap below the best
	// previous-iteration score at which firstMoveSearch tries a
	// one-ply-reduced search before committing to full depth.
	rootScoreDropForReduction = 1000
	// maxSearchPly bounds the refutation table and any ply-indexed
	// per-node state; deeper lines simply stop refreshing refutations.
	maxSearchPly = 128

	scoreInf = 1 << 20
)

// midGameStability/endgameStability are the (streak, depth) thresholds
// from SPEC_FULL.md §4.8.1 at which iterative deepening may stop early
// once the best move's score history stops decreasing.
const (
	midGameStabilityStreak = 8
	midGameStabilityDepth  = 9
	endgameStabilityStreak = 11
	endgameStabilityDepth  = 12
)

// rootMove tracks one root move's score across iterative-deepening
// iterations, used both for move ordering into the next iteration and
// for the stability-streak stop condition.
type rootMove struct {
	move         board.Move
	score        int
	prevScore    int
	scoreHistory []int
}

// Worker drives one thread's iterative-deepening search against a
// position it owns exclusively, sharing only the TranspositionTable,
// the stop flag and the (read-only, post-load) network weights with
// its siblings.
type Worker struct {
	ID int

	pos   *board.Position
	stack *nnueu.Stack
	t     *nnueu.Transformer
	tt    *TranspositionTable
	stop  *atomic.Bool

	tm *TimeManager

	refutations [maxSearchPly][2]board.Move

	rootMoves    []rootMove
	bestStreak   int
	isEndgame    bool
	bestMoveOut  board.Move
	bestScoreOut int
	nodes        uint64
}

// NewWorker builds a worker around a position clone and a fresh
// accumulator stack seeded from it. tt, stop and t are shared with the
// rest of the pool.
func NewWorker(id int, pos *board.Position, t *nnueu.Transformer, tt *TranspositionTable, stop *atomic.Bool) *Worker {
	w := &Worker{
		ID:   id,
		pos:  pos,
		t:    t,
		tt:   tt,
		stop: stop,
	}
	w.stack = &nnueu.Stack{}
	w.stack.Reset(pos, t)
	w.isEndgame = !pos.HasNonPawnMaterial()
	return w
}

// Think runs iterative deepening until the time manager or stop flag
// says to halt, or maxDepth is reached (0 means unbounded), and
// returns the final best move and its score. See SPEC_FULL.md §4.8.1.
func (w *Worker) Think(limits UCILimits, maxDepth int) (board.Move, int) {
	budget := limits.Budget(w.pos.SideToMove == board.White)
	w.tm = NewTimeManager(budget)
	w.tm.Start()

	legal := w.pos.GenerateLegalMoves()
	w.rootMoves = make([]rootMove, 0, legal.Len())
	for i := 0; i < legal.Len(); i++ {
		w.rootMoves = append(w.rootMoves, rootMove{move: legal.Get(i)})
	}
	if len(w.rootMoves) == 0 {
		return board.NoMove, 0
	}

	best := w.rootMoves[0].move
	bestScore := 0

	for depth := 1; maxDepth == 0 || depth <= maxDepth; depth++ {
		if depth > 1 && !w.tm.ShouldStartNextIteration() {
			break
		}
		if w.stop.Load() {
			break
		}

		iterStart := time.Now()
		m, score := w.firstMoveSearch(depth)
		w.tm.RecordRootIteration(time.Since(iterStart))

		if m != board.NoMove {
			if m == best {
				w.bestStreak++
			} else {
				w.bestStreak = 1
			}
			best = m
			bestScore = score
		}

		w.bestMoveOut, w.bestScoreOut = best, bestScore

		if limits.Depth > 0 && depth >= limits.Depth {
			break
		}
		if w.tm.ShouldStopNow() || w.stop.Load() {
			break
		}
		if w.stabilityStopConditionMet(depth) {
			break
		}
	}

	return best, bestScore
}

// stabilityStopConditionMet implements §4.8.1's condition (b): the
// streak and depth both clear the mid-game/endgame thresholds and the
// current best move's score history is non-decreasing.
func (w *Worker) stabilityStopConditionMet(depth int) bool {
	streakT, depthT := midGameStabilityStreak, midGameStabilityDepth
	if w.isEndgame {
		streakT, depthT = endgameStabilityStreak, endgameStabilityDepth
	}
	if w.bestStreak < streakT || depth < depthT {
		return false
	}
	for i := range w.rootMoves {
		if w.rootMoves[i].move != w.bestMoveOut {
			continue
		}
		h := w.rootMoves[i].scoreHistory
		for j := 1; j < len(h); j++ {
			if h[j] < h[j-1] {
				return false
			}
		}
		return true
	}
	return false
}

// firstMoveSearch implements §4.8.2: order root moves by their
// previous-iteration score (first iteration uses the generator's
// static order), try a one-ply-reduced search for moves that scored
// far behind the best at the previous depth, and re-search at full
// depth when a reduced search beats alpha.
func (w *Worker) firstMoveSearch(depth int) (board.Move, int) {
	for i := range w.rootMoves {
		w.rootMoves[i].prevScore = w.rootMoves[i].score
	}
	w.sortRootMoves()

	alpha, beta := -scoreInf, scoreInf
	best := board.NoMove
	bestScore := -scoreInf
	bestPrev := w.bestPrevScore()

	for i := range w.rootMoves {
		rm := &w.rootMoves[i]
		undo, change := w.makeMove(rm.move)

		searchDepth := depth - 1
		reduced := false
		if depth > 1 && bestPrev-rm.prevScore > rootScoreDropForReduction {
			searchDepth = depth - 2
			reduced = true
		}

		score := -w.alphaBetaSearch(searchDepth, -beta, -alpha, 1)
		if reduced && score > alpha {
			score = -w.alphaBetaSearch(depth-1, -beta, -alpha, 1)
		}

		w.unmakeMove(rm.move, undo, change)

		rm.score = score
		rm.scoreHistory = append(rm.scoreHistory, score)

		if score > bestScore {
			bestScore = score
			best = rm.move
		}
		if score > alpha {
			alpha = score
		}

		if w.tm.ShouldStopNow() || w.stop.Load() {
			break
		}
	}

	return best, bestScore
}

func (w *Worker) bestPrevScore() int {
	best := -scoreInf
	for i := range w.rootMoves {
		if w.rootMoves[i].prevScore > best {
			best = w.rootMoves[i].prevScore
		}
	}
	if best == -scoreInf {
		return 0
	}
	return best
}

// sortRootMoves orders root moves by their previous-depth score,
// descending; on the first iteration every prevScore is zero and the
// order is left as the generator produced it (its "static ordering").
func (w *Worker) sortRootMoves() {
	for i := 1; i < len(w.rootMoves); i++ {
		for j := i; j > 0 && w.rootMoves[j].prevScore > w.rootMoves[j-1].prevScore; j-- {
			w.rootMoves[j], w.rootMoves[j-1] = w.rootMoves[j-1], w.rootMoves[j]
		}
	}
}

// alphaBetaSearch implements §4.8.3: negamax alpha-beta with TT probe
// and store, draw detection, and selector-driven move ordering.
func (w *Worker) alphaBetaSearch(depth, alpha, beta, ply int) int {
	if depth <= 0 {
		return w.quiescence(alpha, beta, ply)
	}

	w.nodes++

	if w.pos.IsDrawByRepetitionOrFifty() {
		return drawValue
	}

	w.pos.EnsureCheckData()

	pv := beta-alpha > 1

	var ttMove board.Move
	if ttDepth, move, value, exact, ok := w.tt.Probe(w.pos.Hash); ok {
		ttMove = move
		if exact && ttDepth >= depth {
			return value
		}
	}

	var refs refutationMoves
	if ply < maxSearchPly {
		refs = w.refutations[ply]
	}

	played := 0
	best := -scoreInf
	var bestMove board.Move
	cutoff := false

	record := func(m board.Move, score int) bool {
		if score > best {
			best = score
			bestMove = m
		}
		if score > alpha {
			alpha = score
		}
		if alpha >= beta {
			if ply < maxSearchPly && !m.IsCapture(w.pos) {
				w.refutations[ply][1] = w.refutations[ply][0]
				w.refutations[ply][0] = m
			}
			cutoff = true
			return false
		}
		return true
	}

	tryMove := func(m board.Move) bool {
		if !w.pos.IsLegal(m) {
			return true
		}
		undo, change := w.makeMove(m)
		played++
		score := -w.alphaBetaSearch(depth-1, -beta, -alpha, ply+1)
		w.unmakeMove(m, undo, change)
		return record(m, score)
	}

	// The hash move is tried first, without generating the full move
	// list, through the distinct MakeTTMove/UnmakeTTMove path (§4.8.3
	// step 4, §9): it carries the already-computed check/pin snapshot
	// through the call instead of invalidating it for the selector's
	// first IsLegal check to recompute.
	if ttMove != board.NoMove && w.pos.IsLegal(ttMove) {
		undo, change := w.makeTTMove(ttMove)
		played++
		score := -w.alphaBetaSearch(depth-1, -beta, -alpha, ply+1)
		w.unmakeTTMove(ttMove, undo, change)
		record(ttMove, score)
	}

	if !cutoff {
		sel := NewAlphaBetaSelector(w.pos, pv, ttMove, refs)
		for {
			if w.stop.Load() {
				break
			}
			m, ok := sel.Next()
			if !ok {
				break
			}
			if m == ttMove {
				continue
			}
			if !tryMove(m) {
				break
			}
		}
	}

	if played == 0 {
		if w.pos.NumChecks > 0 {
			return -(mateValue + depth)
		}
		return drawValue
	}

	// exact iff the search completed without a beta cutoff, per §4.8.3
	// step 8 ("exact = not_cutoff").
	w.tt.Save(w.pos.Hash, best, depth, bestMove, !cutoff)
	return best
}

// quiescence implements §4.8.4: stand-pat, then captures filtered by
// SEE; full unfiltered evasion enumeration while in check.
func (w *Worker) quiescence(alpha, beta, ply int) int {
	w.nodes++
	w.pos.EnsureCheckData()

	inCheck := w.pos.NumChecks > 0

	var standPat int
	if !inCheck {
		standPat = int(nnueu.Evaluate(w.pos, true, w.stack, w.t))
		if standPat >= beta {
			return standPat
		}
		if standPat > alpha {
			alpha = standPat
		}
	}

	sel := NewQuiescenceSelector(w.pos)
	played := 0
	best := standPat
	if inCheck {
		best = -scoreInf
	}

	for {
		m, ok := sel.Next()
		if !ok {
			break
		}
		if !w.pos.IsLegal(m) {
			continue
		}
		played++
		// Out of check the selector has already filtered to captures
		// and promotions passing the SEE margin (seeQuietMargin), so
		// the cheaper make_capture/unmake_capture path (§4.3.2) always
		// applies. In check the selector yields every legal evasion,
		// which may include a quiet move such as a blocking double
		// pawn push; make_capture's precondition excludes those, so
		// the general path is used instead.
		var score int
		if inCheck {
			undo, change := w.makeMove(m)
			score = -w.quiescence(-beta, -alpha, ply+1)
			w.unmakeMove(m, undo, change)
		} else {
			undo, change := w.makeCapture(m)
			score = -w.quiescence(-beta, -alpha, ply+1)
			w.unmakeCapture(m, undo, change)
		}

		if score > best {
			best = score
		}
		if score > alpha {
			alpha = score
		}
		if alpha >= beta {
			break
		}
	}

	if inCheck && played == 0 {
		return -(mateValue + ply)
	}
	return best
}

// buildChange derives the NNUEUChange a move produces: moverPiece and
// captured are read off the board (or the undo record) before the
// capture disappears from it, per §4.4. Shared by every make* path
// below, since the change a move produces doesn't depend on which
// position-mutation fast path applied it.
func buildChange(moverPiece board.Piece, m board.Move, captured board.Piece) nnueu.Change {
	promo := board.NoPieceType
	if m.IsPromotion() {
		promo = m.Promotion()
	}
	if captured == board.NoPiece {
		return nnueu.NewChange(moverPiece.Type(), moverPiece.Color(), m.From(), m.To(), promo, false,
			board.NoPieceType, board.NoColor, board.NoSquare)
	}
	capturedSq := m.To()
	if m.IsEnPassant() {
		if moverPiece.Color() == board.White {
			capturedSq = m.To() - 8
		} else {
			capturedSq = m.To() + 8
		}
	}
	return nnueu.NewChange(moverPiece.Type(), moverPiece.Color(), m.From(), m.To(), promo, true,
		captured.Type(), captured.Color(), capturedSq)
}

// makeMove applies m to the worker's position and pushes the matching
// NNUEU accumulator change, in that order so the captured piece can
// still be read off the board before it is removed.
func (w *Worker) makeMove(m board.Move) (board.UndoInfo, nnueu.Change) {
	moverPiece := w.pos.PieceAt(m.From())
	undo := w.pos.MakeMove(m)
	change := buildChange(moverPiece, m, undo.CapturedPiece)
	w.stack.Push(change)
	return undo, change
}

// unmakeMove reverses makeMove.
func (w *Worker) unmakeMove(m board.Move, undo board.UndoInfo, _ nnueu.Change) {
	w.stack.Pop()
	w.pos.UnmakeMove(m, undo)
}

// makeTTMove applies m through the distinct MakeTTMove path (§4.3.2,
// §9): used only for the hash move tried before the selector runs, so
// it can carry the node's already-computed check/pin snapshot forward
// across the move instead of invalidating it.
func (w *Worker) makeTTMove(m board.Move) (board.TTUndoInfo, nnueu.Change) {
	moverPiece := w.pos.PieceAt(m.From())
	undo := w.pos.MakeTTMove(m)
	change := buildChange(moverPiece, m, undo.CapturedPiece)
	w.stack.Push(change)
	return undo, change
}

// unmakeTTMove reverses makeTTMove.
func (w *Worker) unmakeTTMove(m board.Move, undo board.TTUndoInfo, _ nnueu.Change) {
	w.stack.Pop()
	w.pos.UnmakeTTMove(m, undo)
}

// makeCapture applies m through the quiescence fast path (§4.3.2,
// §4.7): m must already be a validated capture, en-passant capture, or
// promotion — never castling or a double pawn push.
func (w *Worker) makeCapture(m board.Move) (board.CaptureUndo, nnueu.Change) {
	moverPiece := w.pos.PieceAt(m.From())
	undo := w.pos.MakeCapture(m)
	change := buildChange(moverPiece, m, undo.CapturedPiece)
	w.stack.Push(change)
	return undo, change
}

// unmakeCapture reverses makeCapture.
func (w *Worker) unmakeCapture(m board.Move, undo board.CaptureUndo, _ nnueu.Change) {
	w.stack.Pop()
	w.pos.UnmakeCapture(m, undo)
}
