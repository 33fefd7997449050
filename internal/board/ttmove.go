package board

// TTUndoInfo extends UndoInfo with a snapshot of the derived
// check/pin/unsafe-square state as it stood immediately before the
// move. The regular MakeMove/UnmakeMove path invalidates that state
// (checkDataSet = false) and lets the next EnsureCheckData call
// recompute it from scratch; MakeTTMove/UnmakeTTMove instead carry it
// forward so the very next legality check — trying the hash move is
// always the first thing a search node does — doesn't pay for a
// recompute it already has the answer to. See SPEC_FULL.md §9's note
// that the two paths are kept distinct rather than unified.
type TTUndoInfo struct {
	UndoInfo

	diagonalPins  Bitboard
	straightPins  Bitboard
	blockers      Bitboard
	checkRays     Bitboard
	checkSquare   Square
	numChecks     int
	unsafeSquares Bitboard
	checkDataSet  bool
}

// MakeTTMove applies m exactly as MakeMove does, after snapshotting
// the position's current check/pin data so UnmakeTTMove can restore it
// directly. Callers must call EnsureCheckData before using this path
// (the snapshot is only meaningful if that data is current), which
// every call site trying a hash move already does.
func (p *Position) MakeTTMove(m Move) TTUndoInfo {
	snap := TTUndoInfo{
		diagonalPins:  p.DiagonalPins,
		straightPins:  p.StraightPins,
		blockers:      p.Blockers,
		checkRays:     p.CheckRays,
		checkSquare:   p.CheckSquare,
		numChecks:     p.NumChecks,
		unsafeSquares: p.UnsafeSquares,
		checkDataSet:  p.checkDataSet,
	}
	snap.UndoInfo = p.MakeMove(m)
	return snap
}

// UnmakeTTMove reverses MakeTTMove, restoring the pre-move check/pin
// snapshot directly instead of leaving it stale for EnsureCheckData to
// rebuild.
func (p *Position) UnmakeTTMove(m Move, undo TTUndoInfo) {
	p.UnmakeMove(m, undo.UndoInfo)
	p.DiagonalPins = undo.diagonalPins
	p.StraightPins = undo.straightPins
	p.Blockers = undo.blockers
	p.CheckRays = undo.checkRays
	p.CheckSquare = undo.checkSquare
	p.NumChecks = undo.numChecks
	p.UnsafeSquares = undo.unsafeSquares
	p.checkDataSet = undo.checkDataSet
}
