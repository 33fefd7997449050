package nnueu

import "github.com/hailam/nnueuchess/internal/board"

// Evaluate brings the accumulator stack up to date for the side to
// move's perspective, swaps in the correct king-indexed weight blocks
// if either king moved since they were last cached, and runs the MLP.
// The result is in (roughly) [0, 4096] from the side to move's
// perspective; if ourTurn is false the result is mirrored to
// 4096-v so that a higher score is always better for the caller.
func Evaluate(pos *board.Position, ourTurn bool, stack *Stack, t *Transformer) int16 {
	turn := pos.SideToMove
	perspective := 0
	if turn == board.Black {
		perspective = 1
	}

	begin := stack.FindLastComputedNode(perspective)
	stack.ForwardUpdateIncremental(begin, perspective, t)

	whiteKing := pos.KingSquare[board.White]
	blackKing := pos.KingSquare[board.Black]
	if stack.kingSquares[board.White] != whiteKing {
		stack.ChangeKingSquare(board.White, whiteKing, t)
	}
	if stack.kingSquares[board.Black] != blackKing {
		stack.ChangeKingSquare(board.Black, blackKing, t)
	}

	top := stack.Top()

	var out int16
	if turn == board.White {
		out = forwardPassScalar(&top.InputTurn[0], stack.whiteTurnBlock1, stack.whiteTurnBlock2, t)
	} else {
		out = forwardPassScalar(&top.InputTurn[1], stack.blackTurnBlock1, stack.blackTurnBlock2, t)
	}

	if ourTurn {
		return out
	}
	return 4096 - out
}
