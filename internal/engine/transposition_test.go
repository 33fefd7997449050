package engine

import (
	"testing"

	"github.com/hailam/nnueuchess/internal/board"
)

func TestTranspositionTableProbeMiss(t *testing.T) {
	tt := NewTranspositionTable(1)
	if _, _, _, _, ok := tt.Probe(0x1234); ok {
		t.Fatal("probe on empty table should miss")
	}
}

func TestTranspositionTableSaveProbeRoundTrip(t *testing.T) {
	tt := NewTranspositionTable(1)
	key := uint64(0xdeadbeefcafef00d)
	tt.Save(key, 123, 7, board.NewMove(board.E2, board.E4), true)

	depth, move, value, exact, ok := tt.Probe(key)
	if !ok {
		t.Fatal("expected hit after save")
	}
	if depth != 7 || value != 123 || !exact || move != board.NewMove(board.E2, board.E4) {
		t.Fatalf("unexpected entry: depth=%d value=%d exact=%v move=%v", depth, value, exact, move)
	}
}

func TestTranspositionTableKeyCollisionIsAMiss(t *testing.T) {
	tt := NewTranspositionTable(1)
	tt.Save(1, 1, 1, board.NoMove, true)
	// A different key landing in the same bucket (same low bits, same
	// size) must report a miss rather than returning the stale entry.
	other := uint64(1) + uint64(tt.Len())
	if _, _, _, _, ok := tt.Probe(other); ok {
		t.Fatal("colliding key should miss, not return the other key's entry")
	}
}

func TestTranspositionTableResizeDiscardsContents(t *testing.T) {
	tt := NewTranspositionTable(1)
	tt.Save(42, 1, 1, board.NoMove, true)
	tt.Resize(2)
	if _, _, _, _, ok := tt.Probe(42); ok {
		t.Fatal("resize should discard prior contents")
	}
}

func TestTranspositionTableHashFull(t *testing.T) {
	tt := NewTranspositionTable(1)
	if tt.HashFull() != 0 {
		t.Fatal("fresh table should report 0 hashfull")
	}
	tt.Save(1, 1, 1, board.NoMove, true)
	if tt.HashFull() == 0 {
		t.Fatal("table with one entry should report nonzero hashfull")
	}
}
