package engine

import (
	"github.com/hailam/nnueuchess/internal/board"
)

// ttEntry is the fixed-size bucket stored per slot: the full Zobrist
// key (for collision detection, per §4.6), the depth it was searched
// to, the move that was best at that depth, the stored value, and
// whether the value is exact (as opposed to a bound produced by a
// cutoff).
type ttEntry struct {
	key   uint64
	depth int8
	move  board.Move
	value int16
	exact bool
}

// TranspositionTable is a power-of-two-sized, always-replace cache keyed
// by zobristKey mod size. It is read and written without locking from
// every search worker: a probe that races a concurrent save may observe
// a torn entry, but the key comparison in Probe makes a torn read fail
// safe (it either matches and is usable, or misses and is recomputed).
type TranspositionTable struct {
	entries []ttEntry
	mask    uint64
}

// NewTranspositionTable allocates a table sized to approximately sizeMB
// megabytes, rounded down to a power of two number of entries.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	if sizeMB < 1 {
		sizeMB = 1
	}
	const entrySize = 24 // per-entry size estimate; larger than the 16 bytes ttEntry occupies
	numEntries := uint64(sizeMB) * 1024 * 1024 / entrySize
	numEntries = roundDownPow2(numEntries)
	if numEntries == 0 {
		numEntries = 1
	}
	return &TranspositionTable{
		entries: make([]ttEntry, numEntries),
		mask:    numEntries - 1,
	}
}

func roundDownPow2(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return (n + 1) >> 1
}

// Probe returns the stored entry for key and true iff the stored full
// key matches the query; a mismatch (including an empty bucket)
// is reported as a miss.
func (tt *TranspositionTable) Probe(key uint64) (depth int, move board.Move, value int, exact bool, ok bool) {
	e := tt.entries[key&tt.mask]
	if e.key != key {
		return 0, board.NoMove, 0, false, false
	}
	return int(e.depth), e.move, int(e.value), e.exact, true
}

// Save overwrites the bucket for key, unconditionally (always-replace).
func (tt *TranspositionTable) Save(key uint64, value int, depth int, move board.Move, exact bool) {
	tt.entries[key&tt.mask] = ttEntry{
		key:   key,
		depth: int8(depth),
		move:  move,
		value: int16(value),
		exact: exact,
	}
}

// Resize reallocates the table to a new size in megabytes, discarding
// its prior contents.
func (tt *TranspositionTable) Resize(sizeMB int) {
	resized := NewTranspositionTable(sizeMB)
	tt.entries = resized.entries
	tt.mask = resized.mask
}

// Clear zeroes every bucket without changing the table's size.
func (tt *TranspositionTable) Clear() {
	for i := range tt.entries {
		tt.entries[i] = ttEntry{}
	}
}

// Len reports the number of buckets, used by tests to build keys that
// collide in the same bucket.
func (tt *TranspositionTable) Len() int {
	return len(tt.entries)
}

// HashFull samples the first 1000 buckets and returns how many are
// occupied, in permille, matching the UCI "hashfull" info field.
func (tt *TranspositionTable) HashFull() int {
	sample := 1000
	if sample > len(tt.entries) {
		sample = len(tt.entries)
	}
	used := 0
	for i := 0; i < sample; i++ {
		if tt.entries[i].depth > 0 {
			used++
		}
	}
	if sample == 0 {
		return 0
	}
	return used * 1000 / sample
}
