// Package engine implements the search core described in SPEC_FULL.md
// §4.6-§4.10: a lock-free transposition table, lazily-staged move
// selectors, per-thread iterative-deepening workers, and the thread
// pool coordinating them. Package uci drives it from the UCI surface.
package engine

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/hailam/nnueuchess/internal/board"
	"github.com/hailam/nnueuchess/internal/nnueu"
)

// MaxHashMB is the upper clamp for the Hash option (§6.1).
const MaxHashMB = 33554432

// Engine is the top-level object the UCI layer drives: it owns the
// position, the transposition table, the loaded network, and the
// thread pool, and exposes exactly the setoption/go/stop surface §6.1
// names.
type Engine struct {
	pos *board.Position

	tt   *TranspositionTable
	net  *nnueu.Transformer
	pool *ThreadPool

	ttStore *TTStore

	hashMB  int
	threads int
}

// NewEngine builds an Engine with the given initial hash size (MB)
// and thread count, both clamped per §6.1. No network is loaded until
// LoadNetwork succeeds; searching without one is refused (§7).
func NewEngine(hashMB, threads int) *Engine {
	hashMB = clampHash(hashMB)
	threads = clampThreads(threads)

	e := &Engine{
		pos:     board.NewPosition(),
		tt:      NewTranspositionTable(hashMB),
		hashMB:  hashMB,
		threads: threads,
	}
	e.pool = NewThreadPool(threads, e.tt, nil)
	return e
}

func clampHash(mb int) int {
	if mb < 1 {
		return 1
	}
	if mb > MaxHashMB {
		return MaxHashMB
	}
	return mb
}

// SetThreads resizes the pool, clamped to [1, min(64, 4*NumCPU)].
func (e *Engine) SetThreads(n int) {
	e.threads = clampThreads(n)
	e.pool.Set(e.threads)
}

// SetHash resizes the transposition table, clamped to
// [1, 33554432] MB, discarding its current contents.
func (e *Engine) SetHash(mb int) {
	e.hashMB = clampHash(mb)
	e.tt.Resize(e.hashMB)
}

// LoadNetwork (re)loads the NNUEU weight directory named by the
// EvalFile option. On failure the engine keeps whichever network (if
// any) was already loaded, per §7's configuration-error handling.
func (e *Engine) LoadNetwork(dir string) error {
	t := nnueu.NewTransformer()
	if err := t.Load(dir); err != nil {
		return fmt.Errorf("engine: load network: %w", err)
	}
	e.net = t
	e.pool = NewThreadPool(e.threads, e.tt, t)

	// Best-effort TT warm-start: a ttcache directory alongside the
	// weights, per DESIGN.md's ttstore wiring. Failure to open or load
	// it is not a configuration error for the network itself — the
	// table simply starts cold.
	if err := e.OpenTTStore(filepath.Join(dir, "ttcache")); err == nil {
		_ = e.ttStore.LoadSnapshot(e.tt)
	}

	return nil
}

// OpenTTStore opens (or creates) a BadgerDB-backed snapshot store for
// the transposition table at dir, closing any store opened previously.
// It does not itself load the snapshot; callers that want a warm start
// call LoadSnapshot afterward.
func (e *Engine) OpenTTStore(dir string) error {
	store, err := OpenTTStore(dir)
	if err != nil {
		return fmt.Errorf("engine: open tt store: %w", err)
	}
	if e.ttStore != nil {
		e.ttStore.Close()
	}
	e.ttStore = store
	return nil
}

// Close flushes the transposition table to its snapshot store (if one
// is open) and releases it. Safe to call with no store open.
func (e *Engine) Close() error {
	if e.ttStore == nil {
		return nil
	}
	saveErr := e.ttStore.SaveSnapshot(e.tt)
	closeErr := e.ttStore.Close()
	e.ttStore = nil
	if saveErr != nil {
		return fmt.Errorf("engine: save tt snapshot: %w", saveErr)
	}
	return closeErr
}

// HasNetwork reports whether a network has been loaded.
func (e *Engine) HasNetwork() bool { return e.net != nil }

// SetPosition resets to the given position. moves are applied in
// order; the first illegal move (or one that fails to parse) stops
// iteration, leaving the position at the last legal state (§7).
func (e *Engine) SetPosition(pos *board.Position, moves []string) {
	e.pos = pos
	for _, s := range moves {
		m, err := board.ParseMove(s, e.pos)
		if err != nil || !e.pos.GenerateLegalMoves().Contains(m) {
			return
		}
		e.pos.MakeMove(m)
	}
}

// Position returns the engine's current position.
func (e *Engine) Position() *board.Position { return e.pos }

// Go launches a search from the current position with the given UCI
// limits and returns once every worker has returned (StartThinking
// blocks); callers that want asynchronous behaviour should run Go in
// its own goroutine and call Stop to end it early.
func (e *Engine) Go(limits UCILimits) (board.Move, int) {
	if e.net == nil {
		return board.NoMove, 0
	}
	return e.pool.StartThinking(e.pos, limits, limits.Depth)
}

// Stop ends the current search at the workers' next boundary.
func (e *Engine) Stop() { e.pool.Stop() }

// Perft counts leaf nodes at the given depth from the current
// position, for the "perft" debug command.
func (e *Engine) Perft(depth int) uint64 {
	return perft(e.pos, depth)
}

func perft(pos *board.Position, depth int) uint64 {
	if depth == 0 {
		return 1
	}
	moves := pos.GenerateLegalMoves()
	if depth == 1 {
		return uint64(moves.Len())
	}
	var nodes uint64
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		undo := pos.MakeMove(m)
		nodes += perft(pos, depth-1)
		pos.UnmakeMove(m, undo)
	}
	return nodes
}

// HardwareConcurrency is runtime.NumCPU, exposed for the UCI layer's
// Threads clamp message.
func HardwareConcurrency() int { return runtime.NumCPU() }
