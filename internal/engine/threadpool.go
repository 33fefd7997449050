package engine

import (
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/hailam/nnueuchess/internal/board"
	"github.com/hailam/nnueuchess/internal/nnueu"
)

// MaxThreads is the hard ceiling on pool size, per SPEC_FULL.md §6.1
// (Threads clamped to [1, min(64, 4*hardware_concurrency)]).
const MaxThreads = 64

// ThreadPool owns the worker goroutines driving a Lazy-SMP search:
// every worker searches the same root concurrently against the shared
// TranspositionTable, with no explicit work-splitting (§4.9, §5).
type ThreadPool struct {
	size  int
	tt    *TranspositionTable
	net   *nnueu.Transformer
	stop  atomic.Bool

	lastBest  board.Move
	lastScore int
}

// NewThreadPool builds a pool with n worker slots sharing tt and net.
func NewThreadPool(n int, tt *TranspositionTable, net *nnueu.Transformer) *ThreadPool {
	p := &ThreadPool{tt: tt, net: net}
	p.Set(n)
	return p
}

// Set resizes the pool to n workers, clamped to [1, MaxThreads].
func (p *ThreadPool) Set(n int) {
	if n < 1 {
		n = 1
	}
	if n > MaxThreads {
		n = MaxThreads
	}
	p.size = n
}

// Size returns the current pool size.
func (p *ThreadPool) Size() int { return p.size }

// DefaultThreadCount picks a starting pool size from the machine's
// available CPU set rather than its total core count: on Linux this
// goes through golang.org/x/sys/unix.SchedGetaffinity so a
// cgroup-limited container host doesn't oversubscribe. Falls back to
// runtime.NumCPU elsewhere or if the affinity query fails.
func DefaultThreadCount() int {
	if n := affinityCPUCount(); n > 0 {
		return clampThreads(n)
	}
	return clampThreads(runtime.NumCPU())
}

func clampThreads(n int) int {
	max := 4 * runtime.NumCPU()
	if max > MaxThreads {
		max = MaxThreads
	}
	if n > max {
		n = max
	}
	if n < 1 {
		n = 1
	}
	return n
}

// StartThinking clones root into each worker (a raw copy of the
// trivially-copyable Position plus its own AccumulatorStack, built
// fresh from the clone), launches them concurrently via errgroup, and
// blocks until they all return. Thread 0 is the pool's "main" thread:
// its result is returned, and kept for LastResult, for the UCI layer
// to print as bestmove.
func (p *ThreadPool) StartThinking(root *board.Position, limits UCILimits, maxDepth int) (board.Move, int) {
	p.stop.Store(false)

	results := make([]struct {
		move  board.Move
		score int
	}, p.size)

	var g errgroup.Group
	for i := 0; i < p.size; i++ {
		i := i
		g.Go(func() error {
			clone := root.Copy()
			w := NewWorker(i, clone, p.net, p.tt, &p.stop)
			m, s := w.Think(limits, maxDepth)
			results[i].move, results[i].score = m, s
			return nil
		})
	}
	_ = g.Wait()

	p.lastBest, p.lastScore = results[0].move, results[0].score
	return p.lastBest, p.lastScore
}

// Stop sets the shared atomic stop flag; every worker observes it at
// its next root-move or depth boundary and returns its current best.
func (p *ThreadPool) Stop() {
	p.stop.Store(true)
}

// LastResult returns thread 0's most recent (move, score) pair.
func (p *ThreadPool) LastResult() (board.Move, int) {
	return p.lastBest, p.lastScore
}
