package engine

import "time"

// UCILimits carries the parsed "go" command parameters (§6.1): clocks
// and increments for both sides, an optional fixed move time, and an
// optional depth cap.
type UCILimits struct {
	WTime, BTime time.Duration
	WInc, BInc   time.Duration
	MoveTime     time.Duration
	Depth        int
	Ponder       bool
}

// Budget returns the effective time budget for side us: a fixed
// movetime if one was given, otherwise clock + increment, per §6.1.
func (l UCILimits) Budget(us bool) time.Duration {
	if l.MoveTime > 0 {
		return l.MoveTime
	}
	if us {
		return l.WTime + l.WInc
	}
	return l.BTime + l.BInc
}

// TimeManager tracks wall-clock usage for one search and predicts
// whether the next iterative-deepening iteration can be afforded. The
// 17x prediction constant is an empirically tuned factor carried over
// unchanged; it is not derived from anything else in the model.
type TimeManager struct {
	budget       time.Duration
	start        time.Time
	lastRootTime time.Duration
}

const iterationGrowthFactor = 17

// NewTimeManager creates a time manager for a move with the given
// total budget.
func NewTimeManager(budget time.Duration) *TimeManager {
	return &TimeManager{budget: budget}
}

// Start records the search start time.
func (tm *TimeManager) Start() {
	tm.start = time.Now()
}

// Elapsed returns the wall time spent so far in this search.
func (tm *TimeManager) Elapsed() time.Duration {
	return time.Since(tm.start)
}

// ShouldStopNow reports whether the budget has already been exceeded;
// checked at root-move and depth boundaries.
func (tm *TimeManager) ShouldStopNow() bool {
	return tm.Elapsed() >= tm.budget
}

// RecordRootIteration records how long the just-finished root
// iteration took, used to predict the next one.
func (tm *TimeManager) RecordRootIteration(d time.Duration) {
	tm.lastRootTime = d
}

// ShouldStartNextIteration predicts the next root iteration will take
// iterationGrowthFactor times as long as the previous one and refuses
// to start it if that prediction would blow the remaining budget.
func (tm *TimeManager) ShouldStartNextIteration() bool {
	if tm.lastRootTime == 0 {
		return true
	}
	predicted := tm.lastRootTime * iterationGrowthFactor
	return tm.Elapsed()+predicted <= tm.budget
}
