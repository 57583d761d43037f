package engine

import (
	"time"

	"github.com/chessplay/enginecore/internal/board"
)

// UCILimits contains UCI time control parameters.
type UCILimits struct {
	Time      [2]time.Duration // wtime, btime (remaining time for each color)
	Inc       [2]time.Duration // winc, binc (increment per move)
	MovesToGo int              // moves until next time control (0 = sudden death)
	MoveTime  time.Duration    // fixed time per move (overrides other time controls)
	Depth     int              // maximum search depth
	Nodes     uint64           // node limit from "go nodes"; the search does not stop on it
	Infinite  bool             // search until stopped
	Ponder    bool             // ponder mode
}

// defaultMovesToGo is assumed when the GUI does not supply movestogo
// (sudden death time control).
const defaultMovesToGo = 30

// TimeManager allocates think time for a search using the formula:
//
//	safety    = max(0, 20ms - increment) * movesToGo + 40ms
//	usable    = remaining - safety              (remaining/2 if negative)
//	maxThink  = min(usable, (remaining + increment*movesToGo) / movesToGo)
//	minThink  = 0.7 * maxThink
//
// TryExtend grants more time once, the first time the search reports a
// surprising result (an aspiration fail-low or a sharp score drop), by
// folding the time elapsed since the search started into both bounds.
type TimeManager struct {
	startTime time.Time
	fixed     bool // MoveTime (or infinite) mode: ignore min/max think entirely
	noLimit   bool

	usable   time.Duration
	minThink time.Duration
	maxThink time.Duration

	extended bool
}

// NewTimeManager creates a new time manager.
func NewTimeManager() *TimeManager {
	return &TimeManager{}
}

// Init initializes the time manager for a new search. ply is the current
// game ply (half-move number), unused by the formula but kept for parity
// with UCI callers that track it.
func (tm *TimeManager) Init(limits UCILimits, us board.Color, ply int) {
	tm.startTime = time.Now()
	tm.extended = false

	if limits.MoveTime > 0 {
		tm.fixed = true
		tm.minThink = limits.MoveTime
		tm.maxThink = limits.MoveTime
		return
	}

	if limits.Infinite || (limits.Time[us] == 0 && limits.MoveTime == 0) {
		tm.noLimit = true
		return
	}

	remaining := limits.Time[us]
	increment := limits.Inc[us]

	movesToGo := limits.MovesToGo
	if movesToGo <= 0 {
		movesToGo = defaultMovesToGo
	}

	safetyPerMove := 20*time.Millisecond - increment
	if safetyPerMove < 0 {
		safetyPerMove = 0
	}
	safety := safetyPerMove*time.Duration(movesToGo) + 40*time.Millisecond

	usable := remaining - safety
	if usable < 0 {
		usable = remaining / 2
	}

	budgeted := (remaining + increment*time.Duration(movesToGo)) / time.Duration(movesToGo)

	maxThink := usable
	if budgeted < maxThink {
		maxThink = budgeted
	}
	if maxThink < 0 {
		maxThink = 0
	}

	tm.usable = usable
	tm.maxThink = maxThink
	tm.minThink = maxThink * 7 / 10
}

// TryExtend grants the search one extension, the first time the caller
// reports a surprising result (e.g. an aspiration-window fail-low),
// provided there is enough slack left in the time budget to justify it.
func (tm *TimeManager) TryExtend() {
	if tm.fixed || tm.noLimit || tm.extended {
		return
	}
	elapsed := time.Since(tm.startTime)
	if tm.usable-tm.maxThink > 2*elapsed {
		tm.minThink += elapsed
		tm.maxThink += 2 * elapsed
		tm.extended = true
	}
}

// Elapsed returns the time elapsed since search started.
func (tm *TimeManager) Elapsed() time.Duration {
	return time.Since(tm.startTime)
}

// ShouldStop reports whether the hard time limit has been reached.
func (tm *TimeManager) ShouldStop() bool {
	if tm.noLimit {
		return false
	}
	return tm.Elapsed() >= tm.maxThink
}

// PastOptimum reports whether the soft (minThink) limit has been passed;
// iterative deepening should not start a new iteration once this is true.
func (tm *TimeManager) PastOptimum() bool {
	if tm.noLimit {
		return false
	}
	return tm.Elapsed() >= tm.minThink
}
