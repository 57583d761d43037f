package engine

import (
	"sync/atomic"
	"time"

	"github.com/chessplay/enginecore/internal/board"
)

// SearchInfo reports iterative-deepening progress to the UCI layer.
type SearchInfo struct {
	Depth    int
	Score    int
	Nodes    uint64
	Time     time.Duration
	PV       []board.Move
	HashFull int // Permille of hash table used
}

// Engine is the single-threaded search engine. The UCI layer runs each
// SearchWithUCILimits call on a goroutine of its own and calls Stop (and
// its other methods) directly from its reader goroutine; there is no
// command queue. SearchWithUCILimits spins up one watchdog goroutine per
// search that does nothing but poll the time budget and raise the stop flag.
type Engine struct {
	tt       *TranspositionTable
	searcher *Searcher
	stopFlag atomic.Bool

	OnInfo func(SearchInfo)
}

// NewEngine creates a new chess engine with the given transposition table
// size in MB.
func NewEngine(ttSizeMB int) *Engine {
	tt := NewTranspositionTable(ttSizeMB)
	return &Engine{
		tt:       tt,
		searcher: NewSearcher(tt),
	}
}

// Stop stops the current search.
func (e *Engine) Stop() {
	e.stopFlag.Store(true)
	e.searcher.Stop()
}

// Clear clears the transposition table and move ordering tables.
func (e *Engine) Clear() {
	e.tt.Clear()
	e.searcher.ClearOrderer()
}

// Evaluate returns the static evaluation of a position.
func (e *Engine) Evaluate(pos *board.Position) int {
	return Evaluate(pos)
}

// Perft performs a perft test (for debugging move generation).
func (e *Engine) Perft(pos *board.Position, depth int) uint64 {
	if depth == 0 {
		return 1
	}

	moves := pos.GenerateLegalMoves()
	if depth == 1 {
		return uint64(moves.Len())
	}

	var nodes uint64
	for i := 0; i < moves.Len(); i++ {
		move := moves.Get(i)
		undo := pos.MakeMove(move)
		nodes += e.Perft(pos, depth-1)
		pos.UnmakeMove(move, undo)
	}

	return nodes
}

const aspirationWindow = 30

// SearchWithUCILimits runs iterative deepening until the time manager or
// an explicit Stop() call ends it, reporting each completed iteration
// through OnInfo and returning the best move found.
func (e *Engine) SearchWithUCILimits(pos *board.Position, limits UCILimits, ply int) board.Move {
	tm := NewTimeManager()
	tm.Init(limits, pos.SideToMove, ply)

	e.stopFlag.Store(false)
	e.searcher.Reset()
	e.tt.NewSearch()

	watchdogDone := make(chan struct{})
	go e.watchdog(tm, watchdogDone)
	defer close(watchdogDone)

	startTime := time.Now()

	var bestMove board.Move
	var bestScore int
	var bestPV []board.Move

	maxDepth := MaxPly
	if limits.Depth > 0 {
		maxDepth = limits.Depth
	}

	prevScore := 0

	for depth := 1; depth <= maxDepth; depth++ {
		alpha, beta := -Infinity, Infinity
		if depth >= 2 {
			alpha = prevScore - aspirationWindow
			beta = prevScore + aspirationWindow
		}

		var move board.Move
		var score int
		for {
			move, score = e.searcher.Search(pos, depth, alpha, beta)
			if e.searcher.IsStopped() {
				break
			}
			if score <= alpha && alpha > -Infinity {
				tm.TryExtend()
				alpha = -Infinity
				continue
			}
			if score >= beta && beta < Infinity {
				beta = Infinity
				continue
			}
			break
		}

		if e.searcher.IsStopped() {
			break
		}

		// A surprising drop of more than a pawn from the previous
		// iteration's eval gets the same one-time extension as an
		// aspiration fail-low, even when this iteration's window still
		// contained the score.
		const surprisingDrop = 100
		if depth > 1 && score < prevScore-surprisingDrop {
			tm.TryExtend()
		}

		prevScore = score
		if move != board.NoMove {
			bestMove = move
			bestScore = score
			bestPV = e.searcher.GetPV()
		}

		if e.OnInfo != nil {
			e.OnInfo(SearchInfo{
				Depth:    depth,
				Score:    bestScore,
				Nodes:    e.searcher.Nodes(),
				Time:     time.Since(startTime),
				PV:       bestPV,
				HashFull: e.tt.HashFull(),
			})
		}

		if bestScore > MateScore-100 || bestScore < -MateScore+100 {
			break
		}
		if tm.PastOptimum() {
			break
		}
	}

	e.searcher.Stop()
	return bestMove
}

// watchdog is the time-manager thread: it owns no board state, only the
// atomic stop flags, and exists purely to enforce the hard time limit
// without the search loop needing to check a clock on every node.
func (e *Engine) watchdog(tm *TimeManager, done <-chan struct{}) {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if tm.ShouldStop() || e.stopFlag.Load() {
				e.searcher.Stop()
				return
			}
		}
	}
}

// ScoreToString converts a score to a human-readable string.
func ScoreToString(score int) string {
	if score > MateScore-100 {
		mateIn := (MateScore - score + 1) / 2
		return "Mate in " + itoa(mateIn)
	}
	if score < -MateScore+100 {
		mateIn := (MateScore + score + 1) / 2
		return "Mated in " + itoa(mateIn)
	}

	sign := ""
	if score < 0 {
		sign = "-"
		score = -score
	}
	pawns := score / 100
	centipawns := score % 100

	return sign + itoa(pawns) + "." + itoa(centipawns)
}

// itoa avoids pulling in strconv for this one call site.
func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	if n < 0 {
		return "-" + itoa(-n)
	}
	s := ""
	for n > 0 {
		s = string('0'+byte(n%10)) + s
		n /= 10
	}
	return s
}
