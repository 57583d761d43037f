package engine

import (
	"sync/atomic"

	"github.com/chessplay/enginecore/internal/board"
)

// Search constants
const (
	Infinity  = 30000
	MateScore = 29000
	MaxPly    = 128
)

// PVTable stores the principal variation.
type PVTable struct {
	length [MaxPly]int
	moves  [MaxPly][MaxPly]board.Move
}

// Searcher performs the single-threaded negamax/alpha-beta search. Only
// one Searcher is ever active at a time: it owns the position exclusively
// for the duration of a search, per the engine's single-worker model.
type Searcher struct {
	pos       *board.Position
	tt        *TranspositionTable
	orderer   *MoveOrderer
	pawnTable *PawnTable

	nodes    uint64
	stopFlag atomic.Bool

	pv PVTable

	undoStack [MaxPly]board.UndoInfo
	evalStack [MaxPly]int

	// moveStack/pieceStack record the move played to reach ply+1 and the
	// piece that played it, so the countermove heuristic at ply+1 can look
	// up "what refuted this move last time". nullStack marks plies reached
	// by a null move, so null-move pruning can refuse two in a row.
	moveStack  [MaxPly]board.Move
	pieceStack [MaxPly]board.Piece
	nullStack  [MaxPly]bool
}

// pawnTableSizeMB sizes the pawn-structure cache well below the main
// transposition table; pawn structure changes far less often than the
// full position, so a small table already has a high hit rate.
const pawnTableSizeMB = 4

// NewSearcher creates a new searcher.
func NewSearcher(tt *TranspositionTable) *Searcher {
	return &Searcher{
		tt:        tt,
		orderer:   NewMoveOrderer(),
		pawnTable: NewPawnTable(pawnTableSizeMB),
	}
}

// staticEval returns the cached tapered evaluation of the current position.
func (s *Searcher) staticEval() int {
	return EvaluateWithPawnTable(s.pos, s.pawnTable)
}

// Stop signals the search to stop.
func (s *Searcher) Stop() {
	s.stopFlag.Store(true)
}

// IsStopped reports whether the search was asked to stop.
func (s *Searcher) IsStopped() bool {
	return s.stopFlag.Load()
}

// Reset resets the searcher for a new search.
func (s *Searcher) Reset() {
	s.stopFlag.Store(false)
	s.nodes = 0
	s.orderer.Clear()
}

// ClearOrderer clears killer/history tables and the pawn cache between games.
func (s *Searcher) ClearOrderer() {
	s.orderer = NewMoveOrderer()
	s.pawnTable.Clear()
}

// Nodes returns the number of nodes searched.
func (s *Searcher) Nodes() uint64 {
	return s.nodes
}

// Search performs a full search at the given depth within [alpha, beta]
// (an aspiration window narrower than [-Infinity, Infinity] is the
// caller's choice; Search itself just honors whatever window it's given).
func (s *Searcher) Search(pos *board.Position, depth, alpha, beta int) (board.Move, int) {
	s.pos = pos.Copy()
	s.stopFlag.Store(false)
	s.nodes = 0
	s.moveStack[0] = board.NoMove
	s.pieceStack[0] = board.NoPiece
	s.nullStack[0] = false

	score := s.negamax(depth, 0, alpha, beta)

	var bestMove board.Move
	if s.pv.length[0] > 0 {
		bestMove = s.pv.moves[0][0]
	}

	return bestMove, score
}

// negamax implements alpha-beta search with PVS, null-move pruning,
// razoring, futility pruning and late move reductions.
func (s *Searcher) negamax(depth, ply int, alpha, beta int) int {
	if s.nodes&2047 == 0 && s.stopFlag.Load() {
		return 0
	}
	s.nodes++
	s.pv.length[ply] = ply

	pvNode := beta-alpha > 1

	if ply > 0 && (s.pos.IsRuleDraw() || s.pos.IsInsufficientMaterial()) {
		return 0
	}
	if ply >= MaxPly {
		return s.staticEval()
	}

	var ttMove board.Move
	ttEntry, found := s.tt.Probe(s.pos.Hash)
	if found {
		ttMove = ttEntry.BestMove
		if !pvNode && int(ttEntry.Depth) >= depth {
			score := AdjustScoreFromTT(int(ttEntry.Score), ply)
			switch ttEntry.Flag {
			case TTExact:
				return score
			case TTLowerBound:
				if score > alpha {
					alpha = score
				}
			case TTUpperBound:
				if score < beta {
					beta = score
				}
			}
			if alpha >= beta {
				return score
			}
		}
	}

	if depth <= 0 {
		return s.quiescence(ply, alpha, beta)
	}

	inCheck := s.pos.InCheck()

	staticEval := s.staticEval()
	s.evalStack[ply] = staticEval

	// Razoring: hopeless-looking quiet nodes drop straight to quiescence.
	if !pvNode && !inCheck && depth <= 2 {
		margin := 125 + 100*depth
		if staticEval+margin < beta {
			score := s.quiescence(ply, alpha, beta)
			if score < beta {
				return score
			}
		}
	}

	// Reverse futility pruning: if even a generous margin leaves the
	// static eval above beta, assume a real search would too.
	if !pvNode && !inCheck && depth <= 6 {
		margin := 80 * depth
		if staticEval-margin >= beta {
			return staticEval
		}
	}

	// Null move pruning. Two null moves in a row would just return to the
	// original side to move having gained nothing, so refuse a null move
	// immediately after another one.
	if !pvNode && !inCheck && !s.nullStack[ply] && depth >= 3 && staticEval >= beta && s.pos.HasNonPawnMaterial() {
		reduction := 3 + depth/6
		undo := s.pos.MakeNullMove()
		s.moveStack[ply+1] = board.NoMove
		s.pieceStack[ply+1] = board.NoPiece
		s.nullStack[ply+1] = true
		score := -s.negamax(depth-1-reduction, ply+1, -beta, -beta+1)
		s.pos.UnmakeNullMove(undo)
		if s.stopFlag.Load() {
			return 0
		}
		if score >= beta {
			return beta
		}
	}

	// Internal iterative reduction: without a TT move to try first,
	// shallow the search instead of wasting a full-depth pass on a
	// poorly-ordered move list.
	if !found && depth >= 4 {
		depth--
	}

	moves := s.pos.GenerateLegalMoves()

	if moves.Len() == 0 {
		if inCheck {
			return -MateScore + ply
		}
		return 0
	}

	prevMove := s.moveStack[ply]
	prevPiece := s.pieceStack[ply]
	scores := s.orderer.ScoreMovesWithCounter(s.pos, moves, ply, ttMove, prevMove)

	bestScore := -Infinity
	bestMove := board.NoMove
	flag := TTUpperBound
	movesSearched := 0
	var triedQuiets []board.Move

	for i := 0; i < moves.Len(); i++ {
		PickMove(moves, scores, i)
		move := moves.Get(i)
		isCapture := move.IsCapture(s.pos)
		isQuiet := !isCapture && !move.IsPromotion()
		movingPiece := s.pos.PieceAt(move.From())

		// Futility pruning: a quiet move late in the list that can't
		// plausibly raise alpha even with a generous margin.
		if !pvNode && !inCheck && isQuiet && depth <= 6 && movesSearched > 0 {
			margin := 100 + 80*depth
			if staticEval+margin <= alpha {
				movesSearched++
				continue
			}
		}

		s.undoStack[ply] = s.pos.MakeMove(move)
		if !s.undoStack[ply].Valid {
			continue
		}
		movesSearched++
		s.moveStack[ply+1] = move
		s.pieceStack[ply+1] = movingPiece
		s.nullStack[ply+1] = false

		givesCheck := s.pos.InCheck()

		var score int
		if movesSearched == 1 {
			score = -s.negamax(depth-1, ply+1, -beta, -alpha)
		} else {
			reduction := 0
			if isQuiet && !inCheck && !givesCheck && depth >= 3 && movesSearched > 3 {
				reduction = 1 + depth/6
				if pvNode {
					reduction--
				}
				if reduction < 0 {
					reduction = 0
				}
			}

			score = -s.negamax(depth-1-reduction, ply+1, -alpha-1, -alpha)
			if score > alpha && (reduction > 0 || pvNode) {
				score = -s.negamax(depth-1, ply+1, -beta, -alpha)
			}
		}

		s.pos.UnmakeMove(move, s.undoStack[ply])

		if s.stopFlag.Load() {
			return 0
		}

		if score > bestScore {
			bestScore = score
			bestMove = move

			if score > alpha {
				alpha = score
				flag = TTExact

				s.pv.moves[ply][ply] = move
				for j := ply + 1; j < s.pv.length[ply+1]; j++ {
					s.pv.moves[ply][j] = s.pv.moves[ply+1][j]
				}
				s.pv.length[ply] = s.pv.length[ply+1]
			}
		}

		if score >= beta {
			s.tt.Store(s.pos.Hash, depth, AdjustScoreToTT(score, ply), TTLowerBound, bestMove)

			if isQuiet {
				s.orderer.UpdateKillers(move, ply)
				s.orderer.UpdateHistory(move, depth, true)
				s.orderer.UpdateCounterMove(prevMove, move, s.pos)
				s.orderer.UpdateCountermoveHistory(prevMove, move, prevPiece, movingPiece, depth, true)
				for _, quiet := range triedQuiets {
					s.orderer.UpdateHistory(quiet, depth, false)
				}
			} else {
				capturedType := move.CapturedType(s.pos)
				s.orderer.UpdateCaptureHistory(movingPiece, move.To(), capturedType, depth, true)
			}

			return score
		}

		if isQuiet {
			triedQuiets = append(triedQuiets, move)
		}
	}

	s.tt.Store(s.pos.Hash, depth, AdjustScoreToTT(bestScore, ply), flag, bestMove)

	return bestScore
}

// quiescence extends the leaf with captures and promotions; while in
// check it falls back to the full legal move set since the position
// cannot simply "stand pat" its way out of check.
func (s *Searcher) quiescence(ply int, alpha, beta int) int {
	const maxQuiescencePly = 32
	if ply >= MaxPly || ply > maxQuiescencePly {
		return s.staticEval()
	}
	if s.stopFlag.Load() {
		return 0
	}
	s.nodes++

	inCheck := s.pos.InCheck()

	var standPat int
	if !inCheck {
		standPat = s.staticEval()
		if standPat >= beta {
			return beta
		}
		if standPat > alpha {
			alpha = standPat
		}
		bigDelta := QueenValue
		if standPat+bigDelta < alpha {
			return alpha
		}
	}

	var moves *board.MoveList
	if inCheck {
		moves = s.pos.GenerateLegalMoves()
		if moves.Len() == 0 {
			return -MateScore + ply
		}
	} else {
		moves = s.pos.GenerateLegalCaptures()
	}

	scores := s.orderer.ScoreMoves(s.pos, moves, ply, board.NoMove)

	for i := 0; i < moves.Len(); i++ {
		PickMove(moves, scores, i)
		move := moves.Get(i)

		if !inCheck {
			if SEE(s.pos, move) < 0 {
				continue
			}
		}

		undo := s.pos.MakeMove(move)
		if !undo.Valid {
			continue
		}

		score := -s.quiescence(ply+1, -beta, -alpha)

		s.pos.UnmakeMove(move, undo)

		if score >= beta {
			return beta
		}
		if score > alpha {
			alpha = score
		}
	}

	return alpha
}

// GetPV returns the principal variation from the last search.
func (s *Searcher) GetPV() []board.Move {
	pv := make([]board.Move, s.pv.length[0])
	for i := 0; i < s.pv.length[0]; i++ {
		pv[i] = s.pv.moves[0][i]
	}
	return pv
}
