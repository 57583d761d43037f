package engine

import (
	"testing"
	"time"

	"github.com/chessplay/enginecore/internal/board"
)

// TestDepthOneScoreProperty checks spec's depth-1 search property: the
// returned score equals the best (negated) static evaluation reachable in
// one ply, modulo quiescence settling any immediate captures.
func TestDepthOneScoreProperty(t *testing.T) {
	pos, err := board.ParseFEN("4k3/8/8/8/8/8/4P3/4K3 w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	tt := NewTranspositionTable(1)
	s := NewSearcher(tt)

	bestMove, score := s.Search(pos, 1, -Infinity, Infinity)
	if bestMove == board.NoMove {
		t.Fatal("depth-1 search returned no move")
	}

	moves := pos.GenerateLegalMoves()
	worstReply := -Infinity
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		undo := pos.MakeMove(m)
		if undo.Valid {
			eval := -Evaluate(pos)
			if eval > worstReply {
				worstReply = eval
			}
		}
		pos.UnmakeMove(m, undo)
	}

	if score < worstReply-50 || score > worstReply+50 {
		t.Errorf("depth-1 score %d far from best static eval %d", score, worstReply)
	}
}

// TestMateInOneDetection confirms a mate-in-1 position is both found and
// scored as a mate with the correct distance.
func TestMateInOneDetection(t *testing.T) {
	pos, err := board.ParseFEN("r1bqkb1r/pppp1ppp/2n2n2/4p2Q/2B1P3/8/PPPP1PPP/RNB1K1NR w KQkq - 4 4")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	tt := NewTranspositionTable(1)
	s := NewSearcher(tt)

	bestMove, score := s.Search(pos, 4, -Infinity, Infinity)

	want, err := board.ParseMove("h5f7", pos)
	if err != nil {
		t.Fatalf("ParseMove: %v", err)
	}
	if bestMove != want {
		t.Errorf("expected mating move %s, got %s", want, bestMove)
	}
	if score <= MateScore-100 {
		t.Errorf("expected a mate score (> %d), got %d", MateScore-100, score)
	}
	if score != MateScore-1 {
		t.Errorf("expected mate at distance 1 (score %d), got %d", MateScore-1, score)
	}
}

// TestRepetitionTriggersDraw confirms playing the same move and its reply
// twice from the start position results in IsRuleDraw.
func TestRepetitionTriggersDraw(t *testing.T) {
	pos := board.NewPosition()

	play := func(from, to string) board.UndoInfo {
		m, err := board.ParseMove(from+to, pos)
		if err != nil {
			t.Fatalf("ParseMove(%s%s): %v", from, to, err)
		}
		return pos.MakeMove(m)
	}

	// Ng1-f3, Ng8-f6, Nf3-g1, Nf6-g8 returns to the start position; repeat
	// once more to reach the third occurrence.
	for i := 0; i < 2; i++ {
		play("g1", "f3")
		play("g8", "f6")
		play("f3", "g1")
		play("f6", "g8")
	}

	if !pos.IsRuleDraw() {
		t.Error("expected threefold repetition to trigger IsRuleDraw")
	}
}

// TestStopFlagResponsiveness confirms an in-progress search returns soon
// after its stop flag is set, rather than running to completion.
func TestStopFlagResponsiveness(t *testing.T) {
	pos, err := board.ParseFEN("r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	tt := NewTranspositionTable(16)
	s := NewSearcher(tt)

	done := make(chan struct{})
	go func() {
		s.Search(pos, 40, -Infinity, Infinity)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	s.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("search did not stop within a reasonable time after Stop()")
	}
}

// TestTacticalScenariosThroughFullSearch drives two of the spec's tactical
// scenarios through SearchWithUCILimits, the actual UCI-facing entry point,
// rather than only through the move generator. The castling scenario is
// deliberately excluded here: spec §8 only requires e1g1 to be *legal* in
// that position (checked in board.TestKingsideCastlingLegal), not that a
// king-and-rook-vs-king search necessarily prefers it over any other move.
func TestTacticalScenariosThroughFullSearch(t *testing.T) {
	cases := []struct {
		name string
		fen  string
		want string
	}{
		{
			name: "pawn-push",
			fen:  "4k3/8/8/8/8/8/4P3/4K3 w - - 0 1",
			want: "e2e4",
		},
		{
			name: "scholars-mate",
			fen:  "r1bqkb1r/pppp1ppp/2n2n2/4p2Q/2B1P3/8/PPPP1PPP/RNB1K1NR w KQkq - 4 4",
			want: "h5f7",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pos, err := board.ParseFEN(tc.fen)
			if err != nil {
				t.Fatalf("ParseFEN: %v", err)
			}

			e := NewEngine(16)
			limits := UCILimits{Depth: 6}
			got := e.SearchWithUCILimits(pos, limits, 0)

			want, err := board.ParseMove(tc.want, pos)
			if err != nil {
				t.Fatalf("ParseMove(%s): %v", tc.want, err)
			}
			if got != want {
				t.Errorf("SearchWithUCILimits chose %s, want %s", got, want)
			}
		})
	}
}
