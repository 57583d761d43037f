package board

import "testing"

func TestFENRoundTrip(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
		"8/8/8/8/8/8/6k1/4K2R w K - 0 1",
	}

	for _, fen := range fens {
		pos, err := ParseFEN(fen)
		if err != nil {
			t.Fatalf("ParseFEN(%q): %v", fen, err)
		}
		got := pos.ToFEN()

		// Round trip through a second parse; compare the regenerated FEN
		// rather than raw strings so fullmove-number drift (explicitly
		// ignored per the UCI boundary) doesn't fail the test.
		pos2, err := ParseFEN(got)
		if err != nil {
			t.Fatalf("ParseFEN(ToFEN(%q)) = %q: %v", fen, got, err)
		}
		if pos2.ToFEN() != got {
			t.Errorf("FEN round trip not idempotent: %q -> %q -> %q", fen, got, pos2.ToFEN())
		}
	}
}

func TestDoUndoMoveRestoresState(t *testing.T) {
	pos := NewPosition()
	moves := pos.GenerateLegalMoves()

	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)

		before := pos.ToFEN()
		beforeHash := pos.Hash
		beforePawnKey := pos.PawnKey
		beforeHistLen := len(pos.HashHistory)

		undo := pos.MakeMove(m)
		if !undo.Valid {
			continue
		}
		pos.UnmakeMove(m, undo)

		if pos.ToFEN() != before {
			t.Fatalf("move %s: FEN not restored: got %q, want %q", m, pos.ToFEN(), before)
		}
		if pos.Hash != beforeHash {
			t.Fatalf("move %s: hash not restored: got %x, want %x", m, pos.Hash, beforeHash)
		}
		if pos.PawnKey != beforePawnKey {
			t.Fatalf("move %s: pawn key not restored: got %x, want %x", m, pos.PawnKey, beforePawnKey)
		}
		if len(pos.HashHistory) != beforeHistLen {
			t.Fatalf("move %s: hash history length not restored: got %d, want %d", m, len(pos.HashHistory), beforeHistLen)
		}
	}
}

func TestNullMoveIsIdentity(t *testing.T) {
	pos, err := ParseFEN("r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	before := pos.ToFEN()
	beforeHash := pos.Hash

	undo := pos.MakeNullMove()
	pos.UnmakeNullMove(undo)

	if pos.ToFEN() != before {
		t.Errorf("null move not identity on FEN: got %q, want %q", pos.ToFEN(), before)
	}
	if pos.Hash != beforeHash {
		t.Errorf("null move not identity on hash: got %x, want %x", pos.Hash, beforeHash)
	}
}

// TestIncrementalHashMatchesRecompute walks a short game and confirms the
// incrementally maintained Zobrist hash and pawn key equal a full recompute
// at every reachable position.
func TestIncrementalHashMatchesRecompute(t *testing.T) {
	pos := NewPosition()

	var playLine func(depth int)
	playLine = func(depth int) {
		if depth == 0 {
			return
		}

		if pos.Hash != pos.ComputeHash() {
			t.Fatalf("incremental hash %x != recomputed %x at %s", pos.Hash, pos.ComputeHash(), pos.ToFEN())
		}
		if pos.PawnKey != pos.ComputePawnKey() {
			t.Fatalf("incremental pawn key %x != recomputed %x at %s", pos.PawnKey, pos.ComputePawnKey(), pos.ToFEN())
		}

		moves := pos.GenerateLegalMoves()
		limit := moves.Len()
		if limit > 4 {
			limit = 4
		}
		for i := 0; i < limit; i++ {
			m := moves.Get(i)
			undo := pos.MakeMove(m)
			if undo.Valid {
				playLine(depth - 1)
			}
			pos.UnmakeMove(m, undo)
		}
	}

	playLine(4)
}
