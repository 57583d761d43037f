package board

import "testing"

// TestEnPassantPinLine exercises the rank-only discovered-check check in
// enPassantExposesKing: a white king and black rook share the 5th rank with
// two pawns between them; capturing en passant removes both pawns from that
// rank and must not be offered as a legal move because it would expose the
// king to the rook along the rank.
func TestEnPassantPinLine(t *testing.T) {
	// White king g5, white pawn e5, black pawn d5, black rook a5: the e5
	// pawn could capture d6 en passant, but doing so exposes Kg5 to the
	// rook along the 5th rank once both pawns leave it.
	pos, err := ParseFEN("8/8/8/r2pP1K1/8/8/8/8 w - d6 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	moves := pos.GenerateLegalMoves()
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		if m.IsEnPassant() {
			t.Errorf("en passant capture %s should be illegal: it exposes the king along the rank", m)
		}
	}
}

// TestEnPassantDiagonalPinStillLegal confirms the rank-only check does not
// over-reject: a diagonal pin on the capturing pawn itself is handled by
// the ordinary pin machinery, not by enPassantExposesKing, and a genuinely
// safe en-passant capture remains legal.
func TestEnPassantDiagonalPinStillLegal(t *testing.T) {
	// Black bishop b8 pins the e5 pawn to Kh2 along the b8-h2 diagonal;
	// exd6 lands on d6, which stays on that diagonal, so it is legal.
	pos, err := ParseFEN("1b2k3/8/8/3pP3/8/8/7K/8 w - d6 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	moves := pos.GenerateLegalMoves()
	found := false
	for i := 0; i < moves.Len(); i++ {
		if moves.Get(i).IsEnPassant() {
			found = true
		}
	}
	if !found {
		t.Error("expected en passant capture e5xd6 to be legal")
	}
}
