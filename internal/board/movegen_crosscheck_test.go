package board

import "testing"

// checkPseudoLegal plays every pseudo-legal move from pos, checking that any
// move the legal generator rejected does in fact leave the mover's own king
// attacked, and that every move the legal generator accepted does not.
func checkPseudoLegal(t *testing.T, pos *Position) {
	t.Helper()

	pseudo := NewMoveList()
	pos.generateAllPseudo(pseudo, false)

	legal := pos.GenerateLegalMoves()
	legalSet := make(map[Move]bool, legal.Len())
	for i := 0; i < legal.Len(); i++ {
		legalSet[legal.Get(i)] = true
	}

	mover := pos.SideToMove

	for i := 0; i < pseudo.Len(); i++ {
		m := pseudo.Get(i)
		undo := pos.MakeMove(m)
		if !undo.Valid {
			continue
		}

		kingSq := pos.KingSquare[mover]
		exposed := pos.IsSquareAttacked(kingSq, mover.Other())

		if legalSet[m] && exposed {
			t.Errorf("legal generator accepted %s but it leaves %s's king attacked in %s", m, mover, pos.ToFEN())
		}
		if !legalSet[m] && !exposed {
			// Castling and en-passant pseudo-moves can be excluded by the
			// legal generator for reasons other than direct king exposure
			// (occupancy, transit-square attacks, discovered ep check), so
			// only require the converse direction strictly for normal moves.
			if !m.IsCastling() && !m.IsEnPassant() {
				t.Errorf("legal generator rejected %s but it does not expose %s's king in %s", m, mover, pos.ToFEN())
			}
		}

		pos.UnmakeMove(m, undo)
	}
}

func TestMoveGenCrossCheckStartPos(t *testing.T) {
	pos := NewPosition()
	checkPseudoLegal(t, pos)
}

func TestMoveGenCrossCheckKiwipete(t *testing.T) {
	pos, err := ParseFEN("r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	checkPseudoLegal(t, pos)
}

func TestMoveGenCrossCheckPinPosition(t *testing.T) {
	// White knight on e4 pinned to the white king on e1 by a black rook on
	// e8; the knight cannot legally move off the e-file.
	pos, err := ParseFEN("4r3/8/8/8/4N3/8/8/4K3 w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	checkPseudoLegal(t, pos)
}
