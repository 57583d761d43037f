package board

// Strictly legal move generation. No pseudo-legal pass is filtered
// afterwards: pins and checks are resolved up front so every move the
// generator emits is already legal.

// pinInfo holds, for the side to move, the set of absolutely pinned
// squares and, for each pinned square, the full line (through the king
// and the pinning slider) that piece may still move along.
type pinInfo struct {
	pinned Bitboard
	rays   [64]Bitboard
}

// computePins finds pieces of the side to move that are pinned to their
// king by an opponent slider on the same rank, file, or diagonal.
func (p *Position) computePins() pinInfo {
	us := p.SideToMove
	them := us.Other()
	ksq := p.KingSquare[us]

	var info pinInfo

	snipers := RookAttacks(ksq, Empty) & (p.Pieces[them][Rook] | p.Pieces[them][Queen])
	snipers |= BishopAttacks(ksq, Empty) & (p.Pieces[them][Bishop] | p.Pieces[them][Queen])

	for snipers != 0 {
		sniperSq := snipers.PopLSB()
		between := Between(sniperSq, ksq) & p.AllOccupied
		if between.PopCount() == 1 && between&p.Occupied[us] != 0 {
			pinnedSq := between.LSB()
			info.pinned |= between
			info.rays[pinnedSq] = Line(sniperSq, ksq)
		}
	}

	return info
}

// GenerateLegalMoves generates every strictly legal move in the position.
func (p *Position) GenerateLegalMoves() *MoveList {
	ml := NewMoveList()
	p.generateLegal(ml, false)
	return ml
}

// GenerateLegalCaptures generates strictly legal captures and promotions
// (the "noisy" move set used by quiescence search).
func (p *Position) GenerateLegalCaptures() *MoveList {
	ml := NewMoveList()
	p.generateLegal(ml, true)
	return ml
}

// GeneratePseudoLegalMoves is retained for perft cross-checks: it produces
// the naive movelist the legal generator must be a strict subset of.
func (p *Position) GeneratePseudoLegalMoves() *MoveList {
	ml := NewMoveList()
	p.generateAllPseudo(ml, false)
	return ml
}

func (p *Position) generateLegal(ml *MoveList, noisyOnly bool) {
	us := p.SideToMove
	them := us.Other()
	ksq := p.KingSquare[us]
	checkers := p.Checkers
	numCheckers := checkers.PopCount()

	pins := p.computePins()

	p.generateKingEvasions(ml, us, them, noisyOnly)

	if numCheckers >= 2 {
		return // double check: king moves only
	}

	var targetMask Bitboard
	if numCheckers == 1 {
		checkerSq := checkers.LSB()
		targetMask = SquareBB(checkerSq)
		checkerPt := p.PieceAt(checkerSq).Type()
		if checkerPt == Bishop || checkerPt == Rook || checkerPt == Queen {
			targetMask |= Between(checkerSq, ksq)
		}
	} else {
		targetMask = Universe
	}

	p.generatePawnMovesLegal(ml, us, them, pins, targetMask, numCheckers, noisyOnly)
	p.generatePieceMovesLegal(ml, us, Knight, pins, targetMask, noisyOnly)
	p.generatePieceMovesLegal(ml, us, Bishop, pins, targetMask, noisyOnly)
	p.generatePieceMovesLegal(ml, us, Rook, pins, targetMask, noisyOnly)
	p.generatePieceMovesLegal(ml, us, Queen, pins, targetMask, noisyOnly)

	if numCheckers == 0 {
		p.generateCastlingMovesLegal(ml, us, them)
	}
}

// generateKingEvasions generates legal king moves (castling excluded).
// The king's own square is removed from the occupancy before testing the
// destination for attacks, so sliding checkers are not "blocked" by the
// king stepping straight back along their own ray.
func (p *Position) generateKingEvasions(ml *MoveList, us, them Color, noisyOnly bool) {
	from := p.KingSquare[us]
	occWithoutKing := p.AllOccupied &^ SquareBB(from)
	targets := KingAttacks(from) &^ p.Occupied[us]
	if noisyOnly {
		targets &= p.Occupied[them]
	}
	for targets != 0 {
		to := targets.PopLSB()
		if p.AttackersByColor(to, them, occWithoutKing) == 0 {
			ml.Add(NewMove(from, to))
		}
	}
}

func (p *Position) generatePieceMovesLegal(ml *MoveList, us Color, pt PieceType, pins pinInfo, targetMask Bitboard, noisyOnly bool) {
	occupied := p.AllOccupied
	own := p.Occupied[us]
	enemy := p.Occupied[us.Other()]

	pieces := p.Pieces[us][pt]
	for pieces != 0 {
		from := pieces.PopLSB()
		var attacks Bitboard
		switch pt {
		case Knight:
			attacks = KnightAttacks(from)
		case Bishop:
			attacks = BishopAttacks(from, occupied)
		case Rook:
			attacks = RookAttacks(from, occupied)
		case Queen:
			attacks = QueenAttacks(from, occupied)
		}
		attacks &^= own
		attacks &= targetMask

		if pins.pinned.IsSet(from) {
			if pt == Knight {
				continue // a pinned knight can never stay on the pin ray
			}
			attacks &= pins.rays[from]
		}

		if noisyOnly {
			attacks &= enemy
		}

		for attacks != 0 {
			to := attacks.PopLSB()
			ml.Add(NewMove(from, to))
		}
	}
}

func (p *Position) generatePawnMovesLegal(ml *MoveList, us, them Color, pins pinInfo, targetMask Bitboard, numCheckers int, noisyOnly bool) {
	pawns := p.Pieces[us][Pawn]
	occupied := p.AllOccupied
	enemies := p.Occupied[them]
	empty := ^occupied

	var push1, push2, attackL, attackR Bitboard
	var promotionRank Bitboard
	var pushDir int

	if us == White {
		push1 = pawns.North() & empty
		push2 = (push1 & Rank3).North() & empty
		attackL = pawns.NorthWest() & enemies
		attackR = pawns.NorthEast() & enemies
		promotionRank = Rank8
		pushDir = 8
	} else {
		push1 = pawns.South() & empty
		push2 = (push1 & Rank6).South() & empty
		attackL = pawns.SouthWest() & enemies
		attackR = pawns.SouthEast() & enemies
		promotionRank = Rank1
		pushDir = -8
	}

	addPawnMove := func(from, to Square, isCapture bool) {
		if pins.pinned.IsSet(from) && !pins.rays[from].IsSet(to) {
			return
		}
		if !targetMask.IsSet(to) {
			return
		}
		if to.Rank() == 0 || to.Rank() == 7 {
			addPromotions(ml, from, to)
			return
		}
		if noisyOnly && !isCapture {
			return
		}
		ml.Add(NewMove(from, to))
	}

	for bb := push1 &^ promotionRank; bb != 0; {
		to := bb.PopLSB()
		addPawnMove(Square(int(to)-pushDir), to, false)
	}
	for bb := push2; bb != 0; {
		to := bb.PopLSB()
		addPawnMove(Square(int(to)-2*pushDir), to, false)
	}
	for bb := attackL &^ promotionRank; bb != 0; {
		to := bb.PopLSB()
		addPawnMove(Square(int(to)-pushDir+1), to, true)
	}
	for bb := attackR &^ promotionRank; bb != 0; {
		to := bb.PopLSB()
		addPawnMove(Square(int(to)-pushDir-1), to, true)
	}
	for bb := push1 & promotionRank; bb != 0; {
		to := bb.PopLSB()
		addPawnMove(Square(int(to)-pushDir), to, false)
	}
	for bb := attackL & promotionRank; bb != 0; {
		to := bb.PopLSB()
		addPawnMove(Square(int(to)-pushDir+1), to, true)
	}
	for bb := attackR & promotionRank; bb != 0; {
		to := bb.PopLSB()
		addPawnMove(Square(int(to)-pushDir-1), to, true)
	}

	if p.EnPassant == NoSquare {
		return
	}

	to := p.EnPassant
	var capturedSq Square
	if us == White {
		capturedSq = to - 8
	} else {
		capturedSq = to + 8
	}

	// En passant may capture the checker even though the checker's own
	// square is not `to`; allow it whenever the captured pawn is the
	// (sole) checker, on top of the usual target-mask rule.
	legalTarget := targetMask.IsSet(to) || (numCheckers == 1 && targetMask == SquareBB(capturedSq))

	epBB := SquareBB(to)
	var attackers Bitboard
	if us == White {
		attackers = (epBB.SouthWest() | epBB.SouthEast()) & pawns
	} else {
		attackers = (epBB.NorthWest() | epBB.NorthEast()) & pawns
	}

	for attackers != 0 {
		from := attackers.PopLSB()
		if pins.pinned.IsSet(from) && !pins.rays[from].IsSet(to) {
			continue
		}
		if !legalTarget {
			continue
		}
		if p.enPassantExposesKing(from, to, capturedSq, us, them) {
			continue
		}
		ml.Add(NewEnPassant(from, to))
	}
}

// enPassantExposesKing checks the one discovered-check pattern pin
// detection cannot see: removing both the capturing and captured pawns
// from the same rank can expose the king to a rook or queen along that
// rank, even though neither pawn was individually pinned.
func (p *Position) enPassantExposesKing(from, to, capturedSq Square, us, them Color) bool {
	ksq := p.KingSquare[us]
	if ksq.Rank() != from.Rank() {
		return false
	}
	occ := p.AllOccupied
	occ &^= SquareBB(from)
	occ &^= SquareBB(capturedSq)
	occ |= SquareBB(to)
	attackers := RookAttacks(ksq, occ) & (p.Pieces[them][Rook] | p.Pieces[them][Queen])
	return attackers != 0
}

func (p *Position) generateCastlingMovesLegal(ml *MoveList, us, them Color) {
	if us == White {
		if p.CastlingRights&WhiteKingSideCastle != 0 &&
			p.AllOccupied&((SquareBB(F1))|(SquareBB(G1))) == 0 &&
			!p.IsSquareAttacked(E1, them) && !p.IsSquareAttacked(F1, them) && !p.IsSquareAttacked(G1, them) {
			ml.Add(NewCastling(E1, G1))
		}
		if p.CastlingRights&WhiteQueenSideCastle != 0 &&
			p.AllOccupied&((SquareBB(B1))|(SquareBB(C1))|(SquareBB(D1))) == 0 &&
			!p.IsSquareAttacked(E1, them) && !p.IsSquareAttacked(D1, them) && !p.IsSquareAttacked(C1, them) {
			ml.Add(NewCastling(E1, C1))
		}
		return
	}
	if p.CastlingRights&BlackKingSideCastle != 0 &&
		p.AllOccupied&((SquareBB(F8))|(SquareBB(G8))) == 0 &&
		!p.IsSquareAttacked(E8, them) && !p.IsSquareAttacked(F8, them) && !p.IsSquareAttacked(G8, them) {
		ml.Add(NewCastling(E8, G8))
	}
	if p.CastlingRights&BlackQueenSideCastle != 0 &&
		p.AllOccupied&((SquareBB(B8))|(SquareBB(C8))|(SquareBB(D8))) == 0 &&
		!p.IsSquareAttacked(E8, them) && !p.IsSquareAttacked(D8, them) && !p.IsSquareAttacked(C8, them) {
		ml.Add(NewCastling(E8, C8))
	}
}

// addPromotions adds all four promotion moves.
func addPromotions(ml *MoveList, from, to Square) {
	ml.Add(NewPromotion(from, to, Queen))
	ml.Add(NewPromotion(from, to, Rook))
	ml.Add(NewPromotion(from, to, Bishop))
	ml.Add(NewPromotion(from, to, Knight))
}

// generateAllPseudo reproduces the naive (pin/check-unaware) movelist,
// kept only so tests can assert the legal generator is a strict subset
// of it (spec testable property: every pseudo-move the legal generator
// rejects leaves the moving side's king attacked).
func (p *Position) generateAllPseudo(ml *MoveList, capturesOnly bool) {
	us := p.SideToMove
	them := us.Other()
	occupied := p.AllOccupied
	enemies := p.Occupied[them]

	pawns := p.Pieces[us][Pawn]
	empty := ^occupied
	var push1, push2, attackL, attackR, promotionRank Bitboard
	var pushDir int
	if us == White {
		push1, push2 = pawns.North()&empty, Empty
		push2 = (push1 & Rank3).North() & empty
		attackL, attackR = pawns.NorthWest()&enemies, pawns.NorthEast()&enemies
		promotionRank, pushDir = Rank8, 8
	} else {
		push1 = pawns.South() & empty
		push2 = (push1 & Rank6).South() & empty
		attackL, attackR = pawns.SouthWest()&enemies, pawns.SouthEast()&enemies
		promotionRank, pushDir = Rank1, -8
	}
	if !capturesOnly {
		for bb := push1 &^ promotionRank; bb != 0; {
			to := bb.PopLSB()
			ml.Add(NewMove(Square(int(to)-pushDir), to))
		}
		for bb := push2; bb != 0; {
			to := bb.PopLSB()
			ml.Add(NewMove(Square(int(to)-2*pushDir), to))
		}
	}
	for bb := attackL &^ promotionRank; bb != 0; {
		to := bb.PopLSB()
		ml.Add(NewMove(Square(int(to)-pushDir+1), to))
	}
	for bb := attackR &^ promotionRank; bb != 0; {
		to := bb.PopLSB()
		ml.Add(NewMove(Square(int(to)-pushDir-1), to))
	}
	for bb := push1 & promotionRank; bb != 0; {
		to := bb.PopLSB()
		addPromotions(ml, Square(int(to)-pushDir), to)
	}
	for bb := attackL & promotionRank; bb != 0; {
		to := bb.PopLSB()
		addPromotions(ml, Square(int(to)-pushDir+1), to)
	}
	for bb := attackR & promotionRank; bb != 0; {
		to := bb.PopLSB()
		addPromotions(ml, Square(int(to)-pushDir-1), to)
	}
	if p.EnPassant != NoSquare {
		epBB := SquareBB(p.EnPassant)
		var epAttackers Bitboard
		if us == White {
			epAttackers = (epBB.SouthWest() | epBB.SouthEast()) & pawns
		} else {
			epAttackers = (epBB.NorthWest() | epBB.NorthEast()) & pawns
		}
		for epAttackers != 0 {
			from := epAttackers.PopLSB()
			ml.Add(NewEnPassant(from, p.EnPassant))
		}
	}

	for _, pt := range [...]PieceType{Knight, Bishop, Rook, Queen} {
		bb := p.Pieces[us][pt]
		for bb != 0 {
			from := bb.PopLSB()
			var attacks Bitboard
			switch pt {
			case Knight:
				attacks = KnightAttacks(from)
			case Bishop:
				attacks = BishopAttacks(from, occupied)
			case Rook:
				attacks = RookAttacks(from, occupied)
			case Queen:
				attacks = QueenAttacks(from, occupied)
			}
			attacks &^= p.Occupied[us]
			if capturesOnly {
				attacks &= enemies
			}
			for attacks != 0 {
				to := attacks.PopLSB()
				ml.Add(NewMove(from, to))
			}
		}
	}

	from := p.KingSquare[us]
	attacks := KingAttacks(from) &^ p.Occupied[us]
	if capturesOnly {
		attacks &= enemies
	}
	for attacks != 0 {
		to := attacks.PopLSB()
		ml.Add(NewMove(from, to))
	}
}

// IsLegal reports whether a pseudo-legal move m (as produced by
// generateAllPseudo) is legal. Used only by perft cross-validation; the
// real move generator never needs it because it generates legal moves
// directly.
func (p *Position) IsLegal(m Move) bool {
	legal := p.GenerateLegalMoves()
	for i := 0; i < legal.Len(); i++ {
		if legal.Get(i) == m {
			return true
		}
	}
	return false
}

// MakeMove applies a move to the position and returns undo information.
func (p *Position) MakeMove(m Move) UndoInfo {
	undo := UndoInfo{
		CapturedPiece:  NoPiece,
		CastlingRights: p.CastlingRights,
		EnPassant:      p.EnPassant,
		HalfMoveClock:  p.HalfMoveClock,
		Hash:           p.Hash,
		PawnKey:        p.PawnKey,
		Checkers:       p.Checkers,
		Valid:          false,
	}

	us := p.SideToMove
	them := us.Other()
	from := m.From()
	to := m.To()
	piece := p.PieceAt(from)
	if piece == NoPiece {
		return undo
	}
	undo.Valid = true
	pt := piece.Type()

	p.Hash ^= zobristSideToMove
	p.Hash ^= zobristCastling[p.CastlingRights]
	if p.EnPassant != NoSquare {
		p.Hash ^= zobristEnPassant[p.EnPassant.File()]
	}
	p.EnPassant = NoSquare

	if m.IsEnPassant() {
		var capturedSq Square
		if us == White {
			capturedSq = to - 8
		} else {
			capturedSq = to + 8
		}
		undo.CapturedPiece = p.removePiece(capturedSq)
		p.Hash ^= zobristPiece[them][Pawn][capturedSq]
		p.PawnKey ^= zobristPiece[them][Pawn][capturedSq]
	} else if captured := p.PieceAt(to); captured != NoPiece {
		undo.CapturedPiece = captured
		p.removePiece(to)
		p.Hash ^= zobristPiece[them][captured.Type()][to]
		if captured.Type() == Pawn {
			p.PawnKey ^= zobristPiece[them][Pawn][to]
		}
	}

	p.movePiece(from, to)
	p.Hash ^= zobristPiece[us][pt][from]
	p.Hash ^= zobristPiece[us][pt][to]
	if pt == Pawn {
		p.PawnKey ^= zobristPiece[us][Pawn][from]
		p.PawnKey ^= zobristPiece[us][Pawn][to]
	}

	if m.IsPromotion() {
		promoPt := m.Promotion()
		p.Pieces[us][Pawn] &^= SquareBB(to)
		p.Pieces[us][promoPt] |= SquareBB(to)
		p.Hash ^= zobristPiece[us][Pawn][to]
		p.Hash ^= zobristPiece[us][promoPt][to]
		p.PawnKey ^= zobristPiece[us][Pawn][to]
	}

	if m.IsCastling() {
		var rookFrom, rookTo Square
		if to > from {
			rookFrom, rookTo = NewSquare(7, from.Rank()), NewSquare(5, from.Rank())
		} else {
			rookFrom, rookTo = NewSquare(0, from.Rank()), NewSquare(3, from.Rank())
		}
		p.movePiece(rookFrom, rookTo)
		p.Hash ^= zobristPiece[us][Rook][rookFrom]
		p.Hash ^= zobristPiece[us][Rook][rookTo]
	}

	if pt == King {
		if us == White {
			p.CastlingRights &^= WhiteKingSideCastle | WhiteQueenSideCastle
		} else {
			p.CastlingRights &^= BlackKingSideCastle | BlackQueenSideCastle
		}
	}
	if from == A1 || to == A1 {
		p.CastlingRights &^= WhiteQueenSideCastle
	}
	if from == H1 || to == H1 {
		p.CastlingRights &^= WhiteKingSideCastle
	}
	if from == A8 || to == A8 {
		p.CastlingRights &^= BlackQueenSideCastle
	}
	if from == H8 || to == H8 {
		p.CastlingRights &^= BlackKingSideCastle
	}
	p.Hash ^= zobristCastling[p.CastlingRights]

	if pt == Pawn && abs(int(to)-int(from)) == 16 {
		epSquare := Square((int(from) + int(to)) / 2)
		p.EnPassant = epSquare
		p.Hash ^= zobristEnPassant[epSquare.File()]
	}

	if pt == Pawn || undo.CapturedPiece != NoPiece {
		p.HalfMoveClock = 0
	} else {
		p.HalfMoveClock++
	}
	if us == Black {
		p.FullMoveNumber++
	}

	p.SideToMove = them
	p.UpdateCheckers()
	p.HashHistory = append(p.HashHistory, p.Hash)

	return undo
}

// UnmakeMove undoes a move using the stored undo information.
func (p *Position) UnmakeMove(m Move, undo UndoInfo) {
	them := p.SideToMove
	us := them.Other()
	from := m.From()
	to := m.To()

	p.CastlingRights = undo.CastlingRights
	p.EnPassant = undo.EnPassant
	p.HalfMoveClock = undo.HalfMoveClock
	p.Hash = undo.Hash
	p.PawnKey = undo.PawnKey
	p.Checkers = undo.Checkers
	p.SideToMove = us

	if len(p.HashHistory) > 0 {
		p.HashHistory = p.HashHistory[:len(p.HashHistory)-1]
	}

	if us == Black {
		p.FullMoveNumber--
	}

	if m.IsPromotion() {
		promoPt := m.Promotion()
		p.Pieces[us][promoPt] &^= SquareBB(to)
		p.Pieces[us][Pawn] |= SquareBB(to)
	}

	p.movePiece(to, from)

	if m.IsCastling() {
		var rookFrom, rookTo Square
		if to > from {
			rookFrom, rookTo = NewSquare(7, from.Rank()), NewSquare(5, from.Rank())
		} else {
			rookFrom, rookTo = NewSquare(0, from.Rank()), NewSquare(3, from.Rank())
		}
		p.movePiece(rookTo, rookFrom)
	}

	if undo.CapturedPiece != NoPiece {
		if m.IsEnPassant() {
			var capturedSq Square
			if us == White {
				capturedSq = to - 8
			} else {
				capturedSq = to + 8
			}
			p.setPiece(undo.CapturedPiece, capturedSq)
		} else {
			p.setPiece(undo.CapturedPiece, to)
		}
	}
}

// HasLegalMoves returns true if the side to move has any legal moves.
func (p *Position) HasLegalMoves() bool {
	return p.GenerateLegalMoves().Len() > 0
}

// IsCheckmate returns true if the position is checkmate.
func (p *Position) IsCheckmate() bool {
	return p.InCheck() && !p.HasLegalMoves()
}

// IsStalemate returns true if the position is stalemate.
func (p *Position) IsStalemate() bool {
	return !p.InCheck() && !p.HasLegalMoves()
}

// IsRuleDraw reports the draw conditions that do not require movelist
// generation: the 50-move clock, and repetition of the current hash four
// half-moves (or more, same side to move) before within the clock window.
func (p *Position) IsRuleDraw() bool {
	if p.HalfMoveClock >= 100 {
		return true
	}
	n := len(p.HashHistory)
	limit := p.HalfMoveClock
	if limit > n-1 {
		limit = n - 1
	}
	for i := 4; i <= limit; i += 2 {
		if p.HashHistory[n-1-i] == p.Hash {
			return true
		}
	}
	return false
}

// IsDraw returns true if the position is a draw (stalemate, 50-move,
// repetition, or insufficient material).
func (p *Position) IsDraw() bool {
	if p.IsStalemate() {
		return true
	}
	if p.IsRuleDraw() {
		return true
	}
	return p.IsInsufficientMaterial()
}

// IsInsufficientMaterial returns true if neither side can checkmate.
func (p *Position) IsInsufficientMaterial() bool {
	if p.Pieces[White][Pawn]|p.Pieces[Black][Pawn] != 0 ||
		p.Pieces[White][Rook]|p.Pieces[Black][Rook] != 0 ||
		p.Pieces[White][Queen]|p.Pieces[Black][Queen] != 0 {
		return false
	}

	wKnights := p.Pieces[White][Knight].PopCount()
	wBishops := p.Pieces[White][Bishop].PopCount()
	bKnights := p.Pieces[Black][Knight].PopCount()
	bBishops := p.Pieces[Black][Bishop].PopCount()

	if wKnights+wBishops+bKnights+bBishops == 0 {
		return true
	}
	if wKnights+wBishops <= 1 && bKnights+bBishops == 0 {
		return true
	}
	if bKnights+bBishops <= 1 && wKnights+wBishops == 0 {
		return true
	}
	return false
}
