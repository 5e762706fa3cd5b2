package board

// This file adapts Position to the narrow contract the search hot path
// (move picker, NNUE bridge, ray-scan utilities) expects from a board:
// pseudo-legality checks, staged move generation, static exchange
// evaluation, and an opaque threat key used to index history tables.
// Everything else about board representation — full legality, SAN,
// repetition bookkeeping, opening-book probing — lives outside this
// hot path and is not exercised here.

// ToMove returns the color to move. Named to avoid colliding with the
// SideToMove field used throughout move generation.
func (p *Position) ToMove() Color {
	return p.SideToMove
}

// MovedPiece returns the piece that would move if m were played.
func (p *Position) MovedPiece(m Move) Piece {
	return p.PieceAt(m.From())
}

// IsPseudoLegal reports whether m is a pseudo-legal move in the current
// position: generated by the move generator, regardless of whether it
// leaves the mover's own king in check. The transposition table stores
// moves from prior searches of transposed positions, so a remembered
// move must be re-validated before the picker trusts it.
func (p *Position) IsPseudoLegal(m Move) bool {
	if m == NoMove {
		return false
	}
	ml := NewMoveList()
	p.generateAllMoves(ml)
	if ml.Contains(m) {
		return true
	}
	p.generateCaptures(ml)
	return ml.Contains(m)
}

// AppendNoisyMoves appends every pseudo-legal capture, promotion, and
// en-passant move to ml.
func (p *Position) AppendNoisyMoves(ml *MoveList) {
	p.generateCaptures(ml)
}

// AppendQuietMoves appends every pseudo-legal move that is neither a
// capture nor a promotion to ml.
func (p *Position) AppendQuietMoves(ml *MoveList) {
	all := NewMoveList()
	p.generateAllMoves(all)
	for i := 0; i < all.Len(); i++ {
		m := all.Get(i)
		if !m.IsCapture(p) && !m.IsPromotion() {
			ml.Add(m)
		}
	}
}

// ThreatKey is an opaque feature vector summarizing attacked squares,
// used to index noisy/quiet history tables. Two positions with the
// same threat relationships between pieces hash to the same key.
type ThreatKey uint64

// Threats computes the position's opaque threat key from the attack
// bitboards of every piece for both sides, folded with the same
// Zobrist-style mixing used for the position hash. This gives history
// tables a cheap proxy for "which pieces threaten which" without
// requiring the full feature list the NNUE threat accumulator builds
// incrementally.
func (p *Position) Threats() ThreatKey {
	var key uint64
	occ := p.AllOccupied
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			bb := p.Pieces[c][pt]
			for bb != 0 {
				sq := bb.PopLSB()
				var attacks Bitboard
				switch pt {
				case Pawn:
					attacks = PawnAttacks(sq, c)
				case Knight:
					attacks = KnightAttacks(sq)
				case Bishop:
					attacks = BishopAttacks(sq, occ)
				case Rook:
					attacks = RookAttacks(sq, occ)
				case Queen:
					attacks = QueenAttacks(sq, occ)
				case King:
					attacks = KingAttacks(sq)
				}
				key ^= ZobristPiece(c, pt, sq) ^ uint64(attacks)*0x9E3779B97F4A7C15
			}
		}
	}
	return ThreatKey(key)
}

// pieceSEEValue mirrors the value table used by the search's move
// orderer, with a zero-cost king so SEE never treats king capture as
// a normal exchange.
var pieceSEEValue = [7]int{100, 320, 330, 500, 900, 0, 0}

// See performs a static exchange evaluation of the capture sequence
// starting with m and reports whether the side to move's net material
// gain is at least threshold. It simulates the alternating-capture
// swap on the target square, always letting the side on move recapture
// with its least valuable remaining attacker.
func (p *Position) See(m Move, threshold int) bool {
	return p.seeValue(m) >= threshold
}

func (p *Position) seeValue(m Move) int {
	from, to := m.From(), m.To()
	attacker := p.PieceAt(from)
	if attacker == NoPiece {
		return 0
	}

	var gain int
	if m.IsEnPassant() {
		gain = pieceSEEValue[Pawn]
	} else {
		victim := p.PieceAt(to)
		if victim == NoPiece {
			return 0
		}
		gain = pieceSEEValue[victim.Type()]
	}
	if m.IsPromotion() {
		gain += pieceSEEValue[m.Promotion()] - pieceSEEValue[Pawn]
	}

	return p.seeSwap(to, from, attacker, gain)
}

// seeSwap runs the classic SEE swap-list algorithm: alternately find
// the least valuable attacker of the target square for the side on
// move, subtract the running gain, and negamax the resulting array.
func (p *Position) seeSwap(target, excludeFrom Square, firstAttacker Piece, initialGain int) int {
	var gainStack [32]int
	depth := 0
	gainStack[depth] = initialGain

	occupied := p.AllOccupied &^ SquareBB(excludeFrom)
	attackerValue := pieceSEEValue[firstAttacker.Type()]
	side := firstAttacker.Color().Other()

	for {
		depth++
		gainStack[depth] = attackerValue - gainStack[depth-1]

		if max(-gainStack[depth-1], gainStack[depth]) < 0 || depth >= len(gainStack)-1 {
			break
		}

		sq, piece := p.leastValuableAttacker(target, side, occupied)
		if sq == NoSquare {
			break
		}

		occupied &^= SquareBB(sq)
		attackerValue = pieceSEEValue[piece.Type()]
		side = side.Other()
	}

	for depth--; depth > 0; depth-- {
		gainStack[depth-1] = -max(-gainStack[depth-1], gainStack[depth])
	}
	return gainStack[0]
}

// leastValuableAttacker scans attackers of target belonging to side
// over the given occupancy, returning the cheapest one. Sliding
// attackers are recomputed against occupied so that captures which
// remove a blocker reveal the x-ray attacker behind it.
func (p *Position) leastValuableAttacker(target Square, side Color, occupied Bitboard) (Square, Piece) {
	for pt := Pawn; pt <= King; pt++ {
		var attackers Bitboard
		switch pt {
		case Pawn:
			attackers = pawnAttackersTo(target, side) & p.Pieces[side][Pawn] & occupied
		case Knight:
			attackers = KnightAttacks(target) & p.Pieces[side][Knight] & occupied
		case Bishop:
			attackers = BishopAttacks(target, occupied) & p.Pieces[side][Bishop] & occupied
		case Rook:
			attackers = RookAttacks(target, occupied) & p.Pieces[side][Rook] & occupied
		case Queen:
			attackers = QueenAttacks(target, occupied) & p.Pieces[side][Queen] & occupied
		case King:
			attackers = KingAttacks(target) & p.Pieces[side][King] & occupied
		}
		if attackers != 0 {
			sq := attackers.LSB()
			return sq, NewPiece(pt, side)
		}
	}
	return NoSquare, NoPiece
}

// pawnAttackersTo returns the squares from which a pawn of the given
// color would attack target — i.e. target's pawn-attack set as seen
// from the opposite color.
func pawnAttackersTo(target Square, attackerColor Color) Bitboard {
	return PawnAttacks(target, attackerColor.Other())
}
