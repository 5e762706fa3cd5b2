package board

import "testing"

// perftIsLegal reports whether m leaves the mover's own king safe. It
// exists only to give perft a ground-truth move count to check
// generateAllMoves against; production callers never need full
// legality since AppendQuietMoves/AppendNoisyMoves only have to be
// pseudo-legal — the picker discovers check via See/Threats at search
// time instead of filtering the list up front.
func perftIsLegal(p *Position, m Move) bool {
	us := p.SideToMove
	them := us.Other()
	from := m.From()

	if from == p.KingSquare[us] {
		if m.IsCastling() {
			return true // squares-attacked already checked during generation
		}
		occ := p.AllOccupied &^ SquareBB(from)
		return p.AttackersByColor(m.To(), them, occ) == 0
	}

	ksq := p.KingSquare[us]
	undo := p.MakeMove(m)
	safe := undo.Valid && !p.IsSquareAttacked(ksq, them)
	if undo.Valid {
		p.UnmakeMove(m, undo)
	}
	return safe
}

// perftLegalMoves narrows generateAllMoves' pseudo-legal output down
// to moves that don't leave the mover's king in check.
func perftLegalMoves(p *Position) *MoveList {
	var all MoveList
	p.generateAllMoves(&all)

	legal := NewMoveList()
	for i := 0; i < all.Len(); i++ {
		m := all.Get(i)
		if perftIsLegal(p, m) {
			legal.Add(m)
		}
	}
	return legal
}

// perft counts leaf nodes at depth, the standard cross-check for move
// generator correctness against known node counts.
func perft(p *Position, depth int) int64 {
	if depth == 0 {
		return 1
	}

	moves := perftLegalMoves(p)
	if depth == 1 {
		return int64(moves.Len())
	}

	var nodes int64
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		undo := p.MakeMove(m)
		nodes += perft(p, depth-1)
		p.UnmakeMove(m, undo)
	}
	return nodes
}

func TestPerftStartingPosition(t *testing.T) {
	pos := NewPosition()

	tests := []struct {
		depth    int
		expected int64
	}{
		{1, 20},
		{2, 400},
		{3, 8902},
		{4, 197281},
	}

	for _, tc := range tests {
		t.Run("", func(t *testing.T) {
			got := perft(pos, tc.depth)
			if got != tc.expected {
				t.Errorf("perft(%d) = %d, want %d", tc.depth, got, tc.expected)
			}
		})
	}
}

// TestPerftKiwipete exercises the Kiwipete position, dense with
// castling, promotion and pinned-piece edge cases.
func TestPerftKiwipete(t *testing.T) {
	pos, err := ParseFEN("r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -")
	if err != nil {
		t.Fatalf("failed to parse FEN: %v", err)
	}

	tests := []struct {
		depth    int
		expected int64
	}{
		{1, 48},
		{2, 2039},
		{3, 97862},
	}

	for _, tc := range tests {
		t.Run("", func(t *testing.T) {
			got := perft(pos, tc.depth)
			if got != tc.expected {
				t.Errorf("perft(%d) = %d, want %d", tc.depth, got, tc.expected)
			}
		})
	}
}

// TestPerftEnPassantEdges exercises en passant capture/discovery edge
// cases, including the rook-behind-the-pawn en passant pin below.
func TestPerftEnPassantEdges(t *testing.T) {
	pos, err := ParseFEN("8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - -")
	if err != nil {
		t.Fatalf("failed to parse FEN: %v", err)
	}

	tests := []struct {
		depth    int
		expected int64
	}{
		{1, 14},
		{2, 191},
		{3, 2812},
		{4, 43238},
	}

	for _, tc := range tests {
		t.Run("", func(t *testing.T) {
			got := perft(pos, tc.depth)
			if got != tc.expected {
				t.Errorf("perft(%d) = %d, want %d", tc.depth, got, tc.expected)
			}
		})
	}
}

// TestPerftEnPassantPin checks a black pawn on e4 cannot capture en
// passant on d3: doing so would uncover the black king on a4 to the
// white rook on h4.
func TestPerftEnPassantPin(t *testing.T) {
	pos, err := ParseFEN("8/8/8/8/k2Pp2R/8/8/4K3 b - d3 0 1")
	if err != nil {
		t.Fatalf("failed to parse FEN: %v", err)
	}

	moves := perftLegalMoves(pos)
	for i := 0; i < moves.Len(); i++ {
		if m := moves.Get(i); m.IsEnPassant() {
			t.Errorf("en passant move %v should be illegal (horizontal pin)", m)
		}
	}

	tests := []struct {
		depth    int
		expected int64
	}{
		{1, 6},
		{2, 94},
	}

	for _, tc := range tests {
		t.Run("", func(t *testing.T) {
			got := perft(pos, tc.depth)
			if got != tc.expected {
				t.Errorf("perft(%d) = %d, want %d", tc.depth, got, tc.expected)
			}
		})
	}
}
