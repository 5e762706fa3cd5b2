package movepick

import (
	"testing"

	"github.com/nwelch/rookcore/internal/board"
	"github.com/nwelch/rookcore/internal/history"
	"github.com/stretchr/testify/require"
)

func drain(p *Picker, skipQuiets bool) []board.Move {
	var out []board.Move
	for {
		m := p.Next(skipQuiets, 0)
		if m == board.NoMove {
			return out
		}
		out = append(out, m)
	}
}

func TestPickerYieldsTTMoveAtMostOnce(t *testing.T) {
	pos, err := ParseFENHelper("r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -")
	require.NoError(t, err)
	tabs := history.NewTables()

	ttMove := board.NewMove(board.E5, board.D7) // Ne5xd7, a legal capture
	require.True(t, pos.IsPseudoLegal(ttMove))

	p := NewMain(pos, tabs, ttMove, false)
	seen := 0
	for _, m := range drain(p, false) {
		if m == ttMove {
			seen++
		}
	}
	require.Equal(t, 1, seen)
}

func TestPickerTTMoveFastPath(t *testing.T) {
	pos, err := ParseFENHelper("r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -")
	require.NoError(t, err)
	tabs := history.NewTables()

	ttMove := board.NewMove(board.E5, board.D7)
	p := NewMain(pos, tabs, ttMove, false)

	first := p.Next(false, 0)
	require.Equal(t, ttMove, first)

	second := p.Next(false, 0)
	require.NotEqual(t, board.NoMove, second)
	require.NotEqual(t, ttMove, second)
}

func TestPickerSkipQuietsYieldsNoQuiets(t *testing.T) {
	pos, err := ParseFENHelper("r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -")
	require.NoError(t, err)
	tabs := history.NewTables()

	p := NewQuiescence(pos, tabs)
	for _, m := range drain(p, true) {
		require.True(t, m.IsCapture(pos) || m.IsPromotion() || m.IsEnPassant())
	}
}

func TestPickerDeterministic(t *testing.T) {
	fen := "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -"

	pos1, err := ParseFENHelper(fen)
	require.NoError(t, err)
	pos2, err := ParseFENHelper(fen)
	require.NoError(t, err)

	tabs1 := history.NewTables()
	tabs2 := history.NewTables()

	p1 := NewMain(pos1, tabs1, board.NoMove, false)
	p2 := NewMain(pos2, tabs2, board.NoMove, false)

	require.Equal(t, drain(p1, false), drain(p2, false))
}

func TestPickerUnionIsAllPseudoLegalMoves(t *testing.T) {
	pos, err := ParseFENHelper("r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -")
	require.NoError(t, err)
	tabs := history.NewTables()

	var all board.MoveList
	pos.AppendNoisyMoves(&all)
	var quiets board.MoveList
	pos.AppendQuietMoves(&quiets)
	for i := 0; i < quiets.Len(); i++ {
		all.Add(quiets.Get(i))
	}

	p := NewMain(pos, tabs, board.NoMove, false)
	yielded := drain(p, false)
	require.Len(t, yielded, all.Len())

	seen := make(map[board.Move]bool)
	for _, m := range yielded {
		require.False(t, seen[m], "move yielded twice: %v", m)
		seen[m] = true
	}
	for i := 0; i < all.Len(); i++ {
		require.True(t, seen[all.Get(i)], "move never yielded: %v", all.Get(i))
	}
}

func TestPickerProbCutThreshold(t *testing.T) {
	// A position with one clearly winning and one clearly losing capture
	// available to white.
	pos, err := ParseFENHelper("4k3/8/2p5/3n4/4P3/8/3R4/4K3 w - -")
	require.NoError(t, err)
	tabs := history.NewTables()

	const threshold = 200
	p := NewProbCut(pos, tabs, threshold)
	for _, m := range drain(p, true) {
		require.True(t, pos.See(m, threshold))
	}
}

func TestPickerBadNoisyFallsThroughAfterQuiets(t *testing.T) {
	// No TT move; the only capture available to white (Rxd5) is
	// recaptured by the defending king and loses material, so
	// bad_noisy should end up populated and drained last.
	pos, err := ParseFENHelper("8/8/2k5/3p4/8/8/3R4/4K3 w - -")
	require.NoError(t, err)
	tabs := history.NewTables()

	p := NewMain(pos, tabs, board.NoMove, false)
	yielded := drain(p, false)
	require.NotEmpty(t, yielded)

	lastQuietIdx := -1
	firstNoisyIdx := -1
	for i, m := range yielded {
		if m.IsCapture(pos) {
			if firstNoisyIdx == -1 {
				firstNoisyIdx = i
			}
		} else if lastQuietIdx < i {
			lastQuietIdx = i
		}
	}
	if firstNoisyIdx != -1 && lastQuietIdx != -1 {
		require.Less(t, lastQuietIdx, firstNoisyIdx, "bad noisy moves must come after all quiets")
	}
}

// ParseFENHelper adapts board.ParseFEN's (*Position, error) return to a
// local name so these tests read a little closer to the scenarios they
// exercise; it does no actual work beyond the call itself.
func ParseFENHelper(fen string) (*board.Position, error) {
	return board.ParseFEN(fen)
}
