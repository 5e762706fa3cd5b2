package history

import (
	"testing"

	"github.com/nwelch/rookcore/internal/board"
	"github.com/stretchr/testify/require"
)

func TestNoisyGetStartsAtZero(t *testing.T) {
	n := NewNoisy()
	require.Zero(t, n.Get(0, board.WhiteKnight, board.E5, board.Pawn))
}

func TestNoisyUpdateRaisesThenGravityShrinksRepeatedBonuses(t *testing.T) {
	n := NewNoisy()
	n.Update(0, board.WhiteKnight, board.E5, board.Pawn, 10)
	first := n.Get(0, board.WhiteKnight, board.E5, board.Pawn)
	require.Positive(t, first)

	n.Update(0, board.WhiteKnight, board.E5, board.Pawn, 10)
	second := n.Get(0, board.WhiteKnight, board.E5, board.Pawn)
	require.Greater(t, second, first)
	// Gravity scales the bonus down as the entry approaches the cap, so
	// the second increment must be smaller than the first.
	require.Less(t, second-first, first)
}

func TestNoisyClampsAtSaturationBounds(t *testing.T) {
	n := NewNoisy()
	for i := 0; i < 10000; i++ {
		n.Update(0, board.WhiteKnight, board.E5, board.Pawn, 32000)
	}
	require.LessOrEqual(t, n.Get(0, board.WhiteKnight, board.E5, board.Pawn), int32(16384))

	for i := 0; i < 10000; i++ {
		n.Update(0, board.WhiteKnight, board.E5, board.Pawn, -32000)
	}
	require.GreaterOrEqual(t, n.Get(0, board.WhiteKnight, board.E5, board.Pawn), int32(-16384))
}

func TestNoisyIgnoresNoPieceAndKingCapture(t *testing.T) {
	n := NewNoisy()
	n.Update(0, board.NoPiece, board.E5, board.Pawn, 100)
	require.Zero(t, n.Get(0, board.NoPiece, board.E5, board.Pawn))

	n.Update(0, board.WhiteKnight, board.E5, board.King, 100)
	require.Zero(t, n.Get(0, board.WhiteKnight, board.E5, board.King))
}

func TestNoisyBucketsAreIndependent(t *testing.T) {
	n := NewNoisy()
	n.Update(0, board.WhiteKnight, board.E5, board.Pawn, 100)
	require.Zero(t, n.Get(1, board.WhiteKnight, board.E5, board.Pawn))
}

func TestQuietGetAndUpdate(t *testing.T) {
	q := NewQuiet()
	m := board.NewMove(board.E2, board.E4)
	require.Zero(t, q.Get(0, board.White, m))

	q.Update(0, board.White, m, 50)
	require.Positive(t, q.Get(0, board.White, m))
	// A different side to move indexes a disjoint slot.
	require.Zero(t, q.Get(0, board.Black, m))
}

func TestContinuationGetWithoutRecordedMoveIsZero(t *testing.T) {
	pos, err := board.ParseFEN("8/8/8/8/8/8/8/4K3 w - -")
	require.NoError(t, err)
	c := NewContinuation()
	c.SetPosition(pos)

	m := board.NewMove(board.E1, board.E2)
	require.Zero(t, c.Get(5, 1, m))
}

func TestContinuationRecordThenGetAndUpdate(t *testing.T) {
	pos, err := board.ParseFEN("8/8/8/8/8/8/4K3/8 w - -")
	require.NoError(t, err)
	c := NewContinuation()
	c.SetPosition(pos)

	// A move played at ply 3 seeds the table consulted by a candidate
	// scored at ply 4 with offset 1.
	c.RecordMove(3, board.WhiteKing, board.E2)
	m := board.NewMove(board.E2, board.E3)
	require.Zero(t, c.Get(4, 1, m))

	c.Update(4, 1, board.WhiteKing, board.E3, 40)
	require.Positive(t, c.Get(4, 1, m))
}

func TestContinuationClearPlyForgetsRecordedMove(t *testing.T) {
	pos, err := board.ParseFEN("8/8/8/8/8/8/4K3/8 w - -")
	require.NoError(t, err)
	c := NewContinuation()
	c.SetPosition(pos)

	c.RecordMove(2, board.WhiteKing, board.E2)
	c.Update(3, 1, board.WhiteKing, board.E3, 40)
	m := board.NewMove(board.E2, board.E3)
	require.Positive(t, c.Get(3, 1, m))

	c.ClearPly(2)
	require.Zero(t, c.Get(3, 1, m))
}

func TestContinuationOutOfRangeIndicesAreZero(t *testing.T) {
	pos, err := board.ParseFEN("8/8/8/8/8/8/4K3/8 w - -")
	require.NoError(t, err)
	c := NewContinuation()
	c.SetPosition(pos)

	m := board.NewMove(board.E2, board.E3)
	require.Zero(t, c.Get(-1, 1, m))
	require.Zero(t, c.Get(0, 1, m))
	require.Zero(t, c.Get(MaxPly+5, 1, m))
}

func TestTablesAgeHalvesAllEntries(t *testing.T) {
	pos, err := board.ParseFEN("8/8/8/8/8/8/4K3/8 w - -")
	require.NoError(t, err)

	tabs := NewTables()
	tabs.Noisy.Update(0, board.WhiteKnight, board.E5, board.Pawn, 100)
	tabs.Quiet.Update(0, board.White, board.NewMove(board.E2, board.E4), 100)
	tabs.Cont.SetPosition(pos)
	tabs.Cont.RecordMove(0, board.WhiteKing, board.E2)
	tabs.Cont.Update(1, 1, board.WhiteKing, board.E3, 100)

	noisyBefore := tabs.Noisy.Get(0, board.WhiteKnight, board.E5, board.Pawn)
	quietBefore := tabs.Quiet.Get(0, board.White, board.NewMove(board.E2, board.E4))
	contBefore := tabs.Cont.Get(1, 1, board.NewMove(board.E2, board.E3))

	tabs.Age()

	require.Equal(t, noisyBefore/2, tabs.Noisy.Get(0, board.WhiteKnight, board.E5, board.Pawn))
	require.Equal(t, quietBefore/2, tabs.Quiet.Get(0, board.White, board.NewMove(board.E2, board.E4)))
	require.Equal(t, contBefore/2, tabs.Cont.Get(1, 1, board.NewMove(board.E2, board.E3)))
}
