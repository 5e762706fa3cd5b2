// Package movepick implements the staged move picker that orders
// candidate moves during alpha-beta search: hash move, good-SEE
// captures, quiet moves scored by history, then losing captures.
package movepick

import "github.com/nwelch/rookcore/internal/board"

// MaxMoves bounds a scored move list. It must be a multiple of 8 so
// the AVX2 argmax variant can walk it in whole 8-byte-lane groups of
// four without a scalar remainder loop; 248 comfortably exceeds the
// largest number of pseudo-legal moves any chess position can produce.
const MaxMoves = 248

func init() {
	if MaxMoves%8 != 0 {
		panic("movepick: MaxMoves must be a multiple of 8")
	}
}

// ScoredMove packs a move and its signed 32-bit ordering score into a
// single 64-bit record: score in the high 32 bits, move in the low 32.
// Both argmax variants read the score back through Score(); the AVX2
// one in argmax_simd.go then builds its own (score, index) key per
// entry rather than comparing the records themselves.
type ScoredMove uint64

// NewScoredMove packs m and score into a ScoredMove record.
func NewScoredMove(m board.Move, score int32) ScoredMove {
	return ScoredMove(uint32(score))<<32 | ScoredMove(uint32(m))
}

// Move unpacks the move from the low 32 bits.
func (s ScoredMove) Move() board.Move {
	return board.Move(uint32(s))
}

// Score unpacks the signed score from the high 32 bits.
func (s ScoredMove) Score() int32 {
	return int32(s >> 32)
}

// List is a bounded, append-only-until-removed sequence of scored
// moves. Removal swaps the last element into the removed slot, so
// scanning order is not preserved across removals — the picker only
// ever needs "some move", never "the moves in generation order",
// except in the BadNoisy stage, which keeps its own separate insertion
// order (see Picker.bad in picker.go).
type List struct {
	items [MaxMoves]ScoredMove
	len   int
}

// Len returns the number of entries currently in the list.
func (l *List) Len() int { return l.len }

// Get returns the entry at index i.
func (l *List) Get(i int) ScoredMove { return l.items[i] }

// Append adds a new scored move. Panics if the list is full — a
// move-list overflow is a programmer error per spec's error model,
// not a recoverable condition.
func (l *List) Append(sm ScoredMove) {
	if l.len >= MaxMoves {
		panic("movepick: move list overflow")
	}
	l.items[l.len] = sm
	l.len++
}

// RemoveAt removes the entry at index i by swapping in the last
// element, an O(1) removal that does not preserve order.
func (l *List) RemoveAt(i int) ScoredMove {
	sm := l.items[i]
	l.len--
	l.items[i] = l.items[l.len]
	return sm
}

// SetScore overwrites the score of the entry at index i, keeping its
// move. Used by the root-node picker's re-scoring after each pick.
func (l *List) SetScore(i int, score int32) {
	l.items[i] = NewScoredMove(l.items[i].Move(), score)
}

// Clear empties the list without reallocating its backing array.
func (l *List) Clear() { l.len = 0 }
