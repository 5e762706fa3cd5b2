//go:build !(goexperiment.simd && amd64)

// Package bbcounter implements §4.5's per-square saturating counter:
// a 4-bit count (0-15) for each of the 64 squares, maintained as four
// bit-planes (bb[0] the LSB plane, bb[3] the MSB plane) so an
// increment or decrement of a whole set of squares at once is a
// handful of bitwise operations rather than 64 scalar adds.
//
// Ported from the carry-save adder original_source/src/types's
// BitboardCounter's AVX-512 variant generalizes from: each bit-plane
// pair (current bit, carry bit) is exactly a one-bit full adder
// applied in parallel across 64 lanes, the same trick
// hailam-chessplay/internal/board/bitboard.go uses for file/rank fill
// tricks (propagate-then-mask instead of a per-square loop).
package bbcounter

import "github.com/nwelch/rookcore/internal/board"

// Counter holds 64 independent 4-bit saturating counters, one per
// square, as four 64-bit bit-planes.
type Counter struct {
	bb [4]board.Bitboard
}

// Add increments the counter at every square set in delta by one,
// saturating at 15.
func (c *Counter) Add(delta board.Bitboard) {
	c.addPlane(delta)
}

// Sub decrements the counter at every square set in delta by one,
// floored at 0.
func (c *Counter) Sub(delta board.Bitboard) {
	c.subPlane(delta)
}

// Update applies sub then add in one step, for callers that track a
// move as two masks (squares vacated, squares occupied) rather than
// two separate calls.
func (c *Counter) Update(sub, add board.Bitboard) {
	c.subPlane(sub)
	c.addPlane(add)
}

// Reduce returns the bitmask of squares whose count is non-zero — the
// OR of all four bit-planes, since a square reads zero only when every
// plane bit at that square is zero.
func (c *Counter) Reduce() board.Bitboard {
	return c.bb[0] | c.bb[1] | c.bb[2] | c.bb[3]
}

// addPlane carry-ripples a 1-bit increment through the four planes at
// every square set in mask. Squares already at the 15 ceiling are
// excluded from the mask up front so the ripple never overflows back
// to 0 — that exclusion is the saturating part; the ripple itself is
// an ordinary binary increment.
func (c *Counter) addPlane(mask board.Bitboard) {
	full := c.bb[0] & c.bb[1] & c.bb[2] & c.bb[3]
	carry := mask &^ full
	for i := 0; i < 4 && carry != 0; i++ {
		next := c.bb[i] & carry
		c.bb[i] ^= carry
		carry = next
	}
}

// subPlane mirrors addPlane for decrement: squares already at the 0
// floor are excluded from the mask up front, then an ordinary binary
// decrement ripples the borrow through the remaining planes.
func (c *Counter) subPlane(mask board.Bitboard) {
	empty := ^c.bb[0] & ^c.bb[1] & ^c.bb[2] & ^c.bb[3]
	borrow := mask &^ empty
	for i := 0; i < 4 && borrow != 0; i++ {
		next := ^c.bb[i] & borrow
		c.bb[i] ^= borrow
		borrow = next
	}
}
