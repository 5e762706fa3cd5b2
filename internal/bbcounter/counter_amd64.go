//go:build goexperiment.simd && amd64

// AVX-512-style per-square counter (§4.5), one int8 lane per square
// instead of four bit-planes. Ported from
// original_source/src/types/bitboard_counter.rs's BitboardCounter,
// which keeps a single __m512i of 64 signed bytes and does masked
// add/sub of 1 per active square bit
// (_mm512_maskz_set1_epi8/_mm512_add_epi8/_mm512_sub_epi8), reducing
// with _mm512_cmpneq_epi8_mask against zero. Go's experimental
// simd/archsimd package has no masked-set-from-bitmask intrinsic, so
// the per-lane conditional add/sub is expressed as a scalar loop over
// Get/Set on the loaded vector — the same "drive the load through
// SIMD, finish the per-lane work scalar" shape as
// sfnnue/simd.go's SIMDClippedReLU.
package bbcounter

import (
	"simd/archsimd"

	"github.com/nwelch/rookcore/internal/board"
)

// Counter holds one signed byte per square in a single 512-bit-sized
// lane array, matching the original's one-__m512i representation
// rather than the portable bit-plane layout.
type Counter struct {
	lanes [64]int8
}

func (c *Counter) Add(delta board.Bitboard) {
	c.applyMask(delta, 1)
}

func (c *Counter) Sub(delta board.Bitboard) {
	c.applyMask(delta, -1)
}

func (c *Counter) Update(sub, add board.Bitboard) {
	c.applyMask(sub, -1)
	c.applyMask(add, 1)
}

// Reduce returns the bitmask of squares whose lane is non-zero,
// mirroring reduce()'s cmpneq-against-zero mask.
func (c *Counter) Reduce() board.Bitboard {
	var out board.Bitboard
	v := archsimd.LoadInt8x64(c.lanes[:])
	for i := 0; i < 64; i++ {
		if v.Get(i) != 0 {
			out |= board.Bitboard(1) << uint(i)
		}
	}
	return out
}

func (c *Counter) applyMask(mask board.Bitboard, step int8) {
	v := archsimd.LoadInt8x64(c.lanes[:])
	for i := 0; i < 64; i++ {
		if mask&(board.Bitboard(1)<<uint(i)) != 0 {
			// Saturate to the 4-bit range 0..15 like the portable
			// bit-plane counter.
			if n := v.Get(i) + step; n >= 0 && n <= 15 {
				c.lanes[i] = n
			}
		}
	}
}
