//go:build goexperiment.simd && amd64

// AVX2 argmax over a scored-move list. Go 1.26's experimental
// simd/archsimd package exposes 256-bit integer vectors but no 64-bit
// lane compare; this mirrors sfnnue/simd.go's approach of driving the
// SIMD unit for the bulk load/compare work and finishing the
// horizontal reduction with a short scalar loop over vector lanes
// (the same shape as sfnnue's SIMDClippedReLU).
package movepick

import "simd/archsimd"

const argmaxLaneWidth = 8

// orderedKey packs score and the entry's index into one int64: the
// sign-extended score occupies the high half of the lane, the index
// the low half, so signed 64-bit max (the vector Max and the scalar
// '>' below) agrees with signed score order. Ties resolve to the
// larger index because a larger index value in the low half makes the
// whole 64-bit key larger when scores tie — exactly the "last-seen
// wins" rule.
func orderedKey(score int32, index int) int64 {
	return int64(score)<<32 | int64(uint32(index))
}

func findBestScoreIndex(l *List) int {
	n := l.len

	var buf [MaxMoves]int64
	for i := 0; i < n; i++ {
		buf[i] = orderedKey(l.items[i].Score(), i)
	}
	// Fill any remainder up to a lane multiple with the minimum
	// possible key so it never wins the max.
	i := n
	for i%argmaxLaneWidth != 0 {
		buf[i] = orderedKey(int32(-1)<<31, 0)
		i++
	}
	padded := i

	best := buf[0]
	j := 0
	for ; j+argmaxLaneWidth <= padded; j += argmaxLaneWidth {
		v := archsimd.LoadInt64x4(buf[j : j+4])
		v2 := archsimd.LoadInt64x4(buf[j+4 : j+8])
		vmax := v.Max(v2)
		for k := 0; k < 4; k++ {
			if c := vmax.Get(k); c > best {
				best = c
			}
		}
	}
	for ; j < n; j++ {
		if buf[j] > best {
			best = buf[j]
		}
	}

	return int(uint64(best) & 0xFFFFFFFF)
}
