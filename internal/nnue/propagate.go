package nnue

// PropagateL1 implements sparse L1 propagation over the compacted
// non-zero chunk indices produced by FindNNZ. Ported from
// sfnnue/layers/affine_transform_sparse.go's Propagate, generalized to
// explicit two-indices-at-a-time accumulation (that version processes
// one chunk at a time; this keeps the same weight-slab layout but
// documents the even/odd split so a future dpbusd-based SIMD variant
// can pair indices the way real int8 dot-product instructions do).
//
// bucket.L1Weights is the per-bucket weight slab, L2Size*4 int8 values
// per active chunk index (indexed the same way chunk indices are);
// bucket.L1Biases and DequantMultiplier complete the affine transform.
func PropagateL1(activated [L1Size]uint8, indices [L1Size / 4]uint8, count int, bucket *Bucket) [L2Size]float32 {
	var pre [L2Size]int32

	i := 0
	for ; i+1 < count; i += 2 {
		accumulatePair(&pre, activated, indices[i], indices[i+1], bucket)
	}
	if i < count {
		accumulateSingle(&pre, activated, indices[i], bucket)
	}

	var out [L2Size]float32
	for j := 0; j < L2Size; j++ {
		v := float32(pre[j])*DequantMultiplier + bucket.L1Biases[j]
		out[j] = clampF32(v, 0, 1)
	}
	return out
}

// accumulatePair folds two active chunk indices into pre, the shape
// a paired dpbusd (unsigned byte * signed byte dot product) would
// process in one instruction on hardware that has it.
func accumulatePair(pre *[L2Size]int32, activated [L1Size]uint8, i1, i2 uint8, bucket *Bucket) {
	b0 := chunkBytes(activated, i1)
	b1 := chunkBytes(activated, i2)
	w0 := bucket.L1Weights[i1]
	w1 := bucket.L1Weights[i2]
	for j := 0; j < L2Size; j++ {
		var sum int32
		for k := 0; k < 4; k++ {
			sum += int32(w0[j*4+k]) * int32(b0[k])
			sum += int32(w1[j*4+k]) * int32(b1[k])
		}
		pre[j] += sum
	}
}

func accumulateSingle(pre *[L2Size]int32, activated [L1Size]uint8, idx uint8, bucket *Bucket) {
	b := chunkBytes(activated, idx)
	w := bucket.L1Weights[idx]
	for j := 0; j < L2Size; j++ {
		var sum int32
		for k := 0; k < 4; k++ {
			sum += int32(w[j*4+k]) * int32(b[k])
		}
		pre[j] += sum
	}
}

func chunkBytes(activated [L1Size]uint8, chunkIndex uint8) [4]uint8 {
	off := int(chunkIndex) * 4
	return [4]uint8{activated[off], activated[off+1], activated[off+2], activated[off+3]}
}

// PropagateL2 implements dense propagation through the second hidden
// layer. Ported from sfnnue/layers/affine_transform.go's Propagate,
// generalized from int8/uint8 quantized inputs to the float32 domain
// PropagateL1's output already produces.
func PropagateL2(l1Out [L2Size]float32, bucket *Bucket) [L3Size]float32 {
	out := bucket.L2Biases
	for i := 0; i < L2Size; i++ {
		x := l1Out[i]
		row := bucket.L2Weights[i]
		for j := 0; j < L3Size; j++ {
			out[j] += x * row[j]
		}
	}
	for j := 0; j < L3Size; j++ {
		out[j] = clampF32(out[j], 0, 1)
	}
	return out
}

// PropagateL3 implements §4.4.5: the final dot product plus bias.
func PropagateL3(l2Out [L3Size]float32, bucket *Bucket) float32 {
	var sum float32
	for i := 0; i < L3Size; i++ {
		sum += l2Out[i] * bucket.L3Weights[i]
	}
	return sum + bucket.L3Bias
}

func clampF32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Evaluate runs the full four-stage forward pass for one side to
// move, matching sfnnue/network.go's Network.Evaluate shape.
func Evaluate(pst, threat *Accumulator, stm int, bucketIndex int, params *Network) float32 {
	bucket := &params.Buckets[bucketIndex]
	activated := ActivateFT(pst, threat, stm)
	indices, count := FindNNZ(activated)
	l1 := PropagateL1(activated, indices, count, bucket)
	l2 := PropagateL2(l1, bucket)
	return PropagateL3(l2, bucket)
}
