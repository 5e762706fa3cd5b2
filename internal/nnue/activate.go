package nnue

// ActivateFT implements the feature transformer activation: given the
// PST and threat accumulators and a side to move, produce
// L1Size bytes — our-side perspective's activated half first, the
// opponent's second.
//
// stm selects our perspective: 0 for White, 1 for Black. pst and
// threat are the two incrementally-updated accumulators; each holds
// both perspectives.
func ActivateFT(pst, threat *Accumulator, stm int) [L1Size]uint8 {
	var out [L1Size]uint8

	our := pst.Perspective(stm)
	ourThreat := threat.Perspective(stm)
	their := pst.Perspective(1 - stm)
	theirThreat := threat.Perspective(1 - stm)

	activateHalf(our, ourThreat, out[:L1Size/2])
	activateHalf(their, theirThreat, out[L1Size/2:])
	return out
}

// activateHalf computes one perspective's L1Size/2 output bytes from
// its L1Size-wide pst/threat vectors, split into matching lhs/rhs
// halves.
func activateHalf(pst, threat *[L1Size]int16, out []uint8) {
	half := L1Size / 2
	for i := 0; i < half; i++ {
		lhs := int32(pst[i]) + int32(threat[i])
		rhs := int32(pst[half+i]) + int32(threat[half+i])

		a := clampI16(lhs, 0, FTQuant)
		b := rhs
		if b > FTQuant {
			b = FTQuant
		}

		// a is shifted left into a 16-bit register by (16-FTShift),
		// then multiplied against b to a 32-bit product whose high
		// 16 bits are the result — the scalar form of the
		// shift_left_i16/mul_high_i16 pair the SIMD path runs on
		// whole lanes at once.
		shifted := int32(int16(a << (16 - FTShift)))
		product := (shifted * b) >> 16
		out[i] = uint8(clampI16(product, 0, 255))
	}
}
