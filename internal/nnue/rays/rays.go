// Package rays implements the ray-scan utilities of §4.4.6: given a
// focus square, enumerate the eight rays radiating from it (N, NE, E,
// SE, S, SW, W, NW) as a flat 64-slot vector, then answer "which slots
// hold an attacker of this victim", "which slots hold something this
// attacker attacks", and "which slots hold a slider that could extend
// through occupancy" as pure bit-test functions over that vector.
// These feed the NNUE threat accumulator's input features; they are
// not a substitute for the board package's exact attack generation
// (which also has to handle knights, pins, and check legality).
//
// Ported from original_source/src/nnue/rays.rs, which builds the
// permutation with an AVX-512 GFNI affine transform
// (_mm512_gf2p8affine_epi64_epi8) over a 0x88-extended board and
// answers the mask queries with _mm512_test_epi8_mask. Go's
// experimental SIMD package exposes neither GFNI nor AVX-512
// mask-test intrinsics, so this is a portable bit-trick port: the
// permutation is plain 0x88 array arithmetic, and every mask query
// collapses to one geometric reach() rule evaluated per slot instead
// of a precomputed per-slot byte table — the table and the rule agree
// by construction, so there's no separate table to keep in sync.
package rays

import "github.com/nwelch/rookcore/internal/board"

// rayDeltas holds the per-step 0x88 delta for each of the eight
// compass directions, in the same N, NE, E, SE, S, SW, W, NW order
// rays.rs's ray_permutation iterates them.
var rayDeltas = [8]int{0x10, 0x11, 0x01, -0x0F, -0x10, -0x11, -0x01, 0x0F}

// squareTo0x88 converts an 8x8 square index to its 0x88 equivalent.
func squareTo0x88(sq board.Square) int {
	s := int(sq)
	rank, file := s/8, s%8
	return rank<<4 | file
}

// from0x88 converts a 0x88 coordinate back to an 8x8 square, or false
// if it falls off the extended board.
func from0x88(c int) (board.Square, bool) {
	if c < 0 || c&0x88 != 0 {
		return 0, false
	}
	rank := c >> 4
	file := c & 0x07
	return board.Square(rank*8 + file), true
}

// Perm is the per-focus-square permutation: for each of the 64 ray
// slots, the board square it maps to (and whether it's on-board).
// Building this once per focus square and reusing it across queries
// is what rays.rs's ray_permutation is for.
type Perm struct {
	Square [64]board.Square
	Valid  [64]bool
}

// BuildPerm computes the ray permutation for focus, ported from
// ray_permutation's offset-table-plus-0x88 arithmetic: eight groups of
// eight slots, one group per compass direction, each slot the next
// step outward, marked invalid once it runs off the board.
func BuildPerm(focus board.Square) Perm {
	var p Perm
	base := squareTo0x88(focus)
	for dir, delta := range rayDeltas {
		for step := 1; step <= 8; step++ {
			i := dir*8 + step - 1
			sq, ok := from0x88(base + delta*step)
			p.Square[i] = sq
			p.Valid[i] = ok
		}
	}
	return p
}

// pieceBit mirrors board_to_rays' LUT: one bit per (piece type, color)
// slot, white pawn and black pawn distinguished since pawn attacks are
// direction-dependent; every other piece type shares a bit across
// colors, matching rays.rs exactly.
const (
	bitWhitePawn uint8 = 1 << 0
	bitBlackPawn uint8 = 1 << 1
	bitKnight    uint8 = 1 << 2
	bitBishop    uint8 = 1 << 3
	bitRook      uint8 = 1 << 4
	bitQueen     uint8 = 1 << 5
	bitKing      uint8 = 1 << 6
)

func pieceBit(p board.Piece) uint8 {
	switch p.Type() {
	case board.Pawn:
		if p.Color() == board.White {
			return bitWhitePawn
		}
		return bitBlackPawn
	case board.Knight:
		return bitKnight
	case board.Bishop:
		return bitBishop
	case board.Rook:
		return bitRook
	case board.Queen:
		return bitQueen
	case board.King:
		return bitKing
	default:
		return 0
	}
}

// Vector is the 64-slot ray vector: rays.rs's "rays" output, one byte
// per slot encoding what occupies it (0 if off-board or empty).
type Vector [64]uint8

// BuildVector projects pos onto perm's ray slots, the portable
// equivalent of board_to_rays' permute-then-shuffle.
func BuildVector(perm Perm, pos *board.Position) Vector {
	var v Vector
	for i := 0; i < 64; i++ {
		if !perm.Valid[i] {
			continue
		}
		p := pos.PieceAt(perm.Square[i])
		if p != board.NoPiece {
			v[i] = pieceBit(p)
		}
	}
	return v
}

// dirIndex order matches rayDeltas: N, NE, E, SE, S, SW, W, NW.
func oppositeDir(dir int) int { return (dir + 4) % 8 }

func isOrthogonal(dir int) bool { return dir%2 == 0 }

// reach reports whether a piece of type pt and color c, standing
// somewhere, attacks the square that lies dist steps away from it in
// direction dir. This is the single geometric rule both query
// functions below read in opposite senses: a piece sitting at a ray
// slot attacks the focus square iff it reaches back along the
// opposite direction; a piece sitting at the focus square attacks a
// ray slot iff it reaches out along that slot's own direction.
//
// Knight moves don't run along any of the eight ray directions, so a
// knight never satisfies reach — this package only speaks to sliding
// and step geometry along straight lines, not knight attacks. Exact
// attack generation (including knights) is the board package's job.
func reach(pt board.PieceType, c board.Color, dir, dist int) bool {
	switch pt {
	case board.King:
		return dist == 1
	case board.Queen:
		return dist >= 1 && dist <= 7
	case board.Rook:
		return dist >= 1 && dist <= 7 && isOrthogonal(dir)
	case board.Bishop:
		return dist >= 1 && dist <= 7 && !isOrthogonal(dir)
	case board.Pawn:
		if dist != 1 {
			return false
		}
		if c == board.White {
			return dir == 1 || dir == 7 // NE or NW
		}
		return dir == 3 || dir == 5 // SE or SW
	default:
		return false
	}
}

// AttackersAlongRays reports which of the 64 ray slots in v hold a
// piece that attacks a victim of type victim standing at the focus
// square v was built for. victim's own type is irrelevant to whether
// a slot's occupant geometrically reaches the focus square, so it
// only gates the NoPieceType sentinel (an empty square is never a
// victim).
func AttackersAlongRays(victim board.PieceType, v Vector) uint64 {
	if victim >= board.NoPieceType {
		return 0
	}
	var out uint64
	for dir := 0; dir < 8; dir++ {
		for step := 1; step <= 8; step++ {
			i := dir*8 + step - 1
			if v[i] == 0 {
				continue
			}
			if pieceAttacksFromSlot(v[i], dir, step) {
				out |= 1 << uint(i)
			}
		}
	}
	return out
}

// pieceAttacksFromSlot reports whether the piece bits occupying a
// slot at (dir, step) from the focus square attack that focus square.
func pieceAttacksFromSlot(bits uint8, dir, step int) bool {
	back := oppositeDir(dir)
	if bits&bitWhitePawn != 0 && reach(board.Pawn, board.White, back, step) {
		return true
	}
	if bits&bitBlackPawn != 0 && reach(board.Pawn, board.Black, back, step) {
		return true
	}
	if bits&bitBishop != 0 && reach(board.Bishop, board.NoColor, back, step) {
		return true
	}
	if bits&bitRook != 0 && reach(board.Rook, board.NoColor, back, step) {
		return true
	}
	if bits&bitQueen != 0 && reach(board.Queen, board.NoColor, back, step) {
		return true
	}
	if bits&bitKing != 0 && reach(board.King, board.NoColor, back, step) {
		return true
	}
	return false
}

// AttackingAlongRays reports which of the 64 ray slots in v hold a
// square that attacker, standing at the focus square, threatens.
func AttackingAlongRays(attacker board.Piece, v Vector) uint64 {
	if attacker == board.NoPiece {
		return 0
	}
	pt, c := attacker.Type(), attacker.Color()
	var out uint64
	for dir := 0; dir < 8; dir++ {
		for step := 1; step <= 8; step++ {
			if reach(pt, c, dir, step) {
				out |= 1 << uint(dir*8+step-1)
			}
		}
	}
	return out
}

// SlidersAlongRays reports which of the 64 ray slots in v hold a
// sliding piece (bishop, rook, or queen) whose line matches that
// slot's direction, excluding the slot immediately adjacent to focus
// — a slider one step away has nothing to slide through before it, so
// it is never reported as a "through" slider.
func SlidersAlongRays(v Vector) uint64 {
	var out uint64
	for dir := 0; dir < 8; dir++ {
		var lineBits uint8
		if isOrthogonal(dir) {
			lineBits = bitRook | bitQueen
		} else {
			lineBits = bitBishop | bitQueen
		}
		for step := 2; step <= 8; step++ {
			i := dir*8 + step - 1
			if v[i]&lineBits != 0 {
				out |= 1 << uint(i)
			}
		}
	}
	return out
}
