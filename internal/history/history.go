// Package history implements the opaque history-heuristic scorers the
// staged move picker consults when no hash move or good capture is
// available: noisy (capture) history, quiet butterfly history, and
// continuation history keyed by recent moves. Tables are shared across
// a search (aged, not cleared, between iterations) and are safe for a
// single worker's exclusive use; Lazy SMP workers each own a set.
package history

import (
	"github.com/nwelch/rookcore/internal/board"
)

// MaxPly bounds the per-ply stacks continuation history indexes into.
// Matches the worst-case search depth the picker is ever asked about.
const MaxPly = 128

// ThreatBuckets partitions history tables by a coarse feature of the
// position's opaque threat key, so a quiet move's score can differ
// between a position where it defends a hanging piece and one where it
// doesn't. Stockfish keys its correction and capture history tables by
// a handful of buckets derived this way rather than the full feature
// vector; two buckets is the cheapest version of that idea.
const ThreatBuckets = 2

func bucket(t board.ThreatKey) int {
	return int(t & (ThreatBuckets - 1))
}

const (
	historyMax   int32 = 16384
	historyMin   int32 = -16384
	historyScale int32 = 32
)

func clampHistory(v int32) int32 {
	if v > historyMax {
		return historyMax
	}
	if v < historyMin {
		return historyMin
	}
	return v
}

// gravity applies Stockfish's "history gravity" update: the bonus is
// scaled down proportionally to how close the entry already is to the
// saturation bound, so repeated good results can't runaway to the cap
// and repeated bad results can't runaway to the floor.
func gravity(entry int32, bonus int32) int32 {
	return entry + bonus - entry*abs32(bonus)/historyMax
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

// Noisy scores capture moves, bucketed by threat key, attacker piece,
// destination square, and captured piece type.
type Noisy struct {
	table [ThreatBuckets][12][64][6]int32
}

// NewNoisy creates an empty noisy-move history.
func NewNoisy() *Noisy { return &Noisy{} }

// Get returns the noisy history score for piece capturing captured on
// to, under the position's current threats.
func (n *Noisy) Get(threats board.ThreatKey, piece board.Piece, to board.Square, captured board.PieceType) int32 {
	if piece == board.NoPiece || captured >= board.King {
		return 0
	}
	return n.table[bucket(threats)][piece][to][captured]
}

// Update applies a bonus (positive) or malus (negative) after the move
// caused or failed to cause a beta cutoff at the given depth.
func (n *Noisy) Update(threats board.ThreatKey, piece board.Piece, to board.Square, captured board.PieceType, bonus int32) {
	if piece == board.NoPiece || captured >= board.King {
		return
	}
	e := &n.table[bucket(threats)][piece][to][captured]
	*e = clampHistory(gravity(*e, bonus*historyScale))
}

// Quiet scores quiet moves via the classic from/to butterfly table,
// bucketed by threat key and side to move.
type Quiet struct {
	table [ThreatBuckets][2][64][64]int32
}

// NewQuiet creates an empty quiet-move (butterfly) history.
func NewQuiet() *Quiet { return &Quiet{} }

// Get returns the quiet history score for m played by side.
func (q *Quiet) Get(threats board.ThreatKey, side board.Color, m board.Move) int32 {
	return q.table[bucket(threats)][side][m.From()][m.To()]
}

// Update applies a bonus/malus to the butterfly entry for m.
func (q *Quiet) Update(threats board.ThreatKey, side board.Color, m board.Move, bonus int32) {
	e := &q.table[bucket(threats)][side][m.From()][m.To()]
	*e = clampHistory(gravity(*e, bonus*historyScale))
}

// pieceTo identifies the piece and destination square of a played
// move, the key continuation-history tables are indexed by.
type pieceTo struct {
	piece board.Piece
	to    board.Square
	set   bool
}

// pieceToTable holds the continuation bonus for every (piece, to) pair
// that might follow the move that selected this table.
type pieceToTable [12][64]int32

// Continuation implements the continuation-history lookups the picker
// calls at ply offsets 1, 2, 4, and 6. Each ply that has been played
// owns a table, selected by the (piece, to) of the move played at that
// ply; scoring a candidate move at the current ply indexes into the
// table of an earlier ply by the candidate's own (piece, to).
//
// The picker's contract passes only (ply, offset, move) — no piece —
// so Continuation keeps a reference to the position being searched,
// refreshed by the caller via SetPosition before each node, and
// derives the candidate's piece itself.
type Continuation struct {
	pos    *board.Position
	recent [MaxPly]pieceTo
	tables map[pieceTo]*pieceToTable
}

// NewContinuation creates an empty continuation history.
func NewContinuation() *Continuation {
	return &Continuation{tables: make(map[pieceTo]*pieceToTable)}
}

// SetPosition refreshes the position Get derives candidate-move piece
// identities from. Call once per node before constructing a picker.
func (c *Continuation) SetPosition(pos *board.Position) {
	c.pos = pos
}

// RecordMove remembers that the move played to reach ply+1 was made by
// piece landing on to, so later plies' continuation lookups at this
// offset can find it.
func (c *Continuation) RecordMove(ply int, piece board.Piece, to board.Square) {
	if ply < 0 || ply >= MaxPly {
		return
	}
	c.recent[ply] = pieceTo{piece: piece, to: to, set: true}
}

// ClearPly forgets the move recorded at ply, e.g. on search-stack reuse.
func (c *Continuation) ClearPly(ply int) {
	if ply >= 0 && ply < MaxPly {
		c.recent[ply] = pieceTo{}
	}
}

func (c *Continuation) tableFor(key pieceTo) *pieceToTable {
	t, ok := c.tables[key]
	if !ok {
		t = &pieceToTable{}
		c.tables[key] = t
	}
	return t
}

// Get returns the continuation history score for playing m, relative
// to the move played `offset` plies earlier.
func (c *Continuation) Get(ply, offset int, m board.Move) int32 {
	idx := ply - offset
	if idx < 0 || idx >= MaxPly || !c.recent[idx].set || c.pos == nil {
		return 0
	}
	table := c.tableFor(c.recent[idx])
	piece := c.pos.MovedPiece(m)
	if piece == board.NoPiece {
		return 0
	}
	return table[piece][m.To()]
}

// Update applies a bonus/malus to the continuation entry selected by
// the move played `offset` plies before ply, for the given candidate.
func (c *Continuation) Update(ply, offset int, piece board.Piece, to board.Square, bonus int32) {
	idx := ply - offset
	if idx < 0 || idx >= MaxPly || !c.recent[idx].set {
		return
	}
	table := c.tableFor(c.recent[idx])
	e := &table[piece][to]
	*e = clampHistory(gravity(*e, bonus*historyScale))
}

// Tables bundles the three history scorers a worker owns for one
// search, matching the "thread data" grouping of shared-context vs.
// per-worker resources from the engine's memory model.
type Tables struct {
	Noisy *Noisy
	Quiet *Quiet
	Cont  *Continuation
}

// NewTables creates a fresh, zeroed set of history tables.
func NewTables() *Tables {
	return &Tables{
		Noisy: NewNoisy(),
		Quiet: NewQuiet(),
		Cont:  NewContinuation(),
	}
}

// Age halves every entry, called between iterative-deepening
// iterations so old evidence decays but isn't discarded outright.
func (t *Tables) Age() {
	for b := range t.Noisy.table {
		for i := range t.Noisy.table[b] {
			for j := range t.Noisy.table[b][i] {
				for k := range t.Noisy.table[b][i][j] {
					t.Noisy.table[b][i][j][k] /= 2
				}
			}
		}
	}
	for b := range t.Quiet.table {
		for i := range t.Quiet.table[b] {
			for j := range t.Quiet.table[b][i] {
				for k := range t.Quiet.table[b][i][j] {
					t.Quiet.table[b][i][j][k] /= 2
				}
			}
		}
	}
	for _, tbl := range t.Cont.tables {
		for i := range tbl {
			for j := range tbl[i] {
				tbl[i][j] /= 2
			}
		}
	}
}
