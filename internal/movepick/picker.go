package movepick

import (
	"math"

	"github.com/nwelch/rookcore/internal/board"
	"github.com/nwelch/rookcore/internal/history"
)

// Mode selects which of the three ways a Picker is constructed:
// main search (seeded with a hash move), ProbCut (fixed SEE
// threshold), or quiescence (no hash move, quiets normally skipped by
// the caller's skip_quiets argument).
type Mode int

const (
	ModeMain Mode = iota
	ModeProbCut
	ModeQuiescence
)

// stage is the picker's own position in the six-stage state machine.
// Stages advance monotonically; there is no way back.
type stage int

const (
	stageHashMove stage = iota
	stageGenerateNoisy
	stageGoodNoisy
	stageGenerateQuiet
	stageQuiet
	stageBadNoisy
	stageDone
)

const (
	noisyScoreCaptureWeight = 16
	probCutSlope            = 46
	probCutIntercept        = 109

	quietWeightHistory = 994
	quietWeightOffset1 = 1049
	quietWeightOffset2 = 990
	quietWeightOffset4 = 969
	quietWeightOffset6 = 1088
	quietWeightShift   = 1024
)

// Board is the narrow surface the picker needs from a position. It is
// satisfied by *board.Position via internal/board/contract.go.
type Board interface {
	IsPseudoLegal(m board.Move) bool
	AppendNoisyMoves(ml *board.MoveList)
	AppendQuietMoves(ml *board.MoveList)
	See(m board.Move, threshold int) bool
	PieceAt(sq board.Square) board.Piece
	MovedPiece(m board.Move) board.Piece
	Threats() board.ThreatKey
	ToMove() board.Color
	InCheck() bool
}

// Picker yields pseudo-legal moves from a board in the order alpha-beta
// search wants to try them: the remembered hash move, then good
// captures by descending SEE-adjusted score, then quiets by history
// score, then the captures that failed their SEE check.
type Picker struct {
	pos  Board
	tabs *history.Tables

	mode          Mode
	ttMove        board.Move
	probCutThresh int
	isRoot        bool

	stage  stage
	noisy  List
	quiet  List
	badIdx int
	bad    [MaxMoves]board.Move
	badLen int
}

// NewMain constructs a picker for a regular search node, seeded with
// the transposition-table move (board.NoMove if none).
func NewMain(pos Board, tabs *history.Tables, ttMove board.Move, isRoot bool) *Picker {
	p := &Picker{pos: pos, tabs: tabs, mode: ModeMain, ttMove: ttMove, isRoot: isRoot}
	if ttMove != board.NoMove {
		p.stage = stageHashMove
	} else {
		p.stage = stageGenerateNoisy
	}
	return p
}

// NewProbCut constructs a picker restricted to captures whose SEE
// clears threshold, used by the ProbCut pruning technique.
func NewProbCut(pos Board, tabs *history.Tables, threshold int) *Picker {
	return &Picker{pos: pos, tabs: tabs, mode: ModeProbCut, probCutThresh: threshold, stage: stageGenerateNoisy}
}

// NewQuiescence constructs a picker for quiescence search. Callers
// typically pass skip_quiets = true to Next, but the picker itself
// imposes no such restriction — that is the caller's contract to keep.
func NewQuiescence(pos Board, tabs *history.Tables) *Picker {
	return &Picker{pos: pos, tabs: tabs, mode: ModeQuiescence, stage: stageGenerateNoisy}
}

// Next advances the state machine until it produces a move or is
// exhausted. It returns board.NoMove when no more moves remain.
func (p *Picker) Next(skipQuiets bool, ply int) board.Move {
	for {
		switch p.stage {
		case stageHashMove:
			p.stage = stageGenerateNoisy
			if p.pos.IsPseudoLegal(p.ttMove) {
				return p.ttMove
			}

		case stageGenerateNoisy:
			p.generateNoisy()
			p.stage = stageGoodNoisy

		case stageGoodNoisy:
			if p.noisy.Len() == 0 {
				if p.mode == ModeProbCut {
					p.stage = stageDone
				} else {
					p.stage = stageGenerateQuiet
				}
				continue
			}
			idx := findBestScoreIndex(&p.noisy)
			sm := p.noisy.RemoveAt(idx)
			m := sm.Move()
			if m == p.ttMove {
				continue
			}
			if p.isRoot {
				p.rescoreNoisy()
			}

			threshold := p.probCutThresh
			if p.mode != ModeProbCut {
				threshold = -int(sm.Score())/probCutSlope + probCutIntercept
			}
			if !p.pos.See(m, threshold) {
				p.pushBad(m)
				continue
			}
			return m

		case stageGenerateQuiet:
			if skipQuiets {
				p.stage = stageBadNoisy
				continue
			}
			p.generateQuiet(ply)
			p.stage = stageQuiet

		case stageQuiet:
			if p.quiet.Len() == 0 {
				p.stage = stageBadNoisy
				continue
			}
			idx := findBestScoreIndex(&p.quiet)
			sm := p.quiet.RemoveAt(idx)
			m := sm.Move()
			if m == p.ttMove {
				continue
			}
			if p.isRoot {
				p.rescoreQuiet(ply)
			}
			return m

		case stageBadNoisy:
			if p.badIdx >= p.badLen {
				p.stage = stageDone
				continue
			}
			m := p.bad[p.badIdx]
			p.badIdx++
			if m == p.ttMove {
				continue
			}
			return m

		case stageDone:
			return board.NoMove
		}
	}
}

func (p *Picker) pushBad(m board.Move) {
	p.bad[p.badLen] = m
	p.badLen++
}

// minInt32 stands in for the picker's INT_MIN sentinel score: a
// candidate equal to the TT move is scored out of contention rather
// than filtered out of the list, so it still occupies a list slot, is
// selected only after every other entry, and is then skipped.
const minInt32 = math.MinInt32

func (p *Picker) generateNoisy() {
	p.noisy.Clear()
	var ml board.MoveList
	p.pos.AppendNoisyMoves(&ml)
	threats := p.pos.Threats()
	for i := 0; i < ml.Len(); i++ {
		m := ml.Get(i)
		p.noisy.Append(NewScoredMove(m, p.noisyScore(m, threats)))
	}
}

func (p *Picker) noisyScore(m board.Move, threats board.ThreatKey) int32 {
	if m == p.ttMove {
		return minInt32
	}
	piece := p.pos.MovedPiece(m)
	captured := p.capturedType(m)
	value := 0
	if m.IsEnPassant() {
		value = board.PieceValue[board.Pawn]
	} else if captured != board.NoPieceType {
		value = board.PieceValue[captured]
	}
	return int32(noisyScoreCaptureWeight*value) + p.tabs.Noisy.Get(threats, piece, m.To(), captured)
}

func (p *Picker) capturedType(m board.Move) board.PieceType {
	if m.IsEnPassant() {
		return board.Pawn
	}
	victim := p.pos.PieceAt(m.To())
	if victim == board.NoPiece {
		return board.NoPieceType
	}
	return victim.Type()
}

func (p *Picker) rescoreNoisy() {
	threats := p.pos.Threats()
	for i := 0; i < p.noisy.Len(); i++ {
		m := p.noisy.Get(i).Move()
		p.noisy.SetScore(i, p.noisyScore(m, threats))
	}
}

func (p *Picker) generateQuiet(ply int) {
	p.quiet.Clear()
	var ml board.MoveList
	p.pos.AppendQuietMoves(&ml)
	for i := 0; i < ml.Len(); i++ {
		m := ml.Get(i)
		p.quiet.Append(NewScoredMove(m, p.quietScore(m, ply)))
	}
}

func (p *Picker) quietScore(m board.Move, ply int) int32 {
	if m == p.ttMove {
		return minInt32
	}
	threats := p.pos.Threats()
	side := p.pos.ToMove()
	weighted := int64(quietWeightHistory)*int64(p.tabs.Quiet.Get(threats, side, m)) +
		int64(quietWeightOffset1)*int64(p.tabs.Cont.Get(ply, 1, m)) +
		int64(quietWeightOffset2)*int64(p.tabs.Cont.Get(ply, 2, m)) +
		int64(quietWeightOffset4)*int64(p.tabs.Cont.Get(ply, 4, m)) +
		int64(quietWeightOffset6)*int64(p.tabs.Cont.Get(ply, 6, m))
	return int32(weighted / quietWeightShift)
}

func (p *Picker) rescoreQuiet(ply int) {
	for i := 0; i < p.quiet.Len(); i++ {
		m := p.quiet.Get(i).Move()
		p.quiet.SetScore(i, p.quietScore(m, ply))
	}
}
