// Package ordering implements the move-ordering services shared by the
// alpha-beta search and the mate search: static exchange evaluation,
// MVV-LVA, killer moves, the history heuristic, and the tactical classifier
// used to build MCTS tactical cursors.
package ordering

import (
	"github.com/talonforge/chessforge/internal/board"
)

// Score bands used to order a move list. TT move first, then winning and
// equal captures, then killers, then history-ordered quiet moves, then
// losing captures last.
const (
	TTMoveScore    = 10_000_000
	GoodCaptureBase = 1_000_000
	KillerScore1   = 900_000
	KillerScore2   = 800_000
	BadCaptureBase = -100_000
)

const maxPly = 128

// mvvLva scores a capture as victim_value*16 - attacker_value, per piece type.
func mvvLvaScore(victim, attacker board.PieceType) int {
	return PieceValue(victim)*16 - PieceValue(attacker)
}

// MVVLVAScore exposes the victim/attacker capture-ordering score for
// collaborators outside this package, such as the mate search's move order.
func MVVLVAScore(victim, attacker board.PieceType) int {
	return mvvLvaScore(victim, attacker)
}

// Orderer holds killer moves and the history heuristic across one search.
type Orderer struct {
	killers [maxPly][2]board.Move
	// history is indexed [color][from][to], per the color-aware history
	// table quiet-move cutoffs feed into.
	history [2][64][64]int32
}

// New creates an empty move orderer.
func New() *Orderer {
	return &Orderer{}
}

// Clear resets killers and halves history scores for a new search.
func (o *Orderer) Clear() {
	for i := range o.killers {
		o.killers[i][0] = board.NoMove
		o.killers[i][1] = board.NoMove
	}
	for c := range o.history {
		for f := range o.history[c] {
			for t := range o.history[c][f] {
				o.history[c][f][t] /= 2
			}
		}
	}
}

// Score returns the ordering score for move m at ply, given the TT move
// (if any) for this node.
func (o *Orderer) Score(pos *board.Position, m, ttMove board.Move, ply int) int {
	if m == ttMove {
		return TTMoveScore
	}

	if m.IsCapture(pos) {
		return o.scoreCapture(pos, m)
	}

	if m.IsPromotion() {
		return GoodCaptureBase - 1000 + int(m.Promotion())*100
	}

	if ply < maxPly {
		if m == o.killers[ply][0] {
			return KillerScore1
		}
		if m == o.killers[ply][1] {
			return KillerScore2
		}
	}

	return int(o.history[pos.SideToMove][m.From()][m.To()]) + forkBonus(pos, m)
}

func (o *Orderer) scoreCapture(pos *board.Position, m board.Move) int {
	attackerPiece := pos.PieceAt(m.From())
	if attackerPiece == board.NoPiece {
		return GoodCaptureBase
	}
	attacker := attackerPiece.Type()

	var victim board.PieceType
	if m.IsEnPassant() {
		victim = board.Pawn
	} else {
		capturedPiece := pos.PieceAt(m.To())
		if capturedPiece == board.NoPiece {
			return GoodCaptureBase
		}
		victim = capturedPiece.Type()
	}

	see := SEE(pos, m)
	if see < 0 {
		return BadCaptureBase + mvvLvaScore(victim, attacker)
	}
	return GoodCaptureBase + mvvLvaScore(victim, attacker)
}

// ScoreMoves scores every move in the list for sorting.
func (o *Orderer) ScoreMoves(pos *board.Position, moves *board.MoveList, ply int, ttMove board.Move) []int {
	scores := make([]int, moves.Len())
	for i := 0; i < moves.Len(); i++ {
		scores[i] = o.Score(pos, moves.Get(i), ttMove, ply)
	}
	return scores
}

// SortMoves fully sorts moves by descending score.
func SortMoves(moves *board.MoveList, scores []int) {
	n := moves.Len()
	for i := 0; i < n-1; i++ {
		best := i
		for j := i + 1; j < n; j++ {
			if scores[j] > scores[best] {
				best = j
			}
		}
		if best != i {
			moves.Swap(i, best)
			scores[i], scores[best] = scores[best], scores[i]
		}
	}
}

// PickMove selects the remaining best move at or after index and swaps it
// into place, enabling lazy incremental sorting during move iteration.
func PickMove(moves *board.MoveList, scores []int, index int) {
	best := index
	for j := index + 1; j < moves.Len(); j++ {
		if scores[j] > scores[best] {
			best = j
		}
	}
	if best != index {
		moves.Swap(index, best)
		scores[index], scores[best] = scores[best], scores[index]
	}
}

// UpdateKillers records a quiet cutoff move as a killer at ply.
func (o *Orderer) UpdateKillers(m board.Move, ply int) {
	if ply >= maxPly || o.killers[ply][0] == m {
		return
	}
	o.killers[ply][1] = o.killers[ply][0]
	o.killers[ply][0] = m
}

// UpdateHistory applies the history heuristic's asymmetric update: a quiet
// move that produced a beta cutoff gains depth², and every quiet move that
// was searched at this node without cutting gets penalized by depth.
func (o *Orderer) UpdateHistory(color board.Color, m board.Move, depth int, causedCutoff bool) {
	from, to := m.From(), m.To()
	if causedCutoff {
		o.history[color][from][to] += int32(depth * depth)
		if o.history[color][from][to] > 400_000 {
			o.halveHistory()
		}
	} else {
		o.history[color][from][to] -= int32(depth)
		if o.history[color][from][to] < -400_000 {
			o.history[color][from][to] = -400_000
		}
	}
}

func (o *Orderer) halveHistory() {
	for c := range o.history {
		for f := range o.history[c] {
			for t := range o.history[c][f] {
				o.history[c][f][t] /= 2
			}
		}
	}
}

// HistoryScore returns the raw history score for a quiet move.
func (o *Orderer) HistoryScore(color board.Color, m board.Move) int {
	return int(o.history[color][m.From()][m.To()])
}
