package alphabeta

import (
	"sync/atomic"

	"github.com/talonforge/chessforge/internal/board"
)

const initialAspirationWindow = 25

// Limits bounds one iterative-deepening run.
type Limits struct {
	MaxDepth int
	Nodes    uint64 // 0 means unbounded
}

// Info summarizes one completed iterative-deepening search.
type Info struct {
	BestMove  board.Move
	Score     int
	Depth     int
	Nodes     uint64
	PV        []board.Move
}

// Search runs iterative deepening from depth 1 to Limits.MaxDepth, widening
// an aspiration window around each iteration's score. An interrupted
// iteration's partial result is discarded; the previous iteration's best
// move and score are kept. If cancellation strikes before depth 1 even
// completes, the first legal move is returned instead of NoMove.
func (s *Searcher) Search(pos *board.Position, limits Limits, stop *atomic.Bool) Info {
	s.nodes = 0
	s.stop = stop
	s.NewSearch()

	info := Info{}
	alpha, beta := -Infinity, Infinity
	score := 0

	maxDepth := limits.MaxDepth
	if maxDepth <= 0 || maxDepth > MaxPly-1 {
		maxDepth = MaxPly - 1
	}

	for depth := 1; depth <= maxDepth; depth++ {
		if s.cancelled() || (limits.Nodes > 0 && s.nodes >= limits.Nodes) {
			break
		}

		window := initialAspirationWindow
		if depth > 1 {
			alpha = score - window
			beta = score + window
		} else {
			alpha, beta = -Infinity, Infinity
		}

		var iterScore int
		for {
			iterScore = s.negamax(pos, depth, 0, alpha, beta)

			if s.cancelled() {
				break
			}
			if iterScore <= alpha {
				alpha -= window
				window *= 2
				if alpha < -Infinity {
					alpha = -Infinity
				}
				continue
			}
			if iterScore >= beta {
				beta += window
				window *= 2
				if beta > Infinity {
					beta = Infinity
				}
				continue
			}
			break
		}

		if s.cancelled() {
			break
		}

		score = iterScore
		if s.pv.length[0] > 0 {
			info.BestMove = s.pv.moves[0][0]
		}
		info.Score = score
		info.Depth = depth
		info.Nodes = s.nodes
		info.PV = s.pv.Line()

		if abs(score) > MateScore-MaxPly {
			break
		}
	}

	if info.BestMove == board.NoMove {
		if moves := pos.GenerateLegalMoves(); moves.Len() > 0 {
			info.BestMove = moves.Get(0)
		}
	}

	return info
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
