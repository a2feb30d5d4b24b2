package alphabeta

import (
	"github.com/talonforge/chessforge/internal/board"
	"github.com/talonforge/chessforge/internal/ordering"
)

const maxQuiescencePly = 32

// quiescence searches noisy moves only, avoiding the horizon effect at the
// bottom of the main search.
func (s *Searcher) quiescence(pos *board.Position, ply int, alpha, beta int) int {
	s.nodes++
	if s.nodes%pollInterval == 0 && s.cancelled() {
		return 0
	}
	if ply >= MaxPly-1 {
		return s.evaluate(pos)
	}

	inCheck := pos.InCheck()

	var standPat int
	if !inCheck {
		standPat = s.evaluate(pos)
		if standPat >= beta {
			return standPat
		}
		if standPat > alpha {
			alpha = standPat
		}
	}

	var moves *board.MoveList
	if inCheck {
		// All evasions: stand-pat is disabled, mate is a live possibility.
		moves = pos.GenerateLegalMoves()
		if moves.Len() == 0 {
			return -MateScore + ply
		}
	} else {
		moves = pos.GenerateCaptures()
	}

	scores := s.orderer.ScoreMoves(pos, moves, ply, board.NoMove)

	best := standPat
	if inCheck {
		best = -Infinity
	}

	for i := 0; i < moves.Len(); i++ {
		ordering.PickMove(moves, scores, i)
		move := moves.Get(i)

		if !inCheck {
			if move.IsCapture(pos) && ordering.SEE(pos, move) < 0 {
				continue
			}
		}

		undo := pos.MakeMove(move)
		if !undo.Valid {
			pos.UnmakeMove(move, undo)
			continue
		}

		score := -s.quiescence(pos, ply+1, -beta, -alpha)
		pos.UnmakeMove(move, undo)

		if score > best {
			best = score
		}
		if score > alpha {
			alpha = score
		}
		if alpha >= beta {
			break
		}
	}

	return best
}
