package alphabeta

import (
	"github.com/talonforge/chessforge/internal/board"
	"github.com/talonforge/chessforge/internal/ordering"
	"github.com/talonforge/chessforge/internal/tt"
)

// nullMoveMinDepth and the reduction formula mirror Stockfish-style null
// move pruning: the deeper the remaining search, the more aggressively a
// null move can be trusted to reveal an obvious fail-high.
const nullMoveMinDepth = 3

// negamax is the fail-soft recursive search: given (position, depth, ply,
// alpha, beta) it returns the best score found, which may lie outside
// [alpha, beta] (an upper bound on fail-low, a lower bound on fail-high).
func (s *Searcher) negamax(pos *board.Position, depth, ply int, alpha, beta int) int {
	if ply >= MaxPly-1 {
		return s.evaluate(pos)
	}

	s.nodes++
	if s.nodes%pollInterval == 0 && s.cancelled() {
		return 0
	}

	s.pv.length[ply] = ply

	// 1. Repetition / 50-move / insufficient material.
	if ply > 0 && s.isDraw(pos) {
		return 0
	}

	// Mate distance pruning.
	if ply > 0 {
		alpha = max(alpha, -MateScore+ply)
		beta = min(beta, MateScore-ply-1)
		if alpha >= beta {
			return alpha
		}
	}

	// 2. TT probe.
	hash := pos.Hash
	var ttMove board.Move
	ttEntry, found := s.table.Probe(hash)
	if found {
		ttMove = validateTTMove(pos, ttEntry.BestMove)
		if int(ttEntry.Depth) >= depth {
			score := tt.AdjustScoreFromTT(int(ttEntry.Score), ply)
			switch ttEntry.Bound {
			case tt.Exact:
				return score
			case tt.LowerBound:
				if score >= beta {
					return score
				}
			case tt.UpperBound:
				if score <= alpha {
					return score
				}
			}
		}
	}

	// 3. Horizon.
	if depth <= 0 {
		return s.quiescence(pos, ply, alpha, beta)
	}

	inCheck := pos.InCheck()

	// 4. Check extension.
	if inCheck {
		depth++
	}

	staticEval := s.evaluate(pos)
	s.evalStack[ply] = staticEval

	// 5. Null-move pruning.
	if !inCheck && ply > 0 && depth >= nullMoveMinDepth && staticEval >= beta && pos.HasNonPawnMaterial() {
		r := 2 + depth/4
		if r > depth-1 {
			r = depth - 1
		}
		nullUndo := pos.MakeNullMove()
		s.posHistory = append(s.posHistory, pos.Hash)
		nullScore := -s.negamax(pos, depth-1-r, ply+1, -beta, -beta+1)
		s.posHistory = s.posHistory[:len(s.posHistory)-1]
		pos.UnmakeNullMove(nullUndo)

		if nullScore >= beta {
			if nullScore > MateScore-MaxPly {
				nullScore = beta
			}
			return nullScore
		}
	}

	// 6. Move generation & ordering.
	moves := pos.GenerateLegalMoves()
	if moves.Len() == 0 {
		// 8. Terminal check.
		if inCheck {
			return -MateScore + ply
		}
		return 0
	}
	scores := s.orderer.ScoreMoves(pos, moves, ply, ttMove)

	origAlpha := alpha
	bestScore := -Infinity
	bestMove := board.NoMove
	searched := 0

	for i := 0; i < moves.Len(); i++ {
		ordering.PickMove(moves, scores, i)
		move := moves.Get(i)

		isCapture := move.IsCapture(pos)
		isPromotion := move.IsPromotion()

		// 7a. Make the move (already legal, GenerateLegalMoves filters).
		undo := pos.MakeMove(move)
		s.posHistory = append(s.posHistory, pos.Hash)
		searched++

		givesCheck := pos.InCheck()
		newDepth := depth - 1

		var score int
		// 7b. Late move reduction.
		if searched > 4 && depth >= 3 && !inCheck && !isCapture && !isPromotion && !givesCheck {
			reduction := lmrReduction(depth, searched)
			reducedDepth := newDepth - reduction
			if reducedDepth < 1 {
				reducedDepth = 1
			}
			score = -s.negamax(pos, reducedDepth, ply+1, -alpha-1, -alpha)
			if score > alpha {
				score = -s.negamax(pos, newDepth, ply+1, -beta, -alpha)
			}
		} else if searched == 1 {
			// 7c. First move: full window.
			score = -s.negamax(pos, newDepth, ply+1, -beta, -alpha)
		} else {
			// 7c. PVS null-window re-search, widen on fail-high.
			score = -s.negamax(pos, newDepth, ply+1, -alpha-1, -alpha)
			if score > alpha && score < beta {
				score = -s.negamax(pos, newDepth, ply+1, -beta, -alpha)
			}
		}

		s.posHistory = s.posHistory[:len(s.posHistory)-1]
		pos.UnmakeMove(move, undo)

		if s.cancelled() {
			return 0
		}

		if score > bestScore {
			bestScore = score
			bestMove = move

			if score > alpha {
				alpha = score
				s.updatePV(ply, move)

				if alpha >= beta {
					// 7d. Beta cutoff.
					if !isCapture {
						s.orderer.UpdateKillers(move, ply)
						s.orderer.UpdateHistory(pos.SideToMove, move, depth, true)
					}
					s.penalizeQuietMoves(pos, moves, scores, i, depth)
					s.table.Store(hash, depth, score, tt.LowerBound, move, ply)
					return score
				}
			}
		}
	}

	// 9. Store TT.
	bound := tt.UpperBound
	if alpha > origAlpha {
		bound = tt.Exact
	}
	s.table.Store(hash, depth, bestScore, bound, bestMove, ply)
	s.corrHistory.Update(pos, bestScore, staticEval, depth)

	return bestScore
}

// penalizeQuietMoves applies the history heuristic's negative branch to
// every quiet move searched before the cutoff move at this node.
func (s *Searcher) penalizeQuietMoves(pos *board.Position, moves *board.MoveList, scores []int, cutoffIndex, depth int) {
	for j := 0; j < cutoffIndex; j++ {
		m := moves.Get(j)
		if !m.IsCapture(pos) && !m.IsPromotion() {
			s.orderer.UpdateHistory(pos.SideToMove, m, depth, false)
		}
	}
}

func (s *Searcher) updatePV(ply int, move board.Move) {
	s.pv.moves[ply][ply] = move
	for next := ply + 1; next < s.pv.length[ply+1]; next++ {
		s.pv.moves[ply][next] = s.pv.moves[ply+1][next]
	}
	if s.pv.length[ply+1] > ply+1 {
		s.pv.length[ply] = s.pv.length[ply+1]
	} else {
		s.pv.length[ply] = ply + 1
	}
}

func validateTTMove(pos *board.Position, m board.Move) board.Move {
	if m == board.NoMove {
		return board.NoMove
	}
	piece := pos.PieceAt(m.From())
	if piece == board.NoPiece || piece.Color() != pos.SideToMove {
		return board.NoMove
	}
	return m
}

// lmrReduction picks a reduction of 1 or 2 plies based on move index and
// remaining depth: later moves at greater depth are reduced further.
func lmrReduction(depth, moveIndex int) int {
	if depth >= 6 && moveIndex >= 10 {
		return 2
	}
	return 1
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
