// Package mate implements the dedicated mate search: a bounded alpha-beta
// search where only checkmate detection matters, used by the hybrid driver
// to short-circuit the main search whenever a forced mate exists inside a
// bounded horizon.
package mate

import (
	"sync/atomic"

	"github.com/talonforge/chessforge/internal/board"
	"github.com/talonforge/chessforge/internal/ordering"
	"github.com/talonforge/chessforge/internal/tt"
)

const (
	MateScore = tt.MateScore
	MaxPly    = tt.MaxPly
)

// pollInterval matches the alpha-beta search's cancellation granularity.
const pollInterval = 2048

// Result is the outcome of one mate search invocation.
type Result struct {
	Found bool
	Score int        // MateScore-ply for a mate found, 0 otherwise
	Move  board.Move // the mating (or best defensive) move at the root
	Depth int         // odd depth at which the mate was confirmed
}

// Searcher runs the mate search, sharing the driver's transposition table
// but tagging its own entries so they can never be read back as ordinary
// static-eval bounds.
type Searcher struct {
	table *tt.Table
	nodes uint64
	stop  *atomic.Bool
}

// New creates a mate searcher over a shared transposition table.
func New(table *tt.Table) *Searcher {
	return &Searcher{table: table}
}

// NodesSearched returns the node count from the most recent Search call.
func (s *Searcher) NodesSearched() uint64 {
	return s.nodes
}

// Search runs iterative deepening over odd depths up to maxDepth (the
// mating side is always the side to move at the root, so only odd plies can
// end in checkmate) and returns as soon as a mate is confirmed at some
// depth, or exhausts maxDepth without one.
func (s *Searcher) Search(pos *board.Position, maxDepth int, stop *atomic.Bool) Result {
	s.nodes = 0
	s.stop = stop

	best := Result{}
	for depth := 1; depth <= maxDepth; depth += 2 {
		if s.cancelled() {
			break
		}

		score, move := s.searchRoot(pos, depth)
		if s.cancelled() {
			break
		}

		if move != board.NoMove {
			best.Move = move
		}
		if isMateScore(score) {
			if score > 0 {
				best = Result{Found: true, Score: score, Move: move, Depth: depth}
			}
			return best
		}
	}
	return best
}

func (s *Searcher) cancelled() bool {
	return s.stop != nil && s.stop.Load()
}

func isMateScore(score int) bool {
	abs := score
	if abs < 0 {
		abs = -abs
	}
	return abs > MateScore-MaxPly
}

func (s *Searcher) searchRoot(pos *board.Position, depth int) (int, board.Move) {
	moves := orderMateMoves(pos)
	if len(moves) == 0 {
		return 0, board.NoMove
	}

	alpha, beta := -MateScore, MateScore
	bestScore := -MateScore - 1
	bestMove := board.NoMove

	for _, m := range moves {
		undo := pos.MakeMove(m)
		score := -s.negamate(pos, depth-1, 1, -beta, -alpha)
		pos.UnmakeMove(m, undo)

		if s.cancelled() {
			return bestScore, bestMove
		}

		if score > bestScore {
			bestScore = score
			bestMove = m
		}
		if score > alpha {
			alpha = score
		}
	}

	return bestScore, bestMove
}

// negamate descends the mate-only tree: the evaluator is the constant zero
// (draw or unknown) and the only non-zero leaves are checkmates.
func (s *Searcher) negamate(pos *board.Position, depth, ply, alpha, beta int) int {
	s.nodes++
	if s.nodes%pollInterval == 0 && s.cancelled() {
		return 0
	}

	if pos.HalfMoveClock >= 100 || pos.IsInsufficientMaterial() {
		return 0
	}

	hash := pos.Hash
	if entry, found := s.probe(hash); found && int(entry.Depth) >= depth {
		score := tt.AdjustScoreFromTT(int(entry.Score), ply)
		switch entry.Bound {
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

	moves := orderMateMoves(pos)
	if len(moves) == 0 {
		if pos.InCheck() {
			return -(MateScore - ply)
		}
		return 0
	}

	if depth == 0 {
		return 0
	}

	origAlpha := alpha
	best := -MateScore - 1
	var bestMove board.Move

	for _, m := range moves {
		undo := pos.MakeMove(m)
		score := -s.negamate(pos, depth-1, ply+1, -beta, -alpha)
		pos.UnmakeMove(m, undo)

		if score > best {
			best = score
			bestMove = m
		}
		if score > alpha {
			alpha = score
		}
		if alpha >= beta {
			break
		}
	}

	bound := tt.Exact
	if best <= origAlpha {
		bound = tt.UpperBound
	} else if best >= beta {
		bound = tt.LowerBound
	}
	s.store(hash, depth, best, bound, bestMove, ply)

	return best
}

// probe and store encode mate-search entries with a negative depth so they
// are never confused with the main search's exact static-eval bounds, per
// the shared-TT-with-dedicated-generation requirement.
func (s *Searcher) probe(hash uint64) (tt.Entry, bool) {
	entry, found := s.table.Probe(hash)
	if !found || entry.Depth >= 0 {
		return tt.Entry{}, false
	}
	entry.Depth = -entry.Depth - 1
	return entry, true
}

func (s *Searcher) store(hash uint64, depth, score int, bound tt.Bound, move board.Move, ply int) {
	encodedDepth := -(depth + 1)
	s.table.Store(hash, encodedDepth, score, bound, move, ply)
}

// orderMateMoves orders legal moves: checks first (by MVV-LVA of a
// capture-of-attacker if the check is also a capture), then remaining
// captures, then quiet moves that restrict the enemy king to its own
// 5x5 neighborhood.
func orderMateMoves(pos *board.Position) []board.Move {
	legal := pos.GenerateLegalMoves()
	n := legal.Len()
	if n == 0 {
		return nil
	}

	enemyKingSq := pos.KingSquare[pos.SideToMove.Other()]

	var checks, captures, restricting, rest []board.Move
	for i := 0; i < n; i++ {
		m := legal.Get(i)
		switch {
		case ordering.GivesCheck(pos, m):
			checks = append(checks, m)
		case m.IsCapture(pos):
			captures = append(captures, m)
		case inKingNeighborhood(m.To(), enemyKingSq):
			restricting = append(restricting, m)
		default:
			rest = append(rest, m)
		}
	}

	sortByMVVLVA(pos, checks)
	sortByMVVLVA(pos, captures)

	out := make([]board.Move, 0, n)
	out = append(out, checks...)
	out = append(out, captures...)
	out = append(out, restricting...)
	out = append(out, rest...)
	return out
}

func sortByMVVLVA(pos *board.Position, moves []board.Move) {
	scores := make([]int, len(moves))
	for i, m := range moves {
		if !m.IsCapture(pos) {
			continue
		}
		attacker := pos.PieceAt(m.From())
		var victim board.PieceType
		if m.IsEnPassant() {
			victim = board.Pawn
		} else {
			victim = pos.PieceAt(m.To()).Type()
		}
		scores[i] = ordering.MVVLVAScore(victim, attacker.Type())
	}
	for i := 1; i < len(moves); i++ {
		j := i
		for j > 0 && scores[j-1] < scores[j] {
			scores[j-1], scores[j] = scores[j], scores[j-1]
			moves[j-1], moves[j] = moves[j], moves[j-1]
			j--
		}
	}
}

func inKingNeighborhood(sq, kingSq board.Square) bool {
	if kingSq == board.NoSquare {
		return false
	}
	fileDist := abs(int(sq)%8 - int(kingSq)%8)
	rankDist := abs(int(sq)/8 - int(kingSq)/8)
	return fileDist <= 2 && rankDist <= 2
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
