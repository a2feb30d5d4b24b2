// Package alphabeta implements the classical iterative-deepening negamax
// search: fail-soft alpha-beta with mate distance pruning, null-move
// pruning, late move reductions, principal variation search, and
// quiescence, all running on a single execution context.
package alphabeta

import (
	"sync/atomic"

	"github.com/talonforge/chessforge/internal/board"
	"github.com/talonforge/chessforge/internal/eval"
	"github.com/talonforge/chessforge/internal/ordering"
	"github.com/talonforge/chessforge/internal/tt"
)

const (
	Infinity  = 30000
	MateScore = tt.MateScore
	MaxPly    = tt.MaxPly
)

const pollInterval = 2048

// PV records the principal variation discovered at the root.
type PV struct {
	length [MaxPly]int
	moves  [MaxPly][MaxPly]board.Move
}

// Line returns the recorded principal variation as a move slice.
func (pv *PV) Line() []board.Move {
	n := pv.length[0]
	out := make([]board.Move, n)
	copy(out, pv.moves[0][:n])
	return out
}

// Searcher runs one alpha-beta search over a shared transposition table.
// It is single-threaded: the only cross-context state it touches is the
// stop flag and the node counter the driver reads for progress reporting.
type Searcher struct {
	table       *tt.Table
	evaluator   eval.Evaluator
	orderer     *ordering.Orderer
	corrHistory *CorrectionHistory

	posHistory []uint64
	evalStack  [MaxPly]int
	pv         PV

	nodes uint64
	stop  *atomic.Bool
}

// New creates a searcher sharing the given transposition table and static
// evaluator with the rest of the hybrid driver.
func New(table *tt.Table, evaluator eval.Evaluator) *Searcher {
	return &Searcher{
		table:       table,
		evaluator:   evaluator,
		orderer:     ordering.New(),
		corrHistory: NewCorrectionHistory(),
	}
}

// NodesSearched returns the node count from the most recent search.
func (s *Searcher) NodesSearched() uint64 {
	return s.nodes
}

// SetRootHistory seeds repetition detection with the game's move history up
// to (but not including) the root position being searched.
func (s *Searcher) SetRootHistory(hashes []uint64) {
	s.posHistory = append(s.posHistory[:0], hashes...)
}

// NewSearch resets per-search ordering and TT generation state.
func (s *Searcher) NewSearch() {
	s.orderer.Clear()
	s.table.NewSearch()
}

func (s *Searcher) cancelled() bool {
	return s.stop != nil && s.stop.Load()
}

func (s *Searcher) isDraw(pos *board.Position) bool {
	if pos.HalfMoveClock >= 100 {
		return true
	}
	if pos.IsInsufficientMaterial() {
		return true
	}
	if len(s.posHistory) == 0 {
		return false
	}
	current := pos.Hash
	count := 0
	for _, h := range s.posHistory {
		if h == current {
			count++
			if count >= 2 {
				return true
			}
		}
	}
	return false
}

func (s *Searcher) evaluate(pos *board.Position) int {
	return s.evaluator.Eval(pos) + s.corrHistory.Get(pos)
}
