package eval

import (
	"math"

	"github.com/talonforge/chessforge/internal/board"
	"github.com/talonforge/chessforge/internal/nnue"
	"github.com/talonforge/chessforge/internal/ordering"
)

// Evaluator is the capability interface the search core consumes for static
// position scores, from the side-to-move's perspective in centipawns.
type Evaluator interface {
	Eval(pos *board.Position) int
}

// ClassicalFunc adapts the package-level tapered evaluator to the Evaluator
// interface, backed by a pawn hash table shared across a search.
type ClassicalFunc struct {
	pawnTable *PawnTable
}

// NewClassical creates the tapered piece-square evaluator with its own
// pawn structure cache.
func NewClassical(pawnHashMB int) *ClassicalFunc {
	if pawnHashMB < 1 {
		pawnHashMB = 1
	}
	return &ClassicalFunc{pawnTable: NewPawnTable(pawnHashMB)}
}

// Eval implements Evaluator.
func (c *ClassicalFunc) Eval(pos *board.Position) int {
	return EvaluateWithPawnTable(pos, c.pawnTable)
}

// ClearCache drops cached pawn-structure scores, e.g. on a new-game signal.
func (c *ClassicalFunc) ClearCache() {
	c.pawnTable.Clear()
}

// NNUEFunc adapts the neural evaluator to the Evaluator interface.
type NNUEFunc struct {
	net *nnue.Evaluator
}

// NewNNUE loads (or, if weightsFile is empty, randomly initializes for
// testing) an NNUE network and wraps it as an Evaluator.
func NewNNUE(weightsFile string) (*NNUEFunc, error) {
	net, err := nnue.NewEvaluator(weightsFile)
	if err != nil {
		return nil, err
	}
	return &NNUEFunc{net: net}, nil
}

// Eval implements Evaluator.
func (n *NNUEFunc) Eval(pos *board.Position) int {
	return n.net.Evaluate(pos)
}

// Push, Pop, and Update forward to the underlying incremental accumulator so
// the search can keep NNUE features in sync with make/unmake without a full
// recomputation at every node.
func (n *NNUEFunc) Push()                    { n.net.Push() }
func (n *NNUEFunc) Pop()                     { n.net.Pop() }
func (n *NNUEFunc) Refresh(pos *board.Position) { n.net.Refresh(pos) }
func (n *NNUEFunc) Update(pos *board.Position, m board.Move, captured board.Piece) {
	n.net.Update(pos, m, captured)
}

// PolicyPrior pairs a legal move with the probability mass the oracle
// assigns it.
type PolicyPrior struct {
	Move  board.Move
	Prior float32
}

// PolicyValue is the optional oracle MCTS consults for non-tactical priors
// and node values. Value is in [0, 1] from the side to move's perspective.
type PolicyValue interface {
	Infer(pos *board.Position) (priors []PolicyPrior, value float32)
}

// SigmoidFallback implements PolicyValue without a trained policy network:
// it converts the wrapped Evaluator's centipawn score to a win probability
// via a logistic curve and spreads prior mass over legal moves in
// proportion to their move-ordering score, which is the degrade path the
// driver falls back to when no oracle is configured or the oracle errors.
type SigmoidFallback struct {
	evaluator Evaluator
	orderer   *ordering.Orderer
}

// NewSigmoidFallback builds the always-available oracle substitute.
func NewSigmoidFallback(evaluator Evaluator) *SigmoidFallback {
	return &SigmoidFallback{evaluator: evaluator, orderer: ordering.New()}
}

// Infer implements PolicyValue.
func (s *SigmoidFallback) Infer(pos *board.Position) ([]PolicyPrior, float32) {
	cp := s.evaluator.Eval(pos)
	value := float32(1 / (1 + math.Exp(-float64(cp)/400)))

	moves := pos.GenerateLegalMoves()
	n := moves.Len()
	if n == 0 {
		return nil, value
	}

	scores := make([]float64, n)
	total := 0.0
	minScore := math.Inf(1)
	for i := 0; i < n; i++ {
		sc := float64(s.orderer.Score(pos, moves.Get(i), board.NoMove, 0))
		scores[i] = sc
		if sc < minScore {
			minScore = sc
		}
	}
	// Shift so the smallest score is a small positive weight, then
	// normalize into a probability distribution summing to 1.
	for i := range scores {
		scores[i] = scores[i] - minScore + 1
		total += scores[i]
	}

	priors := make([]PolicyPrior, n)
	for i := 0; i < n; i++ {
		priors[i] = PolicyPrior{Move: moves.Get(i), Prior: float32(scores[i] / total)}
	}
	return priors, value
}
