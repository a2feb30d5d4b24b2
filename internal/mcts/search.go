package mcts

import (
	"math"
	"sync/atomic"

	"github.com/talonforge/chessforge/internal/board"
	"github.com/talonforge/chessforge/internal/eval"
	"github.com/talonforge/chessforge/internal/mate"
	"github.com/talonforge/chessforge/internal/store"
)

const defaultCPuct = math.Sqrt2

// Info summarizes one completed MCTS run for the hybrid driver's reporting.
type Info struct {
	BestMove      board.Move
	Iterations    int
	RootVisits    int
	MateResolved  int
	OracleQueries int
}

type pathStep struct {
	nodeIdx int32
	move    board.Move
	undo    board.UndoInfo
}

// Search runs tactical-first MCTS iterations over a single position. It
// owns an arena of nodes and descends it with a make/unmake move stack, so
// the only extra memory per iteration is the path taken this round.
type Search struct {
	tree         []Node
	mateSearcher *mate.Searcher
	oracle       eval.PolicyValue
	mateDepth    int
	cPuct        float64
	fpuReduction float64

	mateResolved  int
	oracleQueries int
}

// New builds an MCTS search sharing a mate searcher (for the mate-search-
// first terminal check) and a policy/value oracle (trained, or the sigmoid
// fallback) with the rest of the hybrid driver.
func New(mateSearcher *mate.Searcher, oracle eval.PolicyValue, cPuct, fpuReduction float64, mateDepth int) *Search {
	if cPuct <= 0 {
		cPuct = defaultCPuct
	}
	if mateDepth <= 0 {
		mateDepth = 3
	}
	return &Search{
		mateSearcher: mateSearcher,
		oracle:       oracle,
		mateDepth:    mateDepth,
		cPuct:        cPuct,
		fpuReduction: fpuReduction,
	}
}

// Run grows a fresh tree rooted at pos for up to iterations rounds of
// select/expand/evaluate/backpropagate, then returns the configured final
// move choice. pos is restored to its original state before returning.
func (s *Search) Run(pos *board.Position, iterations int, strategy store.FinalSelection, k float64, stop *atomic.Bool) Info {
	s.tree = s.tree[:0]
	s.mateResolved = 0
	s.oracleQueries = 0

	s.tree = append(s.tree, newNode(pos))
	root := int32(0)

	ran := 0
	for i := 0; i < iterations; i++ {
		if i%64 == 0 && stop != nil && stop.Load() {
			break
		}
		s.runIteration(pos, root)
		ran++
	}

	return Info{
		BestMove:      s.selectBestMove(root, strategy, k),
		Iterations:    ran,
		RootVisits:    s.tree[root].Visits,
		MateResolved:  s.mateResolved,
		OracleQueries: s.oracleQueries,
	}
}

func (s *Search) runIteration(pos *board.Position, root int32) {
	var path []pathStep
	idx := root

	for {
		node := &s.tree[idx]
		if node.Terminal {
			break
		}

		if node.TacticalPos < len(node.TacticalOrder) {
			ei := node.TacticalOrder[node.TacticalPos]
			s.tree[idx].TacticalPos++
			idx = s.descend(pos, idx, ei, &path)
			continue
		}

		if !node.PolicyMaterialized {
			break
		}

		ei := s.selectPUCT(idx)
		if ei < 0 {
			break
		}
		idx = s.descend(pos, idx, ei, &path)
	}

	value := s.evaluateStop(pos, idx)

	s.tree[idx].Visits++
	s.tree[idx].TotalValue += value
	s.tree[idx].M2 += value * value

	for i := len(path) - 1; i >= 0; i-- {
		st := path[i]
		pos.UnmakeMove(st.move, st.undo)
		s.tree[st.nodeIdx].Visits++
		s.tree[st.nodeIdx].TotalValue += value
		s.tree[st.nodeIdx].M2 += value * value
	}
}

// descend makes the move on edge ei of node idx, allocating its child
// lazily, and returns the child's arena index. It never keeps a pointer
// into s.tree across the append that may grow the arena.
func (s *Search) descend(pos *board.Position, idx int32, ei int, path *[]pathStep) int32 {
	move := s.tree[idx].Edges[ei].Move
	undo := pos.MakeMove(move)
	*path = append(*path, pathStep{nodeIdx: idx, move: move, undo: undo})

	child := s.tree[idx].Edges[ei].Child
	if child < 0 {
		s.tree = append(s.tree, newNode(pos))
		child = int32(len(s.tree) - 1)
		s.tree[idx].Edges[ei].Child = child
	}
	return child
}

func (s *Search) selectPUCT(idx int32) int {
	node := &s.tree[idx]
	if len(node.Edges) == 0 {
		return -1
	}
	sqrtParent := math.Sqrt(float64(node.Visits))
	parentQ := nodeQ(node, node.ToMove)

	best := -1
	bestScore := math.Inf(-1)
	for i := range node.Edges {
		e := &node.Edges[i]
		q := parentQ - s.fpuReduction
		childVisits := 0
		if e.Child >= 0 {
			child := &s.tree[e.Child]
			childVisits = child.Visits
			if child.Visits > 0 {
				q = nodeQ(child, node.ToMove)
			}
		}
		score := q + s.cPuct*float64(e.Prior)*sqrtParent/(1+float64(childVisits))
		if score > bestScore {
			bestScore = score
			best = i
		}
	}
	return best
}

// evaluateStop resolves the value of a descent-stop node, in the order the
// spec prescribes: cached terminal value, fresh terminal detection, a
// bounded mate search, then the policy/value oracle.
func (s *Search) evaluateStop(pos *board.Position, idx int32) float64 {
	node := &s.tree[idx]
	if node.HasTerminalValue {
		return node.TerminalValue
	}

	if pos.IsDraw() || pos.HalfMoveClock >= 100 || pos.IsInsufficientMaterial() {
		node.HasTerminalValue = true
		node.TerminalValue = 0.5
		return 0.5
	}

	var mateStop atomic.Bool
	mateResult := s.mateSearcher.Search(pos, s.mateDepth, &mateStop)
	if mateResult.Found {
		s.mateResolved++
		v := 0.0
		if pos.SideToMove == board.White {
			v = 1.0
		}
		node.HasTerminalValue = true
		node.TerminalValue = v
		return v
	}

	priors, value := s.oracle.Infer(pos)
	s.oracleQueries++
	for _, p := range priors {
		for i := range node.Edges {
			if !node.Edges[i].Tactical && node.Edges[i].Move == p.Move {
				node.Edges[i].Prior = p.Prior
				break
			}
		}
	}
	node.PolicyMaterialized = true

	whiteValue := float64(value)
	if pos.SideToMove == board.Black {
		whiteValue = 1 - whiteValue
	}
	return whiteValue
}

func (s *Search) selectBestMove(root int32, strategy store.FinalSelection, k float64) board.Move {
	rootNode := &s.tree[root]
	if len(rootNode.Edges) == 0 {
		return board.NoMove
	}
	if strategy == store.SelectionPessimistic {
		if m := s.selectPessimistic(rootNode, k); m != board.NoMove {
			return m
		}
	}
	return s.selectRobust(rootNode)
}

// selectRobust picks the most-visited child, mate-proven wins always
// winning the comparison and ties broken by higher Q.
func (s *Search) selectRobust(root *Node) board.Move {
	best := -1
	bestVisits := -1
	bestQ := math.Inf(-1)
	bestMateProven := false
	winValue := 1.0
	if root.ToMove == board.Black {
		winValue = 0.0
	}

	for i := range root.Edges {
		e := &root.Edges[i]
		if e.Child < 0 {
			continue
		}
		child := &s.tree[e.Child]
		visits := child.Visits
		q := nodeQ(child, root.ToMove)
		mateProven := child.HasTerminalValue && child.TerminalValue == winValue

		better := false
		switch {
		case mateProven && !bestMateProven:
			better = true
		case mateProven == bestMateProven && visits > bestVisits:
			better = true
		case mateProven == bestMateProven && visits == bestVisits && q > bestQ:
			better = true
		}
		if better {
			best, bestVisits, bestQ, bestMateProven = i, visits, q, mateProven
		}
	}

	if best < 0 {
		return root.Edges[0].Move
	}
	return root.Edges[best].Move
}

// selectPessimistic picks the child with the highest value lower-confidence
// bound, flipping the bound's sense when Black is to move at the root.
func (s *Search) selectPessimistic(root *Node, k float64) board.Move {
	best := -1
	bestScore := math.Inf(-1)

	for i := range root.Edges {
		e := &root.Edges[i]
		if e.Child < 0 {
			continue
		}
		child := &s.tree[e.Child]
		if child.Visits == 0 {
			continue
		}
		whiteQ := child.TotalValue / float64(child.Visits)
		variance := child.M2/float64(child.Visits) - whiteQ*whiteQ
		if variance < 0 {
			variance = 0
		}
		sigmaHat := math.Sqrt(variance) / math.Sqrt(float64(child.Visits))

		var score float64
		if root.ToMove == board.White {
			score = whiteQ - k*sigmaHat
		} else {
			score = 1 - whiteQ - k*sigmaHat
		}
		if score > bestScore {
			bestScore = score
			best = i
		}
	}

	if best < 0 {
		return board.NoMove
	}
	return root.Edges[best].Move
}
