// Package mcts implements tactical-first Monte Carlo Tree Search: a tree
// whose nodes drain a precomputed tactical move queue before any PUCT
// selection or policy/value oracle call, so that exact tactics are never
// starved by network priors.
package mcts

import (
	"github.com/talonforge/chessforge/internal/board"
	"github.com/talonforge/chessforge/internal/ordering"
)

// Edge is one move leading out of a node. Child is -1 until the move has
// been selected at least once, at which point the child node is allocated
// lazily in the arena.
type Edge struct {
	Move     board.Move
	Child    int32
	Prior    float32
	Tactical bool
}

// Node owns the edges out of one position and the running statistics
// backpropagation accumulates there. TotalValue and M2 are always stored
// from White's perspective; perspective handling happens only at selection
// and final-move-choice time.
type Node struct {
	ToMove             board.Color
	Edges              []Edge
	TacticalOrder      []int
	TacticalPos        int
	PolicyMaterialized bool
	Terminal           bool
	HasTerminalValue   bool
	TerminalValue      float64

	Visits     int
	TotalValue float64
	M2         float64
}

// newNode builds the node for the current position: legal moves become
// edges, the tactical cursor is computed once up front, and positions with
// no legal replies are resolved to a terminal value immediately.
func newNode(pos *board.Position) Node {
	n := Node{ToMove: pos.SideToMove}

	moves := pos.GenerateLegalMoves()
	if moves.Len() == 0 {
		n.Terminal = true
		n.HasTerminalValue = true
		if pos.InCheck() {
			if pos.SideToMove == board.White {
				n.TerminalValue = 0.0
			} else {
				n.TerminalValue = 1.0
			}
		} else {
			n.TerminalValue = 0.5
		}
		return n
	}

	n.Edges = make([]Edge, moves.Len())
	for i := 0; i < moves.Len(); i++ {
		n.Edges[i] = Edge{Move: moves.Get(i), Child: -1}
	}

	tactical := ordering.TacticalMoves(pos)
	for _, tm := range tactical {
		for i := range n.Edges {
			if n.Edges[i].Tactical || n.Edges[i].Move != tm.Move {
				continue
			}
			n.Edges[i].Tactical = true
			n.Edges[i].Prior = 1
			n.TacticalOrder = append(n.TacticalOrder, i)
			break
		}
	}

	return n
}

// nodeQ returns the node's mean value from side's perspective. Unvisited
// nodes default to 0.5 so first-play-urgency has a defined parent anchor.
func nodeQ(n *Node, side board.Color) float64 {
	if n.Visits == 0 {
		return 0.5
	}
	whitePOV := n.TotalValue / float64(n.Visits)
	if side == board.White {
		return whitePOV
	}
	return 1 - whitePOV
}
