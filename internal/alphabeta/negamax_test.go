package alphabeta

import (
	"sync/atomic"
	"testing"

	"github.com/talonforge/chessforge/internal/board"
	"github.com/talonforge/chessforge/internal/eval"
	"github.com/talonforge/chessforge/internal/tt"
)

func newTestSearcher() *Searcher {
	return New(tt.New(4), eval.NewClassical(1))
}

func TestSearchFindsBackRankMateInOne(t *testing.T) {
	pos, err := board.ParseFEN("6k1/5ppp/8/8/8/8/8/R6K w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN() error = %v", err)
	}

	s := newTestSearcher()
	var stop atomic.Bool
	info := s.Search(pos, Limits{MaxDepth: 3}, &stop)

	if info.BestMove.From() != board.A1 || info.BestMove.To() != board.A8 {
		t.Errorf("BestMove = %v, want a1a8", info.BestMove)
	}
	if info.Score < MateScore-10 {
		t.Errorf("Score = %d, want a mate score", info.Score)
	}
}

func TestSearchPrefersWinningMaterial(t *testing.T) {
	pos, err := board.ParseFEN("4k3/8/8/3n4/4P3/8/8/4K3 w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN() error = %v", err)
	}

	s := newTestSearcher()
	var stop atomic.Bool
	info := s.Search(pos, Limits{MaxDepth: 4}, &stop)

	if info.BestMove.From() != board.E4 || info.BestMove.To() != board.D5 {
		t.Errorf("BestMove = %v, want e4d5 (winning the knight)", info.BestMove)
	}
}

func TestSearchRespectsPreCancellation(t *testing.T) {
	pos, err := board.ParseFEN("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN() error = %v", err)
	}

	s := newTestSearcher()
	var stop atomic.Bool
	stop.Store(true)

	info := s.Search(pos, Limits{MaxDepth: 10}, &stop)
	if info.Depth > 1 {
		t.Errorf("Depth = %d, expected the search to stop almost immediately", info.Depth)
	}
	if info.BestMove == board.NoMove {
		t.Error("BestMove = NoMove, expected a legal-move fallback when cancelled before depth 1 completes")
	}
}

func TestNodesSearchedIncreasesWithDepth(t *testing.T) {
	pos, err := board.ParseFEN("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN() error = %v", err)
	}

	s := newTestSearcher()
	var stop atomic.Bool
	shallow := s.Search(pos, Limits{MaxDepth: 2}, &stop)

	s2 := newTestSearcher()
	deep := s2.Search(pos, Limits{MaxDepth: 4}, &stop)

	if deep.Nodes <= shallow.Nodes {
		t.Errorf("deep.Nodes = %d, shallow.Nodes = %d, expected deeper search to visit more nodes", deep.Nodes, shallow.Nodes)
	}
}
