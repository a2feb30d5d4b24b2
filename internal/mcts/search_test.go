package mcts

import (
	"sync/atomic"
	"testing"

	"github.com/talonforge/chessforge/internal/board"
	"github.com/talonforge/chessforge/internal/eval"
	"github.com/talonforge/chessforge/internal/mate"
	"github.com/talonforge/chessforge/internal/store"
	"github.com/talonforge/chessforge/internal/tt"
)

func newTestSearch() *Search {
	classical := eval.NewClassical(1)
	oracle := eval.NewSigmoidFallback(classical)
	mateSearcher := mate.New(tt.New(1))
	return New(mateSearcher, oracle, 0, 0.2, 3)
}

func TestRunDrainsTacticalCursorBeforePUCT(t *testing.T) {
	pos, err := board.ParseFEN("4k3/8/8/3n4/4P3/8/8/4K3 w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN() error = %v", err)
	}

	s := newTestSearch()
	var stop atomic.Bool
	info := s.Run(pos, 32, store.SelectionRobust, 1.0, &stop)

	if info.BestMove.From() != board.E4 || info.BestMove.To() != board.D5 {
		t.Errorf("BestMove = %v, want e4d5 (the only tactical capture)", info.BestMove)
	}
}

func TestRunFindsForcedMate(t *testing.T) {
	pos, err := board.ParseFEN("6k1/5ppp/8/8/8/8/8/R6K w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN() error = %v", err)
	}

	s := newTestSearch()
	var stop atomic.Bool
	info := s.Run(pos, 64, store.SelectionRobust, 1.0, &stop)

	if info.BestMove.From() != board.A1 || info.BestMove.To() != board.A8 {
		t.Errorf("BestMove = %v, want a1a8", info.BestMove)
	}
	if info.MateResolved == 0 {
		t.Error("MateResolved = 0, expected the bounded mate search to resolve at least one leaf")
	}
}

func TestRunRespectsPositionRestoration(t *testing.T) {
	pos, err := board.ParseFEN("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN() error = %v", err)
	}
	originalHash := pos.Hash

	s := newTestSearch()
	var stop atomic.Bool
	s.Run(pos, 32, store.SelectionRobust, 1.0, &stop)

	if pos.Hash != originalHash {
		t.Errorf("Hash after Run() = %x, want %x (position must be restored)", pos.Hash, originalHash)
	}
}

func TestRunRespectsPreCancellation(t *testing.T) {
	pos, err := board.ParseFEN("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN() error = %v", err)
	}

	s := newTestSearch()
	var stop atomic.Bool
	stop.Store(true)

	info := s.Run(pos, 1000, store.SelectionRobust, 1.0, &stop)
	if info.Iterations != 0 {
		t.Errorf("Iterations = %d, want 0 when pre-cancelled", info.Iterations)
	}
}
