package mate

import (
	"sync/atomic"
	"testing"

	"github.com/talonforge/chessforge/internal/board"
	"github.com/talonforge/chessforge/internal/tt"
)

func TestBackRankMateInOne(t *testing.T) {
	pos, err := board.ParseFEN("6k1/5ppp/8/8/8/8/8/R6K w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN() error = %v", err)
	}

	s := New(tt.New(1))
	var stop atomic.Bool
	result := s.Search(pos, 1, &stop)

	if !result.Found {
		t.Fatal("Search() did not find the mate in 1")
	}
	if result.Move.From() != board.A1 || result.Move.To() != board.A8 {
		t.Errorf("Move = %v, want a1a8", result.Move)
	}
	if result.Score != MateScore-1 {
		t.Errorf("Score = %d, want %d", result.Score, MateScore-1)
	}
}

func TestNoMateReturnsNotFound(t *testing.T) {
	pos, err := board.ParseFEN("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN() error = %v", err)
	}

	s := New(tt.New(1))
	var stop atomic.Bool
	result := s.Search(pos, 3, &stop)

	if result.Found {
		t.Errorf("Search() reported a mate from the starting position: %+v", result)
	}
}

func TestCancellationStopsSearch(t *testing.T) {
	pos, err := board.ParseFEN("6k1/5ppp/8/8/8/8/8/R6K w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN() error = %v", err)
	}

	s := New(tt.New(1))
	var stop atomic.Bool
	stop.Store(true)

	result := s.Search(pos, 5, &stop)
	if result.Found {
		t.Error("Search() found a result despite being pre-cancelled")
	}
}
