package alphabeta

import (
	"sync/atomic"
	"testing"

	"github.com/talonforge/chessforge/internal/board"
	"github.com/talonforge/chessforge/internal/eval"
	"github.com/talonforge/chessforge/internal/tt"
)

func TestQuiescenceResolvesHangingCapture(t *testing.T) {
	pos, err := board.ParseFEN("4k3/8/8/3q4/4P3/8/8/4K3 w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN() error = %v", err)
	}

	s := newTestSearcher()
	var stop atomic.Bool
	s.stop = &stop
	score := s.quiescence(pos, 0, -Infinity, Infinity)

	if score <= 0 {
		t.Errorf("quiescence score = %d, want positive (white wins the queen)", score)
	}
}

func TestQuiescenceInCheckSearchesEvasions(t *testing.T) {
	pos, err := board.ParseFEN("4k3/8/8/8/8/8/4r3/4K3 w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN() error = %v", err)
	}

	s := New(tt.New(1), eval.NewClassical(1))
	var stop atomic.Bool
	s.stop = &stop
	score := s.quiescence(pos, 0, -Infinity, Infinity)

	if score < -Infinity {
		t.Errorf("quiescence score = %d, expected a bounded evasion score", score)
	}
}
