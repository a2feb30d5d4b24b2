package eval

import (
	"testing"

	"github.com/talonforge/chessforge/internal/board"
)

func TestClassicalEvalSymmetric(t *testing.T) {
	c := NewClassical(1)
	pos, err := board.ParseFEN("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN() error = %v", err)
	}

	score := c.Eval(pos)
	if score < -50 || score > 50 {
		t.Errorf("Eval(starting position) = %d, want near 0", score)
	}
}

func TestClassicalEvalFavorsMaterial(t *testing.T) {
	c := NewClassical(1)
	// White is up a rook.
	pos, err := board.ParseFEN("4k3/8/8/8/8/8/8/R3K3 w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN() error = %v", err)
	}

	score := c.Eval(pos)
	if score <= 0 {
		t.Errorf("Eval(white up a rook) = %d, want positive", score)
	}
}

func TestSigmoidFallbackPriorsSumToOne(t *testing.T) {
	c := NewClassical(1)
	fallback := NewSigmoidFallback(c)
	pos, err := board.ParseFEN("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN() error = %v", err)
	}

	priors, value := fallback.Infer(pos)
	if value < 0 || value > 1 {
		t.Errorf("Infer() value = %v, want in [0,1]", value)
	}

	var sum float64
	for _, p := range priors {
		sum += float64(p.Prior)
	}
	if sum < 0.99 || sum > 1.01 {
		t.Errorf("prior mass sums to %v, want ~1.0", sum)
	}
}

func TestSigmoidFallbackNoMovesReturnsEmptyPriors(t *testing.T) {
	c := NewClassical(1)
	fallback := NewSigmoidFallback(c)
	// Stalemate: black to move, no legal moves, not in check.
	pos, err := board.ParseFEN("7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN() error = %v", err)
	}

	priors, _ := fallback.Infer(pos)
	if len(priors) != 0 {
		t.Errorf("Infer() on stalemate returned %d priors, want 0", len(priors))
	}
}
