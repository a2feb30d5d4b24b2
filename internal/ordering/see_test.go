package ordering

import (
	"testing"

	"github.com/talonforge/chessforge/internal/board"
)

func mustParseFEN(t *testing.T, fen string) *board.Position {
	t.Helper()
	pos, err := board.ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q) error = %v", fen, err)
	}
	return pos
}

func findMove(t *testing.T, pos *board.Position, from, to board.Square) board.Move {
	t.Helper()
	moves := pos.GenerateLegalMoves()
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		if m.From() == from && m.To() == to {
			return m
		}
	}
	t.Fatalf("no legal move from %v to %v", from, to)
	return board.NoMove
}

func TestSEEWinningCapture(t *testing.T) {
	// White pawn on e4 can take a hanging knight on d5.
	pos := mustParseFEN(t, "4k3/8/8/3n4/4P3/8/8/4K3 w - - 0 1")
	m := findMove(t, pos, board.E4, board.D5)

	got := SEE(pos, m)
	if got != KnightValue {
		t.Errorf("SEE(pawn takes hanging knight) = %d, want %d", got, KnightValue)
	}
}

func TestSEELosingCapture(t *testing.T) {
	// White queen takes a pawn defended by a knight; net loss.
	pos := mustParseFEN(t, "4k3/8/5n2/3p4/8/8/8/3QK3 w - - 0 1")
	m := findMove(t, pos, board.D1, board.D5)

	got := SEE(pos, m)
	if got >= 0 {
		t.Errorf("SEE(queen takes defended pawn) = %d, want negative", got)
	}
}
