package ordering

import (
	"testing"

	"github.com/talonforge/chessforge/internal/board"
)

func TestScoreTTMoveIsHighest(t *testing.T) {
	o := New()
	pos := mustParseFEN(t, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	moves := pos.GenerateLegalMoves()
	tt := moves.Get(0)

	got := o.Score(pos, tt, tt, 0)
	if got != TTMoveScore {
		t.Errorf("Score(ttMove) = %d, want %d", got, TTMoveScore)
	}
}

func TestUpdateHistoryAsymmetric(t *testing.T) {
	o := New()
	pos := mustParseFEN(t, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	m := findMove(t, pos, board.E2, board.E4)

	o.UpdateHistory(board.White, m, 4, true)
	if got := o.HistoryScore(board.White, m); got != 16 {
		t.Errorf("HistoryScore after cutoff at depth 4 = %d, want 16", got)
	}

	o.UpdateHistory(board.White, m, 4, false)
	if got := o.HistoryScore(board.White, m); got != 12 {
		t.Errorf("HistoryScore after non-cutoff at depth 4 = %d, want 12", got)
	}
}

func TestUpdateKillersShiftsSlots(t *testing.T) {
	o := New()
	pos := mustParseFEN(t, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	m1 := findMove(t, pos, board.E2, board.E4)
	m2 := findMove(t, pos, board.D2, board.D4)

	o.UpdateKillers(m1, 0)
	o.UpdateKillers(m2, 0)

	if o.killers[0][0] != m2 || o.killers[0][1] != m1 {
		t.Errorf("killers[0] = %v, want [%v, %v]", o.killers[0], m2, m1)
	}
}

func TestSortMovesDescending(t *testing.T) {
	pos := mustParseFEN(t, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	moves := pos.GenerateLegalMoves()
	scores := make([]int, moves.Len())
	for i := range scores {
		scores[i] = moves.Len() - i
	}
	// scramble
	scores[0], scores[len(scores)-1] = scores[len(scores)-1], scores[0]

	SortMoves(moves, scores)

	for i := 1; i < len(scores); i++ {
		if scores[i-1] < scores[i] {
			t.Fatalf("scores not sorted descending at index %d: %v", i, scores)
		}
	}
}
