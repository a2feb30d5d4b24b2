package ordering

import (
	"testing"

	"github.com/talonforge/chessforge/internal/board"
)

func TestTacticalMovesPutsCapturesBeforeChecks(t *testing.T) {
	// A position with both a winning capture (exd5) and a checking move (Ra8+) available.
	pos := mustParseFEN(t, "4k3/8/8/3n4/4P3/8/8/R3K3 w - - 0 1")
	tactical := TacticalMoves(pos)
	if len(tactical) == 0 {
		t.Fatal("TacticalMoves() returned no moves for a position with tactics available")
	}
	if !tactical[0].Move.IsCapture(pos) {
		t.Errorf("first tactical move = %s, want the capture ahead of the check", tactical[0].Move)
	}
}

func TestTacticalMovesDeduplicates(t *testing.T) {
	pos := mustParseFEN(t, "4k3/8/8/3n4/4P3/8/8/4K3 w - - 0 1")
	tactical := TacticalMoves(pos)

	seen := make(map[string]bool)
	for _, tm := range tactical {
		key := tm.Move.String()
		if seen[key] {
			t.Errorf("move %s appears more than once in tactical cursor", key)
		}
		seen[key] = true
	}
}

func TestKnightForkBonusDetectsDoubleAttack(t *testing.T) {
	// Knight on e5 forks a queen on c6 and a rook on g6.
	pos := mustParseFEN(t, "4k3/8/2q3r1/4N3/8/8/8/4K3 w - - 0 1")
	bonus := knightForkBonus(pos, board.E5, board.White)
	if bonus <= 0 {
		t.Errorf("knightForkBonus() = %d, want positive for a queen+rook fork", bonus)
	}
}

func TestKnightForkBonusNoForkForSingleTarget(t *testing.T) {
	pos := mustParseFEN(t, "4k3/8/2q5/4N3/8/8/8/4K3 w - - 0 1")
	bonus := knightForkBonus(pos, board.E5, board.White)
	if bonus != 0 {
		t.Errorf("knightForkBonus() = %d, want 0 for a single attacked piece", bonus)
	}
}
