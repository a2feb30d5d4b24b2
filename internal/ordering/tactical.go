package ordering

import (
	"github.com/talonforge/chessforge/internal/board"
)

// forkBonus scores a quiet move for its tactical shape: a knight or pawn
// move that lands on a square attacking two or more valuable enemy pieces,
// or a move that gives check.
func forkBonus(pos *board.Position, m board.Move) int {
	piece := pos.PieceAt(m.From())
	if piece == board.NoPiece {
		return 0
	}

	bonus := 0
	switch piece.Type() {
	case board.Knight:
		bonus += knightForkBonus(pos, m.To(), piece.Color())
	case board.Pawn:
		bonus += pawnForkBonus(pos, m.To(), piece.Color())
	}

	if givesCheck(pos, m) {
		bonus += checkBonus(m.To())
	}

	return bonus
}

// knightForkBonus counts enemy pieces of at least knight value attacked
// from the destination square; two or more is a fork.
func knightForkBonus(pos *board.Position, to board.Square, us board.Color) int {
	them := us.Other()
	attacks := board.KnightAttacks(to)

	count := 0
	value := 0
	for pt := board.Knight; pt <= board.Queen; pt++ {
		targets := pos.Pieces[them][pt] & attacks
		n := targets.PopCount()
		if n > 0 {
			count += n
			value += n * PieceValue(pt)
		}
	}

	if count >= 2 {
		return value - KnightValue
	}
	return 0
}

// pawnForkBonus checks whether the pawn's two diagonal attack squares hit
// two or more enemy non-pawn pieces.
func pawnForkBonus(pos *board.Position, to board.Square, us board.Color) int {
	them := us.Other()
	attacks := board.PawnAttacks(to, us)

	count := 0
	value := 0
	for pt := board.Knight; pt <= board.Queen; pt++ {
		targets := pos.Pieces[them][pt] & attacks
		n := targets.PopCount()
		if n > 0 {
			count += n
			value += n * PieceValue(pt)
		}
	}

	if count >= 2 {
		return value - PawnValue
	}
	return 0
}

func checkBonus(to board.Square) int {
	// Small flat bonus plus a mild centrality adjustment: checks delivered
	// from central squares tend to restrict the king more.
	file := int(to) % 8
	rank := int(to) / 8
	centerDistance := abs(file-3) + abs(rank-3)
	return 5000 - centerDistance*100
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// givesCheck reports whether making m leaves the opponent in check.
func givesCheck(pos *board.Position, m board.Move) bool {
	return GivesCheck(pos, m)
}

// GivesCheck reports whether making m leaves the opponent in check.
func GivesCheck(pos *board.Position, m board.Move) bool {
	undo := pos.MakeMove(m)
	inCheck := pos.InCheck()
	pos.UnmakeMove(m, undo)
	return inCheck
}

// TacticalMove is one entry in a node's precomputed tactical cursor.
type TacticalMove struct {
	Move  board.Move
	Score int
}

// TacticalMoves computes the ordered tactical cursor for a position: winning
// and equal captures by MVV-LVA (losing captures appended at the tail),
// then knight forks, then pawn forks, then non-capture checks. Moves are
// de-duplicated by identity, keeping the earliest category they appear in.
func TacticalMoves(pos *board.Position) []TacticalMove {
	legal := pos.GenerateLegalMoves()
	seen := make(map[board.Move]bool, legal.Len())

	var goodCaptures, badCaptures, knightForks, pawnForks, checks []TacticalMove

	for i := 0; i < legal.Len(); i++ {
		m := legal.Get(i)
		if seen[m] {
			continue
		}

		if m.IsCapture(pos) {
			seen[m] = true
			see := SEE(pos, m)
			attacker := pos.PieceAt(m.From())
			var victim board.PieceType
			if m.IsEnPassant() {
				victim = board.Pawn
			} else {
				victim = pos.PieceAt(m.To()).Type()
			}
			score := mvvLvaScore(victim, attacker.Type())
			if see >= 0 {
				goodCaptures = append(goodCaptures, TacticalMove{m, score})
			} else {
				badCaptures = append(badCaptures, TacticalMove{m, score})
			}
			continue
		}

		piece := pos.PieceAt(m.From())
		if piece.Type() == board.Knight {
			if bonus := knightForkBonus(pos, m.To(), piece.Color()); bonus > 0 {
				seen[m] = true
				knightForks = append(knightForks, TacticalMove{m, bonus})
				continue
			}
		}
		if piece.Type() == board.Pawn {
			if bonus := pawnForkBonus(pos, m.To(), piece.Color()); bonus > 0 {
				seen[m] = true
				pawnForks = append(pawnForks, TacticalMove{m, bonus})
				continue
			}
		}

		if givesCheck(pos, m) {
			seen[m] = true
			checks = append(checks, TacticalMove{m, checkBonus(m.To())})
		}
	}

	sortByScoreDesc(goodCaptures)
	sortByScoreDesc(badCaptures)
	sortByScoreDesc(knightForks)
	sortByScoreDesc(pawnForks)
	sortByScoreDesc(checks)

	out := make([]TacticalMove, 0, len(goodCaptures)+len(badCaptures)+len(knightForks)+len(pawnForks)+len(checks))
	out = append(out, goodCaptures...)
	out = append(out, knightForks...)
	out = append(out, pawnForks...)
	out = append(out, checks...)
	out = append(out, badCaptures...)
	return out
}

func sortByScoreDesc(moves []TacticalMove) {
	for i := 1; i < len(moves); i++ {
		j := i
		for j > 0 && moves[j-1].Score < moves[j].Score {
			moves[j-1], moves[j] = moves[j], moves[j-1]
			j--
		}
	}
}
