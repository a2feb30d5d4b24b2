package tt

import (
	"testing"

	"github.com/talonforge/chessforge/internal/board"
)

func TestStoreProbeRoundTrip(t *testing.T) {
	table := New(1)
	move := board.NewMove(board.E2, board.E4)

	table.Store(0xABCDEF, 8, 120, Exact, move, 0)

	entry, found := table.Probe(0xABCDEF)
	if !found {
		t.Fatal("Probe() did not find stored entry")
	}
	if entry.Depth != 8 || entry.Score != 120 || entry.Bound != Exact || entry.BestMove != move {
		t.Errorf("Probe() = %+v, want Depth=8 Score=120 Bound=Exact Move=%v", entry, move)
	}
}

func TestProbeMiss(t *testing.T) {
	table := New(1)
	if _, found := table.Probe(0x1234); found {
		t.Error("Probe() found an entry in an empty table")
	}
}

func TestReplacementPrefersGreaterDepth(t *testing.T) {
	table := New(1)
	move := board.NewMove(board.E2, board.E4)

	// Fill all slots of bucket 0 with shallow entries from the same age.
	for i := 0; i < slotsPerBucket; i++ {
		hash := uint64(i) << 40 // distinct keys, same bucket index (0)
		table.Store(hash, 1, 0, Exact, move, 0)
	}

	// A deep write for a brand new key should evict the shallowest occupant
	// rather than being dropped.
	newHash := uint64(slotsPerBucket) << 40
	table.Store(newHash, 20, 500, Exact, move, 0)

	entry, found := table.Probe(newHash)
	if !found {
		t.Fatal("deep entry was not retained after bucket was full")
	}
	if entry.Depth != 20 {
		t.Errorf("Depth = %d, want 20", entry.Depth)
	}
}

func TestNewSearchAgesOutStaleEntries(t *testing.T) {
	table := New(1)
	move := board.NewMove(board.E2, board.E4)

	staleHash := uint64(0) << 40
	table.Store(staleHash, 10, 0, Exact, move, 0)
	table.NewSearch()

	// A shallow write in the new generation should still be able to evict a
	// deep but stale-age entry once the bucket is full.
	for i := 1; i < slotsPerBucket; i++ {
		table.Store(uint64(i)<<40, 1, 0, Exact, move, 0)
	}
	table.Store(uint64(slotsPerBucket)<<40, 2, 0, Exact, move, 0)

	if _, found := table.Probe(staleHash); found {
		t.Error("stale-age deep entry survived replacement in a full bucket")
	}
}

func TestClearResetsState(t *testing.T) {
	table := New(1)
	move := board.NewMove(board.E2, board.E4)
	table.Store(0x42, 5, 10, Exact, move, 0)
	table.Probe(0x42)

	table.Clear()

	if _, found := table.Probe(0x42); found {
		t.Error("Probe() found entry after Clear()")
	}
	if table.HitRate() != 0 {
		t.Errorf("HitRate() after Clear() = %v, want 0", table.HitRate())
	}
}

func TestAdjustScoreRoundTrip(t *testing.T) {
	mateIn3 := MateScore - 5
	atRoot := AdjustScoreFromTT(adjustScoreToTT(mateIn3, 2), 2)
	if atRoot != mateIn3 {
		t.Errorf("AdjustScoreFromTT(adjustScoreToTT(x)) = %d, want %d", atRoot, mateIn3)
	}
}
