package hybrid

import (
	"testing"
	"time"

	"github.com/talonforge/chessforge/internal/board"
	"github.com/talonforge/chessforge/internal/eval"
	"github.com/talonforge/chessforge/internal/store"
	"github.com/talonforge/chessforge/internal/tablebase"
)

func newTestDriver(cfg store.EngineConfig) *Driver {
	classical := eval.NewClassical(1)
	oracle := eval.NewSigmoidFallback(classical)
	return New(cfg, classical, oracle, tablebase.NoopProber{})
}

func TestSearchAlphaBetaFindsBackRankMate(t *testing.T) {
	pos, err := board.ParseFEN("6k1/5ppp/8/8/8/8/8/R6K w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN() error = %v", err)
	}

	cfg := *store.DefaultEngineConfig()
	d := newTestDriver(cfg)

	info := d.Search(pos, Limits{Depth: 4, MateDepth: 5, Mode: store.ModeAlphaBeta})
	if info.BestMove.From() != board.A1 || info.BestMove.To() != board.A8 {
		t.Errorf("BestMove = %v, want a1a8", info.BestMove)
	}
}

func TestSearchMCTSReturnsLegalMove(t *testing.T) {
	pos, err := board.ParseFEN("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN() error = %v", err)
	}

	cfg := *store.DefaultEngineConfig()
	cfg.SearchMode = store.ModeMCTS
	d := newTestDriver(cfg)

	info := d.Search(pos, Limits{Mode: store.ModeMCTS, MCTSIterations: 64, FinalSelection: store.SelectionRobust})
	if info.BestMove == board.NoMove {
		t.Fatal("Search() returned no move")
	}
	if info.MCTSIterations == 0 {
		t.Error("MCTSIterations = 0, expected the MCTS run to report iterations")
	}
}

func TestWallTimeBudgetStopsSearchEarly(t *testing.T) {
	pos, err := board.ParseFEN("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN() error = %v", err)
	}

	cfg := *store.DefaultEngineConfig()
	d := newTestDriver(cfg)

	start := time.Now()
	d.Search(pos, Limits{Depth: 40, Mode: store.ModeAlphaBeta, WallTime: 20 * time.Millisecond})
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Search() took %v, expected the wall-time budget to cut it off quickly", elapsed)
	}
}

func TestTablebaseHitShortCircuitsMainSearch(t *testing.T) {
	pos, err := board.ParseFEN("4k3/8/8/8/8/8/8/4K2R w K - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN() error = %v", err)
	}

	cfg := *store.DefaultEngineConfig()
	classical := eval.NewClassical(1)
	oracle := eval.NewSigmoidFallback(classical)
	d := New(cfg, classical, oracle, stubTablebase{move: board.NewMove(board.H1, board.H8)})

	info := d.Search(pos, Limits{Depth: 10, Mode: store.ModeAlphaBeta})
	if info.BestMove.From() != board.H1 || info.BestMove.To() != board.H8 {
		t.Errorf("BestMove = %v, want the tablebase-supplied h1h8", info.BestMove)
	}
}

type stubTablebase struct {
	move board.Move
}

func (s stubTablebase) Probe(pos *board.Position) tablebase.ProbeResult {
	return tablebase.ProbeResult{Found: true, WDL: tablebase.WDLWin}
}

func (s stubTablebase) ProbeRoot(pos *board.Position) tablebase.RootResult {
	return tablebase.RootResult{Found: true, Move: s.move, WDL: tablebase.WDLWin}
}

func (s stubTablebase) MaxPieces() int { return 7 }
func (s stubTablebase) Available() bool { return true }

func TestSearchPersistsMateRecordAndStats(t *testing.T) {
	pos, err := board.ParseFEN("6k1/5ppp/8/8/8/8/8/R6K w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN() error = %v", err)
	}

	cfg := *store.DefaultEngineConfig()
	d := newTestDriver(cfg)
	persist, err := store.NewAt(t.TempDir())
	if err != nil {
		t.Fatalf("store.NewAt() error = %v", err)
	}
	defer persist.Close()
	d.SetPersistence(persist)

	info := d.Search(pos, Limits{Depth: 4, MateDepth: 5, Mode: store.ModeAlphaBeta})
	if info.BestMove.From() != board.A1 || info.BestMove.To() != board.A8 {
		t.Fatalf("BestMove = %v, want a1a8", info.BestMove)
	}

	rec, found, err := persist.LoadMateRecord(pos.Hash)
	if err != nil {
		t.Fatalf("LoadMateRecord() error = %v", err)
	}
	if !found || !rec.Resolved || rec.MateIn == 0 {
		t.Errorf("LoadMateRecord() = %+v, found=%v, want a resolved mate record", rec, found)
	}

	stats, err := persist.LoadStats()
	if err != nil {
		t.Fatalf("LoadStats() error = %v", err)
	}
	if stats.SearchesRun != 1 || stats.MateSearchHits != 1 {
		t.Errorf("stats = %+v, want one search recorded as a mate hit", stats)
	}

	// A second search of the same position should be answered from the
	// cached mate record without invoking the mate searcher again.
	info2 := d.Search(pos, Limits{Depth: 4, MateDepth: 5, Mode: store.ModeAlphaBeta})
	if info2.BestMove.From() != board.A1 || info2.BestMove.To() != board.A8 {
		t.Errorf("cached BestMove = %v, want a1a8", info2.BestMove)
	}

	stats2, err := persist.LoadStats()
	if err != nil {
		t.Fatalf("LoadStats() error = %v", err)
	}
	if stats2.SearchesRun != 2 {
		t.Errorf("SearchesRun = %d, want 2 after the cached hit", stats2.SearchesRun)
	}
}

func TestPerftStartingPosition(t *testing.T) {
	pos, err := board.ParseFEN("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN() error = %v", err)
	}

	want := []uint64{1, 20, 400, 8902}
	for depth, w := range want {
		if got := Perft(pos, depth); got != w {
			t.Errorf("Perft(%d) = %d, want %d", depth, got, w)
		}
	}
}
