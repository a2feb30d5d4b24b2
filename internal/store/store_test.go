package store

import (
	"testing"

	"github.com/talonforge/chessforge/internal/board"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewAt(t.TempDir())
	if err != nil {
		t.Fatalf("NewAt() error = %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return s
}

func TestConfigRoundTrip(t *testing.T) {
	s := newTestStore(t)

	cfg, err := s.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.SearchMode != ModeAlphaBeta {
		t.Errorf("default SearchMode = %v, want ModeAlphaBeta", cfg.SearchMode)
	}

	cfg.SearchMode = ModeMCTS
	cfg.CPuct = 2.0
	if err := s.SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig() error = %v", err)
	}

	reloaded, err := s.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if reloaded.SearchMode != ModeMCTS {
		t.Errorf("SearchMode = %v, want ModeMCTS", reloaded.SearchMode)
	}
	if reloaded.CPuct != 2.0 {
		t.Errorf("CPuct = %v, want 2.0", reloaded.CPuct)
	}
}

func TestStatsAccumulate(t *testing.T) {
	s := newTestStore(t)

	if err := s.RecordSearch(1000, 10, false, false, 50, 100); err != nil {
		t.Fatalf("RecordSearch() error = %v", err)
	}
	if err := s.RecordSearch(2000, 20, true, false, 80, 150); err != nil {
		t.Fatalf("RecordSearch() error = %v", err)
	}

	stats, err := s.LoadStats()
	if err != nil {
		t.Fatalf("LoadStats() error = %v", err)
	}
	if stats.SearchesRun != 2 {
		t.Errorf("SearchesRun = %d, want 2", stats.SearchesRun)
	}
	if stats.TotalNodes != 3000 {
		t.Errorf("TotalNodes = %d, want 3000", stats.TotalNodes)
	}
	if stats.MateSearchHits != 1 {
		t.Errorf("MateSearchHits = %d, want 1", stats.MateSearchHits)
	}
	if got, want := stats.AverageDepth(), 15.0; got != want {
		t.Errorf("AverageDepth() = %v, want %v", got, want)
	}
}

func TestMateRecordRoundTrip(t *testing.T) {
	s := newTestStore(t)

	key := uint64(0xC0FFEE1234)
	if _, found, err := s.LoadMateRecord(key); err != nil {
		t.Fatalf("LoadMateRecord() error = %v", err)
	} else if found {
		t.Fatal("LoadMateRecord() found a record before any was saved")
	}

	rec := MateRecord{
		Key:      key,
		MateIn:   5,
		Move:     board.NewMove(board.E2, board.E4),
		Depth:    12,
		Resolved: true,
	}
	if err := s.SaveMateRecord(rec); err != nil {
		t.Fatalf("SaveMateRecord() error = %v", err)
	}

	loaded, found, err := s.LoadMateRecord(key)
	if err != nil {
		t.Fatalf("LoadMateRecord() error = %v", err)
	}
	if !found {
		t.Fatal("LoadMateRecord() did not find saved record")
	}
	if loaded.MateIn != 5 || loaded.Depth != 12 || !loaded.Resolved {
		t.Errorf("LoadMateRecord() = %+v, want MateIn=5 Depth=12 Resolved=true", loaded)
	}

	if err := s.ClearAnalysisCache(); err != nil {
		t.Fatalf("ClearAnalysisCache() error = %v", err)
	}
	if _, found, err := s.LoadMateRecord(key); err != nil {
		t.Fatalf("LoadMateRecord() error = %v", err)
	} else if found {
		t.Error("LoadMateRecord() found record after ClearAnalysisCache")
	}
}
