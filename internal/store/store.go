package store

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"

	"github.com/talonforge/chessforge/internal/board"
)

// Storage keys
const (
	keyConfig = "engine/config"
	keyStats  = "engine/stats"
)

const mateCachePrefix = "mate/"

// EvalMode selects which Evaluator backs the search: the tapered
// piece-square evaluator or the NNUE network.
type EvalMode int

const (
	EvalClassical EvalMode = iota
	EvalNNUE
)

// SearchMode selects the main search algorithm the hybrid driver runs
// after the tablebase and mate-search stages have been tried.
type SearchMode int

const (
	ModeAlphaBeta SearchMode = iota
	ModeMCTS
)

// FinalSelection selects how MCTS picks its root move once search stops.
type FinalSelection int

const (
	SelectionRobust FinalSelection = iota
	SelectionPessimistic
)

// EngineConfig holds the persisted engine configuration.
type EngineConfig struct {
	EvalMode       EvalMode       `json:"eval_mode"`
	SearchMode     SearchMode     `json:"search_mode"`
	FinalSelection FinalSelection `json:"final_selection"`
	TTSizeMB       int            `json:"tt_size_mb"`
	CPuct          float64        `json:"c_puct"`
	FPUReduction   float64        `json:"fpu_reduction"`
	PessimismK     float64        `json:"pessimism_k"`
	LastUpdated    time.Time      `json:"last_updated"`
}

// DefaultEngineConfig returns the configuration a fresh install starts with.
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		EvalMode:       EvalClassical,
		SearchMode:     ModeAlphaBeta,
		FinalSelection: SelectionRobust,
		TTSizeMB:       64,
		CPuct:          1.41421356, // sqrt(2)
		FPUReduction:   0.2,
		PessimismK:     1.0,
		LastUpdated:    time.Now(),
	}
}

// SearchStats accumulates lifetime search telemetry across runs, the way a
// UCI front-end might track engine performance between sessions.
type SearchStats struct {
	SearchesRun      int64 `json:"searches_run"`
	TotalNodes       int64 `json:"total_nodes"`
	TotalDepthPlies  int64 `json:"total_depth_plies"`
	MateSearchHits   int64 `json:"mate_search_hits"`
	OracleFallbacks  int64 `json:"oracle_fallbacks"`
	TTHitsRecorded   int64 `json:"tt_hits_recorded"`
	TTProbesRecorded int64 `json:"tt_probes_recorded"`
}

// AverageDepth returns the mean depth reached across recorded searches.
func (s *SearchStats) AverageDepth() float64 {
	if s.SearchesRun == 0 {
		return 0
	}
	return float64(s.TotalDepthPlies) / float64(s.SearchesRun)
}

// MateRecord is a cached mate-search verdict for a position, so a forced
// mate found in one process run doesn't need to be rediscovered in the next.
type MateRecord struct {
	Key      uint64     `json:"key"`
	MateIn   int        `json:"mate_in"` // plies; 0 means "no forced mate found at the searched depth"
	Move     board.Move `json:"move"`
	Score    int        `json:"score"`
	Depth    int        `json:"depth"`
	Resolved bool       `json:"resolved"`
}

// Store wraps BadgerDB with zstd-compressed values for the engine's
// cross-run analysis cache and configuration.
type Store struct {
	db      *badger.DB
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// New opens (creating if necessary) the on-disk analysis store.
func New() (*Store, error) {
	dbDir, err := GetDatabaseDir()
	if err != nil {
		return nil, err
	}
	return NewAt(dbDir)
}

// NewAt opens the analysis store at an explicit directory, primarily for tests.
func NewAt(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		db.Close()
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		db.Close()
		enc.Close()
		return nil, err
	}

	return &Store{db: db, encoder: enc, decoder: dec}, nil
}

// Close releases the database and compression resources.
func (s *Store) Close() error {
	s.decoder.Close()
	s.encoder.Close()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) putCompressed(key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	compressed := s.encoder.EncodeAll(raw, nil)
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), compressed)
	})
}

func (s *Store) getCompressed(key string, v interface{}) (bool, error) {
	var found bool
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			raw, err := s.decoder.DecodeAll(val, nil)
			if err != nil {
				return err
			}
			return json.Unmarshal(raw, v)
		})
	})
	return found, err
}

// SaveConfig persists the engine configuration.
func (s *Store) SaveConfig(cfg *EngineConfig) error {
	cfg.LastUpdated = time.Now()
	return s.putCompressed(keyConfig, cfg)
}

// LoadConfig loads the engine configuration, returning defaults if unset.
func (s *Store) LoadConfig() (*EngineConfig, error) {
	cfg := DefaultEngineConfig()
	_, err := s.getCompressed(keyConfig, cfg)
	return cfg, err
}

// SaveStats persists lifetime search statistics.
func (s *Store) SaveStats(stats *SearchStats) error {
	return s.putCompressed(keyStats, stats)
}

// LoadStats loads lifetime search statistics, returning zero stats if unset.
func (s *Store) LoadStats() (*SearchStats, error) {
	stats := &SearchStats{}
	_, err := s.getCompressed(keyStats, stats)
	return stats, err
}

// RecordSearch folds one completed search's telemetry into lifetime stats.
func (s *Store) RecordSearch(nodes uint64, depth int, mateHit, oracleFallback bool, ttHits, ttProbes uint64) error {
	stats, err := s.LoadStats()
	if err != nil {
		log.Warn().Err(err).Msg("store: failed to load stats before recording, starting fresh")
		stats = &SearchStats{}
	}

	stats.SearchesRun++
	stats.TotalNodes += int64(nodes)
	stats.TotalDepthPlies += int64(depth)
	stats.TTHitsRecorded += int64(ttHits)
	stats.TTProbesRecorded += int64(ttProbes)
	if mateHit {
		stats.MateSearchHits++
	}
	if oracleFallback {
		stats.OracleFallbacks++
	}

	return s.SaveStats(stats)
}

func mateCacheKey(zobrist uint64) []byte {
	key := make([]byte, len(mateCachePrefix)+8)
	n := copy(key, mateCachePrefix)
	for i := 0; i < 8; i++ {
		key[n+i] = byte(zobrist >> (8 * i))
	}
	return key
}

// SaveMateRecord caches a mate-search verdict for a position's Zobrist key.
func (s *Store) SaveMateRecord(rec MateRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	compressed := s.encoder.EncodeAll(raw, nil)
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(mateCacheKey(rec.Key), compressed)
	})
}

// LoadMateRecord returns a previously cached mate-search verdict, if any.
func (s *Store) LoadMateRecord(zobrist uint64) (MateRecord, bool, error) {
	var rec MateRecord
	var found bool
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(mateCacheKey(zobrist))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			raw, err := s.decoder.DecodeAll(val, nil)
			if err != nil {
				return err
			}
			return json.Unmarshal(raw, &rec)
		})
	})
	return rec, found, err
}

// ClearAnalysisCache drops all cached mate-search verdicts, mirroring the
// "new game" signal that also clears the in-memory TT and history tables.
func (s *Store) ClearAnalysisCache() error {
	return s.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(mateCachePrefix)
		var toDelete [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			toDelete = append(toDelete, append([]byte{}, it.Item().Key()...))
		}
		for _, k := range toDelete {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}
