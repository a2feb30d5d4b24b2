// Command chessforge-cli is a thin driver around the hybrid search: point
// it at a FEN and a time or depth budget, and it prints the chosen move.
// It speaks no chess GUI protocol; it is a demo and profiling harness.
package main

import (
	"flag"
	"os"
	"runtime/pprof"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/talonforge/chessforge/internal/board"
	"github.com/talonforge/chessforge/internal/eval"
	"github.com/talonforge/chessforge/internal/hybrid"
	"github.com/talonforge/chessforge/internal/store"
	"github.com/talonforge/chessforge/internal/tablebase"
)

var (
	fen        = flag.String("fen", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1", "position to search, in FEN")
	depth      = flag.Int("depth", 8, "alpha-beta depth cap (0 = unlimited)")
	nodes      = flag.Uint64("nodes", 0, "node budget (0 = unlimited)")
	moveTime   = flag.Duration("movetime", 2*time.Second, "wall-clock budget for the move")
	mateDepth  = flag.Int("matedepth", 5, "root mate-search depth tried before the main search")
	mode       = flag.String("mode", "alphabeta", "main search: alphabeta or mcts")
	iterations = flag.Int("mcts-iters", 20000, "MCTS iteration cap")
	finalSel   = flag.String("final", "robust", "MCTS final move choice: robust or pessimistic")
	ttSizeMB   = flag.Int("ttmb", 64, "transposition table size in MiB")
	nnueFile   = flag.String("nnue", "", "NNUE weights file (classical evaluator used if empty)")
	cpuprofile = flag.String("cpuprofile", "", "write a CPU profile to file")
	perft      = flag.Int("perft", 0, "run a move-generator perft to this depth instead of searching")
	persist    = flag.Bool("persist", false, "load/save engine config and cache resolved mates in the on-disk analysis store")
)

func main() {
	flag.Parse()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatal().Err(err).Msg("could not create CPU profile")
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal().Err(err).Msg("could not start CPU profile")
		}
		defer pprof.StopCPUProfile()
	}

	pos, err := board.ParseFEN(*fen)
	if err != nil {
		log.Fatal().Err(err).Str("fen", *fen).Msg("invalid FEN")
	}

	if *perft > 0 {
		nodes := hybrid.Perft(pos, *perft)
		log.Info().Int("depth", *perft).Uint64("nodes", nodes).Msg("perft")
		return
	}

	cfg := *store.DefaultEngineConfig()

	var persistStore *store.Store
	if *persist {
		s, err := store.New()
		if err != nil {
			log.Fatal().Err(err).Msg("could not open analysis store")
		}
		defer s.Close()
		persistStore = s

		loaded, err := s.LoadConfig()
		if err != nil {
			log.Warn().Err(err).Msg("could not load persisted config, using defaults")
		} else {
			cfg = *loaded
		}
	}
	cfg.TTSizeMB = *ttSizeMB

	evaluator, oracle := buildEvaluator(&cfg)
	driver := hybrid.New(cfg, evaluator, oracle, tablebase.NoopProber{})
	if persistStore != nil {
		driver.SetPersistence(persistStore)
	}
	driver.OnInfo = func(info hybrid.Info) {
		log.Info().
			Int("depth", info.Depth).
			Uint64("nodes", info.Nodes).
			Str("score", hybrid.ScoreToString(info.Score)).
			Msg("search info")
	}

	limits := hybrid.Limits{
		Depth:          *depth,
		Nodes:          *nodes,
		WallTime:       *moveTime,
		MateDepth:      *mateDepth,
		Mode:           searchMode(*mode),
		MCTSIterations: *iterations,
		CPuct:          cfg.CPuct,
		FinalSelection: finalSelection(*finalSel),
	}

	result := driver.Search(pos, limits)
	log.Info().
		Str("move", result.BestMove.String()).
		Str("score", hybrid.ScoreToString(result.Score)).
		Int("depth", result.Depth).
		Uint64("nodes", result.Nodes).
		Msg("bestmove")

	if persistStore != nil {
		if err := persistStore.SaveConfig(&cfg); err != nil {
			log.Warn().Err(err).Msg("could not persist config")
		}
	}
}

func buildEvaluator(cfg *store.EngineConfig) (eval.Evaluator, eval.PolicyValue) {
	if *nnueFile != "" {
		nn, err := eval.NewNNUE(*nnueFile)
		if err != nil {
			log.Warn().Err(err).Str("file", *nnueFile).Msg("NNUE load failed, falling back to classical evaluator")
		} else {
			cfg.EvalMode = store.EvalNNUE
			return nn, eval.NewSigmoidFallback(nn)
		}
	}
	classical := eval.NewClassical(4)
	return classical, eval.NewSigmoidFallback(classical)
}

func searchMode(s string) store.SearchMode {
	if s == "mcts" {
		return store.ModeMCTS
	}
	return store.ModeAlphaBeta
}

func finalSelection(s string) store.FinalSelection {
	if s == "pessimistic" {
		return store.SelectionPessimistic
	}
	return store.SelectionRobust
}
