// Package hybrid wires the tablebase, mate search, and the two main search
// back ends (classical alpha-beta and tactical-first MCTS) into the single
// top-level entry point the rest of an application calls: probe the
// tablebase, try to prove a forced mate, then fall back to whichever main
// search the configuration selects.
package hybrid

import (
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/talonforge/chessforge/internal/alphabeta"
	"github.com/talonforge/chessforge/internal/board"
	"github.com/talonforge/chessforge/internal/eval"
	"github.com/talonforge/chessforge/internal/mate"
	"github.com/talonforge/chessforge/internal/mcts"
	"github.com/talonforge/chessforge/internal/store"
	"github.com/talonforge/chessforge/internal/tablebase"
	"github.com/talonforge/chessforge/internal/tt"
)

// Limits bounds one Search call, mirroring the classical engine's
// SearchLimits but widened with the MCTS and mate-search knobs the hybrid
// driver needs.
type Limits struct {
	Depth          int           // main alpha-beta depth cap (0 = no limit)
	Nodes          uint64        // main search node cap (0 = no limit)
	WallTime       time.Duration // wall-clock budget for this move (0 = no limit)
	MateDepth      int           // root mate-search depth before the main search runs (0 = skip)
	Mode           store.SearchMode
	MCTSIterations int
	CPuct          float64
	FinalSelection store.FinalSelection
}

// Info reports the outcome of one Search call.
type Info struct {
	BestMove board.Move
	Score    int
	Depth    int
	Nodes    uint64
	PV       []board.Move
	HashFull int

	// MCTS-only statistics; zero when Mode is AlphaBeta.
	MCTSIterations    int
	MCTSMateFraction  float64
	MCTSOracleFraction float64
}

// Driver is the top-level search the rest of an application drives: create
// one per game (it owns the shared transposition table and correction
// history), call Search per move, call Stop to cancel an in-flight search.
type Driver struct {
	table        *tt.Table
	evaluator    eval.Evaluator
	oracle       eval.PolicyValue
	mateSearcher *mate.Searcher
	abSearcher   *alphabeta.Searcher
	mctsSearch   *mcts.Search
	prober       tablebase.Prober
	persist      *store.Store

	cfg  store.EngineConfig
	stop atomic.Bool

	// OnInfo, if set, is called once after a completed alpha-beta search
	// and once after an MCTS run, the way the classical engine reported
	// progress via its own OnInfo callback.
	OnInfo func(Info)
}

// New builds a driver from a persisted configuration. prober may be
// tablebase.NoopProber{} when no tablebase is configured.
func New(cfg store.EngineConfig, evaluator eval.Evaluator, oracle eval.PolicyValue, prober tablebase.Prober) *Driver {
	table := tt.New(cfg.TTSizeMB)
	mateSearcher := mate.New(table)

	d := &Driver{
		table:        table,
		evaluator:    evaluator,
		oracle:       oracle,
		mateSearcher: mateSearcher,
		abSearcher:   alphabeta.New(table, evaluator),
		prober:       prober,
		cfg:          cfg,
	}
	d.mctsSearch = mcts.New(mateSearcher, oracle, cfg.CPuct, cfg.FPUReduction, 3)
	return d
}

// SetPersistence attaches the cross-run analysis store: a resolved-mate
// cache keyed by Zobrist hash and a lifetime search-telemetry log. A nil
// store (the default) leaves the driver running in-memory only.
func (d *Driver) SetPersistence(s *store.Store) {
	d.persist = s
}

// Stop cancels any in-flight Search call. Safe to call concurrently.
func (d *Driver) Stop() {
	d.stop.Store(true)
}

// Clear drops the transposition table, e.g. on a new-game signal. The
// alpha-beta searcher's correction history is not reset.
func (d *Driver) Clear() {
	d.table.Clear()
}

// SetRootHistory seeds repetition detection with the game's prior position
// hashes, oldest first, not including the position about to be searched.
func (d *Driver) SetRootHistory(hashes []uint64) {
	d.abSearcher.SetRootHistory(hashes)
}

// Search runs the full hybrid pipeline: tablebase probe, then a bounded
// mate search at the root, then the configured main search.
func (d *Driver) Search(pos *board.Position, limits Limits) Info {
	d.stop.Store(false)

	if d.prober != nil && d.prober.Available() {
		if root := d.prober.ProbeRoot(pos); root.Found {
			return Info{
				BestMove: root.Move,
				Score:    tablebase.WDLToScore(root.WDL, 0),
				Depth:    0,
			}
		}
	}

	if limits.MateDepth > 0 {
		if d.persist != nil {
			if rec, found, err := d.persist.LoadMateRecord(pos.Hash); err != nil {
				log.Warn().Err(err).Msg("hybrid: mate cache lookup failed")
			} else if found && rec.Resolved && rec.MateIn > 0 && rec.MateIn <= limits.MateDepth {
				info := Info{BestMove: rec.Move, Score: rec.Score, Depth: rec.Depth}
				d.recordStats(0, 0, true, false, 0, 0)
				return info
			}
			// A cached "no mate at this depth" verdict still lets the main
			// search run below; only a positive cached verdict short-circuits it.
		}

		hitsBefore, probesBefore := d.table.Hits(), d.table.Probes()
		mateResult := d.mateSearcher.Search(pos, limits.MateDepth, &d.stop)

		if d.persist != nil && !d.stop.Load() {
			rec := store.MateRecord{
				Key:      pos.Hash,
				Resolved: true,
				Depth:    limits.MateDepth,
				Move:     mateResult.Move,
				Score:    mateResult.Score,
			}
			if mateResult.Found {
				rec.Depth = mateResult.Depth
				rec.MateIn = mateResult.Depth
			}
			if err := d.persist.SaveMateRecord(rec); err != nil {
				log.Warn().Err(err).Msg("hybrid: failed to cache mate search verdict")
			}
		}
		if mateResult.Found {
			info := Info{
				BestMove: mateResult.Move,
				Score:    mateResult.Score,
				Depth:    mateResult.Depth,
				Nodes:    d.mateSearcher.NodesSearched(),
			}
			ttHits := d.table.Hits() - hitsBefore
			ttProbes := d.table.Probes() - probesBefore
			d.recordStats(info.Nodes, info.Depth, true, false, ttHits, ttProbes)
			return info
		}
	}

	var timer *time.Timer
	if limits.WallTime > 0 {
		tm := newTimeManager()
		tm.init(limits.WallTime)
		timer = time.AfterFunc(tm.maximumTime, func() { d.stop.Store(true) })
		defer timer.Stop()
	}

	switch limits.Mode {
	case store.ModeMCTS:
		return d.searchMCTS(pos, limits)
	default:
		return d.searchAlphaBeta(pos, limits)
	}
}

func (d *Driver) searchAlphaBeta(pos *board.Position, limits Limits) Info {
	hitsBefore, probesBefore := d.table.Hits(), d.table.Probes()

	abLimits := alphabeta.Limits{MaxDepth: limits.Depth, Nodes: limits.Nodes}
	result := d.abSearcher.Search(pos, abLimits, &d.stop)

	info := Info{
		BestMove: result.BestMove,
		Score:    result.Score,
		Depth:    result.Depth,
		Nodes:    result.Nodes,
		PV:       result.PV,
		HashFull: d.table.HashFull(),
	}
	ttHits := d.table.Hits() - hitsBefore
	ttProbes := d.table.Probes() - probesBefore
	d.recordStats(info.Nodes, info.Depth, false, false, ttHits, ttProbes)
	if d.OnInfo != nil {
		d.OnInfo(info)
	}
	return info
}

func (d *Driver) searchMCTS(pos *board.Position, limits Limits) Info {
	iterations := limits.MCTSIterations
	if iterations <= 0 {
		iterations = 10000
	}
	k := d.cfg.PessimismK
	result := d.mctsSearch.Run(pos, iterations, limits.FinalSelection, k, &d.stop)

	info := Info{
		BestMove:       result.BestMove,
		Depth:          0,
		Nodes:          uint64(result.Iterations),
		MCTSIterations: result.Iterations,
	}
	if result.Iterations > 0 {
		info.MCTSMateFraction = float64(result.MateResolved) / float64(result.Iterations)
		info.MCTSOracleFraction = float64(result.OracleQueries) / float64(result.Iterations)
	}
	d.recordStats(info.Nodes, info.Depth, false, info.MCTSOracleFraction > 0, 0, 0)
	if d.OnInfo != nil {
		d.OnInfo(info)
	}
	return info
}

// recordStats folds one completed search stage's telemetry into the
// persisted lifetime stats, if a store is attached. ttHits and ttProbes
// are deltas over the stage just run, not lifetime totals.
func (d *Driver) recordStats(nodes uint64, depth int, mateHit, oracleFallback bool, ttHits, ttProbes uint64) {
	if d.persist == nil {
		return
	}
	if err := d.persist.RecordSearch(nodes, depth, mateHit, oracleFallback, ttHits, ttProbes); err != nil {
		log.Warn().Err(err).Msg("hybrid: failed to record search stats")
	}
}

// Evaluate returns the static evaluation of a position from the side to
// move's perspective, bypassing search entirely.
func (d *Driver) Evaluate(pos *board.Position) int {
	return d.evaluator.Eval(pos)
}

// Perft counts leaf nodes at depth, a move-generator correctness check
// independent of search.
func Perft(pos *board.Position, depth int) uint64 {
	if depth == 0 {
		return 1
	}

	moves := pos.GenerateLegalMoves()
	if depth == 1 {
		return uint64(moves.Len())
	}

	var nodes uint64
	for i := 0; i < moves.Len(); i++ {
		move := moves.Get(i)
		undo := pos.MakeMove(move)
		nodes += Perft(pos, depth-1)
		pos.UnmakeMove(move, undo)
	}
	return nodes
}

// ScoreToString renders a centipawn or mate score for display.
func ScoreToString(score int) string {
	if score > alphabeta.MateScore-alphabeta.MaxPly {
		mateIn := (alphabeta.MateScore - score + 1) / 2
		return "mate in " + itoa(mateIn)
	}
	if score < -alphabeta.MateScore+alphabeta.MaxPly {
		mateIn := (alphabeta.MateScore + score + 1) / 2
		return "mated in " + itoa(mateIn)
	}

	sign := ""
	if score < 0 {
		sign = "-"
		score = -score
	}
	pawns := score / 100
	centipawns := score % 100
	return sign + itoa(pawns) + "." + itoa2(centipawns)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	s := ""
	for n > 0 {
		s = string('0'+byte(n%10)) + s
		n /= 10
	}
	return s
}

func itoa2(n int) string {
	if n < 10 {
		return "0" + itoa(n)
	}
	return itoa(n)
}
