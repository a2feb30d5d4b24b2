// Package tt implements the search core's transposition table: an
// open-addressed, power-of-two bucketed hash table keyed by Zobrist hash.
package tt

import (
	"github.com/talonforge/chessforge/internal/board"
)

// Bound indicates which side of the true score a stored entry bounds.
type Bound uint8

const (
	Exact      Bound = iota // the exact minimax value
	LowerBound              // a beta cutoff; the true score is at least this
	UpperBound              // a fail-low; the true score is at most this
)

// MateScore and MaxPly mirror the engine-wide constants used to adjust
// mate scores as they cross ply boundaries on the way in and out of the table.
const (
	MateScore = 29000
	MaxPly    = 128
)

// slotsPerBucket is the number of entries probed linearly within one bucket.
const slotsPerBucket = 4

// Entry is one transposition table slot.
type Entry struct {
	Key      uint64
	BestMove board.Move
	Score    int32
	Depth    int16
	Bound    Bound
	Age      uint8
	used     bool
}

// Table is a fixed-size, single-threaded transposition table. The hybrid
// driver owns one Table, shared by its searches and kept across them; it is
// never accessed concurrently, so no internal locking is needed.
type Table struct {
	buckets    [][slotsPerBucket]Entry
	bucketMask uint64
	age        uint8

	hits   uint64
	probes uint64
	writes uint64
}

// New creates a transposition table sized to approximately sizeMB megabytes.
func New(sizeMB int) *Table {
	if sizeMB < 1 {
		sizeMB = 1
	}
	entrySize := uint64(24) // bytes per Entry
	wantEntries := (uint64(sizeMB) * 1024 * 1024) / entrySize
	numBuckets := roundDownToPowerOf2(wantEntries / slotsPerBucket)
	if numBuckets == 0 {
		numBuckets = 1
	}

	return &Table{
		buckets:    make([][slotsPerBucket]Entry, numBuckets),
		bucketMask: numBuckets - 1,
	}
}

func roundDownToPowerOf2(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return (n + 1) >> 1
}

// NewSearch bumps the age counter, marking all existing entries as stale
// candidates for replacement without clearing them outright.
func (t *Table) NewSearch() {
	t.age++
}

// Clear wipes every entry, used on an explicit new-game reset.
func (t *Table) Clear() {
	for i := range t.buckets {
		t.buckets[i] = [slotsPerBucket]Entry{}
	}
	t.age = 0
	t.hits = 0
	t.probes = 0
	t.writes = 0
}

// Probe returns the slot matching hash within its bucket, if any.
func (t *Table) Probe(hash uint64) (Entry, bool) {
	t.probes++
	bucket := &t.buckets[hash&t.bucketMask]
	for i := range bucket {
		if bucket[i].used && bucket[i].Key == hash {
			t.hits++
			return bucket[i], true
		}
	}
	return Entry{}, false
}

// Store writes a search result into the table, adjusting mate scores to be
// relative to the root before storage. Replacement takes the first slot that
// is empty or already keyed to this hash; otherwise it takes the occupant
// with the lowest bucketScore (stale-age entries first, then shallower ones).
func (t *Table) Store(hash uint64, depth int, score int, bound Bound, best board.Move, ply int) {
	t.writes++
	bucket := &t.buckets[hash&t.bucketMask]

	victim := -1
	for i := range bucket {
		if !bucket[i].used {
			victim = i
			break
		}
		if bucket[i].Key == hash {
			victim = i
			break
		}
	}

	if victim == -1 {
		victim = 0
		worst := bucketScore(bucket[0], t.age)
		for i := 1; i < slotsPerBucket; i++ {
			s := bucketScore(bucket[i], t.age)
			if s < worst {
				worst = s
				victim = i
			}
		}
	}

	slot := &bucket[victim]
	slot.Key = hash
	slot.BestMove = best
	slot.Score = int32(adjustScoreToTT(score, ply))
	slot.Depth = int16(depth)
	slot.Bound = bound
	slot.Age = t.age
	slot.used = true
}

// bucketScore ranks an occupant for replacement: entries from a stale age
// rank below anything from the current search, and within the same age
// shallower entries rank lower. Lower is a better replacement candidate.
func bucketScore(e Entry, currentAge uint8) int {
	if !e.used {
		return -1 << 30
	}
	ageRank := 0
	if e.Age != currentAge {
		ageRank = -1000
	}
	return ageRank + int(e.Depth)
}

// AdjustScoreFromTT converts a stored mate score back to one relative to ply.
func AdjustScoreFromTT(score int, ply int) int {
	if score > MateScore-MaxPly {
		return score - ply
	}
	if score < -MateScore+MaxPly {
		return score + ply
	}
	return score
}

func adjustScoreToTT(score int, ply int) int {
	if score > MateScore-MaxPly {
		return score + ply
	}
	if score < -MateScore+MaxPly {
		return score - ply
	}
	return score
}

// HashFull returns the permille of the table occupied by entries from the
// current search generation, sampled over the first 1000 slots (250 buckets).
func (t *Table) HashFull() int {
	sampleBuckets := 1000 / slotsPerBucket
	if sampleBuckets == 0 {
		sampleBuckets = 1
	}
	if uint64(sampleBuckets) > uint64(len(t.buckets)) {
		sampleBuckets = len(t.buckets)
	}

	used := 0
	total := 0
	for i := 0; i < sampleBuckets; i++ {
		for _, e := range t.buckets[i] {
			total++
			if e.used && e.Age == t.age {
				used++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return (used * 1000) / total
}

// HitRate returns the probe hit rate as a percentage.
func (t *Table) HitRate() float64 {
	if t.probes == 0 {
		return 0
	}
	return float64(t.hits) / float64(t.probes) * 100
}

// Buckets returns the number of buckets backing the table.
func (t *Table) Buckets() int {
	return len(t.buckets)
}

// Hits returns the lifetime count of probes that found a matching entry.
func (t *Table) Hits() uint64 {
	return t.hits
}

// Probes returns the lifetime count of Probe calls.
func (t *Table) Probes() uint64 {
	return t.probes
}
