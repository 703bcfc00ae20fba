package kmersig

import (
	"math"
	"sync"

	"kmersig/internal/parallel"
)

// DistancePair is one emitted row of the all-pairs distance output,
// per spec.md section 4.10.
type DistancePair struct {
	SeqA  uint32
	SeqB  uint32
	Count int32
	Score float32
}

// DistanceConfig holds the distance-matrix CLI's tunable parameters.
type DistanceConfig struct {
	MinHits  int // default 3
	NThreads int
}

// DefaultDistanceConfig returns spec.md's documented defaults.
func DefaultDistanceConfig() DistanceConfig {
	return DistanceConfig{MinHits: 3}
}

// signatureIndexShardCount mirrors attributeShardCount: an inverted
// kmer->seq_id index built concurrently across per-sequence scan
// tasks, sharded to keep lock contention low.
const signatureIndexShardCount = 64

type signatureIndex struct {
	shards [signatureIndexShardCount]signatureIndexShard
}

type signatureIndexShard struct {
	mu   sync.Mutex
	data map[Kmer][]uint32
}

func newSignatureIndex() *signatureIndex {
	idx := &signatureIndex{}
	for i := range idx.shards {
		idx.shards[i].data = make(map[Kmer][]uint32)
	}
	return idx
}

func (idx *signatureIndex) add(k Kmer, seqID uint32) {
	s := &idx.shards[shardFor(k)]
	s.mu.Lock()
	s.data[k] = append(s.data[k], seqID)
	s.mu.Unlock()
}

func (idx *signatureIndex) each(fn func(k Kmer, seqIDs []uint32)) {
	for i := range idx.shards {
		s := &idx.shards[i]
		for k, ids := range s.data {
			fn(k, ids)
		}
	}
}

// sequenceLengthInterval reports whether queryLength falls within the
// variance-derived acceptance interval around a stored kmer payload's
// mean training length, per spec.md section 4.10: 2 standard
// deviations when variance is nonzero, or +-10% of the query length
// when variance is zero (there is nothing to derive a spread from, so
// the query itself sets the tolerance).
func sequenceLengthInterval(payload StoredKmerData, queryLength int) bool {
	mean := float64(payload.Mean)
	if payload.Var == 0 {
		tol := 0.10 * float64(queryLength)
		return math.Abs(float64(queryLength)-mean) <= tol
	}
	stddev := math.Sqrt(float64(payload.Var))
	lower := mean - 2*stddev
	upper := mean + 2*stddev
	return float64(queryLength) >= lower && float64(queryLength) <= upper
}

// signatureKmersOf returns the distinct set of k-mers in seq that pass
// the variance filter for a query of this length, per spec.md section
// 4.10's first paragraph.
func signatureKmersOf(reader IndexReader, seq []byte) []Kmer {
	queryLength := len(seq)
	seen := make(map[Kmer]struct{})
	var out []Kmer
	EachKmer(seq, func(hit KmerHit) {
		if _, dup := seen[hit.Kmer]; dup {
			return
		}
		_ = reader.Fetch(hit.Kmer, func(d StoredKmerData) {
			if sequenceLengthInterval(d, queryLength) {
				seen[hit.Kmer] = struct{}{}
				out = append(out, hit.Kmer)
			}
		})
	})
	return out
}

// DistanceMatrix computes all-pairs shared-signature-kmer counts and
// scores among seqs (each a raw amino-acid sequence, positionally
// matched to its own dense sequence id), per spec.md section 4.10.
// Sequences whose ids fall in different buckets returned by
// BucketSequencesByLength (when the caller chooses to partition) are
// never compared against each other by this function -- partitioning,
// like the spec describes, is the caller's responsibility to apply by
// calling DistanceMatrix once per bucket.
func DistanceMatrix(reader IndexReader, seqs [][]byte, cfg DistanceConfig) ([]DistancePair, error) {
	minHits := cfg.MinHits
	if minHits <= 0 {
		minHits = 3
	}

	idx := newSignatureIndex()
	err := parallel.Run(cfg.NThreads, len(seqs), func(i int) error {
		for _, k := range signatureKmersOf(reader, seqs[i]) {
			idx.add(k, uint32(i))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// pairCounts is only ever mutated from the single goroutine driving
	// idx.each below, so no lock is needed here.
	pairCounts := make(map[uint64]int32)
	idx.each(func(_ Kmer, seqIDs []uint32) {
		for a := 0; a < len(seqIDs); a++ {
			for b := a + 1; b < len(seqIDs); b++ {
				i, j := seqIDs[a], seqIDs[b]
				if i > j {
					i, j = j, i
				}
				pairCounts[pairKey(i, j)]++
			}
		}
	})

	lengths := make([]int, len(seqs))
	for i, s := range seqs {
		lengths[i] = len(s)
	}

	var pairs []DistancePair
	for key, count := range pairCounts {
		if count < int32(minHits) {
			continue
		}
		i, j := unpairKey(key)
		score := float32(count) / float32(lengths[i]+lengths[j])
		pairs = append(pairs, DistancePair{SeqA: i, SeqB: j, Count: count, Score: score})
	}
	return pairs, nil
}

func pairKey(i, j uint32) uint64 {
	return uint64(i)<<32 | uint64(j)
}

func unpairKey(key uint64) (uint32, uint32) {
	return uint32(key >> 32), uint32(key)
}
