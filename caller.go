package kmersig

// Hit is one k-mer window's index lookup result within a query
// sequence: its start offset and the payload the index returned for
// it. Because the perfect hash resolves every k-mer, ambiguous or not,
// to some in-range slot (spec.md section 4.6), every valid window
// produces a Hit -- there is no separate "miss" outcome at this layer.
type Hit struct {
	Pos     int
	Payload StoredKmerData
}

// ScanSequence looks up every valid (non-ambiguous) k-mer window of
// seq against reader, in ascending offset order, per spec.md section
// 4.7 ("walk k-mer windows in ascending order").
func ScanSequence(reader IndexReader, seq []byte) []Hit {
	var hits []Hit
	EachKmer(seq, func(w KmerHit) {
		_ = reader.Fetch(w.Kmer, func(d StoredKmerData) {
			hits = append(hits, Hit{Pos: w.Offset, Payload: d})
		})
	})
	return hits
}

// ChainerConfig holds the hit chainer's tunable parameters, per
// spec.md section 4.7.
type ChainerConfig struct {
	MinHits            int // default 5
	MaxGap             int // default 200
	IgnoreHypothetical bool
	HypotheticalIndex  FunctionIndex
}

// DefaultChainerConfig returns spec.md's documented defaults.
func DefaultChainerConfig() ChainerConfig {
	return ChainerConfig{MinHits: 5, MaxGap: 200}
}

// Chain walks hits (already in ascending position order) and produces
// candidate KmerCall regions, per spec.md section 4.7. This is a
// direct port of the numbered rule list there; call_functions.h names
// the KmerCall type and the chainer's parameters but its actual
// chaining loop lived in a .tcc file not present in
// original_source/, so spec.md's prose is the ground truth for
// control flow here.
func Chain(hits []Hit, queryLength int, cfg ChainerConfig) []KmerCall {
	var acc []Hit
	var current FunctionIndex
	hasCurrent := false
	var calls []KmerCall

	minHits := cfg.MinHits
	if minHits <= 0 {
		minHits = 5
	}
	maxGap := cfg.MaxGap
	if maxGap <= 0 {
		maxGap = 200
	}

	flush := func() {
		if len(acc) >= minHits {
			if c, ok := emitRegion(acc, current, queryLength); ok {
				calls = append(calls, c)
			}
		}
		acc = nil
		hasCurrent = false
	}

	for _, h := range hits {
		// Rule 1: drop hits to the "hypothetical protein" function
		// when ignore_hypothetical is set.
		if cfg.IgnoreHypothetical && h.Payload.FunctionIndex == cfg.HypotheticalIndex {
			continue
		}

		// Rule 2: a gap larger than max_gap forces a flush of
		// whatever has accumulated so far.
		if len(acc) > 0 {
			last := acc[len(acc)-1]
			if last.Pos+maxGap < h.Pos {
				flush()
			}
		}

		// Rule 3: an empty accumulator adopts the incoming hit's
		// function as current.
		if !hasCurrent {
			current = h.Payload.FunctionIndex
			hasCurrent = true
		}

		// Rule 4: append unconditionally.
		acc = append(acc, h)

		// Rule 5: two consecutive trailing hits agreeing on a
		// function other than current mark a legitimate transition.
		// Emit everything before them under the old current function,
		// then restart the accumulator from those two hits under the
		// new function. The prefix is emitted only if it alone still
		// holds at least min_hits hits; otherwise it is dropped.
		if n := len(acc); n >= 2 && current != h.Payload.FunctionIndex {
			prev := acc[n-2]
			if prev.Payload.FunctionIndex == h.Payload.FunctionIndex {
				prefix := acc[:n-2]
				if len(prefix) >= minHits {
					if c, ok := emitRegion(prefix, current, queryLength); ok {
						calls = append(calls, c)
					}
				}
				acc = append([]Hit(nil), acc[n-2:]...)
				current = h.Payload.FunctionIndex
			}
		}
	}

	flush()
	return calls
}

// emitRegion computes the emitted KmerCall for the hits in acc that
// match current, applying the length-consistency rejection rule from
// spec.md section 4.7.
func emitRegion(acc []Hit, current FunctionIndex, queryLength int) (KmerCall, bool) {
	var matching []Hit
	for _, h := range acc {
		if h.Payload.FunctionIndex == current {
			matching = append(matching, h)
		}
	}
	if len(matching) == 0 {
		return KmerCall{}, false
	}

	means := make([]float64, len(matching))
	var sum float64
	for i, h := range matching {
		v := float64(h.Payload.Mean)
		means[i] = v
		sum += v
	}
	meanOfMeans := sum / float64(len(means))
	median, mad := medianAbsoluteDeviation(means)

	lower := meanOfMeans - 2*mad
	upper := meanOfMeans + 2*mad
	if float64(queryLength) < lower || float64(queryLength) > upper {
		return KmerCall{}, false
	}

	start := matching[0].Pos
	end := matching[len(matching)-1].Pos + K - 1

	return KmerCall{
		Start:                  uint32(start),
		End:                    uint32(end),
		Count:                  int32(len(matching)),
		FunctionIndex:          current,
		ProteinLengthMedian:    uint32(median + 0.5),
		ProteinLengthMedAvgDev: float32(mad),
	}, true
}
