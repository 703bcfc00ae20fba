package kmersig

import "sort"

// dominanceThreshold is the fraction of attribute records that must
// share the most-common function for a k-mer to be kept as a
// signature. spec.md section 4.4: "Keep this k-mer iff c1 >= 0.8 *
// total."
const dominanceThreshold = 0.8

// SelectorStats tallies summary counters for the builder's final
// report, per spec.md section 7 ("kept-kmer count, distinct-signature
// count, and sequences-with-signature count").
type SelectorStats struct {
	DistinctSignatures int
	DistinctFunctions  map[FunctionIndex]int
	SeqsWithSignature  map[uint32]bool
}

func newSelectorStats() *SelectorStats {
	return &SelectorStats{
		DistinctFunctions: make(map[FunctionIndex]int),
		SeqsWithSignature: make(map[uint32]bool),
	}
}

// SelectKmerSet applies the 80% dominance rule to one k-mer's
// attribute records and, if it qualifies, computes the stored payload.
// Grounded on signature_build.h's process_kmer_set and spec.md section
// 4.4's selection rule.
func SelectKmerSet(k Kmer, attrs []KmerAttribute) (KeptKmer, bool) {
	if len(attrs) == 0 {
		return KeptKmer{}, false
	}

	counts := make(map[FunctionIndex]int)
	for _, a := range attrs {
		counts[a.FunctionIndex]++
	}

	var top FunctionIndex
	topCount := -1
	for fn, cnt := range counts {
		if cnt > topCount {
			top, topCount = fn, cnt
		}
	}

	total := len(attrs)
	if float64(topCount) < dominanceThreshold*float64(total) {
		return KeptKmer{}, false
	}

	dominant := make([]uint32, 0, topCount)
	offsets := make([]uint16, 0, total)
	for _, a := range attrs {
		offsets = append(offsets, a.OffsetFromEnd)
		if a.FunctionIndex == top {
			dominant = append(dominant, a.ProteinLength)
		}
	}

	mean, median, variance := lengthStats(dominant)
	avgFromEnd := medianUint16(offsets)

	return KeptKmer{
		Kmer: k,
		Payload: StoredKmerData{
			AvgFromEnd:    avgFromEnd,
			FunctionIndex: top,
			Mean:          mean,
			Median:        median,
			Var:           variance,
		},
	}, true
}

// lengthStats computes mean, median, and (population) variance over a
// set of protein lengths, each clamped to fit the uint16 stored form.
func lengthStats(lengths []uint32) (mean, median, variance uint16) {
	if len(lengths) == 0 {
		return 0, 0, 0
	}
	sum := 0.0
	for _, l := range lengths {
		sum += float64(l)
	}
	m := sum / float64(len(lengths))

	sorted := append([]uint32(nil), lengths...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	med := medianOfSortedUint32(sorted)

	var sq float64
	for _, l := range lengths {
		d := float64(l) - m
		sq += d * d
	}
	v := sq / float64(len(lengths))

	return clampU16(m), clampU16(med), clampU16(v)
}

func medianOfSortedUint32(sorted []uint32) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return float64(sorted[n/2])
	}
	return (float64(sorted[n/2-1]) + float64(sorted[n/2])) / 2
}

func medianUint16(vals []uint16) uint16 {
	if len(vals) == 0 {
		return 0
	}
	sorted := append([]uint16(nil), vals...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return clampU16((float64(sorted[n/2-1]) + float64(sorted[n/2])) / 2)
}

func clampU16(v float64) uint16 {
	if v < 0 {
		return 0
	}
	if v > 65535 {
		return 65535
	}
	return uint16(v + 0.5)
}

// SelectAll drains an AttributeCollector into the final kept-kmer set,
// accumulating SelectorStats commutatively so the result is
// independent of how work was partitioned across goroutines (spec.md
// section 5: "statistics are aggregated commutatively").
func SelectAll(collector *AttributeCollector) ([]KeptKmer, *SelectorStats) {
	var kept []KeptKmer
	stats := newSelectorStats()

	collector.Each(func(k Kmer, attrs []KmerAttribute) {
		kk, ok := SelectKmerSet(k, attrs)
		if !ok {
			return
		}
		kept = append(kept, kk)
		stats.DistinctFunctions[kk.Payload.FunctionIndex]++
		stats.DistinctSignatures++
		for _, a := range attrs {
			stats.SeqsWithSignature[a.SeqID] = true
		}
	})
	return kept, stats
}
