package kmersig

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// fusionPattern recognizes the two-non-fusion-functions-flanking-a-
// fusion shape from spec.md section 4.8 step C. The character classes
// are literal (A, |, W), matching the source's own notation.
var fusionPattern = regexp.MustCompile(`^W?A[A|W]*W[B|W]*BW?$`)

// Region is a candidate call region after collapse/sandwich-merge, the
// resolver's working unit. It mirrors KmerCall's fields except that
// its count and length statistics may already be the sum/carry-over
// of several merged KmerCall values.
type Region struct {
	FunctionIndex       FunctionIndex
	Start               uint32
	End                 uint32
	Count               int32
	ProteinLengthMedian uint32
}

// Collapse merges adjacent regions sharing a function_index into one,
// per spec.md section 4.8 step A. calls must already be in ascending
// position order, as Chain produces them.
func Collapse(calls []KmerCall) []Region {
	var out []Region
	for _, c := range calls {
		r := Region{
			FunctionIndex:       c.FunctionIndex,
			Start:               c.Start,
			End:                 c.End,
			Count:               c.Count,
			ProteinLengthMedian: c.ProteinLengthMedian,
		}
		if n := len(out); n > 0 && out[n-1].FunctionIndex == r.FunctionIndex {
			out[n-1].Count += r.Count
			out[n-1].End = r.End
			continue
		}
		out = append(out, r)
	}
	return out
}

// SandwichMerge implements spec.md section 4.8 step B: an F1 | F2 | F1
// pattern where F2's count is below the interior threshold (5) and the
// two F1 counts sum to at least the exterior threshold (10) collapses
// into one F1 region.
//
// The scan pointer advances by two, not three, after a merge. Per
// spec.md section 9 this is a documented quirk of the source
// preserved for bit-exact behavior: it can skip a legitimately
// adjacent small-function region that would otherwise now sandwich
// the freshly merged region.
func SandwichMerge(regions []Region) []Region {
	out := append([]Region(nil), regions...)
	i := 0
	for i+2 < len(out) {
		f1, f2, f1b := out[i], out[i+1], out[i+2]
		if f1.FunctionIndex == f1b.FunctionIndex &&
			f1.FunctionIndex != f2.FunctionIndex &&
			f2.Count < 5 &&
			f1.Count+f1b.Count >= 10 {
			fused := Region{
				FunctionIndex:       f1.FunctionIndex,
				Start:               f1.Start,
				End:                 f1b.End,
				Count:               f1.Count + f1b.Count,
				ProteinLengthMedian: f1.ProteinLengthMedian,
			}
			merged := make([]Region, 0, len(out)-2)
			merged = append(merged, out[:i]...)
			merged = append(merged, fused)
			merged = append(merged, out[i+3:]...)
			out = merged
			i += 2
			continue
		}
		i++
	}
	return out
}

// Resolver reduces the (collapsed, sandwich-merged) region list for a
// single query protein to one FunctionCall, per spec.md section 4.8
// steps C and D.
type Resolver struct {
	fm *FunctionMap
}

// NewResolver constructs a Resolver against the function map used to
// name function indices and detect fusion functions ("A / B" names).
func NewResolver(fm *FunctionMap) *Resolver {
	return &Resolver{fm: fm}
}

// Resolve runs the full C10 pipeline over raw chainer output.
func (r *Resolver) Resolve(calls []KmerCall) FunctionCall {
	regions := SandwichMerge(Collapse(calls))
	if len(regions) > 1 {
		if fc, ok := r.detectFusion(regions); ok {
			return fc
		}
	}
	return r.aggregateAndThreshold(regions)
}

// detectFusion implements step C: encode regions as letters (A, B, ...
// for distinct non-fusion functions in order of first appearance; W,
// X, ... for distinct fusion functions), and check the resulting
// expression against fusionPattern.
func (r *Resolver) detectFusion(regions []Region) (FunctionCall, bool) {
	nonFusion := make(map[FunctionIndex]byte)
	fusion := make(map[FunctionIndex]byte)
	nextNonFusion := byte('A')
	nextFusion := byte('W')
	expr := make([]byte, 0, len(regions))

	for _, rg := range regions {
		name := r.fm.LookupFunctionByIndex(rg.FunctionIndex)
		if strings.Contains(name, " / ") {
			l, ok := fusion[rg.FunctionIndex]
			if !ok {
				l = nextFusion
				fusion[rg.FunctionIndex] = l
				nextFusion++
			}
			expr = append(expr, l)
		} else {
			l, ok := nonFusion[rg.FunctionIndex]
			if !ok {
				l = nextNonFusion
				nonFusion[rg.FunctionIndex] = l
				nextNonFusion++
			}
			expr = append(expr, l)
		}
	}

	if !fusionPattern.Match(expr) {
		return FunctionCall{}, false
	}

	var aIdx, bIdx, wIdx FunctionIndex
	haveA, haveB, haveW := false, false, false
	for fi, l := range nonFusion {
		switch l {
		case 'A':
			aIdx, haveA = fi, true
		case 'B':
			bIdx, haveB = fi, true
		}
	}
	for fi, l := range fusion {
		if l == 'W' {
			wIdx, haveW = fi, true
		}
	}
	if !haveA || !haveB || !haveW {
		return FunctionCall{}, false
	}

	meanLen := func(fi FunctionIndex) float64 {
		var sum float64
		var n int
		for _, rg := range regions {
			if rg.FunctionIndex == fi {
				sum += float64(rg.ProteinLengthMedian)
				n++
			}
		}
		if n == 0 {
			return 0
		}
		return sum / float64(n)
	}

	meanA, meanB, meanW := meanLen(aIdx), meanLen(bIdx), meanLen(wIdx)
	if meanW == 0 {
		return FunctionCall{}, false
	}
	diff := (meanA + meanB) - meanW
	if diff < 0 {
		diff = -diff
	}
	if diff >= 0.10*meanW {
		return FunctionCall{}, false
	}

	var total int32
	for _, rg := range regions {
		total += rg.Count
	}

	return FunctionCall{
		FunctionIndex: wIdx,
		Function:      r.fm.LookupFunctionByIndex(wIdx),
		Score:         float32(total),
	}, true
}

// aggregateAndThreshold implements step D.
func (r *Resolver) aggregateAndThreshold(regions []Region) FunctionCall {
	totals := make(map[FunctionIndex]int32)
	for _, rg := range regions {
		totals[rg.FunctionIndex] += rg.Count
	}

	type candidate struct {
		fi    FunctionIndex
		count int32
	}
	cands := make([]candidate, 0, len(totals))
	for fi, c := range totals {
		cands = append(cands, candidate{fi, c})
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].count != cands[j].count {
			return cands[i].count > cands[j].count
		}
		return cands[i].fi < cands[j].fi
	})

	if len(cands) == 0 {
		return FunctionCall{FunctionIndex: Undefined}
	}

	top := cands[0].count
	scoreOffset := top
	if len(cands) > 1 {
		scoreOffset = top - cands[1].count
	}

	if scoreOffset >= 5 {
		return FunctionCall{
			FunctionIndex: cands[0].fi,
			Function:      r.fm.LookupFunctionByIndex(cands[0].fi),
			Score:         float32(top),
			ScoreOffset:   float32(scoreOffset),
		}
	}

	// Fallback: a tentative two-function name, used when there are
	// exactly two candidates, or when a third exists but trails the
	// second by more than 2. Per spec.md section 9, the reported score
	// is the top count, not top+second.
	if len(cands) == 2 || (len(cands) >= 3 && cands[1].count-cands[2].count > 2) {
		f1 := r.fm.LookupFunctionByIndex(cands[0].fi)
		f2 := r.fm.LookupFunctionByIndex(cands[1].fi)
		if f2 < f1 {
			f1, f2 = f2, f1
		}
		return FunctionCall{
			FunctionIndex: Undefined,
			Function:      fmt.Sprintf("%s ?? %s", f1, f2),
			Score:         float32(top),
			ScoreOffset:   float32(scoreOffset),
		}
	}

	return FunctionCall{
		FunctionIndex: Undefined,
		Score:         float32(top),
		ScoreOffset:   float32(scoreOffset),
	}
}
