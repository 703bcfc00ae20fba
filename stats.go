package kmersig

import "sort"

// madFloor is the minimum median absolute deviation used by the hit
// chainer's length-consistency check, per spec.md section 4.7 and the
// GLOSSARY: "MAD ... floored at 30 when zero."
const madFloor = 30.0

// medianFloat64 returns the median of vals. vals is not mutated.
func medianFloat64(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// medianAbsoluteDeviation returns the median and MAD of vals, with the
// MAD floored at madFloor when it would otherwise be zero.
func medianAbsoluteDeviation(vals []float64) (median, mad float64) {
	median = medianFloat64(vals)
	devs := make([]float64, len(vals))
	for i, v := range vals {
		d := v - median
		if d < 0 {
			d = -d
		}
		devs[i] = d
	}
	mad = medianFloat64(devs)
	if mad == 0 {
		mad = madFloor
	}
	return median, mad
}
