// Package dist derives empirical distributions from raw sample arrays:
// fixed-width histograms, rank-based exceedance curves and a standard
// percentile set. All operations drop non-finite values first and return
// zero-filled results for empty input, never an error.
package dist

import (
	"math"
	"sort"

	"github.com/opensource-climate/petrel/internal/domain"
)

// histogramBins is the fixed bin count for all histograms.
const histogramBins = 20

// Clean returns the finite values of the input, order preserved.
func Clean(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Summarize produces the histogram, exceedance curve and percentile set for
// one sample array using the given plotting-position method.
func Summarize(values []float64, method string) (domain.Distribution, domain.Percentiles) {
	cleaned := Clean(values)

	hist := HistogramOf(cleaned)
	exc := ExceedanceOf(cleaned, method)
	return domain.Distribution{
		HistBins:         hist.Bins,
		HistCounts:       hist.Counts,
		ExceedanceValues: exc.Values,
		ExceedanceProbs:  exc.Probs,
	}, PercentilesOf(cleaned)
}

// HistogramOf bins the cleaned array into 20 equal-width bins over its range
// and reports bin centers with counts. The rightmost bin includes its upper
// edge. A constant array collapses to a single occupied bin.
func HistogramOf(cleaned []float64) domain.Histogram {
	if len(cleaned) == 0 {
		return domain.Histogram{Bins: []float64{}, Counts: []int{}}
	}

	lo, hi := cleaned[0], cleaned[0]
	for _, v := range cleaned {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi == lo {
		// Degenerate range, mirror the unit-width expansion numpy applies.
		lo -= 0.5
		hi += 0.5
	}

	width := (hi - lo) / histogramBins
	bins := make([]float64, histogramBins)
	counts := make([]int, histogramBins)
	for i := range bins {
		bins[i] = lo + (float64(i)+0.5)*width
	}
	for _, v := range cleaned {
		idx := int((v - lo) / width)
		if idx >= histogramBins {
			idx = histogramBins - 1
		}
		if idx < 0 {
			idx = 0
		}
		counts[idx]++
	}
	return domain.Histogram{Bins: bins, Counts: counts}
}

// ExceedanceOf sorts the cleaned array descending and assigns each rank an
// empirical exceedance probability by the chosen plotting position:
// weibull r/(n+1), hazen (r-0.5)/n, gringorten (r-0.44)/(n+0.12). Unknown
// methods fall back to weibull. Probabilities are clipped to [0, 1].
func ExceedanceOf(cleaned []float64, method string) domain.Exceedance {
	n := len(cleaned)
	if n == 0 {
		return domain.Exceedance{Values: []float64{}, Probs: []float64{}}
	}

	values := make([]float64, n)
	copy(values, cleaned)
	sort.Sort(sort.Reverse(sort.Float64Slice(values)))

	probs := make([]float64, n)
	for i := range probs {
		r := float64(i + 1)
		var p float64
		switch method {
		case domain.MethodHazen:
			p = (r - 0.5) / float64(n)
		case domain.MethodGringorten:
			p = (r - 0.44) / (float64(n) + 0.12)
		default:
			p = r / float64(n+1)
		}
		if p < 0 {
			p = 0
		}
		if p > 1 {
			p = 1
		}
		probs[i] = p
	}
	return domain.Exceedance{Values: values, Probs: probs}
}

// PercentilesOf computes the standard summary set over the cleaned array.
func PercentilesOf(cleaned []float64) domain.Percentiles {
	if len(cleaned) == 0 {
		return domain.Percentiles{}
	}

	sorted := make([]float64, len(cleaned))
	copy(sorted, cleaned)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	return domain.Percentiles{
		Mean: sum / float64(len(sorted)),
		Max:  sorted[len(sorted)-1],
		P50:  quantileSorted(sorted, 0.50),
		P90:  quantileSorted(sorted, 0.90),
		P95:  quantileSorted(sorted, 0.95),
		P99:  quantileSorted(sorted, 0.99),
	}
}

// Quantile returns the q-quantile of the values with linear interpolation
// between order statistics, matching the numpy default. Non-finite values
// are dropped first; an empty array yields 0.
func Quantile(values []float64, q float64) float64 {
	cleaned := Clean(values)
	if len(cleaned) == 0 {
		return 0
	}
	sorted := make([]float64, len(cleaned))
	copy(sorted, cleaned)
	sort.Float64s(sorted)
	return quantileSorted(sorted, q)
}

func quantileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	frac := pos - float64(lo)
	if lo+1 >= len(sorted) {
		return sorted[lo]
	}
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
