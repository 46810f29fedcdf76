// Package hazard classifies intensity series into operational states and
// tallies the direct per-hazard statistics.
package hazard

import (
	"math"

	"github.com/opensource-climate/petrel/internal/domain"
)

// Classify maps each intensity to its operational state. Elementwise and
// deterministic: x >= attentionMax is stop, operationalMax <= x < attentionMax
// is attention, below operationalMax is operational. When the two thresholds
// coincide the attention band is empty and no sample classifies as attention.
func Classify(intensities []float64, limits domain.Threshold) []domain.State {
	states := make([]domain.State, len(intensities))
	for i, x := range intensities {
		switch {
		case x >= limits.AttentionMax:
			states[i] = domain.StateStop
		case x >= limits.OperationalMax:
			states[i] = domain.StateAttention
		default:
			states[i] = domain.StateOperational
		}
	}
	return states
}

// Summarize computes mean, max and per-state hour tallies for one hazard.
// Hour counts are sample counts; the series is assumed hourly and is not
// resampled. Non-finite intensities are excluded from mean and max but still
// classified (NaN compares false against both thresholds, landing in
// operational).
func Summarize(intensities []float64, states []domain.State, limits domain.Threshold) domain.HazardSummary {
	s := domain.HazardSummary{
		OperationalMax: limits.OperationalMax,
		AttentionMax:   limits.AttentionMax,
	}

	var sum float64
	var finite int
	for _, x := range intensities {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			continue
		}
		sum += x
		if finite == 0 || x > s.Max {
			s.Max = x
		}
		finite++
	}
	if finite > 0 {
		s.Mean = sum / float64(finite)
	}

	for _, st := range states {
		switch st {
		case domain.StateStop:
			s.StopHours++
		case domain.StateAttention:
			s.AttentionHours++
		default:
			s.OperationalHours++
		}
	}
	return s
}
