// Package combine merges per-hazard state series into one combined state
// series under a selectable policy.
package combine

import (
	"github.com/opensource-climate/petrel/internal/domain"
)

// Result is the output of one combination: the combined states, a float
// score array used for the combined distribution summary, and the
// effective stop hours after any multiplier inflation.
type Result struct {
	States             []domain.State
	Score              []float64
	EffectiveStopHours float64
}

// Combine merges the per-hazard state series. The hazards slice fixes the
// iteration order; every listed hazard must have a state series of the
// shared length. Unknown modes fall back to worst.
func Combine(states map[string][]domain.State, hazards []string, mode string, weights map[string]float64, multiplier float64) Result {
	switch mode {
	case domain.CombineWeighted:
		return weighted(states, hazards, weights)
	case domain.CombineMultiplier:
		return withMultiplier(states, hazards, multiplier)
	default:
		return worst(states, hazards)
	}
}

// worst takes the elementwise maximum across hazards. The score equals the
// state itself.
func worst(states map[string][]domain.State, hazards []string) Result {
	n := seriesLen(states, hazards)
	combined := make([]domain.State, n)
	score := make([]float64, n)

	for i := 0; i < n; i++ {
		var max domain.State
		for _, h := range hazards {
			if s := states[h][i]; s > max {
				max = s
			}
		}
		combined[i] = max
		score[i] = float64(max)
	}

	return Result{
		States:             combined,
		Score:              score,
		EffectiveStopHours: float64(countStop(combined)),
	}
}

// weighted averages the state codes with per-hazard weights and
// re-thresholds the score: >= 1.5 is stop, >= 0.5 is attention, else
// operational. Missing or non-positive weights coerce to 1.0.
func weighted(states map[string][]domain.State, hazards []string, weights map[string]float64) Result {
	n := seriesLen(states, hazards)
	combined := make([]domain.State, n)
	score := make([]float64, n)

	effective := make(map[string]float64, len(hazards))
	var total float64
	for _, h := range hazards {
		w := weights[h]
		if w <= 0 {
			w = 1.0
		}
		effective[h] = w
		total += w
	}
	if total == 0 {
		total = 1
	}

	for i := 0; i < n; i++ {
		var sum float64
		for _, h := range hazards {
			sum += effective[h] * float64(states[h][i])
		}
		s := sum / total
		score[i] = s
		switch {
		case s >= 1.5:
			combined[i] = domain.StateStop
		case s >= 0.5:
			combined[i] = domain.StateAttention
		default:
			combined[i] = domain.StateOperational
		}
	}

	return Result{
		States:             combined,
		Score:              score,
		EffectiveStopHours: float64(countStop(combined)),
	}
}

// withMultiplier combines as worst, then inflates the stop hour count:
// each hour where every hazard is simultaneously at attention or worse
// contributes (multiplier-1) extra equivalent stop hours. The multiplier
// is floored at 1.0, so it never deflates.
func withMultiplier(states map[string][]domain.State, hazards []string, multiplier float64) Result {
	res := worst(states, hazards)
	if multiplier < 1.0 {
		multiplier = 1.0
	}

	n := len(res.States)
	simultaneous := 0
	for i := 0; i < n; i++ {
		all := true
		for _, h := range hazards {
			if states[h][i] < domain.StateAttention {
				all = false
				break
			}
		}
		if all {
			simultaneous++
		}
	}

	res.EffectiveStopHours = float64(countStop(res.States)) +
		(multiplier-1.0)*float64(simultaneous)
	return res
}

// Summarize tallies the combined states into hour counts.
func Summarize(states []domain.State) domain.CombinedSummary {
	s := domain.CombinedSummary{TotalHours: len(states)}
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

func countStop(states []domain.State) int {
	n := 0
	for _, s := range states {
		if s == domain.StateStop {
			n++
		}
	}
	return n
}

func seriesLen(states map[string][]domain.State, hazards []string) int {
	if len(hazards) == 0 {
		return 0
	}
	return len(states[hazards[0]])
}
