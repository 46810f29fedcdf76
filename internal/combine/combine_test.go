package combine

import (
	"math"
	"testing"

	"github.com/opensource-climate/petrel/internal/domain"
)

var hazards = []string{domain.HazardWind, domain.HazardWave}

func stateMap(wind, wave []domain.State) map[string][]domain.State {
	return map[string][]domain.State{
		domain.HazardWind: wind,
		domain.HazardWave: wave,
	}
}

func TestCombineWorst(t *testing.T) {
	states := stateMap(
		[]domain.State{0, 1, 2, 0},
		[]domain.State{1, 0, 1, 2},
	)

	res := Combine(states, hazards, domain.CombineWorst, nil, 1.5)
	want := []domain.State{1, 1, 2, 2}
	for i := range want {
		if res.States[i] != want[i] {
			t.Errorf("state[%d] = %d, want %d", i, res.States[i], want[i])
		}
		if res.Score[i] != float64(want[i]) {
			t.Errorf("score[%d] = %v, want %v", i, res.Score[i], float64(want[i]))
		}
	}
	if res.EffectiveStopHours != 2 {
		t.Errorf("effective stop hours = %v, want 2", res.EffectiveStopHours)
	}
}

func TestCombineWeightedDivergesFromWorst(t *testing.T) {
	// States [0, 2] average to 1.0 with equal weights: attention, not the
	// worst-case stop.
	states := stateMap(
		[]domain.State{0},
		[]domain.State{2},
	)

	res := Combine(states, hazards, domain.CombineWeighted, nil, 1.5)
	if res.States[0] != domain.StateAttention {
		t.Errorf("weighted state = %d, want attention", res.States[0])
	}
	if math.Abs(res.Score[0]-1.0) > 1e-9 {
		t.Errorf("weighted score = %v, want 1.0", res.Score[0])
	}

	worst := Combine(states, hazards, domain.CombineWorst, nil, 1.5)
	if worst.States[0] != domain.StateStop {
		t.Errorf("worst state = %d, want stop", worst.States[0])
	}
}

func TestCombineWeightedThresholds(t *testing.T) {
	// Weight wind 3, wave 1: scores (3*s_wind + s_wave) / 4.
	weights := map[string]float64{domain.HazardWind: 3, domain.HazardWave: 1}
	states := stateMap(
		[]domain.State{2, 0, 2},
		[]domain.State{2, 1, 0},
	)

	res := Combine(states, hazards, domain.CombineWeighted, weights, 1.5)
	// (6+2)/4 = 2.0 stop, (0+1)/4 = 0.25 operational, (6+0)/4 = 1.5 stop.
	want := []domain.State{domain.StateStop, domain.StateOperational, domain.StateStop}
	for i := range want {
		if res.States[i] != want[i] {
			t.Errorf("state[%d] = %d, want %d", i, res.States[i], want[i])
		}
	}
}

func TestCombineWeightedNonPositiveWeights(t *testing.T) {
	weights := map[string]float64{domain.HazardWind: -5, domain.HazardWave: 0}
	states := stateMap(
		[]domain.State{0},
		[]domain.State{2},
	)

	res := Combine(states, hazards, domain.CombineWeighted, weights, 1.5)
	// Both coerce to 1.0, so the score is the plain average 1.0.
	if math.Abs(res.Score[0]-1.0) > 1e-9 {
		t.Errorf("score = %v, want 1.0 with coerced weights", res.Score[0])
	}
}

func TestCombineMultiplier(t *testing.T) {
	// Hour 0: both at attention or worse. Hour 1: only wind elevated.
	// Hour 2: both elevated, wind at stop.
	states := stateMap(
		[]domain.State{1, 1, 2},
		[]domain.State{2, 0, 1},
	)

	res := Combine(states, hazards, domain.CombineMultiplier, nil, 1.5)
	// Worst states are [2, 1, 2]: 2 true stop hours. Hours 0 and 2 have all
	// hazards >= attention, adding (1.5-1)*2 = 1 equivalent hour.
	if math.Abs(res.EffectiveStopHours-3.0) > 1e-9 {
		t.Errorf("effective stop hours = %v, want 3.0", res.EffectiveStopHours)
	}
	if res.States[0] != domain.StateStop || res.States[1] != domain.StateAttention {
		t.Errorf("multiplier states = %v, want worst-case combination", res.States)
	}
}

func TestCombineMultiplierFlooredAtOne(t *testing.T) {
	states := stateMap(
		[]domain.State{2},
		[]domain.State{2},
	)

	res := Combine(states, hazards, domain.CombineMultiplier, nil, 0.2)
	if res.EffectiveStopHours != 1 {
		t.Errorf("effective stop hours = %v, want 1 with floored multiplier", res.EffectiveStopHours)
	}
}

func TestCombineUnknownModeFallsBackToWorst(t *testing.T) {
	states := stateMap(
		[]domain.State{0, 2},
		[]domain.State{1, 0},
	)

	res := Combine(states, hazards, "bogus", nil, 1.5)
	if res.States[0] != domain.StateAttention || res.States[1] != domain.StateStop {
		t.Errorf("fallback states = %v, want worst-case", res.States)
	}
}

func TestSummarize(t *testing.T) {
	summary := Summarize([]domain.State{0, 0, 1, 2, 2, 2})
	if summary.TotalHours != 6 {
		t.Errorf("total = %d, want 6", summary.TotalHours)
	}
	if summary.OperationalHours != 2 || summary.AttentionHours != 1 || summary.StopHours != 3 {
		t.Errorf("tallies = %d/%d/%d, want 2/1/3",
			summary.OperationalHours, summary.AttentionHours, summary.StopHours)
	}
}
