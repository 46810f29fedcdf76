package rose

import (
	"math"
	"testing"

	"github.com/opensource-climate/petrel/internal/domain"
)

var limits = domain.Threshold{OperationalMax: 15, AttentionMax: 20}

func TestBuildSectorAssignment(t *testing.T) {
	// 0 degrees is N (sector 0), 22.5 starts NNE (sector 1), 180 is S
	// (sector 8), 359 is NNW (sector 15).
	speeds := []float64{10, 10, 10, 10}
	dirs := []float64{0, 22.5, 180, 359}

	r := Build(speeds, dirs, limits)
	if r.Counts[0] != 1 || r.Counts[1] != 1 || r.Counts[8] != 1 || r.Counts[15] != 1 {
		t.Errorf("sector counts = %v", r.Counts)
	}
	if r.DirectionLabels[0] != "N" || r.DirectionLabels[8] != "S" {
		t.Errorf("direction labels = %v", r.DirectionLabels)
	}
	if len(r.Bins) != 16 || r.Bins[0] != "0-22" {
		t.Errorf("bins = %v", r.Bins)
	}
}

func TestBuildUpperEdgeInclusive(t *testing.T) {
	r := Build([]float64{10}, []float64{360}, limits)
	if r.Counts[15] != 1 {
		t.Errorf("360 degrees should land in the last sector, counts = %v", r.Counts)
	}
}

func TestBuildStateCounts(t *testing.T) {
	// All northerly: operational, attention, stop.
	speeds := []float64{10, 17, 25}
	dirs := []float64{5, 5, 5}

	r := Build(speeds, dirs, limits)
	if r.Counts[0] != 3 {
		t.Fatalf("sector 0 count = %d, want 3", r.Counts[0])
	}
	if r.OperationalCounts[0] != 1 || r.AttentionCounts[0] != 1 || r.StopCounts[0] != 1 {
		t.Errorf("state counts = %d/%d/%d, want 1/1/1",
			r.OperationalCounts[0], r.AttentionCounts[0], r.StopCounts[0])
	}
	if r.SpokeMaxValues[0] != 25 {
		t.Errorf("spoke max = %v, want 25", r.SpokeMaxValues[0])
	}
	if r.GlobalMaxSpeed != 25 {
		t.Errorf("global max = %v, want 25", r.GlobalMaxSpeed)
	}
}

func TestBuildSkipsNonFinite(t *testing.T) {
	speeds := []float64{10, math.NaN(), 12}
	dirs := []float64{5, 5, math.Inf(1)}

	r := Build(speeds, dirs, limits)
	total := 0
	for _, c := range r.Counts {
		total += c
	}
	if total != 1 {
		t.Errorf("total count = %d, want 1 after skipping non-finite pairs", total)
	}
}

func TestBuildEmpty(t *testing.T) {
	r := Build(nil, nil, limits)
	for i := range r.Counts {
		if r.Counts[i] != 0 || r.SpokeMaxValues[i] != 0 {
			t.Errorf("sector %d not empty", i)
		}
	}
	if r.GlobalMaxSpeed != 0 {
		t.Errorf("global max = %v, want 0", r.GlobalMaxSpeed)
	}
}
