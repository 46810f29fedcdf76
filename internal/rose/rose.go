// Package rose bins wind direction against wind-speed state into a
// 16-sector rose-chart dataset.
package rose

import (
	"fmt"
	"math"

	"github.com/opensource-climate/petrel/internal/domain"
)

const sectors = 16

var directionLabels = []string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// Build bins direction (degrees clockwise from true north, direction the
// wind blows from) into 16 sectors of 22.5 degrees starting at 0 = N. For
// each sector it reports the total sample count, the count per operational
// state and the maximum speed observed. Samples where either direction or
// speed is non-finite are skipped. The final sector includes its upper
// edge so 360 degrees lands in NNW.
func Build(speedKnots, directionDeg []float64, limits domain.Threshold) *domain.WindRose {
	r := &domain.WindRose{
		Bins:              sectorBins(),
		DirectionLabels:   append([]string(nil), directionLabels...),
		Counts:            make([]int, sectors),
		OperationalCounts: make([]int, sectors),
		AttentionCounts:   make([]int, sectors),
		StopCounts:        make([]int, sectors),
		SpokeMaxValues:    make([]float64, sectors),
		Limits:            limits,
	}

	n := len(directionDeg)
	if len(speedKnots) < n {
		n = len(speedKnots)
	}
	for i := 0; i < n; i++ {
		dir, speed := directionDeg[i], speedKnots[i]
		if !finite(dir) || !finite(speed) {
			continue
		}

		idx := sectorIndex(dir)
		if idx < 0 {
			continue
		}

		r.Counts[idx]++
		switch {
		case speed >= limits.AttentionMax:
			r.StopCounts[idx]++
		case speed >= limits.OperationalMax:
			r.AttentionCounts[idx]++
		default:
			r.OperationalCounts[idx]++
		}

		if speed > r.SpokeMaxValues[idx] {
			r.SpokeMaxValues[idx] = speed
		}
		if speed > r.GlobalMaxSpeed {
			r.GlobalMaxSpeed = speed
		}
	}

	return r
}

// sectorIndex maps a direction in degrees to its sector, or -1 when the
// direction is outside [0, 360].
func sectorIndex(dir float64) int {
	if dir < 0 || dir > 360 {
		return -1
	}
	idx := int(dir / (360.0 / sectors))
	if idx >= sectors {
		idx = sectors - 1
	}
	return idx
}

// sectorBins renders the sector edges as truncated-degree range labels
// ("0-22", "22-45", ...).
func sectorBins() []string {
	bins := make([]string, sectors)
	width := 360.0 / sectors
	for i := 0; i < sectors; i++ {
		lo := int(math.Trunc(float64(i) * width))
		hi := int(math.Trunc(float64(i+1) * width))
		bins[i] = fmt.Sprintf("%d-%d", lo, hi)
	}
	return bins
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
