// Package curves provides the vulnerability curve catalog and the damage
// model implementations built on it.
package curves

import (
	"fmt"
	"math"
)

// Curve is a calibrated vulnerability curve: ordered (intensity, MDD, PAA)
// triples with non-decreasing intensity. The damage ratio at a point is
// MDD×PAA interpolated piecewise-linearly, clipped to [0, 1]. Immutable
// once built.
type Curve struct {
	HazType       string
	ID            int
	Name          string
	IntensityUnit string

	Intensity []float64
	MDD       []float64
	PAA       []float64

	mdr []float64 // precomputed MDD×PAA
}

// NewCurve validates and builds a curve.
func NewCurve(hazType string, id int, name, unit string, intensity, mdd, paa []float64) (*Curve, error) {
	n := len(intensity)
	if n < 2 {
		return nil, fmt.Errorf("curve %q: needs at least 2 calibration points, got %d", name, n)
	}
	if len(mdd) != n || len(paa) != n {
		return nil, fmt.Errorf("curve %q: intensity/mdd/paa lengths differ (%d/%d/%d)",
			name, n, len(mdd), len(paa))
	}
	for i := 1; i < n; i++ {
		if intensity[i] < intensity[i-1] {
			return nil, fmt.Errorf("curve %q: intensity not non-decreasing at index %d", name, i)
		}
	}

	mdr := make([]float64, n)
	for i := range mdr {
		mdr[i] = clip01(mdd[i] * paa[i])
	}

	return &Curve{
		HazType:       hazType,
		ID:            id,
		Name:          name,
		IntensityUnit: unit,
		Intensity:     intensity,
		MDD:           mdd,
		PAA:           paa,
		mdr:           mdr,
	}, nil
}

// DamageRatio evaluates the curve at each intensity. Values below the
// first calibration point clamp to 0; values above the last clamp to the
// final curve ratio (flat extrapolation). Non-finite intensities yield 0.
func (c *Curve) DamageRatio(intensities []float64) []float64 {
	out := make([]float64, len(intensities))
	for i, x := range intensities {
		out[i] = c.at(x)
	}
	return out
}

func (c *Curve) at(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	n := len(c.Intensity)
	if x < c.Intensity[0] {
		return 0
	}
	if x >= c.Intensity[n-1] {
		return c.mdr[n-1]
	}

	// Find the segment [Intensity[j], Intensity[j+1]) containing x.
	j := 0
	for j < n-1 && x >= c.Intensity[j+1] {
		j++
	}

	x0, x1 := c.Intensity[j], c.Intensity[j+1]
	y0, y1 := c.mdr[j], c.mdr[j+1]
	if x1 == x0 {
		return clip01(y0)
	}
	t := (x - x0) / (x1 - x0)
	return clip01(y0 + t*(y1-y0))
}

// FineGrid returns fineN evenly spaced intensities spanning the calibration
// range together with the interpolated ratios, for chart rendering.
func (c *Curve) FineGrid(fineN int) (xs, ys []float64) {
	if fineN < 2 {
		fineN = 2
	}
	first := c.Intensity[0]
	last := c.Intensity[len(c.Intensity)-1]
	step := (last - first) / float64(fineN-1)

	xs = make([]float64, fineN)
	ys = make([]float64, fineN)
	for i := range xs {
		xs[i] = first + float64(i)*step
		ys[i] = c.at(xs[i])
	}
	// Avoid rounding drift at the upper endpoint.
	xs[fineN-1] = last
	ys[fineN-1] = c.at(last)
	return xs, ys
}

// MDR returns the damage ratio at each calibration point.
func (c *Curve) MDR() []float64 {
	out := make([]float64, len(c.mdr))
	copy(out, c.mdr)
	return out
}

func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
