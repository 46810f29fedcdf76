package domain

import (
	"context"
	"time"
)

// Raw dataset variable identifiers served by the series store.
const (
	VarWindU      = "u10" // 10m wind, eastward component (m/s)
	VarWindV      = "v10" // 10m wind, northward component (m/s)
	VarWaveHeight = "hs"  // significant wave height (m)
)

// Series is a time-aligned point series for one variable. Lat and Lon are
// the grid coordinates the requested point snapped to.
type Series struct {
	Times  []time.Time `json:"time"`
	Values []float64   `json:"values"`
	Lat    float64     `json:"lat"`
	Lon    float64     `json:"lon"`
}

// Len returns the number of samples.
func (s *Series) Len() int { return len(s.Values) }

// Coverage describes what the series store can serve.
type Coverage struct {
	Variables []string      `json:"variables"`
	TimeMin   time.Time     `json:"timeMin"`
	TimeMax   time.Time     `json:"timeMax"`
	Bounds    SpatialBounds `json:"bounds"`
}

// SpatialBounds is the dataset's bounding box.
type SpatialBounds struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	West  float64 `json:"west"`
	East  float64 `json:"east"`
}

// SeriesProvider supplies point time series of raw variables. The dataset
// read is the engine's only suspension point; the engine treats it as one
// atomic fetch.
type SeriesProvider interface {
	// GetSeries returns the series for a variable at the grid point nearest
	// (lat, lon), restricted to [start, end]. Zero bounds mean unbounded.
	GetSeries(ctx context.Context, variable string, lat, lon float64, start, end time.Time) (*Series, error)

	// Coverage reports available variables, time range and spatial bounds.
	Coverage(ctx context.Context) (*Coverage, error)
}
