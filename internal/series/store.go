// Package series supplies point time series: a repository-backed store,
// derived hazard series (wind speed and direction from the u/v components)
// and a read-through caching decorator.
package series

import (
	"context"
	"fmt"
	"time"

	"github.com/opensource-climate/petrel/internal/domain"
)

// metersPerSecondToKnots converts 10m wind component magnitudes to knots.
const metersPerSecondToKnots = 1.94384

// Store serves point series from the raw sample repository. The requested
// point snaps to the nearest stored grid point before the time slice is
// read.
type Store struct {
	repo domain.Repository
}

// NewStore returns a repository-backed series provider.
func NewStore(repo domain.Repository) *Store {
	return &Store{repo: repo}
}

// GetSeries reads the series for one raw variable at the grid point
// nearest (lat, lon), restricted to [start, end].
func (s *Store) GetSeries(ctx context.Context, variable string, lat, lon float64, start, end time.Time) (*domain.Series, error) {
	gridLat, gridLon, err := s.repo.NearestGridPoint(ctx, variable, lat, lon)
	if err != nil {
		return nil, fmt.Errorf("snap to grid for %s: %w", variable, err)
	}

	series, err := s.repo.GetSamples(ctx, variable, gridLat, gridLon, start, end)
	if err != nil {
		return nil, fmt.Errorf("read samples for %s: %w", variable, err)
	}
	series.Lat = gridLat
	series.Lon = gridLon
	return series, nil
}

// Coverage reports the stored variables, time range and spatial bounds.
func (s *Store) Coverage(ctx context.Context) (*domain.Coverage, error) {
	return s.repo.SampleCoverage(ctx)
}
