package series

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/opensource-climate/petrel/internal/domain"
)

// WindSpeedKnots derives the wind speed series in knots from the u and v
// 10m components at the requested point.
func WindSpeedKnots(ctx context.Context, provider domain.SeriesProvider, lat, lon float64, start, end time.Time) (*domain.Series, error) {
	u, v, err := windComponents(ctx, provider, lat, lon, start, end)
	if err != nil {
		return nil, err
	}

	values := make([]float64, len(u.Values))
	for i := range values {
		values[i] = math.Hypot(u.Values[i], v.Values[i]) * metersPerSecondToKnots
	}
	return &domain.Series{Times: u.Times, Values: values, Lat: u.Lat, Lon: u.Lon}, nil
}

// WindDirectionDeg derives the meteorological wind direction series in
// degrees, 0 = wind from north, increasing clockwise.
func WindDirectionDeg(ctx context.Context, provider domain.SeriesProvider, lat, lon float64, start, end time.Time) (*domain.Series, error) {
	u, v, err := windComponents(ctx, provider, lat, lon, start, end)
	if err != nil {
		return nil, err
	}

	values := make([]float64, len(u.Values))
	for i := range values {
		deg := math.Atan2(u.Values[i], v.Values[i])*180/math.Pi + 180.0
		values[i] = math.Mod(math.Mod(deg, 360)+360, 360)
	}
	return &domain.Series{Times: u.Times, Values: values, Lat: u.Lat, Lon: u.Lon}, nil
}

// WaveHeight reads the significant wave height series in meters.
func WaveHeight(ctx context.Context, provider domain.SeriesProvider, lat, lon float64, start, end time.Time) (*domain.Series, error) {
	return provider.GetSeries(ctx, domain.VarWaveHeight, lat, lon, start, end)
}

// HazardSeries resolves a hazard identifier to its derived intensity
// series: wind in knots, wave height in meters.
func HazardSeries(ctx context.Context, provider domain.SeriesProvider, hazard string, lat, lon float64, start, end time.Time) (*domain.Series, error) {
	switch hazard {
	case domain.HazardWind:
		return WindSpeedKnots(ctx, provider, lat, lon, start, end)
	case domain.HazardWave:
		return WaveHeight(ctx, provider, lat, lon, start, end)
	default:
		return nil, fmt.Errorf("unsupported hazard %q", hazard)
	}
}

func windComponents(ctx context.Context, provider domain.SeriesProvider, lat, lon float64, start, end time.Time) (u, v *domain.Series, err error) {
	u, err = provider.GetSeries(ctx, domain.VarWindU, lat, lon, start, end)
	if err != nil {
		return nil, nil, err
	}
	v, err = provider.GetSeries(ctx, domain.VarWindV, lat, lon, start, end)
	if err != nil {
		return nil, nil, err
	}
	if len(u.Values) != len(v.Values) {
		u, v = alignPair(u, v)
	}
	return u, v, nil
}

// AlignInner restricts the named series to the timestamps present in every
// one of them, preserving order. Series already sharing one axis pass
// through unchanged.
func AlignInner(byHazard map[string]*domain.Series, hazards []string) map[string]*domain.Series {
	if len(hazards) == 0 {
		return byHazard
	}

	// Key on Unix nanoseconds; time.Time equality is too strict after a
	// serialization round trip. A timestamp counts at most once per
	// hazard so duplicated rows cannot fake full membership.
	shared := make(map[int64]int, byHazard[hazards[0]].Len())
	for _, h := range hazards {
		seen := make(map[int64]struct{}, byHazard[h].Len())
		for _, t := range byHazard[h].Times {
			k := t.UnixNano()
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			shared[k]++
		}
	}

	need := len(hazards)
	aligned := make(map[string]*domain.Series, len(byHazard))
	for _, h := range hazards {
		src := byHazard[h]
		out := &domain.Series{Lat: src.Lat, Lon: src.Lon}
		emitted := make(map[int64]struct{}, len(src.Times))
		for i, t := range src.Times {
			k := t.UnixNano()
			if shared[k] != need {
				continue
			}
			if _, dup := emitted[k]; dup {
				continue
			}
			emitted[k] = struct{}{}
			out.Times = append(out.Times, t)
			out.Values = append(out.Values, src.Values[i])
		}
		aligned[h] = out
	}
	return aligned
}

// alignPair inner-joins two series on their timestamps.
func alignPair(a, b *domain.Series) (*domain.Series, *domain.Series) {
	aligned := AlignInner(map[string]*domain.Series{"a": a, "b": b}, []string{"a", "b"})
	return aligned["a"], aligned["b"]
}
