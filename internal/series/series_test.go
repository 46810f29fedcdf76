package series

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/opensource-climate/petrel/internal/domain"
)

type fakeProvider struct {
	series map[string]*domain.Series
	calls  int
}

func (f *fakeProvider) GetSeries(_ context.Context, variable string, _, _ float64, _, _ time.Time) (*domain.Series, error) {
	f.calls++
	return f.series[variable], nil
}

func (f *fakeProvider) Coverage(context.Context) (*domain.Coverage, error) {
	return &domain.Coverage{}, nil
}

type fakeCache struct {
	data map[string][]byte
}

func newFakeCache() *fakeCache { return &fakeCache{data: map[string][]byte{}} }

func (c *fakeCache) Get(_ context.Context, key string) ([]byte, error) { return c.data[key], nil }
func (c *fakeCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.data[key] = value
	return nil
}
func (c *fakeCache) Delete(_ context.Context, key string) error { delete(c.data, key); return nil }
func (c *fakeCache) Ping(context.Context) error                 { return nil }
func (c *fakeCache) Close() error                               { return nil }

func hourly(n int, values []float64) *domain.Series {
	base := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	times := make([]time.Time, n)
	for i := range times {
		times[i] = base.Add(time.Duration(i) * time.Hour)
	}
	return &domain.Series{Times: times, Values: values}
}

func TestWindSpeedKnots(t *testing.T) {
	provider := &fakeProvider{series: map[string]*domain.Series{
		domain.VarWindU: hourly(2, []float64{3, 0}),
		domain.VarWindV: hourly(2, []float64{4, 10}),
	}}

	s, err := WindSpeedKnots(context.Background(), provider, 0, 0, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("wind speed failed: %v", err)
	}
	if math.Abs(s.Values[0]-5*1.94384) > 1e-9 {
		t.Errorf("speed[0] = %v, want %v", s.Values[0], 5*1.94384)
	}
	if math.Abs(s.Values[1]-10*1.94384) > 1e-9 {
		t.Errorf("speed[1] = %v, want %v", s.Values[1], 10*1.94384)
	}
}

func TestWindDirectionMeteorological(t *testing.T) {
	// u eastward, v northward. Wind blowing toward north (v>0) comes from
	// the south: direction 180. Toward east (u>0) comes from the west: 270.
	provider := &fakeProvider{series: map[string]*domain.Series{
		domain.VarWindU: hourly(4, []float64{0, 1, 0, -1}),
		domain.VarWindV: hourly(4, []float64{1, 0, -1, 0}),
	}}

	s, err := WindDirectionDeg(context.Background(), provider, 0, 0, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("wind direction failed: %v", err)
	}
	want := []float64{180, 270, 0, 90}
	for i := range want {
		if math.Abs(s.Values[i]-want[i]) > 1e-9 {
			t.Errorf("direction[%d] = %v, want %v", i, s.Values[i], want[i])
		}
	}
	for _, v := range s.Values {
		if v < 0 || v >= 360 {
			t.Errorf("direction %v outside [0, 360)", v)
		}
	}
}

func TestHazardSeriesUnsupported(t *testing.T) {
	provider := &fakeProvider{series: map[string]*domain.Series{}}
	_, err := HazardSeries(context.Background(), provider, "earthquake", 0, 0, time.Time{}, time.Time{})
	if err == nil {
		t.Error("expected error for unsupported hazard")
	}
}

func TestAlignInner(t *testing.T) {
	base := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	wind := &domain.Series{
		Times:  []time.Time{base, base.Add(time.Hour), base.Add(2 * time.Hour)},
		Values: []float64{10, 11, 12},
	}
	wave := &domain.Series{
		Times:  []time.Time{base.Add(time.Hour), base.Add(2 * time.Hour), base.Add(3 * time.Hour)},
		Values: []float64{1, 2, 3},
	}

	aligned := AlignInner(map[string]*domain.Series{
		domain.HazardWind: wind,
		domain.HazardWave: wave,
	}, []string{domain.HazardWind, domain.HazardWave})

	if aligned[domain.HazardWind].Len() != 2 || aligned[domain.HazardWave].Len() != 2 {
		t.Fatalf("aligned lengths = %d/%d, want 2/2",
			aligned[domain.HazardWind].Len(), aligned[domain.HazardWave].Len())
	}
	if aligned[domain.HazardWind].Values[0] != 11 || aligned[domain.HazardWave].Values[0] != 1 {
		t.Errorf("aligned values = %v / %v",
			aligned[domain.HazardWind].Values, aligned[domain.HazardWave].Values)
	}
	if !aligned[domain.HazardWind].Times[0].Equal(base.Add(time.Hour)) {
		t.Errorf("aligned start = %v, want %v", aligned[domain.HazardWind].Times[0], base.Add(time.Hour))
	}
}

func TestAlignInnerDuplicateTimestamps(t *testing.T) {
	base := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	wind := &domain.Series{
		Times:  []time.Time{base, base, base.Add(time.Hour)},
		Values: []float64{10, 10, 11},
	}
	wave := &domain.Series{
		Times:  []time.Time{base.Add(time.Hour), base.Add(2 * time.Hour)},
		Values: []float64{1, 2},
	}

	aligned := AlignInner(map[string]*domain.Series{
		domain.HazardWind: wind,
		domain.HazardWave: wave,
	}, []string{domain.HazardWind, domain.HazardWave})

	// The repeated wind row at base must not count as wave membership,
	// and only one shared hour exists.
	if aligned[domain.HazardWind].Len() != 1 || aligned[domain.HazardWave].Len() != 1 {
		t.Fatalf("aligned lengths = %d/%d, want 1/1",
			aligned[domain.HazardWind].Len(), aligned[domain.HazardWave].Len())
	}
	if !aligned[domain.HazardWind].Times[0].Equal(base.Add(time.Hour)) {
		t.Errorf("aligned axis = %v, want the shared hour only", aligned[domain.HazardWind].Times)
	}
	if aligned[domain.HazardWind].Values[0] != 11 || aligned[domain.HazardWave].Values[0] != 1 {
		t.Errorf("aligned values = %v / %v",
			aligned[domain.HazardWind].Values, aligned[domain.HazardWave].Values)
	}
}

func TestAlignInnerDisjoint(t *testing.T) {
	base := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	a := &domain.Series{Times: []time.Time{base}, Values: []float64{1}}
	b := &domain.Series{Times: []time.Time{base.Add(time.Hour)}, Values: []float64{2}}

	aligned := AlignInner(map[string]*domain.Series{"a": a, "b": b}, []string{"a", "b"})
	if aligned["a"].Len() != 0 || aligned["b"].Len() != 0 {
		t.Errorf("disjoint axes should align to empty, got %d/%d", aligned["a"].Len(), aligned["b"].Len())
	}
}

func TestCachedProviderReadThrough(t *testing.T) {
	provider := &fakeProvider{series: map[string]*domain.Series{
		domain.VarWaveHeight: hourly(2, []float64{1.5, 2.5}),
	}}
	cached := NewCachedProvider(provider, newFakeCache(), time.Minute)
	ctx := context.Background()

	first, err := cached.GetSeries(ctx, domain.VarWaveHeight, 10, 20, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}
	second, err := cached.GetSeries(ctx, domain.VarWaveHeight, 10, 20, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("second fetch failed: %v", err)
	}

	if provider.calls != 1 {
		t.Errorf("provider calls = %d, want 1 (second fetch cached)", provider.calls)
	}
	if len(second.Values) != len(first.Values) || second.Values[1] != 2.5 {
		t.Errorf("cached series = %v, want %v", second.Values, first.Values)
	}
}

func TestCachedProviderDistinctPoints(t *testing.T) {
	provider := &fakeProvider{series: map[string]*domain.Series{
		domain.VarWaveHeight: hourly(1, []float64{1}),
	}}
	cached := NewCachedProvider(provider, newFakeCache(), time.Minute)
	ctx := context.Background()

	cached.GetSeries(ctx, domain.VarWaveHeight, 10, 20, time.Time{}, time.Time{})
	cached.GetSeries(ctx, domain.VarWaveHeight, 11, 20, time.Time{}, time.Time{})

	if provider.calls != 2 {
		t.Errorf("provider calls = %d, want 2 for distinct points", provider.calls)
	}
}
