package engine

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/opensource-climate/petrel/internal/curves"
	"github.com/opensource-climate/petrel/internal/domain"
)

const knotsPerMS = 1.94384

type fakeProvider struct {
	series map[string]*domain.Series
}

func (f *fakeProvider) GetSeries(_ context.Context, variable string, _, _ float64, _, _ time.Time) (*domain.Series, error) {
	s, ok := f.series[variable]
	if !ok {
		return nil, errors.New("no such variable")
	}
	return s, nil
}

func (f *fakeProvider) Coverage(context.Context) (*domain.Coverage, error) {
	return &domain.Coverage{}, nil
}

func hourly(values []float64) *domain.Series {
	base := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	times := make([]time.Time, len(values))
	for i := range times {
		times[i] = base.Add(time.Duration(i) * time.Hour)
	}
	return &domain.Series{Times: times, Values: values}
}

// windProvider yields wind speeds of exactly the given knots (u component
// only) plus a wave height series.
func windProvider(windKnots, wave []float64) *fakeProvider {
	u := make([]float64, len(windKnots))
	v := make([]float64, len(windKnots))
	for i, kn := range windKnots {
		u[i] = kn / knotsPerMS
	}
	return &fakeProvider{series: map[string]*domain.Series{
		domain.VarWindU:      hourly(u),
		domain.VarWindV:      hourly(v),
		domain.VarWaveHeight: hourly(wave),
	}}
}

func newAnalyzer(t *testing.T, provider domain.SeriesProvider) *Analyzer {
	t.Helper()
	model, err := curves.NewTableModel()
	if err != nil {
		t.Fatalf("failed to build table model: %v", err)
	}
	return New(provider, model, nil)
}

func baseRequest() *domain.AnalysisRequest {
	assetValue := 1_000_000.0
	return &domain.AnalysisRequest{
		Lat:     -22.5,
		Lon:     -40.0,
		Hazards: []string{domain.HazardWind, domain.HazardWave},
		Thresholds: map[string]domain.Threshold{
			domain.HazardWind: {OperationalMax: 15, AttentionMax: 20},
			domain.HazardWave: {OperationalMax: 2, AttentionMax: 4},
		},
		AssetValue: &assetValue,
	}
}

func TestMultiRiskFullFlow(t *testing.T) {
	provider := windProvider([]float64{10, 14, 16, 22}, []float64{1, 1, 1, 1})
	analyzer := newAnalyzer(t, provider)

	result, err := analyzer.MultiRisk(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("analysis failed: %v", err)
	}

	wind := result.Hazards[domain.HazardWind]
	if wind.OperationalHours != 2 || wind.AttentionHours != 1 || wind.StopHours != 1 {
		t.Errorf("wind hours = %d/%d/%d, want 2/1/1",
			wind.OperationalHours, wind.AttentionHours, wind.StopHours)
	}

	// Wave stays operational, so combined worst equals the wind states.
	if result.Combined.StopHours != 1 || result.Combined.TotalHours != 4 {
		t.Errorf("combined = %+v", result.Combined)
	}
	if result.EffectiveStopHours != 1 {
		t.Errorf("effective stop hours = %v, want 1", result.EffectiveStopHours)
	}

	// Legacy discrete pricing: losses [0,0,350000,1000000] over 4 hours.
	if result.PricingModels == nil {
		t.Fatal("expected combined pricing")
	}
	if math.Abs(result.PricingModels.AAL-739_125_000) > 1 {
		t.Errorf("AAL = %v, want 739125000", result.PricingModels.AAL)
	}
	if result.PricingModels.AnnualizationFactor != 2190 {
		t.Errorf("annualization = %v, want 2190", result.PricingModels.AnnualizationFactor)
	}

	if result.WindRose == nil {
		t.Error("expected wind rose when wind is requested")
	}
	if len(result.Time) != 4 {
		t.Errorf("time axis length = %d, want 4", len(result.Time))
	}
	if len(result.CombinedExceedance.Values) != 4 {
		t.Errorf("combined exceedance length = %d, want 4", len(result.CombinedExceedance.Values))
	}
	if result.Series != nil {
		t.Error("series should be omitted unless requested")
	}
}

func TestMultiRiskNoRecognizedHazard(t *testing.T) {
	analyzer := newAnalyzer(t, windProvider([]float64{10}, []float64{1}))

	_, err := analyzer.MultiRisk(context.Background(), &domain.AnalysisRequest{
		Hazards: []string{"earthquake"},
	})
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestMultiRiskNoPricingWithoutAssetValue(t *testing.T) {
	analyzer := newAnalyzer(t, windProvider([]float64{10, 22}, []float64{1, 1}))

	req := baseRequest()
	req.AssetValue = nil
	result, err := analyzer.MultiRisk(context.Background(), req)
	if err != nil {
		t.Fatalf("analysis failed: %v", err)
	}
	if result.PricingModels != nil || result.HazardPricing != nil && len(result.HazardPricing) > 0 {
		t.Error("pricing sections should be nil without an asset value")
	}
	if result.Pricing != nil {
		t.Error("stop cost pricing should be nil without a cost per hour")
	}
}

func TestMultiRiskStopCostPricing(t *testing.T) {
	analyzer := newAnalyzer(t, windProvider([]float64{25, 25, 10}, []float64{1, 1, 1}))

	req := baseRequest()
	cost := 5000.0
	req.StopCostPerHour = &cost
	result, err := analyzer.MultiRisk(context.Background(), req)
	if err != nil {
		t.Fatalf("analysis failed: %v", err)
	}
	if result.Pricing == nil {
		t.Fatal("expected stop cost pricing")
	}
	if result.Pricing.StopCost != 10_000 {
		t.Errorf("stop cost = %v, want 10000 (2 stop hours)", result.Pricing.StopCost)
	}
}

func TestMultiRiskContinuousModel(t *testing.T) {
	// 30 kn sits on the fpso wind curve at MDD 0.24 x PAA 1.0.
	analyzer := newAnalyzer(t, windProvider([]float64{30}, []float64{0}))

	req := baseRequest()
	req.AssetType = "fpso"
	result, err := analyzer.MultiRisk(context.Background(), req)
	if err != nil {
		t.Fatalf("analysis failed: %v", err)
	}

	hp := result.HazardPricing[domain.HazardWind]
	if hp == nil {
		t.Fatal("expected per-hazard wind pricing")
	}
	// One hourly step: AAL = 0.24 * 1e6 * 8760.
	want := 0.24 * 1_000_000 * 8760
	if math.Abs(hp.AAL-want) > 1 {
		t.Errorf("continuous AAL = %v, want %v", hp.AAL, want)
	}

	info, ok := result.ImpactFunctions[domain.HazardWind]
	if !ok || !info.Available || info.AssetType != "fpso" {
		t.Errorf("impact function info = %+v", info)
	}
}

func TestMultiRiskLegacyImpactFunctionMeta(t *testing.T) {
	analyzer := newAnalyzer(t, windProvider([]float64{10}, []float64{1}))

	result, err := analyzer.MultiRisk(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("analysis failed: %v", err)
	}

	info := result.ImpactFunctions[domain.HazardWind]
	if info.Mode != "legacy" {
		t.Errorf("mode = %q, want legacy for generic_offshore", info.Mode)
	}
	if info.AttentionLossFactor == nil || *info.AttentionLossFactor != 0.35 {
		t.Errorf("attention loss factor = %v, want 0.35", info.AttentionLossFactor)
	}
}

func TestMultiRiskIncludeSeries(t *testing.T) {
	analyzer := newAnalyzer(t, windProvider([]float64{10, 20}, []float64{1, 3}))

	req := baseRequest()
	req.IncludeSeries = true
	result, err := analyzer.MultiRisk(context.Background(), req)
	if err != nil {
		t.Fatalf("analysis failed: %v", err)
	}

	if len(result.Series[domain.HazardWave]) != 2 {
		t.Errorf("wave series length = %d, want 2", len(result.Series[domain.HazardWave]))
	}
	if len(result.Series["wind_direction_deg"]) != 2 {
		t.Errorf("direction series length = %d, want 2", len(result.Series["wind_direction_deg"]))
	}
}

func TestMultiRiskWaveOnlySkipsRose(t *testing.T) {
	analyzer := newAnalyzer(t, windProvider([]float64{10}, []float64{1, 2, 3}))

	req := baseRequest()
	req.Hazards = []string{domain.HazardWave}
	result, err := analyzer.MultiRisk(context.Background(), req)
	if err != nil {
		t.Fatalf("analysis failed: %v", err)
	}
	if result.WindRose != nil {
		t.Error("wave-only analysis should not build a rose")
	}
	if len(result.Time) != 3 {
		t.Errorf("time axis length = %d, want 3", len(result.Time))
	}
}

func TestWindRisk(t *testing.T) {
	analyzer := newAnalyzer(t, windProvider([]float64{10, 16, 25}, nil))

	stopCost := 1000.0
	result, err := analyzer.WindRisk(context.Background(), &domain.WindRiskRequest{
		Lat: -22.5, Lon: -40.0,
		CostStopPerHour: &stopCost,
	})
	if err != nil {
		t.Fatalf("wind risk failed: %v", err)
	}

	if result.Summary.OperationalHours != 1 || result.Summary.AttentionHours != 1 || result.Summary.StopHours != 1 {
		t.Errorf("summary = %+v", result.Summary)
	}
	if result.Limits.OperationalMax != 15 || result.Limits.AttentionMax != 20 {
		t.Errorf("default limits = %+v", result.Limits)
	}
	if result.Pricing == nil || result.Pricing.StopCost != 1000 {
		t.Errorf("pricing = %+v", result.Pricing)
	}
	if len(result.SpeedKnots) != 3 || len(result.DirectionDeg) != 3 {
		t.Errorf("series lengths = %d/%d", len(result.SpeedKnots), len(result.DirectionDeg))
	}
}

func TestWindRiskInvalidThresholds(t *testing.T) {
	analyzer := newAnalyzer(t, windProvider([]float64{10}, nil))

	_, err := analyzer.WindRisk(context.Background(), &domain.WindRiskRequest{
		OperationalMaxKnots: 25,
		AttentionMaxKnots:   20,
	})
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got %v", err)
	}
}
