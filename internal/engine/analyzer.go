// Package engine orchestrates the multi-hazard point risk analysis:
// series fetch, classification, distribution, combination, pricing and
// rose assembly into one result payload.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/opensource-climate/petrel/internal/combine"
	"github.com/opensource-climate/petrel/internal/curves"
	"github.com/opensource-climate/petrel/internal/dist"
	"github.com/opensource-climate/petrel/internal/domain"
	"github.com/opensource-climate/petrel/internal/hazard"
	"github.com/opensource-climate/petrel/internal/pricing"
	"github.com/opensource-climate/petrel/internal/rose"
	"github.com/opensource-climate/petrel/internal/series"
)

// InsightEvaluator produces free-text insight strings from analysis
// summary variables. Nil-safe at the Analyzer level; a missing evaluator
// just yields no insights.
type InsightEvaluator interface {
	Evaluate(ctx context.Context, vars map[string]any) []string
}

// Analyzer runs analyses. Stateless and request-scoped: every invocation
// is a pure function of its inputs plus the provider reads it makes.
type Analyzer struct {
	provider domain.SeriesProvider
	damage   domain.DamageModel
	insights InsightEvaluator
}

// New builds an Analyzer with its collaborators.
func New(provider domain.SeriesProvider, damage domain.DamageModel, insights InsightEvaluator) *Analyzer {
	return &Analyzer{provider: provider, damage: damage, insights: insights}
}

// MultiRisk runs the full multi-hazard analysis. Configuration errors fail
// fast before any computation; data problems degrade into well-defined
// zero results.
func (a *Analyzer) MultiRisk(ctx context.Context, req *domain.AnalysisRequest) (*domain.AnalysisResult, error) {
	req.ApplyDefaults()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start, _ := domain.ParseTimeBound(req.StartTime)
	end, _ := domain.ParseTimeBound(req.EndTime)
	hazards := recognizedHazards(req.Hazards)

	fetched := make(map[string]*domain.Series, len(hazards))
	for _, h := range hazards {
		s, err := series.HazardSeries(ctx, a.provider, h, req.Lat, req.Lon, start, end)
		if err != nil {
			return nil, fmt.Errorf("fetch %s series: %w", h, err)
		}
		fetched[h] = s
	}
	aligned := series.AlignInner(fetched, hazards)

	result := &domain.AnalysisResult{
		Time:          timeAxis(aligned[hazards[0]]),
		Hazards:       make(map[string]domain.HazardSummary, len(hazards)),
		Distributions: make(map[string]domain.Distribution, len(hazards)),
		Metrics:       make(map[string]domain.Percentiles, len(hazards)+1),
		CombineMode:   req.CombineMode,
		AssetType:     req.AssetType,
	}
	if req.IncludeSeries {
		result.Series = make(map[string][]float64, len(hazards)+1)
	}

	states := make(map[string][]domain.State, len(hazards))
	for _, h := range hazards {
		limits := req.Thresholds[h]
		values := aligned[h].Values

		st := hazard.Classify(values, limits)
		states[h] = st
		result.Hazards[h] = hazard.Summarize(values, st, limits)

		d, p := dist.Summarize(values, req.ExceedanceMethod)
		result.Distributions[h] = d
		result.Metrics[h] = p

		if req.IncludeSeries {
			result.Series[h] = values
		}
	}

	combined := combine.Combine(states, hazards, req.CombineMode, req.Weights, *req.Multiplier)
	result.Combined = combine.Summarize(combined.States)
	result.EffectiveStopHours = combined.EffectiveStopHours

	score := dist.Clean(combined.Score)
	result.CombinedExceedance = dist.ExceedanceOf(score, req.ExceedanceMethod)
	result.Metrics["combined"] = dist.PercentilesOf(score)

	if req.StopCostPerHour != nil {
		result.Pricing = pricing.StopCost(combined.EffectiveStopHours, *req.StopCostPerHour, 0, 0)
	}

	a.priceAll(result, req, hazards, aligned, states, combined.States)

	if containsHazard(hazards, domain.HazardWind) {
		a.buildWindRose(ctx, result, req, aligned[domain.HazardWind], start, end)
	}

	if a.insights != nil {
		result.Insights = a.insights.Evaluate(ctx, insightVars(result, hazards))
	}

	return result, nil
}

// priceAll fills the combined and per-hazard pricing sections. Pricing
// requires a positive asset value; without one the sections stay nil.
func (a *Analyzer) priceAll(result *domain.AnalysisResult, req *domain.AnalysisRequest, hazards []string, aligned map[string]*domain.Series, states map[string][]domain.State, combinedStates []domain.State) {
	continuous := a.useContinuousModel(req.AssetType)

	result.ImpactFunctions = make(map[string]domain.CurveInfo, len(hazards))
	for _, h := range hazards {
		result.ImpactFunctions[h] = a.curveInfo(h, req, continuous)
	}

	if req.AssetValue == nil || *req.AssetValue <= 0 {
		return
	}
	assetValue := *req.AssetValue
	opts := pricing.Options{
		Quantile:       *req.RiskQuantile,
		RiskLoadMethod: req.RiskLoadMethod,
		ExpenseRatio:   *req.ExpenseRatio,
	}

	ratioByHazard := make(map[string][]float64, len(hazards))
	if continuous {
		for _, h := range hazards {
			code, err := curves.HazCodeFor(h)
			if err != nil {
				continue
			}
			ratioByHazard[h] = a.damage.DamageRatio(code, aligned[h].Values, req.AssetType)
		}
	}

	result.HazardPricing = make(map[string]*domain.PricingResult, len(hazards))
	for _, h := range hazards {
		var losses []float64
		if continuous {
			losses = pricing.ContinuousLosses(ratioByHazard[h], assetValue)
		} else {
			losses = pricing.DiscreteLosses(states[h], assetValue, *req.AttentionLossFactor, *req.StopLossFactor)
		}
		if len(losses) == 0 {
			continue
		}
		hp := pricing.Price(losses, len(losses), opts)
		a.finishPricing(hp, req, assetValue)
		info := result.ImpactFunctions[h]
		hp.ImpactFunction = &info
		result.HazardPricing[h] = hp
	}

	var combinedLosses []float64
	if continuous {
		// Combined damage ratio is the elementwise worst across hazards.
		combinedLosses = pricing.ContinuousLosses(maxRatios(ratioByHazard, hazards), assetValue)
	} else {
		combinedLosses = pricing.DiscreteLosses(combinedStates, assetValue, *req.AttentionLossFactor, *req.StopLossFactor)
	}
	if len(combinedLosses) > 0 {
		result.PricingModels = pricing.Price(combinedLosses, len(combinedLosses), opts)
		a.finishPricing(result.PricingModels, req, assetValue)
	}
}

func (a *Analyzer) finishPricing(p *domain.PricingResult, req *domain.AnalysisRequest, assetValue float64) {
	p.AssetValue = assetValue
	p.AttentionLossFactor = clamp01(*req.AttentionLossFactor)
	p.StopLossFactor = clamp01(*req.StopLossFactor)
	if p.StopLossFactor < p.AttentionLossFactor {
		p.StopLossFactor = p.AttentionLossFactor
	}
	p.ExceedanceMethod = req.ExceedanceMethod
}

// useContinuousModel decides once per request whether damage ratios come
// from the vulnerability model or the legacy discrete factors.
func (a *Analyzer) useContinuousModel(assetType string) bool {
	return assetType != "" && assetType != domain.DefaultAssetType &&
		a.damage != nil && a.damage.Available()
}

func (a *Analyzer) curveInfo(h string, req *domain.AnalysisRequest, continuous bool) domain.CurveInfo {
	if continuous {
		code, err := curves.HazCodeFor(h)
		if err == nil {
			if info := a.damage.Describe(code, req.AssetType); info != nil {
				return *info
			}
		}
	}
	att := clamp01(*req.AttentionLossFactor)
	stop := clamp01(*req.StopLossFactor)
	if stop < att {
		stop = att
	}
	return domain.CurveInfo{
		AssetType:           domain.DefaultAssetType,
		Mode:                "legacy",
		AttentionLossFactor: &att,
		StopLossFactor:      &stop,
	}
}

// buildWindRose derives the direction series and bins it against the
// aligned wind speeds. A direction fetch failure drops the rose section
// with a warning instead of failing the analysis.
func (a *Analyzer) buildWindRose(ctx context.Context, result *domain.AnalysisResult, req *domain.AnalysisRequest, wind *domain.Series, start, end time.Time) {
	direction, err := series.WindDirectionDeg(ctx, a.provider, req.Lat, req.Lon, start, end)
	if err != nil {
		slog.Warn("wind direction fetch failed, skipping rose", "error", err)
		return
	}

	paired := series.AlignInner(map[string]*domain.Series{
		"speed":     wind,
		"direction": direction,
	}, []string{"speed", "direction"})

	limits, ok := req.Thresholds[domain.HazardWind]
	if !ok {
		limits = domain.Threshold{OperationalMax: 15, AttentionMax: 20}
	}
	result.WindRose = rose.Build(paired["speed"].Values, paired["direction"].Values, limits)

	if req.IncludeSeries {
		result.Series["wind_direction_deg"] = paired["direction"].Values
	}
}

// WindRisk runs the single-hazard wind analysis: derived speed and
// direction series, state classification and optional per-hour downtime
// costs.
func (a *Analyzer) WindRisk(ctx context.Context, req *domain.WindRiskRequest) (*domain.WindRiskResult, error) {
	req.ApplyDefaults()
	if req.AttentionMaxKnots < req.OperationalMaxKnots {
		return nil, fmt.Errorf("%w: attentionMaxKnots %.3f below operationalMaxKnots %.3f",
			domain.ErrInvalidRequest, req.AttentionMaxKnots, req.OperationalMaxKnots)
	}

	start, err := domain.ParseTimeBound(req.StartTime)
	if err != nil {
		return nil, fmt.Errorf("%w: startTime: %v", domain.ErrInvalidRequest, err)
	}
	end, err := domain.ParseTimeBound(req.EndTime)
	if err != nil {
		return nil, fmt.Errorf("%w: endTime: %v", domain.ErrInvalidRequest, err)
	}

	speed, err := series.WindSpeedKnots(ctx, a.provider, req.Lat, req.Lon, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch wind speed: %w", err)
	}
	direction, err := series.WindDirectionDeg(ctx, a.provider, req.Lat, req.Lon, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch wind direction: %w", err)
	}

	limits := domain.Threshold{
		OperationalMax: req.OperationalMaxKnots,
		AttentionMax:   req.AttentionMaxKnots,
	}
	status := hazard.Classify(speed.Values, limits)
	summary := hazard.Summarize(speed.Values, status, limits)

	result := &domain.WindRiskResult{
		Lat:          speed.Lat,
		Lon:          speed.Lon,
		Time:         timeAxis(speed),
		SpeedKnots:   speed.Values,
		DirectionDeg: direction.Values,
		Status:       status,
		Limits:       limits,
		Summary: domain.WindRiskSummary{
			TotalHours:       len(status),
			OperationalHours: summary.OperationalHours,
			AttentionHours:   summary.AttentionHours,
			StopHours:        summary.StopHours,
		},
	}

	if req.CostStopPerHour != nil || req.CostAttentionPerHour != nil {
		stopRate, attentionRate := 0.0, 0.0
		if req.CostStopPerHour != nil {
			stopRate = *req.CostStopPerHour
		}
		if req.CostAttentionPerHour != nil {
			attentionRate = *req.CostAttentionPerHour
		}
		result.Pricing = pricing.StopCost(float64(summary.StopHours), stopRate,
			summary.AttentionHours, attentionRate)
	}

	return result, nil
}

func insightVars(result *domain.AnalysisResult, hazards []string) map[string]any {
	worstHazard, worstPeak := "", 0.0
	for _, h := range hazards {
		if s, ok := result.Hazards[h]; ok && (worstHazard == "" || s.Max > worstPeak) {
			worstHazard, worstPeak = h, s.Max
		}
	}

	stopPct := 0.0
	if result.Combined.TotalHours > 0 {
		stopPct = float64(result.Combined.StopHours) / float64(result.Combined.TotalHours) * 100
	}

	vars := map[string]any{
		"stop_hours":           result.Combined.StopHours,
		"attention_hours":      result.Combined.AttentionHours,
		"operational_hours":    result.Combined.OperationalHours,
		"total_hours":          result.Combined.TotalHours,
		"stop_pct":             stopPct,
		"effective_stop_hours": result.EffectiveStopHours,
		"worst_hazard":         worstHazard,
		"worst_peak":           worstPeak,
		"combine_mode":         result.CombineMode,
		"asset_type":           result.AssetType,
		"aal":                  0.0,
		"technical_premium":    0.0,
	}
	if result.PricingModels != nil {
		vars["aal"] = result.PricingModels.AAL
		vars["technical_premium"] = result.PricingModels.TechnicalPremium
	}
	return vars
}

func maxRatios(byHazard map[string][]float64, hazards []string) []float64 {
	var out []float64
	for _, h := range hazards {
		ratios := byHazard[h]
		if out == nil {
			out = make([]float64, len(ratios))
		}
		for i, r := range ratios {
			if i < len(out) && r > out[i] {
				out[i] = r
			}
		}
	}
	return out
}

func recognizedHazards(requested []string) []string {
	seen := make(map[string]bool, len(requested))
	out := make([]string, 0, len(requested))
	for _, h := range requested {
		if h != domain.HazardWind && h != domain.HazardWave {
			continue
		}
		if !seen[h] {
			seen[h] = true
			out = append(out, h)
		}
	}
	return out
}

func containsHazard(hazards []string, want string) bool {
	for _, h := range hazards {
		if h == want {
			return true
		}
	}
	return false
}

func timeAxis(s *domain.Series) []string {
	out := make([]string, len(s.Times))
	for i, t := range s.Times {
		out[i] = t.UTC().Format(time.RFC3339)
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
