// Package pricing turns a per-time-step loss series into annualized
// actuarial metrics: AAL, PML, VaR, TVaR, risk load and premiums.
package pricing

import (
	"math"

	"github.com/opensource-climate/petrel/internal/dist"
	"github.com/opensource-climate/petrel/internal/domain"
)

// hoursPerYear is the annualization base. Series are assumed hourly; a
// partial-year sample is scaled up to a full year.
const hoursPerYear = 8760.0

// sensitivityQuantiles are the fixed audit quantiles, reported regardless
// of the caller's chosen quantile.
var sensitivityQuantiles = []float64{0.90, 0.95, 0.99}

// Options configures one pricing run.
type Options struct {
	Quantile       float64
	RiskLoadMethod string
	ExpenseRatio   float64
}

// Price computes the annualized metrics for one loss-per-step series.
// The quantile is clamped to [0.5, 0.999]; the expense ratio is floored at
// 0. An all-zero or empty loss series yields all-zero metrics.
func Price(lossPerStep []float64, totalSteps int, opts Options) *domain.PricingResult {
	q := clampQuantile(opts.Quantile)
	expense := opts.ExpenseRatio
	if expense < 0 {
		expense = 0
	}

	if totalSteps < 1 {
		totalSteps = 1
	}
	ann := hoursPerYear / float64(totalSteps)

	res := &domain.PricingResult{
		AnnualizationFactor: ann,
		RiskLoadMethod:      opts.RiskLoadMethod,
		ExpenseRatio:        expense,
		RiskQuantile:        q,
	}

	res.AAL = mean(lossPerStep) * ann
	res.PML = max(lossPerStep) * ann
	res.VaR, res.TVaR = tailMetrics(lossPerStep, q, ann)
	res.RiskLoad = riskLoad(opts.RiskLoadMethod, lossPerStep, res.AAL, res.VaR, res.TVaR, ann)
	res.PurePremium = res.AAL
	res.TechnicalPremium = res.PurePremium*(1+expense) + res.RiskLoad

	res.QuantileSensitivity = make([]domain.QuantileSensitivity, 0, len(sensitivityQuantiles))
	for _, sq := range sensitivityQuantiles {
		v, tv := tailMetrics(lossPerStep, sq, ann)
		load := riskLoad(opts.RiskLoadMethod, lossPerStep, res.AAL, v, tv, ann)
		res.QuantileSensitivity = append(res.QuantileSensitivity, domain.QuantileSensitivity{
			Quantile:         sq,
			VaR:              v,
			TVaR:             tv,
			TechnicalPremium: res.AAL*(1+expense) + load,
		})
	}

	return res
}

// DiscreteLosses builds the legacy loss-per-step series from operational
// states: stop costs stopLossFactor of asset value, attention costs
// attentionLossFactor, operational costs nothing. The stop factor is
// floored at the attention factor and both clamp to [0, 1].
func DiscreteLosses(states []domain.State, assetValue, attentionLossFactor, stopLossFactor float64) []float64 {
	att := clamp01(attentionLossFactor)
	stop := clamp01(stopLossFactor)
	if stop < att {
		stop = att
	}

	losses := make([]float64, len(states))
	for i, st := range states {
		switch st {
		case domain.StateStop:
			losses[i] = stop * assetValue
		case domain.StateAttention:
			losses[i] = att * assetValue
		}
	}
	return losses
}

// ContinuousLosses scales damage ratios by asset value.
func ContinuousLosses(ratios []float64, assetValue float64) []float64 {
	losses := make([]float64, len(ratios))
	for i, r := range ratios {
		losses[i] = clamp01(r) * assetValue
	}
	return losses
}

// StopCost is the simple downtime cost model: effective stop hours times
// an hourly rate, with an optional attention-hour component.
func StopCost(effectiveStopHours, stopCostPerHour float64, attentionHours int, attentionCostPerHour float64) *domain.StopCostPricing {
	p := &domain.StopCostPricing{
		AttentionCost: float64(attentionHours) * attentionCostPerHour,
		StopCost:      effectiveStopHours * stopCostPerHour,
	}
	p.TotalCost = p.AttentionCost + p.StopCost
	return p
}

// tailMetrics computes annualized VaR and TVaR at quantile q. TVaR is the
// mean of losses at or above the VaR threshold; an empty tail falls back to
// the VaR value itself.
func tailMetrics(loss []float64, q, ann float64) (varValue, tvarValue float64) {
	threshold := dist.Quantile(loss, q)
	varValue = threshold * ann

	var tailSum float64
	var tailN int
	for _, v := range loss {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if v >= threshold {
			tailSum += v
			tailN++
		}
	}
	if tailN == 0 {
		return varValue, varValue
	}
	return varValue, tailSum / float64(tailN) * ann
}

func riskLoad(method string, loss []float64, aal, varValue, tvarValue, ann float64) float64 {
	switch method {
	case domain.RiskLoadVar:
		return math.Max(varValue-aal, 0)
	case domain.RiskLoadTVar:
		return math.Max(tvarValue-aal, 0)
	case domain.RiskLoadStdev:
		return stdev(loss) * math.Sqrt(ann)
	default:
		return 0
	}
}

func clampQuantile(q float64) float64 {
	if q < 0.5 {
		return 0.5
	}
	if q > 0.999 {
		return 0.999
	}
	return q
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

func mean(values []float64) float64 {
	cleaned := dist.Clean(values)
	if len(cleaned) == 0 {
		return 0
	}
	var sum float64
	for _, v := range cleaned {
		sum += v
	}
	return sum / float64(len(cleaned))
}

func max(values []float64) float64 {
	cleaned := dist.Clean(values)
	if len(cleaned) == 0 {
		return 0
	}
	m := cleaned[0]
	for _, v := range cleaned[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// stdev is the population standard deviation over finite values.
func stdev(values []float64) float64 {
	cleaned := dist.Clean(values)
	if len(cleaned) == 0 {
		return 0
	}
	m := 0.0
	for _, v := range cleaned {
		m += v
	}
	m /= float64(len(cleaned))

	var ss float64
	for _, v := range cleaned {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(cleaned)))
}
