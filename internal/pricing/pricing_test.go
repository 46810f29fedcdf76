package pricing

import (
	"math"
	"testing"

	"github.com/opensource-climate/petrel/internal/domain"
)

func TestPriceLegacyScenario(t *testing.T) {
	// 4 hourly steps, asset value 1,000,000, attention 0.35, stop 1.0.
	states := []domain.State{0, 0, 1, 2}
	losses := DiscreteLosses(states, 1_000_000, 0.35, 1.0)

	want := []float64{0, 0, 350_000, 1_000_000}
	for i := range want {
		if losses[i] != want[i] {
			t.Errorf("loss[%d] = %v, want %v", i, losses[i], want[i])
		}
	}

	res := Price(losses, 4, Options{Quantile: 0.95, RiskLoadMethod: domain.RiskLoadNone, ExpenseRatio: 0})
	if res.AnnualizationFactor != 2190 {
		t.Errorf("annualization = %v, want 2190", res.AnnualizationFactor)
	}
	if math.Abs(res.AAL-739_125_000) > 1e-3 {
		t.Errorf("AAL = %v, want 739125000", res.AAL)
	}
	if math.Abs(res.PML-2_190_000_000) > 1e-3 {
		t.Errorf("PML = %v, want 2190000000", res.PML)
	}
}

func TestPriceAllZeros(t *testing.T) {
	losses := []float64{0, 0, 0, 0}
	res := Price(losses, 4, Options{Quantile: 0.95, RiskLoadMethod: domain.RiskLoadStdev, ExpenseRatio: 0.15})

	if res.AAL != 0 || res.PML != 0 || res.VaR != 0 || res.TVaR != 0 {
		t.Errorf("zero series metrics = %v/%v/%v/%v, want all 0", res.AAL, res.PML, res.VaR, res.TVaR)
	}
	if res.TechnicalPremium != 0 {
		t.Errorf("technical premium = %v, want 0", res.TechnicalPremium)
	}
}

func TestPriceOrdering(t *testing.T) {
	losses := []float64{0, 100, 200, 300, 400, 500, 600, 700, 800, 900}
	res := Price(losses, len(losses), Options{Quantile: 0.95, RiskLoadMethod: domain.RiskLoadNone, ExpenseRatio: 0})

	if res.AAL < 0 || res.PML < 0 || res.VaR < 0 || res.TVaR < 0 {
		t.Error("metrics must be non-negative for a non-negative loss series")
	}
	if !(res.PML >= res.VaR && res.VaR >= res.AAL) {
		t.Errorf("ordering violated: PML %v, VaR %v, AAL %v", res.PML, res.VaR, res.AAL)
	}
	if res.TVaR < res.VaR {
		t.Errorf("TVaR %v below VaR %v", res.TVaR, res.VaR)
	}
}

func TestPriceQuantileClamping(t *testing.T) {
	losses := []float64{1, 2, 3}

	low := Price(losses, 3, Options{Quantile: 0.1})
	if low.RiskQuantile != 0.5 {
		t.Errorf("low quantile clamped to %v, want 0.5", low.RiskQuantile)
	}
	high := Price(losses, 3, Options{Quantile: 1.0})
	if high.RiskQuantile != 0.999 {
		t.Errorf("high quantile clamped to %v, want 0.999", high.RiskQuantile)
	}
}

func TestPriceRiskLoadMethods(t *testing.T) {
	losses := []float64{0, 0, 100, 1000}

	varLoad := Price(losses, 4, Options{Quantile: 0.95, RiskLoadMethod: domain.RiskLoadVar})
	if math.Abs(varLoad.RiskLoad-math.Max(varLoad.VaR-varLoad.AAL, 0)) > 1e-9 {
		t.Errorf("var risk load = %v, want VaR-AAL", varLoad.RiskLoad)
	}

	tvarLoad := Price(losses, 4, Options{Quantile: 0.95, RiskLoadMethod: domain.RiskLoadTVar})
	if math.Abs(tvarLoad.RiskLoad-math.Max(tvarLoad.TVaR-tvarLoad.AAL, 0)) > 1e-9 {
		t.Errorf("tvar risk load = %v, want TVaR-AAL", tvarLoad.RiskLoad)
	}

	stdevLoad := Price(losses, 4, Options{Quantile: 0.95, RiskLoadMethod: domain.RiskLoadStdev})
	wantStdev := stdev(losses) * math.Sqrt(2190)
	if math.Abs(stdevLoad.RiskLoad-wantStdev) > 1e-6 {
		t.Errorf("stdev risk load = %v, want %v", stdevLoad.RiskLoad, wantStdev)
	}

	none := Price(losses, 4, Options{Quantile: 0.95, RiskLoadMethod: domain.RiskLoadNone})
	if none.RiskLoad != 0 {
		t.Errorf("none risk load = %v, want 0", none.RiskLoad)
	}
}

func TestPriceExpenseRatio(t *testing.T) {
	losses := []float64{100, 100}
	res := Price(losses, 2, Options{Quantile: 0.95, RiskLoadMethod: domain.RiskLoadNone, ExpenseRatio: 0.15})

	wantPremium := res.AAL * 1.15
	if math.Abs(res.TechnicalPremium-wantPremium) > 1e-6 {
		t.Errorf("technical premium = %v, want %v", res.TechnicalPremium, wantPremium)
	}

	negative := Price(losses, 2, Options{Quantile: 0.95, ExpenseRatio: -1})
	if negative.ExpenseRatio != 0 {
		t.Errorf("negative expense ratio floored to %v, want 0", negative.ExpenseRatio)
	}
}

func TestPriceSensitivityQuantiles(t *testing.T) {
	losses := []float64{0, 10, 20, 30, 40, 50}
	res := Price(losses, 6, Options{Quantile: 0.8, RiskLoadMethod: domain.RiskLoadVar, ExpenseRatio: 0.1})

	if len(res.QuantileSensitivity) != 3 {
		t.Fatalf("sensitivity entries = %d, want 3", len(res.QuantileSensitivity))
	}
	wantQ := []float64{0.90, 0.95, 0.99}
	for i, s := range res.QuantileSensitivity {
		if s.Quantile != wantQ[i] {
			t.Errorf("sensitivity[%d] quantile = %v, want %v", i, s.Quantile, wantQ[i])
		}
		if s.VaR < 0 || s.TVaR < s.VaR {
			t.Errorf("sensitivity[%d]: VaR %v, TVaR %v", i, s.VaR, s.TVaR)
		}
	}
}

func TestDiscreteLossesFactorClamping(t *testing.T) {
	// Stop factor below attention factor floors at the attention factor.
	states := []domain.State{domain.StateStop}
	losses := DiscreteLosses(states, 1000, 0.5, 0.1)
	if losses[0] != 500 {
		t.Errorf("stop loss = %v, want 500 (floored at attention factor)", losses[0])
	}

	// Factors outside [0, 1] clamp.
	losses = DiscreteLosses([]domain.State{domain.StateAttention}, 1000, 1.7, 2.0)
	if losses[0] != 1000 {
		t.Errorf("attention loss = %v, want 1000 with clamped factor", losses[0])
	}
}

func TestContinuousLosses(t *testing.T) {
	losses := ContinuousLosses([]float64{0, 0.25, 1.0, 1.5, -0.1}, 1000)
	want := []float64{0, 250, 1000, 1000, 0}
	for i := range want {
		if losses[i] != want[i] {
			t.Errorf("loss[%d] = %v, want %v", i, losses[i], want[i])
		}
	}
}

func TestStopCost(t *testing.T) {
	p := StopCost(10, 5000, 4, 1000)
	if p.StopCost != 50_000 {
		t.Errorf("stop cost = %v, want 50000", p.StopCost)
	}
	if p.AttentionCost != 4000 {
		t.Errorf("attention cost = %v, want 4000", p.AttentionCost)
	}
	if p.TotalCost != 54_000 {
		t.Errorf("total cost = %v, want 54000", p.TotalCost)
	}
}
