package domain

// HazardSummary holds the direct per-hazard statistics and hour tallies.
// Hour counts are sample counts; series are assumed hourly.
type HazardSummary struct {
	Mean             float64 `json:"mean"`
	Max              float64 `json:"max"`
	OperationalHours int     `json:"operationalHours"`
	AttentionHours   int     `json:"attentionHours"`
	StopHours        int     `json:"stopHours"`
	OperationalMax   float64 `json:"operationalMax"`
	AttentionMax     float64 `json:"attentionMax"`
}

// Histogram holds fixed-width bin centers and counts.
type Histogram struct {
	Bins   []float64 `json:"bins"`
	Counts []int     `json:"counts"`
}

// Exceedance pairs descending values with ascending empirical exceedance
// probabilities.
type Exceedance struct {
	Values []float64 `json:"values"`
	Probs  []float64 `json:"probs"`
}

// Distribution is the per-hazard empirical distribution output.
type Distribution struct {
	HistBins         []float64 `json:"histBins"`
	HistCounts       []int     `json:"histCounts"`
	ExceedanceValues []float64 `json:"exceedanceValues"`
	ExceedanceProbs  []float64 `json:"exceedanceProbs"`
}

// Percentiles is the standard summary statistic set, computed over finite
// values only.
type Percentiles struct {
	Mean float64 `json:"mean"`
	Max  float64 `json:"max"`
	P50  float64 `json:"p50"`
	P90  float64 `json:"p90"`
	P95  float64 `json:"p95"`
	P99  float64 `json:"p99"`
}

// CombinedSummary tallies hours by combined operational state.
type CombinedSummary struct {
	OperationalHours int `json:"operationalHours"`
	AttentionHours   int `json:"attentionHours"`
	StopHours        int `json:"stopHours"`
	TotalHours       int `json:"totalHours"`
}

// StopCostPricing is the simple per-hour downtime cost model.
type StopCostPricing struct {
	AttentionCost float64 `json:"attentionCost,omitempty"`
	StopCost      float64 `json:"stopCost"`
	TotalCost     float64 `json:"totalCost"`
}

// QuantileSensitivity reports VaR/TVaR/premium at a fixed audit quantile.
type QuantileSensitivity struct {
	Quantile         float64 `json:"quantile"`
	VaR              float64 `json:"var"`
	TVaR             float64 `json:"tvar"`
	TechnicalPremium float64 `json:"technicalPremium"`
}

// PricingResult holds the annualized actuarial metrics for one loss series.
type PricingResult struct {
	AssetValue          float64 `json:"assetValue"`
	AttentionLossFactor float64 `json:"attentionLossFactor"`
	StopLossFactor      float64 `json:"stopLossFactor"`
	AnnualizationFactor float64 `json:"annualizationFactor"`

	AAL  float64 `json:"aal"`
	PML  float64 `json:"pml"`
	VaR  float64 `json:"var"`
	TVaR float64 `json:"tvar"`

	RiskLoadMethod   string  `json:"riskLoadMethod"`
	RiskLoad         float64 `json:"riskLoad"`
	ExpenseRatio     float64 `json:"expenseRatio"`
	PurePremium      float64 `json:"purePremium"`
	TechnicalPremium float64 `json:"technicalPremium"`

	ExceedanceMethod string  `json:"exceedanceMethod"`
	RiskQuantile     float64 `json:"riskQuantile"`

	QuantileSensitivity []QuantileSensitivity `json:"quantileSensitivity,omitempty"`
	ImpactFunction      *CurveInfo            `json:"impactFunction,omitempty"`
}

// WindRose is the 16-sector directional rose dataset. Sectors are 22.5°
// wide starting at 0° = N, meteorological convention (direction the wind
// blows from).
type WindRose struct {
	Bins              []string  `json:"bins"`
	DirectionLabels   []string  `json:"directionLabels"`
	Counts            []int     `json:"counts"`
	OperationalCounts []int     `json:"operationalCounts"`
	AttentionCounts   []int     `json:"attentionCounts"`
	StopCounts        []int     `json:"stopCounts"`
	SpokeMaxValues    []float64 `json:"spokeMaxValues"`
	GlobalMaxSpeed    float64   `json:"globalMaxSpeed"`
	Limits            Threshold `json:"limits"`
}

// AnalysisResult is the complete multi-risk analysis payload. Entirely
// request-scoped; nil sections mean the prerequisite input was absent.
type AnalysisResult struct {
	Time    []string                 `json:"time"`
	Hazards map[string]HazardSummary `json:"hazards"`

	Distributions map[string]Distribution `json:"distributions"`
	Metrics       map[string]Percentiles  `json:"metrics"`

	Combined           CombinedSummary `json:"combined"`
	CombineMode        string          `json:"combineMode"`
	EffectiveStopHours float64         `json:"effectiveStopHours"`
	CombinedExceedance Exceedance      `json:"combinedExceedance"`

	Pricing       *StopCostPricing          `json:"pricing"`
	PricingModels *PricingResult            `json:"pricingModels"`
	HazardPricing map[string]*PricingResult `json:"hazardPricing,omitempty"`

	WindRose *WindRose `json:"windRose"`

	AssetType       string               `json:"assetType"`
	ImpactFunctions map[string]CurveInfo `json:"impactFunctionsUsed,omitempty"`

	Series   map[string][]float64 `json:"series,omitempty"`
	Insights []string             `json:"insights,omitempty"`
}

// WindRiskResult is the single-hazard wind analysis payload.
type WindRiskResult struct {
	Lat          float64          `json:"lat"`
	Lon          float64          `json:"lon"`
	Time         []string         `json:"time"`
	SpeedKnots   []float64        `json:"speedKnots"`
	DirectionDeg []float64        `json:"directionDeg"`
	Status       []State          `json:"status"`
	Limits       Threshold        `json:"limits"`
	Summary      WindRiskSummary  `json:"summary"`
	Pricing      *StopCostPricing `json:"pricing"`
}

// WindRiskSummary tallies hours by wind operational state.
type WindRiskSummary struct {
	TotalHours       int `json:"totalHours"`
	OperationalHours int `json:"operationalHours"`
	AttentionHours   int `json:"attentionHours"`
	StopHours        int `json:"stopHours"`
}
