// Package domain defines the core interfaces and types for Petrel.
package domain

import (
	"fmt"
	"time"
)

// Hazard identifiers accepted in analysis requests.
const (
	HazardWind = "wind"
	HazardWave = "wave"
)

// Hazard type codes used by the vulnerability curve catalog.
// WS follows the CLIMADA windstorm convention; OW is a custom ocean-wave extension.
const (
	HazWind = "WS"
	HazWave = "OW"
)

// State is the operational state derived from hazard intensity.
type State uint8

const (
	StateOperational State = 0
	StateAttention   State = 1
	StateStop        State = 2
)

// Threshold is the per-hazard classification boundary pair.
// Values below OperationalMax are operational, values in
// [OperationalMax, AttentionMax) require attention, values at or above
// AttentionMax force a stop.
type Threshold struct {
	OperationalMax float64 `json:"operationalMax"`
	AttentionMax   float64 `json:"attentionMax"`
}

// Combination modes for merging per-hazard state series.
const (
	CombineWorst      = "worst"
	CombineWeighted   = "weighted"
	CombineMultiplier = "multiplier"
)

// Exceedance plotting-position methods.
const (
	MethodWeibull    = "weibull"
	MethodHazen      = "hazen"
	MethodGringorten = "gringorten"
)

// Risk load methods for the pricing engine.
const (
	RiskLoadNone  = "none"
	RiskLoadVar   = "var"
	RiskLoadTVar  = "tvar"
	RiskLoadStdev = "stdev"
)

// DefaultAssetType is the legacy discrete-model asset type. Selecting it
// disables the continuous vulnerability model.
const DefaultAssetType = "generic_offshore"

// AnalysisRequest is the input for a multi-hazard point risk analysis.
// Pointer fields distinguish "absent" from an explicit zero; ApplyDefaults
// fills the documented defaults.
type AnalysisRequest struct {
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	StartTime string  `json:"startTime"`
	EndTime   string  `json:"endTime"`

	Hazards    []string             `json:"hazards"`
	Thresholds map[string]Threshold `json:"thresholds"`

	CombineMode string             `json:"combineMode,omitempty"`
	Weights     map[string]float64 `json:"weights,omitempty"`
	Multiplier  *float64           `json:"multiplier,omitempty"`

	AssetValue          *float64 `json:"assetValue,omitempty"`
	AssetType           string   `json:"assetType,omitempty"`
	AttentionLossFactor *float64 `json:"attentionLossFactor,omitempty"`
	StopLossFactor      *float64 `json:"stopLossFactor,omitempty"`
	StopCostPerHour     *float64 `json:"stopCostPerHour,omitempty"`

	ExceedanceMethod string   `json:"exceedanceMethod,omitempty"`
	RiskLoadMethod   string   `json:"riskLoadMethod,omitempty"`
	RiskQuantile     *float64 `json:"riskQuantile,omitempty"`
	ExpenseRatio     *float64 `json:"expenseRatio,omitempty"`

	IncludeSeries bool `json:"includeSeries,omitempty"`
}

// ApplyDefaults fills unset optional fields with their documented defaults.
func (r *AnalysisRequest) ApplyDefaults() {
	if r.CombineMode == "" {
		r.CombineMode = CombineWorst
	}
	if r.ExceedanceMethod == "" {
		r.ExceedanceMethod = MethodWeibull
	}
	if r.RiskLoadMethod == "" {
		r.RiskLoadMethod = RiskLoadNone
	}
	if r.AssetType == "" {
		r.AssetType = DefaultAssetType
	}
	if r.Multiplier == nil {
		r.Multiplier = ptr(1.5)
	}
	if r.AttentionLossFactor == nil {
		r.AttentionLossFactor = ptr(0.35)
	}
	if r.StopLossFactor == nil {
		r.StopLossFactor = ptr(1.0)
	}
	if r.RiskQuantile == nil {
		r.RiskQuantile = ptr(0.95)
	}
	if r.ExpenseRatio == nil {
		r.ExpenseRatio = ptr(0.15)
	}
}

// Validate checks the request for configuration errors. Only these
// propagate to the caller; data problems degrade inside the engine.
func (r *AnalysisRequest) Validate() error {
	if len(r.Hazards) == 0 {
		return fmt.Errorf("%w: at least one hazard is required", ErrInvalidRequest)
	}
	recognized := 0
	for _, h := range r.Hazards {
		if h == HazardWind || h == HazardWave {
			recognized++
		}
	}
	if recognized == 0 {
		return fmt.Errorf("%w: no supported hazards in %v", ErrInvalidRequest, r.Hazards)
	}
	if _, err := ParseTimeBound(r.StartTime); r.StartTime != "" && err != nil {
		return fmt.Errorf("%w: startTime: %v", ErrInvalidRequest, err)
	}
	if _, err := ParseTimeBound(r.EndTime); r.EndTime != "" && err != nil {
		return fmt.Errorf("%w: endTime: %v", ErrInvalidRequest, err)
	}
	for hazard, th := range r.Thresholds {
		if th.AttentionMax < th.OperationalMax {
			return fmt.Errorf("%w: hazard %q: attentionMax %.3f below operationalMax %.3f",
				ErrInvalidRequest, hazard, th.AttentionMax, th.OperationalMax)
		}
	}
	return nil
}

// ErrInvalidRequest marks configuration errors that fail fast before any
// computation.
var ErrInvalidRequest = fmt.Errorf("invalid analysis request")

// ParseTimeBound parses a request time bound. Accepts RFC 3339 and plain
// dates; an empty string means "unbounded" and returns the zero time.
func ParseTimeBound(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

// WindRiskRequest is the input for the single-hazard wind risk analysis.
type WindRiskRequest struct {
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	StartTime string  `json:"startTime"`
	EndTime   string  `json:"endTime"`

	OperationalMaxKnots  float64  `json:"operationalMaxKnots,omitempty"`
	AttentionMaxKnots    float64  `json:"attentionMaxKnots,omitempty"`
	CostAttentionPerHour *float64 `json:"costAttentionPerHour,omitempty"`
	CostStopPerHour      *float64 `json:"costStopPerHour,omitempty"`
	AssetType            string   `json:"assetType,omitempty"`
}

// ApplyDefaults fills the default wind thresholds (knots).
func (r *WindRiskRequest) ApplyDefaults() {
	if r.OperationalMaxKnots == 0 {
		r.OperationalMaxKnots = 15.0
	}
	if r.AttentionMaxKnots == 0 {
		r.AttentionMaxKnots = 20.0
	}
	if r.AssetType == "" {
		r.AssetType = DefaultAssetType
	}
}

func ptr(v float64) *float64 { return &v }
