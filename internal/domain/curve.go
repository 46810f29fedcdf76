package domain

// DamageModel maps hazard intensity to a fractional damage ratio per asset
// type. Two interchangeable implementations exist (table interpolation and
// the remote vulnerability engine); the choice is made once at startup.
type DamageModel interface {
	// Available reports whether the model can serve curves. The table model
	// always returns true; the remote model reflects the probe at startup.
	Available() bool

	// Name identifies the backing implementation ("table" or "remote").
	Name() string

	// DamageRatio evaluates the curve for (hazardCode, assetType) at each
	// intensity. The result has the same length as intensities, values in
	// [0, 1]. Unknown pairs yield all zeros, never an error.
	DamageRatio(hazardCode string, intensities []float64, assetType string) []float64

	// CurvePoints returns the raw calibration points plus a 100-sample fine
	// grid for charting.
	CurvePoints(hazardCode, assetType string) *CurvePoints

	// Describe returns compact curve metadata for inclusion in results.
	Describe(hazardCode, assetType string) *CurveInfo

	// AssetTypes lists the registered asset types with metadata.
	AssetTypes() []AssetTypeInfo
}

// CurvePoints holds a calibration curve plus a fine interpolation grid.
type CurvePoints struct {
	HazType       string    `json:"hazType"`
	Name          string    `json:"name,omitempty"`
	IntensityUnit string    `json:"intensityUnit,omitempty"`
	AssetType     string    `json:"assetType"`
	Intensity     []float64 `json:"intensity"`
	MDD           []float64 `json:"mdd"`
	PAA           []float64 `json:"paa"`
	MDR           []float64 `json:"mdr"`
	FineIntensity []float64 `json:"fineIntensity"`
	FineMDR       []float64 `json:"fineMdr"`
}

// CurveInfo is compact metadata about the curve used in a calculation.
type CurveInfo struct {
	Available         bool     `json:"available"`
	Model             string   `json:"model,omitempty"`
	AssetType         string   `json:"assetType"`
	AssetName         string   `json:"assetName,omitempty"`
	CurveName         string   `json:"curveName,omitempty"`
	HazType           string   `json:"hazType"`
	IntensityUnit     string   `json:"intensityUnit,omitempty"`
	CalibrationPoints int      `json:"calibrationPoints,omitempty"`
	References        []string `json:"references,omitempty"`
	Status            string   `json:"status,omitempty"`

	// Legacy discrete-model parameters, set when no continuous curve applies.
	Mode                string   `json:"mode,omitempty"`
	AttentionLossFactor *float64 `json:"attentionLossFactor,omitempty"`
	StopLossFactor      *float64 `json:"stopLossFactor,omitempty"`
}

// AssetTypeInfo describes a registered asset type.
type AssetTypeInfo struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	References       []string `json:"references"`
	Status           string   `json:"status"`
	HazardsSupported []string `json:"hazardsSupported"`
}
