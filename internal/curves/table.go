package curves

import (
	"log/slog"

	"github.com/opensource-climate/petrel/internal/domain"
)

// fineGridSamples is the fine interpolation grid size for chart rendering.
const fineGridSamples = 100

// TableModel is the self-contained damage model backed by the built-in
// interpolation catalog. Always available; used directly in the standalone
// profile and as the fallback when the remote engine cannot be reached.
type TableModel struct {
	catalog *Catalog
}

// NewTableModel builds the catalog eagerly and returns the model.
func NewTableModel() (*TableModel, error) {
	catalog, err := NewCatalog()
	if err != nil {
		return nil, err
	}
	return &TableModel{catalog: catalog}, nil
}

// Available always reports true for the table model.
func (m *TableModel) Available() bool { return true }

// Name identifies the implementation.
func (m *TableModel) Name() string { return "table" }

// DamageRatio evaluates the curve for the pair at each intensity. A missing
// curve degrades to all zeros with a warning, never an error.
func (m *TableModel) DamageRatio(hazCode string, intensities []float64, assetType string) []float64 {
	curve := m.catalog.Get(assetType, hazCode)
	if curve == nil {
		slog.Warn("no vulnerability curve, returning zeros",
			"asset_type", assetType,
			"haz_type", hazCode,
		)
		return make([]float64, len(intensities))
	}
	return curve.DamageRatio(intensities)
}

// CurvePoints returns calibration points plus the fine grid for charting.
func (m *TableModel) CurvePoints(hazCode, assetType string) *domain.CurvePoints {
	curve := m.catalog.Get(assetType, hazCode)
	if curve == nil {
		return &domain.CurvePoints{
			HazType:       hazCode,
			AssetType:     assetType,
			Intensity:     []float64{},
			MDD:           []float64{},
			PAA:           []float64{},
			MDR:           []float64{},
			FineIntensity: []float64{},
			FineMDR:       []float64{},
		}
	}

	fineX, fineY := curve.FineGrid(fineGridSamples)
	return &domain.CurvePoints{
		HazType:       curve.HazType,
		Name:          curve.Name,
		IntensityUnit: curve.IntensityUnit,
		AssetType:     assetType,
		Intensity:     curve.Intensity,
		MDD:           curve.MDD,
		PAA:           curve.PAA,
		MDR:           curve.MDR(),
		FineIntensity: fineX,
		FineMDR:       fineY,
	}
}

// Describe returns compact curve metadata for inclusion in results.
func (m *TableModel) Describe(hazCode, assetType string) *domain.CurveInfo {
	curve := m.catalog.Get(assetType, hazCode)
	meta := AssetTypeMeta(assetType)
	if curve == nil {
		return &domain.CurveInfo{
			Available: false,
			AssetType: assetType,
			HazType:   hazCode,
		}
	}
	return &domain.CurveInfo{
		Available:         true,
		Model:             m.Name(),
		AssetType:         assetType,
		AssetName:         meta.Name,
		CurveName:         curve.Name,
		HazType:           curve.HazType,
		IntensityUnit:     curve.IntensityUnit,
		CalibrationPoints: len(curve.Intensity),
		References:        meta.References,
		Status:            meta.Status,
	}
}

// AssetTypes lists the registered asset types.
func (m *TableModel) AssetTypes() []domain.AssetTypeInfo {
	out := make([]domain.AssetTypeInfo, len(AssetTypes))
	copy(out, AssetTypes)
	return out
}
