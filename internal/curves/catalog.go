package curves

import (
	"fmt"

	"github.com/opensource-climate/petrel/internal/domain"
)

// AssetTypes is the registry of supported offshore asset types. Types with
// status "proxy" reuse another type's curves until a dedicated calibration
// exists.
var AssetTypes = []domain.AssetTypeInfo{
	{
		ID:   "fpso",
		Name: "FPSO / FLNG",
		Description: "Floating production, storage and offloading unit. High structural " +
			"inertia; operations are sensitive to wind and wave beyond the marine " +
			"warranty operational limits.",
		References:       []string{"DNV-ST-0119", "DNVGL-OS-E301", "API RP 2SK", "OGP 434-14"},
		Status:           "available",
		HazardsSupported: []string{domain.HazardWind, domain.HazardWave},
	},
	{
		ID:   "fixed_platform",
		Name: "Fixed / Semi-submersible Platform",
		Description: "Structure anchored to the sea floor. Structural vulnerability is " +
			"driven more by long-period waves (fatigue) than by wind.",
		References:       []string{"API RP 2A-WSD", "ISO 19901-2"},
		Status:           "proxy",
		HazardsSupported: []string{domain.HazardWind, domain.HazardWave},
	},
	{
		ID:   "support_vessel",
		Name: "Support Vessel (PSV / AHTS)",
		Description: "Offshore support vessels. More sensitive to wind and waves than " +
			"FPSOs; operational limits are more conservative.",
		References:       []string{"IMO MODU Code", "DNV-GL Ship Rules"},
		Status:           "proxy",
		HazardsSupported: []string{domain.HazardWind, domain.HazardWave},
	},
	{
		ID:   "subsea_pipeline",
		Name: "Subsea Pipeline / Risers",
		Description: "Submerged infrastructure. Effectively insensitive to wind; " +
			"vulnerability dominated by currents and waves.",
		References:       []string{"DNV-ST-F101", "DNVGL-RP-F105", "API RP 1111"},
		Status:           "proxy",
		HazardsSupported: []string{domain.HazardWave},
	},
	{
		ID:   domain.DefaultAssetType,
		Name: "Generic Offshore (legacy)",
		Description: "Three-state discrete model (0% / 35% / 100%) kept for backward " +
			"compatibility. Uses the request's loss factors, not continuous curves.",
		References:       []string{"Petrel internal legacy model"},
		Status:           "legacy",
		HazardsSupported: []string{domain.HazardWind, domain.HazardWave},
	},
}

// Catalog holds the vulnerability curves for every (asset type, hazard
// code) pair. Built eagerly and atomically at construction; read-only
// afterwards, safe for unlimited concurrent readers.
type Catalog struct {
	registry map[string]map[string]*Curve
}

// NewCatalog builds the catalog with the built-in curve families. An error
// here aborts startup; no lookup happens against a partially built catalog.
func NewCatalog() (*Catalog, error) {
	c := &Catalog{registry: make(map[string]map[string]*Curve)}

	fpsoWind, err := NewCurve(domain.HazWind, 1, "FPSO/FLNG - Wind Vulnerability (kn)", "kn",
		[]float64{0, 10, 15, 20, 25, 30, 35, 40, 45, 50, 55, 65},
		[]float64{0.00, 0.01, 0.04, 0.08, 0.14, 0.24, 0.35, 0.50, 0.65, 0.78, 0.88, 0.95},
		[]float64{0.00, 0.10, 0.30, 0.60, 0.85, 1.00, 1.00, 1.00, 1.00, 1.00, 1.00, 1.00},
	)
	if err != nil {
		return nil, err
	}

	fpsoWave, err := NewCurve(domain.HazWave, 2, "FPSO/FLNG - Wave Vulnerability (Hs m)", "m",
		[]float64{0, 1.5, 2.5, 3.5, 4.5, 5.5, 6.5, 8.0, 10.0, 12.0},
		[]float64{0.00, 0.01, 0.04, 0.10, 0.22, 0.38, 0.55, 0.72, 0.85, 0.93},
		[]float64{0.00, 0.10, 0.40, 0.70, 1.00, 1.00, 1.00, 1.00, 1.00, 1.00},
	)
	if err != nil {
		return nil, err
	}

	c.registry["fpso"] = map[string]*Curve{
		domain.HazWind: fpsoWind,
		domain.HazWave: fpsoWave,
	}

	// Proxy reuse until dedicated calibrations exist.
	c.registry["fixed_platform"] = c.registry["fpso"]
	c.registry["support_vessel"] = c.registry["fpso"]

	// Subsea pipelines have no direct wind sensitivity.
	zeroWind, err := NewCurve(domain.HazWind, 3, "Subsea Pipeline - Wind (no direct sensitivity)", "kn",
		[]float64{0, 100},
		[]float64{0, 0},
		[]float64{0, 0},
	)
	if err != nil {
		return nil, err
	}
	subWave, err := NewCurve(domain.HazWave, 4, "Subsea Pipeline - Wave Vulnerability (Hs m)", "m",
		[]float64{0, 3, 5, 7, 9, 12, 15},
		[]float64{0.00, 0.00, 0.03, 0.10, 0.28, 0.55, 0.80},
		[]float64{0.00, 0.00, 0.20, 0.60, 1.00, 1.00, 1.00},
	)
	if err != nil {
		return nil, err
	}
	c.registry["subsea_pipeline"] = map[string]*Curve{
		domain.HazWind: zeroWind,
		domain.HazWave: subWave,
	}

	// Step curves replicating the legacy discrete model: wind below 15 kn
	// is 0%, 15 to 20 kn is 35%, 20 kn and above is 100%; wave below 2 m
	// is 0%, 2 to 4 m is 35%, 4 m and above is 100%.
	genWind, err := NewCurve(domain.HazWind, 5, "Generic Offshore - Wind step (legacy)", "kn",
		[]float64{0, 14.9, 15, 19.9, 20, 100},
		[]float64{0.00, 0.00, 0.35, 0.35, 1.00, 1.00},
		[]float64{1, 1, 1, 1, 1, 1},
	)
	if err != nil {
		return nil, err
	}
	genWave, err := NewCurve(domain.HazWave, 6, "Generic Offshore - Wave step (legacy)", "m",
		[]float64{0, 1.9, 2, 3.9, 4, 20},
		[]float64{0.00, 0.00, 0.35, 0.35, 1.00, 1.00},
		[]float64{1, 1, 1, 1, 1, 1},
	)
	if err != nil {
		return nil, err
	}
	c.registry[domain.DefaultAssetType] = map[string]*Curve{
		domain.HazWind: genWind,
		domain.HazWave: genWave,
	}

	return c, nil
}

// Get returns the curve for the pair, or nil when no curve exists. Unknown
// asset types fall back to the generic_offshore registration.
func (c *Catalog) Get(assetType, hazType string) *Curve {
	byHaz, ok := c.registry[assetType]
	if !ok {
		byHaz = c.registry[domain.DefaultAssetType]
	}
	return byHaz[hazType]
}

// AssetTypeMeta returns the registry metadata for an asset type, falling
// back to the legacy default when unknown.
func AssetTypeMeta(assetType string) domain.AssetTypeInfo {
	for _, meta := range AssetTypes {
		if meta.ID == assetType {
			return meta
		}
	}
	for _, meta := range AssetTypes {
		if meta.ID == domain.DefaultAssetType {
			return meta
		}
	}
	return domain.AssetTypeInfo{}
}

// HazCodeFor maps a request hazard identifier to its curve catalog code.
func HazCodeFor(hazard string) (string, error) {
	switch hazard {
	case domain.HazardWind:
		return domain.HazWind, nil
	case domain.HazardWave:
		return domain.HazWave, nil
	default:
		return "", fmt.Errorf("no hazard code for %q", hazard)
	}
}
