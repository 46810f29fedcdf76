package curves

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/opensource-climate/petrel/internal/domain"
)

// RemoteModel is a damage model backed by an external vulnerability engine
// over HTTP. Availability is probed once at startup; when the probe fails
// the caller selects the table model instead. Lookups that fail at runtime
// degrade to the local catalog, so per-request behavior never branches on
// availability.
type RemoteModel struct {
	baseURL   string
	client    *http.Client
	available bool
	fallback  *TableModel
}

// NewRemoteModel probes the remote engine and returns the model. The
// returned model reports Available() == false when the probe failed.
func NewRemoteModel(baseURL string, fallback *TableModel) *RemoteModel {
	m := &RemoteModel{
		baseURL:  baseURL,
		client:   &http.Client{Timeout: 10 * time.Second},
		fallback: fallback,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	m.available = m.probe(ctx) == nil

	return m
}

func (m *RemoteModel) probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("vulnerability engine health returned %d", resp.StatusCode)
	}
	return nil
}

// Available reports the startup probe result.
func (m *RemoteModel) Available() bool { return m.available }

// Name identifies the implementation.
func (m *RemoteModel) Name() string { return "remote" }

type damageRatioRequest struct {
	HazType     string    `json:"hazType"`
	AssetType   string    `json:"assetType"`
	Intensities []float64 `json:"intensities"`
}

type damageRatioResponse struct {
	Ratios []float64 `json:"ratios"`
}

// DamageRatio queries the remote engine; any failure degrades to the local
// interpolation catalog so the result shape is always well-defined.
func (m *RemoteModel) DamageRatio(hazCode string, intensities []float64, assetType string) []float64 {
	body, err := json.Marshal(damageRatioRequest{
		HazType:     hazCode,
		AssetType:   assetType,
		Intensities: intensities,
	})
	if err != nil {
		return m.fallback.DamageRatio(hazCode, intensities, assetType)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		m.baseURL+"/damage-ratio", bytes.NewReader(body))
	if err != nil {
		return m.fallback.DamageRatio(hazCode, intensities, assetType)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		slog.Warn("remote damage ratio failed, using table fallback",
			"haz_type", hazCode, "asset_type", assetType, "error", err)
		return m.fallback.DamageRatio(hazCode, intensities, assetType)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Warn("remote damage ratio returned non-200, using table fallback",
			"haz_type", hazCode, "asset_type", assetType, "status", resp.StatusCode)
		return m.fallback.DamageRatio(hazCode, intensities, assetType)
	}

	var decoded damageRatioResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil || len(decoded.Ratios) != len(intensities) {
		return m.fallback.DamageRatio(hazCode, intensities, assetType)
	}

	for i, r := range decoded.Ratios {
		decoded.Ratios[i] = clip01(r)
	}
	return decoded.Ratios
}

// CurvePoints serves charting data from the local catalog; the remote
// engine owns only the ratio evaluation.
func (m *RemoteModel) CurvePoints(hazCode, assetType string) *domain.CurvePoints {
	return m.fallback.CurvePoints(hazCode, assetType)
}

// Describe reports metadata with this model's name attached.
func (m *RemoteModel) Describe(hazCode, assetType string) *domain.CurveInfo {
	info := m.fallback.Describe(hazCode, assetType)
	if info.Available {
		info.Model = m.Name()
	}
	return info
}

// AssetTypes lists the registered asset types.
func (m *RemoteModel) AssetTypes() []domain.AssetTypeInfo {
	return m.fallback.AssetTypes()
}
