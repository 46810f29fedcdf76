package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/opensource-climate/petrel/internal/curves"
	"github.com/opensource-climate/petrel/internal/domain"
	"github.com/opensource-climate/petrel/internal/engine"
	"github.com/opensource-climate/petrel/internal/insights"
	"github.com/opensource-climate/petrel/internal/repository"
	"github.com/opensource-climate/petrel/internal/worker"
)

// Handler holds dependencies for API handlers.
type Handler struct {
	repo          domain.Repository
	cache         domain.Cache
	bus           domain.EventBus
	provider      domain.SeriesProvider
	analyzer      *engine.Analyzer
	damage        domain.DamageModel
	insightEngine *insights.Engine
	version       string
}

// NewHandler creates a new API handler.
func NewHandler(repo domain.Repository, cache domain.Cache, bus domain.EventBus, provider domain.SeriesProvider, analyzer *engine.Analyzer, damage domain.DamageModel, insightEngine *insights.Engine, version string) *Handler {
	return &Handler{
		repo:          repo,
		cache:         cache,
		bus:           bus,
		provider:      provider,
		analyzer:      analyzer,
		damage:        damage,
		insightEngine: insightEngine,
		version:       version,
	}
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	if h.repo != nil {
		if err := h.repo.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// Ready returns whether the server is ready to accept traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

// MultiRisk handles POST /api/v1/analysis/multi-risk: the synchronous
// multi-hazard analysis.
func (h *Handler) MultiRisk(w http.ResponseWriter, r *http.Request) {
	var req domain.AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	result, err := h.analyzer.MultiRisk(r.Context(), &req)
	if err != nil {
		h.writeAnalysisError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// WindRisk handles POST /api/v1/analysis/wind-risk: the single-hazard
// wind analysis.
func (h *Handler) WindRisk(w http.ResponseWriter, r *http.Request) {
	var req domain.WindRiskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	result, err := h.analyzer.WindRisk(r.Context(), &req)
	if err != nil {
		h.writeAnalysisError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// RunAnalysis handles POST /api/v1/analysis/run: queues an analysis for
// async processing and returns its id immediately.
func (h *Handler) RunAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.repo == nil || h.bus == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "async analysis not available",
		})
		return
	}

	var req domain.AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	// Reject configuration errors before queueing
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
		return
	}

	analysisID := uuid.New().String()
	reqDoc, err := json.Marshal(&req)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to encode request",
		})
		return
	}

	rec := &domain.AnalysisRecord{
		ID:      analysisID,
		Status:  domain.AnalysisQueued,
		Request: reqDoc,
	}
	if err := h.repo.SaveAnalysis(ctx, rec); err != nil {
		slog.Error("failed to save analysis record", "analysis_id", analysisID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to queue analysis",
		})
		return
	}

	payload, _ := json.Marshal(worker.AnalysisMessage{
		AnalysisID: analysisID,
		Request:    &req,
	})
	if err := h.bus.Publish(ctx, domain.TopicAnalysisRequested, payload); err != nil {
		slog.Error("failed to publish analysis request", "analysis_id", analysisID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to queue analysis",
		})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"analysisId": analysisID,
		"status":     domain.AnalysisQueued,
	})
}

// AnalysisStatus handles GET /api/v1/analysis/{id}/status.
func (h *Handler) AnalysisStatus(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	analysisID := chi.URLParam(r, "id")
	rec, err := h.repo.GetAnalysis(r.Context(), analysisID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": "analysis not found",
			})
			return
		}
		slog.Error("failed to get analysis", "analysis_id", analysisID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to get analysis",
		})
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// AnalysisResults handles GET /api/v1/analysis/{id}/results. Returns the
// full result document once the analysis has completed.
func (h *Handler) AnalysisResults(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	analysisID := chi.URLParam(r, "id")
	rec, err := h.repo.GetAnalysis(r.Context(), analysisID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": "analysis not found",
			})
			return
		}
		slog.Error("failed to get analysis", "analysis_id", analysisID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to get analysis",
		})
		return
	}

	switch rec.Status {
	case domain.AnalysisCompleted:
		writeRawJSON(w, http.StatusOK, rec.Result)
	case domain.AnalysisFailed:
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"status": rec.Status,
			"error":  rec.Error,
		})
	default:
		writeJSON(w, http.StatusConflict, map[string]string{
			"status": rec.Status,
			"error":  "analysis not finished",
		})
	}
}

// hazardInfo is one entry of the hazard catalog.
type hazardInfo struct {
	ID                string           `json:"id"`
	Name              string           `json:"name"`
	HazType           string           `json:"hazType"`
	IntensityUnit     string           `json:"intensityUnit"`
	Variables         []string         `json:"variables"`
	DefaultThresholds domain.Threshold `json:"defaultThresholds"`
}

// ListHazards handles GET /api/v1/hazards.
func (h *Handler) ListHazards(w http.ResponseWriter, r *http.Request) {
	hazards := []hazardInfo{
		{
			ID:                domain.HazardWind,
			Name:              "Wind",
			HazType:           domain.HazWind,
			IntensityUnit:     "knots",
			Variables:         []string{domain.VarWindU, domain.VarWindV},
			DefaultThresholds: domain.Threshold{OperationalMax: 15, AttentionMax: 20},
		},
		{
			ID:                domain.HazardWave,
			Name:              "Significant wave height",
			HazType:           domain.HazWave,
			IntensityUnit:     "m",
			Variables:         []string{domain.VarWaveHeight},
			DefaultThresholds: domain.Threshold{OperationalMax: 2, AttentionMax: 4},
		},
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"hazards": hazards,
		"count":   len(hazards),
	})
}

// ListAssetTypes handles GET /api/v1/hazards/asset-types.
func (h *Handler) ListAssetTypes(w http.ResponseWriter, r *http.Request) {
	types := h.damage.AssetTypes()

	writeJSON(w, http.StatusOK, map[string]any{
		"assetTypes":     types,
		"count":          len(types),
		"model":          h.damage.Name(),
		"modelAvailable": h.damage.Available(),
	})
}

// ListImpactFunctions handles GET /api/v1/hazards/impact-functions:
// every vulnerability curve grouped by asset type.
func (h *Handler) ListImpactFunctions(w http.ResponseWriter, r *http.Request) {
	out := make(map[string]map[string]*domain.CurvePoints)
	for _, at := range h.damage.AssetTypes() {
		out[at.ID] = h.curvesForAsset(at.ID)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"impactFunctions": out,
		"model":           h.damage.Name(),
	})
}

// GetImpactFunctions handles GET /api/v1/hazards/impact-functions/{asset}.
func (h *Handler) GetImpactFunctions(w http.ResponseWriter, r *http.Request) {
	assetType := chi.URLParam(r, "asset")

	found := false
	for _, at := range h.damage.AssetTypes() {
		if at.ID == assetType {
			found = true
			break
		}
	}
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "unknown asset type: " + assetType,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"assetType":       assetType,
		"impactFunctions": h.curvesForAsset(assetType),
		"model":           h.damage.Name(),
	})
}

func (h *Handler) curvesForAsset(assetType string) map[string]*domain.CurvePoints {
	out := make(map[string]*domain.CurvePoints)
	for hazard, code := range map[string]string{
		domain.HazardWind: domain.HazWind,
		domain.HazardWave: domain.HazWave,
	} {
		if cp := h.damage.CurvePoints(code, assetType); cp != nil {
			out[hazard] = cp
		}
	}
	return out
}

// VulnerabilityCurve handles GET /api/v1/analysis/vulnerability-curve.
// Query parameters: hazard (required), asset_type (defaults to the legacy
// discrete type).
func (h *Handler) VulnerabilityCurve(w http.ResponseWriter, r *http.Request) {
	hazard := r.URL.Query().Get("hazard")
	code, err := curves.HazCodeFor(hazard)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
		return
	}

	assetType := r.URL.Query().Get("asset_type")
	if assetType == "" {
		assetType = domain.DefaultAssetType
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"hazard": hazard,
		"curve":  h.damage.CurvePoints(code, assetType),
		"info":   h.damage.Describe(code, assetType),
	})
}

// DataVariables handles GET /api/v1/data/variables.
func (h *Handler) DataVariables(w http.ResponseWriter, r *http.Request) {
	cov, err := h.provider.Coverage(r.Context())
	if err != nil {
		slog.Error("failed to read coverage", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to read dataset coverage",
		})
		return
	}

	writeJSON(w, http.StatusOK, cov)
}

// DataTimeseries handles GET /api/v1/data/timeseries: a raw point series
// passthrough. Query parameters: variable, lat, lon, start, end.
func (h *Handler) DataTimeseries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	variable := q.Get("variable")
	if variable == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "variable is required",
		})
		return
	}

	lat, latErr := strconv.ParseFloat(q.Get("lat"), 64)
	lon, lonErr := strconv.ParseFloat(q.Get("lon"), 64)
	if latErr != nil || lonErr != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "lat and lon must be valid numbers",
		})
		return
	}

	start, err := domain.ParseTimeBound(q.Get("start"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "start: " + err.Error()})
		return
	}
	end, err := domain.ParseTimeBound(q.Get("end"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "end: " + err.Error()})
		return
	}

	series, err := h.provider.GetSeries(r.Context(), variable, lat, lon, start, end)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": "no data for variable " + variable,
			})
			return
		}
		slog.Error("failed to read series", "variable", variable, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to read series",
		})
		return
	}

	times := make([]string, len(series.Times))
	for i, t := range series.Times {
		times[i] = t.UTC().Format(time.RFC3339)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"variable": variable,
		"lat":      series.Lat,
		"lon":      series.Lon,
		"time":     times,
		"values":   series.Values,
	})
}

// ListAssets handles GET /api/v1/assets.
func (h *Handler) ListAssets(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	assets, err := h.repo.ListAssetResults(r.Context())
	if err != nil {
		slog.Error("failed to list asset results", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to list assets",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"assets": assets,
		"count":  len(assets),
	})
}

// AssetResults handles GET /api/v1/assets/{id}/results: the full
// consolidated document, served as stored.
func (h *Handler) AssetResults(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.assetDoc(w, r)
	if !ok {
		return
	}
	writeRawJSON(w, http.StatusOK, doc)
}

// AssetSummary handles GET /api/v1/assets/{id}/summary: an executive view
// trimmed down to the asset metadata, summary section and insights.
func (h *Handler) AssetSummary(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.assetDoc(w, r)
	if !ok {
		return
	}

	var full map[string]json.RawMessage
	if err := json.Unmarshal(doc, &full); err != nil {
		slog.Error("stored asset document is not a JSON object", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "malformed asset document",
		})
		return
	}

	summary := map[string]json.RawMessage{}
	for _, key := range []string{"asset", "summary", "insights"} {
		if v, ok := full[key]; ok {
			summary[key] = v
		}
	}

	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) assetDoc(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return nil, false
	}

	assetID := chi.URLParam(r, "id")
	doc, err := h.repo.GetAssetResult(r.Context(), assetID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": "asset not found",
			})
			return nil, false
		}
		slog.Error("failed to get asset result", "asset_id", assetID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to get asset result",
		})
		return nil, false
	}
	return doc, true
}

// ListInsightRules handles GET /api/v1/insight-rules.
func (h *Handler) ListInsightRules(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	rules, err := h.repo.ListInsightRules(r.Context())
	if err != nil {
		slog.Error("failed to list insight rules", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to list insight rules",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"rules":  rules,
		"count":  len(rules),
		"loaded": h.insightEngine.RulesCount(),
	})
}

// CreateInsightRule handles POST /api/v1/insight-rules: validates the CEL
// expressions, persists the rule and loads it into the engine.
func (h *Handler) CreateInsightRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var rule domain.InsightRule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	if rule.ID == "" || rule.When == "" || rule.Message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "id, when, and message are required",
		})
		return
	}

	if err := h.insightEngine.ValidateRule(&rule); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid CEL expression: " + err.Error(),
		})
		return
	}

	if rule.Enabled {
		if err := h.insightEngine.LoadRule(&rule); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "failed to load rule: " + err.Error(),
			})
			return
		}
	}

	if h.repo != nil {
		if err := h.repo.SaveInsightRule(ctx, &rule); err != nil {
			slog.Error("failed to save insight rule", "id", rule.ID, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "failed to save rule",
			})
			return
		}
	}

	slog.Info("insight rule created", "id", rule.ID, "name", rule.Name)
	writeJSON(w, http.StatusCreated, map[string]any{
		"rule": rule,
	})
}

// ReloadInsightRules handles POST /api/v1/insight-rules/reload: replaces
// the loaded rule set with the persisted one.
func (h *Handler) ReloadInsightRules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	rules, err := h.repo.ListInsightRules(ctx)
	if err != nil {
		slog.Error("failed to list insight rules", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to load rules from repository",
		})
		return
	}

	if err := h.insightEngine.ReplaceAll(rules); err != nil {
		slog.Error("failed to reload insight rules", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to reload rules: " + err.Error(),
		})
		return
	}

	slog.Info("insight rules reloaded", "count", h.insightEngine.RulesCount())
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "insight rules reloaded successfully",
		"count":   h.insightEngine.RulesCount(),
	})
}

// writeAnalysisError maps analyzer errors to HTTP status codes. Only
// configuration errors are the client's fault.
func (h *Handler) writeAnalysisError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
	case errors.Is(err, repository.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": err.Error(),
		})
	default:
		slog.Error("analysis failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "analysis failed: " + err.Error(),
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeRawJSON(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}
