package domain

import (
	"context"
	"time"
)

// Analysis lifecycle statuses for the async path.
const (
	AnalysisQueued    = "queued"
	AnalysisRunning   = "running"
	AnalysisCompleted = "completed"
	AnalysisFailed    = "failed"
)

// AnalysisRecord is a stored analysis job: the request, its lifecycle
// status and, once completed, the full result document.
type AnalysisRecord struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	Request   []byte    `json:"-"`
	Result    []byte    `json:"-"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// InsightRule is a CEL rule producing a free-text insight for an analysis.
// When must evaluate to bool, Message to string, both against the analysis
// summary activation.
type InsightRule struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	When        string    `json:"when"`
	Message     string    `json:"message"`
	Priority    int       `json:"priority"`
	Enabled     bool      `json:"enabled"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// AssetInfo is the listing entry for a pre-aggregated asset result document.
type AssetInfo struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Lat    *float64 `json:"lat"`
	Lon    *float64 `json:"lon"`
	Type   string   `json:"type,omitempty"`
	Region string   `json:"region,omitempty"`
}

// Repository defines the persistence interface. It backs the async
// analysis lifecycle, insight rule storage, the raw sample store and the
// pre-aggregated asset result documents produced by the offline pipeline.
// The analysis engine itself never persists anything.
type Repository interface {
	// Analysis job lifecycle
	SaveAnalysis(ctx context.Context, rec *AnalysisRecord) error
	UpdateAnalysis(ctx context.Context, rec *AnalysisRecord) error
	GetAnalysis(ctx context.Context, id string) (*AnalysisRecord, error)

	// Insight rules
	SaveInsightRule(ctx context.Context, rule *InsightRule) error
	ListInsightRules(ctx context.Context) ([]*InsightRule, error)

	// Raw sample store (series provider backing)
	SaveSamples(ctx context.Context, variable string, lat, lon float64, times []time.Time, values []float64) error
	GetSamples(ctx context.Context, variable string, lat, lon float64, start, end time.Time) (*Series, error)
	NearestGridPoint(ctx context.Context, variable string, lat, lon float64) (gridLat, gridLon float64, err error)
	SampleCoverage(ctx context.Context) (*Coverage, error)

	// Pre-aggregated asset results (read-mostly)
	SaveAssetResult(ctx context.Context, id string, doc []byte) error
	GetAssetResult(ctx context.Context, id string) ([]byte, error)
	ListAssetResults(ctx context.Context) ([]AssetInfo, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	// Driver is the database driver: "sqlite" or "postgres"
	Driver string

	// SQLite specific
	SQLitePath string

	// PostgreSQL specific
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}
