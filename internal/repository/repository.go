// Package repository provides data persistence implementations.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/opensource-climate/petrel/internal/domain"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
)

// SQLRepository implements domain.Repository using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// New creates a new repository based on configuration.
func New(cfg domain.RepositoryConfig) (domain.Repository, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	repo := &SQLRepository{
		db:     db,
		driver: cfg.Driver,
	}

	// Run migrations
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *SQLRepository) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := r.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// SaveAnalysis stores a new analysis job record.
func (r *SQLRepository) SaveAnalysis(ctx context.Context, rec *domain.AnalysisRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("%w: analysis id is required", ErrInvalidInput)
	}

	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = now
	}

	query := `
		INSERT INTO analyses (id, status, request, result, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, r.rebind(query),
		rec.ID, rec.Status, string(rec.Request), string(rec.Result),
		rec.Error, rec.CreatedAt, rec.UpdatedAt,
	)
	return err
}

// UpdateAnalysis updates status, result and error of an existing record.
func (r *SQLRepository) UpdateAnalysis(ctx context.Context, rec *domain.AnalysisRecord) error {
	rec.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE analyses SET status = ?, result = ?, error = ?, updated_at = ?
		WHERE id = ?
	`
	res, err := r.db.ExecContext(ctx, r.rebind(query),
		rec.Status, string(rec.Result), rec.Error, rec.UpdatedAt, rec.ID,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetAnalysis retrieves an analysis job by ID.
func (r *SQLRepository) GetAnalysis(ctx context.Context, id string) (*domain.AnalysisRecord, error) {
	query := `
		SELECT id, status, request, result, error, created_at, updated_at
		FROM analyses WHERE id = ?
	`

	var rec domain.AnalysisRecord
	var request, result string
	err := r.db.QueryRowContext(ctx, r.rebind(query), id).Scan(
		&rec.ID, &rec.Status, &request, &result,
		&rec.Error, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	rec.Request = []byte(request)
	rec.Result = []byte(result)
	return &rec, nil
}

// SaveInsightRule upserts an insight rule.
func (r *SQLRepository) SaveInsightRule(ctx context.Context, rule *domain.InsightRule) error {
	if rule.ID == "" {
		return fmt.Errorf("%w: rule id is required", ErrInvalidInput)
	}

	now := time.Now().UTC()
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}
	rule.UpdatedAt = now

	query := `
		INSERT INTO insight_rules (id, name, description, when_expr, message_expr, priority, enabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			when_expr = excluded.when_expr,
			message_expr = excluded.message_expr,
			priority = excluded.priority,
			enabled = excluded.enabled,
			updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, r.rebind(query),
		rule.ID, rule.Name, rule.Description, rule.When, rule.Message,
		rule.Priority, boolToInt(rule.Enabled), rule.CreatedAt, rule.UpdatedAt,
	)
	return err
}

// ListInsightRules returns all stored rules ordered by priority.
func (r *SQLRepository) ListInsightRules(ctx context.Context) ([]*domain.InsightRule, error) {
	query := `
		SELECT id, name, description, when_expr, message_expr, priority, enabled, created_at, updated_at
		FROM insight_rules ORDER BY priority, id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []*domain.InsightRule
	for rows.Next() {
		var rule domain.InsightRule
		var enabled int
		if err := rows.Scan(
			&rule.ID, &rule.Name, &rule.Description, &rule.When, &rule.Message,
			&rule.Priority, &enabled, &rule.CreatedAt, &rule.UpdatedAt,
		); err != nil {
			return nil, err
		}
		rule.Enabled = enabled != 0
		rules = append(rules, &rule)
	}
	return rules, rows.Err()
}

// SaveSamples bulk-inserts point samples for one variable at one grid
// point. Existing (variable, point, timestamp) rows are replaced.
func (r *SQLRepository) SaveSamples(ctx context.Context, variable string, lat, lon float64, times []time.Time, values []float64) error {
	if len(times) != len(values) {
		return fmt.Errorf("%w: times/values length mismatch (%d/%d)", ErrInvalidInput, len(times), len(values))
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := r.rebind(`
		INSERT INTO samples (variable, lat, lon, timestamp, value)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (variable, lat, lon, timestamp) DO UPDATE SET value = excluded.value
	`)
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range times {
		if _, err := stmt.ExecContext(ctx, variable, lat, lon, times[i].UTC(), values[i]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetSamples reads the time-ordered series for one variable at one grid
// point. Zero time bounds mean unbounded.
func (r *SQLRepository) GetSamples(ctx context.Context, variable string, lat, lon float64, start, end time.Time) (*domain.Series, error) {
	query := `
		SELECT timestamp, value FROM samples
		WHERE variable = ? AND lat = ? AND lon = ?
	`
	args := []any{variable, lat, lon}
	if !start.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, start.UTC())
	}
	if !end.IsZero() {
		query += " AND timestamp <= ?"
		args = append(args, end.UTC())
	}
	query += " ORDER BY timestamp"

	rows, err := r.db.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	series := &domain.Series{Lat: lat, Lon: lon}
	for rows.Next() {
		var ts time.Time
		var value float64
		if err := rows.Scan(&ts, &value); err != nil {
			return nil, err
		}
		series.Times = append(series.Times, ts.UTC())
		series.Values = append(series.Values, value)
	}
	return series, rows.Err()
}

// NearestGridPoint snaps a requested point to the closest stored grid
// point for the variable.
func (r *SQLRepository) NearestGridPoint(ctx context.Context, variable string, lat, lon float64) (float64, float64, error) {
	query := `
		SELECT lat, lon FROM samples
		WHERE variable = ?
		GROUP BY lat, lon
		ORDER BY (lat - ?) * (lat - ?) + (lon - ?) * (lon - ?)
		LIMIT 1
	`

	var gridLat, gridLon float64
	err := r.db.QueryRowContext(ctx, r.rebind(query), variable, lat, lat, lon, lon).
		Scan(&gridLat, &gridLon)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, fmt.Errorf("%w: no samples for variable %s", ErrNotFound, variable)
	}
	if err != nil {
		return 0, 0, err
	}
	return gridLat, gridLon, nil
}

// SampleCoverage reports the stored variables, their shared time range
// and the spatial bounding box.
func (r *SQLRepository) SampleCoverage(ctx context.Context) (*domain.Coverage, error) {
	cov := &domain.Coverage{}

	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT variable FROM samples ORDER BY variable`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		cov.Variables = append(cov.Variables, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(cov.Variables) == 0 {
		return cov, nil
	}

	// MIN/MAX over a timestamp column loses the column type on the sqlite
	// driver, so the time range comes from typed single-row queries.
	var tMin, tMax time.Time
	err = r.db.QueryRowContext(ctx,
		`SELECT timestamp FROM samples ORDER BY timestamp ASC LIMIT 1`).Scan(&tMin)
	if err != nil {
		return nil, err
	}
	err = r.db.QueryRowContext(ctx,
		`SELECT timestamp FROM samples ORDER BY timestamp DESC LIMIT 1`).Scan(&tMax)
	if err != nil {
		return nil, err
	}

	var latMin, latMax, lonMin, lonMax float64
	err = r.db.QueryRowContext(ctx, `
		SELECT MIN(lat), MAX(lat), MIN(lon), MAX(lon)
		FROM samples
	`).Scan(&latMin, &latMax, &lonMin, &lonMax)
	if err != nil {
		return nil, err
	}

	cov.TimeMin = tMin.UTC()
	cov.TimeMax = tMax.UTC()
	cov.Bounds = domain.SpatialBounds{
		North: latMax,
		South: latMin,
		West:  lonMin,
		East:  lonMax,
	}
	return cov, nil
}

// assetDoc is the subset of the consolidated document denormalized into
// listing columns.
type assetDoc struct {
	Asset struct {
		Name   string   `json:"name"`
		Lat    *float64 `json:"lat"`
		Lon    *float64 `json:"lon"`
		Type   string   `json:"type"`
		Region string   `json:"region"`
	} `json:"asset"`
}

// SaveAssetResult stores a pre-aggregated asset result document.
func (r *SQLRepository) SaveAssetResult(ctx context.Context, id string, doc []byte) error {
	if id == "" {
		return fmt.Errorf("%w: asset id is required", ErrInvalidInput)
	}

	var meta assetDoc
	if err := json.Unmarshal(doc, &meta); err != nil {
		return fmt.Errorf("%w: asset document is not valid JSON: %v", ErrInvalidInput, err)
	}

	query := `
		INSERT INTO asset_results (id, name, lat, lon, asset_type, region, doc, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			lat = excluded.lat,
			lon = excluded.lon,
			asset_type = excluded.asset_type,
			region = excluded.region,
			doc = excluded.doc,
			updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, r.rebind(query),
		id, meta.Asset.Name, meta.Asset.Lat, meta.Asset.Lon,
		meta.Asset.Type, meta.Asset.Region, string(doc), time.Now().UTC(),
	)
	return err
}

// GetAssetResult retrieves the full consolidated document for one asset.
func (r *SQLRepository) GetAssetResult(ctx context.Context, id string) ([]byte, error) {
	var doc string
	err := r.db.QueryRowContext(ctx, r.rebind(`SELECT doc FROM asset_results WHERE id = ?`), id).
		Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(doc), nil
}

// ListAssetResults lists the stored asset documents by their metadata.
func (r *SQLRepository) ListAssetResults(ctx context.Context) ([]domain.AssetInfo, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, lat, lon, asset_type, region FROM asset_results ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var infos []domain.AssetInfo
	for rows.Next() {
		var info domain.AssetInfo
		var name, assetType, region sql.NullString
		if err := rows.Scan(&info.ID, &name, &info.Lat, &info.Lon, &assetType, &region); err != nil {
			return nil, err
		}
		info.Name = name.String
		info.Type = assetType.String
		info.Region = region.String
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	// Convert ? to $1, $2, etc.
	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, fmt.Sprintf("%d", n)...)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
