package repository

// Schema definitions for the Petrel database.
// Compatible with both SQLite and PostgreSQL.

const schemaAnalyses = `
CREATE TABLE IF NOT EXISTS analyses (
    id TEXT PRIMARY KEY,
    status TEXT NOT NULL,
    request TEXT NOT NULL,
    result TEXT,
    error TEXT,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_analyses_status ON analyses(status);
CREATE INDEX IF NOT EXISTS idx_analyses_created ON analyses(created_at);
`

const schemaInsightRules = `
CREATE TABLE IF NOT EXISTS insight_rules (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT,
    when_expr TEXT NOT NULL,
    message_expr TEXT NOT NULL,
    priority INTEGER NOT NULL DEFAULT 0,
    enabled INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_insight_rules_enabled ON insight_rules(enabled);
`

// schemaSamples is the raw point sample store the series provider reads.
// One row per (variable, grid point, timestamp).
const schemaSamples = `
CREATE TABLE IF NOT EXISTS samples (
    variable TEXT NOT NULL,
    lat REAL NOT NULL,
    lon REAL NOT NULL,
    timestamp TIMESTAMP NOT NULL,
    value REAL NOT NULL,
    PRIMARY KEY (variable, lat, lon, timestamp)
);

CREATE INDEX IF NOT EXISTS idx_samples_point ON samples(variable, lat, lon);
`

// schemaAssetResults holds the pre-aggregated annual-impact documents
// produced by the offline pipeline. Listing metadata is denormalized from
// the document on save.
const schemaAssetResults = `
CREATE TABLE IF NOT EXISTS asset_results (
    id TEXT PRIMARY KEY,
    name TEXT,
    lat REAL,
    lon REAL,
    asset_type TEXT,
    region TEXT,
    doc TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
`

// AllSchemas returns all schema statements in order.
func AllSchemas() []string {
	return []string{
		schemaAnalyses,
		schemaInsightRules,
		schemaSamples,
		schemaAssetResults,
	}
}
