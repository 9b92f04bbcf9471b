package store

// schemaVersionV1 stores each run as one row with a JSON payload.
const schemaVersionV1 = 1

// currentSchemaVersion is the target schema version for this build.
const currentSchemaVersion = schemaVersionV1

var schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL);

CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	base        TEXT NOT NULL,
	schema_name TEXT NOT NULL,
	score       REAL NOT NULL,
	created_at  TEXT NOT NULL,
	payload     BLOB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_base ON runs(base, created_at);
`
