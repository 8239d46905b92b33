package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the receipt database schema.
// Timestamps are stored as Unix nanoseconds so both drivers round-trip them
// identically.
const Schema = `
CREATE TABLE IF NOT EXISTS receipts (
    receipt_id TEXT PRIMARY KEY,
    timestamp INTEGER NOT NULL,

    input_hash TEXT NOT NULL,
    output_hash TEXT NOT NULL,

    policy_version TEXT NOT NULL,
    detected_types TEXT NOT NULL,
    action TEXT NOT NULL,
    processing_time_ns INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_receipts_timestamp ON receipts(timestamp);
CREATE INDEX IF NOT EXISTS idx_receipts_action ON receipts(action);
CREATE INDEX IF NOT EXISTS idx_receipts_policy_version ON receipts(policy_version);
`

// InsertSchemaVersion inserts the schema version into the schema_version table.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

const receiptColumns = `receipt_id, timestamp, input_hash, output_hash, policy_version, detected_types, action, processing_time_ns`
