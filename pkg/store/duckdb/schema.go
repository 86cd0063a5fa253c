package duckdb

import (
	"context"
	"fmt"
)

// CreateRecordsTable stores cleaned two-lead recordings.
// Channel values are little-endian float64 blobs.
const CreateRecordsTable = `
CREATE TABLE IF NOT EXISTS records (
    name VARCHAR PRIMARY KEY,
    fs DOUBLE NOT NULL,
    length INTEGER NOT NULL,
    ch1_name VARCHAR NOT NULL,
    ch1_units VARCHAR,
    ch2_name VARCHAR NOT NULL,
    ch2_units VARCHAR,
    ch1 BLOB NOT NULL,
    ch2 BLOB NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// CreateAnnotationsTable stores beat annotations per record.
// Only the primary key is indexed: re-ingesting a record updates rows in place.
const CreateAnnotationsTable = `
CREATE TABLE IF NOT EXISTS annotations (
    record_name VARCHAR NOT NULL,
    seq INTEGER NOT NULL,
    sample_pos BIGINT NOT NULL,
    symbol VARCHAR NOT NULL,
    chan INTEGER NOT NULL,
    PRIMARY KEY (record_name, seq)
);
`

// CreateWindowPairsTable stores extracted window pairs.
// signal holds the row-major (sample, channel) matrix.
const CreateWindowPairsTable = `
CREATE TABLE IF NOT EXISTS window_pairs (
    window_id VARCHAR PRIMARY KEY,
    run_id VARCHAR NOT NULL,
    record_name VARCHAR NOT NULL,
    split VARCHAR NOT NULL,
    label VARCHAR NOT NULL,
    length INTEGER NOT NULL,
    start_sample BIGINT NOT NULL,
    end_sample BIGINT NOT NULL,
    signal BLOB NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_window_pairs_run ON window_pairs(run_id, split);
`

// CreateWindowFeaturesTable creates the window features table
const CreateWindowFeaturesTable = `
CREATE TABLE IF NOT EXISTS window_features (
    window_id VARCHAR PRIMARY KEY,
    label VARCHAR NOT NULL,
    length INTEGER NOT NULL,
    ch1_mean DOUBLE,
    ch1_std DOUBLE,
    ch1_min DOUBLE,
    ch1_max DOUBLE,
    ch2_mean DOUBLE,
    ch2_std DOUBLE,
    ch2_min DOUBLE,
    ch2_max DOUBLE,
    data_version INTEGER NOT NULL
);
`

// InitializeSchema creates all required tables
func InitializeSchema(c *Client) error {
	schemas := []string{
		CreateRecordsTable,
		CreateAnnotationsTable,
		CreateWindowPairsTable,
		CreateWindowFeaturesTable,
	}

	for _, schema := range schemas {
		if err := c.Exec(context.Background(), schema); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return nil
}

// DropAllTables drops all tables (use with caution)
func DropAllTables(c *Client) error {
	tables := []string{"window_features", "window_pairs", "annotations", "records"}
	for _, table := range tables {
		if err := c.Exec(context.Background(), fmt.Sprintf("DROP TABLE IF EXISTS %s", table)); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}
	return nil
}
