// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	// One statement per Exec keeps both drivers happy.
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return nil
}

// The schema sticks to SQL that sqlite and postgres both accept.
const schema = `
-- Tallies
CREATE TABLE IF NOT EXISTS tally (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    start_post INTEGER NOT NULL DEFAULT 0,
    partition_mode TEXT NOT NULL DEFAULT 'line' CHECK (partition_mode IN ('line', 'block', 'none')),
    method TEXT NOT NULL DEFAULT 'baldwin',
    tasks TEXT NOT NULL DEFAULT '[]',
    status TEXT NOT NULL DEFAULT 'collecting' CHECK (status IN ('collecting', 'tallied')),
    final_snapshot_id TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_tally_status ON tally(status);

-- Posts extracted from the quest thread
CREATE TABLE IF NOT EXISTS tally_post (
    tally_id TEXT NOT NULL REFERENCES tally(id) ON DELETE CASCADE,
    post_id TEXT NOT NULL,
    number INTEGER NOT NULL,
    author TEXT NOT NULL,
    body TEXT NOT NULL,
    PRIMARY KEY (tally_id, post_id)
);

CREATE INDEX IF NOT EXISTS idx_tally_post_number ON tally_post(tally_id, number);

-- Result snapshots
CREATE TABLE IF NOT EXISTS result_snapshot (
    id TEXT PRIMARY KEY,
    tally_id TEXT NOT NULL REFERENCES tally(id) ON DELETE CASCADE,
    method TEXT NOT NULL,
    computed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    payload TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_result_snapshot_tally_id ON result_snapshot(tally_id)
`
