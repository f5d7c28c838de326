// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database schema creation.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
The same schema runs on sqlite (modernc.org/sqlite) and postgres (lib/pq).

# Tables

The schema includes:

  - tally: Tally settings and lifecycle state
  - tally_post: Posts extracted from the quest thread, one row per post
  - result_snapshot: Rankings and vote counts computed after each run or edit

# Relationships

	tally 1──* tally_post
	tally 1──* result_snapshot

All foreign keys use ON DELETE CASCADE.
*/
package db
