// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the quest-tally API server.

quest-tally counts the votes in a forum quest thread. Posts are submitted
through the API, tallied into a ledger that understands plans and voter
references, corrected by hand where needed, and ranked per task.

# Starting the Server

The server reads configuration from flags, the environment and an
optional .env file:

	EDIT_KEY_SALT=secret DATABASE_URL=tally.db go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." -edit-salt secret

# Configuration

Required settings:

  - DATABASE_URL (-d): sqlite file path or PostgreSQL connection string
  - EDIT_KEY_SALT (-edit-salt): Secret for edit key HMAC

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - RANK_METHOD (-method): Default ranking method (default: baldwin)
  - -env: Env file to load (default: .env)
  - -v: Debug logging

# Architecture

  - votes: Vote parsing, normalization, the ledger and the tally run
  - rank: Ranked-choice methods
  - handlers: HTTP request handlers (tallies, edits, results)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - models: Request/response types
  - auth: ID and edit key generation
  - db: Schema creation
  - cliparse: Configuration parsing
*/
package main
