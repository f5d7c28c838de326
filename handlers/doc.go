// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the quest-tally API.

# Handler Types

Each handler is a struct with database, config and session dependencies:

  - TallyHandler: Tally creation, post storage and tally runs
  - EditHandler: Manual merge, join, delete and undo
  - ResultsHandler: Tally info, live votes, results and previews

Handlers are created via constructor functions that share one Sessions:

	sessions := handlers.NewSessions()
	tallyHandler := handlers.NewTallyHandler(db, cfg, sessions)

# Tally Lifecycle

	POST /tallies            → CreateTally (returns edit_key)
	POST /tallies/{id}/posts → SubmitPosts (upsert by post id)
	POST /tallies/{id}/run   → RunTally (ledger rebuilt, snapshot stored)

Every run rebuilds the tally's ledger from the stored posts, so manual
edits made since the previous run are discarded.

# Manual Edits

	POST /tallies/{id}/merge  → Merge
	POST /tallies/{id}/join   → Join
	POST /tallies/{id}/delete → Delete
	POST /tallies/{id}/undo   → Undo

Edits need a prior run in this server process and store a new snapshot.
Management and edit operations require the X-Edit-Key header.

# Sessions

The live ledger of each tally is held in memory by Sessions. Requests on
one tally are serialized by the session lock; the ledger itself is never
shared between goroutines without it.
*/
package handlers
