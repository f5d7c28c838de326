// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the quest-tally API.

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, cfg)

# Endpoints

Health:

	GET /health
	GET /metrics  - Prometheus metrics

Tally management (requires X-Edit-Key, except create):

	POST /tallies             - Create tally (returns edit_key)
	POST /tallies/{id}/posts  - Store or replace thread posts
	POST /tallies/{id}/run    - Tally every stored post

Manual edits (requires X-Edit-Key, tally must have been run):

	POST /tallies/{id}/merge  - Fold one vote into another
	POST /tallies/{id}/join   - Make voters support a target's votes
	POST /tallies/{id}/delete - Remove a vote
	POST /tallies/{id}/undo   - Reverse the latest edit

Results (public):

	GET /tallies/{id}         - Tally settings
	GET /tallies/{id}/votes   - Live vote collection (?type=vote|plan|rank)
	GET /tallies/{id}/results - Latest result snapshot
	GET /tallies/{id}/preview - Compact summary with winners

All handlers share one handlers.Sessions, which owns the live ledgers.
*/
package router
