// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreateTallyRequest: title, start_post, partition_mode, method, tasks
  - SubmitPostsRequest: posts (id, number, author, lines)
  - RunTallyRequest: optional method override
  - MergeRequest, JoinRequest, DeleteRequest: manual edits

# Response Types

Types for JSON responses:

  - CreateTallyResponse: tally_id, edit_key
  - SubmitPostsResponse: stored, post_count
  - VotesResponse: vote and voter collections of the live ledger
  - EditResponse: action, has_undo, refreshed snapshot
  - TallyPreviewResponse: compact summary with winners
  - ErrorResponse: error, message

# Domain Types

  - Tally: tally settings and lifecycle state
  - TaskResult: one ranked task, winner first
  - ResultSnapshot: rankings and vote counts stored after each run or edit

# Constants

Status values:

	StatusCollecting = "collecting"
	StatusTallied    = "tallied"
*/
package models
