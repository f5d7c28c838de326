// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Tally status constants
const (
	StatusCollecting = "collecting"
	StatusTallied    = "tallied"
)

// Request types

type CreateTallyRequest struct {
	Title         string   `json:"title"`
	StartPost     int      `json:"start_post"`
	PartitionMode string   `json:"partition_mode"`
	Method        string   `json:"method"`
	Tasks         []string `json:"tasks"`
}

type PostInput struct {
	ID     string   `json:"id"`
	Number int      `json:"number"`
	Author string   `json:"author"`
	Lines  []string `json:"lines"`
}

type SubmitPostsRequest struct {
	Posts []PostInput `json:"posts"`
}

// Method overrides the tally's method for this run when set
type RunTallyRequest struct {
	Method string `json:"method"`
}

type MergeRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	Type string `json:"type"`
}

type JoinRequest struct {
	Voters []string `json:"voters"`
	Target string   `json:"target"`
	Type   string   `json:"type"`
}

type DeleteRequest struct {
	Vote string `json:"vote"`
	Type string `json:"type"`
}

// Response types

type CreateTallyResponse struct {
	TallyID string `json:"tally_id"`
	EditKey string `json:"edit_key"`
}

type SubmitPostsResponse struct {
	Stored    int `json:"stored"`
	PostCount int `json:"post_count"`
}

type EditResponse struct {
	Action   string         `json:"action"`
	HasUndo  bool           `json:"has_undo"`
	Snapshot ResultSnapshot `json:"snapshot"`
}

type VotesResponse struct {
	Type             string              `json:"type"`
	Votes            map[string][]string `json:"votes"`
	Voters           map[string]string   `json:"voters"`
	PlanNames        []string            `json:"plan_names"`
	HasRankedVotes   bool                `json:"has_ranked_votes"`
	HasUndo          bool                `json:"has_undo"`
	FutureReferences int                 `json:"future_references"`
}

type TallyPreviewResponse struct {
	Title      string            `json:"title"`
	Status     string            `json:"status"`
	Method     string            `json:"method"`
	PostCount  int               `json:"post_count"`
	VoterCount int               `json:"voter_count"`
	Winners    map[string]string `json:"winners,omitempty"`
	LastRun    string            `json:"last_run,omitempty"` // e.g. "3 minutes ago"
}

// Domain types

type Tally struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	StartPost       int       `json:"start_post"`
	PartitionMode   string    `json:"partition_mode"`
	Method          string    `json:"method"`
	Tasks           []string  `json:"tasks"`
	Status          string    `json:"status"`
	FinalSnapshotID *string   `json:"final_snapshot_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type TaskResult struct {
	Task    string   `json:"task"`
	Ranking []string `json:"ranking"` // winner first
	Ballots int      `json:"ballots"`
}

type ResultSnapshot struct {
	ID         string              `json:"id"`
	TallyID    string              `json:"tally_id"`
	Method     string              `json:"method"`
	ComputedAt time.Time           `json:"computed_at"`
	Tasks      []TaskResult        `json:"tasks"`
	Votes      map[string][]string `json:"votes"` // vote text -> supporters
	VoterCount int                 `json:"voter_count"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
