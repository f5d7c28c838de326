// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/danielhkuo/quest-tally/auth"
	"github.com/danielhkuo/quest-tally/models"
	"github.com/danielhkuo/quest-tally/rank"
	"github.com/danielhkuo/quest-tally/votes"
)

// snapshotPayload is the JSON stored in result_snapshot.payload
type snapshotPayload struct {
	Tasks      []models.TaskResult `json:"tasks"`
	Votes      map[string][]string `json:"votes"`
	VoterCount int                 `json:"voter_count"`
}

// buildSnapshot ranks every task of the session's ledger. Configured tasks
// nobody ranked yet are listed with an empty ranking.
func buildSnapshot(tallyID string, sess *session) (models.ResultSnapshot, error) {
	id, err := auth.GenerateID()
	if err != nil {
		return models.ResultSnapshot{}, err
	}

	ballots := rank.Ballots(sess.ledger)
	byKey := make(map[string]string, len(ballots))
	for task := range ballots {
		byKey[votes.Normalize(task)] = task
	}
	configured := make(map[string]bool, len(sess.tasks))
	for _, task := range sess.tasks {
		configured[votes.Normalize(task)] = true
	}

	tasks := []models.TaskResult{}
	for _, task := range sess.ledger.KnownTasks(sess.tasks...) {
		key := votes.Normalize(task)
		name, ranked := byKey[key]
		if !ranked && !configured[key] {
			continue
		}
		result := models.TaskResult{Task: task, Ranking: []string{}}
		if ranked {
			result.Task = name
			result.Ranking = rank.Tabulate(sess.method, ballots[name])
			result.Ballots = len(ballots[name])
			delete(byKey, key)
		}
		tasks = append(tasks, result)
	}
	// Rank votes without a task label
	if name, ok := byKey[""]; ok {
		tasks = append(tasks, models.TaskResult{
			Ranking: rank.Tabulate(sess.method, ballots[name]),
			Ballots: len(ballots[name]),
		})
	}

	return models.ResultSnapshot{
		ID:         id,
		TallyID:    tallyID,
		Method:     sess.method.String(),
		ComputedAt: time.Now().UTC(),
		Tasks:      tasks,
		Votes:      sess.ledger.VotesCollection(votes.VoteTypeVote),
		VoterCount: sess.ledger.TotalVoterCount(),
	}, nil
}

// saveSnapshot stores snap and makes it the tally's current result
func saveSnapshot(db *sql.DB, snap models.ResultSnapshot) error {
	payload, err := json.Marshal(snapshotPayload{
		Tasks:      snap.Tasks,
		Votes:      snap.Votes,
		VoterCount: snap.VoterCount,
	})
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO result_snapshot (id, tally_id, method, computed_at, payload)
		VALUES ($1, $2, $3, $4, $5)
	`, snap.ID, snap.TallyID, snap.Method, snap.ComputedAt, string(payload))
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	_, err = tx.Exec(`
		UPDATE tally
		SET status = $1, final_snapshot_id = $2
		WHERE id = $3
	`, models.StatusTallied, snap.ID, snap.TallyID)
	if err != nil {
		return fmt.Errorf("failed to update tally: %w", err)
	}

	return tx.Commit()
}

// loadSnapshot reads a stored snapshot by id
func loadSnapshot(db *sql.DB, snapshotID string) (models.ResultSnapshot, error) {
	var snap models.ResultSnapshot
	var payloadJSON string
	err := db.QueryRow(`
		SELECT id, tally_id, method, computed_at, payload
		FROM result_snapshot
		WHERE id = $1
	`, snapshotID).Scan(&snap.ID, &snap.TallyID, &snap.Method, &snap.ComputedAt, &payloadJSON)
	if err != nil {
		return models.ResultSnapshot{}, err
	}

	var payload snapshotPayload
	if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
		return models.ResultSnapshot{}, fmt.Errorf("failed to parse snapshot payload: %w", err)
	}
	snap.Tasks = payload.Tasks
	snap.Votes = payload.Votes
	snap.VoterCount = payload.VoterCount

	return snap, nil
}
