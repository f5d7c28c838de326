// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/quest-tally/auth"
	"github.com/danielhkuo/quest-tally/cliparse"
	"github.com/danielhkuo/quest-tally/middleware"
	"github.com/danielhkuo/quest-tally/models"
	"github.com/danielhkuo/quest-tally/rank"
	"github.com/danielhkuo/quest-tally/votes"
)

type TallyHandler struct {
	db       *sql.DB
	cfg      cliparse.Config
	sessions *Sessions
	metrics  *Metrics
}

func NewTallyHandler(db *sql.DB, cfg cliparse.Config, sessions *Sessions, metrics *Metrics) *TallyHandler {
	return &TallyHandler{db: db, cfg: cfg, sessions: sessions, metrics: metrics}
}

// CreateTally handles POST /tallies
func (h *TallyHandler) CreateTally(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTallyRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	// Validate input
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.StartPost < 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "start_post must not be negative")
		return
	}
	partition, err := votes.ParsePartitionMode(req.PartitionMode)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	method := h.cfg.DefaultMethod
	if req.Method != "" {
		if method, err = rank.ParseMethod(req.Method); err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.Tasks == nil {
		req.Tasks = []string{}
	}
	tasksJSON, err := json.Marshal(req.Tasks)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid tasks")
		return
	}

	tallyID, err := auth.GenerateID()
	if err != nil {
		slog.Error("failed to generate tally ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create tally")
		return
	}

	editKey := auth.GenerateEditKey(tallyID, h.cfg.EditKeySalt)

	_, err = h.db.Exec(`
		INSERT INTO tally (id, title, start_post, partition_mode, method, tasks, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, tallyID, req.Title, req.StartPost, string(partition), method.String(), string(tasksJSON),
		models.StatusCollecting, time.Now().UTC())

	if err != nil {
		slog.Error("failed to insert tally", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create tally")
		return
	}

	slog.Info("tally created", "tally_id", tallyID, "method", method)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateTallyResponse{
		TallyID: tallyID,
		EditKey: editKey,
	})
}

// SubmitPosts handles POST /tallies/{id}/posts
// Posts are keyed by post id; resubmitting a post replaces it
func (h *TallyHandler) SubmitPosts(w http.ResponseWriter, r *http.Request) {
	tallyID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	var req models.SubmitPostsRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if len(req.Posts) == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "posts are required")
		return
	}
	for i, p := range req.Posts {
		if msg := validatePost(p); msg != "" {
			middleware.ErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("post %d: %s", i, msg))
			return
		}
	}

	if _, err := loadTally(h.db, tallyID); errors.Is(err, sql.ErrNoRows) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Tally not found")
		return
	} else if err != nil {
		slog.Error("failed to query tally", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	for _, p := range req.Posts {
		_, err = tx.Exec(`
			INSERT INTO tally_post (tally_id, post_id, number, author, body)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (tally_id, post_id)
			DO UPDATE SET number = excluded.number, author = excluded.author, body = excluded.body
		`, tallyID, p.ID, p.Number, p.Author, strings.Join(p.Lines, "\n"))
		if err != nil {
			slog.Error("failed to store post", "error", err, "post_id", p.ID)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to store posts")
			return
		}
	}

	var postCount int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM tally_post WHERE tally_id = $1`, tallyID).Scan(&postCount); err != nil {
		slog.Error("failed to count posts", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to store posts")
		return
	}

	h.metrics.addPosts(len(req.Posts))
	slog.Info("posts stored", "tally_id", tallyID, "stored", len(req.Posts), "total", postCount)

	middleware.JSONResponse(w, http.StatusOK, models.SubmitPostsResponse{
		Stored:    len(req.Posts),
		PostCount: postCount,
	})
}

func validatePost(p models.PostInput) string {
	switch {
	case strings.TrimSpace(p.ID) == "":
		return "id is required"
	case strings.TrimSpace(p.Author) == "":
		return "author is required"
	case p.Number < 1:
		return "number must be positive"
	case strings.Contains(p.ID, "\n"):
		return "id must be a single line"
	}
	return ""
}

// RunTally handles POST /tallies/{id}/run
// Re-reads every stored post into the tally's ledger and stores a snapshot.
// Manual edits made since the previous run are discarded.
func (h *TallyHandler) RunTally(w http.ResponseWriter, r *http.Request) {
	tallyID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	var req models.RunTallyRequest
	if r.ContentLength != 0 {
		if err := middleware.ParseJSONBody(r, &req); err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
	}

	tally, err := loadTally(h.db, tallyID)
	if errors.Is(err, sql.ErrNoRows) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Tally not found")
		return
	}
	if err != nil {
		slog.Error("failed to query tally", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	method, err := rank.ParseMethod(tally.Method)
	if req.Method != "" {
		method, err = rank.ParseMethod(req.Method)
	}
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	partition, err := votes.ParsePartitionMode(tally.PartitionMode)
	if err != nil {
		slog.Error("stored tally has bad partition mode", "tally_id", tallyID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Invalid tally settings")
		return
	}

	posts, err := loadPosts(r.Context(), h.db, tallyID)
	if err != nil {
		slog.Error("failed to load posts", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	sess, release := h.sessions.acquire(tallyID)
	defer release()

	start := time.Now()
	err = votes.Tally(r.Context(), sess.ledger, posts, votes.Options{
		Title:     tally.Title,
		StartPost: tally.StartPost,
		Partition: partition,
		Logger:    slog.Default().With("tally_id", tallyID),
	})
	if err != nil {
		sess.ran = false
	}
	switch {
	case errors.Is(err, votes.ErrInvalidArgument):
		h.metrics.observeRun(method.String(), "invalid", 0)
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.metrics.observeRun(method.String(), "cancelled", 0)
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Tally run cancelled")
		return
	case err != nil:
		h.metrics.observeRun(method.String(), "error", 0)
		slog.Error("tally run failed", "tally_id", tallyID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Tally run failed")
		return
	}
	sess.method = method
	sess.tasks = tally.Tasks

	snap, err := buildSnapshot(tallyID, sess)
	if err == nil {
		err = saveSnapshot(h.db, snap)
	}
	if err != nil {
		// The ledger was rebuilt but never stored, so edits stay closed.
		sess.ran = false
		h.metrics.observeRun(method.String(), "error", 0)
		slog.Error("failed to save snapshot", "tally_id", tallyID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save results")
		return
	}
	sess.ran = true

	elapsed := time.Since(start)
	h.metrics.observeRun(method.String(), "ok", elapsed)
	slog.Info("tally run",
		"tally_id", tallyID,
		"posts", len(posts),
		"voters", snap.VoterCount,
		"method", method,
		"duration_ms", elapsed.Milliseconds(),
	)

	middleware.JSONResponse(w, http.StatusOK, snap)
}

// authorize checks the X-Edit-Key header against the tally id in the path
func (h *TallyHandler) authorize(w http.ResponseWriter, r *http.Request) (string, bool) {
	return authorizeEdit(w, r, h.cfg.EditKeySalt)
}

func authorizeEdit(w http.ResponseWriter, r *http.Request, salt string) (string, bool) {
	tallyID := r.PathValue("id")
	if tallyID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "tally_id is required")
		return "", false
	}

	editKey := r.Header.Get("X-Edit-Key")
	if err := auth.ValidateEditKey(tallyID, editKey, salt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid edit key")
		return "", false
	}
	return tallyID, true
}

// loadTally reads a tally row; sql.ErrNoRows when it does not exist
func loadTally(db *sql.DB, tallyID string) (models.Tally, error) {
	var t models.Tally
	var tasksJSON string
	err := db.QueryRow(`
		SELECT id, title, start_post, partition_mode, method, tasks, status,
		       final_snapshot_id, created_at
		FROM tally
		WHERE id = $1
	`, tallyID).Scan(
		&t.ID, &t.Title, &t.StartPost, &t.PartitionMode, &t.Method, &tasksJSON,
		&t.Status, &t.FinalSnapshotID, &t.CreatedAt,
	)
	if err != nil {
		return models.Tally{}, err
	}
	if err := json.Unmarshal([]byte(tasksJSON), &t.Tasks); err != nil {
		return models.Tally{}, fmt.Errorf("failed to parse tasks: %w", err)
	}
	return t, nil
}

// loadPosts reads a tally's posts in thread order
func loadPosts(ctx context.Context, db *sql.DB, tallyID string) ([]votes.Post, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT post_id, number, author, body
		FROM tally_post
		WHERE tally_id = $1
		ORDER BY number, post_id
	`, tallyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []votes.Post
	for rows.Next() {
		var p votes.Post
		var body string
		if err := rows.Scan(&p.ID, &p.Number, &p.Author, &body); err != nil {
			return nil, err
		}
		p.Lines = strings.Split(body, "\n")
		posts = append(posts, p)
	}
	return posts, rows.Err()
}
