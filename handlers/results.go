// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/quest-tally/cliparse"
	"github.com/danielhkuo/quest-tally/middleware"
	"github.com/danielhkuo/quest-tally/models"
	"github.com/danielhkuo/quest-tally/votes"
)

type ResultsHandler struct {
	db       *sql.DB
	cfg      cliparse.Config
	sessions *Sessions
}

func NewResultsHandler(db *sql.DB, cfg cliparse.Config, sessions *Sessions) *ResultsHandler {
	return &ResultsHandler{db: db, cfg: cfg, sessions: sessions}
}

// GetTally handles GET /tallies/{id}
func (h *ResultsHandler) GetTally(w http.ResponseWriter, r *http.Request) {
	tally, ok := h.tally(w, r)
	if !ok {
		return
	}
	middleware.JSONResponse(w, http.StatusOK, tally)
}

// GetVotes handles GET /tallies/{id}/votes?type=vote|plan|rank
// Reads the live ledger, including manual edits not yet superseded by a run
func (h *ResultsHandler) GetVotes(w http.ResponseWriter, r *http.Request) {
	tally, ok := h.tally(w, r)
	if !ok {
		return
	}

	t, err := votes.ParseVoteType(r.URL.Query().Get("type"))
	if err == nil && t == votes.VoteTypeApproval {
		err = votes.ErrUnsupportedVoteType
	}
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	sess, release := h.sessions.acquire(tally.ID)
	defer release()

	if !sess.ran {
		middleware.ErrorResponse(w, http.StatusConflict, "Tally has not been run")
		return
	}

	l := sess.ledger
	planNames := l.PlanNames()
	if planNames == nil {
		planNames = []string{}
	}
	middleware.JSONResponse(w, http.StatusOK, models.VotesResponse{
		Type:             t.String(),
		Votes:            l.VotesCollection(t),
		Voters:           l.VotersCollection(t),
		PlanNames:        planNames,
		HasRankedVotes:   l.HasRankedVotes(),
		HasUndo:          l.HasUndoActions(),
		FutureReferences: len(l.FutureReferences()),
	})
}

// GetResults handles GET /tallies/{id}/results
// Returns the most recent stored snapshot
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	tally, ok := h.tally(w, r)
	if !ok {
		return
	}
	if tally.FinalSnapshotID == nil {
		middleware.ErrorResponse(w, http.StatusConflict, "Tally has not been run")
		return
	}

	snap, err := loadSnapshot(h.db, *tally.FinalSnapshotID)
	if err != nil {
		slog.Error("failed to load snapshot", "tally_id", tally.ID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Results not available")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, snap)
}

// GetPreview handles GET /tallies/{id}/preview
// Returns a compact summary with the winner of each task
func (h *ResultsHandler) GetPreview(w http.ResponseWriter, r *http.Request) {
	tally, ok := h.tally(w, r)
	if !ok {
		return
	}

	var postCount int
	err := h.db.QueryRow(`
		SELECT COUNT(*) FROM tally_post WHERE tally_id = $1
	`, tally.ID).Scan(&postCount)
	if err != nil {
		slog.Error("failed to count posts", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	preview := models.TallyPreviewResponse{
		Title:     tally.Title,
		Status:    tally.Status,
		Method:    tally.Method,
		PostCount: postCount,
	}

	if tally.FinalSnapshotID != nil {
		snap, err := loadSnapshot(h.db, *tally.FinalSnapshotID)
		if err != nil {
			slog.Error("failed to load snapshot", "tally_id", tally.ID, "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Results not available")
			return
		}
		preview.Method = snap.Method
		preview.VoterCount = snap.VoterCount
		preview.LastRun = humanize.Time(snap.ComputedAt)
		preview.Winners = make(map[string]string)
		for _, task := range snap.Tasks {
			if len(task.Ranking) > 0 {
				preview.Winners[task.Task] = task.Ranking[0]
			}
		}
	}

	middleware.JSONResponse(w, http.StatusOK, preview)
}

func (h *ResultsHandler) tally(w http.ResponseWriter, r *http.Request) (models.Tally, bool) {
	tallyID := r.PathValue("id")
	if tallyID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "tally_id is required")
		return models.Tally{}, false
	}

	tally, err := loadTally(h.db, tallyID)
	if errors.Is(err, sql.ErrNoRows) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Tally not found")
		return models.Tally{}, false
	}
	if err != nil {
		slog.Error("failed to query tally", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return models.Tally{}, false
	}
	return tally, true
}
