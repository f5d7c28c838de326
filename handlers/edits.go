// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielhkuo/quest-tally/cliparse"
	"github.com/danielhkuo/quest-tally/middleware"
	"github.com/danielhkuo/quest-tally/models"
	"github.com/danielhkuo/quest-tally/votes"
)

// EditHandler applies manual corrections to a tally's live ledger. Every
// successful edit stores a fresh result snapshot.
type EditHandler struct {
	db       *sql.DB
	cfg      cliparse.Config
	sessions *Sessions
	metrics  *Metrics
}

func NewEditHandler(db *sql.DB, cfg cliparse.Config, sessions *Sessions, metrics *Metrics) *EditHandler {
	return &EditHandler{db: db, cfg: cfg, sessions: sessions, metrics: metrics}
}

// Merge handles POST /tallies/{id}/merge
func (h *EditHandler) Merge(w http.ResponseWriter, r *http.Request) {
	var req models.MergeRequest
	tallyID, ok := h.begin(w, r, &req)
	if !ok {
		return
	}
	t, ok := parseEditType(w, req.Type)
	if !ok {
		return
	}
	if strings.TrimSpace(req.From) == "" || strings.TrimSpace(req.To) == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "from and to are required")
		return
	}

	h.apply(w, tallyID, votes.EditMerge, func(l *votes.Ledger) bool {
		return l.Merge(req.From, req.To, t)
	})
}

// Join handles POST /tallies/{id}/join
func (h *EditHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req models.JoinRequest
	tallyID, ok := h.begin(w, r, &req)
	if !ok {
		return
	}
	t, ok := parseEditType(w, req.Type)
	if !ok {
		return
	}
	if len(req.Voters) == 0 || strings.TrimSpace(req.Target) == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "voters and target are required")
		return
	}

	h.apply(w, tallyID, votes.EditJoin, func(l *votes.Ledger) bool {
		return l.Join(req.Voters, req.Target, t)
	})
}

// Delete handles POST /tallies/{id}/delete
func (h *EditHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req models.DeleteRequest
	tallyID, ok := h.begin(w, r, &req)
	if !ok {
		return
	}
	t, ok := parseEditType(w, req.Type)
	if !ok {
		return
	}
	if strings.TrimSpace(req.Vote) == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "vote is required")
		return
	}

	h.apply(w, tallyID, votes.EditDelete, func(l *votes.Ledger) bool {
		return l.Delete(req.Vote, t)
	})
}

// Undo handles POST /tallies/{id}/undo
func (h *EditHandler) Undo(w http.ResponseWriter, r *http.Request) {
	tallyID, ok := authorizeEdit(w, r, h.cfg.EditKeySalt)
	if !ok {
		return
	}

	sess, release := h.sessions.acquire(tallyID)
	defer release()

	if !sess.ran {
		middleware.ErrorResponse(w, http.StatusConflict, "Tally has not been run")
		return
	}
	action, ok := sess.ledger.LastEdit()
	if !ok || !sess.ledger.Undo() {
		h.metrics.observeEdit("undo", "miss")
		middleware.ErrorResponse(w, http.StatusConflict, "Nothing to undo")
		return
	}

	h.metrics.observeEdit("undo", "ok")
	if !h.respond(w, tallyID, sess, "undo "+string(action)) {
		// An undo cannot be replayed, so the ledger no longer matches the
		// stored snapshot until the tally is run again.
		sess.ran = false
	}
}

// begin authorizes the request and decodes its body
func (h *EditHandler) begin(w http.ResponseWriter, r *http.Request, req any) (string, bool) {
	tallyID, ok := authorizeEdit(w, r, h.cfg.EditKeySalt)
	if !ok {
		return "", false
	}
	if err := middleware.ParseJSONBody(r, req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return "", false
	}
	return tallyID, true
}

func parseEditType(w http.ResponseWriter, s string) (votes.VoteType, bool) {
	t, err := votes.ParseVoteType(s)
	if err == nil && t == votes.VoteTypeApproval {
		err = votes.ErrUnsupportedVoteType
	}
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return 0, false
	}
	return t, true
}

// apply runs edit against the tally's ledger under the session lock
func (h *EditHandler) apply(w http.ResponseWriter, tallyID string, action votes.EditAction, edit func(*votes.Ledger) bool) {
	sess, release := h.sessions.acquire(tallyID)
	defer release()

	if !sess.ran {
		middleware.ErrorResponse(w, http.StatusConflict, "Tally has not been run")
		return
	}
	depth := sess.ledger.UndoDepth()
	if !edit(sess.ledger) {
		h.metrics.observeEdit(string(action), "miss")
		middleware.ErrorResponse(w, http.StatusNotFound, "Nothing matched the edit")
		return
	}

	h.metrics.observeEdit(string(action), "ok")
	if !h.respond(w, tallyID, sess, string(action)) && sess.ledger.UndoDepth() > depth {
		// Keep the ledger in step with the last stored snapshot.
		sess.ledger.Undo()
	}
}

// respond stores a snapshot of the ledger and writes it back. It reports
// false when the snapshot could not be stored.
func (h *EditHandler) respond(w http.ResponseWriter, tallyID string, sess *session, action string) bool {
	snap, err := buildSnapshot(tallyID, sess)
	if err == nil {
		err = saveSnapshot(h.db, snap)
	}
	if errors.Is(err, sql.ErrNoRows) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Tally not found")
		return false
	}
	if err != nil {
		slog.Error("failed to save snapshot", "tally_id", tallyID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save results")
		return false
	}

	slog.Info("tally edited", "tally_id", tallyID, "action", action)

	middleware.JSONResponse(w, http.StatusOK, models.EditResponse{
		Action:   action,
		HasUndo:  sess.ledger.HasUndoActions(),
		Snapshot: snap,
	})
	return true
}
