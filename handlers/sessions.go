// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"sync"

	"github.com/danielhkuo/quest-tally/rank"
	"github.com/danielhkuo/quest-tally/votes"
)

// Sessions owns the live ledger of every tally run since the server
// started. Runs and edits on one tally are serialized; different tallies
// proceed independently.
type Sessions struct {
	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	mu     sync.Mutex
	ledger *votes.Ledger
	method rank.Method
	tasks  []string
	ran    bool
}

func NewSessions() *Sessions {
	return &Sessions{sessions: make(map[string]*session)}
}

// acquire returns the tally's session, locked. The caller must call release.
func (s *Sessions) acquire(tallyID string) (sess *session, release func()) {
	s.mu.Lock()
	sess = s.sessions[tallyID]
	if sess == nil {
		sess = &session{ledger: votes.NewLedger()}
		s.sessions[tallyID] = sess
	}
	s.mu.Unlock()

	sess.mu.Lock()
	return sess, sess.mu.Unlock
}
