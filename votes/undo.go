// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package votes

// undoRecord holds the prior state of every vote and voter an edit
// touched. A nil entry means the key did not exist before the edit.
type undoRecord struct {
	action   EditAction
	voteType VoteType
	votes    map[string]*voteEntry
	voters   map[string]*voterEntry
}

func newUndoRecord(action EditAction, t VoteType) *undoRecord {
	return &undoRecord{
		action:   action,
		voteType: t,
		votes:    make(map[string]*voteEntry),
		voters:   make(map[string]*voterEntry),
	}
}

// saveVote snapshots a vote the first time the edit touches it.
func (r *undoRecord) saveVote(s *section, key string) {
	if _, seen := r.votes[key]; seen {
		return
	}
	if e := s.votes[key]; e != nil {
		r.votes[key] = e.clone()
		return
	}
	r.votes[key] = nil
}

func (r *undoRecord) saveVoter(s *section, vk string) {
	if _, seen := r.voters[vk]; seen {
		return
	}
	if v := s.voters[vk]; v != nil {
		saved := *v
		r.voters[vk] = &saved
		return
	}
	r.voters[vk] = nil
}

func (l *Ledger) pushUndo(rec *undoRecord) {
	if len(rec.votes) == 0 && len(rec.voters) == 0 {
		return
	}
	l.undo = append(l.undo, rec)
}

// Undo reverses the most recent merge, join or delete. It reports false
// when there is nothing to undo.
func (l *Ledger) Undo() bool {
	if len(l.undo) == 0 {
		return false
	}
	rec := l.undo[len(l.undo)-1]
	l.undo = l.undo[:len(l.undo)-1]

	s, err := l.section(rec.voteType)
	if err != nil {
		return false
	}
	for key, e := range rec.votes {
		if e == nil {
			delete(s.votes, key)
			continue
		}
		s.votes[key] = e.clone()
	}
	for vk, v := range rec.voters {
		if v == nil {
			delete(s.voters, vk)
			continue
		}
		restored := *v
		s.voters[vk] = &restored
	}

	return true
}

// HasUndoActions reports whether Undo has anything to reverse.
func (l *Ledger) HasUndoActions() bool {
	return len(l.undo) > 0
}

// UndoDepth returns the number of edits Undo can reverse.
func (l *Ledger) UndoDepth() int {
	return len(l.undo)
}

// LastEdit returns the action Undo would reverse next.
func (l *Ledger) LastEdit() (EditAction, bool) {
	if len(l.undo) == 0 {
		return "", false
	}
	return l.undo[len(l.undo)-1].action, true
}
