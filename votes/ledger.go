// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package votes

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// planPrefix marks plan identities so they never collide with user names.
const planPrefix = "◈"

type voteEntry struct {
	text       string
	supporters map[string]string // voter key -> display name
}

func (e *voteEntry) clone() *voteEntry {
	return &voteEntry{text: e.text, supporters: maps.Clone(e.supporters)}
}

type voterEntry struct {
	name   string
	postID string
}

// section holds the vote and voter mappings of one vote type.
type section struct {
	votes  map[string]*voteEntry  // vote key -> entry
	voters map[string]*voterEntry // voter key -> latest post
}

func newSection() *section {
	return &section{
		votes:  make(map[string]*voteEntry),
		voters: make(map[string]*voterEntry),
	}
}

type plan struct {
	name  string
	lines []string
}

// Ledger is the canonical vote state of one tally run. It is not safe for
// concurrent use; callers serialize access.
type Ledger struct {
	Title string

	vote *section // shared by VoteTypeVote and VoteTypePlan
	rank *section

	planNames           map[string]string // voter key -> plan identity
	referenceVoters     map[string]string // voter key -> name
	referenceVoterPosts map[string]string // voter key -> post id
	referencePlans      map[string]*plan  // voter key -> plan
	futureReferences    []FutureReference

	undo []*undoRecord
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	l := &Ledger{}
	l.Reset()
	return l
}

// Reset clears all state, including the undo history.
func (l *Ledger) Reset() {
	l.Title = ""
	l.vote = newSection()
	l.rank = newSection()
	l.planNames = make(map[string]string)
	l.referenceVoters = make(map[string]string)
	l.referenceVoterPosts = make(map[string]string)
	l.referencePlans = make(map[string]*plan)
	l.futureReferences = nil
	l.undo = nil
}

func (l *Ledger) section(t VoteType) (*section, error) {
	switch t {
	case VoteTypeVote, VoteTypePlan:
		return l.vote, nil
	case VoteTypeRank:
		return l.rank, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedVoteType, t)
}

// voterKey is the membership key of a voter or plan identity.
func voterKey(name string) string {
	name = strings.TrimSpace(name)
	if rest, ok := strings.CutPrefix(name, planPrefix); ok {
		return planPrefix + normalizeText(rest)
	}
	if k := normalizeText(name); k != "" {
		return k
	}
	return name
}

// PlanIdentity returns the voter identity used for the named plan.
func PlanIdentity(name string) string {
	name = CleanText(name)
	if strings.HasPrefix(name, planPrefix) {
		return name
	}
	return planPrefix + name
}

// AddVotes records lines as the current votes of voter, replacing whatever
// the voter supported before in this vote type. An empty lines slice is a
// no-op.
func (l *Ledger) AddVotes(lines []string, voter, postID string, t VoteType) error {
	if lines == nil {
		return fmt.Errorf("%w: vote lines are required", ErrInvalidArgument)
	}
	if strings.TrimSpace(voter) == "" {
		return fmt.Errorf("%w: voter is required", ErrInvalidArgument)
	}
	if strings.TrimSpace(postID) == "" {
		return fmt.Errorf("%w: post id is required", ErrInvalidArgument)
	}
	s, err := l.section(t)
	if err != nil {
		return err
	}
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			return fmt.Errorf("%w: vote line %d is empty", ErrInvalidArgument, i)
		}
	}
	if len(lines) == 0 {
		return nil
	}

	vk := voterKey(voter)
	if t == VoteTypePlan {
		l.planNames[vk] = voter
	}

	s.removeSupport(vk)
	for _, line := range lines {
		key := voteKey(line, t)
		e := s.votes[key]
		if e == nil {
			e = &voteEntry{text: displayText(line), supporters: make(map[string]string)}
			s.votes[key] = e
		}
		e.supporters[vk] = voter
	}
	s.voters[vk] = &voterEntry{name: voter, postID: postID}

	return nil
}

// removeSupport drops vk from every vote, deleting votes left unsupported.
func (s *section) removeSupport(vk string) {
	for key, e := range s.votes {
		delete(e.supporters, vk)
		if len(e.supporters) == 0 {
			delete(s.votes, key)
		}
	}
}

// supportedBy returns the sorted keys of the votes vk supports.
func (s *section) supportedBy(vk string) []string {
	var keys []string
	for key, e := range s.votes {
		if _, ok := e.supporters[vk]; ok {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	return keys
}

// matchKeys finds the ledger keys a vote text refers to. For rank votes a
// text without a rank marker matches every rank of that option.
func (s *section) matchKeys(text string, t VoteType) []string {
	key := voteKey(text, t)
	if _, ok := s.votes[key]; ok {
		return []string{key}
	}
	if t != VoteTypeRank {
		return nil
	}
	if line, ok := ParseVoteLine(text); ok && line.IsRank() {
		return nil
	}

	ck := condensedKey(text)
	var keys []string
	for key, e := range s.votes {
		if condensedKey(e.text) == ck {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	return keys
}

// Merge moves every supporter of fromVote to toVote and removes fromVote.
// It reports false when fromVote is not in the ledger.
func (l *Ledger) Merge(fromVote, toVote string, t VoteType) bool {
	s, err := l.section(t)
	if err != nil {
		return false
	}
	fromKeys := s.matchKeys(fromVote, t)
	if len(fromKeys) == 0 {
		return false
	}

	rec := newUndoRecord(EditMerge, t)
	for _, fk := range fromKeys {
		from := s.votes[fk]
		tk, text := mergeTarget(from.text, toVote, t)
		if tk == fk {
			continue
		}

		rec.saveVote(s, fk)
		rec.saveVote(s, tk)

		to := s.votes[tk]
		if to == nil {
			to = &voteEntry{text: text, supporters: make(map[string]string)}
			s.votes[tk] = to
		}
		maps.Copy(to.supporters, from.supporters)
		delete(s.votes, fk)
	}
	l.pushUndo(rec)

	return true
}

// mergeTarget returns the key and display text a vote moves to. A rank
// vote merged into a target without a rank marker keeps its own rank.
func mergeTarget(fromText, toVote string, t VoteType) (string, string) {
	if t != VoteTypeRank {
		return voteKey(toVote, t), displayText(toVote)
	}
	if line, ok := ParseVoteLine(toVote); ok && line.IsRank() {
		return line.Key(t), line.String()
	}

	target := parseCondensed(toVote)
	if from, ok := ParseVoteLine(fromText); ok {
		target.Marker = from.Marker
		target.Depth = from.Depth
	}
	return target.Key(t), target.String()
}

// parseCondensed parses "[Task] content" or a full vote line.
func parseCondensed(text string) VoteLine {
	if line, ok := ParseVoteLine(text); ok {
		return line
	}
	line, _ := ParseVoteLine("[x] " + text)
	return line
}

// Join points each of voters at whatever target currently supports. It
// reports false, changing nothing, when target has no vote of this type or
// any named voter is unknown.
func (l *Ledger) Join(voters []string, target string, t VoteType) bool {
	s, err := l.section(t)
	if err != nil {
		return false
	}
	tk := voterKey(target)
	targetVotes := s.supportedBy(tk)
	if len(targetVotes) == 0 {
		return false
	}

	var joining []string
	for _, v := range voters {
		vk := voterKey(v)
		if vk == tk || slices.Contains(joining, vk) {
			continue
		}
		if s.voters[vk] == nil {
			return false
		}
		joining = append(joining, vk)
	}
	if len(joining) == 0 {
		return true
	}

	rec := newUndoRecord(EditJoin, t)
	for _, vk := range joining {
		for _, key := range s.supportedBy(vk) {
			rec.saveVote(s, key)
		}
		for _, key := range targetVotes {
			rec.saveVote(s, key)
		}

		name := s.voters[vk].name
		s.removeSupport(vk)
		for _, key := range targetVotes {
			s.votes[key].supporters[vk] = name
		}
	}
	l.pushUndo(rec)

	return true
}

// Delete removes a vote and its supporters. Voters left without any vote
// of this type are dropped from the voter mapping.
func (l *Ledger) Delete(vote string, t VoteType) bool {
	s, err := l.section(t)
	if err != nil {
		return false
	}
	keys := s.matchKeys(vote, t)
	if len(keys) == 0 {
		return false
	}

	rec := newUndoRecord(EditDelete, t)
	affected := make(map[string]bool)
	for _, key := range keys {
		rec.saveVote(s, key)
		for vk := range s.votes[key].supporters {
			affected[vk] = true
		}
		delete(s.votes, key)
	}
	for vk := range affected {
		if len(s.supportedBy(vk)) == 0 {
			rec.saveVoter(s, vk)
			delete(s.voters, vk)
		}
	}
	l.pushUndo(rec)

	return true
}

// HasVote reports whether the vote text is in the ledger.
func (l *Ledger) HasVote(vote string, t VoteType) bool {
	s, err := l.section(t)
	if err != nil {
		return false
	}
	return len(s.matchKeys(vote, t)) > 0
}

// HasPlan reports whether a plan of that name has been registered.
func (l *Ledger) HasPlan(name string) bool {
	if _, ok := l.planNames[voterKey(PlanIdentity(name))]; ok {
		return true
	}
	_, ok := l.planNames[voterKey(name)]
	return ok
}

// IsPlan reports whether identity is a registered plan.
func (l *Ledger) IsPlan(identity string) bool {
	_, ok := l.planNames[voterKey(identity)]
	return ok
}

// HasRankedVotes reports whether any rank votes were recorded.
func (l *Ledger) HasRankedVotes() bool {
	return len(l.rank.votes) > 0
}

// VotesCollection returns a copy of the vote text -> supporters mapping.
// Supporters list plans first, then users, each alphabetized.
func (l *Ledger) VotesCollection(t VoteType) map[string][]string {
	out := make(map[string][]string)
	s, err := l.section(t)
	if err != nil {
		return out
	}
	for _, e := range s.votes {
		out[e.text] = l.orderSupporters(e.supporters)
	}
	return out
}

func (l *Ledger) orderSupporters(supporters map[string]string) []string {
	var plans, users []string
	for vk, name := range supporters {
		if _, ok := l.planNames[vk]; ok {
			plans = append(plans, name)
		} else {
			users = append(users, name)
		}
	}
	slices.Sort(plans)
	slices.Sort(users)
	return append(plans, users...)
}

// VotersCollection returns a copy of the voter -> latest post id mapping.
func (l *Ledger) VotersCollection(t VoteType) map[string]string {
	out := make(map[string]string)
	s, err := l.section(t)
	if err != nil {
		return out
	}
	for _, v := range s.voters {
		out[v.name] = v.postID
	}
	return out
}

// PlanNames returns the registered plan identities, sorted.
func (l *Ledger) PlanNames() []string {
	return slices.Sorted(maps.Values(l.planNames))
}

// VotersForVote returns the supporters of a vote text. Condensed rank votes
// yield the union over all ranks.
func (l *Ledger) VotersForVote(vote string, t VoteType) []string {
	s, err := l.section(t)
	if err != nil {
		return nil
	}
	union := make(map[string]string)
	for _, key := range s.matchKeys(vote, t) {
		maps.Copy(union, s.votes[key].supporters)
	}
	if len(union) == 0 {
		return nil
	}
	return l.orderSupporters(union)
}

// UserVoteCount counts the supporters of a vote that are not plans.
func (l *Ledger) UserVoteCount(vote string, t VoteType) int {
	n := 0
	for _, name := range l.VotersForVote(vote, t) {
		if !l.IsPlan(name) {
			n++
		}
	}
	return n
}

// TotalVoterCount counts distinct users, excluding plans, across the vote
// and rank sections.
func (l *Ledger) TotalVoterCount() int {
	users := make(map[string]bool)
	for _, s := range []*section{l.vote, l.rank} {
		for vk := range s.voters {
			if _, ok := l.planNames[vk]; !ok {
				users[vk] = true
			}
		}
	}
	return len(users)
}

// CondensedRankVotes returns each ranked option once, without rank markers.
func (l *Ledger) CondensedRankVotes() []string {
	seen := make(map[string]string)
	for _, e := range l.rank.votes {
		ck := condensedKey(e.text)
		text := parseCondensed(e.text).Condensed()
		if prev, ok := seen[ck]; !ok || text < prev {
			seen[ck] = text
		}
	}
	return slices.Sorted(maps.Values(seen))
}

// KnownTasks returns the task labels used by any vote, plus userTasks,
// without duplicates and sorted.
func (l *Ledger) KnownTasks(userTasks ...string) []string {
	seen := make(map[string]string)
	add := func(task string) {
		task = CleanText(task)
		if task == "" {
			return
		}
		k := normalizeText(task)
		if _, ok := seen[k]; !ok {
			seen[k] = task
		}
	}
	for _, s := range []*section{l.vote, l.rank} {
		for _, e := range s.votes {
			for _, raw := range splitLines(e.text) {
				if line, ok := ParseVoteLine(raw); ok {
					add(line.Task)
				}
			}
		}
	}
	for _, task := range userTasks {
		add(task)
	}
	return slices.Sorted(maps.Values(seen))
}

// votesOf returns the display texts of the votes supported by a voter.
func (l *Ledger) votesOf(vk string, t VoteType) []string {
	s, err := l.section(t)
	if err != nil {
		return nil
	}
	keys := s.supportedBy(vk)
	texts := make([]string, 0, len(keys))
	for _, key := range keys {
		texts = append(texts, s.votes[key].text)
	}
	return texts
}

// postOf returns the latest post id recorded for a voter.
func (l *Ledger) postOf(vk string, t VoteType) string {
	s, err := l.section(t)
	if err != nil {
		return ""
	}
	if v := s.voters[vk]; v != nil {
		return v.postID
	}
	return ""
}

// RegisterReferenceVoter makes a voter available as a reference target.
func (l *Ledger) RegisterReferenceVoter(name, postID string) {
	vk := voterKey(name)
	l.referenceVoters[vk] = name
	l.referenceVoterPosts[vk] = postID
}

// GetVotesFromReference returns the votes of the voter that lineOrName
// names, provided that voter is a known reference voter other than
// excludingVoter.
func (l *Ledger) GetVotesFromReference(lineOrName, excludingVoter string) []string {
	name := lineOrName
	if line, ok := ParseVoteLine(lineOrName); ok {
		name = line.Content
	}
	vk := voterKey(name)
	if vk == voterKey(excludingVoter) {
		return nil
	}
	if _, ok := l.referenceVoters[vk]; !ok {
		return nil
	}
	return l.votesOf(vk, VoteTypeVote)
}

// ReferenceVoters returns the names of the voters known so far, sorted.
func (l *Ledger) ReferenceVoters() []string {
	return slices.Sorted(maps.Values(l.referenceVoters))
}

// ReferenceVoterPosts returns the voter -> post id mapping of reference
// voters.
func (l *Ledger) ReferenceVoterPosts() map[string]string {
	out := make(map[string]string, len(l.referenceVoterPosts))
	for vk, postID := range l.referenceVoterPosts {
		out[l.referenceVoters[vk]] = postID
	}
	return out
}

// ReferencePlans returns the registered plan bundles by plan identity.
func (l *Ledger) ReferencePlans() map[string][]string {
	out := make(map[string][]string, len(l.referencePlans))
	for _, p := range l.referencePlans {
		out[p.name] = slices.Clone(p.lines)
	}
	return out
}

// FutureReferences returns the references deferred during ingestion.
func (l *Ledger) FutureReferences() []FutureReference {
	return slices.Clone(l.futureReferences)
}
