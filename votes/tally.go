// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package votes

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Options configures a tally run.
type Options struct {
	Title     string
	StartPost int // posts numbered below this are skipped; 0 reads all
	Partition PartitionMode
	Logger    *slog.Logger
}

type pendingKey struct {
	voter string
	t     VoteType
}

// run carries the working state of one Tally call.
type run struct {
	l       *Ledger
	opts    Options
	log     *slog.Logger
	pending map[pendingKey]*pendingVote
	order   []pendingKey
}

// Tally resets l and ingests posts in order. References to plans and
// voters are resolved against what has been read so far; references whose
// target appears later are retried once after the last post. The context
// is checked between posts, so a cancelled run leaves l holding every post
// before the cancellation point.
func Tally(ctx context.Context, l *Ledger, posts []Post, opts Options) error {
	if l == nil {
		return fmt.Errorf("%w: ledger is required", ErrInvalidArgument)
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	l.Reset()
	l.Title = opts.Title

	r := &run{
		l:       l,
		opts:    opts,
		log:     log,
		pending: make(map[pendingKey]*pendingVote),
	}

	for _, p := range posts {
		if err := ctx.Err(); err != nil {
			return err
		}
		if opts.StartPost > 0 && p.Number > 0 && p.Number < opts.StartPost {
			continue
		}
		if err := r.ingest(p); err != nil {
			return fmt.Errorf("post %q: %w", p.ID, err)
		}
	}

	if err := r.resolveFuture(ctx); err != nil {
		return err
	}

	log.Debug("tally complete",
		"posts", len(posts),
		"voters", l.TotalVoterCount(),
		"plans", len(l.planNames),
		"deferred", len(l.futureReferences),
	)
	return nil
}

// ingest applies one post. Validation happens before any mutation.
func (r *run) ingest(p Post) error {
	if strings.TrimSpace(p.Author) == "" {
		return fmt.Errorf("%w: author is required", ErrInvalidArgument)
	}
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("%w: post id is required", ErrInvalidArgument)
	}

	var voteLines, rankLines []VoteLine
	for _, line := range parseLines(p.Lines) {
		if line.IsRank() {
			rankLines = append(rankLines, line)
		} else {
			voteLines = append(voteLines, line)
		}
	}

	if err := r.ingestType(p, voteLines, VoteTypeVote); err != nil {
		return err
	}
	if err := r.ingestType(p, rankLines, VoteTypeRank); err != nil {
		return err
	}

	r.l.RegisterReferenceVoter(p.Author, p.ID)
	return nil
}

func (r *run) ingestType(p Post, lines []VoteLine, t VoteType) error {
	if len(lines) == 0 {
		return nil
	}

	pv := &pendingVote{voter: p.Author, postID: p.ID, groups: groupLines(lines)}
	for _, g := range pv.groups {
		if t == VoteTypeVote {
			if name, ok := g.planName(); ok {
				g.kind, g.target = groupPlan, r.definePlan(name, p.ID, g)
				continue
			}
		}
		if r.resolveGroup(g, p.Author, t) || g.cyclic || len(g.lines) != 1 {
			continue
		}
		_, g.target = referenceCandidates(g.lines[0])
		g.kind = groupDeferred
		r.deferReference(p.Author, p.ID, g.lines[0], t)
	}

	r.track(pendingKey{voterKey(p.Author), t}, pv)
	return r.record(pv, t)
}

// record stores the voter's current lines in the ledger.
func (r *run) record(pv *pendingVote, t VoteType) error {
	texts := partition(r.flatten(pv), r.partitionFor(t))
	if len(texts) == 0 {
		return nil
	}
	return r.l.AddVotes(texts, pv.voter, pv.postID, t)
}

// partitionFor returns the partition mode of a vote type. Rank votes are
// always one option per line.
func (r *run) partitionFor(t VoteType) PartitionMode {
	if t == VoteTypeRank {
		return PartitionByLine
	}
	return r.opts.Partition
}

func (r *run) track(key pendingKey, pv *pendingVote) {
	if _, seen := r.pending[key]; !seen {
		r.order = append(r.order, key)
	}
	r.pending[key] = pv
}

func (r *run) deferReference(voter, postID string, line VoteLine, t VoteType) {
	r.l.futureReferences = append(r.l.futureReferences, FutureReference{
		Voter:  voter,
		PostID: postID,
		Line:   line.String(),
		Type:   t,
	})
}

// resolveFuture is the second pass: every deferred reference is retried
// once against the complete set of plans and voters. Anything still
// unresolved stays as literal vote text.
func (r *run) resolveFuture(ctx context.Context) error {
	dirty := make(map[pendingKey]bool)

	for _, fr := range r.l.futureReferences {
		if err := ctx.Err(); err != nil {
			return err
		}
		key := pendingKey{voterKey(fr.Voter), fr.Type}
		pv := r.pending[key]
		if pv == nil || pv.postID != fr.PostID {
			continue // superseded by a later post
		}

		for _, g := range pv.groups {
			if g.kind != groupDeferred || g.lines[0].String() != fr.Line {
				continue
			}
			g.kind = groupLiteral
			if fr.Type == VoteTypePlan {
				if _, ok := r.l.referencePlans[g.target]; ok && !r.refersTo(g.target, VoteTypePlan, key.voter) {
					g.kind = groupPlan
					dirty[key] = true
				}
			} else if r.resolveGroup(g, pv.voter, fr.Type) {
				dirty[key] = true
			}
			if g.kind == groupLiteral {
				r.log.Debug("reference left as text", "voter", fr.Voter, "line", fr.Line)
			}
			break
		}
	}

	// Plans settle first so voters pick up their final bundles.
	for _, key := range r.order {
		if key.t == VoteTypePlan && dirty[key] {
			r.storePlan(key.voter, r.pending[key])
		}
	}
	for _, key := range r.order {
		if key.t == VoteTypePlan {
			continue
		}
		pv := r.pending[key]
		if !dirty[key] && !r.usesDirtyPlan(pv, dirty) {
			continue
		}
		if err := r.record(pv, key.t); err != nil {
			return fmt.Errorf("post %q: %w", pv.postID, err)
		}
	}

	return nil
}

func (r *run) usesDirtyPlan(pv *pendingVote, dirty map[pendingKey]bool) bool {
	for _, g := range pv.groups {
		if g.kind == groupPlan && dirty[pendingKey{g.target, VoteTypePlan}] {
			return true
		}
	}
	return false
}
