// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package votes

import (
	"regexp"
	"strings"
)

var planPattern = regexp.MustCompile(`(?i)^(?:base\s*)?plan\s*:?\s*(.+)$`)

type groupKind int

const (
	groupLiteral  groupKind = iota
	groupPlan               // spliced from a plan bundle
	groupVoter              // copied from another voter's vote
	groupDeferred           // target unknown so far; literal until pass 2
)

// group is a top-level vote line and its sub-lines.
type group struct {
	lines  []VoteLine
	kind   groupKind
	target string     // voter key of the referenced plan or voter
	copied []VoteLine // lines copied by a voter reference
	cyclic bool
}

// groupLines splits parsed lines into top-level groups.
func groupLines(lines []VoteLine) []*group {
	var groups []*group
	for _, line := range lines {
		if line.Depth == 0 || len(groups) == 0 {
			groups = append(groups, &group{lines: []VoteLine{line}})
			continue
		}
		last := groups[len(groups)-1]
		last.lines = append(last.lines, line)
	}
	return groups
}

// planName returns the plan a group defines, if it is a plan definition.
func (g *group) planName() (string, bool) {
	if len(g.lines) < 2 {
		return "", false
	}
	m := planPattern.FindStringSubmatch(g.lines[0].Content)
	if m == nil {
		return "", false
	}
	name := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(m[1]), ":"))
	return name, name != ""
}

// referenceCandidates returns the voter keys a childless line could name:
// a plan key and a voter key.
func referenceCandidates(line VoteLine) (planKey, voterRef string) {
	name := line.Content
	if m := planPattern.FindStringSubmatch(name); m != nil {
		name = m[1]
	}
	return voterKey(PlanIdentity(name)), voterKey(line.Content)
}

// pendingVote is the resolution state of a voter's latest post for one
// vote type.
type pendingVote struct {
	voter  string
	postID string
	groups []*group
}

// flatten returns the lines the voter supports now.
func (r *run) flatten(p *pendingVote) []VoteLine {
	var out []VoteLine
	for _, g := range p.groups {
		switch g.kind {
		case groupPlan:
			if pl := r.l.referencePlans[g.target]; pl != nil {
				out = append(out, parseLines(pl.lines)...)
				continue
			}
			out = append(out, g.lines...)
		case groupVoter:
			out = append(out, g.copied...)
		default:
			out = append(out, g.lines...)
		}
	}
	return out
}

// refersTo reports whether target's pending vote names voter vk, either
// resolved or still waiting.
func (r *run) refersTo(targetVK string, t VoteType, vk string) bool {
	p := r.pending[pendingKey{targetVK, t}]
	if p == nil {
		return false
	}
	for _, g := range p.groups {
		if (g.kind == groupDeferred || g.kind == groupVoter) && g.target == vk {
			return true
		}
	}
	return false
}

// resolveGroup tries to turn a childless group into a plan or voter
// reference. It reports whether the group was resolved.
func (r *run) resolveGroup(g *group, author string, t VoteType) bool {
	if len(g.lines) != 1 {
		return false
	}
	line := g.lines[0]
	planKey, voterRef := referenceCandidates(line)
	self := voterKey(author)

	if t != VoteTypeRank {
		if _, ok := r.l.referencePlans[planKey]; ok && planKey != self {
			g.kind, g.target = groupPlan, planKey
			return true
		}
	}

	if voterRef == self {
		return false
	}
	if _, known := r.l.referenceVoters[voterRef]; !known {
		return false
	}
	if r.refersTo(voterRef, t, self) {
		r.log.Debug("cyclic voter reference left as text", "voter", author, "target", line.Content)
		g.kind, g.target, g.cyclic = groupLiteral, voterRef, true
		r.markCyclic(voterRef, t, self)
		return false
	}

	var copied []string
	if t == VoteTypeVote {
		copied = r.l.GetVotesFromReference(line.String(), author)
	} else {
		copied = r.l.votesOf(voterRef, t)
	}
	if len(copied) == 0 {
		return false
	}

	var lines []VoteLine
	for _, text := range copied {
		lines = append(lines, parseLines(splitLines(text))...)
	}
	g.kind, g.target, g.copied = groupVoter, voterRef, lines
	return true
}

// markCyclic stops target's waiting reference to vk from resolving later.
func (r *run) markCyclic(targetVK string, t VoteType, vk string) {
	p := r.pending[pendingKey{targetVK, t}]
	if p == nil {
		return
	}
	for _, g := range p.groups {
		if g.kind == groupDeferred && g.target == vk {
			g.kind, g.cyclic = groupLiteral, true
		}
	}
}

// definePlan registers the plan a group defines. Sub-lines naming an
// already defined plan are spliced in once; sub-lines naming an unknown
// plan wait for pass 2. The first definition of a name wins.
func (r *run) definePlan(name, postID string, g *group) string {
	identity := PlanIdentity(name)
	key := voterKey(identity)
	if _, exists := r.l.referencePlans[key]; exists {
		return key
	}

	pv := &pendingVote{voter: identity, postID: postID}
	for _, line := range g.lines[1:] {
		line = line.Promote(1)
		sub := &group{lines: []VoteLine{line}}
		if line.Depth == 0 {
			if target, ok := r.innerPlan(line, key); ok {
				sub.kind, sub.target = groupPlan, target
			} else if target, waiting := r.unknownPlan(line, key); waiting {
				sub.kind, sub.target = groupDeferred, target
				r.deferReference(identity, postID, line, VoteTypePlan)
			}
		}
		pv.groups = append(pv.groups, sub)
	}

	r.l.referencePlans[key] = &plan{name: identity}
	r.track(pendingKey{key, VoteTypePlan}, pv)
	r.storePlan(key, pv)
	return key
}

// innerPlan reports whether a plan sub-line names another defined plan
// that does not itself name the plan being defined.
func (r *run) innerPlan(line VoteLine, self string) (string, bool) {
	planKey, _ := referenceCandidates(line)
	inner := r.l.referencePlans[planKey]
	if inner == nil || planKey == self {
		return "", false
	}
	if r.refersTo(planKey, VoteTypePlan, self) {
		r.log.Debug("cyclic plan reference left as text", "plan", self, "target", inner.name)
		r.markCyclic(planKey, VoteTypePlan, self)
		return "", false
	}
	return planKey, true
}

// unknownPlan reports whether a plan sub-line looks like a reference to a
// plan that has not been defined yet.
func (r *run) unknownPlan(line VoteLine, self string) (string, bool) {
	if !planPattern.MatchString(line.Content) {
		return "", false
	}
	planKey, _ := referenceCandidates(line)
	if planKey == self {
		return "", false
	}
	_, defined := r.l.referencePlans[planKey]
	return planKey, !defined
}

// storePlan rebuilds a plan bundle and records it as the plan's vote.
func (r *run) storePlan(key string, pv *pendingVote) {
	var lines []string
	for _, g := range pv.groups {
		if g.kind == groupPlan {
			if inner := r.l.referencePlans[g.target]; inner != nil && len(inner.lines) > 0 {
				depth := g.lines[0].Depth
				for _, il := range parseLines(inner.lines) {
					il.Depth += depth
					lines = append(lines, il.String())
				}
				continue
			}
		}
		for _, line := range g.lines {
			lines = append(lines, line.String())
		}
	}
	r.l.referencePlans[key].lines = lines

	texts := partition(parseLines(lines), r.opts.Partition)
	if err := r.l.AddVotes(texts, pv.voter, pv.postID, VoteTypePlan); err != nil {
		r.log.Warn("failed to record plan", "plan", pv.voter, "error", err)
	}
}

// parseLines parses raw lines, dropping those without a vote marker.
func parseLines(raw []string) []VoteLine {
	lines := make([]VoteLine, 0, len(raw))
	for _, text := range raw {
		if line, ok := ParseVoteLine(text); ok {
			lines = append(lines, line)
		}
	}
	return lines
}

// partition splits lines into vote texts.
func partition(lines []VoteLine, mode PartitionMode) []string {
	var texts []string
	switch mode {
	case PartitionNone:
		if len(lines) > 0 {
			texts = append(texts, joinLines(lines))
		}
	case PartitionByBlock:
		for _, g := range groupLines(lines) {
			texts = append(texts, joinLines(g.lines))
		}
	default:
		for _, line := range lines {
			texts = append(texts, line.String())
		}
	}
	return texts
}

func joinLines(lines []VoteLine) string {
	parts := make([]string, len(lines))
	for i, line := range lines {
		parts[i] = line.String()
	}
	return strings.Join(parts, "\n")
}
