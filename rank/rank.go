// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package rank

import (
	"cmp"
	"maps"
	"slices"

	"github.com/danielhkuo/quest-tally/votes"
)

// Source is anything that can report rank votes and their supporters.
// *votes.Ledger satisfies it.
type Source interface {
	VotesCollection(t votes.VoteType) map[string][]string
}

// Tabulate orders every option named on the ballots, winner first. The
// result is a total order and is the same for the same ballots regardless
// of their order. Unknown methods fall back to Default.
func Tabulate(m Method, ballots []Ballot) []string {
	e := newElection(ballots)
	if len(e.options) == 0 {
		return nil
	}

	var order []int
	switch m {
	case InstantRunoff:
		order = e.runoff(fewestFirsts)
	case Coombs:
		order = e.runoff(mostLasts)
	case Borda:
		order = e.borda()
	case Pairwise:
		order = e.pairwise()
	case Schulze:
		order = e.schulze()
	default:
		order = e.runoff(lowestBorda)
	}
	return e.names(order)
}

// Ballots groups the rank votes of src into ballots per task. Options and
// tasks that differ only in ways Normalize ignores are merged, displayed by
// their lexically smallest spelling. When a voter ranks one option several
// times the best rank counts.
func Ballots(src Source) map[string][]Ballot {
	type optionKey struct {
		task, option string
	}
	taskNames := make(map[string]string)
	optionNames := make(map[optionKey]string)
	ranks := make(map[string]map[string]map[string]int) // task -> voter -> option -> rank

	for text, supporters := range src.VotesCollection(votes.VoteTypeRank) {
		line, ok := votes.ParseVoteLine(text)
		if !ok || !line.IsRank() {
			continue
		}
		tk := votes.Normalize(line.Task)
		key := optionKey{tk, votes.Normalize(line.Content)}
		keepSmallest(taskNames, tk, line.Task)
		keepSmallest(optionNames, key, line.Content)

		if ranks[tk] == nil {
			ranks[tk] = make(map[string]map[string]int)
		}
		for _, voter := range supporters {
			byOption := ranks[tk][voter]
			if byOption == nil {
				byOption = make(map[string]int)
				ranks[tk][voter] = byOption
			}
			if r, seen := byOption[key.option]; !seen || line.Rank() < r {
				byOption[key.option] = line.Rank()
			}
		}
	}

	out := make(map[string][]Ballot, len(ranks))
	for tk, byVoter := range ranks {
		ballots := make([]Ballot, 0, len(byVoter))
		for _, voter := range slices.Sorted(maps.Keys(byVoter)) {
			b := Ballot{Voter: voter, Ranks: make(map[string]int)}
			for option, r := range byVoter[voter] {
				b.Ranks[optionNames[optionKey{tk, option}]] = r
			}
			ballots = append(ballots, b)
		}
		out[taskNames[tk]] = ballots
	}
	return out
}

func keepSmallest[K comparable](names map[K]string, key K, text string) {
	if prev, ok := names[key]; !ok || text < prev {
		names[key] = text
	}
}

// Rank tabulates every task in src with method m and returns the ordered
// options of each task, winner first.
func Rank(src Source, m Method) map[string][]string {
	out := make(map[string][]string)
	for task, ballots := range Ballots(src) {
		out[task] = Tabulate(m, ballots)
	}
	return out
}

// Tasks returns the task names of a Rank result in sorted order.
func Tasks(results map[string][]string) []string {
	return slices.SortedFunc(maps.Keys(results), func(a, b string) int {
		return cmp.Compare(votes.Normalize(a), votes.Normalize(b))
	})
}
