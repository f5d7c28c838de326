// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package rank

import (
	"cmp"
	"slices"

	"github.com/danielhkuo/quest-tally/votes"
)

// Ballot is one voter's ranking within a task. Lower rank numbers are
// preferred. Options the voter did not rank are absent and count as below
// every ranked option.
type Ballot struct {
	Voter string
	Ranks map[string]int
}

// election is the indexed form of a ballot set. Options are sorted in
// tie-break order, so a lower index always wins a tie.
type election struct {
	options []string
	prefs   [][]int // each ballot's ranked options, most preferred first
}

func newElection(ballots []Ballot) *election {
	seen := make(map[string]bool)
	var options []string
	for _, b := range ballots {
		for opt := range b.Ranks {
			if !seen[opt] {
				seen[opt] = true
				options = append(options, opt)
			}
		}
	}

	keys := make(map[string]string, len(options))
	for _, opt := range options {
		keys[opt] = votes.Normalize(opt)
	}
	slices.SortFunc(options, func(a, b string) int {
		if c := cmp.Compare(keys[a], keys[b]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})

	index := make(map[string]int, len(options))
	for i, opt := range options {
		index[opt] = i
	}

	e := &election{options: options}
	for _, b := range ballots {
		if len(b.Ranks) == 0 {
			continue
		}
		pref := make([]int, 0, len(b.Ranks))
		for opt := range b.Ranks {
			pref = append(pref, index[opt])
		}
		slices.SortFunc(pref, func(x, y int) int {
			if c := cmp.Compare(b.Ranks[e.options[x]], b.Ranks[e.options[y]]); c != 0 {
				return c
			}
			return cmp.Compare(x, y)
		})
		e.prefs = append(e.prefs, pref)
	}
	return e
}

func (e *election) allAlive() []bool {
	alive := make([]bool, len(e.options))
	for i := range alive {
		alive[i] = true
	}
	return alive
}

// marked returns the ballot's options that are still alive, in order.
func marked(pref []int, alive []bool) []int {
	out := make([]int, 0, len(pref))
	for _, o := range pref {
		if alive[o] {
			out = append(out, o)
		}
	}
	return out
}

// byScore returns the alive options ordered by score descending.
func (e *election) byScore(scores []int, alive []bool) []int {
	var order []int
	for o := range e.options {
		if alive[o] {
			order = append(order, o)
		}
	}
	slices.SortStableFunc(order, func(x, y int) int {
		return cmp.Compare(scores[y], scores[x])
	})
	return order
}

// sequence builds a full order by repeatedly taking the winner of the
// options still in play.
func (e *election) sequence(winner func(alive []bool) int) []int {
	alive := e.allAlive()
	order := make([]int, 0, len(e.options))
	for range e.options {
		w := winner(alive)
		order = append(order, w)
		alive[w] = false
	}
	return order
}

func (e *election) names(order []int) []string {
	out := make([]string, len(order))
	for i, o := range order {
		out[i] = e.options[o]
	}
	return out
}
