// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package rank

// bordaScores scores the alive options. A ballot marking n alive options
// gives n-1 points to its first choice down to 0 for its last; options it
// did not mark get nothing.
func (e *election) bordaScores(alive []bool) []int {
	scores := make([]int, len(e.options))
	for _, pref := range e.prefs {
		m := marked(pref, alive)
		for i, o := range m {
			scores[o] += len(m) - 1 - i
		}
	}
	return scores
}

// BordaScores returns each option's Borda score over the full ballot set.
func BordaScores(ballots []Ballot) map[string]int {
	e := newElection(ballots)
	scores := e.bordaScores(e.allAlive())
	out := make(map[string]int, len(scores))
	for o, s := range scores {
		out[e.options[o]] = s
	}
	return out
}

func (e *election) borda() []int {
	alive := e.allAlive()
	return e.byScore(e.bordaScores(alive), alive)
}
