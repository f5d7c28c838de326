// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package rank

// eliminator picks the option to drop in one round of a runoff. firsts
// holds the first-preference counts of the round.
type eliminator func(e *election, alive []bool, firsts []int) int

// runoffWinner runs elimination rounds until an option holds a strict
// majority of the ballots that still rank something, or one option is
// left.
func (e *election) runoffWinner(alive []bool, eliminate eliminator) int {
	alive = append([]bool(nil), alive...)
	for {
		left, last := 0, -1
		for o, ok := range alive {
			if ok {
				left, last = left+1, o
			}
		}
		if left == 1 {
			return last
		}

		firsts, active := e.firstCounts(alive)
		for o, n := range firsts {
			if alive[o] && 2*n > active {
				return o
			}
		}
		alive[eliminate(e, alive, firsts)] = false
	}
}

// firstCounts counts first preferences among alive options and returns the
// number of ballots that still rank an alive option.
func (e *election) firstCounts(alive []bool) ([]int, int) {
	counts := make([]int, len(e.options))
	active := 0
	for _, pref := range e.prefs {
		for _, o := range pref {
			if alive[o] {
				counts[o]++
				active++
				break
			}
		}
	}
	return counts, active
}

// lastCounts counts, per alive option, the ballots ranking it last among
// the alive options they rank. A ballot ranking fewer than two alive options
// states no last preference and is skipped.
func (e *election) lastCounts(alive []bool) []int {
	counts := make([]int, len(e.options))
	for _, pref := range e.prefs {
		last, ranked := -1, 0
		for _, o := range pref {
			if alive[o] {
				last = o
				ranked++
			}
		}
		if ranked >= 2 {
			counts[last]++
		}
	}
	return counts
}

// Ties in elimination drop the option that sorts last.

func fewestFirsts(e *election, alive []bool, firsts []int) int {
	return pickLast(alive, firsts, func(n, best int) bool { return n <= best })
}

func mostLasts(e *election, alive []bool, _ []int) int {
	return pickLast(alive, e.lastCounts(alive), func(n, best int) bool { return n >= best })
}

func lowestBorda(e *election, alive []bool, _ []int) int {
	return pickLast(alive, e.bordaScores(alive), func(n, best int) bool { return n <= best })
}

// pickLast returns the alive option whose value is best under better,
// preferring higher indexes on ties.
func pickLast(alive []bool, values []int, better func(n, best int) bool) int {
	pick := -1
	for o, ok := range alive {
		if !ok {
			continue
		}
		if pick < 0 || better(values[o], values[pick]) {
			pick = o
		}
	}
	return pick
}

func (e *election) runoff(eliminate eliminator) []int {
	return e.sequence(func(alive []bool) int {
		return e.runoffWinner(alive, eliminate)
	})
}
