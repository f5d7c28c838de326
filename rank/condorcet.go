// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package rank

// preferences returns d where d[a][b] is the number of ballots preferring
// a over b. A ranked option is preferred over any unranked one.
func (e *election) preferences() [][]int {
	n := len(e.options)
	d := make([][]int, n)
	for i := range d {
		d[i] = make([]int, n)
	}

	for _, pref := range e.prefs {
		ranked := make([]bool, n)
		for i, a := range pref {
			ranked[a] = true
			for _, b := range pref[i+1:] {
				d[a][b]++
			}
		}
		for _, a := range pref {
			for b := range n {
				if !ranked[b] {
					d[a][b]++
				}
			}
		}
	}
	return d
}

// pairwise orders options by head-to-head wins: the number of options
// each one beats. Losses do not count against an option. A Condorcet winner beats every other option and
// so always comes first.
func (e *election) pairwise() []int {
	d := e.preferences()
	wins := make([]int, len(e.options))
	for a := range d {
		for b := range d {
			if a != b && d[a][b] > d[b][a] {
				wins[a]++
			}
		}
	}
	return e.byScore(wins, e.allAlive())
}

// schulze orders options by the strongest beat-path relation. The relation
// is transitive, so sorting by the number of options each one outranks
// gives an order consistent with it.
func (e *election) schulze() []int {
	d := e.preferences()
	n := len(d)

	p := make([][]int, n)
	for i := range p {
		p[i] = make([]int, n)
		for j := range n {
			if i != j && d[i][j] > d[j][i] {
				p[i][j] = d[i][j]
			}
		}
	}

	for k := range n {
		for i := range n {
			if i == k {
				continue
			}
			for j := range n {
				if j == i || j == k {
					continue
				}
				p[i][j] = max(p[i][j], min(p[i][k], p[k][j]))
			}
		}
	}

	outranks := make([]int, n)
	for a := range n {
		for b := range n {
			if a != b && p[a][b] > p[b][a] {
				outranks[a]++
			}
		}
	}
	return e.byScore(outranks, e.allAlive())
}
