// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package rank orders the options of ranked quest tasks.

Rank reads the rank section of a ledger, builds one ballot per voter and
task, and orders each task's options with the selected Method:

	results := rank.Rank(ledger, rank.Baldwin)
	for _, task := range rank.Tasks(results) {
		fmt.Println(task, results[task])
	}

# Methods

  - Baldwin (default): runoff dropping the lowest Borda score each round
  - InstantRunoff: runoff dropping the fewest first preferences
  - Coombs: runoff dropping the most last preferences
  - Borda: total Borda score
  - Pairwise: number of head-to-head wins
  - Schulze: strongest beat-paths

Runoffs stop early when an option holds a strict majority of first
preferences. Their full order is built by removing the winner and running
again on the rest.

Every method returns every option exactly once. Ties go to the option whose
normalized text sorts first.
*/
package rank
