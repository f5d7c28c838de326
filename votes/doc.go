// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package votes consolidates free-text quest votes into a ledger.

# Vote Lines

A vote line carries a marker, an optional task and the vote content:

	[x] Go north
	[x][Combat] Charge
	-[x] Sub-line of the line above
	[1][Color] Red

Numeric markers are rank votes. Every other marker is a plain vote.

# Normalization

Two lines are the same vote when Normalize gives them the same key. The
key ignores case, whitespace runs, diacritics, punctuation, symbols,
formatting tags and invisible characters:

	votes.SameText("[x] Don’t stop", "[X] dont  STOP") // true

# Tallying

Tally resets a Ledger and reads posts oldest first:

	l := votes.NewLedger()
	err := votes.Tally(ctx, l, posts, votes.Options{Partition: votes.PartitionByLine})

A line naming a plan or an earlier voter is replaced with that plan's or
voter's lines. A line whose target only appears later is retried once the
last post is read. Cycles fall back to literal text.

# Manual Edits

Merge, Join and Delete correct the ledger after a tally and report false
when their target is missing. Each successful edit can be reversed by Undo.

A Ledger is not safe for concurrent use.
*/
package votes
