// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides edit keys and ID generation.

# Edit Keys

Edit keys use HMAC-SHA256 to create deterministic, verifiable keys:

	editKey := auth.GenerateEditKey(tallyID, salt)
	err := auth.ValidateEditKey(tallyID, editKey, salt)

The key is URL-safe base64 encoded without padding. Since it's deterministic,
the same tally ID and salt always produce the same key. This allows validation
without storing the key in the database.

Every request that changes a tally (posts, runs, manual edits) must carry the
key in the X-Edit-Key header.

# ID Generation

Random UUIDs for tallies and result snapshots:

	id, err := auth.GenerateID()
*/
package auth
