// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package votes

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrUnsupportedVoteType = errors.New("unsupported vote type")
)

// VoteType selects which section of the ledger a vote belongs to.
type VoteType int

const (
	VoteTypeVote VoteType = iota
	VoteTypePlan
	VoteTypeRank
	VoteTypeApproval // reserved
)

func (t VoteType) String() string {
	switch t {
	case VoteTypeVote:
		return "vote"
	case VoteTypePlan:
		return "plan"
	case VoteTypeRank:
		return "rank"
	case VoteTypeApproval:
		return "approval"
	default:
		return fmt.Sprintf("VoteType(%d)", int(t))
	}
}

// ParseVoteType parses the names produced by VoteType.String.
func ParseVoteType(s string) (VoteType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "vote":
		return VoteTypeVote, nil
	case "plan":
		return VoteTypePlan, nil
	case "rank":
		return VoteTypeRank, nil
	case "approval":
		return VoteTypeApproval, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedVoteType, s)
}

// PartitionMode controls how a post's vote lines are split into vote texts.
type PartitionMode string

const (
	PartitionByLine  PartitionMode = "line"  // every line is its own vote
	PartitionByBlock PartitionMode = "block" // a top-level line and its sub-lines
	PartitionNone    PartitionMode = "none"  // the whole post is one vote
)

// ParsePartitionMode parses a partition mode, defaulting to PartitionByLine.
func ParsePartitionMode(s string) (PartitionMode, error) {
	switch PartitionMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", PartitionByLine:
		return PartitionByLine, nil
	case PartitionByBlock:
		return PartitionByBlock, nil
	case PartitionNone:
		return PartitionNone, nil
	}
	return "", fmt.Errorf("%w: unknown partition mode %q", ErrInvalidArgument, s)
}

// Post is one forum post, already extracted by the forum adapter.
type Post struct {
	Author string
	ID     string
	Number int
	Lines  []string
}

// FutureReference is a vote line whose target was unknown when it was read.
type FutureReference struct {
	Voter  string
	PostID string
	Line   string
	Type   VoteType
}

// EditAction names the manual edit an undo record reverses.
type EditAction string

const (
	EditMerge  EditAction = "merge"
	EditJoin   EditAction = "join"
	EditDelete EditAction = "delete"
)
