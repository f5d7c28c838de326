// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package rank

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownMethod = errors.New("unknown ranking method")

// Method selects the algorithm that orders the options of a task.
type Method int

const (
	Baldwin Method = iota
	InstantRunoff
	Coombs
	Borda
	Pairwise
	Schulze
)

// Default is the method used when a tally does not name one.
const Default = Baldwin

// Methods lists every supported method.
var Methods = []Method{Baldwin, InstantRunoff, Coombs, Borda, Pairwise, Schulze}

func (m Method) String() string {
	switch m {
	case Baldwin:
		return "baldwin"
	case InstantRunoff:
		return "irv"
	case Coombs:
		return "coombs"
	case Borda:
		return "borda"
	case Pairwise:
		return "pairwise"
	case Schulze:
		return "schulze"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// ParseMethod parses a method name. An empty name selects Default.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return Default, nil
	case "baldwin":
		return Baldwin, nil
	case "irv", "instant-runoff", "instant_runoff":
		return InstantRunoff, nil
	case "coombs":
		return Coombs, nil
	case "borda":
		return Borda, nil
	case "pairwise", "condorcet", "copeland":
		return Pairwise, nil
	case "schulze":
		return Schulze, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}
