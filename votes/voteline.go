// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package votes

import (
	"regexp"
	"strconv"
	"strings"
)

// voteLinePattern splits "-[x][Task] content" into its parts. Formatting
// must already be stripped and brackets folded to ASCII.
var voteLinePattern = regexp.MustCompile(`^([-\s]*)\[\s*([xX✓✔+]|[1-9][0-9]?)\s*\](?:\s*\[([^\]]*)\])?\s*(.*)$`)

// VoteLine is one parsed line of a vote.
type VoteLine struct {
	Depth   int    // number of leading '-' sub-line markers
	Marker  string // "x", "✓", "1", ...
	Task    string
	Content string
}

// ParseVoteLine parses a raw vote line. It reports false when the line has
// no vote marker.
func ParseVoteLine(raw string) (VoteLine, bool) {
	m := voteLinePattern.FindStringSubmatch(strings.TrimSpace(foldQuotes(StripFormatting(raw))))
	if m == nil {
		return VoteLine{}, false
	}

	marker := m[2]
	if marker == "X" {
		marker = "x"
	}

	return VoteLine{
		Depth:   strings.Count(m[1], "-"),
		Marker:  marker,
		Task:    CleanText(m[3]),
		Content: CleanText(m[4]),
	}, true
}

// IsRank reports whether the marker is a rank number.
func (v VoteLine) IsRank() bool {
	_, err := strconv.Atoi(v.Marker)
	return err == nil
}

// Rank returns the rank number of the marker, or 0 for non-rank markers.
func (v VoteLine) Rank() int {
	n, err := strconv.Atoi(v.Marker)
	if err != nil {
		return 0
	}
	return n
}

// Condensed returns the line without its prefix and marker.
func (v VoteLine) Condensed() string {
	if v.Task != "" {
		return "[" + v.Task + "] " + v.Content
	}
	return v.Content
}

// String renders the line in its canonical display form.
func (v VoteLine) String() string {
	var sb strings.Builder
	sb.WriteString(strings.Repeat("-", v.Depth))
	sb.WriteString("[" + v.Marker + "]")
	if v.Task != "" {
		sb.WriteString("[" + v.Task + "]")
	}
	sb.WriteString(" " + v.Content)
	return sb.String()
}

// Promote returns the line moved up n levels of nesting.
func (v VoteLine) Promote(n int) VoteLine {
	v.Depth = max(v.Depth-n, 0)
	return v
}

// Key returns the ledger key of the line for the given vote type. Rank keys
// keep the marker because each rank of an option is tracked separately.
func (v VoteLine) Key(t VoteType) string {
	key := normalizeText(v.Task) + "|" + normalizeText(v.Content)
	if t == VoteTypeRank {
		return v.Marker + "|" + key
	}
	return key
}

// voteKey returns the ledger key of a possibly multi-line vote text. A line
// without a marker is keyed as if it had one.
func voteKey(text string, t VoteType) string {
	lines := splitLines(text)
	keys := make([]string, 0, len(lines))
	for _, raw := range lines {
		keys = append(keys, parseCondensed(raw).Key(t))
	}
	return strings.Join(keys, "\n")
}

// displayText returns the canonical display form of a vote text.
func displayText(text string) string {
	lines := splitLines(text)
	out := make([]string, 0, len(lines))
	for _, raw := range lines {
		if line, ok := ParseVoteLine(raw); ok {
			out = append(out, line.String())
			continue
		}
		out = append(out, CleanText(raw))
	}
	return strings.Join(out, "\n")
}

// condensedKey returns the key of a vote text with any rank marker removed.
// "[Task] option" and "[1][Task] option" share a condensed key.
func condensedKey(text string) string {
	return parseCondensed(text).Key(VoteTypeVote)
}

// splitLines splits text into non-blank lines.
func splitLines(text string) []string {
	var lines []string
	for _, l := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
