// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package votes

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// formattingTags matches BBCode-style markup left over from post extraction,
// in both the [b] and 『b』 bracket forms. Groups: closing slash, tag name,
// argument.
var formattingTags = regexp.MustCompile(`(?i)[\[『]\s*(/?)\s*(b|i|u|s|color|url|size|spoiler|font)(\s*=[^\]』]*)?\s*[\]』]`)

// quoteVariants maps decorative quotes, apostrophes and brackets to their
// ASCII forms.
var quoteVariants = map[rune]rune{
	'‘': '\'', '’': '\'', '‛': '\'', 'ʼ': '\'', '`': '\'', '´': '\'', '′': '\'',
	'“': '"', '”': '"', '„': '"', '‟': '"', '«': '"', '»': '"', '″': '"',
	'［': '[', '］': ']', '「': '[', '」': ']',
}

// invisible reports runes that never contribute to vote text: zero-width and
// formatting characters, and control characters other than whitespace.
func invisible(r rune) bool {
	if unicode.Is(unicode.Cf, r) {
		return true
	}
	return unicode.IsControl(r) && !unicode.IsSpace(r)
}

// StripFormatting removes formatting tags and invisible characters.
func StripFormatting(s string) string {
	s = stripTags(s)
	return strings.Map(func(r rune) rune {
		if invisible(r) {
			return -1
		}
		return r
	}, s)
}

// stripTags removes closing tags, tags with an argument, and bare opening
// tags that a closing tag of the same name pairs with. An unpaired bare tag
// such as "[Color]" or "[S]" is a task label and stays.
func stripTags(s string) string {
	matches := formattingTags.FindAllStringSubmatchIndex(s, -1)
	if matches == nil {
		return s
	}

	closers := make(map[string]int)
	bare := make(map[string][]int)
	for i, m := range matches {
		name := strings.ToLower(s[m[4]:m[5]])
		switch {
		case m[3] > m[2]:
			closers[name]++
		case m[6] >= 0:
			closers[name]--
		default:
			bare[name] = append(bare[name], i)
		}
	}

	// Pair closers with the bare openers nearest to them.
	keep := make([]bool, len(matches))
	for name, idx := range bare {
		unpaired := len(idx) - max(closers[name], 0)
		for j := 0; j < unpaired; j++ {
			keep[idx[j]] = true
		}
	}

	var sb strings.Builder
	last := 0
	for i, m := range matches {
		if keep[i] {
			continue
		}
		sb.WriteString(s[last:m[0]])
		last = m[1]
	}
	sb.WriteString(s[last:])
	return sb.String()
}

// foldQuotes maps decorative quotes and brackets to ASCII.
func foldQuotes(s string) string {
	return strings.Map(func(r rune) rune {
		if q, ok := quoteVariants[r]; ok {
			return q
		}
		return r
	}, s)
}

// CleanText tidies text for display: formatting removed, decorative quotes
// mapped to ASCII, whitespace collapsed.
func CleanText(s string) string {
	s = foldQuotes(StripFormatting(s))
	return strings.Join(strings.Fields(s), " ")
}

// normalizeText builds the comparison form of a fragment of vote text.
// It is idempotent: normalizeText(normalizeText(s)) == normalizeText(s).
func normalizeText(s string) string {
	s = cases.Fold().String(CleanText(s))

	// Chains carry state, so build one per call.
	t := transform.Chain(
		norm.NFKD,
		runes.Remove(runes.In(unicode.Mn)),
		runes.Remove(runes.Predicate(func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})),
		norm.NFC,
	)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}

	// Compatibility decomposition can surface new upper case letters (™).
	return cases.Fold().String(strings.Join(strings.Fields(out), " "))
}

// Normalize returns the comparison key for vote or voter text. A leading
// vote marker such as "[x]" or "-[1]" is dropped first and the task stays
// apart from the content, so "[Task] Attack" and "Task Attack" differ. Two
// texts normalize equally exactly when they share a ledger vote key.
func Normalize(s string) string {
	lines := splitLines(s)
	keys := make([]string, len(lines))
	for i, raw := range lines {
		line := parseCondensed(raw)
		task, content := normalizeText(line.Task), normalizeText(line.Content)
		if task == "" {
			keys[i] = content
			continue
		}
		keys[i] = "[" + task + "] " + content
	}
	return strings.Join(keys, "\n")
}

// SameText reports whether a and b normalize to the same key.
func SameText(a, b string) bool {
	return Normalize(a) == Normalize(b)
}
