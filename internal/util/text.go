package util

import (
	"regexp"
	"strings"
)

var (
	whitespace = regexp.MustCompile(`\s+`)
	nonWord    = regexp.MustCompile(`[^A-Za-z0-9_]+`)
)

// NormalizeWhitespace trims and collapses whitespace to single spaces.
func NormalizeWhitespace(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// Tokenize splits on runs of non-word characters. Case is preserved.
func Tokenize(s string) []string {
	parts := nonWord.Split(s, -1)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// CountOccurrencesFold counts non-overlapping, case-insensitive matches of any
// needle in text, scanning left to right with needles tried in order.
func CountOccurrencesFold(text string, needles []string) int {
	if text == "" {
		return 0
	}
	quoted := make([]string, 0, len(needles))
	for _, n := range needles {
		if n != "" {
			quoted = append(quoted, regexp.QuoteMeta(n))
		}
	}
	if len(quoted) == 0 {
		return 0
	}
	re := regexp.MustCompile("(?i)" + strings.Join(quoted, "|"))
	return len(re.FindAllStringIndex(text, -1))
}

// Truncate shortens s to at most n runes, appending an ellipsis when cut.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + " ..."
}
