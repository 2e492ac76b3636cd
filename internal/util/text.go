package util

import (
	"strings"
	"unicode/utf8"
)

// CollapseWhitespace joins all whitespace runs, including newlines, into single spaces.
func CollapseWhitespace(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

// TruncateRunes cuts value to at most n runes without splitting a character.
func TruncateRunes(value string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(value) <= n {
		return value
	}
	count := 0
	for i := range value {
		if count == n {
			return value[:i]
		}
		count++
	}
	return value
}

// TailRunes returns the last n runes of value.
func TailRunes(value string, n int) string {
	if n <= 0 {
		return ""
	}
	total := utf8.RuneCountInString(value)
	if total <= n {
		return value
	}
	skip := total - n
	count := 0
	for i := range value {
		if count == skip {
			return value[i:]
		}
		count++
	}
	return ""
}

// SplitList splits a comma separated list, trimming items and dropping empty
// ones.
func SplitList(value string) []string {
	var out []string
	for item := range strings.SplitSeq(value, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
