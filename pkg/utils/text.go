// Package utils provides shared utilities for text, math, globbing and logging.
package utils

import "strings"

// Abbreviate collapses runs of whitespace to single spaces and cuts the result to
// maxRunes runes, appending "..." when something was cut. A non-positive maxRunes
// only collapses whitespace.
func Abbreviate(s string, maxRunes int) string {
	s = strings.Join(strings.Fields(s), " ")
	if maxRunes <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= maxRunes {
		return s
	}
	return string(r[:maxRunes]) + "..."
}
