// Package strings normalizes comma-separated configuration lists.
package strings

import (
	"slices"
	"strings"
)

// DedupeAndTrim trims every item and drops blanks and repeats, keeping the
// first occurrence. A nil list stays nil.
func DedupeAndTrim(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}
