// Package strings provides string list helpers for query parameters.
package strings

import (
	"strings"
)

// SplitList splits comma-separated query values ("create,update") and
// returns the trimmed, lower-cased, de-duplicated items in input order.
// Repeated parameters are accepted too: SplitList("a,b", "b,c") yields
// [a b c].
func SplitList(values ...string) []string {
	var parts []string
	for _, v := range values {
		parts = append(parts, strings.Split(v, ",")...)
	}
	return DedupeAndTrimLower(parts)
}

// DedupeAndTrimLower trims, lower-cases and de-duplicates values, dropping
// empty items. Order is preserved.
func DedupeAndTrimLower(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		item := strings.ToLower(strings.TrimSpace(v))
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		result = append(result, item)
	}
	return result
}
