package recipes

import (
	"strings"
	"unicode"
)

// ParseIngredients splits a comma separated ingredient list. Tokens are
// trimmed and empty ones dropped; order and duplicates are kept, and inner
// whitespace is part of the name ("olive oil").
func ParseIngredients(raw string) []string {
	parts := strings.Split(raw, ",")
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		name := strings.TrimFunc(part, unicode.IsSpace)
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	return names
}

// DistinctIngredients drops repeated names, keeping the first occurrence.
// Comparison is exact, so "egg" and "Egg" are different ingredients.
func DistinctIngredients(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
