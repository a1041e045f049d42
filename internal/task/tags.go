package task

import "strings"

// NormalizeTag trims whitespace and a leading '#' from a tag.
func NormalizeTag(tag string) string {
	return strings.TrimPrefix(strings.TrimSpace(tag), "#")
}

// DeduplicateTags normalizes tags, filters empties, and returns unique tags in
// first-occurrence order. Matching is case-insensitive; the first spelling wins.
func DeduplicateTags(tags []string) []string {
	return deduplicateStrings(tags, NormalizeTag, strings.ToLower)
}

// DeduplicateDependencies trims dependency IDs and removes repeats.
func DeduplicateDependencies(ids []string) []string {
	return deduplicateStrings(ids, strings.TrimSpace, func(s string) string { return s })
}

// DuplicateTags returns tags that appear more than once on the task,
// compared case-insensitively.
func DuplicateTags(tags []string) []string {
	seen := make(map[string]bool)
	var dups []string
	for _, tag := range tags {
		key := strings.ToLower(NormalizeTag(tag))
		if seen[key] {
			dups = append(dups, tag)
			continue
		}
		seen[key] = true
	}
	return dups
}
