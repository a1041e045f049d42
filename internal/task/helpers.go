package task

// deduplicateStrings normalizes each item, filters empties, and returns unique
// items in first-occurrence order. Items are compared by key(normalized).
func deduplicateStrings(items []string, normalize, key func(string) string) []string {
	seen := make(map[string]bool)
	result := []string{}
	for _, item := range items {
		normalized := normalize(item)
		if normalized == "" {
			continue
		}
		k := key(normalized)
		if !seen[k] {
			seen[k] = true
			result = append(result, normalized)
		}
	}
	return result
}
