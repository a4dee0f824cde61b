package store

import "strings"

// ChunkRange invokes fn with [start, end) bounds covering [0, total) in
// chunks of at most chunkSize. It stops at the first error.
func ChunkRange(total, chunkSize int, fn func(start, end int) error) error {
	if total <= 0 {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = total
	}
	for start := 0; start < total; start += chunkSize {
		end := min(start+chunkSize, total)
		if err := fn(start, end); err != nil {
			return err
		}
	}
	return nil
}

// DedupeStrings returns values with duplicates removed, preserving the
// order of first occurrence.
func DedupeStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}

// NormalizeLabels trims whitespace, drops empties, and dedupes while
// preserving first-occurrence order. Labels act as a set, so storing
// them normalized keeps the distinct-label listing free of near
// duplicates.
func NormalizeLabels(labels []string) []string {
	trimmed := make([]string, 0, len(labels))
	for _, label := range labels {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		trimmed = append(trimmed, label)
	}
	return DedupeStrings(trimmed)
}
