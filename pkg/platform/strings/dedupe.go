// Package strings provides string slice utilities.
package strings

// DedupeNonEmpty removes duplicates and empty strings from a slice. Order of
// first appearance is preserved and values are compared byte for byte: no
// trimming or case folding, identifiers are opaque.
//
// Example:
//
//	DedupeNonEmpty([]string{"a@x.com", "", "b@y.com", "a@x.com", "A@x.com"})
//	// Returns: []string{"a@x.com", "b@y.com", "A@x.com"}
func DedupeNonEmpty(values []string) []string {
	result := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))

	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}

	return result
}
