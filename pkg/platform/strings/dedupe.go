package strings

// DedupeByKey keeps the first value for each key(value), drops values whose
// key is empty, and stops once limit values are collected (limit <= 0 means no limit).
// Order is preserved.
//
// Example:
//
//	DedupeByKey([]string{"Acme Ltd", "acme ltd", "", "Acme Group"}, NameKey, 5)
//	// Returns: []string{"Acme Ltd", "Acme Group"}
func DedupeByKey(values []string, key func(string) string, limit int) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		k := key(v)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		result = append(result, CollapseSpaces(v))
		if limit > 0 && len(result) == limit {
			break
		}
	}

	return result
}
