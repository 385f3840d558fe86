// Package attrs reads typed values back out of slog-style key/value lists.
package attrs

// ExtractString extracts a string value from a key-value attribute slice.
// The slice should be formatted as [key1, value1, key2, value2, ...].
// Returns empty string if the key is not found or the value is not a string.
func ExtractString(attrs []any, key string) string {
	if v, ok := lookup(attrs, key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// ExtractInt extracts an int value. ok is false when the key is missing or
// holds a non-integer.
func ExtractInt(attrs []any, key string) (int, bool) {
	v, found := lookup(attrs, key)
	if !found {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	default:
		return 0, false
	}
}

func lookup(attrs []any, key string) (any, bool) {
	for i := 0; i < len(attrs)-1; i += 2 {
		if k, ok := attrs[i].(string); ok && k == key {
			return attrs[i+1], true
		}
	}
	return nil, false
}
