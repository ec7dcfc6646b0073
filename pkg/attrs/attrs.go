// Package attrs reads values back out of slog-style key/value lists.
package attrs

// ExtractString returns the string stored under key in a [k1, v1, k2, v2, ...]
// list, or "" when the key is absent or its value is not a string.
func ExtractString(attrs []any, key string) string {
	for i := 0; i+1 < len(attrs); i += 2 {
		if k, ok := attrs[i].(string); ok && k == key {
			if v, ok := attrs[i+1].(string); ok {
				return v
			}
		}
	}
	return ""
}

// FirstString returns the value of the first key in keys that holds a
// non-empty string.
func FirstString(attrs []any, keys ...string) string {
	for _, key := range keys {
		if v := ExtractString(attrs, key); v != "" {
			return v
		}
	}
	return ""
}
