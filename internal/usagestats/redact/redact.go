// Package redact scrubs credentials out of free-form activity metadata
// before it is persisted or streamed to dashboards.
package redact

import "strings"

const mask = "****"

var sensitiveKeys = []string{"password", "secret", "token", "apikey", "api_key", "card", "cvc", "authorization"}

// Value keeps the last four characters of s and masks the rest.
func Value(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return mask
	}
	return mask + s[len(s)-4:]
}

// Metadata returns a copy of m with the values of sensitive keys masked.
// Nested objects and arrays are walked. Blank keys are dropped.
func Metadata(m map[string]any) map[string]any {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]any, len(m))
	for key, value := range m {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if isSensitive(key) {
			out[key] = maskAll(value)
			continue
		}
		out[key] = walk(value)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func walk(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return Metadata(v)
	case []any:
		items := make([]any, 0, len(v))
		for _, item := range v {
			items = append(items, walk(item))
		}
		return items
	default:
		return value
	}
}

func maskAll(value any) any {
	switch v := value.(type) {
	case string:
		return Value(v)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, inner := range v {
			out[k] = maskAll(inner)
		}
		return out
	case []any:
		items := make([]any, 0, len(v))
		for _, item := range v {
			items = append(items, maskAll(item))
		}
		return items
	case nil:
		return nil
	default:
		return mask
	}
}

func isSensitive(key string) bool {
	key = strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(key, s) {
			return true
		}
	}
	return false
}
