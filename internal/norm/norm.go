// Package norm coerces raw issue-tracker payload fields into canonical types.
// Every helper is pure and never panics: a malformed or missing value degrades
// to the caller-supplied default (nil for timestamps).
package norm

import (
	"time"
)

// timestampLayouts are tried in order. All are strict: out-of-range
// components (month 13, hour 61) fail to parse and yield nil.
var timestampLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Timestamp parses an ISO-8601-ish value into a point in time.
// Returns nil for nil, non-string, empty, or unparsable input.
func Timestamp(v any) *time.Time {
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// String extracts a string field, returning def when the key is missing,
// nil, or not a string.
func String(raw map[string]any, key, def string) string {
	if raw == nil {
		return def
	}
	if s, ok := raw[key].(string); ok {
		return s
	}
	return def
}

// NestedString looks up raw[key][sub] for payloads that nest the value in an
// object, e.g. GitHub's {"user": {"login": "..."}} or {"actor": {"login": "..."}}.
func NestedString(raw map[string]any, key, sub string) string {
	obj, ok := raw[key].(map[string]any)
	if !ok {
		return ""
	}
	s, _ := obj[sub].(string)
	return s
}

// FirstString returns the first non-empty string among the given keys.
func FirstString(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := String(raw, k, ""); s != "" {
			return s
		}
	}
	return ""
}

// Int extracts an integer field. JSON numbers decode as float64, so both
// forms are accepted. The second return reports whether a usable value
// was present.
func Int(raw map[string]any, key string) (int, bool) {
	switch v := raw[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// StringSlice extracts an ordered sequence of strings. Elements may be plain
// strings or objects carrying the value under a "name" or "login" key (the
// shape GitHub uses for labels and assignees). Anything else is skipped.
// A missing or non-sequence value yields an empty slice.
func StringSlice(raw map[string]any, key string) []string {
	items, ok := raw[key].([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case string:
			out = append(out, v)
		case map[string]any:
			if s, ok := v["name"].(string); ok {
				out = append(out, s)
			} else if s, ok := v["login"].(string); ok {
				out = append(out, s)
			}
		}
	}
	return out
}
