package norm

import (
	"testing"
	"time"
)

func TestTimestampValid(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2024-01-01T00:00:00Z", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"2024-01-01T12:30:45+02:00", time.Date(2024, 1, 1, 12, 30, 45, 0, time.FixedZone("", 2*3600))},
		{"2024-06-15T08:00:00", time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC)},
		{"2024-06-15", time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)},
	}

	for _, tc := range cases {
		got := Timestamp(tc.in)
		if got == nil {
			t.Fatalf("Timestamp(%q) = nil, want %v", tc.in, tc.want)
		}
		if !got.Equal(tc.want) {
			t.Errorf("Timestamp(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestTimestampInvalid(t *testing.T) {
	cases := []any{
		nil,
		"",
		"not a date",
		"2024-13-01T00:00:00Z", // month 13
		"2024-01-01T61:00:00Z", // hour 61
		"2024-02-30T00:00:00Z", // day out of range
		42,
		[]string{"2024-01-01"},
	}

	for _, tc := range cases {
		if got := Timestamp(tc); got != nil {
			t.Errorf("Timestamp(%v) = %v, want nil", tc, got)
		}
	}
}

func TestString(t *testing.T) {
	raw := map[string]any{"state": "open", "count": 3}

	if got := String(raw, "state", ""); got != "open" {
		t.Errorf("expected 'open', got %q", got)
	}
	if got := String(raw, "missing", "fallback"); got != "fallback" {
		t.Errorf("expected fallback, got %q", got)
	}
	if got := String(raw, "count", "fallback"); got != "fallback" {
		t.Errorf("expected fallback for non-string, got %q", got)
	}
	if got := String(nil, "state", "fallback"); got != "fallback" {
		t.Errorf("expected fallback for nil mapping, got %q", got)
	}
}

func TestNestedString(t *testing.T) {
	raw := map[string]any{
		"actor": map[string]any{"login": "octocat"},
		"user":  "plain",
	}

	if got := NestedString(raw, "actor", "login"); got != "octocat" {
		t.Errorf("expected octocat, got %q", got)
	}
	if got := NestedString(raw, "user", "login"); got != "" {
		t.Errorf("expected empty for non-object, got %q", got)
	}
	if got := NestedString(raw, "missing", "login"); got != "" {
		t.Errorf("expected empty for missing key, got %q", got)
	}
}

func TestInt(t *testing.T) {
	raw := map[string]any{
		"float":  float64(17),
		"int":    42,
		"string": "9",
	}

	if got, ok := Int(raw, "float"); !ok || got != 17 {
		t.Errorf("expected (17, true), got (%d, %v)", got, ok)
	}
	if got, ok := Int(raw, "int"); !ok || got != 42 {
		t.Errorf("expected (42, true), got (%d, %v)", got, ok)
	}
	if _, ok := Int(raw, "string"); ok {
		t.Error("expected string value to report not-present")
	}
	if _, ok := Int(raw, "missing"); ok {
		t.Error("expected missing key to report not-present")
	}
}

func TestStringSlice(t *testing.T) {
	raw := map[string]any{
		"plain": []any{"bug", "feature"},
		"objects": []any{
			map[string]any{"name": "bug"},
			map[string]any{"login": "dev1"},
			map[string]any{"id": float64(1)}, // no usable key, skipped
		},
		"mixed":  []any{"bug", float64(3), map[string]any{"name": "docs"}},
		"scalar": "oops",
	}

	if got := StringSlice(raw, "plain"); len(got) != 2 || got[0] != "bug" || got[1] != "feature" {
		t.Errorf("plain: got %v", got)
	}
	if got := StringSlice(raw, "objects"); len(got) != 2 || got[0] != "bug" || got[1] != "dev1" {
		t.Errorf("objects: got %v", got)
	}
	if got := StringSlice(raw, "mixed"); len(got) != 2 || got[0] != "bug" || got[1] != "docs" {
		t.Errorf("mixed: got %v", got)
	}
	if got := StringSlice(raw, "scalar"); len(got) != 0 {
		t.Errorf("scalar: expected empty, got %v", got)
	}
	if got := StringSlice(raw, "missing"); got == nil || len(got) != 0 {
		t.Errorf("missing: expected empty slice, got %v", got)
	}
}
