package model

import (
	"testing"
	"time"
)

func TestNewEventAbsentFields(t *testing.T) {
	cases := []map[string]any{
		{},
		{"event_type": "labeled"},
		{"event_type": "labeled", "event_date": nil},
		{"event_type": "labeled", "event_date": ""},
		{"event_type": "labeled", "event_date": "garbage"},
		{"event_type": "labeled", "event_date": "2024-13-01T00:00:00Z"},
	}

	for _, raw := range cases {
		e := NewEvent(raw)
		if e.Date() != nil {
			t.Errorf("NewEvent(%v): expected absent date, got %v", raw, e.Date())
		}
		if e.Author() != "" {
			t.Errorf("NewEvent(%v): expected absent author, got %q", raw, e.Author())
		}
	}
}

func TestNewEventUnknownTypePreserved(t *testing.T) {
	e := NewEvent(map[string]any{"event_type": "converted_to_discussion"})
	if e.Type() != "converted_to_discussion" {
		t.Errorf("expected verbatim type, got %q", e.Type())
	}
}

func TestNewEventActorFallback(t *testing.T) {
	e := NewEvent(map[string]any{
		"event":      "closed",
		"actor":      map[string]any{"login": "hubot"},
		"created_at": "2024-03-01T00:00:00Z",
	})
	if e.Type() != "closed" {
		t.Errorf("expected closed, got %q", e.Type())
	}
	if e.Author() != "hubot" {
		t.Errorf("expected hubot, got %q", e.Author())
	}
	if e.Date() == nil {
		t.Error("expected created_at fallback to parse")
	}
}

func TestEventEqual(t *testing.T) {
	a := NewEvent(map[string]any{"event_type": "commented", "author": "alice", "event_date": "2024-01-01T00:00:00Z"})
	b := NewEvent(map[string]any{"event_type": "commented", "author": "alice", "event_date": "2024-01-01T00:00:00Z"})
	c := NewEvent(map[string]any{"event_type": "commented", "author": "alice", "event_date": "2024-01-02T00:00:00Z"})
	d := NewEvent(map[string]any{"event_type": "commented", "author": "alice"})

	if !a.Equal(b) {
		t.Error("expected identical events to be equal")
	}
	if a.Equal(c) {
		t.Error("expected different dates to be unequal")
	}
	if a.Equal(d) || d.Equal(a) {
		t.Error("expected absent date to be unequal to present date")
	}
	if !d.Equal(NewEvent(map[string]any{"event_type": "commented", "author": "alice"})) {
		t.Error("expected two absent-date events to be equal")
	}
}

func TestEventDateCopy(t *testing.T) {
	e := NewEvent(map[string]any{"event_type": "labeled", "event_date": "2024-01-01T00:00:00Z"})
	p := e.Date()
	*p = p.Add(time.Hour)
	if !e.Date().Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("mutating the returned date leaked into the event")
	}
}
