package model

import (
	"time"

	"github.com/issuelens/issuelens/internal/norm"
)

// Event is one timeline entry on an issue. Events are immutable once
// constructed; malformed source fields degrade to their absent markers
// (empty string, nil time) rather than failing construction.
type Event struct {
	typ    string
	author string
	date   *time.Time
}

// NewEvent builds an Event from a raw timeline mapping. The event type is an
// open string tag: unrecognized values are preserved verbatim. Author falls
// back to the nested actor object GitHub-style payloads use.
func NewEvent(raw map[string]any) Event {
	author := norm.FirstString(raw, "author")
	if author == "" {
		author = norm.NestedString(raw, "actor", "login")
	}

	date := norm.Timestamp(raw["event_date"])
	if date == nil {
		date = norm.Timestamp(raw["created_at"])
	}

	return Event{
		typ:    norm.FirstString(raw, "event_type", "event"),
		author: author,
		date:   date,
	}
}

// Type returns the event type tag, or "" if the source omitted it.
func (e Event) Type() string { return e.typ }

// Author returns the actor login, or "" if the source omitted it.
func (e Event) Author() string { return e.author }

// Date returns the event timestamp, or nil if missing or unparsable.
func (e Event) Date() *time.Time {
	if e.date == nil {
		return nil
	}
	t := *e.date
	return &t
}

// Equal reports value equality: same type, author, and timestamp.
// Duplicate events are preserved by the ingestion layer; consumers that want
// deduplication can use this.
func (e Event) Equal(other Event) bool {
	if e.typ != other.typ || e.author != other.author {
		return false
	}
	if e.date == nil || other.date == nil {
		return e.date == other.date
	}
	return e.date.Equal(*other.date)
}
