// Package model contains the immutable issue corpus types. Issues and events
// are constructed once from raw key/value payload mappings and expose
// read-only accessors; per-field absence is modeled explicitly ("" for
// strings, nil for timestamps, empty slices for sequences) so downstream
// analyses can filter without crashing on partial data.
package model

import (
	"fmt"
	"time"

	"github.com/issuelens/issuelens/internal/norm"
)

// Issue states with defined meaning. Any other raw value is preserved as-is.
const (
	StateOpen   = "open"
	StateClosed = "closed"
)

// FieldTypeError reports a raw field whose shape cannot be safely defaulted
// around, e.g. an "events" key holding a scalar instead of a sequence.
type FieldTypeError struct {
	Field string
	Want  string
	Got   any
}

func (e *FieldTypeError) Error() string {
	return fmt.Sprintf("field %q: want %s, got %T", e.Field, e.Want, e.Got)
}

// Issue is one issue plus its ordered event timeline. Construction never
// fails for missing optional keys; only the numeric identity is required.
type Issue struct {
	number      int
	url         string
	timelineURL string

	creator   string
	state     string
	labels    []string
	assignees []string

	title string
	text  string

	createdAt *time.Time
	updatedAt *time.Time

	events []Event
}

// NewIssue builds an Issue from a raw issue mapping. The "events" key, when
// present, must be a sequence of event mappings; any other shape returns a
// *FieldTypeError. Non-mapping elements inside the sequence are rejected the
// same way rather than silently coerced.
func NewIssue(raw map[string]any) (*Issue, error) {
	number, ok := norm.Int(raw, "number")
	if !ok {
		return nil, &FieldTypeError{Field: "number", Want: "integer", Got: raw["number"]}
	}

	creator := norm.FirstString(raw, "creator")
	if creator == "" {
		creator = norm.NestedString(raw, "user", "login")
	}

	created := norm.Timestamp(raw["created_date"])
	if created == nil {
		created = norm.Timestamp(raw["created_at"])
	}
	updated := norm.Timestamp(raw["updated_date"])
	if updated == nil {
		updated = norm.Timestamp(raw["updated_at"])
	}

	iss := &Issue{
		number:      number,
		url:         norm.String(raw, "url", ""),
		timelineURL: norm.String(raw, "timeline_url", ""),
		creator:     creator,
		state:       norm.String(raw, "state", ""),
		labels:      norm.StringSlice(raw, "labels"),
		assignees:   norm.StringSlice(raw, "assignees"),
		title:       norm.String(raw, "title", ""),
		text:        norm.FirstString(raw, "text", "body"),
		createdAt:   created,
		updatedAt:   updated,
	}

	events, err := extractEvents(raw)
	if err != nil {
		return nil, err
	}
	iss.events = events

	return iss, nil
}

func extractEvents(raw map[string]any) ([]Event, error) {
	v, present := raw["events"]
	if !present || v == nil {
		return []Event{}, nil
	}

	seq, ok := v.([]any)
	if !ok {
		return nil, &FieldTypeError{Field: "events", Want: "sequence", Got: v}
	}

	events := make([]Event, 0, len(seq))
	for i, item := range seq {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, &FieldTypeError{Field: fmt.Sprintf("events[%d]", i), Want: "mapping", Got: item}
		}
		events = append(events, NewEvent(m))
	}
	return events, nil
}

// Number returns the issue's numeric identity.
func (i *Issue) Number() int { return i.number }

// URL returns the issue resource URL, or "" if absent.
func (i *Issue) URL() string { return i.url }

// TimelineURL returns the per-issue events resource URL, or "" if absent.
func (i *Issue) TimelineURL() string { return i.timelineURL }

// Creator returns the issue author login, or "" if absent.
func (i *Issue) Creator() string { return i.creator }

// State returns the raw state string ("open", "closed", or whatever the
// source sent), or "" if absent.
func (i *Issue) State() string { return i.state }

// Labels returns the ordered label names. Callers must not modify the slice.
func (i *Issue) Labels() []string { return i.labels }

// Assignees returns the ordered assignee logins. Callers must not modify the slice.
func (i *Issue) Assignees() []string { return i.assignees }

// Title returns the issue title, or "" if absent.
func (i *Issue) Title() string { return i.title }

// Text returns the issue body, or "" if absent.
func (i *Issue) Text() string { return i.text }

// CreatedAt returns the creation time, or nil if missing or unparsable.
func (i *Issue) CreatedAt() *time.Time { return copyTime(i.createdAt) }

// UpdatedAt returns the last-update time, or nil if missing or unparsable.
func (i *Issue) UpdatedAt() *time.Time { return copyTime(i.updatedAt) }

// Events returns the timeline in source order. Duplicates are preserved.
// Callers must not modify the slice.
func (i *Issue) Events() []Event { return i.events }

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
