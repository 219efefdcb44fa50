package analysis

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/issuelens/issuelens/config"
	"github.com/issuelens/issuelens/internal/chart"
	"github.com/issuelens/issuelens/internal/model"
)

// Resolution compares how long closed issues stayed open depending on
// whether their timeline contains a given event type. Only closed issues
// with both dates count; an issue whose events carry no usable dates is
// treated as unreliable and skipped.
//
// Parameters: event_type (default "labeled").
type Resolution struct {
	cfg *config.Config
	src IssueSource
}

// NewResolution creates the resolution analysis.
func NewResolution(cfg *config.Config, src IssueSource) *Resolution {
	return &Resolution{cfg: cfg, src: src}
}

// Name implements Analysis.
func (a *Resolution) Name() string { return "resolution" }

// Run implements Analysis.
func (a *Resolution) Run(ctx context.Context, w io.Writer) error {
	issues, err := a.src.Issues(ctx)
	if err != nil {
		return err
	}

	eventType := a.cfg.GetString("event_type", "labeled")

	var withEvent, withoutEvent []time.Duration
	for _, iss := range issues {
		d, ok := resolutionTime(iss)
		if !ok {
			continue
		}
		if hasDatedEvent(iss, eventType) {
			withEvent = append(withEvent, d)
		} else {
			withoutEvent = append(withoutEvent, d)
		}
	}

	if len(withEvent) == 0 && len(withoutEvent) == 0 {
		fmt.Fprintln(w, "No closed issues with resolution times to analyze.")
		return nil
	}

	fmt.Fprintf(w, "Resolution time by presence of %q events:\n\n", eventType)
	report := func(label string, ds []time.Duration) {
		if len(ds) == 0 {
			fmt.Fprintf(w, "  %-8s (no issues)\n", label)
			return
		}
		fmt.Fprintf(w, "  %-8s mean %s over %d issues\n", label, formatDuration(meanDuration(ds)), len(ds))
	}
	report("with", withEvent)
	report("without", withoutEvent)
	fmt.Fprintln(w)

	var entries []chart.Entry
	if len(withEvent) > 0 {
		entries = append(entries, chart.Entry{Label: "with", Count: int(meanDuration(withEvent).Hours() / 24)})
	}
	if len(withoutEvent) > 0 {
		entries = append(entries, chart.Entry{Label: "without", Count: int(meanDuration(withoutEvent).Hours() / 24)})
	}
	chart.New("Mean days to close", entries).Render(w)
	return nil
}

// resolutionTime returns how long a closed issue stayed open.
func resolutionTime(iss *model.Issue) (time.Duration, bool) {
	if iss.State() != model.StateClosed {
		return 0, false
	}
	created, updated := iss.CreatedAt(), iss.UpdatedAt()
	if created == nil || updated == nil || updated.Before(*created) {
		return 0, false
	}
	if !eventsReliable(iss) {
		return 0, false
	}
	return updated.Sub(*created), true
}

// eventsReliable reports whether every event on the issue carries a date.
// An undated event means the timeline cannot be trusted for timing claims.
func eventsReliable(iss *model.Issue) bool {
	for _, ev := range iss.Events() {
		if ev.Date() == nil {
			return false
		}
	}
	return true
}

func hasDatedEvent(iss *model.Issue, eventType string) bool {
	for _, ev := range iss.Events() {
		if ev.Type() == eventType && ev.Date() != nil {
			return true
		}
	}
	return false
}

func meanDuration(ds []time.Duration) time.Duration {
	var sum time.Duration
	for _, d := range ds {
		sum += d
	}
	return sum / time.Duration(len(ds))
}

// formatDuration renders a duration in days and hours.
func formatDuration(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	if days == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dd %dh", days, hours)
}
