package analysis

import (
	"context"
	"fmt"
	"io"

	"github.com/issuelens/issuelens/config"
	"github.com/issuelens/issuelens/internal/chart"
)

// Events reports how many timeline events the corpus contains, optionally
// restricted to a single author, and charts the most active issue creators.
//
// Parameters: user (optional author filter), top (creator chart size,
// default 50).
type Events struct {
	cfg *config.Config
	src IssueSource
}

// NewEvents creates the events analysis.
func NewEvents(cfg *config.Config, src IssueSource) *Events {
	return &Events{cfg: cfg, src: src}
}

// Name implements Analysis.
func (a *Events) Name() string { return "events" }

// Run implements Analysis.
func (a *Events) Run(ctx context.Context, w io.Writer) error {
	issues, err := a.src.Issues(ctx)
	if err != nil {
		return err
	}

	user := a.cfg.GetString("user", "")

	total := 0
	for _, iss := range issues {
		for _, ev := range iss.Events() {
			if user == "" || ev.Author() == user {
				total++
			}
		}
	}

	if user != "" {
		fmt.Fprintf(w, "\n\nFound %d events across %d issues for %s.\n\n", total, len(issues), user)
	} else {
		fmt.Fprintf(w, "\n\nFound %d events across %d issues.\n\n", total, len(issues))
	}

	if len(issues) == 0 {
		return nil
	}

	creators := map[string]int{}
	for _, iss := range issues {
		if iss.Creator() != "" {
			creators[iss.Creator()]++
		}
	}

	top := a.cfg.GetInt("top", 50)
	entries := chart.FromCounts(creators)
	chart.SortByCount(entries)
	entries = chart.Top(entries, top)

	chart.New(fmt.Sprintf("Top %d issue creators", len(entries)), entries).Render(w)
	return nil
}
