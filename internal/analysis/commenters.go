package analysis

import (
	"context"
	"fmt"
	"io"

	"github.com/issuelens/issuelens/config"
	"github.com/issuelens/issuelens/internal/chart"
)

// commentedEvent is the timeline event type counted by Commenters.
const commentedEvent = "commented"

// Commenters ranks authors by how many commented events they produced.
//
// Parameters: user (restrict the chart to one author), top (chart size,
// default all).
type Commenters struct {
	cfg *config.Config
	src IssueSource
}

// NewCommenters creates the commenters analysis.
func NewCommenters(cfg *config.Config, src IssueSource) *Commenters {
	return &Commenters{cfg: cfg, src: src}
}

// Name implements Analysis.
func (a *Commenters) Name() string { return "commenters" }

// Run implements Analysis.
func (a *Commenters) Run(ctx context.Context, w io.Writer) error {
	issues, err := a.src.Issues(ctx)
	if err != nil {
		return err
	}

	user := a.cfg.GetString("user", "")

	counts := map[string]int{}
	total := 0
	for _, iss := range issues {
		for _, ev := range iss.Events() {
			if ev.Type() != commentedEvent || ev.Author() == "" {
				continue
			}
			if user != "" && ev.Author() != user {
				continue
			}
			counts[ev.Author()]++
			total++
		}
	}

	fmt.Fprintf(w, "Found %d commented events by %d authors.\n", total, len(counts))

	entries := chart.FromCounts(counts)
	chart.SortByCount(entries)
	entries = chart.Top(entries, a.cfg.GetInt("top", -1))

	chart.New("Commented events by author", entries).Render(w)
	return nil
}
