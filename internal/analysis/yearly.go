package analysis

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/issuelens/issuelens/config"
	"github.com/issuelens/issuelens/internal/chart"
	"github.com/issuelens/issuelens/internal/model"
)

// Yearly charts how many issues were opened per year, split by current
// state. Issues without a creation date are skipped.
type Yearly struct {
	cfg *config.Config
	src IssueSource
}

// NewYearly creates the yearly analysis.
func NewYearly(cfg *config.Config, src IssueSource) *Yearly {
	return &Yearly{cfg: cfg, src: src}
}

// Name implements Analysis.
func (a *Yearly) Name() string { return "yearly" }

// Run implements Analysis.
func (a *Yearly) Run(ctx context.Context, w io.Writer) error {
	issues, err := a.src.Issues(ctx)
	if err != nil {
		return err
	}

	perYear := map[string]int{}
	stillOpen := map[string]int{}
	skipped := 0
	for _, iss := range issues {
		created := iss.CreatedAt()
		if created == nil {
			skipped++
			continue
		}
		year := strconv.Itoa(created.Year())
		perYear[year]++
		if iss.State() == model.StateOpen {
			stillOpen[year]++
		}
	}

	if len(perYear) == 0 {
		fmt.Fprintln(w, "No dated issues to analyze.")
		return nil
	}

	entries := chart.FromCounts(perYear)
	chart.SortByLabel(entries)
	chart.New("Issues opened per year", entries).Render(w)

	if len(stillOpen) > 0 {
		fmt.Fprintln(w)
		openEntries := chart.FromCounts(stillOpen)
		chart.SortByLabel(openEntries)
		chart.New("Still open, by year opened", openEntries).Render(w)
	}

	if skipped > 0 {
		fmt.Fprintf(w, "\n%d issues had no creation date and were skipped.\n", skipped)
	}
	return nil
}
