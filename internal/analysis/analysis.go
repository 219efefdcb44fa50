// Package analysis implements the reports that run over the issue corpus.
// Each analysis takes its parameters from the config and its issues from an
// IssueSource, and writes a textual report with bar charts.
package analysis

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/issuelens/issuelens/config"
	"github.com/issuelens/issuelens/internal/loader"
	"github.com/issuelens/issuelens/internal/model"
)

// IssueSource supplies the issue corpus. Implemented by loader.Loader.
type IssueSource interface {
	Issues(ctx context.Context) ([]*model.Issue, error)
}

var _ IssueSource = (*loader.Loader)(nil)

// Analysis is one runnable report.
type Analysis interface {
	Name() string
	Run(ctx context.Context, w io.Writer) error
}

// New returns the named analysis, wired to the given config and source.
func New(name string, cfg *config.Config, src IssueSource) (Analysis, error) {
	switch strings.ToLower(name) {
	case "events":
		return NewEvents(cfg, src), nil
	case "authors":
		return NewAuthors(cfg, src), nil
	case "commenters":
		return NewCommenters(cfg, src), nil
	case "yearly":
		return NewYearly(cfg, src), nil
	case "resolution":
		return NewResolution(cfg, src), nil
	default:
		return nil, fmt.Errorf("unknown analysis %q (available: %s)", name, strings.Join(Names(), ", "))
	}
}

// Names lists the available analyses.
func Names() []string {
	names := []string{"events", "authors", "commenters", "yearly", "resolution"}
	sort.Strings(names)
	return names
}
