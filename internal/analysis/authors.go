package analysis

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/issuelens/issuelens/config"
	"github.com/issuelens/issuelens/internal/chart"
	"github.com/issuelens/issuelens/internal/tui"
)

// bucketNames are the alphabetical ranges event authors are grouped into.
var bucketNames = []string{"A-G", "H-N", "O-T", "U-Z"}

// Authors groups event authors into alphabetical ranges and drills down to
// a single author's event count, interactively unless the bucket and author
// parameters preselect the path.
//
// Parameters: bucket (one of A-G, H-N, O-T, U-Z), author (exact name).
type Authors struct {
	cfg *config.Config
	src IssueSource

	// pick chooses one option by index; replaced in tests.
	pick func(title string, options []string) (int, error)
}

// NewAuthors creates the authors analysis.
func NewAuthors(cfg *config.Config, src IssueSource) *Authors {
	return &Authors{cfg: cfg, src: src, pick: tui.Pick}
}

// Name implements Analysis.
func (a *Authors) Name() string { return "authors" }

// Run implements Analysis.
func (a *Authors) Run(ctx context.Context, w io.Writer) error {
	issues, err := a.src.Issues(ctx)
	if err != nil {
		return err
	}

	counts := map[string]int{}
	for _, iss := range issues {
		for _, ev := range iss.Events() {
			if ev.Author() != "" {
				counts[ev.Author()]++
			}
		}
	}
	if len(counts) == 0 {
		fmt.Fprintln(w, "No event authors found.")
		return nil
	}

	buckets := groupByBucket(counts)

	bucketIdx, err := a.chooseBucket(w)
	if err != nil {
		return err
	}

	entries := buckets[bucketIdx]
	chart.SortByCount(entries)

	fmt.Fprintf(w, "\nCategory: %s\n", bucketNames[bucketIdx])
	chart.New("", entries).Render(w)

	author, err := a.chooseAuthor(entries)
	if err != nil {
		return err
	}
	if author == "" {
		return nil
	}

	fmt.Fprintf(w, "\nEvent author found: %s (%d events)\n", author, counts[author])
	return nil
}

// groupByBucket splits per-author counts into the alphabetical ranges.
// Authors whose names start outside A-Z land in the last bucket.
func groupByBucket(counts map[string]int) [][]chart.Entry {
	buckets := make([][]chart.Entry, len(bucketNames))
	for author, count := range counts {
		idx := bucketFor(author)
		buckets[idx] = append(buckets[idx], chart.Entry{Label: author, Count: count})
	}
	return buckets
}

func bucketFor(author string) int {
	r := unicode.ToUpper([]rune(author)[0])
	switch {
	case r >= 'A' && r <= 'G':
		return 0
	case r >= 'H' && r <= 'N':
		return 1
	case r >= 'O' && r <= 'T':
		return 2
	default:
		return 3
	}
}

// chooseBucket resolves the alphabetical range, from the bucket parameter
// when given, otherwise interactively.
func (a *Authors) chooseBucket(w io.Writer) (int, error) {
	if param := a.cfg.GetString("bucket", ""); param != "" {
		for i, name := range bucketNames {
			if strings.EqualFold(name, param) {
				return i, nil
			}
		}
		return 0, fmt.Errorf("invalid bucket %q, expected one of %s", param, strings.Join(bucketNames, ", "))
	}

	fmt.Fprintln(w, "Please select an alphabetical range of author usernames to view:")
	return a.pick("Author ranges", bucketNames)
}

// chooseAuthor resolves the author, from the author parameter when given,
// otherwise interactively. A canceled pick is not an error.
func (a *Authors) chooseAuthor(entries []chart.Entry) (string, error) {
	options := make([]string, len(entries))
	for i, e := range entries {
		options[i] = e.Label
	}

	if param := a.cfg.GetString("author", ""); param != "" {
		for _, name := range options {
			if name == param {
				return name, nil
			}
		}
		return "", fmt.Errorf("author %q not found in this range", param)
	}

	if len(options) == 0 {
		return "", nil
	}

	idx, err := a.pick("Authors", options)
	if err != nil {
		if err == tui.ErrCanceled {
			return "", nil
		}
		return "", err
	}
	return options[idx], nil
}
